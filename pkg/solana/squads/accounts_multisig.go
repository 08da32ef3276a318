package squads

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var MultisigAccountDiscriminator = accountDiscriminator("Multisig")

type Permissions uint8

const (
	PermissionInitiate Permissions = 1 << iota
	PermissionVote
	PermissionExecute

	PermissionAll = PermissionInitiate | PermissionVote | PermissionExecute
)

// Has reports whether every permission in p is granted
func (m Permissions) Has(p Permissions) bool {
	return m&p == p
}

func (m Permissions) String() string {
	var granted []string
	if m.Has(PermissionInitiate) {
		granted = append(granted, "initiate")
	}
	if m.Has(PermissionVote) {
		granted = append(granted, "vote")
	}
	if m.Has(PermissionExecute) {
		granted = append(granted, "execute")
	}
	if len(granted) == 0 {
		return "none"
	}
	return strings.Join(granted, "|")
}

const memberSize = ed25519.PublicKeySize + 1

type Member struct {
	Key         ed25519.PublicKey
	Permissions Permissions
}

type MultisigAccount struct {
	CreateKey             ed25519.PublicKey
	ConfigAuthority       ed25519.PublicKey
	Threshold             uint16
	TimeLock              uint32
	TransactionIndex      uint64
	StaleTransactionIndex uint64
	RentCollector         ed25519.PublicKey
	Bump                  uint8
	Members               []Member
}

// ParseMultisig decodes a multisig account that has already had its
// discriminator removed
func ParseMultisig(data []byte) (*MultisigAccount, error) {
	r := binary.NewReader(data)

	var obj MultisigAccount
	var err error

	if obj.CreateKey, err = r.ReadKey(); err != nil {
		return nil, errors.Wrap(err, "create_key")
	}
	if obj.ConfigAuthority, err = r.ReadKey(); err != nil {
		return nil, errors.Wrap(err, "config_authority")
	}
	if obj.Threshold, err = r.ReadUint16(); err != nil {
		return nil, errors.Wrap(err, "threshold")
	}
	if obj.TimeLock, err = r.ReadUint32(); err != nil {
		return nil, errors.Wrap(err, "time_lock")
	}
	if obj.TransactionIndex, err = r.ReadUint64(); err != nil {
		return nil, errors.Wrap(err, "transaction_index")
	}
	if obj.StaleTransactionIndex, err = r.ReadUint64(); err != nil {
		return nil, errors.Wrap(err, "stale_transaction_index")
	}
	if obj.RentCollector, err = r.ReadOptionalKey(); err != nil {
		return nil, errors.Wrap(err, "rent_collector")
	}
	if obj.Bump, err = r.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "bump")
	}

	obj.Members, err = readVec(r, memberSize, func(r *binary.Reader) (Member, error) {
		key, err := r.ReadKey()
		if err != nil {
			return Member{}, err
		}
		mask, err := r.ReadUint8()
		if err != nil {
			return Member{}, err
		}
		return Member{Key: key, Permissions: Permissions(mask)}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "members")
	}

	return &obj, nil
}

func (obj *MultisigAccount) Unmarshal(data []byte) error {
	body, err := checkDiscriminator(data, MultisigAccountDiscriminator)
	if err != nil {
		return err
	}

	parsed, err := ParseMultisig(body)
	if err != nil {
		return err
	}

	*obj = *parsed
	return nil
}

// NextTransactionIndex is the index the next proposal or batch will be
// created at
func (obj *MultisigAccount) NextTransactionIndex() uint64 {
	return obj.TransactionIndex + 1
}

// MembersWith returns the members that hold every permission in p, in
// account order
func (obj *MultisigAccount) MembersWith(p Permissions) []Member {
	var res []Member
	for _, member := range obj.Members {
		if member.Permissions.Has(p) {
			res = append(res, member)
		}
	}
	return res
}

// IsMember returns the member entry for key, if present
func (obj *MultisigAccount) IsMember(key ed25519.PublicKey) (Member, bool) {
	for _, member := range obj.Members {
		if string(member.Key) == string(key) {
			return member, true
		}
	}
	return Member{}, false
}

func (obj *MultisigAccount) String() string {
	members := make([]string, len(obj.Members))
	for i, member := range obj.Members {
		members[i] = fmt.Sprintf("%s(%s)", base58.Encode(member.Key), member.Permissions)
	}

	rentCollector := "none"
	if obj.RentCollector != nil {
		rentCollector = base58.Encode(obj.RentCollector)
	}

	return fmt.Sprintf(
		"MultisigAccount{create_key=%s,config_authority=%s,threshold=%d,time_lock=%d,transaction_index=%d,stale_transaction_index=%d,rent_collector=%s,bump=%d,members=[%s]}",
		base58.Encode(obj.CreateKey),
		base58.Encode(obj.ConfigAuthority),
		obj.Threshold,
		obj.TimeLock,
		obj.TransactionIndex,
		obj.StaleTransactionIndex,
		rentCollector,
		obj.Bump,
		strings.Join(members, ","),
	)
}
