package squads

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var ProposalAccountDiscriminator = accountDiscriminator("Proposal")

type ProposalStatusKind uint8

const (
	ProposalStatusKindDraft ProposalStatusKind = iota
	ProposalStatusKindActive
	ProposalStatusKindRejected
	ProposalStatusKindApproved
	ProposalStatusKindExecuting
	ProposalStatusKindExecuted
	ProposalStatusKindCancelled
)

func (k ProposalStatusKind) String() string {
	switch k {
	case ProposalStatusKindDraft:
		return "draft"
	case ProposalStatusKindActive:
		return "active"
	case ProposalStatusKindRejected:
		return "rejected"
	case ProposalStatusKindApproved:
		return "approved"
	case ProposalStatusKindExecuting:
		return "executing"
	case ProposalStatusKindExecuted:
		return "executed"
	case ProposalStatusKindCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// ProposalStatus is the state of a proposal. Every status records the unix
// timestamp it was entered at, except for ProposalStatusExecuting.
type ProposalStatus interface {
	Kind() ProposalStatusKind
}

// TimestampedStatus is implemented by every ProposalStatus that carries a
// timestamp
type TimestampedStatus interface {
	ProposalStatus
	At() time.Time
}

type timestamp struct {
	Timestamp int64
}

func (t timestamp) At() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}

type ProposalStatusDraft struct{ timestamp }
type ProposalStatusActive struct{ timestamp }
type ProposalStatusRejected struct{ timestamp }
type ProposalStatusApproved struct{ timestamp }
type ProposalStatusExecuting struct{}
type ProposalStatusExecuted struct{ timestamp }
type ProposalStatusCancelled struct{ timestamp }

func (ProposalStatusDraft) Kind() ProposalStatusKind     { return ProposalStatusKindDraft }
func (ProposalStatusActive) Kind() ProposalStatusKind    { return ProposalStatusKindActive }
func (ProposalStatusRejected) Kind() ProposalStatusKind  { return ProposalStatusKindRejected }
func (ProposalStatusApproved) Kind() ProposalStatusKind  { return ProposalStatusKindApproved }
func (ProposalStatusExecuting) Kind() ProposalStatusKind { return ProposalStatusKindExecuting }
func (ProposalStatusExecuted) Kind() ProposalStatusKind  { return ProposalStatusKindExecuted }
func (ProposalStatusCancelled) Kind() ProposalStatusKind { return ProposalStatusKindCancelled }

// NewProposalStatus builds the status for a kind. The timestamp is ignored
// for ProposalStatusKindExecuting.
func NewProposalStatus(kind ProposalStatusKind, unixTimestamp int64) (ProposalStatus, error) {
	ts := timestamp{Timestamp: unixTimestamp}
	switch kind {
	case ProposalStatusKindDraft:
		return ProposalStatusDraft{ts}, nil
	case ProposalStatusKindActive:
		return ProposalStatusActive{ts}, nil
	case ProposalStatusKindRejected:
		return ProposalStatusRejected{ts}, nil
	case ProposalStatusKindApproved:
		return ProposalStatusApproved{ts}, nil
	case ProposalStatusKindExecuting:
		return ProposalStatusExecuting{}, nil
	case ProposalStatusKindExecuted:
		return ProposalStatusExecuted{ts}, nil
	case ProposalStatusKindCancelled:
		return ProposalStatusCancelled{ts}, nil
	}
	return nil, errors.Errorf("unknown proposal status: %d", uint8(kind))
}

func readProposalStatus(r *binary.Reader) (ProposalStatus, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	kind := ProposalStatusKind(tag)
	if kind == ProposalStatusKindExecuting {
		return ProposalStatusExecuting{}, nil
	}
	if kind > ProposalStatusKindCancelled {
		return nil, errors.Wrapf(ErrInvalidAccountData, "unknown proposal status: %d", tag)
	}

	ts, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}
	return NewProposalStatus(kind, ts)
}

type ProposalAccount struct {
	Multisig         ed25519.PublicKey
	TransactionIndex uint64
	Status           ProposalStatus
	Bump             uint8
	Approved         []ed25519.PublicKey
	Rejected         []ed25519.PublicKey
	Cancelled        []ed25519.PublicKey
}

// ParseProposal decodes a proposal account that has already had its
// discriminator removed
func ParseProposal(data []byte) (*ProposalAccount, error) {
	r := binary.NewReader(data)

	var obj ProposalAccount
	var err error

	if obj.Multisig, err = r.ReadKey(); err != nil {
		return nil, errors.Wrap(err, "multisig")
	}
	if obj.TransactionIndex, err = r.ReadUint64(); err != nil {
		return nil, errors.Wrap(err, "transaction_index")
	}
	if obj.Status, err = readProposalStatus(r); err != nil {
		return nil, errors.Wrap(err, "status")
	}
	if obj.Bump, err = r.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "bump")
	}
	if obj.Approved, err = readKeyVec(r); err != nil {
		return nil, errors.Wrap(err, "approved")
	}
	if obj.Rejected, err = readKeyVec(r); err != nil {
		return nil, errors.Wrap(err, "rejected")
	}
	if obj.Cancelled, err = readKeyVec(r); err != nil {
		return nil, errors.Wrap(err, "cancelled")
	}

	return &obj, nil
}

func (obj *ProposalAccount) Unmarshal(data []byte) error {
	body, err := checkDiscriminator(data, ProposalAccountDiscriminator)
	if err != nil {
		return err
	}

	parsed, err := ParseProposal(body)
	if err != nil {
		return err
	}

	*obj = *parsed
	return nil
}

// HasApproved reports whether member has already approved the proposal
func (obj *ProposalAccount) HasApproved(member ed25519.PublicKey) bool {
	for _, approver := range obj.Approved {
		if string(approver) == string(member) {
			return true
		}
	}
	return false
}

func (obj *ProposalAccount) String() string {
	status := obj.Status.Kind().String()
	if ts, ok := obj.Status.(TimestampedStatus); ok {
		status = fmt.Sprintf("%s@%s", status, ts.At().Format(time.RFC3339))
	}

	return fmt.Sprintf(
		"ProposalAccount{multisig=%s,transaction_index=%d,status=%s,bump=%d,approved=[%s],rejected=[%s],cancelled=[%s]}",
		base58.Encode(obj.Multisig),
		obj.TransactionIndex,
		status,
		obj.Bump,
		encodeKeys(obj.Approved),
		encodeKeys(obj.Rejected),
		encodeKeys(obj.Cancelled),
	)
}

func encodeKeys(keys []ed25519.PublicKey) string {
	encoded := make([]string, len(keys))
	for i, key := range keys {
		encoded[i] = base58.Encode(key)
	}
	return strings.Join(encoded, ",")
}
