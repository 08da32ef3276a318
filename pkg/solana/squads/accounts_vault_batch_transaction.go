package squads

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var VaultBatchTransactionAccountDiscriminator = accountDiscriminator("VaultBatchTransaction")

const (
	// program index + empty account index and data vectors
	minCompiledInstructionSize = 1 + vecLengthSize + vecLengthSize

	// table key + empty writable and readonly index vectors
	minAddressTableLookupSize = ed25519.PublicKeySize + vecLengthSize + vecLengthSize
)

// VaultTransactionMessage is the message stored by the multisig program. It
// carries the same information as a solana.CompactMessage, but its arrays are
// u32 prefixed borsh vectors.
type VaultTransactionMessage struct {
	NumSigners            uint8
	NumWritableSigners    uint8
	NumWritableNonSigners uint8
	AccountKeys           []ed25519.PublicKey
	Instructions          []solana.CompiledInstruction
	AddressTableLookups   []solana.MessageAddressTableLookup
}

func readVaultTransactionMessage(r *binary.Reader) (VaultTransactionMessage, error) {
	var m VaultTransactionMessage
	var err error

	if m.NumSigners, err = r.ReadUint8(); err != nil {
		return m, errors.Wrap(err, "num_signers")
	}
	if m.NumWritableSigners, err = r.ReadUint8(); err != nil {
		return m, errors.Wrap(err, "num_writable_signers")
	}
	if m.NumWritableNonSigners, err = r.ReadUint8(); err != nil {
		return m, errors.Wrap(err, "num_writable_non_signers")
	}
	if m.AccountKeys, err = readKeyVec(r); err != nil {
		return m, errors.Wrap(err, "account_keys")
	}

	m.Instructions, err = readVec(r, minCompiledInstructionSize, func(r *binary.Reader) (solana.CompiledInstruction, error) {
		var ix solana.CompiledInstruction
		var err error

		if ix.ProgramIndex, err = r.ReadUint8(); err != nil {
			return ix, err
		}
		if ix.Accounts, err = readByteVec(r); err != nil {
			return ix, err
		}
		ix.Data, err = readByteVec(r)
		return ix, err
	})
	if err != nil {
		return m, errors.Wrap(err, "instructions")
	}

	m.AddressTableLookups, err = readVec(r, minAddressTableLookupSize, func(r *binary.Reader) (solana.MessageAddressTableLookup, error) {
		var lookup solana.MessageAddressTableLookup
		var err error

		if lookup.PublicKey, err = r.ReadKey(); err != nil {
			return lookup, err
		}
		if lookup.WritableIndexes, err = readByteVec(r); err != nil {
			return lookup, err
		}
		lookup.ReadonlyIndexes, err = readByteVec(r)
		return lookup, err
	})
	if err != nil {
		return m, errors.Wrap(err, "address_table_lookups")
	}

	return m, nil
}

// NewVaultTransactionMessage stores a compact message in the layout kept by
// batch transaction accounts
func NewVaultTransactionMessage(m solana.CompactMessage) VaultTransactionMessage {
	return VaultTransactionMessage{
		NumSigners:            m.Header.NumSignatures,
		NumWritableSigners:    uint8(m.NumWritableSigners()),
		NumWritableNonSigners: uint8(m.NumWritableNonSigners()),
		AccountKeys:           m.Accounts,
		Instructions:          m.Instructions,
		AddressTableLookups:   m.AddressTableLookups,
	}
}

// ToCompactMessage converts the stored message into the compact form used to
// add it to a batch, which also exposes the resolved account helpers
func (m VaultTransactionMessage) ToCompactMessage() (solana.CompactMessage, error) {
	if m.NumWritableSigners > m.NumSigners || int(m.NumSigners)+int(m.NumWritableNonSigners) > len(m.AccountKeys) {
		return solana.CompactMessage{}, errors.Wrapf(
			ErrInvalidAccountData,
			"header (%d, %d, %d) is inconsistent with %d accounts",
			m.NumSigners, m.NumWritableSigners, m.NumWritableNonSigners, len(m.AccountKeys),
		)
	}

	return solana.CompactMessage{
		Header: solana.Header{
			NumSignatures:     m.NumSigners,
			NumReadonlySigned: m.NumSigners - m.NumWritableSigners,
			NumReadOnly:       uint8(len(m.AccountKeys) - int(m.NumSigners) - int(m.NumWritableNonSigners)),
		},
		Accounts:            m.AccountKeys,
		Instructions:        m.Instructions,
		AddressTableLookups: m.AddressTableLookups,
	}, nil
}

type VaultBatchTransactionAccount struct {
	Bump                 uint8
	EphemeralSignerBumps []byte
	Message              VaultTransactionMessage
}

// ParseVaultBatchTransaction decodes a batch transaction account that has
// already had its discriminator removed
func ParseVaultBatchTransaction(data []byte) (*VaultBatchTransactionAccount, error) {
	r := binary.NewReader(data)

	var obj VaultBatchTransactionAccount
	var err error

	if obj.Bump, err = r.ReadUint8(); err != nil {
		return nil, errors.Wrap(err, "bump")
	}
	if obj.EphemeralSignerBumps, err = readByteVec(r); err != nil {
		return nil, errors.Wrap(err, "ephemeral_signer_bumps")
	}
	if obj.Message, err = readVaultTransactionMessage(r); err != nil {
		return nil, errors.Wrap(err, "message")
	}

	return &obj, nil
}

func (obj *VaultBatchTransactionAccount) Unmarshal(data []byte) error {
	body, err := checkDiscriminator(data, VaultBatchTransactionAccountDiscriminator)
	if err != nil {
		return err
	}

	parsed, err := ParseVaultBatchTransaction(body)
	if err != nil {
		return err
	}

	*obj = *parsed
	return nil
}

func (obj *VaultBatchTransactionAccount) String() string {
	lookups := make([]string, len(obj.Message.AddressTableLookups))
	for i, lookup := range obj.Message.AddressTableLookups {
		lookups[i] = fmt.Sprintf("%s(w=%v,r=%v)", base58.Encode(lookup.PublicKey), lookup.WritableIndexes, lookup.ReadonlyIndexes)
	}

	return fmt.Sprintf(
		"VaultBatchTransactionAccount{bump=%d,ephemeral_signer_bumps=%v,num_signers=%d,num_writable_signers=%d,num_writable_non_signers=%d,account_keys=[%s],instructions=%d,address_table_lookups=%v}",
		obj.Bump,
		obj.EphemeralSignerBumps,
		obj.Message.NumSigners,
		obj.Message.NumWritableSigners,
		obj.Message.NumWritableNonSigners,
		encodeKeys(obj.Message.AccountKeys),
		len(obj.Message.Instructions),
		lookups,
	)
}
