package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

// Message is a compiled message bound to a recent blockhash.
type Message struct {
	CompactMessage

	Version         MessageVersion
	RecentBlockhash Blockhash
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction creates a legacy transaction, where every account is listed
// statically.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) (Transaction, error) {
	return NewVersionedTransaction(payer, nil, instructions)
}

// NewVersionedTransaction creates a transaction that loads accounts from the
// provided address lookup tables where possible. The transaction is only
// versioned if at least one table was used.
func NewVersionedTransaction(payer ed25519.PublicKey, addressLookupTables []AddressLookupTable, instructions []Instruction) (Transaction, error) {
	compiled, err := CompileMessage(payer, instructions, addressLookupTables)
	if err != nil {
		return Transaction{}, errors.Wrap(err, "failed to compile message")
	}

	m := Message{
		CompactMessage: compiled,
		Version:        MessageVersionLegacy,
	}
	if len(m.AddressTableLookups) > 0 {
		m.Version = MessageVersion0
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}, nil
}

func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Version: %s\n", t.Message.Version.String()))
	sb.WriteString(fmt.Sprintf("  RecentBlockhash: %s\n", base58.Encode(t.Message.RecentBlockhash[:])))
	sb.WriteString(t.Message.CompactMessage.String())
	return sb.String()
}

func (m CompactMessage) String() string {
	var sb strings.Builder
	sb.WriteString("  Header:\n")
	sb.WriteString(fmt.Sprintf("    NumSignatures: %d\n", m.Header.NumSignatures))
	sb.WriteString(fmt.Sprintf("    NumReadOnly: %d\n", m.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("    NumReadOnlySigned: %d\n", m.Header.NumReadonlySigned))
	sb.WriteString("  Static Accounts:\n")
	for i, a := range m.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i := range m.Instructions {
		sb.WriteString(fmt.Sprintf("    %d:\n", i))
		sb.WriteString(fmt.Sprintf("      ProgramIndex: %d\n", m.Instructions[i].ProgramIndex))
		sb.WriteString(fmt.Sprintf("      Accounts: %v\n", m.Instructions[i].Accounts))
		sb.WriteString(fmt.Sprintf("      Data: %v\n", m.Instructions[i].Data))
	}
	if len(m.AddressTableLookups) > 0 {
		sb.WriteString("  Address Table Lookups:\n")
		for i := range m.AddressTableLookups {
			sb.WriteString(fmt.Sprintf("    %s:\n", base58.Encode(m.AddressTableLookups[i].PublicKey)))
			sb.WriteString(fmt.Sprintf("      Writable Indexes: %v\n", m.AddressTableLookups[i].WritableIndexes))
			sb.WriteString(fmt.Sprintf("      Readonly Indexes: %v\n", m.AddressTableLookups[i].ReadonlyIndexes))
		}
	}
	return sb.String()
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

// VerifySignatures checks every signature against its signing account.
func (t *Transaction) VerifySignatures() bool {
	if len(t.Signatures) != int(t.Message.Header.NumSignatures) || len(t.Signatures) > len(t.Message.Accounts) {
		return false
	}

	messageBytes := t.Message.Marshal()
	for i, s := range t.Signatures {
		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, s[:]) {
			return false
		}
	}
	return true
}

// FullySigned reports whether every required signature has been populated.
func (t *Transaction) FullySigned() bool {
	for _, s := range t.Signatures {
		if s == (Signature{}) {
			return false
		}
	}
	return len(t.Signatures) > 0
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}

func (v MessageVersion) String() string {
	switch v {
	case MessageVersionLegacy:
		return "legacy"
	case MessageVersion0:
		return "v0"
	}
	return "unknown"
}
