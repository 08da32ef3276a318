package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana/shortvec"
)

const versionPrefix = 0x80

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return (&t.Message).Unmarshal(buf.Bytes())
}

func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Version Number
	switch m.Version {
	case MessageVersionLegacy:
	case MessageVersion0:
		_ = b.WriteByte(versionPrefix | byte(m.Version-1))
	default:
		panic("unsupported message version")
	}

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		// Accounts
		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		// Data
		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	if m.Version == MessageVersionLegacy {
		return b.Bytes()
	}

	_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
	for _, addressTableLookup := range m.AddressTableLookups {
		_, _ = b.Write(addressTableLookup.PublicKey)

		_, _ = shortvec.EncodeLen(b, len(addressTableLookup.WritableIndexes))
		_, _ = b.Write(addressTableLookup.WritableIndexes)

		_, _ = shortvec.EncodeLen(b, len(addressTableLookup.ReadonlyIndexes))
		_, _ = b.Write(addressTableLookup.ReadonlyIndexes)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) (err error) {
	if len(b) == 0 {
		return errors.New("empty message")
	}

	*m = Message{}
	buf := bytes.NewBuffer(b)

	if b[0]&versionPrefix != 0 {
		prefix, _ := buf.ReadByte()
		if version := prefix &^ versionPrefix; version != 0 {
			return errors.Errorf("unsupported message version: %d", version)
		}
		m.Version = MessageVersion0
	}

	// Header
	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadOnly, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	// Accounts
	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	if accountLen*ed25519.PublicKeySize > buf.Len() {
		return errors.Errorf("account len %d exceeds message size", accountLen)
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	// Recent block hash
	if _, err = io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	// Instructions
	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	if instructionLen > buf.Len() {
		return errors.Errorf("instruction len %d exceeds message size", instructionLen)
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		var c CompiledInstruction

		// Program Index
		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}

		// Account Indexes
		accountLen, err = shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] account len", i)
		}
		c.Accounts = make([]byte, accountLen)
		if _, err = io.ReadFull(buf, c.Accounts); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}

		// Data
		dataLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data len", i)
		}
		c.Data = make([]byte, dataLen)
		if _, err = io.ReadFull(buf, c.Data); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		m.Instructions[i] = c
	}

	if m.Version == MessageVersion0 {
		lookupLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrap(err, "failed to read address table lookup len")
		}
		if lookupLen*ed25519.PublicKeySize > buf.Len() {
			return errors.Errorf("address table lookup len %d exceeds message size", lookupLen)
		}

		for i := 0; i < lookupLen; i++ {
			lookup := MessageAddressTableLookup{
				PublicKey: make([]byte, ed25519.PublicKeySize),
			}
			if _, err = io.ReadFull(buf, lookup.PublicKey); err != nil {
				return errors.Wrapf(err, "failed to read address table lookup[%d] key", i)
			}

			if lookup.WritableIndexes, err = readIndexes(buf); err != nil {
				return errors.Wrapf(err, "failed to read address table lookup[%d] writable indexes", i)
			}
			if lookup.ReadonlyIndexes, err = readIndexes(buf); err != nil {
				return errors.Wrapf(err, "failed to read address table lookup[%d] readonly indexes", i)
			}

			m.AddressTableLookups = append(m.AddressTableLookups, lookup)
		}
	}

	// Indexes can only be validated once the size of the loaded account space
	// is known
	numAccounts := m.NumResolvedAccounts()
	for i, c := range m.Instructions {
		if int(c.ProgramIndex) >= numAccounts {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}
		for _, index := range c.Accounts {
			if int(index) >= numAccounts {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}
	}

	return nil
}

func readIndexes(buf *bytes.Buffer) ([]byte, error) {
	n, err := shortvec.DecodeLen(buf)
	if err != nil {
		return nil, err
	}

	indexes := make([]byte, n)
	if _, err = io.ReadFull(buf, indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}
