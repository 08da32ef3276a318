package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	solbinary "github.com/code-payments/vault-governor/pkg/solana/binary"
	"github.com/code-payments/vault-governor/pkg/solana/smallarray"
)

var ErrInvalidCompactMessage = errors.New("invalid compact message")

// MarshalCompact encodes the message with narrow length prefixes. Every count
// is a single byte, except for instruction data which uses two.
//
// The header is written as the number of signers, the number of writable
// signers and the number of writable non-signers.
func (m CompactMessage) MarshalCompact() ([]byte, error) {
	if m.NumWritableSigners() < 0 || m.NumWritableNonSigners() < 0 {
		return nil, errors.Wrap(ErrInvalidCompactMessage, "header is inconsistent with accounts")
	}
	if m.NumWritableSigners() > smallarray.Width8.MaxLen() || m.NumWritableNonSigners() > smallarray.Width8.MaxLen() {
		return nil, errors.Wrap(smallarray.ErrLengthOverflow, "header")
	}

	b := bytes.NewBuffer(nil)

	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(byte(m.NumWritableSigners()))
	_ = b.WriteByte(byte(m.NumWritableNonSigners()))

	err := smallarray.Encode(b, smallarray.Width8, m.Accounts, func(w io.Writer, account ed25519.PublicKey) error {
		if len(account) != ed25519.PublicKeySize {
			return errors.Errorf("invalid account length %d", len(account))
		}
		_, err := w.Write(account)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode accounts")
	}

	err = smallarray.Encode(b, smallarray.Width8, m.Instructions, func(w io.Writer, ix CompiledInstruction) error {
		if _, err := w.Write([]byte{ix.ProgramIndex}); err != nil {
			return err
		}
		if err := smallarray.EncodeBytes(w, smallarray.Width8, ix.Accounts); err != nil {
			return errors.Wrap(err, "accounts")
		}
		return errors.Wrap(smallarray.EncodeBytes(w, smallarray.Width16, ix.Data), "data")
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode instructions")
	}

	err = smallarray.Encode(b, smallarray.Width8, m.AddressTableLookups, func(w io.Writer, lookup MessageAddressTableLookup) error {
		if len(lookup.PublicKey) != ed25519.PublicKeySize {
			return errors.Errorf("invalid lookup table key length %d", len(lookup.PublicKey))
		}
		if _, err := w.Write(lookup.PublicKey); err != nil {
			return err
		}
		if err := smallarray.EncodeBytes(w, smallarray.Width8, lookup.WritableIndexes); err != nil {
			return errors.Wrap(err, "writable indexes")
		}
		return errors.Wrap(smallarray.EncodeBytes(w, smallarray.Width8, lookup.ReadonlyIndexes), "readonly indexes")
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode address table lookups")
	}

	return b.Bytes(), nil
}

// UnmarshalCompact decodes a message produced by MarshalCompact.
func UnmarshalCompact(b []byte) (CompactMessage, error) {
	r := solbinary.NewReader(b)

	numSigners, err := r.ReadUint8()
	if err != nil {
		return CompactMessage{}, errors.Wrap(err, "failed to read num signers")
	}
	numWritableSigners, err := r.ReadUint8()
	if err != nil {
		return CompactMessage{}, errors.Wrap(err, "failed to read num writable signers")
	}
	numWritableNonSigners, err := r.ReadUint8()
	if err != nil {
		return CompactMessage{}, errors.Wrap(err, "failed to read num writable non-signers")
	}

	accounts, err := smallarray.Decode(r, smallarray.Width8, func(r *solbinary.Reader) (ed25519.PublicKey, error) {
		return r.ReadKey()
	})
	if err != nil {
		return CompactMessage{}, errors.Wrap(err, "failed to read accounts")
	}

	if numWritableSigners > numSigners || int(numSigners)+int(numWritableNonSigners) > len(accounts) {
		return CompactMessage{}, errors.Wrapf(
			ErrInvalidCompactMessage,
			"header (%d, %d, %d) is inconsistent with %d accounts",
			numSigners, numWritableSigners, numWritableNonSigners, len(accounts),
		)
	}

	instructions, err := smallarray.Decode(r, smallarray.Width8, func(r *solbinary.Reader) (CompiledInstruction, error) {
		var ix CompiledInstruction
		var err error

		if ix.ProgramIndex, err = r.ReadUint8(); err != nil {
			return ix, err
		}
		if ix.Accounts, err = smallarray.DecodeBytes(r, smallarray.Width8); err != nil {
			return ix, err
		}
		ix.Data, err = smallarray.DecodeBytes(r, smallarray.Width16)
		return ix, err
	})
	if err != nil {
		return CompactMessage{}, errors.Wrap(err, "failed to read instructions")
	}

	lookups, err := smallarray.Decode(r, smallarray.Width8, func(r *solbinary.Reader) (MessageAddressTableLookup, error) {
		var lookup MessageAddressTableLookup
		var err error

		if lookup.PublicKey, err = r.ReadKey(); err != nil {
			return lookup, err
		}
		if lookup.WritableIndexes, err = smallarray.DecodeBytes(r, smallarray.Width8); err != nil {
			return lookup, err
		}
		lookup.ReadonlyIndexes, err = smallarray.DecodeBytes(r, smallarray.Width8)
		return lookup, err
	})
	if err != nil {
		return CompactMessage{}, errors.Wrap(err, "failed to read address table lookups")
	}
	if len(lookups) == 0 {
		lookups = nil
	}

	return CompactMessage{
		Header: Header{
			NumSignatures:     numSigners,
			NumReadonlySigned: numSigners - numWritableSigners,
			NumReadOnly:       byte(len(accounts) - int(numSigners) - int(numWritableNonSigners)),
		},
		Accounts:            accounts,
		Instructions:        instructions,
		AddressTableLookups: lookups,
	}, nil
}
