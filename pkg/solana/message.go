package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

type MessageAddressTableLookup struct {
	PublicKey       ed25519.PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

// CompactMessage is a compiled message without a version or recent blockhash.
//
// Account indexes used by instructions address the resolved account space:
// Accounts, then every lookup's writable entries in lookup order, then every
// lookup's readonly entries in lookup order.
type CompactMessage struct {
	Header              Header
	Accounts            []ed25519.PublicKey
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// CompileMessage compiles instructions into a message paid for by payer,
// loading accounts from the provided lookup tables where possible. Tables are
// consulted in the order provided, and an account is only ever loaded from the
// first table that contains it.
func CompileMessage(payer ed25519.PublicKey, instructions []Instruction, tables []AddressLookupTable, opts ...CompileOption) (CompactMessage, error) {
	remaining := ResolveKeyRoles(payer, instructions, opts...)

	var lookups []MessageAddressTableLookup
	var drainedWritable, drainedReadonly []ed25519.PublicKey
	for _, table := range tables {
		extraction, next, err := remaining.ExtractTableLookup(table)
		if err != nil {
			return CompactMessage{}, err
		}
		if !extraction.Found {
			continue
		}

		lookups = append(lookups, extraction.Lookup)
		drainedWritable = append(drainedWritable, extraction.Writable...)
		drainedReadonly = append(drainedReadonly, extraction.Readonly...)
		remaining = next
	}

	header, static, err := remaining.messageComponents()
	if err != nil {
		return CompactMessage{}, err
	}

	resolved := make([]ed25519.PublicKey, 0, len(static)+len(drainedWritable)+len(drainedReadonly))
	resolved = append(resolved, static...)
	resolved = append(resolved, drainedWritable...)
	resolved = append(resolved, drainedReadonly...)

	indexes := make(map[keyID]int, len(resolved))
	for i, pub := range resolved {
		indexes[toKeyID(pub)] = i
	}

	indexOf := func(pub ed25519.PublicKey) (byte, error) {
		i, ok := indexes[toKeyID(pub)]
		if !ok {
			return 0, errors.Errorf("account %s was not resolved", base58.Encode(pub))
		}
		if i > MaxLookupTableIndex {
			return 0, errors.Wrapf(ErrIndexOverflow, "account %s at index %d", base58.Encode(pub), i)
		}
		return byte(i), nil
	}

	compiled := make([]CompiledInstruction, 0, len(instructions))
	for i, ix := range instructions {
		programIndex, err := indexOf(ix.Program)
		if err != nil {
			return CompactMessage{}, errors.Wrapf(err, "instruction %d program", i)
		}

		c := CompiledInstruction{
			ProgramIndex: programIndex,
			Accounts:     make([]byte, 0, len(ix.Accounts)),
			Data:         append([]byte{}, ix.Data...),
		}

		for j, account := range ix.Accounts {
			index, err := indexOf(account.PublicKey)
			if err != nil {
				return CompactMessage{}, errors.Wrapf(err, "instruction %d account %d", i, j)
			}
			c.Accounts = append(c.Accounts, index)
		}

		compiled = append(compiled, c)
	}

	return CompactMessage{
		Header:              header,
		Accounts:            static,
		Instructions:        compiled,
		AddressTableLookups: lookups,
	}, nil
}

// NumWritableSigners returns the number of static accounts that sign and are
// writable.
func (m CompactMessage) NumWritableSigners() int {
	return int(m.Header.NumSignatures) - int(m.Header.NumReadonlySigned)
}

// NumWritableNonSigners returns the number of static accounts that are
// writable but don't sign.
func (m CompactMessage) NumWritableNonSigners() int {
	return len(m.Accounts) - int(m.Header.NumSignatures) - int(m.Header.NumReadOnly)
}

func (m CompactMessage) NumLookupWritable() int {
	var n int
	for _, lookup := range m.AddressTableLookups {
		n += len(lookup.WritableIndexes)
	}
	return n
}

func (m CompactMessage) NumLookupReadonly() int {
	var n int
	for _, lookup := range m.AddressTableLookups {
		n += len(lookup.ReadonlyIndexes)
	}
	return n
}

// NumResolvedAccounts returns the size of the resolved account space.
func (m CompactMessage) NumResolvedAccounts() int {
	return len(m.Accounts) + m.NumLookupWritable() + m.NumLookupReadonly()
}

// IsSigner reports whether the account at the resolved index signs.
func (m CompactMessage) IsSigner(index int) bool {
	return index >= 0 && index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at the resolved index is writable.
func (m CompactMessage) IsWritable(index int) bool {
	switch {
	case index < 0:
		return false
	case index < int(m.Header.NumSignatures):
		return index < m.NumWritableSigners()
	case index < len(m.Accounts):
		return index < len(m.Accounts)-int(m.Header.NumReadOnly)
	default:
		return index < len(m.Accounts)+m.NumLookupWritable()
	}
}

// ResolvedAccounts expands the message's lookups against the provided tables,
// returning the full resolved account space.
func (m CompactMessage) ResolvedAccounts(tables []AddressLookupTable) ([]ed25519.PublicKey, error) {
	resolved := make([]ed25519.PublicKey, 0, m.NumResolvedAccounts())
	for _, account := range m.Accounts {
		resolved = append(resolved, toKeyID(account).publicKey())
	}

	var writable, readonly []ed25519.PublicKey
	for _, lookup := range m.AddressTableLookups {
		table, ok := findLookupTable(tables, lookup.PublicKey)
		if !ok {
			return nil, errors.Errorf("address lookup table %s not provided", base58.Encode(lookup.PublicKey))
		}

		load := func(indexes []byte) ([]ed25519.PublicKey, error) {
			loaded := make([]ed25519.PublicKey, 0, len(indexes))
			for _, index := range indexes {
				if int(index) >= len(table.Addresses) {
					return nil, errors.Errorf("index %d out of range for address lookup table %s", index, base58.Encode(table.PublicKey))
				}
				loaded = append(loaded, toKeyID(table.Addresses[index]).publicKey())
			}
			return loaded, nil
		}

		w, err := load(lookup.WritableIndexes)
		if err != nil {
			return nil, err
		}
		r, err := load(lookup.ReadonlyIndexes)
		if err != nil {
			return nil, err
		}

		writable = append(writable, w...)
		readonly = append(readonly, r...)
	}

	resolved = append(resolved, writable...)
	resolved = append(resolved, readonly...)
	return resolved, nil
}

// DecompileInstructions expands every compiled instruction against the
// resolved account space, restoring signer and writable flags from the
// header and lookups.
func (m CompactMessage) DecompileInstructions(tables []AddressLookupTable) ([]Instruction, error) {
	resolved, err := m.ResolvedAccounts(tables)
	if err != nil {
		return nil, err
	}

	instructions := make([]Instruction, 0, len(m.Instructions))
	for i, compiled := range m.Instructions {
		if int(compiled.ProgramIndex) >= len(resolved) {
			return nil, errors.Errorf("instruction %d: program index %d out of range", i, compiled.ProgramIndex)
		}

		ix := Instruction{
			Program:  resolved[compiled.ProgramIndex],
			Accounts: make([]AccountMeta, 0, len(compiled.Accounts)),
			Data:     append([]byte{}, compiled.Data...),
		}
		for _, index := range compiled.Accounts {
			if int(index) >= len(resolved) {
				return nil, errors.Errorf("instruction %d: account index %d out of range", i, index)
			}
			ix.Accounts = append(ix.Accounts, AccountMeta{
				PublicKey:  resolved[index],
				IsSigner:   m.IsSigner(int(index)),
				IsWritable: m.IsWritable(int(index)),
			})
		}
		instructions = append(instructions, ix)
	}
	return instructions, nil
}
