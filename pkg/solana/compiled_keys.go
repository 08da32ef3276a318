package solana

import (
	"crypto/ed25519"
	"fmt"
	"math"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrIndexOverflow                = errors.New("account index does not fit in a byte")
	ErrMissingPayerAsWritableSigner = errors.New("expected payer to be the first writable signer")
)

// IndexOverflowError is returned when an account matched in a lookup table
// sits at a position that can't be referenced from a message.
type IndexOverflowError struct {
	Table     ed25519.PublicKey
	Positions []int
}

func (e *IndexOverflowError) Error() string {
	return fmt.Sprintf("%s: lookup table %s positions %v", ErrIndexOverflow.Error(), base58.Encode(e.Table), e.Positions)
}

func (e *IndexOverflowError) Unwrap() error {
	return ErrIndexOverflow
}

type keyID [ed25519.PublicKeySize]byte

func toKeyID(pub ed25519.PublicKey) keyID {
	var id keyID
	copy(id[:], pub)
	return id
}

func (id keyID) publicKey() ed25519.PublicKey {
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, id[:])
	return pub
}

// KeyRole is the union of every way an account is used across a set of
// instructions.
type KeyRole struct {
	IsSigner   bool
	IsWritable bool
	IsInvoked  bool
}

func (r KeyRole) merge(other KeyRole) KeyRole {
	return KeyRole{
		IsSigner:   r.IsSigner || other.IsSigner,
		IsWritable: r.IsWritable || other.IsWritable,
		IsInvoked:  r.IsInvoked || other.IsInvoked,
	}
}

// lookupResolvable reports whether the account can be loaded from a lookup
// table rather than listed statically.
func (r KeyRole) lookupResolvable() bool {
	return !r.IsSigner && !r.IsInvoked
}

type compileOptions struct {
	lookupResolvablePrograms bool
}

// CompileOption configures message compilation.
type CompileOption func(*compileOptions)

// WithLookupResolvablePrograms leaves program ids unmarked as invoked, so that
// a lookup table may resolve them. This is only valid for messages that are
// executed through a cross program invocation, such as a vault transaction.
func WithLookupResolvablePrograms() CompileOption {
	return func(o *compileOptions) {
		o.lookupResolvablePrograms = true
	}
}

func applyCompileOptions(opts []CompileOption) compileOptions {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// KeyRoleMap is an insertion ordered mapping of accounts to their roles.
//
// A KeyRoleMap is never mutated once returned. Extracting a lookup table
// produces a new map with the drained accounts removed.
type KeyRoleMap struct {
	payer ed25519.PublicKey
	roles *linkedhashmap.Map
}

func newKeyRoleMap(payer ed25519.PublicKey) *KeyRoleMap {
	return &KeyRoleMap{
		payer: toKeyID(payer).publicKey(),
		roles: linkedhashmap.New(),
	}
}

// ResolveKeyRoles computes the role of every account referenced by the
// instructions. The payer is always the first entry and is a writable signer.
func ResolveKeyRoles(payer ed25519.PublicKey, instructions []Instruction, opts ...CompileOption) *KeyRoleMap {
	o := applyCompileOptions(opts)

	m := newKeyRoleMap(payer)
	m.merge(payer, KeyRole{IsSigner: true, IsWritable: true})

	for _, ix := range instructions {
		m.merge(ix.Program, KeyRole{IsInvoked: !o.lookupResolvablePrograms})

		for _, account := range ix.Accounts {
			m.merge(account.PublicKey, KeyRole{
				IsSigner:   account.IsSigner,
				IsWritable: account.IsWritable,
			})
		}
	}

	return m
}

func (m *KeyRoleMap) merge(pub ed25519.PublicKey, role KeyRole) {
	id := toKeyID(pub)
	if existing, ok := m.roles.Get(id); ok {
		role = existing.(KeyRole).merge(role)
	}
	m.roles.Put(id, role)
}

// Payer returns the fee payer the map was resolved for.
func (m *KeyRoleMap) Payer() ed25519.PublicKey {
	return toKeyID(m.payer).publicKey()
}

// Len returns the number of accounts in the map.
func (m *KeyRoleMap) Len() int {
	return m.roles.Size()
}

// Get returns the role of an account, if present.
func (m *KeyRoleMap) Get(pub ed25519.PublicKey) (KeyRole, bool) {
	v, ok := m.roles.Get(toKeyID(pub))
	if !ok {
		return KeyRole{}, false
	}
	return v.(KeyRole), true
}

// Keys returns the accounts in first insertion order.
func (m *KeyRoleMap) Keys() []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, 0, m.roles.Size())
	m.each(func(id keyID, _ KeyRole) {
		keys = append(keys, id.publicKey())
	})
	return keys
}

func (m *KeyRoleMap) each(fn func(id keyID, role KeyRole)) {
	it := m.roles.Iterator()
	for it.Next() {
		fn(it.Key().(keyID), it.Value().(KeyRole))
	}
}

func (m *KeyRoleMap) clone() *KeyRoleMap {
	cloned := newKeyRoleMap(m.payer)
	m.each(func(id keyID, role KeyRole) {
		cloned.roles.Put(id, role)
	})
	return cloned
}

// TableExtraction is the result of resolving accounts against a single
// lookup table.
type TableExtraction struct {
	// Found is false when nothing in the table matched. No lookup should be
	// emitted for the table in that case.
	Found bool

	Lookup   MessageAddressTableLookup
	Writable []ed25519.PublicKey
	Readonly []ed25519.PublicKey
}

// ExtractTableLookup drains every lookup resolvable account that the table
// contains. Writable accounts are drained first, then readonly accounts, each
// in first insertion order. The receiver is left untouched and the remaining
// accounts are returned as a new map.
func (m *KeyRoleMap) ExtractTableLookup(table AddressLookupTable) (TableExtraction, *KeyRoleMap, error) {
	positions := make(map[keyID]int, len(table.Addresses))
	for i, address := range table.Addresses {
		id := toKeyID(address)
		if _, ok := positions[id]; !ok {
			positions[id] = i
		}
	}

	remaining := m.clone()
	var overflow []int

	drain := func(filter func(KeyRole) bool) ([]byte, []ed25519.PublicKey) {
		indexes := make([]byte, 0)
		var drained []ed25519.PublicKey
		var matched []keyID

		remaining.each(func(id keyID, role KeyRole) {
			if !filter(role) {
				return
			}

			position, ok := positions[id]
			if !ok {
				return
			}

			if position > MaxLookupTableIndex {
				overflow = append(overflow, position)
				return
			}

			indexes = append(indexes, byte(position))
			drained = append(drained, id.publicKey())
			matched = append(matched, id)
		})

		for _, id := range matched {
			remaining.roles.Remove(id)
		}
		return indexes, drained
	}

	writableIndexes, writable := drain(func(r KeyRole) bool {
		return r.lookupResolvable() && r.IsWritable
	})
	readonlyIndexes, readonly := drain(func(r KeyRole) bool {
		return r.lookupResolvable() && !r.IsWritable
	})

	if len(overflow) > 0 {
		return TableExtraction{}, nil, &IndexOverflowError{
			Table:     toKeyID(table.PublicKey).publicKey(),
			Positions: overflow,
		}
	}

	if len(writable) == 0 && len(readonly) == 0 {
		return TableExtraction{}, m, nil
	}

	return TableExtraction{
		Found: true,
		Lookup: MessageAddressTableLookup{
			PublicKey:       toKeyID(table.PublicKey).publicKey(),
			WritableIndexes: writableIndexes,
			ReadonlyIndexes: readonlyIndexes,
		},
		Writable: writable,
		Readonly: readonly,
	}, remaining, nil
}

// messageComponents partitions the accounts into the statically listed key
// set and its header. Writable signers come first, then readonly signers,
// writable non-signers and readonly non-signers.
func (m *KeyRoleMap) messageComponents() (Header, []ed25519.PublicKey, error) {
	var writableSigners, readonlySigners, writableNonSigners, readonlyNonSigners []ed25519.PublicKey

	m.each(func(id keyID, role KeyRole) {
		pub := id.publicKey()
		switch {
		case role.IsSigner && role.IsWritable:
			writableSigners = append(writableSigners, pub)
		case role.IsSigner:
			readonlySigners = append(readonlySigners, pub)
		case role.IsWritable:
			writableNonSigners = append(writableNonSigners, pub)
		default:
			readonlyNonSigners = append(readonlyNonSigners, pub)
		}
	})

	if len(writableSigners) == 0 || toKeyID(writableSigners[0]) != toKeyID(m.payer) {
		return Header{}, nil, ErrMissingPayerAsWritableSigner
	}

	total := m.roles.Size()
	if total > MaxLookupTableIndex+1 {
		return Header{}, nil, errors.Wrapf(ErrIndexOverflow, "%d static accounts", total)
	}

	numSigners := len(writableSigners) + len(readonlySigners)
	if numSigners > math.MaxUint8 {
		return Header{}, nil, errors.Wrapf(ErrIndexOverflow, "%d signers", numSigners)
	}

	keys := make([]ed25519.PublicKey, 0, total)
	keys = append(keys, writableSigners...)
	keys = append(keys, readonlySigners...)
	keys = append(keys, writableNonSigners...)
	keys = append(keys, readonlyNonSigners...)

	return Header{
		NumSignatures:     byte(numSigners),
		NumReadonlySigned: byte(len(readonlySigners)),
		NumReadOnly:       byte(len(readonlyNonSigners)),
	}, keys, nil
}
