package address_lookup_table

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"math"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana"
	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

var (
	ErrInvalidAccountSize = errors.New("invalid address lookup table account size")
	ErrInvalidAccountType = errors.New("invalid account type")
)

const (
	lookupTableTypeIndex = 1

	metadataSize = 56
	maxAddresses = 256

	// DeactivationSlotActive is the deactivation slot of a table that hasn't
	// been deactivated
	DeactivationSlotActive = math.MaxUint64
)

type AddressLookupTableAccount struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	Authority                  ed25519.PublicKey
	Addresses                  []ed25519.PublicKey
}

// Reference: https://github.com/solana-program/address-lookup-table/blob/main/program/src/state.rs
func (obj *AddressLookupTableAccount) Unmarshal(data []byte) error {
	if len(data) < metadataSize {
		return ErrInvalidAccountSize
	}

	r := binary.NewReader(data)

	typeIndex, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if typeIndex != lookupTableTypeIndex {
		return ErrInvalidAccountType
	}

	if obj.DeactivationSlot, err = r.ReadUint64(); err != nil {
		return err
	}
	if obj.LastExtendedSlot, err = r.ReadUint64(); err != nil {
		return err
	}
	if obj.LastExtendedSlotStartIndex, err = r.ReadUint8(); err != nil {
		return err
	}
	if obj.Authority, err = r.ReadOptionalKey(); err != nil {
		return err
	}

	// The metadata section is padded
	if err := r.Skip(metadataSize - r.Offset()); err != nil {
		return err
	}

	if r.Remaining()%ed25519.PublicKeySize != 0 {
		return ErrInvalidAccountSize
	}
	addressCount := r.Remaining() / ed25519.PublicKeySize
	if addressCount > maxAddresses {
		return ErrInvalidAccountSize
	}

	obj.Addresses = make([]ed25519.PublicKey, addressCount)
	for i := range obj.Addresses {
		if obj.Addresses[i], err = r.ReadKey(); err != nil {
			return err
		}
	}

	return nil
}

// Marshal encodes the table state, padding the metadata section
func (obj *AddressLookupTableAccount) Marshal() []byte {
	data := make([]byte, metadataSize+len(obj.Addresses)*ed25519.PublicKeySize)

	var offset int
	binary.PutUint32(data[offset:], lookupTableTypeIndex, &offset)
	binary.PutUint64(data[offset:], obj.DeactivationSlot, &offset)
	binary.PutUint64(data[offset:], obj.LastExtendedSlot, &offset)
	binary.PutUint8(data[offset:], obj.LastExtendedSlotStartIndex, &offset)
	binary.PutOptionalKey(data[offset:], obj.Authority, &offset)

	offset = metadataSize
	for _, address := range obj.Addresses {
		binary.PutKey32(data[offset:], address, &offset)
	}
	return data
}

// IsActive reports whether the table can still be used by transactions
func (obj *AddressLookupTableAccount) IsActive() bool {
	return obj.DeactivationSlot == DeactivationSlotActive
}

// ToLookupTable converts the account state into the form used when compiling
// messages.
func (obj *AddressLookupTableAccount) ToLookupTable(address ed25519.PublicKey) solana.AddressLookupTable {
	return solana.AddressLookupTable{
		PublicKey: address,
		Addresses: obj.Addresses,
	}
}

// MissingAddresses returns the expected addresses that the table does not
// contain, in the order provided and without duplicates.
func (obj *AddressLookupTableAccount) MissingAddresses(expected ...ed25519.PublicKey) []ed25519.PublicKey {
	var missing []ed25519.PublicKey
	for _, address := range expected {
		if containsAddress(obj.Addresses, address) || containsAddress(missing, address) {
			continue
		}
		missing = append(missing, address)
	}
	return missing
}

func containsAddress(addresses []ed25519.PublicKey, address ed25519.PublicKey) bool {
	for _, candidate := range addresses {
		if bytes.Equal(candidate, address) {
			return true
		}
	}
	return false
}

func (obj *AddressLookupTableAccount) String() string {
	var addresses strings.Builder
	addresses.WriteString("{")
	for i, address := range obj.Addresses {
		addresses.WriteString(fmt.Sprintf("%d:%s,", i, base58.Encode(address)))
	}
	addresses.WriteString("}")

	return fmt.Sprintf(
		"AddressLookupTable{deactivation_slot=%d,last_extended_slot=%d,last_extended_slot_start_index=%d,authority=%s,addresses=%s}",
		obj.DeactivationSlot,
		obj.LastExtendedSlot,
		obj.LastExtendedSlotStartIndex,
		base58.Encode(obj.Authority),
		addresses.String(),
	)
}
