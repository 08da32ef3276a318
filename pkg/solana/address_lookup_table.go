package solana

import (
	"crypto/ed25519"
)

// MaxLookupTableIndex is the largest table position a message can reference
const MaxLookupTableIndex = 255

// AddressLookupTable is an on chain registered list of addresses that a
// versioned message can reference by position rather than embedding the
// address.
type AddressLookupTable struct {
	PublicKey ed25519.PublicKey
	Addresses []ed25519.PublicKey
}

func findLookupTable(tables []AddressLookupTable, key ed25519.PublicKey) (AddressLookupTable, bool) {
	for _, table := range tables {
		if toKeyID(table.PublicKey) == toKeyID(key) {
			return table, true
		}
	}
	return AddressLookupTable{}, false
}
