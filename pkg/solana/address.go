package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

var (
	programHashCtor = sha256.New
)

// CreateProgramAddress derives sha256(seeds || program || "ProgramDerivedAddress").
// Program addresses must be off the ed25519 curve so that no private key can
// sign for them. ErrInvalidPublicKey is returned for on-curve results.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
	}

	h := programHashCtor()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(program)
	h.Write([]byte(pdaMarker))

	var pub [ed25519.PublicKeySize]byte
	copy(pub[:], h.Sum(nil))

	// crypto/ed25519 doesn't expose point decompression, so the curve check
	// goes through edwards25519 directly.
	var point edwards25519.ExtendedGroupElement
	if point.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump searches bump seeds from 255 downward and returns
// the first off curve address along with its bump.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := math.MaxUint8; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}

		pub, err := CreateProgramAddress(program, withBump...)
		if err == nil {
			return pub, uint8(bump), nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoViableBump
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}
