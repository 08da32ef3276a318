package squads

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/vault-governor/pkg/solana/binary"
)

// Borsh vectors are prefixed with a u32 element count
const vecLengthSize = 4

func readVec[T any](r *binary.Reader, minElemSize int, readItem func(*binary.Reader) (T, error)) ([]T, error) {
	count, err := r.ReadLength(vecLengthSize, minElemSize)
	if err != nil {
		return nil, err
	}

	items := make([]T, count)
	for i := range items {
		if items[i], err = readItem(r); err != nil {
			return nil, errors.Wrapf(binary.AsMalformedLength(err), "item %d", i)
		}
	}
	return items, nil
}

func readKeyVec(r *binary.Reader) ([]ed25519.PublicKey, error) {
	return readVec(r, ed25519.PublicKeySize, func(r *binary.Reader) (ed25519.PublicKey, error) {
		return r.ReadKey()
	})
}

func readByteVec(r *binary.Reader) ([]byte, error) {
	count, err := r.ReadLength(vecLengthSize, 1)
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(count)
}

// checkDiscriminator strips the 8 byte Anchor discriminator from account
// data, failing if it doesn't match the expected account type
func checkDiscriminator(data, expected []byte) ([]byte, error) {
	if len(data) < discriminatorSize || !bytes.Equal(data[:discriminatorSize], expected) {
		return nil, ErrInvalidAccountData
	}
	return data[discriminatorSize:], nil
}

func putDiscriminator(dst []byte, discriminator []byte, offset *int) {
	copy(dst[*offset:], discriminator)
	*offset += discriminatorSize
}

func checkInstructionDiscriminator(data, expected []byte) ([]byte, error) {
	if len(data) < discriminatorSize || !bytes.Equal(data[:discriminatorSize], expected) {
		return nil, ErrInvalidInstructionData
	}
	return data[discriminatorSize:], nil
}
