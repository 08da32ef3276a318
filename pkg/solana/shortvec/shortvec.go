// Package shortvec implements the compact-u16 length prefix used by the
// Solana transaction wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedSize = 3

var (
	ErrLenOverflow  = errors.Errorf("len exceeds %d", math.MaxUint16)
	ErrNonCanonical = errors.New("len is not minimally encoded")
)

// EncodeLen writes len as 7 bit groups, low group first, with the high bit of
// each byte marking a continuation.
func EncodeLen(w io.ByteWriter, len int) (n int, err error) {
	if len < 0 || len > math.MaxUint16 {
		return 0, ErrLenOverflow
	}

	for {
		group := byte(len & 0x7f)
		len >>= 7
		if len != 0 {
			group |= 0x80
		}

		if err := w.WriteByte(group); err != nil {
			return n, err
		}
		n++

		if len == 0 {
			return n, nil
		}
	}
}

// DecodeLen reads a compact-u16 len, rejecting values that overflow a u16 or
// that carry redundant trailing groups.
func DecodeLen(r io.ByteReader) (int, error) {
	var val int
	for i := 0; i < maxEncodedSize; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		if i > 0 && b == 0 {
			return 0, ErrNonCanonical
		}

		val |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, ErrLenOverflow
			}
			return val, nil
		}
	}

	return 0, errors.Errorf("invalid size (max %d)", maxEncodedSize)
}
