// Package smallarray implements the narrow length-prefixed arrays used by the
// compact transaction message format. Counts are written as fixed width
// little-endian integers of one or two bytes, rather than the four bytes a
// borsh Vec uses, since these arrays never hold more than a few hundred
// entries.
package smallarray

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	solbinary "github.com/code-payments/vault-governor/pkg/solana/binary"
)

// Width is the number of bytes used to encode an array's element count
type Width int

const (
	Width8  Width = 1
	Width16 Width = 2
)

var (
	ErrInvalidWidth   = errors.New("invalid length prefix width")
	ErrLengthOverflow = errors.New("length exceeds length prefix width")
)

// MaxLen returns the largest count representable with the width
func (w Width) MaxLen() int {
	switch w {
	case Width8:
		return 0xff
	case Width16:
		return 0xffff
	}
	return 0
}

func (w Width) validate() error {
	if w != Width8 && w != Width16 {
		return errors.Wrapf(ErrInvalidWidth, "width %d", int(w))
	}
	return nil
}

// EncodeLen encodes the specified len into the writer.
//
// If len cannot be represented with the width, an error is returned.
func EncodeLen(w io.Writer, width Width, len int) (n int, err error) {
	if err := width.validate(); err != nil {
		return 0, err
	}
	if len < 0 || len > width.MaxLen() {
		return 0, errors.Wrapf(ErrLengthOverflow, "%d > %d", len, width.MaxLen())
	}

	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(len))
	return w.Write(buf[:width])
}

// Encode writes the element count followed by every item, in order, with no
// padding between them.
func Encode[T any](w io.Writer, width Width, items []T, encodeItem func(io.Writer, T) error) error {
	if _, err := EncodeLen(w, width, len(items)); err != nil {
		return err
	}

	for i, item := range items {
		if err := encodeItem(w, item); err != nil {
			return errors.Wrapf(err, "failed to encode item %d", i)
		}
	}

	return nil
}

// EncodeBytes writes a length prefixed byte array
func EncodeBytes(w io.Writer, width Width, b []byte) error {
	if _, err := EncodeLen(w, width, len(b)); err != nil {
		return err
	}

	_, err := w.Write(b)
	return err
}

// DecodeLen reads an element count from the reader. minElemSize is the
// smallest possible encoded size of one element, which is used to reject
// counts that cannot fit in the remaining buffer.
func DecodeLen(r *solbinary.Reader, width Width, minElemSize int) (int, error) {
	if err := width.validate(); err != nil {
		return 0, err
	}
	return r.ReadLength(int(width), minElemSize)
}

// Decode reads the element count, then exactly that many items. A declared
// count that runs past the end of the buffer results in
// binary.ErrMalformedLength.
func Decode[T any](r *solbinary.Reader, width Width, decodeItem func(*solbinary.Reader) (T, error)) ([]T, error) {
	count, err := DecodeLen(r, width, 1)
	if err != nil {
		return nil, err
	}

	items := make([]T, count)
	for i := range items {
		if items[i], err = decodeItem(r); err != nil {
			return nil, errors.Wrapf(solbinary.AsMalformedLength(err), "failed to decode item %d", i)
		}
	}

	return items, nil
}

// DecodeBytes reads a length prefixed byte array
func DecodeBytes(r *solbinary.Reader, width Width) ([]byte, error) {
	count, err := DecodeLen(r, width, 1)
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(count)
}

// DecodeAt decodes a length prefixed byte array located at offset within buf,
// returning the items and the total number of bytes consumed, including the
// length prefix.
func DecodeAt(width Width, buf []byte, offset int) ([]byte, int, error) {
	if offset < 0 || offset > len(buf) {
		return nil, 0, errors.Errorf("offset %d out of range [0, %d]", offset, len(buf))
	}

	r := solbinary.NewReader(buf[offset:])
	items, err := DecodeBytes(r, width)
	if err != nil {
		return nil, 0, err
	}
	return items, r.Offset(), nil
}
