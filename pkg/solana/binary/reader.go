package binary

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrTruncatedRecord indicates the buffer is too short for a fixed size field
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrMalformedLength indicates a declared element count runs past the end
	// of the buffer
	ErrMalformedLength = errors.New("malformed length")

	// ErrInvalidBool indicates a boolean or option tag byte other than 0 or 1
	ErrInvalidBool = errors.New("invalid bool")
)

// DecodeError describes where in a buffer decoding failed. It unwraps to
// ErrTruncatedRecord, ErrMalformedLength or ErrInvalidBool.
type DecodeError struct {
	Offset    int
	Needed    int
	Available int
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err == ErrInvalidBool {
		return fmt.Sprintf("%s at offset %d", e.Err.Error(), e.Offset)
	}
	return fmt.Sprintf("%s: need %d bytes at offset %d, have %d", e.Err.Error(), e.Needed, e.Offset, e.Available)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Reader is a bounds checked cursor over a little-endian byte buffer.
//
// Every value returned by a Reader is a copy, so results never alias the
// underlying buffer.
type Reader struct {
	buf    []byte
	offset int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

func (r *Reader) truncated(n int) error {
	return &DecodeError{
		Offset:    r.offset,
		Needed:    n,
		Available: r.Remaining(),
		Err:       ErrTruncatedRecord,
	}
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.truncated(n)
	}

	b := r.buf[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *Reader) Skip(n int) error {
	_, err := r.next(n)
	return err
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	if err != nil {
		return false, err
	}

	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		r.offset--
		return false, &DecodeError{
			Offset:    r.offset,
			Needed:    1,
			Available: r.Remaining(),
			Err:       ErrInvalidBool,
		}
	}
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadKey() (ed25519.PublicKey, error) {
	b, err := r.next(ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}

	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key, nil
}

// ReadOptionalKey reads a 1 byte presence flag followed by a key that is only
// present when the flag is set. A missing key is returned as nil.
func (r *Reader) ReadOptionalKey() (ed25519.PublicKey, error) {
	isSet, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !isSet {
		return nil, nil
	}
	return r.ReadKey()
}

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.next(n)
	if err != nil {
		return nil, err
	}

	copied := make([]byte, n)
	copy(copied, b)
	return copied, nil
}

// ReadLength reads a little-endian element count of the given width in bytes
// (1, 2, 4 or 8) and verifies the buffer can hold count elements of at least
// elemSize bytes each.
func (r *Reader) ReadLength(width int, elemSize int) (int, error) {
	start := r.offset

	var count uint64
	switch width {
	case 1:
		v, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		count = uint64(v)
	case 2:
		v, err := r.ReadUint16()
		if err != nil {
			return 0, err
		}
		count = uint64(v)
	case 4:
		v, err := r.ReadUint32()
		if err != nil {
			return 0, err
		}
		count = uint64(v)
	case 8:
		v, err := r.ReadUint64()
		if err != nil {
			return 0, err
		}
		count = v
	default:
		return 0, errors.Errorf("unsupported length width: %d", width)
	}

	if elemSize < 1 {
		elemSize = 1
	}
	if count > math.MaxInt32 || int(count)*elemSize > r.Remaining() {
		needed := math.MaxInt32
		if count <= math.MaxInt32 {
			needed = int(count) * elemSize
		}
		return 0, &DecodeError{
			Offset:    start,
			Needed:    needed,
			Available: r.Remaining(),
			Err:       ErrMalformedLength,
		}
	}

	return int(count), nil
}

// AsMalformedLength converts a truncation that happened while reading the
// elements of a declared array into ErrMalformedLength. Other errors are
// returned unchanged.
func AsMalformedLength(err error) error {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) && decodeErr.Err == ErrTruncatedRecord {
		return &DecodeError{
			Offset:    decodeErr.Offset,
			Needed:    decodeErr.Needed,
			Available: decodeErr.Available,
			Err:       ErrMalformedLength,
		}
	}
	return err
}
