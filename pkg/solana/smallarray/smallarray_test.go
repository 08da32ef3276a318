package smallarray

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	solbinary "github.com/code-payments/vault-governor/pkg/solana/binary"
)

func TestEncodeLen(t *testing.T) {
	for _, tc := range []struct {
		width   Width
		val     int
		encoded []byte
	}{
		{Width8, 0, []byte{0x00}},
		{Width8, 0x7f, []byte{0x7f}},
		{Width8, 0xff, []byte{0xff}},
		{Width16, 0, []byte{0x00, 0x00}},
		{Width16, 0x100, []byte{0x00, 0x01}},
		{Width16, 0xffff, []byte{0xff, 0xff}},
	} {
		buf := &bytes.Buffer{}
		n, err := EncodeLen(buf, tc.width, tc.val)
		require.NoError(t, err)
		assert.Equal(t, int(tc.width), n)
		assert.Equal(t, tc.encoded, buf.Bytes())
	}
}

func TestEncodeLen_Invalid(t *testing.T) {
	_, err := EncodeLen(&bytes.Buffer{}, Width8, 256)
	assert.True(t, errors.Is(err, ErrLengthOverflow))

	_, err = EncodeLen(&bytes.Buffer{}, Width16, 0x10000)
	assert.True(t, errors.Is(err, ErrLengthOverflow))

	_, err = EncodeLen(&bytes.Buffer{}, Width(4), 1)
	assert.True(t, errors.Is(err, ErrInvalidWidth))
}

func TestBytes_RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		width Width
		size  int
	}{
		{Width8, 0},
		{Width8, 1},
		{Width8, 255},
		{Width16, 0},
		{Width16, 1},
		{Width16, 256},
	} {
		expected := make([]byte, tc.size)
		for i := range expected {
			expected[i] = byte(i)
		}

		buf := &bytes.Buffer{}
		require.NoError(t, EncodeBytes(buf, tc.width, expected))
		assert.Equal(t, int(tc.width)+tc.size, buf.Len())

		actual, consumed, err := DecodeAt(tc.width, buf.Bytes(), 0)
		require.NoError(t, err)
		assert.Equal(t, buf.Len(), consumed)
		assert.Equal(t, expected, actual)
	}
}

func TestBytes_TooLongForWidth(t *testing.T) {
	err := EncodeBytes(&bytes.Buffer{}, Width8, make([]byte, 256))
	assert.True(t, errors.Is(err, ErrLengthOverflow))
}

func TestGeneric_RoundTrip(t *testing.T) {
	encodeKey := func(w io.Writer, k []byte) error {
		_, err := w.Write(k)
		return err
	}
	decodeKey := func(r *solbinary.Reader) ([]byte, error) {
		return r.ReadBytes(4)
	}

	for _, size := range []int{0, 1, 256} {
		var expected [][]byte
		for i := 0; i < size; i++ {
			expected = append(expected, []byte{byte(i), byte(i >> 8), 0xaa, 0xbb})
		}

		buf := &bytes.Buffer{}
		require.NoError(t, Encode(buf, Width16, expected, encodeKey))

		r := solbinary.NewReader(buf.Bytes())
		actual, err := Decode(r, Width16, decodeKey)
		require.NoError(t, err)
		assert.Len(t, actual, size)
		if size > 0 {
			assert.Equal(t, expected, actual)
		}
		assert.Equal(t, 0, r.Remaining())
	}
}

func TestDecode_MalformedLength(t *testing.T) {
	// Declares three bytes, but only two follow
	_, _, err := DecodeAt(Width8, []byte{3, 1, 2}, 0)
	assert.True(t, errors.Is(err, solbinary.ErrMalformedLength))

	_, _, err = DecodeAt(Width16, []byte{0x01, 0x01, 1, 2}, 0)
	assert.True(t, errors.Is(err, solbinary.ErrMalformedLength))

	// Elements larger than one byte that run out midway through the array
	r := solbinary.NewReader([]byte{2, 0xaa, 0xbb, 0xcc})
	_, err = Decode(r, Width8, func(r *solbinary.Reader) (uint16, error) {
		return r.ReadUint16()
	})
	assert.True(t, errors.Is(err, solbinary.ErrMalformedLength))
}

func TestDecode_Truncated(t *testing.T) {
	_, _, err := DecodeAt(Width16, []byte{1}, 0)
	assert.True(t, errors.Is(err, solbinary.ErrTruncatedRecord))

	_, _, err = DecodeAt(Width8, []byte{1}, 2)
	assert.EqualError(t, err, "offset 2 out of range [0, 1]")

	_, _, err = DecodeAt(Width8, []byte{1}, -1)
	assert.Error(t, err)
}

func TestDecodeAt_Offset(t *testing.T) {
	buf := []byte{0xde, 0xad, 2, 7, 8, 0xff}
	actual, consumed, err := DecodeAt(Width8, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8}, actual)
	assert.Equal(t, 3, consumed)
}
