package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += ed25519.PublicKeySize
}

// PutOptionalKey writes a borsh Option<Pubkey>. An empty key is None.
func PutOptionalKey(dst []byte, src []byte, offset *int) {
	if len(src) == 0 {
		dst[0] = 0
		*offset += 1
		return
	}

	dst[0] = 1
	copy(dst[1:], src)
	*offset += 1 + ed25519.PublicKeySize
}

// OptionalKeySize is the serialized size of a borsh Option<Pubkey>
func OptionalKeySize(v []byte) int {
	if len(v) == 0 {
		return 1
	}
	return 1 + ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutInt64(dst []byte, v int64, offset *int) {
	binary.LittleEndian.PutUint64(dst, uint64(v))
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst, v)
	*offset += 2
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	if v {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	*offset += 1
}

// PutBytes32 writes a u32 length prefixed byte array
func PutBytes32(dst []byte, v []byte, offset *int) {
	binary.LittleEndian.PutUint32(dst, uint32(len(v)))
	copy(dst[4:], v)
	*offset += 4 + len(v)
}

// PutOptionalString writes a borsh Option<String>. A nil value is None.
func PutOptionalString(dst []byte, v *string, offset *int) {
	if v == nil {
		dst[0] = 0
		*offset += 1
		return
	}

	dst[0] = 1
	binary.LittleEndian.PutUint32(dst[1:], uint32(len(*v)))
	copy(dst[5:], *v)
	*offset += 1 + 4 + len(*v)
}

// OptionalStringSize is the serialized size of a borsh Option<String>
func OptionalStringSize(v *string) int {
	if v == nil {
		return 1
	}
	return 1 + 4 + len(*v)
}
