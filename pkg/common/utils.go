package common

import (
	"encoding/binary"
	"fmt"
)

// Byte-slice accessors for the little-endian values that make up script
// files: 16-bit text code units and 32-bit pointer words. All are bounds
// checked so structural errors surface as errors, never panics.

// Uint16At reads a little-endian uint16 at the given offset.
func Uint16At(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, fmt.Errorf("%s: uint16 at %d, length %d", ErrOffsetOutOfRange, offset, len(data))
	}
	return binary.LittleEndian.Uint16(data[offset:]), nil
}

// Uint32At reads a little-endian uint32 at the given offset.
func Uint32At(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, fmt.Errorf("%s: uint32 at %d, length %d", ErrOffsetOutOfRange, offset, len(data))
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

// PutUint16At writes a little-endian uint16 at the given offset.
func PutUint16At(data []byte, offset int, value uint16) error {
	if offset < 0 || offset+2 > len(data) {
		return fmt.Errorf("%s: uint16 at %d, length %d", ErrOffsetOutOfRange, offset, len(data))
	}
	binary.LittleEndian.PutUint16(data[offset:], value)
	return nil
}

// PutUint32At writes a little-endian uint32 at the given offset.
func PutUint32At(data []byte, offset int, value uint32) error {
	if offset < 0 || offset+4 > len(data) {
		return fmt.Errorf("%s: uint32 at %d, length %d", ErrOffsetOutOfRange, offset, len(data))
	}
	binary.LittleEndian.PutUint32(data[offset:], value)
	return nil
}

// BytesAt returns a copy of count bytes at the given offset.
func BytesAt(data []byte, offset, count int) ([]byte, error) {
	if count < 0 || offset < 0 || offset+count > len(data) {
		return nil, fmt.Errorf("%s: %d bytes at %d, length %d", ErrOffsetOutOfRange, count, offset, len(data))
	}
	out := make([]byte, count)
	copy(out, data[offset:offset+count])
	return out, nil
}

// AlignWord rounds an offset up to the next 4-byte boundary.
func AlignWord(offset int) int {
	return (offset + 3) &^ 3
}
