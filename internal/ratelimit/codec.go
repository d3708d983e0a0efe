package ratelimit

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when a stored value is not an 8-byte counter.
var ErrInvalidValue = errors.New("invalid stored value")

const valueSize = 8

// EncodeUint64 serializes v as a fixed-width big-endian integer.
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, valueSize)
	binary.BigEndian.PutUint64(buf, v)

	return buf
}

// DecodeUint64 parses a value written by EncodeUint64. A nil value decodes to 0.
func DecodeUint64(b []byte) (uint64, error) {
	if b == nil {
		return 0, nil
	}

	if len(b) != valueSize {
		return 0, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidValue, valueSize, len(b))
	}

	return binary.BigEndian.Uint64(b), nil
}
