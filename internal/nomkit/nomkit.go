// Package nomkit provides incremental byte-slice combinators shared by every
// container parser in the repository: fixed-width integer decoding, bounded
// slice reads, and an explicit endianness choice at each call site.
//
// Every function follows the same shape as the teacher's registry-hive byte
// helpers (internal/buf), generalized past the registry domain: given a
// slice, return the decoded value plus the remaining, unconsumed slice.
// Nothing here seeks absolutely within the input; callers that need an
// anchored offset slice the input themselves before calling in.
package nomkit

import (
	"encoding/binary"
	"fmt"
)

// Endian selects the byte order used to decode a fixed-width integer. Binary
// formats parsed by this repository never rely on a platform default.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// Error is returned by every combinator on failure. Kind is one of the
// taxonomy members from spec §7; Pos records how many bytes of the original
// input had already been consumed when the failure occurred.
type Error struct {
	Kind string
	Pos  int
	Need int
	Have int
}

func (e *Error) Error() string {
	return fmt.Sprintf("nomkit: %s at pos %d: need %d bytes, have %d", e.Kind, e.Pos, e.Need, e.Have)
}

func incomplete(pos, need, have int) error {
	return &Error{Kind: "Incomplete", Pos: pos, Need: need, Have: have}
}

// Take returns the first n bytes of input and the remainder. It never
// panics; a short input produces an Incomplete error.
func Take(input []byte, n int) (remaining, value []byte, err error) {
	if n < 0 || len(input) < n {
		return input, nil, incomplete(0, n, len(input))
	}
	return input[n:], input[:n], nil
}

// Unsigned1 reads a single byte.
func Unsigned1(input []byte) (remaining []byte, value uint8, err error) {
	if len(input) < 1 {
		return input, 0, incomplete(0, 1, len(input))
	}
	return input[1:], input[0], nil
}

// Unsigned2 reads a uint16 in the given byte order.
func Unsigned2(input []byte, e Endian) (remaining []byte, value uint16, err error) {
	if len(input) < 2 {
		return input, 0, incomplete(0, 2, len(input))
	}
	if e == BigEndian {
		value = binary.BigEndian.Uint16(input)
	} else {
		value = binary.LittleEndian.Uint16(input)
	}
	return input[2:], value, nil
}

// Unsigned4 reads a uint32 in the given byte order.
func Unsigned4(input []byte, e Endian) (remaining []byte, value uint32, err error) {
	if len(input) < 4 {
		return input, 0, incomplete(0, 4, len(input))
	}
	if e == BigEndian {
		value = binary.BigEndian.Uint32(input)
	} else {
		value = binary.LittleEndian.Uint32(input)
	}
	return input[4:], value, nil
}

// Unsigned8 reads a uint64 in the given byte order.
func Unsigned8(input []byte, e Endian) (remaining []byte, value uint64, err error) {
	if len(input) < 8 {
		return input, 0, incomplete(0, 8, len(input))
	}
	if e == BigEndian {
		value = binary.BigEndian.Uint64(input)
	} else {
		value = binary.LittleEndian.Uint64(input)
	}
	return input[8:], value, nil
}

// Unsigned16 reads a 128-bit value (e.g. a GUID) as raw bytes plus its
// big-endian and little-endian halves are left for the caller to interpret;
// GUIDs mix byte orders across their sub-fields, so this returns the 16 raw
// bytes rather than a single integer.
func Unsigned16(input []byte) (remaining []byte, value [16]byte, err error) {
	if len(input) < 16 {
		return input, value, incomplete(0, 16, len(input))
	}
	copy(value[:], input[:16])
	return input[16:], value, nil
}

// Signed2 reads an int16.
func Signed2(input []byte, e Endian) (remaining []byte, value int16, err error) {
	rem, u, err := Unsigned2(input, e)
	return rem, int16(u), err
}

// Signed4 reads an int32.
func Signed4(input []byte, e Endian) (remaining []byte, value int32, err error) {
	rem, u, err := Unsigned4(input, e)
	return rem, int32(u), err
}

// Signed8 reads an int64.
func Signed8(input []byte, e Endian) (remaining []byte, value int64, err error) {
	rem, u, err := Unsigned8(input, e)
	return rem, int64(u), err
}

// Data returns the next count bytes verbatim, aliasing the input slice.
func Data(input []byte, count int) (remaining, value []byte, err error) {
	return Take(input, count)
}
