package compact

import (
	"encoding/binary"
	"math/bits"
)

// Compact integers select one of four widths with the two low bits of the first byte:
//
//	0b00: single byte, value in the upper six bits (0..63)
//	0b01: two bytes little-endian, value in the upper 14 bits (64..16383)
//	0b10: four bytes little-endian, value in the upper 30 bits (16384..2^30-1)
//	0b11: the upper six bits hold the byte count minus 4, followed by the value in that many
//	      little-endian bytes
const (
	modeSingle = 0b00
	modeTwo    = 0b01
	modeFour   = 0b10
	modeBig    = 0b11

	maxSingle = 1<<6 - 1
	maxTwo    = 1<<14 - 1
	maxFour   = 1<<30 - 1

	minBigBytes = 4
	// MaxUintBytes is the width ceiling of a mode 3 integer
	MaxUintBytes = 8
)

// SizeUint returns the number of bytes EncodeUint(n) produces.
func SizeUint(n uint64) int {
	switch {
	case n <= maxSingle:
		return 1
	case n <= maxTwo:
		return 2
	case n <= maxFour:
		return 4
	default:
		return 1 + bigWidth(n)
	}
}

// EncodeUint returns the minimal compact encoding of n.
func EncodeUint(n uint64) []byte {
	return AppendUint(make([]byte, 0, SizeUint(n)), n)
}

// AppendUint appends the minimal compact encoding of n to dst.
func AppendUint(dst []byte, n uint64) []byte {
	switch {
	case n <= maxSingle:
		return append(dst, byte(n)<<2|modeSingle)
	case n <= maxTwo:
		return binary.LittleEndian.AppendUint16(dst, uint16(n)<<2|modeTwo)
	case n <= maxFour:
		return binary.LittleEndian.AppendUint32(dst, uint32(n)<<2|modeFour)
	default:
		width := bigWidth(n)
		dst = append(dst, byte(width-minBigBytes)<<2|modeBig)
		for i := 0; i < width; i++ {
			dst = append(dst, byte(n>>(8*i)))
		}
		return dst
	}
}

// DecodeUint reads a compact integer from the front of b and returns it together with the
// remaining bytes. Over-long encodings are rejected.
func DecodeUint(b []byte) (uint64, []byte, error) {
	if len(b) == 0 {
		return 0, nil, structural(ErrTruncated, "empty compact integer")
	}

	switch b[0] & 0b11 {
	case modeSingle:
		return uint64(b[0] >> 2), b[1:], nil
	case modeTwo:
		if len(b) < 2 {
			return 0, nil, structural(ErrTruncated, "need 2 bytes, have %d", len(b))
		}
		v := uint64(binary.LittleEndian.Uint16(b) >> 2)
		if v <= maxSingle {
			return 0, nil, structural(ErrNonCanonical, "%d encoded in 2 bytes", v)
		}
		return v, b[2:], nil
	case modeFour:
		if len(b) < 4 {
			return 0, nil, structural(ErrTruncated, "need 4 bytes, have %d", len(b))
		}
		v := uint64(binary.LittleEndian.Uint32(b) >> 2)
		if v <= maxTwo {
			return 0, nil, structural(ErrNonCanonical, "%d encoded in 4 bytes", v)
		}
		return v, b[4:], nil
	default:
		width := int(b[0]>>2) + minBigBytes
		if width > MaxUintBytes {
			return 0, nil, structural(ErrInvalidWidth, "%d bytes", width)
		}
		if len(b)-1 < width {
			return 0, nil, structural(ErrTruncated, "need %d bytes, have %d", width, len(b)-1)
		}

		var v uint64
		for i := 0; i < width; i++ {
			v |= uint64(b[1+i]) << (8 * i)
		}
		if v <= maxFour || bigWidth(v) != width {
			return 0, nil, structural(ErrNonCanonical, "%d encoded in %d bytes", v, width)
		}
		return v, b[1+width:], nil
	}
}

// bigWidth is the number of bytes used by a mode 3 integer
func bigWidth(n uint64) int {
	width := (bits.Len64(n) + 7) / 8
	if width < minBigBytes {
		return minBigBytes
	}
	return width
}
