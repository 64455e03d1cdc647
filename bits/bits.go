// Package bits provides bit-level helpers for 32-bit instruction words and
// register values.
package bits

import (
	"fmt"
	mathbits "math/bits"
)

// Mask returns a value with the low n bits set. n must be in [0, 32].
func Mask(n uint) uint32 {
	if n > 32 {
		panic(fmt.Sprintf("bits: mask length %d out of range", n))
	}
	if n == 32 {
		return 0xFFFFFFFF
	}
	return uint32(1)<<n - 1
}

// Get returns bit pos of v as 0 or 1.
func Get(v uint32, pos uint) uint32 {
	return (v >> pos) & 1
}

// IsSet reports whether bit pos of v is 1.
func IsSet(v uint32, pos uint) bool {
	return Get(v, pos) == 1
}

// Set returns v with bit pos set to 1.
func Set(v uint32, pos uint) uint32 {
	return v | 1<<pos
}

// Clear returns v with bit pos set to 0.
func Clear(v uint32, pos uint) uint32 {
	return v &^ (1 << pos)
}

// Assign returns v with bit pos set to on.
func Assign(v uint32, pos uint, on bool) uint32 {
	if on {
		return Set(v, pos)
	}
	return Clear(v, pos)
}

// Range extracts the inclusive bit range [hi:lo] of v.
func Range(v uint32, hi, lo uint) uint32 {
	return (v >> lo) & Mask(hi-lo+1)
}

// PopCount returns the number of set bits in v.
func PopCount(v uint32) int {
	return mathbits.OnesCount32(v)
}

// SignExtend interprets the low n bits of v as a two's complement number
// and widens it to 32 bits.
func SignExtend(v uint32, n uint) uint32 {
	if n == 0 || n >= 32 {
		return v
	}
	shift := 32 - n
	return uint32(int32(v<<shift) >> shift)
}

// RotateRight rotates v right by r bits. Rotation is taken modulo 32.
func RotateRight(v uint32, r uint) uint32 {
	return mathbits.RotateLeft32(v, -int(r%32))
}

// ParseBinary converts a string of '0' and '1' characters to its value.
func ParseBinary(s string) (uint32, error) {
	if len(s) == 0 || len(s) > 32 {
		return 0, fmt.Errorf("invalid binary literal %q", s)
	}

	var v uint32
	for _, c := range s {
		switch c {
		case '0':
			v <<= 1
		case '1':
			v = v<<1 | 1
		default:
			return 0, fmt.Errorf("invalid binary digit %q in %q", c, s)
		}
	}
	return v, nil
}
