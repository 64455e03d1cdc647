package bits

import "fmt"

// FieldMask selects a contiguous range of bits inside a 32-bit word.
// It is immutable once created.
type FieldMask struct {
	pos  uint
	len  uint
	mask uint32
}

// NewFieldMask creates a mask covering len bits starting at pos. It panics
// if the range does not fit in a 32-bit word.
func NewFieldMask(pos, length uint) FieldMask {
	if length == 0 || pos+length > 32 {
		panic(fmt.Sprintf("bits: field [pos=%d len=%d] does not fit in 32 bits", pos, length))
	}
	return FieldMask{pos: pos, len: length, mask: Mask(length)}
}

// Pos returns the position of the lowest bit of the field.
func (f FieldMask) Pos() uint { return f.pos }

// Len returns the number of bits in the field.
func (f FieldMask) Len() uint { return f.len }

// Extract returns the field's value in v, right-aligned.
func (f FieldMask) Extract(v uint32) uint32 {
	return (v >> f.pos) & f.mask
}

// Replace returns v with the field's bits replaced by the low bits of x.
// Bits of x beyond the field length are discarded.
func (f FieldMask) Replace(v, x uint32) uint32 {
	return (v &^ f.InPlace()) | (x&f.mask)<<f.pos
}

// InPlace returns the field mask shifted to its position.
func (f FieldMask) InPlace() uint32 {
	return f.mask << f.pos
}

func (f FieldMask) String() string {
	return fmt.Sprintf("[%d:%d]", f.pos+f.len-1, f.pos)
}
