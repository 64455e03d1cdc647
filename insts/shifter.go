package insts

import (
	"errors"
	"fmt"

	"github.com/sarchlab/armemu/bits"
)

// ErrUnsupportedShifter is returned for a 12-bit shifter field that has
// both bit 4 and bit 7 set. Those encodings belong to other instruction
// classes and are not a data-processing operand.
var ErrUnsupportedShifter = errors.New("unsupported shifter operand encoding")

// ErrUnsupportedOffset is returned for a register-offset addressing field
// with bit 4 set.
var ErrUnsupportedOffset = errors.New("unsupported addressing offset encoding")

// ShiftType is the 2-bit shift selector of a register operand.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right (RRX when the immediate amount is 0)
)

func (s ShiftType) String() string {
	return [...]string{"LSL", "LSR", "ASR", "ROR"}[s&3]
}

// ShifterKind tells the three forms of addressing mode 1 apart.
type ShifterKind uint8

// Shifter operand forms.
const (
	ShifterInvalid  ShifterKind = iota
	ShifterImm                  // 32-bit immediate: immed_8 rotated right by 2*rotate_imm
	ShifterImmShift             // Rm shifted by a 5-bit immediate
	ShifterRegShift             // Rm shifted by the bottom byte of Rs
)

// Shifter is a decoded data-processing operand.
type Shifter struct {
	Kind   ShifterKind
	Imm    uint8 // immed_8
	Rotate uint8 // rotate_imm
	Rm     uint8
	Rs     uint8
	Shift  ShiftType
	Amount uint8 // shift_imm
}

// IsRRX reports whether the operand is a rotate right with extend.
func (s Shifter) IsRRX() bool {
	return s.Kind == ShifterImmShift && s.Shift == ShiftROR && s.Amount == 0
}

func (s Shifter) String() string {
	switch s.Kind {
	case ShifterImm:
		return fmt.Sprintf("#%d", bits.RotateRight(uint32(s.Imm), 2*uint(s.Rotate)))
	case ShifterImmShift:
		if s.IsRRX() {
			return fmt.Sprintf("r%d, RRX", s.Rm)
		}
		if s.Shift == ShiftLSL && s.Amount == 0 {
			return fmt.Sprintf("r%d", s.Rm)
		}
		return fmt.Sprintf("r%d, %s #%d", s.Rm, s.Shift, s.Amount)
	case ShifterRegShift:
		return fmt.Sprintf("r%d, %s r%d", s.Rm, s.Shift, s.Rs)
	}
	return "<invalid>"
}

var (
	shifterImmPattern      = MustCompile("rotate_imm(4)immed_8(8)")
	shifterImmShiftPattern = MustCompile("shift_imm(5)shift(2)0Rm(4)")
	shifterRegShiftPattern = MustCompile("Rs(4)0shift(2)1Rm(4)")
)

// DecodeShifter decodes the low 12 bits of code as an addressing mode 1
// operand. immediate is the instruction's I bit.
func DecodeShifter(code uint32, immediate bool) (Shifter, error) {
	code &= 0xFFF

	if immediate {
		f, _ := shifterImmPattern.Match(code)
		return Shifter{
			Kind:   ShifterImm,
			Imm:    uint8(f.Value("immed_8")),
			Rotate: uint8(f.Value("rotate_imm")),
		}, nil
	}

	if f, ok := shifterImmShiftPattern.Match(code); ok {
		return Shifter{
			Kind:   ShifterImmShift,
			Rm:     uint8(f.Value("Rm")),
			Shift:  ShiftType(f.Value("shift")),
			Amount: uint8(f.Value("shift_imm")),
		}, nil
	}

	if f, ok := shifterRegShiftPattern.Match(code); ok {
		return Shifter{
			Kind:  ShifterRegShift,
			Rm:    uint8(f.Value("Rm")),
			Rs:    uint8(f.Value("Rs")),
			Shift: ShiftType(f.Value("shift")),
		}, nil
	}

	return Shifter{}, fmt.Errorf("%w: %#03x", ErrUnsupportedShifter, code)
}

// OffsetKind tells the forms of a load/store offset apart.
type OffsetKind uint8

// Offset forms.
const (
	OffsetInvalid  OffsetKind = iota
	OffsetImm                 // Unsigned immediate
	OffsetReg                 // Rm
	OffsetScaled              // Rm shifted by an immediate (addressing mode 2 only)
)

// Offset is the decoded offset of a single data transfer.
type Offset struct {
	Kind   OffsetKind
	Imm    uint32
	Rm     uint8
	Shift  ShiftType
	Amount uint8
}

func (o Offset) String() string {
	switch o.Kind {
	case OffsetImm:
		return fmt.Sprintf("#%d", o.Imm)
	case OffsetReg:
		return fmt.Sprintf("r%d", o.Rm)
	case OffsetScaled:
		if o.Shift == ShiftROR && o.Amount == 0 {
			return fmt.Sprintf("r%d, RRX", o.Rm)
		}
		return fmt.Sprintf("r%d, %s #%d", o.Rm, o.Shift, o.Amount)
	}
	return "<invalid>"
}

var (
	offsetRegPattern    = MustCompile("00000000Rm(4)")
	offsetScaledPattern = MustCompile("shift_imm(5)shift(2)0Rm(4)")
)

// DecodeOffset12 decodes the 12-bit offset field of addressing mode 2.
// registerForm is the instruction's I bit, which selects a register offset
// in this addressing mode.
func DecodeOffset12(code uint32, registerForm bool) (Offset, error) {
	code &= 0xFFF

	if !registerForm {
		return Offset{Kind: OffsetImm, Imm: code}, nil
	}

	if f, ok := offsetRegPattern.Match(code); ok {
		return Offset{Kind: OffsetReg, Rm: uint8(f.Value("Rm"))}, nil
	}

	if f, ok := offsetScaledPattern.Match(code); ok {
		return Offset{
			Kind:   OffsetScaled,
			Rm:     uint8(f.Value("Rm")),
			Shift:  ShiftType(f.Value("shift")),
			Amount: uint8(f.Value("shift_imm")),
		}, nil
	}

	return Offset{}, fmt.Errorf("%w: %#03x", ErrUnsupportedOffset, code)
}

// DecodeOffset8 builds the offset of addressing mode 3 from its split
// immediate halves. immediate is bit 22 of the instruction.
func DecodeOffset8(immedH, immedL uint32, immediate bool) Offset {
	if immediate {
		return Offset{Kind: OffsetImm, Imm: (immedH&0xF)<<4 | immedL&0xF}
	}
	return Offset{Kind: OffsetReg, Rm: uint8(immedL & 0xF)}
}
