package emu

import (
	"fmt"

	"github.com/sarchlab/armemu/bits"
	"github.com/sarchlab/armemu/insts"
)

// Operand is an evaluated shifter operand: the second ALU input and the
// shifter's carry-out.
type Operand struct {
	Value uint32
	Carry bool
}

// ShifterOperand evaluates a decoded addressing mode 1 operand against the
// current register values and carry flag.
func ShifterOperand(s *State, sh insts.Shifter) (Operand, error) {
	c := s.C()

	switch sh.Kind {
	case insts.ShifterImm:
		v := bits.RotateRight(uint32(sh.Imm), 2*uint(sh.Rotate))
		if sh.Rotate == 0 {
			return Operand{Value: v, Carry: c}, nil
		}
		return Operand{Value: v, Carry: bits.IsSet(v, 31)}, nil

	case insts.ShifterImmShift:
		return shiftImmediate(s.ReadReg(int(sh.Rm)), sh.Shift, uint(sh.Amount), c), nil

	case insts.ShifterRegShift:
		rs := s.ReadReg(int(sh.Rs))
		return shiftRegister(s.ReadReg(int(sh.Rm)), sh.Shift, rs, c), nil
	}

	return Operand{}, fmt.Errorf("%w: %s", insts.ErrUnsupportedShifter, sh)
}

// shiftImmediate applies a shift whose amount comes from a 5-bit immediate.
// An amount of 0 encodes LSR #32, ASR #32 and RRX for the last three types.
func shiftImmediate(rm uint32, t insts.ShiftType, amount uint, c bool) Operand {
	if amount == 0 {
		switch t {
		case insts.ShiftLSL:
			return Operand{Value: rm, Carry: c}
		case insts.ShiftLSR:
			return Operand{Value: 0, Carry: bits.IsSet(rm, 31)}
		case insts.ShiftASR:
			return asrFill(rm)
		default:
			// RRX
			v := rm >> 1
			if c {
				v |= 1 << 31
			}
			return Operand{Value: v, Carry: bits.IsSet(rm, 0)}
		}
	}
	return shiftBy(rm, t, amount)
}

// shiftRegister applies a shift whose amount is the bottom byte of rs.
func shiftRegister(rm uint32, t insts.ShiftType, rs uint32, c bool) Operand {
	amount := uint(rs & 0xFF)

	switch {
	case amount == 0:
		return Operand{Value: rm, Carry: c}
	case amount < 32:
		return shiftBy(rm, t, amount)
	}

	switch t {
	case insts.ShiftLSL:
		if amount == 32 {
			return Operand{Value: 0, Carry: bits.IsSet(rm, 0)}
		}
		return Operand{}
	case insts.ShiftLSR:
		if amount == 32 {
			return Operand{Value: 0, Carry: bits.IsSet(rm, 31)}
		}
		return Operand{}
	case insts.ShiftASR:
		return asrFill(rm)
	default:
		r := uint(rs & 0xF)
		if r == 0 {
			return Operand{Value: 0, Carry: bits.IsSet(rm, 31)}
		}
		return shiftBy(rm, insts.ShiftROR, r)
	}
}

// shiftBy shifts rm by an amount in [1, 31].
func shiftBy(rm uint32, t insts.ShiftType, amount uint) Operand {
	switch t {
	case insts.ShiftLSL:
		return Operand{Value: rm << amount, Carry: bits.IsSet(rm, 32-amount)}
	case insts.ShiftLSR:
		return Operand{Value: rm >> amount, Carry: bits.IsSet(rm, amount-1)}
	case insts.ShiftASR:
		return Operand{Value: uint32(int32(rm) >> amount), Carry: bits.IsSet(rm, amount-1)}
	default:
		return Operand{Value: bits.RotateRight(rm, amount), Carry: bits.IsSet(rm, amount-1)}
	}
}

func asrFill(rm uint32) Operand {
	if bits.IsSet(rm, 31) {
		return Operand{Value: 0xFFFFFFFF, Carry: true}
	}
	return Operand{Value: 0, Carry: false}
}

// AddWithCarry returns a + b + carryIn with the carry and overflow flags of
// the addition. The sum is formed in 64 bits so both overflows are visible
// before truncation.
func AddWithCarry(a, b uint32, carryIn bool) (result uint32, carry, overflow bool) {
	var cin uint64
	if carryIn {
		cin = 1
	}

	unsigned := uint64(a) + uint64(b) + cin
	signed := int64(int32(a)) + int64(int32(b)) + int64(cin)

	result = uint32(unsigned)
	carry = unsigned > 0xFFFFFFFF
	overflow = signed < -1<<31 || signed > 1<<31-1
	return result, carry, overflow
}

// SubWithBorrow returns a - b computed as a + NOT b + carryIn, so that the
// returned carry is NOT borrow. carryIn is true for a plain subtraction.
func SubWithBorrow(a, b uint32, carryIn bool) (result uint32, carry, overflow bool) {
	return AddWithCarry(a, ^b, carryIn)
}

// aluResult is the outcome of one data-processing operation.
type aluResult struct {
	value    uint32
	carry    bool
	overflow bool
	// writes is false for the compare operations.
	writes bool
}

// dataProcessing computes op on rn and the shifter operand. Logical
// operations take their carry from the shifter and keep V.
func dataProcessing(op insts.Op, rn uint32, operand Operand, c, v bool) aluResult {
	so := operand.Value
	r := aluResult{carry: operand.Carry, overflow: v, writes: !op.IsCompare()}

	switch op {
	case insts.OpAND, insts.OpTST:
		r.value = rn & so
	case insts.OpEOR, insts.OpTEQ:
		r.value = rn ^ so
	case insts.OpORR:
		r.value = rn | so
	case insts.OpBIC:
		r.value = rn &^ so
	case insts.OpMOV:
		r.value = so
	case insts.OpMVN:
		r.value = ^so
	case insts.OpADD, insts.OpCMN:
		r.value, r.carry, r.overflow = AddWithCarry(rn, so, false)
	case insts.OpADC:
		r.value, r.carry, r.overflow = AddWithCarry(rn, so, c)
	case insts.OpSUB, insts.OpCMP:
		r.value, r.carry, r.overflow = SubWithBorrow(rn, so, true)
	case insts.OpSBC:
		r.value, r.carry, r.overflow = SubWithBorrow(rn, so, c)
	case insts.OpRSB:
		r.value, r.carry, r.overflow = SubWithBorrow(so, rn, true)
	case insts.OpRSC:
		r.value, r.carry, r.overflow = SubWithBorrow(so, rn, c)
	}

	return r
}
