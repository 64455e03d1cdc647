package emu

import (
	"fmt"

	"github.com/sarchlab/armemu/bits"
	"github.com/sarchlab/armemu/insts"
)

// ConditionPassed evaluates cond against the N, Z, C and V bits of cpsr.
// Condition 15 is reserved and reported as ErrUnknownCondition.
func ConditionPassed(cpsr uint32, cond insts.Cond) (bool, error) {
	n := bits.IsSet(cpsr, PSRBitN)
	z := bits.IsSet(cpsr, PSRBitZ)
	c := bits.IsSet(cpsr, PSRBitC)
	v := bits.IsSet(cpsr, PSRBitV)

	switch cond {
	case insts.CondEQ:
		// Equal: Z == 1
		return z, nil
	case insts.CondNE:
		return !z, nil
	case insts.CondCS:
		return c, nil
	case insts.CondCC:
		return !c, nil
	case insts.CondMI:
		return n, nil
	case insts.CondPL:
		return !n, nil
	case insts.CondVS:
		return v, nil
	case insts.CondVC:
		return !v, nil
	case insts.CondHI:
		// Unsigned higher: C == 1 && Z == 0
		return c && !z, nil
	case insts.CondLS:
		return !c || z, nil
	case insts.CondGE:
		// Signed greater or equal: N == V
		return n == v, nil
	case insts.CondLT:
		return n != v, nil
	case insts.CondGT:
		return !z && n == v, nil
	case insts.CondLE:
		return z || n != v, nil
	case insts.CondAL:
		return true, nil
	}
	return false, fmt.Errorf("%w: %#x", ErrUnknownCondition, uint8(cond))
}
