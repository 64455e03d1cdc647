package emu

import (
	"fmt"

	"github.com/sarchlab/armemu/bits"
	"github.com/sarchlab/armemu/insts"
)

// Handler executes one decoded instruction against s. A handler whose
// condition fails leaves s unchanged and returns nil.
type Handler func(s *State, inst *insts.Instruction) error

// gate evaluates the instruction's condition.
func gate(s *State, inst *insts.Instruction) (bool, error) {
	return s.ConditionPassed(inst.Cond)
}

func execDataProcessing(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	writesPC := inst.Rd == RegPC && !inst.Op.IsCompare()
	if inst.SetFlags && writesPC && !s.HasSPSR() {
		return fmt.Errorf("%w: %s with S bit writes pc in %s mode", ErrUnpredictable, inst.Op, s.Mode())
	}

	operand, err := ShifterOperand(s, inst.Shifter)
	if err != nil {
		return err
	}

	r := dataProcessing(inst.Op, s.ReadReg(int(inst.Rn)), operand, s.C(), s.V())
	if r.writes {
		s.WriteReg(int(inst.Rd), r.value)
	}

	if !inst.SetFlags {
		return nil
	}
	if writesPC {
		return s.RestoreCPSR()
	}
	s.SetNZCV(bits.IsSet(r.value, 31), r.value == 0, r.carry, r.overflow)
	return nil
}

func execBranch(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	target := s.ReadReg(RegPC) + uint32(inst.BranchOffset)
	if inst.Link {
		s.WriteReg(RegLR, s.CurrentAddress()+4)
	}
	s.WriteReg(RegPC, target)
	return nil
}

func execBranchExchange(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	target := s.ReadReg(int(inst.Rm))
	s.SetThumb(bits.IsSet(target, 0))
	s.WriteReg(RegPC, target &^ 1)
	return nil
}

func execMRS(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	v := s.CPSR()
	if inst.UseSPSR {
		var err error
		if v, err = s.SPSR(); err != nil {
			return err
		}
	}
	s.WriteReg(int(inst.Rd), v)
	return nil
}

// psrByteMask expands the c, x, s and f field enables into a byte mask.
func psrByteMask(fieldMask uint8) uint32 {
	var m uint32
	for i := uint(0); i < 4; i++ {
		if fieldMask&(1<<i) != 0 {
			m |= 0xFF << (8 * i)
		}
	}
	return m
}

func execMSR(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	var operand uint32
	switch {
	case inst.Immediate:
		operand = bits.RotateRight(uint32(inst.Shifter.Imm), 2*uint(inst.Shifter.Rotate))
	case inst.Shifter.Kind == insts.ShifterInvalid:
		return fmt.Errorf("%w: MSR register operand", ErrUndefinedInstruction)
	default:
		operand = s.ReadReg(int(inst.Rm))
	}

	mask := psrByteMask(inst.FieldMask)

	if inst.UseSPSR {
		spsr, err := s.SPSR()
		if err != nil {
			return err
		}
		return s.SetSPSR(spsr&^mask | operand&mask)
	}

	if !s.Mode().Privileged() {
		// USR mode may only write the flags byte.
		mask &= 0xFF000000
	}
	return s.SetCPSR(s.CPSR()&^mask | operand&mask)
}

func execMultiply(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}
	if inst.Rd == RegPC {
		return fmt.Errorf("%w: %s writes pc", ErrUnpredictable, inst.Op)
	}

	v := s.ReadReg(int(inst.Rm)) * s.ReadReg(int(inst.Rs))
	if inst.Op == insts.OpMLA {
		v += s.ReadReg(int(inst.Rn))
	}
	s.WriteReg(int(inst.Rd), v)

	if inst.SetFlags {
		// C is unpredictable after a multiply and is left unchanged.
		s.SetNZCV(bits.IsSet(v, 31), v == 0, s.C(), s.V())
	}
	return nil
}

func execMultiplyLong(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}
	if inst.RdHi == RegPC || inst.RdLo == RegPC || inst.RdHi == inst.RdLo {
		return fmt.Errorf("%w: %s destination registers", ErrUnpredictable, inst.Op)
	}

	rm, rs := s.ReadReg(int(inst.Rm)), s.ReadReg(int(inst.Rs))
	var v uint64
	if inst.Signed {
		v = uint64(int64(int32(rm)) * int64(int32(rs)))
	} else {
		v = uint64(rm) * uint64(rs)
	}
	if inst.Op == insts.OpUMLAL || inst.Op == insts.OpSMLAL {
		v += uint64(s.ReadReg(int(inst.RdHi)))<<32 | uint64(s.ReadReg(int(inst.RdLo)))
	}

	s.WriteReg(int(inst.RdLo), uint32(v))
	s.WriteReg(int(inst.RdHi), uint32(v>>32))

	if inst.SetFlags {
		s.SetNZCV(v>>63 == 1, v == 0, s.C(), s.V())
	}
	return nil
}

// execSWI enters SVC mode through the software interrupt vector.
func execSWI(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	cpsr := s.CPSR()
	ret := s.CurrentAddress() + 4

	s.SetMode(ModeSVC)
	if err := s.SetSPSR(cpsr); err != nil {
		return err
	}
	s.WriteReg(RegLR, ret)
	s.SetThumb(false)
	s.Registers().Reg(RegCPSR).SetBit(PSRBitI, true)
	s.WriteReg(RegPC, VectorSWI)
	return nil
}

// VectorSWI is the software interrupt exception vector.
const VectorSWI uint32 = 0x08

func execCoprocessor(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}
	return fmt.Errorf("%w: %s p%d", ErrUnimplemented, inst.Op, inst.CPNum)
}
