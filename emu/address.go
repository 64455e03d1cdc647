package emu

import (
	"fmt"

	"github.com/sarchlab/armemu/bits"
	"github.com/sarchlab/armemu/insts"
)

// offsetValue evaluates the offset of a single data transfer. Scaled
// register offsets use immediate shift amounts only.
func offsetValue(s *State, o insts.Offset) (uint32, error) {
	switch o.Kind {
	case insts.OffsetImm:
		return o.Imm, nil
	case insts.OffsetReg:
		return s.ReadReg(int(o.Rm)), nil
	case insts.OffsetScaled:
		return shiftImmediate(s.ReadReg(int(o.Rm)), o.Shift, uint(o.Amount), s.C()).Value, nil
	}
	return 0, fmt.Errorf("%w: invalid offset encoding", ErrUndefinedInstruction)
}

// singleAddress computes Rn ± offset. Pre-indexed forms use the sum as the
// address and write it back when W is set. Post-indexed forms use Rn as the
// address and always write the sum back.
func singleAddress(s *State, inst *insts.Instruction) (uint32, error) {
	offset, err := offsetValue(s, inst.Offset)
	if err != nil {
		return 0, err
	}

	base := s.ReadReg(int(inst.Rn))
	addr := base + offset
	if !inst.Up {
		addr = base - offset
	}

	if inst.PreIndex {
		if inst.Writeback {
			s.WriteReg(int(inst.Rn), addr)
		}
		return addr, nil
	}

	s.WriteReg(int(inst.Rn), addr)
	return base, nil
}

// AddressMode2 returns the effective address of a word or unsigned byte
// transfer and performs base register writeback. Callers invoke it only
// after the instruction's condition has passed.
func AddressMode2(s *State, inst *insts.Instruction) (uint32, error) {
	return singleAddress(s, inst)
}

// AddressMode3 returns the effective address of a halfword or signed byte
// transfer and performs base register writeback.
func AddressMode3(s *State, inst *insts.Instruction) (uint32, error) {
	return singleAddress(s, inst)
}

// MultipleAddress is the address range of a block transfer.
type MultipleAddress struct {
	Start   uint32
	End     uint32
	NewBase uint32
}

// AddressMode4 returns the address range of an LDM or STM and the value
// the base register takes on writeback. It does not write the base.
func AddressMode4(s *State, inst *insts.Instruction) MultipleAddress {
	rn := s.ReadReg(int(inst.Rn))
	size := uint32(bits.PopCount(uint32(inst.RegisterList))) * 4

	switch {
	case !inst.PreIndex && inst.Up: // IA
		return MultipleAddress{Start: rn, End: rn + size - 4, NewBase: rn + size}
	case inst.PreIndex && inst.Up: // IB
		return MultipleAddress{Start: rn + 4, End: rn + size, NewBase: rn + size}
	case !inst.PreIndex: // DA
		return MultipleAddress{Start: rn - size + 4, End: rn, NewBase: rn - size}
	default: // DB
		return MultipleAddress{Start: rn - size, End: rn - 4, NewBase: rn - size}
	}
}
