package emu

import (
	"fmt"

	"github.com/sarchlab/armemu/bits"
	"github.com/sarchlab/armemu/insts"
)

// Load and store handlers always compute the effective address and update
// the base register. The data transfer itself happens only when a Bus is
// attached to the State.

// storeValue returns the value a store writes for register r. Stores of
// r15 write the instruction address plus 12.
func storeValue(s *State, r int, user bool) uint32 {
	if r == RegPC {
		return s.CurrentAddress() + 12
	}
	if user {
		return s.ReadUserReg(r)
	}
	return s.ReadReg(r)
}

// loadPC writes a loaded value to r15. ARMv4 ignores the low two bits.
func loadPC(s *State, v uint32) {
	s.WriteReg(RegPC, v &^ 3)
}

func execLoadStore(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	var data uint32
	if !inst.Load {
		data = storeValue(s, int(inst.Rd), false)
	}

	addr, err := AddressMode2(s, inst)
	if err != nil {
		return err
	}

	bus := s.Bus()
	if bus == nil {
		return nil
	}

	if !inst.Load {
		if inst.Byte {
			bus.Write8(addr, uint8(data))
		} else {
			bus.Write32(addr &^ 3, data)
		}
		return nil
	}

	var v uint32
	if inst.Byte {
		v = uint32(bus.Read8(addr))
	} else {
		// Unaligned word loads rotate the aligned word.
		v = bits.RotateRight(bus.Read32(addr &^ 3), 8*uint(addr&3))
	}

	if inst.Rd == RegPC {
		loadPC(s, v)
		return nil
	}
	s.WriteReg(int(inst.Rd), v)
	return nil
}

func execLoadStoreHalf(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}
	if inst.Rd == RegPC {
		return fmt.Errorf("%w: %s with pc", ErrUnpredictable, inst.Op)
	}

	var data uint32
	if !inst.Load {
		data = s.ReadReg(int(inst.Rd))
	}

	addr, err := AddressMode3(s, inst)
	if err != nil {
		return err
	}

	bus := s.Bus()
	if bus == nil {
		return nil
	}

	if !inst.Load {
		bus.Write16(addr &^ 1, uint16(data))
		return nil
	}

	var v uint32
	switch {
	case inst.Half && inst.Signed:
		v = bits.SignExtend(uint32(bus.Read16(addr &^ 1)), 16)
	case inst.Half:
		v = uint32(bus.Read16(addr &^ 1))
	default:
		v = bits.SignExtend(uint32(bus.Read8(addr)), 8)
	}
	s.WriteReg(int(inst.Rd), v)
	return nil
}

// execLoadStoreMultiple implements LDM(1), LDM(2), LDM(3), STM(1) and
// STM(2). The S bit selects the user bank, except for an LDM that loads
// r15, where it restores the CPSR from the SPSR instead.
func execLoadStoreMultiple(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}

	list := inst.RegisterList
	if list == 0 {
		return fmt.Errorf("%w: %s with empty register list", ErrUnpredictable, inst.Op)
	}

	loadsPC := inst.Load && list&(1<<RegPC) != 0
	restore := inst.UserBank && loadsPC
	userBank := inst.UserBank && !loadsPC

	if (restore || userBank) && !s.HasSPSR() {
		return fmt.Errorf("%w: %s^ in %s mode", ErrUnpredictable, inst.Op, s.Mode())
	}
	if userBank && inst.Writeback {
		return fmt.Errorf("%w: %s^ with writeback", ErrUnpredictable, inst.Op)
	}

	a := AddressMode4(s, inst)
	bus := s.Bus()

	if !inst.Load {
		if bus != nil {
			addr := a.Start
			for r := 0; r < 16; r++ {
				if list&(1<<r) == 0 {
					continue
				}
				bus.Write32(addr, storeValue(s, r, userBank))
				addr += 4
			}
		}
		if inst.Writeback {
			s.WriteReg(int(inst.Rn), a.NewBase)
		}
		return nil
	}

	if inst.Writeback {
		s.WriteReg(int(inst.Rn), a.NewBase)
	}
	if bus == nil {
		return nil
	}

	addr := a.Start
	for r := 0; r < 15; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		v := bus.Read32(addr)
		addr += 4
		if userBank {
			s.WriteUserReg(r, v)
		} else {
			s.WriteReg(r, v)
		}
	}

	if loadsPC {
		v := bus.Read32(addr)
		if restore {
			if err := s.RestoreCPSR(); err != nil {
				return err
			}
			s.WriteReg(RegPC, v)
			return nil
		}
		loadPC(s, v)
	}
	return nil
}

func execSwap(s *State, inst *insts.Instruction) error {
	if ok, err := gate(s, inst); !ok {
		return err
	}
	if inst.Rd == RegPC || inst.Rn == RegPC || inst.Rm == RegPC {
		return fmt.Errorf("%w: %s with pc", ErrUnpredictable, inst.Op)
	}

	bus := s.Bus()
	if bus == nil {
		return nil
	}

	addr := s.ReadReg(int(inst.Rn))
	src := s.ReadReg(int(inst.Rm))

	if inst.Byte {
		old := bus.Read8(addr)
		bus.Write8(addr, uint8(src))
		s.WriteReg(int(inst.Rd), uint32(old))
		return nil
	}

	old := bits.RotateRight(bus.Read32(addr &^ 3), 8*uint(addr&3))
	bus.Write32(addr &^ 3, src)
	s.WriteReg(int(inst.Rd), old)
	return nil
}
