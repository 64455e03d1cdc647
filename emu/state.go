package emu

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/sarchlab/armemu/bits"
	"github.com/sarchlab/armemu/insts"
)

// PSR bit positions.
const (
	PSRBitN = 31
	PSRBitZ = 30
	PSRBitC = 29
	PSRBitV = 28
	PSRBitI = 7
	PSRBitF = 6
	PSRBitT = 5
)

// PSRMode selects the mode field of a program status register.
var PSRMode = bits.NewFieldMask(0, 5)

// State is the architectural state of one ARM processor: the banked
// register file, the current mode and the address of the instruction
// being executed. It is not safe for concurrent use.
type State struct {
	regs     *RegFile
	mode     Mode
	current  uint32
	branched bool
	bus      Bus
}

// NewState creates a processor in its reset state: SVC mode with IRQ and
// FIQ disabled, ARM state, executing address 0.
func NewState() *State {
	s := &State{regs: NewRegFile()}
	s.SetMode(ModeSVC)
	cpsr := s.regs.Reg(RegCPSR)
	cpsr.SetBit(PSRBitI, true)
	cpsr.SetBit(PSRBitF, true)
	s.SetCurrentAddress(0)
	return s
}

// Registers returns the underlying register file.
func (s *State) Registers() *RegFile {
	return s.regs
}

// Bus returns the attached memory, or nil.
func (s *State) Bus() Bus {
	return s.bus
}

// SetBus attaches the memory used by load and store instructions.
func (s *State) SetBus(b Bus) {
	s.bus = b
}

// Mode returns the current processor mode.
func (s *State) Mode() Mode {
	return s.mode
}

// SetMode switches to mode m and rebanks the register file. Values held in
// other banks are preserved. It panics if m is not a valid mode.
func (s *State) SetMode(m Mode) {
	if !m.Valid() {
		panic(fmt.Sprintf("emu: invalid processor mode %#02x", uint8(m)))
	}
	s.regs.Reg(RegCPSR).SetField(PSRMode, uint32(m))
	s.mode = m
	s.regs.rebank(m)
}

// ReadReg returns general-purpose register i (0-15) in the current mode.
// r15 reads as the current instruction address plus 8.
func (s *State) ReadReg(i int) uint32 {
	checkGeneral(i)
	return s.regs.Reg(i).Val()
}

// WriteReg writes general-purpose register i (0-15) in the current mode.
// Writing r15 makes the written value the next instruction address.
func (s *State) WriteReg(i int, v uint32) {
	checkGeneral(i)
	s.regs.Reg(i).SetVal(v)
	if i == RegPC {
		s.branched = true
	}
}

// ReadUserReg returns register i as seen from USR mode.
func (s *State) ReadUserReg(i int) uint32 {
	checkGeneral(i)
	return s.regs.Reg(i).Slot(bankSlot(i, ModeUSR))
}

// WriteUserReg writes register i as seen from USR mode.
func (s *State) WriteUserReg(i int, v uint32) {
	checkGeneral(i)
	if i == RegPC {
		s.WriteReg(i, v)
		return
	}
	s.regs.Reg(i).SetSlot(bankSlot(i, ModeUSR), v)
}

func checkGeneral(i int) {
	if i < 0 || i > RegPC {
		panic(fmt.Sprintf("emu: general register index %d out of range", i))
	}
}

// CPSR returns the current program status register.
func (s *State) CPSR() uint32 {
	return s.regs.Reg(RegCPSR).Val()
}

// SetCPSR replaces the CPSR and switches to the mode it names.
func (s *State) SetCPSR(v uint32) error {
	m := Mode(PSRMode.Extract(v))
	if !m.Valid() {
		return fmt.Errorf("%w: CPSR mode field %#02x", ErrUnpredictable, uint8(m))
	}
	s.regs.Reg(RegCPSR).SetVal(v)
	s.SetMode(m)
	return nil
}

// HasSPSR reports whether the current mode has a saved status register.
func (s *State) HasSPSR() bool {
	return s.mode.HasSPSR()
}

// SPSR returns the saved program status register of the current mode.
func (s *State) SPSR() (uint32, error) {
	if !s.HasSPSR() {
		return 0, fmt.Errorf("%w: no SPSR in %s mode", ErrUnpredictable, s.mode)
	}
	return s.regs.Reg(RegSPSR).Val(), nil
}

// SetSPSR writes the saved program status register of the current mode.
func (s *State) SetSPSR(v uint32) error {
	if !s.HasSPSR() {
		return fmt.Errorf("%w: no SPSR in %s mode", ErrUnpredictable, s.mode)
	}
	s.regs.Reg(RegSPSR).SetVal(v)
	return nil
}

// RestoreCPSR copies the current mode's SPSR into the CPSR, as done by
// exception returns.
func (s *State) RestoreCPSR() error {
	spsr, err := s.SPSR()
	if err != nil {
		return err
	}
	return s.SetCPSR(spsr)
}

// N returns the negative flag.
func (s *State) N() bool { return s.regs.Reg(RegCPSR).Bit(PSRBitN) }

// Z returns the zero flag.
func (s *State) Z() bool { return s.regs.Reg(RegCPSR).Bit(PSRBitZ) }

// C returns the carry flag.
func (s *State) C() bool { return s.regs.Reg(RegCPSR).Bit(PSRBitC) }

// V returns the overflow flag.
func (s *State) V() bool { return s.regs.Reg(RegCPSR).Bit(PSRBitV) }

// SetNZCV writes all four condition flags.
func (s *State) SetNZCV(n, z, c, v bool) {
	cpsr := s.regs.Reg(RegCPSR)
	cpsr.SetBit(PSRBitN, n)
	cpsr.SetBit(PSRBitZ, z)
	cpsr.SetBit(PSRBitC, c)
	cpsr.SetBit(PSRBitV, v)
}

// IRQDisabled reports whether the I bit is set.
func (s *State) IRQDisabled() bool { return s.regs.Reg(RegCPSR).Bit(PSRBitI) }

// FIQDisabled reports whether the F bit is set.
func (s *State) FIQDisabled() bool { return s.regs.Reg(RegCPSR).Bit(PSRBitF) }

// Thumb reports whether the T bit is set.
func (s *State) Thumb() bool { return s.regs.Reg(RegCPSR).Bit(PSRBitT) }

// SetThumb sets or clears the T bit.
func (s *State) SetThumb(on bool) { s.regs.Reg(RegCPSR).SetBit(PSRBitT, on) }

// ConditionPassed evaluates cond against the current flags.
func (s *State) ConditionPassed(cond insts.Cond) (bool, error) {
	return ConditionPassed(s.CPSR(), cond)
}

// CurrentAddress returns the address of the instruction being executed.
func (s *State) CurrentAddress() uint32 {
	return s.current
}

// SetCurrentAddress makes addr the instruction being executed. r15 reads
// as addr+8 from then on.
func (s *State) SetCurrentAddress(addr uint32) {
	s.current = addr
	s.branched = false
	s.regs.Reg(RegPC).SetVal(addr + 8)
}

// Branched reports whether the current instruction wrote r15.
func (s *State) Branched() bool {
	return s.branched
}

// NextAddress returns the address of the instruction that follows the
// current one: the value written to r15, or the sequential address.
func (s *State) NextAddress() uint32 {
	if !s.branched {
		return s.current + 4
	}
	if s.Thumb() {
		return s.regs.Reg(RegPC).Val() &^ 1
	}
	return s.regs.Reg(RegPC).Val() &^ 3
}

// Advance moves on to the next instruction.
func (s *State) Advance() {
	s.SetCurrentAddress(s.NextAddress())
}

// Snapshot is a plain copy of the visible state, used for dumps and
// comparisons.
type Snapshot struct {
	Mode    string
	Address uint32
	R       [16]uint32
	CPSR    uint32
	SPSR    uint32
	HasSPSR bool
}

// Snapshot captures the registers visible in the current mode.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Mode:    s.mode.String(),
		Address: s.current,
		CPSR:    s.CPSR(),
		HasSPSR: s.HasSPSR(),
	}
	for i := range snap.R {
		snap.R[i] = s.ReadReg(i)
	}
	if snap.HasSPSR {
		snap.SPSR, _ = s.SPSR()
	}
	return snap
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump renders the visible state for debugging.
func (s *State) Dump() string {
	return dumpConfig.Sdump(s.Snapshot())
}
