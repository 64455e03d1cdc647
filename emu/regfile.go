package emu

import (
	"fmt"

	"github.com/sarchlab/armemu/bits"
)

// Logical register indices.
const (
	RegSP   = 13
	RegLR   = 14
	RegPC   = 15
	RegCPSR = 16
	RegSPSR = 17

	NumRegs = 18
)

// bankWidths is the number of physical copies behind each logical register.
var bankWidths = [NumRegs]int{
	1, 1, 1, 1, 1, 1, 1, 1, // r0-r7
	2, 2, 2, 2, 2, // r8-r12: usr, fiq
	6, 6, // r13-r14: usr, svc, abt, und, irq, fiq
	1, // pc
	1, // cpsr
	5, // spsr: svc, abt, und, irq, fiq
}

// bankSlot returns the physical slot that holds logical register reg in
// mode m. For SPSR in a mode without one it returns -1.
func bankSlot(reg int, m Mode) int {
	switch {
	case reg >= 8 && reg <= 12:
		if m == ModeFIQ {
			return 1
		}
		return 0
	case reg == RegSP || reg == RegLR:
		switch m {
		case ModeSVC:
			return 1
		case ModeABT:
			return 2
		case ModeUND:
			return 3
		case ModeIRQ:
			return 4
		case ModeFIQ:
			return 5
		}
		return 0
	case reg == RegSPSR:
		switch m {
		case ModeSVC:
			return 0
		case ModeABT:
			return 1
		case ModeUND:
			return 2
		case ModeIRQ:
			return 3
		case ModeFIQ:
			return 4
		}
		return -1
	}
	return 0
}

// Register is one logical register backed by one or more physical slots.
type Register struct {
	slots  []uint32
	active int
}

// Val returns the value of the active slot.
func (r *Register) Val() uint32 {
	return r.slots[r.active]
}

// SetVal writes the active slot.
func (r *Register) SetVal(v uint32) {
	r.slots[r.active] = v
}

// Bit reports whether bit pos of the active slot is set.
func (r *Register) Bit(pos uint) bool {
	checkBit(pos)
	return bits.IsSet(r.Val(), pos)
}

// SetBit sets or clears bit pos of the active slot in place.
func (r *Register) SetBit(pos uint, on bool) {
	checkBit(pos)
	r.SetVal(bits.Assign(r.Val(), pos, on))
}

// Field reads a sub-field of the active slot.
func (r *Register) Field(m bits.FieldMask) uint32 {
	return m.Extract(r.Val())
}

// SetField replaces a sub-field of the active slot in place.
func (r *Register) SetField(m bits.FieldMask, v uint32) {
	r.SetVal(m.Replace(r.Val(), v))
}

// Width returns the number of physical slots.
func (r *Register) Width() int {
	return len(r.slots)
}

// Active returns the index of the active slot.
func (r *Register) Active() int {
	return r.active
}

// Slot returns the value of physical slot i regardless of mode.
func (r *Register) Slot(i int) uint32 {
	return r.slots[i]
}

// SetSlot writes physical slot i regardless of mode.
func (r *Register) SetSlot(i int, v uint32) {
	r.slots[i] = v
}

func checkBit(pos uint) {
	if pos > 31 {
		panic(fmt.Sprintf("emu: bit index %d out of range", pos))
	}
}

// RegFile is the banked ARM register file.
type RegFile struct {
	regs [NumRegs]Register
}

// NewRegFile creates a register file with every slot zeroed and the USR
// bank active.
func NewRegFile() *RegFile {
	rf := &RegFile{}
	for i := range rf.regs {
		rf.regs[i].slots = make([]uint32, bankWidths[i])
	}
	return rf
}

// Reg returns logical register i. It panics if i is out of range.
func (rf *RegFile) Reg(i int) *Register {
	if i < 0 || i >= NumRegs {
		panic(fmt.Sprintf("emu: register index %d out of range", i))
	}
	return &rf.regs[i]
}

// rebank points every logical register at its slot for mode m. SPSR keeps
// its previous slot when m has none.
func (rf *RegFile) rebank(m Mode) {
	for i := range rf.regs {
		slot := bankSlot(i, m)
		if slot < 0 {
			continue
		}
		rf.regs[i].active = slot
	}
}
