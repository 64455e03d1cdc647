package emu

import "fmt"

// Mode is a processor mode as held in CPSR[4:0].
type Mode uint8

// Processor modes.
const (
	ModeUSR Mode = 0x10
	ModeFIQ Mode = 0x11
	ModeIRQ Mode = 0x12
	ModeSVC Mode = 0x13
	ModeABT Mode = 0x17
	ModeUND Mode = 0x1B
	ModeSYS Mode = 0x1F
)

// Valid reports whether m is one of the seven defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeUSR, ModeFIQ, ModeIRQ, ModeSVC, ModeABT, ModeUND, ModeSYS:
		return true
	}
	return false
}

// HasSPSR reports whether the mode has a saved program status register.
// USR and SYS do not.
func (m Mode) HasSPSR() bool {
	return m.Valid() && m != ModeUSR && m != ModeSYS
}

// Privileged reports whether the mode may change the CPSR control field.
func (m Mode) Privileged() bool {
	return m.Valid() && m != ModeUSR
}

func (m Mode) String() string {
	switch m {
	case ModeUSR:
		return "usr"
	case ModeFIQ:
		return "fiq"
	case ModeIRQ:
		return "irq"
	case ModeSVC:
		return "svc"
	case ModeABT:
		return "abt"
	case ModeUND:
		return "und"
	case ModeSYS:
		return "sys"
	}
	return fmt.Sprintf("mode(%#02x)", uint8(m))
}

// ParseMode converts a mode name such as "svc" to a Mode.
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeUSR, ModeFIQ, ModeIRQ, ModeSVC, ModeABT, ModeUND, ModeSYS} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown processor mode %q", name)
}
