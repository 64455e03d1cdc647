package insts

import (
	"fmt"
	"strings"

	"github.com/sarchlab/armemu/bits"
)

// Instruction is a decoded ARM instruction. Which fields are meaningful
// depends on Format.
type Instruction struct {
	Op       Op
	Format   Format
	Mnemonic string
	Cond     Cond
	Word     uint32

	// Fields holds the raw pattern match result.
	Fields Fields

	// Register operands
	Rd   uint8
	Rn   uint8
	Rm   uint8
	Rs   uint8
	RdHi uint8
	RdLo uint8

	SetFlags  bool // S bit of data processing and multiply
	Immediate bool // I bit
	Link      bool // L bit of B/BL

	// Data processing and MSR immediate operand
	Shifter Shifter

	// Branch target offset in bytes, relative to the PC read value
	BranchOffset int32

	// Single and multiple data transfer
	PreIndex     bool // P
	Up           bool // U
	Writeback    bool // W
	Byte         bool
	Load         bool
	Signed       bool
	Half         bool
	Offset       Offset
	RegisterList uint16
	UserBank     bool // S bit of LDM/STM

	// Status register transfer
	UseSPSR   bool  // R
	FieldMask uint8 // c, x, s, f byte enables

	// Coprocessor
	CPNum  uint8
	CPOpc1 uint8
	CPOpc2 uint8
	CRd    uint8
	CRn    uint8
	CRm    uint8

	// SWI comment field or coprocessor word offset
	Imm uint32
}

// String renders the instruction in a compact assembler-like form.
func (i *Instruction) String() string {
	if i.Op == OpUnknown {
		return fmt.Sprintf("UNKNOWN %#08x", i.Word)
	}

	var sb strings.Builder
	sb.WriteString(i.Mnemonic)
	if i.Format == FormatBranch && i.Link {
		sb.WriteString("L")
	}
	sb.WriteString(i.Cond.Suffix())
	if i.SetFlags && !i.Op.IsCompare() {
		sb.WriteString("S")
	}

	switch i.Format {
	case FormatDataProc:
		switch {
		case i.Op.IsCompare():
			fmt.Fprintf(&sb, " r%d, %s", i.Rn, i.Shifter)
		case i.Op == OpMOV || i.Op == OpMVN:
			fmt.Fprintf(&sb, " r%d, %s", i.Rd, i.Shifter)
		default:
			fmt.Fprintf(&sb, " r%d, r%d, %s", i.Rd, i.Rn, i.Shifter)
		}
	case FormatBranch:
		fmt.Fprintf(&sb, " %+d", i.BranchOffset)
	case FormatBranchExchange:
		fmt.Fprintf(&sb, " r%d", i.Rm)
	case FormatLoadStore, FormatLoadStoreHalf:
		fmt.Fprintf(&sb, " r%d, [r%d], %s", i.Rd, i.Rn, i.Offset)
	case FormatLoadStoreMultiple:
		fmt.Fprintf(&sb, " r%d, {%#04x}", i.Rn, i.RegisterList)
	case FormatSWI:
		fmt.Fprintf(&sb, " %#x", i.Imm)
	}

	return sb.String()
}

// builder fills the format-specific fields of inst from a match result.
type builder func(inst *Instruction, f Fields)

func reg(f Fields, name string) uint8 {
	return uint8(f.Value(name) & 0xF)
}

func buildDataProc(inst *Instruction, f Fields) {
	inst.Rd = reg(f, "Rd")
	inst.Rn = reg(f, "Rn")
	inst.Immediate = f.Flag("I")
	inst.SetFlags = f.Flag("S") || inst.Op.IsCompare()

	s, err := DecodeShifter(f.Value("shifter_operand"), inst.Immediate)
	if err != nil {
		s = Shifter{Kind: ShifterInvalid}
	}
	inst.Shifter = s
}

func buildMultiply(inst *Instruction, f Fields) {
	inst.Rd = reg(f, "Rd")
	inst.Rn = reg(f, "Rn")
	inst.Rs = reg(f, "Rs")
	inst.Rm = reg(f, "Rm")
	inst.SetFlags = f.Flag("S")
}

func buildMultiplyLong(inst *Instruction, f Fields) {
	inst.RdHi = reg(f, "RdHi")
	inst.RdLo = reg(f, "RdLo")
	inst.Rs = reg(f, "Rs")
	inst.Rm = reg(f, "Rm")
	inst.SetFlags = f.Flag("S")
	inst.Signed = inst.Op == OpSMULL || inst.Op == OpSMLAL
}

func buildBranch(inst *Instruction, f Fields) {
	inst.Link = f.Flag("L")
	inst.BranchOffset = int32(bits.SignExtend(f.Value("signed_immed_24"), 24) << 2)
}

func buildBranchExchange(inst *Instruction, f Fields) {
	inst.Rm = reg(f, "Rm")
}

func buildPSRRead(inst *Instruction, f Fields) {
	inst.Rd = reg(f, "Rd")
	inst.UseSPSR = f.Flag("R")
}

func buildPSRWrite(inst *Instruction, f Fields) {
	inst.UseSPSR = f.Flag("R")
	inst.Immediate = f.Flag("I")
	inst.FieldMask = uint8(f.Value("field_mask"))

	operand := f.Value("operand")
	if inst.Immediate {
		inst.Shifter, _ = DecodeShifter(operand, true)
		return
	}
	if operand&0xFF0 != 0 {
		inst.Shifter = Shifter{Kind: ShifterInvalid}
		return
	}
	inst.Rm = uint8(operand & 0xF)
	inst.Shifter = Shifter{Kind: ShifterImmShift, Rm: inst.Rm}
}

func buildLoadStore(inst *Instruction, f Fields) {
	inst.Rd = reg(f, "Rd")
	inst.Rn = reg(f, "Rn")
	inst.Immediate = f.Flag("I")
	inst.PreIndex = f.Flag("P")
	inst.Up = f.Flag("U")
	inst.Writeback = f.Flag("W")

	switch inst.Op {
	case OpLDRB, OpLDRBT, OpSTRB, OpSTRBT:
		inst.Byte = true
	}
	switch inst.Op {
	case OpLDR, OpLDRB, OpLDRT, OpLDRBT:
		inst.Load = true
	}
	switch inst.Op {
	case OpLDRT, OpLDRBT, OpSTRT, OpSTRBT:
		// The T forms are always post-indexed and always write back.
		inst.PreIndex = false
		inst.Writeback = true
		inst.UserBank = true
	}

	o, err := DecodeOffset12(f.Value("addr_mode"), inst.Immediate)
	if err != nil {
		o = Offset{Kind: OffsetInvalid}
	}
	inst.Offset = o
}

func buildLoadStoreHalf(inst *Instruction, f Fields) {
	inst.Rd = reg(f, "Rd")
	inst.Rn = reg(f, "Rn")
	inst.Immediate = f.Flag("I")
	inst.PreIndex = f.Flag("P")
	inst.Up = f.Flag("U")
	inst.Writeback = f.Flag("W")

	switch inst.Op {
	case OpLDRH:
		inst.Load, inst.Half = true, true
	case OpLDRSH:
		inst.Load, inst.Half, inst.Signed = true, true, true
	case OpLDRSB:
		inst.Load, inst.Signed = true, true
	case OpSTRH:
		inst.Half = true
	}

	inst.Offset = DecodeOffset8(f.Value("immedH"), f.Value("immedL"), inst.Immediate)
}

func buildLoadStoreMultiple(inst *Instruction, f Fields) {
	inst.Rn = reg(f, "Rn")
	inst.PreIndex = f.Flag("P")
	inst.Up = f.Flag("U")
	inst.UserBank = f.Flag("S")
	inst.Writeback = f.Flag("W")
	inst.Load = inst.Op == OpLDM
	inst.RegisterList = uint16(f.Value("register_list"))
}

func buildSwap(inst *Instruction, f Fields) {
	inst.Rd = reg(f, "Rd")
	inst.Rn = reg(f, "Rn")
	inst.Rm = reg(f, "Rm")
	inst.Byte = inst.Op == OpSWPB
}

func buildSWI(inst *Instruction, f Fields) {
	inst.Imm = f.Value("immed_24")
}

func buildCoprocData(inst *Instruction, f Fields) {
	inst.CPNum = uint8(f.Value("cp_num"))
	inst.CPOpc1 = uint8(f.Value("opcode_1"))
	inst.CPOpc2 = uint8(f.Value("opcode_2"))
	inst.CRd = reg(f, "CRd")
	inst.CRn = reg(f, "CRn")
	inst.CRm = reg(f, "CRm")
}

func buildCoprocTransfer(inst *Instruction, f Fields) {
	inst.CPNum = uint8(f.Value("cp_num"))
	inst.CRd = reg(f, "CRd")
	inst.Rn = reg(f, "Rn")
	inst.PreIndex = f.Flag("P")
	inst.Up = f.Flag("U")
	inst.Writeback = f.Flag("W")
	inst.Load = inst.Op == OpLDC
	inst.Imm = f.Value("offset_8")
}

func buildCoprocRegister(inst *Instruction, f Fields) {
	inst.CPNum = uint8(f.Value("cp_num"))
	inst.CPOpc1 = uint8(f.Value("opcode_1"))
	inst.CPOpc2 = uint8(f.Value("opcode_2"))
	inst.Rd = reg(f, "Rd")
	inst.CRn = reg(f, "CRn")
	inst.CRm = reg(f, "CRm")
	inst.Load = inst.Op == OpMRC
}

var builders = map[Format]builder{
	FormatDataProc:          buildDataProc,
	FormatMultiply:          buildMultiply,
	FormatMultiplyLong:      buildMultiplyLong,
	FormatBranch:            buildBranch,
	FormatBranchExchange:    buildBranchExchange,
	FormatPSRRead:           buildPSRRead,
	FormatPSRWrite:          buildPSRWrite,
	FormatLoadStore:         buildLoadStore,
	FormatLoadStoreHalf:     buildLoadStoreHalf,
	FormatLoadStoreMultiple: buildLoadStoreMultiple,
	FormatSwap:              buildSwap,
	FormatSWI:               buildSWI,
	FormatCoprocData:        buildCoprocData,
	FormatCoprocTransfer:    buildCoprocTransfer,
	FormatCoprocRegister:    buildCoprocRegister,
}
