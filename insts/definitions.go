package insts

import "fmt"

// Definition binds a mnemonic to its encoding pattern.
type Definition struct {
	Mnemonic string
	Op       Op
	Format   Format
	Encoding string
	Pattern  *Pattern
}

// Decode matches word against the definition and builds the typed
// instruction on success.
func (d *Definition) Decode(word uint32) (*Instruction, bool) {
	f, ok := d.Pattern.Match(word)
	if !ok {
		return nil, false
	}

	inst := &Instruction{
		Op:       d.Op,
		Format:   d.Format,
		Mnemonic: d.Mnemonic,
		Cond:     Cond(f.Value("cond")),
		Word:     word,
		Fields:   f,
	}
	if build, ok := builders[d.Format]; ok {
		build(inst, f)
	}
	return inst, true
}

// Encode assembles a word from flag and field values, for example
//
//	Lookup("ADD").Encode(Fields{"cond": 0xE, "I": 1, "Rn": 2, "Rd": 1, "shifter_operand": 5})
func (d *Definition) Encode(f Fields) (uint32, error) {
	return d.Pattern.Encode(f)
}

// The order of this table is the match priority. Encodings that overlap a
// more general class come before it: multiplies, swaps and halfword
// transfers before data processing, status transfers and BX before the
// compare instructions, user-mode transfers before plain LDR/STR.
var encodings = []struct {
	mnemonic string
	op       Op
	format   Format
	encoding string
}{
	{"MUL", OpMUL, FormatMultiply, "cond(4)0000000[S]Rd(4)Rn(4)Rs(4)1001Rm(4)"},
	{"MLA", OpMLA, FormatMultiply, "cond(4)0000001[S]Rd(4)Rn(4)Rs(4)1001Rm(4)"},
	{"UMULL", OpUMULL, FormatMultiplyLong, "cond(4)0000100[S]RdHi(4)RdLo(4)Rs(4)1001Rm(4)"},
	{"UMLAL", OpUMLAL, FormatMultiplyLong, "cond(4)0000101[S]RdHi(4)RdLo(4)Rs(4)1001Rm(4)"},
	{"SMULL", OpSMULL, FormatMultiplyLong, "cond(4)0000110[S]RdHi(4)RdLo(4)Rs(4)1001Rm(4)"},
	{"SMLAL", OpSMLAL, FormatMultiplyLong, "cond(4)0000111[S]RdHi(4)RdLo(4)Rs(4)1001Rm(4)"},
	{"SWP", OpSWP, FormatSwap, "cond(4)00010000Rn(4)Rd(4)00001001Rm(4)"},
	{"SWPB", OpSWPB, FormatSwap, "cond(4)00010100Rn(4)Rd(4)00001001Rm(4)"},

	{"BX", OpBX, FormatBranchExchange, "cond(4)000100101111111111110001Rm(4)"},
	{"MRS", OpMRS, FormatPSRRead, "cond(4)00010[R]001111Rd(4)000000000000"},
	{"MSR", OpMSR, FormatPSRWrite, "cond(4)00[I]10[R]10field_mask(4)1111operand(12)"},

	{"STRH", OpSTRH, FormatLoadStoreHalf, "cond(4)000[PUIW]0Rn(4)Rd(4)immedH(4)1011immedL(4)"},
	{"LDRH", OpLDRH, FormatLoadStoreHalf, "cond(4)000[PUIW]1Rn(4)Rd(4)immedH(4)1011immedL(4)"},
	{"LDRSB", OpLDRSB, FormatLoadStoreHalf, "cond(4)000[PUIW]1Rn(4)Rd(4)immedH(4)1101immedL(4)"},
	{"LDRSH", OpLDRSH, FormatLoadStoreHalf, "cond(4)000[PUIW]1Rn(4)Rd(4)immedH(4)1111immedL(4)"},

	{"AND", OpAND, FormatDataProc, "cond(4)00[I]0000[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"EOR", OpEOR, FormatDataProc, "cond(4)00[I]0001[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"SUB", OpSUB, FormatDataProc, "cond(4)00[I]0010[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"RSB", OpRSB, FormatDataProc, "cond(4)00[I]0011[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"ADD", OpADD, FormatDataProc, "cond(4)00[I]0100[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"ADC", OpADC, FormatDataProc, "cond(4)00[I]0101[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"SBC", OpSBC, FormatDataProc, "cond(4)00[I]0110[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"RSC", OpRSC, FormatDataProc, "cond(4)00[I]0111[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"TST", OpTST, FormatDataProc, "cond(4)00[I]10001Rn(4)Rd(4)shifter_operand(12)"},
	{"TEQ", OpTEQ, FormatDataProc, "cond(4)00[I]10011Rn(4)Rd(4)shifter_operand(12)"},
	{"CMP", OpCMP, FormatDataProc, "cond(4)00[I]10101Rn(4)Rd(4)shifter_operand(12)"},
	{"CMN", OpCMN, FormatDataProc, "cond(4)00[I]10111Rn(4)Rd(4)shifter_operand(12)"},
	{"ORR", OpORR, FormatDataProc, "cond(4)00[I]1100[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"MOV", OpMOV, FormatDataProc, "cond(4)00[I]1101[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"BIC", OpBIC, FormatDataProc, "cond(4)00[I]1110[S]Rn(4)Rd(4)shifter_operand(12)"},
	{"MVN", OpMVN, FormatDataProc, "cond(4)00[I]1111[S]Rn(4)Rd(4)shifter_operand(12)"},

	{"LDRT", OpLDRT, FormatLoadStore, "cond(4)01[I]0[U]011Rn(4)Rd(4)addr_mode(12)"},
	{"LDRBT", OpLDRBT, FormatLoadStore, "cond(4)01[I]0[U]111Rn(4)Rd(4)addr_mode(12)"},
	{"STRT", OpSTRT, FormatLoadStore, "cond(4)01[I]0[U]010Rn(4)Rd(4)addr_mode(12)"},
	{"STRBT", OpSTRBT, FormatLoadStore, "cond(4)01[I]0[U]110Rn(4)Rd(4)addr_mode(12)"},
	{"LDR", OpLDR, FormatLoadStore, "cond(4)01[IPU]0[W]1Rn(4)Rd(4)addr_mode(12)"},
	{"LDRB", OpLDRB, FormatLoadStore, "cond(4)01[IPU]1[W]1Rn(4)Rd(4)addr_mode(12)"},
	{"STR", OpSTR, FormatLoadStore, "cond(4)01[IPU]0[W]0Rn(4)Rd(4)addr_mode(12)"},
	{"STRB", OpSTRB, FormatLoadStore, "cond(4)01[IPU]1[W]0Rn(4)Rd(4)addr_mode(12)"},

	{"LDM", OpLDM, FormatLoadStoreMultiple, "cond(4)100[PUSW]1Rn(4)register_list(16)"},
	{"STM", OpSTM, FormatLoadStoreMultiple, "cond(4)100[PUSW]0Rn(4)register_list(16)"},

	{"B", OpB, FormatBranch, "cond(4)101[L]signed_immed_24(24)"},

	{"LDC", OpLDC, FormatCoprocTransfer, "cond(4)110[PUNW]1Rn(4)CRd(4)cp_num(4)offset_8(8)"},
	{"STC", OpSTC, FormatCoprocTransfer, "cond(4)110[PUNW]0Rn(4)CRd(4)cp_num(4)offset_8(8)"},
	{"CDP", OpCDP, FormatCoprocData, "cond(4)1110opcode_1(4)CRn(4)CRd(4)cp_num(4)opcode_2(3)0CRm(4)"},
	{"MCR", OpMCR, FormatCoprocRegister, "cond(4)1110opcode_1(3)0CRn(4)Rd(4)cp_num(4)opcode_2(3)1CRm(4)"},
	{"MRC", OpMRC, FormatCoprocRegister, "cond(4)1110opcode_1(3)1CRn(4)Rd(4)cp_num(4)opcode_2(3)1CRm(4)"},
	{"SWI", OpSWI, FormatSWI, "cond(4)1111immed_24(24)"},
}

var (
	definitions []*Definition
	byMnemonic  map[string]*Definition
)

func init() {
	byMnemonic = make(map[string]*Definition, len(encodings))
	for _, e := range encodings {
		p := MustCompile(e.encoding)
		if p.Width() != 32 {
			panic(fmt.Sprintf("insts: %s encoding is %d bits wide", e.mnemonic, p.Width()))
		}
		if _, dup := byMnemonic[e.mnemonic]; dup {
			panic(fmt.Sprintf("insts: duplicate mnemonic %s", e.mnemonic))
		}

		d := &Definition{
			Mnemonic: e.mnemonic,
			Op:       e.op,
			Format:   e.format,
			Encoding: e.encoding,
			Pattern:  p,
		}
		definitions = append(definitions, d)
		byMnemonic[e.mnemonic] = d
	}
}

// Definitions returns every instruction definition in match priority order.
func Definitions() []*Definition {
	return append([]*Definition(nil), definitions...)
}

// Lookup returns the definition for a mnemonic, or nil if there is none.
func Lookup(mnemonic string) *Definition {
	return byMnemonic[mnemonic]
}
