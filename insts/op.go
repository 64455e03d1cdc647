package insts

// Op identifies a decoded ARM operation.
type Op uint16

// ARMv4 operations.
const (
	OpUnknown Op = iota

	// Data processing
	OpAND
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN

	// Multiply
	OpMUL
	OpMLA
	OpUMULL
	OpUMLAL
	OpSMULL
	OpSMLAL

	// Branch
	OpB
	OpBX

	// Status register transfer
	OpMRS
	OpMSR

	// Load and store
	OpLDR
	OpLDRB
	OpLDRT
	OpLDRBT
	OpSTR
	OpSTRB
	OpSTRT
	OpSTRBT
	OpLDRH
	OpLDRSB
	OpLDRSH
	OpSTRH
	OpLDM
	OpSTM
	OpSWP
	OpSWPB

	// Exception generation
	OpSWI

	// Coprocessor
	OpCDP
	OpLDC
	OpSTC
	OpMCR
	OpMRC

	numOps
)

var opNames = [numOps]string{
	OpUnknown: "UNKNOWN",
	OpAND:     "AND", OpEOR: "EOR", OpSUB: "SUB", OpRSB: "RSB",
	OpADD: "ADD", OpADC: "ADC", OpSBC: "SBC", OpRSC: "RSC",
	OpTST: "TST", OpTEQ: "TEQ", OpCMP: "CMP", OpCMN: "CMN",
	OpORR: "ORR", OpMOV: "MOV", OpBIC: "BIC", OpMVN: "MVN",
	OpMUL: "MUL", OpMLA: "MLA",
	OpUMULL: "UMULL", OpUMLAL: "UMLAL", OpSMULL: "SMULL", OpSMLAL: "SMLAL",
	OpB: "B", OpBX: "BX",
	OpMRS: "MRS", OpMSR: "MSR",
	OpLDR: "LDR", OpLDRB: "LDRB", OpLDRT: "LDRT", OpLDRBT: "LDRBT",
	OpSTR: "STR", OpSTRB: "STRB", OpSTRT: "STRT", OpSTRBT: "STRBT",
	OpLDRH: "LDRH", OpLDRSB: "LDRSB", OpLDRSH: "LDRSH", OpSTRH: "STRH",
	OpLDM: "LDM", OpSTM: "STM",
	OpSWP: "SWP", OpSWPB: "SWPB",
	OpSWI: "SWI",
	OpCDP: "CDP", OpLDC: "LDC", OpSTC: "STC", OpMCR: "MCR", OpMRC: "MRC",
}

func (o Op) String() string {
	if o >= numOps {
		return "UNKNOWN"
	}
	return opNames[o]
}

// IsDataProcessing reports whether o is one of the sixteen data-processing
// operations.
func (o Op) IsDataProcessing() bool {
	return o >= OpAND && o <= OpMVN
}

// IsCompare reports whether o only updates flags (TST, TEQ, CMP, CMN).
func (o Op) IsCompare() bool {
	return o >= OpTST && o <= OpCMN
}

// IsLogical reports whether o takes its carry flag from the shifter.
func (o Op) IsLogical() bool {
	switch o {
	case OpAND, OpEOR, OpTST, OpTEQ, OpORR, OpMOV, OpBIC, OpMVN:
		return true
	}
	return false
}

// Format groups operations that share an encoding layout.
type Format uint8

// Instruction formats.
const (
	FormatUnknown        Format = iota
	FormatDataProc              // Data processing with a shifter operand
	FormatMultiply              // MUL, MLA
	FormatMultiplyLong          // UMULL, UMLAL, SMULL, SMLAL
	FormatBranch                // B, BL
	FormatBranchExchange        // BX
	FormatPSRRead               // MRS
	FormatPSRWrite              // MSR
	FormatLoadStore             // Word and unsigned byte transfer
	FormatLoadStoreHalf         // Halfword and signed byte transfer
	FormatLoadStoreMultiple     // LDM, STM
	FormatSwap                  // SWP, SWPB
	FormatSWI                   // Software interrupt
	FormatCoprocData            // CDP
	FormatCoprocTransfer        // LDC, STC
	FormatCoprocRegister        // MCR, MRC
)

var formatNames = [...]string{
	FormatUnknown:           "unknown",
	FormatDataProc:          "data-processing",
	FormatMultiply:          "multiply",
	FormatMultiplyLong:      "multiply-long",
	FormatBranch:            "branch",
	FormatBranchExchange:    "branch-exchange",
	FormatPSRRead:           "psr-read",
	FormatPSRWrite:          "psr-write",
	FormatLoadStore:         "load-store",
	FormatLoadStoreHalf:     "load-store-half",
	FormatLoadStoreMultiple: "load-store-multiple",
	FormatSwap:              "swap",
	FormatSWI:               "swi",
	FormatCoprocData:        "coproc-data",
	FormatCoprocTransfer:    "coproc-transfer",
	FormatCoprocRegister:    "coproc-register",
}

func (f Format) String() string {
	if int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}
