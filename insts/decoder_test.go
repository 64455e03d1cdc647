package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armemu/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Data processing", func() {
		// ADD r1, r2, #5 -> 0xE2821005
		It("should decode ADD r1, r2, #5", func() {
			inst := decoder.Decode(0xE2821005)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatDataProc))
			Expect(inst.Cond).To(Equal(insts.CondAL))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rn).To(Equal(uint8(2)))
			Expect(inst.Immediate).To(BeTrue())
			Expect(inst.SetFlags).To(BeFalse())
			Expect(inst.Shifter).To(Equal(insts.Shifter{Kind: insts.ShifterImm, Imm: 5}))
			Expect(inst.String()).To(Equal("ADD r1, r2, #5"))
		})

		// SBCS r0, r0, r0 -> 0xE0D00000
		It("should decode the S bit", func() {
			inst := decoder.Decode(0xE0D00000)
			Expect(inst.Op).To(Equal(insts.OpSBC))
			Expect(inst.SetFlags).To(BeTrue())
			Expect(inst.Shifter.Kind).To(Equal(insts.ShifterImmShift))
		})

		// CMP r0, r1 -> 0xE1500001
		It("should always set flags for compares", func() {
			inst := decoder.Decode(0xE1500001)
			Expect(inst.Op).To(Equal(insts.OpCMP))
			Expect(inst.SetFlags).To(BeTrue())
			Expect(inst.Rn).To(Equal(uint8(0)))
			Expect(inst.Shifter.Rm).To(Equal(uint8(1)))
		})

		// MOVNE r0, r0 -> 0x11A00000
		It("should decode the condition field", func() {
			inst := decoder.Decode(0x11A00000)
			Expect(inst.Op).To(Equal(insts.OpMOV))
			Expect(inst.Cond).To(Equal(insts.CondNE))
		})

		// SUB r0, r0, r0 with bit 7 and bit 4 set -> 0xE0400090
		It("should mark a register operand with bits 7 and 4 set as invalid", func() {
			inst := decoder.Decode(0xE0400090)
			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Shifter.Kind).To(Equal(insts.ShifterInvalid))
		})
	})

	Describe("Multiply", func() {
		// MUL r1, r2, r3 -> 0xE0010392
		It("should decode MUL", func() {
			inst := decoder.Decode(0xE0010392)
			Expect(inst.Op).To(Equal(insts.OpMUL))
			Expect(inst.Format).To(Equal(insts.FormatMultiply))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(2)))
			Expect(inst.Rs).To(Equal(uint8(3)))
		})

		// UMULL r1, r2, r4, r3 -> 0xE0821394
		It("should decode UMULL", func() {
			inst := decoder.Decode(0xE0821394)
			Expect(inst.Op).To(Equal(insts.OpUMULL))
			Expect(inst.RdHi).To(Equal(uint8(2)))
			Expect(inst.RdLo).To(Equal(uint8(1)))
			Expect(inst.Signed).To(BeFalse())
		})
	})

	Describe("Branch", func() {
		// B . -> 0xEAFFFFFE
		It("should decode a branch to self", func() {
			inst := decoder.Decode(0xEAFFFFFE)
			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Link).To(BeFalse())
			Expect(inst.BranchOffset).To(Equal(int32(-8)))
		})

		// BL +4 -> 0xEB000001
		It("should decode BL", func() {
			inst := decoder.Decode(0xEB000001)
			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Link).To(BeTrue())
			Expect(inst.BranchOffset).To(Equal(int32(4)))
			Expect(inst.String()).To(Equal("BL +4"))
		})

		// BX lr -> 0xE12FFF1E
		It("should decode BX before the compare space", func() {
			inst := decoder.Decode(0xE12FFF1E)
			Expect(inst.Op).To(Equal(insts.OpBX))
			Expect(inst.Rm).To(Equal(uint8(14)))
		})
	})

	Describe("Status register transfer", func() {
		// MRS r0, CPSR -> 0xE10F0000
		It("should decode MRS", func() {
			inst := decoder.Decode(0xE10F0000)
			Expect(inst.Op).To(Equal(insts.OpMRS))
			Expect(inst.UseSPSR).To(BeFalse())
		})

		// MRS r3, SPSR -> 0xE14F3000
		It("should decode MRS from SPSR", func() {
			inst := decoder.Decode(0xE14F3000)
			Expect(inst.Op).To(Equal(insts.OpMRS))
			Expect(inst.UseSPSR).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(3)))
		})

		// MSR CPSR_fc, r0 -> 0xE129F000
		It("should decode MSR with a register operand", func() {
			inst := decoder.Decode(0xE129F000)
			Expect(inst.Op).To(Equal(insts.OpMSR))
			Expect(inst.Immediate).To(BeFalse())
			Expect(inst.FieldMask).To(Equal(uint8(0b1001)))
			Expect(inst.Rm).To(Equal(uint8(0)))
		})

		// MSR CPSR_c, #0xD3 -> 0xE321F0D3
		It("should decode MSR with an immediate operand", func() {
			inst := decoder.Decode(0xE321F0D3)
			Expect(inst.Op).To(Equal(insts.OpMSR))
			Expect(inst.Immediate).To(BeTrue())
			Expect(inst.FieldMask).To(Equal(uint8(0b0001)))
			Expect(inst.Shifter.Imm).To(Equal(uint8(0xD3)))
		})
	})

	Describe("Load and store", func() {
		// LDR r1, [pc, #4] -> 0xE59F1004
		It("should decode LDR with an immediate offset", func() {
			inst := decoder.Decode(0xE59F1004)
			Expect(inst.Op).To(Equal(insts.OpLDR))
			Expect(inst.Load).To(BeTrue())
			Expect(inst.PreIndex).To(BeTrue())
			Expect(inst.Up).To(BeTrue())
			Expect(inst.Rn).To(Equal(uint8(15)))
			Expect(inst.Offset).To(Equal(insts.Offset{Kind: insts.OffsetImm, Imm: 4}))
		})

		// LDR r2, [r1, r3] -> 0xE7912003
		It("should decode LDR with a register offset", func() {
			inst := decoder.Decode(0xE7912003)
			Expect(inst.Op).To(Equal(insts.OpLDR))
			Expect(inst.Offset).To(Equal(insts.Offset{Kind: insts.OffsetReg, Rm: 3}))
		})

		// LDRT r1, [r0], #4 -> 0xE4B01004
		It("should decode LDRT as post-indexed with writeback", func() {
			inst := decoder.Decode(0xE4B01004)
			Expect(inst.Op).To(Equal(insts.OpLDRT))
			Expect(inst.PreIndex).To(BeFalse())
			Expect(inst.Writeback).To(BeTrue())
			Expect(inst.UserBank).To(BeTrue())
		})

		// STRB r2, [r1] -> 0xE5C12000
		It("should decode STRB", func() {
			inst := decoder.Decode(0xE5C12000)
			Expect(inst.Op).To(Equal(insts.OpSTRB))
			Expect(inst.Byte).To(BeTrue())
			Expect(inst.Load).To(BeFalse())
		})

		// LDRH r1, [r0] -> 0xE1D010B0
		It("should decode halfword transfers before data processing", func() {
			inst := decoder.Decode(0xE1D010B0)
			Expect(inst.Op).To(Equal(insts.OpLDRH))
			Expect(inst.Half).To(BeTrue())
			Expect(inst.Signed).To(BeFalse())
		})

		// LDRSB r2, [r1, #0x12] -> 0xE1D121D2
		It("should join the split halfword immediate", func() {
			inst := decoder.Decode(0xE1D121D2)
			Expect(inst.Op).To(Equal(insts.OpLDRSB))
			Expect(inst.Signed).To(BeTrue())
			Expect(inst.Offset).To(Equal(insts.Offset{Kind: insts.OffsetImm, Imm: 0x12}))
		})

		// LDMIA sp!, {pc} -> 0xE8BD8000
		It("should decode LDM", func() {
			inst := decoder.Decode(0xE8BD8000)
			Expect(inst.Op).To(Equal(insts.OpLDM))
			Expect(inst.Rn).To(Equal(uint8(13)))
			Expect(inst.RegisterList).To(Equal(uint16(0x8000)))
			Expect(inst.Up).To(BeTrue())
			Expect(inst.Writeback).To(BeTrue())
			Expect(inst.UserBank).To(BeFalse())
		})

		// SWP r0, r1, [r2] -> 0xE1020091
		It("should decode SWP", func() {
			inst := decoder.Decode(0xE1020091)
			Expect(inst.Op).To(Equal(insts.OpSWP))
			Expect(inst.Rn).To(Equal(uint8(2)))
			Expect(inst.Rm).To(Equal(uint8(1)))
		})
	})

	Describe("Coprocessor and exceptions", func() {
		// MRC p15, 0, r0, c0, c0, 0 -> 0xEE100F10
		It("should decode MRC", func() {
			inst := decoder.Decode(0xEE100F10)
			Expect(inst.Op).To(Equal(insts.OpMRC))
			Expect(inst.CPNum).To(Equal(uint8(15)))
			Expect(inst.Load).To(BeTrue())
		})

		It("should decode CDP", func() {
			Expect(decoder.Decode(0xEE000000).Op).To(Equal(insts.OpCDP))
		})

		It("should decode SWI", func() {
			inst := decoder.Decode(0xEF00002A)
			Expect(inst.Op).To(Equal(insts.OpSWI))
			Expect(inst.Imm).To(Equal(uint32(42)))
		})
	})

	Describe("Unknown encodings", func() {
		It("should return OpUnknown when nothing matches", func() {
			inst := decoder.Decode(0xE10F0001)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Word).To(Equal(uint32(0xE10F0001)))
		})

		It("should only try the given definitions", func() {
			d := insts.NewDecoderFor([]*insts.Definition{insts.Lookup("MRC")})
			Expect(d.Decode(0xEE100F10).Op).To(Equal(insts.OpMRC))
			Expect(d.Decode(0xE2821005).Op).To(Equal(insts.OpUnknown))
		})
	})
})

var _ = Describe("Definitions", func() {
	It("should all be 32 bits wide", func() {
		for _, def := range insts.Definitions() {
			Expect(def.Pattern.Width()).To(Equal(uint(32)), def.Mnemonic)
		}
	})

	It("should look up by mnemonic", func() {
		def := insts.Lookup("ADC")
		Expect(def).NotTo(BeNil())
		Expect(def.Op).To(Equal(insts.OpADC))
		Expect(insts.Lookup("NOPE")).To(BeNil())
	})

	It("should encode ADD r1, r2, #5", func() {
		word, err := insts.Lookup("ADD").Encode(insts.Fields{
			"cond": 0xE, "I": 1, "Rn": 2, "Rd": 1, "shifter_operand": 5,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(word).To(Equal(uint32(0xE2821005)))
	})
})
