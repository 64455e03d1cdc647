package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armemu/emu"
	"github.com/sarchlab/armemu/insts"
)

var _ = Describe("ShifterOperand", func() {
	var s *emu.State

	BeforeEach(func() {
		s = emu.NewState()
	})

	immShift := func(t insts.ShiftType, amount uint8) insts.Shifter {
		return insts.Shifter{Kind: insts.ShifterImmShift, Rm: 1, Shift: t, Amount: amount}
	}
	regShift := func(t insts.ShiftType) insts.Shifter {
		return insts.Shifter{Kind: insts.ShifterRegShift, Rm: 1, Rs: 2, Shift: t}
	}

	eval := func(sh insts.Shifter, rm, rs uint32, carry bool) emu.Operand {
		s.WriteReg(1, rm)
		s.WriteReg(2, rs)
		s.SetNZCV(false, false, carry, false)
		op, err := emu.ShifterOperand(s, sh)
		Expect(err).NotTo(HaveOccurred())
		return op
	}

	Describe("immediate operands", func() {
		It("should pass the carry through when unrotated", func() {
			sh := insts.Shifter{Kind: insts.ShifterImm, Imm: 5}
			Expect(eval(sh, 0, 0, true)).To(Equal(emu.Operand{Value: 5, Carry: true}))
			Expect(eval(sh, 0, 0, false)).To(Equal(emu.Operand{Value: 5, Carry: false}))
		})

		It("should take the carry from bit 31 when rotated", func() {
			sh := insts.Shifter{Kind: insts.ShifterImm, Imm: 0xF0, Rotate: 4}
			Expect(eval(sh, 0, 0, false)).To(Equal(emu.Operand{Value: 0xF0000000, Carry: true}))
		})
	})

	Describe("immediate shifts", func() {
		It("should leave LSL #0 and the carry untouched", func() {
			Expect(eval(immShift(insts.ShiftLSL, 0), 0x1234, 0, true)).
				To(Equal(emu.Operand{Value: 0x1234, Carry: true}))
		})

		It("should shift left and carry out the last bit", func() {
			Expect(eval(immShift(insts.ShiftLSL, 4), 0x1000000F, 0, false)).
				To(Equal(emu.Operand{Value: 0xF0, Carry: true}))
		})

		It("should treat LSR #0 as LSR #32", func() {
			Expect(eval(immShift(insts.ShiftLSR, 0), 0x80000000, 0, false)).
				To(Equal(emu.Operand{Value: 0, Carry: true}))
		})

		It("should treat ASR #0 as ASR #32", func() {
			Expect(eval(immShift(insts.ShiftASR, 0), 0x80000000, 0, false)).
				To(Equal(emu.Operand{Value: 0xFFFFFFFF, Carry: true}))
			Expect(eval(immShift(insts.ShiftASR, 0), 0x7FFFFFFF, 0, true)).
				To(Equal(emu.Operand{Value: 0, Carry: false}))
		})

		It("should treat ROR #0 as RRX", func() {
			Expect(eval(immShift(insts.ShiftROR, 0), 1, 0, true)).
				To(Equal(emu.Operand{Value: 0x80000000, Carry: true}))
			Expect(eval(immShift(insts.ShiftROR, 0), 2, 0, false)).
				To(Equal(emu.Operand{Value: 1, Carry: false}))
		})

		It("should sign-fill on ASR", func() {
			Expect(eval(immShift(insts.ShiftASR, 4), 0x80000010, 0, false)).
				To(Equal(emu.Operand{Value: 0xF8000001, Carry: false}))
		})
	})

	Describe("register shifts", func() {
		It("should pass Rm and the carry through for a zero amount", func() {
			Expect(eval(regShift(insts.ShiftLSR), 0xABCD, 0x100, true)).
				To(Equal(emu.Operand{Value: 0xABCD, Carry: true}))
		})

		It("should only use the bottom byte of Rs", func() {
			Expect(eval(regShift(insts.ShiftLSL), 1, 0x101, false)).
				To(Equal(emu.Operand{Value: 2, Carry: false}))
		})

		It("should handle LSL by 32 and beyond", func() {
			Expect(eval(regShift(insts.ShiftLSL), 1, 32, false)).
				To(Equal(emu.Operand{Value: 0, Carry: true}))
			Expect(eval(regShift(insts.ShiftLSL), 1, 33, true)).
				To(Equal(emu.Operand{Value: 0, Carry: false}))
		})

		It("should handle LSR by 32 and beyond", func() {
			Expect(eval(regShift(insts.ShiftLSR), 1, 32, true)).
				To(Equal(emu.Operand{Value: 0, Carry: false}))
			Expect(eval(regShift(insts.ShiftLSR), 0x80000000, 32, false)).
				To(Equal(emu.Operand{Value: 0, Carry: true}))
			Expect(eval(regShift(insts.ShiftLSR), 0xFFFFFFFF, 40, true)).
				To(Equal(emu.Operand{Value: 0, Carry: false}))
		})

		It("should fill with the sign bit on ASR by 32 and beyond", func() {
			Expect(eval(regShift(insts.ShiftASR), 0x80000000, 40, false)).
				To(Equal(emu.Operand{Value: 0xFFFFFFFF, Carry: true}))
			Expect(eval(regShift(insts.ShiftASR), 0x40000000, 32, true)).
				To(Equal(emu.Operand{Value: 0, Carry: false}))
		})

		It("should rotate right", func() {
			Expect(eval(regShift(insts.ShiftROR), 0xF, 4, false)).
				To(Equal(emu.Operand{Value: 0xF0000000, Carry: true}))
		})

		It("should reduce ROR amounts of 32 and beyond to the low four bits", func() {
			Expect(eval(regShift(insts.ShiftROR), 0xF, 36, false)).
				To(Equal(emu.Operand{Value: 0xF0000000, Carry: true}))
			Expect(eval(regShift(insts.ShiftROR), 0x80000001, 32, false)).
				To(Equal(emu.Operand{Value: 0, Carry: true}))
		})
	})

	It("should reject an invalid operand encoding", func() {
		_, err := emu.ShifterOperand(s, insts.Shifter{Kind: insts.ShifterInvalid})
		Expect(err).To(MatchError(insts.ErrUnsupportedShifter))
	})
})

var _ = Describe("AddWithCarry", func() {
	DescribeTable("flag results",
		func(a, b uint32, cin bool, result uint32, carry, overflow bool) {
			r, c, v := emu.AddWithCarry(a, b, cin)
			Expect(r).To(Equal(result))
			Expect(c).To(Equal(carry))
			Expect(v).To(Equal(overflow))
		},
		Entry("plain sum", uint32(2), uint32(3), false, uint32(5), false, false),
		Entry("carry in", uint32(2), uint32(3), true, uint32(6), false, false),
		Entry("unsigned wrap", uint32(0xFFFFFFFF), uint32(1), false, uint32(0), true, false),
		Entry("signed overflow", uint32(0x7FFFFFFF), uint32(1), false, uint32(0x80000000), false, true),
		Entry("both", uint32(0x80000000), uint32(0x80000000), false, uint32(0), true, true),
	)
})

var _ = Describe("SubWithBorrow", func() {
	DescribeTable("flag results",
		func(a, b uint32, cin bool, result uint32, carry, overflow bool) {
			r, c, v := emu.SubWithBorrow(a, b, cin)
			Expect(r).To(Equal(result))
			Expect(c).To(Equal(carry))
			Expect(v).To(Equal(overflow))
		},
		Entry("no borrow", uint32(5), uint32(3), true, uint32(2), true, false),
		Entry("equal operands", uint32(7), uint32(7), true, uint32(0), true, false),
		Entry("borrow", uint32(3), uint32(5), true, uint32(0xFFFFFFFE), false, false),
		Entry("borrow in", uint32(5), uint32(3), false, uint32(1), true, false),
		Entry("signed overflow", uint32(0x80000000), uint32(1), true, uint32(0x7FFFFFFF), true, true),
	)
})
