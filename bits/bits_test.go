package bits_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armemu/bits"
)

var _ = Describe("Bit helpers", func() {
	It("should build masks of every length", func() {
		Expect(bits.Mask(0)).To(Equal(uint32(0)))
		Expect(bits.Mask(4)).To(Equal(uint32(0xF)))
		Expect(bits.Mask(31)).To(Equal(uint32(0x7FFFFFFF)))
		Expect(bits.Mask(32)).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("should panic on an oversized mask", func() {
		Expect(func() { bits.Mask(33) }).To(Panic())
	})

	It("should get, set and clear single bits", func() {
		v := uint32(0)
		v = bits.Set(v, 31)
		Expect(bits.IsSet(v, 31)).To(BeTrue())
		Expect(bits.Get(v, 31)).To(Equal(uint32(1)))
		Expect(bits.Get(v, 30)).To(Equal(uint32(0)))

		v = bits.Clear(v, 31)
		Expect(v).To(Equal(uint32(0)))

		Expect(bits.Assign(0, 5, true)).To(Equal(uint32(0x20)))
		Expect(bits.Assign(0xFF, 5, false)).To(Equal(uint32(0xDF)))
	})

	It("should extract inclusive ranges", func() {
		Expect(bits.Range(0xE2821005, 31, 28)).To(Equal(uint32(0xE)))
		Expect(bits.Range(0xE2821005, 15, 12)).To(Equal(uint32(1)))
		Expect(bits.Range(0xE2821005, 31, 0)).To(Equal(uint32(0xE2821005)))
	})

	It("should count set bits", func() {
		Expect(bits.PopCount(0)).To(Equal(0))
		Expect(bits.PopCount(0xFFFF)).To(Equal(16))
		Expect(bits.PopCount(0x80000001)).To(Equal(2))
	})

	DescribeTable("sign extension",
		func(v uint32, n uint, want uint32) {
			Expect(bits.SignExtend(v, n)).To(Equal(want))
		},
		Entry("positive byte", uint32(0x7F), uint(8), uint32(0x7F)),
		Entry("negative byte", uint32(0x80), uint(8), uint32(0xFFFFFF80)),
		Entry("negative halfword", uint32(0xFFFE), uint(16), uint32(0xFFFFFFFE)),
		Entry("24-bit branch offset", uint32(0xFFFFFE), uint(24), uint32(0xFFFFFFFE)),
		Entry("ignores high garbage", uint32(0xAB05), uint(8), uint32(0x05)),
	)

	It("should rotate right modulo 32", func() {
		Expect(bits.RotateRight(0x1, 1)).To(Equal(uint32(0x80000000)))
		Expect(bits.RotateRight(0xFF, 8)).To(Equal(uint32(0xFF000000)))
		Expect(bits.RotateRight(0x12345678, 0)).To(Equal(uint32(0x12345678)))
		Expect(bits.RotateRight(0x12345678, 32)).To(Equal(uint32(0x12345678)))
	})

	It("should leave a value unchanged after rotating by r and 32-r", func() {
		for _, v := range []uint32{0, 1, 0xDEADBEEF, 0x80000000, 0xFFFFFFFF} {
			for r := uint(0); r < 32; r++ {
				Expect(bits.RotateRight(bits.RotateRight(v, r), 32-r)).To(Equal(v))
			}
		}
	})

	It("should parse binary literals", func() {
		v, err := bits.ParseBinary("1011")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(11)))

		_, err = bits.ParseBinary("10x1")
		Expect(err).To(HaveOccurred())

		_, err = bits.ParseBinary("")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("FieldMask", func() {
	It("should extract and replace a field", func() {
		f := bits.NewFieldMask(12, 4)
		Expect(f.Pos()).To(Equal(uint(12)))
		Expect(f.Len()).To(Equal(uint(4)))
		Expect(f.InPlace()).To(Equal(uint32(0xF000)))
		Expect(f.Extract(0xE2821005)).To(Equal(uint32(1)))
		Expect(f.Replace(0xE2821005, 0x3)).To(Equal(uint32(0xE2823005)))
	})

	It("should discard bits beyond the field on replace", func() {
		f := bits.NewFieldMask(0, 4)
		Expect(f.Replace(0, 0xFF)).To(Equal(uint32(0xF)))
	})

	It("should cover a full word", func() {
		f := bits.NewFieldMask(0, 32)
		Expect(f.Extract(0xCAFEBABE)).To(Equal(uint32(0xCAFEBABE)))
		Expect(f.String()).To(Equal("[31:0]"))
	})

	It("should reject ranges beyond bit 31", func() {
		Expect(func() { bits.NewFieldMask(30, 4) }).To(Panic())
		Expect(func() { bits.NewFieldMask(0, 0) }).To(Panic())
	})
})
