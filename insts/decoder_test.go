package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Unconditional Branch (Immediate)", func() {
		// B #0x100           -> 0x14000040
		It("should decode B #0x100", func() {
			inst := decoder.Decode(0x14000040)

			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Format).To(Equal(insts.FormatBranch))
			Expect(inst.BranchOffset).To(Equal(int64(0x100)))
			Expect(inst.IsUnconditional()).To(BeTrue())
		})

		// B #-0x8            -> 0x17FFFFFE
		It("should decode a backward B", func() {
			inst := decoder.Decode(0x17FFFFFE)

			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.BranchOffset).To(Equal(int64(-8)))
		})

		// BL #0x200          -> 0x94000080
		It("should decode BL #0x200", func() {
			inst := decoder.Decode(0x94000080)

			Expect(inst.Op).To(Equal(insts.OpBL))
			Expect(inst.BranchOffset).To(Equal(int64(0x200)))
			Expect(inst.IsUnconditional()).To(BeTrue())
		})
	})

	Describe("Conditional Branch", func() {
		// B.EQ #0x10         -> 0x54000080
		It("should decode B.EQ #0x10", func() {
			inst := decoder.Decode(0x54000080)

			Expect(inst.Op).To(Equal(insts.OpBCond))
			Expect(inst.Format).To(Equal(insts.FormatBranchCond))
			Expect(inst.Cond).To(Equal(insts.CondEQ))
			Expect(inst.BranchOffset).To(Equal(int64(0x10)))
			Expect(inst.IsConditional()).To(BeTrue())
		})

		// B.NE #0x20         -> 0x54000101
		It("should decode B.NE #0x20", func() {
			inst := decoder.Decode(0x54000101)

			Expect(inst.Cond).To(Equal(insts.CondNE))
			Expect(inst.BranchOffset).To(Equal(int64(0x20)))
		})

		// B.LT #0x40         -> 0x5400020B
		It("should decode B.LT #0x40", func() {
			inst := decoder.Decode(0x5400020B)

			Expect(inst.Cond).To(Equal(insts.CondLT))
			Expect(inst.BranchOffset).To(Equal(int64(0x40)))
		})

		It("should treat B.AL as unconditional", func() {
			inst := decoder.Decode(insts.EncodeBCond(8, insts.CondAL))

			Expect(inst.Op).To(Equal(insts.OpBCond))
			Expect(inst.IsConditional()).To(BeFalse())
			Expect(inst.IsUnconditional()).To(BeTrue())
		})
	})

	Describe("Compare and Branch", func() {
		It("should decode CBZ X3", func() {
			inst := decoder.Decode(insts.EncodeCBZ(3, 0x40, true))

			Expect(inst.Op).To(Equal(insts.OpCBZ))
			Expect(inst.Format).To(Equal(insts.FormatCompareBranch))
			Expect(inst.Is64Bit).To(BeTrue())
			Expect(inst.Rn).To(Equal(uint8(3)))
			Expect(inst.BranchOffset).To(Equal(int64(0x40)))
			Expect(inst.IsConditional()).To(BeTrue())
		})

		It("should decode CBNZ W7 with a backward offset", func() {
			inst := decoder.Decode(insts.EncodeCBNZ(7, -12, false))

			Expect(inst.Op).To(Equal(insts.OpCBNZ))
			Expect(inst.Is64Bit).To(BeFalse())
			Expect(inst.Rn).To(Equal(uint8(7)))
			Expect(inst.BranchOffset).To(Equal(int64(-12)))
		})
	})

	Describe("Test and Branch", func() {
		It("should decode TBZ with a low bit", func() {
			inst := decoder.Decode(insts.EncodeTBZ(2, 5, 0x20))

			Expect(inst.Op).To(Equal(insts.OpTBZ))
			Expect(inst.Format).To(Equal(insts.FormatTestBranch))
			Expect(inst.Rn).To(Equal(uint8(2)))
			Expect(inst.TestBit).To(Equal(uint8(5)))
			Expect(inst.BranchOffset).To(Equal(int64(0x20)))
		})

		It("should decode TBNZ with a high bit", func() {
			inst := decoder.Decode(insts.EncodeTBNZ(9, 37, -4))

			Expect(inst.Op).To(Equal(insts.OpTBNZ))
			Expect(inst.TestBit).To(Equal(uint8(37)))
			Expect(inst.BranchOffset).To(Equal(int64(-4)))
			Expect(inst.IsConditional()).To(BeTrue())
		})
	})

	Describe("Branch to Register", func() {
		// BR X30             -> 0xD61F03C0
		It("should decode BR X30", func() {
			inst := decoder.Decode(0xD61F03C0)

			Expect(inst.Op).To(Equal(insts.OpBR))
			Expect(inst.Format).To(Equal(insts.FormatBranchReg))
			Expect(inst.Rn).To(Equal(uint8(30)))
			Expect(inst.IsIndirect()).To(BeTrue())
		})

		// BLR X10            -> 0xD63F0140
		It("should decode BLR X10", func() {
			inst := decoder.Decode(0xD63F0140)

			Expect(inst.Op).To(Equal(insts.OpBLR))
			Expect(inst.Rn).To(Equal(uint8(10)))
		})

		// RET (X30)          -> 0xD65F03C0
		It("should decode RET", func() {
			inst := decoder.Decode(0xD65F03C0)

			Expect(inst.Op).To(Equal(insts.OpRET))
			Expect(inst.Rn).To(Equal(uint8(30)))
			Expect(inst.IsUnconditional()).To(BeTrue())
		})
	})

	Describe("Non-branch words", func() {
		DescribeTable("should decode as unknown",
			func(word uint32) {
				inst := decoder.Decode(word)

				Expect(inst.Op).To(Equal(insts.OpUnknown))
				Expect(inst.IsBranch()).To(BeFalse())
				Expect(inst.IsConditional()).To(BeFalse())
				Expect(inst.IsUnconditional()).To(BeFalse())
			},
			Entry("zero word", uint32(0)),
			Entry("ADD X0, X1, #42", uint32(0x9100A820)),
			Entry("SUB X9, X10, X11", uint32(0xCB0B0149)),
			Entry("NOP", uint32(0xD503201F)),
		)
	})

	Describe("Target", func() {
		It("should resolve immediate targets relative to pc", func() {
			inst := decoder.Decode(insts.EncodeBCond(-16, insts.CondNE))

			target, ok := inst.Target(0x1000)
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal(uint64(0xFF0)))
		})

		It("should not resolve indirect targets", func() {
			inst := decoder.Decode(insts.EncodeRET())

			_, ok := inst.Target(0x1000)
			Expect(ok).To(BeFalse())
		})
	})
})

var _ = Describe("Encoder", func() {
	decoder := insts.NewDecoder()

	DescribeTable("should match the reference encodings",
		func(word, expected uint32) {
			Expect(word).To(Equal(expected))
		},
		Entry("B #0x100", insts.EncodeB(0x100), uint32(0x14000040)),
		Entry("B #-0x8", insts.EncodeB(-8), uint32(0x17FFFFFE)),
		Entry("BL #0x200", insts.EncodeBL(0x200), uint32(0x94000080)),
		Entry("B.EQ #0x10", insts.EncodeBCond(0x10, insts.CondEQ), uint32(0x54000080)),
		Entry("B.NE #0x20", insts.EncodeBCond(0x20, insts.CondNE), uint32(0x54000101)),
		Entry("B.LT #0x40", insts.EncodeBCond(0x40, insts.CondLT), uint32(0x5400020B)),
		Entry("BR X30", insts.EncodeBR(30), uint32(0xD61F03C0)),
		Entry("BLR X10", insts.EncodeBLR(10), uint32(0xD63F0140)),
		Entry("RET", insts.EncodeRET(), uint32(0xD65F03C0)),
	)

	It("should round-trip backward conditional offsets", func() {
		for _, offset := range []int32{-4, -64, -1024} {
			inst := decoder.Decode(insts.EncodeBCond(offset, insts.CondGE))
			Expect(inst.BranchOffset).To(Equal(int64(offset)))
			Expect(inst.Cond).To(Equal(insts.CondGE))
		}
	})
})
