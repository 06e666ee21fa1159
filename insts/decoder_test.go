package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvlab/rv5sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("register-immediate instructions", func() {
		It("should decode ADDI x1, x2, 10", func() {
			inst := decoder.Decode(0x00A10093)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(10)))
			Expect(inst.ReadsRs1).To(BeTrue())
			Expect(inst.ReadsRs2).To(BeFalse())
			Expect(inst.WritesRd).To(BeTrue())
			Expect(inst.DoesArith).To(BeTrue())
		})

		It("should sign-extend negative I-type immediates", func() {
			// ADDI x1, x0, -1
			inst := decoder.Decode(0xFFF00093)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("should decode the shift amount of SRAI from the low immediate bits", func() {
			// SRAI x5, x6, 3
			inst := decoder.Decode(0x40335293)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Imm).To(Equal(int32(3)))
		})

		It("should treat the canonical nop as a legal ADDI", func() {
			inst := decoder.Decode(insts.NopWord)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.IsNop()).To(BeTrue())
			Expect(inst.WritesRd).To(BeFalse())
		})
	})

	Describe("register-register instructions", func() {
		It("should decode ADD x3, x1, x2", func() {
			inst := decoder.Decode(0x002081B3)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.ReadsRs1).To(BeTrue())
			Expect(inst.ReadsRs2).To(BeTrue())
		})

		It("should decode SUB x3, x1, x2", func() {
			inst := decoder.Decode(0x402081B3)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpSUB))
		})

		It("should reject an R-type encoding with a bad funct7", func() {
			// ADD encoding with funct7 = 0x01
			inst := decoder.Decode(0x022081B3)

			Expect(inst.Legal).To(BeFalse())
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})

		It("should not mark x0 as a written destination", func() {
			// ADD x0, x1, x2
			inst := decoder.Decode(0x00208033)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.WritesRd).To(BeFalse())
		})
	})

	Describe("loads and stores", func() {
		It("should decode LW x1, 8(x2)", func() {
			inst := decoder.Decode(0x00812083)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(8)))
			Expect(inst.ReadsMem).To(BeTrue())
			Expect(inst.WritesRd).To(BeTrue())
		})

		It("should decode SW x1, 12(x2) with a reassembled S-type immediate", func() {
			inst := decoder.Decode(0x00112623)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(12)))
			Expect(inst.WritesMem).To(BeTrue())
			Expect(inst.WritesRd).To(BeFalse())
		})

		It("should reject a load with an unsupported width", func() {
			// Load encoding with funct3 = 3
			inst := decoder.Decode(0x00813083)

			Expect(inst.Legal).To(BeFalse())
		})
	})

	Describe("control transfer instructions", func() {
		It("should decode BEQ x1, x2, +16", func() {
			inst := decoder.Decode(0x00208863)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Imm).To(Equal(int32(16)))
			Expect(inst.IsBranch).To(BeTrue())
			Expect(inst.WritesRd).To(BeFalse())
		})

		It("should decode a backward branch with a negative offset", func() {
			// BNE x1, x2, -8
			inst := decoder.Decode(0xFE209CE3)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpBNE))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})

		It("should decode JAL x1, +2048", func() {
			inst := decoder.Decode(0x001000EF)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(2048)))
			Expect(inst.IsBranch).To(BeTrue())
			Expect(inst.DoesArith).To(BeTrue())
		})

		It("should decode JALR x0, 0(x1) as a branch without a link write", func() {
			inst := decoder.Decode(0x00008067)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.IsBranch).To(BeTrue())
			Expect(inst.WritesRd).To(BeFalse())
		})
	})

	Describe("upper-immediate instructions", func() {
		It("should decode LUI x1, 0x12345", func() {
			inst := decoder.Decode(0x123450B7)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
		})

		It("should decode AUIPC x2, 0x1", func() {
			inst := decoder.Decode(0x00001117)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(inst.Imm).To(Equal(int32(0x1000)))
		})
	})

	Describe("the halt word", func() {
		It("should decode 0xFEEDFEED as a legal halt", func() {
			inst := decoder.Decode(insts.HaltWord)

			Expect(inst.Legal).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpHALT))
			Expect(inst.IsHalt).To(BeTrue())
			Expect(inst.WritesRd).To(BeFalse())
		})
	})

	Describe("illegal encodings", func() {
		It("should reject the all-zero word", func() {
			inst := decoder.Decode(0x00000000)

			Expect(inst.Legal).To(BeFalse())
		})

		It("should reject an unknown major opcode", func() {
			inst := decoder.Decode(0xFFFFFFFF)

			Expect(inst.Legal).To(BeFalse())
		})
	})
})
