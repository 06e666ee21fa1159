package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvlab/rv5sim/emu"
)

var _ = Describe("RegFile", func() {
	var regs *emu.RegFile

	BeforeEach(func() {
		regs = &emu.RegFile{}
	})

	It("should store and return register values", func() {
		regs.Write(5, 0xDEADBEEF)

		Expect(regs.Read(5)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should keep x0 hard-wired to zero", func() {
		regs.Write(0, 0x12345678)

		Expect(regs.Read(0)).To(Equal(uint32(0)))
	})

	It("should snapshot all 32 registers", func() {
		regs.Write(1, 11)
		regs.Write(31, 31)

		snap := regs.Snapshot()

		Expect(snap).To(HaveLen(32))
		Expect(snap[1]).To(Equal(uint32(11)))
		Expect(snap[31]).To(Equal(uint32(31)))
	})
})

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemory(64)
	})

	It("should read back written words little-endian", func() {
		Expect(mem.WriteU32(8, 0x11223344)).To(Succeed())

		v, err := mem.ReadU32(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x11223344)))

		b, err := mem.ReadU8(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(uint8(0x44)))
	})

	It("should read back half-words", func() {
		Expect(mem.WriteU16(4, 0xBEEF)).To(Succeed())

		v, err := mem.ReadU16(4)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint16(0xBEEF)))
	})

	It("should reject an access at the memory size", func() {
		_, err := mem.ReadU32(64)

		Expect(err).To(MatchError(emu.ErrOutOfRange))
	})

	It("should reject an access that straddles the end of memory", func() {
		_, err := mem.ReadU32(62)

		Expect(err).To(MatchError(emu.ErrOutOfRange))

		err = mem.WriteU16(63, 0xFFFF)
		Expect(err).To(MatchError(emu.ErrOutOfRange))
	})

	It("should not wrap on addresses near the top of the address space", func() {
		_, err := mem.ReadU32(0xFFFFFFFE)

		Expect(err).To(MatchError(emu.ErrOutOfRange))
	})

	It("should copy a program image into place", func() {
		Expect(mem.CopyFrom(4, []byte{1, 2, 3, 4})).To(Succeed())

		v, err := mem.ReadU32(4)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x04030201)))
	})

	It("should reject an image that does not fit", func() {
		err := mem.CopyFrom(60, []byte{1, 2, 3, 4, 5})

		Expect(err).To(MatchError(emu.ErrOutOfRange))
	})
})
