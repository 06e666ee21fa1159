package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rvlab/rv5sim/emu"
	"github.com/rvlab/rv5sim/insts"
	"github.com/rvlab/rv5sim/timing/cache"
	"github.com/rvlab/rv5sim/timing/core"
)

// recordingSink captures everything Finalize emits.
type recordingSink struct {
	regs       []uint32
	mem        []byte
	stats      core.SimStats
	cacheNames []string
}

func (s *recordingSink) FinalState(regs []uint32, mem []byte) error {
	s.regs = regs
	s.mem = mem
	return nil
}

func (s *recordingSink) Statistics(stats core.SimStats) error {
	s.stats = stats
	return nil
}

func (s *recordingSink) CacheState(name string, ways []cache.WaySnapshot) error {
	s.cacheNames = append(s.cacheNames, name)
	return nil
}

var _ = Describe("Core", func() {
	// ADDI x1, x0, 5; ADDI x2, x1, 2; HALT
	program := []uint32{0x00500093, 0x00208113, insts.HaltWord}

	newProgramMemory := func() *emu.Memory {
		mem := emu.NewMemory(4096)
		for addr := uint32(0); addr < 4096; addr += 4 {
			Expect(mem.WriteU32(addr, insts.NopWord)).To(Succeed())
		}
		for i, w := range program {
			Expect(mem.WriteU32(uint32(i)*4, w)).To(Succeed())
		}
		return mem
	}

	It("should run a program to halt", func() {
		c, err := core.New(newProgramMemory())
		Expect(err).NotTo(HaveOccurred())

		result, runErr := c.RunUntilHalt()

		Expect(runErr).NotTo(HaveOccurred())
		Expect(result).To(Equal(core.RunHalted))
		Expect(c.RegFile().Read(1)).To(Equal(uint32(5)))
		Expect(c.RegFile().Read(2)).To(Equal(uint32(7)))
		Expect(c.Stats().Instructions).To(Equal(uint64(3)))
	})

	It("should stop at the cycle budget", func() {
		c, err := core.New(newProgramMemory())
		Expect(err).NotTo(HaveOccurred())

		result, runErr := c.RunCycles(3)

		Expect(runErr).NotTo(HaveOccurred())
		Expect(result).To(Equal(core.RunLimit))
		Expect(c.Stats().Cycles).To(Equal(uint64(3)))
		Expect(c.Pipeline().Halted()).To(BeFalse())
	})

	It("should resume after a budgeted pause", func() {
		c, err := core.New(newProgramMemory())
		Expect(err).NotTo(HaveOccurred())

		_, _ = c.RunCycles(3)
		result, runErr := c.RunUntilHalt()

		Expect(runErr).NotTo(HaveOccurred())
		Expect(result).To(Equal(core.RunHalted))
		Expect(c.RegFile().Read(2)).To(Equal(uint32(7)))
	})

	It("should surface an exception as a run error", func() {
		mem := newProgramMemory()
		// Overwrite the second instruction with an unsupported encoding.
		Expect(mem.WriteU32(4, 0xFFFFFFFF)).To(Succeed())

		c, err := core.New(mem)
		Expect(err).NotTo(HaveOccurred())

		result, runErr := c.RunUntilHalt()

		Expect(result).To(Equal(core.RunError))
		Expect(runErr).To(HaveOccurred())
		Expect(c.Pipeline().Excepted()).To(BeTrue())
	})

	It("should reject an invalid cache configuration", func() {
		_, err := core.New(newProgramMemory(),
			core.WithICache(cache.Config{Size: 100, BlockSize: 6, Ways: 3}))

		Expect(err).To(HaveOccurred())
	})

	It("should aggregate cache statistics", func() {
		c, err := core.New(newProgramMemory(),
			core.WithICache(cache.Config{Size: 64, BlockSize: 16, Ways: 2, MissLatency: 1}))
		Expect(err).NotTo(HaveOccurred())

		result, runErr := c.RunUntilHalt()
		Expect(runErr).NotTo(HaveOccurred())
		Expect(result).To(Equal(core.RunHalted))

		stats := c.Stats()
		Expect(stats.ICache.Accesses()).To(BeNumerically(">", 0))
		Expect(stats.ICache.Misses).To(BeNumerically(">", 0))
	})

	It("should flush the final state through the sink", func() {
		sink := &recordingSink{}
		c, err := core.New(newProgramMemory(),
			core.WithStateSink(sink),
			core.WithICache(cache.Config{Size: 64, BlockSize: 16, Ways: 2}),
			core.WithDCache(cache.Config{Size: 64, BlockSize: 16, Ways: 2}))
		Expect(err).NotTo(HaveOccurred())

		_, runErr := c.RunUntilHalt()
		Expect(runErr).NotTo(HaveOccurred())
		Expect(c.Finalize()).To(Succeed())

		Expect(sink.regs).To(HaveLen(32))
		Expect(sink.regs[1]).To(Equal(uint32(5)))
		Expect(sink.mem).To(HaveLen(4096))
		Expect(sink.stats.Instructions).To(Equal(uint64(3)))
		Expect(sink.cacheNames).To(Equal([]string{"icache", "dcache"}))
	})
})
