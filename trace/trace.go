// Package trace renders per-cycle pipeline snapshots and final machine
// state as text.
package trace

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rvlab/rv5sim/timing/cache"
	"github.com/rvlab/rv5sim/timing/core"
	"github.com/rvlab/rv5sim/timing/pipeline"
)

// Writer emits the cycle trace to one destination and the finalized
// machine state to another. Either may be nil to suppress that output.
type Writer struct {
	pipeOut  io.Writer
	stateOut io.Writer
}

// NewWriter creates a trace writer.
func NewWriter(pipeOut, stateOut io.Writer) *Writer {
	return &Writer{pipeOut: pipeOut, stateOut: stateOut}
}

// TraceCycle writes one pipeline snapshot.
func (w *Writer) TraceCycle(cycle uint64, bank pipeline.RegisterBank) {
	if w.pipeOut == nil {
		return
	}

	fmt.Fprintf(w.pipeOut, "Cycle %d:\n", cycle)
	w.stage("IF", bank.IF)
	w.stage("ID", bank.ID)
	w.stage("EX", bank.EX)
	w.stage("MEM", bank.MEM)
	w.stage("WB", bank.WB)
	fmt.Fprintln(w.pipeOut)
}

func (w *Writer) stage(name string, rec pipeline.InstState) {
	mnemonic := ""
	if rec.Inst != nil {
		mnemonic = " " + rec.Inst.Op.String()
	}
	fmt.Fprintf(w.pipeOut, "  %-3s 0x%08X pc=0x%08X %s%s\n",
		name, rec.Word, rec.PC, rec.Status, mnemonic)
}

// FinalState writes the register file and the full memory image, one word
// per line.
func (w *Writer) FinalState(regs []uint32, mem []byte) error {
	if w.stateOut == nil {
		return nil
	}

	fmt.Fprintln(w.stateOut, "Registers:")
	for i, v := range regs {
		fmt.Fprintf(w.stateOut, "x%-2d 0x%08X\n", i, v)
	}

	fmt.Fprintln(w.stateOut, "Memory:")
	for addr := 0; addr+4 <= len(mem); addr += 4 {
		word := binary.LittleEndian.Uint32(mem[addr:])
		fmt.Fprintf(w.stateOut, "0x%08X 0x%08X\n", addr, word)
	}
	return nil
}

// Statistics writes the aggregate run statistics.
func (w *Writer) Statistics(stats core.SimStats) error {
	if w.stateOut == nil {
		return nil
	}

	fmt.Fprintln(w.stateOut, "Statistics:")
	fmt.Fprintf(w.stateOut, "cycles        %d\n", stats.Cycles)
	fmt.Fprintf(w.stateOut, "instructions  %d\n", stats.Instructions)
	fmt.Fprintf(w.stateOut, "load stalls   %d\n", stats.LoadStalls)
	fmt.Fprintf(w.stateOut, "icache hits   %d\n", stats.ICache.Hits)
	fmt.Fprintf(w.stateOut, "icache misses %d\n", stats.ICache.Misses)
	fmt.Fprintf(w.stateOut, "dcache hits   %d\n", stats.DCache.Hits)
	fmt.Fprintf(w.stateOut, "dcache misses %d\n", stats.DCache.Misses)
	return nil
}

// CacheState writes the tag array of one cache, set-major.
func (w *Writer) CacheState(name string, ways []cache.WaySnapshot) error {
	if w.stateOut == nil {
		return nil
	}

	fmt.Fprintf(w.stateOut, "Cache %s:\n", name)
	for _, way := range ways {
		valid := 0
		if way.Valid {
			valid = 1
		}
		fmt.Fprintf(w.stateOut, "set %d way %d valid %d tag 0x%08X lastUse %d\n",
			way.Set, way.Way, valid, way.Tag, way.LastUse)
	}
	return nil
}

// Nop discards everything. Useful when only statistics are wanted.
type Nop struct{}

// TraceCycle discards the snapshot.
func (Nop) TraceCycle(uint64, pipeline.RegisterBank) {}

// FinalState discards the state.
func (Nop) FinalState([]uint32, []byte) error { return nil }

// Statistics discards the statistics.
func (Nop) Statistics(core.SimStats) error { return nil }

// CacheState discards the cache state.
func (Nop) CacheState(string, []cache.WaySnapshot) error { return nil }
