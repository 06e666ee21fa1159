// Package pipeline implements a cycle-accurate 5-stage in-order pipeline
// with hazard detection, operand forwarding, always-not-taken branch
// handling, and instruction/data cache stalls.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/rvlab/rv5sim/emu"
	"github.com/rvlab/rv5sim/timing/cache"
)

// ExceptionHandlerAddress is where the PC is redirected on an illegal
// instruction or a memory exception.
const ExceptionHandlerAddress uint32 = 0x8000

// ErrIllegalInstruction reports a decoded word outside the supported set.
var ErrIllegalInstruction = errors.New("illegal instruction")

// Tracer receives one pipeline snapshot per simulated cycle.
type Tracer interface {
	TraceCycle(cycle uint64, bank RegisterBank)
}

// Statistics holds pipeline execution statistics.
type Statistics struct {
	// Cycles is the total number of simulated cycles.
	Cycles uint64

	// Instructions is the dynamic instruction count: real records that
	// reached writeback. Bubbles and squashed records are excluded.
	Instructions uint64

	// LoadStalls counts load-induced hazard stalls. A two-cycle
	// load-branch stall counts once.
	LoadStalls uint64
}

// Pipeline is the cycle engine. One Tick advances one clock cycle.
//
// All five next-stage values are computed from a by-value snapshot of the
// previous cycle's register bank, in writeback-to-fetch order, so branch
// resolution in decode can steer the same cycle's fetch while writeback
// commits the previous cycle's memory output.
type Pipeline struct {
	mem  *emu.Memory
	regs *emu.RegFile

	fetch     *FetchStage
	decode    *DecodeStage
	execute   *ExecuteStage
	memory    *MemoryStage
	writeback *WritebackStage
	hazard    *HazardUnit

	icache *cache.Cache
	dcache *cache.Cache
	tracer Tracer

	bank RegisterBank
	pc   uint32

	// Stall countdowns for the two caches. Independent resources: both
	// may be outstanding and each ticks down once per cycle.
	iStall uint32
	dStall uint32

	stats    Statistics
	halted   bool
	excepted bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithICache attaches an instruction cache. Without one, every fetch hits.
func WithICache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.icache = c }
}

// WithDCache attaches a data cache. Without one, every access hits.
func WithDCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.dcache = c }
}

// WithTracer attaches a per-cycle trace sink.
func WithTracer(t Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithEntryPC sets the initial fetch address. Defaults to 0.
func WithEntryPC(pc uint32) Option {
	return func(p *Pipeline) { p.pc = pc }
}

// New creates a pipeline over the given memory and register file.
func New(mem *emu.Memory, regs *emu.RegFile, opts ...Option) *Pipeline {
	p := &Pipeline{
		mem:       mem,
		regs:      regs,
		fetch:     NewFetchStage(mem),
		decode:    NewDecodeStage(regs),
		execute:   NewExecuteStage(),
		memory:    NewMemoryStage(mem),
		writeback: NewWritebackStage(regs),
		hazard:    NewHazardUnit(),
		bank:      NewRegisterBank(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PC returns the next fetch address.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// Bank returns the current pipeline register bank.
func (p *Pipeline) Bank() RegisterBank {
	return p.bank
}

// Stats returns execution statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Halted reports whether the halt word has reached writeback.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Excepted reports whether any cycle has raised an exception.
func (p *Pipeline) Excepted() bool {
	return p.excepted
}

// ICache returns the attached instruction cache, if any.
func (p *Pipeline) ICache() *cache.Cache {
	return p.icache
}

// DCache returns the attached data cache, if any.
func (p *Pipeline) DCache() *cache.Cache {
	return p.dcache
}

// ICacheStall returns the remaining instruction-cache stall cycles.
func (p *Pipeline) ICacheStall() uint32 {
	return p.iStall
}

// DCacheStall returns the remaining data-cache stall cycles.
func (p *Pipeline) DCacheStall() uint32 {
	return p.dStall
}

// Tick advances the pipeline by one clock cycle. It returns a non-nil
// error when the cycle raised an illegal-instruction or memory exception;
// the trace for the cycle is emitted first, the PC is left at the
// exception handler, and the pipeline remains runnable.
func (p *Pipeline) Tick() error {
	if p.halted {
		return nil
	}

	prev := p.bank
	p.stats.Cycles++

	// Frozen cycle of a data-cache stall: IF/ID/EX/MEM hold, nothing new
	// reaches writeback. The instruction-cache counter still ticks.
	if p.dStall > 0 {
		p.dStall--
		if p.iStall > 0 {
			p.iStall--
		}
		next := prev
		next.WB = Bubble()
		p.bank = next
		p.emitTrace()
		return nil
	}

	iStalled := p.iStall > 0
	if iStalled {
		p.iStall--
	}

	next := NewRegisterBank()

	// Writeback commits the previous cycle's memory output.
	next.WB = prev.MEM
	if next.WB.Real() {
		next.WB = p.writeback.Commit(next.WB)
		p.stats.Instructions++
		if next.WB.Inst != nil && next.WB.Inst.IsHalt {
			p.halted = true
		}
	}
	if p.halted {
		// Everything younger than the halt is discarded.
		p.bank = next
		p.emitTrace()
		return nil
	}

	// Memory access. Store data may come from the record retiring this
	// very cycle, the earliest point a load's value can reach a store.
	memRec := prev.EX
	if memRec.Real() && memRec.Inst != nil &&
		(memRec.Inst.ReadsMem || memRec.Inst.WritesMem) {
		memRec = ForwardStoreData(memRec, prev.MEM)

		var err error
		memRec, err = p.memory.Access(memRec)
		if err != nil {
			return p.raiseDataException(next, memRec, err)
		}

		if p.dcache != nil {
			op := cache.OpRead
			if memRec.Inst.WritesMem {
				op = cache.OpWrite
			}
			if !p.dcache.Access(memRec.MemAddress, op) {
				p.dStall = p.dcache.Config().MissLatency
			}
		}
	}
	next.MEM = memRec

	// Hazard detection between decode and execute.
	hz := p.hazard.Detect(prev.ID, prev.EX)
	if hz.CountsAsLoadStall {
		p.stats.LoadStalls++
	}
	if hz.Stall != StallNone {
		// Decode holds and keeps absorbing forwarded values; a bubble
		// moves into execute; fetch and the PC freeze.
		next.EX = Bubble()
		next.ID = ForwardOperands(prev.ID, prev.EX, prev.MEM)
		next.IF = prev.IF
		p.bank = next
		p.emitTrace()
		return nil
	}

	// Execute. Branches resolve here, as the instruction leaves decode
	// with forwarded operands.
	branchResolved := false
	branchTaken := false
	exRec := prev.ID
	if exRec.Real() && exRec.Inst != nil {
		exRec = ForwardOperands(exRec, prev.EX, prev.MEM)
		if exRec.Inst.IsBranch {
			exRec, branchTaken = ResolveNextPC(exRec)
			branchResolved = true
		}
		exRec = p.execute.Execute(exRec)
	}
	next.EX = exRec

	// The fetch behind a resolving branch was speculative: squash it on a
	// taken branch, promote it otherwise.
	idRec := prev.IF
	if branchResolved {
		if branchTaken {
			idRec.Squash()
		} else if idRec.Status == StatusSpeculative {
			idRec.Status = StatusNormal
		}
	}
	if branchTaken {
		// The wrong-path fetch is abandoned, including any outstanding
		// instruction-cache stall for it. The corrected target is probed
		// this cycle.
		p.iStall = 0
		iStalled = false
		p.pc = exRec.NextPC
	}

	// While an instruction-cache stall is outstanding, fetch holds its
	// record, the PC freezes, and a hole moves into decode. Older stages
	// keep draining.
	if iStalled {
		next.ID = Bubble()
		next.IF = idRec
		p.bank = next
		p.emitTrace()
		return nil
	}

	// Decode.
	if idRec.Real() {
		idRec = p.decode.Decode(idRec)
		if !idRec.Inst.Legal {
			return p.raiseIllegal(next, idRec)
		}
	}
	next.ID = idRec

	// Fetch at the (possibly just-redirected) PC.
	fetchPC := p.pc
	rec, err := p.fetch.Fetch(fetchPC)
	if err != nil {
		return p.raiseFetchException(next, err)
	}
	if p.icache != nil && !p.icache.Access(fetchPC, cache.OpRead) {
		p.iStall = p.icache.Config().MissLatency
	}
	if next.ID.Real() && next.ID.Inst != nil && next.ID.Inst.IsBranch {
		rec.Status = StatusSpeculative
	}
	next.IF = rec
	p.pc = fetchPC + 4

	p.bank = next
	p.emitTrace()
	return nil
}

// raiseDataException handles an out-of-range load or store: the offender
// and everything younger are squashed; the record committing this cycle
// stands.
func (p *Pipeline) raiseDataException(next RegisterBank, offender InstState, cause error) error {
	offender.Squash()
	next.MEM = offender

	ex := p.bank.ID
	ex.Squash()
	next.EX = ex

	id := p.bank.IF
	id.Squash()
	next.ID = id

	next.IF = Bubble()
	return p.raise(next, fmt.Errorf("memory exception: %w", cause))
}

// raiseIllegal handles a failed legality check in decode: the offender and
// the fetch behind it are squashed; older instructions keep flowing.
func (p *Pipeline) raiseIllegal(next RegisterBank, offender InstState) error {
	err := fmt.Errorf("%w: 0x%08X at 0x%08X",
		ErrIllegalInstruction, offender.Word, offender.PC)
	offender.Squash()
	next.ID = offender
	next.IF = Bubble()
	return p.raise(next, err)
}

// raiseFetchException handles an out-of-range fetch: only the fetch itself
// is abandoned.
func (p *Pipeline) raiseFetchException(next RegisterBank, cause error) error {
	next.IF = Bubble()
	return p.raise(next, fmt.Errorf("memory exception: %w", cause))
}

// raise finishes an exception cycle: redirect the PC to the handler, clear
// the abandoned path's stall state, latch, and trace before surfacing the
// error.
func (p *Pipeline) raise(next RegisterBank, err error) error {
	p.pc = ExceptionHandlerAddress
	p.iStall = 0
	p.dStall = 0
	p.hazard.Reset()
	p.excepted = true
	p.bank = next
	p.emitTrace()
	return err
}

func (p *Pipeline) emitTrace() {
	if p.tracer != nil {
		p.tracer.TraceCycle(p.stats.Cycles, p.bank)
	}
}
