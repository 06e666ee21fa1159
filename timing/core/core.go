// Package core wires memory, register file, caches, and the pipeline into
// a runnable simulated processor.
package core

import (
	"fmt"

	"github.com/rvlab/rv5sim/emu"
	"github.com/rvlab/rv5sim/timing/cache"
	"github.com/rvlab/rv5sim/timing/pipeline"
)

// RunResult tells why a run stopped.
type RunResult int

const (
	// RunHalted means the halt word reached writeback.
	RunHalted RunResult = iota

	// RunLimit means the requested cycle budget was exhausted.
	RunLimit

	// RunError means a cycle raised an exception. The PC is left at the
	// exception handler; the caller decides whether to continue.
	RunError
)

var runResultNames = map[RunResult]string{
	RunHalted: "HALTED",
	RunLimit:  "LIMIT",
	RunError:  "ERROR",
}

// String returns the result name.
func (r RunResult) String() string {
	if name, ok := runResultNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// SimStats aggregates the statistics of a finished (or paused) run.
type SimStats struct {
	Cycles       uint64
	Instructions uint64
	LoadStalls   uint64
	ICache       cache.Statistics
	DCache       cache.Statistics
}

// StateSink receives the final machine state when a run is finalized.
type StateSink interface {
	FinalState(regs []uint32, mem []byte) error
	Statistics(stats SimStats) error
	CacheState(name string, ways []cache.WaySnapshot) error
}

// Core is a single simulated processor.
type Core struct {
	mem  *emu.Memory
	regs *emu.RegFile

	icache *cache.Cache
	dcache *cache.Cache

	pipeline *pipeline.Pipeline
	sink     StateSink
}

// Option configures a Core.
type Option func(*coreConfig)

type coreConfig struct {
	icache  *cache.Config
	dcache  *cache.Config
	tracer  pipeline.Tracer
	sink    StateSink
	entryPC uint32
}

// WithICache gives the core an instruction cache.
func WithICache(cfg cache.Config) Option {
	return func(c *coreConfig) { c.icache = &cfg }
}

// WithDCache gives the core a data cache.
func WithDCache(cfg cache.Config) Option {
	return func(c *coreConfig) { c.dcache = &cfg }
}

// WithTracer attaches a per-cycle trace sink.
func WithTracer(t pipeline.Tracer) Option {
	return func(c *coreConfig) { c.tracer = t }
}

// WithStateSink attaches a destination for the finalized machine state.
func WithStateSink(s StateSink) Option {
	return func(c *coreConfig) { c.sink = s }
}

// WithEntryPC sets the initial fetch address.
func WithEntryPC(pc uint32) Option {
	return func(c *coreConfig) { c.entryPC = pc }
}

// New creates a core executing from the given memory, which should already
// hold the program image.
func New(mem *emu.Memory, opts ...Option) (*Core, error) {
	var cfg coreConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Core{
		mem:  mem,
		regs: &emu.RegFile{},
		sink: cfg.sink,
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithEntryPC(cfg.entryPC),
	}
	if cfg.tracer != nil {
		pipeOpts = append(pipeOpts, pipeline.WithTracer(cfg.tracer))
	}
	if cfg.icache != nil {
		ic, err := cache.New(*cfg.icache)
		if err != nil {
			return nil, fmt.Errorf("instruction cache: %w", err)
		}
		c.icache = ic
		pipeOpts = append(pipeOpts, pipeline.WithICache(ic))
	}
	if cfg.dcache != nil {
		dc, err := cache.New(*cfg.dcache)
		if err != nil {
			return nil, fmt.Errorf("data cache: %w", err)
		}
		c.dcache = dc
		pipeOpts = append(pipeOpts, pipeline.WithDCache(dc))
	}

	c.pipeline = pipeline.New(mem, c.regs, pipeOpts...)
	return c, nil
}

// Pipeline returns the core's cycle engine.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regs
}

// RunCycles advances the core by up to n cycles. A count of 0 means run
// without a budget, until halt or exception.
func (c *Core) RunCycles(n uint64) (RunResult, error) {
	for i := uint64(0); n == 0 || i < n; i++ {
		if c.pipeline.Halted() {
			return RunHalted, nil
		}
		if err := c.pipeline.Tick(); err != nil {
			return RunError, err
		}
		if c.pipeline.Halted() {
			return RunHalted, nil
		}
	}
	return RunLimit, nil
}

// RunUntilHalt runs without a cycle budget.
func (c *Core) RunUntilHalt() (RunResult, error) {
	return c.RunCycles(0)
}

// Stats aggregates pipeline and cache statistics.
func (c *Core) Stats() SimStats {
	ps := c.pipeline.Stats()
	stats := SimStats{
		Cycles:       ps.Cycles,
		Instructions: ps.Instructions,
		LoadStalls:   ps.LoadStalls,
	}
	if c.icache != nil {
		stats.ICache = c.icache.Stats()
	}
	if c.dcache != nil {
		stats.DCache = c.dcache.Stats()
	}
	return stats
}

// Finalize flushes the final register/memory state, cache contents, and
// aggregate statistics to the state sink, if one is attached.
func (c *Core) Finalize() error {
	if c.sink == nil {
		return nil
	}

	if err := c.sink.FinalState(c.regs.Snapshot(), c.mem.Bytes()); err != nil {
		return fmt.Errorf("final state: %w", err)
	}
	if c.icache != nil {
		if err := c.sink.CacheState("icache", c.icache.Snapshot()); err != nil {
			return fmt.Errorf("icache state: %w", err)
		}
	}
	if c.dcache != nil {
		if err := c.sink.CacheState("dcache", c.dcache.Snapshot()); err != nil {
			return fmt.Errorf("dcache state: %w", err)
		}
	}
	if err := c.sink.Statistics(c.Stats()); err != nil {
		return fmt.Errorf("statistics: %w", err)
	}
	return nil
}
