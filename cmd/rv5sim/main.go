// Command rv5sim simulates a 5-stage pipelined RV32I processor with
// instruction and data caches, cycle by cycle.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rvlab/rv5sim/config"
	"github.com/rvlab/rv5sim/emu"
	"github.com/rvlab/rv5sim/loader"
	"github.com/rvlab/rv5sim/timing/core"
	"github.com/rvlab/rv5sim/trace"
)

var (
	configPath  = flag.String("config", "", "path to YAML configuration file")
	programPath = flag.String("program", "", "path to flat binary program image (overrides config)")
	cycles      = flag.Uint64("cycles", 0, "cycle budget, 0 means run until halt")
	outputBase  = flag.String("o", "", "base name for output files (overrides config)")
	verbose     = flag.Bool("v", false, "print a run summary to stdout")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs a program image on a simulated 5-stage pipelined RV32I core\n")
		fmt.Fprintf(os.Stderr, "and writes the cycle trace and final machine state to output files.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rv5sim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	if *programPath != "" {
		cfg.Program = *programPath
	}
	if *outputBase != "" {
		cfg.OutputBase = *outputBase
	}
	if cfg.Program == "" {
		return fmt.Errorf("no program image given (use -program or the config file)")
	}

	program, err := loader.Load(cfg.Program)
	if err != nil {
		return err
	}

	mem := emu.NewMemory(cfg.MemorySize)
	if err := program.Place(mem); err != nil {
		return err
	}

	files, err := trace.OpenFileSet(cfg.OutputBase)
	if err != nil {
		return err
	}
	defer files.Close()

	opts := []core.Option{
		core.WithTracer(files.Writer),
		core.WithStateSink(files.Writer),
		core.WithEntryPC(cfg.EntryPC),
	}
	if cfg.ICache != nil {
		opts = append(opts, core.WithICache(cfg.ICache.ToCacheConfig()))
	}
	if cfg.DCache != nil {
		opts = append(opts, core.WithDCache(cfg.DCache.ToCacheConfig()))
	}

	c, err := core.New(mem, opts...)
	if err != nil {
		return err
	}

	result, runErr := c.RunCycles(*cycles)
	if err := c.Finalize(); err != nil {
		return err
	}

	if *verbose {
		printSummary(result, c.Stats())
	}
	if runErr != nil {
		return fmt.Errorf("run stopped: %w", runErr)
	}
	return nil
}

func printSummary(result core.RunResult, stats core.SimStats) {
	fmt.Printf("Result:        %s\n", result)
	fmt.Printf("Cycles:        %d\n", stats.Cycles)
	fmt.Printf("Instructions:  %d\n", stats.Instructions)
	if stats.Cycles > 0 {
		ipc := float64(stats.Instructions) / float64(stats.Cycles)
		fmt.Printf("IPC:           %.3f\n", ipc)
	}
	fmt.Printf("Load stalls:   %d\n", stats.LoadStalls)
	fmt.Printf("I-cache:       %d hits, %d misses\n",
		stats.ICache.Hits, stats.ICache.Misses)
	fmt.Printf("D-cache:       %d hits, %d misses\n",
		stats.DCache.Hits, stats.DCache.Misses)
}
