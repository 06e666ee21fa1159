package trace

import (
	"fmt"
	"os"
)

// FileSet is a Writer backed by output files named from a common base:
// "<base>_pipe_state.out" for the cycle trace and "<base>_final_state.out"
// for registers, memory, caches, and statistics.
type FileSet struct {
	*Writer
	pipeFile  *os.File
	stateFile *os.File
}

// OpenFileSet creates (or truncates) the output files for the given base.
func OpenFileSet(base string) (*FileSet, error) {
	pipeFile, err := os.Create(base + "_pipe_state.out")
	if err != nil {
		return nil, fmt.Errorf("open pipe state output: %w", err)
	}

	stateFile, err := os.Create(base + "_final_state.out")
	if err != nil {
		pipeFile.Close()
		return nil, fmt.Errorf("open final state output: %w", err)
	}

	return &FileSet{
		Writer:    NewWriter(pipeFile, stateFile),
		pipeFile:  pipeFile,
		stateFile: stateFile,
	}, nil
}

// Close flushes and closes both output files.
func (f *FileSet) Close() error {
	err1 := f.pipeFile.Close()
	err2 := f.stateFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
