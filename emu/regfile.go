// Package emu provides the architectural state backing the timing
// simulation: the register file and the flat byte-addressed memory store.
package emu

// NumRegs is the number of general-purpose registers in RV32I.
const NumRegs = 32

// RegFile represents the RV32I register file: 32 general-purpose 32-bit
// registers with x0 hard-wired to zero.
type RegFile struct {
	x [NumRegs]uint32
}

// Read reads a register value. Register 0 always returns 0.
func (r *RegFile) Read(reg uint8) uint32 {
	if reg == 0 || reg >= NumRegs {
		return 0
	}
	return r.x[reg]
}

// Write writes a value to a register. Writes to register 0 are ignored.
func (r *RegFile) Write(reg uint8, value uint32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.x[reg] = value
}

// Snapshot returns a copy of all register values, indexed by register
// number. Used for final-state dumps.
func (r *RegFile) Snapshot() []uint32 {
	regs := make([]uint32, NumRegs)
	copy(regs, r.x[:])
	return regs
}
