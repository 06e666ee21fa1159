package pipeline

import (
	"github.com/rvlab/rv5sim/insts"
)

// Status describes what a pipeline stage holds in a given cycle.
type Status int

const (
	// StatusIdle marks a stage that has not yet received an instruction
	// (pipeline fill) or has drained after a halt.
	StatusIdle Status = iota

	// StatusNormal marks a real in-flight instruction.
	StatusNormal

	// StatusSpeculative marks an instruction fetched behind an unresolved
	// branch or jump. It becomes Normal when the branch resolves
	// not-taken, Squashed when taken.
	StatusSpeculative

	// StatusSquashed marks an instruction cancelled by a taken branch or
	// an exception. It flows to writeback without side effects.
	StatusSquashed

	// StatusBubble marks a hole inserted by a hazard or cache stall.
	StatusBubble
)

var statusNames = map[Status]string{
	StatusIdle:        "IDLE",
	StatusNormal:      "NORMAL",
	StatusSpeculative: "SPECULATIVE",
	StatusSquashed:    "SQUASHED",
	StatusBubble:      "BUBBLE",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// InstState is the record a pipeline stage holds: one instruction plus the
// values computed for it so far.
type InstState struct {
	// Word is the raw instruction encoding.
	Word uint32

	// Inst is the decoded form, populated by the decode stage. Nil before
	// decode and in bubbles.
	Inst *insts.Instruction

	// PC is the address the instruction was fetched from.
	PC uint32

	// NextPC is the resolved next fetch address, populated in decode.
	NextPC uint32

	// Op1Val and Op2Val are the source operand values after register read
	// and forwarding.
	Op1Val uint32
	Op2Val uint32

	// ArithResult is the EX-stage result (ALU output or link value).
	ArithResult uint32

	// MemAddress is the effective address of a load or store.
	MemAddress uint32

	// MemResult is the value loaded from memory.
	MemResult uint32

	// Status tells hazard detection and statistics whether this record is
	// a real instruction.
	Status Status
}

// Real reports whether the record is a live instruction that participates
// in hazards, forwarding, and side effects.
func (s InstState) Real() bool {
	return s.Status == StatusNormal || s.Status == StatusSpeculative
}

// Squash cancels the record. Idle stages and bubbles stay as they are;
// there is nothing to cancel.
func (s *InstState) Squash() {
	if s.Real() {
		s.Status = StatusSquashed
	}
}

// Bubble returns the record a stage holds after a stall inserts a hole.
func Bubble() InstState {
	return InstState{Word: insts.NopWord, Status: StatusBubble}
}

// Idle returns the record a stage holds before any instruction reaches it.
func Idle() InstState {
	return InstState{Word: insts.NopWord, Status: StatusIdle}
}

// RegisterBank holds the five pipeline stage registers. Each cycle is
// computed from a by-value snapshot of the previous cycle's bank, so a
// stage never observes a value overwritten earlier in the same cycle.
type RegisterBank struct {
	IF  InstState
	ID  InstState
	EX  InstState
	MEM InstState
	WB  InstState
}

// NewRegisterBank returns a bank with all stages idle.
func NewRegisterBank() RegisterBank {
	return RegisterBank{
		IF:  Idle(),
		ID:  Idle(),
		EX:  Idle(),
		MEM: Idle(),
		WB:  Idle(),
	}
}
