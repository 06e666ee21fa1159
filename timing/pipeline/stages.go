package pipeline

import (
	"fmt"

	"github.com/rvlab/rv5sim/emu"
	"github.com/rvlab/rv5sim/insts"
)

// The stage types implement the per-instruction work of the five pipeline
// stages. They compute values only; stalling, squashing, and ordering are
// the engine's job.

// FetchStage reads instruction words from memory.
type FetchStage struct {
	mem *emu.Memory
}

// NewFetchStage creates a fetch stage reading from mem.
func NewFetchStage(mem *emu.Memory) *FetchStage {
	return &FetchStage{mem: mem}
}

// Fetch reads the word at pc and returns a fresh record for it.
func (s *FetchStage) Fetch(pc uint32) (InstState, error) {
	word, err := s.mem.ReadU32(pc)
	if err != nil {
		return InstState{}, fmt.Errorf("fetch at 0x%08X: %w", pc, err)
	}

	return InstState{
		Word:   word,
		PC:     pc,
		NextPC: pc + 4,
		Status: StatusNormal,
	}, nil
}

// DecodeStage decodes instruction words and reads source operands.
type DecodeStage struct {
	decoder *insts.Decoder
	regs    *emu.RegFile
}

// NewDecodeStage creates a decode stage using the given register file.
func NewDecodeStage(regs *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		decoder: insts.NewDecoder(),
		regs:    regs,
	}
}

// Decode fills in the decoded instruction and the register-file operand
// values. Forwarding may overwrite the operands afterwards. Legality is
// reported through the record's Inst, not an error, so the engine can
// raise the exception at the right point in the cycle.
func (s *DecodeStage) Decode(rec InstState) InstState {
	rec.Inst = s.decoder.Decode(rec.Word)
	if rec.Inst.ReadsRs1 {
		rec.Op1Val = s.regs.Read(rec.Inst.Rs1)
	}
	if rec.Inst.ReadsRs2 {
		rec.Op2Val = s.regs.Read(rec.Inst.Rs2)
	}
	rec.NextPC = rec.PC + 4
	return rec
}

// ResolveNextPC resolves the record's next fetch address using its (possibly
// forwarded) operand values. It reports whether the fetch must be
// redirected, i.e. whether NextPC differs from the fall-through path; a
// jump targeting its own fall-through is not taken and squashes nothing.
func ResolveNextPC(rec InstState) (InstState, bool) {
	fallThrough := rec.PC + 4
	rec.NextPC = fallThrough

	inst := rec.Inst
	if inst == nil || !inst.IsBranch {
		return rec, false
	}

	switch inst.Op {
	case insts.OpJAL:
		rec.NextPC = rec.PC + uint32(inst.Imm)
	case insts.OpJALR:
		rec.NextPC = (rec.Op1Val + uint32(inst.Imm)) &^ 1
	case insts.OpBEQ:
		if rec.Op1Val == rec.Op2Val {
			rec.NextPC = rec.PC + uint32(inst.Imm)
		}
	case insts.OpBNE:
		if rec.Op1Val != rec.Op2Val {
			rec.NextPC = rec.PC + uint32(inst.Imm)
		}
	case insts.OpBLT:
		if int32(rec.Op1Val) < int32(rec.Op2Val) {
			rec.NextPC = rec.PC + uint32(inst.Imm)
		}
	case insts.OpBGE:
		if int32(rec.Op1Val) >= int32(rec.Op2Val) {
			rec.NextPC = rec.PC + uint32(inst.Imm)
		}
	case insts.OpBLTU:
		if rec.Op1Val < rec.Op2Val {
			rec.NextPC = rec.PC + uint32(inst.Imm)
		}
	case insts.OpBGEU:
		if rec.Op1Val >= rec.Op2Val {
			rec.NextPC = rec.PC + uint32(inst.Imm)
		}
	}

	return rec, rec.NextPC != fallThrough
}

// ExecuteStage computes ALU results and effective addresses.
type ExecuteStage struct{}

// NewExecuteStage creates an execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// Execute computes the record's arithmetic result or memory address.
func (s *ExecuteStage) Execute(rec InstState) InstState {
	inst := rec.Inst
	if inst == nil {
		return rec
	}

	if inst.ReadsMem || inst.WritesMem {
		rec.MemAddress = rec.Op1Val + uint32(inst.Imm)
		return rec
	}

	op1 := rec.Op1Val
	op2 := rec.Op2Val
	imm := uint32(inst.Imm)

	switch inst.Op {
	case insts.OpLUI:
		rec.ArithResult = imm
	case insts.OpAUIPC:
		rec.ArithResult = rec.PC + imm
	case insts.OpJAL, insts.OpJALR:
		rec.ArithResult = rec.PC + 4
	case insts.OpADDI:
		rec.ArithResult = op1 + imm
	case insts.OpSLTI:
		rec.ArithResult = boolToWord(int32(op1) < inst.Imm)
	case insts.OpSLTIU:
		rec.ArithResult = boolToWord(op1 < imm)
	case insts.OpXORI:
		rec.ArithResult = op1 ^ imm
	case insts.OpORI:
		rec.ArithResult = op1 | imm
	case insts.OpANDI:
		rec.ArithResult = op1 & imm
	case insts.OpSLLI:
		rec.ArithResult = op1 << (imm & 0x1F)
	case insts.OpSRLI:
		rec.ArithResult = op1 >> (imm & 0x1F)
	case insts.OpSRAI:
		rec.ArithResult = uint32(int32(op1) >> (imm & 0x1F))
	case insts.OpADD:
		rec.ArithResult = op1 + op2
	case insts.OpSUB:
		rec.ArithResult = op1 - op2
	case insts.OpSLL:
		rec.ArithResult = op1 << (op2 & 0x1F)
	case insts.OpSLT:
		rec.ArithResult = boolToWord(int32(op1) < int32(op2))
	case insts.OpSLTU:
		rec.ArithResult = boolToWord(op1 < op2)
	case insts.OpXOR:
		rec.ArithResult = op1 ^ op2
	case insts.OpSRL:
		rec.ArithResult = op1 >> (op2 & 0x1F)
	case insts.OpSRA:
		rec.ArithResult = uint32(int32(op1) >> (op2 & 0x1F))
	case insts.OpOR:
		rec.ArithResult = op1 | op2
	case insts.OpAND:
		rec.ArithResult = op1 & op2
	}

	return rec
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// MemoryStage performs data memory accesses.
type MemoryStage struct {
	mem *emu.Memory
}

// NewMemoryStage creates a memory stage accessing mem.
func NewMemoryStage(mem *emu.Memory) *MemoryStage {
	return &MemoryStage{mem: mem}
}

// Access performs the record's load or store, if any. Store data comes
// from Op2Val, which forwarding may have replaced.
func (s *MemoryStage) Access(rec InstState) (InstState, error) {
	inst := rec.Inst
	if inst == nil || (!inst.ReadsMem && !inst.WritesMem) {
		return rec, nil
	}

	addr := rec.MemAddress
	var err error

	switch inst.Op {
	case insts.OpLB:
		var v uint8
		if v, err = s.mem.ReadU8(addr); err == nil {
			rec.MemResult = uint32(int32(int8(v)))
		}
	case insts.OpLBU:
		var v uint8
		if v, err = s.mem.ReadU8(addr); err == nil {
			rec.MemResult = uint32(v)
		}
	case insts.OpLH:
		var v uint16
		if v, err = s.mem.ReadU16(addr); err == nil {
			rec.MemResult = uint32(int32(int16(v)))
		}
	case insts.OpLHU:
		var v uint16
		if v, err = s.mem.ReadU16(addr); err == nil {
			rec.MemResult = uint32(v)
		}
	case insts.OpLW:
		rec.MemResult, err = s.mem.ReadU32(addr)
	case insts.OpSB:
		err = s.mem.WriteU8(addr, uint8(rec.Op2Val))
	case insts.OpSH:
		err = s.mem.WriteU16(addr, uint16(rec.Op2Val))
	case insts.OpSW:
		err = s.mem.WriteU32(addr, rec.Op2Val)
	}

	if err != nil {
		return rec, fmt.Errorf("%s at 0x%08X: %w", inst.Op, addr, err)
	}
	return rec, nil
}

// WritebackStage commits results to the register file.
type WritebackStage struct {
	regs *emu.RegFile
}

// NewWritebackStage creates a writeback stage committing to regs.
func NewWritebackStage(regs *emu.RegFile) *WritebackStage {
	return &WritebackStage{regs: regs}
}

// Commit writes the record's result to its destination register.
func (s *WritebackStage) Commit(rec InstState) InstState {
	inst := rec.Inst
	if inst == nil || !inst.WritesRd {
		return rec
	}

	if inst.ReadsMem {
		s.regs.Write(inst.Rd, rec.MemResult)
	} else {
		s.regs.Write(inst.Rd, rec.ArithResult)
	}
	return rec
}
