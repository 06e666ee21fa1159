// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RV32I machine code into structured
// instruction representations. It supports:
//   - Integer register-immediate: ADDI, SLTI, SLTIU, XORI, ORI, ANDI, SLLI, SRLI, SRAI
//   - Integer register-register: ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND
//   - Upper-immediate: LUI, AUIPC
//   - Control transfer: JAL, JALR, BEQ, BNE, BLT, BGE, BLTU, BGEU
//   - Loads and stores: LB, LH, LW, LBU, LHU, SB, SH, SW
//   - The designated halt word 0xFEEDFEED
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00A08093) // ADDI x1, x1, 10
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts

// Well-known encodings.
const (
	// NopWord is ADDI x0, x0, 0, the canonical RV32I no-op.
	NopWord uint32 = 0x00000013

	// HaltWord is the designated halt encoding. It is a legal instruction
	// and terminates simulation when it reaches the writeback stage.
	HaltWord uint32 = 0xFEEDFEED
)

// Op identifies the operation an instruction performs.
type Op int

// Supported operations.
const (
	OpUnknown Op = iota

	OpLUI
	OpAUIPC

	OpJAL
	OpJALR

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	OpSB
	OpSH
	OpSW

	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	OpHALT
)

var opNames = map[Op]string{
	OpUnknown: "UNKNOWN",
	OpLUI:     "LUI",
	OpAUIPC:   "AUIPC",
	OpJAL:     "JAL",
	OpJALR:    "JALR",
	OpBEQ:     "BEQ",
	OpBNE:     "BNE",
	OpBLT:     "BLT",
	OpBGE:     "BGE",
	OpBLTU:    "BLTU",
	OpBGEU:    "BGEU",
	OpLB:      "LB",
	OpLH:      "LH",
	OpLW:      "LW",
	OpLBU:     "LBU",
	OpLHU:     "LHU",
	OpSB:      "SB",
	OpSH:      "SH",
	OpSW:      "SW",
	OpADDI:    "ADDI",
	OpSLTI:    "SLTI",
	OpSLTIU:   "SLTIU",
	OpXORI:    "XORI",
	OpORI:     "ORI",
	OpANDI:    "ANDI",
	OpSLLI:    "SLLI",
	OpSRLI:    "SRLI",
	OpSRAI:    "SRAI",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpSLL:     "SLL",
	OpSLT:     "SLT",
	OpSLTU:    "SLTU",
	OpXOR:     "XOR",
	OpSRL:     "SRL",
	OpSRA:     "SRA",
	OpOR:      "OR",
	OpAND:     "AND",
	OpHALT:    "HALT",
}

// String returns the mnemonic for the operation.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// Instruction is a decoded RV32I instruction.
//
// The control flags (ReadsRs1 through IsHalt) are fixed at decode time and
// never change afterwards; pipeline stages only mutate operand values and
// computed results carried alongside the instruction.
type Instruction struct {
	// Word is the raw 32-bit encoding.
	Word uint32

	// Op is the decoded operation.
	Op Op

	// Legal is false for encodings outside the supported set.
	Legal bool

	// Register identifiers.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm is the sign-extended immediate, when the format has one.
	Imm int32

	// ReadsRs1 and ReadsRs2 report whether the instruction reads the
	// corresponding source register.
	ReadsRs1 bool
	ReadsRs2 bool

	// WritesRd reports whether the instruction writes a destination
	// register. Always false when Rd is x0 (hard-wired zero).
	WritesRd bool

	// ReadsMem and WritesMem report load/store behavior.
	ReadsMem  bool
	WritesMem bool

	// DoesArith reports whether the instruction produces an arithmetic
	// result (including the PC+4 link value of JAL/JALR). Arithmetic
	// results are the values forwarded from the EX stage.
	DoesArith bool

	// IsBranch covers conditional branches and jumps (JAL, JALR), the
	// instructions whose next PC is resolved in the decode stage.
	IsBranch bool

	// IsHalt marks the designated halt encoding.
	IsHalt bool
}

// IsNop reports whether the instruction is the canonical no-op encoding.
func (i *Instruction) IsNop() bool {
	return i.Word == NopWord
}
