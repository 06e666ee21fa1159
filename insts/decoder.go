package insts

// RV32I major opcodes (bits [6:0]).
const (
	opcodeLUI    = 0x37
	opcodeAUIPC  = 0x17
	opcodeJAL    = 0x6F
	opcodeJALR   = 0x67
	opcodeBranch = 0x63
	opcodeLoad   = 0x03
	opcodeStore  = 0x23
	opcodeOpImm  = 0x13
	opcodeOp     = 0x33
)

// Decoder decodes RV32I instruction words.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. The returned instruction is
// never nil; unsupported encodings come back with Legal == false.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Word: word,
		Op:   OpUnknown,
		Rd:   uint8((word >> 7) & 0x1F),
		Rs1:  uint8((word >> 15) & 0x1F),
		Rs2:  uint8((word >> 20) & 0x1F),
	}

	if word == HaltWord {
		inst.Op = OpHALT
		inst.Legal = true
		inst.IsHalt = true
		inst.Rd, inst.Rs1, inst.Rs2 = 0, 0, 0
		return inst
	}

	funct3 := (word >> 12) & 0x7
	funct7 := (word >> 25) & 0x7F

	switch word & 0x7F {
	case opcodeLUI:
		inst.Op = OpLUI
		inst.Imm = immU(word)
		inst.WritesRd = inst.Rd != 0
		inst.DoesArith = true
		inst.Legal = true

	case opcodeAUIPC:
		inst.Op = OpAUIPC
		inst.Imm = immU(word)
		inst.WritesRd = inst.Rd != 0
		inst.DoesArith = true
		inst.Legal = true

	case opcodeJAL:
		inst.Op = OpJAL
		inst.Imm = immJ(word)
		inst.WritesRd = inst.Rd != 0
		inst.DoesArith = true // link value PC+4
		inst.IsBranch = true
		inst.Legal = true

	case opcodeJALR:
		if funct3 != 0 {
			return inst
		}
		inst.Op = OpJALR
		inst.Imm = immI(word)
		inst.ReadsRs1 = true
		inst.WritesRd = inst.Rd != 0
		inst.DoesArith = true // link value PC+4
		inst.IsBranch = true
		inst.Legal = true

	case opcodeBranch:
		branchOps := map[uint32]Op{
			0: OpBEQ, 1: OpBNE, 4: OpBLT, 5: OpBGE, 6: OpBLTU, 7: OpBGEU,
		}
		op, ok := branchOps[funct3]
		if !ok {
			return inst
		}
		inst.Op = op
		inst.Imm = immB(word)
		inst.ReadsRs1 = true
		inst.ReadsRs2 = true
		inst.IsBranch = true
		inst.Legal = true

	case opcodeLoad:
		loadOps := map[uint32]Op{
			0: OpLB, 1: OpLH, 2: OpLW, 4: OpLBU, 5: OpLHU,
		}
		op, ok := loadOps[funct3]
		if !ok {
			return inst
		}
		inst.Op = op
		inst.Imm = immI(word)
		inst.ReadsRs1 = true
		inst.ReadsMem = true
		inst.WritesRd = inst.Rd != 0
		inst.Legal = true

	case opcodeStore:
		storeOps := map[uint32]Op{
			0: OpSB, 1: OpSH, 2: OpSW,
		}
		op, ok := storeOps[funct3]
		if !ok {
			return inst
		}
		inst.Op = op
		inst.Imm = immS(word)
		inst.ReadsRs1 = true
		inst.ReadsRs2 = true
		inst.WritesMem = true
		inst.Legal = true

	case opcodeOpImm:
		d.decodeOpImm(inst, funct3, funct7)

	case opcodeOp:
		d.decodeOp(inst, funct3, funct7)
	}

	return inst
}

// decodeOpImm decodes integer register-immediate instructions.
func (d *Decoder) decodeOpImm(inst *Instruction, funct3, funct7 uint32) {
	switch funct3 {
	case 0:
		inst.Op = OpADDI
	case 2:
		inst.Op = OpSLTI
	case 3:
		inst.Op = OpSLTIU
	case 4:
		inst.Op = OpXORI
	case 6:
		inst.Op = OpORI
	case 7:
		inst.Op = OpANDI
	case 1:
		if funct7 != 0 {
			return
		}
		inst.Op = OpSLLI
	case 5:
		switch funct7 {
		case 0x00:
			inst.Op = OpSRLI
		case 0x20:
			inst.Op = OpSRAI
		default:
			return
		}
	}

	inst.Imm = immI(inst.Word)
	if inst.Op == OpSLLI || inst.Op == OpSRLI || inst.Op == OpSRAI {
		// Shift amount is the low five immediate bits.
		inst.Imm = int32(inst.Word>>20) & 0x1F
	}
	inst.ReadsRs1 = true
	inst.WritesRd = inst.Rd != 0
	inst.DoesArith = true
	inst.Legal = true
}

// decodeOp decodes integer register-register instructions.
func (d *Decoder) decodeOp(inst *Instruction, funct3, funct7 uint32) {
	switch {
	case funct3 == 0 && funct7 == 0x00:
		inst.Op = OpADD
	case funct3 == 0 && funct7 == 0x20:
		inst.Op = OpSUB
	case funct3 == 1 && funct7 == 0x00:
		inst.Op = OpSLL
	case funct3 == 2 && funct7 == 0x00:
		inst.Op = OpSLT
	case funct3 == 3 && funct7 == 0x00:
		inst.Op = OpSLTU
	case funct3 == 4 && funct7 == 0x00:
		inst.Op = OpXOR
	case funct3 == 5 && funct7 == 0x00:
		inst.Op = OpSRL
	case funct3 == 5 && funct7 == 0x20:
		inst.Op = OpSRA
	case funct3 == 6 && funct7 == 0x00:
		inst.Op = OpOR
	case funct3 == 7 && funct7 == 0x00:
		inst.Op = OpAND
	default:
		return
	}

	inst.ReadsRs1 = true
	inst.ReadsRs2 = true
	inst.WritesRd = inst.Rd != 0
	inst.DoesArith = true
	inst.Legal = true
}

// Immediate reconstruction per the RV32I base formats.

func immI(word uint32) int32 {
	return int32(word) >> 20
}

func immS(word uint32) int32 {
	return (int32(word)>>25)<<5 | int32((word>>7)&0x1F)
}

func immB(word uint32) int32 {
	return (int32(word)>>31)<<12 |
		int32((word>>7)&0x1)<<11 |
		int32((word>>25)&0x3F)<<5 |
		int32((word>>8)&0xF)<<1
}

func immU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

func immJ(word uint32) int32 {
	return (int32(word)>>31)<<20 |
		int32(word&0xFF000) |
		int32((word>>20)&0x1)<<11 |
		int32((word>>21)&0x3FF)<<1
}
