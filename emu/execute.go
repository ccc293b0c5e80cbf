package emu

import (
	"github.com/nedbrek/rvfun/insts"
)

// executeOpImm executes the integer register-immediate operations.
func (e *Emulator) executeOpImm(inst *insts.Instruction) {
	val := e.regFile.ReadReg(inst.Rs1)
	imm := inst.Imm

	var result uint64
	switch inst.Op {
	case insts.OpADDI:
		result = val + uint64(imm)
	case insts.OpSLTI:
		if int64(val) < imm {
			result = 1
		}
	case insts.OpSLTIU:
		if val < uint64(imm) {
			result = 1
		}
	case insts.OpXORI:
		result = val ^ uint64(imm)
	case insts.OpORI:
		result = val | uint64(imm)
	case insts.OpANDI:
		result = val & uint64(imm)
	case insts.OpSLLI:
		result = val << (inst.Shamt & 0x3f)
	case insts.OpSRLI:
		result = val >> (inst.Shamt & 0x3f)
	case insts.OpSRAI:
		result = uint64(int64(val) >> (inst.Shamt & 0x3f))
	}

	e.regFile.WriteReg(inst.Rd, result)
}

// executeOpImm32 executes the word register-immediate operations.
// Word results are always sign-extended to 64 bits.
func (e *Emulator) executeOpImm32(inst *insts.Instruction) {
	val := uint32(e.regFile.ReadReg(inst.Rs1))

	var result uint64
	switch inst.Op {
	case insts.OpADDIW:
		result = signExtend32(val + uint32(inst.Imm))
	case insts.OpSLLIW:
		result = signExtend32(val << (inst.Shamt & 0x1f))
	case insts.OpSRLIW:
		result = signExtend32(val >> (inst.Shamt & 0x1f))
	case insts.OpSRAIW:
		result = signExtend32(uint32(int32(val) >> (inst.Shamt & 0x1f)))
	}

	e.regFile.WriteReg(inst.Rd, result)
}

// executeOp executes the integer register-register operations,
// including the M-extension multiply and divide group.
func (e *Emulator) executeOp(inst *insts.Instruction) {
	vr1 := e.regFile.ReadReg(inst.Rs1)
	vr2 := e.regFile.ReadReg(inst.Rs2)

	var result uint64
	switch inst.Op {
	case insts.OpADD:
		result = vr1 + vr2
	case insts.OpSUB:
		result = vr1 - vr2
	case insts.OpSLL:
		result = vr1 << (vr2 & 0x3f)
	case insts.OpSLT:
		if int64(vr1) < int64(vr2) {
			result = 1
		}
	case insts.OpSLTU:
		if vr1 < vr2 {
			result = 1
		}
	case insts.OpXOR:
		result = vr1 ^ vr2
	case insts.OpSRL:
		result = vr1 >> (vr2 & 0x3f)
	case insts.OpSRA:
		result = uint64(int64(vr1) >> (vr2 & 0x3f))
	case insts.OpOR:
		result = vr1 | vr2
	case insts.OpAND:
		result = vr1 & vr2

	case insts.OpMUL:
		result = vr1 * vr2
	case insts.OpMULH:
		result = mulh(int64(vr1), int64(vr2))
	case insts.OpMULHSU:
		result = mulhsu(int64(vr1), vr2)
	case insts.OpMULHU:
		result = mulhu(vr1, vr2)
	case insts.OpDIV:
		result = div64(int64(vr1), int64(vr2))
	case insts.OpDIVU:
		result = divu64(vr1, vr2)
	case insts.OpREM:
		result = rem64(int64(vr1), int64(vr2))
	case insts.OpREMU:
		result = remu64(vr1, vr2)
	}

	e.regFile.WriteReg(inst.Rd, result)
}

// executeOp32 executes the word register-register operations.
func (e *Emulator) executeOp32(inst *insts.Instruction) {
	vr1 := uint32(e.regFile.ReadReg(inst.Rs1))
	vr2 := uint32(e.regFile.ReadReg(inst.Rs2))

	var result uint64
	switch inst.Op {
	case insts.OpADDW:
		result = signExtend32(vr1 + vr2)
	case insts.OpSUBW:
		result = signExtend32(vr1 - vr2)
	case insts.OpSLLW:
		result = signExtend32(vr1 << (vr2 & 0x1f))
	case insts.OpSRLW:
		result = signExtend32(vr1 >> (vr2 & 0x1f))
	case insts.OpSRAW:
		result = signExtend32(uint32(int32(vr1) >> (vr2 & 0x1f)))

	case insts.OpMULW:
		result = signExtend32(vr1 * vr2)
	case insts.OpDIVW:
		result = div32(int32(vr1), int32(vr2))
	case insts.OpDIVUW:
		result = divu32(vr1, vr2)
	case insts.OpREMW:
		result = rem32(int32(vr1), int32(vr2))
	case insts.OpREMUW:
		result = remu32(vr1, vr2)
	}

	e.regFile.WriteReg(inst.Rd, result)
}

// executeLoad executes the integer loads. LB/LH/LW sign-extend,
// LBU/LHU/LWU zero-extend, LD is verbatim.
func (e *Emulator) executeLoad(inst *insts.Instruction) {
	ea := e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)
	mval := e.memory.Read(ea, uint32(inst.MemBytes))

	var result uint64
	switch inst.Op {
	case insts.OpLB:
		result = uint64(int64(int8(mval)))
	case insts.OpLH:
		result = uint64(int64(int16(mval)))
	case insts.OpLW:
		result = uint64(int64(int32(mval)))
	case insts.OpLD, insts.OpLBU, insts.OpLHU, insts.OpLWU:
		result = mval
	}

	e.regFile.WriteReg(inst.Rd, result)
}

// executeStore executes the integer stores.
func (e *Emulator) executeStore(inst *insts.Instruction) {
	ea := e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)
	e.memory.Write(ea, uint32(inst.MemBytes), e.regFile.ReadReg(inst.Rs2))
}

// executeBranch executes the conditional branches. A taken branch sets
// PC to PC+imm; not-taken advances by the encoding width.
func (e *Emulator) executeBranch(inst *insts.Instruction) {
	vr1 := e.regFile.ReadReg(inst.Rs1)
	vr2 := e.regFile.ReadReg(inst.Rs2)

	var taken bool
	switch inst.Op {
	case insts.OpBEQ:
		taken = vr1 == vr2
	case insts.OpBNE:
		taken = vr1 != vr2
	case insts.OpBLT:
		taken = int64(vr1) < int64(vr2)
	case insts.OpBGE:
		taken = int64(vr1) >= int64(vr2)
	case insts.OpBLTU:
		taken = vr1 < vr2
	case insts.OpBGEU:
		taken = vr1 >= vr2
	}

	if taken {
		e.regFile.PC += uint64(inst.Imm)
	} else {
		e.regFile.PC += uint64(inst.Size)
	}
}

// executeJal writes the return address and jumps PC-relative.
func (e *Emulator) executeJal(inst *insts.Instruction) {
	e.regFile.WriteReg(inst.Rd, e.regFile.PC+uint64(inst.Size))
	e.regFile.PC += uint64(inst.Imm)
}

// executeJalr writes the return address and jumps register-indirect
// with the low target bit forced to 0. rs1 is read before rd is
// written, so rd == rs1 links correctly.
func (e *Emulator) executeJalr(inst *insts.Instruction) {
	target := (e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)) &^ uint64(1)
	e.regFile.WriteReg(inst.Rd, e.regFile.PC+uint64(inst.Size))
	e.regFile.PC = target
}
