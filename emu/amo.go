package emu

import (
	"github.com/nedbrek/rvfun/insts"
)

// executeAmo executes the A-extension operations. There is no
// contention model: LR is a plain load and SC always succeeds,
// committing its store and writing 0 to rd.
func (e *Emulator) executeAmo(inst *insts.Instruction) {
	ea := e.regFile.ReadReg(inst.Rs1)
	size := uint32(inst.MemBytes)

	// Word forms sign-extend the memory value into rd.
	loadVal := func(v uint64) uint64 {
		if !inst.Is64Bit {
			return signExtend32(uint32(v))
		}
		return v
	}

	switch inst.Op {
	case insts.OpLR:
		e.regFile.WriteReg(inst.Rd, loadVal(e.memory.Read(ea, size)))
		return
	case insts.OpSC:
		e.memory.Write(ea, size, e.regFile.ReadReg(inst.Rs2))
		e.regFile.WriteReg(inst.Rd, 0) // success
		return
	}

	src := e.regFile.ReadReg(inst.Rs2)

	// A swap that discards the pre-image skips the memory read.
	var pre uint64
	if !(inst.Op == insts.OpAMOSWAP && inst.Rd == 0) {
		pre = e.memory.Read(ea, size)
	}

	var result uint64
	if inst.Is64Bit {
		result = amoFunc64(inst.Op, pre, src)
	} else {
		result = uint64(amoFunc32(inst.Op, uint32(pre), uint32(src)))
	}

	e.memory.Write(ea, size, result)
	e.regFile.WriteReg(inst.Rd, loadVal(pre))
}

func amoFunc64(op insts.Op, mem, src uint64) uint64 {
	switch op {
	case insts.OpAMOSWAP:
		return src
	case insts.OpAMOADD:
		return mem + src
	case insts.OpAMOXOR:
		return mem ^ src
	case insts.OpAMOAND:
		return mem & src
	case insts.OpAMOOR:
		return mem | src
	case insts.OpAMOMIN:
		if int64(src) < int64(mem) {
			return src
		}
		return mem
	case insts.OpAMOMAX:
		if int64(src) > int64(mem) {
			return src
		}
		return mem
	case insts.OpAMOMINU:
		if src < mem {
			return src
		}
		return mem
	case insts.OpAMOMAXU:
		if src > mem {
			return src
		}
		return mem
	}
	return mem
}

func amoFunc32(op insts.Op, mem, src uint32) uint32 {
	switch op {
	case insts.OpAMOSWAP:
		return src
	case insts.OpAMOADD:
		return mem + src
	case insts.OpAMOXOR:
		return mem ^ src
	case insts.OpAMOAND:
		return mem & src
	case insts.OpAMOOR:
		return mem | src
	case insts.OpAMOMIN:
		if int32(src) < int32(mem) {
			return src
		}
		return mem
	case insts.OpAMOMAX:
		if int32(src) > int32(mem) {
			return src
		}
		return mem
	case insts.OpAMOMINU:
		if src < mem {
			return src
		}
		return mem
	case insts.OpAMOMAXU:
		if src > mem {
			return src
		}
		return mem
	}
	return mem
}
