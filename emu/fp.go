package emu

import (
	"math"

	"github.com/nedbrek/rvfun/insts"
)

// Floating-point execution. Rounding modes from the encoding are
// captured on the record but not applied: arithmetic uses host rounding
// (round-nearest-even) and float-to-integer conversions truncate toward
// zero; see the design notes.

// executeFpLoad loads raw bits into a float register. Single-precision
// loads are NaN-boxed.
func (e *Emulator) executeFpLoad(inst *insts.Instruction) {
	ea := e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)
	if inst.Op == insts.OpFLD {
		e.fpRegFile.WriteRaw(inst.Rd, e.memory.Read(ea, 8))
		return
	}
	e.fpRegFile.WriteRaw32(inst.Rd, uint32(e.memory.Read(ea, 4)))
}

// executeFpStore stores the raw bits of a float register.
func (e *Emulator) executeFpStore(inst *insts.Instruction) {
	ea := e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)
	raw := e.fpRegFile.ReadRaw(inst.Rs2)
	if inst.Op == insts.OpFSD {
		e.memory.Write(ea, 8, raw)
		return
	}
	e.memory.Write(ea, 4, raw&0xffffffff)
}

// executeFma executes the fused multiply-add family.
func (e *Emulator) executeFma(inst *insts.Instruction) {
	if inst.Is64Bit {
		a := e.fpRegFile.ReadDouble(inst.Rs1)
		b := e.fpRegFile.ReadDouble(inst.Rs2)
		c := e.fpRegFile.ReadDouble(inst.Rs3)
		e.fpRegFile.WriteDouble(inst.Rd, fmaD(inst.Op, a, b, c))
		return
	}
	a := float64(e.fpRegFile.ReadFloat(inst.Rs1))
	b := float64(e.fpRegFile.ReadFloat(inst.Rs2))
	c := float64(e.fpRegFile.ReadFloat(inst.Rs3))
	e.fpRegFile.WriteFloat(inst.Rd, float32(fmaD(inst.Op, a, b, c)))
}

func fmaD(op insts.Op, a, b, c float64) float64 {
	switch op {
	case insts.OpFMADD:
		return math.FMA(a, b, c)
	case insts.OpFMSUB:
		return math.FMA(a, b, -c)
	case insts.OpFNMSUB:
		return math.FMA(-a, b, c)
	case insts.OpFNMADD:
		return math.FMA(-a, b, -c)
	}
	return 0
}

// executeFp executes the OP-FP group.
func (e *Emulator) executeFp(inst *insts.Instruction) {
	if inst.Is64Bit {
		e.executeFpD(inst)
	} else {
		e.executeFpS(inst)
	}
}

func (e *Emulator) executeFpS(inst *insts.Instruction) {
	f := e.fpRegFile
	a := f.ReadFloat(inst.Rs1)
	b := f.ReadFloat(inst.Rs2)

	switch inst.Op {
	case insts.OpFADD:
		f.WriteFloat(inst.Rd, a+b)
	case insts.OpFSUB:
		f.WriteFloat(inst.Rd, a-b)
	case insts.OpFMUL:
		f.WriteFloat(inst.Rd, a*b)
	case insts.OpFDIV:
		f.WriteFloat(inst.Rd, a/b)
	case insts.OpFSQRT:
		f.WriteFloat(inst.Rd, float32(math.Sqrt(float64(a))))

	case insts.OpFSGNJ, insts.OpFSGNJN, insts.OpFSGNJX:
		abits := uint32(f.ReadRaw(inst.Rs1))
		sign := uint32(f.ReadRaw(inst.Rs2)) & 0x80000000
		switch inst.Op {
		case insts.OpFSGNJN:
			sign ^= 0x80000000
		case insts.OpFSGNJX:
			sign ^= abits & 0x80000000
		}
		f.WriteRaw32(inst.Rd, abits&0x7fffffff|sign)

	case insts.OpFMIN:
		f.WriteFloat(inst.Rd, float32(fpMin(float64(a), float64(b))))
	case insts.OpFMAX:
		f.WriteFloat(inst.Rd, float32(fpMax(float64(a), float64(b))))

	case insts.OpFEQ:
		e.regFile.WriteReg(inst.Rd, boolTo64(a == b))
	case insts.OpFLT:
		e.regFile.WriteReg(inst.Rd, boolTo64(a < b))
	case insts.OpFLE:
		e.regFile.WriteReg(inst.Rd, boolTo64(a <= b))

	case insts.OpFCVTIntFp:
		e.regFile.WriteReg(inst.Rd, cvtToInt(float64(a), inst.Cvt))
	case insts.OpFCVTFpInt:
		f.WriteFloat(inst.Rd, float32(cvtFromInt(e.regFile.ReadReg(inst.Rs1), inst.Cvt)))
	case insts.OpFCVTFpFp: // FCVT.S.D
		f.WriteFloat(inst.Rd, float32(f.ReadDouble(inst.Rs1)))

	case insts.OpFMVXF:
		e.regFile.WriteReg(inst.Rd, signExtend32(uint32(f.ReadRaw(inst.Rs1))))
	case insts.OpFMVFX:
		f.WriteRaw32(inst.Rd, uint32(e.regFile.ReadReg(inst.Rs1)))
	}
}

func (e *Emulator) executeFpD(inst *insts.Instruction) {
	f := e.fpRegFile
	a := f.ReadDouble(inst.Rs1)
	b := f.ReadDouble(inst.Rs2)

	switch inst.Op {
	case insts.OpFADD:
		f.WriteDouble(inst.Rd, a+b)
	case insts.OpFSUB:
		f.WriteDouble(inst.Rd, a-b)
	case insts.OpFMUL:
		f.WriteDouble(inst.Rd, a*b)
	case insts.OpFDIV:
		f.WriteDouble(inst.Rd, a/b)
	case insts.OpFSQRT:
		f.WriteDouble(inst.Rd, math.Sqrt(a))

	case insts.OpFSGNJ, insts.OpFSGNJN, insts.OpFSGNJX:
		abits := f.ReadRaw(inst.Rs1)
		sign := f.ReadRaw(inst.Rs2) & (1 << 63)
		switch inst.Op {
		case insts.OpFSGNJN:
			sign ^= 1 << 63
		case insts.OpFSGNJX:
			sign ^= abits & (1 << 63)
		}
		f.WriteRaw(inst.Rd, abits&^(uint64(1)<<63)|sign)

	case insts.OpFMIN:
		f.WriteDouble(inst.Rd, fpMin(a, b))
	case insts.OpFMAX:
		f.WriteDouble(inst.Rd, fpMax(a, b))

	case insts.OpFEQ:
		e.regFile.WriteReg(inst.Rd, boolTo64(a == b))
	case insts.OpFLT:
		e.regFile.WriteReg(inst.Rd, boolTo64(a < b))
	case insts.OpFLE:
		e.regFile.WriteReg(inst.Rd, boolTo64(a <= b))

	case insts.OpFCVTIntFp:
		e.regFile.WriteReg(inst.Rd, cvtToInt(a, inst.Cvt))
	case insts.OpFCVTFpInt:
		f.WriteDouble(inst.Rd, cvtFromInt(e.regFile.ReadReg(inst.Rs1), inst.Cvt))
	case insts.OpFCVTFpFp: // FCVT.D.S
		f.WriteDouble(inst.Rd, float64(f.ReadFloat(inst.Rs1)))

	case insts.OpFMVXF:
		e.regFile.WriteReg(inst.Rd, f.ReadRaw(inst.Rs1))
	case insts.OpFMVFX:
		f.WriteRaw(inst.Rd, e.regFile.ReadReg(inst.Rs1))
	}
}

func boolTo64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// fpMin/fpMax implement the architectural min/max: a single NaN
// operand yields the other operand, and -0 orders below +0.
func fpMin(a, b float64) float64 {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return math.NaN()
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case a == 0 && b == 0:
		if math.Signbit(a) {
			return a
		}
		return b
	case a < b:
		return a
	}
	return b
}

func fpMax(a, b float64) float64 {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return math.NaN()
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case a == 0 && b == 0:
		if math.Signbit(a) {
			return b
		}
		return a
	case a > b:
		return a
	}
	return b
}

// cvtToInt converts a float value to the integer form named by the
// FCVT subcode, truncating toward zero and saturating out-of-range
// inputs (NaN converts to the maximum positive value).
func cvtToInt(v float64, cvt uint8) uint64 {
	switch cvt {
	case insts.CvtW:
		return signExtend32(uint32(satI32(v)))
	case insts.CvtWU:
		return signExtend32(satU32(v))
	case insts.CvtL:
		return uint64(satI64(v))
	case insts.CvtLU:
		return satU64(v)
	}
	return 0
}

// cvtFromInt converts an integer register value to float per the FCVT
// subcode.
func cvtFromInt(v uint64, cvt uint8) float64 {
	switch cvt {
	case insts.CvtW:
		return float64(int32(v))
	case insts.CvtWU:
		return float64(uint32(v))
	case insts.CvtL:
		return float64(int64(v))
	case insts.CvtLU:
		return float64(v)
	}
	return 0
}

func satI32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return math.MaxInt32
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

func satU32(v float64) uint32 {
	switch {
	case math.IsNaN(v):
		return math.MaxUint32
	case v >= math.MaxUint32:
		return math.MaxUint32
	case v <= 0:
		return 0
	}
	return uint32(v)
}

func satI64(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return math.MaxInt64
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}

func satU64(v float64) uint64 {
	switch {
	case math.IsNaN(v):
		return math.MaxUint64
	case v >= math.MaxUint64:
		return math.MaxUint64
	case v <= 0:
		return 0
	}
	return uint64(v)
}
