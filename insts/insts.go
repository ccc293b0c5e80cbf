// Package insts provides RV64GC instruction definitions and decoding.
package insts

// Op represents a RISC-V operation.
type Op uint16

// RV64GC operations.
const (
	OpUnknown Op = iota

	// RV64I integer ops
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpLUI
	OpAUIPC
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
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	// M extension
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	// Loads and stores
	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU
	OpSB
	OpSH
	OpSW
	OpSD
	OpFLW
	OpFLD
	OpFSW
	OpFSD

	// Control transfer
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpJAL
	OpJALR

	// A extension
	OpLR
	OpSC
	OpAMOSWAP
	OpAMOADD
	OpAMOXOR
	OpAMOAND
	OpAMOOR
	OpAMOMIN
	OpAMOMAX
	OpAMOMINU
	OpAMOMAXU

	// F/D extensions
	OpFMADD
	OpFMSUB
	OpFNMSUB
	OpFNMADD
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFSQRT
	OpFSGNJ
	OpFSGNJN
	OpFSGNJX
	OpFMIN
	OpFMAX
	OpFEQ
	OpFLT
	OpFLE
	OpFCVTIntFp // integer rd from float rs1 (FCVT.{W,WU,L,LU}.{S,D})
	OpFCVTFpInt // float rd from integer rs1 (FCVT.{S,D}.{W,WU,L,LU})
	OpFCVTFpFp  // FCVT.S.D / FCVT.D.S
	OpFMVXF     // FMV.X.W / FMV.X.D
	OpFMVFX     // FMV.W.X / FMV.D.X

	// System
	OpECALL
)

// Format represents an execute dispatch class.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatOpImm          // integer register-immediate
	FormatOpImm32        // word register-immediate
	FormatOp             // integer register-register (including M)
	FormatOp32           // word register-register (including M word forms)
	FormatLui
	FormatAuipc
	FormatLoad
	FormatStore
	FormatFpLoad
	FormatFpStore
	FormatBranch
	FormatJal
	FormatJalr
	FormatAmo
	FormatFma // fused multiply-add family
	FormatFp  // OP-FP group
	FormatSystem
)

// OpType classifies an operation for dependency analysis.
type OpType uint8

// Operation kinds.
const (
	TypeUnknown OpType = iota
	TypeALU
	TypeShift
	TypeMul
	TypeDiv
	TypeLoad
	TypeStore
	TypeFpLoad
	TypeFpStore
	TypeAtomic
	TypeBranch
	TypeMove
	TypeMoveImm
	TypeSystem
	TypeFloat
)

// RegClass identifies a register file.
type RegClass uint8

// Register files.
const (
	RegInt RegClass = iota
	RegFp
)

// Reg names one register of one register file.
type Reg struct {
	Class RegClass
	Num   uint8
}

// COp identifies the compressed mnemonic an instruction decoded from.
// Zero for full-width encodings. It affects disassembly and the
// operation kind reported by Type; execution dispatches on Op/Format.
type COp uint8

// Compressed mnemonics.
const (
	CNone COp = iota
	CADDI4SPN
	CFLD
	CLW
	CLD
	CFSD
	CSW
	CSD
	CADDI
	CADDIW
	CLI
	CADDI16SP
	CLUI
	CSRLI
	CSRAI
	CANDI
	CSUB
	CXOR
	COR
	CAND
	CSUBW
	CADDW
	CJ
	CBEQZ
	CBNEZ
	CSLLI
	CLWSP
	CLDSP
	CSWSP
	CSDSP
	CJR
	CMV
	CJALR
	CADD
)

// FCVT target subcodes (the rs2 field of the conversion encodings).
const (
	CvtW  uint8 = 0
	CvtWU uint8 = 1
	CvtL  uint8 = 2
	CvtLU uint8 = 3
)

// Instruction represents one decoded RV64GC instruction.
type Instruction struct {
	Op     Op
	Format Format
	COp    COp

	// Is64Bit selects the doubleword form of atomic ops, and double
	// precision for floating-point ops (including FLD/FSD).
	Is64Bit bool

	Rd  uint8
	Rs1 uint8
	Rs2 uint8
	Rs3 uint8 // fused multiply-add only

	Imm   int64 // sign-extended immediate
	Shamt uint8 // shift amount for immediate shifts

	RoundMode uint8 // FP rounding mode from funct3 (captured, host rounding used)
	Cvt       uint8 // FCVT target subcode
	Aq, Rl    bool  // atomic ordering bits

	Size     uint8 // encoding width in bytes: 2 or 4
	MemBytes uint8 // memory access size in bytes, 0 if none
}

// Len returns the encoding width in bytes.
func (i *Instruction) Len() uint64 {
	return uint64(i.Size)
}

// Compressed reports whether this decoded from a 16-bit encoding.
func (i *Instruction) Compressed() bool {
	return i.Size == 2
}

// MemSize returns the memory access size in bytes (0 for non-memory ops).
func (i *Instruction) MemSize() uint32 {
	return uint32(i.MemBytes)
}

// RegReader supplies register values for effective-address calculation.
type RegReader interface {
	ReadReg(num uint8) uint64
}

// CalcEA computes the effective address of a memory operation.
// Returns 0 for instructions that do not access memory.
func (i *Instruction) CalcEA(r RegReader) uint64 {
	switch i.Format {
	case FormatLoad, FormatStore, FormatFpLoad, FormatFpStore:
		return r.ReadReg(i.Rs1) + uint64(i.Imm)
	case FormatAmo:
		return r.ReadReg(i.Rs1)
	}
	return 0
}

// Type returns the operation kind.
func (i *Instruction) Type() OpType {
	switch i.Format {
	case FormatLoad:
		return TypeLoad
	case FormatStore:
		return TypeStore
	case FormatFpLoad:
		return TypeFpLoad
	case FormatFpStore:
		return TypeFpStore
	case FormatAmo:
		return TypeAtomic
	case FormatBranch, FormatJal, FormatJalr:
		return TypeBranch
	case FormatLui:
		return TypeMoveImm
	case FormatAuipc:
		return TypeALU
	case FormatFma, FormatFp:
		return TypeFloat
	case FormatSystem:
		return TypeSystem
	}

	switch i.Op {
	case OpSLLI, OpSRLI, OpSRAI, OpSLLIW, OpSRLIW, OpSRAIW,
		OpSLL, OpSRL, OpSRA, OpSLLW, OpSRLW, OpSRAW:
		return TypeShift
	case OpMUL, OpMULH, OpMULHSU, OpMULHU, OpMULW:
		return TypeMul
	case OpDIV, OpDIVU, OpREM, OpREMU, OpDIVW, OpDIVUW, OpREMW, OpREMUW:
		return TypeDiv
	case OpADDI, OpADD:
		if i.COp == CMV || i.COp == CLI {
			return TypeMove
		}
		return TypeALU
	case OpUnknown:
		return TypeUnknown
	}
	return TypeALU
}

// Dsts returns the registers written by this instruction. The hardwired
// zero register is never reported as a destination.
func (i *Instruction) Dsts() []Reg {
	switch i.Format {
	case FormatOpImm, FormatOpImm32, FormatOp, FormatOp32,
		FormatLui, FormatAuipc, FormatLoad, FormatJal, FormatJalr, FormatAmo:
		if i.Rd == 0 {
			return nil
		}
		return []Reg{{RegInt, i.Rd}}
	case FormatFpLoad, FormatFma:
		return []Reg{{RegFp, i.Rd}}
	case FormatFp:
		switch i.Op {
		case OpFEQ, OpFLT, OpFLE, OpFCVTIntFp, OpFMVXF:
			if i.Rd == 0 {
				return nil
			}
			return []Reg{{RegInt, i.Rd}}
		}
		return []Reg{{RegFp, i.Rd}}
	}
	return nil
}

// Srcs returns the registers read by this instruction. Reads of the
// hardwired zero register carry no dependency and are omitted.
func (i *Instruction) Srcs() []Reg {
	var srcs []Reg
	intSrc := func(n uint8) {
		if n != 0 {
			srcs = append(srcs, Reg{RegInt, n})
		}
	}

	switch i.Format {
	case FormatOpImm, FormatOpImm32, FormatLoad, FormatJalr:
		intSrc(i.Rs1)
	case FormatOp, FormatOp32, FormatBranch, FormatStore:
		intSrc(i.Rs1)
		intSrc(i.Rs2)
	case FormatAmo:
		intSrc(i.Rs1)
		if i.Op != OpLR {
			intSrc(i.Rs2)
		}
	case FormatFpLoad:
		intSrc(i.Rs1)
	case FormatFpStore:
		intSrc(i.Rs1)
		srcs = append(srcs, Reg{RegFp, i.Rs2})
	case FormatFma:
		srcs = append(srcs,
			Reg{RegFp, i.Rs1}, Reg{RegFp, i.Rs2}, Reg{RegFp, i.Rs3})
	case FormatFp:
		switch i.Op {
		case OpFCVTFpInt, OpFMVFX:
			intSrc(i.Rs1)
		case OpFSQRT, OpFCVTIntFp, OpFCVTFpFp, OpFMVXF:
			srcs = append(srcs, Reg{RegFp, i.Rs1})
		default:
			srcs = append(srcs, Reg{RegFp, i.Rs1}, Reg{RegFp, i.Rs2})
		}
	}
	return srcs
}

// StoreSrc returns the data operand of a store (as opposed to the
// address base), and whether this instruction stores to memory.
func (i *Instruction) StoreSrc() (Reg, bool) {
	switch i.Format {
	case FormatStore:
		return Reg{RegInt, i.Rs2}, true
	case FormatFpStore:
		return Reg{RegFp, i.Rs2}, true
	case FormatAmo:
		if i.Op != OpLR {
			return Reg{RegInt, i.Rs2}, true
		}
	}
	return Reg{}, false
}
