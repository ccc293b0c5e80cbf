package insts

// Immediate unpack helpers for the base instruction formats.

// immI extracts the I-type immediate: opc[31:20] -> imm[11:0], sign-extended.
func immI(opc uint32) int64 {
	return signExtend(uint64(opc>>20), 12)
}

// immS extracts the S-type immediate: opc[31:25] -> imm[11:5], opc[11:7] -> imm[4:0].
func immS(opc uint32) int64 {
	imm := uint64(opc>>25) << 5
	imm |= uint64(opc>>7) & 0x1f
	return signExtend(imm, 12)
}

// immB extracts the B-type immediate: opc[31] -> imm[12], opc[7] -> imm[11],
// opc[30:25] -> imm[10:5], opc[11:8] -> imm[4:1].
func immB(opc uint32) int64 {
	imm := uint64(opc>>31&0x1) << 12
	imm |= uint64(opc>>7&0x1) << 11
	imm |= uint64(opc>>25&0x3f) << 5
	imm |= uint64(opc>>8&0xf) << 1
	return signExtend(imm, 13)
}

// immU extracts the U-type immediate: opc[31:12] -> imm[31:12], sign-extended.
func immU(opc uint32) int64 {
	return int64(int32(opc & 0xfffff000))
}

// immJ extracts the J-type immediate: opc[31] -> imm[20], opc[19:12] -> imm[19:12],
// opc[20] -> imm[11], opc[30:21] -> imm[10:1].
func immJ(opc uint32) int64 {
	imm := uint64(opc>>31&0x1) << 20
	imm |= uint64(opc>>12&0xff) << 12
	imm |= uint64(opc>>20&0x1) << 11
	imm |= uint64(opc>>21&0x3ff) << 1
	return signExtend(imm, 21)
}

// Decode32 decodes a 32-bit base encoding.
// Dispatch is on bits [6:2] (major group), then funct3/funct7 per group.
func (d *Decoder) Decode32(opc uint32) *Instruction {
	group := (opc >> 2) & 0x1f
	rd := uint8(opc>>7) & 0x1f   // opc[11:7]
	funct3 := uint8(opc>>12) & 7 // opc[14:12]
	rs1 := uint8(opc>>15) & 0x1f // opc[19:15]
	rs2 := uint8(opc>>20) & 0x1f // opc[24:20]

	switch group {
	case 0x00: // LOAD
		ops := [8]Op{OpLB, OpLH, OpLW, OpLD, OpLBU, OpLHU, OpLWU, OpUnknown}
		if ops[funct3] == OpUnknown {
			return nil
		}
		return &Instruction{
			Op: ops[funct3], Format: FormatLoad, Size: 4,
			Rd: rd, Rs1: rs1, Imm: immI(opc), MemBytes: 1 << (funct3 & 3),
		}

	case 0x01: // LOAD-FP
		switch funct3 {
		case 2:
			return &Instruction{
				Op: OpFLW, Format: FormatFpLoad, Size: 4,
				Rd: rd, Rs1: rs1, Imm: immI(opc), MemBytes: 4,
			}
		case 3:
			return &Instruction{
				Op: OpFLD, Format: FormatFpLoad, Size: 4,
				Is64Bit: true, Rd: rd, Rs1: rs1, Imm: immI(opc), MemBytes: 8,
			}
		}
		return nil

	case 0x04: // OP-IMM
		return d.decodeOpImm(opc, rd, funct3, rs1)

	case 0x05: // AUIPC
		return &Instruction{
			Op: OpAUIPC, Format: FormatAuipc, Size: 4, Rd: rd, Imm: immU(opc),
		}

	case 0x06: // OP-IMM-32
		return d.decodeOpImm32(opc, rd, funct3, rs1)

	case 0x08: // STORE
		if funct3 > 3 {
			return nil
		}
		ops := [4]Op{OpSB, OpSH, OpSW, OpSD}
		return &Instruction{
			Op: ops[funct3], Format: FormatStore, Size: 4,
			Rs1: rs1, Rs2: rs2, Imm: immS(opc), MemBytes: 1 << funct3,
		}

	case 0x09: // STORE-FP
		switch funct3 {
		case 2:
			return &Instruction{
				Op: OpFSW, Format: FormatFpStore, Size: 4,
				Rs1: rs1, Rs2: rs2, Imm: immS(opc), MemBytes: 4,
			}
		case 3:
			return &Instruction{
				Op: OpFSD, Format: FormatFpStore, Size: 4,
				Is64Bit: true, Rs1: rs1, Rs2: rs2, Imm: immS(opc), MemBytes: 8,
			}
		}
		return nil

	case 0x0b: // AMO
		return d.decodeAmo(opc, rd, funct3, rs1, rs2)

	case 0x0c: // OP
		return d.decodeOp(opc, rd, funct3, rs1, rs2)

	case 0x0d: // LUI
		return &Instruction{
			Op: OpLUI, Format: FormatLui, Size: 4, Rd: rd, Imm: immU(opc),
		}

	case 0x0e: // OP-32
		return d.decodeOp32(opc, rd, funct3, rs1, rs2)

	case 0x10, 0x11, 0x12, 0x13: // MADD/MSUB/NMSUB/NMADD
		ops := [4]Op{OpFMADD, OpFMSUB, OpFNMSUB, OpFNMADD}
		fmt := opc >> 25 & 0x3 // opc[26:25]: 0=single, 1=double
		if fmt > 1 {
			return nil
		}
		return &Instruction{
			Op: ops[group&3], Format: FormatFma, Size: 4,
			Is64Bit: fmt == 1, Rd: rd, Rs1: rs1, Rs2: rs2,
			Rs3: uint8(opc>>27) & 0x1f, RoundMode: funct3,
		}

	case 0x14: // OP-FP
		return d.decodeOpFp(opc, rd, funct3, rs1, rs2)

	case 0x18: // BRANCH
		ops := [8]Op{OpBEQ, OpBNE, OpUnknown, OpUnknown, OpBLT, OpBGE, OpBLTU, OpBGEU}
		if ops[funct3] == OpUnknown {
			return nil
		}
		return &Instruction{
			Op: ops[funct3], Format: FormatBranch, Size: 4,
			Rs1: rs1, Rs2: rs2, Imm: immB(opc),
		}

	case 0x19: // JALR
		if funct3 != 0 {
			return nil
		}
		return &Instruction{
			Op: OpJALR, Format: FormatJalr, Size: 4,
			Rd: rd, Rs1: rs1, Imm: immI(opc),
		}

	case 0x1b: // JAL
		return &Instruction{
			Op: OpJAL, Format: FormatJal, Size: 4, Rd: rd, Imm: immJ(opc),
		}

	case 0x1c: // SYSTEM
		if funct3 == 0 && opc>>20 == 0 && rs1 == 0 && rd == 0 {
			return &Instruction{Op: OpECALL, Format: FormatSystem, Size: 4}
		}
		return nil // EBREAK and Zicsr not modeled
	}

	return nil
}

// decodeOpImm decodes the OP-IMM group.
func (d *Decoder) decodeOpImm(opc uint32, rd, funct3, rs1 uint8) *Instruction {
	inst := &Instruction{Format: FormatOpImm, Size: 4, Rd: rd, Rs1: rs1}
	switch funct3 {
	case 0:
		inst.Op = OpADDI
		inst.Imm = immI(opc)
	case 1: // SLLI: shamt in opc[25:20]
		if opc>>26 != 0 {
			return nil
		}
		inst.Op = OpSLLI
		inst.Shamt = uint8(opc>>20) & 0x3f
	case 2:
		inst.Op = OpSLTI
		inst.Imm = immI(opc)
	case 3:
		inst.Op = OpSLTIU
		inst.Imm = immI(opc)
	case 4:
		inst.Op = OpXORI
		inst.Imm = immI(opc)
	case 5: // SRLI/SRAI: opc[30] selects arithmetic
		if f6 := opc >> 26; f6 != 0 && f6 != 0x10 {
			return nil
		}
		inst.Op = OpSRLI
		if opc&0x40000000 != 0 {
			inst.Op = OpSRAI
		}
		inst.Shamt = uint8(opc>>20) & 0x3f
	case 6:
		inst.Op = OpORI
		inst.Imm = immI(opc)
	case 7:
		inst.Op = OpANDI
		inst.Imm = immI(opc)
	}
	return inst
}

// decodeOpImm32 decodes the OP-IMM-32 group.
func (d *Decoder) decodeOpImm32(opc uint32, rd, funct3, rs1 uint8) *Instruction {
	inst := &Instruction{Format: FormatOpImm32, Size: 4, Rd: rd, Rs1: rs1}
	switch funct3 {
	case 0:
		inst.Op = OpADDIW
		inst.Imm = immI(opc)
	case 1:
		inst.Op = OpSLLIW
		inst.Shamt = uint8(opc>>20) & 0x1f
	case 5:
		inst.Op = OpSRLIW
		if opc&0x40000000 != 0 { // opc[30]
			inst.Op = OpSRAIW
		}
		inst.Shamt = uint8(opc>>20) & 0x1f
	default:
		return nil
	}
	return inst
}

// decodeOp decodes the OP group, including the M extension on opc[25].
func (d *Decoder) decodeOp(opc uint32, rd, funct3, rs1, rs2 uint8) *Instruction {
	inst := &Instruction{Format: FormatOp, Size: 4, Rd: rd, Rs1: rs1, Rs2: rs2}

	if opc&0x02000000 != 0 { // opc[25]: M extension
		ops := [8]Op{OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU}
		inst.Op = ops[funct3]
		return inst
	}

	op30 := opc&0x40000000 != 0 // opc[30]: SUB / SRA select
	switch funct3 {
	case 0:
		inst.Op = OpADD
		if op30 {
			inst.Op = OpSUB
		}
	case 1:
		inst.Op = OpSLL
	case 2:
		inst.Op = OpSLT
	case 3:
		inst.Op = OpSLTU
	case 4:
		inst.Op = OpXOR
	case 5:
		inst.Op = OpSRL
		if op30 {
			inst.Op = OpSRA
		}
	case 6:
		inst.Op = OpOR
	case 7:
		inst.Op = OpAND
	}
	return inst
}

// decodeOp32 decodes the OP-32 group (word forms).
func (d *Decoder) decodeOp32(opc uint32, rd, funct3, rs1, rs2 uint8) *Instruction {
	inst := &Instruction{Format: FormatOp32, Size: 4, Rd: rd, Rs1: rs1, Rs2: rs2}

	if opc&0x02000000 != 0 { // opc[25]: M extension word forms
		switch funct3 {
		case 0:
			inst.Op = OpMULW
		case 4:
			inst.Op = OpDIVW
		case 5:
			inst.Op = OpDIVUW
		case 6:
			inst.Op = OpREMW
		case 7:
			inst.Op = OpREMUW
		default:
			return nil
		}
		return inst
	}

	op30 := opc&0x40000000 != 0 // opc[30]
	switch funct3 {
	case 0:
		inst.Op = OpADDW
		if op30 {
			inst.Op = OpSUBW
		}
	case 1:
		inst.Op = OpSLLW
	case 5:
		inst.Op = OpSRLW
		if op30 {
			inst.Op = OpSRAW
		}
	default:
		return nil
	}
	return inst
}

// decodeAmo decodes the A-extension group. funct3 selects word vs
// doubleword; opc[31:27] selects the amo function.
func (d *Decoder) decodeAmo(opc uint32, rd, funct3, rs1, rs2 uint8) *Instruction {
	if funct3 != 2 && funct3 != 3 {
		return nil
	}
	inst := &Instruction{
		Format: FormatAmo, Size: 4,
		Is64Bit: funct3 == 3, Rd: rd, Rs1: rs1, Rs2: rs2,
		MemBytes: 1 << funct3,
		Aq:       opc&0x04000000 != 0, // opc[26]
		Rl:       opc&0x02000000 != 0, // opc[25]
	}

	switch opc >> 27 { // funct5
	case 0b00010:
		if rs2 != 0 {
			return nil
		}
		inst.Op = OpLR
	case 0b00011:
		inst.Op = OpSC
	case 0b00001:
		inst.Op = OpAMOSWAP
	case 0b00000:
		inst.Op = OpAMOADD
	case 0b00100:
		inst.Op = OpAMOXOR
	case 0b01100:
		inst.Op = OpAMOAND
	case 0b01000:
		inst.Op = OpAMOOR
	case 0b10000:
		inst.Op = OpAMOMIN
	case 0b10100:
		inst.Op = OpAMOMAX
	case 0b11000:
		inst.Op = OpAMOMINU
	case 0b11100:
		inst.Op = OpAMOMAXU
	default:
		return nil
	}
	return inst
}

// decodeOpFp decodes the OP-FP group. The low two bits of funct7 give
// the precision (0=single, 1=double); the upper five select the op.
func (d *Decoder) decodeOpFp(opc uint32, rd, funct3, rs1, rs2 uint8) *Instruction {
	funct7 := opc >> 25
	fmt := funct7 & 0x3
	if fmt > 1 {
		return nil
	}
	inst := &Instruction{
		Format: FormatFp, Size: 4,
		Is64Bit: fmt == 1, Rd: rd, Rs1: rs1, Rs2: rs2, RoundMode: funct3,
	}

	switch funct7 >> 2 { // funct5
	case 0b00000:
		inst.Op = OpFADD
	case 0b00001:
		inst.Op = OpFSUB
	case 0b00010:
		inst.Op = OpFMUL
	case 0b00011:
		inst.Op = OpFDIV
	case 0b01011: // FSQRT
		if rs2 != 0 {
			return nil
		}
		inst.Op = OpFSQRT
	case 0b00100: // sign injection
		switch funct3 {
		case 0:
			inst.Op = OpFSGNJ
		case 1:
			inst.Op = OpFSGNJN
		case 2:
			inst.Op = OpFSGNJX
		default:
			return nil
		}
	case 0b00101:
		switch funct3 {
		case 0:
			inst.Op = OpFMIN
		case 1:
			inst.Op = OpFMAX
		default:
			return nil
		}
	case 0b01000: // FCVT.S.D / FCVT.D.S; Is64Bit names the destination
		if rs2 > 1 {
			return nil
		}
		inst.Op = OpFCVTFpFp
	case 0b10100: // compares write an integer register
		switch funct3 {
		case 0:
			inst.Op = OpFLE
		case 1:
			inst.Op = OpFLT
		case 2:
			inst.Op = OpFEQ
		default:
			return nil
		}
	case 0b11000: // FCVT.{W,WU,L,LU}.{S,D}
		if rs2 > 3 {
			return nil
		}
		inst.Op = OpFCVTIntFp
		inst.Cvt = rs2
	case 0b11010: // FCVT.{S,D}.{W,WU,L,LU}
		if rs2 > 3 {
			return nil
		}
		inst.Op = OpFCVTFpInt
		inst.Cvt = rs2
	case 0b11100: // FMV.X.W / FMV.X.D (FCLASS not modeled)
		if funct3 != 0 || rs2 != 0 {
			return nil
		}
		inst.Op = OpFMVXF
	case 0b11110: // FMV.W.X / FMV.D.X
		if funct3 != 0 || rs2 != 0 {
			return nil
		}
		inst.Op = OpFMVFX
	default:
		return nil
	}
	return inst
}
