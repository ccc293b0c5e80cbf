package insts

// Decoder decodes RV64GC machine code into instructions.
// Both entry points are pure: they inspect only the opcode word and
// never touch architectural state.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes an opcode word of either width. Words whose low two
// bits are both set are 32-bit encodings; anything else is compressed.
// Returns nil for encodings outside RV64GC.
func (d *Decoder) Decode(word uint32) *Instruction {
	if word&0x3 == 0x3 {
		return d.Decode32(word)
	}
	return d.Decode16(uint16(word))
}

// signExtend sign-extends the low `bits` bits of v.
func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// rvc register-prime fields select x8..x15 (f8..f15).
func regPrime(v uint16) uint8 {
	return uint8(v&0x7) + 8
}

// Decode16 decodes a 16-bit compressed encoding.
// Dispatch is on bits [1:0] (quadrant) then [15:13].
func (d *Decoder) Decode16(opc uint16) *Instruction {
	switch opc & 0x3 {
	case 0:
		return d.decodeQuadrant0(opc)
	case 1:
		return d.decodeQuadrant1(opc)
	case 2:
		return d.decodeQuadrant2(opc)
	}
	return nil // 3 means this is not a compressed opcode
}

// decodeQuadrant0 handles the register-prime loads and stores.
func (d *Decoder) decodeQuadrant0(opc uint16) *Instruction {
	funct3 := (opc >> 13) & 0x7
	rs1p := regPrime(opc >> 7) // opc[9:7]
	rdp := regPrime(opc >> 2)  // opc[4:2]

	// C.LW/C.SW immediate: opc[12:10] -> imm[5:3], opc[6] -> imm[2], opc[5] -> imm[6]
	immW := uint64(opc>>10&0x7) << 3
	immW |= uint64(opc>>6&0x1) << 2
	immW |= uint64(opc>>5&0x1) << 6

	// C.LD/C.SD/C.FLD/C.FSD immediate: opc[12:10] -> imm[5:3], opc[6:5] -> imm[7:6]
	immD := uint64(opc>>10&0x7) << 3
	immD |= uint64(opc>>5&0x3) << 6

	switch funct3 {
	case 0b000: // C.ADDI4SPN
		// opc[10:7] -> imm[9:6], opc[12:11] -> imm[5:4], opc[5] -> imm[3], opc[6] -> imm[2]
		imm := uint64(opc>>7&0xf) << 6
		imm |= uint64(opc>>11&0x3) << 4
		imm |= uint64(opc>>5&0x1) << 3
		imm |= uint64(opc>>6&0x1) << 2
		if imm == 0 {
			return nil // reserved
		}
		return &Instruction{
			Op: OpADDI, Format: FormatOpImm, COp: CADDI4SPN, Size: 2,
			Rd: rdp, Rs1: 2, Imm: int64(imm),
		}

	case 0b001: // C.FLD
		return &Instruction{
			Op: OpFLD, Format: FormatFpLoad, COp: CFLD, Size: 2,
			Is64Bit: true, Rd: rdp, Rs1: rs1p, Imm: int64(immD), MemBytes: 8,
		}

	case 0b010: // C.LW
		return &Instruction{
			Op: OpLW, Format: FormatLoad, COp: CLW, Size: 2,
			Rd: rdp, Rs1: rs1p, Imm: int64(immW), MemBytes: 4,
		}

	case 0b011: // C.LD
		return &Instruction{
			Op: OpLD, Format: FormatLoad, COp: CLD, Size: 2,
			Rd: rdp, Rs1: rs1p, Imm: int64(immD), MemBytes: 8,
		}

	case 0b101: // C.FSD
		return &Instruction{
			Op: OpFSD, Format: FormatFpStore, COp: CFSD, Size: 2,
			Is64Bit: true, Rs1: rs1p, Rs2: rdp, Imm: int64(immD), MemBytes: 8,
		}

	case 0b110: // C.SW
		return &Instruction{
			Op: OpSW, Format: FormatStore, COp: CSW, Size: 2,
			Rs1: rs1p, Rs2: rdp, Imm: int64(immW), MemBytes: 4,
		}

	case 0b111: // C.SD
		return &Instruction{
			Op: OpSD, Format: FormatStore, COp: CSD, Size: 2,
			Rs1: rs1p, Rs2: rdp, Imm: int64(immD), MemBytes: 8,
		}
	}
	return nil
}

// decodeQuadrant1 handles the common immediate ALU ops and jumps.
func (d *Decoder) decodeQuadrant1(opc uint16) *Instruction {
	funct3 := (opc >> 13) & 0x7
	rd := uint8(opc>>7) & 0x1f // opc[11:7]

	// 6-bit immediate: opc[12] -> imm[5] (sign), opc[6:2] -> imm[4:0]
	imm6 := signExtend(uint64(opc>>12&0x1)<<5|uint64(opc>>2&0x1f), 6)

	switch funct3 {
	case 0b000: // C.ADDI (C.NOP when rd=0)
		return &Instruction{
			Op: OpADDI, Format: FormatOpImm, COp: CADDI, Size: 2,
			Rd: rd, Rs1: rd, Imm: imm6,
		}

	case 0b001: // C.ADDIW
		if rd == 0 {
			return nil // reserved
		}
		return &Instruction{
			Op: OpADDIW, Format: FormatOpImm32, COp: CADDIW, Size: 2,
			Rd: rd, Rs1: rd, Imm: imm6,
		}

	case 0b010: // C.LI
		return &Instruction{
			Op: OpADDI, Format: FormatOpImm, COp: CLI, Size: 2,
			Rd: rd, Rs1: 0, Imm: imm6,
		}

	case 0b011: // C.LUI / C.ADDI16SP
		if rd == 2 {
			// opc[12] -> imm[9] (sign), opc[4:3] -> imm[8:7], opc[5] -> imm[6],
			// opc[2] -> imm[5], opc[6] -> imm[4]
			imm := uint64(opc>>12&0x1) << 9
			imm |= uint64(opc>>3&0x3) << 7
			imm |= uint64(opc>>5&0x1) << 6
			imm |= uint64(opc>>2&0x1) << 5
			imm |= uint64(opc>>6&0x1) << 4
			if imm == 0 {
				return nil // reserved
			}
			return &Instruction{
				Op: OpADDI, Format: FormatOpImm, COp: CADDI16SP, Size: 2,
				Rd: 2, Rs1: 2, Imm: signExtend(imm, 10),
			}
		}
		// opc[12] -> imm[17] (sign), opc[6:2] -> imm[16:12]
		imm := uint64(opc>>12&0x1) << 17
		imm |= uint64(opc>>2&0x1f) << 12
		if imm == 0 {
			return nil // reserved
		}
		return &Instruction{
			Op: OpLUI, Format: FormatLui, COp: CLUI, Size: 2,
			Rd: rd, Imm: signExtend(imm, 18),
		}

	case 0b100: // shifts, C.ANDI, register-prime ALU
		rsd := regPrime(opc >> 7)
		switch (opc >> 10) & 0x3 { // opc[11:10]
		case 0b00, 0b01: // C.SRLI / C.SRAI
			shamt := uint8(opc>>12&0x1)<<5 | uint8(opc>>2)&0x1f
			op := OpSRLI
			cop := CSRLI
			if opc>>10&0x3 == 0b01 {
				op = OpSRAI
				cop = CSRAI
			}
			return &Instruction{
				Op: op, Format: FormatOpImm, COp: cop, Size: 2,
				Rd: rsd, Rs1: rsd, Shamt: shamt,
			}
		case 0b10: // C.ANDI
			return &Instruction{
				Op: OpANDI, Format: FormatOpImm, COp: CANDI, Size: 2,
				Rd: rsd, Rs1: rsd, Imm: imm6,
			}
		case 0b11:
			rs2p := regPrime(opc >> 2)
			if opc&0x1000 == 0 { // opc[12]=0: 64-bit forms
				ops := [4]Op{OpSUB, OpXOR, OpOR, OpAND}
				cops := [4]COp{CSUB, CXOR, COR, CAND}
				fun := opc >> 5 & 0x3 // opc[6:5]
				return &Instruction{
					Op: ops[fun], Format: FormatOp, COp: cops[fun], Size: 2,
					Rd: rsd, Rs1: rsd, Rs2: rs2p,
				}
			}
			switch opc >> 5 & 0x3 { // opc[6:5]
			case 0b00:
				return &Instruction{
					Op: OpSUBW, Format: FormatOp32, COp: CSUBW, Size: 2,
					Rd: rsd, Rs1: rsd, Rs2: rs2p,
				}
			case 0b01:
				return &Instruction{
					Op: OpADDW, Format: FormatOp32, COp: CADDW, Size: 2,
					Rd: rsd, Rs1: rsd, Rs2: rs2p,
				}
			}
			return nil // reserved
		}

	case 0b101: // C.J
		// opc[12] -> imm[11], opc[11] -> imm[4], opc[10:9] -> imm[9:8],
		// opc[8] -> imm[10], opc[7] -> imm[6], opc[6] -> imm[7],
		// opc[5:3] -> imm[3:1], opc[2] -> imm[5]
		imm := uint64(opc>>12&0x1) << 11
		imm |= uint64(opc>>11&0x1) << 4
		imm |= uint64(opc>>9&0x3) << 8
		imm |= uint64(opc>>8&0x1) << 10
		imm |= uint64(opc>>7&0x1) << 6
		imm |= uint64(opc>>6&0x1) << 7
		imm |= uint64(opc>>3&0x7) << 1
		imm |= uint64(opc>>2&0x1) << 5
		return &Instruction{
			Op: OpJAL, Format: FormatJal, COp: CJ, Size: 2,
			Rd: 0, Imm: signExtend(imm, 12),
		}

	case 0b110, 0b111: // C.BEQZ / C.BNEZ
		// opc[12] -> imm[8], opc[11:10] -> imm[4:3], opc[6:5] -> imm[7:6],
		// opc[4:3] -> imm[2:1], opc[2] -> imm[5]
		imm := uint64(opc>>12&0x1) << 8
		imm |= uint64(opc>>10&0x3) << 3
		imm |= uint64(opc>>5&0x3) << 6
		imm |= uint64(opc>>3&0x3) << 1
		imm |= uint64(opc>>2&0x1) << 5
		op := OpBEQ
		cop := CBEQZ
		if funct3 == 0b111 {
			op = OpBNE
			cop = CBNEZ
		}
		return &Instruction{
			Op: op, Format: FormatBranch, COp: cop, Size: 2,
			Rs1: regPrime(opc >> 7), Rs2: 0, Imm: signExtend(imm, 9),
		}
	}
	return nil
}

// decodeQuadrant2 handles the SP-relative memory ops and register moves.
func (d *Decoder) decodeQuadrant2(opc uint16) *Instruction {
	funct3 := (opc >> 13) & 0x7
	rd := uint8(opc>>7) & 0x1f  // opc[11:7]
	rs2 := uint8(opc>>2) & 0x1f // opc[6:2]

	switch funct3 {
	case 0b000: // C.SLLI
		shamt := uint8(opc>>12&0x1)<<5 | rs2&0x1f
		return &Instruction{
			Op: OpSLLI, Format: FormatOpImm, COp: CSLLI, Size: 2,
			Rd: rd, Rs1: rd, Shamt: shamt,
		}

	case 0b010: // C.LWSP
		if rd == 0 {
			return nil // reserved
		}
		// opc[12] -> imm[5], opc[6:4] -> imm[4:2], opc[3:2] -> imm[7:6]
		imm := uint64(opc>>12&0x1) << 5
		imm |= uint64(opc>>4&0x7) << 2
		imm |= uint64(opc>>2&0x3) << 6
		return &Instruction{
			Op: OpLW, Format: FormatLoad, COp: CLWSP, Size: 2,
			Rd: rd, Rs1: 2, Imm: int64(imm), MemBytes: 4,
		}

	case 0b011: // C.LDSP
		if rd == 0 {
			return nil // reserved
		}
		// opc[12] -> imm[5], opc[6:5] -> imm[4:3], opc[4:2] -> imm[8:6]
		imm := uint64(opc>>12&0x1) << 5
		imm |= uint64(opc>>5&0x3) << 3
		imm |= uint64(opc>>2&0x7) << 6
		return &Instruction{
			Op: OpLD, Format: FormatLoad, COp: CLDSP, Size: 2,
			Rd: rd, Rs1: 2, Imm: int64(imm), MemBytes: 8,
		}

	case 0b100:
		if opc&0x1000 == 0 { // opc[12]=0: C.JR / C.MV
			if rs2 == 0 {
				if rd == 0 {
					return nil // reserved
				}
				return &Instruction{
					Op: OpJALR, Format: FormatJalr, COp: CJR, Size: 2,
					Rd: 0, Rs1: rd,
				}
			}
			return &Instruction{
				Op: OpADD, Format: FormatOp, COp: CMV, Size: 2,
				Rd: rd, Rs1: 0, Rs2: rs2,
			}
		}
		// opc[12]=1: C.EBREAK / C.JALR / C.ADD
		if rd == 0 {
			return nil // C.EBREAK not modeled
		}
		if rs2 == 0 {
			return &Instruction{
				Op: OpJALR, Format: FormatJalr, COp: CJALR, Size: 2,
				Rd: 1, Rs1: rd,
			}
		}
		return &Instruction{
			Op: OpADD, Format: FormatOp, COp: CADD, Size: 2,
			Rd: rd, Rs1: rd, Rs2: rs2,
		}

	case 0b110: // C.SWSP
		// opc[12:9] -> imm[5:2], opc[8:7] -> imm[7:6]
		imm := uint64(opc>>9&0xf) << 2
		imm |= uint64(opc>>7&0x3) << 6
		return &Instruction{
			Op: OpSW, Format: FormatStore, COp: CSWSP, Size: 2,
			Rs1: 2, Rs2: rs2, Imm: int64(imm), MemBytes: 4,
		}

	case 0b111: // C.SDSP
		// opc[12:10] -> imm[5:3], opc[9:7] -> imm[8:6]
		imm := uint64(opc>>10&0x7) << 3
		imm |= uint64(opc>>7&0x7) << 6
		return &Instruction{
			Op: OpSD, Format: FormatStore, COp: CSDSP, Size: 2,
			Rs1: 2, Rs2: rs2, Imm: int64(imm), MemBytes: 8,
		}
	}
	return nil
}
