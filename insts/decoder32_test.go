package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nedbrek/rvfun/insts"
)

var _ = Describe("Decoder (32-bit)", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("OP-IMM", func() {
		// ADDI a0, x0, 5 -> 0x00500513
		It("should decode ADDI a0, x0, 5", func() {
			inst := decoder.Decode32(0x00500513)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(5)))
			Expect(inst.Size).To(Equal(uint8(4)))
		})

		// ADDI a0, a0, -1 -> 0xfff50513
		It("should sign-extend the I-type immediate", func() {
			inst := decoder.Decode32(0xfff50513)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Imm).To(Equal(int64(-1)))
		})

		// SLLI a0, a1, 40 -> shamt spans the full 6-bit field on RV64
		// 0x02859513
		It("should decode a 6-bit SLLI shift amount", func() {
			inst := decoder.Decode32(0x02859513)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSLLI))
			Expect(inst.Shamt).To(Equal(uint8(40)))
		})

		// SRAI a0, a1, 3 -> 0x4035d513
		It("should decode SRAI via bit 30", func() {
			inst := decoder.Decode32(0x4035d513)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Shamt).To(Equal(uint8(3)))
		})
	})

	Describe("LUI and AUIPC", func() {
		// LUI a0, 0x2 -> 0x00002537
		It("should decode LUI", func() {
			inst := decoder.Decode32(0x00002537)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(0x2000)))
		})

		// AUIPC a0, 0x1 -> 0x00001517
		It("should decode AUIPC", func() {
			inst := decoder.Decode32(0x00001517)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(inst.Imm).To(Equal(int64(0x1000)))
		})

		// LUI with the sign bit set -> 0x80000537
		It("should sign-extend the U-type immediate", func() {
			inst := decoder.Decode32(0x80000537)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Imm).To(Equal(int64(-0x80000000)))
		})
	})

	Describe("OP", func() {
		// ADD a2, a0, a1 -> 0x00b50633
		It("should decode ADD", func() {
			inst := decoder.Decode32(0x00b50633)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(uint8(12)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
		})

		// SUB a2, a0, a1 -> 0x40b50633
		It("should decode SUB via bit 30", func() {
			inst := decoder.Decode32(0x40b50633)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSUB))
		})

		// SRA a0, a1, a2 -> 0x40c5d533
		It("should decode SRA", func() {
			inst := decoder.Decode32(0x40c5d533)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSRA))
		})

		// MUL a0, a1, a2 -> 0x02c58533
		It("should decode MUL via bit 25", func() {
			inst := decoder.Decode32(0x02c58533)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpMUL))
			Expect(inst.Type()).To(Equal(insts.TypeMul))
		})

		// DIV a0, a1, a2 -> 0x02c5c533
		It("should decode DIV", func() {
			inst := decoder.Decode32(0x02c5c533)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpDIV))
			Expect(inst.Type()).To(Equal(insts.TypeDiv))
		})

		// REMU a0, a1, a2 -> 0x02c5f533
		It("should decode REMU", func() {
			inst := decoder.Decode32(0x02c5f533)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpREMU))
		})
	})

	Describe("OP-32 and OP-IMM-32", func() {
		// ADDW a0, a1, a2 -> 0x00c5853b
		It("should decode ADDW", func() {
			inst := decoder.Decode32(0x00c5853b)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDW))
			Expect(inst.Format).To(Equal(insts.FormatOp32))
		})

		// ADDIW a0, a1, -1 -> 0xfff5851b
		It("should decode ADDIW", func() {
			inst := decoder.Decode32(0xfff5851b)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDIW))
			Expect(inst.Imm).To(Equal(int64(-1)))
		})

		// SRAIW a0, a1, 3 -> 0x4035d51b
		It("should decode SRAIW", func() {
			inst := decoder.Decode32(0x4035d51b)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSRAIW))
			Expect(inst.Shamt).To(Equal(uint8(3)))
		})
	})

	Describe("LOAD and STORE", func() {
		// LW a0, 4(a1) -> 0x0045a503
		It("should decode LW", func() {
			inst := decoder.Decode32(0x0045a503)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Imm).To(Equal(int64(4)))
			Expect(inst.MemSize()).To(Equal(uint32(4)))
		})

		// LBU a0, 0(a1) -> 0x0005c503
		It("should decode LBU", func() {
			inst := decoder.Decode32(0x0005c503)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLBU))
			Expect(inst.MemSize()).To(Equal(uint32(1)))
		})

		// SD a0, 8(a1) -> 0x00a5b423
		It("should decode SD", func() {
			inst := decoder.Decode32(0x00a5b423)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSD))
			Expect(inst.Rs1).To(Equal(uint8(11)))
			Expect(inst.Rs2).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// SW a0, -4(a1) -> 0xfea5ae23
		It("should decode a negative S-type immediate", func() {
			inst := decoder.Decode32(0xfea5ae23)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Imm).To(Equal(int64(-4)))
		})
	})

	Describe("BRANCH, JAL, JALR", func() {
		// BNE a0, x0, -4 -> 0xfe051ee3
		It("should decode BNE with a negative offset", func() {
			inst := decoder.Decode32(0xfe051ee3)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpBNE))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(-4)))
		})

		// BEQ a0, a1, 8 -> 0x00b50463
		It("should decode BEQ", func() {
			inst := decoder.Decode32(0x00b50463)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// JAL ra, 8 -> 0x008000ef
		It("should decode JAL", func() {
			inst := decoder.Decode32(0x008000ef)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// JAL x0, -8 -> 0xff9ff06f
		It("should decode a backward plain jump", func() {
			inst := decoder.Decode32(0xff9ff06f)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(-8)))
		})

		// JALR ra, a0, 0 -> 0x000500e7
		It("should decode JALR", func() {
			inst := decoder.Decode32(0x000500e7)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
		})
	})

	Describe("AMO", func() {
		// LR.W a0, (a1) -> 0x1005a52f
		It("should decode LR.W", func() {
			inst := decoder.Decode32(0x1005a52f)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLR))
			Expect(inst.Is64Bit).To(BeFalse())
			Expect(inst.Type()).To(Equal(insts.TypeAtomic))
		})

		// SC.W a0, a2, (a1) -> 0x18c5a52f
		It("should decode SC.W", func() {
			inst := decoder.Decode32(0x18c5a52f)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSC))
			Expect(inst.Rs2).To(Equal(uint8(12)))
		})

		// AMOADD.W a0, a2, (a1) -> 0x00c5a52f
		It("should decode AMOADD.W", func() {
			inst := decoder.Decode32(0x00c5a52f)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpAMOADD))
			Expect(inst.MemSize()).To(Equal(uint32(4)))
		})

		// AMOSWAP.D x0, a2, (a1) -> 0x08c5b02f
		It("should decode AMOSWAP.D with rd=x0", func() {
			inst := decoder.Decode32(0x08c5b02f)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpAMOSWAP))
			Expect(inst.Is64Bit).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Dsts()).To(BeEmpty())
		})
	})

	Describe("floating point", func() {
		// FLW fa0, 0(a1) -> 0x0005a507
		It("should decode FLW", func() {
			inst := decoder.Decode32(0x0005a507)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFLW))
			Expect(inst.Is64Bit).To(BeFalse())
		})

		// FSD fa0, 8(a1) -> 0x00a5b427
		It("should decode FSD", func() {
			inst := decoder.Decode32(0x00a5b427)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFSD))
			Expect(inst.MemSize()).To(Equal(uint32(8)))
		})

		// FADD.D fa0, fa1, fa2 -> 0x02c58553
		It("should decode FADD.D", func() {
			inst := decoder.Decode32(0x02c58553)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFADD))
			Expect(inst.Is64Bit).To(BeTrue())
		})

		// FMADD.D fa0, fa1, fa2, fa3 -> 0x6ac58543
		It("should decode FMADD.D with three float sources", func() {
			inst := decoder.Decode32(0x6ac58543)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFMADD))
			Expect(inst.Rs3).To(Equal(uint8(13)))
			Expect(inst.Srcs()).To(HaveLen(3))
		})

		// FCVT.W.D a0, fa1 -> 0xc2059553
		It("should decode FCVT.W.D", func() {
			inst := decoder.Decode32(0xc2059553)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFCVTIntFp))
			Expect(inst.Cvt).To(Equal(insts.CvtW))
			Expect(inst.Dsts()).To(Equal([]insts.Reg{{Class: insts.RegInt, Num: 10}}))
		})

		// FCVT.D.W fa0, a1 -> 0xd2058553
		It("should decode FCVT.D.W", func() {
			inst := decoder.Decode32(0xd2058553)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFCVTFpInt))
			Expect(inst.Dsts()).To(Equal([]insts.Reg{{Class: insts.RegFp, Num: 10}}))
		})

		// FSGNJ.D fa0, fa1, fa1 -> 0x22b58553 (canonical FMV.D)
		It("should decode FSGNJ.D", func() {
			inst := decoder.Decode32(0x22b58553)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFSGNJ))
			Expect(inst.Rs1).To(Equal(inst.Rs2))
		})

		// FMV.X.D a0, fa1 -> 0xe2058553
		It("should decode FMV.X.D", func() {
			inst := decoder.Decode32(0xe2058553)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFMVXF))
			Expect(inst.Is64Bit).To(BeTrue())
		})
	})

	Describe("SYSTEM", func() {
		// ECALL -> 0x00000073
		It("should decode ECALL", func() {
			inst := decoder.Decode32(0x00000073)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpECALL))
			Expect(inst.Type()).To(Equal(insts.TypeSystem))
		})

		// EBREAK -> 0x00100073
		It("should return nil for EBREAK", func() {
			Expect(decoder.Decode32(0x00100073)).To(BeNil())
		})
	})

	It("should return nil for unknown major groups", func() {
		Expect(decoder.Decode32(0x0000000b)).To(BeNil()) // custom0
	})
})
