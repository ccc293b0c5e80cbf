package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nedbrek/rvfun/insts"
)

var _ = Describe("Decoder (compressed)", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("quadrant 1", func() {
		// C.LI a1, -4 -> 0x55f1
		It("should decode C.LI a1, -4", func() {
			inst := decoder.Decode16(0x55f1)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.COp).To(Equal(insts.CLI))
			Expect(inst.Rd).To(Equal(uint8(11)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(-4)))
			Expect(inst.Size).To(Equal(uint8(2)))
		})

		// C.LI a2, 1 -> 0x4605
		It("should decode C.LI a2, 1", func() {
			inst := decoder.Decode16(0x4605)

			Expect(inst).NotTo(BeNil())
			Expect(inst.COp).To(Equal(insts.CLI))
			Expect(inst.Rd).To(Equal(uint8(12)))
			Expect(inst.Imm).To(Equal(int64(1)))
		})

		// C.ADDW a2, a1 -> 0x9e2d
		It("should decode C.ADDW a2, a1", func() {
			inst := decoder.Decode16(0x9e2d)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDW))
			Expect(inst.Format).To(Equal(insts.FormatOp32))
			Expect(inst.Rd).To(Equal(uint8(12)))
			Expect(inst.Rs1).To(Equal(uint8(12)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
		})

		// C.ADDI sp, -32 -> 0x1101
		It("should decode C.ADDI", func() {
			inst := decoder.Decode16(0x1101)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.COp).To(Equal(insts.CADDI))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(-32)))
		})

		// C.ADDIW a5, -1 -> 0x37fd
		It("should decode C.ADDIW", func() {
			inst := decoder.Decode16(0x37fd)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDIW))
			Expect(inst.Rd).To(Equal(uint8(15)))
			Expect(inst.Imm).To(Equal(int64(-1)))
		})

		// C.ADDI16SP 496 -> 0x617d
		// opc[12]=0, opc[6:2]=0b11111: imm[4]=1, imm[6]=1, imm[8:7]=3, imm[5]=1
		It("should decode C.ADDI16SP", func() {
			inst := decoder.Decode16(0x617d)

			Expect(inst).NotTo(BeNil())
			Expect(inst.COp).To(Equal(insts.CADDI16SP))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(496)))
		})

		// C.LUI a3, 0x1 -> 0x6685 (imm = 0x1000)
		It("should decode C.LUI", func() {
			inst := decoder.Decode16(0x6685)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Rd).To(Equal(uint8(13)))
			Expect(inst.Imm).To(Equal(int64(0x1000)))
		})

		// C.SRLI a0, 2 -> 0x8109
		It("should decode C.SRLI", func() {
			inst := decoder.Decode16(0x8109)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSRLI))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Shamt).To(Equal(uint8(2)))
		})

		// C.ANDI a0, 15 -> 0x893d
		It("should decode C.ANDI", func() {
			inst := decoder.Decode16(0x893d)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpANDI))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(15)))
		})

		// C.SUB a0, a1 -> 0x8d0d
		It("should decode C.SUB", func() {
			inst := decoder.Decode16(0x8d0d)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
		})

		// C.J 0 -> 0xa001
		It("should decode C.J as a JAL with rd=0", func() {
			inst := decoder.Decode16(0xa001)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(0)))
		})

		// C.BEQZ a0, 16 -> 0xc901
		// opc[11:10] -> imm[4:3] = 0b10
		It("should decode C.BEQZ", func() {
			inst := decoder.Decode16(0xc901)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.COp).To(Equal(insts.CBEQZ))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		// C.BNEZ a0, -4 -> 0xfd75
		It("should decode C.BNEZ with a negative offset", func() {
			inst := decoder.Decode16(0xfd75)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpBNE))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(-4)))
		})
	})

	Describe("quadrant 0", func() {
		// C.ADDI4SPN a0, sp, 16 -> 0x0808
		It("should decode C.ADDI4SPN", func() {
			inst := decoder.Decode16(0x0808)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.COp).To(Equal(insts.CADDI4SPN))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		It("should reject the all-zero word", func() {
			Expect(decoder.Decode16(0x0000)).To(BeNil())
		})

		// C.LW a0, 4(a1) -> 0x41c8
		It("should decode C.LW", func() {
			inst := decoder.Decode16(0x41c8)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(11)))
			Expect(inst.Imm).To(Equal(int64(4)))
			Expect(inst.MemSize()).To(Equal(uint32(4)))
		})

		// C.LD a0, 8(a1) -> 0x6588
		It("should decode C.LD", func() {
			inst := decoder.Decode16(0x6588)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLD))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(11)))
			Expect(inst.Imm).To(Equal(int64(8)))
			Expect(inst.MemSize()).To(Equal(uint32(8)))
		})

		// C.SW a0, 4(a1) -> 0xc1c8
		It("should decode C.SW and name its data source", func() {
			inst := decoder.Decode16(0xc1c8)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Rs1).To(Equal(uint8(11)))
			Expect(inst.Rs2).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(4)))

			data, isStore := inst.StoreSrc()
			Expect(isStore).To(BeTrue())
			Expect(data).To(Equal(insts.Reg{Class: insts.RegInt, Num: 10}))
		})

		// C.SD a0, 8(a1) -> 0xe588
		It("should decode C.SD", func() {
			inst := decoder.Decode16(0xe588)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSD))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		// C.FLD fa0, 16(a1) -> 0x2988
		It("should decode C.FLD into the float file", func() {
			inst := decoder.Decode16(0x2988)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpFLD))
			Expect(inst.Dsts()).To(Equal([]insts.Reg{{Class: insts.RegFp, Num: 10}}))
			Expect(inst.Imm).To(Equal(int64(16)))
		})
	})

	Describe("quadrant 2", func() {
		// C.SLLI a0, 3 -> 0x050e
		It("should decode C.SLLI", func() {
			inst := decoder.Decode16(0x050e)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSLLI))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Shamt).To(Equal(uint8(3)))
		})

		// C.LWSP a0, 12(sp) -> 0x4532
		It("should decode C.LWSP", func() {
			inst := decoder.Decode16(0x4532)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(12)))
		})

		// C.LDSP a0, 16(sp) -> 0x6542
		It("should decode C.LDSP", func() {
			inst := decoder.Decode16(0x6542)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpLD))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		// C.SWSP a0, 12(sp) -> 0xc62a
		It("should decode C.SWSP", func() {
			inst := decoder.Decode16(0xc62a)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(12)))
		})

		// C.SDSP a0, 16(sp) -> 0xe82a
		It("should decode C.SDSP", func() {
			inst := decoder.Decode16(0xe82a)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpSD))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		// C.JR ra -> 0x8082
		It("should decode C.JR as a plain indirect jump", func() {
			inst := decoder.Decode16(0x8082)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
		})

		// C.MV a0, a1 -> 0x852e
		It("should decode C.MV as ADD rd, x0, rs", func() {
			inst := decoder.Decode16(0x852e)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.COp).To(Equal(insts.CMV))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
		})

		// C.JALR a0 -> 0x9502
		It("should decode C.JALR linking through ra", func() {
			inst := decoder.Decode16(0x9502)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
		})

		// C.ADD a0, a1 -> 0x952e
		It("should decode C.ADD", func() {
			inst := decoder.Decode16(0x952e)

			Expect(inst).NotTo(BeNil())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.COp).To(Equal(insts.CADD))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
		})

		// C.EBREAK -> 0x9002
		It("should return nil for C.EBREAK", func() {
			Expect(decoder.Decode16(0x9002)).To(BeNil())
		})
	})
})
