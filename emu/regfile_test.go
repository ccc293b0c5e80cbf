package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nedbrek/rvfun/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = &emu.RegFile{}
	})

	It("should read back written values", func() {
		regFile.WriteReg(5, 0xdeadbeef)
		Expect(regFile.ReadReg(5)).To(Equal(uint64(0xdeadbeef)))
	})

	It("should hardwire register 0 to zero", func() {
		regFile.WriteReg(0, 0xffff)
		Expect(regFile.ReadReg(0)).To(Equal(uint64(0)))
		Expect(regFile.X[0]).To(Equal(uint64(0)))
	})

	It("should ignore out-of-range register numbers", func() {
		regFile.WriteReg(40, 1)
		Expect(regFile.ReadReg(40)).To(Equal(uint64(0)))
	})
})

var _ = Describe("FPRegFile", func() {
	var fp *emu.FPRegFile

	BeforeEach(func() {
		fp = &emu.FPRegFile{}
	})

	It("should NaN-box single-precision writes", func() {
		fp.WriteFloat(3, 1.5)

		Expect(fp.ReadFloat(3)).To(Equal(float32(1.5)))
		Expect(fp.ReadRaw(3) >> 32).To(Equal(uint64(0xffffffff)))
		Expect(math.IsNaN(fp.ReadDouble(3))).To(BeTrue())
	})

	It("should store double-precision values verbatim", func() {
		fp.WriteDouble(7, -2.25)

		Expect(fp.ReadDouble(7)).To(Equal(-2.25))
		Expect(fp.ReadRaw(7)).To(Equal(math.Float64bits(-2.25)))
	})

	It("should NaN-box raw single-precision bits", func() {
		fp.WriteRaw32(1, math.Float32bits(3.0))
		Expect(fp.ReadFloat(1)).To(Equal(float32(3.0)))
		Expect(fp.ReadRaw(1) >> 32).To(Equal(uint64(0xffffffff)))
	})
})

var _ = Describe("CSRFile", func() {
	var csrs *emu.CSRFile

	BeforeEach(func() {
		csrs = emu.NewCSRFile()
	})

	It("should read 0 for unwritten registers", func() {
		Expect(csrs.Read(emu.CSRFcsr)).To(Equal(uint64(0)))
	})

	It("should alias frm into fcsr[7:5]", func() {
		csrs.Write(emu.CSRFrm, 5)

		Expect(csrs.Read(emu.CSRFrm)).To(Equal(uint64(5)))
		Expect(csrs.Read(emu.CSRFcsr)).To(Equal(uint64(5 << 5)))
	})

	It("should alias fflags into fcsr[4:0]", func() {
		csrs.Write(emu.CSRFflags, 0x1f)

		Expect(csrs.Read(emu.CSRFflags)).To(Equal(uint64(0x1f)))
		Expect(csrs.Read(emu.CSRFcsr)).To(Equal(uint64(0x1f)))
	})

	It("should preserve the other subfield on partial writes", func() {
		csrs.Write(emu.CSRFcsr, 0xff)
		csrs.Write(emu.CSRFrm, 0)

		Expect(csrs.Read(emu.CSRFflags)).To(Equal(uint64(0x1f)))
		Expect(csrs.Read(emu.CSRFcsr)).To(Equal(uint64(0x1f)))
	})

	It("should expose subfields of a direct fcsr write", func() {
		csrs.Write(emu.CSRFcsr, 0xff)

		Expect(csrs.Read(emu.CSRFrm)).To(Equal(uint64(7)))
		Expect(csrs.Read(emu.CSRFflags)).To(Equal(uint64(0x1f)))
	})

	It("should mask write values to the subfield width", func() {
		csrs.Write(emu.CSRFrm, 0xff)
		Expect(csrs.Read(emu.CSRFrm)).To(Equal(uint64(7)))
	})
})
