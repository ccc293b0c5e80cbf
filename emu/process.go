package emu

import (
	"github.com/nedbrek/rvfun/loader"
)

// Guest stack placement.
const (
	StackBase uint64 = 0x10000000
	StackSize uint64 = 4 << 20
)

// roundUp rounds v up to the next multiple of align.
func roundUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	if rem := v % align; rem != 0 {
		return v + align - rem
	}
	return v
}

// LoadProgram maps a parsed ELF image into guest memory. Each PT_LOAD
// segment is expanded to its memory size (BSS) and its upper end is
// rounded up to the segment alignment so later heap growth lands on a
// block boundary. Sets the entry point and tracks the top of memory.
func (h *HostSystem) LoadProgram(prog *loader.Program) {
	for _, seg := range prog.Segments {
		end := roundUp(seg.VirtAddr+seg.MemSize, seg.Align)
		size := end - seg.VirtAddr

		buf := make([]byte, size)
		copy(buf, seg.Data)
		h.memory.AddBlock(seg.VirtAddr, size, buf)

		if end-1 > h.topOfMem {
			h.topOfMem = end - 1
		}
	}

	h.regFile.PC = prog.EntryPoint
}

// SetupStack maps the stack block and lays out the guest argument
// vector. The argv strings pack downward from the top of the block,
// 16-byte aligned; argc sits at the block midpoint with the argv
// pointers following, matching the Linux startup convention. SP lands
// on the argc word, a0 holds argc and a1 its address.
func (h *HostSystem) SetupStack() {
	h.memory.AddBlock(StackBase, StackSize, nil)

	argv := append([]string{h.progName}, h.args...)
	addrs := make([]uint64, len(argv))

	cursor := StackBase + StackSize
	for i := len(argv) - 1; i >= 0; i-- {
		cursor -= uint64(len(argv[i]) + 1)
		cursor &^= 0xf
		addrs[i] = cursor
		for j, b := range []byte(argv[i]) {
			h.memory.Write(cursor+uint64(j), 1, uint64(b))
		}
		h.memory.Write(cursor+uint64(len(argv[i])), 1, 0)
	}

	mid := StackBase + StackSize/2
	h.memory.Write(mid, 8, uint64(len(argv)))
	for i, a := range addrs {
		h.memory.Write(mid+8+8*uint64(i), 8, a)
	}

	h.regFile.WriteReg(RegSP, mid)
	h.regFile.WriteReg(RegA0, uint64(len(argv)))
	h.regFile.WriteReg(RegA1, mid)

	h.mmapTop = StackBase + StackSize
}
