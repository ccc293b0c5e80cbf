package emu

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// memBlock is one contiguous mapped range of the guest address space.
type memBlock struct {
	base uint64
	data []byte
}

func (b *memBlock) end() uint64 {
	return b.base + uint64(len(b.data))
}

// Memory is a sparse, block-granular view of the guest virtual address
// space. Accesses must fall entirely within a single block; faults are
// logged and recovered (reads return 0, writes are dropped) so that
// misbehaving guests can be observed rather than crashing the
// simulator.
type Memory struct {
	blocks []*memBlock

	faultLog io.Writer // diagnostics for unmapped or cross-block accesses
	trace    io.Writer // optional per-access logging (verbose mode)
}

// NewMemory creates an empty sparse memory. Faults log to stderr until
// redirected with SetFaultLog.
func NewMemory() *Memory {
	return &Memory{faultLog: os.Stderr}
}

// SetFaultLog redirects fault diagnostics.
func (m *Memory) SetFaultLog(w io.Writer) {
	m.faultLog = w
}

// SetTrace enables per-access logging to w. Pass nil to disable.
func (m *Memory) SetTrace(w io.Writer) {
	m.trace = w
}

// AddBlock maps [va, va+size) with the given initial bytes (zero-filled
// when init is nil or short). A block whose base equals the end of an
// existing block grows that block in place; other overlaps are not
// supported.
func (m *Memory) AddBlock(va uint64, size uint64, init []byte) {
	for _, b := range m.blocks {
		if va == b.end() {
			grown := make([]byte, size)
			copy(grown, init)
			b.data = append(b.data, grown...)
			return
		}
	}

	data := make([]byte, size)
	copy(data, init)
	m.blocks = append(m.blocks, &memBlock{base: va, data: data})
}

// find returns the block containing the full range [va, va+size), or
// nil. crossed reports a range that starts inside a block but runs off
// its end.
func (m *Memory) find(va uint64, size uint32) (blk *memBlock, crossed bool) {
	for _, b := range m.blocks {
		if b.base <= va && va < b.end() {
			if va+uint64(size) <= b.end() {
				return b, false
			}
			return nil, true
		}
	}
	return nil, false
}

// Read reads size bytes (1, 2, 4, or 8) at va, little-endian packed
// into the low bytes of the result. Faults return 0.
func (m *Memory) Read(va uint64, size uint32) uint64 {
	val := m.read(va, size, true)
	if m.trace != nil {
		fmt.Fprintf(m.trace, " readMem %x %d %x", va, size, val)
	}
	return val
}

// ReadQuiet is a side-effect-free read used for instruction fetch and
// for copying guest buffers out of syscall implementations. It neither
// logs faults nor traces.
func (m *Memory) ReadQuiet(va uint64, size uint32) uint64 {
	return m.read(va, size, false)
}

func (m *Memory) read(va uint64, size uint32, loud bool) uint64 {
	blk, crossed := m.find(va, size)
	if blk == nil {
		if loud {
			m.fault(va, size, crossed)
		}
		return 0
	}

	off := va - blk.base
	var buf [8]byte
	copy(buf[:], blk.data[off:off+uint64(size)])
	return binary.LittleEndian.Uint64(buf[:])
}

// Write stores the low size bytes of val at va, little-endian. Faults
// drop the write.
func (m *Memory) Write(va uint64, size uint32, val uint64) {
	if m.trace != nil {
		fmt.Fprintf(m.trace, " writeMem %x %d %x", va, size, val)
	}

	blk, crossed := m.find(va, size)
	if blk == nil {
		m.fault(va, size, crossed)
		return
	}

	off := va - blk.base
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	copy(blk.data[off:off+uint64(size)], buf[:size])
}

func (m *Memory) fault(va uint64, size uint32, crossed bool) {
	if crossed {
		fmt.Fprintf(m.faultLog, "Cross block access: %x %d\n", va, size)
		return
	}
	fmt.Fprintf(m.faultLog, "Access outside of allocated memory: %x %d\n", va, size)
}
