// Package loader provides ELF binary loading for RV64 executables.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Align is the requested segment alignment.
	Align uint64
	// Flags contains the ELF segment protection flags.
	Flags elf.ProgFlag
}

// Program represents a loaded ELF image ready for execution.
type Program struct {
	// Path is the host path the image was read from.
	Path string
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint64
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// elfMagic is the 4-byte identification prefix.
var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// Load memory-maps an ELF executable and extracts its PT_LOAD
// segments. Only 64-bit (ELFCLASS64) images are accepted; neither the
// byte order nor the machine type is checked.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap %s: %w", path, err)
	}
	defer func() { _ = m.Unmap() }()

	if len(m) < 5 || !bytes.Equal(m[:4], elfMagic) {
		return nil, fmt.Errorf("badly formed ELF %s", path)
	}
	if m[elf.EI_CLASS] != byte(elf.ELFCLASS64) {
		return nil, fmt.Errorf("%s is not a 64 bit executable", path)
	}

	ef, err := elf.NewFile(bytes.NewReader(m))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	prog := &Program{
		Path:       path,
		EntryPoint: ef.Entry,
	}

	for _, phdr := range ef.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		// Copy out of the mapping so the segment outlives the unmap.
		if phdr.Off+phdr.Filesz > uint64(len(m)) {
			return nil, fmt.Errorf("segment at 0x%x overruns %s", phdr.Vaddr, path)
		}
		data := make([]byte, phdr.Filesz)
		copy(data, m[phdr.Off:phdr.Off+phdr.Filesz])

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Align:    phdr.Align,
			Flags:    phdr.Flags,
		})
	}

	return prog, nil
}
