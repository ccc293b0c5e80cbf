package emu

import (
	"errors"
	"io"
	"os"
	"sync"
)

// FileDescriptor represents one guest file descriptor mapped onto a
// host file or stream.
type FileDescriptor struct {
	File *os.File  // host file; nil for stream-backed entries
	R    io.Reader // fallback reader (guest stdin in tests)
	W    io.Writer // fallback writer (guest stdout/stderr in tests)
	Path string
}

var errBadFD = errors.New("bad file descriptor")

// Read fills buf from the descriptor's backing file or stream.
func (fd *FileDescriptor) Read(buf []byte) (int, error) {
	if fd.File != nil {
		return fd.File.Read(buf)
	}
	if fd.R != nil {
		return fd.R.Read(buf)
	}
	return 0, errBadFD
}

// Write sends buf to the descriptor's backing file or stream.
func (fd *FileDescriptor) Write(buf []byte) (int, error) {
	if fd.File != nil {
		return fd.File.Write(buf)
	}
	if fd.W != nil {
		return fd.W.Write(buf)
	}
	return 0, errBadFD
}

// FDTable maps guest file descriptors to host files. A nil entry is a
// blocked descriptor (the -1 sentinel of the process image).
type FDTable struct {
	mu      sync.Mutex
	entries []*FileDescriptor
}

// NewFDTable creates a table with the three standard descriptors.
// A nil stdin leaves guest fd 0 blocked.
func NewFDTable(stdin *FileDescriptor, stdout, stderr *FileDescriptor) *FDTable {
	return &FDTable{entries: []*FileDescriptor{stdin, stdout, stderr}}
}

// Map appends a new guest descriptor and returns its number.
func (t *FDTable) Map(fd *FileDescriptor) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, fd)
	return uint64(len(t.entries) - 1)
}

// Get returns the descriptor for a guest fd, or false for unknown or
// blocked descriptors.
func (t *FDTable) Get(fd uint64) (*FileDescriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd >= uint64(len(t.entries)) || t.entries[fd] == nil {
		return nil, false
	}
	return t.entries[fd], true
}

// Close releases every host file held by the table.
func (t *FDTable) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, fd := range t.entries {
		if fd != nil && fd.File != nil {
			_ = fd.File.Close()
		}
	}
}
