package emu

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Linux riscv64 syscall numbers.
const (
	SyscallOpenat     uint64 = 56
	SyscallClose      uint64 = 57
	SyscallRead       uint64 = 63
	SyscallWrite      uint64 = 64
	SyscallWritev     uint64 = 66
	SyscallReadlinkat uint64 = 78
	SyscallFstat      uint64 = 80
	SyscallExit       uint64 = 93
	SyscallExitGroup  uint64 = 94
	SyscallUname      uint64 = 160
	SyscallGetuid     uint64 = 174
	SyscallGeteuid    uint64 = 175
	SyscallGetgid     uint64 = 176
	SyscallGetegid    uint64 = 177
	SyscallSbrk       uint64 = 214
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64
}

// SyscallHandler is the interface for handling guest syscalls.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state.
	// RISC-V Linux syscall convention:
	//   - Syscall number in a7 (x17)
	//   - Arguments in a0-a5 (x10-x15)
	//   - Return value in a0
	Handle() SyscallResult
}

// HostSystem services guest syscalls by translating them to host
// operations. It owns the process image: the fd table, the sbrk top,
// and the mmap placement cursor.
type HostSystem struct {
	regFile *RegFile
	memory  *Memory

	progName string
	args     []string

	fds      *FDTable
	topOfMem uint64 // highest in-use virtual address
	mmapTop  uint64 // next free region for mmap placements

	stdout io.Writer
	stderr io.Writer

	stdinPath string
	hostFiles bool
	hostPid   int
}

// HostSystemOption is a functional option for configuring a HostSystem.
type HostSystemOption func(*HostSystem)

// WithSysStdout sets the writer backing guest fd 1 when per-pid host
// files are not in use.
func WithSysStdout(w io.Writer) HostSystemOption {
	return func(h *HostSystem) {
		h.stdout = w
	}
}

// WithSysStderr sets the writer backing guest fd 2 and receiving
// syscall diagnostics.
func WithSysStderr(w io.Writer) HostSystemOption {
	return func(h *HostSystem) {
		h.stderr = w
	}
}

// WithProgName sets the guest program name (argv[0] and the
// readlinkat /proc/self/exe answer).
func WithProgName(name string) HostSystemOption {
	return func(h *HostSystem) {
		h.progName = name
	}
}

// WithGuestArgs sets argv[1..] for the guest.
func WithGuestArgs(args []string) HostSystemOption {
	return func(h *HostSystem) {
		h.args = args
	}
}

// WithStdinFile maps guest fd 0 onto the named host file if it opens;
// otherwise fd 0 stays blocked.
func WithStdinFile(path string) HostSystemOption {
	return func(h *HostSystem) {
		h.stdinPath = path
	}
}

// WithHostFiles redirects guest fds 1 and 2 to stdout.<pid> and
// stderr.<pid> in the current directory.
func WithHostFiles() HostSystemOption {
	return func(h *HostSystem) {
		h.hostFiles = true
	}
}

// NewHostSystem creates a host system bound to the given register file
// and memory.
func NewHostSystem(regFile *RegFile, memory *Memory, opts ...HostSystemOption) *HostSystem {
	h := &HostSystem{
		regFile:  regFile,
		memory:   memory,
		progName: "a.out",
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		hostPid:  os.Getpid(),
	}
	for _, opt := range opts {
		opt(h)
	}

	var stdin *FileDescriptor
	if h.stdinPath != "" {
		if f, err := os.Open(h.stdinPath); err == nil {
			stdin = &FileDescriptor{File: f, Path: h.stdinPath}
		}
	}

	fd1 := &FileDescriptor{W: h.stdout, Path: "stdout"}
	fd2 := &FileDescriptor{W: h.stderr, Path: "stderr"}
	if h.hostFiles {
		if f, err := os.Create(fmt.Sprintf("stdout.%d", h.hostPid)); err == nil {
			fd1 = &FileDescriptor{File: f, Path: f.Name()}
		}
		if f, err := os.Create(fmt.Sprintf("stderr.%d", h.hostPid)); err == nil {
			fd2 = &FileDescriptor{File: f, Path: f.Name()}
		}
	}

	h.fds = NewFDTable(stdin, fd1, fd2)
	return h
}

// FDs returns the guest file descriptor table.
func (h *HostSystem) FDs() *FDTable {
	return h.fds
}

// TopOfMem returns the highest in-use virtual address.
func (h *HostSystem) TopOfMem() uint64 {
	return h.topOfMem
}

// Handle executes the syscall indicated by the register file state.
func (h *HostSystem) Handle() SyscallResult {
	num := h.regFile.ReadReg(RegA7)

	switch num {
	case SyscallOpenat:
		h.openat()
	case SyscallClose:
		h.setRet(0) // not implemented
	case SyscallRead:
		h.read()
	case SyscallWrite:
		h.write()
	case SyscallWritev:
		h.writev()
	case SyscallReadlinkat:
		h.readlinkat()
	case SyscallFstat:
		h.fstat()
	case SyscallExit, SyscallExitGroup:
		return h.exit()
	case SyscallUname:
		h.uname()
	case SyscallGetuid, SyscallGeteuid, SyscallGetgid, SyscallGetegid:
		h.setRet(3)
	case SyscallSbrk:
		h.sbrk()
	default:
		fmt.Fprintf(h.stderr, " Unimplemented system call %d\n", num)
		h.setRet(0)
	}

	return SyscallResult{}
}

func (h *HostSystem) setRet(v uint64) {
	h.regFile.WriteReg(RegA0, v)
}

func (h *HostSystem) setErr() {
	h.regFile.WriteReg(RegA0, ^uint64(0)) // -1
}

// readGuestString copies a NUL-terminated string out of guest memory.
func (h *HostSystem) readGuestString(ptr uint64) string {
	var buf []byte
	for {
		b := byte(h.memory.ReadQuiet(ptr, 1))
		if b == 0 {
			return string(buf)
		}
		buf = append(buf, b)
		ptr++
	}
}

// openat copies the path from guest memory and opens it on the host.
// Writable opens are diverted to a pid-suffixed host path so a guest
// cannot clobber host files.
func (h *HostSystem) openat() {
	path := h.readGuestString(h.regFile.ReadReg(RegA1))
	flags := int(h.regFile.ReadReg(RegA2))

	if path == "/dev/tty" {
		h.setRet(1)
		return
	}

	hostPath := path
	if flags&(unix.O_WRONLY|unix.O_RDWR|unix.O_CREAT) != 0 {
		hostPath = fmt.Sprintf("%s.%d", path, h.hostPid)
	}

	f, err := os.OpenFile(hostPath, flags, 0644)
	if err != nil {
		h.setErr()
		return
	}

	h.setRet(h.fds.Map(&FileDescriptor{File: f, Path: hostPath}))
}

// read fills a guest buffer from a mapped descriptor. A blocked fd 0
// reads as EOF.
func (h *HostSystem) read() {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA1)
	count := h.regFile.ReadReg(RegA2)

	entry, ok := h.fds.Get(fd)
	if !ok {
		if fd == 0 {
			h.setRet(0) // stdin blocked: EOF
		} else {
			h.setErr()
		}
		return
	}

	buf := make([]byte, count)
	n, err := entry.Read(buf)
	if err != nil && n == 0 {
		h.setRet(0)
		return
	}

	for i := 0; i < n; i++ {
		h.memory.Write(bufPtr+uint64(i), 1, uint64(buf[i]))
	}
	h.setRet(uint64(n))
}

// write copies count bytes out of guest memory to a mapped descriptor.
func (h *HostSystem) write() {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA1)
	count := h.regFile.ReadReg(RegA2)

	entry, ok := h.fds.Get(fd)
	if !ok {
		h.setErr()
		return
	}

	buf := make([]byte, count)
	for i := uint64(0); i < count; i++ {
		buf[i] = byte(h.memory.ReadQuiet(bufPtr+i, 1))
	}

	n, err := entry.Write(buf)
	if err != nil {
		h.setErr()
		return
	}
	h.setRet(uint64(n))
}

// writev walks the iovec array (8-byte pointer, 8-byte length pairs).
// Segments for fd 1 are printed; other descriptors are logged and the
// total length returned.
func (h *HostSystem) writev() {
	fd := h.regFile.ReadReg(RegA0)
	iov := h.regFile.ReadReg(RegA1)
	iovcnt := h.regFile.ReadReg(RegA2)

	var total uint64
	for i := uint64(0); i < iovcnt; i++ {
		ptr := h.memory.ReadQuiet(iov+16*i, 8)
		length := h.memory.ReadQuiet(iov+16*i+8, 8)

		if fd == 1 {
			if entry, ok := h.fds.Get(1); ok {
				buf := make([]byte, length)
				for j := uint64(0); j < length; j++ {
					buf[j] = byte(h.memory.ReadQuiet(ptr+j, 1))
				}
				_, _ = entry.Write(buf)
			}
		} else {
			fmt.Fprintf(h.stderr, " writev fd=%d len=%d\n", fd, length)
		}
		total += length
	}
	h.setRet(total)
}

// readlinkat recognizes only /proc/self/exe, answering with the
// program name.
func (h *HostSystem) readlinkat() {
	path := h.readGuestString(h.regFile.ReadReg(RegA1))
	bufPtr := h.regFile.ReadReg(RegA2)
	bufSz := h.regFile.ReadReg(RegA3)

	if path != "/proc/self/exe" {
		fmt.Fprintf(h.stderr, " readlinkat '%s' not recognized\n", path)
		h.setErr()
		return
	}

	name := []byte(h.progName)
	n := uint64(len(name))
	if n > bufSz {
		n = bufSz
	}
	for i := uint64(0); i < n; i++ {
		h.memory.Write(bufPtr+uint64(i), 1, uint64(name[i]))
	}
	h.setRet(n)
}

// Offsets into the riscv64 struct stat (128 bytes).
const (
	statSize       = 128
	statOffDev     = 0
	statOffIno     = 8
	statOffMode    = 16
	statOffNlink   = 20
	statOffUID     = 24
	statOffGID     = 28
	statOffRdev    = 32
	statOffSizeOff = 48
	statOffBlksize = 56
	statOffBlocks  = 64
)

// fstat fills a guest stat buffer. fd 1 gets a minimal character
// device answer; other descriptors forward to the host fstat.
func (h *HostSystem) fstat() {
	fd := h.regFile.ReadReg(RegA0)
	buf := h.regFile.ReadReg(RegA1)

	for i := uint64(0); i < statSize; i++ {
		h.memory.Write(buf+i, 1, 0)
	}

	if fd == 1 {
		h.memory.Write(buf+statOffMode, 4, uint64(unix.S_IFCHR|0620))
		h.memory.Write(buf+statOffBlksize, 4, 8192)
		h.setRet(0)
		return
	}

	entry, ok := h.fds.Get(fd)
	if !ok || entry.File == nil {
		h.setErr()
		return
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(entry.File.Fd()), &st); err != nil {
		h.setErr()
		return
	}

	h.memory.Write(buf+statOffDev, 8, st.Dev)
	h.memory.Write(buf+statOffIno, 8, st.Ino)
	h.memory.Write(buf+statOffMode, 4, uint64(st.Mode))
	h.memory.Write(buf+statOffNlink, 4, uint64(st.Nlink))
	h.memory.Write(buf+statOffUID, 4, uint64(st.Uid))
	h.memory.Write(buf+statOffGID, 4, uint64(st.Gid))
	h.memory.Write(buf+statOffRdev, 8, st.Rdev)
	h.memory.Write(buf+statOffSizeOff, 8, uint64(st.Size))
	h.memory.Write(buf+statOffBlksize, 4, uint64(st.Blksize))
	h.memory.Write(buf+statOffBlocks, 8, uint64(st.Blocks))
	h.setRet(0)
}

// exit records the guest status and terminates the run.
func (h *HostSystem) exit() SyscallResult {
	status := h.regFile.ReadReg(RegA0)
	if status != 0 {
		fmt.Fprintf(h.stderr, "Program exited with non-zero status: %d\n", status)
	}
	return SyscallResult{Exited: true, ExitCode: int64(status)}
}

// utsname field layout: 6 fields of 65 bytes.
const utsFieldLen = 65

// uname fills a minimal utsname: sysname "Linux", release "4.15.0".
func (h *HostSystem) uname() {
	buf := h.regFile.ReadReg(RegA0)
	if buf == 0 {
		h.setErr()
		return
	}

	for i := uint64(0); i < 6*utsFieldLen; i++ {
		h.memory.Write(buf+i, 1, 0)
	}
	for i, b := range []byte("Linux") {
		h.memory.Write(buf+uint64(i), 1, uint64(b))
	}
	for i, b := range []byte("4.15.0") {
		h.memory.Write(buf+2*utsFieldLen+uint64(i), 1, uint64(b))
	}
	h.setRet(0)
}

// sbrk grows the memory image. The requested top arrives in a5; the
// resulting top is returned in a0. Shrinking is a no-op.
func (h *HostSystem) sbrk() {
	newTop := h.regFile.ReadReg(RegA5)
	if newTop == 0 || newTop <= h.topOfMem {
		h.setRet(h.topOfMem)
		return
	}

	delta := newTop - h.topOfMem
	h.memory.AddBlock(h.topOfMem+1, delta, nil)
	h.topOfMem = newTop
	h.setRet(h.topOfMem)
}
