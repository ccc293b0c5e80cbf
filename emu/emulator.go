package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/nedbrek/rvfun/insts"
)

// StopReason records why the fetch/execute loop stopped.
type StopReason uint8

// Stop reasons.
const (
	StopNone        StopReason = iota
	StopExited                 // guest called exit/exit_group
	StopShellReturn            // PC entered the low sentinel region
	StopLimit                  // instruction budget exhausted
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if execution should stop.
	Exited bool

	// ExitCode is the guest exit status if Exited is true.
	ExitCode int64

	// Reason records why execution stopped.
	Reason StopReason

	// Err is set if an internal error occurred during execution.
	Err error
}

// Emulator executes RV64GC instructions functionally.
type Emulator struct {
	regFile        *RegFile
	fpRegFile      *FPRegFile
	csrs           *CSRFile
	memory         *Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler

	// I/O
	stdout io.Writer
	stderr io.Writer
	trace  io.Writer // per-instruction trace (-d)

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	stopReason       StopReason
	verbose          bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithMemory attaches an externally constructed memory (e.g. one the
// host system has already loaded a process image into).
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithRegFile attaches an externally constructed register file.
func WithRegFile(r *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = r
	}
}

// WithMaxInstructions sets the maximum number of instructions to
// execute. A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithTrace enables the per-instruction trace on w.
func WithTrace(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.trace = w
	}
}

// WithVerbose enables state-change logging (memory reads and writes)
// interleaved with the trace.
func WithVerbose() EmulatorOption {
	return func(e *Emulator) {
		e.verbose = true
	}
}

// NewEmulator creates a new RV64GC emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:   &RegFile{},
		fpRegFile: &FPRegFile{},
		csrs:      NewCSRFile(),
		memory:    NewMemory(),
		decoder:   insts.NewDecoder(),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.memory.SetFaultLog(e.stderr)
	if e.verbose {
		if e.trace != nil {
			e.memory.SetTrace(e.trace)
		} else {
			e.memory.SetTrace(e.stderr)
		}
	}

	// If no syscall handler was provided, create a default one
	if e.syscallHandler == nil {
		e.syscallHandler = NewHostSystem(e.regFile, e.memory,
			WithSysStdout(e.stdout), WithSysStderr(e.stderr))
	}

	return e
}

// RegFile returns the emulator's integer register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// FPRegFile returns the emulator's floating-point register file.
func (e *Emulator) FPRegFile() *FPRegFile {
	return e.fpRegFile
}

// CSRs returns the emulator's control/status register bank.
func (e *Emulator) CSRs() *CSRFile {
	return e.csrs
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// StopReason returns why the last Run ended.
func (e *Emulator) StopReason() StopReason {
	return e.stopReason
}

// LoadProgram loads raw code into memory and sets the entry point.
func (e *Emulator) LoadProgram(entry uint64, program []byte) {
	e.memory.AddBlock(entry, uint64(len(program)), program)
	e.regFile.PC = entry
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Exited: true, Reason: StopLimit}
	}

	pc := e.regFile.PC

	// A jump into the lowest 64 bytes means the guest returned from
	// its entry frame back to the (nonexistent) shell.
	if pc&^uint64(0x3f) == 0 {
		return StepResult{Exited: true, Reason: StopShellReturn}
	}

	// 1. Fetch: 2 bytes decide the stream width
	word := uint32(e.memory.ReadQuiet(pc, 2))
	size := uint8(2)
	if word&0x3 == 0x3 {
		word |= uint32(e.memory.ReadQuiet(pc+2, 2)) << 16
		size = 4
	}

	// 2. Decode
	inst := e.decoder.Decode(word)

	if e.trace != nil {
		e.printTrace(pc, word, size, inst)
	}

	// 3. Execute
	var result StepResult
	if inst == nil {
		fmt.Fprintf(e.stderr, "No decode for %x at PC=0x%x\n", word, pc)
		e.regFile.PC += uint64(size)
	} else {
		result = e.execute(inst)
	}

	if e.trace != nil {
		fmt.Fprintln(e.trace)
	}

	e.instructionCount++
	return result
}

// printTrace emits the per-instruction trace header. Verbose state
// logging appends to the same line; the trailing newline is written
// after execute.
func (e *Emulator) printTrace(pc uint64, word uint32, size uint8, inst *insts.Instruction) {
	disasm := "??"
	if inst != nil {
		disasm = inst.Disasm()
	}
	if size == 2 {
		fmt.Fprintf(e.trace, "%10d %08x     %04x %s", e.instructionCount, pc, word, disasm)
	} else {
		fmt.Fprintf(e.trace, "%10d %08x %08x %s", e.instructionCount, pc, word, disasm)
	}
}

// Run executes instructions until the guest exits, falls off into the
// shell-return region, or the instruction budget is exhausted.
// Returns the guest exit code (0 for non-exit terminations), or -1
// after an emulation error.
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			e.stopReason = result.Reason
			return result.ExitCode
		}
		if result.Err != nil {
			fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}
	}
}

// Execute applies a single decoded instruction to the architectural
// state, updating registers, memory, and the PC.
func (e *Emulator) Execute(inst *insts.Instruction) StepResult {
	return e.execute(inst)
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	switch inst.Format {
	case insts.FormatOpImm:
		e.executeOpImm(inst)
	case insts.FormatOpImm32:
		e.executeOpImm32(inst)
	case insts.FormatOp:
		e.executeOp(inst)
	case insts.FormatOp32:
		e.executeOp32(inst)
	case insts.FormatLui:
		e.regFile.WriteReg(inst.Rd, uint64(inst.Imm))
	case insts.FormatAuipc:
		e.regFile.WriteReg(inst.Rd, e.regFile.PC+uint64(inst.Imm))
	case insts.FormatLoad:
		e.executeLoad(inst)
	case insts.FormatStore:
		e.executeStore(inst)
	case insts.FormatFpLoad:
		e.executeFpLoad(inst)
	case insts.FormatFpStore:
		e.executeFpStore(inst)
	case insts.FormatBranch:
		e.executeBranch(inst)
		return StepResult{} // PC already updated
	case insts.FormatJal:
		e.executeJal(inst)
		return StepResult{} // PC already updated
	case insts.FormatJalr:
		e.executeJalr(inst)
		return StepResult{} // PC already updated
	case insts.FormatAmo:
		e.executeAmo(inst)
	case insts.FormatFma:
		e.executeFma(inst)
	case insts.FormatFp:
		e.executeFp(inst)
	case insts.FormatSystem:
		return e.executeECALL()
	default:
		return StepResult{
			Err: fmt.Errorf("unimplemented format %d at PC=0x%x", inst.Format, e.regFile.PC),
		}
	}

	e.regFile.PC += uint64(inst.Size)
	return StepResult{}
}

// executeECALL handles the environment-call instruction.
func (e *Emulator) executeECALL() StepResult {
	// The syscall return address is the next instruction
	e.regFile.PC += 4

	result := e.syscallHandler.Handle()

	reason := StopNone
	if result.Exited {
		reason = StopExited
	}
	return StepResult{
		Exited:   result.Exited,
		ExitCode: result.ExitCode,
		Reason:   reason,
	}
}
