// Package main provides the entry point for the rvfun simulator.
// rvfun is a functional user-mode RV64GC simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nedbrek/rvfun/emu"
	"github.com/nedbrek/rvfun/loader"
)

var (
	debug   = flag.Bool("d", false, "Per-instruction trace")
	verbose = flag.Bool("v", false, "State-change logging within instructions")
	icount  = flag.Uint64("i", 0, "Maximum instructions to execute (0 = no limit)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rvfun [-d] [-v] [-i instruction_count] <elf file> [guest args...]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	progName := flag.Arg(0)
	guestArgs := flag.Args()[1:]

	fmt.Printf("Run program %s", progName)
	if *icount != 0 {
		fmt.Printf(" for %d instructions", *icount)
	}
	fmt.Println(".")

	prog, err := loader.Load(progName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failure loading ELF: %v\n", err)
		os.Exit(1)
	}

	for _, arg := range guestArgs {
		fmt.Printf("Add argument: %s\n", arg)
	}

	memory := emu.NewMemory()
	regFile := &emu.RegFile{}

	host := emu.NewHostSystem(regFile, memory,
		emu.WithProgName(progName),
		emu.WithGuestArgs(guestArgs),
		emu.WithStdinFile(progName+".stdin"),
		emu.WithHostFiles(),
	)
	defer host.FDs().Close()

	host.LoadProgram(prog)
	host.SetupStack()

	opts := []emu.EmulatorOption{
		emu.WithRegFile(regFile),
		emu.WithMemory(memory),
		emu.WithSyscallHandler(host),
		emu.WithMaxInstructions(*icount),
	}
	if *debug {
		opts = append(opts, emu.WithTrace(os.Stdout))
	}
	if *verbose {
		opts = append(opts, emu.WithVerbose())
	}

	e := emu.NewEmulator(opts...)
	e.Run()

	executed := e.InstructionCount()
	switch e.StopReason() {
	case emu.StopExited:
		fmt.Printf("Program exited after %d instructions.\n", executed)
	case emu.StopShellReturn:
		fmt.Printf("Program returned to shell after %d instructions.\n", executed)
	}

	if *debug {
		dumpState(regFile)
	}
	fmt.Printf("Executed %d instructions.\n", executed)
}

// dumpState prints the architected integer state, four registers per row.
func dumpState(regFile *emu.RegFile) {
	fmt.Println()
	fmt.Println("Architected State")
	for i := uint8(0); i < 32; {
		for j := 0; j < 4; j, i = j+1, i+1 {
			fmt.Printf("%2d %16x ", i, regFile.ReadReg(i))
		}
		fmt.Println()
	}
}
