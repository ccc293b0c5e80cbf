// Package main provides the data-flow-graph companion tool. It reads a
// text file of hex opcodes and emits register producer -> consumer
// dependencies instead of executing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nedbrek/rvfun/dfg"
)

var (
	opFile   = flag.String("f", "", "File of hex opcodes, one per line")
	printDot = flag.Bool("p", false, "Write the graph to dfg.dot")
)

func main() {
	flag.Parse()

	if *opFile == "" {
		fmt.Println("Only support file right now")
		os.Exit(1)
	}

	f, err := os.Open(*opFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", *opFile, err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	builder := dfg.NewBuilder(os.Stdout)
	if *printDot {
		dotFile, err := os.Create("dfg.dot")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create dfg.dot: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = dotFile.Close() }()
		builder.SetDot(dotFile)
	}

	if err := builder.Process(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *opFile, err)
		os.Exit(1)
	}
	builder.Close()
}
