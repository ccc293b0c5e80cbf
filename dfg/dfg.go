// Package dfg builds register data-flow graphs from opcode streams.
// Each decoded instruction becomes a node; an edge runs from the last
// producer of a register to each instruction that consumes it.
package dfg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nedbrek/rvfun/insts"
)

// DotPrinter emits the graph in Graphviz DOT form.
type DotPrinter struct {
	w io.Writer
}

// NewDotPrinter starts a strict digraph on w.
func NewDotPrinter(w io.Writer) *DotPrinter {
	fmt.Fprintln(w, "strict digraph {")
	return &DotPrinter{w: w}
}

// Node emits a labeled node.
func (d *DotPrinter) Node(n uint64, label string) {
	fmt.Fprintf(d.w, "%d [label=%q]\n", n, label)
}

// Edge emits a producer -> consumer edge.
func (d *DotPrinter) Edge(producer, consumer uint64) {
	fmt.Fprintf(d.w, "%d -> %d\n", producer, consumer)
}

// Close terminates the digraph.
func (d *DotPrinter) Close() {
	fmt.Fprintln(d.w, "}")
}

// Builder tracks register producers across an opcode stream and writes
// a per-instruction textual trace, optionally mirrored into DOT.
type Builder struct {
	decoder *insts.Decoder

	prodInt map[uint8]uint64 // last producer per integer register
	prodFp  map[uint8]uint64 // last producer per float register

	count uint64
	out   io.Writer
	dot   *DotPrinter
}

// NewBuilder creates a builder writing its trace to out.
func NewBuilder(out io.Writer) *Builder {
	return &Builder{
		decoder: insts.NewDecoder(),
		prodInt: make(map[uint8]uint64),
		prodFp:  make(map[uint8]uint64),
		out:     out,
	}
}

// SetDot mirrors the graph into DOT form on w.
func (b *Builder) SetDot(w io.Writer) {
	b.dot = NewDotPrinter(w)
}

// Close finishes any DOT output.
func (b *Builder) Close() {
	if b.dot != nil {
		b.dot.Close()
	}
}

// Add decodes one opcode word and records its dependencies. The trace
// line lists the producing instruction indices in brackets.
func (b *Builder) Add(opc uint32) {
	b.count++

	inst := b.decoder.Decode(opc)
	if inst == nil {
		fmt.Fprintf(b.out, "No decode for %x\n", opc)
		return
	}

	disasm := inst.Disasm()
	label := fmt.Sprintf("%d %s", b.count, disasm)

	fmt.Fprintf(b.out, "%d\t", b.count)
	if !inst.Compressed() {
		fmt.Fprint(b.out, "  ")
	}
	fmt.Fprint(b.out, disasm)

	first := true
	for _, src := range inst.Srcs() {
		var producer uint64
		if src.Class == insts.RegInt {
			producer = b.prodInt[src.Num]
		} else {
			producer = b.prodFp[src.Num]
		}
		if producer == 0 {
			continue
		}

		if first {
			if b.dot != nil {
				b.dot.Node(b.count, label)
			}
			fmt.Fprint(b.out, "\t[")
		} else {
			fmt.Fprint(b.out, ",")
		}
		fmt.Fprintf(b.out, "%d", producer)
		first = false

		if b.dot != nil {
			b.dot.Edge(producer, b.count)
		}
	}
	if !first {
		fmt.Fprint(b.out, "]")
	} else if b.dot != nil {
		b.dot.Node(b.count, label)
	}
	fmt.Fprintln(b.out)

	for _, dst := range inst.Dsts() {
		if dst.Class == insts.RegInt {
			b.prodInt[dst.Num] = b.count
		} else {
			b.prodFp[dst.Num] = b.count
		}
	}
}

// Process reads one hex opcode per line (leading 0x optional) and adds
// each to the graph. Malformed lines are reported and skipped.
func (b *Builder) Process(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		opc, err := strconv.ParseUint(strings.TrimPrefix(line, "0x"), 16, 32)
		if err != nil {
			fmt.Fprintf(b.out, "Bad opcode line '%s'\n", line)
			continue
		}
		b.Add(uint32(opc))
	}
	return scanner.Err()
}
