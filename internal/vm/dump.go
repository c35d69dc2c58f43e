package vm

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes a human readable rendition of the VM state to out: program
// counter, return stack, and every data stack slot. The optional annotate
// function names slots, e.g. with a runtime layout; runs of zero valued,
// unnamed, slots are elided.
func (vm *VM) Dump(out io.Writer, annotate func(addr int) string) {
	dump := vmDumper{vm: vm, out: out, annotate: annotate}
	dump.dump()
}

type vmDumper struct {
	vm       *VM
	out      io.Writer
	annotate func(addr int) string

	addrWidth int
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  prog: %v\n", dump.vm.prog)
	fmt.Fprintf(dump.out, "  steps: %v\n", dump.vm.steps)
	fmt.Fprintf(dump.out, "  rstack: %v\n", dump.vm.rstack)
	dump.dumpStack()
}

func (dump *vmDumper) dumpStack() {
	values := dump.vm.Stack()
	fmt.Fprintf(dump.out, "# Stack depth %v\n", len(values))
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(len(values)))
	}

	var buf strings.Builder
	for addr := 0; addr < len(values); {
		name := dump.name(addr)
		if values[addr] == 0 && name == "" {
			end := addr + 1
			for end < len(values) && values[end] == 0 && dump.name(end) == "" {
				end++
			}
			if n := end - addr; n > 2 {
				fmt.Fprintf(&buf, "  @%*v ... %v zeros", dump.addrWidth, addr, n)
				dump.flush(&buf)
				addr = end
				continue
			}
		}

		fmt.Fprintf(&buf, "  @%*v %v", dump.addrWidth, addr, values[addr])
		if name != "" {
			buf.WriteByte(' ')
			buf.WriteString(name)
		}
		dump.flush(&buf)
		addr++
	}
}

func (dump *vmDumper) name(addr int) string {
	if dump.annotate == nil {
		return ""
	}
	return dump.annotate(addr)
}

func (dump *vmDumper) flush(buf *strings.Builder) {
	buf.WriteByte('\n')
	io.WriteString(dump.out, buf.String())
	buf.Reset()
}
