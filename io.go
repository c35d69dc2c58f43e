package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/flushio"
	"github.com/jcorbin/stackwasm/internal/isa"
	"github.com/jcorbin/stackwasm/internal/programs"
	"github.com/jcorbin/stackwasm/internal/vm"
)

// parseInput reads integer arguments, in any base strconv accepts.
func parseInput(args []string) ([]int64, error) {
	input := make([]int64, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid input %q", arg)
		}
		input = append(input, n)
	}
	return input, nil
}

// readAsm compiles an instruction text file.
func readAsm(name string) (programs.Compiled, error) {
	f, err := os.Open(name)
	if err != nil {
		return programs.Compiled{}, err
	}
	defer f.Close()
	code, err := isa.Parse(f)
	if err != nil {
		return programs.Compiled{}, err
	}
	var compiled programs.Compiled
	compiled.Instructions = code
	return compiled, nil
}

func writeResult(out flushio.WriteFlusher, name string, input, top []int64, steps uint) error {
	return flushio.WriteString(out, fmt.Sprintf("%v %v => %v (%v steps)\n", name, input, top, steps))
}

func writeCode(out flushio.WriteFlusher, compiled programs.Compiled) error {
	if err := flushio.WriteString(out, "# Code\n"); err != nil {
		return err
	}
	return isa.Write(out, compiled.Instructions)
}

func writeTree(out flushio.WriteFlusher, compiled programs.Compiled) error {
	if len(compiled.Segments) == 0 {
		return flushio.WriteString(out, "# No debug tree\n")
	}
	tree, err := compiled.Tree()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString("# Debug Tree\n")
	sb.Write(b)
	sb.WriteString("\n")
	return flushio.WriteString(out, sb.String())
}

func writeDump(out flushio.WriteFlusher, m *vm.VM, compiled programs.Compiled) error {
	m.Dump(out, compiled.Annotate)
	return out.Flush()
}
