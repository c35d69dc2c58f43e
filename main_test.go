package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jcorbin/stackwasm/internal/logio"
	"github.com/jcorbin/stackwasm/internal/programs"
)

type runTest struct {
	name   string
	cfg    config
	args   []string
	out    io.Writer
	expect []string
	err    []string
}

func runCase(name string) runTest { return runTest{name: name} }

func (rt runTest) withConfig(cfg config) runTest {
	rt.cfg = cfg
	return rt
}

func (rt runTest) withArgs(args ...string) runTest {
	rt.args = args
	return rt
}

func (rt runTest) withOutput(w io.Writer) runTest {
	rt.out = w
	return rt
}

func (rt runTest) expectOutput(lines ...string) runTest {
	rt.expect = append(rt.expect, lines...)
	return rt
}

func (rt runTest) expectError(messes ...string) runTest {
	rt.err = append(rt.err, messes...)
	return rt
}

func (rt runTest) run(t *testing.T) {
	sink := &logio.Writer{Logf: t.Logf}
	defer sink.Close()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(sink),
		zap.DebugLevel,
	))

	var out bytes.Buffer
	w := rt.out
	if w == nil {
		w = &out
	}
	err := run(context.Background(), rt.cfg, rt.args, w, logger.Sugar())
	if len(rt.err) > 0 {
		require.Error(t, err)
		for _, mess := range rt.err {
			assert.Contains(t, err.Error(), mess)
		}
	} else {
		require.NoError(t, err)
	}
	for _, line := range rt.expect {
		assert.Contains(t, out.String(), line)
	}
}

func TestRun(t *testing.T) {
	asm := filepath.Join(t.TempDir(), "five.asm")
	require.NoError(t, os.WriteFile(asm, []byte("push 2 # two\npush 3\nadd\n"), 0o644))

	bad := filepath.Join(t.TempDir(), "bad.asm")
	require.NoError(t, os.WriteFile(bad, []byte("push 1\nfrob\n"), 0o644))

	var listed []string
	for _, prog := range programs.All() {
		listed = append(listed, prog.Name+"\t"+prog.Doc+"\n")
	}

	for _, rt := range []runTest{
		runCase("list").
			withConfig(config{list: true}).
			expectOutput(listed...),

		runCase("named program").
			withArgs("factorial", "5").
			expectOutput("factorial [5] => [120]"),

		runCase("sample input").
			withArgs("wasm-add").
			expectOutput("wasm-add [40 2] => [42]"),

		runCase("all programs").
			expectOutput(
				"sum-to [10] => [55]",
				"wasm-fib [20] => [6765]",
				"wasm-checksum [8 13] => [1291]",
			),

		runCase("traced").
			withConfig(config{trace: true, code: true, tree: true}).
			withArgs("sum-to", "4").
			expectOutput("# Code\n", "# Debug Tree\n", "sum-to [4] => [10]"),

		runCase("asm file").
			withConfig(config{asm: asm, code: true, tree: true, dump: true}).
			expectOutput("push 2\n", "# No debug tree\n", " [] => [5] (3 steps)"),

		runCase("asm input").
			withConfig(config{asm: asm}).
			withArgs("7").
			expectOutput(" [7] => [7 5] (3 steps)"),

		runCase("unknown program").
			withArgs("nope").
			expectError(`no program named "nope"`),

		runCase("bad input").
			withArgs("factorial", "five").
			expectError(`invalid input "five"`),

		runCase("bad asm").
			withConfig(config{asm: bad}).
			expectError(`bad.asm:2: "frob": unknown mnemonic`),

		runCase("step limit").
			withConfig(config{stepLimit: 10}).
			withArgs("collatz").
			expectError("running collatz: step limit exceeded"),

		runCase("dump after fault").
			withConfig(config{stepLimit: 10, dump: true}).
			withArgs("collatz").
			expectError("running collatz: step limit exceeded").
			expectOutput("# VM Dump\n", "  steps: 11\n"),

		runCase("dump write fails").
			withConfig(config{stepLimit: 10, dump: true}).
			withArgs("collatz").
			withOutput(failWriter{}).
			expectError("running collatz: step limit exceeded", "dumping: disk full"),
	} {
		t.Run(rt.name, rt.run)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestParseInput(t *testing.T) {
	input, err := parseInput([]string{"1", "-2", "0x10"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, -2, 16}, input)

	_, err = parseInput([]string{"1", "x"})
	assert.True(t, strings.Contains(err.Error(), `invalid input "x"`), "got %v", err)
}
