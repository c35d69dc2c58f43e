package vm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/stackwasm/internal/isa"
	"github.com/jcorbin/stackwasm/internal/logio"
	"github.com/jcorbin/stackwasm/internal/mem"
)

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type vmTestCase struct {
	name    string
	code    []isa.Instruction
	input   []int64
	opts    []Option
	expect  []func(t *testing.T, vm *VM)
	timeout time.Duration
	wantErr error
	errStr  string
}

func (vmt vmTestCase) withCode(code ...isa.Instruction) vmTestCase {
	vmt.code = append(vmt.code, code...)
	return vmt
}

func (vmt vmTestCase) withText(text string) vmTestCase {
	code, err := isa.Parse(strings.NewReader(text))
	if err != nil {
		panic(err)
	}
	return vmt.withCode(code...)
}

func (vmt vmTestCase) withInput(values ...int64) vmTestCase {
	vmt.input = append(vmt.input, values...)
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...Option) vmTestCase {
	vmt.opts = append(vmt.opts, opts...)
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectErrorString(s string) vmTestCase {
	vmt.errStr = s
	return vmt
}

func (vmt vmTestCase) expectStack(values ...int64) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []int64{}
		}
		assert.Equal(t, values, vm.Stack(), "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectTop(value int64) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		top, ok := vm.Top()
		require.True(t, ok, "expected a non-empty stack")
		assert.Equal(t, value, top, "expected top of stack")
	})
	return vmt
}

func (vmt vmTestCase) expectDump(lines ...string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var sb strings.Builder
		vm.Dump(&sb, func(addr int) string {
			if addr == 0 {
				return "sentinel"
			}
			return ""
		})
		assert.Equal(t, strings.Join(lines, "\n")+"\n", sb.String(), "expected dump")
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	trace := &logio.Writer{Logf: t.Logf}
	defer trace.Close()
	opts := append([]Option{WithLogf(trace.Printf("vm"))}, vmt.opts...)

	vm := New(vmt.code, opts...)
	err := vm.Run(ctx, vmt.input...)
	switch {
	case vmt.wantErr != nil:
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error %v, got %v", vmt.wantErr, err)
	case vmt.errStr != "":
		assert.EqualError(t, err, vmt.errStr)
	default:
		require.NoError(t, err, "unexpected VM error")
	}
	for _, expect := range vmt.expect {
		expect(t, vm)
	}
}

func Test_VM(t *testing.T) {
	var (
		push  = func(n int64) isa.Instruction { return isa.N(isa.OpPush, n) }
		op    = isa.I
		imm   = isa.N
		halt  = isa.I(isa.OpHalt)
		label = func(n int64) isa.Instruction { return isa.N(isa.OpLabel, n) }
	)
	vmTestCases{
		// stack shape
		vmTest("push").withCode(push(3), push(4)).expectStack(3, 4),
		vmTest("pop").withInput(1, 2).withCode(op(isa.OpPop)).expectStack(1),
		vmTest("dup").withInput(7).withCode(op(isa.OpDup)).expectStack(7, 7),
		vmTest("swap").withInput(1, 2).withCode(op(isa.OpSwap)).expectStack(2, 1),
		vmTest("depth").withInput(5, 6, 7).withCode(op(isa.OpDepth)).expectStack(5, 6, 7, 3),
		vmTest("pop underflow").withCode(op(isa.OpPop)).expectError(errStackUnderflow),

		// random access
		vmTest("get").withInput(10, 20, 30).withCode(imm(isa.OpGet, 0)).expectStack(10, 20, 30, 10),
		vmTest("set").withInput(10, 20, 30).withCode(imm(isa.OpSet, 0)).expectStack(30, 20),
		vmTest("read").withInput(10, 20, 1).withCode(op(isa.OpRead)).expectStack(10, 20, 20),
		vmTest("write").withInput(10, 20, 99, 0).withCode(op(isa.OpWrite)).expectStack(99, 20),
		vmTest("get out of range").withInput(1).withCode(imm(isa.OpGet, 1)).
			expectErrorString("load @1 out of range for depth 1"),
		vmTest("write past the popped operands").withInput(10, 99, 2).withCode(op(isa.OpWrite)).
			expectErrorString("stor @2 out of range for depth 1"),

		// arithmetic
		vmTest("add").withInput(5, 3, 1).withCode(op(isa.OpAdd)).expectStack(5, 4),
		vmTest("sub").withInput(5, 3, 1).withCode(op(isa.OpSub)).expectStack(5, 2),
		vmTest("mul").withInput(11, 5, 6).withCode(op(isa.OpMul)).expectStack(11, 30),
		vmTest("div numerator on top").withInput(3, 13).withCode(op(isa.OpDiv)).expectStack(4),
		vmTest("div truncates").withInput(3, -13).withCode(op(isa.OpDiv)).expectStack(-4),
		vmTest("mod").withInput(3, 13).withCode(op(isa.OpMod)).expectStack(1),
		vmTest("mod sign follows numerator").withInput(3, -13).withCode(op(isa.OpMod)).expectStack(-1),
		vmTest("div by zero").withInput(0, 13).withCode(op(isa.OpDiv)).expectError(errDivideByZero),
		vmTest("inc dec").withInput(1, 1).withCode(op(isa.OpInc), op(isa.OpSwap), op(isa.OpDec)).expectStack(2, 0),
		vmTest("immediates").withInput(6).withCode(
			imm(isa.OpAddI, 4), imm(isa.OpMulI, 3), imm(isa.OpSubI, 2), imm(isa.OpAndI, 0xf),
		).expectStack(12),

		// bitwise
		vmTest("and").withInput(12, 10).withCode(op(isa.OpAnd)).expectStack(8),
		vmTest("or").withInput(12, 10).withCode(op(isa.OpOr)).expectStack(14),
		vmTest("xor").withInput(12, 10).withCode(op(isa.OpXor)).expectStack(6),
		vmTest("shl").withInput(3, 4).withCode(op(isa.OpShl)).expectStack(48),
		vmTest("shr arithmetic").withInput(-16, 2).withCode(op(isa.OpShr)).expectStack(-4),
		vmTest("shru logical").withInput(-1, 60).withCode(op(isa.OpShrU)).expectStack(15),
		vmTest("shl negative count").withInput(3, -1).withCode(op(isa.OpShl)).expectStack(0),

		// comparison
		vmTest("lt true").withInput(-3, 2).withCode(op(isa.OpLt)).expectStack(1),
		vmTest("lt false").withInput(2, 2).withCode(op(isa.OpLt)).expectStack(0),
		vmTest("eq").withInput(2, 2).withCode(op(isa.OpEq)).expectStack(1),
		vmTest("eqz").withInput(0, 5).withCode(op(isa.OpEqz), op(isa.OpSwap), op(isa.OpEqz)).expectStack(0, 1),

		// control
		vmTest("jmp").withCode(imm(isa.OpJump, 1), push(1), label(1), push(2)).expectStack(2),
		vmTest("jz taken").withInput(0).withCode(imm(isa.OpJz, 1), push(1), label(1), push(2)).expectStack(2),
		vmTest("jz not taken").withInput(9).withCode(imm(isa.OpJz, 1), push(1), label(1), push(2)).expectStack(1, 2),
		vmTest("undefined label").withCode(imm(isa.OpJump, 7)).expectErrorString("undefined label 7"),
		vmTest("halt").withCode(push(1), halt, push(2)).expectStack(1),
		vmTest("call ret").withCode(
			push(20), imm(isa.OpCall, 1), halt,
			imm(isa.OpFunc, 1), op(isa.OpInc), op(isa.OpRet),
		).expectStack(21),
		vmTest("calli").withInput(1).withCode(
			push(20), op(isa.OpSwap), op(isa.OpCallI), halt,
			imm(isa.OpFunc, 1), imm(isa.OpMulI, 2), op(isa.OpRet),
		).expectStack(40),
		vmTest("undefined function").withCode(imm(isa.OpCall, 3)).expectErrorString("undefined function 3"),
		vmTest("top level ret ends").withCode(push(1), op(isa.OpRet), push(2)).expectStack(1),

		// counting loop, in text form
		vmTest("count down").withInput(5).withText(`
			push 0       # accumulator
			lbl 1
			get 0 jz 2   # while counter != 0
			get 0 add    # acc += counter
			get 0 dec set 0
			jmp 1
			lbl 2
		`).expectStack(0, 15),

		// limits
		vmTest("stack limit").withOptions(WithStackLimit(2)).withCode(push(1), push(2), push(3)).
			expectErrorString("stack limit exceeded by push @3"),
		vmTest("step limit").withOptions(WithStepLimit(10)).withCode(label(1), imm(isa.OpJump, 1)).
			expectError(errStepLimit),
		vmTest("timeout").withTimeout(10*time.Millisecond).withCode(label(1), imm(isa.OpJump, 1)).
			expectError(context.DeadlineExceeded),

		vmTest("dump").withOptions(WithPageSize(2)).withInput(0, 0, 0, 0, 0, 7, 0).withCode(
			push(42), halt,
		).expectDump(
			`# VM Dump`,
			`  prog: 2`,
			`  steps: 2`,
			`  rstack: []`,
			`# Stack depth 8`,
			`  @0 0 sentinel`,
			`  @1 ... 4 zeros`,
			`  @5 7`,
			`  @6 0`,
			`  @7 42`,
		),
	}.run(t)
}

func Test_VM_rerun(t *testing.T) {
	vm := New([]isa.Instruction{isa.I(isa.OpAdd)})
	require.NoError(t, vm.Run(context.Background(), 40, 2))
	assert.Equal(t, []int64{42}, vm.Stack())
	require.NoError(t, vm.Run(context.Background(), 1, 2))
	assert.Equal(t, []int64{3}, vm.Stack(), "expected a fresh stack on each run")
	assert.Equal(t, uint(1), vm.Steps())
}

func Test_VM_limitError(t *testing.T) {
	vm := New([]isa.Instruction{isa.N(isa.OpPush, 1)}, WithStackLimit(1))
	err := vm.Run(context.Background(), 9)
	var lim mem.LimitError
	require.True(t, errors.As(err, &lim), "expected a stack limit error, got %v", err)
	assert.Equal(t, "push", lim.Op)
}
