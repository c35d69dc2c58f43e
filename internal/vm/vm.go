// Package vm implements a reference engine for the target stack machine.
//
// The engine exists to execute what the compiler emits: tests use it as an
// oracle, and the command line runner uses it to run programs. It follows the
// machine contract of package isa exactly, and adds nothing to it.
package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcorbin/stackwasm/internal/isa"
	"github.com/jcorbin/stackwasm/internal/mem"
	"github.com/jcorbin/stackwasm/internal/panicerr"
)

// VM executes a flat instruction list.
type VM struct {
	logging

	code   []isa.Instruction
	labels map[int64]int
	funcs  map[int64]int

	// prog is the program counter, an index into code.
	prog int

	// The data stack is the only memory the machine has; everything, from
	// globals to linear memory, lives in it at some absolute position.
	stack mem.Stack

	// The return stack holds program counters saved by call.
	rstack []int

	steps     uint
	stepLimit uint
}

// New creates a VM to run code, indexing its labels and function entries.
func New(code []isa.Instruction, opts ...Option) *VM {
	vm := &VM{
		code:   code,
		labels: make(map[int64]int),
		funcs:  make(map[int64]int),
	}
	vm.apply(opts...)
	for pc, in := range code {
		switch in.Op {
		case isa.OpLabel:
			vm.labels[in.Imm] = pc
		case isa.OpFunc:
			vm.funcs[in.Imm] = pc
		}
	}
	return vm
}

// Run seeds the data stack with input, bottom first, then executes from the
// first instruction until halt, or until control runs off the end of code.
// Any runtime fault, limit, or context error is returned.
func (vm *VM) Run(ctx context.Context, input ...int64) error {
	return panicerr.Recover("VM", func() error {
		vm.reset()
		vm.haltif(vm.stack.Push(input...))
		vm.exec(ctx)
		return nil
	})
}

// Stack returns a copy of the data stack, bottom first.
func (vm *VM) Stack() []int64 { return vm.stack.Values() }

// Top returns the top of the data stack, if any.
func (vm *VM) Top() (int64, bool) {
	n := vm.stack.Len()
	if n == 0 {
		return 0, false
	}
	val, err := vm.stack.Load(int64(n) - 1)
	return val, err == nil
}

// Steps returns how many instructions the last Run executed.
func (vm *VM) Steps() uint { return vm.steps }

func (vm *VM) reset() {
	limit, pageSize := vm.stack.Limit, vm.stack.PageSize
	vm.stack = mem.Stack{Limit: limit, PageSize: pageSize}
	vm.rstack = vm.rstack[:0]
	vm.prog = 0
	vm.steps = 0
}

func (vm *VM) exec(ctx context.Context) {
	if vm.logfn != nil {
		defer vm.withLogPrefix("	")()
	}
	for vm.prog < len(vm.code) {
		vm.step()
		if vm.steps%1024 == 0 {
			vm.haltif(ctx.Err())
		}
	}
	vm.logf("#", "end of code")
}

func (vm *VM) step() {
	at := vm.prog
	in := vm.code[at]
	vm.prog++
	vm.steps++
	if vm.stepLimit != 0 && vm.steps > vm.stepLimit {
		vm.halt(errStepLimit)
	}
	if vm.logfn != nil {
		vm.logf(">", "@%v %v -- r:%v s:%v", at, in, vm.rstack, vm.top(4))
	}
	if !in.Op.Valid() || int(in.Op) >= len(opTable) || opTable[in.Op] == nil {
		vm.halt(codeError{at, in.Op})
	}
	opTable[in.Op](vm, in.Imm)
}

func (vm *VM) halt(err error) {
	if err == nil {
		vm.logf("#", "halt")
	} else {
		vm.logf("#", "halt error: %v", err)
	}
	panicerr.Halt(err)
}

func (vm *VM) haltif(err error) {
	if err != nil {
		vm.halt(err)
	}
}

func (vm *VM) push(val int64) { vm.haltif(vm.stack.Push(val)) }

func (vm *VM) pop() int64 {
	val, err := vm.stack.Pop()
	if err != nil {
		vm.halt(errStackUnderflow)
	}
	return val
}

func (vm *VM) load(addr int64) int64 {
	val, err := vm.stack.Load(addr)
	vm.haltif(err)
	return val
}

func (vm *VM) stor(addr, val int64) { vm.haltif(vm.stack.Stor(addr, val)) }

func (vm *VM) jump(label int64) {
	pc, ok := vm.labels[label]
	if !ok {
		vm.halt(labelError(label))
	}
	vm.prog = pc
}

func (vm *VM) call(id int64) {
	pc, ok := vm.funcs[id]
	if !ok {
		vm.halt(funcError(id))
	}
	vm.rstack = append(vm.rstack, vm.prog)
	vm.prog = pc
}

func (vm *VM) top(n int) []int64 {
	depth := int64(vm.stack.Len())
	from := depth - int64(n)
	if from < 0 {
		from = 0
	}
	vals := make([]int64, 0, depth-from)
	for addr := from; addr < depth; addr++ {
		val, _ := vm.stack.Load(addr)
		vals = append(vals, val)
	}
	return vals
}

var (
	errStackUnderflow = errors.New("stack underflow")
	errDivideByZero   = errors.New("integer divide by zero")
	errStepLimit      = errors.New("step limit exceeded")
)

type codeError struct {
	at int
	op isa.Op
}
type labelError int64
type funcError int64

func (ce codeError) Error() string { return fmt.Sprintf("invalid code %v @%v", ce.op, ce.at) }
func (id labelError) Error() string { return fmt.Sprintf("undefined label %v", int64(id)) }
func (id funcError) Error() string { return fmt.Sprintf("undefined function %v", int64(id)) }

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
