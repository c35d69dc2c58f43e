package vm

import "github.com/jcorbin/stackwasm/internal/isa"

//// Stack shape

func (vm *VM) pushImm(n int64) { vm.push(n) }
func (vm *VM) drop(int64) { vm.pop() }
func (vm *VM) dup(int64) { a := vm.pop(); vm.push(a); vm.push(a) }
func (vm *VM) swap(int64) { b, a := vm.pop(), vm.pop(); vm.push(b); vm.push(a) }
func (vm *VM) depth(int64) { vm.push(int64(vm.stack.Len())) }

//// Random access
//
// Addresses count from the bottom of the stack, so they remain stable under
// pushes and pops above them.

func (vm *VM) get(addr int64) { vm.push(vm.load(addr)) }
func (vm *VM) set(addr int64) { vm.stor(addr, vm.pop()) }
func (vm *VM) read(int64) { vm.push(vm.load(vm.pop())) }
func (vm *VM) write(int64) { addr, val := vm.pop(), vm.pop(); vm.stor(addr, val) }

//// Arithmetic

func (vm *VM) add(int64) { b, a := vm.pop(), vm.pop(); vm.push(a + b) }
func (vm *VM) sub(int64) { b, a := vm.pop(), vm.pop(); vm.push(a - b) }
func (vm *VM) mul(int64) { b, a := vm.pop(), vm.pop(); vm.push(a * b) }

// Division takes its numerator from the top of the stack, and its
// denominator from beneath it.
func (vm *VM) div(int64) {
	n, d := vm.pop(), vm.pop()
	if d == 0 {
		vm.halt(errDivideByZero)
	}
	vm.push(n / d)
}

func (vm *VM) mod(int64) {
	n, d := vm.pop(), vm.pop()
	if d == 0 {
		vm.halt(errDivideByZero)
	}
	vm.push(n % d)
}

func (vm *VM) inc(int64) { vm.push(vm.pop() + 1) }
func (vm *VM) dec(int64) { vm.push(vm.pop() - 1) }
func (vm *VM) addi(n int64) { vm.push(vm.pop() + n) }
func (vm *VM) subi(n int64) { vm.push(vm.pop() - n) }
func (vm *VM) muli(n int64) { vm.push(vm.pop() * n) }
func (vm *VM) andi(n int64) { vm.push(vm.pop() & n) }

//// Bitwise
//
// Shift counts are taken as unsigned, so that a negative count shifts
// everything out rather than faulting.

func (vm *VM) and(int64) { b, a := vm.pop(), vm.pop(); vm.push(a & b) }
func (vm *VM) or(int64) { b, a := vm.pop(), vm.pop(); vm.push(a | b) }
func (vm *VM) xor(int64) { b, a := vm.pop(), vm.pop(); vm.push(a ^ b) }
func (vm *VM) shl(int64) { b, a := vm.pop(), vm.pop(); vm.push(a << uint64(b)) }
func (vm *VM) shr(int64) { b, a := vm.pop(), vm.pop(); vm.push(a >> uint64(b)) }
func (vm *VM) shru(int64) { b, a := vm.pop(), vm.pop(); vm.push(int64(uint64(a) >> uint64(b))) }

//// Comparison

func (vm *VM) lt(int64) { b, a := vm.pop(), vm.pop(); vm.push(boolInt(a < b)) }
func (vm *VM) eq(int64) { b, a := vm.pop(), vm.pop(); vm.push(boolInt(a == b)) }
func (vm *VM) eqz(int64) { vm.push(boolInt(vm.pop() == 0)) }

//// Control

func (vm *VM) label(int64) {}
func (vm *VM) jmp(l int64) { vm.jump(l) }

func (vm *VM) jz(l int64) {
	if vm.pop() == 0 {
		vm.jump(l)
	}
}

// Function entries are only markers; reaching one by falling through is
// harmless, though compiled programs halt before their function section.
func (vm *VM) fn(int64) {}
func (vm *VM) callImm(n int64) { vm.call(n) }
func (vm *VM) calli(int64) { vm.call(vm.pop()) }

// Returning with an empty return stack ends the program normally.
func (vm *VM) ret(int64) {
	i := len(vm.rstack) - 1
	if i < 0 {
		vm.halt(nil)
	}
	vm.prog, vm.rstack = vm.rstack[i], vm.rstack[:i]
}

func (vm *VM) stop(int64) { vm.halt(nil) }

var opTable [isa.NumOps]func(vm *VM, imm int64)

func init() {
	opTable = [isa.NumOps]func(vm *VM, imm int64){
		isa.OpPush:  (*VM).pushImm,
		isa.OpPop:   (*VM).drop,
		isa.OpDup:   (*VM).dup,
		isa.OpSwap:  (*VM).swap,
		isa.OpDepth: (*VM).depth,

		isa.OpGet:   (*VM).get,
		isa.OpSet:   (*VM).set,
		isa.OpRead:  (*VM).read,
		isa.OpWrite: (*VM).write,

		isa.OpAdd:  (*VM).add,
		isa.OpSub:  (*VM).sub,
		isa.OpMul:  (*VM).mul,
		isa.OpDiv:  (*VM).div,
		isa.OpMod:  (*VM).mod,
		isa.OpInc:  (*VM).inc,
		isa.OpDec:  (*VM).dec,
		isa.OpAddI: (*VM).addi,
		isa.OpSubI: (*VM).subi,
		isa.OpMulI: (*VM).muli,
		isa.OpAndI: (*VM).andi,

		isa.OpAnd:  (*VM).and,
		isa.OpOr:   (*VM).or,
		isa.OpXor:  (*VM).xor,
		isa.OpShl:  (*VM).shl,
		isa.OpShr:  (*VM).shr,
		isa.OpShrU: (*VM).shru,

		isa.OpLt:  (*VM).lt,
		isa.OpEq:  (*VM).eq,
		isa.OpEqz: (*VM).eqz,

		isa.OpLabel: (*VM).label,
		isa.OpJump:  (*VM).jmp,
		isa.OpJz:    (*VM).jz,
		isa.OpFunc:  (*VM).fn,
		isa.OpCall:  (*VM).callImm,
		isa.OpCallI: (*VM).calli,
		isa.OpRet:   (*VM).ret,
		isa.OpHalt:  (*VM).stop,
	}
}
