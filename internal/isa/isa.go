// Package isa defines the instruction vocabulary of the target stack machine.
//
// The machine has a single data stack of signed 64-bit values, addressed by
// absolute index from the bottom, plus a return stack used only by call and
// ret. Every program this module produces is an ordered list of Instruction
// values drawn from the fixed Op set below; nothing else may be emitted.
package isa

import (
	"fmt"
	"strconv"
)

// Op names a primitive operation of the target machine.
type Op uint8

const (
	OpInvalid Op = iota

	//// Stack shape

	OpPush  // push n       push the immediate
	OpPop   // pop          discard the top value
	OpDup   // dup          copy the top value
	OpSwap  // swap         exchange the top two values
	OpDepth // depth        push the current stack depth

	//// Random access

	OpGet   // get i        push stack[i]
	OpSet   // set i        pop v, stack[i] = v
	OpRead  // read         pop i, push stack[i]
	OpWrite // write        pop i, pop v, stack[i] = v

	//// Arithmetic

	OpAdd // add          pop b, pop a, push a+b
	OpSub // sub          pop b, pop a, push a-b
	OpMul // mul          pop b, pop a, push a*b
	OpDiv // div          pop n, pop d, push n/d (numerator on top)
	OpMod // mod          pop n, pop d, push n%d (numerator on top)
	OpInc // inc          top += 1
	OpDec // dec          top -= 1

	OpAddI // addi n       top += n
	OpSubI // subi n       top -= n
	OpMulI // muli n       top *= n
	OpAndI // andi n       top &= n

	//// Bitwise

	OpAnd  // and          pop b, pop a, push a&b
	OpOr   // or           pop b, pop a, push a|b
	OpXor  // xor          pop b, pop a, push a^b
	OpShl  // shl          pop b, pop a, push a<<b
	OpShr  // shr          pop b, pop a, push a>>b (arithmetic)
	OpShrU // shru         pop b, pop a, push a>>b (logical)

	//// Comparison

	OpLt  // lt           pop b, pop a, push a<b
	OpEq  // eq           pop b, pop a, push a==b
	OpEqz // eqz          top = top==0

	//// Control

	OpLabel // lbl n        mark label n
	OpJump  // jmp n        jump to label n
	OpJz    // jz n         pop v, jump to label n if v == 0
	OpFunc  // fn n         entry point of function n
	OpCall  // call n       call function n
	OpCallI // calli        pop function id, call it
	OpRet   // ret          return to the caller
	OpHalt  // halt         stop

	opMax
)

// NumOps bounds the Op space, for callers that build dispatch tables.
const NumOps = int(opMax)

var opNames = [opMax]string{
	OpInvalid: "invalid",

	OpPush:  "push",
	OpPop:   "pop",
	OpDup:   "dup",
	OpSwap:  "swap",
	OpDepth: "depth",

	OpGet:   "get",
	OpSet:   "set",
	OpRead:  "read",
	OpWrite: "write",

	OpAdd:  "add",
	OpSub:  "sub",
	OpMul:  "mul",
	OpDiv:  "div",
	OpMod:  "mod",
	OpInc:  "inc",
	OpDec:  "dec",
	OpAddI: "addi",
	OpSubI: "subi",
	OpMulI: "muli",
	OpAndI: "andi",

	OpAnd:  "and",
	OpOr:   "or",
	OpXor:  "xor",
	OpShl:  "shl",
	OpShr:  "shr",
	OpShrU: "shru",

	OpLt:  "lt",
	OpEq:  "eq",
	OpEqz: "eqz",

	OpLabel: "lbl",
	OpJump:  "jmp",
	OpJz:    "jz",
	OpFunc:  "fn",
	OpCall:  "call",
	OpCallI: "calli",
	OpRet:   "ret",
	OpHalt:  "halt",
}

var hasImm = [opMax]bool{
	OpPush:  true,
	OpGet:   true,
	OpSet:   true,
	OpAddI:  true,
	OpSubI:  true,
	OpMulI:  true,
	OpAndI:  true,
	OpLabel: true,
	OpJump:  true,
	OpJz:    true,
	OpFunc:  true,
	OpCall:  true,
}

// immForms maps binary operations to their immediate variant.
var immForms = map[Op]Op{
	OpAdd: OpAddI,
	OpSub: OpSubI,
	OpMul: OpMulI,
	OpAnd: OpAndI,
}

var opByName map[string]Op

func init() {
	opByName = make(map[string]Op, opMax)
	for op := OpInvalid + 1; op < opMax; op++ {
		opByName[opNames[op]] = op
	}
}

func (op Op) String() string {
	if op < opMax {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Valid returns true if op is part of the machine vocabulary.
func (op Op) Valid() bool { return op > OpInvalid && op < opMax }

// HasImm returns true if op carries an immediate operand.
func (op Op) HasImm() bool { return op < opMax && hasImm[op] }

// ImmForm returns the immediate-operand variant of a binary op, if any.
func (op Op) ImmForm() (Op, bool) {
	imm, ok := immForms[op]
	return imm, ok
}

// Lookup returns the op with the given mnemonic.
func Lookup(name string) (Op, bool) {
	op, ok := opByName[name]
	return op, ok
}

// Instruction is a single operation of the target machine, along with its
// immediate operand when the op takes one.
type Instruction struct {
	Op  Op
	Imm int64
}

// I constructs an instruction without an immediate.
func I(op Op) Instruction { return Instruction{Op: op} }

// N constructs an instruction with an immediate.
func N(op Op, imm int64) Instruction { return Instruction{Op: op, Imm: imm} }

func (in Instruction) String() string {
	if in.Op.HasImm() {
		return in.Op.String() + " " + strconv.FormatInt(in.Imm, 10)
	}
	return in.Op.String()
}

// Effect returns the number of values an instruction pops and pushes.
// Control ops that consume nothing report zero; call effects depend on the
// callee and are reported as zero.
func (in Instruction) Effect() (pops, pushes int) {
	switch in.Op {
	case OpPush, OpDepth, OpGet:
		return 0, 1
	case OpPop, OpSet, OpJz, OpCallI:
		return 1, 0
	case OpDup:
		return 1, 2
	case OpSwap:
		return 2, 2
	case OpRead, OpInc, OpDec, OpAddI, OpSubI, OpMulI, OpAndI, OpEqz:
		return 1, 1
	case OpWrite:
		return 2, 0
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpAnd, OpOr, OpXor, OpShl, OpShr, OpShrU,
		OpLt, OpEq:
		return 2, 1
	}
	return 0, 0
}
