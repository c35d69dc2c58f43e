package wasm

import (
	"fmt"
	"strings"
)

// Instr is one instruction of a function body, with its immediates decoded.
type Instr struct {
	Op Opcode

	// Index is the immediate of local, global, call, br and br_if
	// instructions, the type index of call_indirect, and the default label
	// of br_table.
	Index uint32

	// Const is the value of i32.const and i64.const; i32 constants are kept
	// sign extended.
	Const int64

	// Block is the type of block, loop and if.
	Block BlockType

	// Labels are the br_table targets, without the default.
	Labels []uint32

	// Mem is the immediate of loads and stores.
	Mem MemArg
}

// BlockType is the signature of a structured instruction.
type BlockType struct {
	Params  []ValueType
	Results []ValueType
}

// MemArg is the alignment hint and static offset of a memory access.
type MemArg struct {
	Align  uint32
	Offset uint32
}

func (in Instr) String() string {
	switch in.Op {
	case OpcodeI32Const, OpcodeI64Const:
		return fmt.Sprintf("%v %v", in.Op, in.Const)
	case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee,
		OpcodeGlobalGet, OpcodeGlobalSet,
		OpcodeBr, OpcodeBrIf, OpcodeCall, OpcodeCallIndirect:
		return fmt.Sprintf("%v %v", in.Op, in.Index)
	case OpcodeBrTable:
		var sb strings.Builder
		sb.WriteString(in.Op.String())
		for _, l := range in.Labels {
			fmt.Fprintf(&sb, " %v", l)
		}
		fmt.Fprintf(&sb, " %v", in.Index)
		return sb.String()
	case OpcodeBlock, OpcodeLoop, OpcodeIf:
		if len(in.Block.Params) == 0 && len(in.Block.Results) == 0 {
			return in.Op.String()
		}
		return fmt.Sprintf("%v %v", in.Op, FunctionType(in.Block))
	}
	if in.Mem != (MemArg{}) {
		return fmt.Sprintf("%v offset=%v align=%v", in.Op, in.Mem.Offset, in.Mem.Align)
	}
	return in.Op.String()
}

// Op builds an instruction without immediates.
func Op(op Opcode) Instr { return Instr{Op: op} }

// I32Const builds an i32.const, wrapping n to 32 bits.
func I32Const(n int64) Instr { return Instr{Op: OpcodeI32Const, Const: int64(int32(n))} }

// I64Const builds an i64.const.
func I64Const(n int64) Instr { return Instr{Op: OpcodeI64Const, Const: n} }

// LocalGet builds a local.get.
func LocalGet(i uint32) Instr { return Instr{Op: OpcodeLocalGet, Index: i} }

// LocalSet builds a local.set.
func LocalSet(i uint32) Instr { return Instr{Op: OpcodeLocalSet, Index: i} }

// LocalTee builds a local.tee.
func LocalTee(i uint32) Instr { return Instr{Op: OpcodeLocalTee, Index: i} }

// GlobalGet builds a global.get.
func GlobalGet(i uint32) Instr { return Instr{Op: OpcodeGlobalGet, Index: i} }

// GlobalSet builds a global.set.
func GlobalSet(i uint32) Instr { return Instr{Op: OpcodeGlobalSet, Index: i} }

// Call builds a direct call of function fn.
func Call(fn uint32) Instr { return Instr{Op: OpcodeCall, Index: fn} }

// CallIndirect builds an indirect call through table 0, of a function of
// the given type index.
func CallIndirect(typ uint32) Instr { return Instr{Op: OpcodeCallIndirect, Index: typ} }

// Br builds an unconditional branch to label depth l.
func Br(l uint32) Instr { return Instr{Op: OpcodeBr, Index: l} }

// BrIf builds a conditional branch to label depth l.
func BrIf(l uint32) Instr { return Instr{Op: OpcodeBrIf, Index: l} }

// BrTable builds a branch table; the last label is the default.
func BrTable(labels ...uint32) Instr {
	n := len(labels) - 1
	return Instr{Op: OpcodeBrTable, Labels: labels[:n:n], Index: labels[n]}
}

// Block builds a block start with results.
func Block(results ...ValueType) Instr {
	return Instr{Op: OpcodeBlock, Block: BlockType{Results: results}}
}

// Loop builds a loop start with results.
func Loop(results ...ValueType) Instr {
	return Instr{Op: OpcodeLoop, Block: BlockType{Results: results}}
}

// If builds an if start with results.
func If(results ...ValueType) Instr {
	return Instr{Op: OpcodeIf, Block: BlockType{Results: results}}
}

// Mem builds a load or store with a static offset.
func Mem(op Opcode, offset uint32) Instr {
	return Instr{Op: op, Mem: MemArg{Offset: offset}}
}

// Body appends the final end to a function body.
func Body(code ...Instr) []Instr { return append(code, Op(OpcodeEnd)) }

// I32 builds an i32.const initializer.
func I32(n int64) ConstExpr { return ConstExpr{Opcode: OpcodeI32Const, Value: int64(int32(n))} }

// I64 builds an i64.const initializer.
func I64(n int64) ConstExpr { return ConstExpr{Opcode: OpcodeI64Const, Value: n} }

// RefFunc builds a ref.func initializer.
func RefFunc(fn uint32) ConstExpr { return ConstExpr{Opcode: OpcodeRefFunc, Value: int64(fn)} }

// Pages returns limits of min pages, bounded by max.
func Pages(min, max uint32) Limits { return Limits{Min: min, Max: &max} }
