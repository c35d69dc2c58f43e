package wasm

import "fmt"

// Opcode identifies a WebAssembly instruction by its binary encoding. Single
// byte opcodes are their own value; prefixed opcodes carry the prefix byte in
// the high byte, e.g. memory.fill is 0xfc0b.
type Opcode uint16

// Control instructions.
const (
	OpcodeUnreachable  Opcode = 0x00
	OpcodeNop          Opcode = 0x01
	OpcodeBlock        Opcode = 0x02
	OpcodeLoop         Opcode = 0x03
	OpcodeIf           Opcode = 0x04
	OpcodeElse         Opcode = 0x05
	OpcodeEnd          Opcode = 0x0b
	OpcodeBr           Opcode = 0x0c
	OpcodeBrIf         Opcode = 0x0d
	OpcodeBrTable      Opcode = 0x0e
	OpcodeReturn       Opcode = 0x0f
	OpcodeCall         Opcode = 0x10
	OpcodeCallIndirect Opcode = 0x11
)

// Parametric and variable instructions.
const (
	OpcodeDrop        Opcode = 0x1a
	OpcodeSelect      Opcode = 0x1b
	OpcodeTypedSelect Opcode = 0x1c
	OpcodeLocalGet    Opcode = 0x20
	OpcodeLocalSet    Opcode = 0x21
	OpcodeLocalTee    Opcode = 0x22
	OpcodeGlobalGet   Opcode = 0x23
	OpcodeGlobalSet   Opcode = 0x24
	OpcodeTableGet    Opcode = 0x25
	OpcodeTableSet    Opcode = 0x26
)

// Memory instructions.
const (
	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Load    Opcode = 0x29
	OpcodeF32Load    Opcode = 0x2a
	OpcodeF64Load    Opcode = 0x2b
	OpcodeI32Load8S  Opcode = 0x2c
	OpcodeI32Load8U  Opcode = 0x2d
	OpcodeI32Load16S Opcode = 0x2e
	OpcodeI32Load16U Opcode = 0x2f
	OpcodeI64Load8S  Opcode = 0x30
	OpcodeI64Load8U  Opcode = 0x31
	OpcodeI64Load16S Opcode = 0x32
	OpcodeI64Load16U Opcode = 0x33
	OpcodeI64Load32S Opcode = 0x34
	OpcodeI64Load32U Opcode = 0x35
	OpcodeI32Store   Opcode = 0x36
	OpcodeI64Store   Opcode = 0x37
	OpcodeF32Store   Opcode = 0x38
	OpcodeF64Store   Opcode = 0x39
	OpcodeI32Store8  Opcode = 0x3a
	OpcodeI32Store16 Opcode = 0x3b
	OpcodeI64Store8  Opcode = 0x3c
	OpcodeI64Store16 Opcode = 0x3d
	OpcodeI64Store32 Opcode = 0x3e
	OpcodeMemorySize Opcode = 0x3f
	OpcodeMemoryGrow Opcode = 0x40
)

// Constants.
const (
	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44
)

// i32 comparisons.
const (
	OpcodeI32Eqz Opcode = 0x45 + iota
	OpcodeI32Eq
	OpcodeI32Ne
	OpcodeI32LtS
	OpcodeI32LtU
	OpcodeI32GtS
	OpcodeI32GtU
	OpcodeI32LeS
	OpcodeI32LeU
	OpcodeI32GeS
	OpcodeI32GeU
)

// i64 comparisons.
const (
	OpcodeI64Eqz Opcode = 0x50 + iota
	OpcodeI64Eq
	OpcodeI64Ne
	OpcodeI64LtS
	OpcodeI64LtU
	OpcodeI64GtS
	OpcodeI64GtU
	OpcodeI64LeS
	OpcodeI64LeU
	OpcodeI64GeS
	OpcodeI64GeU
)

// Float comparisons occupy 0x5b through 0x66.
const (
	OpcodeF32Eq Opcode = 0x5b
	OpcodeF64Eq Opcode = 0x61
)

// i32 arithmetic.
const (
	OpcodeI32Clz Opcode = 0x67 + iota
	OpcodeI32Ctz
	OpcodeI32Popcnt
	OpcodeI32Add
	OpcodeI32Sub
	OpcodeI32Mul
	OpcodeI32DivS
	OpcodeI32DivU
	OpcodeI32RemS
	OpcodeI32RemU
	OpcodeI32And
	OpcodeI32Or
	OpcodeI32Xor
	OpcodeI32Shl
	OpcodeI32ShrS
	OpcodeI32ShrU
	OpcodeI32Rotl
	OpcodeI32Rotr
)

// i64 arithmetic.
const (
	OpcodeI64Clz Opcode = 0x79 + iota
	OpcodeI64Ctz
	OpcodeI64Popcnt
	OpcodeI64Add
	OpcodeI64Sub
	OpcodeI64Mul
	OpcodeI64DivS
	OpcodeI64DivU
	OpcodeI64RemS
	OpcodeI64RemU
	OpcodeI64And
	OpcodeI64Or
	OpcodeI64Xor
	OpcodeI64Shl
	OpcodeI64ShrS
	OpcodeI64ShrU
	OpcodeI64Rotl
	OpcodeI64Rotr
)

// Float arithmetic occupies 0x8b through 0xa6.
const (
	OpcodeF32Add Opcode = 0x92
	OpcodeF64Add Opcode = 0xa0
)

// Conversions.
const (
	OpcodeI32WrapI64     Opcode = 0xa7
	OpcodeI32TruncF32S   Opcode = 0xa8
	OpcodeI64ExtendI32S  Opcode = 0xac
	OpcodeI64ExtendI32U  Opcode = 0xad
	OpcodeF64ConvertI64S Opcode = 0xb9
	OpcodeI32Extend8S    Opcode = 0xc0
	OpcodeI32Extend16S   Opcode = 0xc1
	OpcodeI64Extend8S    Opcode = 0xc2
	OpcodeI64Extend16S   Opcode = 0xc3
	OpcodeI64Extend32S   Opcode = 0xc4
)

// Reference instructions.
const (
	OpcodeRefNull   Opcode = 0xd0
	OpcodeRefIsNull Opcode = 0xd1
	OpcodeRefFunc   Opcode = 0xd2
)

// Prefixed instructions.
const (
	OpcodeMiscPrefix Opcode = 0xfc00
	OpcodeVecPrefix  Opcode = 0xfd00

	OpcodeMemoryInit Opcode = OpcodeMiscPrefix | 0x08
	OpcodeDataDrop   Opcode = OpcodeMiscPrefix | 0x09
	OpcodeMemoryCopy Opcode = OpcodeMiscPrefix | 0x0a
	OpcodeMemoryFill Opcode = OpcodeMiscPrefix | 0x0b
)

var opcodeNames = map[Opcode]string{
	OpcodeUnreachable:  "unreachable",
	OpcodeNop:          "nop",
	OpcodeBlock:        "block",
	OpcodeLoop:         "loop",
	OpcodeIf:           "if",
	OpcodeElse:         "else",
	OpcodeEnd:          "end",
	OpcodeBr:           "br",
	OpcodeBrIf:         "br_if",
	OpcodeBrTable:      "br_table",
	OpcodeReturn:       "return",
	OpcodeCall:         "call",
	OpcodeCallIndirect: "call_indirect",

	OpcodeDrop:        "drop",
	OpcodeSelect:      "select",
	OpcodeTypedSelect: "select",
	OpcodeLocalGet:    "local.get",
	OpcodeLocalSet:    "local.set",
	OpcodeLocalTee:    "local.tee",
	OpcodeGlobalGet:   "global.get",
	OpcodeGlobalSet:   "global.set",
	OpcodeTableGet:    "table.get",
	OpcodeTableSet:    "table.set",

	OpcodeI32Load:    "i32.load",
	OpcodeI64Load:    "i64.load",
	OpcodeF32Load:    "f32.load",
	OpcodeF64Load:    "f64.load",
	OpcodeI32Load8S:  "i32.load8_s",
	OpcodeI32Load8U:  "i32.load8_u",
	OpcodeI32Load16S: "i32.load16_s",
	OpcodeI32Load16U: "i32.load16_u",
	OpcodeI64Load8S:  "i64.load8_s",
	OpcodeI64Load8U:  "i64.load8_u",
	OpcodeI64Load16S: "i64.load16_s",
	OpcodeI64Load16U: "i64.load16_u",
	OpcodeI64Load32S: "i64.load32_s",
	OpcodeI64Load32U: "i64.load32_u",
	OpcodeI32Store:   "i32.store",
	OpcodeI64Store:   "i64.store",
	OpcodeF32Store:   "f32.store",
	OpcodeF64Store:   "f64.store",
	OpcodeI32Store8:  "i32.store8",
	OpcodeI32Store16: "i32.store16",
	OpcodeI64Store8:  "i64.store8",
	OpcodeI64Store16: "i64.store16",
	OpcodeI64Store32: "i64.store32",
	OpcodeMemorySize: "memory.size",
	OpcodeMemoryGrow: "memory.grow",

	OpcodeI32Const: "i32.const",
	OpcodeI64Const: "i64.const",
	OpcodeF32Const: "f32.const",
	OpcodeF64Const: "f64.const",

	OpcodeI32Eqz: "i32.eqz",
	OpcodeI32Eq:  "i32.eq",
	OpcodeI32Ne:  "i32.ne",
	OpcodeI32LtS: "i32.lt_s",
	OpcodeI32LtU: "i32.lt_u",
	OpcodeI32GtS: "i32.gt_s",
	OpcodeI32GtU: "i32.gt_u",
	OpcodeI32LeS: "i32.le_s",
	OpcodeI32LeU: "i32.le_u",
	OpcodeI32GeS: "i32.ge_s",
	OpcodeI32GeU: "i32.ge_u",

	OpcodeI64Eqz: "i64.eqz",
	OpcodeI64Eq:  "i64.eq",
	OpcodeI64Ne:  "i64.ne",
	OpcodeI64LtS: "i64.lt_s",
	OpcodeI64LtU: "i64.lt_u",
	OpcodeI64GtS: "i64.gt_s",
	OpcodeI64GtU: "i64.gt_u",
	OpcodeI64LeS: "i64.le_s",
	OpcodeI64LeU: "i64.le_u",
	OpcodeI64GeS: "i64.ge_s",
	OpcodeI64GeU: "i64.ge_u",

	OpcodeF32Eq: "f32.eq",
	OpcodeF64Eq: "f64.eq",

	OpcodeI32Clz:    "i32.clz",
	OpcodeI32Ctz:    "i32.ctz",
	OpcodeI32Popcnt: "i32.popcnt",
	OpcodeI32Add:    "i32.add",
	OpcodeI32Sub:    "i32.sub",
	OpcodeI32Mul:    "i32.mul",
	OpcodeI32DivS:   "i32.div_s",
	OpcodeI32DivU:   "i32.div_u",
	OpcodeI32RemS:   "i32.rem_s",
	OpcodeI32RemU:   "i32.rem_u",
	OpcodeI32And:    "i32.and",
	OpcodeI32Or:     "i32.or",
	OpcodeI32Xor:    "i32.xor",
	OpcodeI32Shl:    "i32.shl",
	OpcodeI32ShrS:   "i32.shr_s",
	OpcodeI32ShrU:   "i32.shr_u",
	OpcodeI32Rotl:   "i32.rotl",
	OpcodeI32Rotr:   "i32.rotr",

	OpcodeI64Clz:    "i64.clz",
	OpcodeI64Ctz:    "i64.ctz",
	OpcodeI64Popcnt: "i64.popcnt",
	OpcodeI64Add:    "i64.add",
	OpcodeI64Sub:    "i64.sub",
	OpcodeI64Mul:    "i64.mul",
	OpcodeI64DivS:   "i64.div_s",
	OpcodeI64DivU:   "i64.div_u",
	OpcodeI64RemS:   "i64.rem_s",
	OpcodeI64RemU:   "i64.rem_u",
	OpcodeI64And:    "i64.and",
	OpcodeI64Or:     "i64.or",
	OpcodeI64Xor:    "i64.xor",
	OpcodeI64Shl:    "i64.shl",
	OpcodeI64ShrS:   "i64.shr_s",
	OpcodeI64ShrU:   "i64.shr_u",
	OpcodeI64Rotl:   "i64.rotl",
	OpcodeI64Rotr:   "i64.rotr",

	OpcodeF32Add: "f32.add",
	OpcodeF64Add: "f64.add",

	OpcodeI32WrapI64:     "i32.wrap_i64",
	OpcodeI32TruncF32S:   "i32.trunc_f32_s",
	OpcodeI64ExtendI32S:  "i64.extend_i32_s",
	OpcodeI64ExtendI32U:  "i64.extend_i32_u",
	OpcodeF64ConvertI64S: "f64.convert_i64_s",
	OpcodeI32Extend8S:    "i32.extend8_s",
	OpcodeI32Extend16S:   "i32.extend16_s",
	OpcodeI64Extend8S:    "i64.extend8_s",
	OpcodeI64Extend16S:   "i64.extend16_s",
	OpcodeI64Extend32S:   "i64.extend32_s",

	OpcodeRefNull:   "ref.null",
	OpcodeRefIsNull: "ref.is_null",
	OpcodeRefFunc:   "ref.func",

	OpcodeMemoryInit: "memory.init",
	OpcodeDataDrop:   "data.drop",
	OpcodeMemoryCopy: "memory.copy",
	OpcodeMemoryFill: "memory.fill",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	if op > 0xff {
		return fmt.Sprintf("0x%02x 0x%02x", byte(op>>8), byte(op))
	}
	return fmt.Sprintf("0x%02x", byte(op))
}
