// Package wasm models an already decoded WebAssembly module: the subset of
// its sections that static translation consumes. Decoding the binary format
// is left to other tools; modules are built directly, e.g. with the
// constructor helpers in this package.
package wasm

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
)

// ValueType is a WebAssembly value type, shared with wazero's api.
type ValueType = api.ValueType

// ExternType classifies exports, shared with wazero's api.
type ExternType = api.ExternType

const (
	ValueTypeI32       = api.ValueTypeI32
	ValueTypeI64       = api.ValueTypeI64
	ValueTypeF32       = api.ValueTypeF32
	ValueTypeF64       = api.ValueTypeF64
	ValueTypeExternref = api.ValueTypeExternref

	// ValueTypeFuncref is the reference type of function tables.
	ValueTypeFuncref ValueType = 0x70

	ExternTypeFunc   = api.ExternTypeFunc
	ExternTypeTable  = api.ExternTypeTable
	ExternTypeMemory = api.ExternTypeMemory
	ExternTypeGlobal = api.ExternTypeGlobal
)

// ValueTypeName returns the text format name of a value type.
func ValueTypeName(vt ValueType) string {
	if vt == ValueTypeFuncref {
		return "funcref"
	}
	return api.ValueTypeName(vt)
}

// ExternTypeName returns the text format name of an extern type.
func ExternTypeName(et ExternType) string { return api.ExternTypeName(et) }

// FunctionType is a function signature.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func (ft FunctionType) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, vt := range ft.Params {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(ValueTypeName(vt))
	}
	sb.WriteString(") -> (")
	for i, vt := range ft.Results {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(ValueTypeName(vt))
	}
	sb.WriteString(")")
	return sb.String()
}

// Limits bound the size of a table or memory; Max is nil when unbounded.
type Limits struct {
	Min uint32
	Max *uint32
}

// Table is a table of function references.
type Table struct {
	Type ValueType
	Limits
}

// Memory is a linear memory, sized in pages.
type Memory struct {
	Limits
}

// GlobalType is the type of a global.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a global variable with its initializer.
type Global struct {
	Type GlobalType
	Init ConstExpr
}

// ConstExpr is an initializer: a single constant producing instruction.
// Value holds the constant for i32.const and i64.const, and the index for
// global.get and ref.func.
type ConstExpr struct {
	Opcode Opcode
	Value  int64
}

func (ce ConstExpr) String() string {
	if ce.Opcode == OpcodeRefNull {
		return ce.Opcode.String()
	}
	return fmt.Sprintf("%v %v", ce.Opcode, ce.Value)
}

// Element is an active element segment, initializing entries of a table
// with function indices.
type Element struct {
	Table  uint32
	Offset ConstExpr
	Init   []uint32
}

// Data is an active data segment, initializing bytes of a memory.
type Data struct {
	Memory uint32
	Offset ConstExpr
	Init   []byte
}

// Export names a function, table, memory or global for the embedder.
type Export struct {
	Name  string
	Type  ExternType
	Index uint32
}

// Function is a module defined function.
type Function struct {
	// Type indexes the module's Types.
	Type uint32

	// Locals are the declared locals beyond the parameters.
	Locals []ValueType

	// Body is the instruction sequence, ending with OpcodeEnd.
	Body []Instr

	// Name is an optional debug name.
	Name string
}

// Module is a decoded module. Imports are not modeled: every function,
// global, table and memory index refers to a module definition.
type Module struct {
	Types     []FunctionType
	Functions []Function
	Globals   []Global
	Tables    []Table
	Memories  []Memory
	Elements  []Element
	Data      []Data
	Exports   []Export
	Start     *uint32
}

// TypeOf returns the signature of function fn.
func (m *Module) TypeOf(fn uint32) FunctionType { return m.Types[m.Functions[fn].Type] }

// Export finds an export by name and type.
func (m *Module) Export(name string, typ ExternType) (Export, bool) {
	for _, exp := range m.Exports {
		if exp.Name == name && exp.Type == typ {
			return exp, true
		}
	}
	return Export{}, false
}

// FunctionName returns the debug name of function fn: its own name, the name
// of its first export, or a name derived from its index.
func (m *Module) FunctionName(fn uint32) string {
	if name := m.Functions[fn].Name; name != "" {
		return name
	}
	for _, exp := range m.Exports {
		if exp.Type == ExternTypeFunc && exp.Index == fn {
			return exp.Name
		}
	}
	return fmt.Sprintf("func%d", fn)
}
