package wasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addModule() *Module {
	return &Module{
		Types: []FunctionType{{
			Params:  []ValueType{ValueTypeI32, ValueTypeI32},
			Results: []ValueType{ValueTypeI32},
		}},
		Functions: []Function{{
			Type: 0,
			Body: Body(LocalGet(0), LocalGet(1), Op(OpcodeI32Add)),
		}},
		Exports: []Export{{Name: "add", Type: ExternTypeFunc, Index: 0}},
	}
}

type validateTestCases []validateTestCase

type validateTestCase struct {
	name    string
	mutate  func(m *Module)
	wantErr string
}

func (vts validateTestCases) run(t *testing.T) {
	for _, vt := range vts {
		t.Run(vt.name, func(t *testing.T) {
			m := addModule()
			if vt.mutate != nil {
				vt.mutate(m)
			}
			err := m.Validate()
			if vt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, vt.wantErr)
			}
		})
	}
}

func TestModule_Validate(t *testing.T) {
	validateTestCases{
		{name: "valid"},

		{name: "local out of range", mutate: func(m *Module) {
			m.Functions[0].Body[1] = LocalGet(2)
		}, wantErr: "function add: local.get @1: local 2 out of range"},

		{name: "declared locals extend the range", mutate: func(m *Module) {
			m.Functions[0].Locals = []ValueType{ValueTypeI64}
			m.Functions[0].Body[1] = LocalGet(2)
		}},

		{name: "label out of range", mutate: func(m *Module) {
			m.Functions[0].Body = Body(Block(), Br(2), Op(OpcodeEnd))
		}, wantErr: "function add: br @1: label 2 out of range at depth 2"},

		{name: "br_table default out of range", mutate: func(m *Module) {
			m.Functions[0].Body = Body(LocalGet(0), BrTable(0, 1))
		}, wantErr: "function add: br_table @1: label 1 out of range at depth 1"},

		{name: "unterminated", mutate: func(m *Module) {
			m.Functions[0].Body = Body(Loop(), LocalGet(0))
		}, wantErr: "function add: body has 1 unterminated blocks"},

		{name: "code after end", mutate: func(m *Module) {
			m.Functions[0].Body = append(m.Functions[0].Body, Op(OpcodeNop))
		}, wantErr: "function add: instruction nop @4 after final end"},

		{name: "immutable global", mutate: func(m *Module) {
			m.Globals = []Global{{Type: GlobalType{ValType: ValueTypeI32}, Init: I32(1)}}
			m.Functions[0].Body = Body(I32Const(1), GlobalSet(0))
		}, wantErr: "function add: global.set @1: global 0 is immutable"},

		{name: "memory access without memory", mutate: func(m *Module) {
			m.Functions[0].Body = Body(I32Const(0), Mem(OpcodeI32Load, 4))
		}, wantErr: "function add: i32.load @1: memory instruction without a memory"},

		{name: "indirect call without table", mutate: func(m *Module) {
			m.Functions[0].Body = Body(I32Const(0), CallIndirect(0))
		}, wantErr: "function add: call_indirect @1: indirect call without a table"},

		{name: "global initializer reads later global", mutate: func(m *Module) {
			m.Globals = []Global{
				{Type: GlobalType{ValType: ValueTypeI32}, Init: ConstExpr{Opcode: OpcodeGlobalGet, Value: 1}},
				{Type: GlobalType{ValType: ValueTypeI32}, Init: I32(1)},
			}
		}, wantErr: "global 0: initializer reads global 1 out of range"},

		{name: "non constant initializer", mutate: func(m *Module) {
			m.Globals = []Global{{Type: GlobalType{ValType: ValueTypeI32}, Init: ConstExpr{Opcode: OpcodeI32Add}}}
		}, wantErr: "global 0: initializer i32.add is not constant"},

		{name: "inverted limits", mutate: func(m *Module) {
			m.Memories = []Memory{{Limits: Pages(2, 1)}}
		}, wantErr: "memory 0: maximum 1 below minimum 2"},

		{name: "element function out of range", mutate: func(m *Module) {
			m.Tables = []Table{{Type: ValueTypeFuncref, Limits: Limits{Min: 1}}}
			m.Elements = []Element{{Offset: I32(0), Init: []uint32{1}}}
		}, wantErr: "element 0: function 1 out of range"},

		{name: "data without memory", mutate: func(m *Module) {
			m.Data = []Data{{Offset: I32(0), Init: []byte("hi")}}
		}, wantErr: "data 0: memory 0 out of range"},

		{name: "duplicate export", mutate: func(m *Module) {
			m.Exports = append(m.Exports, Export{Name: "add", Type: ExternTypeFunc})
		}, wantErr: `duplicate export "add"`},

		{name: "export out of range", mutate: func(m *Module) {
			m.Exports = append(m.Exports, Export{Name: "mem", Type: ExternTypeMemory})
		}, wantErr: `export "mem": memory 0 out of range`},

		{name: "start function type", mutate: func(m *Module) {
			start := uint32(0)
			m.Start = &start
		}, wantErr: "start function has type (i32 i32) -> (i32)"},
	}.run(t)
}

func TestModule_lookup(t *testing.T) {
	m := addModule()
	require.NoError(t, m.Validate())

	exp, ok := m.Export("add", ExternTypeFunc)
	assert.True(t, ok)
	assert.Equal(t, uint32(0), exp.Index)
	_, ok = m.Export("add", ExternTypeMemory)
	assert.False(t, ok)

	assert.Equal(t, "add", m.FunctionName(0))
	m.Functions[0].Name = "sum"
	assert.Equal(t, "sum", m.FunctionName(0))
	m.Functions = append(m.Functions, Function{Body: Body()})
	assert.Equal(t, "func1", m.FunctionName(1))

	assert.Equal(t, "(i32 i32) -> (i32)", m.TypeOf(0).String())
}

func TestInstr(t *testing.T) {
	for _, tc := range []struct {
		in   Instr
		want string
	}{
		{Op(OpcodeI32Add), "i32.add"},
		{I32Const(0xffffffff), "i32.const -1"},
		{I64Const(1 << 40), "i64.const 1099511627776"},
		{LocalTee(3), "local.tee 3"},
		{BrTable(2, 0, 1), "br_table 2 0 1"},
		{Block(), "block"},
		{If(ValueTypeI64), "if () -> (i64)"},
		{Mem(OpcodeI32Store8, 16), "i32.store8 offset=16 align=0"},
		{Op(OpcodeMemoryFill), "memory.fill"},
		{Op(0xfc11), "0xfc 0x11"},
		{Op(0xfe), "0xfe"},
	} {
		assert.Equal(t, tc.want, tc.in.String())
	}

	bt := BrTable(4, 5, 6)
	assert.Equal(t, []uint32{4, 5}, bt.Labels)
	assert.Equal(t, uint32(6), bt.Index)

	assert.Equal(t, int64(-1), I32(0xffffffff).Value)
	assert.Equal(t, "ref.func 2", RefFunc(2).String())
	assert.Equal(t, "ref.null", ConstExpr{Opcode: OpcodeRefNull}.String())
	assert.Equal(t, "funcref", ValueTypeName(ValueTypeFuncref))
	assert.Equal(t, "i64", ValueTypeName(ValueTypeI64))
	assert.Equal(t, "global", ExternTypeName(ExternTypeGlobal))
}
