package programs

import (
	"github.com/jcorbin/stackwasm/internal/translate"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

var (
	i32 = wasm.ValueTypeI32

	localGet = wasm.LocalGet
	localSet = wasm.LocalSet
	i32Const = wasm.I32Const
	op       = wasm.Op
)

var wasmAdd = Program{
	Name:    "wasm-add",
	Doc:     "a translated i32.add",
	Input:   []int64{40, 2},
	Want:    []int64{42},
	compile: translated(addModule, "add"),
}

var wasmFib = Program{
	Name:    "wasm-fib",
	Doc:     "a translated recursive fibonacci",
	Input:   []int64{20},
	Want:    []int64{6765},
	compile: translated(fibModule, "fib"),
}

var wasmMemory = Program{
	Name:    "wasm-checksum",
	Doc:     "a translated loop summing the bytes of a data segment",
	Input:   []int64{8, 13},
	Want:    []int64{1291},
	compile: translated(checksumModule, "checksum", translate.WithPageSize(64)),
}

func addModule() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FunctionType{{
			Params:  []wasm.ValueType{i32, i32},
			Results: []wasm.ValueType{i32},
		}},
		Functions: []wasm.Function{{
			Body: wasm.Body(localGet(0), localGet(1), op(wasm.OpcodeI32Add)),
		}},
		Exports: []wasm.Export{{Name: "add", Type: wasm.ExternTypeFunc, Index: 0}},
	}
}

func fibModule() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FunctionType{{
			Params:  []wasm.ValueType{i32},
			Results: []wasm.ValueType{i32},
		}},
		Functions: []wasm.Function{{
			Body: wasm.Body(
				localGet(0), i32Const(2), op(wasm.OpcodeI32LtS),
				wasm.If(i32),
				localGet(0),
				op(wasm.OpcodeElse),
				localGet(0), i32Const(1), op(wasm.OpcodeI32Sub), wasm.Call(0),
				localGet(0), i32Const(2), op(wasm.OpcodeI32Sub), wasm.Call(0),
				op(wasm.OpcodeI32Add),
				op(wasm.OpcodeEnd),
			),
		}},
		Exports: []wasm.Export{{Name: "fib", Type: wasm.ExternTypeFunc, Index: 0}},
	}
}

func checksumModule() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FunctionType{{
			Params:  []wasm.ValueType{i32, i32},
			Results: []wasm.ValueType{i32},
		}},
		Functions: []wasm.Function{{
			Locals: []wasm.ValueType{i32},
			Body: wasm.Body(
				wasm.Block(),
				wasm.Loop(),
				localGet(1), op(wasm.OpcodeI32Eqz), wasm.BrIf(1),
				localGet(2), localGet(0), wasm.Mem(wasm.OpcodeI32Load8U, 0), op(wasm.OpcodeI32Add), localSet(2),
				localGet(0), i32Const(1), op(wasm.OpcodeI32Add), localSet(0),
				localGet(1), i32Const(1), op(wasm.OpcodeI32Sub), localSet(1),
				wasm.Br(0),
				op(wasm.OpcodeEnd),
				op(wasm.OpcodeEnd),
				localGet(2),
			),
		}},
		Memories: []wasm.Memory{{Limits: wasm.Pages(1, 1)}},
		Data:     []wasm.Data{{Offset: wasm.I32(8), Init: []byte("stack machine")}},
		Exports:  []wasm.Export{{Name: "checksum", Type: wasm.ExternTypeFunc, Index: 0}},
	}
}
