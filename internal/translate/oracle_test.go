package translate

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/jcorbin/stackwasm/internal/vm"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

// binopBinary encodes a module exporting "run", a function applying opcode
// to its two params.
func binopBinary(opcode wasm.Opcode, param, result wasm.ValueType) []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// type section: (param param) -> (result)
		0x01, 0x07, 0x01, 0x60, 0x02, param, param, 0x01, result,
		// function section
		0x03, 0x02, 0x01, 0x00,
		// export section: "run"
		0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x00,
		// code section: local.get 0; local.get 1; opcode; end
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, byte(opcode), 0x0b,
	}
}

type oracleOp struct {
	opcode        wasm.Opcode
	param, result wasm.ValueType
}

func (oo oracleOp) module() *wasm.Module {
	m := funcModule(types(oo.param, oo.param), types(oo.result), nil,
		localGet(0), localGet(1), op(oo.opcode))
	m.Exports[0].Name = "run"
	return m
}

// traps returns true for operands on which the instruction traps.
func (oo oracleOp) traps(a, b int64) bool {
	switch oo.opcode {
	case wasm.OpcodeI32DivS, wasm.OpcodeI32DivU, wasm.OpcodeI32RemS, wasm.OpcodeI32RemU:
		return int32(b) == 0 || oo.opcode == wasm.OpcodeI32DivS && int32(a) == math.MinInt32 && int32(b) == -1
	case wasm.OpcodeI64DivS, wasm.OpcodeI64RemS:
		return b == 0 || oo.opcode == wasm.OpcodeI64DivS && a == math.MinInt64 && b == -1
	}
	return false
}

func TestCompile_oracle(t *testing.T) {
	var ops []oracleOp
	for _, opcode := range []wasm.Opcode{
		wasm.OpcodeI32Add, wasm.OpcodeI32Sub, wasm.OpcodeI32Mul,
		wasm.OpcodeI32DivS, wasm.OpcodeI32DivU, wasm.OpcodeI32RemS, wasm.OpcodeI32RemU,
		wasm.OpcodeI32And, wasm.OpcodeI32Or, wasm.OpcodeI32Xor,
		wasm.OpcodeI32Shl, wasm.OpcodeI32ShrS, wasm.OpcodeI32ShrU,
		wasm.OpcodeI32Rotl, wasm.OpcodeI32Rotr,
		wasm.OpcodeI32Eq, wasm.OpcodeI32Ne,
		wasm.OpcodeI32LtS, wasm.OpcodeI32LtU, wasm.OpcodeI32GtS, wasm.OpcodeI32GtU,
		wasm.OpcodeI32LeS, wasm.OpcodeI32LeU, wasm.OpcodeI32GeS, wasm.OpcodeI32GeU,
	} {
		ops = append(ops, oracleOp{opcode, i32, i32})
	}
	for _, opcode := range []wasm.Opcode{
		wasm.OpcodeI64Add, wasm.OpcodeI64Sub, wasm.OpcodeI64Mul,
		wasm.OpcodeI64DivS, wasm.OpcodeI64RemS,
		wasm.OpcodeI64And, wasm.OpcodeI64Or, wasm.OpcodeI64Xor,
		wasm.OpcodeI64Shl, wasm.OpcodeI64ShrS, wasm.OpcodeI64ShrU,
		wasm.OpcodeI64Rotl, wasm.OpcodeI64Rotr,
	} {
		ops = append(ops, oracleOp{opcode, i64, i64})
	}
	for _, opcode := range []wasm.Opcode{
		wasm.OpcodeI64Eq, wasm.OpcodeI64Ne,
		wasm.OpcodeI64LtS, wasm.OpcodeI64LtU, wasm.OpcodeI64GtS, wasm.OpcodeI64GtU,
		wasm.OpcodeI64LeS, wasm.OpcodeI64LeU, wasm.OpcodeI64GeS, wasm.OpcodeI64GeU,
	} {
		ops = append(ops, oracleOp{opcode, i64, i32})
	}

	edges := []int64{
		0, 1, 2, -1, -2, 31, 32, 33, 63, 64, 65,
		math.MaxInt32, math.MinInt32, math.MaxUint32,
		math.MaxInt64, math.MinInt64,
	}
	rng := rand.New(rand.NewSource(1))
	operands := func() (pairs [][2]int64) {
		for _, a := range edges {
			for _, b := range edges {
				pairs = append(pairs, [2]int64{a, b})
			}
		}
		for i := 0; i < 64; i++ {
			pairs = append(pairs, [2]int64{int64(rng.Uint64()), int64(rng.Uint64())})
		}
		return pairs
	}()

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	for i, oo := range ops {
		oo := oo
		t.Run(oo.opcode.String(), func(t *testing.T) {
			mod, err := r.InstantiateWithConfig(ctx, binopBinary(oo.opcode, oo.param, oo.result),
				wazero.NewModuleConfig().WithName(fmt.Sprintf("oracle%d", i)))
			require.NoError(t, err, "oracle instantiation")
			run := mod.ExportedFunction("run")

			res, err := Compile(oo.module(), "run")
			require.NoError(t, err, "unexpected compile error")
			m := vm.New(res.Instructions)

			for _, ab := range operands {
				a, b := ab[0], ab[1]
				if oo.traps(a, b) {
					continue
				}
				var args []uint64
				if oo.param == i32 {
					args = []uint64{api.EncodeI32(int32(a)), api.EncodeI32(int32(b))}
				} else {
					args = []uint64{api.EncodeI64(a), api.EncodeI64(b)}
				}
				out, err := run.Call(ctx, args...)
				require.NoError(t, err, "oracle call(%v, %v)", a, b)
				want := int64(out[0])
				if oo.result == i32 {
					want = int64(api.DecodeI32(out[0]))
				}

				// inputs are given raw: i32 params are reduced on entry
				if !assert.NoError(t, m.Run(ctx, a, b), "run(%v, %v)", a, b) {
					continue
				}
				got, _ := m.Top()
				assert.Equal(t, want, got, "%v(%v, %v)", oo.opcode, a, b)
			}
		})
	}
}
