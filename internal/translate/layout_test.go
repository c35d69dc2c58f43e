package translate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

func layoutModule() *wasm.Module {
	return &wasm.Module{
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValType: wasm.ValueTypeI32}, Init: wasm.I32(1)},
			{Type: wasm.GlobalType{ValType: wasm.ValueTypeI64, Mutable: true}, Init: wasm.I64(2)},
		},
		Tables:   []wasm.Table{{Type: wasm.ValueTypeFuncref, Limits: wasm.Limits{Min: 3}}},
		Memories: []wasm.Memory{{Limits: wasm.Pages(1, 2)}},
	}
}

func TestPlan(t *testing.T) {
	l, err := Plan(layoutModule(), 4)
	require.NoError(t, err)
	assert.Equal(t, &Layout{
		PageSize: 4,
		Globals:  2,
		NGlobals: 2,
		Tables:   []TableRegion{{Base: 4, Len: 3}},
		Memories: []MemoryRegion{{
			PagesSlot:    7,
			MaxPagesSlot: 8,
			Payload:      9,
			MinPages:     1,
			MaxPages:     2,
		}},
		Size: 17,
	}, l)
	assert.Equal(t, 3, l.Global(1))
	assert.Equal(t, 8, l.Memories[0].PayloadSize(l.PageSize))

	for _, tc := range []struct {
		pos  int
		name string
	}{
		{-1, ""},
		{0, "sentinel"},
		{1, "input length"},
		{2, "global 0"},
		{3, "global 1"},
		{4, "table 0[0]"},
		{6, "table 0[2]"},
		{7, "memory 0 pages"},
		{8, "memory 0 max pages"},
		{9, "memory 0 payload"},
		{10, ""},
		{17, ""},
	} {
		assert.Equal(t, tc.name, l.Annotate(tc.pos), "annotation @%v", tc.pos)
	}
}

func TestPlan_unboundedMemory(t *testing.T) {
	m := &wasm.Module{Memories: []wasm.Memory{{Limits: wasm.Limits{Min: 2}}}}
	l, err := Plan(m, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Memories[0].MaxPages)
	assert.Equal(t, headerSize+2+16, l.Size)
}

func TestPlan_errors(t *testing.T) {
	_, err := Plan(layoutModule(), 0)
	assert.EqualError(t, err, "invalid page size 0")

	m := layoutModule()
	m.Memories = append(m.Memories, wasm.Memory{Limits: wasm.Pages(1, 1)})
	_, err = Plan(m, 4)
	assert.True(t, errors.Is(err, compileerr.UnsupportedWasmConstruct), "unexpected error %v", err)
}
