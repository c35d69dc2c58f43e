// Package translate compiles a WebAssembly module into a stack machine
// program.
//
// Install instantiates a module statically: its globals, tables and memories
// are laid out at the bottom of the machine stack (see Layout), and the code
// that materializes them runs once at program start, before any export. Every
// module function becomes a called dsl.Function; direct calls are linked at
// translation time, and call_indirect dispatches through the function
// identities stored in the table region.
package translate

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/dsl"
	"github.com/jcorbin/stackwasm/internal/isa"
	"github.com/jcorbin/stackwasm/internal/memchunk"
	"github.com/jcorbin/stackwasm/internal/panicerr"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

// Instance is a module installed into a dsl.Program.
type Instance struct {
	Module *wasm.Module
	Layout *Layout

	cfg     config
	funcs   []*dsl.Function
	globals []int64
	tables  [][]int64
	images  [][]byte
}

// Install plans the layout of m and translates all of its functions into
// prog. The install code itself is emitted by Setup.
func Install(prog *dsl.Program, m *wasm.Module, opts ...Option) (*Instance, error) {
	inst := &Instance{Module: m}
	inst.cfg.apply(opts...)
	if inst.cfg.chunkThreshold < 1 {
		return nil, errors.Errorf("invalid zero run threshold %v", inst.cfg.chunkThreshold)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid module")
	}
	layout, err := Plan(m, inst.cfg.pageSize)
	if err != nil {
		return nil, err
	}
	inst.Layout = layout

	for i := range m.Functions {
		ft := m.TypeOf(uint32(i))
		name := m.FunctionName(uint32(i))
		if _, taken := prog.Lookup(name); taken {
			name = fmt.Sprintf("%s#%d", name, i)
		}
		fn, err := prog.Declare(name, len(ft.Params), len(ft.Results))
		if err != nil {
			return nil, err
		}
		inst.funcs = append(inst.funcs, fn)
	}

	if err := inst.initialize(); err != nil {
		return nil, err
	}

	for i, fn := range inst.funcs {
		if err := prog.Define(fn, inst.body(uint32(i))); err != nil {
			return nil, err
		}
	}
	inst.cfg.logf("installed %v functions, layout size %v", len(inst.funcs), layout.Size)
	return inst, nil
}

// Function returns the translation of module function i.
func (inst *Instance) Function(i uint32) *dsl.Function { return inst.funcs[i] }

// Export returns the translation of the exported function name.
func (inst *Instance) Export(name string) (*dsl.Function, error) {
	exp, ok := inst.Module.Export(name, wasm.ExternTypeFunc)
	if !ok {
		return nil, errors.Errorf("no exported function %q", name)
	}
	return inst.funcs[exp.Index], nil
}

// evalConst evaluates an initializer; globals must already be evaluated up to
// any it reads.
func (inst *Instance) evalConst(ce wasm.ConstExpr) int64 {
	switch ce.Opcode {
	case wasm.OpcodeI32Const:
		return int64(int32(ce.Value))
	case wasm.OpcodeGlobalGet:
		return inst.globals[ce.Value]
	case wasm.OpcodeRefFunc:
		return int64(inst.funcs[ce.Value].ID)
	}
	// i64.const, or 0 for ref.null
	return ce.Value
}

// initialize computes the initial contents of every layout region.
func (inst *Instance) initialize() error {
	m := inst.Module
	for _, g := range m.Globals {
		inst.globals = append(inst.globals, inst.evalConst(g.Init))
	}

	for _, tr := range inst.Layout.Tables {
		inst.tables = append(inst.tables, make([]int64, tr.Len))
	}
	for i, elem := range m.Elements {
		tab := inst.tables[elem.Table]
		off := int(uint32(inst.evalConst(elem.Offset)))
		if off+len(elem.Init) > len(tab) {
			return errors.Errorf("element %v overflows table %v of size %v", i, elem.Table, len(tab))
		}
		for j, fn := range elem.Init {
			tab[off+j] = int64(inst.funcs[fn].ID)
		}
	}

	inst.images = make([][]byte, len(inst.Layout.Memories))
	for i, data := range m.Data {
		mr := inst.Layout.Memories[data.Memory]
		off := int(uint32(inst.evalConst(data.Offset)))
		end := off + len(data.Init)
		if end > mr.MinPages*inst.Layout.PageSize {
			return errors.Errorf("data %v overflows memory %v", i, data.Memory)
		}
		img := inst.images[data.Memory]
		if end > len(img) {
			img = append(img, make([]byte, end-len(img))...)
		}
		copy(img[off:], data.Init)
		inst.images[data.Memory] = img
	}
	return nil
}

// Setup emits the install code into s, which must be an entry body with
// nothing declared yet, while the caller's inputs are on the stack. The
// inputs move above the layout, the layout is initialized, and the module's
// start function runs. The layout region is then reserved in s, so that the
// inputs may be declared as its first slots.
func (inst *Instance) Setup(s *dsl.Scope) {
	s.Inline("install", func(s *dsl.Scope) {
		size := int64(inst.Layout.Size)
		raw := func(code ...isa.Instruction) { s.Raw(code...) }
		push := func(n int64) isa.Instruction { return isa.N(isa.OpPush, n) }
		set := func(pos int) isa.Instruction { return isa.N(isa.OpSet, int64(pos)) }

		// grow the stack by the layout size
		raw(push(size))
		countdown(s, push(0), isa.I(isa.OpSwap))

		// move every input up by the layout size, clearing its old slot;
		// descending order never overwrites an input before it moves
		raw(isa.I(isa.OpDepth), isa.N(isa.OpSubI, size))
		countdown(s,
			isa.I(isa.OpDup), isa.I(isa.OpRead),
			isa.I(isa.OpDepth), isa.N(isa.OpSubI, 2), isa.I(isa.OpRead),
			isa.N(isa.OpAddI, size), isa.I(isa.OpWrite),
			push(0),
			isa.I(isa.OpDepth), isa.N(isa.OpSubI, 2), isa.I(isa.OpRead),
			isa.I(isa.OpWrite),
		)

		raw(push(0), set(SentinelSlot))
		raw(isa.I(isa.OpDepth), isa.N(isa.OpSubI, size), set(InputLengthSlot))

		for i, v := range inst.globals {
			raw(push(v), set(inst.Layout.Global(i)))
		}
		for i, tab := range inst.tables {
			base := inst.Layout.Tables[i].Base
			for j, id := range tab {
				raw(push(id), set(base+j))
			}
		}
		for i, mr := range inst.Layout.Memories {
			raw(push(int64(mr.MinPages)), set(mr.PagesSlot))
			raw(push(int64(mr.MaxPages)), set(mr.MaxPagesSlot))
			inst.writeImage(s, mr.Payload, inst.images[i])
		}
	})
	s.Reserve(inst.Layout.Size)
	if start := inst.Module.Start; start != nil {
		s.Call(inst.funcs[*start])
	}
}

// writeImage writes an initial memory image at pos, element by element.
// Setup has already zeroed the whole layout, so zero runs are skipped.
func (inst *Instance) writeImage(s *dsl.Scope, pos int, image []byte) {
	chunks, err := memchunk.Split(image, inst.cfg.chunkThreshold)
	panicerr.HaltIf(err)
	for _, c := range chunks {
		if !c.Zeroes {
			s.Raw(isa.N(isa.OpPush, int64(c.Value)), isa.N(isa.OpSet, int64(pos)))
		}
		pos += c.Extent()
	}
	inst.cfg.logf("memory image of %v bytes in %v chunks", memchunk.Extent(chunks), len(chunks))
}

// countdown emits a loop over the counter on top of the stack, which runs
// body once for each count down to 1, and finally pops the counter. The body
// sees the decremented counter on top, and must leave it there.
func countdown(s *dsl.Scope, body ...isa.Instruction) {
	top, end := s.NewLabel(), s.NewLabel()
	s.Raw(isa.N(isa.OpLabel, int64(top)), isa.I(isa.OpDup), isa.N(isa.OpJz, int64(end)), isa.I(isa.OpDec))
	s.Raw(body...)
	s.Raw(isa.N(isa.OpJump, int64(top)), isa.N(isa.OpLabel, int64(end)), isa.I(isa.OpPop))
}
