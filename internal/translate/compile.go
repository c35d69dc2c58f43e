package translate

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/dsl"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

// Result is a translated module, ready to run with the export's arguments as
// input.
type Result struct {
	dsl.Output
	Layout *Layout
	Export *dsl.Function
}

// Compile translates m into a program that installs the module, calls the
// exported function with its inputs, and halts with the function's results on
// top of the stack.
func Compile(m *wasm.Module, export string, opts ...Option) (Result, error) {
	var cfg config
	cfg.apply(opts...)
	prog := dsl.New(dsl.WithLogf(cfg.logfn))

	inst, err := Install(prog, m, opts...)
	if err != nil {
		return Result{}, err
	}
	exp, ok := m.Export(export, wasm.ExternTypeFunc)
	if !ok {
		return Result{}, errors.Errorf("no exported function %q", export)
	}
	fn, ft := inst.Function(exp.Index), m.TypeOf(exp.Index)

	if err := prog.Main(0, func(s *dsl.Scope, _ []dsl.Value) {
		inst.Setup(s)
		args := make([]dsl.Value, len(ft.Params))
		for i := range args {
			args[i] = s.Declare(fmt.Sprintf("arg%d", i))
		}
		// inputs are arbitrary 64-bit values, i32 params must be canonical
		for i, vt := range ft.Params {
			if vt == wasm.ValueTypeI32 {
				args[i] = wrap32(s, args[i])
			}
		}
		s.Call(fn, args...)
	}); err != nil {
		return Result{}, err
	}

	out, err := prog.Flatten()
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out, Layout: inst.Layout, Export: fn}, nil
}
