// Package programs is a registry of named example programs for the stack
// machine, written with the dsl builder or translated from WebAssembly.
package programs

import (
	"github.com/jcorbin/stackwasm/internal/dsl"
	"github.com/jcorbin/stackwasm/internal/translate"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

// Program is a registered example.
type Program struct {
	Name string
	Doc  string

	// Input is a sample input; Want the top of the stack it produces.
	Input []int64
	Want  []int64

	compile func(logf func(mess string, args ...interface{})) (Compiled, error)
}

// Compiled is the output of compiling a Program, with a namer for the
// absolute stack positions it reserves, if any.
type Compiled struct {
	dsl.Output
	Annotate func(addr int) string
}

// Compile builds the program; logf, which may be nil, receives compiler
// progress.
func (prog Program) Compile(logf func(mess string, args ...interface{})) (Compiled, error) {
	return prog.compile(logf)
}

var all = []Program{
	sumTo,
	factorial,
	fibonacci,
	sumInputs,
	collatz,
	wasmAdd,
	wasmFib,
	wasmMemory,
}

// All returns every registered program.
func All() []Program { return append([]Program(nil), all...) }

// Get returns the program registered under name.
func Get(name string) (Program, bool) {
	for _, prog := range all {
		if prog.Name == name {
			return prog, true
		}
	}
	return Program{}, false
}

// built compiles a program made with the dsl builder.
func built(build func(p *dsl.Program) error) func(logf func(mess string, args ...interface{})) (Compiled, error) {
	return func(logf func(mess string, args ...interface{})) (Compiled, error) {
		p := dsl.New(dsl.WithLogf(logf))
		if err := build(p); err != nil {
			return Compiled{}, err
		}
		out, err := p.Flatten()
		return Compiled{Output: out}, err
	}
}

// translated compiles an export of a WebAssembly module.
func translated(module func() *wasm.Module, export string, opts ...translate.Option) func(logf func(mess string, args ...interface{})) (Compiled, error) {
	return func(logf func(mess string, args ...interface{})) (Compiled, error) {
		opts := append(opts[:len(opts):len(opts)], translate.WithLogf(logf))
		res, err := translate.Compile(module(), export, opts...)
		if err != nil {
			return Compiled{}, err
		}
		return Compiled{Output: res.Output, Annotate: res.Layout.Annotate}, nil
	}
}
