// Package dsl builds programs for the target stack machine out of structured
// parts: named values instead of stack offsets, conditionals and loops instead
// of labels, and functions instead of raw call sites.
//
// A Program owns every Function, declared first and defined later so that
// bodies may refer to each other recursively, plus one entry body. Builder
// callbacks receive an explicit *Scope through which all code is emitted.
// Builder errors abort the whole build: scope methods halt, and the Program
// entry points recover the halt as an error return.
package dsl

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/debugtree"
	"github.com/jcorbin/stackwasm/internal/isa"
	"github.com/jcorbin/stackwasm/internal/panicerr"
)

// FunctionID is the stable identity of a declared function, and its operand
// in the machine's call instructions. The zero FunctionID refers to nothing.
type FunctionID int64

// Function is a called (rather than inlined) function with fixed arity.
type Function struct {
	ID   FunctionID
	Name string
	In   int
	Out  int

	prog *Program
	body *BlockNode
}

// Defined returns true once the function has a body.
func (fn *Function) Defined() bool { return fn.body != nil }

// Body returns the function's block, or nil if not yet defined.
func (fn *Function) Body() *BlockNode { return fn.body }

// BodyFunc builds the body of a function: args are the function's arguments,
// and the returned values become its results.
type BodyFunc func(s *Scope, args []Value) []Value

// Program collects the functions and entry body of one compilation.
type Program struct {
	logfn func(mess string, args ...interface{})

	funcs []*Function
	syms  symbols

	main    *BlockNode
	mainSet bool

	labels int64
	ids    uint64
}

// Output is a flattened program.
type Output struct {
	Instructions []isa.Instruction
	Segments     []debugtree.Segment
}

// Tree rebuilds the debug tree from the output's segment stream.
func (out Output) Tree() (*debugtree.Root, error) { return debugtree.Build(out.Segments) }

// New creates an empty program.
func New(opts ...Option) *Program {
	p := &Program{main: &BlockNode{}}
	p.apply(opts...)
	return p
}

func (p *Program) logf(mess string, args ...interface{}) {
	if p.logfn != nil {
		p.logfn(mess, args...)
	}
}

// Declare introduces a function, which may be called before it is defined.
func (p *Program) Declare(name string, in, out int) (*Function, error) {
	if name == "" {
		return nil, errors.New("function name must not be empty")
	}
	if in < 0 || out < 0 {
		return nil, errors.Errorf("function %q has negative arity %v -> %v", name, in, out)
	}
	if id := p.syms.symbol(name); id != 0 {
		return nil, errors.Errorf("function %q already declared as #%v", name, id)
	}
	fn := &Function{
		ID:   p.syms.symbolicate(name),
		Name: name,
		In:   in,
		Out:  out,
		prog: p,
	}
	p.funcs = append(p.funcs, fn)
	p.logf("declare #%v %v %v -> %v", fn.ID, name, in, out)
	return fn, nil
}

// Define attaches a body to a declared function. The body runs in a frame
// scope holding the function's arguments; the values it returns are moved to
// the bottom of the frame, everything else is popped, and the function
// returns.
func (p *Program) Define(fn *Function, body BodyFunc) error {
	if fn == nil || fn.prog != p {
		return errors.New("function not declared by this program")
	}
	if fn.Defined() {
		return errors.Errorf("function %q already defined", fn.Name)
	}
	blk := &BlockNode{Name: fn.Name, Type: debugtree.FunctionCall}
	s := p.scope(blk, true, fn)
	err := panicerr.Recover(fn.Name, func() error {
		s.emit(isa.N(isa.OpFunc, int64(fn.ID)))
		args := declareArgs(s, fn.In)
		results := body(s, args)
		if s.Reachable() {
			s.Return(results...)
		}
		return nil
	})
	if err != nil {
		return errors.WithMessagef(err, "defining %v", fn.Name)
	}
	fn.body = blk
	p.logf("define #%v %v ops:%v", fn.ID, fn.Name, len(blk.Instructions()))
	return nil
}

// Main sets the entry body. The caller's in input values are on the stack
// when it starts; they are passed to body as args, at absolute positions
// 0 through in-1.
func (p *Program) Main(in int, body func(s *Scope, args []Value)) error {
	if p.mainSet {
		return errors.New("main body already set")
	}
	blk := &BlockNode{}
	s := p.scope(blk, false, nil)
	err := panicerr.Recover("main", func() error {
		args := declareArgs(s, in)
		body(s, args)
		return nil
	})
	if err != nil {
		return errors.WithMessage(err, "defining main")
	}
	p.main, p.mainSet = blk, true
	return nil
}

// declareArgs names argument slots, so that no operation consumes them.
func declareArgs(s *Scope, n int) []Value {
	args := make([]Value, n)
	for i := range args {
		args[i] = s.Declare("arg" + strconv.Itoa(i))
	}
	return args
}

func (p *Program) scope(blk *BlockNode, frame bool, fn *Function) *Scope {
	return &Scope{
		prog:  p,
		fn:    fn,
		st:    &stack{ids: &p.ids, frame: frame},
		block: blk,
	}
}

// Function returns the function with the given id, or nil.
func (p *Program) Function(id FunctionID) *Function {
	if name := p.syms.string(id); name != "" {
		return p.funcs[id-1]
	}
	return nil
}

// Lookup returns the function declared under name.
func (p *Program) Lookup(name string) (*Function, bool) {
	fn := p.Function(p.syms.symbol(name))
	return fn, fn != nil
}

// Functions returns every declared function, in declaration order.
func (p *Program) Functions() []*Function { return append([]*Function(nil), p.funcs...) }

// Flatten produces the final instruction list: the main body, halt, then
// every function body in declaration order. Every declared function must have
// been defined.
func (p *Program) Flatten() (Output, error) {
	for _, fn := range p.funcs {
		if !fn.Defined() {
			return Output{}, compileerr.Errorf(compileerr.UnresolvedForwardDeclaration,
				"function %q declared but never defined", fn.Name)
		}
	}

	var rec debugtree.Recorder
	if err := record(&rec, p.main.Children); err != nil {
		return Output{}, err
	}
	rec.Op(isa.I(isa.OpHalt))
	for _, fn := range p.funcs {
		if err := record(&rec, []Node{fn.body}); err != nil {
			return Output{}, err
		}
	}

	segs, err := rec.Segments()
	if err != nil {
		return Output{}, err
	}
	out := Output{
		Instructions: rec.Instructions(),
		Segments:     segs,
	}
	p.logf("flatten %v functions into %v instructions", len(p.funcs), len(out.Instructions))
	return out, nil
}

func (p *Program) newLabel() Label {
	p.labels++
	return Label(p.labels)
}
