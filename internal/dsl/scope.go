package dsl

import (
	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/debugtree"
	"github.com/jcorbin/stackwasm/internal/isa"
	"github.com/jcorbin/stackwasm/internal/panicerr"
)

// Scope is a lexical region of a body under construction. Every emitting
// operation goes through a Scope; nested constructs hand their callbacks a
// child scope that shares the same compile time stack.
//
// Operations may consume operand slots that are anonymous temporaries of the
// scope itself, i.e. pushed after it was entered and never named. Named slots,
// and slots from enclosing scopes, are only ever copied.
type Scope struct {
	prog   *Program
	fn     *Function
	st     *stack
	block  *BlockNode
	parent *Scope
	names  map[string]Value
	entry  int
}

func (s *Scope) child(blk *BlockNode) *Scope {
	return &Scope{
		prog:   s.prog,
		fn:     s.fn,
		st:     s.st,
		block:  blk,
		parent: s,
		entry:  s.st.depth(),
	}
}

// Program returns the program that the scope builds into.
func (s *Scope) Program() *Program { return s.prog }

// Function returns the function whose body the scope is in, nil for main.
func (s *Scope) Function() *Function { return s.fn }

// Depth returns the current compile time stack depth, relative to the frame
// base inside function bodies.
func (s *Scope) Depth() int { return s.st.depth() }

// Entry returns the stack depth at which the scope was entered.
func (s *Scope) Entry() int { return s.entry }

// Bind names a value within the scope and its children.
func (s *Scope) Bind(name string, v Value) {
	if s.names == nil {
		s.names = make(map[string]Value)
	}
	s.names[name] = v
	if v.IsVar() && s.st.valid(v) && s.st.slots[v.pos].name == "" {
		s.st.slots[v.pos].name = name
	}
}

// Lookup resolves a name bound in this or any enclosing scope.
func (s *Scope) Lookup(name string) (Value, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.names[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Get resolves a bound name, halting if it is unbound or stale.
func (s *Scope) Get(name string) Value {
	v, ok := s.Lookup(name)
	if !ok {
		s.halt(errors.Errorf("unbound name %q", name))
	}
	s.checkValue(v)
	return v
}

// Valid returns true if v may still be used.
func (s *Scope) Valid(v Value) bool { return s.st.valid(v) }

// PositionOf returns the absolute stack position of a Variable, as taken by
// LoadAbs and StoreAbs. Inside function bodies the frame base is only known
// at runtime, so there the position is relative to it.
func (s *Scope) PositionOf(v Value) int {
	s.checkValue(v)
	if !v.IsVar() {
		s.halt(errors.Errorf("constant %v has no position", v))
	}
	if s.st.frame {
		return v.pos
	}
	return s.st.base + v.pos
}

// Top returns the value on top of the stack.
func (s *Scope) Top() Value {
	if s.st.depth() == 0 {
		s.halt(compileerr.Errorf(compileerr.UseAfterScope, "empty stack has no top"))
	}
	return s.st.value(s.st.depth() - 1)
}

// Declare tracks a value that is already on the runtime stack, without
// emitting anything: e.g. inputs, or the results of raw code.
func (s *Scope) Declare(name string) Value { return s.st.push(name) }

// Push emits a literal push.
func (s *Scope) Push(lit int64) Value {
	s.emit(isa.N(isa.OpPush, lit))
	return s.st.push("")
}

// Pop emits a pop of v, which must be the top of the stack.
func (s *Scope) Pop(v Value) {
	s.checkValue(v)
	if !v.IsVar() || v.pos != s.st.depth()-1 {
		s.halt(compileerr.Errorf(compileerr.UseAfterScope, "cannot pop %v, not on top of depth %v", v, s.st.depth()))
	}
	s.emit(isa.I(isa.OpPop))
	s.st.drop(1)
}

// Copy pushes a copy of v.
func (s *Scope) Copy(v Value) Value {
	s.checkValue(v)
	s.load(v)
	return s.Top()
}

// Emit appends primitive instructions, tracking their stack effect with
// anonymous slots. Control instructions must go through the dedicated
// methods instead.
func (s *Scope) Emit(code ...isa.Instruction) {
	for _, in := range code {
		switch in.Op {
		case isa.OpLabel, isa.OpJump, isa.OpJz, isa.OpFunc,
			isa.OpCall, isa.OpCallI, isa.OpRet, isa.OpHalt:
			s.halt(errors.Errorf("cannot emit control instruction %v", in))
		}
		if !in.Op.Valid() {
			s.halt(errors.Errorf("invalid instruction %v", in))
		}
		pops, pushes := in.Effect()
		if pops > s.st.depth() {
			s.halt(compileerr.Errorf(compileerr.UseAfterScope, "%v pops %v values from depth %v", in, pops, s.st.depth()))
		}
		s.emit(in)
		s.st.drop(pops)
		for i := 0; i < pushes; i++ {
			s.st.push("")
		}
	}
}

// Raw appends instructions without any stack tracking; the caller accounts
// for their effect, e.g. with Declare.
func (s *Scope) Raw(code ...isa.Instruction) { s.emit(code...) }

// Reserve sets aside n slots at the bottom of the entry body's stack, which
// untracked code has already pushed. Tracked slots are numbered above them;
// the reserved ones are only reachable through LoadAbs and StoreAbs.
func (s *Scope) Reserve(n int) {
	if s.st.frame || s.st.depth() != 0 {
		s.halt(errors.New("can only reserve below an empty entry stack"))
	}
	if n < 0 {
		s.halt(errors.Errorf("cannot reserve %v slots", n))
	}
	s.st.base += n
}

// Snapshot saves the compile time stack.
func (s *Scope) Snapshot() StackState { return s.st.snapshot() }

// Restore reinstates a saved compile time stack.
func (s *Scope) Restore(ss StackState) { s.st.restore(ss) }

// Reachable returns false after an unconditional transfer of control, until
// the next label is marked.
func (s *Scope) Reachable() bool { return !s.st.unreachable }

// Run is the common form of every composite operation: args are
// materialized on top of the stack, code runs, consuming them, and nOut
// results are declared.
//
// Args that already sit on top of the stack, in order, are consumed in place;
// two that sit there in reverse order are swapped; the rest are copied or
// pushed. When code is a single binary instruction with an immediate form,
// a trailing Constant arg is folded into it instead of being pushed.
func (s *Scope) Run(code []isa.Instruction, nOut int, args ...Value) []Value {
	if len(code) == 1 && len(args) > 0 && !code[0].Op.HasImm() {
		if last := args[len(args)-1]; last.IsConst() {
			if imm, ok := code[0].Op.ImmForm(); ok {
				code = []isa.Instruction{isa.N(imm, last.lit)}
				args = args[:len(args)-1]
			}
		}
	}
	s.materialize(args)
	s.emit(code...)
	s.st.drop(len(args))
	out := make([]Value, nOut)
	for i := range out {
		out[i] = s.st.push("")
	}
	return out
}

func (s *Scope) run1(code []isa.Instruction, args ...Value) Value {
	return s.Run(code, 1, args...)[0]
}

// materialize arranges for args to occupy the top len(args) slots, in order.
func (s *Scope) materialize(args []Value) {
	for _, v := range args {
		s.checkValue(v)
	}
	if len(args) == 2 && s.owned(args[0]) && s.owned(args[1]) {
		if cur := s.st.depth(); args[0].pos == cur-1 && args[1].pos == cur-2 {
			s.emit(isa.I(isa.OpSwap))
			s.st.slots[cur-1], s.st.slots[cur-2] = s.st.slots[cur-2], s.st.slots[cur-1]
			return
		}
	}
	k := s.ownedPrefix(args)
	for _, v := range args[k:] {
		s.load(v)
	}
}

// ownedPrefix returns the length of the longest prefix of args that are
// scope owned Variables already occupying the top of the stack in order.
func (s *Scope) ownedPrefix(args []Value) int {
	for k := len(args); k > 0; k-- {
		if s.st.onTop(args[:k]) && allOwned(s, args[:k]) {
			return k
		}
	}
	return 0
}

func allOwned(s *Scope, vals []Value) bool {
	for _, v := range vals {
		if !s.owned(v) {
			return false
		}
	}
	return true
}

func (s *Scope) owned(v Value) bool {
	return v.IsVar() && v.pos >= s.entry && s.st.slots[v.pos].name == ""
}

// load pushes a copy of v.
func (s *Scope) load(v Value) {
	if v.IsConst() {
		s.emit(isa.N(isa.OpPush, v.lit))
		s.st.push("")
		return
	}
	s.loadSlot(v.pos)
}

func (s *Scope) loadSlot(pos int) {
	if s.st.frame {
		s.emit(isa.I(isa.OpDepth))
		if d := s.st.depth() - pos; d != 0 {
			s.emit(isa.N(isa.OpSubI, int64(d)))
		}
		s.emit(isa.I(isa.OpRead))
	} else {
		s.emit(isa.N(isa.OpGet, int64(s.st.base+pos)))
	}
	s.st.push("")
}

// storeSlot pops the top value into the slot at pos.
func (s *Scope) storeSlot(pos int) {
	cur := s.st.depth()
	if pos >= cur-1 {
		s.halt(compileerr.Errorf(compileerr.UseAfterScope, "cannot store into @%v from depth %v", pos, cur))
	}
	if s.st.frame {
		s.emit(isa.I(isa.OpDepth), isa.N(isa.OpSubI, int64(cur-pos)), isa.I(isa.OpWrite))
	} else {
		s.emit(isa.N(isa.OpSet, int64(s.st.base+pos)))
	}
	s.st.drop(1)
}

// Shrink reduces the stack to depth+len(vals): vals are moved to positions
// depth onward, in order, and every slot above them is popped. It returns the
// moved values' new handles; moved values are anonymous.
func (s *Scope) Shrink(depth int, vals ...Value) []Value {
	for _, v := range vals {
		s.checkValue(v)
	}
	if depth < 0 || depth > s.st.depth() {
		s.halt(compileerr.Errorf(compileerr.StackNeutralityViolation,
			"cannot shrink to depth %v from %v", depth, s.st.depth()))
	}
	n := len(vals)
	inPlace := true
	for i, v := range vals {
		if !v.IsVar() || v.pos != depth+i {
			inPlace = false
			break
		}
	}
	if !inPlace && n == 1 && s.st.onTop(vals) && s.st.depth() == depth+2 {
		s.emit(isa.I(isa.OpSwap), isa.I(isa.OpPop))
		s.st.drop(1)
		s.st.renew(depth)
		s.st.slots[depth].name = ""
		return []Value{s.st.value(depth)}
	}
	if !inPlace {
		if !s.st.onTop(vals) || s.st.depth()-n < depth {
			for _, v := range vals {
				s.load(v)
			}
		}
		// moving in ascending order never clobbers a pending source, since
		// every source sits at or above its destination
		base := s.st.depth() - n
		for i := 0; i < n; i++ {
			if src, dst := base+i, depth+i; src != dst {
				s.loadSlot(src)
				s.storeSlot(dst)
				s.st.renew(dst)
				s.st.slots[dst].name = ""
			}
		}
	}
	for s.st.depth() > depth+n {
		s.emit(isa.I(isa.OpPop))
		s.st.drop(1)
	}
	out := make([]Value, n)
	for i := range out {
		out[i] = s.st.value(depth + i)
	}
	return out
}

// DropTo pops every slot above depth.
func (s *Scope) DropTo(depth int) { s.Shrink(depth) }

// Set overwrites the slot of dst with src; dst keeps its identity.
func (s *Scope) Set(dst, src Value) {
	s.checkValue(dst)
	s.checkValue(src)
	if !dst.IsVar() {
		s.halt(errors.Errorf("cannot set constant %v", dst))
	}
	if src.IsVar() && src.pos == dst.pos {
		return
	}
	if s.st.slots[dst.pos].pinned {
		s.halt(compileerr.Errorf(compileerr.StackNeutralityViolation,
			"cannot set @%v, it is owned by an enclosing loop", dst.pos))
	}
	s.materialize([]Value{src})
	s.storeSlot(dst.pos)
}

// LoadAbs pushes a copy of the slot at absolute position addr.
func (s *Scope) LoadAbs(addr int) Value {
	s.emit(isa.N(isa.OpGet, int64(addr)))
	return s.st.push("")
}

// StoreAbs writes v into the slot at absolute position addr.
func (s *Scope) StoreAbs(addr int, v Value) {
	s.materialize([]Value{v})
	s.emit(isa.N(isa.OpSet, int64(addr)))
	s.st.drop(1)
}

// Inline runs body within a named inlined block.
func (s *Scope) Inline(name string, body func(s *Scope)) {
	blk := &BlockNode{Name: name, Type: debugtree.InlinedFunction}
	s.block.Append(blk)
	body(s.child(blk))
}

// Call emits a call of fn, consuming args and returning its results.
func (s *Scope) Call(fn *Function, args ...Value) []Value {
	if fn == nil || fn.prog != s.prog {
		s.halt(errors.New("call of function not declared by this program"))
	}
	if len(args) != fn.In {
		s.halt(compileerr.Errorf(compileerr.ArityMismatch,
			"call of %v with %v args, expected %v", fn.Name, len(args), fn.In))
	}
	return s.Run([]isa.Instruction{isa.N(isa.OpCall, int64(fn.ID))}, fn.Out, args...)
}

// CallIndirect emits a call through the function identity held by id.
func (s *Scope) CallIndirect(id Value, in, out int, args ...Value) []Value {
	if len(args) != in {
		s.halt(compileerr.Errorf(compileerr.ArityMismatch,
			"indirect call with %v args, expected %v", len(args), in))
	}
	return s.Run([]isa.Instruction{isa.I(isa.OpCallI)}, out, append(args[:len(args):len(args)], id)...)
}

func (s *Scope) emit(code ...isa.Instruction) { s.block.Append(Ops(code...)...) }

func (s *Scope) checkValue(v Value) {
	if err := s.st.check(v); err != nil {
		s.halt(err)
	}
}

func (s *Scope) halt(err error) { panicerr.Halt(err) }
