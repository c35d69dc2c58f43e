package dsl

import (
	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/isa"
)

// Label is a program unique jump target.
type Label int64

// NewLabel allocates a fresh label.
func (s *Scope) NewLabel() Label { return s.prog.newLabel() }

// Mark places label l at the current point, which becomes reachable.
func (s *Scope) Mark(l Label) {
	s.emit(isa.N(isa.OpLabel, int64(l)))
	s.st.unreachable = false
}

// Jump transfers control to l; what follows is unreachable until the next
// label.
func (s *Scope) Jump(l Label) {
	s.emit(isa.N(isa.OpJump, int64(l)))
	s.st.unreachable = true
}

// JumpIfZero consumes cond, transferring control to l if it is zero.
func (s *Scope) JumpIfZero(cond Value, l Label) {
	s.materialize([]Value{cond})
	s.emit(isa.N(isa.OpJz, int64(l)))
	s.st.drop(1)
}

// Unreachable marks the current point as unreachable, e.g. after a trap.
func (s *Scope) Unreachable() { s.st.unreachable = true }

// Return shrinks the function frame to vals and returns. What follows is
// unreachable until the next label.
func (s *Scope) Return(vals ...Value) {
	if s.fn == nil {
		s.halt(errors.New("return outside of a function body"))
	}
	if len(vals) != s.fn.Out {
		s.halt(compileerr.Errorf(compileerr.ArityMismatch,
			"%v returns %v values, expected %v", s.fn.Name, len(vals), s.fn.Out))
	}
	saved := s.Snapshot()
	s.Shrink(0, vals...)
	s.emit(isa.I(isa.OpRet))
	s.Restore(saved)
	s.st.unreachable = true
}

// IfBool runs then when cond is non-zero, otherwise (which may be nil) when it
// is zero. Both arms must leave the stack at the same depth. Slots that both
// arms leave untouched keep their identity; from the first slot where the arms
// differ, fresh values are declared and returned.
func (s *Scope) IfBool(cond Value, then, otherwise func(s *Scope)) []Value {
	elseLabel, endLabel := s.NewLabel(), s.NewLabel()
	s.JumpIfZero(cond, elseLabel)
	base := s.Snapshot()

	then(s.child(s.block))
	thenState := s.Snapshot()
	if otherwise != nil {
		s.Jump(endLabel)
	}

	s.Restore(base)
	s.Mark(elseLabel)
	elseState := base
	if otherwise != nil {
		otherwise(s.child(s.block))
		elseState = s.Snapshot()
		s.Mark(endLabel)
	}
	return s.merge(thenState, elseState)
}

func (s *Scope) merge(a, b StackState) []Value {
	switch {
	case a.unreachable && b.unreachable:
		s.Restore(a)
		return nil
	case a.unreachable:
		s.Restore(b)
		s.st.unreachable = false
		return nil
	case b.unreachable:
		s.Restore(a)
		s.st.unreachable = false
		return nil
	}
	if a.Depth() != b.Depth() {
		s.halt(compileerr.Errorf(compileerr.StackNeutralityViolation,
			"conditional arms leave depths %v and %v", a.Depth(), b.Depth()))
	}
	s.Restore(a)
	s.st.unreachable = false
	p := 0
	for p < len(a.slots) && a.slots[p].id == b.slots[p].id {
		p++
	}
	var fresh []Value
	for pos := p; pos < len(a.slots); pos++ {
		if a.slots[pos].name != b.slots[pos].name {
			s.st.slots[pos].name = ""
		}
		s.st.renew(pos)
		fresh = append(fresh, s.st.value(pos))
	}
	return fresh
}

// Converge reinstates the state ss cut down to depth, with n fresh anonymous
// slots declared above it, and makes the current point reachable. It models
// a join point which several jumps reach, each carrying n values to depth.
func (s *Scope) Converge(ss StackState, depth, n int) []Value {
	if depth < 0 || depth > ss.Depth() {
		s.halt(compileerr.Errorf(compileerr.StackNeutralityViolation,
			"cannot converge to depth %v from %v", depth, ss.Depth()))
	}
	s.Restore(ss)
	s.st.drop(s.st.depth() - depth)
	s.st.unreachable = false
	vals := make([]Value, n)
	for i := range vals {
		vals[i] = s.st.push("")
	}
	return vals
}

// WhileNonZero evaluates cond before every iteration, running body while it
// is non-zero.
func (s *Scope) WhileNonZero(cond func(s *Scope) Value, body func(s *Scope)) {
	top, end := s.NewLabel(), s.NewLabel()
	s.Mark(top)
	s.JumpIfZero(s.test("while condition", cond), end)
	s.loopBody("while body", body)
	s.Jump(top)
	s.Mark(end)
}

// DoWhileNonZero runs body once, then again for as long as cond evaluates
// non-zero after it.
func (s *Scope) DoWhileNonZero(body func(s *Scope), cond func(s *Scope) Value) {
	top := s.NewLabel()
	s.Mark(top)
	s.loopBody("do-while body", body)
	v := s.test("do-while condition", cond)
	s.JumpIfZero(s.Eqz(v), top)
}

// DoNTimes runs body n times, passing a loop index counting up from 0. When
// n is zero or negative, body never runs. The index and limit slots belong to
// the loop: body may read them, but consuming or setting either is a
// StackNeutralityViolation.
func (s *Scope) DoNTimes(n Value, body func(s *Scope, index Value)) {
	s.materialize([]Value{n})
	limit := s.Top()
	index := s.Push(0)
	s.st.slots[limit.pos].pinned = true
	s.st.slots[index.pos].pinned = true
	top, end := s.NewLabel(), s.NewLabel()

	s.Mark(top)
	s.loadSlot(index.pos)
	s.loadSlot(limit.pos)
	s.Emit(isa.I(isa.OpLt))
	s.JumpIfZero(s.Top(), end)

	s.loopBody("repeat body", func(s *Scope) { body(s, index) })

	s.loadSlot(index.pos)
	s.Emit(isa.I(isa.OpInc))
	s.storeSlot(index.pos)
	s.Jump(top)
	s.Mark(end)

	s.Pop(index)
	s.Pop(limit)
}

// test evaluates a loop condition in its own scope, leaving its value alone
// on top of the stack as it was on entry.
func (s *Scope) test(what string, cond func(s *Scope) Value) Value {
	before := s.Snapshot()
	c := s.child(s.block)
	v := cond(c)
	s.preserved(what, before)
	return s.Shrink(before.Depth(), v)[0]
}

// loopBody runs body in its own scope, popping whatever it leaves above the
// entry depth. Loop bodies run repeatedly, so they must not disturb any slot
// that was live on entry.
func (s *Scope) loopBody(what string, body func(s *Scope)) {
	before := s.Snapshot()
	body(s.child(s.block))
	if s.st.unreachable {
		s.Restore(before)
		s.st.unreachable = true
		return
	}
	s.preserved(what, before)
	s.DropTo(before.Depth())
}

func (s *Scope) preserved(what string, before StackState) {
	if s.st.unreachable {
		return
	}
	if d := s.st.depth(); d < before.Depth() {
		s.halt(compileerr.Errorf(compileerr.StackNeutralityViolation,
			"%v shrinks the stack from depth %v to %v", what, before.Depth(), d))
	}
	if pos := s.st.changedBelow(before, before.Depth()); pos >= 0 {
		s.halt(compileerr.Errorf(compileerr.StackNeutralityViolation,
			"%v replaces slot @%v", what, pos))
	}
}
