package dsl

import (
	"fmt"

	"github.com/jcorbin/stackwasm/internal/compileerr"
)

type valueKind uint8

const (
	invalidValue valueKind = iota
	variableValue
	constantValue
)

// Value is a compile time handle on a runtime value: either a Variable
// occupying a stack slot, or a Constant literal occupying none.
//
// A Variable stays valid only while its slot does; once the slot is popped,
// or consumed by an operation, any use of the handle fails with UseAfterScope.
type Value struct {
	kind valueKind
	pos  int
	id   uint64
	lit  int64
}

// Const returns a Constant value.
func Const(n int64) Value { return Value{kind: constantValue, lit: n} }

// IsConst returns true if v is a Constant.
func (v Value) IsConst() bool { return v.kind == constantValue }

// IsVar returns true if v is a Variable.
func (v Value) IsVar() bool { return v.kind == variableValue }

// Lit returns a Constant's literal.
func (v Value) Lit() int64 { return v.lit }

func (v Value) String() string {
	switch v.kind {
	case variableValue:
		return fmt.Sprintf("@%v#%v", v.pos, v.id)
	case constantValue:
		return fmt.Sprintf("$%v", v.lit)
	}
	return "<invalid value>"
}

type slot struct {
	id   uint64
	name string

	// pinned slots are owned by an enclosing loop; Set may not write them.
	pinned bool
}

// stack tracks the runtime data stack at compile time: one slot per value
// that will be live at the current point of the emitted program.
type stack struct {
	slots []slot
	ids   *uint64

	// frame is set for function bodies, whose base position is only known
	// at runtime; slot positions are then relative to that base.
	frame bool

	// base is the absolute position of slot 0 outside of frames; positions
	// below it are reserved for untracked data.
	base int

	// unreachable is set after an unconditional transfer of control, until
	// the next label.
	unreachable bool
}

// StackState is a saved copy of the compile time stack.
type StackState struct {
	slots       []slot
	unreachable bool
}

// Depth returns the number of slots in the state.
func (ss StackState) Depth() int { return len(ss.slots) }

func (st *stack) depth() int { return len(st.slots) }

func (st *stack) push(name string) Value {
	*st.ids++
	st.slots = append(st.slots, slot{id: *st.ids, name: name})
	return st.value(len(st.slots) - 1)
}

func (st *stack) drop(n int) { st.slots = st.slots[:len(st.slots)-n] }

func (st *stack) renew(pos int) {
	*st.ids++
	st.slots[pos].id = *st.ids
}

func (st *stack) value(pos int) Value {
	return Value{kind: variableValue, pos: pos, id: st.slots[pos].id}
}

func (st *stack) valid(v Value) bool {
	switch v.kind {
	case constantValue:
		return true
	case variableValue:
		return v.pos < len(st.slots) && st.slots[v.pos].id == v.id
	}
	return false
}

func (st *stack) check(v Value) error {
	if st.valid(v) {
		return nil
	}
	if v.kind == invalidValue {
		return compileerr.Errorf(compileerr.UseAfterScope, "invalid value")
	}
	return compileerr.Errorf(compileerr.UseAfterScope, "stale value %v", v)
}

// onTop returns true if vals are Variables occupying the top len(vals) slots,
// in order.
func (st *stack) onTop(vals []Value) bool {
	base := len(st.slots) - len(vals)
	for i, v := range vals {
		if !v.IsVar() || v.pos != base+i {
			return false
		}
	}
	return true
}

func (st *stack) snapshot() StackState {
	return StackState{append([]slot(nil), st.slots...), st.unreachable}
}

func (st *stack) restore(ss StackState) {
	st.slots = append(st.slots[:0], ss.slots...)
	st.unreachable = ss.unreachable
}

// changedBelow returns the first position under depth whose slot identity
// differs from before, or -1.
func (st *stack) changedBelow(before StackState, depth int) int {
	for pos := 0; pos < depth && pos < len(st.slots); pos++ {
		if st.slots[pos].id != before.slots[pos].id {
			return pos
		}
	}
	return -1
}
