package dsl

import "github.com/jcorbin/stackwasm/internal/isa"

var (
	opAdd  = []isa.Instruction{isa.I(isa.OpAdd)}
	opSub  = []isa.Instruction{isa.I(isa.OpSub)}
	opMul  = []isa.Instruction{isa.I(isa.OpMul)}
	opDiv  = []isa.Instruction{isa.I(isa.OpDiv)}
	opMod  = []isa.Instruction{isa.I(isa.OpMod)}
	opAnd  = []isa.Instruction{isa.I(isa.OpAnd)}
	opOr   = []isa.Instruction{isa.I(isa.OpOr)}
	opXor  = []isa.Instruction{isa.I(isa.OpXor)}
	opShl  = []isa.Instruction{isa.I(isa.OpShl)}
	opShr  = []isa.Instruction{isa.I(isa.OpShr)}
	opShrU = []isa.Instruction{isa.I(isa.OpShrU)}
	opLt   = []isa.Instruction{isa.I(isa.OpLt)}
	opNlt  = []isa.Instruction{isa.I(isa.OpLt), isa.I(isa.OpEqz)}
	opEq   = []isa.Instruction{isa.I(isa.OpEq)}
	opNe   = []isa.Instruction{isa.I(isa.OpEq), isa.I(isa.OpEqz)}
	opEqz  = []isa.Instruction{isa.I(isa.OpEqz)}
	opNeg  = []isa.Instruction{isa.N(isa.OpMulI, -1)}
	opRead = []isa.Instruction{isa.I(isa.OpRead)}
	opWrit = []isa.Instruction{isa.I(isa.OpWrite)}
)

func (s *Scope) Add(a, b Value) Value  { return s.run1(opAdd, a, b) }
func (s *Scope) Sub(a, b Value) Value  { return s.run1(opSub, a, b) }
func (s *Scope) Mul(a, b Value) Value  { return s.run1(opMul, a, b) }
func (s *Scope) And(a, b Value) Value  { return s.run1(opAnd, a, b) }
func (s *Scope) Or(a, b Value) Value   { return s.run1(opOr, a, b) }
func (s *Scope) Xor(a, b Value) Value  { return s.run1(opXor, a, b) }
func (s *Scope) Shl(a, b Value) Value  { return s.run1(opShl, a, b) }
func (s *Scope) Shr(a, b Value) Value  { return s.run1(opShr, a, b) }
func (s *Scope) ShrU(a, b Value) Value { return s.run1(opShrU, a, b) }

// Div returns num/den, truncated toward zero. Operands materialize as
// (den, num), so that the numerator ends up on top as the machine expects.
func (s *Scope) Div(num, den Value) Value { return s.run1(opDiv, den, num) }

// Mod returns num%den, with the sign of num; operands materialize as for Div.
func (s *Scope) Mod(num, den Value) Value { return s.run1(opMod, den, num) }

// Comparisons return 1 for true, 0 for false.

func (s *Scope) Lt(a, b Value) Value { return s.run1(opLt, a, b) }
func (s *Scope) Gt(a, b Value) Value { return s.run1(opLt, b, a) }
func (s *Scope) Le(a, b Value) Value { return s.run1(opNlt, b, a) }
func (s *Scope) Ge(a, b Value) Value { return s.run1(opNlt, a, b) }
func (s *Scope) Eq(a, b Value) Value { return s.run1(opEq, a, b) }
func (s *Scope) Ne(a, b Value) Value { return s.run1(opNe, a, b) }

// Eqz returns 1 if a is zero, 0 otherwise.
func (s *Scope) Eqz(a Value) Value { return s.run1(opEqz, a) }

// Not is the logical negation of a truth value.
func (s *Scope) Not(a Value) Value { return s.run1(opEqz, a) }

// Bool normalizes a to 1 if it is non-zero, 0 otherwise.
func (s *Scope) Bool(a Value) Value { return s.Not(s.Not(a)) }

// Neg returns -a.
func (s *Scope) Neg(a Value) Value { return s.run1(opNeg, a) }

// Load returns the slot at the absolute position held by addr.
func (s *Scope) Load(addr Value) Value { return s.run1(opRead, addr) }

// Store writes val into the slot at the absolute position held by addr.
func (s *Scope) Store(val, addr Value) { s.Run(opWrit, 0, val, addr) }
