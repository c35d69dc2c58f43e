package programs

import (
	"github.com/jcorbin/stackwasm/internal/dsl"
	"github.com/jcorbin/stackwasm/internal/isa"
)

var sumTo = Program{
	Name:  "sum-to",
	Doc:   "sums 1 through n with a while loop",
	Input: []int64{10},
	Want:  []int64{55},
	compile: built(func(p *dsl.Program) error {
		return p.Main(1, func(s *dsl.Scope, args []dsl.Value) {
			n := args[0]
			acc := s.Push(0)
			s.WhileNonZero(func(s *dsl.Scope) dsl.Value {
				return s.Copy(n)
			}, func(s *dsl.Scope) {
				s.Set(acc, s.Add(acc, n))
				s.Set(n, s.Sub(n, dsl.Const(1)))
			})
		})
	}),
}

var factorial = Program{
	Name:  "factorial",
	Doc:   "recursive factorial",
	Input: []int64{10},
	Want:  []int64{3628800},
	compile: built(func(p *dsl.Program) error {
		fact, err := p.Declare("fact", 1, 1)
		if err != nil {
			return err
		}
		if err := p.Define(fact, func(s *dsl.Scope, args []dsl.Value) []dsl.Value {
			n := args[0]
			return s.IfBool(s.Lt(n, dsl.Const(2)), func(s *dsl.Scope) {
				s.Push(1)
			}, func(s *dsl.Scope) {
				r := s.Call(fact, s.Sub(n, dsl.Const(1)))[0]
				s.Mul(r, n)
			})
		}); err != nil {
			return err
		}
		return p.Main(1, func(s *dsl.Scope, args []dsl.Value) {
			s.Call(fact, args[0])
		})
	}),
}

var fibonacci = Program{
	Name:  "fib",
	Doc:   "fibonacci by mutual recursion between two forward declared functions",
	Input: []int64{15},
	Want:  []int64{610},
	compile: built(func(p *dsl.Program) error {
		fib, err := p.Declare("fib", 1, 1)
		if err != nil {
			return err
		}
		sum, err := p.Declare("fib sum", 1, 1)
		if err != nil {
			return err
		}
		if err := p.Define(fib, func(s *dsl.Scope, args []dsl.Value) []dsl.Value {
			n := args[0]
			return s.IfBool(s.Lt(n, dsl.Const(2)), func(s *dsl.Scope) {
				s.Copy(n)
			}, func(s *dsl.Scope) {
				s.Call(sum, n)
			})
		}); err != nil {
			return err
		}
		if err := p.Define(sum, func(s *dsl.Scope, args []dsl.Value) []dsl.Value {
			n := args[0]
			a := s.Call(fib, s.Sub(n, dsl.Const(1)))[0]
			b := s.Call(fib, s.Sub(n, dsl.Const(2)))[0]
			return []dsl.Value{s.Add(a, b)}
		}); err != nil {
			return err
		}
		return p.Main(1, func(s *dsl.Scope, args []dsl.Value) {
			s.Call(fib, args[0])
		})
	}),
}

var sumInputs = Program{
	Name:  "sum-inputs",
	Doc:   "sums however many inputs it is given, in raw code",
	Input: []int64{1, 2, 3, 4},
	Want:  []int64{10},
	compile: built(func(p *dsl.Program) error {
		return p.Main(0, func(s *dsl.Scope, _ []dsl.Value) {
			s.Inline("sum inputs", func(s *dsl.Scope) {
				top, end := s.NewLabel(), s.NewLabel()
				s.Raw(
					isa.N(isa.OpPush, 0),
					isa.N(isa.OpLabel, int64(top)),
					isa.I(isa.OpDepth), isa.N(isa.OpSubI, 1),
					isa.N(isa.OpJz, int64(end)),
					isa.I(isa.OpAdd),
					isa.N(isa.OpJump, int64(top)),
					isa.N(isa.OpLabel, int64(end)),
				)
			})
		})
	}),
}

var collatz = Program{
	Name:  "collatz",
	Doc:   "counts the steps of the collatz sequence from n down to 1",
	Input: []int64{27},
	Want:  []int64{111},
	compile: built(func(p *dsl.Program) error {
		return p.Main(1, func(s *dsl.Scope, args []dsl.Value) {
			n := args[0]
			steps := s.Push(0)
			s.WhileNonZero(func(s *dsl.Scope) dsl.Value {
				return s.Ne(n, dsl.Const(1))
			}, func(s *dsl.Scope) {
				s.IfBool(s.And(n, dsl.Const(1)), func(s *dsl.Scope) {
					s.Set(n, s.Add(s.Mul(n, dsl.Const(3)), dsl.Const(1)))
				}, func(s *dsl.Scope) {
					s.Set(n, s.Div(n, dsl.Const(2)))
				})
				s.Set(steps, s.Add(steps, dsl.Const(1)))
			})
		})
	}),
}
