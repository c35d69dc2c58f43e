package translate

import (
	"math"

	"github.com/jcorbin/stackwasm/internal/dsl"
	"github.com/jcorbin/stackwasm/internal/isa"
)

// i32 values live on the machine sign extended to 64 bits. Results that may
// leave that range are wrapped back into it.

const mask32 = 1<<32 - 1

var wrapCode = []isa.Instruction{
	isa.N(isa.OpAddI, 1<<31),
	isa.N(isa.OpAndI, mask32),
	isa.N(isa.OpSubI, 1<<31),
}

// wrap32 reduces v to the canonical i32 range.
func wrap32(s *dsl.Scope, v dsl.Value) dsl.Value {
	if v.IsConst() {
		return dsl.Const(int64(int32(v.Lit())))
	}
	return s.Run(wrapCode, 1, v)[0]
}

// andConst returns v & m.
func andConst(s *dsl.Scope, v dsl.Value, m int64) dsl.Value {
	if v.IsConst() {
		return dsl.Const(v.Lit() & m)
	}
	return s.And(v, dsl.Const(m))
}

// u32 reinterprets a canonical i32 as unsigned.
func u32(s *dsl.Scope, v dsl.Value) dsl.Value { return andConst(s, v, mask32) }

// flip64 maps unsigned i64 order onto signed order.
func flip64(s *dsl.Scope, v dsl.Value) dsl.Value {
	if v.IsConst() {
		return dsl.Const(v.Lit() ^ math.MinInt64)
	}
	return s.Xor(v, dsl.Const(math.MinInt64))
}

// signExtend sign extends the low bits of v, which must be zero above them.
func signExtend(s *dsl.Scope, v dsl.Value, bits uint) dsl.Value {
	sign := int64(1) << (bits - 1)
	if v.IsConst() {
		return dsl.Const((v.Lit() ^ sign) - sign)
	}
	return s.Sub(s.Xor(v, dsl.Const(sign)), dsl.Const(sign))
}
