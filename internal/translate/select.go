package translate

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/dsl"
	"github.com/jcorbin/stackwasm/internal/isa"
	"github.com/jcorbin/stackwasm/internal/panicerr"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

type frameKind uint8

const (
	frameFunction frameKind = iota + 1
	frameBlock
	frameLoop
	frameIf
	frameElse
)

// controlFrame is an open structured instruction.
type controlFrame struct {
	kind frameKind

	params, results int

	// height is the operand count below the frame's params, and depth the
	// corresponding compile time stack depth.
	height, depth int

	// entry is the stack on entry, params included, and vals the operands.
	entry dsl.StackState
	vals  []dsl.Value

	start, elseLabel, end dsl.Label
}

// arity returns how many operands a branch to the frame carries.
func (f *controlFrame) arity() int {
	if f.kind == frameLoop {
		return f.params
	}
	return f.results
}

func (f *controlFrame) target() dsl.Label {
	if f.kind == frameLoop {
		return f.start
	}
	return f.end
}

// funcCompiler lowers one function body. Operands live on the machine stack
// above the locals, in order; only the topmost may instead be a pending
// constant, so that a following operation can fold it into an immediate.
type funcCompiler struct {
	inst   *Instance
	index  uint32
	fn     wasm.Function
	s      *dsl.Scope
	locals []dsl.Value

	vals   []dsl.Value
	frames []controlFrame

	unreachable      bool
	unreachableDepth int
	pc               int
}

func (inst *Instance) body(index uint32) dsl.BodyFunc {
	return func(s *dsl.Scope, args []dsl.Value) []dsl.Value {
		fc := funcCompiler{
			inst:  inst,
			index: index,
			fn:    inst.Module.Functions[index],
			s:     s,
		}
		return fc.compile(args)
	}
}

func (fc *funcCompiler) compile(args []dsl.Value) []dsl.Value {
	fc.locals = append(fc.locals, args...)
	for range fc.fn.Locals {
		v := fc.s.Push(0)
		fc.s.Bind(fmt.Sprintf("local%d", len(fc.locals)), v)
		fc.locals = append(fc.locals, v)
	}
	ft := fc.inst.Module.TypeOf(fc.index)
	fc.frames = append(fc.frames, controlFrame{
		kind:    frameFunction,
		results: len(ft.Results),
		depth:   fc.s.Depth(),
		entry:   fc.s.Snapshot(),
	})

	for fc.pc = 0; fc.pc < len(fc.fn.Body); fc.pc++ {
		in := fc.fn.Body[fc.pc]
		if fc.unreachable {
			fc.skip(in)
		} else {
			fc.lower(in)
		}
		if len(fc.frames) == 0 {
			break
		}
	}
	if fc.unreachable {
		return nil
	}
	return fc.vals[len(fc.vals)-len(ft.Results):]
}

func (fc *funcCompiler) fail(kind compileerr.Kind, format string, args ...interface{}) {
	err := compileerr.Errorf(kind, format, args...)
	panicerr.Halt(errors.WithMessagef(err, "%v @%v", fc.fn.Body[fc.pc].Op, fc.pc))
}

//// Operand stack

// operands pops the top n operands, returning them and the stack depth where
// a result replacing them belongs.
func (fc *funcCompiler) operands(n int) ([]dsl.Value, int) {
	if n == 0 {
		fc.flush()
	}
	i := len(fc.vals) - n
	ops := append([]dsl.Value(nil), fc.vals[i:]...)
	fc.vals = fc.vals[:i]
	return ops, len(fc.locals) + len(fc.vals)
}

// flush materializes a pending constant.
func (fc *funcCompiler) flush() {
	if i := len(fc.vals) - 1; i >= 0 && fc.vals[i].IsConst() {
		fc.vals[i] = fc.s.Push(fc.vals[i].Lit())
	}
}

// result places v at depth base, popping everything above it.
func (fc *funcCompiler) result(base int, v dsl.Value) {
	if v.IsConst() {
		fc.s.DropTo(base)
	} else {
		v = fc.s.Shrink(base, v)[0]
	}
	fc.vals = append(fc.vals, v)
}

func (fc *funcCompiler) results(base int, vs ...dsl.Value) {
	fc.vals = append(fc.vals, fc.s.Shrink(base, vs...)...)
}

// keep protects an intermediate value from being consumed, so that it may
// be used more than once.
func (fc *funcCompiler) keep(name string, v dsl.Value) dsl.Value {
	if v.IsVar() {
		fc.s.Bind(name, v)
	}
	return v
}

func (fc *funcCompiler) unary(f func(s *dsl.Scope, a dsl.Value) dsl.Value) {
	ops, base := fc.operands(1)
	fc.result(base, f(fc.s, ops[0]))
}

func (fc *funcCompiler) binary(f func(s *dsl.Scope, a, b dsl.Value) dsl.Value) {
	ops, base := fc.operands(2)
	fc.result(base, f(fc.s, ops[0], ops[1]))
}

//// Control

func (fc *funcCompiler) markUnreachable() {
	fc.s.Unreachable()
	fc.unreachable = true
	fc.unreachableDepth = 0
}

// skip tracks nesting through unreachable code, until the end or else that
// makes code reachable again.
func (fc *funcCompiler) skip(in wasm.Instr) {
	switch in.Op {
	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		fc.unreachableDepth++
	case wasm.OpcodeElse:
		if fc.unreachableDepth == 0 {
			fc.lowerElse()
		}
	case wasm.OpcodeEnd:
		if fc.unreachableDepth > 0 {
			fc.unreachableDepth--
		} else {
			fc.lowerEnd()
		}
	}
}

func (fc *funcCompiler) pushFrame(kind frameKind, bt wasm.BlockType) *controlFrame {
	fc.flush()
	params := len(bt.Params)
	fc.frames = append(fc.frames, controlFrame{
		kind:    kind,
		params:  params,
		results: len(bt.Results),
		height:  len(fc.vals) - params,
		depth:   fc.s.Depth() - params,
		entry:   fc.s.Snapshot(),
		vals:    append([]dsl.Value(nil), fc.vals...),
		end:     fc.s.NewLabel(),
	})
	return &fc.frames[len(fc.frames)-1]
}

func (fc *funcCompiler) frameAt(l uint32) *controlFrame {
	return &fc.frames[len(fc.frames)-1-int(l)]
}

func (fc *funcCompiler) lowerElse() {
	f := &fc.frames[len(fc.frames)-1]
	if !fc.unreachable {
		fc.flush()
		fc.s.Jump(f.end)
	}
	fc.s.Restore(f.entry)
	fc.vals = append(fc.vals[:0], f.vals...)
	fc.s.Mark(f.elseLabel)
	f.kind = frameElse
	fc.unreachable = false
}

func (fc *funcCompiler) lowerEnd() {
	if !fc.unreachable {
		fc.flush()
	}
	f := fc.frames[len(fc.frames)-1]
	fc.frames = fc.frames[:len(fc.frames)-1]
	switch f.kind {
	case frameFunction:
		return
	case frameIf:
		// without an else, the false path carries the params through
		fc.s.Mark(f.elseLabel)
		fc.s.Mark(f.end)
	case frameBlock, frameElse:
		fc.s.Mark(f.end)
	}
	vals := fc.s.Converge(f.entry, f.depth, f.results)
	fc.vals = append(fc.vals[:f.height], vals...)
	fc.unreachable = false
}

// branch emits a transfer to the frame at label depth l, carrying its arity
// worth of operands. The compile time stack is left as it was, though a
// branch out of the function leaves it unreachable.
func (fc *funcCompiler) branch(l uint32) {
	f := fc.frameAt(l)
	vals := fc.vals[len(fc.vals)-f.arity():]
	if f.kind == frameFunction {
		fc.s.Return(vals...)
		return
	}
	saved := fc.s.Snapshot()
	fc.s.Shrink(f.depth, vals...)
	fc.s.Jump(f.target())
	fc.s.Restore(saved)
}

// settled returns true if a branch to f needs no stack adjustment.
func (fc *funcCompiler) settled(f *controlFrame) bool {
	if f.kind == frameFunction {
		return false
	}
	n := f.arity()
	if n > 0 && fc.vals[len(fc.vals)-1].IsConst() {
		return false
	}
	return len(fc.locals)+len(fc.vals) == f.depth+n
}

func (fc *funcCompiler) lowerBrIf(l uint32) {
	ops, _ := fc.operands(1)
	cond := ops[0]
	if cond.IsConst() {
		if cond.Lit() != 0 {
			fc.branch(l)
			fc.markUnreachable()
		}
		return
	}
	if f := fc.frameAt(l); fc.settled(f) {
		fc.s.JumpIfZero(fc.s.Eqz(cond), f.target())
		return
	}
	skip := fc.s.NewLabel()
	fc.s.JumpIfZero(cond, skip)
	fc.branch(l)
	fc.s.Mark(skip)
}

func (fc *funcCompiler) lowerBrTable(in wasm.Instr) {
	ops, _ := fc.operands(1)
	idx := ops[0]
	if idx.IsConst() {
		l := in.Index
		if i := uint32(idx.Lit()); int(i) < len(in.Labels) {
			l = in.Labels[i]
		}
		fc.branch(l)
		fc.markUnreachable()
		return
	}

	s := fc.s
	s.Bind("br_table index", idx)
	entry := s.Snapshot()
	cases := make([]dsl.Label, len(in.Labels))
	for i := range cases {
		cases[i] = s.NewLabel()
		s.JumpIfZero(s.Sub(idx, dsl.Const(int64(i))), cases[i])
	}
	s.Pop(idx)
	fc.branch(in.Index)
	for i, l := range in.Labels {
		s.Restore(entry)
		s.Mark(cases[i])
		s.Pop(idx)
		fc.branch(l)
	}
	fc.markUnreachable()
}

//// Calls

func (fc *funcCompiler) lowerCall(index uint32) {
	fn := fc.inst.funcs[index]
	args, base := fc.operands(fn.In)
	fc.results(base, fc.s.Call(fn, args...)...)
}

func (fc *funcCompiler) lowerCallIndirect(typ uint32) {
	ft := fc.inst.Module.Types[typ]
	in, out := len(ft.Params), len(ft.Results)
	ops, base := fc.operands(in + 1)
	s := fc.s
	entry := s.Load(s.Add(ops[in], dsl.Const(int64(fc.inst.Layout.Tables[0].Base))))
	fc.results(base, s.CallIndirect(entry, in, out, ops[:in]...)...)
}

//// Memory

// address computes the absolute slot of a memory access.
func (fc *funcCompiler) address(addr dsl.Value, offset uint32) dsl.Value {
	payload := fc.inst.Layout.Memories[0].Payload
	ea := fc.s.Add(u32(fc.s, addr), dsl.Const(int64(payload)+int64(offset)))
	return fc.keep("address", ea)
}

// load assembles a little endian value of width bytes, sign extending it when
// signed.
func (fc *funcCompiler) load(in wasm.Instr, width int, signed bool) {
	ops, base := fc.operands(1)
	s := fc.s
	ea := fc.address(ops[0], in.Mem.Offset)
	acc := s.Load(ea)
	for k := 1; k < width; k++ {
		b := s.Load(s.Add(ea, dsl.Const(int64(k))))
		acc = s.Or(acc, s.Mul(b, dsl.Const(1<<(8*k))))
	}
	if signed && width < 8 {
		acc = signExtend(s, acc, uint(8*width))
	}
	fc.result(base, acc)
}

// store writes the low width bytes of a value, little endian.
func (fc *funcCompiler) store(in wasm.Instr, width int) {
	ops, base := fc.operands(2)
	s := fc.s
	ea := fc.address(ops[0], in.Mem.Offset)
	v := fc.keep("stored", ops[1])
	for k := 0; k < width; k++ {
		var b dsl.Value
		switch {
		case v.IsConst():
			b = s.Push((v.Lit() >> (8 * k)) & 0xff)
		case k == 0:
			b = s.And(v, dsl.Const(0xff))
		default:
			b = s.And(s.ShrU(v, dsl.Const(int64(8*k))), dsl.Const(0xff))
		}
		s.Store(b, s.Add(ea, dsl.Const(int64(k))))
	}
	s.DropTo(base)
}

// memoryGrow succeeds within the pages reserved by the layout, returning the
// previous page count, or -1.
func (fc *funcCompiler) memoryGrow() {
	ops, base := fc.operands(1)
	s := fc.s
	mr := fc.inst.Layout.Memories[0]
	delta := fc.keep("delta", u32(s, ops[0]))
	old := fc.keep("old pages", s.LoadAbs(mr.PagesSlot))
	next := fc.keep("new pages", s.Add(old, delta))
	ok := fc.keep("grown", s.Le(next, dsl.Const(int64(mr.MaxPages))))
	s.IfBool(ok, func(s *dsl.Scope) {
		s.StoreAbs(mr.PagesSlot, next)
	}, nil)
	fc.result(base, s.Sub(s.Mul(s.Add(old, dsl.Const(1)), ok), dsl.Const(1)))
}

//// Numeric

func (fc *funcCompiler) shift(bits int64, f func(s *dsl.Scope, a, k dsl.Value) dsl.Value) {
	fc.binary(func(s *dsl.Scope, a, b dsl.Value) dsl.Value {
		return f(s, a, andConst(s, b, bits-1))
	})
}

// rotate lowers a rotation by composing two shifts; left rotates toward the
// high bits.
func (fc *funcCompiler) rotate(bits int64, left bool) {
	fc.binary(func(s *dsl.Scope, a, b dsl.Value) dsl.Value {
		k := fc.keep("count", andConst(s, b, bits-1))
		x := a
		if bits == 32 {
			x = u32(s, a)
		}
		x = fc.keep("rotated", x)
		var hi, lo dsl.Value
		if left {
			hi = s.Shl(x, k)
			lo = s.ShrU(x, s.Sub(dsl.Const(bits), k))
		} else {
			hi = s.Shl(x, s.Sub(dsl.Const(bits), k))
			lo = s.ShrU(x, k)
		}
		r := s.Or(hi, lo)
		if bits == 32 {
			r = wrap32(s, r)
		}
		return r
	})
}

func wrapped(f func(s *dsl.Scope, a, b dsl.Value) dsl.Value) func(s *dsl.Scope, a, b dsl.Value) dsl.Value {
	return func(s *dsl.Scope, a, b dsl.Value) dsl.Value { return wrap32(s, f(s, a, b)) }
}

func unsigned32(f func(s *dsl.Scope, a, b dsl.Value) dsl.Value) func(s *dsl.Scope, a, b dsl.Value) dsl.Value {
	return func(s *dsl.Scope, a, b dsl.Value) dsl.Value { return f(s, u32(s, a), u32(s, b)) }
}

func unsigned64(f func(s *dsl.Scope, a, b dsl.Value) dsl.Value) func(s *dsl.Scope, a, b dsl.Value) dsl.Value {
	return func(s *dsl.Scope, a, b dsl.Value) dsl.Value { return f(s, flip64(s, a), flip64(s, b)) }
}

var (
	opAdd  = (*dsl.Scope).Add
	opSub  = (*dsl.Scope).Sub
	opMul  = (*dsl.Scope).Mul
	opDiv  = (*dsl.Scope).Div
	opMod  = (*dsl.Scope).Mod
	opAnd  = (*dsl.Scope).And
	opOr   = (*dsl.Scope).Or
	opXor  = (*dsl.Scope).Xor
	opShl  = (*dsl.Scope).Shl
	opShr  = (*dsl.Scope).Shr
	opShrU = (*dsl.Scope).ShrU
	opEq   = (*dsl.Scope).Eq
	opNe   = (*dsl.Scope).Ne
	opLt   = (*dsl.Scope).Lt
	opGt   = (*dsl.Scope).Gt
	opLe   = (*dsl.Scope).Le
	opGe   = (*dsl.Scope).Ge
	opEqz  = (*dsl.Scope).Eqz
)

// binaryOps are the i32 and i64 binary operators that lower to a single
// scope operation, wrapped back into i32 range where needed.
var binaryOps = map[wasm.Opcode]func(s *dsl.Scope, a, b dsl.Value) dsl.Value{
	wasm.OpcodeI32Eq:  opEq,
	wasm.OpcodeI32Ne:  opNe,
	wasm.OpcodeI32LtS: opLt,
	wasm.OpcodeI32LtU: unsigned32(opLt),
	wasm.OpcodeI32GtS: opGt,
	wasm.OpcodeI32GtU: unsigned32(opGt),
	wasm.OpcodeI32LeS: opLe,
	wasm.OpcodeI32LeU: unsigned32(opLe),
	wasm.OpcodeI32GeS: opGe,
	wasm.OpcodeI32GeU: unsigned32(opGe),

	wasm.OpcodeI64Eq:  opEq,
	wasm.OpcodeI64Ne:  opNe,
	wasm.OpcodeI64LtS: opLt,
	wasm.OpcodeI64LtU: unsigned64(opLt),
	wasm.OpcodeI64GtS: opGt,
	wasm.OpcodeI64GtU: unsigned64(opGt),
	wasm.OpcodeI64LeS: opLe,
	wasm.OpcodeI64LeU: unsigned64(opLe),
	wasm.OpcodeI64GeS: opGe,
	wasm.OpcodeI64GeU: unsigned64(opGe),

	wasm.OpcodeI32Add:  wrapped(opAdd),
	wasm.OpcodeI32Sub:  wrapped(opSub),
	wasm.OpcodeI32Mul:  wrapped(opMul),
	wasm.OpcodeI32DivS: wrapped(opDiv),
	wasm.OpcodeI32DivU: wrapped(unsigned32(opDiv)),
	wasm.OpcodeI32RemS: opMod,
	wasm.OpcodeI32RemU: wrapped(unsigned32(opMod)),
	wasm.OpcodeI32And:  opAnd,
	wasm.OpcodeI32Or:   opOr,
	wasm.OpcodeI32Xor:  opXor,

	wasm.OpcodeI64Add:  opAdd,
	wasm.OpcodeI64Sub:  opSub,
	wasm.OpcodeI64Mul:  opMul,
	wasm.OpcodeI64DivS: opDiv,
	wasm.OpcodeI64RemS: opMod,
	wasm.OpcodeI64And:  opAnd,
	wasm.OpcodeI64Or:   opOr,
	wasm.OpcodeI64Xor:  opXor,
}

// loads maps each load to its width and signedness; i32.load is signed so
// that its result is canonical.
var loads = map[wasm.Opcode]struct {
	width  int
	signed bool
}{
	wasm.OpcodeI32Load:    {4, true},
	wasm.OpcodeI64Load:    {8, true},
	wasm.OpcodeI32Load8S:  {1, true},
	wasm.OpcodeI32Load8U:  {1, false},
	wasm.OpcodeI32Load16S: {2, true},
	wasm.OpcodeI32Load16U: {2, false},
	wasm.OpcodeI64Load8S:  {1, true},
	wasm.OpcodeI64Load8U:  {1, false},
	wasm.OpcodeI64Load16S: {2, true},
	wasm.OpcodeI64Load16U: {2, false},
	wasm.OpcodeI64Load32S: {4, true},
	wasm.OpcodeI64Load32U: {4, false},
}

var stores = map[wasm.Opcode]int{
	wasm.OpcodeI32Store:   4,
	wasm.OpcodeI64Store:   8,
	wasm.OpcodeI32Store8:  1,
	wasm.OpcodeI32Store16: 2,
	wasm.OpcodeI64Store8:  1,
	wasm.OpcodeI64Store16: 2,
	wasm.OpcodeI64Store32: 4,
}

func (fc *funcCompiler) lower(in wasm.Instr) {
	s := fc.s
	if f, ok := binaryOps[in.Op]; ok {
		fc.binary(f)
		return
	}
	if ld, ok := loads[in.Op]; ok {
		fc.load(in, ld.width, ld.signed)
		return
	}
	if width, ok := stores[in.Op]; ok {
		fc.store(in, width)
		return
	}

	switch in.Op {
	case wasm.OpcodeNop:

	case wasm.OpcodeUnreachable:
		// trap: no function has identity 0, so calling it faults
		fc.flush()
		s.Raw(isa.N(isa.OpPush, 0), isa.I(isa.OpCallI))
		fc.markUnreachable()

	case wasm.OpcodeBlock:
		fc.pushFrame(frameBlock, in.Block)

	case wasm.OpcodeLoop:
		f := fc.pushFrame(frameLoop, in.Block)
		f.start = s.NewLabel()
		s.Mark(f.start)

	case wasm.OpcodeIf:
		ops, _ := fc.operands(1)
		elseLabel := s.NewLabel()
		s.JumpIfZero(ops[0], elseLabel)
		f := fc.pushFrame(frameIf, in.Block)
		f.elseLabel = elseLabel

	case wasm.OpcodeElse:
		fc.lowerElse()

	case wasm.OpcodeEnd:
		fc.lowerEnd()

	case wasm.OpcodeBr:
		fc.branch(in.Index)
		fc.markUnreachable()

	case wasm.OpcodeBrIf:
		fc.lowerBrIf(in.Index)

	case wasm.OpcodeBrTable:
		fc.lowerBrTable(in)

	case wasm.OpcodeReturn:
		fc.branch(uint32(len(fc.frames) - 1))
		fc.markUnreachable()

	case wasm.OpcodeCall:
		fc.lowerCall(in.Index)

	case wasm.OpcodeCallIndirect:
		fc.lowerCallIndirect(in.Index)

	case wasm.OpcodeDrop:
		ops, _ := fc.operands(1)
		if v := ops[0]; v.IsVar() {
			s.Pop(v)
		}

	case wasm.OpcodeSelect, wasm.OpcodeTypedSelect:
		ops, base := fc.operands(3)
		a, b, c := ops[0], ops[1], ops[2]
		if c.IsConst() {
			if c.Lit() == 0 {
				a = b
			}
			fc.result(base, a)
			break
		}
		t := s.Bool(c)
		d := s.Sub(a, b)
		fc.result(base, s.Add(b, s.Mul(d, t)))

	case wasm.OpcodeLocalGet:
		fc.operands(0)
		fc.vals = append(fc.vals, s.Copy(fc.locals[in.Index]))

	case wasm.OpcodeLocalSet:
		ops, _ := fc.operands(1)
		s.Set(fc.locals[in.Index], ops[0])

	case wasm.OpcodeLocalTee:
		ops, _ := fc.operands(1)
		v := ops[0]
		if v.IsConst() {
			s.Set(fc.locals[in.Index], v)
		} else {
			s.Set(fc.locals[in.Index], s.Copy(v))
		}
		fc.vals = append(fc.vals, v)

	case wasm.OpcodeGlobalGet:
		fc.operands(0)
		fc.vals = append(fc.vals, s.LoadAbs(fc.inst.Layout.Global(int(in.Index))))

	case wasm.OpcodeGlobalSet:
		ops, _ := fc.operands(1)
		s.StoreAbs(fc.inst.Layout.Global(int(in.Index)), ops[0])

	case wasm.OpcodeMemorySize:
		fc.operands(0)
		fc.vals = append(fc.vals, s.LoadAbs(fc.inst.Layout.Memories[0].PagesSlot))

	case wasm.OpcodeMemoryGrow:
		fc.memoryGrow()

	case wasm.OpcodeI32Const:
		fc.operands(0)
		fc.vals = append(fc.vals, dsl.Const(int64(int32(in.Const))))

	case wasm.OpcodeI64Const:
		fc.operands(0)
		fc.vals = append(fc.vals, dsl.Const(in.Const))

	case wasm.OpcodeI32Eqz, wasm.OpcodeI64Eqz:
		fc.unary(opEqz)

	case wasm.OpcodeI32Shl:
		fc.shift(32, wrapped(opShl))
	case wasm.OpcodeI32ShrS:
		fc.shift(32, opShr)
	case wasm.OpcodeI32ShrU:
		fc.shift(32, func(s *dsl.Scope, a, k dsl.Value) dsl.Value {
			return wrap32(s, s.ShrU(u32(s, a), k))
		})
	case wasm.OpcodeI32Rotl:
		fc.rotate(32, true)
	case wasm.OpcodeI32Rotr:
		fc.rotate(32, false)

	case wasm.OpcodeI64Shl:
		fc.shift(64, opShl)
	case wasm.OpcodeI64ShrS:
		fc.shift(64, opShr)
	case wasm.OpcodeI64ShrU:
		fc.shift(64, opShrU)
	case wasm.OpcodeI64Rotl:
		fc.rotate(64, true)
	case wasm.OpcodeI64Rotr:
		fc.rotate(64, false)

	case wasm.OpcodeI32WrapI64, wasm.OpcodeI64Extend32S:
		fc.unary(wrap32)
	case wasm.OpcodeI64ExtendI32S:
		// canonical i32 values are already sign extended
	case wasm.OpcodeI64ExtendI32U:
		fc.unary(u32)
	case wasm.OpcodeI32Extend8S, wasm.OpcodeI64Extend8S:
		fc.unary(func(s *dsl.Scope, a dsl.Value) dsl.Value {
			return signExtend(s, andConst(s, a, 0xff), 8)
		})
	case wasm.OpcodeI32Extend16S, wasm.OpcodeI64Extend16S:
		fc.unary(func(s *dsl.Scope, a dsl.Value) dsl.Value {
			return signExtend(s, andConst(s, a, 0xffff), 16)
		})

	default:
		fc.fail(compileerr.UnsupportedWasmConstruct, "no lowering for %v", in.Op)
	}
}
