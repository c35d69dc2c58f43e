package wasm

import "github.com/pkg/errors"

// Validate checks that every index in the module is in range, that
// structured instructions nest, and that initializers are constant.
// It does not type check instruction operands.
func (m *Module) Validate() error {
	for i, fn := range m.Functions {
		if err := m.validateFunction(fn); err != nil {
			return errors.WithMessagef(err, "function %v", m.FunctionName(uint32(i)))
		}
	}
	for i, g := range m.Globals {
		if err := m.validateConst(g.Init, i); err != nil {
			return errors.WithMessagef(err, "global %v", i)
		}
	}
	for i, tab := range m.Tables {
		if err := validateLimits(tab.Limits); err != nil {
			return errors.WithMessagef(err, "table %v", i)
		}
		if tab.Type != ValueTypeFuncref {
			return errors.Errorf("table %v has element type %v", i, ValueTypeName(tab.Type))
		}
	}
	for i, mem := range m.Memories {
		if err := validateLimits(mem.Limits); err != nil {
			return errors.WithMessagef(err, "memory %v", i)
		}
	}
	for i, elem := range m.Elements {
		if int(elem.Table) >= len(m.Tables) {
			return errors.Errorf("element %v: table %v out of range", i, elem.Table)
		}
		if err := m.validateConst(elem.Offset, len(m.Globals)); err != nil {
			return errors.WithMessagef(err, "element %v offset", i)
		}
		for _, fn := range elem.Init {
			if int(fn) >= len(m.Functions) {
				return errors.Errorf("element %v: function %v out of range", i, fn)
			}
		}
	}
	for i, data := range m.Data {
		if int(data.Memory) >= len(m.Memories) {
			return errors.Errorf("data %v: memory %v out of range", i, data.Memory)
		}
		if err := m.validateConst(data.Offset, len(m.Globals)); err != nil {
			return errors.WithMessagef(err, "data %v offset", i)
		}
	}
	seen := make(map[string]struct{}, len(m.Exports))
	for _, exp := range m.Exports {
		if _, dup := seen[exp.Name]; dup {
			return errors.Errorf("duplicate export %q", exp.Name)
		}
		seen[exp.Name] = struct{}{}
		var n int
		switch exp.Type {
		case ExternTypeFunc:
			n = len(m.Functions)
		case ExternTypeTable:
			n = len(m.Tables)
		case ExternTypeMemory:
			n = len(m.Memories)
		case ExternTypeGlobal:
			n = len(m.Globals)
		default:
			return errors.Errorf("export %q has invalid type %v", exp.Name, exp.Type)
		}
		if int(exp.Index) >= n {
			return errors.Errorf("export %q: %v %v out of range", exp.Name, ExternTypeName(exp.Type), exp.Index)
		}
	}
	if m.Start != nil {
		if int(*m.Start) >= len(m.Functions) {
			return errors.Errorf("start function %v out of range", *m.Start)
		}
		if ft := m.TypeOf(*m.Start); len(ft.Params) > 0 || len(ft.Results) > 0 {
			return errors.Errorf("start function has type %v", ft)
		}
	}
	return nil
}

func validateLimits(lim Limits) error {
	if lim.Max != nil && *lim.Max < lim.Min {
		return errors.Errorf("maximum %v below minimum %v", *lim.Max, lim.Min)
	}
	return nil
}

// validateConst checks an initializer, which may only read globals below
// limit.
func (m *Module) validateConst(ce ConstExpr, limit int) error {
	switch ce.Opcode {
	case OpcodeI32Const, OpcodeI64Const, OpcodeRefNull:
	case OpcodeGlobalGet:
		if ce.Value < 0 || ce.Value >= int64(limit) {
			return errors.Errorf("initializer reads global %v out of range", ce.Value)
		}
	case OpcodeRefFunc:
		if ce.Value < 0 || ce.Value >= int64(len(m.Functions)) {
			return errors.Errorf("initializer references function %v out of range", ce.Value)
		}
	default:
		return errors.Errorf("initializer %v is not constant", ce.Opcode)
	}
	return nil
}

func (m *Module) validateFunction(fn Function) error {
	if int(fn.Type) >= len(m.Types) {
		return errors.Errorf("type %v out of range", fn.Type)
	}
	ft := m.Types[fn.Type]
	nLocals := len(ft.Params) + len(fn.Locals)

	// depth counts the open structured instructions, including the
	// function body itself.
	depth := 1
	for pc, in := range fn.Body {
		if depth == 0 {
			return errors.Errorf("instruction %v @%v after final end", in, pc)
		}
		var err error
		switch in.Op {
		case OpcodeBlock, OpcodeLoop, OpcodeIf:
			depth++
		case OpcodeEnd:
			depth--
		case OpcodeBr, OpcodeBrIf:
			err = checkLabel(in.Index, depth)
		case OpcodeBrTable:
			err = checkLabel(in.Index, depth)
			for _, l := range in.Labels {
				if err == nil {
					err = checkLabel(l, depth)
				}
			}
		case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee:
			if int(in.Index) >= nLocals {
				err = errors.Errorf("local %v out of range", in.Index)
			}
		case OpcodeGlobalGet, OpcodeGlobalSet:
			if int(in.Index) >= len(m.Globals) {
				err = errors.Errorf("global %v out of range", in.Index)
			} else if in.Op == OpcodeGlobalSet && !m.Globals[in.Index].Type.Mutable {
				err = errors.Errorf("global %v is immutable", in.Index)
			}
		case OpcodeCall:
			if int(in.Index) >= len(m.Functions) {
				err = errors.Errorf("function %v out of range", in.Index)
			}
		case OpcodeCallIndirect:
			if int(in.Index) >= len(m.Types) {
				err = errors.Errorf("type %v out of range", in.Index)
			} else if len(m.Tables) == 0 {
				err = errors.New("indirect call without a table")
			}
		case OpcodeMemorySize, OpcodeMemoryGrow:
			if len(m.Memories) == 0 {
				err = errors.New("memory instruction without a memory")
			}
		default:
			if in.Op >= OpcodeI32Load && in.Op <= OpcodeI64Store32 && len(m.Memories) == 0 {
				err = errors.New("memory instruction without a memory")
			}
		}
		if err != nil {
			return errors.WithMessagef(err, "%v @%v", in.Op, pc)
		}
	}
	if depth != 0 {
		return errors.Errorf("body has %v unterminated blocks", depth)
	}
	return nil
}

func checkLabel(l uint32, depth int) error {
	if int(l) >= depth {
		return errors.Errorf("label %v out of range at depth %v", l, depth)
	}
	return nil
}
