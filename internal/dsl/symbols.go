package dsl

// symbols interns function names; a name's symbol is the FunctionID of the
// function declared under it.
type symbols struct {
	strings []string
	symbols map[string]FunctionID
}

func (sym symbols) string(id FunctionID) string {
	if i := int(id) - 1; i >= 0 && i < len(sym.strings) {
		return sym.strings[i]
	}
	return ""
}

func (sym symbols) symbol(s string) FunctionID {
	return sym.symbols[s]
}

func (sym *symbols) symbolicate(s string) (id FunctionID) {
	id, defined := sym.symbols[s]
	if !defined {
		if sym.symbols == nil {
			sym.symbols = make(map[string]FunctionID)
		}
		id = FunctionID(len(sym.strings)) + 1
		sym.strings = append(sym.strings, s)
		sym.symbols[s] = id
	}
	return id
}
