package translate

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/wasm"
)

// Fixed slots at the bottom of every runtime layout.
const (
	SentinelSlot    = 0
	InputLengthSlot = 1

	headerSize = 2
)

// DefaultPageSize is the WebAssembly page size, in byte slots.
const DefaultPageSize = 65536

// Layout is the region at the bottom of the machine stack that holds a
// module's static state. Every slot has a fixed absolute position: the
// sentinel, the input length, then globals, table entries and memories, each
// in declaration order. Memories take one slot per byte.
type Layout struct {
	PageSize int
	Globals  int
	NGlobals int
	Tables   []TableRegion
	Memories []MemoryRegion
	Size     int
}

// TableRegion holds a table's entries, each the identity of a function or 0.
type TableRegion struct {
	Base int
	Len  int
}

// MemoryRegion holds a memory: its current and maximum page counts, then its
// payload reserved for the maximum.
type MemoryRegion struct {
	PagesSlot    int
	MaxPagesSlot int
	Payload      int
	MinPages     int
	MaxPages     int
}

// PayloadSize returns how many byte slots the memory reserves.
func (mr MemoryRegion) PayloadSize(pageSize int) int { return mr.MaxPages * pageSize }

// Plan computes the runtime layout of m. Memories without a maximum are
// reserved at their minimum, since they cannot grow beyond what install
// places.
func Plan(m *wasm.Module, pageSize int) (*Layout, error) {
	if pageSize < 1 {
		return nil, errors.Errorf("invalid page size %v", pageSize)
	}
	if len(m.Memories) > 1 {
		return nil, compileerr.Errorf(compileerr.UnsupportedWasmConstruct,
			"module declares %v memories", len(m.Memories))
	}
	l := &Layout{PageSize: pageSize}
	pos := headerSize

	l.Globals, l.NGlobals = pos, len(m.Globals)
	pos += len(m.Globals)

	for _, tab := range m.Tables {
		l.Tables = append(l.Tables, TableRegion{Base: pos, Len: int(tab.Min)})
		pos += int(tab.Min)
	}

	for _, mem := range m.Memories {
		mr := MemoryRegion{
			PagesSlot:    pos,
			MaxPagesSlot: pos + 1,
			Payload:      pos + 2,
			MinPages:     int(mem.Min),
			MaxPages:     int(mem.Min),
		}
		if mem.Max != nil {
			mr.MaxPages = int(*mem.Max)
		}
		l.Memories = append(l.Memories, mr)
		pos = mr.Payload + mr.PayloadSize(pageSize)
	}

	l.Size = pos
	return l, nil
}

// Global returns the slot of global i.
func (l *Layout) Global(i int) int { return l.Globals + i }

// Annotate names the layout slot at pos, or returns "". Only the first byte
// of a memory payload is named, so that dumps may elide its zero runs.
func (l *Layout) Annotate(pos int) string {
	switch {
	case pos < 0 || pos >= l.Size:
		return ""
	case pos == SentinelSlot:
		return "sentinel"
	case pos == InputLengthSlot:
		return "input length"
	case pos < l.Globals+l.NGlobals:
		return fmt.Sprintf("global %v", pos-l.Globals)
	}
	for i, tr := range l.Tables {
		if pos >= tr.Base && pos < tr.Base+tr.Len {
			return fmt.Sprintf("table %v[%v]", i, pos-tr.Base)
		}
	}
	for i, mr := range l.Memories {
		switch {
		case pos == mr.PagesSlot:
			return fmt.Sprintf("memory %v pages", i)
		case pos == mr.MaxPagesSlot:
			return fmt.Sprintf("memory %v max pages", i)
		case pos == mr.Payload:
			return fmt.Sprintf("memory %v payload", i)
		}
	}
	return ""
}
