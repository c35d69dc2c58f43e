// Package debugtree records the block structure of a flattened program.
//
// While a program flattens into its instruction list, a matched stream of
// Segments is recorded alongside: one Op segment per emitted instruction,
// bracketed by Start and End segments for every block. Build reassembles such
// a stream into a tree of Nodes for visualization tooling, and Root.Segments
// re-flattens a tree back into the stream that built it.
package debugtree

import (
	"fmt"

	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/isa"
)

// BlockType distinguishes inlined blocks from called function bodies.
type BlockType string

const (
	InlinedFunction BlockType = "inlined_function"
	FunctionCall    BlockType = "function_call"
)

// SegmentKind discriminates Segment.
type SegmentKind uint8

const (
	SegmentOp SegmentKind = iota
	SegmentStart
	SegmentEnd
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentOp:
		return "op"
	case SegmentStart:
		return "start"
	case SegmentEnd:
		return "end"
	}
	return fmt.Sprintf("SegmentKind(%d)", uint8(k))
}

// Segment is one element of the debug stream. Start and End segments are
// matched by ID; Name and Type are only meaningful on Start; Instr only on Op.
type Segment struct {
	Kind  SegmentKind
	ID    int
	Name  string
	Type  BlockType
	Instr isa.Instruction
}

func (seg Segment) String() string {
	switch seg.Kind {
	case SegmentOp:
		return seg.Instr.String()
	case SegmentStart:
		return fmt.Sprintf("start#%v %v %q", seg.ID, seg.Type, seg.Name)
	default:
		return fmt.Sprintf("%v#%v", seg.Kind, seg.ID)
	}
}

// Node is one of *Op, *Block, or *Root.
type Node interface{ debugNode() }

// Op is a leaf node holding a single instruction.
type Op struct {
	Instruction isa.Instruction
}

// Block is a named interior node.
type Block struct {
	ID       int
	Name     string
	Type     BlockType
	Children []Node
}

// Root holds the top level nodes of a program.
type Root struct {
	Children []Node
}

func (*Op) debugNode()    {}
func (*Block) debugNode() {}
func (*Root) debugNode()  {}

// Build reassembles a segment stream into a tree. Every Start must be closed
// by exactly one later End with the same ID, strictly nested; anything else
// is a MalformedDebugTree error.
func Build(segs []Segment) (*Root, error) {
	root := &Root{}
	var open []*Block
	seen := make(map[int]struct{})
	add := func(n Node) {
		if i := len(open) - 1; i >= 0 {
			open[i].Children = append(open[i].Children, n)
		} else {
			root.Children = append(root.Children, n)
		}
	}
	for i, seg := range segs {
		switch seg.Kind {
		case SegmentOp:
			add(&Op{seg.Instr})

		case SegmentStart:
			if _, dup := seen[seg.ID]; dup {
				return nil, compileerr.Errorf(compileerr.MalformedDebugTree,
					"segment %v reopens block %v", i, seg.ID)
			}
			seen[seg.ID] = struct{}{}
			blk := &Block{ID: seg.ID, Name: seg.Name, Type: seg.Type}
			add(blk)
			open = append(open, blk)

		case SegmentEnd:
			j := len(open) - 1
			if j < 0 {
				return nil, compileerr.Errorf(compileerr.MalformedDebugTree,
					"segment %v ends block %v, but no block is open", i, seg.ID)
			}
			if top := open[j]; top.ID != seg.ID {
				return nil, compileerr.Errorf(compileerr.MalformedDebugTree,
					"segment %v ends block %v, but block %v is open", i, seg.ID, top.ID)
			}
			open = open[:j]

		default:
			return nil, compileerr.Errorf(compileerr.MalformedDebugTree,
				"segment %v has invalid kind %v", i, seg.Kind)
		}
	}
	if j := len(open) - 1; j >= 0 {
		return nil, compileerr.Errorf(compileerr.MalformedDebugTree,
			"block %v never ended", open[j].ID)
	}
	return root, nil
}

// Segments re-flattens the tree into a segment stream.
func (root *Root) Segments() []Segment {
	var segs []Segment
	walk(root.Children, func(n Node, enter bool) {
		switch n := n.(type) {
		case *Op:
			segs = append(segs, Segment{Kind: SegmentOp, Instr: n.Instruction})
		case *Block:
			if enter {
				segs = append(segs, Segment{Kind: SegmentStart, ID: n.ID, Name: n.Name, Type: n.Type})
			} else {
				segs = append(segs, Segment{Kind: SegmentEnd, ID: n.ID})
			}
		}
	})
	return segs
}

// Instructions returns every instruction in the tree, in order.
func (root *Root) Instructions() []isa.Instruction {
	var code []isa.Instruction
	walk(root.Children, func(n Node, enter bool) {
		if op, ok := n.(*Op); ok {
			code = append(code, op.Instruction)
		}
	})
	return code
}

// walk visits nodes depth first; blocks are visited on both entry and exit,
// ops only on entry.
func walk(nodes []Node, visit func(n Node, enter bool)) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Op:
			visit(n, true)
		case *Block:
			visit(n, true)
			walk(n.Children, visit)
			visit(n, false)
		case *Root:
			walk(n.Children, visit)
		}
	}
}
