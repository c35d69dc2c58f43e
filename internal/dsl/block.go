package dsl

import (
	"github.com/jcorbin/stackwasm/internal/debugtree"
	"github.com/jcorbin/stackwasm/internal/isa"
)

// Node is an element of a program tree: either an OpNode or a *BlockNode.
type Node interface{ dslNode() }

// OpNode is a single emitted instruction.
type OpNode struct{ isa.Instruction }

// BlockNode is a named container of nodes. Inlined blocks flatten to the
// concatenation of their children; function_call blocks hold the body of a
// called function.
type BlockNode struct {
	Name     string
	Type     debugtree.BlockType
	Children []Node
}

func (OpNode) dslNode()     {}
func (*BlockNode) dslNode() {}

// Ops wraps instructions as nodes.
func Ops(code ...isa.Instruction) []Node {
	nodes := make([]Node, len(code))
	for i, in := range code {
		nodes[i] = OpNode{in}
	}
	return nodes
}

// Append adds nodes to the end of the block.
func (blk *BlockNode) Append(nodes ...Node) { blk.Children = append(blk.Children, nodes...) }

// Instructions flattens the block into its instruction list.
func (blk *BlockNode) Instructions() []isa.Instruction {
	return appendInstructions(nil, blk.Children)
}

func appendInstructions(code []isa.Instruction, nodes []Node) []isa.Instruction {
	for _, n := range nodes {
		switch n := n.(type) {
		case OpNode:
			code = append(code, n.Instruction)
		case *BlockNode:
			code = appendInstructions(code, n.Children)
		}
	}
	return code
}

// record writes nodes into rec, ending every block it starts.
func record(rec *debugtree.Recorder, nodes []Node) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case OpNode:
			rec.Op(n.Instruction)
		case *BlockNode:
			id := rec.Start(n.Name, n.Type)
			if err := record(rec, n.Children); err != nil {
				return err
			}
			if err := rec.End(id); err != nil {
				return err
			}
		}
	}
	return nil
}
