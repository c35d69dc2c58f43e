package debugtree

import "encoding/json"

type opJSON struct {
	Type        string `json:"type"`
	Instruction string `json:"instruction"`
}

type blockJSON struct {
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	BlockType BlockType `json:"blockType"`
	Children  []Node    `json:"children"`
}

type rootJSON struct {
	Type     string `json:"type"`
	Children []Node `json:"children"`
}

func (op *Op) MarshalJSON() ([]byte, error) {
	return json.Marshal(opJSON{"op", op.Instruction.String()})
}

func (blk *Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockJSON{"block", blk.Name, blk.Type, nonNil(blk.Children)})
}

func (root *Root) MarshalJSON() ([]byte, error) {
	return json.Marshal(rootJSON{"root", nonNil(root.Children)})
}

func nonNil(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	return nodes
}
