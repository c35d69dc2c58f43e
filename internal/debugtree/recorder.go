package debugtree

import (
	"github.com/jcorbin/stackwasm/internal/compileerr"
	"github.com/jcorbin/stackwasm/internal/isa"
)

// Recorder accumulates a segment stream and its instructions in parallel,
// assigning block IDs and enforcing nesting as it goes.
type Recorder struct {
	segs   []Segment
	code   []isa.Instruction
	open   []int
	nextID int
}

// Start opens a new block, returning its ID.
func (rec *Recorder) Start(name string, typ BlockType) int {
	rec.nextID++
	id := rec.nextID
	rec.open = append(rec.open, id)
	rec.segs = append(rec.segs, Segment{Kind: SegmentStart, ID: id, Name: name, Type: typ})
	return id
}

// End closes block id, which must be the innermost open block.
func (rec *Recorder) End(id int) error {
	i := len(rec.open) - 1
	if i < 0 || rec.open[i] != id {
		return compileerr.Errorf(compileerr.MalformedDebugTree, "end of block %v out of order", id)
	}
	rec.open = rec.open[:i]
	rec.segs = append(rec.segs, Segment{Kind: SegmentEnd, ID: id})
	return nil
}

// Op records an instruction.
func (rec *Recorder) Op(in isa.Instruction) {
	rec.code = append(rec.code, in)
	rec.segs = append(rec.segs, Segment{Kind: SegmentOp, Instr: in})
}

// Segments returns the recorded stream; every block must have ended.
func (rec *Recorder) Segments() ([]Segment, error) {
	if i := len(rec.open) - 1; i >= 0 {
		return nil, compileerr.Errorf(compileerr.MalformedDebugTree, "block %v never ended", rec.open[i])
	}
	return rec.segs, nil
}

// Instructions returns the recorded instructions.
func (rec *Recorder) Instructions() []isa.Instruction { return rec.code }
