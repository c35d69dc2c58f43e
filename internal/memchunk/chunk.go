// Package memchunk run-length encodes initial memory images.
//
// An image is partitioned, in order, into single byte Element chunks and
// Zeroes chunks standing for long runs of zero bytes. Short zero runs stay as
// Element(0) entries, since switching chunk kind costs more emitted code than
// a short run saves.
package memchunk

import (
	"fmt"

	"github.com/pkg/errors"
)

// Chunk is either a single byte Element, or a run of Count zero bytes.
type Chunk struct {
	Zeroes bool
	Value  byte
	Count  int
}

// Element returns a chunk holding the single byte b.
func Element(b byte) Chunk { return Chunk{Value: b, Count: 1} }

// Zeroes returns a chunk standing for n zero bytes.
func Zeroes(n int) Chunk { return Chunk{Zeroes: true, Count: n} }

// Extent returns how many bytes the chunk covers.
func (c Chunk) Extent() int {
	if c.Zeroes {
		return c.Count
	}
	return 1
}

func (c Chunk) String() string {
	if c.Zeroes {
		return fmt.Sprintf("Zeroes(%v)", c.Count)
	}
	return fmt.Sprintf("Element(%v)", c.Value)
}

// Split partitions image into chunks, collapsing every zero run of at least
// threshold bytes into a single Zeroes chunk.
func Split(image []byte, threshold int) ([]Chunk, error) {
	if threshold < 1 {
		return nil, errors.Errorf("invalid zero run threshold %v", threshold)
	}
	var chunks []Chunk
	run := 0
	flush := func() {
		if run >= threshold {
			chunks = append(chunks, Zeroes(run))
		} else {
			for ; run > 0; run-- {
				chunks = append(chunks, Element(0))
			}
		}
		run = 0
	}
	for _, b := range image {
		if b == 0 {
			run++
			continue
		}
		flush()
		chunks = append(chunks, Element(b))
	}
	flush()
	return chunks, nil
}

// Expand reconstructs the image that chunks encode.
func Expand(chunks []Chunk) []byte {
	image := make([]byte, 0, Extent(chunks))
	for _, c := range chunks {
		if c.Zeroes {
			image = append(image, make([]byte, c.Count)...)
		} else {
			image = append(image, c.Value)
		}
	}
	return image
}

// Extent returns the total number of bytes covered by chunks.
func Extent(chunks []Chunk) (n int) {
	for _, c := range chunks {
		n += c.Extent()
	}
	return n
}
