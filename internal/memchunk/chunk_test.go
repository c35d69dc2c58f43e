package memchunk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		name      string
		image     []byte
		threshold int
		want      []Chunk
	}{
		{"empty", nil, 1, nil},
		{"no zeroes", []byte{1, 2, 3}, 2, []Chunk{Element(1), Element(2), Element(3)}},
		{"all zeroes", make([]byte, 10), 4, []Chunk{Zeroes(10)}},
		{"short run kept", []byte{7, 0, 0, 7}, 3, []Chunk{Element(7), Element(0), Element(0), Element(7)}},
		{"run at threshold", []byte{7, 0, 0, 0, 7}, 3, []Chunk{Element(7), Zeroes(3), Element(7)}},
		{"trailing run", []byte{5, 0, 0, 0, 0}, 2, []Chunk{Element(5), Zeroes(4)}},
		{"threshold one", []byte{0, 9, 0}, 1, []Chunk{Zeroes(1), Element(9), Zeroes(1)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := Split(tc.image, tc.threshold)
			require.NoError(t, err)
			assert.Equal(t, tc.want, chunks)
		})
	}

	_, err := Split([]byte{0}, 0)
	assert.EqualError(t, err, "invalid zero run threshold 0")
}

func TestSplit_roundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		image := make([]byte, rng.Intn(300))
		for j := range image {
			// mostly zero, like a real initial memory image
			if rng.Intn(4) == 0 {
				image[j] = byte(rng.Intn(256))
			}
		}
		threshold := 1 + rng.Intn(12)

		chunks, err := Split(image, threshold)
		require.NoError(t, err)
		assert.Equal(t, len(image), Extent(chunks), "expected extent to match image size")
		assert.Equal(t, image, Expand(chunks), "expected expansion to reproduce image")
		for _, c := range chunks {
			if c.Zeroes {
				assert.GreaterOrEqual(t, c.Count, threshold, "expected only long runs to collapse")
			}
		}
	}
}
