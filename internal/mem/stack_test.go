package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	var s Stack
	s.PageSize = 4

	require.NoError(t, s.Push(1, 2, 3, 4, 5, 6))
	assert.Equal(t, uint(6), s.Len())
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, s.Values())
	assert.Equal(t, 2, len(s.pages), "expected two pages")

	val, err := s.Load(4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), val)

	require.NoError(t, s.Stor(1, 20))
	val, err = s.Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(6), val)
	assert.Equal(t, []int64{1, 20, 3, 4, 5}, s.Values())

	for s.Len() > 0 {
		_, err := s.Pop()
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{}, s.Values())
	assert.Equal(t, 2, len(s.pages), "expected pages to be retained")

	require.NoError(t, s.Push(9))
	assert.Equal(t, []int64{9}, s.Values())
}

func TestStack_errors(t *testing.T) {
	s := Stack{PageSize: 2, Limit: 3}

	_, err := s.Pop()
	assert.EqualError(t, err, "pop @-1 out of range for depth 0")

	require.NoError(t, s.Push(1, 2))
	assert.EqualError(t, s.Push(3, 4), "stack limit exceeded by push @4")
	assert.Equal(t, uint(2), s.Len(), "expected no partial push")

	_, err = s.Load(2)
	assert.EqualError(t, err, "load @2 out of range for depth 2")
	_, err = s.Load(-1)
	assert.EqualError(t, err, "load @-1 out of range for depth 2")
	assert.EqualError(t, s.Stor(5, 0), "stor @5 out of range for depth 2")

	var re RangeError
	assert.ErrorAs(t, s.Stor(2, 0), &re)
	assert.Equal(t, "stor", re.Op)
}
