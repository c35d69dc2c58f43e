package isa

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/stackwasm/internal/fileinput"
)

func TestOp(t *testing.T) {
	for op := OpInvalid + 1; op < opMax; op++ {
		t.Run(op.String(), func(t *testing.T) {
			assert.True(t, op.Valid())
			found, ok := Lookup(op.String())
			require.True(t, ok, "expected lookup to succeed")
			assert.Equal(t, op, found)
		})
	}
	assert.False(t, OpInvalid.Valid())
	assert.False(t, Op(200).Valid())
	assert.Equal(t, "Op(200)", Op(200).String())
	_, ok := Lookup("nope")
	assert.False(t, ok)

	imm, ok := OpAdd.ImmForm()
	assert.True(t, ok)
	assert.Equal(t, OpAddI, imm)
	_, ok = OpDiv.ImmForm()
	assert.False(t, ok, "division has no immediate form")
}

func TestInstruction(t *testing.T) {
	assert.Equal(t, "push -3", N(OpPush, -3).String())
	assert.Equal(t, "swap", I(OpSwap).String())
	assert.Equal(t, "swap", N(OpSwap, 9).String(), "expected immediate to be ignored")

	pops, pushes := N(OpSet, 1).Effect()
	assert.Equal(t, [2]int{1, 0}, [2]int{pops, pushes})
	pops, pushes = I(OpWrite).Effect()
	assert.Equal(t, [2]int{2, 0}, [2]int{pops, pushes})
	pops, pushes = I(OpDup).Effect()
	assert.Equal(t, [2]int{1, 2}, [2]int{pops, pushes})
}

func TestText(t *testing.T) {
	code := []Instruction{
		N(OpPush, 40),
		N(OpPush, 2),
		I(OpAdd),
		N(OpJz, 3),
		N(OpCall, 1),
		I(OpHalt),
		N(OpFunc, 1),
		N(OpAndI, 4294967295),
		I(OpRet),
	}
	text := Format(code)
	assert.Equal(t, strings.Join([]string{
		"push 40",
		"push 2",
		"add",
		"jz 3",
		"call 1",
		"halt",
		"fn 1",
		"andi 4294967295",
		"ret",
	}, "\n")+"\n", text)

	parsed, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, code, parsed, "expected round trip")
}

func TestParse(t *testing.T) {
	t.Run("comments and streams", func(t *testing.T) {
		code, err := Parse(
			strings.NewReader("push 0x10 # sixteen\ndup"),
			strings.NewReader("add"),
		)
		require.NoError(t, err)
		assert.Equal(t, []Instruction{N(OpPush, 16), I(OpDup), I(OpAdd)}, code)
	})

	t.Run("unknown op", func(t *testing.T) {
		_, err := Parse(fileinput.Named("prog", strings.NewReader("push 1\nfrob\n")))
		var pe ParseError
		require.True(t, errors.As(err, &pe), "expected a parse error, got %v", err)
		assert.Equal(t, "frob", pe.Token)
		assert.Equal(t, "prog:2", pe.Location.String())
		assert.True(t, errors.Is(err, errUnknownOp))
	})

	t.Run("missing immediate", func(t *testing.T) {
		_, err := Parse(strings.NewReader("push"))
		assert.True(t, errors.Is(err, errMissingImm), "got %v", err)
	})

	t.Run("bad immediate", func(t *testing.T) {
		_, err := Parse(strings.NewReader("push x"))
		assert.True(t, errors.Is(err, strconv.ErrSyntax), "got %v", err)
	})
}
