package isa

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcorbin/stackwasm/internal/fileinput"
	"github.com/jcorbin/stackwasm/internal/flushio"
)

// Format renders code as whitespace separated text, one instruction per line.
func Format(code []Instruction) string {
	var sb strings.Builder
	_ = Write(&sb, code)
	return sb.String()
}

// Write renders code as text into w, one instruction per line.
func Write(w io.Writer, code []Instruction) error {
	out := flushio.NewWriteFlusher(w)
	for _, in := range code {
		if err := flushio.WriteString(out, in.String()); err != nil {
			return err
		}
		if err := flushio.WriteString(out, "\n"); err != nil {
			return err
		}
	}
	return out.Flush()
}

// ParseError locates a problem found while parsing instruction text.
type ParseError struct {
	fileinput.Location
	Token string
	Err   error
}

func (pe ParseError) Error() string {
	return fmt.Sprintf("%v: %q: %v", pe.Location, pe.Token, pe.Err)
}

func (pe ParseError) Unwrap() error { return pe.Err }

var (
	errUnknownOp  = errors.New("unknown mnemonic")
	errMissingImm = errors.New("missing immediate operand")
)

// Parse reads instruction text, as produced by Write, from one or more
// readers. Anything after a '#' on a line is a comment.
func Parse(rs ...io.Reader) ([]Instruction, error) {
	in := fileinput.Input{Queue: rs, Comment: '#'}
	var code []Instruction
	for {
		tok, loc, err := in.Token()
		if err == io.EOF {
			return code, nil
		} else if err != nil {
			return code, err
		}

		op, ok := Lookup(tok)
		if !ok {
			return code, ParseError{loc, tok, errUnknownOp}
		}
		if !op.HasImm() {
			code = append(code, I(op))
			continue
		}

		arg, argLoc, err := in.Token()
		if err == io.EOF {
			return code, ParseError{loc, tok, errMissingImm}
		} else if err != nil {
			return code, err
		}
		imm, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			return code, ParseError{argLoc, arg, err}
		}
		code = append(code, N(op, imm))
	}
}
