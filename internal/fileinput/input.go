package fileinput

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Location names a line in an Input file.
type Location struct {
	Name string
	Line int
}

// Line combines a Location along with a bytes.Buffer for handling it.
type Line struct {
	Location
	bytes.Buffer
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }
func (il Line) String() string      { return fmt.Sprintf("%v %q", il.Location, il.Buffer.String()) }

// Input implements sequential token scanning through a Queue of one or more
// input streams. The line currently being scanned is tracked so that callers
// can attach a location to any error about the last token.
type Input struct {
	src   io.Reader
	rr    io.RuneReader
	Queue []io.Reader
	Scan  Line

	// Comment, when non-zero, starts a comment that runs to end of line.
	Comment rune
}

// Token reads the next whitespace-delimited token, skipping comments.
// Returns io.EOF once every queued stream is exhausted.
func (in *Input) Token() (string, Location, error) {
	var sb strings.Builder
	var loc Location
	for {
		r, err := in.readRune()
		if err != nil {
			if sb.Len() > 0 && err == io.EOF {
				return sb.String(), loc, nil
			}
			return sb.String(), loc, err
		}
		switch {
		case in.Comment != 0 && r == in.Comment:
			if err := in.skipLine(); err != nil && sb.Len() == 0 {
				return "", loc, err
			}
			if sb.Len() > 0 {
				return sb.String(), loc, nil
			}
		case unicode.IsSpace(r) || r == 0:
			if sb.Len() > 0 {
				return sb.String(), loc, nil
			}
		default:
			if sb.Len() == 0 {
				loc = in.Scan.Location
			}
			sb.WriteRune(r)
		}
	}
}

func (in *Input) skipLine() error {
	for {
		r, err := in.readRune()
		if err != nil {
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

// readRune reads one rune from the current input stream, rolling over to the
// next queued stream at EOF, and tracking line numbers.
func (in *Input) readRune() (rune, error) {
	for {
		if in.rr == nil && !in.nextIn() {
			return 0, io.EOF
		}
		r, _, err := in.rr.ReadRune()
		if err == io.EOF {
			in.closeIn()
			// stream boundaries separate tokens
			return '\n', nil
		} else if err != nil {
			return 0, err
		}
		if r == '\n' {
			in.Scan.Reset()
			in.Scan.Line++
		} else {
			in.Scan.WriteRune(r)
		}
		return r, nil
	}
}

func (in *Input) closeIn() {
	if cl, ok := in.src.(io.Closer); ok {
		cl.Close()
	}
	in.src, in.rr = nil, nil
}

func (in *Input) nextIn() bool {
	if len(in.Queue) == 0 {
		return false
	}
	r := in.Queue[0]
	in.Queue = in.Queue[1:]
	in.src = r
	if rr, ok := r.(io.RuneReader); ok {
		in.rr = rr
	} else {
		in.rr = bufio.NewReader(r)
	}
	in.Scan.Reset()
	in.Scan.Name = nameOf(r)
	in.Scan.Line = 1
	return true
}

// Named attaches a name to r, reported in the Location of tokens read from it.
func Named(name string, r io.Reader) io.Reader { return namedReader{r, name} }

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
