// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vector

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/db47h/netsim"
	"github.com/pkg/errors"
)

// FormatError reports a malformed vector file.
//
type FormatError struct {
	Line int // 1-based line number
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Reader is a Source that replays vectors from a text stream.
//
// The first non blank line is a header listing the input line names, in any
// order. Every input line of the netlist must appear exactly once. Each
// following line holds one vector: one value per header column (see Decode).
// Columns are separated by spaces, tabs or commas. Text following a # is a
// comment.
//
type Reader struct {
	s     *bufio.Scanner
	c     io.Closer
	lines *netsim.LineSet
	cols  []int // column to line index
	line  int
}

// NewReader returns a Reader for the given input lines. It reads and checks
// the header immediately. If r is an io.Closer, Close closes it.
//
func NewReader(r io.Reader, lines *netsim.LineSet) (*Reader, error) {
	vr := &Reader{s: bufio.NewScanner(r), lines: lines}
	if c, ok := r.(io.Closer); ok {
		vr.c = c
	}
	hdr, err := vr.fields()
	if err != nil {
		if err == io.EOF {
			return nil, &FormatError{vr.line, "missing header"}
		}
		return nil, err
	}
	seen := make([]bool, lines.Len())
	vr.cols = make([]int, len(hdr))
	for i, n := range hdr {
		idx := lines.Index(n)
		if idx < 0 {
			return nil, &FormatError{vr.line, "unknown input " + n}
		}
		if seen[idx] {
			return nil, &FormatError{vr.line, "duplicate input " + n}
		}
		seen[idx] = true
		vr.cols[i] = idx
	}
	for i, ok := range seen {
		if !ok {
			return nil, &FormatError{vr.line, "missing input " + lines.Line(i).Name}
		}
	}
	return vr, nil
}

// fields returns the columns of the next non blank line.
//
func (r *Reader) fields() ([]string, error) {
	for r.s.Scan() {
		r.line++
		t := r.s.Text()
		if i := strings.IndexByte(t, '#'); i >= 0 {
			t = t[:i]
		}
		f := strings.FieldsFunc(t, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ',' || r == '\r'
		})
		if len(f) > 0 {
			return f, nil
		}
	}
	if err := r.s.Err(); err != nil {
		return nil, errors.Wrap(err, "read vectors")
	}
	return nil, io.EOF
}

// Next implements Source.
//
func (r *Reader) Next(cycle int64, dst [][]netsim.Value) error {
	if len(dst) != r.lines.Len() {
		return errors.Errorf("got %d lines, expected %d", len(dst), r.lines.Len())
	}
	f, err := r.fields()
	if err != nil {
		return err
	}
	if len(f) != len(r.cols) {
		return &FormatError{r.line, fmt.Sprintf("got %d values, expected %d", len(f), len(r.cols))}
	}
	for i, tok := range f {
		l := r.cols[i]
		if err = Decode(tok, dst[l]); err != nil {
			return &FormatError{r.line, r.lines.Line(l).Name + ": " + err.Error()}
		}
	}
	return nil
}

// Close implements Source.
//
func (r *Reader) Close() error {
	if r.c != nil {
		return r.c.Close()
	}
	return nil
}
