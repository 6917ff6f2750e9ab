// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strings"

	"github.com/db47h/netsim/internal/lex"
	"github.com/pkg/errors"
)

// File is a parsed netlist description:
//
//	CHIP Counter {
//		IN en;
//		CLOCK clk;
//		OUT q[2];
//		PARTS:
//		Xor(a=en, b=q[0], out=d0);
//		r0: EdgeDFF(in=d0, clk=clk, out=q[0]);
//		...
//	}
//
// IN, OUT and CLOCK values are kept verbatim as pin specifications. CLOCK
// pins are primary inputs driven by a clock.
type File struct {
	Name   string
	In     []string
	Out    []string
	Clocks []string
	Parts  []PartDecl
}

// PartDecl is a part instance in a netlist file.
type PartDecl struct {
	Name  string // optional instance name
	Type  string
	Conns string // connection string, verbatim
	Line  int
}

type fileParser struct {
	in string
	l  lex.Interface
	i  lex.Item
}

func (p *fileParser) next() lex.Item {
	p.i = p.l.Lex()
	return p.i
}

func (p *fileParser) errorf(format string, args ...interface{}) error {
	return errors.Errorf("line %d: "+format, append([]interface{}{p.i.Line}, args...)...)
}

func (p *fileParser) expect(t lex.Type, what string) error {
	if p.next().Type != t {
		return p.errorf("expected %s, got %s", what, p.i)
	}
	return nil
}

// until consumes tokens up to the first token of type t and returns the
// verbatim input text in between.
func (p *fileParser) until(t lex.Type, what string) (string, error) {
	start := -1
	for {
		i := p.next()
		switch i.Type {
		case t:
			if start < 0 {
				return "", nil
			}
			return strings.TrimSpace(p.in[start:i.Pos]), nil
		case EOF, Raw, BraceClose, BraceOpen:
			return "", p.errorf("expected %s, got %s", what, i)
		}
		if start < 0 {
			start = int(i.Pos)
		}
	}
}

// ParseFile parses a netlist description.
func ParseFile(input string) (*File, error) {
	p := &fileParser{in: input, l: Lexer(input)}
	if p.next().Type != Ident || p.i.Value.(string) != "CHIP" {
		return nil, p.errorf("expected CHIP, got %s", p.i)
	}
	if err := p.expect(Ident, "chip name"); err != nil {
		return nil, err
	}
	f := &File{Name: p.i.Value.(string)}
	if err := p.expect(BraceOpen, "'{'"); err != nil {
		return nil, err
	}

	parts := false
	for {
		i := p.next()
		if i.Type == BraceClose {
			break
		}
		if i.Type != Ident {
			return nil, p.errorf("unexpected %s", i)
		}
		kw := i.Value.(string)
		if !parts {
			var dst *[]string
			switch kw {
			case "IN":
				dst = &f.In
			case "OUT":
				dst = &f.Out
			case "CLOCK":
				dst = &f.Clocks
			case "PARTS":
				if err := p.expect(Colon, "':' after PARTS"); err != nil {
					return nil, err
				}
				parts = true
				continue
			default:
				return nil, p.errorf("unexpected %s, expected IN, OUT, CLOCK or PARTS", i)
			}
			s, err := p.until(Semicolon, "';'")
			if err != nil {
				return nil, err
			}
			if s != "" {
				*dst = append(*dst, s)
			}
			continue
		}

		d := PartDecl{Type: kw, Line: i.Line}
		if p.next().Type == Colon {
			if err := p.expect(Ident, "part type"); err != nil {
				return nil, err
			}
			d.Name, d.Type = kw, p.i.Value.(string)
			p.next()
		}
		if p.i.Type != ParenOpen {
			return nil, p.errorf("expected '(', got %s", p.i)
		}
		conns, err := p.until(ParenClose, "')'")
		if err != nil {
			return nil, err
		}
		d.Conns = conns
		if err = p.expect(Semicolon, "';'"); err != nil {
			return nil, err
		}
		f.Parts = append(f.Parts, d)
	}
	if p.next().Type != EOF {
		return nil, p.errorf("unexpected %s after end of chip", p.i)
	}
	return f, nil
}
