// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lex provides a small state function based lexer.
//
// A lexer is driven by StateFn's. Each state function consumes runes with
// Next and emits zero or more tokens with Emit. When a state function returns
// nil, the lexer returns to its initial state and the start of the next token
// is set to the current position.
package lex

import (
	"io"
	"strconv"
)

// EOF is both the rune returned by Lexer.Next at the end of input and the
// token type emitted at the end of input.
const EOF = -1

// Type is a token type.
type Type int

// Pos is a byte offset in the input.
type Pos int

// Item is a lexer token.
type Item struct {
	Type  Type
	Pos   Pos
	Line  int
	Value interface{}
}

func (i Item) String() string {
	switch v := i.Value.(type) {
	case string:
		return strconv.Quote(v)
	case rune:
		return strconv.QuoteRune(v)
	case int:
		return strconv.Itoa(v)
	}
	return "token"
}

// Interface wraps the Lex method.
type Interface interface {
	Lex() Item
}

// A StateFn is a lexer state function.
type StateFn func(l *Lexer) StateFn

// Lexer reads runes from an io.RuneReader and emits Items.
type Lexer struct {
	r     io.RuneReader
	init  StateFn
	state StateFn
	items []Item

	cur    rune
	size   int
	backed bool
	offset Pos
	line   int
	start  Pos
	stLine int
	atEOF  bool
}

// New returns a new lexer that reads from r, starting in state init.
func New(r io.RuneReader, init StateFn) *Lexer {
	return &Lexer{r: r, init: init, line: 1}
}

// Lex returns the next token.
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			l.start, l.stLine = l.offset, l.line
			l.state = l.init
		}
		l.state = l.state(l)
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

// Next returns the next rune in the input, or EOF.
func (l *Lexer) Next() rune {
	if l.backed {
		l.backed = false
		l.offset += Pos(l.size)
		if l.cur == '\n' {
			l.line++
		}
		return l.cur
	}
	if l.atEOF {
		l.cur, l.size = EOF, 0
		return EOF
	}
	r, sz, err := l.r.ReadRune()
	if err != nil {
		l.atEOF = true
		l.cur, l.size = EOF, 0
		return EOF
	}
	l.cur, l.size = r, sz
	l.offset += Pos(sz)
	if r == '\n' {
		l.line++
	}
	return r
}

// Backup steps back one rune. It can only be called once per call to Next.
func (l *Lexer) Backup() {
	if l.backed {
		panic("lex: Backup called twice")
	}
	l.backed = true
	l.offset -= Pos(l.size)
	if l.cur == '\n' {
		l.line--
	}
}

// Current returns the last rune returned by Next.
func (l *Lexer) Current() rune {
	return l.cur
}

// Pos returns the offset of the next rune.
func (l *Lexer) Pos() Pos {
	return l.offset
}

// AcceptWhile consumes runes for as long as f returns true.
func (l *Lexer) AcceptWhile(f func(r rune) bool) {
	for {
		r := l.Next()
		if r == EOF || !f(r) {
			l.Backup()
			return
		}
	}
}

// Discard resets the start of the current token to the current position.
func (l *Lexer) Discard() {
	l.start, l.stLine = l.offset, l.line
}

// Emit emits a token of type t with value v. The token's position is the
// position of the start of the current token.
func (l *Lexer) Emit(t Type, v interface{}) {
	l.items = append(l.items, Item{Type: t, Pos: l.start, Line: l.stLine, Value: v})
	l.start, l.stLine = l.offset, l.line
}
