// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import "github.com/pkg/errors"

// Value is a logic value.
//
type Value uint8

// Logic values. The zero Value is U, the value of a pin that has never been
// written.
//
const (
	U  Value = iota // uninitialized
	Lo              // logic 0
	Hi              // logic 1
	X               // unknown or don't care
)

var valueRunes = [...]rune{U: 'u', Lo: '0', Hi: '1', X: 'x'}

// Rune returns the character used to represent v in vector files.
//
func (v Value) Rune() rune {
	if int(v) < len(valueRunes) {
		return valueRunes[v]
	}
	return '?'
}

func (v Value) String() string { return string(v.Rune()) }

// Known returns true if v is either Lo or Hi.
//
func (v Value) Known() bool { return v == Lo || v == Hi }

// ParseValue returns the Value represented by r.
// Accepted characters are 0, 1, x, X, - (don't care) and u, U.
//
func ParseValue(r rune) (Value, error) {
	switch r {
	case '0':
		return Lo, nil
	case '1':
		return Hi, nil
	case 'x', 'X', '-':
		return X, nil
	case 'u', 'U':
		return U, nil
	}
	return U, errors.Errorf("invalid logic value %q", r)
}

// FromBool converts a bool to Lo or Hi.
//
func FromBool(b bool) Value {
	if b {
		return Hi
	}
	return Lo
}

// Not returns the complement of v. Unknown values stay unknown.
//
func Not(v Value) Value {
	switch v {
	case Lo:
		return Hi
	case Hi:
		return Lo
	}
	return X
}

// And returns a AND b. Lo dominates unknown values.
//
func And(a, b Value) Value {
	switch {
	case a == Lo || b == Lo:
		return Lo
	case a == Hi && b == Hi:
		return Hi
	}
	return X
}

// Or returns a OR b. Hi dominates unknown values.
//
func Or(a, b Value) Value {
	switch {
	case a == Hi || b == Hi:
		return Hi
	case a == Lo && b == Lo:
		return Lo
	}
	return X
}

// Xor returns a XOR b.
//
func Xor(a, b Value) Value {
	if !a.Known() || !b.Known() {
		return X
	}
	return FromBool(a != b)
}

// Mux returns a if sel is Lo, b if sel is Hi. If sel is unknown, the result is
// known only if a == b.
//
func Mux(sel, a, b Value) Value {
	switch sel {
	case Lo:
		return known(a)
	case Hi:
		return known(b)
	}
	if a == b && a.Known() {
		return a
	}
	return X
}

func known(v Value) Value {
	if v == U {
		return X
	}
	return v
}
