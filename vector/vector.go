// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vector provides test vector sources for netsim circuits.
//
// A Source produces one value per primary input bit per cycle. Vectors can be
// replayed from a file (see NewReader) or generated at random (see
// NewRandom), in which case individual lines can be held at a constant value
// and clock lines oscillate at their own period.
//
package vector

import (
	"strings"

	"github.com/db47h/netsim"
	"github.com/pkg/errors"
)

// A Source produces test vectors.
//
type Source interface {
	// Next fills dst with the input values for the given cycle. dst has one
	// slice per input line, sized to the line width. Next returns io.EOF
	// when the source is exhausted.
	Next(cycle int64, dst [][]netsim.Value) error
	// Close releases any resources held by the source.
	Close() error
}

// Encode returns the textual representation of a line value. Single bits are
// written as 0, 1 or x. Buses are written in hex with a 0x prefix if all
// their bits are known, in binary (msb first) otherwise.
//
func Encode(v []netsim.Value) string {
	if len(v) == 1 {
		return v[0].String()
	}
	var b strings.Builder
	for _, bv := range v {
		if !bv.Known() {
			for i := len(v) - 1; i >= 0; i-- {
				r := v[i].Rune()
				if r == 'u' {
					r = 'x'
				}
				b.WriteRune(r)
			}
			return b.String()
		}
	}
	b.WriteString("0x")
	for d := (len(v)+3)/4 - 1; d >= 0; d-- {
		var n int
		for i := 0; i < 4; i++ {
			if bit := d*4 + i; bit < len(v) && v[bit] == netsim.Hi {
				n |= 1 << uint(i)
			}
		}
		b.WriteByte("0123456789abcdef"[n])
	}
	return b.String()
}

// Decode parses a line value as written by Encode into dst. len(dst) is the
// line width.
//
// Binary values must have exactly len(dst) digits. Hex values may have
// leading zero digits but must not overflow the line width.
//
func Decode(s string, dst []netsim.Value) error {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return decodeHex(s[2:], dst)
	}
	if len(s) != len(dst) {
		return errors.Errorf("value %q: got %d bits, expected %d", s, len(s), len(dst))
	}
	for i, r := range s {
		v, err := netsim.ParseValue(r)
		if err != nil {
			return errors.Wrapf(err, "value %q", s)
		}
		dst[len(dst)-1-i] = v
	}
	return nil
}

func decodeHex(s string, dst []netsim.Value) error {
	for i := range dst {
		dst[i] = netsim.Lo
	}
	for i := 0; i < len(s); i++ {
		d := len(s) - 1 - i // digit index, lsd first
		var n int
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			n = int(c - '0')
		case c >= 'a' && c <= 'f':
			n = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n = int(c-'A') + 10
		case c == 'x' || c == 'X':
			for b := 0; b < 4 && d*4+b < len(dst); b++ {
				dst[d*4+b] = netsim.X
			}
			continue
		default:
			return errors.Errorf("value 0x%s: invalid hex digit %q", s, c)
		}
		for b := 0; b < 4; b++ {
			bit := d*4 + b
			set := n&(1<<uint(b)) != 0
			if bit >= len(dst) {
				if set {
					return errors.Errorf("value 0x%s overflows %d bits", s, len(dst))
				}
				continue
			}
			dst[bit] = netsim.FromBool(set)
		}
	}
	return nil
}
