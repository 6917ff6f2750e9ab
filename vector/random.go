// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vector

import (
	"io"
	"math/rand"

	"github.com/db47h/netsim"
	"github.com/pkg/errors"
)

// Random is a Source of pseudo-random vectors.
//
// Held lines and bits are set to their constant value every cycle. Clock
// lines are neither random nor held: they start Lo and toggle every ratio
// cycles, ratio being their clock ratio (1 by default).
//
type Random struct {
	lines  *netsim.LineSet
	holds  *HoldSet
	rnd    *rand.Rand
	ratios []int
	bits   uint64
	avail  uint
}

// NewRandom returns a new random vector source for the given input lines.
// holds may be nil. Two sources with the same lines, holds and seed produce
// the same vectors.
//
func NewRandom(lines *netsim.LineSet, holds *HoldSet, seed int64) *Random {
	r := &Random{
		lines:  lines,
		holds:  holds,
		rnd:    rand.New(rand.NewSource(seed)),
		ratios: make([]int, lines.Len()),
	}
	for i := range r.ratios {
		r.ratios[i] = 1
	}
	return r
}

// SetClockRatio sets the half period, in cycles, of the named clock line.
//
func (r *Random) SetClockRatio(name string, ratio int) error {
	i := r.lines.Index(name)
	if i < 0 || !r.lines.Line(i).Clock {
		return errors.Errorf("no clock line named %s", name)
	}
	if ratio < 1 {
		return errors.Errorf("invalid clock ratio %d for %s", ratio, name)
	}
	r.ratios[i] = ratio
	return nil
}

func (r *Random) bit() netsim.Value {
	if r.avail == 0 {
		r.bits = uint64(r.rnd.Int63())
		r.avail = 63
	}
	v := netsim.FromBool(r.bits&1 != 0)
	r.bits >>= 1
	r.avail--
	return v
}

// Next implements Source. It never returns io.EOF.
//
func (r *Random) Next(cycle int64, dst [][]netsim.Value) error {
	if len(dst) != r.lines.Len() {
		return errors.Errorf("got %d lines, expected %d", len(dst), r.lines.Len())
	}
	for i, l := range r.lines.Lines() {
		v := dst[i]
		if l.Clock {
			c := netsim.FromBool((cycle/int64(r.ratios[i]))%2 != 0)
			for j := range v {
				v[j] = c
			}
			continue
		}
		for j := range v {
			v[j] = r.bit()
		}
		r.holds.apply(l, v)
	}
	return nil
}

// Close implements Source.
//
func (r *Random) Close() error { return nil }

// Limit returns a Source that returns io.EOF once n vectors have been read
// from src.
//
func Limit(src Source, n int64) Source {
	return &limited{src, n}
}

type limited struct {
	Source
	n int64
}

func (l *limited) Next(cycle int64, dst [][]netsim.Value) error {
	if l.n <= 0 {
		return io.EOF
	}
	l.n--
	return l.Source.Next(cycle, dst)
}
