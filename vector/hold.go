// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vector

import (
	"github.com/db47h/netsim"
	"github.com/pkg/errors"
)

// ErrHoldConflict is returned by NewHoldSet when a pin is both held high and
// held low.
//
var ErrHoldConflict = errors.New("pin held both high and low")

// HoldSet is a set of input lines or bits forced to a constant value during
// random vector generation.
//
// Names can be line names ("addr") or bus bit names ("addr[3]"). A line name
// holds every bit of the line.
//
type HoldSet struct {
	high map[string]struct{}
	low  map[string]struct{}
}

// NewHoldSet returns a new HoldSet. It returns an error with cause
// ErrHoldConflict if a line or bit is held both high and low. A line name
// overlaps every bit name of the same line.
//
func NewHoldSet(high, low []string) (*HoldSet, error) {
	h := &HoldSet{
		high: make(map[string]struct{}, len(high)),
		low:  make(map[string]struct{}, len(low)),
	}
	// line name to held bits, -1 for the whole line
	highBits := make(map[string][]int)
	for _, n := range high {
		h.high[n] = struct{}{}
		base, bit := netsim.SplitBusPin(n)
		highBits[base] = append(highBits[base], bit)
	}
	for _, n := range low {
		base, bit := netsim.SplitBusPin(n)
		for _, hb := range highBits[base] {
			if hb == bit || hb < 0 || bit < 0 {
				return nil, errors.Wrap(ErrHoldConflict, n)
			}
		}
		h.low[n] = struct{}{}
	}
	return h, nil
}

// Len returns the number of held names.
//
func (h *HoldSet) Len() int {
	if h == nil {
		return 0
	}
	return len(h.high) + len(h.low)
}

// Lookup returns the value that the named line or bit is held at.
//
func (h *HoldSet) Lookup(name string) (netsim.Value, bool) {
	if h == nil {
		return netsim.U, false
	}
	if _, ok := h.high[name]; ok {
		return netsim.Hi, true
	}
	if _, ok := h.low[name]; ok {
		return netsim.Lo, true
	}
	return netsim.U, false
}

// Unknown returns the held names that match neither a line of ls nor a bit of
// one of its lines.
//
func (h *HoldSet) Unknown(ls *netsim.LineSet) []string {
	if h == nil {
		return nil
	}
	var out []string
	check := func(m map[string]struct{}) {
		for n := range m {
			base, idx := netsim.SplitBusPin(n)
			l, ok := ls.Lookup(base)
			if !ok || idx >= l.Width() {
				out = append(out, n)
			}
		}
	}
	check(h.high)
	check(h.low)
	return out
}

// apply overrides the held bits of line l in dst.
//
func (h *HoldSet) apply(l *netsim.Line, dst []netsim.Value) {
	if h.Len() == 0 {
		return
	}
	if v, ok := h.Lookup(l.Name); ok {
		for i := range dst {
			dst[i] = v
		}
		return
	}
	for i := range dst {
		if v, ok := h.Lookup(netsim.BusPinName(l.Name, i)); ok {
			dst[i] = v
		}
	}
}
