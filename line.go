// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import "sort"

// Line is a named primary input or output signal, possibly a bus.
//
type Line struct {
	Name string
	// Pins are the primary input or output pins of the line, bit 0 first.
	Pins []PinID
	// Clock is true for input lines driven by a clock.
	Clock bool
}

// Width returns the line's bit count.
//
func (l *Line) Width() int { return len(l.Pins) }

// LineSet is an ordered set of lines with O(1) lookup by name.
//
type LineSet struct {
	lines []*Line
	index map[string]int
}

// NewLineSet returns a LineSet for the given lines. Line names must be unique.
//
func NewLineSet(lines ...*Line) *LineSet {
	s := &LineSet{lines: lines, index: make(map[string]int, len(lines))}
	for i, l := range lines {
		s.index[l.Name] = i
	}
	return s
}

// Len returns the number of lines in the set.
//
func (s *LineSet) Len() int { return len(s.lines) }

// Line returns the i-th line.
//
func (s *LineSet) Line(i int) *Line { return s.lines[i] }

// Lines returns all lines in order. The returned slice must not be modified.
//
func (s *LineSet) Lines() []*Line { return s.lines }

// Index returns the position of the named line, or -1.
//
func (s *LineSet) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Lookup returns the named line.
//
func (s *LineSet) Lookup(name string) (*Line, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.lines[i], true
}

// Names returns the line names in order.
//
func (s *LineSet) Names() []string {
	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.Name
	}
	return out
}

// Alloc returns a value buffer with one slice per line, sized to the line's
// width.
//
func (s *LineSet) Alloc() [][]Value {
	out := make([][]Value, len(s.lines))
	for i, l := range s.lines {
		out[i] = make([]Value, len(l.Pins))
	}
	return out
}

// InputLines groups the primary inputs of nl into lines.
//
func (nl *Netlist) InputLines() *LineSet {
	return nl.lines(nl.PrimaryInputs)
}

// OutputLines groups the primary outputs of nl into lines.
//
func (nl *Netlist) OutputLines() *LineSet {
	return nl.lines(nl.PrimaryOutputs)
}

func (nl *Netlist) lines(pins []PinID) *LineSet {
	type bit struct {
		pin PinID
		n   int
	}
	var (
		order []string
		bits  = make(map[string][]bit)
		clock = make(map[string]bool)
	)
	for _, p := range pins {
		node := &nl.Nodes[nl.Pins[p].Node]
		name, n := SplitBusPin(node.Name)
		if _, ok := bits[name]; !ok {
			order = append(order, name)
		}
		bits[name] = append(bits[name], bit{p, n})
		if node.Type == TypeClock {
			clock[name] = true
		}
	}
	lines := make([]*Line, len(order))
	for i, name := range order {
		bs := bits[name]
		sort.SliceStable(bs, func(i, j int) bool { return bs[i].n < bs[j].n })
		l := &Line{Name: name, Pins: make([]PinID, len(bs)), Clock: clock[name]}
		for j, b := range bs {
			l.Pins[j] = b.pin
		}
		lines[i] = l
	}
	return NewLineSet(lines...)
}
