// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

// Activity accumulates per-net switching statistics over all simulated
// cycles. It keeps running counters only, no value history.
//
// Every net is considered to hold X before the first cycle, and any change of
// value between two consecutive cycles counts as a transition, including
// changes from or to X.
//
type Activity struct {
	nets        []PinID
	names       []string
	index       map[string]int
	transitions []int64
	ones        []int64
	last        []Value
	cycles      int64
}

func newActivity(nl *Netlist) *Activity {
	a := &Activity{index: make(map[string]int)}
	for i := range nl.Nodes {
		n := &nl.Nodes[i]
		switch n.Type {
		case TypeGND, TypeVCC, TypePad:
			continue
		}
		for _, p := range n.Outputs {
			a.index[nl.Pins[p].Name] = len(a.nets)
			a.nets = append(a.nets, p)
			a.names = append(a.names, nl.Pins[p].Name)
		}
	}
	a.transitions = make([]int64, len(a.nets))
	a.ones = make([]int64, len(a.nets))
	a.last = make([]Value, len(a.nets))
	for i := range a.last {
		a.last[i] = X
	}
	return a
}

func (a *Activity) observe(s *Store, cycle int64) {
	for i, p := range a.nets {
		v, _ := s.get(p, cycle)
		if v != a.last[i] {
			a.transitions[i]++
			a.last[i] = v
		}
		if v == Hi {
			a.ones[i]++
		}
	}
	a.cycles++
}

// Len returns the number of nets.
//
func (a *Activity) Len() int { return len(a.nets) }

// Cycles returns the number of observed cycles.
//
func (a *Activity) Cycles() int64 { return a.cycles }

// Name returns the name of the i-th net.
//
func (a *Activity) Name(i int) string { return a.names[i] }

// Lookup returns the index of the named net.
//
func (a *Activity) Lookup(name string) (int, bool) {
	i, ok := a.index[name]
	return i, ok
}

// Transitions returns the number of value changes of the i-th net.
//
func (a *Activity) Transitions(i int) int64 { return a.transitions[i] }

// Switching returns the average switching activity of the i-th net: its
// transition count divided by the number of cycles.
//
func (a *Activity) Switching(i int) float64 {
	if a.cycles == 0 {
		return 0
	}
	return float64(a.transitions[i]) / float64(a.cycles)
}

// Probability returns the static probability of the i-th net: the fraction of
// cycles where it was Hi.
//
func (a *Activity) Probability(i int) float64 {
	if a.cycles == 0 {
		return 0
	}
	return float64(a.ones[i]) / float64(a.cycles)
}
