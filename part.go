// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

// A Component evaluates a mounted node for the current cycle of a Circuit.
//
// A Component must read its inputs with Circuit.Get (or Circuit.Prev) and
// write every output of its node exactly once with Circuit.Set. Components of
// the same stage run concurrently: they must not touch pins other than their
// own, and any state they keep must be private to the node.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query the socket
// for assigned pin numbers and return a closure around these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name:    "Not",
//		Inputs:  []string{"in"},
//		Outputs: []string{"out"},
//		Mount: func(s *Socket) Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return func(c *Circuit) { c.Set(out, Not(c.Get(in))) }
//		}}
//
// MountFn is called once per node each time a Circuit is created from a
// Netlist, so that part state (memory contents) is not shared between
// circuits.
//
type MountFn func(s *Socket) Component

// A PartSpec wraps a part specification (its blueprint).
//
type PartSpec struct {
	// Part name.
	Name string
	// Node type of instances of this part. Defaults to TypeLogic.
	Type NodeType
	// Input pin names. Must be distinct pin names.
	// Use the ParseIOSpec() function to expand an input description like
	// "a, b, bus[2]" to []string{"a", "b", "bus[0]", "bus[1]"}.
	Inputs []string
	// Output pin names. Must be distinct pin names.
	Outputs []string
	// Sequential lists the input pins read at the previous cycle (register
	// data inputs, memory write ports).
	Sequential []string
	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart returns a Part that wraps p with the given connections.
// See ParseConnections for the syntax of the connection string.
//
// NewPart panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	cs, err := ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	return Part{PartSpec: p, Conns: cs}
}

// A NewPartFn is a function that takes a connection configuration and returns
// a new Part.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a
// netlist.
//
type Part struct {
	*PartSpec
	Conns []Connection
	// Instance name. If empty, NewNetlist generates one.
	Name string
	// Clock ratio. 0 means 1.
	Ratio int
	// Output value before the first evaluation. U means X.
	Init Value
}

// Named returns a copy of p with the given instance name.
//
func (p Part) Named(name string) Part { p.Name = name; return p }

// WithRatio returns a copy of p with the given clock ratio.
//
func (p Part) WithRatio(r int) Part { p.Ratio = r; return p }

// WithInit returns a copy of p with the given initial output value.
//
func (p Part) WithInit(v Value) Part { p.Init = v; return p }

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// A Socket maps a part's pin names to pin numbers in a netlist.
//
type Socket struct {
	m    map[string]PinID
	node *Node
}

func newSocket(nl *Netlist, n *Node) *Socket {
	s := &Socket{m: make(map[string]PinID, len(n.Inputs)+len(n.Outputs)), node: n}
	for _, p := range n.Inputs {
		s.m[nl.Pins[p].Port] = p
	}
	for _, p := range n.Outputs {
		s.m[nl.Pins[p].Port] = p
	}
	return s
}

// Node returns the node being mounted. MountFns may use it to read the node's
// initial value or name. The node must not be modified.
//
func (s *Socket) Node() *Node { return s.node }

// Pin returns the pin number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) PinID {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// Bus returns the pin numbers allocated to the given bus name.
// This function panics if the bus has less than bits pins.
//
func (s *Socket) Bus(name string, bits int) []PinID {
	out := make([]PinID, bits)
	for i := range out {
		out[i] = s.Pin(BusPinName(name, i))
	}
	return out
}
