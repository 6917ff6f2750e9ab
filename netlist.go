// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

// NodeID identifies a node in a Netlist.
//
type NodeID int

// PinID identifies a pin in a Netlist.
//
type PinID int

// NoPin is the Driver of an input pin that is not driven by any output.
// Netlists returned by NewNetlist never contain such pins.
//
const NoPin PinID = -1

// NodeType is the kind of a node.
//
type NodeType uint8

// Node types.
//
const (
	TypeLogic     NodeType = iota // combinational primitive
	TypeInput                     // primary input bit
	TypeClock                     // primary input bit driven by a clock
	TypeOutput                    // primary output bit
	TypeGND                       // constant 0
	TypeVCC                       // constant 1
	TypePad                       // unconnected, constant X
	TypeRegister                  // clocked register
	TypeMemory                    // memory block
	TypeHardBlock                 // hard block (adders, multipliers)
)

var typeNames = [...]string{
	TypeLogic:     "logic",
	TypeInput:     "input",
	TypeClock:     "clock",
	TypeOutput:    "output",
	TypeGND:       "gnd",
	TypeVCC:       "vcc",
	TypePad:       "pad",
	TypeRegister:  "register",
	TypeMemory:    "memory",
	TypeHardBlock: "hard block",
}

func (t NodeType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Dir is a pin direction.
//
type Dir uint8

// Pin directions.
//
const (
	In Dir = iota
	Out
)

// Pin is a node input or output.
//
type Pin struct {
	ID   PinID
	Node NodeID
	Dir  Dir
	// Port is the pin name in the part's namespace (e.g. "a", "out[3]").
	Port string
	// Name is the net name for output pins, and node.port for input pins.
	Name string
	// Driver is the output pin driving an input pin.
	Driver PinID
	// Fanout lists the input pins driven by an output pin.
	Fanout []PinID
	// Sequential input pins are read at the previous cycle. Edges through
	// sequential pins do not constrain staging.
	Sequential bool
}

// Node is a gate or primitive in a Netlist.
//
type Node struct {
	ID      NodeID
	Name    string
	Type    NodeType
	Part    *PartSpec
	Inputs  []PinID
	Outputs []PinID
	// Ratio is the number of cycles between two evaluations of the node.
	Ratio int
	// Init is the value of the node's outputs before the first cycle.
	Init Value
}

// Netlist is an arena of nodes and pins addressed by stable indices.
//
// A Netlist is built by NewNetlist and is not modified by the simulator
// except for node clock ratios.
//
type Netlist struct {
	Name  string
	Nodes []Node
	Pins  []Pin
	// Primary input pins (outputs of TypeInput and TypeClock nodes), in
	// declaration order.
	PrimaryInputs []PinID
	// Primary output pins (inputs of TypeOutput nodes), in declaration
	// order.
	PrimaryOutputs []PinID

	GND, VCC, Pad NodeID
}

// Node returns the node with the given id.
//
func (nl *Netlist) Node(id NodeID) *Node { return &nl.Nodes[id] }

// Pin returns the pin with the given id.
//
func (nl *Netlist) Pin(id PinID) *Pin { return &nl.Pins[id] }

// Children returns the nodes directly driven by any output of node id, in
// pin order and without duplicates.
//
func (nl *Netlist) Children(id NodeID) []NodeID {
	var out []NodeID
	seen := make(map[NodeID]struct{})
	for i := range nl.Nodes[id].Outputs {
		out = nl.appendChildren(out, seen, id, i)
	}
	return out
}

// ChildrenOfPin returns the nodes driven by the output pin number out of node
// id.
//
func (nl *Netlist) ChildrenOfPin(id NodeID, out int) []NodeID {
	return nl.appendChildren(nil, make(map[NodeID]struct{}), id, out)
}

func (nl *Netlist) appendChildren(dst []NodeID, seen map[NodeID]struct{}, id NodeID, out int) []NodeID {
	for _, f := range nl.Pins[nl.Nodes[id].Outputs[out]].Fanout {
		c := nl.Pins[f].Node
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			dst = append(dst, c)
		}
	}
	return dst
}

// Parents returns the nodes driving any input of node id, in pin order and
// without duplicates.
//
func (nl *Netlist) Parents(id NodeID) []NodeID {
	var out []NodeID
	seen := make(map[NodeID]struct{})
	for _, p := range nl.Nodes[id].Inputs {
		d := nl.Pins[p].Driver
		if d == NoPin {
			continue
		}
		n := nl.Pins[d].Node
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// NumConnections returns the number of distinct parent to child node edges.
//
func (nl *Netlist) NumConnections() int {
	n := 0
	for i := range nl.Nodes {
		n += len(nl.Children(NodeID(i)))
	}
	return n
}
