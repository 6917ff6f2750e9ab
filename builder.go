// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// Constant net names. Input pins connected to one of these nets are driven by
// the netlist's GND, VCC or Pad node. Part inputs left unconnected are
// connected to Unconnected.
//
var (
	True        = "true"
	False       = "false"
	GND         = "gnd"
	VCC         = "vcc"
	Unconnected = "pad"
)

func constSpec(name string, t NodeType, v Value) *PartSpec {
	return &PartSpec{
		Name:    name,
		Type:    t,
		Outputs: []string{"out"},
		Mount: func(s *Socket) Component {
			out := s.Pin("out")
			return func(c *Circuit) { c.Set(out, v) }
		},
	}
}

var (
	gndSpec = constSpec("GND", TypeGND, Lo)
	vccSpec = constSpec("VCC", TypeVCC, Hi)
	padSpec = constSpec("PAD", TypePad, X)
)

// IO describes the primary inputs and outputs of a netlist as pin
// specification strings (see ParseIOSpec). Clocks are primary inputs driven
// by a clock signal rather than test vectors.
//
type IO struct {
	In     string
	Clocks string
	Out    string
}

type pending struct {
	pin PinID
	net string
}

type builder struct {
	nl     *Netlist
	nets   map[string]PinID // net name to driving output pin
	names  map[string]struct{}
	inputs []pending
}

// NewNetlist builds a netlist from the given parts. Nets are identified by
// name: a part output pin drives the net it is connected to, and part input
// pins read from the net they are connected to.
//
// An And gate driving primary output c from primary inputs a and b:
//
//	nl, err := NewNetlist("and", IO{In: "a, b", Out: "c"},
//		hwlib.And("a=a, b=b, out=c"))
//
// A connection between a whole part bus and a net, like "a=x" where a is a
// bus of the part, connects every bit a[i] to net x[i].
//
// Primary inputs and outputs share the node namespace: an output cannot have
// the name of an input, so a primary input cannot be wired straight to a
// primary output. Use a Buf part instead.
//
// NewNetlist returns an error if a net is driven by more than one output, if
// an input pin is connected to a net that is not driven by any output, or if a
// part pin name is invalid.
//
func NewNetlist(name string, io IO, parts ...Part) (*Netlist, error) {
	ins, err := ParseIOSpec(io.In)
	if err != nil {
		return nil, errors.Wrap(err, "parse inputs")
	}
	clks, err := ParseIOSpec(io.Clocks)
	if err != nil {
		return nil, errors.Wrap(err, "parse clocks")
	}
	outs, err := ParseIOSpec(io.Out)
	if err != nil {
		return nil, errors.Wrap(err, "parse outputs")
	}

	b := &builder{
		nl:    &Netlist{Name: name},
		nets:  make(map[string]PinID),
		names: make(map[string]struct{}),
	}
	b.nl.GND = b.constant(gndSpec, Lo, False, GND)
	b.nl.VCC = b.constant(vccSpec, Hi, True, VCC)
	b.nl.Pad = b.constant(padSpec, X, Unconnected)

	for _, n := range ins {
		if err = b.input(n, TypeInput); err != nil {
			return nil, err
		}
	}
	for _, n := range clks {
		if err = b.input(n, TypeClock); err != nil {
			return nil, err
		}
	}
	for i, p := range parts {
		if err = b.part(i, p); err != nil {
			return nil, err
		}
	}
	for _, in := range b.inputs {
		d := b.pinOf(b.nl.Pad)
		if in.net != "" {
			var ok bool
			if d, ok = b.nets[in.net]; !ok {
				return nil, errors.New("pin " + in.net + " not connected to any output")
			}
		}
		b.connect(d, in.pin)
	}
	for _, n := range outs {
		if err = b.output(n); err != nil {
			return nil, err
		}
	}
	return b.nl, nil
}

func (b *builder) pinOf(n NodeID) PinID { return b.nl.Nodes[n].Outputs[0] }

func (b *builder) connect(driver, in PinID) {
	b.nl.Pins[in].Driver = driver
	b.nl.Pins[driver].Fanout = append(b.nl.Pins[driver].Fanout, in)
}

func (b *builder) addNode(name string, t NodeType, sp *PartSpec, ratio int, init Value) (*Node, error) {
	if _, ok := b.names[name]; ok {
		return nil, errors.New("duplicate node name " + name)
	}
	b.names[name] = struct{}{}
	if ratio < 1 {
		ratio = 1
	}
	if init == U {
		init = X
	}
	id := NodeID(len(b.nl.Nodes))
	b.nl.Nodes = append(b.nl.Nodes, Node{ID: id, Name: name, Type: t, Part: sp, Ratio: ratio, Init: init})
	return &b.nl.Nodes[id], nil
}

func (b *builder) addPin(n *Node, dir Dir, port, name string) PinID {
	id := PinID(len(b.nl.Pins))
	b.nl.Pins = append(b.nl.Pins, Pin{ID: id, Node: n.ID, Dir: dir, Port: port, Name: name, Driver: NoPin})
	if dir == In {
		n.Inputs = append(n.Inputs, id)
	} else {
		n.Outputs = append(n.Outputs, id)
	}
	return id
}

func (b *builder) constant(sp *PartSpec, v Value, nets ...string) NodeID {
	n, _ := b.addNode(sp.Name, sp.Type, sp, 1, v)
	p := b.addPin(n, Out, "out", nets[0])
	for _, net := range nets {
		b.nets[net] = p
	}
	return n.ID
}

func isConstNet(net string) bool {
	switch net {
	case True, False, GND, VCC, Unconnected:
		return true
	}
	return false
}

func (b *builder) input(name string, t NodeType) error {
	if isConstNet(name) {
		return errors.New("input pin " + name + " shadows a constant")
	}
	if _, ok := b.nets[name]; ok {
		return errors.New("duplicate input pin " + name)
	}
	n, err := b.addNode(name, t, nil, 1, X)
	if err != nil {
		return err
	}
	p := b.addPin(n, Out, "out", name)
	b.nets[name] = p
	b.nl.PrimaryInputs = append(b.nl.PrimaryInputs, p)
	return nil
}

func (b *builder) output(name string) error {
	d, ok := b.nets[name]
	if !ok {
		return errors.New("output pin " + name + " not connected to any output")
	}
	if t := b.nl.Nodes[b.nl.Pins[d].Node].Type; t == TypeInput || t == TypeClock {
		return errors.New("output pin " + name + " has the same name as an input pin")
	}
	n, err := b.addNode(name, TypeOutput, nil, 1, X)
	if err != nil {
		return errors.Wrap(err, "output pin "+name)
	}
	p := b.addPin(n, In, "in", name)
	b.connect(d, p)
	b.nl.PrimaryOutputs = append(b.nl.PrimaryOutputs, p)
	return nil
}

func (b *builder) part(i int, p Part) error {
	sp := p.PartSpec
	if sp == nil {
		return errors.Errorf("part #%d has no specification", i)
	}
	conns := make(map[string]string, len(p.Conns))
	ports := make(map[string]bool, len(sp.Inputs)+len(sp.Outputs))
	for _, in := range sp.Inputs {
		ports[in] = true
	}
	for _, out := range sp.Outputs {
		ports[out] = true
	}
	for _, c := range expandBuses(p.Conns, ports) {
		if !ports[c.PP] {
			return errors.New("invalid pin name " + c.PP + " for part " + sp.Name)
		}
		if _, ok := conns[c.PP]; ok {
			return errors.New("pin " + c.PP + " of part " + sp.Name + " connected more than once")
		}
		conns[c.PP] = c.CP
	}
	seq := make(map[string]bool, len(sp.Sequential))
	for _, s := range sp.Sequential {
		seq[s] = true
	}

	name := p.Name
	if name == "" {
		name = sp.Name + "_" + strconv.Itoa(i)
	}
	n, err := b.addNode(name, sp.Type, sp, p.Ratio, p.Init)
	if err != nil {
		return err
	}
	for _, port := range sp.Inputs {
		pin := b.addPin(n, In, port, name+"."+port)
		b.nl.Pins[pin].Sequential = seq[port]
		b.inputs = append(b.inputs, pending{pin, conns[port]})
	}
	for _, port := range sp.Outputs {
		net := conns[port]
		if net == "" {
			net = name + "." + port
		}
		if isConstNet(net) {
			return errors.New(sp.Name + "." + port + ":" + net + ": output pin connected to constant " + net + " input")
		}
		if d, ok := b.nets[net]; ok {
			if t := b.nl.Nodes[b.nl.Pins[d].Node].Type; t == TypeInput || t == TypeClock {
				return errors.New(sp.Name + "." + port + ":" + net + ": chip input pin used as output")
			}
			return errors.New(sp.Name + "." + port + ":" + net + ": output pin already used as output")
		}
		b.nets[net] = b.addPin(n, Out, port, net)
	}
	return nil
}

// expandBuses expands connections of whole buses like "a=x", where a is a bus
// of the part, to "a[0]=x[0], a[1]=x[1], ...". Constant nets are connected to
// every bit.
//
func expandBuses(conns []Connection, ports map[string]bool) []Connection {
	var out []Connection
	for i, c := range conns {
		if ports[c.PP] || !ports[BusPinName(c.PP, 0)] {
			if out != nil {
				out = append(out, c)
			}
			continue
		}
		if out == nil {
			out = append(make([]Connection, 0, len(conns)), conns[:i]...)
		}
		for bit := 0; ports[BusPinName(c.PP, bit)]; bit++ {
			net := c.CP
			if !isConstNet(net) {
				net = BusPinName(net, bit)
			}
			out = append(out, Connection{BusPinName(c.PP, bit), net})
		}
	}
	if out == nil {
		return conns
	}
	return out
}
