// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import (
	"strconv"
	"strings"

	"github.com/db47h/netsim/internal/hdl"
	"github.com/pkg/errors"
)

// BusPinName returns the pin name for the n-th bit of the given bus.
//
func BusPinName(bus string, bit int) string {
	return bus + "[" + strconv.Itoa(bit) + "]"
}

// SplitBusPin splits a pin name like "bus[3]" into its bus name and bit
// number. For plain pin names, it returns the name and -1.
//
func SplitBusPin(name string) (string, int) {
	i := strings.IndexByte(name, '[')
	if i <= 0 || !strings.HasSuffix(name, "]") {
		return name, -1
	}
	n, err := strconv.Atoi(name[i+1 : len(name)-1])
	if err != nil || n < 0 {
		return name, -1
	}
	return name[:i], n
}

// ParseIOSpec parses the pin specification string and returns individual pin
// names in a slice, also expanding bus declarations to individual pin names.
// For example:
//
//	ParseIOSpec("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
func ParseIOSpec(names string) ([]string, error) {
	var out []string
	p := hdl.Parser{Input: names}
	for {
		v, err := p.Next(false)
		if err != nil {
			return nil, err
		}
		switch pin := v.(type) {
		case nil:
			return out, nil
		case hdl.Pin:
			out = append(out, pin.Name)
		case hdl.PinIndex:
			if pin.Index < 1 {
				return nil, errors.Errorf("in %q at pos %d: invalid bus size %d", names, pin.Pos+1, pin.Index)
			}
			for i := 0; i < pin.Index; i++ {
				out = append(out, BusPinName(pin.Name, i))
			}
		case hdl.PinRange:
			return nil, errors.Errorf("in %q at pos %d: unexpected range in pin specification", names, pin.Pos+1)
		}
	}
}

// A Connection represents a connection between the pin PP of a part and the
// net CP in its netlist.
//
type Connection struct {
	PP string
	CP string
}

// ParseConnections parses a connection configuration like "partPin1=net1,
// partPin2=net2". Bus ranges are expanded:
//
//	"a[0..1]=x[2..3]"  // a[0]=x[2], a[1]=x[3]
//	"a[0..3]=false"    // connects a[0] to a[3] to net false
//
func ParseConnections(c string) ([]Connection, error) {
	var conns []Connection
	p := hdl.Parser{Input: c}
	for {
		v, err := p.Next(true)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return conns, nil
		}
		pa, ok := v.(hdl.PinAssignment)
		if !ok {
			return nil, errors.Errorf("in %q: missing net for pin %s", c, pinNames(v)[0])
		}
		ks, vs := pinNames(pa.LHS), pinNames(pa.RHS)
		switch {
		case len(ks) == len(vs):
			for i := range ks {
				conns = append(conns, Connection{ks[i], vs[i]})
			}
		case len(vs) == 1:
			for _, k := range ks {
				conns = append(conns, Connection{k, vs[0]})
			}
		default:
			return nil, errors.Errorf("in %q: pin count mismatch in connection %s=%s", c, ks[0], vs[0])
		}
	}
}

func pinNames(v interface{}) []string {
	switch p := v.(type) {
	case hdl.Pin:
		return []string{p.Name}
	case hdl.PinIndex:
		return []string{BusPinName(p.Name, p.Index)}
	case hdl.PinRange:
		step := 1
		if p.End < p.Start {
			step = -1
		}
		var out []string
		for i := p.Start; ; i += step {
			out = append(out, BusPinName(p.Name, i))
			if i == p.End {
				break
			}
		}
		return out
	}
	panic("unexpected pin type")
}
