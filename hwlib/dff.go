// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/netsim"
)

var dff = &netsim.PartSpec{
	Name:       "DFF",
	Type:       netsim.TypeRegister,
	Inputs:     []string{pIn},
	Outputs:    []string{pOut},
	Sequential: []string{pIn},
	Mount: func(s *netsim.Socket) netsim.Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		return func(c *netsim.Circuit) {
			if c.Cycle() == 0 {
				c.Set(out, c.Prev(out))
				return
			}
			c.Set(out, c.Get(in))
		}
	}}

// DFF returns a data flip flop.
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current cycle.
//
// The output at cycle 0 is the part's initial value (X unless set with
// Part.WithInit). With a clock ratio r > 1, the flip flop only latches every
// r cycles and holds its output in between.
//
func DFF(w string) netsim.Part { return dff.NewPart(w) }

var edgeDFF = &netsim.PartSpec{
	Name:       "EdgeDFF",
	Type:       netsim.TypeRegister,
	Inputs:     []string{pIn, pClk},
	Outputs:    []string{pOut},
	Sequential: []string{pIn},
	Mount: func(s *netsim.Socket) netsim.Component {
		in, clk, out := s.Pin(pIn), s.Pin(pClk), s.Pin(pOut)
		return func(c *netsim.Circuit) {
			if c.Rising(clk) {
				c.Set(out, c.Get(in))
				return
			}
			c.Set(out, c.Prev(out))
		}
	}}

// EdgeDFF returns a positive edge triggered data flip flop.
//
//	Inputs: in, clk
//	Outputs: out
//	Function: if clk(t-1) == 0 && clk(t) == 1 { out(t) = in(t-1) } else { out(t) = out(t-1) }
//
func EdgeDFF(w string) netsim.Part { return edgeDFF.NewPart(w) }

// SpecRegisterN returns the PartSpec of a N-bits register with load enable.
//
func SpecRegisterN(bits int) *netsim.PartSpec {
	return &netsim.PartSpec{
		Name:       "Register" + strconv.Itoa(bits),
		Type:       netsim.TypeRegister,
		Inputs:     append(bus(bits, pIn), "load"),
		Outputs:    bus(bits, pOut),
		Sequential: append(bus(bits, pIn), "load"),
		Mount: func(s *netsim.Socket) netsim.Component {
			in, load, out := s.Bus(pIn, bits), s.Pin("load"), s.Bus(pOut, bits)
			return func(c *netsim.Circuit) {
				if c.Cycle() == 0 {
					for _, o := range out {
						c.Set(o, c.Prev(o))
					}
					return
				}
				ld := c.Get(load)
				for i, o := range out {
					c.Set(o, netsim.Mux(ld, c.Prev(o), c.Get(in[i])))
				}
			}
		}}
}

// RegisterN returns a N-bits register.
//
//	Inputs: in[bits], load
//	Outputs: out[bits]
//	Function: if load(t-1) { out(t) = in(t-1) } else { out(t) = out(t-1) }
//
func RegisterN(bits int) netsim.NewPartFn {
	return SpecRegisterN(bits).NewPart
}
