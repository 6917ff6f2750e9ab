// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/netsim"
)

// Mux returns a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(w string) netsim.Part { return mux.NewPart(w) }

var mux = &netsim.PartSpec{
	Name:    "MUX",
	Inputs:  []string{pA, pB, pSel},
	Outputs: []string{pOut},
	Mount: func(s *netsim.Socket) netsim.Component {
		a, b, sel, out := s.Pin(pA), s.Pin(pB), s.Pin(pSel), s.Pin(pOut)
		return func(c *netsim.Circuit) {
			c.Set(out, netsim.Mux(c.Get(sel), c.Get(a), c.Get(b)))
		}
	},
}

// DMux returns a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(w string) netsim.Part { return dmux.NewPart(w) }

var dmux = &netsim.PartSpec{
	Name:    "DMUX",
	Inputs:  []string{pIn, pSel},
	Outputs: []string{pA, pB},
	Mount: func(s *netsim.Socket) netsim.Component {
		in, sel, a, b := s.Pin(pIn), s.Pin(pSel), s.Pin(pA), s.Pin(pB)
		return func(c *netsim.Circuit) {
			v, sv := c.Get(in), c.Get(sel)
			c.Set(a, netsim.And(v, netsim.Not(sv)))
			c.Set(b, netsim.And(v, sv))
		}
	},
}

// SpecMuxN returns a PartSpec for an n-bits Mux
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: for i := range out { if sel == 0 { out[i] = a[i] } else { out[i] = b[i] } }
//
func SpecMuxN(bits int) *netsim.PartSpec {
	return &netsim.PartSpec{
		Name:    "MUX" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pA, pB), pSel),
		Outputs: bus(bits, pOut),
		Mount: func(s *netsim.Socket) netsim.Component {
			a, b, sel := s.Bus(pA, bits), s.Bus(pB, bits), s.Pin(pSel)
			o := s.Bus(pOut, bits)
			return func(c *netsim.Circuit) {
				sv := c.Get(sel)
				for i := range o {
					c.Set(o[i], netsim.Mux(sv, c.Get(a[i]), c.Get(b[i])))
				}
			}
		}}
}

// MuxN returns a N-bits Mux.
//
func MuxN(bits int) netsim.NewPartFn {
	return SpecMuxN(bits).NewPart
}
