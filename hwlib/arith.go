// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/netsim"
)

var hAdder = &netsim.PartSpec{
	Name:    "HalfAdder",
	Type:    netsim.TypeHardBlock,
	Inputs:  []string{pA, pB},
	Outputs: []string{"s", "c"},
	Mount: func(s *netsim.Socket) netsim.Component {
		a, b := s.Pin(pA), s.Pin(pB)
		sum, cout := s.Pin("s"), s.Pin("c")
		return func(c *netsim.Circuit) {
			va, vb := c.Get(a), c.Get(b)
			c.Set(sum, netsim.Xor(va, vb))
			c.Set(cout, netsim.And(va, vb))
		}
	}}

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(c string) netsim.Part {
	return hAdder.NewPart(c)
}

var adder = &netsim.PartSpec{
	Name:    "FullAdder",
	Type:    netsim.TypeHardBlock,
	Inputs:  []string{pA, pB, "cin"},
	Outputs: []string{"s", "cout"},
	Mount: func(s *netsim.Socket) netsim.Component {
		a, b, cin := s.Pin(pA), s.Pin(pB), s.Pin("cin")
		sum, cout := s.Pin("s"), s.Pin("cout")
		return func(c *netsim.Circuit) {
			va, vb, vc := c.Get(a), c.Get(b), c.Get(cin)
			s := netsim.Xor(va, vb)
			c.Set(sum, netsim.Xor(s, vc))
			c.Set(cout, netsim.Or(netsim.And(s, vc), netsim.And(va, vb)))
		}
	}}

// FullAdder returns a 3 bit adder.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(c string) netsim.Part {
	return adder.NewPart(c)
}

// SpecAdderN returns the PartSpec of a N-bits adder.
//
func SpecAdderN(bits int) *netsim.PartSpec {
	return &netsim.PartSpec{
		Name:    "Adder" + strconv.Itoa(bits),
		Type:    netsim.TypeHardBlock,
		Inputs:  bus(bits, pA, pB),
		Outputs: append(bus(bits, pOut), "c"),
		Mount: func(s *netsim.Socket) netsim.Component {
			a, b := s.Bus(pA, bits), s.Bus(pB, bits)
			out, cout := s.Bus(pOut, bits), s.Pin("c")
			return func(c *netsim.Circuit) {
				cc := netsim.Lo
				for i, o := range out {
					va, vb := c.Get(a[i]), c.Get(b[i])
					s0 := netsim.Xor(va, vb)
					c.Set(o, netsim.Xor(s0, cc))
					cc = netsim.Or(netsim.And(va, vb), netsim.And(s0, cc))
				}
				c.Set(cout, cc)
			}
		}}
}

// AdderN returns a N-bits adder
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//
func AdderN(bits int) netsim.NewPartFn {
	return SpecAdderN(bits).NewPart
}

// SpecMulN returns the PartSpec of a N-bits unsigned multiplier.
//
func SpecMulN(bits int) *netsim.PartSpec {
	return &netsim.PartSpec{
		Name:    "Mul" + strconv.Itoa(bits),
		Type:    netsim.TypeHardBlock,
		Inputs:  bus(bits, pA, pB),
		Outputs: bus(2*bits, pOut),
		Mount: func(s *netsim.Socket) netsim.Component {
			a, b, out := s.Bus(pA, bits), s.Bus(pB, bits), s.Bus(pOut, 2*bits)
			return func(c *netsim.Circuit) {
				va, oka := GetUint(c, a)
				vb, okb := GetUint(c, b)
				if !oka || !okb {
					SetAll(c, out, netsim.X)
					return
				}
				SetUint(c, out, va*vb)
			}
		}}
}

// MulN returns a N-bits unsigned multiplier. Bits must be at most 32.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[2*bits]
//	Function: out = a * b, all X if any input is unknown
//
func MulN(bits int) netsim.NewPartFn {
	return SpecMulN(bits).NewPart
}
