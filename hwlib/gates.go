// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable parts for netsim: logic gates,
// multiplexers, registers, adders, multipliers and memories.
//
// All parts operate on four-state values: unknown inputs propagate to the
// outputs unless a dominant input decides the result (a Lo input of an AND
// gate for example).
//
package hwlib

import (
	"strconv"

	"github.com/db47h/netsim"
)

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pSel = "sel"
	pOut = "out"
	pClk = "clk"
)

// make a bus name
func bus(bits int, names ...string) []string {
	b := make([]string, len(names)*bits)
	for i, n := range names {
		for j := 0; j < bits; j++ {
			b[i*bits+j] = netsim.BusPinName(n, j)
		}
	}
	return b
}

type unary func(netsim.Value) netsim.Value

func (f unary) mount(s *netsim.Socket) netsim.Component {
	in, out := s.Pin(pIn), s.Pin(pOut)
	return func(c *netsim.Circuit) { c.Set(out, f(c.Get(in))) }
}

var (
	notGate = &netsim.PartSpec{Name: "NOT", Inputs: []string{pIn}, Outputs: []string{pOut},
		Mount: unary(netsim.Not).mount}
	bufGate = &netsim.PartSpec{Name: "BUF", Inputs: []string{pIn}, Outputs: []string{pOut},
		Mount: unary(func(v netsim.Value) netsim.Value {
			if v == netsim.U {
				return netsim.X
			}
			return v
		}).mount}
)

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(w string) netsim.Part { return notGate.NewPart(w) }

// Buf returns a buffer.
//
//	Inputs: in
//	Outputs: out
//	Function: out = in
//
func Buf(w string) netsim.Part { return bufGate.NewPart(w) }

// other gates
type gate func(a, b netsim.Value) netsim.Value

func (g gate) mount(s *netsim.Socket) netsim.Component {
	a, b, out := s.Pin(pA), s.Pin(pB), s.Pin(pOut)
	return func(c *netsim.Circuit) { c.Set(out, g(c.Get(a), c.Get(b))) }
}

func newGate(name string, fn func(a, b netsim.Value) netsim.Value) *netsim.PartSpec {
	return &netsim.PartSpec{
		Name:    name,
		Inputs:  gateIn,
		Outputs: gateOut,
		Mount:   gate(fn).mount,
	}
}

var (
	gateIn  = []string{pA, pB}
	gateOut = []string{pOut}

	and  = newGate("AND", netsim.And)
	nand = newGate("NAND", func(a, b netsim.Value) netsim.Value { return netsim.Not(netsim.And(a, b)) })
	or   = newGate("OR", netsim.Or)
	nor  = newGate("NOR", func(a, b netsim.Value) netsim.Value { return netsim.Not(netsim.Or(a, b)) })
	xor  = newGate("XOR", netsim.Xor)
	xnor = newGate("XNOR", func(a, b netsim.Value) netsim.Value { return netsim.Not(netsim.Xor(a, b)) })
)

// And returns a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
func And(w string) netsim.Part { return and.NewPart(w) }

// Nand returns a NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
func Nand(w string) netsim.Part { return nand.NewPart(w) }

// Or returns a OR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a || b
//
func Or(w string) netsim.Part { return or.NewPart(w) }

// Nor returns a NOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a || b)
//
func Nor(w string) netsim.Part { return nor.NewPart(w) }

// Xor returns a XOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = (a && !b) || (!a && b)
//
func Xor(w string) netsim.Part { return xor.NewPart(w) }

// Xnor returns a XNOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b || !a && !b
//
func Xnor(w string) netsim.Part { return xnor.NewPart(w) }

type gateN struct {
	bits int
	fn   func(a, b netsim.Value) netsim.Value
}

func (g *gateN) mount(s *netsim.Socket) netsim.Component {
	a, b, out := s.Bus(pA, g.bits), s.Bus(pB, g.bits), s.Bus(pOut, g.bits)
	return func(c *netsim.Circuit) {
		for i := range a {
			c.Set(out[i], g.fn(c.Get(a[i]), c.Get(b[i])))
		}
	}
}

func newGateN(name string, bits int, f func(a, b netsim.Value) netsim.Value) *netsim.PartSpec {
	return &netsim.PartSpec{
		Name:    name + strconv.Itoa(bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: bus(bits, pOut),
		Mount:   (&gateN{bits, f}).mount,
	}
}

// AndN returns a N-bits AND gate.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = a[i] && b[i] }
//
func AndN(bits int) netsim.NewPartFn {
	return newGateN("AND", bits, netsim.And).NewPart
}

// OrN returns a N-bits OR gate.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = a[i] || b[i] }
//
func OrN(bits int) netsim.NewPartFn {
	return newGateN("OR", bits, netsim.Or).NewPart
}

// XorN returns a N-bits XOR gate.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = a[i] != b[i] }
//
func XorN(bits int) netsim.NewPartFn {
	return newGateN("XOR", bits, netsim.Xor).NewPart
}
