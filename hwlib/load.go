// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/db47h/netsim"
	"github.com/db47h/netsim/internal/hdl"
	"github.com/pkg/errors"
)

var (
	mu    sync.Mutex
	specs = map[string]*netsim.PartSpec{}
)

func init() {
	for _, sp := range []*netsim.PartSpec{
		notGate, bufGate, and, nand, or, nor, xor, xnor,
		mux, dmux, hAdder, adder, dff, edgeDFF,
	} {
		specs[strings.ToLower(sp.Name)] = sp
	}
}

// parametric parts, by lower case name prefix.
var families = map[string]func(n int) *netsim.PartSpec{
	"and":      func(n int) *netsim.PartSpec { return newGateN("AND", n, netsim.And) },
	"or":       func(n int) *netsim.PartSpec { return newGateN("OR", n, netsim.Or) },
	"xor":      func(n int) *netsim.PartSpec { return newGateN("XOR", n, netsim.Xor) },
	"mux":      SpecMuxN,
	"adder":    SpecAdderN,
	"mul":      SpecMulN,
	"register": SpecRegisterN,
}

func splitNum(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) || i == 0 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil || n < 1 {
		return s, 0, false
	}
	return s[:i], n, true
}

func lookup(name string) (*netsim.PartSpec, error) {
	switch prefix, n, ok := splitNum(name); {
	case !ok:
	case prefix == "mul" && n > 32:
		return nil, errors.Errorf("%s: multiplier too wide", name)
	case families[prefix] != nil:
		return families[prefix](n), nil
	case strings.HasPrefix(prefix, "ram") && strings.HasSuffix(prefix, "x"):
		a, err := strconv.Atoi(prefix[3 : len(prefix)-1])
		if err != nil || a < 1 || a > MaxRAMAddrBits {
			return nil, errors.Errorf("%s: invalid address width", name)
		}
		return SpecRAM(a, n), nil
	}
	return nil, errors.Errorf("unknown part %s", name)
}

// Lookup returns the PartSpec of the named library part. Names are case
// insensitive. Besides fixed parts like "And" or "DFF", Lookup accepts sized
// parts: "And<n>", "Or<n>", "Xor<n>", "Mux<n>", "Adder<n>", "Mul<n>",
// "Register<n>" and "RAM<a>x<d>", where <n> is a bit count, <a> an address
// width and <d> a data width.
//
// Lookup returns the same PartSpec for the same name.
//
func Lookup(name string) (*netsim.PartSpec, error) {
	key := strings.ToLower(name)
	mu.Lock()
	defer mu.Unlock()
	if sp, ok := specs[key]; ok {
		return sp, nil
	}
	sp, err := lookup(key)
	if err != nil {
		return nil, err
	}
	specs[key] = sp
	return sp, nil
}

// ParseNetlist reads a netlist description from r and builds it using the
// parts of this library.
//
// The input format is:
//
//	# comment
//	CHIP name {
//		IN a, b[4];
//		CLOCK clk;
//		OUT out[4];
//		PARTS:
//		[instance:] Part(pin=net, ...);
//		...
//	}
//
// Where Part is a name accepted by Lookup.
//
func ParseNetlist(r io.Reader) (*netsim.Netlist, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read netlist")
	}
	f, err := hdl.ParseFile(string(b))
	if err != nil {
		return nil, err
	}
	parts := make(netsim.Parts, 0, len(f.Parts))
	for _, d := range f.Parts {
		sp, err := Lookup(d.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", d.Line)
		}
		conns, err := netsim.ParseConnections(d.Conns)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: %s", d.Line, d.Type)
		}
		parts = append(parts, netsim.Part{PartSpec: sp, Conns: conns, Name: d.Name})
	}
	nl, err := netsim.NewNetlist(f.Name, netsim.IO{
		In:     strings.Join(f.In, ", "),
		Clocks: strings.Join(f.Clocks, ", "),
		Out:    strings.Join(f.Out, ", "),
	}, parts...)
	if err != nil {
		return nil, errors.Wrap(err, f.Name)
	}
	return nl, nil
}
