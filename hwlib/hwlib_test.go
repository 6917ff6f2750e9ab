// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/netsim"
	hl "github.com/db47h/netsim/hwlib"
	"github.com/db47h/netsim/simtest"
)

// testGate runs all input combinations of a single bit gate and checks its
// outputs against result. result[o][i] is the expected value of output o for
// the input combination i, input 0 being the msb.
//
func testGate(t *testing.T, gate netsim.NewPartFn, result [][]netsim.Value) {
	t.Helper()
	nl, err := simtest.Wrap(gate)
	if err != nil {
		t.Fatal(err)
	}
	c, err := netsim.NewCircuit(nl, nil, netsim.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	in := c.InputLines()
	tot := 1 << uint(in.Len())
	for i := 0; i < tot; i++ {
		v := in.Alloc()
		for bit := range v {
			v[len(v)-bit-1][0] = netsim.FromBool(i&(1<<uint(bit)) != 0)
		}
		out, err := c.AdvanceCycle(int64(i), v)
		if err != nil {
			t.Fatal(err)
		}
		for o := range out {
			if exp := result[o][i]; out[o][0] != exp {
				t.Errorf("%s %v: %s = %v, got %v", nl.Name, v, c.OutputLines().Line(o).Name, exp, out[o][0])
			}
		}
	}
}

const (
	l = netsim.Lo
	h = netsim.Hi
	x = netsim.X
)

func TestGates(t *testing.T) {
	data := []struct {
		name string
		gate netsim.NewPartFn
		res  [][]netsim.Value
	}{
		{"NOT", hl.Not, [][]netsim.Value{{h, l}}},
		{"BUF", hl.Buf, [][]netsim.Value{{l, h}}},
		{"AND", hl.And, [][]netsim.Value{{l, l, l, h}}},
		{"NAND", hl.Nand, [][]netsim.Value{{h, h, h, l}}},
		{"OR", hl.Or, [][]netsim.Value{{l, h, h, h}}},
		{"NOR", hl.Nor, [][]netsim.Value{{h, l, l, l}}},
		{"XOR", hl.Xor, [][]netsim.Value{{l, h, h, l}}},
		{"XNOR", hl.Xnor, [][]netsim.Value{{h, l, l, h}}},
		{"MUX", hl.Mux, [][]netsim.Value{{l, l, l, h, h, l, h, h}}},
		{"DMUX", hl.DMux, [][]netsim.Value{{l, l, h, l}, {l, l, l, h}}},
		{"HalfAdder", hl.HalfAdder, [][]netsim.Value{{l, h, h, l}, {l, l, l, h}}},
		{"FullAdder", hl.FullAdder, [][]netsim.Value{{l, h, h, l, h, l, l, h}, {l, l, l, h, l, h, h, h}}},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			testGate(t, d.gate, d.res)
		})
	}
}

func TestGates_unknown(t *testing.T) {
	nl, err := netsim.NewNetlist("x", netsim.IO{In: "a", Out: "and, or, xor"},
		hl.And("a=a, out=and"),
		hl.Or("a=a, out=or"),
		hl.Xor("a=a, out=xor"),
	)
	if err != nil {
		t.Fatal(err)
	}
	c, err := netsim.NewCircuit(nl, nil, netsim.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	// b is unconnected, hence X.
	for i, d := range []struct {
		a   netsim.Value
		out []netsim.Value
	}{
		{l, []netsim.Value{l, x, x}},
		{h, []netsim.Value{x, h, x}},
		{x, []netsim.Value{x, x, x}},
	} {
		out, err := c.AdvanceCycle(int64(i), [][]netsim.Value{{d.a}})
		if err != nil {
			t.Fatal(err)
		}
		for o, v := range d.out {
			if out[o][0] != v {
				t.Errorf("a=%v: %s = %v, got %v", d.a, c.OutputLines().Line(o).Name, v, out[o][0])
			}
		}
	}
}

func TestGateN(t *testing.T) {
	simtest.ComparePart(t, 64, hl.AndN(4),
		hl.And("a=a[0], b=b[0], out=out[0]"),
		hl.And("a=a[1], b=b[1], out=out[1]"),
		hl.And("a=a[2], b=b[2], out=out[2]"),
		hl.And("a=a[3], b=b[3], out=out[3]"),
	)
	simtest.ComparePart(t, 64, hl.OrN(2),
		hl.Or("a=a[0], b=b[0], out=out[0]"),
		hl.Or("a=a[1], b=b[1], out=out[1]"),
	)
	simtest.ComparePart(t, 64, hl.XorN(2),
		hl.Xor("a=a[0], b=b[0], out=out[0]"),
		hl.Xor("a=a[1], b=b[1], out=out[1]"),
	)
	simtest.ComparePart(t, 64, hl.MuxN(2),
		hl.Mux("a=a[0], b=b[0], sel=sel, out=out[0]"),
		hl.Mux("a=a[1], b=b[1], sel=sel, out=out[1]"),
	)
}

func TestAdderN(t *testing.T) {
	simtest.ComparePart(t, 256, hl.AdderN(4),
		hl.HalfAdder("a=a[0], b=b[0], s=out[0], c=c0"),
		hl.FullAdder("a=a[1], b=b[1], cin=c0, s=out[1], cout=c1"),
		hl.FullAdder("a=a[2], b=b[2], cin=c1, s=out[2], cout=c2"),
		hl.FullAdder("a=a[3], b=b[3], cin=c2, s=out[3], cout=c"),
	)
}

func TestMulN(t *testing.T) {
	const bits = 8
	nl, err := simtest.Wrap(hl.MulN(bits))
	if err != nil {
		t.Fatal(err)
	}
	c, err := netsim.NewCircuit(nl, nil, netsim.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	in, out := c.InputLines(), c.OutputLines()
	a, b, o := in.Index("a"), in.Index("b"), out.Index("out")
	var cycle int64
	f := func(va, vb uint8) bool {
		v := in.Alloc()
		hl.PutUint(v[a], uint64(va))
		hl.PutUint(v[b], uint64(vb))
		res, err := c.AdvanceCycle(cycle, v)
		cycle++
		if err != nil {
			t.Fatal(err)
		}
		r, ok := hl.Uint(res[o])
		return ok && r == uint64(va)*uint64(vb)
	}
	if err = quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}

	v := in.Alloc()
	hl.PutUint(v[a], 3)
	v[b][0] = x
	res, err := c.AdvanceCycle(cycle, v)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := hl.Uint(res[o]); ok {
		t.Fatal("unknown input must give an unknown product")
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"and", "Xor", "DFF", "edgedff", "And4", "MUX16", "Adder8", "Mul4", "Register2", "RAM4x8"} {
		sp, err := hl.Lookup(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		sp2, _ := hl.Lookup(name)
		if sp != sp2 {
			t.Errorf("%s: Lookup returned different specs", name)
		}
	}
	for _, name := range []string{"foo", "Nand3", "Mul64", "RAM0x8", "RAMx8", "And0"} {
		if _, err := hl.Lookup(name); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
