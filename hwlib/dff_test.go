// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/netsim"
	hl "github.com/db47h/netsim/hwlib"
)

func randBool() bool {
	return rand.Int63()&(1<<62) != 0
}

func newCircuit(t *testing.T, io netsim.IO, parts ...netsim.Part) *netsim.Circuit {
	t.Helper()
	nl, err := netsim.NewNetlist(t.Name(), io, parts...)
	if err != nil {
		t.Fatal(err)
	}
	c, err := netsim.NewCircuit(nl, nil, netsim.Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDFF(t *testing.T) {
	c := newCircuit(t, netsim.IO{In: "d", Out: "q"}, hl.DFF("in=d, out=q"))
	defer c.Dispose()

	exp := []netsim.Value{x, h, l, h}
	for i, d := range []netsim.Value{h, l, h, l} {
		out, err := c.AdvanceCycle(int64(i), [][]netsim.Value{{d}})
		if err != nil {
			t.Fatal(err)
		}
		if out[0][0] != exp[i] {
			t.Fatalf("cycle %d: expected q = %v, got %v", i, exp[i], out[0][0])
		}
	}
}

func TestDFF_init(t *testing.T) {
	c := newCircuit(t, netsim.IO{In: "d", Out: "q"}, hl.DFF("in=d, out=q").WithInit(netsim.Lo))
	defer c.Dispose()
	out, err := c.AdvanceCycle(0, [][]netsim.Value{{h}})
	if err != nil {
		t.Fatal(err)
	}
	if out[0][0] != l {
		t.Fatalf("expected initial q = 0, got %v", out[0][0])
	}
}

func TestDFF_ratio(t *testing.T) {
	c := newCircuit(t, netsim.IO{In: "d", Out: "q"}, hl.DFF("in=d, out=q").WithRatio(2))
	defer c.Dispose()

	in := []netsim.Value{h, l, l, h, h, l}
	exp := []netsim.Value{x, x, l, l, h, h}
	for i := range in {
		out, err := c.AdvanceCycle(int64(i), [][]netsim.Value{{in[i]}})
		if err != nil {
			t.Fatal(err)
		}
		if out[0][0] != exp[i] {
			t.Fatalf("cycle %d: expected q = %v, got %v", i, exp[i], out[0][0])
		}
	}
}

// a toggle flip flop: the register's output feeds back into its input
// through a XOR gate.
func TestDFF_feedback(t *testing.T) {
	c := newCircuit(t, netsim.IO{In: "en", Out: "q"},
		hl.Xor("a=en, b=q, out=d"),
		hl.DFF("in=d, out=q").WithInit(netsim.Lo),
	)
	defer c.Dispose()

	q := l
	for i := 0; i < 100; i++ {
		en := netsim.FromBool(randBool())
		out, err := c.AdvanceCycle(int64(i), [][]netsim.Value{{en}})
		if err != nil {
			t.Fatal(err)
		}
		if out[0][0] != q {
			t.Fatalf("cycle %d: expected q = %v, got %v", i, q, out[0][0])
		}
		q = netsim.Xor(en, q)
	}
}

func TestEdgeDFF(t *testing.T) {
	c := newCircuit(t, netsim.IO{In: "d", Clocks: "clk", Out: "q"}, hl.EdgeDFF("in=d, clk=clk, out=q"))
	defer c.Dispose()

	// clk: 0 1 0 1 0 1
	// d:   1 0 0 1 1 0
	// q latches d(t-1) on rising edges (odd cycles).
	d := []netsim.Value{h, l, l, h, h, l}
	exp := []netsim.Value{x, h, h, l, l, h}
	for i := range d {
		clk := netsim.FromBool(i%2 == 1)
		out, err := c.AdvanceCycle(int64(i), [][]netsim.Value{{d[i]}, {clk}})
		if err != nil {
			t.Fatal(err)
		}
		if out[0][0] != exp[i] {
			t.Fatalf("cycle %d: expected q = %v, got %v", i, exp[i], out[0][0])
		}
	}
}

func TestRegisterN(t *testing.T) {
	c := newCircuit(t, netsim.IO{In: "in[4], load", Out: "out[4]"}, hl.RegisterN(4)("in=in, load=load, out=out").WithInit(netsim.Lo))
	defer c.Dispose()

	var p uint64
	for i := 0; i < 1000; i++ {
		in := uint64(rand.Intn(16))
		load := randBool()
		v := [][]netsim.Value{make([]netsim.Value, 4), {netsim.FromBool(load)}}
		hl.PutUint(v[0], in)
		out, err := c.AdvanceCycle(int64(i), v)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := hl.Uint(out[0])
		if !ok || got != p {
			t.Fatalf("cycle %d: expected out = %d, got %s", i, p, out[0])
		}
		if load {
			p = in
		}
	}
}

func TestRAM(t *testing.T) {
	c := newCircuit(t, netsim.IO{In: "addr[3], in[8], load", Out: "out[8]"}, hl.RAM(3, 8)("addr=addr, in=in, load=load, out=out"))
	defer c.Dispose()

	var mem [8]uint64
	var known [8]bool
	var prevAddr uint64
	var cycle int64
	step := func(addr, data uint64, load bool) [][]netsim.Value {
		v := [][]netsim.Value{make([]netsim.Value, 3), make([]netsim.Value, 8), {netsim.FromBool(load)}}
		hl.PutUint(v[0], addr)
		hl.PutUint(v[1], data)
		out, err := c.AdvanceCycle(cycle, v)
		if err != nil {
			t.Fatal(err)
		}
		cycle++
		return out
	}

	out := step(0, 0, false)
	if _, ok := hl.Uint(out[0]); ok {
		t.Fatal("expected unknown output at cycle 0")
	}
	for i := 0; i < 500; i++ {
		addr, data, load := uint64(rand.Intn(8)), uint64(rand.Intn(256)), randBool()
		out = step(addr, data, load)
		got, ok := hl.Uint(out[0])
		if ok != known[prevAddr] || ok && got != mem[prevAddr] {
			t.Fatalf("cycle %d: mem[%d] = %d (known %v), got %s", cycle-1, prevAddr, mem[prevAddr], known[prevAddr], out[0])
		}
		if load {
			mem[addr], known[addr] = data, true
		}
		prevAddr = addr
	}
}
