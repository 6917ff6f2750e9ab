// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing circuits.
//
package simtest

import (
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/db47h/netsim"
	"github.com/db47h/netsim/vector"
	"github.com/pkg/errors"
)

func connString(pins ...[]string) string {
	var b strings.Builder
	for _, ps := range pins {
		for _, n := range ps {
			if b.Len() > 0 {
				b.WriteRune(',')
			}
			b.WriteString(n)
			b.WriteRune('=')
			b.WriteString(n)
		}
	}
	return b.String()
}

// pinList converts a list of pin names back to a pin specification string.
func pinList(in []string) string {
	var (
		order []string
		width = make(map[string]int)
	)
	for _, n := range in {
		name, bit := netsim.SplitBusPin(n)
		w, ok := width[name]
		if !ok {
			order = append(order, name)
			w = -1
		}
		if bit >= w {
			w = bit
		}
		width[name] = w
	}
	var b strings.Builder
	for _, n := range order {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
		if w := width[n]; w >= 0 {
			b.WriteRune('[')
			b.WriteString(strconv.Itoa(w + 1))
			b.WriteRune(']')
		}
	}
	return b.String()
}

// Wrap returns a netlist made of a single instance of part. Every pin of the
// part is connected to a primary input or output of the same name.
//
func Wrap(part netsim.NewPartFn) (*netsim.Netlist, error) {
	sp := part("").PartSpec
	return NewNetlist(sp.Name, sp, part(connString(sp.Inputs, sp.Outputs)))
}

// NewNetlist returns a netlist with the same primary inputs and outputs as the
// pins of sp, made of the given parts.
//
func NewNetlist(name string, sp *netsim.PartSpec, parts ...netsim.Part) (*netsim.Netlist, error) {
	return netsim.NewNetlist(name, netsim.IO{In: pinList(sp.Inputs), Out: pinList(sp.Outputs)}, parts...)
}

// Run simulates nl for at most cycles cycles with vectors from src. It returns
// the output values of each simulated cycle. Run stops early if src returns
// io.EOF.
//
func Run(nl *netsim.Netlist, st *netsim.Stages, opts netsim.Options, src vector.Source, cycles int) ([][][]netsim.Value, error) {
	c, err := netsim.NewCircuit(nl, st, opts)
	if err != nil {
		return nil, err
	}
	defer c.Dispose()
	var out [][][]netsim.Value
	for i := int64(0); i < int64(cycles); i++ {
		in := c.InputLines().Alloc()
		if err = src.Next(i, in); err != nil {
			if err == io.EOF {
				break
			}
			return out, err
		}
		o, err := c.AdvanceCycle(i, in)
		if err != nil {
			return out, err
		}
		out = append(out, o)
	}
	return out, nil
}

func format(ls *netsim.LineSet, v [][]netsim.Value) string {
	var b strings.Builder
	for i, l := range ls.Lines() {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.Name)
		b.WriteRune('=')
		b.WriteString(vector.Encode(v[i]))
	}
	return b.String()
}

func equal(a, b []netsim.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare runs nl1 and nl2 side by side for the given number of cycles on
// the same random input vectors and compares their outputs. Both netlists
// must have the same input and output lines, in any order.
//
func Compare(t testing.TB, cycles int, nl1, nl2 *netsim.Netlist) {
	t.Helper()
	if err := compare(cycles, nl1, nl2, time.Now().UnixNano()); err != nil {
		t.Fatal(err)
	}
}

func compare(cycles int, nl1, nl2 *netsim.Netlist, seed int64) error {
	c1, err := netsim.NewCircuit(nl1, nil, netsim.Options{})
	if err != nil {
		return errors.Wrap(err, nl1.Name)
	}
	defer c1.Dispose()
	c2, err := netsim.NewCircuit(nl2, nil, netsim.Options{})
	if err != nil {
		return errors.Wrap(err, nl2.Name)
	}
	defer c2.Dispose()

	in1, in2 := c1.InputLines(), c2.InputLines()
	out1, out2 := c1.OutputLines(), c2.OutputLines()
	if in1.Len() != in2.Len() || out1.Len() != out2.Len() {
		return errors.Errorf("%s and %s have different interfaces", nl1.Name, nl2.Name)
	}
	inMap, err := mapLines(in1, in2)
	if err != nil {
		return err
	}
	outMap, err := mapLines(out1, out2)
	if err != nil {
		return err
	}

	src := vector.NewRandom(in1, nil, seed)
	for i := int64(0); i < int64(cycles); i++ {
		v1, v2 := in1.Alloc(), make([][]netsim.Value, in2.Len())
		if err = src.Next(i, v1); err != nil {
			return err
		}
		for j, k := range inMap {
			v2[k] = v1[j]
		}
		o1, err := c1.AdvanceCycle(i, v1)
		if err != nil {
			return errors.Wrap(err, nl1.Name)
		}
		o2, err := c2.AdvanceCycle(i, v2)
		if err != nil {
			return errors.Wrap(err, nl2.Name)
		}
		for j, k := range outMap {
			if !equal(o1[j], o2[k]) {
				return errors.Errorf("cycle %d: %s\nexpected %s = %s\ngot %s",
					i, format(in1, v1), out1.Line(j).Name, vector.Encode(o1[j]), vector.Encode(o2[k]))
			}
		}
	}
	return nil
}

func mapLines(ls1, ls2 *netsim.LineSet) ([]int, error) {
	m := make([]int, ls1.Len())
	for i, l := range ls1.Lines() {
		k := ls2.Index(l.Name)
		if k < 0 {
			return nil, errors.Errorf("line %s: not found", l.Name)
		}
		if w := ls2.Line(k).Width(); w != l.Width() {
			return nil, errors.Errorf("line %s: width mismatch %d != %d", l.Name, l.Width(), w)
		}
		m[i] = k
	}
	return m, nil
}

// ComparePart compares a library part against a netlist built from parts
// with the same pin names.
//
func ComparePart(t testing.TB, cycles int, part netsim.NewPartFn, parts ...netsim.Part) {
	t.Helper()
	nl1, err := Wrap(part)
	if err != nil {
		t.Fatal(err)
	}
	sp := part("").PartSpec
	nl2, err := NewNetlist("custom_"+sp.Name, sp, parts...)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err = compare(cycles, nl1, nl2, start.UnixNano()); err != nil {
		t.Fatal(err)
	}
	t.Logf("%d + %d nodes. %d cycles in %v", len(nl1.Nodes), len(nl2.Nodes), cycles, time.Since(start))
}

// Deterministic runs nl twice on the same random vectors, once on a single
// goroutine and once dispatching every stage to workers, and reports whether
// both runs produce identical outputs.
//
func Deterministic(t testing.TB, cycles int, nl *netsim.Netlist, seed int64) {
	t.Helper()
	st, err := netsim.BuildStages(nl, 1)
	if err != nil {
		t.Fatal(err)
	}
	lines := nl.InputLines()
	seq, err := Run(nl, st, netsim.Options{Workers: 1}, vector.NewRandom(lines, nil, seed), cycles)
	if err != nil {
		t.Fatal(err)
	}
	par, err := Run(nl, st, netsim.Options{Workers: netsim.MaxWorkers}, vector.NewRandom(lines, nil, seed), cycles)
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != len(par) {
		t.Fatalf("got %d cycles, expected %d", len(par), len(seq))
	}
	out := nl.OutputLines()
	for i := range seq {
		for j := range seq[i] {
			if !equal(seq[i][j], par[i][j]) {
				t.Fatalf("cycle %d: %s: sequential %s, parallel %s", i, out.Line(j).Name, vector.Encode(seq[i][j]), vector.Encode(par[i][j]))
			}
		}
	}
}
