// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simtest_test

import (
	"testing"

	"github.com/db47h/netsim"
	hl "github.com/db47h/netsim/hwlib"
	"github.com/db47h/netsim/simtest"
	"github.com/db47h/netsim/vector"
)

func TestComparePart(t *testing.T) {
	simtest.ComparePart(t, 16, hl.Or,
		hl.Nand("a=a, b=a, out=notA"),
		hl.Nand("a=b, b=b, out=notB"),
		hl.Nand("a=notA, b=notB, out=out"),
	)
}

func TestCompare_lineOrder(t *testing.T) {
	nl1, err := netsim.NewNetlist("ab", netsim.IO{In: "a, b", Out: "x, y"},
		hl.And("a=a, b=b, out=x"),
		hl.Or("a=a, b=b, out=y"),
	)
	if err != nil {
		t.Fatal(err)
	}
	nl2, err := netsim.NewNetlist("ba", netsim.IO{In: "b, a", Out: "y, x"},
		hl.Or("a=b, b=a, out=y"),
		hl.And("a=b, b=a, out=x"),
	)
	if err != nil {
		t.Fatal(err)
	}
	simtest.Compare(t, 32, nl1, nl2)
}

func TestDeterministic(t *testing.T) {
	nl, err := simtest.Wrap(hl.AdderN(16))
	if err != nil {
		t.Fatal(err)
	}
	simtest.Deterministic(t, 64, nl, 1)
}

func TestRun(t *testing.T) {
	nl, err := simtest.Wrap(hl.Not)
	if err != nil {
		t.Fatal(err)
	}
	out, err := simtest.Run(nl, nil, netsim.Options{Workers: 1}, vector.Limit(vector.NewRandom(nl.InputLines(), nil, 7), 5), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5 {
		t.Fatalf("got %d cycles, expected 5", len(out))
	}
}
