// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vector_test

import (
	"io"
	"strings"
	"testing"

	"github.com/db47h/netsim"
	"github.com/db47h/netsim/vector"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(name string, width int, clock bool) *netsim.Line {
	return &netsim.Line{Name: name, Pins: make([]netsim.PinID, width), Clock: clock}
}

func values(s string) []netsim.Value {
	v := make([]netsim.Value, len(s))
	for i, r := range s {
		var err error
		if v[len(s)-1-i], err = netsim.ParseValue(r); err != nil {
			panic(err)
		}
	}
	return v
}

func TestEncodeDecode(t *testing.T) {
	data := []struct {
		in  string // msb first
		out string
	}{
		{"1", "1"},
		{"x", "x"},
		{"10", "0x2"},
		{"1011", "0xb"},
		{"10110", "0x16"},
		{"1x0", "1x0"},
		{"u1", "x1"},
	}
	for _, d := range data {
		v := values(d.in)
		got := vector.Encode(v)
		assert.Equal(t, d.out, got, d.in)
		dst := make([]netsim.Value, len(v))
		require.NoError(t, vector.Decode(got, dst))
		for i := range dst {
			if v[i] == netsim.U {
				v[i] = netsim.X
			}
		}
		assert.Equal(t, v, dst, d.in)
	}
}

func TestDecode_errors(t *testing.T) {
	data := []struct {
		in    string
		width int
		err   string
	}{
		{"101", 2, `value "101": got 3 bits, expected 2`},
		{"0x1f", 4, "value 0x1f overflows 4 bits"},
		{"0xg", 4, `value 0xg: invalid hex digit 'g'`},
		{"1z", 2, `value "1z": invalid logic value 'z'`},
	}
	for _, d := range data {
		err := vector.Decode(d.in, make([]netsim.Value, d.width))
		if assert.Error(t, err, d.in) {
			assert.Equal(t, d.err, err.Error())
		}
	}
	v := make([]netsim.Value, 6)
	require.NoError(t, vector.Decode("0x0x", v))
	assert.Equal(t, values("00xxxx"), v)
}

func TestHoldSet(t *testing.T) {
	_, err := vector.NewHoldSet([]string{"a", "b"}, []string{"c", "b"})
	require.Error(t, err)
	assert.Equal(t, vector.ErrHoldConflict, errors.Cause(err))

	// a line name overlaps every bit of the line
	for _, d := range []struct{ high, low []string }{
		{[]string{"bus"}, []string{"bus[1]"}},
		{[]string{"bus[3]"}, []string{"bus"}},
		{[]string{"x", "bus[0]"}, []string{"y", "bus[0]"}},
	} {
		_, err = vector.NewHoldSet(d.high, d.low)
		assert.Equal(t, vector.ErrHoldConflict, errors.Cause(err), "high %v, low %v", d.high, d.low)
	}
	_, err = vector.NewHoldSet([]string{"bus[1]"}, []string{"bus[2]"})
	assert.NoError(t, err)

	h, err := vector.NewHoldSet([]string{"a", "bus[1]"}, []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, 3, h.Len())
	v, ok := h.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, netsim.Hi, v)
	v, ok = h.Lookup("c")
	assert.True(t, ok)
	assert.Equal(t, netsim.Lo, v)
	_, ok = h.Lookup("bus")
	assert.False(t, ok)

	ls := netsim.NewLineSet(line("a", 1, false), line("bus", 4, false))
	assert.Equal(t, []string{"c"}, h.Unknown(ls))
}

func TestRandom(t *testing.T) {
	ls := netsim.NewLineSet(line("a", 1, false), line("b", 1, false), line("bus", 4, false), line("clk", 1, true))
	h, err := vector.NewHoldSet([]string{"a", "bus[2]"}, []string{"b"})
	require.NoError(t, err)
	r1 := vector.NewRandom(ls, h, 42)
	r2 := vector.NewRandom(ls, h, 42)
	require.NoError(t, r1.SetClockRatio("clk", 2))
	require.NoError(t, r2.SetClockRatio("clk", 2))
	assert.Error(t, r1.SetClockRatio("a", 2))
	assert.Error(t, r1.SetClockRatio("clk", 0))

	clk := []netsim.Value{netsim.Lo, netsim.Lo, netsim.Hi, netsim.Hi, netsim.Lo, netsim.Lo, netsim.Hi, netsim.Hi}
	seen := [2]bool{}
	for c := int64(0); c < 256; c++ {
		d1, d2 := ls.Alloc(), ls.Alloc()
		require.NoError(t, r1.Next(c, d1))
		require.NoError(t, r2.Next(c, d2))
		require.Equal(t, d1, d2)
		assert.Equal(t, netsim.Hi, d1[0][0])
		assert.Equal(t, netsim.Lo, d1[1][0])
		assert.Equal(t, netsim.Hi, d1[2][2])
		assert.Equal(t, clk[c%8], d1[3][0])
		for _, v := range d1[2] {
			require.True(t, v.Known())
		}
		seen[d1[2][0]-netsim.Lo] = true
	}
	assert.Equal(t, [2]bool{true, true}, seen, "random bits never change")
}

func TestLimit(t *testing.T) {
	ls := netsim.NewLineSet(line("a", 1, false))
	src := vector.Limit(vector.NewRandom(ls, nil, 1), 3)
	d := ls.Alloc()
	for c := int64(0); c < 3; c++ {
		require.NoError(t, src.Next(c, d))
	}
	assert.Equal(t, io.EOF, src.Next(3, d))
	assert.NoError(t, src.Close())
}

func TestReader(t *testing.T) {
	ls := netsim.NewLineSet(line("a", 1, false), line("b", 1, false), line("bus", 4, false))
	in := `# test vectors
bus b a

0x3, 1, 0
1x01 0 1 # trailing comment
0xf,x,1
`
	r, err := vector.NewReader(strings.NewReader(in), ls)
	require.NoError(t, err)
	defer r.Close()

	exp := [][][]netsim.Value{
		{values("0"), values("1"), values("0011")},
		{values("1"), values("0"), values("1x01")},
		{values("1"), values("x"), values("1111")},
	}
	for c, e := range exp {
		d := ls.Alloc()
		require.NoError(t, r.Next(int64(c), d))
		assert.Equal(t, e, d, "cycle %d", c)
	}
	assert.Equal(t, io.EOF, r.Next(3, ls.Alloc()))
}

func TestReader_errors(t *testing.T) {
	ls := netsim.NewLineSet(line("a", 1, false), line("bus", 2, false))
	data := []struct {
		in  string
		err string
	}{
		{"", "line 0: missing header"},
		{"a bus c\n", "line 1: unknown input c"},
		{"#\na a bus\n", "line 2: duplicate input a"},
		{"a\n", "line 1: missing input bus"},
		{"a bus\n1 01\n0\n", "line 3: got 1 values, expected 2"},
		{"a bus\n1 0x4\n", "line 2: bus: value 0x4 overflows 2 bits"},
		{"a bus\n\n\n2 01\n", "line 4: a: value \"2\": invalid logic value '2'"},
	}
	for _, d := range data {
		r, err := vector.NewReader(strings.NewReader(d.in), ls)
		if err == nil {
			for c := int64(0); err == nil; c++ {
				err = r.Next(c, ls.Alloc())
			}
		}
		if assert.Error(t, err, d.in) {
			_, ok := errors.Cause(err).(*vector.FormatError)
			assert.True(t, ok, "%q: not a *FormatError: %v", d.in, err)
			assert.Equal(t, d.err, err.Error())
		}
	}
}
