// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim_test

import (
	"testing"

	"github.com/db47h/netsim"
	"github.com/stretchr/testify/assert"
)

func TestValue_logic(t *testing.T) {
	u := netsim.U
	data := []struct {
		a, b         netsim.Value
		and, or, xor netsim.Value
	}{
		{l, l, l, l, l},
		{l, h, l, h, h},
		{h, l, l, h, h},
		{h, h, h, h, l},
		{l, x, l, x, x},
		{x, h, x, h, x},
		{x, x, x, x, x},
		{u, l, l, x, x},
		{u, h, x, h, x},
	}
	for _, d := range data {
		assert.Equal(t, d.and, netsim.And(d.a, d.b), "%v AND %v", d.a, d.b)
		assert.Equal(t, d.or, netsim.Or(d.a, d.b), "%v OR %v", d.a, d.b)
		assert.Equal(t, d.xor, netsim.Xor(d.a, d.b), "%v XOR %v", d.a, d.b)
	}
	assert.Equal(t, h, netsim.Not(l))
	assert.Equal(t, l, netsim.Not(h))
	assert.Equal(t, x, netsim.Not(x))
	assert.Equal(t, x, netsim.Not(u))
}

func TestValue_mux(t *testing.T) {
	assert.Equal(t, l, netsim.Mux(l, l, h))
	assert.Equal(t, h, netsim.Mux(h, l, h))
	assert.Equal(t, x, netsim.Mux(x, l, h))
	assert.Equal(t, h, netsim.Mux(x, h, h))
	assert.Equal(t, x, netsim.Mux(x, x, x))
	assert.Equal(t, x, netsim.Mux(l, netsim.U, h))
}

func TestValue_parse(t *testing.T) {
	for r, v := range map[rune]netsim.Value{
		'0': l, '1': h, 'x': x, 'X': x, '-': x, 'u': netsim.U, 'U': netsim.U,
	} {
		got, err := netsim.ParseValue(r)
		assert.NoError(t, err)
		assert.Equal(t, v, got, string(r))
	}
	_, err := netsim.ParseValue('2')
	assert.EqualError(t, err, "invalid logic value '2'")

	assert.Equal(t, "0", l.String())
	assert.Equal(t, "1", h.String())
	assert.Equal(t, "x", x.String())
	assert.Equal(t, "u", netsim.U.String())
	assert.Equal(t, '?', netsim.Value(42).Rune())
	assert.True(t, h.Known())
	assert.False(t, x.Known())
}
