// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/netsim"
)

// GetUint returns the value of the given pins as an unsigned integer. Pin 0
// is lsb. ok is false if any pin is not Lo or Hi.
//
func GetUint(c *netsim.Circuit, pins []netsim.PinID) (v uint64, ok bool) {
	for bit, p := range pins {
		switch c.Get(p) {
		case netsim.Hi:
			v |= 1 << uint(bit)
		case netsim.Lo:
		default:
			return 0, false
		}
	}
	return v, true
}

// SetUint sets the pins to the given value. Pin 0 is lsb.
//
func SetUint(c *netsim.Circuit, pins []netsim.PinID, v uint64) {
	for bit, p := range pins {
		c.Set(p, netsim.FromBool(v&(1<<uint(bit)) != 0))
	}
}

// SetAll sets all pins to v.
//
func SetAll(c *netsim.Circuit, pins []netsim.PinID, v netsim.Value) {
	for _, p := range pins {
		c.Set(p, v)
	}
}

// Uint returns the value of bus v, bit 0 first, as an unsigned integer. ok is
// false if any bit is not Lo or Hi.
//
func Uint(v []netsim.Value) (n uint64, ok bool) {
	for bit, b := range v {
		switch b {
		case netsim.Hi:
			n |= 1 << uint(bit)
		case netsim.Lo:
		default:
			return 0, false
		}
	}
	return n, true
}

// PutUint sets the bits of bus v to n, bit 0 first.
//
func PutUint(v []netsim.Value, n uint64) {
	for bit := range v {
		v[bit] = netsim.FromBool(n&(1<<uint(bit)) != 0)
	}
}
