// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/netsim"
)

// MaxRAMAddrBits is the maximum address width of a RAM.
//
const MaxRAMAddrBits = 20

// SpecRAM returns the PartSpec of a single port synchronous RAM with
// 1<<addrBits words of dataBits bits.
//
func SpecRAM(addrBits, dataBits int) *netsim.PartSpec {
	if addrBits < 1 || addrBits > MaxRAMAddrBits {
		panic("invalid RAM address width " + strconv.Itoa(addrBits))
	}
	ports := append(bus(addrBits, "addr"), bus(dataBits, pIn)...)
	ports = append(ports, "load")
	return &netsim.PartSpec{
		Name:       "RAM" + strconv.Itoa(addrBits) + "x" + strconv.Itoa(dataBits),
		Type:       netsim.TypeMemory,
		Inputs:     ports,
		Outputs:    bus(dataBits, pOut),
		Sequential: ports,
		Mount: func(s *netsim.Socket) netsim.Component {
			addr, in := s.Bus("addr", addrBits), s.Bus(pIn, dataBits)
			load, out := s.Pin("load"), s.Bus(pOut, dataBits)
			mem := make([]netsim.Value, (1<<uint(addrBits))*dataBits)
			for i := range mem {
				mem[i] = netsim.X
			}
			return func(c *netsim.Circuit) {
				if c.Cycle() == 0 {
					for _, o := range out {
						c.Set(o, c.Prev(o))
					}
					return
				}
				a, ok := GetUint(c, addr)
				ld := c.Get(load)
				if !ok {
					if ld != netsim.Lo {
						// unknown write address: the whole memory is unknown.
						for i := range mem {
							mem[i] = netsim.X
						}
					}
					SetAll(c, out, netsim.X)
					return
				}
				word := mem[int(a)*dataBits : int(a+1)*dataBits]
				if ld != netsim.Lo {
					for i, p := range in {
						word[i] = netsim.Mux(ld, word[i], c.Get(p))
					}
				}
				for i, o := range out {
					c.Set(o, word[i])
				}
			}
		}}
}

// RAM returns a single port synchronous RAM. Inputs are sampled at the
// previous cycle: a write becomes visible on out at the cycle following the
// write. The memory contents are X until written.
//
//	Inputs: addr[addrBits], in[dataBits], load
//	Outputs: out[dataBits]
//	Function: if load(t-1) { mem[addr(t-1)] = in(t-1) }
//	          out(t) = mem[addr(t-1)]
//
func RAM(addrBits, dataBits int) netsim.NewPartFn {
	return SpecRAM(addrBits, dataBits).NewPart
}
