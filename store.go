// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import (
	"github.com/pkg/errors"
)

// DefaultWave is the default wave length: the number of cycles of history
// kept for each pin, and the number of cycles simulated between two trace
// flushes.
//
const DefaultWave = 16

// Store keeps the last W values of every pin of a netlist in a ring indexed
// by cycle modulo W. Memory usage is O(pins × W) regardless of the simulation
// length.
//
// Distinct pins can be written concurrently. Reads of a pin must happen after
// the write of the same cycle (the stage barrier of a Circuit).
//
type Store struct {
	w      int
	vals   []Value
	stamps []int64 // cycle+1 of the value in each slot, 0 if never written
	cur    int64
}

// NewStore returns a new store for the given number of pins and wave length.
// The wave length must be at least 2 so that the previous cycle of any pin
// can be read.
//
func NewStore(pins int, wave int) (*Store, error) {
	if wave < 2 {
		return nil, errors.Errorf("invalid wave length %d, must be at least 2", wave)
	}
	return &Store{
		w:      wave,
		vals:   make([]Value, pins*wave),
		stamps: make([]int64, pins*wave),
		cur:    -1,
	}, nil
}

// Wave returns the wave length.
//
func (s *Store) Wave() int { return s.w }

// Current returns the current cycle, or -1 before the first call to Begin.
//
func (s *Store) Current() int64 { return s.cur }

// Begin sets the current cycle. Values older than cycle-W+1 are evicted.
//
func (s *Store) Begin(cycle int64) { s.cur = cycle }

func (s *Store) slot(p PinID, cycle int64) int {
	return int(p)*s.w + int(cycle%int64(s.w))
}

// Write writes the value of pin p for the given cycle. cycle must be within
// the current wave: cur-W < cycle <= cur.
//
func (s *Store) Write(p PinID, cycle int64, v Value) {
	if cycle > s.cur || cycle <= s.cur-int64(s.w) || cycle < 0 {
		panic(errors.Errorf("write of pin %d at cycle %d outside of wave [%d, %d]", p, cycle, s.cur-int64(s.w)+1, s.cur))
	}
	s.write(p, cycle, v)
}

func (s *Store) write(p PinID, cycle int64, v Value) {
	i := s.slot(p, cycle)
	s.vals[i] = v
	s.stamps[i] = cycle + 1
}

// get is the allocation free version of Read.
func (s *Store) get(p PinID, cycle int64) (Value, bool) {
	i := s.slot(p, cycle)
	if s.stamps[i] != cycle+1 {
		return U, false
	}
	return s.vals[i], true
}

func (s *Store) written(p PinID, cycle int64) bool {
	return s.stamps[s.slot(p, cycle)] == cycle+1
}

// Read returns the value of pin p at the given cycle.
//
// It returns an error with cause ErrEvicted if the cycle is older than
// cur-W+1, or ErrNotWritten if the pin has not been written at that cycle.
//
func (s *Store) Read(p PinID, cycle int64) (Value, error) {
	if cycle < 0 || cycle > s.cur {
		return U, errors.Wrapf(ErrNotWritten, "pin %d at cycle %d (current %d)", p, cycle, s.cur)
	}
	if cycle <= s.cur-int64(s.w) {
		return U, errors.Wrapf(ErrEvicted, "pin %d at cycle %d (current %d)", p, cycle, s.cur)
	}
	v, ok := s.get(p, cycle)
	if !ok {
		return U, errors.Wrapf(ErrNotWritten, "pin %d at cycle %d", p, cycle)
	}
	return v, nil
}
