// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// MaxWorkers caps the number of worker goroutines of a Circuit.
//
const MaxWorkers = 32

// Options configures a Circuit.
//
type Options struct {
	// Workers is the number of goroutines used to evaluate large stages. If
	// less or equal to 0, the value of GOMAXPROCS will be used. The value is
	// capped at MaxWorkers.
	Workers int
	// Wave is the pin history length. If 0, DefaultWave is used.
	Wave int
}

// Circuit is a runnable circuit simulation: it evaluates a staged netlist one
// cycle at a time.
//
// Stages are evaluated in order. The nodes of a stage are evaluated
// concurrently by worker goroutines if the stage is large enough, and the
// circuit waits for the whole stage to complete before moving on to the next
// one.
//
// Callers must make sure to call Dispose() once the circuit is no longer
// needed in order to release allocated resources.
//
type Circuit struct {
	nl    *Netlist
	st    *Stages
	store *Store
	comps []Component
	src   []PinID // value source of each pin: the driver for input pins
	in    *LineSet
	out   *LineSet
	act   *Activity

	cycle int64
	next  int64
	err   error

	workers int
	jobs    chan []NodeID
	wg      sync.WaitGroup // stage barrier
	done    sync.WaitGroup // worker exit
	mu      sync.Mutex
	fault   error
}

// NewCircuit builds a new circuit for the given netlist. If st is nil, the
// netlist is staged with BuildStages and DefaultThreshold.
//
func NewCircuit(nl *Netlist, st *Stages, opts Options) (*Circuit, error) {
	var err error
	if st == nil {
		if st, err = BuildStages(nl, 0); err != nil {
			return nil, err
		}
	} else if err = st.Verify(nl); err != nil {
		return nil, errors.Wrap(err, "invalid stages")
	}
	wave := opts.Wave
	if wave == 0 {
		wave = DefaultWave
	}
	store, err := NewStore(len(nl.Pins), wave)
	if err != nil {
		return nil, err
	}

	c := &Circuit{
		nl:    nl,
		st:    st,
		store: store,
		comps: make([]Component, len(nl.Nodes)),
		src:   make([]PinID, len(nl.Pins)),
		in:    nl.InputLines(),
		out:   nl.OutputLines(),
		act:   newActivity(nl),
	}
	for i := range nl.Pins {
		p := &nl.Pins[i]
		c.src[i] = p.ID
		if p.Dir == In {
			if p.Driver == NoPin {
				return nil, errors.New("pin " + p.Name + " not connected to any output")
			}
			c.src[i] = p.Driver
		}
	}
	for i := range nl.Nodes {
		n := &nl.Nodes[i]
		if n.Part != nil && n.Part.Mount != nil {
			c.comps[i] = n.Part.Mount(newSocket(nl, n))
		}
	}

	// workers
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	if workers > 1 {
		c.workers = workers
		c.jobs = make(chan []NodeID, workers)
		c.done.Add(workers)
		for i := 0; i < workers; i++ {
			go worker(c)
		}
	}
	return c, nil
}

func worker(c *Circuit) {
	defer c.done.Done()
	for nodes := range c.jobs {
		c.run(nodes)
		c.wg.Done()
	}
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines. Dispose is idempotent.
//
func (c *Circuit) Dispose() {
	if c.jobs != nil {
		close(c.jobs)
		c.done.Wait()
		c.jobs = nil
	}
	if c.err == nil {
		c.err = ErrDisposed
	}
}

// Netlist returns the circuit's netlist.
//
func (c *Circuit) Netlist() *Netlist { return c.nl }

// Stages returns the circuit's stages.
//
func (c *Circuit) Stages() *Stages { return c.st }

// Store returns the circuit's pin value store.
//
func (c *Circuit) Store() *Store { return c.store }

// Activity returns the switching activity accumulated so far.
//
func (c *Circuit) Activity() *Activity { return c.act }

// InputLines returns the primary input lines, in the order expected by
// AdvanceCycle.
//
func (c *Circuit) InputLines() *LineSet { return c.in }

// OutputLines returns the primary output lines, in the order returned by
// AdvanceCycle.
//
func (c *Circuit) OutputLines() *LineSet { return c.out }

// Workers returns the number of worker goroutines, 0 if all stages are
// evaluated on the calling goroutine.
//
func (c *Circuit) Workers() int { return c.workers }

// NextCycle returns the index of the next cycle to simulate.
//
func (c *Circuit) NextCycle() int64 { return c.next }

// AdvanceCycle simulates one cycle. cycle must be the value returned by
// NextCycle. inputs holds the values of each primary input line (see
// InputLines), bit 0 first.
//
// AdvanceCycle returns the values of the primary output lines for the cycle.
// If a node reads a pin that has not been written in the current cycle, the
// circuit is left in a failed state and all subsequent calls return an error
// with cause ErrInconsistent.
//
func (c *Circuit) AdvanceCycle(cycle int64, inputs [][]Value) ([][]Value, error) {
	if c.err != nil {
		return nil, c.err
	}
	if cycle != c.next {
		return nil, errors.Errorf("cycle %d out of order, expected %d", cycle, c.next)
	}
	if len(inputs) != c.in.Len() {
		return nil, errors.Errorf("got %d input lines, expected %d", len(inputs), c.in.Len())
	}
	for i, l := range c.in.lines {
		if len(inputs[i]) != len(l.Pins) {
			return nil, errors.Errorf("input line %s: got %d bits, expected %d", l.Name, len(inputs[i]), len(l.Pins))
		}
	}

	c.cycle = cycle
	c.store.Begin(cycle)
	for i, l := range c.in.lines {
		for j, p := range l.Pins {
			c.Set(p, inputs[i][j])
		}
	}

	for k := range c.st.Stages {
		c.runStage(k)
		if c.fault != nil {
			c.err = errors.WithMessagef(c.fault, "cycle %d, stage %d", cycle, k)
			return nil, c.err
		}
	}

	c.act.observe(c.store, cycle)
	out := c.out.Alloc()
	for i, l := range c.out.lines {
		for j, p := range l.Pins {
			out[i][j] = c.valueAt(c.src[p], cycle)
		}
	}
	c.next++
	return out, nil
}

func (c *Circuit) runStage(k int) {
	nodes := c.st.Stages[k]
	if c.jobs == nil || !c.st.Parallel(k) {
		c.run(nodes)
		return
	}
	size := (len(nodes) + c.workers - 1) / c.workers
	for len(nodes) > 0 {
		n := min(size, len(nodes))
		c.wg.Add(1)
		c.jobs <- nodes[:n]
		nodes = nodes[n:]
	}
	c.wg.Wait()
}

func (c *Circuit) run(nodes []NodeID) {
	defer func() {
		if r := recover(); r != nil {
			c.setFault(r)
		}
	}()
	for _, id := range nodes {
		c.eval(id)
	}
}

func (c *Circuit) setFault(r interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fault != nil {
		return
	}
	if err, ok := r.(error); ok {
		c.fault = err
	} else {
		c.fault = errors.Errorf("panic: %v", r)
	}
}

func (c *Circuit) eval(id NodeID) {
	comp := c.comps[id]
	if comp == nil {
		return
	}
	n := &c.nl.Nodes[id]
	if r := int64(n.Ratio); r > 1 && c.cycle%r != 0 {
		// not a tick for this node: hold outputs.
		for _, o := range n.Outputs {
			c.store.write(o, c.cycle, c.valueAt(o, c.cycle-1))
		}
		return
	}
	comp(c)
	for _, o := range n.Outputs {
		if !c.store.written(o, c.cycle) {
			panic(&ConsistencyError{Pin: c.nl.Pins[o].Name, Cycle: c.cycle, Reason: "output not written by " + n.Name})
		}
	}
}

// initial returns the value of output pin p before the first cycle.
func (c *Circuit) initial(p PinID) Value {
	return c.nl.Nodes[c.nl.Pins[p].Node].Init
}

// valueAt returns the value of output pin p at the given cycle.
func (c *Circuit) valueAt(p PinID, cycle int64) Value {
	if cycle < 0 {
		return c.initial(p)
	}
	v, ok := c.store.get(p, cycle)
	if !ok {
		panic(&ConsistencyError{Pin: c.nl.Pins[p].Name, Cycle: cycle, Reason: "read before write"})
	}
	return v
}

// Cycle returns the cycle being evaluated.
//
func (c *Circuit) Cycle() int64 { return c.cycle }

// Get returns the value of pin p for the current cycle. For sequential input
// pins, Get returns the value of the previous cycle, like Prev.
//
// Get panics with a *ConsistencyError if the pin has not been written yet for
// the cycle.
//
func (c *Circuit) Get(p PinID) Value {
	if c.nl.Pins[p].Sequential {
		return c.valueAt(c.src[p], c.cycle-1)
	}
	return c.valueAt(c.src[p], c.cycle)
}

// Prev returns the value of pin p at the previous cycle. At cycle 0, Prev
// returns the initial value of the node driving p.
//
func (c *Circuit) Prev(p PinID) Value {
	return c.valueAt(c.src[p], c.cycle-1)
}

// Rising returns true if pin p went from Lo to Hi between the previous and
// current cycle.
//
func (c *Circuit) Rising(p PinID) bool {
	return c.Prev(p) == Lo && c.valueAt(c.src[p], c.cycle) == Hi
}

// Set sets the value of output pin p for the current cycle. U is stored as X.
//
func (c *Circuit) Set(p PinID, v Value) {
	if v == U {
		v = X
	}
	c.store.write(p, c.cycle, v)
}

// PinValue returns the value of pin p at the given cycle. For input pins, it
// returns the value of the driving output.
//
func (c *Circuit) PinValue(p PinID, cycle int64) (Value, error) {
	if int(p) < 0 || int(p) >= len(c.src) {
		return U, errors.Errorf("invalid pin %d", p)
	}
	v, err := c.store.Read(c.src[p], cycle)
	if err != nil {
		return U, errors.WithMessage(err, c.nl.Pins[p].Name)
	}
	return v, nil
}

// ClockRatio returns the clock ratio of node id.
//
func (c *Circuit) ClockRatio(id NodeID) int {
	return c.nl.Nodes[id].Ratio
}

// SetClockRatio sets the clock ratio of node id. It must not be called while
// a cycle is being simulated.
//
func (c *Circuit) SetClockRatio(id NodeID, ratio int) error {
	if int(id) < 0 || int(id) >= len(c.nl.Nodes) {
		return errors.Errorf("invalid node %d", id)
	}
	if ratio < 1 {
		return errors.Errorf("invalid clock ratio %d for node %s", ratio, c.nl.Nodes[id].Name)
	}
	c.nl.Nodes[id].Ratio = ratio
	return nil
}
