// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package sim drives simulation sessions: it ties a netlist, a vector source,
// a circuit and trace files together and runs the simulation wave by wave.
//
// A Session goes through the following states:
//
//	Uninitialized --Initialize--> Initialized --RunWave--> Running --Terminate--> Terminated
//
// Terminate can be called from any state. Once terminated, every operation of
// a session returns an error with cause ErrTerminated.
//
package sim

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/db47h/netsim"
	"github.com/db47h/netsim/trace"
	"github.com/db47h/netsim/vector"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Session errors.
//
var (
	ErrTerminated = errors.New("session terminated")
	ErrState      = errors.New("operation not allowed in this session state")
)

// State is the state of a Session.
//
type State int

// Session states.
//
const (
	Uninitialized State = iota
	Initialized
	Running
	Terminated
)

var stateNames = [...]string{"uninitialized", "initialized", "running", "terminated"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// Stats holds session statistics.
//
type Stats struct {
	Cycles int64
	Waves  int64
	// Wall is the time elapsed since initialization, Sim the time spent
	// simulating cycles.
	Wall time.Duration
	Sim  time.Duration
	// Netlist and stage statistics.
	Nodes          int
	Connections    int
	Stages         int
	AvgWorkerCount float64
	Workers        int
}

// Session is a simulation session. A session simulates a single netlist and is
// not safe for concurrent use.
//
type Session struct {
	ID uuid.UUID

	log       logr.Logger
	state     State
	cfg       Config
	nl        *netsim.Netlist
	c         *netsim.Circuit
	src       vector.Source
	rnd       *vector.Random
	sink      *trace.Sink
	cycle     int64
	remaining int64 // -1 for unbounded sources
	waves     int64
	start     time.Time
	simTime   time.Duration
	names     map[string]netsim.NodeID
	err       error
}

// NewSession returns a new uninitialized session.
//
func NewSession(log logr.Logger) *Session {
	id := uuid.New()
	return &Session{ID: id, log: log.WithValues("session", id.String())}
}

// State returns the session state.
//
func (s *Session) State() State { return s.state }

func (s *Session) check(states ...State) error {
	if s.state == Terminated {
		return ErrTerminated
	}
	for _, st := range states {
		if s.state == st {
			return nil
		}
	}
	return errors.Wrapf(ErrState, "%s session", s.state)
}

// Initialize prepares the session to simulate nl with the given
// configuration: it stages the netlist, opens the vector source and the trace
// files.
//
// Configuration errors (invalid values, conflicting hold sets, malformed
// vector files) and structural errors (combinational loops) are reported
// before any cycle is simulated and leave the session uninitialized.
//
func (s *Session) Initialize(nl *netsim.Netlist, cfg Config) (err error) {
	if err = s.check(Uninitialized); err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	holds, err := vector.NewHoldSet(cfg.HoldHigh, cfg.HoldLow)
	if err != nil {
		return errors.WithMessage(err, "hold sets")
	}
	st, err := netsim.BuildStages(nl, cfg.StageThreshold)
	if err != nil {
		return errors.WithMessage(err, nl.Name)
	}
	c, err := netsim.NewCircuit(nl, st, netsim.Options{Workers: cfg.Workers, Wave: cfg.Wave})
	if err != nil {
		return errors.WithMessage(err, nl.Name)
	}
	defer func() {
		if err != nil {
			c.Dispose()
		}
	}()
	if err = applyClockRatios(nl, c, cfg.ClockRatios); err != nil {
		return err
	}

	var (
		src       vector.Source
		rnd       *vector.Random
		remaining int64
	)
	in := c.InputLines()
	if cfg.InputVectors != "" {
		f, err := os.Open(cfg.InputVectors)
		if err != nil {
			return errors.Wrap(err, "open input vectors")
		}
		if src, err = vector.NewReader(f, in); err != nil {
			f.Close()
			return errors.WithMessage(err, cfg.InputVectors)
		}
		remaining = -1
	} else {
		if u := holds.Unknown(in); len(u) > 0 {
			s.log.Info("ignoring hold constraints on unknown inputs", "names", u)
		}
		rnd = vector.NewRandom(in, holds, cfg.Seed)
		for _, l := range in.Lines() {
			if l.Clock {
				if err = rnd.SetClockRatio(l.Name, c.ClockRatio(nl.Pins[l.Pins[0]].Node)); err != nil {
					return err
				}
			}
		}
		src, remaining = rnd, cfg.Vectors
	}

	edge, _ := trace.ParseEdge(cfg.OutputEdge) // checked by Validate
	sink, err := trace.Open(trace.Options{
		Dir:          cfg.OutputDir,
		Wave:         cfg.Wave,
		Inputs:       in,
		Outputs:      c.OutputLines(),
		RecordInputs: cfg.InputVectors == "",
		Activity:     cfg.Activity,
		ModelSim:     cfg.ModelSim,
		Top:          nl.Name,
		Comment:      "netsim session " + s.ID.String(),
		OutputEdge:   edge,
	}, s.log)
	if err != nil {
		src.Close()
		return err
	}

	s.cfg, s.nl, s.c = cfg, nl, c
	s.src, s.rnd, s.sink = src, rnd, sink
	s.remaining = remaining
	s.start = time.Now()
	s.state = Initialized
	s.log.Info("session initialized", "netlist", nl.Name, "nodes", st.NumNodes,
		"stages", st.Count(), "workers", c.Workers(), "wave", cfg.Wave)
	return nil
}

// applyClockRatios sets the clock ratio of named clock lines or nodes.
//
func applyClockRatios(nl *netsim.Netlist, c *netsim.Circuit, ratios map[string]int) error {
	if len(ratios) == 0 {
		return nil
	}
	names := make(map[string]netsim.NodeID, len(nl.Nodes))
	for i := range nl.Nodes {
		names[nl.Nodes[i].Name] = netsim.NodeID(i)
	}
	for name, r := range ratios {
		if l, ok := c.InputLines().Lookup(name); ok {
			for _, p := range l.Pins {
				if err := c.SetClockRatio(nl.Pins[p].Node, r); err != nil {
					return errors.Wrap(ErrConfig, err.Error())
				}
			}
			continue
		}
		id, ok := names[name]
		if !ok {
			return errors.Wrapf(ErrConfig, "clock ratio: no line or node named %s", name)
		}
		if err := c.SetClockRatio(id, r); err != nil {
			return errors.Wrap(ErrConfig, err.Error())
		}
	}
	return nil
}

// RunWave simulates one wave of cycles and flushes the traces. It returns
// true once the vector source is exhausted.
//
// Errors are fatal: the traces are closed with a truncation marker and every
// subsequent call to RunWave returns the same error.
//
func (s *Session) RunWave() (done bool, err error) {
	if err = s.check(Initialized, Running); err != nil {
		return false, err
	}
	if s.err != nil {
		return false, s.err
	}
	s.state = Running
	in := s.c.InputLines().Alloc()
	for i := 0; i < s.cfg.Wave; i++ {
		if s.remaining == 0 {
			done = true
			break
		}
		if err = s.src.Next(s.cycle, in); err != nil {
			if err == io.EOF {
				done = true
				break
			}
			return false, s.fail(err)
		}
		t := time.Now()
		out, err := s.c.AdvanceCycle(s.cycle, in)
		s.simTime += time.Since(t)
		if err != nil {
			return false, s.fail(err)
		}
		if err = s.sink.Record(s.cycle, in, out); err != nil {
			return false, s.fail(err)
		}
		s.cycle++
		if s.remaining > 0 {
			s.remaining--
		}
	}
	n := s.sink.Len()
	if err = s.sink.Flush(); err != nil {
		return false, s.fail(err)
	}
	if n > 0 {
		s.waves++
		s.log.V(1).Info("wave done", "wave", s.waves, "cycles", s.cycle)
	}
	return done || s.remaining == 0, nil
}

func (s *Session) fail(err error) error {
	s.err = errors.WithMessagef(err, "cycle %d", s.cycle)
	s.sink.Abort(s.cycle, err)
	s.log.Error(err, "simulation failed", "cycle", s.cycle)
	return s.err
}

// Run runs waves until the vector source is exhausted or ctx is done. The
// context is only checked between waves.
//
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		done, err := s.RunWave()
		if err != nil || done {
			return err
		}
	}
}

// Terminate flushes and closes the traces, writes the activity file and
// releases all resources. The session cannot be used afterwards.
//
func (s *Session) Terminate() error {
	if s.state == Terminated {
		return ErrTerminated
	}
	var err error
	if s.state != Uninitialized {
		if s.err == nil {
			err = s.sink.Close(s.c.Activity())
		}
		if cerr := s.src.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close vector source")
		}
		s.c.Dispose()
		st := s.Stats()
		s.log.Info("session terminated", "cycles", st.Cycles, "waves", st.Waves,
			"wall", st.Wall.String(), "sim", st.Sim.String())
	}
	s.state = Terminated
	return err
}

// Stats returns the session statistics.
//
func (s *Session) Stats() Stats {
	st := Stats{Cycles: s.cycle, Waves: s.waves, Sim: s.simTime}
	if s.c == nil {
		return st
	}
	st.Wall = time.Since(s.start)
	stg := s.c.Stages()
	st.Nodes = stg.NumNodes
	st.Connections = stg.NumConnections
	st.Stages = stg.Count()
	st.AvgWorkerCount = stg.AvgWorkerCount()
	st.Workers = s.c.Workers()
	return st
}

// Netlist returns the simulated netlist, nil if the session is not
// initialized.
//
func (s *Session) Netlist() *netsim.Netlist { return s.nl }

func (s *Session) checkNode(id netsim.NodeID) error {
	if err := s.check(Initialized, Running); err != nil {
		return err
	}
	if int(id) < 0 || int(id) >= len(s.nl.Nodes) {
		return errors.Errorf("invalid node %d", id)
	}
	return nil
}

// PinValue returns the value of pin p at the given cycle. Only the last wave
// of cycles is available.
//
func (s *Session) PinValue(p netsim.PinID, cycle int64) (netsim.Value, error) {
	if err := s.check(Initialized, Running); err != nil {
		return netsim.U, err
	}
	return s.c.PinValue(p, cycle)
}

// ClockRatio returns the clock ratio of node id.
//
func (s *Session) ClockRatio(id netsim.NodeID) (int, error) {
	if err := s.checkNode(id); err != nil {
		return 0, err
	}
	return s.c.ClockRatio(id), nil
}

// SetClockRatio sets the clock ratio of node id. For clock inputs, it also
// sets the oscillation half period of random vectors.
//
func (s *Session) SetClockRatio(id netsim.NodeID, ratio int) error {
	if err := s.checkNode(id); err != nil {
		return err
	}
	if err := s.c.SetClockRatio(id, ratio); err != nil {
		return err
	}
	if n := s.nl.Node(id); n.Type == netsim.TypeClock && s.rnd != nil {
		name, _ := netsim.SplitBusPin(n.Name)
		return s.rnd.SetClockRatio(name, ratio)
	}
	return nil
}

// Children returns the nodes driven by node id.
//
func (s *Session) Children(id netsim.NodeID) ([]netsim.NodeID, error) {
	if err := s.checkNode(id); err != nil {
		return nil, err
	}
	return s.nl.Children(id), nil
}

// ChildrenOfPin returns the nodes driven by the out-th output pin of node id.
//
func (s *Session) ChildrenOfPin(id netsim.NodeID, out int) ([]netsim.NodeID, error) {
	if err := s.checkNode(id); err != nil {
		return nil, err
	}
	if out < 0 || out >= len(s.nl.Node(id).Outputs) {
		return nil, errors.Errorf("node %s has no output %d", s.nl.Node(id).Name, out)
	}
	return s.nl.ChildrenOfPin(id, out), nil
}

// Parents returns the nodes driving node id.
//
func (s *Session) Parents(id netsim.NodeID) ([]netsim.NodeID, error) {
	if err := s.checkNode(id); err != nil {
		return nil, err
	}
	return s.nl.Parents(id), nil
}

// NodeByName returns the node with the given name. The name index is built
// on first use by walking the netlist from its primary inputs and constants.
//
func (s *Session) NodeByName(name string) (netsim.NodeID, error) {
	if err := s.check(Initialized, Running); err != nil {
		return 0, err
	}
	if s.names == nil {
		s.names = nodeIndex(s.nl)
	}
	id, ok := s.names[name]
	if !ok {
		return 0, errors.Errorf("no node named %s", name)
	}
	return id, nil
}

func nodeIndex(nl *netsim.Netlist) map[string]netsim.NodeID {
	names := make(map[string]netsim.NodeID, len(nl.Nodes))
	seen := make([]bool, len(nl.Nodes))
	queue := []netsim.NodeID{nl.GND, nl.VCC, nl.Pad}
	for _, p := range nl.PrimaryInputs {
		queue = append(queue, nl.Pins[p].Node)
	}
	for _, id := range queue {
		seen[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		names[nl.Nodes[id].Name] = id
		for _, ch := range nl.Children(id) {
			if !seen[ch] {
				seen[ch] = true
				queue = append(queue, ch)
			}
		}
	}
	// nodes only reachable through themselves, like a register feeding
	// back into itself.
	for i := range nl.Nodes {
		if !seen[i] {
			names[nl.Nodes[i].Name] = netsim.NodeID(i)
		}
	}
	return names
}
