// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trace writes simulation traces: input and output vectors, switching
// activity and a ModelSim script replaying the input vectors.
//
// Vectors are buffered in memory for one wave of cycles, then written to
// every trace file in a single batch.
//
package trace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/netsim"
	"github.com/db47h/netsim/vector"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Trace file names.
//
const (
	InputVectorsFile  = "input_vectors"
	OutputVectorsFile = "output_vectors"
	ActivityFile      = "output_activity"
	ModelSimFile      = "test.do"
)

// DefaultPeriod is the default simulated time of a cycle in ModelSim scripts.
//
const DefaultPeriod = 100

// Edge selects the cycles written to the output vectors file.
//
type Edge int

// Output edges. With RisingEdge, outputs are only written for cycles where a
// clock input line goes from Lo to Hi. Netlists without clock inputs write
// every cycle.
//
const (
	BothEdges Edge = iota
	RisingEdge
)

var edgeNames = [...]string{BothEdges: "both", RisingEdge: "rising"}

func (e Edge) String() string {
	if e >= 0 && int(e) < len(edgeNames) {
		return edgeNames[e]
	}
	return "unknown"
}

// ParseEdge returns the Edge named s. The empty string is BothEdges.
//
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(s) {
	case "", "both":
		return BothEdges, nil
	case "rising":
		return RisingEdge, nil
	}
	return BothEdges, errors.Errorf("invalid output edge %q", s)
}

// ErrWaveFull is returned by Record when the wave buffer is full. The caller
// must Flush the sink before recording more cycles.
//
var ErrWaveFull = errors.New("wave buffer full")

// Options configures a Sink.
//
type Options struct {
	// Dir is the output directory. It is created if needed.
	Dir string
	// Wave is the number of cycles buffered between flushes.
	Wave int
	// Inputs and Outputs are the primary input and output lines.
	Inputs  *netsim.LineSet
	Outputs *netsim.LineSet
	// RecordInputs enables the input vectors file. It is usually disabled
	// when replaying vectors from a file.
	RecordInputs bool
	// Activity enables the activity file.
	Activity bool
	// ModelSim enables the ModelSim script. Top is the name of the design
	// unit it drives, Period the simulated time of a cycle (DefaultPeriod if
	// 0) and Comment an optional first line comment.
	ModelSim bool
	Top      string
	Period   int
	Comment  string
	// OutputEdge selects the cycles written to the output vectors file.
	// Input vectors and the ModelSim script always get every cycle.
	OutputEdge Edge
	// OnFlush, if not nil, is called after each successful flush with the
	// first and last flushed cycles.
	OnFlush func(first, last int64)
}

type row struct {
	cycle int64
	in    [][]netsim.Value
	out   [][]netsim.Value
	emit  bool // write outputs
}

type stream struct {
	name string
	f    *os.File
	w    *bufio.Writer
}

func create(dir, name string) (*stream, error) {
	fn := filepath.Join(dir, name)
	f, err := os.Create(fn)
	if err != nil {
		return nil, errors.Wrap(err, "create trace file")
	}
	return &stream{name: fn, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *stream) flush() error {
	return errors.Wrap(s.w.Flush(), s.name)
}

func (s *stream) close() error {
	err := s.flush()
	if cerr := s.f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, s.name)
	}
	return err
}

// Sink buffers simulated cycles and writes them to trace files.
//
// A Sink is not safe for concurrent use.
//
type Sink struct {
	opts   Options
	log    logr.Logger
	in     *stream
	out    *stream
	act    *stream
	do     *stream
	rows   []row
	n      int
	cycles int64
	err    error
	clocks []int          // indexes of clock input lines
	clk    []netsim.Value // clock values of the previous cycle
}

// Open creates the trace files in opts.Dir and returns a new Sink.
//
func Open(opts Options, log logr.Logger) (s *Sink, err error) {
	if opts.Wave < 1 {
		return nil, errors.Errorf("invalid wave length %d", opts.Wave)
	}
	if opts.Inputs == nil || opts.Outputs == nil {
		return nil, errors.New("missing input or output lines")
	}
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err = os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create trace directory")
	}

	s = &Sink{opts: opts, log: log, rows: make([]row, opts.Wave)}
	defer func() {
		if err != nil {
			s.closeAll()
		}
	}()
	if opts.RecordInputs {
		if s.in, err = create(opts.Dir, InputVectorsFile); err != nil {
			return nil, err
		}
		writeHeader(s.in.w, opts.Inputs)
	}
	if s.out, err = create(opts.Dir, OutputVectorsFile); err != nil {
		return nil, err
	}
	writeHeader(s.out.w, opts.Outputs)
	if opts.Activity {
		if s.act, err = create(opts.Dir, ActivityFile); err != nil {
			return nil, err
		}
	}
	if opts.ModelSim {
		if s.do, err = create(opts.Dir, ModelSimFile); err != nil {
			return nil, err
		}
		s.writeScriptHeader()
	}
	if opts.OutputEdge == RisingEdge {
		for i, l := range opts.Inputs.Lines() {
			if l.Clock {
				s.clocks = append(s.clocks, i)
				s.clk = append(s.clk, netsim.X)
			}
		}
	}
	for i := range s.rows {
		s.rows[i].in = opts.Inputs.Alloc()
		s.rows[i].out = opts.Outputs.Alloc()
	}
	log.Info("trace files opened", "dir", opts.Dir, "wave", opts.Wave)
	return s, nil
}

func (s *Sink) streams() []*stream {
	var ss []*stream
	for _, st := range []*stream{s.in, s.out, s.act, s.do} {
		if st != nil {
			ss = append(ss, st)
		}
	}
	return ss
}

func (s *Sink) closeAll() error {
	var err error
	for _, st := range s.streams() {
		if cerr := st.close(); err == nil {
			err = cerr
		}
	}
	s.in, s.out, s.act, s.do = nil, nil, nil, nil
	return err
}

func writeHeader(w *bufio.Writer, ls *netsim.LineSet) {
	w.WriteString(strings.Join(ls.Names(), " "))
	w.WriteByte('\n')
}

func writeRow(w *bufio.Writer, v [][]netsim.Value) {
	for i, l := range v {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(vector.Encode(l))
	}
	w.WriteByte('\n')
}

// Len returns the number of buffered cycles.
//
func (s *Sink) Len() int { return s.n }

// Cycles returns the number of flushed cycles.
//
func (s *Sink) Cycles() int64 { return s.cycles }

// Record buffers the input and output values of a cycle. It returns
// ErrWaveFull if the wave buffer is full.
//
func (s *Sink) Record(cycle int64, in, out [][]netsim.Value) error {
	if s.err != nil {
		return s.err
	}
	if s.n == len(s.rows) {
		return ErrWaveFull
	}
	if len(in) != s.opts.Inputs.Len() || len(out) != s.opts.Outputs.Len() {
		return errors.Errorf("cycle %d: line count mismatch", cycle)
	}
	r := &s.rows[s.n]
	r.cycle = cycle
	for i := range in {
		copy(r.in[i], in[i])
	}
	for i := range out {
		copy(r.out[i], out[i])
	}
	r.emit = s.edge(in)
	s.n++
	return nil
}

// edge reports whether the outputs of a cycle with inputs in must be written.
//
func (s *Sink) edge(in [][]netsim.Value) bool {
	if len(s.clocks) == 0 {
		return true
	}
	rising := false
	for i, l := range s.clocks {
		v := in[l][0]
		if s.clk[i] == netsim.Lo && v == netsim.Hi {
			rising = true
		}
		s.clk[i] = v
	}
	return rising
}

// Flush writes the buffered cycles to the trace files and empties the wave
// buffer. Each file is written by its own goroutine.
//
func (s *Sink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if s.n == 0 {
		return nil
	}
	rows := s.rows[:s.n]
	var g errgroup.Group
	if s.in != nil {
		g.Go(func() error {
			for i := range rows {
				writeRow(s.in.w, rows[i].in)
			}
			return s.in.flush()
		})
	}
	g.Go(func() error {
		for i := range rows {
			if rows[i].emit {
				writeRow(s.out.w, rows[i].out)
			}
		}
		return s.out.flush()
	})
	if s.do != nil {
		g.Go(func() error {
			for i := range rows {
				s.writeForces(&rows[i])
			}
			return s.do.flush()
		})
	}
	if err := g.Wait(); err != nil {
		s.err = errors.Wrap(err, "flush trace")
		return s.err
	}
	first, last := rows[0].cycle, rows[len(rows)-1].cycle
	s.cycles += int64(len(rows))
	s.n = 0
	s.log.V(1).Info("wave flushed", "first", first, "last", last)
	if s.opts.OnFlush != nil {
		s.opts.OnFlush(first, last)
	}
	return nil
}

// Close flushes buffered cycles, writes the activity file from act (which may
// be nil), then closes all trace files.
//
func (s *Sink) Close(act *netsim.Activity) error {
	if s.err == ErrClosed {
		return nil
	}
	err := s.Flush()
	if err == nil && s.act != nil && act != nil {
		writeActivity(s.act.w, act)
	}
	if cerr := s.closeAll(); err == nil {
		err = cerr
	}
	s.err = ErrClosed
	s.log.Info("trace files closed", "cycles", s.cycles)
	return err
}

// ErrClosed is returned by Sink methods called after Close or Abort.
//
var ErrClosed = errors.New("trace closed")

// Abort flushes buffered cycles if possible, then appends a truncation
// marker to every open trace file and closes them. Abort is used to
// terminate a trace on error: the marker tells readers that the trace is
// incomplete.
//
func (s *Sink) Abort(cycle int64, cause error) error {
	if s.err == ErrClosed {
		return nil
	}
	if s.err == nil {
		s.Flush()
	}
	for _, st := range s.streams() {
		fmt.Fprintf(st.w, "# truncated at cycle %d: %v\n", cycle, cause)
	}
	err := s.closeAll()
	s.err = ErrClosed
	s.log.Info("trace aborted", "cycle", cycle, "cause", cause.Error())
	return err
}

func writeActivity(w *bufio.Writer, act *netsim.Activity) {
	fmt.Fprintf(w, "# %d cycles\n# net transitions activity probability\n", act.Cycles())
	for i := 0; i < act.Len(); i++ {
		fmt.Fprintf(w, "%s %d %.6f %.6f\n", act.Name(i), act.Transitions(i), act.Switching(i), act.Probability(i))
	}
}

func (s *Sink) writeScriptHeader() {
	w := s.do.w
	if s.opts.Comment != "" {
		fmt.Fprintf(w, "# %s\n", s.opts.Comment)
	}
	fmt.Fprintf(w, "vsim -voptargs=+acc work.%s\n", s.opts.Top)
	w.WriteString("add wave *\n")
}

// forceValue formats v for a ModelSim force command.
//
func forceValue(v []netsim.Value) string {
	var b strings.Builder
	if len(v) > 1 {
		b.WriteString("2#")
	}
	for i := len(v) - 1; i >= 0; i-- {
		switch v[i] {
		case netsim.Lo:
			b.WriteByte('0')
		case netsim.Hi:
			b.WriteByte('1')
		default:
			b.WriteByte('X')
		}
	}
	return b.String()
}

func (s *Sink) writeForces(r *row) {
	for i, l := range s.opts.Inputs.Lines() {
		fmt.Fprintf(s.do.w, "force -freeze sim:/%s/%s %s\n", s.opts.Top, l.Name, forceValue(r.in[i]))
	}
	fmt.Fprintf(s.do.w, "run %d\n", s.opts.Period)
}
