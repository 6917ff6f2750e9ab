// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/netsim"
	hl "github.com/db47h/netsim/hwlib"
	"github.com/db47h/netsim/sim"
	"github.com/db47h/netsim/trace"
	"github.com/db47h/netsim/vector"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

func tempDir() string {
	dir, err := os.MkdirTemp("", "netsim")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)
	return dir
}

func readFile(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

func writeVectors(dir, content string) string {
	fn := filepath.Join(dir, "vectors.in")
	Expect(os.WriteFile(fn, []byte(content), 0644)).To(Succeed())
	return fn
}

func andNetlist() *netsim.Netlist {
	nl, err := netsim.NewNetlist("and", netsim.IO{In: "a, b", Out: "c"}, hl.And("a=a, b=b, out=c"))
	Expect(err).NotTo(HaveOccurred())
	return nl
}

func dffNetlist() *netsim.Netlist {
	nl, err := netsim.NewNetlist("dff", netsim.IO{In: "d", Out: "q"}, hl.DFF("in=d, out=q").Named("r0"))
	Expect(err).NotTo(HaveOccurred())
	return nl
}

func counterNetlist() *netsim.Netlist {
	nl, err := hl.ParseNetlist(strings.NewReader(`
CHIP Counter {
	IN en;
	CLOCK clk;
	OUT q[4];
	PARTS:
	add: Adder4(a=q, b[0]=en, b[1..3]=false, out=d);
	reg: Register4(in=d, load=clk, out=q);
}`))
	Expect(err).NotTo(HaveOccurred())
	return nl
}

func run(nl *netsim.Netlist, cfg sim.Config) *sim.Session {
	s := sim.NewSession(logr.Discard())
	Expect(s.Initialize(nl, cfg)).To(Succeed())
	Expect(s.Run(context.Background())).To(Succeed())
	return s
}

var _ = Describe("Session", func() {
	var (
		dir string
		cfg sim.Config
	)

	BeforeEach(func() {
		dir = tempDir()
		cfg = sim.DefaultConfig()
		cfg.OutputDir = dir
		cfg.Workers = 4
	})

	Context("replaying vectors", func() {
		It("should simulate an AND gate", func() {
			cfg.InputVectors = writeVectors(dir, "a b\n0 0\n0 1\n1 0\n1 1\n")
			cfg.Activity = true
			s := run(andNetlist(), cfg)
			Expect(s.Stats().Cycles).To(Equal(int64(4)))
			Expect(s.Terminate()).To(Succeed())

			Expect(readFile(dir, trace.OutputVectorsFile)).To(Equal("c\n0\n0\n0\n1\n"))
			Expect(readFile(dir, trace.ActivityFile)).To(ContainSubstring("\nc 2 0.500000 0.250000\n"))
			_, err := os.Stat(filepath.Join(dir, trace.InputVectorsFile))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("should delay a D flip flop by one cycle", func() {
			cfg.InputVectors = writeVectors(dir, "d\n1\n0\n1\n")
			s := run(dffNetlist(), cfg)
			Expect(s.Terminate()).To(Succeed())
			Expect(readFile(dir, trace.OutputVectorsFile)).To(Equal("q\nx\n1\n0\n"))
		})

		It("should count only waves that simulated cycles", func() {
			cfg.Wave = 4
			cfg.InputVectors = writeVectors(dir, "a b\n0 0\n0 1\n1 0\n1 1\n")
			s := run(andNetlist(), cfg)
			Expect(s.Stats().Cycles).To(Equal(int64(4)))
			Expect(s.Stats().Waves).To(Equal(int64(1)))
			Expect(s.Terminate()).To(Succeed())
		})

		It("should reject mismatched vector files", func() {
			cfg.InputVectors = writeVectors(dir, "a c\n0 0\n")
			s := sim.NewSession(logr.Discard())
			err := s.Initialize(andNetlist(), cfg)
			Expect(err).To(HaveOccurred())
			_, ok := errors.Cause(err).(*vector.FormatError)
			Expect(ok).To(BeTrue())
			Expect(s.State()).To(Equal(sim.Uninitialized))
		})

		It("should fail on malformed rows and truncate traces", func() {
			cfg.InputVectors = writeVectors(dir, "a b\n0 0\n1 1\n1 z\n")
			s := sim.NewSession(logr.Discard())
			Expect(s.Initialize(andNetlist(), cfg)).To(Succeed())
			err := s.Run(context.Background())
			Expect(err).To(HaveOccurred())
			_, ok := errors.Cause(err).(*vector.FormatError)
			Expect(ok).To(BeTrue())
			_, err2 := s.RunWave()
			Expect(err2).To(Equal(err))
			Expect(s.Terminate()).To(Succeed())
			Expect(readFile(dir, trace.OutputVectorsFile)).To(Equal("c\n0\n1\n# truncated at cycle 2: line 4: b: value \"z\": invalid logic value 'z'\n"))
		})
	})

	Context("with random vectors", func() {
		It("should flush traces every wave", func() {
			cfg.Vectors = 40
			cfg.Wave = 16
			s := sim.NewSession(logr.Discard())
			Expect(s.Initialize(andNetlist(), cfg)).To(Succeed())
			Expect(s.State()).To(Equal(sim.Initialized))
			for _, exp := range []bool{false, false, true} {
				done, err := s.RunWave()
				Expect(err).NotTo(HaveOccurred())
				Expect(done).To(Equal(exp))
				Expect(s.State()).To(Equal(sim.Running))
			}
			st := s.Stats()
			Expect(st.Cycles).To(Equal(int64(40)))
			Expect(st.Waves).To(Equal(int64(3)))
			Expect(st.Nodes).To(Equal(7))
			Expect(s.Terminate()).To(Succeed())

			for _, f := range []string{trace.InputVectorsFile, trace.OutputVectorsFile} {
				lines := strings.Split(strings.TrimSpace(readFile(dir, f)), "\n")
				Expect(lines).To(HaveLen(41))
			}
		})

		It("should honor hold constraints", func() {
			cfg.Vectors = 32
			cfg.HoldHigh = []string{"a"}
			cfg.HoldLow = []string{"b"}
			s := run(andNetlist(), cfg)
			Expect(s.Terminate()).To(Succeed())
			lines := strings.Split(strings.TrimSpace(readFile(dir, trace.InputVectorsFile)), "\n")
			Expect(lines).To(HaveLen(33))
			for _, l := range lines[1:] {
				Expect(l).To(Equal("1 0"))
			}
		})

		It("should reject conflicting hold constraints", func() {
			cfg.HoldHigh = []string{"a", "b"}
			cfg.HoldLow = []string{"b"}
			s := sim.NewSession(logr.Discard())
			err := s.Initialize(andNetlist(), cfg)
			Expect(errors.Cause(err)).To(Equal(vector.ErrHoldConflict))
			Expect(s.State()).To(Equal(sim.Uninitialized))
		})

		It("should produce identical traces with any worker count", func() {
			nl := counterNetlist()
			cfg.Vectors = 100
			cfg.StageThreshold = 1
			cfg.ModelSim = true
			var outs []string
			for _, w := range []int{1, 8} {
				cfg.Workers = w
				cfg.OutputDir = filepath.Join(dir, "w")
				s := run(nl, cfg)
				Expect(s.Terminate()).To(Succeed())
				outs = append(outs, readFile(cfg.OutputDir, trace.OutputVectorsFile))
			}
			Expect(outs[0]).To(Equal(outs[1]))
		})

		It("should write outputs on rising clock edges only", func() {
			cfg.Vectors = 8
			cfg.HoldHigh = []string{"en"}
			cfg.OutputEdge = "rising"
			s := run(counterNetlist(), cfg)
			Expect(s.Terminate()).To(Succeed())
			in := strings.Split(strings.TrimSpace(readFile(dir, trace.InputVectorsFile)), "\n")
			Expect(in).To(HaveLen(9))
			out := strings.Split(strings.TrimSpace(readFile(dir, trace.OutputVectorsFile)), "\n")
			Expect(out).To(HaveLen(5))
			Expect(out[0]).To(Equal("q"))
		})

		It("should drive clocks at their ratio", func() {
			cfg.Vectors = 8
			cfg.HoldHigh = []string{"en"}
			cfg.ClockRatios = map[string]int{"clk": 2}
			s := run(counterNetlist(), cfg)
			Expect(s.Terminate()).To(Succeed())
			lines := strings.Split(strings.TrimSpace(readFile(dir, trace.InputVectorsFile)), "\n")
			Expect(lines[0]).To(Equal("en clk"))
			Expect(lines[1:]).To(Equal([]string{"1 0", "1 0", "1 1", "1 1", "1 0", "1 0", "1 1", "1 1"}))
		})
	})

	Context("state machine", func() {
		It("should reject out of order calls", func() {
			s := sim.NewSession(logr.Discard())
			_, err := s.RunWave()
			Expect(errors.Cause(err)).To(Equal(sim.ErrState))
			_, err = s.NodeByName("a")
			Expect(errors.Cause(err)).To(Equal(sim.ErrState))

			Expect(s.Initialize(andNetlist(), cfg)).To(Succeed())
			Expect(errors.Cause(s.Initialize(andNetlist(), cfg))).To(Equal(sim.ErrState))

			Expect(s.Terminate()).To(Succeed())
			Expect(s.State()).To(Equal(sim.Terminated))
			Expect(s.Terminate()).To(Equal(sim.ErrTerminated))
			_, err = s.RunWave()
			Expect(err).To(Equal(sim.ErrTerminated))
			Expect(s.Initialize(andNetlist(), cfg)).To(Equal(sim.ErrTerminated))
			_, err = s.PinValue(0, 0)
			Expect(err).To(Equal(sim.ErrTerminated))
		})

		It("should stop at wave boundaries when cancelled", func() {
			cfg.Vectors = 1000
			s := sim.NewSession(logr.Discard())
			Expect(s.Initialize(andNetlist(), cfg)).To(Succeed())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(s.Run(ctx)).To(Equal(context.Canceled))
			Expect(s.Stats().Cycles).To(BeZero())
			Expect(s.Terminate()).To(Succeed())
		})

		It("should reject invalid configurations", func() {
			cfg.Wave = 1
			s := sim.NewSession(logr.Discard())
			Expect(errors.Cause(s.Initialize(andNetlist(), cfg))).To(Equal(sim.ErrConfig))

			cfg = sim.DefaultConfig()
			cfg.OutputDir = dir
			cfg.ClockRatios = map[string]int{"nope": 2}
			Expect(errors.Cause(s.Initialize(andNetlist(), cfg))).To(Equal(sim.ErrConfig))

			cfg.ClockRatios = nil
			cfg.OutputEdge = "falling"
			Expect(errors.Cause(s.Initialize(andNetlist(), cfg))).To(Equal(sim.ErrConfig))
		})

		It("should reject combinational loops", func() {
			nl, err := netsim.NewNetlist("loop", netsim.IO{Out: "x"},
				hl.Not("in=y, out=x"),
				hl.Not("in=x, out=y"),
			)
			Expect(err).NotTo(HaveOccurred())
			s := sim.NewSession(logr.Discard())
			err = s.Initialize(nl, cfg)
			Expect(errors.Cause(err)).To(Equal(netsim.ErrCombinationalLoop))
		})
	})

	Context("queries", func() {
		var (
			s  *sim.Session
			nl *netsim.Netlist
		)

		BeforeEach(func() {
			nl = andNetlist()
			cfg.InputVectors = writeVectors(dir, "a b\n1 1\n1 0\n")
			s = sim.NewSession(logr.Discard())
			Expect(s.Initialize(nl, cfg)).To(Succeed())
			DeferCleanup(s.Terminate)
		})

		It("should find nodes by name", func() {
			for _, name := range []string{"a", "b", "c", "AND_0", "GND", "VCC", "PAD"} {
				id, err := s.NodeByName(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(nl.Node(id).Name).To(Equal(name))
			}
			_, err := s.NodeByName("d")
			Expect(err).To(HaveOccurred())
		})

		It("should walk the netlist", func() {
			a, _ := s.NodeByName("a")
			and, _ := s.NodeByName("AND_0")
			c, _ := s.NodeByName("c")
			ch, err := s.Children(a)
			Expect(err).NotTo(HaveOccurred())
			Expect(ch).To(Equal([]netsim.NodeID{and}))
			ch, err = s.ChildrenOfPin(and, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ch).To(Equal([]netsim.NodeID{c}))
			_, err = s.ChildrenOfPin(and, 1)
			Expect(err).To(HaveOccurred())
			p, err := s.Parents(and)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(ConsistOf(a, mustNode(s, "b")))
			_, err = s.Children(netsim.NodeID(len(nl.Nodes)))
			Expect(err).To(HaveOccurred())
		})

		It("should report pin values of the last wave", func() {
			Expect(s.Run(context.Background())).To(Succeed())
			and, _ := s.NodeByName("AND_0")
			out := nl.Node(and).Outputs[0]
			v, err := s.PinValue(out, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(netsim.Hi))
			v, err = s.PinValue(out, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(netsim.Lo))
			_, err = s.PinValue(out, 2)
			Expect(errors.Cause(err)).To(Equal(netsim.ErrNotWritten))
		})

		It("should get and set clock ratios", func() {
			and, _ := s.NodeByName("AND_0")
			r, err := s.ClockRatio(and)
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(1))
			Expect(s.SetClockRatio(and, 3)).To(Succeed())
			r, _ = s.ClockRatio(and)
			Expect(r).To(Equal(3))
			Expect(s.SetClockRatio(and, 0)).NotTo(Succeed())
		})
	})
})

func mustNode(s *sim.Session, name string) netsim.NodeID {
	id, err := s.NodeByName(name)
	Expect(err).NotTo(HaveOccurred())
	return id
}

var _ = Describe("Config", func() {
	It("should load YAML files over defaults", func() {
		dir := tempDir()
		fn := filepath.Join(dir, "sim.yaml")
		Expect(os.WriteFile(fn, []byte(`
wave: 32
vectors: 500
hold_high: [a]
hold_low: ["bus[1]"]
activity: true
output_edge: rising
clock_ratios:
  clk: 4
`), 0644)).To(Succeed())
		cfg, err := sim.LoadConfig(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Wave).To(Equal(32))
		Expect(cfg.Vectors).To(Equal(int64(500)))
		Expect(cfg.StageThreshold).To(Equal(netsim.DefaultThreshold))
		Expect(cfg.HoldHigh).To(Equal([]string{"a"}))
		Expect(cfg.HoldLow).To(Equal([]string{"bus[1]"}))
		Expect(cfg.Activity).To(BeTrue())
		Expect(cfg.ClockRatios).To(HaveKeyWithValue("clk", 4))
		Expect(cfg.OutputEdge).To(Equal("rising"))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should report malformed files", func() {
		dir := tempDir()
		fn := filepath.Join(dir, "sim.yaml")
		Expect(os.WriteFile(fn, []byte("wave: [1"), 0644)).To(Succeed())
		_, err := sim.LoadConfig(fn)
		Expect(errors.Cause(err)).To(Equal(sim.ErrConfig))
		_, err = sim.LoadConfig(filepath.Join(dir, "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})
})
