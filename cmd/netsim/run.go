// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/db47h/netsim/sim"
	"github.com/spf13/cobra"
)

var (
	configFile string
	flagCfg    = sim.DefaultConfig()
)

var runCmd = &cobra.Command{
	Use:   "run [flags] netlist",
	Short: "Simulate a netlist",
	Long: `Run simulates a netlist with random or recorded input vectors.

Flags override the values of the configuration file given with --config.
The simulation can be interrupted with Ctrl+C: it stops at the end of the
current wave and the trace files are closed normally.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := sim.DefaultConfig()
		if configFile != "" {
			var err error
			if cfg, err = sim.LoadConfig(configFile); err != nil {
				return err
			}
		}
		overrideConfig(cmd, &cfg)

		nl, err := loadNetlist(args[0])
		if err != nil {
			return err
		}
		log := newLogger()
		s := sim.NewSession(log)
		if err = s.Initialize(nl, cfg); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = s.Run(ctx)
		if terr := s.Terminate(); err == nil {
			err = terr
		}
		st := s.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "%d cycles in %d waves, %v simulation time, %v total\n",
			st.Cycles, st.Waves, st.Sim, st.Wall)
		return err
	},
}

// overrideConfig copies the flags set on the command line to cfg.
//
func overrideConfig(cmd *cobra.Command, cfg *sim.Config) {
	f := cmd.Flags()
	set := func(name string, fn func()) {
		if f.Changed(name) {
			fn()
		}
	}
	set("wave", func() { cfg.Wave = flagCfg.Wave })
	set("workers", func() { cfg.Workers = flagCfg.Workers })
	set("threshold", func() { cfg.StageThreshold = flagCfg.StageThreshold })
	set("vectors", func() { cfg.Vectors = flagCfg.Vectors })
	set("seed", func() { cfg.Seed = flagCfg.Seed })
	set("input", func() { cfg.InputVectors = flagCfg.InputVectors })
	set("output", func() { cfg.OutputDir = flagCfg.OutputDir })
	set("hold-high", func() { cfg.HoldHigh = flagCfg.HoldHigh })
	set("hold-low", func() { cfg.HoldLow = flagCfg.HoldLow })
	set("activity", func() { cfg.Activity = flagCfg.Activity })
	set("modelsim", func() { cfg.ModelSim = flagCfg.ModelSim })
	set("output-edge", func() { cfg.OutputEdge = flagCfg.OutputEdge })
	set("clock", func() {
		if cfg.ClockRatios == nil {
			cfg.ClockRatios = make(map[string]int)
		}
		for k, v := range flagCfg.ClockRatios {
			cfg.ClockRatios[k] = v
		}
	})
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	f.IntVar(&flagCfg.Wave, "wave", flagCfg.Wave, "wave length in cycles")
	f.IntVarP(&flagCfg.Workers, "workers", "j", 0, "worker goroutines (0: GOMAXPROCS)")
	f.IntVar(&flagCfg.StageThreshold, "threshold", flagCfg.StageThreshold, "minimum stage size for parallel evaluation")
	f.Int64VarP(&flagCfg.Vectors, "vectors", "n", flagCfg.Vectors, "number of random vectors")
	f.Int64Var(&flagCfg.Seed, "seed", flagCfg.Seed, "random vector seed")
	f.StringVarP(&flagCfg.InputVectors, "input", "i", "", "replay input vectors from `file`")
	f.StringVarP(&flagCfg.OutputDir, "output", "o", flagCfg.OutputDir, "output directory")
	f.StringSliceVar(&flagCfg.HoldHigh, "hold-high", nil, "input lines or bits held at 1")
	f.StringSliceVar(&flagCfg.HoldLow, "hold-low", nil, "input lines or bits held at 0")
	f.BoolVarP(&flagCfg.Activity, "activity", "a", false, "write the activity file")
	f.BoolVar(&flagCfg.ModelSim, "modelsim", false, "write a ModelSim script")
	f.StringVar(&flagCfg.OutputEdge, "output-edge", "both", "write output vectors on `edge`: both or rising")
	f.StringToIntVar(&flagCfg.ClockRatios, "clock", nil, "clock ratios as name=ratio")
	rootCmd.AddCommand(runCmd)
}
