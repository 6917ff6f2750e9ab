// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"os"

	"github.com/db47h/netsim"
	"github.com/db47h/netsim/trace"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

// ErrConfig is the cause of configuration errors.
//
var ErrConfig = errors.New("invalid configuration")

// Config holds the parameters of a simulation session.
//
type Config struct {
	// Wave is the number of cycles simulated between trace flushes. It is
	// also the pin history length.
	Wave int `yaml:"wave"`
	// Workers is the number of evaluation goroutines. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// StageThreshold is the minimum stage size for parallel evaluation.
	StageThreshold int `yaml:"stage_threshold"`
	// Vectors is the number of random vectors to simulate. It is ignored
	// when InputVectors is set: all vectors from the file are simulated.
	Vectors int64 `yaml:"vectors"`
	// Seed is the random vector generator seed.
	Seed int64 `yaml:"seed"`
	// InputVectors is the path of a vector file to replay.
	InputVectors string `yaml:"input_vectors"`
	// OutputDir is the trace directory.
	OutputDir string `yaml:"output_dir"`
	// HoldHigh and HoldLow list input lines or bits held at 1 or 0 during
	// random simulation.
	HoldHigh []string `yaml:"hold_high"`
	HoldLow  []string `yaml:"hold_low"`
	// Activity enables the activity file.
	Activity bool `yaml:"activity"`
	// ModelSim enables the ModelSim script.
	ModelSim bool `yaml:"modelsim"`
	// OutputEdge is "both" (or empty) to write output vectors every cycle,
	// "rising" to write them only on rising edges of the clock inputs.
	OutputEdge string `yaml:"output_edge"`
	// ClockRatios maps clock line or node names to their clock ratio.
	ClockRatios map[string]int `yaml:"clock_ratios"`
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() Config {
	return Config{
		Wave:           netsim.DefaultWave,
		StageThreshold: netsim.DefaultThreshold,
		Vectors:        100,
		Seed:           1,
		OutputDir:      ".",
	}
}

// LoadConfig reads a YAML configuration file. Missing fields keep their
// default value.
//
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "load config")
	}
	if err = yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrConfig, "%s: %v", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration. Errors have cause ErrConfig.
//
func (c *Config) Validate() error {
	switch {
	case c.Wave < 2:
		return errors.Wrapf(ErrConfig, "wave length %d < 2", c.Wave)
	case c.Workers < 0:
		return errors.Wrapf(ErrConfig, "negative worker count %d", c.Workers)
	case c.Vectors < 0:
		return errors.Wrapf(ErrConfig, "negative vector count %d", c.Vectors)
	case c.StageThreshold < 0:
		return errors.Wrapf(ErrConfig, "negative stage threshold %d", c.StageThreshold)
	}
	if _, err := trace.ParseEdge(c.OutputEdge); err != nil {
		return errors.Wrap(ErrConfig, err.Error())
	}
	for n, r := range c.ClockRatios {
		if r < 1 {
			return errors.Wrapf(ErrConfig, "clock %s: invalid ratio %d", n, r)
		}
	}
	return nil
}
