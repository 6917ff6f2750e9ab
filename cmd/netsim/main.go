// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command netsim simulates gate level netlists.
//
//	netsim run [flags] netlist.hdl
//	netsim stages [flags] netlist.hdl
//
package main

import (
	"fmt"
	"os"

	"github.com/db47h/netsim"
	"github.com/db47h/netsim/hwlib"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "netsim",
	Short: "A stage parallel logic simulator",
	Long: `Netsim simulates gate level netlists cycle by cycle. Nodes are
leveled into stages evaluated in order, the nodes of large stages being
evaluated in parallel. Input vectors are either random or replayed from a
file. Output vectors, switching activity and a ModelSim script are written
to the output directory.
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity")
}

func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintln(os.Stderr, prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

func loadNetlist(fn string) (*netsim.Netlist, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "open netlist")
	}
	defer f.Close()
	nl, err := hwlib.ParseNetlist(f)
	if err != nil {
		return nil, errors.WithMessage(err, fn)
	}
	return nl, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
