// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/db47h/netsim"
	"github.com/spf13/cobra"
)

var (
	stageThreshold int
	stageDetails   bool
)

var stagesCmd = &cobra.Command{
	Use:   "stages [flags] netlist",
	Short: "Report the evaluation stages of a netlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nl, err := loadNetlist(args[0])
		if err != nil {
			return err
		}
		st, err := netsim.BuildStages(nl, stageThreshold)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "netlist:      %s\n", nl.Name)
		fmt.Fprintf(w, "nodes:        %d\n", st.NumNodes)
		fmt.Fprintf(w, "connections:  %d\n", st.NumConnections)
		fmt.Fprintf(w, "stages:       %d\n", st.Count())
		fmt.Fprintf(w, "nodes/stage:  %.2f\n", st.AvgWorkerCount())
		if !stageDetails {
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "stage\tnodes\tchildren\tparallel\t")
		for k, s := range st.Stages {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%v\t\n", k, len(s), st.NumChildren[k], st.Parallel(k))
		}
		return tw.Flush()
	},
}

func init() {
	stagesCmd.Flags().IntVar(&stageThreshold, "threshold", netsim.DefaultThreshold, "minimum stage size for parallel evaluation")
	stagesCmd.Flags().BoolVarP(&stageDetails, "details", "d", false, "list individual stages")
	rootCmd.AddCommand(stagesCmd)
}
