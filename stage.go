// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import (
	"github.com/pkg/errors"
)

// DefaultThreshold is the default minimum stage size for parallel
// evaluation. Smaller stages are evaluated on the calling goroutine.
//
const DefaultThreshold = 64

// Stages is a partition of the nodes of a netlist into stages such that every
// same-cycle predecessor of a node in stage k lies in a stage j < k.
//
// Stages are immutable once built.
//
type Stages struct {
	// Stages lists the nodes of each stage in ascending id order.
	Stages [][]NodeID
	// Level is the stage of each node.
	Level []int
	// NumNodes is the total node count.
	NumNodes int
	// NumConnections is the sum of the child counts of every node.
	NumConnections int
	// NumChildren is the sum of the child counts of the nodes of each stage.
	NumChildren []int
	// Threshold is the minimum stage size for parallel evaluation.
	Threshold int
}

// deps returns the same-cycle predecessors of node id: the drivers of its
// non-sequential input pins, with duplicates.
//
func (nl *Netlist) deps(id NodeID, dst []NodeID) []NodeID {
	for _, p := range nl.Nodes[id].Inputs {
		pin := &nl.Pins[p]
		if pin.Sequential || pin.Driver == NoPin {
			continue
		}
		dst = append(dst, nl.Pins[pin.Driver].Node)
	}
	return dst
}

// BuildStages levels the nodes of nl by their longest same-cycle path from a
// source node. Source nodes have no same-cycle predecessor: primary inputs,
// constants and registers whose inputs are all sequential.
//
// Loops through sequential pins are legal. Any other loop is a combinational
// loop and BuildStages returns a *LoopError.
//
// threshold is the minimum stage size for parallel evaluation. If threshold
// <= 0, DefaultThreshold is used.
//
func BuildStages(nl *Netlist, threshold int) (*Stages, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	n := len(nl.Nodes)
	indeg := make([]int, n)
	succ := make([][]NodeID, n)
	var buf []NodeID
	for i := range nl.Nodes {
		buf = nl.deps(NodeID(i), buf[:0])
		for _, d := range buf {
			succ[d] = append(succ[d], NodeID(i))
		}
		indeg[i] = len(buf)
	}

	level := make([]int, n)
	queue := make([]NodeID, 0, n)
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, NodeID(i))
		}
	}
	// FIFO order: when a node's in-degree drops to 0, all its predecessors
	// have final levels.
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		for _, v := range succ[u] {
			if l := level[u] + 1; l > level[v] {
				level[v] = l
			}
			if indeg[v]--; indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	if len(queue) < n {
		e := &LoopError{}
		for i, d := range indeg {
			if d > 0 {
				e.Nodes = append(e.Nodes, nl.Nodes[i].Name)
			}
		}
		return nil, e
	}

	s := &Stages{Level: level, NumNodes: n, Threshold: threshold}
	for i := range nl.Nodes {
		l := level[i]
		for len(s.Stages) <= l {
			s.Stages = append(s.Stages, nil)
			s.NumChildren = append(s.NumChildren, 0)
		}
		s.Stages[l] = append(s.Stages[l], NodeID(i))
		c := len(nl.Children(NodeID(i)))
		s.NumChildren[l] += c
		s.NumConnections += c
	}
	return s, nil
}

// Count returns the number of stages.
//
func (s *Stages) Count() int { return len(s.Stages) }

// Parallel returns true if stage k is large enough to be evaluated by
// worker goroutines.
//
func (s *Stages) Parallel(k int) bool { return len(s.Stages[k]) >= s.Threshold }

// AvgWorkerCount returns the average stage size, i.e. the average number of
// nodes that can be evaluated in parallel.
//
func (s *Stages) AvgWorkerCount() float64 {
	if len(s.Stages) == 0 {
		return 0
	}
	return float64(s.NumNodes) / float64(len(s.Stages))
}

// Verify checks that s is a valid staging of nl: every node is in exactly one
// stage and every same-cycle predecessor of a node is in an earlier stage.
//
func (s *Stages) Verify(nl *Netlist) error {
	if len(s.Level) != len(nl.Nodes) {
		return errors.Errorf("stages cover %d nodes, netlist has %d", len(s.Level), len(nl.Nodes))
	}
	seen := make([]bool, len(nl.Nodes))
	for k, st := range s.Stages {
		for _, id := range st {
			if seen[id] {
				return errors.Errorf("node %s in more than one stage", nl.Nodes[id].Name)
			}
			seen[id] = true
			if s.Level[id] != k {
				return errors.Errorf("node %s in stage %d, level %d", nl.Nodes[id].Name, k, s.Level[id])
			}
		}
	}
	var buf []NodeID
	for i := range nl.Nodes {
		if !seen[i] {
			return errors.Errorf("node %s not assigned to any stage", nl.Nodes[i].Name)
		}
		buf = nl.deps(NodeID(i), buf[:0])
		for _, d := range buf {
			if s.Level[d] >= s.Level[i] {
				return errors.Errorf("node %s (stage %d) depends on %s (stage %d)",
					nl.Nodes[i].Name, s.Level[i], nl.Nodes[d].Name, s.Level[d])
			}
		}
	}
	return nil
}
