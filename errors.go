// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Error causes. Use errors.Cause or errors.Is to check the class of an error
// returned by this package.
//
var (
	ErrCombinationalLoop = errors.New("combinational loop")
	ErrInconsistent      = errors.New("internal consistency violation")
	ErrEvicted           = errors.New("value evicted from history")
	ErrNotWritten        = errors.New("value not written")
	ErrDisposed          = errors.New("circuit disposed")
)

// LoopError is returned by BuildStages when the netlist contains a
// combinational loop. Nodes lists the nodes that could not be assigned to a
// stage: the nodes of the loop and everything downstream of it.
//
type LoopError struct {
	Nodes []string
}

func (e *LoopError) Error() string {
	const max = 8
	var b strings.Builder
	b.WriteString("combinational loop through ")
	b.WriteString(strconv.Itoa(len(e.Nodes)))
	b.WriteString(" node(s): ")
	for i, n := range e.Nodes {
		if i == max {
			b.WriteString(", ...")
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
	}
	return b.String()
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *LoopError) Cause() error { return ErrCombinationalLoop }

// Unwrap returns ErrCombinationalLoop.
func (e *LoopError) Unwrap() error { return ErrCombinationalLoop }

// ConsistencyError reports a pin read before it was written for the current
// cycle, or a node that did not write all its outputs. It always indicates a
// staging bug or a broken part implementation.
//
type ConsistencyError struct {
	Pin    string
	Cycle  int64
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "pin " + e.Pin + " at cycle " + strconv.FormatInt(e.Cycle, 10) + ": " + e.Reason
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *ConsistencyError) Cause() error { return ErrInconsistent }

// Unwrap returns ErrInconsistent.
func (e *ConsistencyError) Unwrap() error { return ErrInconsistent }
