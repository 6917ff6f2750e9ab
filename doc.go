/*
Package netsim provides an event driven, stage parallel logic simulator for
gate level netlists.

A netlist is an arena of nodes (primary inputs and outputs, constants, logic
gates, registers, memories and hard blocks) connected by pins. Netlists are
built from parts with NewNetlist. The hwlib package provides a library of
basic parts and a loader for netlist files.

BuildStages levels the nodes of a netlist such that every node only depends on
nodes of earlier stages within the same cycle. A Circuit then simulates the
netlist cycle by cycle: the nodes of a stage are evaluated concurrently by a
pool of worker goroutines, with a barrier between stages. Register inputs are
read at the previous cycle, so feedback loops through registers are legal
while combinational loops are rejected.

Pin values are four-state (Lo, Hi, X and U) and kept in a Store holding the
last W cycles of every pin.

Custom parts are either written as a PartSpec with a MountFn, or derived from
an annotated struct with MakePart.
*/
package netsim
