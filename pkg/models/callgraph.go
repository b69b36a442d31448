package models

import (
	"strconv"

	"golang.org/x/tools/container/intsets"
)

// NodeStyle is the visual role of a call-flow node
type NodeStyle struct {
	Shape     string `json:"shape,omitempty" toml:"shape"`
	Color     string `json:"color,omitempty" toml:"color"`
	Style     string `json:"style,omitempty" toml:"style"`
	FillColor string `json:"fillcolor,omitempty" toml:"fillcolor"`
}

// CallFlowNode is one function in the call-flow graph
type CallFlowNode struct {
	Key       Offset `json:"key"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Shape     string `json:"shape"`
	Color     string `json:"color"`
	Style     string `json:"style"`
	FillColor string `json:"fillcolor"`
}

// CallFlowEdge is a distinct caller -> callee pair with the number of call sites producing it
type CallFlowEdge struct {
	Caller Offset `json:"caller"`
	Callee Offset `json:"callee"`
	Count  int    `json:"count"`
}

// Label returns the occurrence count when the pair was seen more than once
func (e CallFlowEdge) Label() string {
	if e.Count > 1 {
		return strconv.Itoa(e.Count)
	}
	return ""
}

// CallFlowGraph holds one node per function and one edge per distinct call pair
type CallFlowGraph struct {
	Nodes []CallFlowNode `json:"nodes"`
	Edges []CallFlowEdge `json:"edges"`
}

// Dangling returns the edges whose callee offset has no node in the graph.
// These are legal; deciding how to draw them is up to the renderer.
func (g *CallFlowGraph) Dangling() []CallFlowEdge {
	var keys intsets.Sparse
	for _, n := range g.Nodes {
		keys.Insert(int(n.Key))
	}

	var dangling []CallFlowEdge
	for _, e := range g.Edges {
		if !keys.Has(int(e.Callee)) {
			dangling = append(dangling, e)
		}
	}
	return dangling
}

// CallFlowSummary contains call-flow statistics for reports
type CallFlowSummary struct {
	TotalFunctions  int `json:"total_functions" yaml:"total_functions"`
	EntryPoints     int `json:"entry_points" yaml:"entry_points"`
	Imports         int `json:"imports" yaml:"imports"`
	IndirectCallers int `json:"indirect_callers" yaml:"indirect_callers"`
	TotalEdges      int `json:"total_edges" yaml:"total_edges"`
	TotalCallSites  int `json:"total_call_sites" yaml:"total_call_sites"`
	DanglingEdges   int `json:"dangling_edges" yaml:"dangling_edges"`
	SelfCalls       int `json:"self_calls" yaml:"self_calls"`
}
