// Package graph resolves declared edge groups into directed graphs over
// the shared node table.
package graph

import (
	"fmt"

	"github.com/soderlund/graphdesc/pkg/model"
	"github.com/soderlund/graphdesc/pkg/registry"
	"gonum.org/v1/gonum/graph/simple"
)

// UnknownNodeError reports an edge group referencing a node name that was
// never declared. It identifies both the group and the offending reference
// so authoring mistakes are locatable.
type UnknownNodeError struct {
	Reference string
	Group     string
	err       error
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("edge group %q references unknown node %q", e.Group, e.Reference)
}

func (e *UnknownNodeError) Unwrap() error {
	return e.err
}

// DuplicatePolicy controls how repeated targets under the same source are
// treated during resolution.
type DuplicatePolicy int

const (
	// AllowDuplicates keeps every declared edge, matching the literal
	// declaration semantics. This is the default.
	AllowDuplicates DuplicatePolicy = iota
	// Deduplicate collapses repeated (source, target) pairs into one edge,
	// keeping the first occurrence's position.
	Deduplicate
)

func (p DuplicatePolicy) String() string {
	switch p {
	case AllowDuplicates:
		return "allow_duplicates"
	case Deduplicate:
		return "deduplicate"
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// Edge is one resolved directed edge, expressed in node ids.
type Edge struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// EdgeGroup is one named directed graph over the shared node table.
//
// The declaration-ordered edge list is the authoritative structure; it
// preserves multiplicity and self-loops. Alongside it the group maintains
// adjacency maps for O(1) neighbor lookups and a gonum DirectedGraph view
// holding the unique, non-self-loop edges for downstream graph analysis.
// An EdgeGroup is immutable once resolved.
type EdgeGroup struct {
	name  string
	edges []Edge
	out   map[int64][]int64
	in    map[int64][]int64
	g     *simple.DirectedGraph
}

// ResolveGroup turns one declared adjacency list into a validated EdgeGroup.
// Every symbolic name is resolved against table; the first unresolvable
// reference aborts with an UnknownNodeError naming the group and reference.
func ResolveGroup(name string, entries []model.Adjacency, table *registry.Table, policy DuplicatePolicy) (*EdgeGroup, error) {
	eg := &EdgeGroup{
		name: name,
		out:  make(map[int64][]int64),
		in:   make(map[int64][]int64),
		g:    simple.NewDirectedGraph(),
	}

	var seen map[Edge]bool
	if policy == Deduplicate {
		seen = make(map[Edge]bool)
	}

	for _, entry := range entries {
		source, err := table.Resolve(entry.Source)
		if err != nil {
			return nil, &UnknownNodeError{Reference: entry.Source, Group: name, err: err}
		}
		for _, targetName := range entry.Targets {
			target, err := table.Resolve(targetName)
			if err != nil {
				return nil, &UnknownNodeError{Reference: targetName, Group: name, err: err}
			}
			edge := Edge{Source: source, Target: target}
			if seen != nil {
				if seen[edge] {
					continue
				}
				seen[edge] = true
			}
			eg.add(edge)
		}
	}
	return eg, nil
}

func (eg *EdgeGroup) add(e Edge) {
	eg.edges = append(eg.edges, e)
	eg.out[e.Source] = append(eg.out[e.Source], e.Target)
	eg.in[e.Target] = append(eg.in[e.Target], e.Source)

	// The gonum view holds each ordered pair once and cannot represent
	// self-loops; the edge list remains the source of truth for those.
	if e.Source == e.Target {
		return
	}
	if eg.g.Node(e.Source) == nil {
		eg.g.AddNode(simple.Node(e.Source))
	}
	if eg.g.Node(e.Target) == nil {
		eg.g.AddNode(simple.Node(e.Target))
	}
	if !eg.g.HasEdgeFromTo(e.Source, e.Target) {
		eg.g.SetEdge(eg.g.NewEdge(eg.g.Node(e.Source), eg.g.Node(e.Target)))
	}
}

// Name returns the group name.
func (eg *EdgeGroup) Name() string {
	return eg.name
}

// Len returns the number of edges, counting duplicates as declared.
func (eg *EdgeGroup) Len() int {
	return len(eg.edges)
}

// Edges returns the edges in declaration order.
func (eg *EdgeGroup) Edges() []Edge {
	out := make([]Edge, len(eg.edges))
	copy(out, eg.edges)
	return out
}

// Targets returns the targets of outgoing edges from id, in declaration
// order, or nil if the node has no outgoing edges in this group.
func (eg *EdgeGroup) Targets(id int64) []int64 {
	return append([]int64(nil), eg.out[id]...)
}

// Sources returns the sources of incoming edges to id, in declaration
// order, or nil if the node has no incoming edges in this group.
func (eg *EdgeGroup) Sources(id int64) []int64 {
	return append([]int64(nil), eg.in[id]...)
}

// HasEdge reports whether the group contains at least one edge from one id
// to another. Self-loops are visible here.
func (eg *EdgeGroup) HasEdge(from, to int64) bool {
	for _, t := range eg.out[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Directed exposes the gonum view of the group: unique edges, no
// self-loops. Intended for downstream analysis code that speaks gonum's
// graph interfaces; mutating it is a caller bug.
func (eg *EdgeGroup) Directed() *simple.DirectedGraph {
	return eg.g
}
