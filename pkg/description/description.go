// Package description builds and exposes the immutable description
// artifact: the node table plus one directed graph per named edge group.
package description

import (
	"encoding/json"
	"fmt"

	"github.com/soderlund/graphdesc/pkg/graph"
	"github.com/soderlund/graphdesc/pkg/model"
	"github.com/soderlund/graphdesc/pkg/registry"
)

// DuplicateGroupError reports the same edge-group name declared twice.
type DuplicateGroupError struct {
	Group string
}

func (e *DuplicateGroupError) Error() string {
	return fmt.Sprintf("edge group %q declared more than once", e.Group)
}

// Option configures a build.
type Option func(*buildOptions)

type buildOptions struct {
	policy graph.DuplicatePolicy
}

// WithDuplicatePolicy selects how repeated edges in a declaration are
// treated. The default is graph.AllowDuplicates.
func WithDuplicatePolicy(p graph.DuplicatePolicy) Option {
	return func(o *buildOptions) { o.policy = p }
}

// Description is the finished artifact. It is immutable and safe to share
// across concurrent readers; all query methods are side-effect free.
type Description struct {
	table  *registry.Table
	attrs  map[int64]map[string]json.RawMessage
	groups map[string]*graph.EdgeGroup
	order  []string
	policy graph.DuplicatePolicy
}

// Build compiles a declaration into a Description. All nodes are registered
// first, then every edge group is resolved against the frozen node table in
// declaration order. The build is all-or-nothing: the first error aborts it
// and no partial artifact is observable.
func Build(decl model.Declaration, opts ...Option) (*Description, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	reg := registry.New()
	attrs := make(map[int64]map[string]json.RawMessage)
	for _, node := range decl.Nodes {
		id, err := reg.Register(node.Name)
		if err != nil {
			return nil, err
		}
		if len(node.Attrs) > 0 {
			attrs[id] = node.Attrs
		}
	}
	table := reg.Finalize()

	groups := make(map[string]*graph.EdgeGroup, len(decl.Groups))
	order := make([]string, 0, len(decl.Groups))
	for _, g := range decl.Groups {
		if _, ok := groups[g.Name]; ok {
			return nil, &DuplicateGroupError{Group: g.Name}
		}
		eg, err := graph.ResolveGroup(g.Name, g.Entries, table, o.policy)
		if err != nil {
			return nil, err
		}
		groups[g.Name] = eg
		order = append(order, g.Name)
	}

	return &Description{
		table:  table,
		attrs:  attrs,
		groups: groups,
		order:  order,
		policy: o.policy,
	}, nil
}

// NodeID returns the id assigned to a node name. Absence is an expected
// query outcome, not an error.
func (d *Description) NodeID(name string) (int64, bool) {
	return d.table.ID(name)
}

// NodeName returns the name behind an id.
func (d *Description) NodeName(id int64) (string, bool) {
	return d.table.Name(id)
}

// Nodes returns all node names in registration order.
func (d *Description) Nodes() []string {
	return d.table.Names()
}

// Len returns the number of nodes.
func (d *Description) Len() int {
	return d.table.Len()
}

// EdgeGroup returns the named group's graph if present.
func (d *Description) EdgeGroup(name string) (*graph.EdgeGroup, bool) {
	eg, ok := d.groups[name]
	return eg, ok
}

// Groups returns the group names in declaration order.
func (d *Description) Groups() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Attrs returns the attribute payloads declared on a node, or nil if the
// node is unknown or carries none.
func (d *Description) Attrs(name string) map[string]json.RawMessage {
	id, ok := d.table.ID(name)
	if !ok {
		return nil
	}
	return d.attrs[id]
}

// Attr returns one attribute payload of a node.
func (d *Description) Attr(name, key string) (json.RawMessage, bool) {
	raw, ok := d.Attrs(name)[key]
	return raw, ok
}

// OutgoingEdges returns the group name of every edge leaving the node,
// one entry per edge across all groups in declaration order. Returns nil
// for an unknown node.
func (d *Description) OutgoingEdges(name string) []string {
	id, ok := d.table.ID(name)
	if !ok {
		return nil
	}
	var out []string
	for _, groupName := range d.order {
		for range d.groups[groupName].Targets(id) {
			out = append(out, groupName)
		}
	}
	return out
}

// IncomingEdges returns the group name of every edge arriving at the node,
// one entry per edge across all groups in declaration order.
func (d *Description) IncomingEdges(name string) []string {
	id, ok := d.table.ID(name)
	if !ok {
		return nil
	}
	var out []string
	for _, groupName := range d.order {
		for range d.groups[groupName].Sources(id) {
			out = append(out, groupName)
		}
	}
	return out
}

// ConnectedNodes returns the names of nodes reachable over one outgoing
// edge from the node, across all groups, deduplicated in first-seen order.
func (d *Description) ConnectedNodes(name string) []string {
	id, ok := d.table.ID(name)
	if !ok {
		return nil
	}
	seen := make(map[int64]bool)
	var out []string
	for _, groupName := range d.order {
		for _, target := range d.groups[groupName].Targets(id) {
			if seen[target] {
				continue
			}
			seen[target] = true
			targetName, _ := d.table.Name(target)
			out = append(out, targetName)
		}
	}
	return out
}

// HasDirectEdge reports whether any group contains an edge from one named
// node to another. Unknown names never match.
func (d *Description) HasDirectEdge(from, to string) bool {
	fromID, ok := d.table.ID(from)
	if !ok {
		return false
	}
	toID, ok := d.table.ID(to)
	if !ok {
		return false
	}
	for _, groupName := range d.order {
		if d.groups[groupName].HasEdge(fromID, toID) {
			return true
		}
	}
	return false
}
