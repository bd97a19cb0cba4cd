package model

import "encoding/json"

// Declaration is the normalized input to the description builder: the full
// set of node declarations plus every edge group, in authoring order.
// It is the common data model produced by all authoring front-ends
// (fluent builder, HCL files, serialized documents).
type Declaration struct {
	Nodes  []NodeDecl  `json:"nodes"`
	Groups []GroupDecl `json:"groups,omitempty"`
}

// NodeDecl declares a single named node, optionally carrying attribute
// payloads for downstream consumers.
type NodeDecl struct {
	Name  string                     `json:"name"`
	Attrs map[string]json.RawMessage `json:"attrs,omitempty"`
}

// GroupDecl declares one named edge group as an adjacency list over
// symbolic node names.
type GroupDecl struct {
	Name    string      `json:"name"`
	Entries []Adjacency `json:"entries,omitempty"`
}

// Adjacency maps one symbolic source name to its declared targets.
// Target order is significant and preserved through resolution.
type Adjacency struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// AddNode appends a node declaration.
func (d *Declaration) AddNode(name string, attrs map[string]json.RawMessage) {
	d.Nodes = append(d.Nodes, NodeDecl{Name: name, Attrs: attrs})
}

// AddEdges appends targets under source in the named group, creating the
// group declaration on first use. Repeated calls for the same group extend
// it in call order.
func (d *Declaration) AddEdges(group, source string, targets ...string) {
	for i := range d.Groups {
		if d.Groups[i].Name == group {
			d.Groups[i].Entries = append(d.Groups[i].Entries, Adjacency{Source: source, Targets: targets})
			return
		}
	}
	d.Groups = append(d.Groups, GroupDecl{
		Name:    group,
		Entries: []Adjacency{{Source: source, Targets: targets}},
	})
}
