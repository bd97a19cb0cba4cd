package description

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/soderlund/graphdesc/pkg/model"
)

// ErrInvalidDocument wraps structural faults in a serialized document,
// such as an edge id outside the node table.
var ErrInvalidDocument = errors.New("invalid description document")

// Document is the primitive-value tree form of a Description: node names
// in id order (position is the id) and per-group edge pairs in declaration
// order. It round-trips through JSON losslessly.
type Document struct {
	Nodes  []DocumentNode  `json:"nodes"`
	Groups []DocumentGroup `json:"groups"`
}

// DocumentNode is one node entry; its index in Document.Nodes is its id.
type DocumentNode struct {
	Name  string                     `json:"name"`
	Attrs map[string]json.RawMessage `json:"attrs,omitempty"`
}

// DocumentGroup is one edge group as (source id, target id) pairs.
type DocumentGroup struct {
	Name  string     `json:"name"`
	Edges [][2]int64 `json:"edges"`
}

// Document renders the description as its primitive-value tree. Edge order
// within each group is the declaration order, preserved exactly.
func (d *Description) Document() Document {
	doc := Document{
		Nodes:  make([]DocumentNode, 0, d.table.Len()),
		Groups: make([]DocumentGroup, 0, len(d.order)),
	}
	for id, name := range d.table.Names() {
		doc.Nodes = append(doc.Nodes, DocumentNode{Name: name, Attrs: d.attrs[int64(id)]})
	}
	for _, groupName := range d.order {
		eg := d.groups[groupName]
		edges := make([][2]int64, 0, eg.Len())
		for _, e := range eg.Edges() {
			edges = append(edges, [2]int64{e.Source, e.Target})
		}
		doc.Groups = append(doc.Groups, DocumentGroup{Name: groupName, Edges: edges})
	}
	return doc
}

// Marshal serializes the description document as JSON.
func (d *Description) Marshal() ([]byte, error) {
	return json.Marshal(d.Document())
}

// Encode writes the description document as JSON to w.
func (d *Description) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(d.Document())
}

// FromDocument reconstructs a Description from its primitive form. The
// document is converted back into a declaration and re-built through the
// identical validation path as Build; a document that would not validate
// as a fresh declaration is rejected.
func FromDocument(doc Document) (*Description, error) {
	var decl model.Declaration
	for _, node := range doc.Nodes {
		decl.AddNode(node.Name, node.Attrs)
	}
	for _, group := range doc.Groups {
		entries := make([]model.Adjacency, 0, len(group.Edges))
		for _, pair := range group.Edges {
			source, err := nodeName(doc.Nodes, pair[0], group.Name)
			if err != nil {
				return nil, err
			}
			target, err := nodeName(doc.Nodes, pair[1], group.Name)
			if err != nil {
				return nil, err
			}
			// One entry per edge keeps the exact declared order and
			// multiplicity across interleaved sources.
			entries = append(entries, model.Adjacency{Source: source, Targets: []string{target}})
		}
		decl.Groups = append(decl.Groups, model.GroupDecl{Name: group.Name, Entries: entries})
	}
	return Build(decl)
}

func nodeName(nodes []DocumentNode, id int64, group string) (string, error) {
	if id < 0 || id >= int64(len(nodes)) {
		return "", fmt.Errorf("%w: group %q references node id %d outside the node table", ErrInvalidDocument, group, id)
	}
	return nodes[id].Name, nil
}

// Unmarshal parses a JSON document and reconstructs the Description.
func Unmarshal(data []byte) (*Description, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return FromDocument(doc)
}

// Decode reads a JSON document from r and reconstructs the Description.
func Decode(r io.Reader) (*Description, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return FromDocument(doc)
}
