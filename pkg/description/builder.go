package description

import (
	"encoding/json"
	"fmt"

	"github.com/soderlund/graphdesc/pkg/model"
)

// Builder offers a fluent authoring surface over the normalized
// declaration. It accumulates nodes and edges and funnels everything
// through Build, so a builder-made description passes the exact same
// validation as one built from a raw declaration.
//
//	desc, err := description.NewBuilder().
//		Node("device").
//		Node("safety").
//		Edges("wiring", "device", "safety").
//		Build()
type Builder struct {
	decl model.Declaration
	opts []Option
	err  error
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{opts: opts}
}

// Node declares a node with no attributes.
func (b *Builder) Node(name string) *Builder {
	b.decl.AddNode(name, nil)
	return b
}

// NodeAttrs declares a node carrying attribute payloads. Values are
// marshaled to JSON at call time; a marshal failure surfaces from Build.
func (b *Builder) NodeAttrs(name string, attrs map[string]any) *Builder {
	if b.err != nil {
		return b
	}
	raw := make(map[string]json.RawMessage, len(attrs))
	for key, value := range attrs {
		data, err := json.Marshal(value)
		if err != nil {
			b.err = fmt.Errorf("node %q attr %q: %w", name, key, err)
			return b
		}
		raw[key] = data
	}
	b.decl.AddNode(name, raw)
	return b
}

// Edges declares edges from source to each target within the named group.
// Calling it repeatedly for the same group extends the group.
func (b *Builder) Edges(group, source string, targets ...string) *Builder {
	b.decl.AddEdges(group, source, targets...)
	return b
}

// Declaration returns the accumulated normalized declaration.
func (b *Builder) Declaration() model.Declaration {
	return b.decl
}

// Build validates the accumulated declaration and produces the artifact.
func (b *Builder) Build() (*Description, error) {
	if b.err != nil {
		return nil, b.err
	}
	return Build(b.decl, b.opts...)
}
