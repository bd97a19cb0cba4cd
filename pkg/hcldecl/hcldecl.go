// Package hcldecl parses HCL declaration files into the normalized
// declaration consumed by the description builder.
//
// The authoring syntax:
//
//	node "device" {
//	  kind = "plc"
//	}
//	node "safety" {}
//
//	group "config_standard" {
//	  device = ["safety", "controller"]
//	  safety = ["controller"]
//	}
//
// Node block attributes become attribute payloads on the node. Each group
// block attribute is one adjacency entry: the attribute name is the source
// node and its value is the list of target names. All values must be
// literals; resolution against the declared node set happens later, in the
// builder, where unknown references fail the build.
package hcldecl

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/soderlund/graphdesc/pkg/model"
)

type hclFile struct {
	Nodes  []*hclNode  `hcl:"node,block"`
	Groups []*hclGroup `hcl:"group,block"`
}

type hclNode struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclGroup struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// LoadFile parses one declaration file.
func LoadFile(path string) (model.Declaration, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return model.Declaration{}, fmt.Errorf("read declaration %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse parses declaration source. The filename is used in diagnostics only.
func Parse(src []byte, filename string) (model.Declaration, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return model.Declaration{}, fmt.Errorf("parse %s: %w", filename, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return model.Declaration{}, fmt.Errorf("decode %s: %w", filename, diags)
	}

	var decl model.Declaration
	for _, node := range parsed.Nodes {
		attrs, err := nodeAttrs(node)
		if err != nil {
			return model.Declaration{}, err
		}
		decl.AddNode(node.Name, attrs)
	}
	for _, group := range parsed.Groups {
		entries, err := groupEntries(group)
		if err != nil {
			return model.Declaration{}, err
		}
		decl.Groups = append(decl.Groups, model.GroupDecl{Name: group.Name, Entries: entries})
	}
	return decl, nil
}

func nodeAttrs(node *hclNode) (map[string]json.RawMessage, error) {
	attrs, diags := node.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("node %q: %w", node.Name, diags)
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("node %q attribute %q: %w", node.Name, name, diags)
		}
		raw, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return nil, fmt.Errorf("node %q attribute %q: %w", node.Name, name, err)
		}
		out[name] = raw
	}
	return out, nil
}

func groupEntries(group *hclGroup) ([]model.Adjacency, error) {
	attrs, diags := group.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("group %q: %w", group.Name, diags)
	}

	// JustAttributes returns a map; recover authoring order from source
	// positions so edge order matches the file.
	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	entries := make([]model.Adjacency, 0, len(ordered))
	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("group %q entry %q: %w", group.Name, attr.Name, diags)
		}
		list, err := convert.Convert(val, cty.List(cty.String))
		if err != nil {
			return nil, fmt.Errorf("group %q entry %q: targets must be a list of node names: %w", group.Name, attr.Name, err)
		}
		if list.IsNull() {
			return nil, fmt.Errorf("group %q entry %q: targets must not be null", group.Name, attr.Name)
		}
		var targets []string
		for it := list.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			targets = append(targets, elem.AsString())
		}
		entries = append(entries, model.Adjacency{Source: attr.Name, Targets: targets})
	}
	return entries, nil
}
