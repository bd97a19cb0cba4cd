package description

import (
	"errors"
	"testing"

	"github.com/soderlund/graphdesc/pkg/graph"
	"github.com/soderlund/graphdesc/pkg/model"
	"github.com/soderlund/graphdesc/pkg/registry"
)

// machineDecl mirrors a typical machine configuration: six nodes with one
// standard wiring group.
func machineDecl() model.Declaration {
	var decl model.Declaration
	for _, name := range []string{"device", "safety", "controller", "power", "control", "io"} {
		decl.AddNode(name, nil)
	}
	decl.AddEdges("config_standard", "device", "safety", "controller", "power", "control", "io")
	decl.AddEdges("config_standard", "safety", "controller", "power")
	return decl
}

func TestBuildMachineScenario(t *testing.T) {
	desc, err := Build(machineDecl())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if desc.Len() != 6 {
		t.Errorf("Len() = %d, want 6", desc.Len())
	}

	eg, ok := desc.EdgeGroup("config_standard")
	if !ok {
		t.Fatal("EdgeGroup(config_standard) absent")
	}
	if eg.Len() != 7 {
		t.Errorf("config_standard has %d edges, want 7", eg.Len())
	}

	if _, ok := desc.EdgeGroup("config_alternate"); ok {
		t.Error("EdgeGroup(config_alternate) should be absent")
	}
}

func TestNodeLookupsAreInverse(t *testing.T) {
	desc, err := Build(machineDecl())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, name := range desc.Nodes() {
		id, ok := desc.NodeID(name)
		if !ok {
			t.Fatalf("NodeID(%q) absent", name)
		}
		back, ok := desc.NodeName(id)
		if !ok || back != name {
			t.Errorf("NodeName(NodeID(%q)) = (%q, %v), want (%q, true)", name, back, ok, name)
		}
	}

	if _, ok := desc.NodeID("missing"); ok {
		t.Error("NodeID of undeclared node should report false")
	}
}

func TestQueryIdempotence(t *testing.T) {
	desc, err := Build(machineDecl())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	id1, ok1 := desc.NodeID("safety")
	id2, ok2 := desc.NodeID("safety")
	if id1 != id2 || ok1 != ok2 {
		t.Errorf("NodeID not idempotent: (%d,%v) vs (%d,%v)", id1, ok1, id2, ok2)
	}

	g1, _ := desc.EdgeGroup("config_standard")
	g2, _ := desc.EdgeGroup("config_standard")
	if g1 != g2 {
		t.Error("EdgeGroup should return the same group on repeated calls")
	}
}

func TestBuildDuplicateNode(t *testing.T) {
	var decl model.Declaration
	decl.AddNode("a", nil)
	decl.AddNode("a", nil)

	_, err := Build(decl)
	var dup *registry.DuplicateNodeError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNodeError, got %v", err)
	}
	if dup.Name != "a" {
		t.Errorf("DuplicateNodeError.Name = %q, want %q", dup.Name, "a")
	}
}

func TestBuildDuplicateGroup(t *testing.T) {
	decl := model.Declaration{
		Nodes: []model.NodeDecl{{Name: "a"}, {Name: "b"}},
		Groups: []model.GroupDecl{
			{Name: "g", Entries: []model.Adjacency{{Source: "a", Targets: []string{"b"}}}},
			{Name: "g", Entries: []model.Adjacency{{Source: "b", Targets: []string{"a"}}}},
		},
	}

	_, err := Build(decl)
	var dup *DuplicateGroupError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateGroupError, got %v", err)
	}
	if dup.Group != "g" {
		t.Errorf("DuplicateGroupError.Group = %q, want %q", dup.Group, "g")
	}
}

func TestBuildUnknownNodeReference(t *testing.T) {
	var decl model.Declaration
	decl.AddNode("a", nil)
	decl.AddNode("b", nil)
	decl.AddEdges("g", "a", "c")

	_, err := Build(decl)
	var unknown *graph.UnknownNodeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownNodeError, got %v", err)
	}
	if unknown.Reference != "c" || unknown.Group != "g" {
		t.Errorf("got reference=%q group=%q, want reference=%q group=%q",
			unknown.Reference, unknown.Group, "c", "g")
	}
}

func TestGroupsDeclarationOrder(t *testing.T) {
	var decl model.Declaration
	decl.AddNode("a", nil)
	decl.AddNode("b", nil)
	decl.AddEdges("zeta", "a", "b")
	decl.AddEdges("alpha", "b", "a")
	decl.AddEdges("mid", "a", "a")

	desc, err := Build(decl)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	got := desc.Groups()
	if len(got) != len(want) {
		t.Fatalf("Groups() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Groups()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRelationshipQueries(t *testing.T) {
	var decl model.Declaration
	for _, name := range []string{"device", "safety", "power"} {
		decl.AddNode(name, nil)
	}
	decl.AddEdges("wiring", "device", "safety", "power")
	decl.AddEdges("signals", "safety", "device")

	desc, err := Build(decl)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	out := desc.OutgoingEdges("device")
	if len(out) != 2 || out[0] != "wiring" || out[1] != "wiring" {
		t.Errorf("OutgoingEdges(device) = %v, want [wiring wiring]", out)
	}

	in := desc.IncomingEdges("device")
	if len(in) != 1 || in[0] != "signals" {
		t.Errorf("IncomingEdges(device) = %v, want [signals]", in)
	}

	connected := desc.ConnectedNodes("device")
	if len(connected) != 2 || connected[0] != "safety" || connected[1] != "power" {
		t.Errorf("ConnectedNodes(device) = %v, want [safety power]", connected)
	}

	if !desc.HasDirectEdge("device", "safety") {
		t.Error("HasDirectEdge(device, safety) = false, want true")
	}
	if desc.HasDirectEdge("power", "device") {
		t.Error("HasDirectEdge(power, device) = true, want false")
	}
	if desc.HasDirectEdge("device", "missing") {
		t.Error("HasDirectEdge with unknown node should be false")
	}
	if desc.OutgoingEdges("missing") != nil {
		t.Error("OutgoingEdges of unknown node should be nil")
	}
}

func TestBuilderFluent(t *testing.T) {
	desc, err := NewBuilder().
		Node("device").
		NodeAttrs("safety", map[string]any{"rating": 4, "vendor": "acme"}).
		Edges("wiring", "device", "safety").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if desc.Len() != 2 {
		t.Errorf("Len() = %d, want 2", desc.Len())
	}

	raw, ok := desc.Attr("safety", "rating")
	if !ok {
		t.Fatal("Attr(safety, rating) absent")
	}
	if string(raw) != "4" {
		t.Errorf("Attr(safety, rating) = %s, want 4", raw)
	}

	if desc.Attrs("device") != nil {
		t.Error("Attrs(device) should be nil, no attributes declared")
	}
	if desc.Attrs("missing") != nil {
		t.Error("Attrs of unknown node should be nil")
	}
}

func TestBuilderDuplicateGroupCallsExtend(t *testing.T) {
	desc, err := NewBuilder().
		Node("a").Node("b").Node("c").
		Edges("g", "a", "b").
		Edges("g", "b", "c").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	eg, _ := desc.EdgeGroup("g")
	if eg.Len() != 2 {
		t.Errorf("g has %d edges, want 2", eg.Len())
	}
}

func TestBuildDeduplicateOption(t *testing.T) {
	var decl model.Declaration
	decl.AddNode("a", nil)
	decl.AddNode("b", nil)
	decl.AddEdges("g", "a", "b", "b")

	desc, err := Build(decl, WithDuplicatePolicy(graph.Deduplicate))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	eg, _ := desc.EdgeGroup("g")
	if eg.Len() != 1 {
		t.Errorf("deduplicated group has %d edges, want 1", eg.Len())
	}
}
