package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soderlund/graphdesc/pkg/description"
)

func testDescription(t *testing.T) *description.Description {
	t.Helper()
	desc, err := description.NewBuilder().
		Node("device").Node("safety").Node("controller").
		Edges("config_standard", "device", "safety", "controller").
		Edges("config_standard", "safety", "controller").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return desc
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestDescriptionEndpoint(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/description")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc description.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Errorf("document has %d nodes, want 3", len(doc.Nodes))
	}
	if len(doc.Groups) != 1 || len(doc.Groups[0].Edges) != 3 {
		t.Errorf("document groups = %+v, want one group with 3 edges", doc.Groups)
	}
}

func TestUnavailableBeforeLoad(t *testing.T) {
	s := NewServer()

	rec := get(t, s, "/api/description")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestNodeEndpoint(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/nodes/device")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var detail NodeDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if detail.ID != 0 || detail.Name != "device" {
		t.Errorf("detail = %+v, want id 0 name device", detail)
	}
	if len(detail.Outgoing) != 2 {
		t.Errorf("Outgoing = %v, want 2 entries", detail.Outgoing)
	}
	if len(detail.Connected) != 2 {
		t.Errorf("Connected = %v, want [safety controller]", detail.Connected)
	}
}

func TestNodeNotFound(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/nodes/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGroupEndpoint(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/groups/config_standard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var detail GroupDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(detail.Edges) != 3 {
		t.Fatalf("group has %d edges, want 3", len(detail.Edges))
	}
	first := detail.Edges[0]
	if first.SourceName != "device" || first.TargetName != "safety" {
		t.Errorf("first edge = %+v, want device -> safety", first)
	}
}

func TestGroupNotFound(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/groups/config_alternate")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGroupsEndpoint(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/groups")
	var groups []string
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(groups) != 1 || groups[0] != "config_standard" {
		t.Errorf("groups = %v, want [config_standard]", groups)
	}
}

func TestInspectEndpoint(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/inspect")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := NewServer()
	s.SetDescription(testDescription(t), "machine.hcl")

	rec := get(t, s, "/api/nodes")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}
