// Package web serves a built description over HTTP: JSON endpoints for the
// node table and edge groups, plus an SSE stream carrying rebuild events
// in watch mode.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/soderlund/graphdesc/pkg/description"
	"github.com/soderlund/graphdesc/pkg/inspect"
	"github.com/soderlund/graphdesc/pkg/logging"
	"github.com/soderlund/graphdesc/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// NodeDetail is the per-node API payload.
type NodeDetail struct {
	ID        int64                      `json:"id"`
	Name      string                     `json:"name"`
	Attrs     map[string]json.RawMessage `json:"attrs,omitempty"`
	Outgoing  []string                   `json:"outgoing,omitempty"`
	Incoming  []string                   `json:"incoming,omitempty"`
	Connected []string                   `json:"connected,omitempty"`
}

// GroupDetail is the per-group API payload with names resolved.
type GroupDetail struct {
	Name  string     `json:"name"`
	Edges []EdgePair `json:"edges"`
}

// EdgePair is one edge with both ids and resolved names.
type EdgePair struct {
	Source     int64  `json:"source"`
	Target     int64  `json:"target"`
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
}

// Server exposes one description, replaceable on rebuild.
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu     sync.RWMutex
	desc   *description.Description
	source string
}

// NewServer creates a server with no description loaded yet.
func NewServer() *Server {
	s := &Server{
		router:    mux.NewRouter(),
		publisher: pubsub.NewSSEPublisher(),
	}
	s.setupRoutes()
	return s
}

// SetDescription swaps in a freshly built description and notifies
// subscribers.
func (s *Server) SetDescription(desc *description.Description, source string) {
	s.mu.Lock()
	s.desc = desc
	s.source = source
	s.mu.Unlock()

	if err := s.publisher.Publish(pubsub.TopicDescription, "built", desc.Document()); err != nil {
		logging.Warn("failed to publish description", "error", err)
	}
	s.PublishStatus("ready", "")
}

// PublishStatus pushes a build status event to subscribers.
func (s *Server) PublishStatus(state, message string) {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()

	status := pubsub.BuildStatus{State: state, Message: message, Source: source}
	if err := s.publisher.Publish(pubsub.TopicBuildStatus, state, status); err != nil {
		logging.Warn("failed to publish build status", "error", err)
	}
}

// Router returns the configured handler, wrapped in request logging.
func (s *Server) Router() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// Start serves until the listener fails.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "addr", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/events", s.handleEvents).Methods("GET")
	s.router.HandleFunc("/api/description", s.handleDescription).Methods("GET")
	s.router.HandleFunc("/api/inspect", s.handleInspect).Methods("GET")
	s.router.HandleFunc("/api/nodes", s.handleNodes).Methods("GET")
	s.router.HandleFunc("/api/nodes/{name}", s.handleNode).Methods("GET")
	s.router.HandleFunc("/api/groups", s.handleGroups).Methods("GET")
	s.router.HandleFunc("/api/groups/{name}", s.handleGroup).Methods("GET")

	staticFS, _ := fs.Sub(staticFiles, "static")
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// current returns the loaded description, or writes 503 and reports false.
func (s *Server) current(w http.ResponseWriter) (*description.Description, bool) {
	s.mu.RLock()
	desc := s.desc
	s.mu.RUnlock()

	if desc == nil {
		http.Error(w, "description not available", http.StatusServiceUnavailable)
		return nil, false
	}
	return desc, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, desc.Document())
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, inspect.Analyze(desc))
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, desc.Nodes())
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.current(w)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	id, found := desc.NodeID(name)
	if !found {
		http.Error(w, fmt.Sprintf("node %q not found", name), http.StatusNotFound)
		return
	}

	writeJSON(w, NodeDetail{
		ID:        id,
		Name:      name,
		Attrs:     desc.Attrs(name),
		Outgoing:  desc.OutgoingEdges(name),
		Incoming:  desc.IncomingEdges(name),
		Connected: desc.ConnectedNodes(name),
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, desc.Groups())
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.current(w)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	eg, found := desc.EdgeGroup(name)
	if !found {
		http.Error(w, fmt.Sprintf("edge group %q not found", name), http.StatusNotFound)
		return
	}

	detail := GroupDetail{Name: name, Edges: make([]EdgePair, 0, eg.Len())}
	for _, edge := range eg.Edges() {
		sourceName, _ := desc.NodeName(edge.Source)
		targetName, _ := desc.NodeName(edge.Target)
		detail.Edges = append(detail.Edges, EdgePair{
			Source:     edge.Source,
			Target:     edge.Target,
			SourceName: sourceName,
			TargetName: targetName,
		})
	}
	writeJSON(w, detail)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream (Safari compatibility).
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = pubsub.TopicDescription
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.Debug("SSE client gone", "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}
