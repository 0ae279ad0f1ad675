package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// heartbeatInterval is how often an idle SSE stream emits a keepalive.
const heartbeatInterval = 30 * time.Second

// Server exposes the session registry over HTTP with an SSE event
// stream per session.
type Server struct {
	registry  *Registry
	heartbeat time.Duration
}

// NewServer creates an HTTP server facade over the registry.
func NewServer(registry *Registry) *Server {
	return &Server{registry: registry, heartbeat: heartbeatInterval}
}

// SetHeartbeat overrides the keepalive interval. Used by tests.
func (s *Server) SetHeartbeat(d time.Duration) {
	if d > 0 {
		s.heartbeat = d
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.handleCreate)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleClose)
	mux.HandleFunc("GET /events/{id}", s.handleStream)
	mux.HandleFunc("POST /events/{id}", s.handlePublish)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	// An empty or absent body is fine; the session just gets a default name.
	_ = json.NewDecoder(r.Body).Decode(&body)

	sess := s.registry.Create(body.Name)
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID(),
		"status":     "created",
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.registry.Close(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"status":     "closed",
	})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
		return
	}

	if err := sess.Publish(event); err != nil {
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeSSE(w, Event{
		Type:      "connected",
		Data:      map[string]interface{}{"session_id": sess.ID()},
		Timestamp: time.Now(),
	})
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			writeSSE(w, Event{Type: "heartbeat", Timestamp: time.Now()})
			flusher.Flush()
		case event, open := <-sess.Events():
			if !open {
				writeSSE(w, Event{
					Type:      "session_closed",
					Data:      map[string]interface{}{"session_id": sess.ID()},
					Timestamp: time.Now(),
				})
				flusher.Flush()
				return
			}
			writeSSE(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.registry.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeSSE renders one event in text/event-stream framing.
func writeSSE(w http.ResponseWriter, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
