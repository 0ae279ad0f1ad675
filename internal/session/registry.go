// Package session provides the streaming side channel for pipeline
// progress: a registry of explicitly managed sessions, each owning one
// bounded event queue consumed by an SSE subscriber.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned when publishing into a closed session.
var ErrClosed = errors.New("session closed")

// ErrNotFound is returned when a session ID is unknown to the registry.
var ErrNotFound = errors.New("session not found")

// queueSize bounds each session's event queue. Publishing into a full
// queue drops the event rather than blocking the pipeline.
const queueSize = 100

// Event is one progress message published into a session.
type Event struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Session owns one event queue with an explicit open/closed lifecycle.
// The queue channel is closed exactly once, by Close.
type Session struct {
	id      string
	name    string
	created time.Time

	mu      sync.Mutex
	closed  bool
	dropped int
	events  chan Event
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Name returns the client-supplied session name.
func (s *Session) Name() string { return s.name }

// Created returns the session creation time.
func (s *Session) Created() time.Time { return s.created }

// Events returns the receive side of the session queue. The channel is
// closed when the session closes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Publish enqueues an event. A full queue drops the event silently so a
// slow or absent subscriber never stalls the pipeline; a closed session
// returns ErrClosed.
func (s *Session) Publish(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.events <- event:
	default:
		s.dropped++
	}
	return nil
}

// Close transitions the session to closed and closes the event channel.
// Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Dropped returns how many events were discarded on a full queue.
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Registry tracks active sessions by ID.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session with a fresh UUID.
func (r *Registry) Create(name string) *Session {
	if name == "" {
		name = "default"
	}
	s := &Session{
		id:      uuid.NewString(),
		name:    name,
		created: time.Now(),
		events:  make(chan Event, queueSize),
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close closes the session and removes it from the registry.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
