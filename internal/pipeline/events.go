package pipeline

import (
	"log"
	"sync/atomic"
	"time"
)

// EventType identifies a pipeline progress event.
type EventType string

// Pipeline stage events, emitted in order during a run.
const (
	EventCloneStart       EventType = "clone_start"
	EventCloneComplete    EventType = "clone_complete"
	EventAnalyzeStart     EventType = "analyze_start"
	EventAnalyzeComplete  EventType = "analyze_complete"
	EventGenerateStart    EventType = "generate_start"
	EventGenerateComplete EventType = "generate_complete"
	EventApplyStart       EventType = "apply_start"
	EventApplyComplete    EventType = "apply_complete"
	EventCommitStart      EventType = "commit_start"
	EventCommitComplete   EventType = "commit_complete"
	EventPushStart        EventType = "push_start"
	EventPushComplete     EventType = "push_complete"
	EventPRStart          EventType = "pr_start"
	EventPRComplete       EventType = "pr_complete"
	EventValidationFailed EventType = "validation_failed"
	EventError            EventType = "error"
	EventDone             EventType = "done"
)

// Event is one progress update from a pipeline run.
type Event struct {
	Type    EventType              `json:"type"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Time    time.Time              `json:"time"`
}

// Emitter delivers pipeline events to a subscriber without ever
// blocking the pipeline: a full channel is retried briefly, then the
// event is dropped.
type Emitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEmitter creates an emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{events: make(chan Event, bufferSize)}
}

// Emit sends an event, dropping it after a short grace period if the
// subscriber cannot keep up.
func (e *Emitter) Emit(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[pipeline] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *Emitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the read side for subscribers (TUI, SSE sessions).
func (e *Emitter) Events() <-chan Event {
	return e.events
}

// Close closes the event channel. Call only after the final Emit.
func (e *Emitter) Close() {
	close(e.events)
}
