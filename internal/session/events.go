package session

import (
	"time"

	"github.com/opsdrill/opsdrill/internal/models"
)

// EventType names the disclosure and grading events a session emits.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventClueRevealed   EventType = "clue_revealed"
	EventHintRevealed   EventType = "hint_revealed"
	EventSubmitted      EventType = "submitted"
	EventAbandoned      EventType = "abandoned"
)

// Event is one disclosure or grading event emitted by the engine. Events are
// best-effort: a slow or absent consumer never blocks session operations.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	CaseID    string    `json:"case_id"`
	ClueID    string    `json:"clue_id,omitempty"`
	// Outcome is set on submitted events only.
	Outcome *models.Outcome `json:"outcome,omitempty"`
	At      time.Time       `json:"at"`
}

// eventBufferSize bounds the per-session event channel. A session emits at
// most one event per operation, so a small buffer absorbs any realistic burst
// between SSE flushes.
const eventBufferSize = 16

// emit publishes an event without ever blocking. Events overflowing the
// buffer are dropped; the persisted session state remains authoritative.
func (e *Engine) emit(events chan Event, event Event) {
	if events == nil {
		return
	}
	select {
	case events <- event:
	default:
	}
}
