package engine

import (
	"github.com/alienxp03/council/internal/core"
)

// EventType identifies an engine broadcast event.
type EventType string

const (
	// EventTurnCreated fires when a turn is appended to the log.
	EventTurnCreated EventType = "turn_created"
	// EventChunk fires for each incremental piece of a persona's stream.
	EventChunk EventType = "chunk"
	// EventResponseRecorded fires when a persona's completion finishes.
	EventResponseRecorded EventType = "response_recorded"
	// EventResponseFailed fires when a persona's completion fails.
	EventResponseFailed EventType = "response_failed"
	// EventTurnComplete fires once per turn, when its last expected
	// response arrives.
	EventTurnComplete EventType = "turn_complete"
	// EventRosterUpdated fires on every persona roster mutation, so
	// connected views converge without re-fetching on their own writes.
	EventRosterUpdated EventType = "roster_updated"
)

// Event is a single engine broadcast.
type Event struct {
	Type      EventType  `json:"type"`
	Turn      *core.Turn `json:"turn,omitempty"`
	TurnID    string     `json:"turn_id,omitempty"`
	PersonaID string     `json:"persona_id,omitempty"`
	Text      string     `json:"text,omitempty"`
}

// Subscribe registers a listener. The returned channel is buffered; slow
// listeners drop events rather than block the engine.
func (e *Engine) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	e.mu.Lock()
	if e.closed {
		close(ch)
	} else {
		e.subs[ch] = struct{}{}
	}
	e.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (e *Engine) Unsubscribe(ch <-chan Event) {
	e.mu.Lock()
	for sub := range e.subs {
		if sub == ch {
			delete(e.subs, sub)
			close(sub)
			break
		}
	}
	e.mu.Unlock()
}

func (e *Engine) broadcast(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcastLocked(ev)
}

func (e *Engine) broadcastLocked(ev Event) {
	if e.closed {
		return
	}
	for sub := range e.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}
