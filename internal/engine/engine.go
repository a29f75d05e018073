// Package engine orchestrates conversation turns across personas.
//
// The engine owns the append-only turn log and the response map. Submitting
// a prompt fans out one streaming completion per active persona; each
// finished stream records a response cell, and a turn is complete once every
// expected cell is present. Completed trailing turns may trigger a bounded
// number of automatic debate rounds.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/alienxp03/council/internal/completion"
	"github.com/alienxp03/council/internal/core"
	"github.com/alienxp03/council/internal/persona"
)

const (
	// DefaultMaxAutoDepth caps consecutive automatic debate rounds.
	DefaultMaxAutoDepth = 2
	// DefaultDebateDelay spaces automatic rounds apart so responses don't
	// land in visually simultaneous bursts.
	DefaultDebateDelay = time.Second

	autoTurnDisplay = "Debate round initiated"

	debateInstruction = "\nInstructions: You are participating in a roundtable. " +
		"Review the responses above. If you have a critical disagreement or an " +
		"important build, state it CONCISELY. If you agree with everyone, say " +
		"nothing or [AGREE]."

	removedPersonaName = "(removed)"
)

var (
	// ErrNoActivePersona is returned when a prompt is submitted with zero
	// active personas. No turn is created.
	ErrNoActivePersona = errors.New("no active personas")
	// ErrEmptyPrompt is returned for blank submissions.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrNoTurns is returned when a debate is triggered on an empty log.
	ErrNoTurns = errors.New("no turns yet")
	// ErrTurnNotComplete is returned when a debate is triggered while the
	// latest turn is still collecting responses.
	ErrTurnNotComplete = errors.New("latest turn is not complete")
	// ErrDepthReached is returned when the automatic debate depth cap
	// blocks further rounds.
	ErrDepthReached = errors.New("auto debate depth reached")
	// ErrClosed is returned after the engine has been torn down.
	ErrClosed = errors.New("engine is closed")
)

// Config holds engine policy settings.
type Config struct {
	MaxAutoDepth int
	DebateDelay  time.Duration
}

// Engine is the turn orchestrator. It is the single writer of the turn log
// and response map.
type Engine struct {
	cfg      Config
	personas *persona.Store
	streamer completion.Streamer

	mu        sync.Mutex
	turns     []*core.Turn
	responses map[string]map[string]string // turn id -> persona id -> final text
	failures  map[string]map[string]string // turn id -> persona id -> error detail
	evaluated map[string]bool              // one-shot continuation flag per turn
	timer     *time.Timer                  // pending auto-continuation, at most one
	subs      map[chan Event]struct{}
	closed    bool

	rng    *rand.Rand
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a turn engine.
func New(store *persona.Store, streamer completion.Streamer, cfg Config) *Engine {
	if cfg.MaxAutoDepth <= 0 {
		cfg.MaxAutoDepth = DefaultMaxAutoDepth
	}
	if cfg.DebateDelay <= 0 {
		cfg.DebateDelay = DefaultDebateDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:       cfg,
		personas:  store,
		streamer:  streamer,
		responses: make(map[string]map[string]string),
		failures:  make(map[string]map[string]string),
		evaluated: make(map[string]bool),
		subs:      make(map[chan Event]struct{}),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:       ctx,
		cancel:    cancel,
	}
	store.Subscribe(func() {
		e.broadcast(Event{Type: EventRosterUpdated})
	})
	return e
}

// SubmitUserTurn appends a user turn responding with the currently active
// personas and fans out one completion per persona. The active set is
// snapshotted at submission time.
func (e *Engine) SubmitUserTurn(text string) (*core.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyPrompt
	}

	active := e.personas.ActiveIDs()
	if len(active) == 0 {
		return nil, ErrNoActivePersona
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	turn := &core.Turn{
		ID:                   core.NewID(),
		Kind:                 core.KindUser,
		DisplayText:          text,
		PromptText:           text,
		RespondingPersonaIDs: active,
		CreatedAt:            time.Now(),
	}
	e.appendTurnLocked(turn)
	history := e.buildHistoryLocked(turn.ID)
	e.broadcastLocked(Event{Type: EventTurnCreated, Turn: turn})
	e.mu.Unlock()

	slog.Debug("User turn submitted", "turn_id", turn.ID, "personas", len(active))
	e.fanOut(turn, history)
	return turn, nil
}

// TriggerDebate forces immediate synthesis of an automatic debate round from
// the latest turn, bypassing the perceptual delay but not the depth cap.
func (e *Engine) TriggerDebate() (*core.Turn, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if len(e.turns) == 0 {
		e.mu.Unlock()
		return nil, ErrNoTurns
	}
	last := e.turns[len(e.turns)-1]
	if !e.isCompleteLocked(last) {
		e.mu.Unlock()
		return nil, ErrTurnNotComplete
	}
	if e.trailingAutoDepthLocked() >= e.cfg.MaxAutoDepth {
		e.mu.Unlock()
		return nil, ErrDepthReached
	}

	// A pending delayed round for this turn is superseded.
	e.stopTimerLocked()
	e.evaluated[last.ID] = true

	turn := e.synthesizeAutoTurnLocked(last)
	history := e.buildHistoryLocked(turn.ID)
	e.broadcastLocked(Event{Type: EventTurnCreated, Turn: turn})
	e.mu.Unlock()

	slog.Debug("Debate round triggered manually", "turn_id", turn.ID, "source", last.ID)
	e.fanOut(turn, history)
	return turn, nil
}

// RecordResponse upserts a persona's final text into the response map. The
// call is idempotent and silently ignores unknown turns or personas outside
// the turn's responder set. Completion detection and continuation scheduling
// happen in the same critical section as the write, so continuation is
// evaluated exactly once per completed turn.
func (e *Engine) RecordResponse(turnID, personaID, text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	turn := e.turnByIDLocked(turnID)
	cells, ok := e.responses[turnID]
	if turn == nil || !ok || !isResponder(turn, personaID) {
		e.mu.Unlock()
		return
	}

	cells[personaID] = text
	e.broadcastLocked(Event{Type: EventResponseRecorded, TurnID: turnID, PersonaID: personaID, Text: text})
	e.evaluateAutoContinuationLocked()
	e.mu.Unlock()
}

// RecordFailure notes a persona's completion failure. The cell stays absent:
// a turn with a permanently failed persona never completes, and continuation
// for that branch stalls.
func (e *Engine) RecordFailure(turnID, personaID string, cause error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	turn := e.turnByIDLocked(turnID)
	if turn == nil || !isResponder(turn, personaID) {
		e.mu.Unlock()
		return
	}
	if e.failures[turnID] == nil {
		e.failures[turnID] = make(map[string]string)
	}
	e.failures[turnID][personaID] = cause.Error()
	e.broadcastLocked(Event{Type: EventResponseFailed, TurnID: turnID, PersonaID: personaID, Text: cause.Error()})
	e.mu.Unlock()

	slog.Warn("Completion failed", "turn_id", turnID, "persona_id", personaID, "error", cause)
}

// evaluateAutoContinuationLocked runs after every response-map change. It
// considers only the most recent turn, flags it evaluated exactly once, and
// either schedules a delayed debate round or stops at the depth cap.
func (e *Engine) evaluateAutoContinuationLocked() {
	if len(e.turns) == 0 {
		return
	}
	last := e.turns[len(e.turns)-1]
	if !e.isCompleteLocked(last) {
		return
	}
	if e.evaluated[last.ID] {
		return
	}
	e.evaluated[last.ID] = true
	e.broadcastLocked(Event{Type: EventTurnComplete, TurnID: last.ID})

	if e.trailingAutoDepthLocked() >= e.cfg.MaxAutoDepth {
		slog.Debug("Auto debate depth reached", "turn_id", last.ID, "depth", e.cfg.MaxAutoDepth)
		return
	}

	sourceID := last.ID
	e.stopTimerLocked()
	e.timer = time.AfterFunc(e.cfg.DebateDelay, func() {
		e.autoContinue(sourceID)
	})
	slog.Debug("Auto debate round scheduled", "source", sourceID, "delay", e.cfg.DebateDelay)
}

// autoContinue synthesizes the scheduled debate round, unless the log moved
// on or the engine was torn down in the meantime.
func (e *Engine) autoContinue(sourceID string) {
	e.mu.Lock()
	if e.closed || len(e.turns) == 0 {
		e.mu.Unlock()
		return
	}
	last := e.turns[len(e.turns)-1]
	if last.ID != sourceID {
		e.mu.Unlock()
		return
	}

	turn := e.synthesizeAutoTurnLocked(last)
	history := e.buildHistoryLocked(turn.ID)
	e.broadcastLocked(Event{Type: EventTurnCreated, Turn: turn})
	e.mu.Unlock()

	slog.Debug("Auto debate round synthesized", "turn_id", turn.ID, "source", sourceID)
	e.fanOut(turn, history)
}

// synthesizeAutoTurnLocked builds a debate digest from the source turn and
// appends an auto turn answered by one randomly selected participant.
func (e *Engine) synthesizeAutoTurnLocked(source *core.Turn) *core.Turn {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "[User]: %s\n\n", source.DisplayText)
	for _, pid := range source.RespondingPersonaIDs {
		text, ok := e.responses[source.ID][pid]
		if !ok {
			continue
		}
		fmt.Fprintf(&prompt, "[%s]: %s\n", e.personaName(pid), text)
	}
	prompt.WriteString(debateInstruction)

	// One responder prevents N-way simultaneous cross-talk.
	selected := source.RespondingPersonaIDs[e.rng.Intn(len(source.RespondingPersonaIDs))]

	turn := &core.Turn{
		ID:                   core.NewID(),
		Kind:                 core.KindAuto,
		DisplayText:          autoTurnDisplay,
		PromptText:           prompt.String(),
		RespondingPersonaIDs: []string{selected},
		CreatedAt:            time.Now(),
	}
	e.appendTurnLocked(turn)
	return turn
}

// fanOut launches one completion invocation per responding persona. Each
// invocation reports back through the engine; a slow or failed one never
// blocks its siblings.
func (e *Engine) fanOut(turn *core.Turn, history []core.Message) {
	for _, pid := range turn.RespondingPersonaIDs {
		p, ok := e.personas.Get(pid)
		if !ok {
			// Dangling reference; nothing to invoke for it.
			continue
		}

		req := completion.Request{
			Prompt:            turn.PromptText,
			SystemInstruction: p.BehaviorInstruction,
			History:           history,
		}
		personaID := pid
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.streamer.Stream(e.ctx, req, completion.Callbacks{
				OnChunk: func(chunk string) {
					e.broadcast(Event{Type: EventChunk, TurnID: turn.ID, PersonaID: personaID, Text: chunk})
				},
				OnDone: func(finalText string) {
					e.RecordResponse(turn.ID, personaID, finalText)
				},
				OnError: func(err error) {
					e.RecordFailure(turn.ID, personaID, err)
				},
			})
		}()
	}
}

// BuildHistoryFor reconstructs the conversation history for a turn: for
// every turn strictly before it in log order, one user message with that
// turn's prompt, then one assistant message per recorded response prefixed
// with the persona's current display name.
func (e *Engine) BuildHistoryFor(turnID string) []core.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildHistoryLocked(turnID)
}

func (e *Engine) buildHistoryLocked(turnID string) []core.Message {
	var msgs []core.Message
	for _, t := range e.turns {
		if t.ID == turnID {
			break
		}
		prompt := t.PromptText
		if prompt == "" {
			prompt = t.DisplayText
		}
		msgs = append(msgs, core.Message{Role: core.RoleUser, Content: prompt})
		for _, pid := range t.RespondingPersonaIDs {
			text, ok := e.responses[t.ID][pid]
			if !ok {
				continue
			}
			msgs = append(msgs, core.Message{
				Role:    core.RoleAssistant,
				Content: fmt.Sprintf("%s: %s", e.personaName(pid), text),
			})
		}
	}
	return msgs
}

// Turns returns the turn log in order.
func (e *Engine) Turns() []*core.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*core.Turn(nil), e.turns...)
}

// Responses returns a copy of a turn's response map.
func (e *Engine) Responses(turnID string) map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyCells(e.responses[turnID])
}

// Failures returns a copy of a turn's failure map.
func (e *Engine) Failures(turnID string) map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyCells(e.failures[turnID])
}

// IsComplete reports whether every expected responder has a response cell.
func (e *Engine) IsComplete(turnID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	turn := e.turnByIDLocked(turnID)
	return turn != nil && e.isCompleteLocked(turn)
}

// TrailingAutoDepth counts the run of auto turns at the end of the log.
func (e *Engine) TrailingAutoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trailingAutoDepthLocked()
}

// Close tears the engine down: the pending debate timer is cancelled,
// in-flight streams are abandoned, and subscriber channels are closed. No
// synthesis or callback activity happens after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopTimerLocked()
	e.cancel()
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	for sub := range e.subs {
		close(sub)
	}
	e.subs = make(map[chan Event]struct{})
	e.mu.Unlock()
}

func (e *Engine) appendTurnLocked(turn *core.Turn) {
	e.turns = append(e.turns, turn)
	e.responses[turn.ID] = make(map[string]string)
}

func (e *Engine) turnByIDLocked(id string) *core.Turn {
	for _, t := range e.turns {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (e *Engine) isCompleteLocked(turn *core.Turn) bool {
	cells := e.responses[turn.ID]
	for _, pid := range turn.RespondingPersonaIDs {
		if _, ok := cells[pid]; !ok {
			return false
		}
	}
	return true
}

// trailingAutoDepthLocked scans backward from the end of the log, counting
// auto turns until the first user turn.
func (e *Engine) trailingAutoDepthLocked() int {
	depth := 0
	for i := len(e.turns) - 1; i >= 0; i-- {
		if e.turns[i].Kind != core.KindAuto {
			break
		}
		depth++
	}
	return depth
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// personaName resolves a persona's current display name, tolerating deleted
// personas.
func (e *Engine) personaName(id string) string {
	if p, ok := e.personas.Get(id); ok {
		return p.Name
	}
	return removedPersonaName
}

func isResponder(turn *core.Turn, personaID string) bool {
	for _, pid := range turn.RespondingPersonaIDs {
		if pid == personaID {
			return true
		}
	}
	return false
}

func copyCells(cells map[string]string) map[string]string {
	out := make(map[string]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	return out
}
