// Package persona implements the persona roster store.
package persona

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alienxp03/council/internal/core"
	"github.com/alienxp03/council/internal/storage"
)

// ErrValidation is returned when a persona is created with missing required
// fields.
var ErrValidation = errors.New("invalid persona")

// Update holds partial persona fields. Nil fields are left unchanged.
type Update struct {
	Name                *string
	Role                *string
	StyleTag            *string
	BehaviorInstruction *string
	IsActive            *bool
}

// Store holds the ordered persona roster. All mutations persist synchronously
// and notify subscribers. Unknown ids are no-ops, not errors; only
// malformed-input creation fails.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	roster  []core.Persona
	subs    []func()
}

// NewStore creates a store hydrated from storage. An empty storage is seeded
// with the default roster.
func NewStore(st storage.Storage) (*Store, error) {
	s := &Store{storage: st}

	roster, err := st.LoadRoster()
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate roster: %w", err)
	}
	if roster == nil {
		roster = DefaultPersonas()
		if err := st.SaveRoster(roster); err != nil {
			return nil, fmt.Errorf("failed to seed roster: %w", err)
		}
	}
	s.roster = roster

	return s, nil
}

// Subscribe registers a callback invoked after every roster mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Add appends a persona to the roster, preserving insertion order.
func (s *Store) Add(p core.Persona) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.BehaviorInstruction == "" {
		return fmt.Errorf("%w: behavior instruction is required", ErrValidation)
	}

	s.mu.Lock()
	if p.ID == "" {
		p.ID = core.NewID()
	}
	for _, existing := range s.roster {
		if existing.ID == p.ID {
			s.mu.Unlock()
			return fmt.Errorf("%w: duplicate id %s", ErrValidation, p.ID)
		}
	}
	s.roster = append(s.roster, p)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Update applies partial fields to a persona. Unknown id is a no-op.
func (s *Store) Update(id string, upd Update) {
	s.mu.Lock()
	changed := false
	for i := range s.roster {
		if s.roster[i].ID != id {
			continue
		}
		if upd.Name != nil {
			s.roster[i].Name = *upd.Name
		}
		if upd.Role != nil {
			s.roster[i].Role = *upd.Role
		}
		if upd.StyleTag != nil {
			s.roster[i].StyleTag = *upd.StyleTag
		}
		if upd.BehaviorInstruction != nil {
			s.roster[i].BehaviorInstruction = *upd.BehaviorInstruction
		}
		if upd.IsActive != nil {
			s.roster[i].IsActive = *upd.IsActive
		}
		changed = true
		break
	}
	if changed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// ToggleActive flips a persona's active flag. Unknown id is a no-op.
func (s *Store) ToggleActive(id string) {
	s.mu.Lock()
	changed := false
	for i := range s.roster {
		if s.roster[i].ID == id {
			s.roster[i].IsActive = !s.roster[i].IsActive
			changed = true
			break
		}
	}
	if changed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Remove deletes a persona from the roster. Unknown id is a no-op. Historical
// turns keep referencing the removed id; renderers must tolerate the gap.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	changed := false
	for i := range s.roster {
		if s.roster[i].ID == id {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			changed = true
			break
		}
	}
	if changed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// List returns a copy of the full ordered roster.
func (s *Store) List() []core.Persona {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Persona(nil), s.roster...)
}

// Get returns a persona by id.
func (s *Store) Get(id string) (core.Persona, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.roster {
		if p.ID == id {
			return p, true
		}
	}
	return core.Persona{}, false
}

// ActiveIDs returns the ids of active personas in roster order.
func (s *Store) ActiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, p := range s.roster {
		if p.IsActive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// ResetToDefaults replaces the roster with the built-in seed set.
func (s *Store) ResetToDefaults() {
	s.mu.Lock()
	s.roster = DefaultPersonas()
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// persistLocked re-serializes the roster to storage. Persistence failures are
// logged rather than surfaced: the in-memory roster stays authoritative for
// the session.
func (s *Store) persistLocked() {
	if err := s.storage.SaveRoster(s.roster); err != nil {
		slog.Error("Failed to persist persona roster", "error", err)
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
