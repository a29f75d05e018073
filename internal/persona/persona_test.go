package persona

import (
	"errors"
	"testing"

	"github.com/alienxp03/council/internal/core"
	"github.com/alienxp03/council/internal/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(storage.NewMemoryStorage())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func TestNewStore(t *testing.T) {
	t.Run("SeedsDefaultsWhenEmpty", func(t *testing.T) {
		st := storage.NewMemoryStorage()
		s, err := NewStore(st)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		roster := s.List()
		if len(roster) != 3 {
			t.Fatalf("wrong roster size: got %d, want 3", len(roster))
		}
		if roster[0].Name != "Marcus" || roster[1].Name != "Sarah" || roster[2].Name != "Elena" {
			t.Errorf("unexpected default roster: %v", roster)
		}
		if !roster[0].IsActive || !roster[1].IsActive || roster[2].IsActive {
			t.Error("wrong default active flags")
		}

		// The seed must be persisted so a restart sees the same roster.
		saved, err := st.LoadRoster()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(saved) != 3 {
			t.Errorf("seed not persisted: got %d personas", len(saved))
		}
	})

	t.Run("HydratesExistingRoster", func(t *testing.T) {
		st := storage.NewMemoryStorage()
		st.SaveRoster([]core.Persona{
			{ID: "x", Name: "Solo", BehaviorInstruction: "be brief", IsActive: true},
		})

		s, err := NewStore(st)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		roster := s.List()
		if len(roster) != 1 || roster[0].Name != "Solo" {
			t.Errorf("hydration lost data: %v", roster)
		}
	})
}

func TestAdd(t *testing.T) {
	t.Run("AppendsInOrder", func(t *testing.T) {
		s := newStore(t)
		err := s.Add(core.Persona{Name: "Devil", Role: "Advocate", BehaviorInstruction: "disagree"})
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		roster := s.List()
		if len(roster) != 4 {
			t.Fatalf("wrong roster size: got %d, want 4", len(roster))
		}
		last := roster[3]
		if last.Name != "Devil" {
			t.Errorf("new persona not appended at end: %v", last)
		}
		if last.ID == "" {
			t.Error("no id generated")
		}
	})

	t.Run("RequiresName", func(t *testing.T) {
		s := newStore(t)
		err := s.Add(core.Persona{BehaviorInstruction: "x"})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if len(s.List()) != 3 {
			t.Error("roster mutated on rejected add")
		}
	})

	t.Run("RequiresBehaviorInstruction", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(core.Persona{Name: "x"}); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("RejectsDuplicateID", func(t *testing.T) {
		s := newStore(t)
		err := s.Add(core.Persona{ID: "1", Name: "Clone", BehaviorInstruction: "x"})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestUpdate(t *testing.T) {
	t.Run("PartialFields", func(t *testing.T) {
		s := newStore(t)
		name := "Marcus II"
		s.Update("1", Update{Name: &name})

		p, ok := s.Get("1")
		if !ok {
			t.Fatal("persona disappeared")
		}
		if p.Name != "Marcus II" {
			t.Errorf("name not updated: %q", p.Name)
		}
		if p.Role != "CFO" {
			t.Errorf("untouched field changed: %q", p.Role)
		}
	})

	t.Run("UnknownIDIsNoOp", func(t *testing.T) {
		s := newStore(t)
		name := "Ghost"
		s.Update("nope", Update{Name: &name})
		if len(s.List()) != 3 {
			t.Error("roster changed for unknown id")
		}
	})
}

func TestToggleActive(t *testing.T) {
	s := newStore(t)

	s.ToggleActive("3")
	if p, _ := s.Get("3"); !p.IsActive {
		t.Error("toggle did not activate")
	}

	s.ToggleActive("3")
	if p, _ := s.Get("3"); p.IsActive {
		t.Error("toggle did not deactivate")
	}

	s.ToggleActive("nope") // no-op
	if len(s.List()) != 3 {
		t.Error("roster changed for unknown id")
	}
}

func TestRemove(t *testing.T) {
	s := newStore(t)

	s.Remove("2")
	if _, ok := s.Get("2"); ok {
		t.Error("persona still present after remove")
	}
	roster := s.List()
	if len(roster) != 2 {
		t.Fatalf("wrong roster size: got %d, want 2", len(roster))
	}
	if roster[0].ID != "1" || roster[1].ID != "3" {
		t.Errorf("order not preserved: %v", roster)
	}

	s.Remove("nope") // no-op
	if len(s.List()) != 2 {
		t.Error("roster changed for unknown id")
	}
}

func TestActiveIDs(t *testing.T) {
	s := newStore(t)

	ids := s.ActiveIDs()
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Errorf("wrong active ids: %v", ids)
	}

	s.ToggleActive("1")
	s.ToggleActive("3")
	ids = s.ActiveIDs()
	if len(ids) != 2 || ids[0] != "2" || ids[1] != "3" {
		t.Errorf("wrong active ids after toggles: %v", ids)
	}
}

func TestResetToDefaults(t *testing.T) {
	s := newStore(t)
	s.Remove("1")
	s.Remove("2")
	s.Add(core.Persona{Name: "Custom", BehaviorInstruction: "x"})

	s.ResetToDefaults()
	roster := s.List()
	if len(roster) != 3 {
		t.Fatalf("wrong roster size after reset: got %d, want 3", len(roster))
	}
	if roster[0].Name != "Marcus" {
		t.Errorf("reset did not restore defaults: %v", roster)
	}
}

func TestSubscribe(t *testing.T) {
	s := newStore(t)

	calls := 0
	s.Subscribe(func() { calls++ })

	s.ToggleActive("1")
	s.Remove("2")
	s.ToggleActive("nope") // no-op must not notify

	if calls != 2 {
		t.Errorf("wrong notification count: got %d, want 2", calls)
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := newStore(t)
	roster := s.List()
	roster[0].Name = "mutated"

	if p, _ := s.Get("1"); p.Name != "Marcus" {
		t.Error("List leaked internal state")
	}
}
