package storage

import (
	"path/filepath"
	"testing"

	"github.com/alienxp03/council/internal/core"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "council.db")
	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadRosterEmpty(t *testing.T) {
	s := newTestStorage(t)

	roster, err := s.LoadRoster()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if roster != nil {
		t.Errorf("expected nil roster from empty storage, got %v", roster)
	}
}

func TestSaveAndLoadRoster(t *testing.T) {
	s := newTestStorage(t)

	want := []core.Persona{
		{ID: "1", Name: "Marcus", Role: "CFO", StyleTag: "red", BehaviorInstruction: "be cautious", IsActive: true},
		{ID: "2", Name: "Sarah", Role: "CEO", StyleTag: "blue", BehaviorInstruction: "be bold", IsActive: false},
	}
	if err := s.SaveRoster(want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.LoadRoster()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("wrong roster size: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("persona %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSaveRosterReplacesSnapshot(t *testing.T) {
	s := newTestStorage(t)

	s.SaveRoster([]core.Persona{{ID: "1", Name: "First", BehaviorInstruction: "x", IsActive: true}})
	s.SaveRoster([]core.Persona{{ID: "2", Name: "Second", BehaviorInstruction: "y", IsActive: true}})

	got, err := s.LoadRoster()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Second" {
		t.Errorf("snapshot not replaced: %v", got)
	}
}

func TestSaveEmptyRoster(t *testing.T) {
	// An explicitly saved empty roster is distinct from an absent snapshot.
	s := newTestStorage(t)

	if err := s.SaveRoster([]core.Persona{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := s.LoadRoster()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil roster, got %v", got)
	}
}
