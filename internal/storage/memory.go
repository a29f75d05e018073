package storage

import (
	"sync"

	"github.com/alienxp03/council/internal/core"
)

// MemoryStorage implements Storage in memory, for tests and ephemeral runs.
type MemoryStorage struct {
	mu     sync.Mutex
	roster []core.Persona
	saved  bool
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Initialize() error { return nil }

func (s *MemoryStorage) Close() error { return nil }

func (s *MemoryStorage) SaveRoster(personas []core.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = append([]core.Persona(nil), personas...)
	s.saved = true
	return nil
}

func (s *MemoryStorage) LoadRoster() ([]core.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, nil
	}
	return append([]core.Persona(nil), s.roster...), nil
}
