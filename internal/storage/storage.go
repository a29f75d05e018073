// Package storage provides persistence for the persona roster.
//
// Chat history is deliberately not persisted; only the roster survives a
// restart.
package storage

import (
	"os"
	"path/filepath"

	"github.com/alienxp03/council/internal/core"
)

// RosterKey is the namespaced key the roster snapshot is stored under.
const RosterKey = "council.personas"

// Storage defines the interface for roster persistence.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// SaveRoster replaces the stored roster snapshot.
	SaveRoster(personas []core.Persona) error

	// LoadRoster returns the stored roster, or nil if none was saved yet.
	LoadRoster() ([]core.Persona, error)
}

// DefaultDBPath returns the default database file path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "council.db"
	}
	return filepath.Join(home, ".council", "council.db")
}
