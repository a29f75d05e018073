package core

import (
	"github.com/google/uuid"
)

// NewID generates a unique opaque identifier for personas and turns.
func NewID() string {
	return uuid.New().String()
}
