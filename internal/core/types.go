// Package core contains the core domain types for council.
package core

import (
	"time"
)

// TurnKind distinguishes user-initiated turns from synthesized debate rounds.
type TurnKind string

const (
	KindUser TurnKind = "user"
	KindAuto TurnKind = "auto"
)

// Persona is a named, configurable responder profile.
type Persona struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Role                string `json:"role"` // e.g. "CFO", "The Skeptic"
	StyleTag            string `json:"style_tag"`
	BehaviorInstruction string `json:"behavior_instruction"`
	IsActive            bool   `json:"is_active"`
}

// Turn is one exchange unit in the conversation log. DisplayText is what a
// human sees; PromptText is what is sent to the completion service. The two
// diverge for auto turns, where the prompt is a constructed debate digest.
// RespondingPersonaIDs is snapshotted at creation time and never changes,
// even if the referenced personas are later edited or removed.
type Turn struct {
	ID                   string    `json:"id"`
	Kind                 TurnKind  `json:"kind"`
	DisplayText          string    `json:"display_text"`
	PromptText           string    `json:"prompt_text"`
	RespondingPersonaIDs []string  `json:"responding_persona_ids"`
	CreatedAt            time.Time `json:"created_at"`
}

// Role identifies the author of a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history handed to a completion
// request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
