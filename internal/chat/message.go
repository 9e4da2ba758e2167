package chat

import (
	"time"

	"github.com/google/uuid"

	"jp-mentor/internal/skill"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation entry. Identity, role, text and timestamp
// are fixed at creation; only Rating and SkillHints are ever updated, and
// only on assistant messages.
type Message struct {
	ID         uuid.UUID     `json:"id"`
	Role       Role          `json:"role"`
	Text       string        `json:"text"`
	Timestamp  time.Time     `json:"timestamp"`
	Rating     int           `json:"rating,omitempty"`
	SkillHints []skill.Skill `json:"skillHints,omitempty"`
}

// NewMessage creates a message with a fresh identity and timestamp. hints may
// be nil for messages without skill provenance.
func NewMessage(role Role, text string, hints []skill.Skill) Message {
	return Message{
		ID:         uuid.New(),
		Role:       role,
		Text:       text,
		Timestamp:  time.Now(),
		SkillHints: hints,
	}
}
