package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"jp-mentor/internal/skill"
)

const (
	maxHighlights   = 10
	highlightRunes  = 160
	recentHintCount = 3
)

// Conversation is the ordered message log plus a bounded rolling list of
// liked highlights. Messages are append-only except for in-place updates by
// id; highlights never exceed maxHighlights (FIFO eviction).
type Conversation struct {
	ID              uuid.UUID `json:"id"`
	Messages        []Message `json:"messages"`
	LikedHighlights []string  `json:"likedHighlights"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewConversation() Conversation {
	now := time.Now()
	return Conversation{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendMessage adds m to the end of the log.
func (c *Conversation) AppendMessage(m Message) {
	c.Messages = append(c.Messages, m)
	c.touch()
}

// ReplaceMessage swaps the stored message with the same id, preserving its
// position. Unknown ids are a no-op.
func (c *Conversation) ReplaceMessage(m Message) {
	for i := range c.Messages {
		if c.Messages[i].ID == m.ID {
			c.Messages[i] = m
			c.touch()
			return
		}
	}
}

// FindMessage returns the message with the given id, if present.
func (c *Conversation) FindMessage(id uuid.UUID) (Message, bool) {
	for _, m := range c.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// AddHighlight captures the leading excerpt of a liked message, evicting the
// oldest highlights beyond capacity.
func (c *Conversation) AddHighlight(m Message) {
	c.LikedHighlights = append(c.LikedHighlights, truncateRunes(m.Text, highlightRunes))
	if n := len(c.LikedHighlights); n > maxHighlights {
		c.LikedHighlights = c.LikedHighlights[n-maxHighlights:]
	}
	c.touch()
}

// PreferenceHints summarizes the most recent highlights for prompt building,
// or "" when none have been captured.
func (c *Conversation) PreferenceHints() string {
	if len(c.LikedHighlights) == 0 {
		return ""
	}
	recent := c.LikedHighlights
	if len(recent) > recentHintCount {
		recent = recent[len(recent)-recentHintCount:]
	}
	return "User liked: " + strings.Join(recent, " • ")
}

// Clear resets the conversation to a brand-new empty one.
func (c *Conversation) Clear() {
	*c = NewConversation()
}

// Clone returns a deep copy so callers can hold a snapshot without aliasing
// the owner's slices.
func (c Conversation) Clone() Conversation {
	out := c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
		for i, m := range out.Messages {
			if m.SkillHints != nil {
				hints := make([]skill.Skill, len(m.SkillHints))
				copy(hints, m.SkillHints)
				out.Messages[i].SkillHints = hints
			}
		}
	}
	if c.LikedHighlights != nil {
		out.LikedHighlights = make([]string, len(c.LikedHighlights))
		copy(out.LikedHighlights, c.LikedHighlights)
	}
	return out
}

func (c *Conversation) touch() {
	c.UpdatedAt = time.Now()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
