package profile

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"jp-mentor/internal/chat"
	"jp-mentor/internal/skill"
)

const snippetRunes = 120

// Profile accumulates feedback-driven personalization state for the single
// local user. Counters only grow; skill scores are floored at zero.
type Profile struct {
	ID                  uuid.UUID           `json:"id"`
	TotalQuestions      int                 `json:"totalQuestions"`
	LikedAnswers        int                 `json:"likedAnswers"`
	DislikedAnswers     int                 `json:"dislikedAnswers"`
	LastFeedbackSnippet string              `json:"lastFeedbackSnippet,omitempty"`
	LastUpdated         *time.Time          `json:"lastUpdated,omitempty"`
	SkillScores         map[skill.Skill]int `json:"skillScores"`
}

func New() Profile {
	return Profile{
		ID:          uuid.New(),
		SkillScores: make(map[skill.Skill]int),
	}
}

// RecordQuestion counts one user-submitted question. Called exactly once per
// send, before the remote request goes out.
func (p *Profile) RecordQuestion() {
	p.TotalQuestions++
	p.touch()
}

// ApplyRating folds a rating into the counters. A positive rating also
// captures the leading excerpt of the source text as the last positive
// snippet. The counters never reconcile when a rating is later flipped; they
// are lifetime tallies of feedback given, and skill scores carry the
// reconciled signal.
func (p *Profile) ApplyRating(rating int, source chat.Message) {
	if rating == 0 {
		return
	}
	if rating > 0 {
		p.LikedAnswers++
		if snippet := truncateRunes(source.Text, snippetRunes); snippet != "" {
			p.LastFeedbackSnippet = snippet
		}
	} else {
		p.DislikedAnswers++
	}
	p.touch()
}

// AdjustSkills shifts each given skill's score by delta, never below zero.
func (p *Profile) AdjustSkills(skills []skill.Skill, delta int) {
	if delta == 0 {
		return
	}
	if p.SkillScores == nil {
		p.SkillScores = make(map[skill.Skill]int)
	}
	for _, s := range skills {
		updated := p.SkillScores[s] + delta
		if updated < 0 {
			updated = 0
		}
		p.SkillScores[s] = updated
	}
	p.touch()
}

// RatingSummary phrases the accumulated feedback as coaching for the model.
func (p *Profile) RatingSummary() string {
	switch {
	case p.LikedAnswers == 0 && p.DislikedAnswers == 0:
		return "Still learning what the user prefers."
	case p.DislikedAnswers == 0:
		return "User consistently likes thorough, thoughtful responses."
	case p.LikedAnswers == 0:
		return "User often downvotes responses—focus on clarity and nuance."
	default:
		return fmt.Sprintf("Likes: %d | Dislikes: %d. Reinforce patterns found in liked answers.", p.LikedAnswers, p.DislikedAnswers)
	}
}

// LearningSummary is the user-facing digest of what the assistant has learned.
func (p *Profile) LearningSummary() string {
	base := fmt.Sprintf("Questions asked: %d. %s", p.TotalQuestions, p.RatingSummary())
	skillText := skill.FriendlySummary(p.SkillScores)
	if p.LastFeedbackSnippet != "" {
		return fmt.Sprintf("%s Last positive snippet: %q. %s", base, p.LastFeedbackSnippet, skillText)
	}
	return base + " " + skillText
}

// Clone returns a deep copy so callers can hold a snapshot without aliasing
// the owner's score map.
func (p Profile) Clone() Profile {
	out := p
	if p.SkillScores != nil {
		out.SkillScores = make(map[skill.Skill]int, len(p.SkillScores))
		for k, v := range p.SkillScores {
			out.SkillScores[k] = v
		}
	}
	if p.LastUpdated != nil {
		ts := *p.LastUpdated
		out.LastUpdated = &ts
	}
	return out
}

func (p *Profile) touch() {
	now := time.Now()
	p.LastUpdated = &now
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
