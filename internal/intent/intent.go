// Package intent classifies a raw user message into one of a small set of
// interaction intents that drive prompt phrasing and skill attribution.
package intent

import (
	"strings"
	"unicode"

	"jp-mentor/internal/skill"
)

type Intent int

const (
	// TranslationOnly means the user pasted Japanese text with no request
	// for commentary.
	TranslationOnly Intent = iota
	// ExplanationOrFeedback means the user asked for explanations, rewrites
	// or tone guidance.
	ExplanationOrFeedback
	// General covers everything else.
	General
)

var explanationKeywords = []string{"explain", "explanation", "grammar", "nuance", "why", "meaning", "breakdown"}

var feedbackKeywords = []string{"feedback", "revise", "rewrite", "tone", "sound natural", "make it", "improve", "check"}

// Classify infers the intent of a user message. Explanation/feedback keywords
// take priority over script detection, so "check the tone of 何ですか" still
// classifies as ExplanationOrFeedback.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, kw := range explanationKeywords {
		if strings.Contains(lower, kw) {
			return ExplanationOrFeedback
		}
	}
	for _, kw := range feedbackKeywords {
		if strings.Contains(lower, kw) {
			return ExplanationOrFeedback
		}
	}

	hasJapanese := false
	hasLatin := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			hasJapanese = true
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			hasLatin = true
		}
	}
	if hasJapanese && !hasLatin {
		return TranslationOnly
	}
	return General
}

// SystemDirective is folded into the system message of every request.
func (i Intent) SystemDirective() string {
	switch i {
	case TranslationOnly:
		return "When the user simply pastes non-native text without asking for extra detail, focus on delivering the cleanest translation and limit follow-up commentary to one short sentence only when essential."
	case ExplanationOrFeedback:
		return "The user is requesting explanations, feedback, or tone adjustments—provide a clear translation if needed, followed by thorough but concise guidance."
	default:
		return "Provide helpful translations first when necessary, then add brief explanations only if they aid understanding."
	}
}

// UserFacingDirective parameterizes the task checklist of the instruction
// message.
func (i Intent) UserFacingDirective() string {
	switch i {
	case TranslationOnly:
		return "Give the translation only; add at most one brief note if a nuance is critical."
	case ExplanationOrFeedback:
		return "Offer translation plus the requested explanation/feedback with actionable pointers."
	default:
		return "Interpret the request and respond with translation plus minimal context."
	}
}

// Summary is the short label quoted back in the instruction message.
func (i Intent) Summary() string {
	switch i {
	case TranslationOnly:
		return "Quick translation"
	case ExplanationOrFeedback:
		return "Detailed explanation/feedback"
	default:
		return "Mixed intent"
	}
}

// SkillHints lists the skills a reply generated under this intent is meant to
// exercise; they are attached to messages for later feedback attribution.
func (i Intent) SkillHints() []skill.Skill {
	switch i {
	case TranslationOnly:
		return []skill.Skill{skill.CrystalTranslation, skill.SpeedSummarizer}
	case ExplanationOrFeedback:
		return []skill.Skill{skill.GrammarGuide, skill.ToneCoach, skill.RewriteMentor}
	default:
		return []skill.Skill{skill.CrystalTranslation, skill.GrammarGuide}
	}
}

func (i Intent) String() string {
	switch i {
	case TranslationOnly:
		return "translationOnly"
	case ExplanationOrFeedback:
		return "explanationOrFeedback"
	default:
		return "general"
	}
}
