package skill

import (
	"fmt"
	"sort"
	"strings"
)

// Skill is a named behavioral trait the assistant can lean into.
// Values double as persisted identifiers, so they must stay stable.
type Skill string

const (
	CrystalTranslation Skill = "crystalTranslation"
	GrammarGuide       Skill = "grammarGuide"
	ToneCoach          Skill = "toneCoach"
	CultureSensei      Skill = "cultureSensei"
	RewriteMentor      Skill = "rewriteMentor"
	SpeedSummarizer    Skill = "speedSummarizer"
)

// All lists every skill in declaration order. Ranking functions use this
// order to break score ties deterministically.
var All = []Skill{
	CrystalTranslation,
	GrammarGuide,
	ToneCoach,
	CultureSensei,
	RewriteMentor,
	SpeedSummarizer,
}

// Category groups related skills for display organization only.
type Category string

const (
	CategoryClarity  Category = "clarity"
	CategoryNuance   Category = "nuance"
	CategoryTone     Category = "tone"
	CategoryCulture  Category = "culture"
	CategoryCoaching Category = "coaching"
)

var AllCategories = []Category{
	CategoryClarity,
	CategoryNuance,
	CategoryTone,
	CategoryCulture,
	CategoryCoaching,
}

type skillInfo struct {
	title            string
	description      string
	category         Category
	promptDescriptor string
}

var skillTable = map[Skill]skillInfo{
	CrystalTranslation: {
		title:            "Crystal Translation",
		description:      "Prioritizes literal, dependable translations.",
		category:         CategoryClarity,
		promptDescriptor: "keep translations crisp and literal",
	},
	GrammarGuide: {
		title:            "Grammar Guide",
		description:      "Adds concise grammar or nuance notes.",
		category:         CategoryNuance,
		promptDescriptor: "include one short grammar/nuance note when useful",
	},
	ToneCoach: {
		title:            "Tone Coach",
		description:      "Suggests how to adjust tone or politeness.",
		category:         CategoryTone,
		promptDescriptor: "suggest tone or politeness tweaks",
	},
	CultureSensei: {
		title:            "Culture Sensei",
		description:      "Explains cultural or situational context.",
		category:         CategoryCulture,
		promptDescriptor: "add cultural context when it helps comprehension",
	},
	RewriteMentor: {
		title:            "Rewrite Mentor",
		description:      "Provides feedback on drafts and rewrites them.",
		category:         CategoryCoaching,
		promptDescriptor: "critique and rewrite drafts thoughtfully",
	},
	SpeedSummarizer: {
		title:            "Speed Summarizer",
		description:      "Keeps answers short and to the point.",
		category:         CategoryClarity,
		promptDescriptor: "keep explanations brief and efficient",
	},
}

type categoryInfo struct {
	title      string
	icon       string
	flavorText string
}

var categoryTable = map[Category]categoryInfo{
	CategoryClarity:  {"Clarity", "sparkles", "How literal and precise the assistant should be."},
	CategoryNuance:   {"Nuance", "text.book.closed", "How much grammar or nuance detail you enjoy."},
	CategoryTone:     {"Tone", "music.note", "How often to suggest tone or style tweaks."},
	CategoryCulture:  {"Culture", "globe.asia.australia", "How deep to go on culture/context notes."},
	CategoryCoaching: {"Coaching", "person.2.fill", "How much critique or rewriting help you want."},
}

// CategoryMap is the static skill grouping, built once at process start.
var CategoryMap = func() map[Category][]Skill {
	m := make(map[Category][]Skill, len(AllCategories))
	for _, s := range All {
		c := skillTable[s].category
		m[c] = append(m[c], s)
	}
	return m
}()

func (s Skill) Title() string            { return skillTable[s].title }
func (s Skill) Description() string      { return skillTable[s].description }
func (s Skill) Category() Category       { return skillTable[s].category }
func (s Skill) PromptDescriptor() string { return skillTable[s].promptDescriptor }

// Valid reports whether s is part of the catalog.
func (s Skill) Valid() bool {
	_, ok := skillTable[s]
	return ok
}

func (c Category) Title() string      { return categoryTable[c].title }
func (c Category) Icon() string       { return categoryTable[c].icon }
func (c Category) FlavorText() string { return categoryTable[c].flavorText }

// Score returns the accumulated score for a skill, defaulting to 0.
func Score(s Skill, scores map[Skill]int) int {
	return scores[s]
}

// ranked returns catalog skills with strictly positive scores, ordered by
// score descending with catalog declaration order breaking ties.
func ranked(scores map[Skill]int) []Skill {
	out := make([]Skill, 0, len(All))
	for _, s := range All {
		if scores[s] > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return scores[out[i]] > scores[out[j]]
	})
	return out
}

// TopDescriptors returns the lower-cased titles of the highest-scoring
// skills, keeping at most limit entries.
func TopDescriptors(scores map[Skill]int, limit int) []string {
	top := ranked(scores)
	if len(top) > limit {
		top = top[:limit]
	}
	names := make([]string, 0, len(top))
	for _, s := range top {
		names = append(names, strings.ToLower(s.Title()))
	}
	return names
}

// PromptAdditions renders the top three favored skills as a single prompt
// sentence, or "" when no skill has a positive score.
func PromptAdditions(scores map[Skill]int) string {
	top := ranked(scores)
	if len(top) > 3 {
		top = top[:3]
	}
	if len(top) == 0 {
		return ""
	}
	descriptors := make([]string, 0, len(top))
	for _, s := range top {
		descriptors = append(descriptors, s.PromptDescriptor())
	}
	return fmt.Sprintf("Lean into the user's favorites: %s.", strings.Join(descriptors, ", "))
}

// FriendlySummary names the user's top two favored skills.
func FriendlySummary(scores map[Skill]int) string {
	top := ranked(scores)
	if len(top) > 2 {
		top = top[:2]
	}
	if len(top) == 0 {
		return "Still learning what makes the perfect answer."
	}
	titles := make([]string, 0, len(top))
	for _, s := range top {
		titles = append(titles, s.Title())
	}
	return fmt.Sprintf("Currently favoring: %s.", strings.Join(titles, ", "))
}

// Progress maps a raw score onto [0, 1] for display meters. A score of 8
// fills the meter.
func Progress(score int) float64 {
	p := float64(score) / 8.0
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// BipolarProgress maps a raw score onto [-1, 1] with the same /8 scale,
// preserving sign for below-baseline display.
func BipolarProgress(score int) float64 {
	p := float64(score) / 8.0
	if p < -1 {
		return -1
	}
	if p > 1 {
		return 1
	}
	return p
}

// fallback keyword table, scanned case-insensitively over the message text.
var fallbackKeywords = []struct {
	words []string
	skill Skill
}{
	{[]string{"tone", "polite", "casual"}, ToneCoach},
	{[]string{"grammar", "nuance", "structure"}, GrammarGuide},
	{[]string{"culture", "context", "situation"}, CultureSensei},
	{[]string{"rewrite", "draft", "feedback"}, RewriteMentor},
	{[]string{"summary", "short"}, SpeedSummarizer},
}

// FallbackSkills derives skill hints from message text when a message
// carries none. Matches are deduplicated; with no keyword hit the default
// literal-translation skill is returned.
func FallbackSkills(text string) []Skill {
	lower := strings.ToLower(text)
	var skills []Skill
	for _, entry := range fallbackKeywords {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				skills = append(skills, entry.skill)
				break
			}
		}
	}
	if len(skills) == 0 {
		skills = append(skills, CrystalTranslation)
	}
	return skills
}
