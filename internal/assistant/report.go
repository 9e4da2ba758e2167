package assistant

import (
	"sort"

	"jp-mentor/internal/skill"
)

// SkillProgress is one skill's score and display meter fill.
type SkillProgress struct {
	Skill    skill.Skill
	Score    int
	Progress float64
}

// CategoryProgress groups skill progress for display, ordered by total score.
type CategoryProgress struct {
	Category   skill.Category
	Skills     []SkillProgress
	TotalScore int
}

// SkillReport summarizes per-category skill progress, highest-scoring
// categories first.
func (a *Assistant) SkillReport() []CategoryProgress {
	scores := a.store.Profile().SkillScores
	out := make([]CategoryProgress, 0, len(skill.AllCategories))
	for _, c := range skill.AllCategories {
		skills := skill.CategoryMap[c]
		progress := make([]SkillProgress, 0, len(skills))
		total := 0
		for _, s := range skills {
			score := skill.Score(s, scores)
			total += score
			progress = append(progress, SkillProgress{
				Skill:    s,
				Score:    score,
				Progress: skill.Progress(score),
			})
		}
		out = append(out, CategoryProgress{Category: c, Skills: progress, TotalScore: total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScore > out[j].TotalScore
	})
	return out
}

// LearningSummary is the user-facing digest of accumulated personalization.
func (a *Assistant) LearningSummary() string {
	p := a.store.Profile()
	return p.LearningSummary()
}

// HighlightSummary describes recent liked highlights, with a nudge when none
// have been captured yet.
func (a *Assistant) HighlightSummary() string {
	conv := a.store.Conversation()
	if hints := conv.PreferenceHints(); hints != "" {
		return hints
	}
	return "No highlights yet. Upvote great explanations to teach the assistant."
}
