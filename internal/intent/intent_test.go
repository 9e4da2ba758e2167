package intent

import (
	"reflect"
	"testing"

	"jp-mentor/internal/skill"
)

func TestClassifyTranslationOnly(t *testing.T) {
	cases := []string{
		"お元気ですか",
		"漢字",
		"カタカナです",
	}
	for _, text := range cases {
		if got := Classify(text); got != TranslationOnly {
			t.Fatalf("Classify(%q) = %v, want translationOnly", text, got)
		}
	}
}

func TestClassifyFeedbackKeywordPriority(t *testing.T) {
	// Feedback keywords win even when Latin script is present, and even when
	// Japanese script is mixed in.
	cases := []string{
		"can you check the tone of this draft",
		"explain 何ですか",
		"rewrite this: こんにちは",
		"why is it like that",
	}
	for _, text := range cases {
		if got := Classify(text); got != ExplanationOrFeedback {
			t.Fatalf("Classify(%q) = %v, want explanationOrFeedback", text, got)
		}
	}
}

func TestClassifyGeneral(t *testing.T) {
	cases := []string{
		"hello there",
		"こんにちは hello", // mixed scripts without keywords
		"12345",
		"",
	}
	for _, text := range cases {
		if got := Classify(text); got != General {
			t.Fatalf("Classify(%q) = %v, want general", text, got)
		}
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	if got := Classify("EXPLAIN this please"); got != ExplanationOrFeedback {
		t.Fatalf("upper-case keyword missed: %v", got)
	}
}

func TestSkillHints(t *testing.T) {
	cases := []struct {
		intent Intent
		want   []skill.Skill
	}{
		{TranslationOnly, []skill.Skill{skill.CrystalTranslation, skill.SpeedSummarizer}},
		{ExplanationOrFeedback, []skill.Skill{skill.GrammarGuide, skill.ToneCoach, skill.RewriteMentor}},
		{General, []skill.Skill{skill.CrystalTranslation, skill.GrammarGuide}},
	}
	for _, c := range cases {
		if got := c.intent.SkillHints(); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("%v hints = %v, want %v", c.intent, got, c.want)
		}
	}
}

func TestTemplatesAreDistinct(t *testing.T) {
	intents := []Intent{TranslationOnly, ExplanationOrFeedback, General}
	seen := map[string]bool{}
	for _, i := range intents {
		for _, s := range []string{i.SystemDirective(), i.UserFacingDirective(), i.Summary()} {
			if s == "" {
				t.Fatalf("%v has an empty template", i)
			}
			if seen[s] {
				t.Fatalf("template reused across intents: %q", s)
			}
			seen[s] = true
		}
	}
}
