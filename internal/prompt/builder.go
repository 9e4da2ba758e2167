// Package prompt assembles the system and instruction messages sent to the
// remote model from the profile, conversation and classified intent.
package prompt

import (
	"fmt"
	"strings"

	"jp-mentor/internal/chat"
	"jp-mentor/internal/intent"
	"jp-mentor/internal/profile"
	"jp-mentor/internal/skill"
)

const (
	personaStatement = "You are a personalized Japanese ↔ English language partner."
	inferInstruction = "Infer the user's intent (translation, comprehension, tone adjustment, or writing feedback) from their message automatically."

	// historyWindow bounds how much prior conversation rides along with each
	// request.
	historyWindow = 6
)

// Build constructs the exact message sequence that crosses the boundary to
// the chat completion client: system message, instruction message, the last
// few history entries, then the new user message. userMsg is removed from the
// history by id and re-appended at the end so its position is guaranteed.
func Build(p profile.Profile, conv chat.Conversation, in intent.Intent, userMsg chat.Message) []chat.Message {
	system := chat.NewMessage(chat.RoleSystem, systemText(p, conv, in), nil)
	instruction := chat.NewMessage(chat.RoleSystem, instructionText(p, in), nil)

	history := make([]chat.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if m.ID == userMsg.ID {
			continue
		}
		history = append(history, m)
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	out := make([]chat.Message, 0, len(history)+3)
	out = append(out, system, instruction)
	out = append(out, history...)
	out = append(out, userMsg)
	return out
}

func systemText(p profile.Profile, conv chat.Conversation, in intent.Intent) string {
	components := []string{
		personaStatement,
		inferInstruction,
		in.SystemDirective(),
		p.RatingSummary(),
	}
	if hints := conv.PreferenceHints(); hints != "" {
		components = append(components, hints)
	}
	if additions := skill.PromptAdditions(p.SkillScores); additions != "" {
		components = append(components, additions)
	}
	return strings.Join(components, " ")
}

func instructionText(p profile.Profile, in intent.Intent) string {
	guidance := []string{
		fmt.Sprintf("Detected intent: %s", in.Summary()),
		"Tasks:",
		"- detect what the user needs (translation, explanation, rewrite, or feedback).",
		fmt.Sprintf("- follow the directive: %s", in.UserFacingDirective()),
		"- keep tone friendly and adaptive; invite the user to rate or ask follow-ups.",
	}
	if p.LastFeedbackSnippet != "" {
		guidance = append(guidance, fmt.Sprintf("Remember the user liked responses similar to: %s", p.LastFeedbackSnippet))
	}
	return strings.Join(guidance, " ")
}
