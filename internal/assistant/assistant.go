// Package assistant coordinates the send/rate/clear lifecycle: it owns the
// single in-flight completion request and applies all profile and
// conversation side effects.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"jp-mentor/internal/chat"
	"jp-mentor/internal/intent"
	"jp-mentor/internal/llm"
	"jp-mentor/internal/profile"
	"jp-mentor/internal/prompt"
	"jp-mentor/internal/skill"
	"jp-mentor/internal/state"
)

const (
	likeSkillDelta    = 2
	dislikeSkillDelta = -1
)

type pendingRequest struct {
	cancel context.CancelFunc
}

// Assistant is the orchestrator. At most one completion request is in flight;
// a new Send cancels the previous one (last send wins). Replies and notices
// are delivered through the optional handlers so the front-end stays behind
// the narrow command surface.
type Assistant struct {
	store  *state.Store
	client llm.Client

	mu      sync.Mutex
	pending *pendingRequest

	onReply  func(chat.Message)
	onNotice func(string)
}

type Option func(*Assistant)

// WithReplyHandler registers a callback for newly appended assistant replies.
func WithReplyHandler(fn func(chat.Message)) Option {
	return func(a *Assistant) { a.onReply = fn }
}

// WithNoticeHandler registers a callback for user-facing notices (errors and
// cancellations).
func WithNoticeHandler(fn func(string)) Option {
	return func(a *Assistant) { a.onNotice = fn }
}

func New(store *state.Store, client llm.Client, opts ...Option) *Assistant {
	a := &Assistant{store: store, client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Loading reports whether a completion request is outstanding.
func (a *Assistant) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Send submits user input. Empty (after trimming) input is ignored. The
// remote request runs on its own goroutine; Send returns once the user
// message is recorded and the request is launched.
func (a *Assistant) Send(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	in := intent.Classify(trimmed)
	hints := in.SkillHints()
	userMsg := chat.NewMessage(chat.RoleUser, trimmed, hints)

	a.mu.Lock()
	a.cancelPendingLocked()
	a.store.UpdateConversation(func(c *chat.Conversation) {
		c.AppendMessage(userMsg)
	})
	a.store.UpdateProfile(func(p *profile.Profile) {
		p.RecordQuestion()
	})
	a.store.Save()

	reqCtx, cancel := context.WithCancel(ctx)
	req := &pendingRequest{cancel: cancel}
	a.pending = req
	a.mu.Unlock()

	go a.requestResponse(reqCtx, req, userMsg, in, hints)
}

func (a *Assistant) requestResponse(ctx context.Context, req *pendingRequest, userMsg chat.Message, in intent.Intent, hints []skill.Skill) {
	messages := prompt.Build(a.store.Profile(), a.store.Conversation(), in, userMsg)
	text, err := a.client.Complete(ctx, toWire(messages))

	a.mu.Lock()
	if a.pending == req {
		a.pending = nil
	}
	a.mu.Unlock()
	req.cancel()

	if err != nil {
		if errors.Is(err, llm.ErrCancelled) {
			a.notice("Request cancelled.")
		} else {
			a.notice(err.Error())
		}
		return
	}

	reply := chat.NewMessage(chat.RoleAssistant, text, hints)
	a.store.UpdateConversation(func(c *chat.Conversation) {
		c.AppendMessage(reply)
	})
	a.store.Save()
	if a.onReply != nil {
		a.onReply(reply)
	}
}

// Rate applies a thumbs rating to an assistant message. Repeating the same
// rating is a no-op, so profile and skill effects apply exactly once.
func (a *Assistant) Rate(messageID uuid.UUID, rating int) {
	if rating == 0 {
		return
	}
	conv := a.store.Conversation()
	msg, ok := conv.FindMessage(messageID)
	if !ok || msg.Role != chat.RoleAssistant || msg.Rating == rating {
		return
	}

	// Highlight and snippet come from the message as it was before rating.
	original := msg
	updated := msg
	updated.Rating = rating

	a.store.UpdateConversation(func(c *chat.Conversation) {
		c.ReplaceMessage(updated)
		if rating > 0 {
			c.AddHighlight(original)
		}
	})

	hints := msg.SkillHints
	if len(hints) == 0 {
		hints = skill.FallbackSkills(msg.Text)
	}
	delta := dislikeSkillDelta
	if rating > 0 {
		delta = likeSkillDelta
	}
	a.store.UpdateProfile(func(p *profile.Profile) {
		p.ApplyRating(rating, original)
		p.AdjustSkills(hints, delta)
	})
	a.store.Save()
}

// Clear cancels any in-flight request and resets the conversation. The
// profile is untouched.
func (a *Assistant) Clear() {
	a.mu.Lock()
	a.cancelPendingLocked()
	a.mu.Unlock()

	a.store.UpdateConversation(func(c *chat.Conversation) {
		c.Clear()
	})
	a.store.Save()
}

// ResetPersonalization restores conversation and profile to defaults.
func (a *Assistant) ResetPersonalization() {
	a.mu.Lock()
	a.cancelPendingLocked()
	a.mu.Unlock()

	a.store.ResetAll()
}

func (a *Assistant) cancelPendingLocked() {
	if a.pending != nil {
		a.pending.cancel()
		a.pending = nil
	}
}

func (a *Assistant) notice(text string) {
	if a.onNotice != nil {
		a.onNotice(text)
	}
}

func toWire(messages []chat.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Text})
	}
	return out
}
