package assistant

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"jp-mentor/internal/chat"
	"jp-mentor/internal/llm"
	"jp-mentor/internal/profile"
	"jp-mentor/internal/skill"
	"jp-mentor/internal/state"
)

// fakeClient blocks until released so tests can observe in-flight state.
type fakeClient struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	block    chan struct{} // closed to release a blocked Complete
}

func (f *fakeClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", llm.ErrCancelled
		}
	}
	if ctx.Err() != nil {
		return "", llm.ErrCancelled
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.response, f.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestAssistant(t *testing.T, client llm.Client, opts ...Option) (*Assistant, *state.Store) {
	t.Helper()
	store, err := state.New(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}
	return New(store, client, opts...), store
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSendAppendsUserAndAssistantMessages(t *testing.T) {
	client := &fakeClient{response: "How are you?"}
	var replies []chat.Message
	var repliesMu sync.Mutex
	a, store := newTestAssistant(t, client, WithReplyHandler(func(m chat.Message) {
		repliesMu.Lock()
		replies = append(replies, m)
		repliesMu.Unlock()
	}))

	a.Send(context.Background(), "  お元気ですか  ")

	waitFor(t, func() bool { return !a.Loading() }, "request completion")
	waitFor(t, func() bool { return len(store.Conversation().Messages) == 2 }, "assistant reply")

	msgs := store.Conversation().Messages
	if msgs[0].Role != chat.RoleUser || msgs[0].Text != "お元気ですか" {
		t.Fatalf("user message wrong: %+v", msgs[0])
	}
	if msgs[1].Role != chat.RoleAssistant || msgs[1].Text != "How are you?" {
		t.Fatalf("assistant message wrong: %+v", msgs[1])
	}

	// Translation-only input carries the translation hints on both messages.
	wantHints := []skill.Skill{skill.CrystalTranslation, skill.SpeedSummarizer}
	for _, m := range msgs {
		if len(m.SkillHints) != len(wantHints) {
			t.Fatalf("hints = %v, want %v", m.SkillHints, wantHints)
		}
	}

	if store.Profile().TotalQuestions != 1 {
		t.Fatalf("TotalQuestions = %d, want 1", store.Profile().TotalQuestions)
	}

	repliesMu.Lock()
	defer repliesMu.Unlock()
	if len(replies) != 1 || replies[0].Text != "How are you?" {
		t.Fatalf("reply handler saw %v", replies)
	}
}

func TestSendEmptyInputIsIgnored(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	a.Send(context.Background(), "   \n\t ")

	if a.Loading() {
		t.Fatalf("empty send started a request")
	}
	if len(store.Conversation().Messages) != 0 {
		t.Fatalf("empty send appended a message")
	}
	if client.callCount() != 0 {
		t.Fatalf("empty send reached the client")
	}
}

func TestSendErrorSurfacesNoticeWithoutMessage(t *testing.T) {
	client := &fakeClient{err: &llm.ServerError{Status: 502, Detail: "bad gateway"}}
	var notices []string
	var noticesMu sync.Mutex
	a, store := newTestAssistant(t, client, WithNoticeHandler(func(s string) {
		noticesMu.Lock()
		notices = append(notices, s)
		noticesMu.Unlock()
	}))

	a.Send(context.Background(), "hello")
	waitFor(t, func() bool { return !a.Loading() }, "request completion")
	waitFor(t, func() bool {
		noticesMu.Lock()
		defer noticesMu.Unlock()
		return len(notices) == 1
	}, "error notice")

	noticesMu.Lock()
	if !strings.Contains(notices[0], "bad gateway") {
		t.Fatalf("notice lacks upstream detail: %q", notices[0])
	}
	noticesMu.Unlock()

	// Only the user message lands; no assistant message on error.
	if got := len(store.Conversation().Messages); got != 1 {
		t.Fatalf("expected 1 message after failure, got %d", got)
	}
}

func TestSendLastWinsCancelsPrevious(t *testing.T) {
	block := make(chan struct{})
	client := &fakeClient{response: "slow answer", block: block}
	var notices []string
	var noticesMu sync.Mutex
	a, store := newTestAssistant(t, client, WithNoticeHandler(func(s string) {
		noticesMu.Lock()
		notices = append(notices, s)
		noticesMu.Unlock()
	}))

	a.Send(context.Background(), "first question")
	waitFor(t, func() bool { return a.Loading() }, "first request start")

	// Second send cancels the first; release the block so the second request
	// can finish.
	client.mu.Lock()
	client.block = nil
	client.mu.Unlock()
	a.Send(context.Background(), "second question")

	waitFor(t, func() bool { return !a.Loading() }, "second request completion")
	waitFor(t, func() bool {
		noticesMu.Lock()
		defer noticesMu.Unlock()
		return len(notices) == 1
	}, "cancellation notice")

	noticesMu.Lock()
	if notices[0] != "Request cancelled." {
		t.Fatalf("unexpected notice: %q", notices[0])
	}
	noticesMu.Unlock()

	waitFor(t, func() bool {
		msgs := store.Conversation().Messages
		return len(msgs) == 3 && msgs[2].Role == chat.RoleAssistant
	}, "reply to second question")
}

func TestRateFullFlow(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	hints := []skill.Skill{skill.GrammarGuide, skill.ToneCoach}
	reply := chat.NewMessage(chat.RoleAssistant, strings.Repeat("y", 200), hints)
	store.UpdateConversation(func(c *chat.Conversation) { c.AppendMessage(reply) })

	a.Rate(reply.ID, 1)

	conv := store.Conversation()
	rated, _ := conv.FindMessage(reply.ID)
	if rated.Rating != 1 {
		t.Fatalf("rating not applied: %+v", rated)
	}
	if len(conv.LikedHighlights) != 1 || len([]rune(conv.LikedHighlights[0])) != 160 {
		t.Fatalf("highlight not captured from original text: %v", conv.LikedHighlights)
	}

	p := store.Profile()
	if p.LikedAnswers != 1 {
		t.Fatalf("LikedAnswers = %d, want 1", p.LikedAnswers)
	}
	if got := len([]rune(p.LastFeedbackSnippet)); got != 120 {
		t.Fatalf("snippet length = %d, want 120", got)
	}
	if p.SkillScores[skill.GrammarGuide] != 2 || p.SkillScores[skill.ToneCoach] != 2 {
		t.Fatalf("skill scores not bumped by 2: %v", p.SkillScores)
	}
}

func TestRateIdempotent(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	reply := chat.NewMessage(chat.RoleAssistant, "nice answer", []skill.Skill{skill.GrammarGuide})
	store.UpdateConversation(func(c *chat.Conversation) { c.AppendMessage(reply) })

	a.Rate(reply.ID, 1)
	a.Rate(reply.ID, 1)
	a.Rate(reply.ID, 1)

	p := store.Profile()
	if p.LikedAnswers != 1 {
		t.Fatalf("repeated rating applied more than once: %d", p.LikedAnswers)
	}
	if p.SkillScores[skill.GrammarGuide] != 2 {
		t.Fatalf("repeated rating bumped skills more than once: %v", p.SkillScores)
	}
	if got := len(store.Conversation().LikedHighlights); got != 1 {
		t.Fatalf("repeated rating re-captured highlights: %d", got)
	}
}

func TestRateFlipAdjustsSkillsOnly(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	reply := chat.NewMessage(chat.RoleAssistant, "answer", []skill.Skill{skill.GrammarGuide})
	store.UpdateConversation(func(c *chat.Conversation) { c.AppendMessage(reply) })

	a.Rate(reply.ID, 1)
	a.Rate(reply.ID, -1)

	p := store.Profile()
	// Counters are lifetime tallies: the flip adds a dislike without
	// reconciling the earlier like.
	if p.LikedAnswers != 1 || p.DislikedAnswers != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", p.LikedAnswers, p.DislikedAnswers)
	}
	if p.SkillScores[skill.GrammarGuide] != 1 {
		t.Fatalf("skill score after +2-1 = %d, want 1", p.SkillScores[skill.GrammarGuide])
	}
}

func TestRateNonAssistantIsNoop(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	userMsg := chat.NewMessage(chat.RoleUser, "my question", nil)
	store.UpdateConversation(func(c *chat.Conversation) { c.AppendMessage(userMsg) })

	a.Rate(userMsg.ID, 1)

	if store.Profile().LikedAnswers != 0 {
		t.Fatalf("user message rating mutated profile")
	}
}

func TestRateFallbackHints(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	// No stored hints: the keyword fallback attributes the feedback.
	reply := chat.NewMessage(chat.RoleAssistant, "here is a grammar note about the draft", nil)
	store.UpdateConversation(func(c *chat.Conversation) { c.AppendMessage(reply) })

	a.Rate(reply.ID, 1)

	p := store.Profile()
	if p.SkillScores[skill.GrammarGuide] != 2 || p.SkillScores[skill.RewriteMentor] != 2 {
		t.Fatalf("fallback hints not applied: %v", p.SkillScores)
	}
}

func TestClearKeepsProfile(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	store.UpdateConversation(func(c *chat.Conversation) {
		c.AppendMessage(chat.NewMessage(chat.RoleUser, "hello", nil))
	})
	store.UpdateProfile(func(p *profile.Profile) { p.RecordQuestion() })

	a.Clear()

	if len(store.Conversation().Messages) != 0 {
		t.Fatalf("conversation not cleared")
	}
	if store.Profile().TotalQuestions != 1 {
		t.Fatalf("Clear touched the profile")
	}
}

func TestResetPersonalization(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	store.UpdateProfile(func(p *profile.Profile) { p.RecordQuestion() })
	store.UpdateConversation(func(c *chat.Conversation) {
		c.AppendMessage(chat.NewMessage(chat.RoleUser, "hello", nil))
	})

	a.ResetPersonalization()

	if store.Profile().TotalQuestions != 0 {
		t.Fatalf("profile not reset")
	}
	if len(store.Conversation().Messages) != 0 {
		t.Fatalf("conversation not reset")
	}
}

func TestSkillReportOrdering(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	store.UpdateProfile(func(p *profile.Profile) {
		p.AdjustSkills([]skill.Skill{skill.ToneCoach}, 5)
		p.AdjustSkills([]skill.Skill{skill.CrystalTranslation}, 1)
	})

	report := a.SkillReport()
	if len(report) != len(skill.AllCategories) {
		t.Fatalf("report covers %d categories, want %d", len(report), len(skill.AllCategories))
	}
	if report[0].Category != skill.CategoryTone || report[0].TotalScore != 5 {
		t.Fatalf("highest-scoring category should lead: %+v", report[0])
	}
}

func TestHighlightSummaryFallback(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, store := newTestAssistant(t, client)

	if got := a.HighlightSummary(); !strings.HasPrefix(got, "No highlights yet.") {
		t.Fatalf("unexpected empty-state summary: %q", got)
	}

	store.UpdateConversation(func(c *chat.Conversation) {
		c.AddHighlight(chat.NewMessage(chat.RoleAssistant, "useful tip", nil))
	})
	if got := a.HighlightSummary(); got != "User liked: useful tip" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestSendMissingCredentialNotice(t *testing.T) {
	client := &fakeClient{err: llm.ErrMissingCredential}
	var notices []string
	var noticesMu sync.Mutex
	a, _ := newTestAssistant(t, client, WithNoticeHandler(func(s string) {
		noticesMu.Lock()
		notices = append(notices, s)
		noticesMu.Unlock()
	}))

	a.Send(context.Background(), "hello")
	waitFor(t, func() bool {
		noticesMu.Lock()
		defer noticesMu.Unlock()
		return len(notices) == 1
	}, "credential notice")

	noticesMu.Lock()
	defer noticesMu.Unlock()
	if !strings.Contains(notices[0], "OPENAI_API_KEY") {
		t.Fatalf("notice should explain the missing credential: %q", notices[0])
	}
}
