// Package telegram is the chat front-end. It is deliberately thin: it renders
// state and forwards the user's actions through the assistant's command
// surface (send, rate, clear, reset).
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"jp-mentor/internal/assistant"
	"jp-mentor/internal/chat"
)

const (
	rateUpSuffix   = ":up"
	rateDownSuffix = ":down"
	ratePrefix     = "rate:"
)

type Bot struct {
	api       *tgbotapi.BotAPI
	send      sender
	assistant *assistant.Assistant

	mu     sync.Mutex
	chatID int64
}

func New(botToken string, asst *assistant.Assistant) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:       api,
		send:      botAPISender{api: api},
		assistant: asst,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
				continue
			}
			if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
				continue
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	b.rememberChat(msg.Chat.ID)

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	log.Printf("Incoming message: %q", msg.Text)
	if _, err := b.api.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("failed to send typing action: %v", err)
	}
	b.assistant.Send(ctx, msg.Text)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendText("こんにちは! Send me Japanese or English text to translate, or ask for explanations and feedback. Rate replies with 👍/👎 so I can learn your taste.")
	case "clear":
		b.assistant.Clear()
		b.sendText("Conversation cleared. Your personalization is untouched.")
	case "reset":
		b.assistant.ResetPersonalization()
		b.sendText("Personalization and conversation reset.")
	case "summary":
		b.sendText(b.assistant.LearningSummary())
	case "skills":
		b.sendText(renderSkillReport(b.assistant.SkillReport()))
	case "highlights":
		b.sendText(b.assistant.HighlightSummary())
	default:
		b.sendText("Commands: /clear, /reset, /summary, /skills, /highlights")
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	messageID, rating, ok := parseRateCallback(cb.Data)
	if !ok {
		return
	}
	b.assistant.Rate(messageID, rating)

	ack := "Noted, thanks!"
	if rating > 0 {
		ack = "Glad it helped!"
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, ack)); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
}

// DeliverReply renders a new assistant message with rating buttons attached.
func (b *Bot) DeliverReply(m chat.Message) {
	chatID := b.currentChat()
	if chatID == 0 {
		return
	}
	out := tgbotapi.NewMessage(chatID, m.Text)
	out.ReplyMarkup = rateKeyboard(m.ID)
	if _, err := b.send.Send(out); err != nil {
		log.Printf("failed to send reply: %v", err)
	}
}

// DeliverNotice renders a non-reply notice (errors, cancellations).
func (b *Bot) DeliverNotice(text string) {
	b.sendText(text)
}

func (b *Bot) sendText(text string) {
	chatID := b.currentChat()
	if chatID == 0 {
		return
	}
	if _, err := b.send.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) rememberChat(chatID int64) {
	b.mu.Lock()
	b.chatID = chatID
	b.mu.Unlock()
}

func (b *Bot) currentChat() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chatID
}

func rateKeyboard(messageID uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍", ratePrefix+messageID.String()+rateUpSuffix),
			tgbotapi.NewInlineKeyboardButtonData("👎", ratePrefix+messageID.String()+rateDownSuffix),
		),
	)
}

func parseRateCallback(data string) (uuid.UUID, int, bool) {
	if !strings.HasPrefix(data, ratePrefix) {
		return uuid.Nil, 0, false
	}
	rest := strings.TrimPrefix(data, ratePrefix)
	rating := 0
	switch {
	case strings.HasSuffix(rest, rateUpSuffix):
		rating = 1
		rest = strings.TrimSuffix(rest, rateUpSuffix)
	case strings.HasSuffix(rest, rateDownSuffix):
		rating = -1
		rest = strings.TrimSuffix(rest, rateDownSuffix)
	default:
		return uuid.Nil, 0, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, 0, false
	}
	return id, rating, true
}

func renderSkillReport(report []assistant.CategoryProgress) string {
	var sb strings.Builder
	for _, cat := range report {
		fmt.Fprintf(&sb, "%s — %s\n", cat.Category.Title(), cat.Category.FlavorText())
		for _, sp := range cat.Skills {
			fmt.Fprintf(&sb, "  %s: %d (%.0f%%)\n", sp.Skill.Title(), sp.Score, sp.Progress*100)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
