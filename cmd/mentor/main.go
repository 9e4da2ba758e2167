package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"jp-mentor/internal/assistant"
	"jp-mentor/internal/chat"
	"jp-mentor/internal/config"
	"jp-mentor/internal/llm"
	"jp-mentor/internal/scheduler"
	"jp-mentor/internal/state"
	"jp-mentor/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	store, err := state.New(cfg.StateFilePath)
	if err != nil {
		log.Fatalf("failed to init state store: %v", err)
	}

	client, err := llm.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN is required")
	}

	// The bot and the assistant reference each other: the assistant pushes
	// replies and notices, the bot forwards commands. Wire the handlers
	// through a late-bound pointer.
	var bot *telegram.Bot
	asst := assistant.New(store, client,
		assistant.WithReplyHandler(func(m chat.Message) {
			if bot != nil {
				bot.DeliverReply(m)
			}
		}),
		assistant.WithNoticeHandler(func(text string) {
			if bot != nil {
				bot.DeliverNotice(text)
			}
		}),
	)

	bot, err = telegram.New(cfg.TelegramBotToken, asst)
	if err != nil {
		log.Fatalf("failed to create telegram bot: %v", err)
	}

	if cfg.DigestCron != "" {
		sched := scheduler.New(cfg.DigestCron, asst.LearningSummary, bot.DeliverNotice)
		if err := sched.Start(); err != nil {
			log.Printf("failed to start digest scheduler: %v", err)
		} else {
			defer sched.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("jp-mentor started (provider %s)", cfg.LLMProvider)
	bot.Start(ctx)

	// Let any pending state write finish before exiting.
	store.Flush()
}
