package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	bot "github.com/go-telegram/bot"
)

// TelegramOptions configures the notifier
type TelegramOptions struct {
	Token     string
	ChatID    int64
	ServerURL string
}

// TelegramSink messages a chat when a run ends
type TelegramSink struct {
	bot    *bot.Bot
	chatID int64
}

// NewTelegramSink creates the bot client without contacting the API
func NewTelegramSink(opts TelegramOptions) (*TelegramSink, error) {
	botOpts := []bot.Option{bot.WithSkipGetMe()}
	if opts.ServerURL != "" {
		botOpts = append(botOpts, bot.WithServerURL(opts.ServerURL))
	}

	b, err := bot.New(opts.Token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramSink{bot: b, chatID: opts.ChatID}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

// Handle sends terminal events and ignores the rest
func (s *TelegramSink) Handle(ctx context.Context, e Event) error {
	if !e.Terminal() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: s.chatID,
		Text:   FormatMessage(e),
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatMessage renders a short plain-text notification
func FormatMessage(e Event) string {
	var sb strings.Builder
	switch e.Type {
	case TypeFatal:
		sb.WriteString("berth run failed")
	case TypeStopped:
		sb.WriteString("berth run stopped")
	default:
		sb.WriteString("berth run finished")
	}

	if e.Phase != "" {
		fmt.Fprintf(&sb, " during %s", e.Phase)
	}
	if e.Cycle > 0 {
		fmt.Fprintf(&sb, " after %d cycle(s)", e.Cycle)
	}
	if e.Error != "" {
		fmt.Fprintf(&sb, "\n%s", e.Error)
	} else if e.Message != "" {
		fmt.Fprintf(&sb, "\n%s", e.Message)
	}
	fmt.Fprintf(&sb, "\nrun %s", e.RunID)
	return sb.String()
}
