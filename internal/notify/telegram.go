package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"token-launchpad/internal/domain"
)

const maxTelegramMessage = 4096

// sender is the subset of the bot API used for notifications.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends outcomes to a single operator chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram creates a notifier backed by a Telegram bot.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify implements the orchestrator's notifier contract.
func (t *Telegram) Notify(ctx context.Context, c domain.Candidate, out *domain.DeploymentOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, part := range splitMessage(FormatMessage(c, out)) {
		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := min(maxTelegramMessage, len(text))
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
