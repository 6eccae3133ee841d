package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
)

const maxAlertLen = 4096

// Alerter posts operational alerts to a Telegram chat. A zero-configured
// Alerter is a no-op, so callers never need to guard their alert calls.
type Alerter struct {
	bot    *bot.Bot
	chatID int64
}

func New(token string, chatID int64) *Alerter {
	if token == "" || chatID == 0 {
		return &Alerter{}
	}
	b, err := bot.New(token)
	if err != nil {
		slog.Error("failed to create alert bot", "error", err)
		return &Alerter{}
	}
	return &Alerter{bot: b, chatID: chatID}
}

// Alert sends a failure notification. Delivery is asynchronous and
// best-effort; a lost alert is only logged.
func (a *Alerter) Alert(scope string, err error) {
	if a == nil || a.bot == nil {
		return
	}

	message := fmt.Sprintf("❌ *%s*\n\n*Error:* `%s`\n*Time:* %s",
		scope, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	if len([]rune(message)) > maxAlertLen {
		message = string([]rune(message)[:maxAlertLen-20]) + "\n\n... (truncated)"
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, sendErr := a.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    a.chatID,
			Text:      message,
			ParseMode: "Markdown",
		})
		if sendErr != nil {
			slog.Error("failed to send alert", "scope", scope, "error", sendErr)
		}
	}()
}
