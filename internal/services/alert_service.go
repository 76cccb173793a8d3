package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// SecurityAlerter notifies operators about account-level events
// (password changed, login from reset). Best-effort.
type SecurityAlerter interface {
	Alert(ctx context.Context, title, body string)
}

type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramAlerter returns nil when token or chat is empty.
func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Infof("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramAlerter) Alert(_ context.Context, title, body string) {
	if t == nil || t.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(title), html.EscapeString(body)))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		log.Warnf("[tg][alert] send failed: %v", err)
	}
}

// LogAlerter is used when Telegram is not configured.
type LogAlerter struct{}

func (LogAlerter) Alert(_ context.Context, title, body string) {
	log.Warnf("[security] %s: %s", title, body)
}
