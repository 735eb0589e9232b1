package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages through a Telegram bot to a group, user or channel.
type Telegram struct {
	token  string
	chatID string

	connect func(token string) (telegramAPI, error)

	mu  sync.Mutex
	api telegramAPI
}

// NewTelegram creates a Telegram channel. The bot API connection is made on
// first delivery and reused afterwards.
func NewTelegram(token, chatID string, client HTTPClient) *Telegram {
	return &Telegram{
		token:  token,
		chatID: chatID,
		connect: func(token string) (telegramAPI, error) {
			return tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
		},
	}
}

// Name implements Channel.
func (t *Telegram) Name() string { return "tg_bot" }

// Deliver implements Channel.
func (t *Telegram) Deliver(ctx context.Context, title, body string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("tg_bot: %w", ErrMissingCredentials)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("tg_bot: %w", err)
	}

	api, err := t.client()
	if err != nil {
		return fmt.Errorf("tg_bot: %w", err)
	}

	msg := t.message(title + "\r\n" + body)
	msg.DisableWebPagePreview = true
	if _, err := api.Send(msg); err != nil {
		return fmt.Errorf("tg_bot: send message: %w", err)
	}
	return nil
}

func (t *Telegram) client() (telegramAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.api != nil {
		return t.api, nil
	}
	api, err := t.connect(t.token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	t.api = api
	return api, nil
}

// message addresses numeric chat IDs directly and anything else, such as
// "@channel", by username.
func (t *Telegram) message(text string) tgbotapi.MessageConfig {
	id := strings.TrimSpace(t.chatID)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return tgbotapi.NewMessage(n, text)
	}
	if !strings.HasPrefix(id, "@") {
		id = "@" + id
	}
	return tgbotapi.NewMessageToChannel(id, text)
}
