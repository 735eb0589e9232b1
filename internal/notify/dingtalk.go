package notify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/blinkbean/dingtalk"
)

// DingTalk sends text messages through a DingTalk robot secured with a
// signing secret.
type DingTalk struct {
	webhook string
	secret  string

	send func(token, secret, content string) error
}

// NewDingTalk creates a DingTalk channel. webhook is the robot URL carrying
// the access_token query parameter.
func NewDingTalk(webhook, secret string) *DingTalk {
	return &DingTalk{
		webhook: webhook,
		secret:  secret,
		send: func(token, secret, content string) error {
			// No @ options: the message never mentions everyone.
			return dingtalk.InitDingTalkWithSecret(token, secret).SendTextMessage(content)
		},
	}
}

// Name implements Channel.
func (d *DingTalk) Name() string { return "dingding" }

// Deliver implements Channel.
func (d *DingTalk) Deliver(ctx context.Context, title, body string) error {
	if d.webhook == "" || d.secret == "" {
		return fmt.Errorf("dingding: %w", ErrMissingCredentials)
	}
	token, err := accessToken(d.webhook)
	if err != nil {
		return fmt.Errorf("dingding: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("dingding: %w", err)
	}

	if err := d.send(token, d.secret, title+"\r\n"+body); err != nil {
		return fmt.Errorf("dingding: %w", err)
	}
	return nil
}

// accessToken extracts the robot token from a webhook URL.
func accessToken(webhook string) (string, error) {
	u, err := url.Parse(webhook)
	if err != nil {
		return "", fmt.Errorf("parse webhook: %w", err)
	}
	token := u.Query().Get("access_token")
	if token == "" {
		return "", fmt.Errorf("webhook has no access_token: %w", ErrMissingCredentials)
	}
	return token, nil
}
