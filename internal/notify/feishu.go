package notify

import (
	"context"
	"fmt"
)

// Feishu posts text messages to a Feishu (Lark) custom bot webhook.
type Feishu struct {
	webhook string
	client  HTTPClient
}

// NewFeishu creates a Feishu channel.
func NewFeishu(webhook string, client HTTPClient) *Feishu {
	return &Feishu{webhook: webhook, client: client}
}

// Name implements Channel.
func (f *Feishu) Name() string { return "feishu" }

type feishuMessage struct {
	MsgType string        `json:"msg_type"`
	Content feishuContent `json:"content"`
}

type feishuContent struct {
	Text string `json:"text"`
}

type feishuResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Deliver implements Channel.
func (f *Feishu) Deliver(ctx context.Context, title, body string) error {
	if f.webhook == "" {
		return fmt.Errorf("feishu: %w", ErrMissingCredentials)
	}

	msg := feishuMessage{
		MsgType: "text",
		Content: feishuContent{Text: title + "\n" + body},
	}
	var resp feishuResponse
	if err := postJSON(ctx, f.client, f.webhook, msg, &resp); err != nil {
		return fmt.Errorf("feishu: %w", err)
	}
	if resp.Code != 0 {
		return fmt.Errorf("feishu: code %d: %s", resp.Code, resp.Msg)
	}
	return nil
}
