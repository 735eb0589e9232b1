// Package notify delivers notifications through the configured channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"rss_monitor/internal/config"
)

// DefaultTimeout bounds every outbound request made by a channel.
const DefaultTimeout = 10 * time.Second

const maxResponseSize = 64 * 1024

// ErrMissingCredentials is returned by a channel whose required settings are empty.
var ErrMissingCredentials = errors.New("missing credentials")

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Channel delivers one notification to one provider.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, title, body string) error
}

// NewHTTPClient returns the client channels use by default.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// FromConfig builds the enabled channels, in a fixed order. Disabled channels
// are left out entirely, so a configuration with every switch OFF yields no
// channels and no outbound calls.
func FromConfig(cfg config.Channels, client *http.Client, log *slog.Logger) []Channel {
	var channels []Channel
	if cfg.DingTalk.Enabled {
		channels = append(channels, NewDingTalk(cfg.DingTalk.Webhook, cfg.DingTalk.Secret))
	}
	if cfg.Feishu.Enabled {
		channels = append(channels, NewFeishu(cfg.Feishu.Webhook, client))
	}
	if cfg.ServerChan.Enabled {
		channels = append(channels, NewServerChan(cfg.ServerChan.Key, client))
	}
	if cfg.PushPlus.Enabled {
		channels = append(channels, NewPushPlus(cfg.PushPlus.Token, client))
	}
	if cfg.Telegram.Enabled {
		channels = append(channels, NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, client))
	}

	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, ch.Name())
	}
	log.Info("notification channels", "enabled", names)
	return channels
}

// postJSON sends payload as a JSON body and decodes a JSON response into out
// when out is non-nil and the response has a body.
func postJSON(ctx context.Context, client HTTPClient, url string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	body, err := do(client, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get performs a GET request and only checks the status code.
func get(ctx context.Context, client HTTPClient, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	_, err = do(client, req)
	return err
}

func do(client HTTPClient, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s: %w", req.Method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
