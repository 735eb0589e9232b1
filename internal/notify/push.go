package notify

import (
	"context"
	"fmt"
	"net/url"
)

const (
	serverChanEndpoint = "https://sc.ftqq.com"
	pushPlusEndpoint   = "https://www.pushplus.plus"
)

// ServerChan pushes through Server酱 with a SCKEY.
type ServerChan struct {
	key      string
	endpoint string
	client   HTTPClient
}

// NewServerChan creates a ServerChan channel.
func NewServerChan(key string, client HTTPClient) *ServerChan {
	return &ServerChan{key: key, endpoint: serverChanEndpoint, client: client}
}

// Name implements Channel.
func (s *ServerChan) Name() string { return "server_chan" }

// Deliver implements Channel.
func (s *ServerChan) Deliver(ctx context.Context, title, body string) error {
	if s.key == "" {
		return fmt.Errorf("server_chan: %w", ErrMissingCredentials)
	}
	q := url.Values{}
	q.Set("text", title)
	q.Set("desp", body)
	target := fmt.Sprintf("%s/%s.send?%s", s.endpoint, url.PathEscape(s.key), q.Encode())

	if err := get(ctx, s.client, target); err != nil {
		return fmt.Errorf("server_chan: %w", err)
	}
	return nil
}

// PushPlus pushes through pushplus.plus with a user token.
type PushPlus struct {
	token    string
	endpoint string
	client   HTTPClient
}

// NewPushPlus creates a PushPlus channel.
func NewPushPlus(token string, client HTTPClient) *PushPlus {
	return &PushPlus{token: token, endpoint: pushPlusEndpoint, client: client}
}

// Name implements Channel.
func (p *PushPlus) Name() string { return "pushplus" }

// Deliver implements Channel.
func (p *PushPlus) Deliver(ctx context.Context, title, body string) error {
	if p.token == "" {
		return fmt.Errorf("pushplus: %w", ErrMissingCredentials)
	}
	q := url.Values{}
	q.Set("token", p.token)
	q.Set("title", title)
	q.Set("content", body)

	if err := get(ctx, p.client, p.endpoint+"/send?"+q.Encode()); err != nil {
		return fmt.Errorf("pushplus: %w", err)
	}
	return nil
}
