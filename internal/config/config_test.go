package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rss_monitor/internal/model"
)

const sampleFeeds = `先知社区:
  rss_url: https://xz.aliyun.com/feed
  website_name: 先知社区
example:
  rss_url: https://example.com/rss
  website_name: ExampleSite
bare:
  rss_url: https://bare.example.com/atom
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range EnvKeys() {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	wantFeeds := []model.Feed{
		{Key: "先知社区", Name: "先知社区", URL: "https://xz.aliyun.com/feed"},
		{Key: "example", Name: "ExampleSite", URL: "https://example.com/rss"},
		{Key: "bare", Name: "bare", URL: "https://bare.example.com/atom"},
	}

	tests := []struct {
		name     string
		settings string // file name and content, empty means no file
		file     string
		env      map[string]string
		want     *Config
		wantErr  bool
	}{
		{
			name: "no settings file, defaults applied",
			want: &Config{
				Feeds:      wantFeeds,
				NightSleep: NightSleep{Enabled: true},
			},
		},
		{
			name:     "yaml settings",
			settings: "config.yaml",
			file: `push:
  dingding:
    webhook: https://oapi.dingtalk.com/robot/send?access_token=abc
    secret_key: SECabc
    switch: "ON"
  feishu:
    webhook: https://open.feishu.cn/hook/xyz
    switch: "OFF"
  tg_bot:
    token: "123:abc"
    group_id: "-100200"
    switch: on
night_sleep:
  switch: "OFF"
`,
			want: &Config{
				Feeds: wantFeeds,
				Channels: Channels{
					DingTalk: DingTalk{Enabled: true, Webhook: "https://oapi.dingtalk.com/robot/send?access_token=abc", Secret: "SECabc"},
					Feishu:   Feishu{Webhook: "https://open.feishu.cn/hook/xyz"},
					Telegram: Telegram{Enabled: true, Token: "123:abc", ChatID: "-100200"},
				},
			},
		},
		{
			name:     "toml settings",
			settings: "config.toml",
			file: `[push.server_chan]
sckey = "SCU123"
switch = "ON"

[push.pushplus]
token = "pp-token"
switch = true

[night_sleep]
switch = false
`,
			want: &Config{
				Feeds: wantFeeds,
				Channels: Channels{
					ServerChan: ServerChan{Enabled: true, Key: "SCU123"},
					PushPlus:   PushPlus{Enabled: true, Token: "pp-token"},
				},
			},
		},
		{
			name:     "env overrides file",
			settings: "config.yaml",
			file: `push:
  feishu:
    webhook: https://file.example.com/hook
    switch: "OFF"
`,
			env: map[string]string{
				"FEISHU_WEBHOOK":     "https://env.example.com/hook",
				"FEISHU_SWITCH":      "ON",
				"SERVER_SCKEY":       "env-key",
				"SERVER_CHAN_SWITCH": "on",
				"NIGHT_SLEEP_SWITCH": "OFF",
			},
			want: &Config{
				Feeds: wantFeeds,
				Channels: Channels{
					Feishu:     Feishu{Enabled: true, Webhook: "https://env.example.com/hook"},
					ServerChan: ServerChan{Enabled: true, Key: "env-key"},
				},
			},
		},
		{
			name:    "invalid env switch",
			env:     map[string]string{"TELEGRAM_SWITCH": "maybe"},
			wantErr: true,
		},
		{
			name:     "invalid file switch",
			settings: "config.yaml",
			file:     "night_sleep:\n  switch: sometimes\n",
			wantErr:  true,
		},
		{
			name:     "malformed yaml",
			settings: "config.yaml",
			file:     "push: [unclosed",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			feedsPath := writeFile(t, dir, "rss.yaml", sampleFeeds)
			settingsPath := filepath.Join(dir, "config.yaml")
			if tt.settings != "" {
				settingsPath = writeFile(t, dir, tt.settings, tt.file)
			}

			got, err := Load(settingsPath, feedsPath)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFeedsErrors(t *testing.T) {
	tests := []struct {
		name        string
		content     *string
		wantNoFeeds bool
	}{
		{name: "missing file", content: nil, wantNoFeeds: true},
		{name: "empty file", content: ptr(""), wantNoFeeds: true},
		{name: "null document", content: ptr("~\n"), wantNoFeeds: true},
		{name: "missing url", content: ptr("a:\n  website_name: A\n")},
		{name: "not a mapping", content: ptr("- a\n- b\n")},
		{name: "entry is a list", content: ptr("a: [1, 2]\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "rss.yaml")
			if tt.content != nil {
				writeFile(t, dir, "rss.yaml", *tt.content)
			}

			_, err := LoadFeeds(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := errors.Is(err, ErrNoFeeds); got != tt.wantNoFeeds {
				t.Errorf("errors.Is(err, ErrNoFeeds) = %v, want %v (err: %v)", got, tt.wantNoFeeds, err)
			}
		})
	}
}

func TestAppendFeed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rss.yaml", sampleFeeds)

	if err := AppendFeed(path, "新站点", "https://new.example.com/feed.xml"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendFeed(path, "example", "https://example.com/v2/rss"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []model.Feed{
		{Key: "先知社区", Name: "先知社区", URL: "https://xz.aliyun.com/feed"},
		{Key: "example", Name: "example", URL: "https://example.com/v2/rss"},
		{Key: "bare", Name: "bare", URL: "https://bare.example.com/atom"},
		{Key: "新站点", Name: "新站点", URL: "https://new.example.com/feed.xml"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("feeds after append mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendFeedCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rss.yaml")

	if err := AppendFeed(path, "First", "https://first.example.com/rss"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []model.Feed{{Key: "First", Name: "First", URL: "https://first.example.com/rss"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("feeds mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendFeedKeepsFileMode(t *testing.T) {
	for _, mode := range []os.FileMode{0o600, 0o640, 0o664} {
		t.Run(mode.String(), func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "rss.yaml", sampleFeeds)
			if err := os.Chmod(path, mode); err != nil {
				t.Fatalf("chmod: %v", err)
			}

			if err := AppendFeed(path, "新站点", "https://new.example.com/feed.xml"); err != nil {
				t.Fatalf("append: %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if diff := cmp.Diff(mode, info.Mode().Perm()); diff != "" {
				t.Errorf("file mode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name     string
		channels Channels
		want     int
	}{
		{name: "all disabled", channels: Channels{}, want: 0},
		{
			name: "disabled channels are not checked",
			channels: Channels{
				DingTalk: DingTalk{Webhook: "https://x"},
			},
			want: 0,
		},
		{
			name: "complete channels",
			channels: Channels{
				DingTalk:   DingTalk{Enabled: true, Webhook: "https://x", Secret: "s"},
				Feishu:     Feishu{Enabled: true, Webhook: "https://y"},
				ServerChan: ServerChan{Enabled: true, Key: "k"},
				PushPlus:   PushPlus{Enabled: true, Token: "t"},
				Telegram:   Telegram{Enabled: true, Token: "t", ChatID: "1"},
			},
			want: 0,
		},
		{
			name: "every enabled channel incomplete",
			channels: Channels{
				DingTalk:   DingTalk{Enabled: true, Webhook: "https://x"},
				Feishu:     Feishu{Enabled: true},
				ServerChan: ServerChan{Enabled: true},
				PushPlus:   PushPlus{Enabled: true},
				Telegram:   Telegram{Enabled: true, Token: "t"},
			},
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.channels.Warnings()
			if diff := cmp.Diff(tt.want, len(got)); diff != "" {
				t.Errorf("warning count mismatch (-want +got):\n%s\nwarnings: %v", diff, got)
			}
		})
	}
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		in      string
		want    Switch
		wantErr bool
	}{
		{in: "ON", want: true},
		{in: "on", want: true},
		{in: " On ", want: true},
		{in: "true", want: true},
		{in: "1", want: true},
		{in: "OFF", want: false},
		{in: "false", want: false},
		{in: "", want: false},
		{in: "enabled", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSwitch(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseSwitch(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func ptr(s string) *string { return &s }
