// Package config handles application configuration from files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"rss_monitor/internal/model"
)

// ErrNoFeeds is returned when the feed list is missing or empty.
var ErrNoFeeds = errors.New("no feeds configured")

// Config holds the application configuration. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	Feeds      []model.Feed
	Channels   Channels
	NightSleep NightSleep
}

// Channels holds the settings of every notification channel.
type Channels struct {
	DingTalk   DingTalk   `yaml:"dingding" toml:"dingding"`
	Feishu     Feishu     `yaml:"feishu" toml:"feishu"`
	ServerChan ServerChan `yaml:"server_chan" toml:"server_chan"`
	PushPlus   PushPlus   `yaml:"pushplus" toml:"pushplus"`
	Telegram   Telegram   `yaml:"tg_bot" toml:"tg_bot"`
}

// DingTalk is a chat bot webhook signed with a secret.
type DingTalk struct {
	Enabled Switch `yaml:"switch" toml:"switch"`
	Webhook string `yaml:"webhook" toml:"webhook"`
	Secret  string `yaml:"secret_key" toml:"secret_key"`
}

// Feishu is a plain webhook chat bot.
type Feishu struct {
	Enabled Switch `yaml:"switch" toml:"switch"`
	Webhook string `yaml:"webhook" toml:"webhook"`
}

// ServerChan is a key-based push service.
type ServerChan struct {
	Enabled Switch `yaml:"switch" toml:"switch"`
	Key     string `yaml:"sckey" toml:"sckey"`
}

// PushPlus is a token-based push service.
type PushPlus struct {
	Enabled Switch `yaml:"switch" toml:"switch"`
	Token   string `yaml:"token" toml:"token"`
}

// Telegram is a bot token plus the chat that receives messages.
type Telegram struct {
	Enabled Switch `yaml:"switch" toml:"switch"`
	Token   string `yaml:"token" toml:"token"`
	ChatID  string `yaml:"group_id" toml:"group_id"`
}

// NightSleep controls the quiet-hours suspension of the poll loop.
type NightSleep struct {
	Enabled Switch `yaml:"switch" toml:"switch"`
}

// Settings is the content of the settings file.
type Settings struct {
	Push       Channels   `yaml:"push" toml:"push"`
	NightSleep NightSleep `yaml:"night_sleep" toml:"night_sleep"`
}

// Load reads the settings file at settingsPath, applies environment
// overrides and reads the feed list at feedsPath.
//
// A missing settings file is not an error; the configuration then comes from
// the environment alone. A missing or empty feed list is.
func Load(settingsPath, feedsPath string) (*Config, error) {
	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(&settings, os.Getenv); err != nil {
		return nil, err
	}

	feeds, err := LoadFeeds(feedsPath)
	if err != nil {
		return nil, err
	}

	return &Config{
		Feeds:      feeds,
		Channels:   settings.Push,
		NightSleep: settings.NightSleep,
	}, nil
}

// LoadSettings decodes the channel and night-sleep settings. The format is
// chosen by extension: .toml is TOML, anything else YAML.
func LoadSettings(path string) (Settings, error) {
	settings := defaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("read settings %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &settings); err != nil {
			return settings, fmt.Errorf("parse settings %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	return settings, nil
}

func defaultSettings() Settings {
	return Settings{NightSleep: NightSleep{Enabled: true}}
}

// override binds an environment variable to a settings field; exactly one of
// str and sw is set.
type override struct {
	key string
	str *string
	sw  *Switch
}

func envOverrides(s *Settings) []override {
	return []override{
		{key: "DINGDING_WEBHOOK", str: &s.Push.DingTalk.Webhook},
		{key: "DINGDING_SECRET", str: &s.Push.DingTalk.Secret},
		{key: "DINGDING_SWITCH", sw: &s.Push.DingTalk.Enabled},
		{key: "FEISHU_WEBHOOK", str: &s.Push.Feishu.Webhook},
		{key: "FEISHU_SWITCH", sw: &s.Push.Feishu.Enabled},
		{key: "SERVER_SCKEY", str: &s.Push.ServerChan.Key},
		{key: "SERVER_CHAN_SWITCH", sw: &s.Push.ServerChan.Enabled},
		{key: "PUSHPLUS_TOKEN", str: &s.Push.PushPlus.Token},
		{key: "PUSHPLUS_SWITCH", sw: &s.Push.PushPlus.Enabled},
		{key: "TELEGRAM_TOKEN", str: &s.Push.Telegram.Token},
		{key: "TELEGRAM_GROUP_ID", str: &s.Push.Telegram.ChatID},
		{key: "TELEGRAM_SWITCH", sw: &s.Push.Telegram.Enabled},
		{key: "NIGHT_SLEEP_SWITCH", sw: &s.NightSleep.Enabled},
	}
}

// EnvKeys lists every environment variable that overrides the settings file.
func EnvKeys() []string {
	var s Settings
	var keys []string
	for _, o := range envOverrides(&s) {
		keys = append(keys, o.key)
	}
	return keys
}

// applyEnv overrides settings with every non-empty variable returned by getenv.
func applyEnv(s *Settings, getenv func(string) string) error {
	for _, o := range envOverrides(s) {
		v := strings.TrimSpace(getenv(o.key))
		if v == "" {
			continue
		}
		if o.str != nil {
			*o.str = v
			continue
		}
		sw, err := ParseSwitch(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", o.key, err)
		}
		*o.sw = sw
	}
	return nil
}

// Warnings describes enabled channels that lack the credentials they need.
// Such channels still run; their deliveries fail and are logged.
func (c Channels) Warnings() []string {
	var out []string
	if c.DingTalk.Enabled && (c.DingTalk.Webhook == "" || c.DingTalk.Secret == "") {
		out = append(out, "dingding is enabled but webhook or secret_key is empty")
	}
	if c.Feishu.Enabled && c.Feishu.Webhook == "" {
		out = append(out, "feishu is enabled but webhook is empty")
	}
	if c.ServerChan.Enabled && c.ServerChan.Key == "" {
		out = append(out, "server_chan is enabled but sckey is empty")
	}
	if c.PushPlus.Enabled && c.PushPlus.Token == "" {
		out = append(out, "pushplus is enabled but token is empty")
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == "") {
		out = append(out, "tg_bot is enabled but token or group_id is empty")
	}
	return out
}
