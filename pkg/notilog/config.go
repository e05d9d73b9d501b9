package notilog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Config is the factory configuration for New. The zero value yields a
// console-only logger in the classified environment.
type Config struct {
	// AppName labels every remote payload.
	AppName string `json:"app_name,omitempty"`

	// Environment overrides the classifier ("development", "staging",
	// "production"). Empty = read APP_ENV, defaulting to development.
	Environment string `json:"environment,omitempty"`

	Debug    DebugConfig    `json:"debug,omitempty"`
	Slack    SlackConfig    `json:"slack,omitempty"`
	Telegram TelegramConfig `json:"telegram,omitempty"`
	Journal  JournalConfig  `json:"journal,omitempty"`

	// ErrorsToTreatAsWarnings demotes matching error calls to warnings.
	// nil = the built-in default pattern list; an explicit empty list
	// disables reclassification.
	ErrorsToTreatAsWarnings []string `json:"errors_to_treat_as_warnings,omitempty"`

	// Transports are extra sinks appended at construction.
	Transports []Transport `json:"-"`
}

// DebugConfig controls the debug severity gate.
type DebugConfig struct {
	Enabled bool `json:"enabled,omitempty"`

	// Filter holds one or more patterns matched (case-insensitive regexp,
	// plain substring fallback) against the debug call's filter text.
	// Empty = all debug calls pass when enabled.
	Filter StringList `json:"filter,omitempty"`
}

// SlackConfig configures the built-in Slack webhook transport.
type SlackConfig struct {
	Enabled     bool        `json:"enabled,omitempty"`
	WebhookURL  string      `json:"webhook_url,omitempty"`
	WebhookURLs WebhookURLs `json:"webhook_urls,omitempty"`
	Channels    Channels    `json:"channels,omitempty"`

	// ChannelPrefix is accepted for backwards compatibility but never used
	// to synthesize channel names.
	ChannelPrefix string `json:"channel_prefix,omitempty"`

	// SkipInDevelopment suppresses delivery below production. nil = true.
	SkipInDevelopment *bool `json:"skip_in_development,omitempty"`

	// RatePerSec caps outbound deliveries. <=0 = default.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// WebhookURLs are per-level endpoint overrides. Error covers both error and
// error-background entries.
type WebhookURLs struct {
	Warn  string `json:"warn,omitempty"`
	Error string `json:"error,omitempty"`
}

// Channels routes mapped levels to channel names. Unset levels use the
// webhook's built-in default channel.
type Channels struct {
	Info            string `json:"info,omitempty"`
	Warn            string `json:"warn,omitempty"`
	Error           string `json:"error,omitempty"`
	ErrorBackground string `json:"error_bg,omitempty"`
}

// TelegramConfig configures the optional Telegram transport.
type TelegramConfig struct {
	Enabled           bool   `json:"enabled,omitempty"`
	Token             string `json:"token,omitempty"`
	ChatID            int64  `json:"chat_id,omitempty"`
	ThreadID          int    `json:"thread_id,omitempty"`
	SkipInDevelopment *bool  `json:"skip_in_development,omitempty"`
}

// JournalConfig configures the optional systemd journal transport.
type JournalConfig struct {
	Enabled bool `json:"enabled,omitempty"`
}

// StringList decodes from either a single string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var one string
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// LoadConfig reads a YAML or JSON config file into Config. Unknown fields
// and trailing data are rejected so typos fail loudly at load time.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	return &cfg, nil
}

// coerceToJSONBytes converts YAML config to JSON bytes so the strict JSON
// decoder (DisallowUnknownFields) serves both formats.
func coerceToJSONBytes(path string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
