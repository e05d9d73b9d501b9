package notilog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "notilog.yaml", `
app_name: checkout
environment: production
debug:
  enabled: true
  filter: store
slack:
  enabled: true
  webhook_url: https://hooks.example.com/T/B/x
  webhook_urls:
    warn: https://hooks.example.com/T/B/warn
    error: https://hooks.example.com/T/B/error
  channels:
    warn: alerts
    error_bg: bg-errors
  skip_in_development: false
  rate_per_sec: 2
errors_to_treat_as_warnings:
  - Custom pattern
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AppName != "checkout" || cfg.Environment != "production" {
		t.Fatalf("identity fields: %+v", cfg)
	}
	if !cfg.Debug.Enabled {
		t.Fatal("debug.enabled lost")
	}
	if !reflect.DeepEqual([]string(cfg.Debug.Filter), []string{"store"}) {
		t.Fatalf("single-string filter = %v", cfg.Debug.Filter)
	}
	if !cfg.Slack.Enabled || cfg.Slack.WebhookURL != "https://hooks.example.com/T/B/x" {
		t.Fatalf("slack config: %+v", cfg.Slack)
	}
	if cfg.Slack.WebhookURLs.Warn == "" || cfg.Slack.WebhookURLs.Error == "" {
		t.Fatalf("webhook overrides: %+v", cfg.Slack.WebhookURLs)
	}
	if cfg.Slack.Channels.Warn != "alerts" || cfg.Slack.Channels.ErrorBackground != "bg-errors" {
		t.Fatalf("channels: %+v", cfg.Slack.Channels)
	}
	if cfg.Slack.SkipInDevelopment == nil || *cfg.Slack.SkipInDevelopment {
		t.Fatalf("skip_in_development: %v", cfg.Slack.SkipInDevelopment)
	}
	if cfg.Slack.RatePerSec != 2 {
		t.Fatalf("rate_per_sec = %d", cfg.Slack.RatePerSec)
	}
	if !reflect.DeepEqual(cfg.ErrorsToTreatAsWarnings, []string{"Custom pattern"}) {
		t.Fatalf("patterns = %v", cfg.ErrorsToTreatAsWarnings)
	}
}

func TestLoadConfigFilterList(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "notilog.yaml", `
debug:
  enabled: true
  filter:
    - cache
    - "^net"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual([]string(cfg.Debug.Filter), []string{"cache", "^net"}) {
		t.Fatalf("filter list = %v", cfg.Debug.Filter)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "notilog.json", `{
  "app_name": "checkout",
  "telegram": {"enabled": true, "token": "tkn", "chat_id": -100},
  "journal": {"enabled": true}
}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.ChatID != -100 {
		t.Fatalf("telegram config: %+v", cfg.Telegram)
	}
	if !cfg.Journal.Enabled {
		t.Fatalf("journal config: %+v", cfg.Journal)
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "notilog.yaml", `
app_name: checkout
webhok_url: typo
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("unknown field must be rejected")
	}
}

func TestLoadConfigRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "notilog.json", `{"app_name": "a"}{"app_name": "b"}`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("trailing data must be rejected")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file must error")
	}
}
