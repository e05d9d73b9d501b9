// Package telegram delivers warn/error entries to a Telegram chat.
//
// It implements the same transport contract as the Slack webhook sink and
// gives deployments without Slack an equivalent notification channel. Like
// every chat transport, delivery failures are swallowed after a local
// diagnostic report.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"

	"notilog/internal/diag"
	"notilog/internal/env"
	"notilog/internal/transport"
)

const maxTextLen = 3500

// Config describes one Telegram transport.
type Config struct {
	Enabled bool
	Token   string

	// ChatID is the target chat (group or channel).
	ChatID int64

	// ThreadID targets a forum topic (0 = none).
	ThreadID int

	// AppName prefixes every message so shared chats stay readable.
	AppName string

	// SkipInDevelopment suppresses delivery below production. nil = true.
	SkipInDevelopment *bool

	// Environment is the classified deployment environment.
	Environment env.Environment
}

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Transport posts entries as plain-text Telegram messages.
type Transport struct {
	cfg     Config
	bot     sender
	skipDev bool
}

// New creates a Telegram transport. The bot handle is created offline; the
// first network exchange happens on the first delivery.
func New(cfg Config) (*Transport, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: token is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newWithSender(cfg, b), nil
}

func newWithSender(cfg Config, s sender) *Transport {
	skip := true
	if cfg.SkipInDevelopment != nil {
		skip = *cfg.SkipInDevelopment
	}
	return &Transport{cfg: cfg, bot: s, skipDev: skip}
}

func (t *Transport) Name() string { return "telegram" }

func (t *Transport) ShouldHandle(s transport.Severity) bool {
	if !t.cfg.Enabled || t.cfg.ChatID == 0 {
		return false
	}
	if t.skipDev && t.cfg.Environment != env.Production {
		return false
	}
	switch transport.MapLevel(s) {
	case transport.LevelWarn, transport.LevelError, transport.LevelErrorBG:
		return true
	default:
		return false
	}
}

// Send formats and delivers one entry. Failures never propagate.
func (t *Transport) Send(_ context.Context, e transport.Entry) error {
	if !t.ShouldHandle(e.Severity) {
		return nil
	}
	text := t.format(e)
	var opts []interface{}
	if t.cfg.ThreadID != 0 {
		opts = append(opts, &tele.SendOptions{ThreadID: t.cfg.ThreadID})
	}
	if _, err := t.bot.Send(tele.ChatID(t.cfg.ChatID), text, opts...); err != nil {
		diag.Error().
			Str("transport", t.Name()).
			Int64("chat_id", t.cfg.ChatID).
			Err(err).
			Msg("notification delivery failed")
	}
	return nil
}

// format renders "[LEVEL] message" plus one "- key=value" line per field,
// with stable field ordering for readability.
func (t *Transport) format(e transport.Entry) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(strings.ToUpper(transport.MapLevel(e.Severity)))
	b.WriteString("] ")
	if t.cfg.AppName != "" {
		b.WriteString(t.cfg.AppName)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(truncate(fmt.Sprint(e.Fields[k]), 600))
	}
	return truncate(b.String(), maxTextLen)
}

// truncate caps s at maxN bytes, trimming back to a rune boundary so a
// multibyte character is never split at the cut.
func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	cut := maxN
	suffix := ""
	if maxN >= 10 {
		cut = maxN - 3
		suffix = "..."
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
