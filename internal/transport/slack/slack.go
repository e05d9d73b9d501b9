// Package slack delivers warn/error entries to Slack incoming webhooks.
//
// The transport owns destination routing (per-level channels, per-call
// overrides, per-level webhook endpoints) and field sanitization. Delivery
// is best-effort: failures are logged to the local diagnostic channel and
// swallowed, nothing ever raises out of Send.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"notilog/internal/diag"
	"notilog/internal/env"
	"notilog/internal/errfmt"
	"notilog/internal/transport"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRatePerSec = 5
	maxTextLen        = 4000
)

// Config describes one Slack transport. Owned exclusively by the transport
// after New; never shared or mutated.
type Config struct {
	Enabled bool

	// AppName is attached to every payload as the appName field.
	AppName string

	// WebhookURL is the default endpoint. Without it the transport is inert.
	WebhookURL string

	// WarnWebhookURL overrides the endpoint for warn entries.
	WarnWebhookURL string

	// ErrorWebhookURL overrides the endpoint for error and
	// error-background entries.
	ErrorWebhookURL string

	// Channels maps internal levels (info/warn/error/error-bg) to channel
	// names. An unmapped level falls back to the webhook's own default
	// channel; channel names are never synthesized.
	Channels map[string]string

	// ChannelPrefix is accepted for config compatibility but intentionally
	// unused: synthesizing channel names from a prefix and level was
	// superseded by explicit configuration-or-default.
	ChannelPrefix string

	// SkipInDevelopment suppresses delivery below production. nil = true.
	SkipInDevelopment *bool

	// Environment is the classified deployment environment.
	Environment env.Environment

	// RatePerSec caps outbound deliveries. <=0 = default (5/sec).
	RatePerSec int

	// HTTPClient overrides the default client (mainly for tests).
	HTTPClient *http.Client
}

// Transport posts entries to Slack. Safe for concurrent use: all state is
// fixed after New except the rate limiter, which is internally synchronized.
type Transport struct {
	cfg      Config
	client   *http.Client
	limiter  *rate.Limiter
	skipDev  bool
	chPrefix string
}

// New creates a Slack transport from cfg.
func New(cfg Config) *Transport {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = defaultRatePerSec
	}
	skip := true
	if cfg.SkipInDevelopment != nil {
		skip = *cfg.SkipInDevelopment
	}
	return &Transport{
		cfg:      cfg,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		skipDev:  skip,
		chPrefix: env.DestinationPrefix(cfg.Environment),
	}
}

func (t *Transport) Name() string { return "slack" }

// ShouldHandle gates on deliverability plus the mapped level: only warn,
// error and error-background entries reach Slack through the dispatcher.
// Direct sends skip the level gate, see Send.
func (t *Transport) ShouldHandle(s transport.Severity) bool {
	if !t.deliverable() {
		return false
	}
	switch transport.MapLevel(s) {
	case transport.LevelWarn, transport.LevelError, transport.LevelErrorBG:
		return true
	default:
		return false
	}
}

// deliverable reports whether the transport can deliver at all: the enabled
// flag, a configured default endpoint, and the environment skip policy.
func (t *Transport) deliverable() bool {
	if !t.cfg.Enabled || t.cfg.WebhookURL == "" {
		return false
	}
	if t.skipDev && t.cfg.Environment != env.Production {
		return false
	}
	return true
}

// payload is the outbound webhook body.
type payload struct {
	Channel string         `json:"channel,omitempty"`
	Text    string         `json:"text"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Send builds and posts the payload. It never returns a delivery error:
// failures are reported on the diagnostic channel and swallowed so the
// dispatch path stays failure-free. Send gates only on deliverability, not
// on severity: a direct send may use any severity and still routes through
// the per-level channel and endpoint tables.
func (t *Transport) Send(ctx context.Context, e transport.Entry) error {
	if !t.deliverable() {
		return nil
	}
	if !t.limiter.Allow() {
		diag.Warn().Str("transport", t.Name()).Msg("delivery rate limit exceeded, dropping entry")
		return nil
	}

	msg := e.Message
	fields := make(map[string]any, len(e.Fields)+4)
	if t.cfg.AppName != "" {
		fields["appName"] = t.cfg.AppName
	}
	for k, v := range e.Fields {
		fields[k] = v
	}

	// A malformed error value is itself signal: decorate the message and
	// carry the normalizer's diagnostics instead of dropping anything.
	if invalid, _ := fields[errfmt.KeyFormatInvalid].(bool); invalid && e.Err != nil {
		issue, _ := fields[errfmt.KeyFormatError].(string)
		fields["errorFormatIssue"] = issue
		fields["originalMessage"] = e.Message
		fields["errorType"] = typeName(e.Err)
		msg = msg + " (error format issue: " + issue + ")"
	}

	body := payload{
		Channel: t.resolveChannel(e),
		Text:    truncate(msg, maxTextLen),
		Fields:  sanitizeFields(fields),
	}
	if err := t.post(ctx, t.resolveEndpoint(e.Severity), body); err != nil {
		t.reportDeliveryFailure(err)
	}
	return nil
}

// resolveChannel picks the destination: per-call override first, then the
// configured per-level channel (with the environment display prefix), then
// "" meaning the webhook's built-in default.
func (t *Transport) resolveChannel(e transport.Entry) string {
	if e.Channel != "" {
		return "#" + strings.TrimPrefix(e.Channel, "#")
	}
	if name := t.cfg.Channels[transport.MapLevel(e.Severity)]; name != "" {
		return "#" + t.chPrefix + strings.TrimPrefix(name, "#")
	}
	return ""
}

// resolveEndpoint picks the webhook URL: warn entries use the warn override,
// error and error-background share the error override, everything falls back
// to the default endpoint.
func (t *Transport) resolveEndpoint(s transport.Severity) string {
	switch transport.MapLevel(s) {
	case transport.LevelWarn:
		if t.cfg.WarnWebhookURL != "" {
			return t.cfg.WarnWebhookURL
		}
	case transport.LevelError, transport.LevelErrorBG:
		if t.cfg.ErrorWebhookURL != "" {
			return t.cfg.ErrorWebhookURL
		}
	}
	return t.cfg.WebhookURL
}

func (t *Transport) post(ctx context.Context, url string, body payload) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("slack: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack: HTTP %d", resp.StatusCode)
	}
	return nil
}

// reportDeliveryFailure logs a failed delivery with defensive extraction:
// a hostile error implementation must not be able to take down the report.
func (t *Transport) reportDeliveryFailure(err error) {
	defer func() {
		if recover() != nil {
			diag.Error().Str("transport", t.Name()).Msg("notification delivery failed (error unprintable)")
		}
	}()
	diag.Error().
		Str("transport", t.Name()).
		Str("errorType", typeName(err)).
		Str("err", err.Error()).
		Msg("notification delivery failed")
}

// typeName is a best-effort type description, degrading to %T on any
// introspection failure.
func typeName(v any) (name string) {
	defer func() {
		if recover() != nil {
			name = fmt.Sprintf("%T", v)
		}
	}()
	rt := reflect.TypeOf(v)
	if rt == nil {
		return "<nil>"
	}
	return rt.String()
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
