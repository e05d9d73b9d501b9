package notilog

import (
	"context"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"notilog/internal/diag"
	"notilog/internal/env"
	"notilog/internal/errfmt"
	"notilog/internal/transport"
	"notilog/internal/transport/console"
	"notilog/internal/transport/journal"
	"notilog/internal/transport/slack"
	"notilog/internal/transport/telegram"
)

// defaultWarnPatterns demote known-benign errors to warnings.
var defaultWarnPatterns = []string{
	"User not found",
	"Failed to fetch",
	"Load failed",
	"Network error",
	"Timeout",
}

// Logger is the process-scoped logging facade. Create one with New and
// share it; all methods are safe for concurrent use. Dispatch to transports
// is fire-and-forget: no call ever blocks on or observes delivery.
type Logger struct {
	appName     string
	environment env.Environment

	mu           sync.RWMutex
	transports   []transport.Transport
	debugEnabled bool
	debugFilters []string
	warnPatterns []string

	inflight sync.WaitGroup
}

// New creates a Logger with the console transport, the configured chat
// transports, and any extra transports from cfg, in that order.
func New(cfg Config) *Logger {
	environment := env.Classify(cfg.Environment)
	l := &Logger{
		appName:     cfg.AppName,
		environment: environment,
	}
	l.Apply(cfg)

	l.transports = append(l.transports, console.New(os.Stdout, os.Stderr))
	l.transports = append(l.transports, slack.New(slack.Config{
		Enabled:           cfg.Slack.Enabled,
		AppName:           cfg.AppName,
		WebhookURL:        cfg.Slack.WebhookURL,
		WarnWebhookURL:    cfg.Slack.WebhookURLs.Warn,
		ErrorWebhookURL:   cfg.Slack.WebhookURLs.Error,
		Channels:          channelTable(cfg.Slack.Channels),
		ChannelPrefix:     cfg.Slack.ChannelPrefix,
		SkipInDevelopment: cfg.Slack.SkipInDevelopment,
		Environment:       environment,
		RatePerSec:        cfg.Slack.RatePerSec,
	}))
	if cfg.Telegram.Enabled {
		t, err := telegram.New(telegram.Config{
			Enabled:           true,
			Token:             cfg.Telegram.Token,
			ChatID:            cfg.Telegram.ChatID,
			ThreadID:          cfg.Telegram.ThreadID,
			AppName:           cfg.AppName,
			SkipInDevelopment: cfg.Telegram.SkipInDevelopment,
			Environment:       environment,
		})
		if err != nil {
			diag.Error().Err(err).Msg("telegram transport disabled")
		} else {
			l.transports = append(l.transports, t)
		}
	}
	if cfg.Journal.Enabled {
		l.transports = append(l.transports, journal.New(cfg.AppName))
	}
	for _, t := range cfg.Transports {
		if t != nil {
			l.transports = append(l.transports, t)
		}
	}
	return l
}

// Environment reports the classified deployment environment as a string.
func (l *Logger) Environment() string { return string(l.environment) }

// Apply updates the mutable runtime settings: debug mode, debug filters and
// reclassification patterns. The transport list is append-only and is never
// touched by Apply, so it is safe to call while dispatches are in flight.
func (l *Logger) Apply(cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugEnabled = cfg.Debug.Enabled
	l.debugFilters = append([]string(nil), cfg.Debug.Filter...)
	if cfg.ErrorsToTreatAsWarnings == nil {
		l.warnPatterns = defaultWarnPatterns
	} else {
		l.warnPatterns = append([]string(nil), cfg.ErrorsToTreatAsWarnings...)
	}
}

// Log emits at the lowest tier. The first value is the message, the rest
// are auxiliary display arguments.
func (l *Logger) Log(msg string, args ...any) {
	l.dispatch(transport.Entry{Severity: transport.SeverityLog, Message: msg, Args: args})
}

// Info emits an informational entry.
func (l *Logger) Info(msg string, args ...any) {
	l.dispatch(transport.Entry{Severity: transport.SeverityInfo, Message: msg, Args: args})
}

// Warn emits a warning. An error-shaped leading argument is classified as
// the entry's error and normalized; a trailing *Options supplies a custom
// destination and extra fields.
func (l *Logger) Warn(msg string, args ...any) {
	e := transport.Entry{Severity: transport.SeverityWarn, Message: msg}
	rest := args
	if len(rest) > 0 && errfmt.IsErrorShaped(rest[0]) {
		e.Err = rest[0]
		rest = rest[1:]
	}
	fields := map[string]any{}
	if n := len(rest); n > 0 {
		if o, ok := rest[n-1].(*Options); ok && o != nil {
			rest = rest[:n-1]
			e.Channel = o.Channel
			for k, v := range o.Fields {
				fields[k] = v
			}
		}
	}
	e.Args = rest
	if e.Err != nil {
		for k, v := range errfmt.Normalize(e.Err) {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		e.Fields = fields
	}
	l.dispatch(e)
}

// Error emits an error entry. Exactly one optional error value is accepted;
// extra values violate the arity contract: the violation is reported on the
// diagnostic channel, and in development the call is dropped entirely.
// Outside development the call proceeds, a production error is never
// silently lost over a call-site mistake.
func (l *Logger) Error(msg string, errs ...any) {
	l.errorCall(transport.SeverityError, msg, errs)
}

// ErrorBackground is Error for background/async failures: same contract,
// but the entry is tagged isBackground and routed to the error-background
// tier so it lands in a separate destination.
func (l *Logger) ErrorBackground(msg string, errs ...any) {
	l.errorCall(transport.SeverityErrorBackground, msg, errs)
}

func (l *Logger) errorCall(sev transport.Severity, msg string, errs []any) {
	if len(errs) > 1 {
		diag.Error().
			Str("severity", string(sev)).
			Int("got_args", len(errs)+1).
			Str("stack", stackTrace(4, 16)).
			Msg("arity violation: expected (message) or (message, error)")
		if l.environment == env.Development {
			return
		}
	}
	var errVal any
	if len(errs) > 0 {
		errVal = errs[0]
	}

	e := transport.Entry{Severity: sev, Message: msg, Err: errVal}
	fields := map[string]any{}
	if sev == transport.SeverityErrorBackground {
		e.IsBackground = true
		fields["isBackground"] = true
	}
	if errVal != nil {
		for k, v := range errfmt.Normalize(errVal) {
			fields[k] = v
		}
		if errfmt.ShouldDowngrade(errVal, l.patterns()) {
			suffix := " [error treated as warn]"
			if sev == transport.SeverityErrorBackground {
				suffix = " [background error treated as warn]"
			}
			e.Severity = transport.SeverityWarn
			e.Message = msg + suffix
		}
	}
	if len(fields) > 0 {
		e.Fields = fields
	}
	l.dispatch(e)
}

// Debug emits a debug entry gated by the global debug switch and the
// configured filter. filterText doubles as the message.
func (l *Logger) Debug(filterText string, args ...any) {
	if !l.IsDebugModeOn(filterText) {
		return
	}
	l.dispatch(transport.Entry{Severity: transport.SeverityDebug, Message: filterText, Args: args})
}

// IsDebugModeOn exposes the debug gate so callers can guard expensive debug
// computation before building the message.
func (l *Logger) IsDebugModeOn(filterText string) bool {
	l.mu.RLock()
	enabled := l.debugEnabled
	filters := l.debugFilters
	l.mu.RUnlock()

	if !enabled {
		return false
	}
	if len(filters) == 0 || filterText == "" {
		return true
	}
	for _, f := range filters {
		if matchFilter(f, filterText) {
			return true
		}
	}
	return false
}

// matchFilter treats the pattern as a case-insensitive regular expression,
// falling back to plain substring containment when it does not compile.
func matchFilter(pattern, text string) bool {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return strings.Contains(strings.ToLower(text), strings.ToLower(pattern))
	}
	return re.MatchString(text)
}

// SendToSlack delivers directly through the Slack transport, bypassing the
// severity fan-out. The caller controls destination, fields, and the
// severity used for endpoint/channel routing.
func (l *Logger) SendToSlack(m SlackMessage) {
	t := l.transportByName("slack")
	if t == nil {
		diag.Warn().Msg("sendToSlack: no slack transport registered")
		return
	}
	sev := m.Severity
	if sev == "" {
		sev = transport.SeverityError
	}
	l.spawn(t, transport.Entry{
		Severity: sev,
		Message:  m.Text,
		Channel:  m.Channel,
		Fields:   m.Fields,
	})
}

// GetTransports returns a snapshot of the transport list in dispatch order.
func (l *Logger) GetTransports() []transport.Transport {
	return l.snapshot()
}

// AddTransport appends a sink at runtime. It participates in all subsequent
// dispatch decisions immediately. The list is append-only; there is no
// removal.
func (l *Logger) AddTransport(t transport.Transport) {
	if t == nil {
		return
	}
	l.mu.Lock()
	l.transports = append(l.transports, t)
	l.mu.Unlock()
}

// Flush blocks until all in-flight deliveries have finished. The logging
// path never needs it; it exists for orderly shutdown and for tests.
func (l *Logger) Flush() {
	l.inflight.Wait()
}

// dispatch fans the entry out to every eligible transport concurrently and
// returns without waiting for completion.
func (l *Logger) dispatch(e transport.Entry) {
	for _, t := range l.snapshot() {
		if !t.ShouldHandle(e.Severity) {
			continue
		}
		l.spawn(t, e)
	}
}

// spawn runs one delivery in its own goroutine. Errors and panics from a
// transport are reported on the diagnostic channel only; they can never
// reach the caller.
func (l *Logger) spawn(t transport.Transport, e transport.Entry) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				diag.Error().
					Str("transport", t.Name()).
					Interface("panic", r).
					Msg("transport panicked during send")
			}
		}()
		if err := t.Send(context.Background(), e); err != nil {
			diag.Error().Str("transport", t.Name()).Err(err).Msg("transport send failed")
		}
	}()
}

// snapshot copies the transport list so dispatch can iterate while a
// concurrent AddTransport appends.
func (l *Logger) snapshot() []transport.Transport {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]transport.Transport, len(l.transports))
	copy(out, l.transports)
	return out
}

func (l *Logger) transportByName(name string) transport.Transport {
	for _, t := range l.snapshot() {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func (l *Logger) patterns() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.warnPatterns
}

func channelTable(c Channels) map[string]string {
	table := map[string]string{}
	if c.Info != "" {
		table[transport.LevelInfo] = c.Info
	}
	if c.Warn != "" {
		table[transport.LevelWarn] = c.Warn
	}
	if c.Error != "" {
		table[transport.LevelError] = c.Error
	}
	if c.ErrorBackground != "" {
		table[transport.LevelErrorBG] = c.ErrorBackground
	}
	return table
}

func stackTrace(skip, maxFrames int) string {
	if maxFrames <= 0 {
		maxFrames = 16
	}
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	i := 0
	for {
		fr, more := frames.Next()
		if fr.File != "" {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fr.Function)
			b.WriteString("\n  ")
			b.WriteString(fr.File)
			b.WriteString(":")
			b.WriteString(strconv.Itoa(fr.Line))
			i++
		}
		if !more || i >= maxFrames {
			break
		}
	}
	return b.String()
}
