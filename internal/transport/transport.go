package transport

import "context"

// Severity is the declared importance tier of a log call. Severities gate
// transport eligibility; there is no total ordering between them.
type Severity string

const (
	SeverityLog             Severity = "log"
	SeverityInfo            Severity = "info"
	SeverityWarn            Severity = "warn"
	SeverityError           Severity = "error"
	SeverityErrorBackground Severity = "error-background"
	SeverityDebug           Severity = "debug"
	SeverityVerbose         Severity = "verbose"
)

// Mapped levels are the internal routing tiers chat transports key their
// destination tables on. Several severities collapse onto "info"; the
// background error tier stays distinct so it can land in its own channel.
const (
	LevelInfo    = "info"
	LevelWarn    = "warn"
	LevelError   = "error"
	LevelErrorBG = "error-bg"
)

// MapLevel maps a severity to its internal routing level.
func MapLevel(s Severity) string {
	switch s {
	case SeverityWarn:
		return LevelWarn
	case SeverityError:
		return LevelError
	case SeverityErrorBackground:
		return LevelErrorBG
	default:
		return LevelInfo
	}
}

// Entry is one dispatched log call. It is constructed fresh per call and
// must be treated as immutable once handed to a transport.
type Entry struct {
	Severity Severity
	Message  string

	// Args are auxiliary positional display values (console only).
	Args []any

	// Fields are structured key/value pairs attached to the entry. For
	// calls carrying an error this includes the normalized error fields.
	Fields map[string]any

	// Err is the raw caller-supplied error-like value. Untrusted shape;
	// transports must only inspect it defensively.
	Err any

	// Channel is a per-call destination override ("" = transport default).
	Channel string

	// IsBackground marks entries originating from ErrorBackground calls.
	IsBackground bool
}

// Transport is a log destination. Implementations must never panic out of
// Send; delivery failures are either swallowed internally (built-in chat
// transports) or returned for the dispatcher to report locally.
type Transport interface {
	// Name identifies the transport for lookup and diagnostics.
	Name() string

	// ShouldHandle reports whether entries at the given severity should be
	// delivered to this transport.
	ShouldHandle(s Severity) bool

	// Send delivers one entry. The dispatcher never blocks a caller on it.
	Send(ctx context.Context, e Entry) error
}
