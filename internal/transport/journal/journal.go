// Package journal writes log entries to the systemd journal.
//
// A local sink like console: it handles every severity, and on hosts
// without a reachable journal socket it reports itself ineligible instead
// of failing sends.
package journal

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"

	"notilog/internal/diag"
	"notilog/internal/transport"
)

// Transport sends entries to journald with structured vars.
type Transport struct {
	appName string
	enabled func() bool
	send    func(msg string, p journal.Priority, vars map[string]string) error
}

// New creates a journal transport. appName becomes the APP_NAME var on
// every record.
func New(appName string) *Transport {
	return &Transport{
		appName: appName,
		enabled: journal.Enabled,
		send:    journal.Send,
	}
}

func (t *Transport) Name() string { return "journal" }

func (t *Transport) ShouldHandle(transport.Severity) bool { return t.enabled() }

// Send writes one journal record. Journal errors are local-host conditions;
// they are reported on the diagnostic channel and swallowed.
func (t *Transport) Send(_ context.Context, e transport.Entry) error {
	vars := make(map[string]string, len(e.Fields)+2)
	if t.appName != "" {
		vars["APP_NAME"] = t.appName
	}
	vars["SEVERITY"] = string(e.Severity)
	for k, v := range e.Fields {
		vars[varName(k)] = fmt.Sprint(v)
	}
	if err := t.send(e.Message, priorityFor(e.Severity), vars); err != nil {
		diag.Error().Str("transport", t.Name()).Err(err).Msg("journal write failed")
	}
	return nil
}

func priorityFor(s transport.Severity) journal.Priority {
	switch s {
	case transport.SeverityDebug, transport.SeverityVerbose:
		return journal.PriDebug
	case transport.SeverityWarn:
		return journal.PriWarning
	case transport.SeverityError, transport.SeverityErrorBackground:
		return journal.PriErr
	default:
		return journal.PriInfo
	}
}

// varName maps a field key onto the journald variable alphabet
// (uppercase letters, digits, underscore; must not start with a digit).
func varName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "F_" + s
	}
	return s
}
