// Package console renders log entries to the local process streams.
package console

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"notilog/internal/transport"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Transport writes entries through zerolog console writers. Error-tier
// entries go to the error stream, everything else to the output stream.
// Severity filtering is the dispatcher's job, so every severity is handled.
type Transport struct {
	out zerolog.Logger
	err zerolog.Logger
}

// New creates a console transport over the given streams
// (typically os.Stdout and os.Stderr).
func New(out, errOut io.Writer) *Transport {
	return &Transport{
		out: newWriterLogger(out),
		err: newWriterLogger(errOut),
	}
}

func newWriterLogger(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	return zerolog.New(cw).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

func (t *Transport) Name() string { return "console" }

func (t *Transport) ShouldHandle(transport.Severity) bool { return true }

// Send renders the entry. Writing to a local stream has no failure mode
// worth surfacing to the dispatcher, so Send always returns nil.
func (t *Transport) Send(_ context.Context, e transport.Entry) error {
	l := t.out
	switch e.Severity {
	case transport.SeverityError, transport.SeverityErrorBackground:
		l = t.err
	}

	ev := l.WithLevel(levelFor(e.Severity))
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	if len(e.Args) > 0 {
		ev = ev.Interface("args", e.Args)
	}
	ev.Msg(e.Message)
	return nil
}

func levelFor(s transport.Severity) zerolog.Level {
	switch s {
	case transport.SeverityDebug:
		return zerolog.DebugLevel
	case transport.SeverityVerbose:
		return zerolog.TraceLevel
	case transport.SeverityInfo:
		return zerolog.InfoLevel
	case transport.SeverityWarn:
		return zerolog.WarnLevel
	case transport.SeverityError, transport.SeverityErrorBackground:
		return zerolog.ErrorLevel
	default:
		return zerolog.NoLevel
	}
}
