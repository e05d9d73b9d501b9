// Package diag is the local diagnostic side-channel of the logging facade.
//
// Everything that goes wrong inside the facade itself (caller misuse,
// delivery failures, transport panics) lands here and nowhere else: it is
// never propagated back to the caller and never re-enters the dispatch path.
package diag

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	return zerolog.New(cw).With().Timestamp().Str("component", "notilog").Logger()
}

// SetOutput redirects the diagnostic stream. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = newLogger(w)
	mu.Unlock()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Warn starts a warning-level diagnostic event.
func Warn() *zerolog.Event {
	l := current()
	return l.Warn()
}

// Error starts an error-level diagnostic event.
func Error() *zerolog.Event {
	l := current()
	return l.Error()
}

// Debug starts a debug-level diagnostic event.
func Debug() *zerolog.Event {
	l := current()
	return l.Debug()
}
