package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"notilog/internal/transport"
)

// syncBuffer guards a bytes.Buffer for concurrent writers.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestSendRoutesStreams(t *testing.T) {
	t.Parallel()
	var out, errOut syncBuffer
	tr := New(&out, &errOut)

	tests := []struct {
		name     string
		severity transport.Severity
		toErr    bool
	}{
		{name: "log", severity: transport.SeverityLog, toErr: false},
		{name: "info", severity: transport.SeverityInfo, toErr: false},
		{name: "warn", severity: transport.SeverityWarn, toErr: false},
		{name: "debug", severity: transport.SeverityDebug, toErr: false},
		{name: "verbose", severity: transport.SeverityVerbose, toErr: false},
		{name: "error", severity: transport.SeverityError, toErr: true},
		{name: "error-background", severity: transport.SeverityErrorBackground, toErr: true},
	}

	for _, tt := range tests {
		msg := "stream check " + tt.name
		if err := tr.Send(context.Background(), transport.Entry{Severity: tt.severity, Message: msg}); err != nil {
			t.Fatalf("Send(%s): %v", tt.name, err)
		}
		got, other := out.String(), errOut.String()
		if tt.toErr {
			got, other = other, got
		}
		if !strings.Contains(got, msg) {
			t.Fatalf("%s: message missing from expected stream", tt.name)
		}
		if strings.Contains(other, msg) {
			t.Fatalf("%s: message leaked to the other stream", tt.name)
		}
	}
}

func TestSendRendersFieldsAndArgs(t *testing.T) {
	t.Parallel()
	var out, errOut syncBuffer
	tr := New(&out, &errOut)

	e := transport.Entry{
		Severity: transport.SeverityInfo,
		Message:  "order placed",
		Args:     []any{42, "eu-west"},
		Fields:   map[string]any{"orderId": "o-1"},
	}
	if err := tr.Send(context.Background(), e); err != nil {
		t.Fatalf("Send: %v", err)
	}

	s := out.String()
	for _, want := range []string{"order placed", "orderId", "o-1", "42", "eu-west"} {
		if !strings.Contains(s, want) {
			t.Fatalf("output %q missing %q", s, want)
		}
	}
}

func TestShouldHandleAllSeverities(t *testing.T) {
	t.Parallel()
	tr := New(&syncBuffer{}, &syncBuffer{})
	for _, s := range []transport.Severity{
		transport.SeverityLog, transport.SeverityInfo, transport.SeverityWarn,
		transport.SeverityError, transport.SeverityErrorBackground,
		transport.SeverityDebug, transport.SeverityVerbose,
	} {
		if !tr.ShouldHandle(s) {
			t.Fatalf("console must handle %s", s)
		}
	}
}
