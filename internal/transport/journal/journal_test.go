package journal

import (
	"context"
	"testing"

	"github.com/coreos/go-systemd/v22/journal"

	"notilog/internal/transport"
)

type sentRecord struct {
	msg      string
	priority journal.Priority
	vars     map[string]string
}

func newStub(appName string, enabled bool) (*Transport, *[]sentRecord) {
	var records []sentRecord
	t := New(appName)
	t.enabled = func() bool { return enabled }
	t.send = func(msg string, p journal.Priority, vars map[string]string) error {
		records = append(records, sentRecord{msg: msg, priority: p, vars: vars})
		return nil
	}
	return t, &records
}

func TestShouldHandleFollowsSocket(t *testing.T) {
	t.Parallel()
	on, _ := newStub("app", true)
	if !on.ShouldHandle(transport.SeverityDebug) {
		t.Fatal("journal reachable but not handled")
	}
	off, _ := newStub("app", false)
	if off.ShouldHandle(transport.SeverityError) {
		t.Fatal("journal unreachable but handled")
	}
}

func TestSendPriorityAndVars(t *testing.T) {
	t.Parallel()
	tr, records := newStub("checkout", true)

	e := transport.Entry{
		Severity: transport.SeverityError,
		Message:  "disk full",
		Fields:   map[string]any{"mount-point": "/var", "retries": 3},
	}
	if err := tr.Send(context.Background(), e); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(*records))
	}
	r := (*records)[0]
	if r.msg != "disk full" {
		t.Fatalf("msg = %q", r.msg)
	}
	if r.priority != journal.PriErr {
		t.Fatalf("priority = %v, want PriErr", r.priority)
	}
	if r.vars["APP_NAME"] != "checkout" {
		t.Fatalf("APP_NAME = %q", r.vars["APP_NAME"])
	}
	if r.vars["SEVERITY"] != "error" {
		t.Fatalf("SEVERITY = %q", r.vars["SEVERITY"])
	}
	if r.vars["MOUNT_POINT"] != "/var" {
		t.Fatalf("field key not mapped to journald alphabet: %v", r.vars)
	}
	if r.vars["RETRIES"] != "3" {
		t.Fatalf("RETRIES = %q", r.vars["RETRIES"])
	}
}

func TestPriorityMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		severity transport.Severity
		want     journal.Priority
	}{
		{severity: transport.SeverityDebug, want: journal.PriDebug},
		{severity: transport.SeverityVerbose, want: journal.PriDebug},
		{severity: transport.SeverityLog, want: journal.PriInfo},
		{severity: transport.SeverityInfo, want: journal.PriInfo},
		{severity: transport.SeverityWarn, want: journal.PriWarning},
		{severity: transport.SeverityError, want: journal.PriErr},
		{severity: transport.SeverityErrorBackground, want: journal.PriErr},
	}
	for _, tt := range tests {
		if got := priorityFor(tt.severity); got != tt.want {
			t.Fatalf("priorityFor(%s) = %v, want %v", tt.severity, got, tt.want)
		}
	}
}

func TestVarName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "orderId", want: "ORDERID"},
		{in: "mount-point", want: "MOUNT_POINT"},
		{in: "9lives", want: "F_9LIVES"},
		{in: "", want: "F_"},
	}
	for _, tt := range tests {
		if got := varName(tt.in); got != tt.want {
			t.Fatalf("varName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
