package errfmt

import "strings"

// ShouldDowngrade reports whether an error-tier call should be demoted to a
// warning: true iff any configured pattern is a case-sensitive substring of
// the error's message or reason. False when the error is absent or the
// pattern list is empty.
func ShouldDowngrade(value any, patterns []string) bool {
	if value == nil || len(patterns) == 0 {
		return false
	}
	msg, reason := messageAndReason(value)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(msg, p) || strings.Contains(reason, p) {
			return true
		}
	}
	return false
}

// IsErrorShaped reports whether a value can plausibly carry error semantics:
// a Go error or a decoded object. Used by the facade to tell an error
// argument apart from auxiliary display arguments.
func IsErrorShaped(value any) bool {
	switch value.(type) {
	case error, map[string]any:
		return value != nil
	default:
		return false
	}
}

// messageAndReason extracts the message and reason strings defensively:
// absent or mistyped fields become empty strings, hostile implementations
// cannot panic out.
func messageAndReason(value any) (msg, reason string) {
	defer func() {
		if recover() != nil {
			msg, reason = "", ""
		}
	}()
	switch e := value.(type) {
	case error:
		return e.Error(), ""
	case map[string]any:
		m, _ := e["message"].(string)
		r, _ := e["reason"].(string)
		return m, r
	default:
		return "", ""
	}
}
