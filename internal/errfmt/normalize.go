// Package errfmt turns untrusted error-like values into flat, safe fields.
//
// Logging must never be the reason an application crashes: every function in
// this package is total. Malformed error values are not rejected: they are
// converted into diagnostic fields carrying an explicit invalid-format
// marker, so data-quality problems still reach the operator.
package errfmt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field keys emitted by Normalize.
const (
	KeyMessage       = "errorMessage"
	KeyReason        = "errorReason"
	KeyDetails       = "errorDetails"
	KeyStack         = "errorStack"
	KeyFormatInvalid = "errorFormatInvalid"
	KeyFormatError   = "errorFormatError"
	KeyRawValue      = "errorRawValue"
)

// candidate is one inspected field of an error-shaped map.
type candidate struct {
	key         string // incoming map key
	outKey      string // normalized output key
	rawKey      string // diagnostic key for mistyped values
	allowNumber bool
}

// Inspection order is fixed: message, reason, details, stack. Clauses in
// errorFormatError preserve this order.
var candidates = []candidate{
	{key: "message", outKey: KeyMessage, rawKey: "errorRawMessage", allowNumber: true},
	{key: "reason", outKey: KeyReason, rawKey: "errorRawReason", allowNumber: true},
	{key: "details", outKey: KeyDetails, rawKey: "errorRawDetails", allowNumber: true},
	{key: "stack", outKey: KeyStack, rawKey: "errorRawStack", allowNumber: false},
}

// Normalize converts an arbitrary error-like value into a flat mapping of
// string fields. It is total: it never panics and never returns an error.
// nil input yields an empty mapping. Non-object input and mistyped fields
// yield the invalid-format shape (errorFormatInvalid + errorFormatError +
// errorRaw* diagnostic copies).
func Normalize(value any) (out map[string]any) {
	out = map[string]any{}
	defer func() {
		if r := recover(); r != nil {
			out = map[string]any{
				KeyFormatInvalid: true,
				KeyFormatError:   fmt.Sprintf("Error inspection failed: %v", r),
				KeyRawValue:      fmt.Sprintf("%v", r),
			}
		}
	}()

	switch e := value.(type) {
	case nil:
		return out
	case error:
		// A genuine Go error carries its message; Error() may panic on a
		// hostile implementation, which the deferred recover absorbs.
		out[KeyMessage] = e.Error()
		return out
	case map[string]any:
		normalizeMap(e, out)
		return out
	default:
		out[KeyFormatInvalid] = true
		out[KeyFormatError] = fmt.Sprintf("Expected error to be an object, but received %T", value)
		out[KeyRawValue] = stringify(value)
		return out
	}
}

func normalizeMap(m map[string]any, out map[string]any) {
	var clauses []string
	for _, c := range candidates {
		raw, present := m[c.key]
		if !present {
			continue
		}
		if s, ok := coerceString(raw, c.allowNumber); ok {
			out[c.outKey] = s
			continue
		}
		expected := "a string"
		if c.allowNumber {
			expected = "a string or number"
		}
		clauses = append(clauses, fmt.Sprintf("Expected error.%s to be %s, but received %T", c.key, expected, raw))
		out[c.rawKey] = stringify(raw)
	}
	if len(clauses) > 0 {
		out[KeyFormatInvalid] = true
		out[KeyFormatError] = strings.Join(clauses, "; ")
	}
}

// coerceString accepts strings and, when allowed, the numeric types a
// decoded payload plausibly carries.
func coerceString(v any, allowNumber bool) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if !allowNumber {
		return "", false
	}
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(n), true
	case json.Number:
		return n.String(), true
	default:
		return "", false
	}
}

// stringify renders a raw value for a diagnostic field without trusting its
// String/Error implementations beyond the package-level recover.
func stringify(v any) string {
	return fmt.Sprint(v)
}
