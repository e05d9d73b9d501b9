package slack

import (
	"encoding/json"
	"fmt"
	"reflect"
)

const (
	maxDepth = 5

	depthMarker    = "[max depth exceeded]"
	circularMarker = "[circular reference]"
)

// sanitizeFields makes a field tree safe to hand to the JSON encoder.
// Each top-level field is sanitized independently: one hostile value is
// replaced with an inline diagnostic string and never drops the rest.
func sanitizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = sanitizeField(v)
	}
	return out
}

func sanitizeField(v any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("[field sanitization failed: %v]", r)
		}
	}()
	seen := map[uintptr]struct{}{}
	return sanitizeValue(v, 0, seen)
}

// sanitizeValue is the recursive core. depth counts container nesting;
// seen holds identities of maps and slices already visited in this pass,
// which turns cyclic graphs into flat trees with circular-reference markers.
func sanitizeValue(v any, depth int, seen map[uintptr]struct{}) any {
	if depth >= maxDepth {
		return depthMarker
	}

	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return x

	case []any:
		if len(x) == 0 {
			return x
		}
		if marked(seen, x) {
			return circularMarker
		}
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = sanitizeValue(el, depth+1, seen)
		}
		return out

	case map[string]any:
		if len(x) == 0 {
			return x
		}
		if marked(seen, x) {
			return circularMarker
		}
		out := make(map[string]any, len(x))
		for k, el := range x {
			out[k] = sanitizeValue(el, depth+1, seen)
		}
		return out

	case error:
		// Errors rarely serialize usefully; extract the parts that do.
		if jsonSafe(x) {
			return x
		}
		return map[string]any{
			"name":    typeName(x),
			"message": safeErrorMessage(x),
		}

	default:
		if jsonSafe(x) {
			return x
		}
		return "[unserializable: " + typeName(x) + "]"
	}
}

// marked records a container identity, reporting whether it was already seen.
func marked(seen map[uintptr]struct{}, v any) bool {
	p := reflect.ValueOf(v).Pointer()
	if _, ok := seen[p]; ok {
		return true
	}
	seen[p] = struct{}{}
	return false
}

// jsonSafe probes whether the encoder can serialize the value as-is.
func jsonSafe(v any) bool {
	_, err := json.Marshal(v)
	return err == nil
}

func safeErrorMessage(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = "<unavailable>"
		}
	}()
	return err.Error()
}
