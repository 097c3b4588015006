// Package attrs reads slog-style key/value attribute lists.
package attrs

import "fmt"

// ExtractString returns the string value stored under key in a
// [key1, value1, key2, value2, ...] list, or "" when absent or not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		if v, ok := attrs[i+1].(string); ok {
			return v
		}
	}
	return ""
}

// ToStringMap flattens a key/value list. Non-string keys are skipped and
// values are formatted with their default representation.
func ToStringMap(attrs []any) map[string]string {
	out := make(map[string]string, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			out[k] = v
		case fmt.Stringer:
			out[k] = v.String()
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
