package attrs

// ExtractString pulls a string value out of a [key1, value1, key2, value2]
// attribute slice as used by slog-style loggers. Returns "" when the key is
// absent or the value is not a string.
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
