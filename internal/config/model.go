package config

import "strings"

// ModelFamily maps a model identifier to the family key used by plan limits
// and hour-rate tables, e.g. "claude-sonnet-4-5-20250929" -> "sonnet4" and
// "claude-3-5-sonnet-20241022" -> "sonnet3". Unrecognized identifiers map to
// "other".
func ModelFamily(model string) string {
	fields := strings.FieldsFunc(strings.ToLower(model), func(r rune) bool {
		return r == '-' || r == '.' || r == '_'
	})

	for i, f := range fields {
		if f != "opus" && f != "sonnet" && f != "haiku" {
			continue
		}

		// Newer ids carry the version after the family name
		// (claude-sonnet-4-5-...), older ones before it (claude-3-5-sonnet-...).
		if i+1 < len(fields) && isVersionField(fields[i+1]) {
			return f + fields[i+1][:1]
		}

		j := i - 1
		for j >= 0 && isVersionField(fields[j]) {
			j--
		}
		if j+1 <= i-1 {
			return f + fields[j+1][:1]
		}

		return f
	}

	return "other"
}

// isVersionField reports whether a field looks like a version component
// rather than a date stamp.
func isVersionField(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
