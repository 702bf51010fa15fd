package airtable

import (
	"strings"
	"time"
)

func (f Fields) str(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case []any:
		// linked records come back as id arrays
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func (f Fields) num(key string) int {
	switch v := f[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (f Fields) boolean(key string) bool {
	v, _ := f[key].(bool)
	return v
}

func (f Fields) timestamp(key string) time.Time {
	s := f.str(key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// list reads a comma or newline separated text cell.
func (f Fields) list(key string) []string {
	raw := f.str(key)
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
