package postgres

import (
	"time"
)

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
