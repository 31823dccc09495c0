package sqlite

import (
	"fmt"
	"time"
)

// Timestamps are stored as fixed-width UTC strings so that the fold-order
// index sorts lexicographically in time order. RFC3339Nano is not used for
// writes because it trims trailing fractional zeros, which breaks
// lexicographic ordering between whole and fractional seconds.
const tsFormat = "2006-01-02T15:04:05.000000000Z07:00"

func nowUTC() string {
	return time.Now().UTC().Format(tsFormat)
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsFormat)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
