// Package timeparsing provides layered due-date parsing for the CLI.
//
// Layers, tried in order:
//  1. Absolute calendar date ("2026-03-01")
//  2. Compact duration (+6h, -1d, +2w)
//  3. Natural language ("tomorrow", "next friday")
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// compactDurationRe matches compact duration patterns: [+-]?(\d+)([hdwmy])
var compactDurationRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// ParseDueDate resolves input into a calendar date string ("2006-01-02")
// relative to now. An empty input returns "" (unset).
func ParseDueDate(input string, now time.Time) (string, error) {
	if input == "" {
		return "", nil
	}
	if t, err := time.Parse("2006-01-02", input); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if IsCompactDuration(input) {
		t, err := ParseCompactDuration(input, now)
		if err != nil {
			return "", err
		}
		return t.Format("2006-01-02"), nil
	}
	t, err := ParseNaturalLanguage(input, now)
	if err != nil {
		return "", fmt.Errorf("unrecognized date %q", input)
	}
	return t.Format("2006-01-02"), nil
}

// ParseCompactDuration parses compact duration syntax and returns the
// resulting time.
//
// Format: [+-]?(\d+)([hdwmy])
//
// Units: h = hours, d = days, w = weeks, m = months, y = years.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	matches := compactDurationRe.FindStringSubmatch(s)
	if matches == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}

	sign := matches[1]
	amount, err := strconv.Atoi(matches[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount: %q", matches[2])
	}
	if sign == "-" {
		amount = -amount
	}
	return applyDuration(now, amount, matches[3]), nil
}

func applyDuration(base time.Time, amount int, unit string) time.Time {
	switch unit {
	case "h":
		return base.Add(time.Duration(amount) * time.Hour)
	case "d":
		return base.AddDate(0, 0, amount)
	case "w":
		return base.AddDate(0, 0, amount*7)
	case "m":
		return base.AddDate(0, amount, 0)
	case "y":
		return base.AddDate(amount, 0, 0)
	default:
		return base
	}
}

// IsCompactDuration returns true if the string matches compact duration
// syntax.
func IsCompactDuration(s string) bool {
	return compactDurationRe.MatchString(s)
}
