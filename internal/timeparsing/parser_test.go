package timeparsing

import (
	"testing"
	"time"
)

var parseBase = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func TestParseCompactDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"6h", parseBase.Add(6 * time.Hour)},
		{"+6h", parseBase.Add(6 * time.Hour)},
		{"-2h", parseBase.Add(-2 * time.Hour)},
		{"1d", parseBase.AddDate(0, 0, 1)},
		{"+30d", parseBase.AddDate(0, 0, 30)},
		{"-1d", parseBase.AddDate(0, 0, -1)},
		{"2w", parseBase.AddDate(0, 0, 14)},
		{"3m", parseBase.AddDate(0, 3, 0)},
		{"1y", parseBase.AddDate(1, 0, 0)},
	}
	for _, tt := range tests {
		got, err := ParseCompactDuration(tt.input, parseBase)
		if err != nil {
			t.Errorf("ParseCompactDuration(%q): %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseCompactDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsCompactDuration(t *testing.T) {
	valid := []string{"6h", "+6h", "-1d", "2w", "3m", "10y"}
	for _, s := range valid {
		if !IsCompactDuration(s) {
			t.Errorf("IsCompactDuration(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "h", "6", "6x", "++6h", "6h7d", "tomorrow", "2025-06-15"}
	for _, s := range invalid {
		if IsCompactDuration(s) {
			t.Errorf("IsCompactDuration(%q) = true, want false", s)
		}
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"2026-03-01", "2026-03-01"},
		{"1d", "2025-06-16"},
		{"+2w", "2025-06-29"},
		{"-1d", "2025-06-14"},
		{"tomorrow", "2025-06-16"},
		{"today", "2025-06-15"},
	}
	for _, tt := range tests {
		got, err := ParseDueDate(tt.input, parseBase)
		if err != nil {
			t.Errorf("ParseDueDate(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDueDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if _, err := ParseDueDate("not a date at all, ever", parseBase); err == nil {
		t.Error("ParseDueDate accepted gibberish")
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	got, err := ParseNaturalLanguage("tomorrow", parseBase)
	if err != nil {
		t.Fatalf("ParseNaturalLanguage: %v", err)
	}
	if got.Format("2006-01-02") != "2025-06-16" {
		t.Fatalf("tomorrow = %v", got)
	}

	if _, err := ParseNaturalLanguage("xyzzy", parseBase); err == nil {
		t.Fatal("ParseNaturalLanguage accepted gibberish")
	}
}
