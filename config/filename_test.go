package config

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "ocean-breeze", "ocean-breeze"},
		{"separator", "a/b", "ab"},
		{"leading dots", "..hidden", "hidden"},
		{"control", "tab\there\x00", "tabhere"},
		{"spaces", "  padded  ", "padded"},
		{"empty", "", badFileName},
		{"only dots", "...", badFileName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFileName(tt.in); got != tt.want {
				t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanFileName_Length(t *testing.T) {
	long := strings.Repeat("тема", 100)
	got := CleanFileName(long)
	if len(got) > maxNameBytes {
		t.Errorf("len = %d, want <= %d", len(got), maxNameBytes)
	}
	if !utf8.ValidString(got) {
		t.Errorf("result is not valid UTF-8: %q", got)
	}
}
