package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Pay rent", 50, "Pay rent"},
		{"exact", strings.Repeat("a", 50), 50, strings.Repeat("a", 50)},
		{"ascii", strings.Repeat("a", 60), 50, strings.Repeat("a", 47) + "..."},
		{"multibyte", strings.Repeat("ü", 60), 50, strings.Repeat("ü", 47) + "..."},
		{"multibyte fits", strings.Repeat("ü", 50), 50, strings.Repeat("ü", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}

	// Byte offset 47 lands inside a two-byte character.
	desc := "Zahlung f" + strings.Repeat("ü", 50)
	if got := truncate(desc, 50); !utf8.ValidString(got) || utf8.RuneCountInString(got) != 50 {
		t.Errorf("Unexpected truncation: %q", got)
	}
}
