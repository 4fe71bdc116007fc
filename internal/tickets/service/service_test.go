package service

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short passes through", "leaking faucet", "leaking faucet"},
		{"first line only", "no hot water\nchecked the breaker already", "no hot water"},
		{"surrounding space trimmed", "  outlet sparks  \nmore detail", "outlet sparks"},
		{"exactly at cap", strings.Repeat("a", 120), strings.Repeat("a", 120)},
		{"over cap truncated", strings.Repeat("a", 200), strings.Repeat("a", 120)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.in); got != tt.want {
				t.Fatalf("Summarize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSummarizeMultiByteTruncation(t *testing.T) {
	in := strings.Repeat("é", 150)
	got := Summarize(in)

	if !utf8.ValidString(got) {
		t.Fatalf("summary is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 120 {
		t.Fatalf("summary has %d runes, want 120", n)
	}
	if !strings.HasPrefix(in, got) {
		t.Fatalf("summary is not a prefix of the input")
	}
}
