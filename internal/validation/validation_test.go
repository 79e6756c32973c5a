package validation

import (
	"os"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTrimAndLimit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"trims whitespace", "  Hallo  ", 100, "Hallo"},
		{"whitespace only becomes empty", " \t\n ", 100, ""},
		{"limits length", strings.Repeat("a", 10), 5, "aaaaa"},
		{"zero max means unlimited", strings.Repeat("a", 10), 0, strings.Repeat("a", 10)},
		{"never splits a rune", "abä", 3, "ab"},
		{"keeps whole runes under the cap", "ää", 3, "ä"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndLimit(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("TrimAndLimit(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TrimAndLimit(%q, %d) produced invalid UTF-8", tt.input, tt.max)
			}
		})
	}
}

func TestMaxMessageLength(t *testing.T) {
	os.Unsetenv("MAX_MESSAGE_LENGTH")
	if got := MaxMessageLength(); got != 4000 {
		t.Errorf("default = %d, want 4000", got)
	}

	os.Setenv("MAX_MESSAGE_LENGTH", "200")
	defer os.Unsetenv("MAX_MESSAGE_LENGTH")
	if got := MaxMessageLength(); got != 200 {
		t.Errorf("configured = %d, want 200", got)
	}

	os.Setenv("MAX_MESSAGE_LENGTH", "bogus")
	if got := MaxMessageLength(); got != 4000 {
		t.Errorf("invalid falls back = %d, want 4000", got)
	}
}

func TestValidClientID(t *testing.T) {
	if !ValidClientID("") {
		t.Error("empty client id must be accepted")
	}
	if !ValidClientID("11111111-1111-1111-1111-111111111111") {
		t.Error("uuid-sized client id must be accepted")
	}
	if ValidClientID(strings.Repeat("x", 37)) {
		t.Error("oversized client id must be rejected")
	}
}
