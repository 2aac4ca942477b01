package chat

import "testing"

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		max     int
		want    string
	}{
		{"short stays whole", "Hello", 50, "Hello"},
		{"exactly max", "abcde", 5, "abcde"},
		{"long truncated", "abcdefghij", 5, "abcde..."},
		{"whitespace trimmed", "  Hello  ", 50, "Hello"},
		{"trailing space at cut trimmed", "abcd efghij", 5, "abcd..."},
		{"multibyte counted as runes", "héllo wörld", 7, "héllo w..."},
		{"empty", "", 50, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.message, tt.max); got != tt.want {
				t.Errorf("DeriveTitle(%q, %d) = %q, want %q", tt.message, tt.max, got, tt.want)
			}
		})
	}
}
