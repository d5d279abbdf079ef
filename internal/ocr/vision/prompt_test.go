package vision

import "testing"

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Invoice #123", "Invoice #123"},
		{"  Hello\nWorld \n", "Hello\nWorld"},
		{"```\nHello\n```", "Hello"},
		{"```text\nHello\nWorld\n```", "Hello\nWorld"},
		{"```Hello```", "Hello"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanResponse(tt.in); got != tt.want {
			t.Errorf("cleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
