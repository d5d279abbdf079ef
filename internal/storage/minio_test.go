package storage

import (
	"context"
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)
	got := ObjectName("abc-123", at)
	if got != "2024/03/abc-123.txt" {
		t.Fatalf("ObjectName = %q", got)
	}
}

func TestTrimBucket(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"extractions/2024/03/a.txt", "2024/03/a.txt"},
		{"2024/03/a.txt", "2024/03/a.txt"},
		{"other/2024/03/a.txt", "other/2024/03/a.txt"},
	}
	for _, tt := range tests {
		if got := trimBucket(tt.in, "extractions"); got != tt.want {
			t.Errorf("trimBucket(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUploadTextWithoutClient(t *testing.T) {
	Client = nil
	if _, err := UploadText(context.Background(), "id", "text"); err == nil {
		t.Fatal("expected error without client")
	}
}
