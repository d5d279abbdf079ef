package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/docextract/text-extraction-service/internal/models"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(models.LogConfig{Level: "debug", Format: "json"}, &buf); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	logrus.WithField("component", "test").Debug("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "hello" || entry["component"] != "test" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", logrus.GetLevel())
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	if err := Setup(models.LogConfig{Level: "loud", Format: "text"}, nil); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
