// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/docextract/text-extraction-service/internal/models"
)

// Setup applies level and format to the standard logrus logger.
// An unknown level is an error; an unknown format falls back to text.
func Setup(cfg models.LogConfig, out io.Writer) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if out != nil {
		logrus.SetOutput(out)
	}
	return nil
}
