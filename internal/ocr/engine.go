// Package ocr prepares scanned images for character recognition and wraps
// the recognition engines behind a single adapter.
package ocr

import (
	"context"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "ocr")

// Engine converts an encoded image into text.
// Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

// EngineFunc adapts a function to the Engine interface
type EngineFunc func(ctx context.Context, png []byte) (string, error)

func (f EngineFunc) Name() string { return "func" }

func (f EngineFunc) Recognize(ctx context.Context, png []byte) (string, error) {
	return f(ctx, png)
}
