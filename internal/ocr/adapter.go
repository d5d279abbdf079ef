package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/docextract/text-extraction-service/internal/models"
)

// Adapter runs a recognition engine over preprocessed bitmaps
type Adapter struct {
	engine Engine
}

// NewAdapter creates an adapter around engine
func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Recognize returns the trimmed text found in bitmap.
// Engine errors and panics come back as OCRFailure; there is one attempt per bitmap.
func (a *Adapter) Recognize(ctx context.Context, bitmap *image.Gray) (text string, err error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, bitmap); err != nil {
		return "", models.NewError(models.KindOCRFailure, err, "encode bitmap")
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = models.NewError(models.KindOCRFailure, eris.Errorf("%v", r), a.engine.Name()+" panicked")
		}
	}()

	start := time.Now()
	raw, err := a.engine.Recognize(ctx, buf.Bytes())
	if err != nil {
		return "", models.NewError(models.KindOCRFailure, err, a.engine.Name()+" recognition failed")
	}
	text = strings.TrimSpace(raw)

	log.WithField("engine", a.engine.Name()).
		WithField("chars", len(text)).
		WithField("duration", time.Since(start)).
		Debug("recognized bitmap")
	return text, nil
}

// ExtractText preprocesses imageData and recognizes it.
// This is the whole image path of the dispatcher.
func ExtractText(ctx context.Context, p *Preprocessor, a *Adapter, imageData []byte) (string, error) {
	bitmap, err := p.Preprocess(imageData)
	if err != nil {
		return "", err
	}
	return a.Recognize(ctx, bitmap)
}
