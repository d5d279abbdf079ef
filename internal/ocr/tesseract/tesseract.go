// Package tesseract implements an OCR engine on top of the native Tesseract
// library via gosseract. It requires libtesseract and cgo. On Ubuntu/Debian:
//
//	apt-get install libtesseract-dev tesseract-ocr-eng
package tesseract

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"
)

// Engine recognizes text with a fresh gosseract client per call,
// since a client is not safe for concurrent use.
type Engine struct {
	language    string
	tessdata    string
	pageSegMode int
	newClient   func() *gosseract.Client
}

// New creates a Tesseract-backed engine
func New(language, tessdata string, pageSegMode int) *Engine {
	if language == "" {
		language = "eng"
	}
	return &Engine{
		language:    language,
		tessdata:    tessdata,
		pageSegMode: pageSegMode,
		newClient:   gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on PNG image bytes
func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := e.newClient()
	defer client.Close()

	if e.tessdata != "" {
		client.TessdataPrefix = e.tessdata
	}
	if err := client.SetLanguage(strings.Split(e.language, "+")...); err != nil {
		return "", eris.Wrap(err, "set language")
	}
	if e.pageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(e.pageSegMode)); err != nil {
			return "", eris.Wrap(err, "set page segmentation mode")
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", eris.Wrap(err, "set image")
	}

	text, err := client.Text()
	if err != nil {
		return "", eris.Wrap(err, "recognize text")
	}
	return text, nil
}

// Version reports the linked libtesseract version
func Version() string {
	return gosseract.Version()
}
