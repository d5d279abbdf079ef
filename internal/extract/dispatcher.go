// Package extract is the entry point of the extraction engine: it picks the
// image or PDF path from the declared content type and normalizes every
// outcome into a models.ExtractionResult.
package extract

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docextract/text-extraction-service/internal/models"
	"github.com/docextract/text-extraction-service/internal/ocr"
	"github.com/docextract/text-extraction-service/internal/pdf"
)

var log = logrus.WithField("component", "extract")

// Format is the processing path chosen for a content type
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatImage
)

// DetectFormat maps a declared content type to a processing path.
// Parameters such as "; charset=binary" and letter case are ignored.
func DetectFormat(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	switch strings.ToLower(mediaType) {
	case models.ContentTypePDF:
		return FormatPDF
	case models.ContentTypeJPEG, models.ContentTypeJPG, models.ContentTypePNG:
		return FormatImage
	default:
		return FormatUnknown
	}
}

// PDFExtractor is the PDF path
type PDFExtractor interface {
	Extract(ctx context.Context, data []byte) (*pdf.Extraction, error)
}

// Dispatcher routes documents to the image or PDF path
type Dispatcher struct {
	preprocessor *ocr.Preprocessor
	adapter      *ocr.Adapter
	pdf          PDFExtractor
}

// NewDispatcher creates a dispatcher
func NewDispatcher(preprocessor *ocr.Preprocessor, adapter *ocr.Adapter, pdfExtractor PDFExtractor) *Dispatcher {
	return &Dispatcher{
		preprocessor: preprocessor,
		adapter:      adapter,
		pdf:          pdfExtractor,
	}
}

// Extract returns the text of data. It never panics and never returns a raw
// library error: every failure is reported through the result's Kind and Message.
func (d *Dispatcher) Extract(ctx context.Context, data []byte, contentType string) (result models.ExtractionResult) {
	start := time.Now()
	logger := log.WithField("content_type", contentType).WithField("bytes", len(data))

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("extraction panicked")
			result = models.Failure(models.KindUnexpected, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	format := DetectFormat(contentType)
	if format == FormatUnknown {
		logger.Info("unsupported content type")
		return models.Failure(models.KindUnsupportedFormat, fmt.Sprintf("Unsupported file type: %s", contentType))
	}

	var err error
	switch format {
	case FormatPDF:
		var extraction *pdf.Extraction
		extraction, err = d.pdf.Extract(ctx, data)
		if err == nil {
			result = models.Success(extraction.Text, extraction.Pages)
		}
	case FormatImage:
		var text string
		text, err = ocr.ExtractText(ctx, d.preprocessor, d.adapter, data)
		if err == nil {
			result = models.Success(text, nil)
		}
	}

	if err != nil {
		kind := models.KindOf(err)
		logger.WithError(err).WithField("kind", kind).Warn("extraction failed")
		return models.Failure(kind, err.Error())
	}

	logger.WithField("chars", result.CharactersExtracted).
		WithField("duration", time.Since(start)).
		Info("extraction succeeded")
	return result
}
