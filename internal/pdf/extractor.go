// Package pdf extracts text from PDF documents page by page, trusting the
// embedded text layer when a page has one and falling back to OCR otherwise.
package pdf

import (
	"context"
	"errors"
	"image"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/docextract/text-extraction-service/internal/models"
)

var log = logrus.WithField("component", "pdf")

// pageSeparator is the blank line placed between page texts
const pageSeparator = "\n\n"

// Preprocessor turns rasterized page bytes into a recognition-ready bitmap
type Preprocessor interface {
	Preprocess(imageData []byte) (*image.Gray, error)
}

// Recognizer reads text from a bitmap
type Recognizer interface {
	Recognize(ctx context.Context, bitmap *image.Gray) (string, error)
}

// Options configure an Extractor
type Options struct {
	// TempDir is the parent of per-call workspaces, default os.TempDir()
	TempDir string
	// PageWorkers bounds how many fallback pages are OCRed at once
	PageWorkers int
}

// Extractor implements the per-call stage/open/extract/finalize cycle
type Extractor struct {
	opener       Opener
	preprocessor Preprocessor
	recognizer   Recognizer
	opts         Options
}

// Extraction is the outcome of a PDF extraction
type Extraction struct {
	Text  string
	Pages []models.PageResult
}

// NewExtractor creates a PDF page extractor
func NewExtractor(opener Opener, preprocessor Preprocessor, recognizer Recognizer, opts Options) *Extractor {
	if opts.PageWorkers <= 0 {
		opts.PageWorkers = 1
	}
	return &Extractor{
		opener:       opener,
		preprocessor: preprocessor,
		recognizer:   recognizer,
		opts:         opts,
	}
}

// Extract stages data in a fresh workspace, reads every page and releases the
// workspace before returning, whatever the outcome.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Extraction, error) {
	start := time.Now()

	ws, err := Stage(e.opts.TempDir, data)
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	doc, err := e.opener.Open(ws.DocumentPath())
	if err != nil {
		var tagged *models.ExtractionError
		if !errors.As(err, &tagged) {
			err = models.NewError(models.KindPDFOpenFailure, err, "open pdf")
		}
		return nil, err
	}
	defer doc.Close()

	pages, err := e.extractPages(ctx, doc)
	if err != nil {
		return nil, err
	}

	result := &Extraction{Text: joinPages(pages), Pages: pages}
	logger := log.WithFields(logrus.Fields{
		"pages":     len(pages),
		"ocr_pages": countOCR(pages),
		"chars":     len(result.Text),
		"duration":  time.Since(start),
	})
	logger.Info("pdf extracted")
	return result, nil
}

// extractPages fills one slot per page. Text layers are read in order; pages
// without one are queued and OCRed by up to PageWorkers goroutines, each writing
// only its own slot, so completion order never affects the output.
func (e *Extractor) extractPages(ctx context.Context, doc Document) ([]models.PageResult, error) {
	n := doc.NumPages()
	pages := make([]models.PageResult, n)
	var fallback []int

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, models.NewError(models.KindUnexpected, err, "pdf extraction aborted")
		}
		pages[i].Index = i

		text, err := doc.Page(i).Text()
		if err != nil {
			log.WithError(err).WithField("page", i).Warn("text layer unreadable, using OCR")
		}
		if trimmed := strings.TrimSpace(text); err == nil && trimmed != "" {
			pages[i].Text = trimmed
			continue
		}
		pages[i].UsedOCR = true
		fallback = append(fallback, i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.PageWorkers)
	for _, i := range fallback {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages[i].Text = e.ocrPage(gctx, doc.Page(i), i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, models.NewError(models.KindUnexpected, err, "pdf extraction aborted")
	}
	if err := ctx.Err(); err != nil {
		return nil, models.NewError(models.KindUnexpected, err, "pdf extraction aborted")
	}

	for i := range pages {
		pages[i].Characters = utf8.RuneCountInString(pages[i].Text)
	}
	return pages, nil
}

// ocrPage rasterizes, preprocesses and recognizes a page.
// Any failure degrades to an empty page instead of failing the document.
func (e *Extractor) ocrPage(ctx context.Context, page Page, index int) (text string) {
	logger := log.WithField("page", index)
	defer func() {
		if r := recover(); r != nil {
			logger.WithError(eris.Errorf("%v", r)).Error("page processing panicked, page left empty")
			text = ""
		}
	}()

	raw, err := page.Rasterize(ctx)
	if err != nil {
		logger.WithError(err).Warn("rasterize failed, page left empty")
		return ""
	}
	bitmap, err := e.preprocessor.Preprocess(raw)
	if err != nil {
		logger.WithError(err).Warn("preprocess failed, page left empty")
		return ""
	}
	text, err = e.recognizer.Recognize(ctx, bitmap)
	if err != nil {
		logger.WithError(err).Warn("ocr failed, page left empty")
		return ""
	}
	return strings.TrimSpace(text)
}

// joinPages concatenates non-empty page texts in page order
func joinPages(pages []models.PageResult) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, pageSeparator))
}

func countOCR(pages []models.PageResult) int {
	n := 0
	for _, p := range pages {
		if p.UsedOCR {
			n++
		}
	}
	return n
}
