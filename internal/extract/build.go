package extract

import (
	"github.com/docextract/text-extraction-service/internal/models"
	"github.com/docextract/text-extraction-service/internal/ocr"
	"github.com/docextract/text-extraction-service/internal/pdf"
)

// New wires a dispatcher from configuration around a recognition engine
func New(cfg *models.Config, engine ocr.Engine) (*Dispatcher, error) {
	rasterizer, err := pdf.NewRasterizer(cfg.PDF.Rasterizer, cfg.PDF.PdftoppmCmd, cfg.PDF.DPI)
	if err != nil {
		return nil, err
	}

	preprocessor := ocr.NewPreprocessor(cfg.Preprocess.MaxDimension, cfg.Preprocess.MaxPixels)
	adapter := ocr.NewAdapter(engine)
	extractor := pdf.NewExtractor(
		pdf.NewTextLayerOpener(rasterizer, cfg.PDF.MaxPages),
		preprocessor,
		adapter,
		pdf.Options{
			TempDir:     cfg.PDF.TempDir,
			PageWorkers: cfg.PDF.PageWorkers,
		},
	)

	log.WithField("engine", engine.Name()).
		WithField("rasterizer", rasterizer.Name()).
		WithField("dpi", cfg.PDF.DPI).
		Info("extraction engine ready")
	return NewDispatcher(preprocessor, adapter, extractor), nil
}
