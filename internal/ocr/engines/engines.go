// Package engines selects the recognition engine named in the configuration.
package engines

import (
	"github.com/rotisserie/eris"

	"github.com/docextract/text-extraction-service/internal/models"
	"github.com/docextract/text-extraction-service/internal/ocr"
	"github.com/docextract/text-extraction-service/internal/ocr/tesseract"
	"github.com/docextract/text-extraction-service/internal/ocr/vision"
)

// New creates the OCR engine for cfg.OCR.Engine
func New(cfg *models.Config) (ocr.Engine, error) {
	switch cfg.OCR.Engine {
	case "tesseract":
		return tesseract.New(cfg.OCR.Language, cfg.OCR.TessdataPrefix, cfg.OCR.PageSegMode), nil

	case "tesseract-cli":
		return ocr.NewCLIEngine(cfg.OCR.TesseractCmd, cfg.OCR.Language, cfg.OCR.TessdataPrefix, cfg.OCR.PageSegMode), nil

	case "openai":
		if cfg.AI.OpenAI.APIKey == "" {
			return nil, eris.New("openai engine requires an API key")
		}
		return vision.NewOpenAIEngine(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.BaseURL, cfg.AI.OpenAI.Model), nil

	case "gemini":
		if cfg.AI.Gemini.APIKey == "" {
			return nil, eris.New("gemini engine requires an API key")
		}
		return vision.NewGeminiEngine(cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model), nil

	default:
		return nil, eris.Errorf("unsupported OCR engine: %s", cfg.OCR.Engine)
	}
}
