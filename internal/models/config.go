package models

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the service configuration
type Config struct {
	// Server config
	Port          int    `yaml:"port"`
	Host          string `yaml:"host"`
	MaxUploadSize int64  `yaml:"max_upload_size"` // bytes, default 10MB

	Log        LogConfig        `yaml:"log"`
	OCR        OCRConfig        `yaml:"ocr"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	PDF        PDFConfig        `yaml:"pdf"`
	AI         AIConfig         `yaml:"ai"`
}

// LogConfig controls logrus output
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // "text" or "json"
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	Engine         string `yaml:"engine"`          // "tesseract", "tesseract-cli", "openai", "gemini"
	Language       string `yaml:"language"`        // OCR language (default: "eng")
	TesseractCmd   string `yaml:"tesseract_cmd"`   // binary used by tesseract-cli
	TessdataPrefix string `yaml:"tessdata_prefix"` // optional tessdata directory
	PageSegMode    int    `yaml:"page_seg_mode"`   // tesseract PSM, 0 keeps the engine default
}

// PreprocessConfig tunes the image preprocessor
type PreprocessConfig struct {
	MaxDimension int `yaml:"max_dimension"` // downscale longest side above this, negative disables
	MaxPixels    int `yaml:"max_pixels"`    // images with more pixels are refused before decoding
}

// PDFConfig controls the PDF page extractor
type PDFConfig struct {
	TempDir     string `yaml:"temp_dir"`     // workspace parent, default os.TempDir()
	Rasterizer  string `yaml:"rasterizer"`   // "auto", "pdftoppm", "embedded"
	PdftoppmCmd string `yaml:"pdftoppm_cmd"` // poppler binary
	DPI         int    `yaml:"dpi"`          // rasterization resolution
	PageWorkers int    `yaml:"page_workers"` // parallel OCR of fallback pages
	MaxPages    int    `yaml:"max_pages"`    // documents with more leaf pages are refused
}

// AIConfig represents vision provider configuration
type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig for OpenAI or compatible endpoints
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`              // Default: "gpt-4o"
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-1.5-flash"
}

const (
	DefaultMaxUploadSize = 10 * 1024 * 1024
	DefaultDPI           = 300
	DefaultMaxDimension  = 3500
	DefaultMaxPixels     = 40_000_000
	DefaultMaxPages      = 2000
)

// LoadConfig reads a YAML config file and applies environment overrides.
// A missing file is not an error: defaults and environment are used instead.
func LoadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyEnv()
	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills every unset field with its default
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.OCR.Engine == "" {
		c.OCR.Engine = "tesseract"
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.OCR.TesseractCmd == "" {
		c.OCR.TesseractCmd = "tesseract"
	}
	switch {
	case c.Preprocess.MaxDimension == 0:
		c.Preprocess.MaxDimension = DefaultMaxDimension
	case c.Preprocess.MaxDimension < 0:
		c.Preprocess.MaxDimension = 0 // disabled
	}
	if c.Preprocess.MaxPixels <= 0 {
		c.Preprocess.MaxPixels = DefaultMaxPixels
	}
	if c.PDF.Rasterizer == "" {
		c.PDF.Rasterizer = "auto"
	}
	if c.PDF.PdftoppmCmd == "" {
		c.PDF.PdftoppmCmd = "pdftoppm"
	}
	if c.PDF.DPI <= 0 {
		c.PDF.DPI = DefaultDPI
	}
	if c.PDF.PageWorkers <= 0 {
		c.PDF.PageWorkers = 1
	}
	if c.PDF.MaxPages <= 0 {
		c.PDF.MaxPages = DefaultMaxPages
	}
	if c.AI.OpenAI.Model == "" {
		c.AI.OpenAI.Model = "gpt-4o"
	}
	if c.AI.Gemini.Model == "" {
		c.AI.Gemini.Model = "gemini-1.5-flash"
	}
}

// applyEnv overrides config values with environment variables if present
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		c.Host = host
	}
	if size := os.Getenv("MAX_UPLOAD_SIZE"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			c.MaxUploadSize = n
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	if engine := os.Getenv("OCR_ENGINE"); engine != "" {
		c.OCR.Engine = engine
	}
	if lang := os.Getenv("OCR_LANGUAGE"); lang != "" {
		c.OCR.Language = lang
	}
	if cmd := os.Getenv("TESSERACT_CMD"); cmd != "" {
		c.OCR.TesseractCmd = cmd
	}
	if prefix := os.Getenv("TESSDATA_PREFIX"); prefix != "" {
		c.OCR.TessdataPrefix = prefix
	}
	if cmd := os.Getenv("PDFTOPPM_CMD"); cmd != "" {
		c.PDF.PdftoppmCmd = cmd
	}
	if dir := os.Getenv("PDF_TEMP_DIR"); dir != "" {
		c.PDF.TempDir = dir
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.AI.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		c.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.AI.OpenAI.Model = model
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.AI.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.AI.Gemini.Model = model
	}
}
