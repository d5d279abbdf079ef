package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/docextract/text-extraction-service/internal/db"
	"github.com/docextract/text-extraction-service/internal/extract"
	"github.com/docextract/text-extraction-service/internal/models"
	"github.com/docextract/text-extraction-service/internal/storage"
)

const Version = "1.0.0"

// multipartSlack covers multipart boundaries and part headers on top of the file itself
const multipartSlack = 1 << 20

var log = logrus.WithField("component", "api")

// Extractor turns document bytes into an extraction result
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) models.ExtractionResult
}

// Handler handles HTTP requests for document text extraction
type Handler struct {
	config    *models.Config
	extractor Extractor
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, extractor Extractor) *Handler {
	return &Handler{
		config:    config,
		extractor: extractor,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Main endpoint
	router.HandleFunc("/api/document/extract-text", h.ExtractText).Methods("POST")
	router.HandleFunc("/api/document/types", h.SupportedTypes).Methods("GET")

	// Extraction history
	router.HandleFunc("/api/extractions", h.ListExtractions).Methods("GET")
	router.HandleFunc("/api/extractions/{id}", h.GetExtraction).Methods("GET")
	router.HandleFunc("/api/extractions/{id}", h.DeleteExtraction).Methods("DELETE")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Memory    MemoryStats   `json:"memory"`
	Engine    string        `json:"engine"`
	Tesseract ServiceStatus `json:"tesseract"`
	Pdftoppm  ServiceStatus `json:"pdftoppm"`
	Database  ServiceStatus `json:"database"`
	Storage   ServiceStatus `json:"storage"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health reports service status. Missing optional backends never make the
// service unhealthy; only a missing local OCR binary for a tesseract engine does.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := checkBinary(h.config.OCR.TesseractCmd, "--version")
	pdftoppmStatus := checkBinary(h.config.PDF.PdftoppmCmd, "-v")

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Engine:    h.config.OCR.Engine,
		Tesseract: tesseractStatus,
		Pdftoppm:  pdftoppmStatus,
		Database:  checkDatabase(),
		Storage:   checkStorage(),
	}

	if h.config.OCR.Engine == "tesseract-cli" && !tesseractStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkBinary runs cmd with a version flag and reports the first output line
func checkBinary(cmd, versionFlag string) ServiceStatus {
	output, err := exec.Command(cmd, versionFlag).CombinedOutput()
	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     fmt.Sprintf("%s not found or not executable", cmd),
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkDatabase verifies PostgreSQL connection
func checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// ExtractText accepts a multipart upload in field "file" and returns its text
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	start := time.Now()
	maxSize := h.config.MaxUploadSize

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, http.StatusBadRequest, fmt.Sprintf("File size exceeds maximum allowed size of %d bytes", maxSize))
			return
		}
		h.sendError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' field)")
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("File size exceeds maximum allowed size of %d bytes", maxSize))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if extract.DetectFormat(contentType) == extract.FormatUnknown {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type. Allowed types: %s",
			strings.Join(models.AllowedContentTypes, ", ")))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	result := h.extractor.Extract(ctx, data, contentType)
	result.ID = h.record(ctx, data, contentType, result, time.Since(start))

	status := http.StatusOK
	if !result.OK() {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}

// record archives the text and saves history when those backends are up.
// Failures are logged and never reach the caller.
func (h *Handler) record(ctx context.Context, data []byte, contentType string, result models.ExtractionResult, elapsed time.Duration) string {
	id := uuid.New()
	logger := log.WithField("id", id.String())

	var textObject string
	if result.OK() && storage.Client != nil {
		object, err := storage.UploadText(ctx, id.String(), result.ExtractedText)
		if err != nil {
			logger.WithError(err).Warn("failed to archive extracted text")
		} else {
			textObject = object
		}
	}

	if db.Pool == nil {
		return id.String()
	}

	sum := sha256.Sum256(data)
	record := &db.Extraction{
		ID:          id,
		ContentType: contentType,
		Status:      string(result.Status),
		Characters:  result.CharactersExtracted,
		PageCount:   len(result.Pages),
		OCRPages:    result.OCRPages(),
		SHA256:      hex.EncodeToString(sum[:]),
		TextObject:  textObject,
		DurationMS:  elapsed.Milliseconds(),
	}
	if !result.OK() {
		record.ErrorKind = string(result.Kind)
		record.Message = result.Message
	}
	if err := db.SaveExtraction(ctx, record); err != nil {
		logger.WithError(err).Warn("failed to save extraction")
	}
	return id.String()
}

// SupportedTypes lists the accepted content types
func (h *Handler) SupportedTypes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"content_types":   models.AllowedContentTypes,
		"max_upload_size": h.config.MaxUploadSize,
	})
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
