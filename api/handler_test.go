package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"

	"github.com/docextract/text-extraction-service/internal/models"
)

type fakeExtractor struct {
	calls  int
	result models.ExtractionResult
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) models.ExtractionResult {
	f.calls++
	return f.result
}

func testConfig() *models.Config {
	cfg := &models.Config{MaxUploadSize: 1024}
	cfg.ApplyDefaults()
	return cfg
}

func uploadRequest(t *testing.T, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="upload"`, field))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/document/extract-text", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestExtractTextSuccess(t *testing.T) {
	ex := &fakeExtractor{result: models.Success("Invoice #123", nil)}
	rec := serve(NewHandler(testConfig(), ex), uploadRequest(t, "file", "application/pdf", []byte("%PDF-1.4")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["status"] != "success" || body["extracted_text"] != "Invoice #123" || body["characters_extracted"] != float64(12) {
		t.Errorf("body = %v", body)
	}
	if _, err := uuid.Parse(fmt.Sprint(body["id"])); err != nil {
		t.Errorf("id = %v, want a UUID", body["id"])
	}
}

func TestExtractTextErrorResult(t *testing.T) {
	ex := &fakeExtractor{result: models.Failure(models.KindPDFOpenFailure, "open pdf: malformed")}
	rec := serve(NewHandler(testConfig(), ex), uploadRequest(t, "file", "application/pdf", []byte("garbage")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "error" || body["kind"] != "PDFOpenFailure" {
		t.Errorf("body = %v", body)
	}
}

func TestExtractTextGate(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"unsupported type", func(t *testing.T) *http.Request {
			return uploadRequest(t, "file", "text/plain", []byte("hello"))
		}},
		{"missing type", func(t *testing.T) *http.Request {
			return uploadRequest(t, "file", "", []byte("hello"))
		}},
		{"too large", func(t *testing.T) *http.Request {
			return uploadRequest(t, "file", "image/png", make([]byte, 2048))
		}},
		{"wrong field", func(t *testing.T) *http.Request {
			return uploadRequest(t, "image", "image/png", []byte("png"))
		}},
		{"not multipart", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/document/extract-text", bytes.NewReader([]byte("{}")))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExtractor{result: models.Success("x", nil)}
			rec := serve(NewHandler(testConfig(), ex), tt.req(t))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if ex.calls != 0 {
				t.Error("rejected upload reached the extractor")
			}
			if decode(t, rec)["error"] == nil {
				t.Error("missing error message")
			}
		})
	}
}

func TestExtractTextAcceptsJPGAlias(t *testing.T) {
	ex := &fakeExtractor{result: models.Success("ok", nil)}
	rec := serve(NewHandler(testConfig(), ex), uploadRequest(t, "file", "image/jpg", []byte("jpeg")))
	if rec.Code != http.StatusOK || ex.calls != 1 {
		t.Fatalf("status = %d, calls = %d", rec.Code, ex.calls)
	}
}

func TestSupportedTypes(t *testing.T) {
	rec := serve(NewHandler(testConfig(), &fakeExtractor{}), httptest.NewRequest(http.MethodGet, "/api/document/types", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	types, _ := decode(t, rec)["content_types"].([]interface{})
	if len(types) != len(models.AllowedContentTypes) {
		t.Errorf("content_types = %v", types)
	}
}

func TestHealth(t *testing.T) {
	rec := serve(NewHandler(testConfig(), &fakeExtractor{}), httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "healthy" || body["version"] != Version {
		t.Errorf("body = %v", body)
	}
	db, _ := body["database"].(map[string]interface{})
	if db["available"] != false {
		t.Errorf("database = %v, want unavailable", db)
	}
}

func TestHealthDegradedWithoutTesseractBinary(t *testing.T) {
	cfg := testConfig()
	cfg.OCR.Engine = "tesseract-cli"
	cfg.OCR.TesseractCmd = "/nonexistent/tesseract"

	rec := serve(NewHandler(cfg, &fakeExtractor{}), httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if decode(t, rec)["status"] != "degraded" {
		t.Error("expected degraded status")
	}
}

func TestExtractionsWithoutDatabase(t *testing.T) {
	h := NewHandler(testConfig(), &fakeExtractor{})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/extractions", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/extractions/" + uuid.NewString(), http.StatusServiceUnavailable},
		{http.MethodGet, "/api/extractions/not-a-uuid", http.StatusBadRequest},
		{http.MethodDelete, "/api/extractions/" + uuid.NewString(), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		rec := serve(h, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, defaultListLimit},
		{"?page=3&limit=10", 3, 10},
		{"?page=0&limit=1000", 1, defaultListLimit},
		{"?page=x&limit=y", 1, defaultListLimit},
	}
	for _, tt := range tests {
		page, limit := pagination(httptest.NewRequest(http.MethodGet, "/api/extractions"+tt.query, nil))
		if page != tt.page || limit != tt.limit {
			t.Errorf("pagination(%q) = %d, %d; want %d, %d", tt.query, page, limit, tt.page, tt.limit)
		}
	}
}
