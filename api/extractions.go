package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/docextract/text-extraction-service/internal/db"
	"github.com/docextract/text-extraction-service/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// extractionView is an extraction record plus a download link for its text
type extractionView struct {
	db.Extraction
	TextURL string `json:"text_url,omitempty"`
}

// ListExtractions - GET /api/extractions?limit=N&page=P
func (h *Handler) ListExtractions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	page, limit := pagination(r)
	offset := (page - 1) * limit

	records, total, err := db.ListExtractions(r.Context(), limit, offset)
	if err != nil {
		log.WithError(err).Error("failed to list extractions")
		h.sendError(w, http.StatusInternalServerError, "failed to list extractions")
		return
	}
	if records == nil {
		records = []db.Extraction{}
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"extractions": records,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// GetExtraction - GET /api/extractions/{id}
func (h *Handler) GetExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid extraction id")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	record, err := db.GetExtraction(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		h.sendError(w, http.StatusNotFound, "extraction not found")
		return
	}
	if err != nil {
		log.WithError(err).WithField("id", id.String()).Error("failed to get extraction")
		h.sendError(w, http.StatusInternalServerError, "failed to get extraction")
		return
	}

	view := extractionView{Extraction: *record}
	if record.TextObject != "" && storage.Client != nil {
		if url, err := storage.GetPresignedURL(r.Context(), record.TextObject); err == nil {
			view.TextURL = url
		} else {
			log.WithError(err).WithField("id", id.String()).Warn("failed to presign text object")
		}
	}

	json.NewEncoder(w).Encode(view)
}

// DeleteExtraction - DELETE /api/extractions/{id}
func (h *Handler) DeleteExtraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid extraction id")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	record, err := db.GetExtraction(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		h.sendError(w, http.StatusNotFound, "extraction not found")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get extraction")
		return
	}

	// Archived text is removed best-effort
	if record.TextObject != "" && storage.Client != nil {
		if err := storage.DeleteObject(r.Context(), record.TextObject); err != nil {
			log.WithError(err).WithField("id", id.String()).Warn("failed to delete text object")
		}
	}

	if err := db.DeleteExtraction(r.Context(), id); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete extraction")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "extraction deleted",
	})
}

// pagination reads page and limit query parameters
func pagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultListLimit
	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= maxListLimit {
			limit = val
		}
	}
	return page, limit
}
