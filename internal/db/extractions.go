package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS extractions (
	id           uuid PRIMARY KEY,
	content_type text        NOT NULL,
	status       text        NOT NULL,
	error_kind   text,
	message      text,
	characters   integer     NOT NULL DEFAULT 0,
	page_count   integer     NOT NULL DEFAULT 0,
	ocr_pages    integer     NOT NULL DEFAULT 0,
	sha256       text        NOT NULL,
	text_object  text,
	duration_ms  bigint      NOT NULL DEFAULT 0,
	created_at   timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS extractions_created_at_idx ON extractions (created_at DESC);
`

// Extraction is one row of extraction history. Document bytes are never stored.
type Extraction struct {
	ID          uuid.UUID `json:"id"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	Message     string    `json:"message,omitempty"`
	Characters  int       `json:"characters"`
	PageCount   int       `json:"page_count"`
	OCRPages    int       `json:"ocr_pages"`
	SHA256      string    `json:"sha256"`
	TextObject  string    `json:"text_object,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// EnsureSchema creates the extractions table if needed
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveExtraction inserts e, filling CreatedAt
func SaveExtraction(ctx context.Context, e *Extraction) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	query := `
		INSERT INTO extractions (
			id, content_type, status, error_kind, message, characters,
			page_count, ocr_pages, sha256, text_object, duration_ms
		) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), $11)
		RETURNING created_at
	`
	return Pool.QueryRow(ctx, query,
		e.ID, e.ContentType, e.Status, e.ErrorKind, e.Message, e.Characters,
		e.PageCount, e.OCRPages, e.SHA256, e.TextObject, e.DurationMS,
	).Scan(&e.CreatedAt)
}

const selectColumns = `
	id, content_type, status, COALESCE(error_kind, ''), COALESCE(message, ''),
	characters, page_count, ocr_pages, sha256, COALESCE(text_object, ''),
	duration_ms, created_at
`

// ListExtractions returns a page of the most recent extractions and the total count
func ListExtractions(ctx context.Context, limit, offset int) ([]Extraction, int, error) {
	if Pool == nil {
		return nil, 0, ErrNoDatabase
	}

	var total int
	if err := Pool.QueryRow(ctx, `SELECT COUNT(*) FROM extractions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := Pool.Query(ctx,
		`SELECT `+selectColumns+` FROM extractions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// GetExtraction retrieves a single extraction by ID
func GetExtraction(ctx context.Context, id uuid.UUID) (*Extraction, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}
	row := Pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM extractions WHERE id = $1`, id)
	return scanExtraction(row)
}

func scanExtraction(row pgx.Row) (*Extraction, error) {
	var e Extraction
	err := row.Scan(
		&e.ID, &e.ContentType, &e.Status, &e.ErrorKind, &e.Message,
		&e.Characters, &e.PageCount, &e.OCRPages, &e.SHA256, &e.TextObject,
		&e.DurationMS, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteExtraction removes an extraction record
func DeleteExtraction(ctx context.Context, id uuid.UUID) error {
	if Pool == nil {
		return ErrNoDatabase
	}
	tag, err := Pool.Exec(ctx, `DELETE FROM extractions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
