package models

import (
	"encoding/json"
	"unicode/utf8"
)

// Status of an extraction
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Supported content types
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJPEG = "image/jpeg"
	ContentTypeJPG  = "image/jpg" // alias accepted for JPEG
	ContentTypePNG  = "image/png"
)

// AllowedContentTypes lists the declared types accepted at the upload gate
var AllowedContentTypes = []string{ContentTypePDF, ContentTypeJPEG, ContentTypeJPG, ContentTypePNG}

// PageResult is the per-page outcome of PDF processing
type PageResult struct {
	Index   int    `json:"index"`
	Text    string `json:"-"`
	UsedOCR bool   `json:"used_ocr"`
	// Characters is the code point count of Text
	Characters int `json:"characters"`
}

// ExtractionResult is the uniform output of the extraction engine
type ExtractionResult struct {
	Status              Status
	ExtractedText       string
	CharactersExtracted int

	// Error details (Status == StatusError)
	Message string
	Kind    ErrorKind

	// Pages is only set for PDF input
	Pages []PageResult

	// ID is assigned by the HTTP layer when the extraction is recorded
	ID string
}

// Success builds a success result for text
func Success(text string, pages []PageResult) ExtractionResult {
	return ExtractionResult{
		Status:              StatusSuccess,
		ExtractedText:       text,
		CharactersExtracted: utf8.RuneCountInString(text),
		Pages:               pages,
	}
}

// Failure builds an error result
func Failure(kind ErrorKind, message string) ExtractionResult {
	return ExtractionResult{
		Status:  StatusError,
		Kind:    kind,
		Message: message,
	}
}

// OK reports whether the extraction succeeded
func (r ExtractionResult) OK() bool {
	return r.Status == StatusSuccess
}

// OCRPages counts pages that needed the OCR fallback
func (r ExtractionResult) OCRPages() int {
	n := 0
	for _, p := range r.Pages {
		if p.UsedOCR {
			n++
		}
	}
	return n
}

type successJSON struct {
	ID                  string       `json:"id,omitempty"`
	Status              Status       `json:"status"`
	ExtractedText       string       `json:"extracted_text"`
	CharactersExtracted int          `json:"characters_extracted"`
	Pages               []PageResult `json:"pages,omitempty"`
}

type errorJSON struct {
	ID      string    `json:"id,omitempty"`
	Status  Status    `json:"status"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

// MarshalJSON emits only the keys that belong to the result's status.
func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	if r.Status == StatusSuccess {
		return json.Marshal(successJSON{
			ID:                  r.ID,
			Status:              r.Status,
			ExtractedText:       r.ExtractedText,
			CharactersExtracted: r.CharactersExtracted,
			Pages:               r.Pages,
		})
	}
	return json.Marshal(errorJSON{
		ID:      r.ID,
		Status:  StatusError,
		Message: r.Message,
		Kind:    r.Kind,
	})
}
