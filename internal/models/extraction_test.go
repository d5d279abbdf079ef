package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestSuccessCountsCodePoints(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Invoice #123", 12},
		{"Hello\n\nWorld", 12},
		{"Größe", 5},
		{"日本語", 3},
	}
	for _, tt := range tests {
		r := Success(tt.text, nil)
		if r.CharactersExtracted != tt.want {
			t.Errorf("Success(%q).CharactersExtracted = %d, want %d", tt.text, r.CharactersExtracted, tt.want)
		}
		if !r.OK() {
			t.Errorf("Success(%q) is not OK", tt.text)
		}
	}
}

func TestResultJSONShape(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		data, err := json.Marshal(Success("Invoice #123", nil))
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]interface{}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got["status"] != "success" || got["extracted_text"] != "Invoice #123" || got["characters_extracted"] != float64(12) {
			t.Errorf("unexpected success JSON: %s", data)
		}
		for _, key := range []string{"message", "kind", "pages", "id"} {
			if _, ok := got[key]; ok {
				t.Errorf("success JSON must not contain %q: %s", key, data)
			}
		}
	})

	t.Run("error", func(t *testing.T) {
		data, err := json.Marshal(Failure(KindPDFOpenFailure, "open pdf: malformed"))
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]interface{}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got["status"] != "error" || got["kind"] != "PDFOpenFailure" || got["message"] != "open pdf: malformed" {
			t.Errorf("unexpected error JSON: %s", data)
		}
		for _, key := range []string{"extracted_text", "characters_extracted"} {
			if _, ok := got[key]; ok {
				t.Errorf("error JSON must not contain %q: %s", key, data)
			}
		}
	})

	t.Run("pages hide text", func(t *testing.T) {
		r := Success("a", []PageResult{{Index: 0, Text: "a", Characters: 1}, {Index: 1, UsedOCR: true}})
		r.ID = "abc"
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		var got struct {
			ID    string                   `json:"id"`
			Pages []map[string]interface{} `json:"pages"`
		}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got.ID != "abc" || len(got.Pages) != 2 {
			t.Fatalf("unexpected JSON: %s", data)
		}
		if _, ok := got.Pages[0]["Text"]; ok {
			t.Errorf("page text must not be serialized: %s", data)
		}
		if got.Pages[1]["used_ocr"] != true {
			t.Errorf("used_ocr missing: %s", data)
		}
	})
}

func TestOCRPages(t *testing.T) {
	r := Success("", []PageResult{{UsedOCR: true}, {}, {UsedOCR: true}})
	if got := r.OCRPages(); got != 2 {
		t.Errorf("OCRPages() = %d, want 2", got)
	}
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	tagged := NewError(KindDecodeFailure, base, "decode image")

	if got := KindOf(tagged); got != KindDecodeFailure {
		t.Errorf("KindOf(tagged) = %s", got)
	}
	if got := KindOf(fmt.Errorf("outer: %w", tagged)); got != KindDecodeFailure {
		t.Errorf("KindOf(wrapped) = %s", got)
	}
	if got := KindOf(base); got != KindUnexpected {
		t.Errorf("KindOf(untagged) = %s", got)
	}
	if !errors.Is(tagged, base) {
		t.Error("tagged error must unwrap to its cause")
	}

	fresh := NewError(KindIOFailure, nil, "disk full")
	if fresh.Error() == "" || fresh.Kind != KindIOFailure {
		t.Errorf("unexpected fresh error: %v", fresh)
	}
}
