package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/docextract/text-extraction-service/internal/models"
)

func bitmap(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestAdapterTrimsEngineOutput(t *testing.T) {
	var got []byte
	engine := EngineFunc(func(_ context.Context, data []byte) (string, error) {
		got = data
		return "  \n Invoice #123 \n\f", nil
	})

	text, err := NewAdapter(engine).Recognize(context.Background(), bitmap(8, 4))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "Invoice #123" {
		t.Errorf("text = %q", text)
	}

	img, err := png.Decode(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("engine did not receive a PNG: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("engine received %v image", img.Bounds().Size())
	}
}

func TestAdapterBlankImageYieldsEmptyText(t *testing.T) {
	engine := EngineFunc(func(context.Context, []byte) (string, error) { return "\n", nil })
	text, err := NewAdapter(engine).Recognize(context.Background(), bitmap(4, 4))
	if err != nil || text != "" {
		t.Errorf("Recognize = %q, %v; want empty text and no error", text, err)
	}
}

func TestAdapterMapsFailures(t *testing.T) {
	tests := map[string]Engine{
		"error": EngineFunc(func(context.Context, []byte) (string, error) {
			return "", errors.New("tesseract: missing language data")
		}),
		"panic": EngineFunc(func(context.Context, []byte) (string, error) {
			panic("segfault in native code")
		}),
	}
	for name, engine := range tests {
		t.Run(name, func(t *testing.T) {
			text, err := NewAdapter(engine).Recognize(context.Background(), bitmap(4, 4))
			if err == nil {
				t.Fatal("expected error")
			}
			if text != "" {
				t.Errorf("text = %q, want empty", text)
			}
			if kind := models.KindOf(err); kind != models.KindOCRFailure {
				t.Errorf("kind = %s, want OCRFailure", kind)
			}
		})
	}
}

func TestExtractTextPropagatesDecodeFailure(t *testing.T) {
	called := false
	engine := EngineFunc(func(context.Context, []byte) (string, error) {
		called = true
		return "", nil
	})
	_, err := ExtractText(context.Background(), NewPreprocessor(0, 0), NewAdapter(engine), []byte("nope"))
	if models.KindOf(err) != models.KindDecodeFailure {
		t.Errorf("err = %v, want DecodeFailure", err)
	}
	if called {
		t.Error("engine must not run when decoding fails")
	}
}

func TestCLIEngineArgs(t *testing.T) {
	tests := []struct {
		name   string
		engine *CLIEngine
		want   []string
	}{
		{"defaults", NewCLIEngine("", "", "", 0), []string{"stdin", "stdout", "-l", "eng"}},
		{"tessdata", NewCLIEngine("tesseract", "deu", "/usr/share/tessdata", 0),
			[]string{"stdin", "stdout", "-l", "deu", "--tessdata-dir", "/usr/share/tessdata"}},
		{"psm", NewCLIEngine("tesseract", "eng+fra", "", 6),
			[]string{"stdin", "stdout", "-l", "eng+fra", "--psm", "6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.engine.args()
			if len(got) != len(tt.want) {
				t.Fatalf("args = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("args = %v, want %v", got, tt.want)
				}
			}
		})
	}
	if NewCLIEngine("", "", "", 0).cmd != "tesseract" {
		t.Error("default command should be tesseract")
	}
}

func TestCLIEngineMissingBinary(t *testing.T) {
	engine := NewCLIEngine("/nonexistent/tesseract", "eng", "", 0)
	_, err := NewAdapter(engine).Recognize(context.Background(), bitmap(4, 4))
	if models.KindOf(err) != models.KindOCRFailure {
		t.Errorf("err = %v, want OCRFailure", err)
	}
}
