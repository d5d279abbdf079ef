package pdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// Rasterizer renders one page of the PDF at path to encoded image bytes.
// index is zero-based.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, path string, index int) ([]byte, error)
}

// PopplerRasterizer renders pages with pdftoppm.
// Renders are written next to the staged PDF, inside the call's workspace.
type PopplerRasterizer struct {
	cmd string
	dpi int
}

// NewPopplerRasterizer creates a rasterizer running cmd at dpi
func NewPopplerRasterizer(cmd string, dpi int) *PopplerRasterizer {
	if cmd == "" {
		cmd = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &PopplerRasterizer{cmd: cmd, dpi: dpi}
}

func (r *PopplerRasterizer) Name() string { return "pdftoppm" }

// Available reports whether the pdftoppm binary can be found
func (r *PopplerRasterizer) Available() bool {
	_, err := exec.LookPath(r.cmd)
	return err == nil
}

func (r *PopplerRasterizer) Rasterize(ctx context.Context, path string, index int) ([]byte, error) {
	pageNr := strconv.Itoa(index + 1)
	outPrefix := filepath.Join(filepath.Dir(path), "page-"+pageNr)

	cmd := exec.CommandContext(ctx, r.cmd,
		"-f", pageNr,
		"-l", pageNr,
		"-r", strconv.Itoa(r.dpi),
		"-png",
		"-singlefile",
		path,
		outPrefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "pdftoppm page %s: %s", pageNr, strings.TrimSpace(stderr.String()))
	}

	pngPath := outPrefix + ".png"
	defer os.Remove(pngPath)
	data, err := os.ReadFile(pngPath)
	if err != nil {
		return nil, eris.Wrap(err, "read page render")
	}
	return data, nil
}

// EmbeddedImageRasterizer returns the largest image drawn on the page.
// Scanned PDFs usually carry each page as a single full-page image, so this
// works without any external renderer. Vector-only pages yield an error.
type EmbeddedImageRasterizer struct{}

func (EmbeddedImageRasterizer) Name() string { return "embedded" }

func (EmbeddedImageRasterizer) Rasterize(ctx context.Context, path string, index int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open pdf")
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, eris.Wrap(err, "pdfcpu read")
	}

	images, err := pdfcpu.ExtractPageImages(pctx, index+1, false)
	if err != nil {
		return nil, eris.Wrapf(err, "extract images of page %d", index+1)
	}

	var best *model.Image
	for objNr := range images {
		img := images[objNr]
		if img.FileType == "" || img.Reader == nil {
			continue
		}
		if best == nil || img.Width*img.Height > best.Width*best.Height {
			best = &img
		}
	}
	if best == nil {
		return nil, eris.Errorf("page %d has no extractable image", index+1)
	}

	data, err := io.ReadAll(best)
	if err != nil {
		return nil, eris.Wrap(err, "read embedded image")
	}
	return data, nil
}

// ChainRasterizer tries each rasterizer in order until one succeeds
type ChainRasterizer []Rasterizer

func (c ChainRasterizer) Name() string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name()
	}
	return strings.Join(names, "+")
}

func (c ChainRasterizer) Rasterize(ctx context.Context, path string, index int) ([]byte, error) {
	var errs []error
	for _, r := range c {
		data, err := r.Rasterize(ctx, path, index)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, eris.Wrap(err, r.Name()))
	}
	if len(errs) == 0 {
		return nil, eris.New("no rasterizer configured")
	}
	return nil, errors.Join(errs...)
}

// NewRasterizer builds the rasterizer named by kind: "pdftoppm", "embedded" or "auto".
// auto prefers pdftoppm when it is installed and falls back to embedded images.
func NewRasterizer(kind, pdftoppmCmd string, dpi int) (Rasterizer, error) {
	poppler := NewPopplerRasterizer(pdftoppmCmd, dpi)
	switch kind {
	case "pdftoppm":
		return poppler, nil
	case "embedded":
		return EmbeddedImageRasterizer{}, nil
	case "auto", "":
		if poppler.Available() {
			return ChainRasterizer{poppler, EmbeddedImageRasterizer{}}, nil
		}
		log.Warn("pdftoppm not found, scanned pages will use embedded images only")
		return EmbeddedImageRasterizer{}, nil
	default:
		return nil, eris.Errorf("unsupported rasterizer: %s", kind)
	}
}
