package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/docextract/text-extraction-service/internal/models"
)

// closeKernel is the side of the square structuring element used to despeckle.
// Dark features thinner than the kernel are removed: specks and 1px hairlines
// alike, while strokes 2px or wider survive. 3 starts eating text at 300 DPI.
const closeKernel = 2

// Preprocessor turns encoded scans into binary bitmaps for OCR
type Preprocessor struct {
	maxDimension int
	maxPixels    int
}

// NewPreprocessor creates a new image preprocessor.
// Images whose longest side exceeds maxDimension are scaled down first; 0 disables scaling.
// Images with more than maxPixels pixels are refused before decoding; 0 uses models.DefaultMaxPixels.
func NewPreprocessor(maxDimension, maxPixels int) *Preprocessor {
	if maxPixels <= 0 {
		maxPixels = models.DefaultMaxPixels
	}
	return &Preprocessor{
		maxDimension: maxDimension,
		maxPixels:    maxPixels,
	}
}

// Preprocess decodes imageData and returns a bitmap whose pixels are all 0 or 255.
// Pipeline: size check -> decode -> flatten alpha to luma -> downscale -> Otsu threshold -> close.
func (p *Preprocessor) Preprocess(imageData []byte) (*image.Gray, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, models.NewError(models.KindDecodeFailure, err, "decode image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, models.NewError(models.KindDecodeFailure, nil, "decode image: empty "+format+" image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return nil, models.NewError(models.KindDecodeFailure, nil,
			fmt.Sprintf("decode image: %dx%d %s image exceeds %d pixels", cfg.Width, cfg.Height, format, p.maxPixels))
	}

	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, models.NewError(models.KindDecodeFailure, err, "decode image")
	}
	if src.Bounds().Empty() {
		return nil, models.NewError(models.KindDecodeFailure, nil, "decode image: empty "+format+" image")
	}

	gray := p.toGray(src)
	threshold := otsuThreshold(gray)
	binarize(gray, threshold)
	out := erode(dilate(gray, closeKernel), closeKernel)

	log.WithField("format", format).
		WithField("size", out.Bounds().Size()).
		WithField("threshold", threshold).
		Debug("image preprocessed")
	return out, nil
}

// toGray flattens src onto white straight into luma, then scales it if needed.
// Only single-channel buffers are allocated.
func (p *Preprocessor) toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if g, ok := src.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(gray.Pix[y*gray.Stride:(y+1)*gray.Stride], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	} else {
		for y := 0; y < b.Dy(); y++ {
			row := gray.Pix[y*gray.Stride:]
			for x := 0; x < b.Dx(); x++ {
				r, g, bl, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				// alpha-premultiplied: over white adds the uncovered share
				under := 0xffff - a
				r, g, bl = r+under, g+under, bl+under
				// same weights as color.GrayModel
				row[x] = uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 24)
			}
		}
	}

	w, h, ok := fitWithin(b.Dx(), b.Dy(), p.maxDimension)
	if !ok {
		return gray
	}
	scaled := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), xdraw.Src, nil)
	return scaled
}

// fitWithin returns the size of a w x h image shrunk so its longest side is max.
// ok is false when no scaling is needed.
func fitWithin(w, h, max int) (int, int, bool) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h, false
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh, true
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max, true
}

// otsuThreshold picks the intensity that maximizes between-class variance,
// which is the same split that minimizes the summed intra-class variance.
// Pixels strictly above the returned value belong to the bright class.
func otsuThreshold(img *image.Gray) uint8 {
	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}
	total := len(img.Pix)
	if total == 0 {
		return 127
	}

	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i * n)
	}

	var (
		sumBg    float64
		weightBg int
		best     float64 = -1
		bestT    int
	)
	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t * hist[t])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)
		diff := meanBg - meanFg
		between := float64(weightBg) * float64(weightFg) * diff * diff
		if between > best {
			best = between
			bestT = t
		}
	}
	return uint8(bestT)
}

// binarize maps pixels above t to white and everything else to black, in place.
func binarize(img *image.Gray, t uint8) {
	for i, v := range img.Pix {
		if v > t {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
}

// dilate grows white regions: each pixel takes the max over the k x k
// window extending up and to the left of it.
func dilate(img *image.Gray, k int) *image.Gray {
	return morph(img, k, -1, func(a, b uint8) bool { return b > a })
}

// erode shrinks white regions using the reflected window, so that
// erode(dilate(img)) is a proper closing.
func erode(img *image.Gray, k int) *image.Gray {
	return morph(img, k, 1, func(a, b uint8) bool { return b < a })
}

func morph(img *image.Gray, k, dir int, better func(cur, cand uint8) bool) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := img.Pix[y*img.Stride+x]
			for dy := 0; dy < k; dy++ {
				yy := y + dir*dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := 0; dx < k; dx++ {
					xx := x + dir*dx
					if xx < 0 || xx >= w {
						continue
					}
					if c := img.Pix[yy*img.Stride+xx]; better(v, c) {
						v = c
					}
				}
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}
