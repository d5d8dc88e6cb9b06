// Package ocr turns region crops into numeric pairs: raster preprocessing,
// text recognition, pair parsing and the 6/9 ink heuristic.
package ocr

import (
	"fmt"
	"image"

	imaging "github.com/disintegration/imaging"
	draw "golang.org/x/image/draw"
)

// Upscale filters
const (
	FilterLanczos    = "lanczos"
	FilterCatmullRom = "catmullrom"
)

// PreprocessOptions holds the raster enhancement knobs
type PreprocessOptions struct {
	Scale     int
	Contrast  float64
	Sharpness float64
	Invert    bool
	Filter    string
}

// DefaultPreprocessOptions returns the tuning used for small status counters
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Scale:     10,
		Contrast:  1.6,
		Sharpness: 1.2,
		Filter:    FilterLanczos,
	}
}

// Validate checks the options for values Preprocess cannot honor
func (o PreprocessOptions) Validate() error {
	if o.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", o.Scale)
	}
	if o.Contrast <= 0 || o.Sharpness <= 0 {
		return fmt.Errorf("contrast and sharpness must be positive")
	}
	switch o.Filter {
	case "", FilterLanczos, FilterCatmullRom:
		return nil
	default:
		return fmt.Errorf("unknown filter %q", o.Filter)
	}
}

// Preprocess converts img to grayscale, upscales it by an integer factor and
// applies contrast, sharpness and optional inversion, in that order. The
// output is never binarized. An empty input gives an empty output.
func Preprocess(img image.Image, opts PreprocessOptions) *image.NRGBA {
	if img == nil || img.Bounds().Empty() {
		return &image.NRGBA{}
	}

	out := imaging.Grayscale(img)

	if opts.Scale > 1 {
		w := out.Bounds().Dx() * opts.Scale
		h := out.Bounds().Dy() * opts.Scale
		out = upscale(out, w, h, opts.Filter)
	}

	if opts.Contrast != 1 {
		out = imaging.AdjustContrast(out, (opts.Contrast-1)*100)
	}

	switch {
	case opts.Sharpness > 1:
		out = imaging.Sharpen(out, opts.Sharpness-1)
	case opts.Sharpness < 1:
		out = imaging.Blur(out, 1-opts.Sharpness)
	}

	if opts.Invert {
		out = imaging.Invert(out)
	}
	return out
}

func upscale(img *image.NRGBA, w, h int, filter string) *image.NRGBA {
	if filter == FilterCatmullRom {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		return dst
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
