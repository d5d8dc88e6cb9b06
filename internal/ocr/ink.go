package ocr

import (
	"image"
	"image/color"
)

// InkOptions tunes the dark-pixel heuristics
type InkOptions struct {
	Threshold uint8
	Ratio     float64
}

// DefaultInkOptions returns threshold 160 and ratio 1.15
func DefaultInkOptions() InkOptions {
	return InkOptions{Threshold: 160, Ratio: 1.15}
}

func isInk(c color.Color, threshold uint8) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < threshold
}

// InkDensity counts dark pixels above and below the horizontal midline.
// Rows y < h/2 (relative to the image origin) are the top half.
func InkDensity(img image.Image, threshold uint8) (top, bottom int) {
	b := img.Bounds()
	half := b.Dy() / 2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isInk(img.At(x, y), threshold) {
				continue
			}
			if y-b.Min.Y < half {
				top++
			} else {
				bottom++
			}
		}
	}
	return top, bottom
}

// ResolveDigit corrects a 6/9 confusion by comparing ink above and below the
// midline. A 6 carries its loop low and a 9 carries it high. Any other
// candidate, or an empty crop, is returned unchanged.
func ResolveDigit(crop image.Image, candidate int, opts InkOptions) int {
	if candidate != 6 && candidate != 9 {
		return candidate
	}
	if crop == nil || crop.Bounds().Empty() {
		return candidate
	}

	top, bottom := InkDensity(crop, opts.Threshold)
	if candidate == 9 && float64(bottom) > float64(top)*opts.Ratio {
		return 6
	}
	if candidate == 6 && float64(top) > float64(bottom)*opts.Ratio {
		return 9
	}
	return candidate
}

// FindSeparatorX returns the x offset of the cleanest column in the middle
// 30%-70% of img, where the "/" gap between two numbers sits. It returns w/2
// when the band is empty.
func FindSeparatorX(img image.Image, threshold uint8) int {
	b := img.Bounds()
	w := b.Dx()
	start, end := int(float64(w)*0.30), int(float64(w)*0.70)

	best, bestCount := -1, -1
	for x := start; x < end; x++ {
		count := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if isInk(img.At(b.Min.X+x, y), threshold) {
				count++
			}
		}
		if bestCount < 0 || count < bestCount {
			best, bestCount = x, count
		}
	}
	if best < 0 {
		return w / 2
	}
	return best
}
