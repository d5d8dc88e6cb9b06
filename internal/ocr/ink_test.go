package ocr

import (
	"image"
	"image/color"
	"testing"

	imaging "github.com/disintegration/imaging"
	assert "github.com/stretchr/testify/assert"
)

// createInkImage returns a white w x h image with rows [y0,y1) painted black
func createInkImage(w, h, y0, y1 int) *image.NRGBA {
	img := imaging.New(w, h, color.White)
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestResolveDigit(t *testing.T) {
	opts := DefaultInkOptions()
	topHeavy := createInkImage(10, 10, 0, 4)    // 40 top, 0 bottom
	bottomHeavy := createInkImage(10, 10, 6, 10) // 0 top, 40 bottom
	balanced := createInkImage(10, 10, 3, 7)     // 20 top, 20 bottom

	tests := []struct {
		name      string
		img       image.Image
		candidate int
		want      int
	}{
		{name: "Bottom heavy 9 becomes 6", img: bottomHeavy, candidate: 9, want: 6},
		{name: "Top heavy 6 becomes 9", img: topHeavy, candidate: 6, want: 9},
		{name: "Top heavy 9 stays", img: topHeavy, candidate: 9, want: 9},
		{name: "Bottom heavy 6 stays", img: bottomHeavy, candidate: 6, want: 6},
		{name: "Balanced 9 stays", img: balanced, candidate: 9, want: 9},
		{name: "Balanced 6 stays", img: balanced, candidate: 6, want: 6},
		{name: "Other digit untouched", img: bottomHeavy, candidate: 8, want: 8},
		{name: "Empty crop", img: &image.NRGBA{}, candidate: 9, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDigit(tt.img, tt.candidate, opts))
		})
	}
}

func TestResolveDigit_RatioIsStrict(t *testing.T) {
	opts := DefaultInkOptions()
	// 20 top vs 23 bottom: 23 > 20*1.15 is false
	img := createInkImage(10, 10, 3, 5)
	for x := 0; x < 10; x++ {
		img.Set(x, 5, color.Black)
		img.Set(x, 6, color.Black)
	}
	for x := 0; x < 3; x++ {
		img.Set(x, 7, color.Black)
	}
	top, bottom := InkDensity(img, opts.Threshold)
	assert.Equal(t, 20, top)
	assert.Equal(t, 23, bottom)
	assert.Equal(t, 9, ResolveDigit(img, 9, opts))
}

func TestInkDensity_OffsetBounds(t *testing.T) {
	img := createInkImage(4, 4, 0, 2).SubImage(image.Rect(0, 1, 4, 4))
	top, bottom := InkDensity(img, 160)
	assert.Equal(t, 4, top)
	assert.Equal(t, 0, bottom)
}

func TestFindSeparatorX(t *testing.T) {
	img := createInkImage(20, 10, 0, 10)
	// clean column inside the middle band
	for y := 0; y < 10; y++ {
		img.Set(11, y, color.White)
	}
	assert.Equal(t, 11, FindSeparatorX(img, 160))

	// clean column outside the band is ignored
	img = createInkImage(20, 10, 0, 10)
	for y := 0; y < 10; y++ {
		img.Set(2, y, color.White)
	}
	assert.Equal(t, 6, FindSeparatorX(img, 160))

	assert.Equal(t, 0, FindSeparatorX(imaging.New(1, 1, color.White), 160))
}
