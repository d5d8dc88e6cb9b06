// Package clipboard copies probe results to the system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	imaging "github.com/disintegration/imaging"
)

// ErrUnavailable is returned when the clipboard cannot be initialized
var ErrUnavailable = errors.New("clipboard unavailable")

// Format represents clipboard data format
type Format int

const (
	// FmtText is the text format
	FmtText Format = iota
	// FmtImage is the PNG image format
	FmtImage
)

// CopyText places text on the clipboard
func CopyText(text string) error {
	if err := Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	Write(FmtText, []byte(text))
	return nil
}

// CopyImage places img on the clipboard as PNG
func CopyImage(img image.Image) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	if err := Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	Write(FmtImage, data)
	return nil
}

// EncodePNG encodes img the way the clipboard expects image data
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode clipboard image: %w", err)
	}
	return buf.Bytes(), nil
}
