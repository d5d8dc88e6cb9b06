// Package capture crops named regions out of full-screen grabs and keeps
// optional debug dumps of what was seen.
package capture

import (
	"context"
	"fmt"
	"image"

	imaging "github.com/disintegration/imaging"
	zap "go.uber.org/zap"

	domain "github.com/berth-automation/berth/internal/domain"
	logger "github.com/berth-automation/berth/internal/logger"
)

// Capturer grabs the screen and crops regions from it
type Capturer struct {
	grabber     domain.ScreenGrabber
	allDisplays bool
	dumper      *Dumper
}

// NewCapturer creates a capturer over the given grabber
func NewCapturer(grabber domain.ScreenGrabber, allDisplays bool) *Capturer {
	return &Capturer{grabber: grabber, allDisplays: allDisplays}
}

// WithDumper makes Capture dump every full-screen grab. A nil dumper
// disables dumps.
func (c *Capturer) WithDumper(d *Dumper) *Capturer {
	c.dumper = d
	return c
}

// Grab returns a fresh full-screen image
func (c *Capturer) Grab(ctx context.Context) (image.Image, error) {
	img, err := c.grabber.CaptureFullScreen(ctx, c.allDisplays)
	if err != nil {
		return nil, fmt.Errorf("screen grab failed: %w", err)
	}
	return img, nil
}

// Capture grabs the screen and returns the region's pixels
func (c *Capturer) Capture(ctx context.Context, region domain.Region) (image.Image, error) {
	full, err := c.Grab(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.dumper.Dump(StageFull, region.Name, full); err != nil {
		logger.FromContext(ctx).Warn("Failed to dump image", zap.String("stage", StageFull), zap.Error(err))
	}
	return Crop(full, region), nil
}

// Crop cuts region out of a full-screen image. Parts of the region outside the
// image are dropped; a region with no overlap yields an empty image.
func Crop(full image.Image, region domain.Region) image.Image {
	rect := region.PixelRect().Add(full.Bounds().Min)
	return imaging.Crop(full, rect)
}

// IsEmpty reports whether img has no pixels
func IsEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}
