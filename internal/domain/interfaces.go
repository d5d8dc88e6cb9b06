package domain

import (
	"context"
	"image"
)

// ScreenGrabber returns a raster of the whole screen
type ScreenGrabber interface {
	CaptureFullScreen(ctx context.Context, allDisplays bool) (image.Image, error)
}

// RegionReader captures, recognizes and parses one region
type RegionReader interface {
	Read(ctx context.Context, region Region) Reading
}

// StopChecker is the read side of the process-wide stop signal
type StopChecker interface {
	Stopped() bool
	Done() <-chan struct{}
}
