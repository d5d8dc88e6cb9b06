package display

import (
	"context"
	"image"
)

// Controller abstracts display server-specific operations (X11, native RobotGo, replay)
type Controller interface {
	// CaptureFullScreen grabs every display when allDisplays is set and the
	// backend supports it, falling back to the primary display otherwise
	CaptureFullScreen(ctx context.Context, allDisplays bool) (image.Image, error)

	InputController

	// Lifecycle
	Close() error
}

// InputController executes primitive pointer operations in logical points
type InputController interface {
	MoveMouse(ctx context.Context, x, y int) error
	ClickMouse(ctx context.Context, button MouseButton, clicks int) error
	PressMouse(ctx context.Context, button MouseButton) error
	ReleaseMouse(ctx context.Context, button MouseButton) error
}

// MouseButton represents a mouse button
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
)

// String returns the string representation of a mouse button
func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "left"
	case MouseButtonMiddle:
		return "middle"
	case MouseButtonRight:
		return "right"
	default:
		return "unknown"
	}
}

// X11Code returns the core protocol button number
func (b MouseButton) X11Code() byte {
	switch b {
	case MouseButtonMiddle:
		return 2
	case MouseButtonRight:
		return 3
	default:
		return 1
	}
}

// Provider creates Controller instances for a specific display server
type Provider interface {
	// GetController creates a new Controller for the specified display
	GetController(display string) (Controller, error)

	// GetDisplayInfo returns information about the display server
	GetDisplayInfo() DisplayInfo

	// IsAvailable returns true if this display server is available on the current system
	IsAvailable() bool
}

// DisplayInfo contains metadata about a display server
type DisplayInfo struct {
	Name                 string // "x11", "native", "replay"
	Priority             int
	SupportsMultiDisplay bool
	SupportsKeyListener  bool
}
