// Package native drives the local desktop through RobotGo, with multi-monitor
// capture via kbinani/screenshot.
package native

import (
	"context"
	"fmt"
	"image"
	"time"

	robotgo "github.com/go-vgo/robotgo"
	screenshot "github.com/kbinani/screenshot"

	display "github.com/berth-automation/berth/internal/display"
	logger "github.com/berth-automation/berth/internal/logger"
)

// Controller implements display.Controller with RobotGo
type Controller struct{}

var _ display.Controller = (*Controller)(nil)

// CaptureFullScreen captures the union of all active displays when requested,
// and the primary display otherwise or when the union capture fails
func (c *Controller) CaptureFullScreen(ctx context.Context, allDisplays bool) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if allDisplays {
		img, err := captureAllDisplays()
		if err == nil {
			return img, nil
		}
		logger.Warn("All-display capture failed, falling back to primary display", "error", err)
	}

	bitmap := robotgo.CaptureScreen()
	if bitmap == nil {
		return nil, fmt.Errorf("failed to capture screen")
	}
	defer robotgo.FreeBitmap(bitmap)

	img := robotgo.ToImage(bitmap)
	if img == nil {
		return nil, fmt.Errorf("failed to convert bitmap to image")
	}
	return img, nil
}

// VirtualBounds returns the union of all active display bounds
func VirtualBounds() image.Rectangle {
	var union image.Rectangle
	for i := 0; i < screenshot.NumActiveDisplays(); i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union
}

func captureAllDisplays() (image.Image, error) {
	bounds := VirtualBounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("no active displays")
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %v: %w", bounds, err)
	}
	return img, nil
}

func robotButton(b display.MouseButton) string {
	if b == display.MouseButtonMiddle {
		return "center"
	}
	return b.String()
}

// MoveMouse moves the cursor to the specified coordinates
func (c *Controller) MoveMouse(ctx context.Context, x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// ClickMouse clicks the specified mouse button at the current position
func (c *Controller) ClickMouse(ctx context.Context, button display.MouseButton, clicks int) error {
	if clicks < 1 {
		return fmt.Errorf("invalid click count: %d", clicks)
	}
	for i := range clicks {
		if i > 0 {
			time.Sleep(100 * time.Millisecond)
		}
		robotgo.Click(robotButton(button), false)
	}
	return nil
}

// PressMouse presses and holds the specified mouse button
func (c *Controller) PressMouse(ctx context.Context, button display.MouseButton) error {
	if err := robotgo.Toggle(robotButton(button)); err != nil {
		return fmt.Errorf("failed to press %s button: %w", button, err)
	}
	return nil
}

// ReleaseMouse releases the specified mouse button
func (c *Controller) ReleaseMouse(ctx context.Context, button display.MouseButton) error {
	if err := robotgo.Toggle(robotButton(button), "up"); err != nil {
		return fmt.Errorf("failed to release %s button: %w", button, err)
	}
	return nil
}

// Close is a no-op; RobotGo holds no per-controller resources
func (c *Controller) Close() error {
	return nil
}

// Provider implements the display.Provider interface for RobotGo
type Provider struct{}

var _ display.Provider = (*Provider)(nil)

// NewProvider creates a new native provider
func NewProvider() *Provider {
	return &Provider{}
}

// GetController returns a RobotGo controller; the display name is ignored
func (p *Provider) GetController(string) (display.Controller, error) {
	return &Controller{}, nil
}

// GetDisplayInfo returns information about the native backend
func (p *Provider) GetDisplayInfo() display.DisplayInfo {
	return display.DisplayInfo{
		Name:                 "native",
		Priority:             10,
		SupportsMultiDisplay: true,
	}
}

// IsAvailable reports whether any display is attached
func (p *Provider) IsAvailable() bool {
	return screenshot.NumActiveDisplays() > 0
}

func init() {
	display.Register(NewProvider())
}
