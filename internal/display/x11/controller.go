package x11

import (
	"context"
	"image"
	"os"

	display "github.com/berth-automation/berth/internal/display"
)

// Controller wraps X11Client to implement the display.Controller interface
type Controller struct {
	client *X11Client
}

var _ display.Controller = (*Controller)(nil)

// CaptureFullScreen grabs the root window; allDisplays is implied on X11
func (c *Controller) CaptureFullScreen(ctx context.Context, allDisplays bool) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.client.CaptureRoot()
}

// MoveMouse moves the cursor to the specified coordinates
func (c *Controller) MoveMouse(ctx context.Context, x, y int) error {
	return c.client.MoveMouse(x, y)
}

// ClickMouse clicks the specified mouse button
func (c *Controller) ClickMouse(ctx context.Context, button display.MouseButton, clicks int) error {
	return c.client.ClickButton(button.X11Code(), clicks)
}

// PressMouse presses and holds the specified mouse button
func (c *Controller) PressMouse(ctx context.Context, button display.MouseButton) error {
	return c.client.PressButton(button.X11Code())
}

// ReleaseMouse releases the specified mouse button
func (c *Controller) ReleaseMouse(ctx context.Context, button display.MouseButton) error {
	return c.client.ReleaseButton(button.X11Code())
}

// KeyListener returns a stop listener bound to the given key on the same display
func (c *Controller) KeyListener(key string) *KeyListener {
	return NewKeyListener(c.client.display, key)
}

// Close closes the X11 connection
func (c *Controller) Close() error {
	c.client.Close()
	return nil
}

// Provider implements the display.Provider interface for X11
type Provider struct{}

var _ display.Provider = (*Provider)(nil)

// NewProvider creates a new X11 provider
func NewProvider() *Provider {
	return &Provider{}
}

// GetController creates a new Controller for the specified display
func (p *Provider) GetController(display string) (display.Controller, error) {
	client, err := NewX11Client(display)
	if err != nil {
		return nil, err
	}
	return &Controller{client: client}, nil
}

// GetDisplayInfo returns information about the X11 platform
func (p *Provider) GetDisplayInfo() display.DisplayInfo {
	return display.DisplayInfo{
		Name:                 "x11",
		Priority:             20,
		SupportsMultiDisplay: true,
		SupportsKeyListener:  true,
	}
}

// IsAvailable returns true if X11 is available on the current system
func (p *Provider) IsAvailable() bool {
	// XWayland sessions still expose DISPLAY but synthetic input does not reach native windows
	return os.Getenv("DISPLAY") != "" && os.Getenv("WAYLAND_DISPLAY") == ""
}

func init() {
	display.Register(NewProvider())
}
