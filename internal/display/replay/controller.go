// Package replay serves a still image as the screen and records input instead
// of sending it. It backs dry runs and offline tuning against saved captures.
package replay

import (
	"context"
	"fmt"
	"image"
	"sync"

	imaging "github.com/disintegration/imaging"

	display "github.com/berth-automation/berth/internal/display"
	logger "github.com/berth-automation/berth/internal/logger"
)

// Input is one recorded pointer operation
type Input struct {
	Kind   string // move, click, press, release
	X, Y   int
	Button display.MouseButton
	Clicks int
}

// String renders the input in a compact log form
func (i Input) String() string {
	switch i.Kind {
	case "move":
		return fmt.Sprintf("move %d,%d", i.X, i.Y)
	case "click":
		return fmt.Sprintf("click %s x%d", i.Button, i.Clicks)
	default:
		return fmt.Sprintf("%s %s", i.Kind, i.Button)
	}
}

// Controller implements display.Controller over an in-memory frame
type Controller struct {
	mu     sync.Mutex
	frame  image.Image
	inputs []Input
	closed bool
}

var _ display.Controller = (*Controller)(nil)

// NewController returns a controller serving frame as the screen
func NewController(frame image.Image) *Controller {
	return &Controller{frame: frame}
}

// Open loads the image at path as the screen
func Open(path string) (*Controller, error) {
	if path == "" {
		return nil, fmt.Errorf("replay backend needs an image path")
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load replay image: %w", err)
	}
	return NewController(img), nil
}

// SetFrame swaps the served screen
func (c *Controller) SetFrame(frame image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
}

// CaptureFullScreen returns the current frame
func (c *Controller) CaptureFullScreen(ctx context.Context, allDisplays bool) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("replay controller closed")
	}
	if c.frame == nil {
		return nil, fmt.Errorf("no frame loaded")
	}
	return c.frame, nil
}

func (c *Controller) record(in Input) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("replay controller closed")
	}
	c.inputs = append(c.inputs, in)
	logger.Debug("Replay input", "input", in.String())
	return nil
}

// MoveMouse records a move
func (c *Controller) MoveMouse(ctx context.Context, x, y int) error {
	return c.record(Input{Kind: "move", X: x, Y: y})
}

// ClickMouse records a click
func (c *Controller) ClickMouse(ctx context.Context, button display.MouseButton, clicks int) error {
	return c.record(Input{Kind: "click", Button: button, Clicks: clicks})
}

// PressMouse records a press
func (c *Controller) PressMouse(ctx context.Context, button display.MouseButton) error {
	return c.record(Input{Kind: "press", Button: button})
}

// ReleaseMouse records a release
func (c *Controller) ReleaseMouse(ctx context.Context, button display.MouseButton) error {
	return c.record(Input{Kind: "release", Button: button})
}

// Inputs returns a copy of everything recorded so far
func (c *Controller) Inputs() []Input {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Input, len(c.inputs))
	copy(out, c.inputs)
	return out
}

// Close marks the controller unusable
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Provider implements the display.Provider interface for replay images.
// It is never auto-detected.
type Provider struct{}

var _ display.Provider = (*Provider)(nil)

// GetController loads the image named by display
func (p *Provider) GetController(path string) (display.Controller, error) {
	return Open(path)
}

// GetDisplayInfo returns information about the replay backend
func (p *Provider) GetDisplayInfo() display.DisplayInfo {
	return display.DisplayInfo{Name: "replay"}
}

// IsAvailable is false so detection never picks replay
func (p *Provider) IsAvailable() bool {
	return false
}

func init() {
	display.Register(&Provider{})
}
