package display

import (
	"context"
	"errors"
	"image"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

type stubController struct{ name string }

func (s *stubController) CaptureFullScreen(ctx context.Context, allDisplays bool) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}
func (s *stubController) MoveMouse(ctx context.Context, x, y int) error { return nil }
func (s *stubController) ClickMouse(ctx context.Context, button MouseButton, clicks int) error {
	return nil
}
func (s *stubController) PressMouse(ctx context.Context, button MouseButton) error   { return nil }
func (s *stubController) ReleaseMouse(ctx context.Context, button MouseButton) error { return nil }
func (s *stubController) Close() error                                              { return nil }

type stubProvider struct {
	info      DisplayInfo
	available bool
	err       error
}

func (p *stubProvider) GetController(display string) (Controller, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &stubController{name: p.info.Name}, nil
}
func (p *stubProvider) GetDisplayInfo() DisplayInfo { return p.info }
func (p *stubProvider) IsAvailable() bool           { return p.available }

func withProviders(t *testing.T, providers ...Provider) {
	t.Helper()
	saved := GetAllProviders()
	ClearProviders()
	for _, p := range providers {
		Register(p)
	}
	t.Cleanup(func() {
		ClearProviders()
		for _, p := range saved {
			Register(p)
		}
	})
}

func TestDetectDisplay_PrefersPriority(t *testing.T) {
	withProviders(t,
		&stubProvider{info: DisplayInfo{Name: "native", Priority: 10}, available: true},
		&stubProvider{info: DisplayInfo{Name: "x11", Priority: 20}, available: true},
		&stubProvider{info: DisplayInfo{Name: "replay", Priority: 0}, available: false},
	)

	p, err := DetectDisplay()
	require.NoError(t, err)
	assert.Equal(t, "x11", p.GetDisplayInfo().Name)
}

func TestDetectDisplay_SkipsUnavailable(t *testing.T) {
	withProviders(t,
		&stubProvider{info: DisplayInfo{Name: "x11", Priority: 20}, available: false},
		&stubProvider{info: DisplayInfo{Name: "native", Priority: 10}, available: true},
	)

	p, err := DetectDisplay()
	require.NoError(t, err)
	assert.Equal(t, "native", p.GetDisplayInfo().Name)
}

func TestDetectDisplay_NoneAvailable(t *testing.T) {
	withProviders(t, &stubProvider{info: DisplayInfo{Name: "x11"}, available: false})

	_, err := DetectDisplay()
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	withProviders(t,
		&stubProvider{info: DisplayInfo{Name: "native", Priority: 10}, available: true},
		&stubProvider{info: DisplayInfo{Name: "broken"}, err: errors.New("no xtest")},
	)

	ctrl, info, err := Open("", "")
	require.NoError(t, err)
	assert.Equal(t, "native", info.Name)
	assert.NotNil(t, ctrl)

	_, _, err = Open("missing", "")
	assert.ErrorContains(t, err, "unknown display backend")

	_, _, err = Open("broken", "")
	assert.ErrorContains(t, err, "no xtest")
}

func TestMouseButton(t *testing.T) {
	assert.Equal(t, "left", MouseButtonLeft.String())
	assert.Equal(t, byte(1), MouseButtonLeft.X11Code())
	assert.Equal(t, byte(2), MouseButtonMiddle.X11Code())
	assert.Equal(t, byte(3), MouseButtonRight.X11Code())
}
