package x11

import (
	"fmt"
	"image"
	"os"
	"time"

	xgb "github.com/BurntSushi/xgb"
	xproto "github.com/BurntSushi/xgb/xproto"
	xtest "github.com/BurntSushi/xgb/xtest"
	xgbutil "github.com/BurntSushi/xgbutil"
	xgraphics "github.com/BurntSushi/xgbutil/xgraphics"

	logger "github.com/berth-automation/berth/internal/logger"
)

const clickHold = 50 * time.Millisecond

// X11Client wraps an X11 connection with the XTEST extension initialized
type X11Client struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	screen  *xproto.ScreenInfo
	display string
}

// connect opens a display connection with Xlib's stderr chatter suppressed
func connect(display string) (*xgbutil.XUtil, error) {
	oldStderr := os.Stderr
	devNull, devErr := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if devErr == nil {
		os.Stderr = devNull
	}

	xu, err := xgbutil.NewConnDisplay(display)

	if devErr == nil {
		os.Stderr = oldStderr
		_ = devNull.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11 display %q: %w", display, err)
	}
	return xu, nil
}

// NewX11Client creates a new X11 client connection
func NewX11Client(display string) (*X11Client, error) {
	xu, err := connect(display)
	if err != nil {
		logger.Error("Failed to connect to X11 display", "display", display, "error", err)
		return nil, err
	}

	if err := xtest.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		logger.Error("Failed to initialize XTEST extension", "error", err)
		return nil, fmt.Errorf("failed to initialize XTEST extension: %w", err)
	}

	return &X11Client{
		xu:      xu,
		conn:    xu.Conn(),
		screen:  xproto.Setup(xu.Conn()).DefaultScreen(xu.Conn()),
		display: display,
	}, nil
}

// Close closes the X11 connection
func (c *X11Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// CaptureRoot grabs the root window, which spans every monitor of the screen
func (c *X11Client) CaptureRoot() (image.Image, error) {
	ximg, err := xgraphics.NewDrawable(c.xu, xproto.Drawable(c.screen.Root))
	if err != nil {
		return nil, fmt.Errorf("failed to capture root window: %w", err)
	}
	return ximg, nil
}

// MoveMouse warps the cursor to absolute root coordinates
func (c *X11Client) MoveMouse(x, y int) error {
	err := xproto.WarpPointerChecked(
		c.conn,
		xproto.WindowNone,
		c.screen.Root,
		0, 0,
		0, 0,
		int16(x), int16(y),
	).Check()
	if err != nil {
		return fmt.Errorf("failed to move mouse: %w", err)
	}

	c.conn.Sync()
	return nil
}

func (c *X11Client) fakeButton(event byte, button byte) error {
	cookie := xtest.FakeInputChecked(c.conn, event, button, 0, c.screen.Root, 0, 0, 0)
	if err := cookie.Check(); err != nil {
		return err
	}
	c.conn.Sync()
	return nil
}

// PressButton sends a button press at the current cursor position
func (c *X11Client) PressButton(button byte) error {
	if err := c.fakeButton(xproto.ButtonPress, button); err != nil {
		return fmt.Errorf("failed to send button press: %w", err)
	}
	return nil
}

// ReleaseButton sends a button release at the current cursor position
func (c *X11Client) ReleaseButton(button byte) error {
	if err := c.fakeButton(xproto.ButtonRelease, button); err != nil {
		return fmt.Errorf("failed to send button release: %w", err)
	}
	return nil
}

// ClickButton performs press/release pairs at the current cursor position
func (c *X11Client) ClickButton(button byte, clicks int) error {
	for i := 0; i < clicks; i++ {
		if err := c.PressButton(button); err != nil {
			return err
		}
		time.Sleep(clickHold)
		if err := c.ReleaseButton(button); err != nil {
			return err
		}
		if i < clicks-1 {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return nil
}
