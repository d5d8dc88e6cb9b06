package x11

import (
	"context"
	"fmt"
	"sync"

	xgbutil "github.com/BurntSushi/xgbutil"
	keybind "github.com/BurntSushi/xgbutil/keybind"
	xevent "github.com/BurntSushi/xgbutil/xevent"

	logger "github.com/berth-automation/berth/internal/logger"
	stop "github.com/berth-automation/berth/internal/stop"
)

// KeyListener grabs a key on the root window and raises the stop signal when
// it is pressed. It runs its own connection so the event loop never competes
// with capture requests.
type KeyListener struct {
	display string
	key     string
}

var _ stop.Listener = (*KeyListener)(nil)

// NewKeyListener creates a listener for key (an X keysym name such as "Escape")
func NewKeyListener(display, key string) *KeyListener {
	if key == "" {
		key = "Escape"
	}
	return &KeyListener{display: display, key: key}
}

// Listen blocks until the key is pressed, the signal is set elsewhere, or ctx ends
func (l *KeyListener) Listen(ctx context.Context, s *stop.Signal) error {
	xu, err := connect(l.display)
	if err != nil {
		return err
	}
	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(xu.Conn().Close) }
	defer closeConn()

	keybind.Initialize(xu)

	cb := keybind.KeyPressFun(func(X *xgbutil.XUtil, e xevent.KeyPressEvent) {
		s.Set("key " + l.key)
		xevent.Quit(X)
	})
	if err := cb.Connect(xu, xu.RootWin(), l.key, true); err != nil {
		return fmt.Errorf("failed to grab %s: %w", l.key, err)
	}

	logger.Debug("Stop key grabbed", "key", l.key, "display", l.display)

	go func() {
		select {
		case <-ctx.Done():
		case <-s.Done():
		}
		// WaitForEvent only returns once the connection goes away
		xevent.Quit(xu)
		closeConn()
	}()

	xevent.Main(xu)
	return nil
}
