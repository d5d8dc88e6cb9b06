// Package stop holds the process-wide stop signal. It is set once by a
// listener and read by every retry and poll loop before each iteration.
package stop

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	logger "github.com/berth-automation/berth/internal/logger"
)

// Signal is a monotone false->true flag with a channel closed when it flips
type Signal struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
	reason  atomic.Value
}

// New returns an unset signal
func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Set flips the signal. Only the first call has any effect.
func (s *Signal) Set(reason string) {
	s.once.Do(func() {
		s.reason.Store(reason)
		s.stopped.Store(true)
		close(s.done)
		logger.Info("Stop requested", "reason", reason)
	})
}

// Stopped reports whether the signal has been set
func (s *Signal) Stopped() bool {
	return s.stopped.Load()
}

// Done returns a channel closed once the signal is set
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Reason returns what set the signal, or "" while unset
func (s *Signal) Reason() string {
	if r, ok := s.reason.Load().(string); ok {
		return r
	}
	return ""
}

// Sleep waits for d unless the signal or ctx fires first.
// It returns true when the full duration elapsed.
func (s *Signal) Sleep(ctx context.Context, d time.Duration) bool {
	if s.Stopped() {
		return false
	}
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return !s.Stopped()
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// WatchContext sets the signal when ctx is cancelled
func (s *Signal) WatchContext(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.Set("context cancelled")
		case <-s.done:
		}
	}()
}

// NotifyOnSignals sets the signal on SIGINT or SIGTERM.
// The returned function releases the OS signal handler.
func (s *Signal) NotifyOnSignals() func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig, ok := <-ch:
			if ok {
				s.Set(sig.String())
			}
		case <-s.done:
		}
	}()

	return func() {
		signal.Stop(ch)
	}
}

// Listener observes an external trigger and sets the signal when it fires
type Listener interface {
	Listen(ctx context.Context, s *Signal) error
}
