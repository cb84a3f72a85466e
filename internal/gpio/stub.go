//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

// RealWatcher is not available on non-Linux platforms.
type RealWatcher struct{}

// NewRealWatcher returns an error on non-Linux platforms.
func NewRealWatcher(chip string, pin int, activeLow bool) (*RealWatcher, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Drain is not implemented on non-Linux platforms.
func (w *RealWatcher) Drain() ([]logic.Transition, error) {
	return nil, errors.New("gpio: not supported")
}

// Level is not implemented on non-Linux platforms.
func (w *RealWatcher) Level() (logic.Level, error) {
	return logic.Low, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (w *RealWatcher) Close() error {
	return nil
}
