//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

// RealWatcher captures edges from actual hardware using the Linux GPIO
// character device. Edge events are delivered by the kernel with monotonic
// timestamps and queued until the next Drain.
type RealWatcher struct {
	line *gpiocdev.Line

	// wall time corresponding to a kernel event timestamp of zero
	anchor time.Time

	mu      sync.Mutex
	pending []logic.Transition
}

// NewRealWatcher requests the given line as an input with both-edge detection.
func NewRealWatcher(chip string, pin int, activeLow bool) (*RealWatcher, error) {
	anchor, err := monotonicAnchor()
	if err != nil {
		return nil, fmt.Errorf("read monotonic clock: %w", err)
	}

	w := &RealWatcher{anchor: anchor}

	// Pull-down matches Pi boot defaults.
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(w.handleEvent),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := gpiocdev.RequestLine(chip, pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request pin %d on %s: %w", pin, chip, err)
	}
	w.line = line

	return w, nil
}

// monotonicAnchor returns the wall time at which CLOCK_MONOTONIC read zero.
func monotonicAnchor() (time.Time, error) {
	var ts unix.Timespec
	now := time.Now()
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Time{}, err
	}
	return now.Add(-time.Duration(ts.Nano())), nil
}

// handleEvent runs on the gpiocdev event goroutine.
func (w *RealWatcher) handleEvent(evt gpiocdev.LineEvent) {
	t := logic.Transition{
		Time:  w.anchor.Add(evt.Timestamp),
		Level: evt.Type == gpiocdev.LineEventRisingEdge,
	}

	w.mu.Lock()
	w.pending = append(w.pending, t)
	w.mu.Unlock()
}

// Drain returns the edges captured since the previous call.
func (w *RealWatcher) Drain() ([]logic.Transition, error) {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()
	return batch, nil
}

// Level reads the current logical level.
func (w *RealWatcher) Level() (logic.Level, error) {
	v, err := w.line.Value()
	if err != nil {
		return logic.Low, fmt.Errorf("read pin: %w", err)
	}
	return logic.Level(v == 1), nil
}

// Close releases GPIO resources.
// Reconfigures the pin to input with pull-down and no edge detection
// (matching Pi boot defaults) before closing.
func (w *RealWatcher) Close() error {
	if w.line == nil {
		return nil
	}

	var errs []error
	if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown, gpiocdev.WithoutEdges); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
	}
	if err := w.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
