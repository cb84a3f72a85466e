// Package gpio provides GPIO edge capture with hardware abstraction.
// The real implementation uses Linux GPIO character device edge events.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/dutycycle-sensor/internal/logic"

// Watcher captures level transitions on a single input line.
type Watcher interface {
	// Drain returns the transitions captured since the previous call,
	// oldest first. Returns an empty slice when the line has not moved.
	Drain() ([]logic.Transition, error)

	// Level reads the current logical level of the line.
	Level() (logic.Level, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults for a Raspberry Pi (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17
)
