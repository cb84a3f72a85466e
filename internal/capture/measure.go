package capture

import (
	"io"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

// DefaultBatchSize is the number of transitions handed to the measurer at once.
const DefaultBatchSize = 1024

// Selection limits a measurement to transitions at Start <= t < End seconds.
type Selection struct {
	Start float64
	End   float64
}

func (s *Selection) contains(sec float64) bool {
	return s == nil || (sec >= s.Start && sec < s.End)
}

func (s *Selection) past(sec float64) bool {
	return s != nil && sec >= s.End
}

// Options controls an offline measurement.
type Options struct {
	Column    int // level column; 0 means 1
	BatchSize int // 0 means DefaultBatchSize
	Select    *Selection
	Requested []logic.Measurement // nil means all supported
}

// Result is the outcome of measuring a capture.
type Result struct {
	Values      logic.Values
	Totals      logic.Totals
	Transitions int
}

// Measure streams the capture in r through a single duty cycle measurer,
// one batch at a time.
func Measure(r io.Reader, opts Options) (Result, error) {
	if opts.Column <= 0 {
		opts.Column = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Requested == nil {
		opts.Requested = logic.Supported()
	}

	src := NewReader(r, opts.Column)
	m := logic.NewDutyCycleMeasurer(opts.Requested...)

	var n int
	batch := make([]logic.Transition, 0, opts.BatchSize)
	for {
		t, ok := src.Next()
		if !ok {
			break
		}
		sec := src.Time()
		if opts.Select.past(sec) {
			break
		}
		if !opts.Select.contains(sec) {
			continue
		}

		batch = append(batch, t)
		n++
		if len(batch) == opts.BatchSize {
			m.Process(logic.FromSlice(batch))
			batch = batch[:0]
		}
	}
	if err := src.Err(); err != nil {
		return Result{}, err
	}
	m.Process(logic.FromSlice(batch))

	return Result{Values: m.Measure(), Totals: m.Totals(), Transitions: n}, nil
}
