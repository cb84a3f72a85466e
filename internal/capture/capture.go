// Package capture reads digital captures exported by a logic analyzer and
// measures them offline.
//
// The expected format is the Saleae digital CSV export: an optional header
// row (e.g. "Time [s],Channel 0"), then one row per sample of
// "<seconds>,<level>" with levels 0 or 1. The first row records the initial
// state of the line; every later row whose level differs from the previous
// one is a transition.
package capture

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

// Epoch is the instant a capture time of zero seconds maps to.
var Epoch = time.Unix(0, 0).UTC()

// ParseError reports a malformed row.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("capture: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrTimeOrder is returned when a row's time precedes the previous row's.
var ErrTimeOrder = errors.New("time goes backwards")

// ErrTimeRange is returned for a time that is not finite or does not fit a
// time.Duration from Epoch.
var ErrTimeRange = errors.New("time out of range")

// maxSeconds is the largest capture time At can represent.
const maxSeconds = math.MaxInt64 / float64(time.Second)

// Reader yields the transitions in a capture. It implements logic.Source.
type Reader struct {
	csv    *csv.Reader
	column int
	err    error

	rows    int
	started bool
	level   logic.Level
	last    float64
}

// NewReader reads a capture whose levels are in the given column
// (1 for the first channel).
func NewReader(r io.Reader, column int) *Reader {
	c := csv.NewReader(r)
	c.FieldsPerRecord = -1
	c.TrimLeadingSpace = true
	c.ReuseRecord = true
	return &Reader{csv: c, column: column}
}

// Next returns the next transition. It returns false at end of input or on
// the first error; check Err afterwards.
func (r *Reader) Next() (logic.Transition, bool) {
	for r.err == nil {
		rec, err := r.csv.Read()
		if err == io.EOF {
			return logic.Transition{}, false
		}
		if err != nil {
			r.err = err
			return logic.Transition{}, false
		}

		line, _ := r.csv.FieldPos(0)
		sec, level, ok, err := r.parse(rec)
		r.rows++
		if err != nil {
			r.err = &ParseError{Line: line, Err: err}
			return logic.Transition{}, false
		}
		if !ok {
			continue
		}

		if r.started && sec < r.last {
			r.err = &ParseError{Line: line, Err: ErrTimeOrder}
			return logic.Transition{}, false
		}
		r.last = sec

		if !r.started {
			// initial state, not an edge
			r.started = true
			r.level = level
			continue
		}
		if level == r.level {
			continue
		}
		r.level = level
		return logic.Transition{Time: At(sec), Level: level}, true
	}
	return logic.Transition{}, false
}

// parse returns ok=false for a header row.
func (r *Reader) parse(rec []string) (float64, logic.Level, bool, error) {
	if len(rec) <= r.column {
		return 0, logic.Low, false, fmt.Errorf("expected at least %d fields, got %d", r.column+1, len(rec))
	}

	sec, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	if err != nil {
		if r.rows == 0 && isHeader(rec[0]) {
			return 0, logic.Low, false, nil
		}
		return 0, logic.Low, false, fmt.Errorf("time %q: %w", rec[0], err)
	}
	if math.IsNaN(sec) || math.IsInf(sec, 0) || math.Abs(sec) >= maxSeconds {
		return 0, logic.Low, false, fmt.Errorf("time %q: %w", rec[0], ErrTimeRange)
	}

	switch strings.TrimSpace(rec[r.column]) {
	case "0":
		return sec, logic.Low, true, nil
	case "1":
		return sec, logic.High, true, nil
	default:
		return 0, logic.Low, false, fmt.Errorf("level %q: expected 0 or 1", rec[r.column])
	}
}

func isHeader(field string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(field)), "time")
}

// Time returns the capture time, in seconds as written, of the row that
// produced the last transition.
func (r *Reader) Time() float64 {
	return r.last
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Level returns the level of the line after the last row read.
func (r *Reader) Level() logic.Level {
	return r.level
}

// At converts capture seconds to a timestamp.
func At(sec float64) time.Time {
	return Epoch.Add(time.Duration(math.Round(sec * float64(time.Second))))
}

// Seconds converts a timestamp back to capture seconds.
func Seconds(t time.Time) float64 {
	return t.Sub(Epoch).Seconds()
}
