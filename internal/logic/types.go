// Package logic contains pure measurement logic for digital signal transitions.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Level is the logical level of a digital line.
type Level bool

const (
	High Level = true
	Low  Level = false
)

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// Transition is an edge on the line: the level it changed to, and when.
// Timestamps are only ever subtracted from one another.
type Transition struct {
	Time  time.Time
	Level Level
}

// Measurement names a value a measurer can report.
type Measurement string

// DutyCycle is the percentage of complete-period time spent HIGH.
const DutyCycle Measurement = "dutyCycle"

// Supported returns the measurements this package can compute.
func Supported() []Measurement {
	return []Measurement{DutyCycle}
}

// Values maps requested measurements to their results.
// A missing key means the value could not be computed from the data supplied.
type Values map[Measurement]float64

// Totals summarises the committed (paired) pulses of a measurement.
type Totals struct {
	First   Level // level of the first transition seen
	High    time.Duration
	Low     time.Duration
	Periods int
}

// Report is the result of measuring one window of transitions.
type Report struct {
	Start       time.Time
	End         time.Time
	Transitions int
	Values      Values
	Totals      Totals
}

// ReportCounts tracks windows measured since startup.
type ReportCounts struct {
	Windows     int // windows closed
	Measured    int // windows with a duty cycle
	Absent      int // windows without a complete period
	Transitions int // transitions seen
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    ReportCounts
}
