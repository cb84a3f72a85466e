package logic

import "time"

// DutyCycleMeasurer accumulates pulse lengths over a stream of transitions.
//
// Pulses are classified relative to the first transition seen: a pulse closed
// by the opposite level is of the first type, a pulse closed by the first
// level again is of the second type and completes a period. A first-type
// pulse is only committed once its paired second-type pulse closes, so a
// stream that ends mid-period contributes nothing for the partial period.
//
// An instance measures exactly one stream and is not safe for concurrent use.
// Timestamps must be non-decreasing and levels must alternate; neither is
// checked.
type DutyCycleMeasurer struct {
	requested map[Measurement]bool

	started  bool
	first    Level
	lastTime time.Time

	// staged first-type pulse, waiting for its second-type partner
	pending time.Duration

	totalFirst  time.Duration
	totalSecond time.Duration
	periods     int
}

// NewDutyCycleMeasurer creates a measurer for the requested measurements.
// Unsupported names are ignored and never appear in results.
func NewDutyCycleMeasurer(requested ...Measurement) *DutyCycleMeasurer {
	m := &DutyCycleMeasurer{requested: make(map[Measurement]bool, len(requested))}
	for _, r := range requested {
		m.requested[r] = true
	}
	return m
}

// Process consumes every transition in src. It may be called repeatedly;
// the measured stream is the concatenation of all calls.
func (m *DutyCycleMeasurer) Process(src Source) {
	for {
		t, ok := src.Next()
		if !ok {
			return
		}
		m.process(t)
	}
}

func (m *DutyCycleMeasurer) process(t Transition) {
	if !m.started {
		m.started = true
		m.first = t.Level
		m.lastTime = t.Time
		return
	}

	pulse := t.Time.Sub(m.lastTime)
	m.lastTime = t.Time

	if t.Level != m.first {
		// closes a first-type pulse; stage it until the period completes
		m.pending = pulse
		return
	}

	m.totalSecond += pulse
	m.totalFirst += m.pending
	m.pending = 0
	m.periods++
}

// Measure returns the requested values computable from the data processed so
// far. It does not modify the measurer.
func (m *DutyCycleMeasurer) Measure() Values {
	values := Values{}

	if m.requested[DutyCycle] {
		if dc, ok := m.dutyCycle(); ok {
			values[DutyCycle] = dc
		}
	}

	return values
}

func (m *DutyCycleMeasurer) dutyCycle() (float64, bool) {
	// need at least one whole period
	if m.periods == 0 {
		return 0, false
	}
	period := m.totalFirst + m.totalSecond
	if period <= 0 {
		return 0, false
	}
	high := m.totalFirst
	if m.first == Low {
		high = m.totalSecond
	}
	return 100 * float64(high) / float64(period), true
}

// Totals returns the committed pulse totals split by level.
func (m *DutyCycleMeasurer) Totals() Totals {
	t := Totals{First: m.first, Periods: m.periods}
	if m.first == High {
		t.High, t.Low = m.totalFirst, m.totalSecond
	} else {
		t.High, t.Low = m.totalSecond, m.totalFirst
	}
	return t
}
