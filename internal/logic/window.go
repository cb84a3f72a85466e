package logic

import "time"

// Sampler splits a live transition stream into fixed windows and measures
// each window with a fresh DutyCycleMeasurer.
type Sampler struct {
	window        time.Duration
	requested     []Measurement
	startTime     time.Time
	lastHeartbeat time.Time

	m           *DutyCycleMeasurer
	windowStart time.Time
	windowCount int

	last     Transition
	haveLast bool
	counts   ReportCounts
}

// NewSampler creates a sampler whose first window opens at startTime.
// A window <= 0 disables flushing.
func NewSampler(window time.Duration, requested []Measurement, startTime time.Time) *Sampler {
	return &Sampler{
		window:        window,
		requested:     requested,
		startTime:     startTime,
		lastHeartbeat: startTime,
		m:             NewDutyCycleMeasurer(requested...),
		windowStart:   startTime,
	}
}

// Add feeds a batch of transitions to the current window.
// Batches must be supplied in time order. A transition that repeats the
// previous level is dropped, as happens when the event queue overflows and
// loses an edge.
func (s *Sampler) Add(batch []Transition) {
	edges := make([]Transition, 0, len(batch))
	for _, t := range batch {
		if s.haveLast && t.Level == s.last.Level {
			continue
		}
		edges = append(edges, t)
		s.last = t
		s.haveLast = true
	}
	if len(edges) == 0 {
		return
	}
	s.m.Process(FromSlice(edges))
	s.windowCount += len(edges)
	s.counts.Transitions += len(edges)
}

// Flush closes the current window if it has lasted at least the window
// duration, returning its report. Returns nil otherwise.
//
// The next window's measurer is primed with the last transition seen, so the
// edge that opens the first pulse of the new window is not lost.
func (s *Sampler) Flush(now time.Time) *Report {
	if s.window <= 0 || now.Sub(s.windowStart) < s.window {
		return nil
	}

	r := &Report{
		Start:       s.windowStart,
		End:         now,
		Transitions: s.windowCount,
		Values:      s.m.Measure(),
		Totals:      s.m.Totals(),
	}

	s.counts.Windows++
	if _, ok := r.Values[DutyCycle]; ok {
		s.counts.Measured++
	} else {
		s.counts.Absent++
	}

	s.m = NewDutyCycleMeasurer(s.requested...)
	s.windowStart = now
	s.windowCount = 0
	if s.haveLast {
		s.m.Process(FromSlice([]Transition{s.last}))
	}

	return r
}

// Level returns the level of the most recent transition, and false if no
// transition has been seen yet.
func (s *Sampler) Level() (Level, bool) {
	return s.last.Level, s.haveLast
}

// Counts returns window counts since startup.
func (s *Sampler) Counts() ReportCounts {
	return s.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (s *Sampler) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Counts:    s.counts,
	}
}
