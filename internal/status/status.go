// Package status provides a thread-safe status tracker for the dutycycle-sensor daemon.
// It is read by HTTP handlers and used to build lifecycle event payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	Pin         int
	WindowMs    int64
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	TopicPrefix string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Level         logic.Level
	LevelKnown    bool
	LastReport    *logic.Report
	LastReportID  string
	Counts        logic.ReportCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// DutyCycle returns the last window's duty cycle, if it had one.
func (s Snapshot) DutyCycle() (float64, bool) {
	if s.LastReport == nil {
		return 0, false
	}
	dc, ok := s.LastReport.Values[logic.DutyCycle]
	return dc, ok
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the line level and window counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(level logic.Level, known bool, counts logic.ReportCounts) {
	t.mu.Lock()
	t.snap.Level = level
	t.snap.LevelKnown = known
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetReport records the most recently closed window.
func (t *Tracker) SetReport(id string, r logic.Report) {
	t.mu.Lock()
	t.snap.LastReport = &r
	t.snap.LastReportID = id
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastReport != nil {
		r := *s.LastReport
		s.LastReport = &r
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
