// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

// DefaultTopicPrefix is the topic prefix used when none is configured.
const DefaultTopicPrefix = "sensors/dutycycle"

// MeasurementTopic is the topic for per-window measurement reports.
func MeasurementTopic(prefix string) string {
	return prefix + "/measurements"
}

// SystemTopic is the topic for system lifecycle events.
func SystemTopic(prefix string) string {
	return prefix + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a window report to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(id string, report logic.Report) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Measurement MeasurementPayload `json:"measurement"`
}

// MeasurementPayload contains one window's measurement.
type MeasurementPayload struct {
	ID          string   `json:"id"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Transitions int      `json:"transitions"`
	DutyCycle   *float64 `json:"duty_cycle,omitempty"`
	FirstLevel  string   `json:"first_level,omitempty"`
	HighMs      float64  `json:"high_ms"`
	LowMs       float64  `json:"low_ms"`
	Periods     int      `json:"periods"`
}

// FormatPayload creates the JSON payload for a window report.
// duty_cycle is omitted when the window held no complete period.
func FormatPayload(id string, report logic.Report) ([]byte, error) {
	p := MeasurementPayload{
		ID:          id,
		Start:       report.Start.UTC().Format(time.RFC3339Nano),
		End:         report.End.UTC().Format(time.RFC3339Nano),
		Transitions: report.Transitions,
		HighMs:      millis(report.Totals.High),
		LowMs:       millis(report.Totals.Low),
		Periods:     report.Totals.Periods,
	}
	if dc, ok := report.Values[logic.DutyCycle]; ok {
		p.DutyCycle = &dc
	}
	if report.Totals.Periods > 0 {
		p.FirstLevel = report.Totals.First.String()
	}
	return json.Marshal(Payload{Measurement: p})
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
