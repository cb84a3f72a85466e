package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleReport() logic.Report {
	return logic.Report{
		Start:       start,
		End:         start.Add(10 * time.Second),
		Transitions: 3,
		Values:      logic.Values{logic.DutyCycle: 30},
		Totals:      logic.Totals{First: logic.High, High: 3 * time.Second, Low: 7 * time.Second, Periods: 1},
	}
}

func TestNewTracker(t *testing.T) {
	cfg := Config{Chip: "gpiochip0", Pin: 17, WindowMs: 10000, PollMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Pin != 17 {
		t.Errorf("Config.Pin: got %d, want 17", snap.Config.Pin)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.LevelKnown {
		t.Error("expected LevelKnown=false initially")
	}
	if snap.LastReport != nil {
		t.Error("expected no report initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(logic.High, true, logic.ReportCounts{Windows: 3, Measured: 2, Absent: 1})

	snap := tr.Snapshot()
	if snap.Level != logic.High || !snap.LevelKnown {
		t.Errorf("Level: got %s (known=%v), want HIGH", snap.Level, snap.LevelKnown)
	}
	if snap.Counts.Windows != 3 || snap.Counts.Absent != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestSetReport(t *testing.T) {
	tr := NewTracker(start, Config{})

	if _, ok := tr.Snapshot().DutyCycle(); ok {
		t.Error("expected no duty cycle before any report")
	}

	tr.SetReport("id-1", sampleReport())

	snap := tr.Snapshot()
	if snap.LastReportID != "id-1" {
		t.Errorf("LastReportID: got %q", snap.LastReportID)
	}
	dc, ok := snap.DutyCycle()
	if !ok || dc != 30 {
		t.Errorf("DutyCycle: got %v (ok=%v), want 30", dc, ok)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotNowUsesClock(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.now = func() time.Time { return start.Add(15 * time.Minute) }

	snap := tr.Snapshot()
	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.High, true, logic.ReportCounts{Windows: 1})
	tr.SetReport("a", sampleReport())

	snap1 := tr.Snapshot()
	snap1.LastReport.Transitions = 99

	tr.Update(logic.Low, true, logic.ReportCounts{Windows: 2})

	if snap1.Level != logic.High {
		t.Error("snapshot should be a copy; Level was modified")
	}
	if snap1.Counts.Windows != 1 {
		t.Error("snapshot should be a copy; Counts was modified")
	}
	if tr.Snapshot().LastReport.Transitions != 3 {
		t.Error("mutating a snapshot's report must not affect the tracker")
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Level:         logic.Low,
		LevelKnown:    true,
		LastReport:    func() *logic.Report { r := sampleReport(); return &r }(),
		LastReportID:  "id-1",
		Counts:        logic.ReportCounts{Windows: 5, Measured: 4, Absent: 1, Transitions: 40},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Pin: 17, WindowMs: 10000, PollMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":80"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Level != "LOW" {
		t.Errorf("Level: got %q, want LOW", parsed.Status.Level)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.Measured != 4 {
		t.Errorf("Counts.Measured: got %d, want 4", parsed.Status.Counts.Measured)
	}
	w := parsed.Status.LastWindow
	if w == nil {
		t.Fatal("expected last_window")
	}
	if w.ID != "id-1" || w.DutyCycle == nil || *w.DutyCycle != 30 {
		t.Errorf("LastWindow: got %+v", w)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" || parsed.Status.Reason != "" {
		t.Errorf("expected empty Event/Reason for web format, got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatJSONUnknownLevel(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Level != "UNKNOWN" {
		t.Errorf("Level: got %q, want UNKNOWN", parsed.Status.Level)
	}
	if parsed.Status.LastWindow != nil {
		t.Errorf("expected no last_window, got %+v", parsed.Status.LastWindow)
	}
}

func TestFormatJSONAbsentDutyCycle(t *testing.T) {
	r := sampleReport()
	r.Values = logic.Values{}
	snap := Snapshot{StartTime: start, Now: start, LastReport: &r}

	var raw map[string]map[string]interface{}
	json.Unmarshal(FormatJSON(snap), &raw)

	w, ok := raw["status"]["last_window"].(map[string]interface{})
	if !ok {
		t.Fatal("expected last_window object")
	}
	if _, exists := w["duty_cycle"]; exists {
		t.Error("duty_cycle should be omitted when absent")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		Level:      logic.High,
		LevelKnown: true,
		StartTime:  start,
		Now:        start.Add(30 * time.Minute),
		Config:     Config{Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.Level != "HIGH" {
		t.Errorf("Level: got %q, want HIGH", parsed.Status.Level)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var raw map[string]interface{}
	json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(time.Minute),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.Level(i%2 == 0), true, logic.ReportCounts{Windows: i})
			tr.SetReport("id", sampleReport())
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
