package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
	"github.com/sweeney/dutycycle-sensor/internal/status"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	cfg := status.Config{
		Chip:        "gpiochip0",
		Pin:         17,
		WindowMs:    10000,
		PollMs:      100,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		TopicPrefix: "sensors/dutycycle",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func getBody(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func report(dc float64, ok bool) logic.Report {
	r := logic.Report{
		Start:       start,
		End:         start.Add(10 * time.Second),
		Transitions: 5,
		Values:      logic.Values{},
		Totals:      logic.Totals{First: logic.High, High: 7 * time.Second, Low: 13 * time.Second, Periods: 2},
	}
	if ok {
		r.Values[logic.DutyCycle] = dc
	}
	return r
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.High, true, logic.ReportCounts{Windows: 5, Measured: 4, Absent: 1})
	tr.SetReport("id-1", report(35, true))
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Level != "HIGH" {
		t.Errorf("Level: got %q, want HIGH", sj.Status.Level)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.Windows != 5 {
		t.Errorf("Counts.Windows: got %d, want 5", sj.Status.Counts.Windows)
	}
	if sj.Status.LastWindow == nil || sj.Status.LastWindow.DutyCycle == nil || *sj.Status.LastWindow.DutyCycle != 35 {
		t.Errorf("LastWindow: got %+v", sj.Status.LastWindow)
	}
	if sj.Status.Config.Pin != 17 {
		t.Errorf("Config.Pin: got %d, want 17", sj.Status.Config.Pin)
	}
}

func TestJSONUnknownLevelBeforeEdges(t *testing.T) {
	ts, _ := newTestServer(t)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Level != "UNKNOWN" {
		t.Errorf("Level before edges: got %q, want UNKNOWN", sj.Status.Level)
	}
	if sj.Status.LastWindow != nil {
		t.Errorf("expected no last window, got %+v", sj.Status.LastWindow)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.Low, true, logic.ReportCounts{})
	tr.SetReport("id-1", report(35, true))

	resp, body := getBody(t, ts.URL+"/")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	if !strings.Contains(body, "35.00%") {
		t.Error("expected duty cycle in page")
	}
	if !strings.Contains(body, `class="low">LOW<`) {
		t.Error("expected LOW level in page")
	}
}

func TestHTMLAbsentDutyCycle(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetReport("id-1", report(0, false))

	_, body := getBody(t, ts.URL+"/index.html")
	if !strings.Contains(body, "no complete period") {
		t.Error("expected absent duty cycle message in page")
	}
}

func TestHTMLBeforeFirstWindow(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := getBody(t, ts.URL+"/index.html")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "waiting for first window") {
		t.Error("expected waiting message in page")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	sj1 := getJSON(t, ts.URL+"/index.json")
	if sj1.Status.Counts.Windows != 0 {
		t.Error("expected no windows initially")
	}

	tr.Update(logic.High, true, logic.ReportCounts{Windows: 1, Absent: 1})
	tr.SetMQTTConnected(true)

	sj2 := getJSON(t, ts.URL+"/index.json")
	if sj2.Status.Counts.Windows != 1 {
		t.Errorf("Counts.Windows: got %d, want 1", sj2.Status.Counts.Windows)
	}
	if sj2.Status.Level != "HIGH" {
		t.Errorf("Level: got %q, want HIGH", sj2.Status.Level)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
