package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dutycycle-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"percent": func(v float64) string {
		return fmt.Sprintf("%.2f%%", v)
	},
	"ms": func(d time.Duration) string {
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Duty Cycle Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.high { color: green; font-weight: bold; }
.low { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Duty Cycle Sensor</h1>

<h2>Signal</h2>
<table>
<tr><th>Line</th><td>{{.Config.Chip}} pin {{.Config.Pin}}</td></tr>
<tr><th>Level</th><td id="level" class="{{if not .LevelKnown}}unknown{{else if .Level}}high{{else}}low{{end}}">{{if .LevelKnown}}{{.Level}}{{else}}UNKNOWN{{end}}</td></tr>
{{with .LastReport}}<tr><th>Duty cycle</th><td id="duty-cycle">{{if $.HasDutyCycle}}{{percent $.DutyCycle}}{{else}}no complete period{{end}}</td></tr>
<tr><th>Window</th><td>{{.Start.UTC.Format "15:04:05"}} - {{.End.UTC.Format "15:04:05"}}</td></tr>
<tr><th>Transitions</th><td>{{.Transitions}}</td></tr>
<tr><th>High / Low</th><td>{{ms .Totals.High}} / {{ms .Totals.Low}} over {{.Totals.Periods}} periods</td></tr>
{{else}}<tr><th>Duty cycle</th><td id="duty-cycle" class="unknown">waiting for first window</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Config.TopicPrefix}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Windows</h2>
<table>
<tr><th>Closed</th><td>{{.Counts.Windows}}</td></tr>
<tr><th>Measured</th><td>{{.Counts.Measured}}</td></tr>
<tr><th>Absent</th><td>{{.Counts.Absent}}</td></tr>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Window</th><td>{{.Config.WindowMs}}ms</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has methods but the template needs plain fields.
	dc, ok := snap.DutyCycle()
	data := struct {
		status.Snapshot
		Uptime       time.Duration
		DutyCycle    float64
		HasDutyCycle bool
	}{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		DutyCycle:    dc,
		HasDutyCycle: ok,
	}
	return indexTmpl.Execute(w, data)
}
