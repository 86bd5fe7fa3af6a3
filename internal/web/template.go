package web

import (
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		return logic.FormatDuration(d.Truncate(time.Second), true)
	},
	"remaining": logic.FormatTimeRemaining,
	"percent": func(p float64) int {
		return int(p*100 + 0.5)
	},
	"rfc3339": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Timely</title>
<style>
body { font: 14px/1.5 system-ui, sans-serif; max-width: 760px; margin: 1.5em auto; padding: 0 1em; color: #222; }
header { display: flex; justify-content: space-between; align-items: baseline; }
table { border-collapse: collapse; width: 100%; }
th, td { padding: 6px 8px; text-align: left; }
thead th { border-bottom: 2px solid #ccc; }
tbody tr + tr td { border-top: 1px solid #eee; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
progress { width: 100%; height: 0.8em; }
section { margin: 1.5em 0; }
.paused { color: #888; }
.error { color: #c2410c; }
.connected::before, .disconnected::before { content: "\25CF "; }
.connected::before { color: #16a34a; }
.disconnected::before { color: #dc2626; }
</style>
</head>
<body>
<header>
<h1>Timely</h1>
<span class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{.Config.Broker}}</span>
</header>

<section>
<table>
<thead><tr><th>Timer</th><th>Cycle progress</th><th>Left</th><th>#</th></tr></thead>
<tbody>
{{range .Timers}}{{if not .HasState}}<tr class="error"><td>{{.Name}}</td><td colspan="3">invalid configuration</td></tr>
{{else if not .Enabled}}<tr class="paused"><td>{{.Name}}</td><td><progress max="100" value="{{percent .State.Progress}}"></progress></td><td class="num">paused</td><td class="num">{{.State.CycleCount}}</td></tr>
{{else}}<tr><td>{{.Name}} <small>({{.Duration}})</small></td><td><progress max="100" value="{{percent .State.Progress}}"></progress></td><td class="num">{{remaining .State.Remaining}}</td><td class="num">{{.State.CycleCount}}</td></tr>
{{end}}{{else}}<tr><td colspan="4">no timers configured</td></tr>
{{end}}</tbody>
</table>
</section>

<section>
<table>
<tr><th>Notifications</th><td>{{if .NotificationsEnabled}}on{{else}}off{{end}}</td></tr>
<tr><th>Reminders sent</th><td>{{.FiredTotal}}{{with .LastFired}}, last {{.TimerID}}/{{.ReminderID}} at {{rfc3339 .At}}{{end}}</td></tr>
<tr><th>Running for</th><td>{{uptime .Uptime}} (since {{rfc3339 .StartTime}})</td></tr>
<tr><th>Polling</th><td>every {{.Config.TickMs}}ms, heartbeat {{if eq .Config.HeartbeatMs 0}}off{{else}}every {{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Config file</th><td><code>{{.Config.ConfigPath}}</code></td></tr>
</table>
</section>

<footer><a href="/index.json">index.json</a></footer>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has an Uptime method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
