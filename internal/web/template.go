package web

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/sweeney/agritech/internal/status"
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
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AgriTech</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>AgriTech Farm Monitor<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Sensors</h2>
<table>
<tr><th>Readings</th><td id="readings">{{.Readings}}</td></tr>
<tr><th>Last reading</th><td id="last-reading">{{if .LastReading}}{{.LastReading.UTC.Format "2006-01-02T15:04:05Z"}}{{else}}none{{end}}</td></tr>
<tr><th>Soil moisture</th><td id="soil-moisture">-</td></tr>
<tr><th>Ambient temperature</th><td id="ambient-temp">-</td></tr>
<tr><th>Humidity</th><td id="humidity">-</td></tr>
<tr><th>Condition</th><td id="condition">-</td></tr>
</table>
{{if .FieldEnabled}}
<h2>Field Inputs</h2>
<table>
<tr><th>Rain</th><td class="{{if eq (stateOrUnknown (printf "%s" .Rain)) "ACTIVE"}}on{{else if eq (stateOrUnknown (printf "%s" .Rain)) "INACTIVE"}}off{{else}}unknown{{end}}">{{stateOrUnknown (printf "%s" .Rain)}}</td></tr>
<tr><th>Soil dry</th><td class="{{if eq (stateOrUnknown (printf "%s" .Dry)) "ACTIVE"}}on{{else if eq (stateOrUnknown (printf "%s" .Dry)) "INACTIVE"}}off{{else}}unknown{{end}}">{{stateOrUnknown (printf "%s" .Dry)}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
<tr><th>Rain start / stop</th><td>{{.Counts.RainStart}} / {{.Counts.RainStop}}</td></tr>
<tr><th>Soil dry / wet</th><td>{{.Counts.SoilDry}} / {{.Counts.SoilWet}}</td></tr>
</table>
{{end}}
<h2>Services</h2>
<table>
{{range .ModelNames}}<tr><th>{{.Name}}</th><td class="{{if .Loaded}}connected{{else}}disconnected{{end}}">{{if .Loaded}}loaded{{else}}simulated{{end}}</td></tr>
{{end}}<tr><th>AI advice</th><td>{{if .AdviceEnabled}}{{.Config.GeminiModel}} ({{.BreakerState}}){{else}}fallback only{{end}}</td></tr>
<tr><th>Ledger records</th><td>{{.LedgerRecords}}</td></tr>
<tr><th>Live clients</th><td>{{.LiveClients}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Location</th><td>{{.Config.Location}}</td></tr>
<tr><th>Sensor interval</th><td>{{.Config.SensorIntervalMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/api/sensor-data">Sensor data</a> | <a href="/metrics">Metrics</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var count = document.getElementById("readings");
  var last = document.getElementById("last-reading");
  var moisture = document.getElementById("soil-moisture");
  var temp = document.getElementById("ambient-temp");
  var humidity = document.getElementById("humidity");
  var condition = document.getElementById("condition");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.event !== "sensor_update") {
          return;
        }
        var r = msg.data;
        count.textContent = parseInt(count.textContent, 10) + 1;
        last.textContent = r.timestamp;
        moisture.textContent = r.soil_moisture.toFixed(1) + "%";
        temp.textContent = r.ambient_temperature.toFixed(1) + " C";
        humidity.textContent = r.humidity.toFixed(1) + "%";
        condition.textContent = r.weather_condition;
      } catch (e) {}
    };
  }

  connect();
})();
</script>
</body>
</html>
`

type modelRow struct {
	Name   string
	Loaded bool
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	names := make([]modelRow, 0, len(snap.Models))
	for name, loaded := range snap.Models {
		names = append(names, modelRow{Name: name, Loaded: loaded})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Name < names[j].Name })

	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		ModelNames []modelRow
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		ModelNames: names,
	}
	return indexTmpl.Execute(w, data)
}
