package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	Sensors       SensorsJSON     `json:"sensors"`
	Field         *FieldJSON      `json:"field,omitempty"`
	Models        map[string]bool `json:"models"`
	Advice        AdviceJSON      `json:"advice"`
	Ledger        LedgerJSON      `json:"ledger"`
	MQTT          MQTTStatus      `json:"mqtt"`
	LiveClients   int             `json:"live_clients"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// SensorsJSON reports the simulated sensor feed.
type SensorsJSON struct {
	Readings    int    `json:"readings"`
	LastReading string `json:"last_reading,omitempty"`
}

// FieldJSON reports the digital field inputs.
type FieldJSON struct {
	Rain   string     `json:"rain"`
	Dry    string     `json:"dry"`
	Ready  bool       `json:"ready"`
	Counts CountsJSON `json:"event_counts"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	RainStart int `json:"rain_start"`
	RainStop  int `json:"rain_stop"`
	SoilDry   int `json:"soil_dry"`
	SoilWet   int `json:"soil_wet"`
}

// AdviceJSON reports the generative advice backend.
type AdviceJSON struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model,omitempty"`
	Breaker string `json:"breaker,omitempty"`
}

// LedgerJSON reports the crop ledger.
type LedgerJSON struct {
	Records    int    `json:"records"`
	KafkaTopic string `json:"kafka_topic,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HTTPAddr         string `json:"http_addr"`
	SensorIntervalMs int64  `json:"sensor_interval_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	DebounceMs       int64  `json:"debounce_ms,omitempty"`
	ModelDir         string `json:"model_dir"`
	Location         string `json:"location"`
	PinRain          int    `json:"pin_rain,omitempty"`
	PinDry           int    `json:"pin_dry,omitempty"`
}

func stateOrUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Sensors:       SensorsJSON{Readings: snap.Readings},
		Models:        snap.Models,
		Advice: AdviceJSON{
			Enabled: snap.AdviceEnabled,
			Breaker: snap.BreakerState,
		},
		Ledger:      LedgerJSON{Records: snap.LedgerRecords, KafkaTopic: snap.Config.KafkaTopic},
		MQTT:        MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		LiveClients: snap.LiveClients,
		Config: ConfigJSON{
			HTTPAddr:         snap.Config.HTTPAddr,
			SensorIntervalMs: snap.Config.SensorIntervalMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			DebounceMs:       snap.Config.DebounceMs,
			ModelDir:         snap.Config.ModelDir,
			Location:         snap.Config.Location,
			PinRain:          snap.Config.PinRain,
			PinDry:           snap.Config.PinDry,
		},
	}
	if inner.Models == nil {
		inner.Models = map[string]bool{}
	}
	if snap.AdviceEnabled {
		inner.Advice.Model = snap.Config.GeminiModel
	}
	if snap.LastReading != nil {
		inner.Sensors.LastReading = snap.LastReading.UTC().Format(time.RFC3339)
	}
	if snap.FieldEnabled {
		inner.Field = &FieldJSON{
			Rain:  stateOrUnknown(string(snap.Rain)),
			Dry:   stateOrUnknown(string(snap.Dry)),
			Ready: snap.Baselined,
			Counts: CountsJSON{
				RainStart: snap.Counts.RainStart,
				RainStop:  snap.Counts.RainStop,
				SoilDry:   snap.Counts.SoilDry,
				SoilWet:   snap.Counts.SoilWet,
			},
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
