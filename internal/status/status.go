// Package status provides a thread-safe status tracker for the agritech daemon.
// It is read by the HTTP status page and by the MQTT lifecycle events.
package status

import (
	"maps"
	"sync"
	"time"

	"github.com/sweeney/agritech/internal/logic"
	"github.com/sweeney/agritech/internal/sensor"
)

// NetworkInfo contains network state as reported by the host helper.
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
	HTTPAddr         string
	SensorIntervalMs int64
	HeartbeatMs      int64
	DebounceMs       int64
	Broker           string
	ModelDir         string
	Location         string
	GeminiModel      string
	KafkaTopic       string // empty = export disabled
	PinRain          int
	PinDry           int
}

// Probes read live values from other components each time a snapshot is
// taken. Any probe may be nil.
type Probes struct {
	MQTTConnected func() bool
	LedgerRecords func() int
	BreakerState  func() string
	LiveClients   func() int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	StartTime time.Time
	Now       time.Time
	Config    Config

	Readings    int
	LastReading *time.Time

	FieldEnabled bool
	Rain         logic.State
	Dry          logic.State
	Baselined    bool
	Counts       logic.EventCounts

	Models        map[string]bool
	AdviceEnabled bool
	BreakerState  string
	MQTTConnected bool
	LedgerRecords int
	LiveClients   int
	Network       *NetworkInfo
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	probes Probes
	now    func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:    startTime,
			Config:       cfg,
			FieldEnabled: cfg.PinRain > 0 && cfg.PinDry > 0,
		},
		now: time.Now,
	}
}

// SetProbes installs the live value readers.
func (t *Tracker) SetProbes(p Probes) {
	t.mu.Lock()
	t.probes = p
	t.mu.Unlock()
}

// SetModels records which model files were loaded.
func (t *Tracker) SetModels(available map[string]bool) {
	t.mu.Lock()
	t.snap.Models = maps.Clone(available)
	t.mu.Unlock()
}

// SetAdviceEnabled records whether a generative model is configured.
func (t *Tracker) SetAdviceEnabled(enabled bool) {
	t.mu.Lock()
	t.snap.AdviceEnabled = enabled
	t.mu.Unlock()
}

// HandleReading counts a sensor reading. It implements sensor.Sink.
func (t *Tracker) HandleReading(r sensor.Reading) {
	ts := r.Timestamp
	t.mu.Lock()
	t.snap.Readings++
	t.snap.LastReading = &ts
	t.mu.Unlock()
}

// UpdateField sets the debounced field input states and event counts.
// Called from the GPIO loop on every tick.
func (t *Tracker) UpdateField(rain, dry logic.State, baselined bool, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Rain = rain
	t.snap.Dry = dry
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status. A MQTTConnected probe,
// if installed, takes precedence.
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
	p := t.probes
	t.mu.RUnlock()

	s.Models = maps.Clone(s.Models)
	if s.LastReading != nil {
		ts := *s.LastReading
		s.LastReading = &ts
	}
	if p.MQTTConnected != nil {
		s.MQTTConnected = p.MQTTConnected()
	}
	if p.LedgerRecords != nil {
		s.LedgerRecords = p.LedgerRecords()
	}
	if p.BreakerState != nil {
		s.BreakerState = p.BreakerState()
	}
	if p.LiveClients != nil {
		s.LiveClients = p.LiveClients()
	}
	s.Now = t.now()
	return s
}
