// Package logic debounces the farm's digital field inputs.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the logical state of a field input.
type State string

const (
	StateActive   State = "ACTIVE"
	StateInactive State = "INACTIVE"
)

// Channel identifies a digital field input.
type Channel string

const (
	// ChannelRain is the rain-sensor module output.
	ChannelRain Channel = "RAIN"
	// ChannelDry is the soil-moisture module's threshold output.
	ChannelDry Channel = "DRY"
)

// EventType represents a debounced state transition.
type EventType string

const (
	EventRainStart EventType = "RAIN_START"
	EventRainStop  EventType = "RAIN_STOP"
	EventSoilDry   EventType = "SOIL_DRY"
	EventSoilWet   EventType = "SOIL_WET"
)

// Event represents a field transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Rain      State
	Dry       State
}

// channelState tracks debounce state for a single input.
type channelState struct {
	// Current stable (debounced) state
	stable State
	// Pending state during debounce
	pending State
	// Time when pending state was first observed
	pendingSince time.Time
	// Whether we have established a baseline
	baselined bool
}

// Input represents a single sample of both inputs, already in logical form.
type Input struct {
	Rain bool // true = rain on the sensor plate
	Dry  bool // true = soil below the module's threshold
	Time time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	RainStart int
	RainStop  int
	SoilDry   int
	SoilWet   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
