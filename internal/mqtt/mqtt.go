// Package mqtt publishes sensor readings, field events and lifecycle events,
// with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/agritech/internal/logic"
	"github.com/sweeney/agritech/internal/sensor"
)

// Topics.
const (
	TopicReadings = "agri/sensors/readings"
	TopicField    = "agri/sensors/field"
	TopicSystem   = "agri/sensors/system"
)

// Publisher publishes messages to MQTT.
type Publisher interface {
	// PublishReading sends a simulated sensor reading.
	// Returns error if publishing fails (should not crash the process).
	PublishReading(r sensor.Reading) error

	// PublishField sends a debounced field input transition.
	PublishField(event logic.Event) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM" (shutdown only)
	RawPayload []byte // Pre-formatted JSON; returned as-is by FormatSystemPayload
	Retained   bool
}

// ReadingPayload wraps a reading on the readings topic.
type ReadingPayload struct {
	Reading sensor.Reading `json:"reading"`
}

// FormatReading creates the JSON payload for a sensor reading.
func FormatReading(r sensor.Reading) ([]byte, error) {
	return json.Marshal(ReadingPayload{Reading: r})
}

// FieldPayload represents a field event message.
type FieldPayload struct {
	Field FieldPayloadInner `json:"field"`
}

// FieldPayloadInner contains the field event details.
type FieldPayloadInner struct {
	Timestamp string       `json:"timestamp"`
	Event     string       `json:"event"`
	Rain      ChannelState `json:"rain"`
	Dry       ChannelState `json:"dry"`
}

// ChannelState represents a single input's state.
type ChannelState struct {
	State string `json:"state"`
}

// FormatField creates the JSON payload for a field event.
func FormatField(event logic.Event) ([]byte, error) {
	return json.Marshal(FieldPayload{
		Field: FieldPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Rain:      ChannelState{State: string(event.Rain)},
			Dry:       ChannelState{State: string(event.Dry)},
		},
	})
}

// SystemPayload is used for simple events (LWT, RECONNECTED) that don't carry
// a full status snapshot.
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
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
