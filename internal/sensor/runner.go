package sensor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink receives every generated reading. Implementations must not block for
// long; they run on the simulator goroutine.
type Sink interface {
	HandleReading(r Reading)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(r Reading)

// HandleReading calls f(r).
func (f SinkFunc) HandleReading(r Reading) { f(r) }

// FieldState reports the latest debounced digital inputs.
// ok is false until both inputs have a stable baseline.
type FieldState interface {
	FieldState() (rain, dry, ok bool)
}

// Runner drives the simulator: on every tick it generates a reading, overlays
// the field inputs, stores it and fans it out to the sinks.
type Runner struct {
	sim     *Simulator
	history *History
	field   FieldState
	sinks   []Sink
	log     *zap.Logger
}

// NewRunner wires a Runner. field may be nil when no digital inputs exist.
func NewRunner(sim *Simulator, history *History, field FieldState, logger *zap.Logger, sinks ...Sink) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		sim:     sim,
		history: history,
		field:   field,
		sinks:   sinks,
		log:     logger,
	}
}

// Step generates and distributes one reading for time now.
func (r *Runner) Step(now time.Time) Reading {
	reading := r.sim.Generate(now)
	if r.field != nil {
		if rain, dry, ok := r.field.FieldState(); ok {
			reading.RainDetected = &rain
			reading.SoilDry = &dry
			if rain {
				reading.WeatherCondition = "light_rain"
			}
		}
	}

	r.history.Add(reading)
	for _, s := range r.sinks {
		s.HandleReading(reading)
	}
	r.log.Debug("sensor reading",
		zap.Float64("soil_moisture", reading.SoilMoisture),
		zap.Float64("ambient_temperature", reading.AmbientTemperature),
		zap.String("weather", reading.WeatherCondition))
	return reading
}

// Run emits a reading immediately and then one per tick until ctx is done.
// now supplies the reading timestamps.
func (r *Runner) Run(ctx context.Context, tick <-chan time.Time, now func() time.Time) error {
	r.Step(now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			r.Step(now())
		}
	}
}
