package logic

import (
	"sync"
	"time"
)

// Detector tracks both field inputs and detects debounced transitions.
// Process is called from the polling loop while FieldState is read by the
// sensor runner, so all state sits behind a mutex.
type Detector struct {
	mu            sync.Mutex
	debounce      time.Duration
	rain          channelState
	dry           channelState
	baselined     bool
	startTime     time.Time
	counts        EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a detector with the given debounce duration.
// startTime is used for uptime in heartbeats.
func NewDetector(debounce time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounce:      debounce,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new sample and returns any events that should be emitted.
// Events are only returned after both inputs are baselined.
func (d *Detector) Process(input Input) []Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	rainTo := d.step(&d.rain, toState(input.Rain), input.Time)
	dryTo := d.step(&d.dry, toState(input.Dry), input.Time)

	if !d.baselined {
		d.baselined = d.rain.baselined && d.dry.baselined
		return nil
	}

	var events []Event
	// RAIN first, then DRY when both change on the same sample.
	if rainTo != "" {
		events = append(events, d.event(input.Time, eventFor(ChannelRain, rainTo)))
	}
	if dryTo != "" {
		events = append(events, d.event(input.Time, eventFor(ChannelDry, dryTo)))
	}

	for _, e := range events {
		switch e.Type {
		case EventRainStart:
			d.counts.RainStart++
		case EventRainStop:
			d.counts.RainStop++
		case EventSoilDry:
			d.counts.SoilDry++
		case EventSoilWet:
			d.counts.SoilWet++
		}
	}
	return events
}

func (d *Detector) event(t time.Time, typ EventType) Event {
	return Event{Timestamp: t, Type: typ, Rain: d.rain.stable, Dry: d.dry.stable}
}

// step applies one sample to a channel and returns the new stable state when a
// debounced transition completes, or "" otherwise.
func (d *Detector) step(ch *channelState, s State, now time.Time) State {
	if !ch.baselined {
		if ch.pending != s {
			// First sample, or the input moved during baseline: restart.
			ch.pending = s
			ch.pendingSince = now
			return ""
		}
		if now.Sub(ch.pendingSince) >= d.debounce {
			ch.stable = s
			ch.baselined = true
			ch.pending = ""
		}
		return ""
	}

	if s == ch.stable {
		ch.pending = ""
		return ""
	}
	if ch.pending != s {
		ch.pending = s
		ch.pendingSince = now
		return ""
	}
	if now.Sub(ch.pendingSince) >= d.debounce {
		ch.stable = s
		ch.pending = ""
		return s
	}
	return ""
}

func toState(b bool) State {
	if b {
		return StateActive
	}
	return StateInactive
}

func eventFor(ch Channel, to State) EventType {
	switch {
	case ch == ChannelRain && to == StateActive:
		return EventRainStart
	case ch == ChannelRain:
		return EventRainStop
	case to == StateActive:
		return EventSoilDry
	default:
		return EventSoilWet
	}
}

// IsBaselined returns whether both inputs have a stable baseline.
func (d *Detector) IsBaselined() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.baselined
}

// CurrentState returns the current stable states.
func (d *Detector) CurrentState() (rain, dry State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rain.stable, d.dry.stable
}

// FieldState reports the stable inputs as booleans. ok is false before baseline.
func (d *Detector) FieldState() (rain, dry, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rain.stable == StateActive, d.dry.stable == StateActive, d.baselined
}

// Counts returns a copy of the event counters.
func (d *Detector) Counts() EventCounts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts
}

// CheckHeartbeat returns heartbeat data if interval has elapsed since the last
// heartbeat (or startup). Returns nil before the interval or when
// interval <= 0 (disabled). Heartbeats do not wait for a baseline, so a
// daemon without field inputs still reports.
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}
	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.counts,
	}
}
