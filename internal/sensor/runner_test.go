package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/agritech/internal/random"
)

type fakeField struct {
	rain, dry, ok bool
}

func (f fakeField) FieldState() (bool, bool, bool) { return f.rain, f.dry, f.ok }

func TestRunnerStepFansOut(t *testing.T) {
	var got []Reading
	sink := SinkFunc(func(r Reading) { got = append(got, r) })
	h := NewHistory(10)
	r := NewRunner(NewSimulator(random.Fixed{F: 0.5}), h, nil, nil, sink)

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	reading := r.Step(now)

	require.Len(t, got, 1)
	assert.Equal(t, reading, got[0])
	assert.Equal(t, 1, h.Len())
}

func TestRunnerOverlaysFieldInputs(t *testing.T) {
	h := NewHistory(10)
	r := NewRunner(NewSimulator(random.Fixed{F: 0.5, I: 0}), h, fakeField{rain: true, dry: false, ok: true}, nil)

	reading := r.Step(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	require.NotNil(t, reading.RainDetected)
	require.NotNil(t, reading.SoilDry)
	assert.True(t, *reading.RainDetected)
	assert.False(t, *reading.SoilDry)
	assert.Equal(t, "light_rain", reading.WeatherCondition)
}

func TestRunnerSkipsFieldBeforeBaseline(t *testing.T) {
	r := NewRunner(NewSimulator(random.Fixed{}), NewHistory(10), fakeField{rain: true, ok: false}, nil)
	reading := r.Step(time.Now())
	assert.Nil(t, reading.RainDetected)
}

func TestRunnerRunTicksUntilCancel(t *testing.T) {
	h := NewHistory(10)
	r := NewRunner(NewSimulator(random.New(1)), h, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, tick, time.Now) }()

	tick <- time.Now()
	tick <- time.Now()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	// One immediate reading plus one per tick.
	assert.Equal(t, 3, h.Len())
}
