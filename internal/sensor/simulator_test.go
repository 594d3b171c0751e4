package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/agritech/internal/random"
)

func TestGenerateNoonMidpoint(t *testing.T) {
	sim := NewSimulator(random.Fixed{F: 0.5, I: 0})
	now := time.Date(2026, 6, 1, 12, 30, 0, 0, time.UTC)

	r := sim.Generate(now)

	assert.Equal(t, now, r.Timestamp)
	assert.InDelta(t, 45, r.SoilMoisture, 1e-9)
	assert.InDelta(t, 33, r.SoilTemperature, 1e-9)
	assert.InDelta(t, 6.8, r.SoilPH, 1e-9)
	assert.InDelta(t, 33, r.AmbientTemperature, 1e-9)
	assert.InDelta(t, 65, r.Humidity, 1e-9)
	assert.InDelta(t, 1800, r.LightIntensity, 1e-9)
	assert.InDelta(t, 10, r.WindSpeed, 1e-9)
	assert.InDelta(t, 30, r.NPK.Nitrogen, 1e-9)
	assert.InDelta(t, 20, r.NPK.Phosphorus, 1e-9)
	assert.InDelta(t, 25, r.NPK.Potassium, 1e-9)
	assert.Equal(t, "sunny", r.WeatherCondition)
	assert.InDelta(t, 6.5, r.UVIndex, 1e-9)
	assert.Nil(t, r.RainDetected)
	assert.Nil(t, r.SoilDry)
}

func TestGenerateMidnightClamps(t *testing.T) {
	sim := NewSimulator(random.Fixed{F: 0, I: 3})
	r := sim.Generate(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	// base temp at midnight is 17; low noise pushes both below their floors.
	assert.InDelta(t, 15, r.SoilTemperature, 1e-9)
	assert.InDelta(t, 18, r.AmbientTemperature, 1e-9)
	assert.InDelta(t, 200, r.LightIntensity, 1e-9)
	assert.Equal(t, "light_rain", r.WeatherCondition)
}

func TestGenerateAlwaysWithinRanges(t *testing.T) {
	sim := NewSimulator(random.New(11))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*20; i++ {
		r := sim.Generate(start.Add(time.Duration(i) * 3 * time.Minute))
		require.GreaterOrEqual(t, r.SoilMoisture, 20.0)
		require.LessOrEqual(t, r.SoilMoisture, 80.0)
		require.GreaterOrEqual(t, r.SoilPH, 5.5)
		require.LessOrEqual(t, r.SoilPH, 8.5)
		require.GreaterOrEqual(t, r.Humidity, 30.0)
		require.LessOrEqual(t, r.Humidity, 95.0)
		require.GreaterOrEqual(t, r.LightIntensity, 0.0)
		require.LessOrEqual(t, r.LightIntensity, 2000.0)
		require.GreaterOrEqual(t, r.UVIndex, 0.0)
		require.LessOrEqual(t, r.UVIndex, 11.0)
		require.Contains(t, Conditions, r.WeatherCondition)
	}
}
