package climate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/agritech/internal/advisor"
	"github.com/sweeney/agritech/internal/random"
)

func TestAssessHighRisksAddAllStrategies(t *testing.T) {
	// F close to 1 pushes every risk to the top of its range.
	s := New(nil, random.Fixed{F: 0.999}, "")
	a := s.Assess(context.Background(), "Punjab", "Wheat")

	assert.InDelta(t, 85, a.ClimateRisks.Drought, 0.1)
	assert.InDelta(t, 70, a.ClimateRisks.Flood, 0.1)
	want := (a.ClimateRisks.Drought + a.ClimateRisks.Flood + a.ClimateRisks.HeatStress +
		a.ClimateRisks.PestDisease + a.ClimateRisks.ExtremeWeather) / 5
	assert.InDelta(t, want, a.ClimateRisks.Overall, 1e-9)
	assert.Len(t, a.AdaptationStrategies, 12)
	assert.Equal(t, DroughtStrategies[0], a.AdaptationStrategies[0])
	assert.Equal(t, HeatStrategies[0], a.AdaptationStrategies[4])
	assert.Equal(t, FloodStrategies[0], a.AdaptationStrategies[8])
	assert.Equal(t, "High", a.RiskLevel)
	assert.Equal(t, advisor.FallbackClimate, a.AIRecommendations)
	assert.Equal(t, MitigationPriority, a.MitigationPriority)
}

func TestAssessLowRisks(t *testing.T) {
	s := New(nil, random.Fixed{F: 0}, "")
	a := s.Assess(context.Background(), "x", "y")
	assert.NotNil(t, a.AdaptationStrategies)
	assert.Empty(t, a.AdaptationStrategies)
	assert.Equal(t, "Low", a.RiskLevel)
}

func TestAssessUsesAdvisor(t *testing.T) {
	var got string
	gen := advisor.GeneratorFunc(func(_ context.Context, p string) (string, error) {
		got = p
		return "plant early", nil
	})
	s := New(advisor.New(gen, advisor.Options{}), random.Fixed{F: 0}, "")
	a := s.Assess(context.Background(), "Kerala", "Rice")
	assert.Equal(t, "plant early", a.AIRecommendations)
	assert.Contains(t, got, "Kerala growing Rice")
	assert.Contains(t, got, "Drought Risk: 20.0%")
}

func TestStrategiesThresholds(t *testing.T) {
	tests := []struct {
		name string
		r    Risks
		want int
	}{
		{"none at thresholds", Risks{Drought: 70, HeatStress: 60, Flood: 50}, 0},
		{"drought only", Risks{Drought: 70.1}, 4},
		{"heat and flood", Risks{HeatStress: 61, Flood: 51}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Strategies(tt.r), tt.want)
		})
	}
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, "High", RiskLevel(70.5))
	assert.Equal(t, "Medium", RiskLevel(70))
	assert.Equal(t, "Medium", RiskLevel(40.1))
	assert.Equal(t, "Low", RiskLevel(40))
}

func TestForecastShape(t *testing.T) {
	now := time.Date(2026, time.June, 29, 9, 0, 0, 0, time.UTC) // a Monday
	s := New(nil, random.New(7), "")
	f := s.Forecast(now)

	require.Len(t, f.Days, ForecastDays)
	assert.Equal(t, DefaultLocation, f.Location)
	assert.Equal(t, now, f.LastUpdated)
	assert.Equal(t, "2026-06-29", f.Days[0].Date)
	assert.Equal(t, "Monday", f.Days[0].DayName)
	assert.Equal(t, "2026-07-05", f.Days[6].Date)

	for _, d := range f.Days {
		assert.GreaterOrEqual(t, d.Humidity, 45)
		assert.LessOrEqual(t, d.Humidity, 85)
		assert.GreaterOrEqual(t, d.UVIndex, 3)
		assert.LessOrEqual(t, d.UVIndex, 10)
		assert.GreaterOrEqual(t, d.RainfallAmount, 0.0)
		assert.LessOrEqual(t, d.RainfallAmount, 25.0)
		assert.Greater(t, d.TemperatureMax, d.TemperatureMin)
		assert.Contains(t, windDirections, d.WindDirection)
		assert.Contains(t, weatherConditions, d.WeatherCondition)
		assert.NotEmpty(t, d.FarmingAdvisory)
	}
}

func TestForecastNoRainBelowThreshold(t *testing.T) {
	s := New(nil, random.Fixed{F: 0.5}, "Nashik, India")
	f := s.Forecast(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Nashik, India", f.Location)
	for _, d := range f.Days {
		assert.Zero(t, d.RainfallAmount)
	}
}

func TestSeasonalTemp(t *testing.T) {
	assert.InDelta(t, 28, SeasonalTemp(80), 1e-9)
	assert.InDelta(t, 33, SeasonalTemp(80+365/4), 0.01)
}

func TestAdvisory(t *testing.T) {
	tests := []struct {
		temp float64
		rain int
		want string
	}{
		{36, 80, "High temperature - ensure adequate irrigation; High rain probability - postpone spraying"},
		{14, 10, "Low temperature - protect sensitive crops; Low rain chance - good for field operations"},
		{25, 50, "Favorable conditions for farming activities"},
		{35, 70, "Favorable conditions for farming activities"},
		{15, 20, "Favorable conditions for farming activities"},
		{25, 19, "Low rain chance - good for field operations"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Advisory(tt.temp, tt.rain), "temp=%v rain=%v", tt.temp, tt.rain)
	}
}
