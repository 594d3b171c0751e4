package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/agritech/internal/random"
)

func TestDashboardHistoryOldestFirst(t *testing.T) {
	now := time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)
	d := NewBuilder(random.New(42)).Dashboard(now)

	require.Len(t, d.HistoricalData, HistoryDays)
	assert.Equal(t, "2026-09-15", d.HistoricalData[0].Date)
	assert.Equal(t, "2026-10-14", d.HistoricalData[HistoryDays-1].Date)

	sum := 0
	for _, day := range d.HistoricalData {
		sum += day.PredictionsMade
		assert.GreaterOrEqual(t, day.PredictionsMade, 5)
		assert.LessOrEqual(t, day.PredictionsMade, 25)
		assert.GreaterOrEqual(t, day.SensorReadings, 100)
		assert.LessOrEqual(t, day.SensorReadings, 500)
		assert.GreaterOrEqual(t, day.AvgYield, 3.5)
		assert.Less(t, day.AvgYield, 7.2)
	}
	assert.Equal(t, sum, d.CurrentStats.TotalPredictions)
	assert.GreaterOrEqual(t, d.CurrentStats.ActiveFarms, 45)
	assert.LessOrEqual(t, d.CurrentStats.ActiveFarms, 75)
}

func TestDashboardFixedTables(t *testing.T) {
	d := NewBuilder(random.Fixed{}).Dashboard(time.Now())
	require.Len(t, d.TrendingCrops, 5)
	assert.Equal(t, TrendingCrop{"Rice", 156, 6.2}, d.TrendingCrops[0])
	require.Len(t, d.RegionalPerformance, 5)
	assert.Equal(t, "Andhra Pradesh", d.RegionalPerformance[4].State)

	// Mutating a response must not leak into the next one.
	d.TrendingCrops[0].Crop = "Millet"
	assert.Equal(t, "Rice", NewBuilder(random.Fixed{}).Dashboard(time.Now()).TrendingCrops[0].Crop)
}

func TestDashboardMinimumValues(t *testing.T) {
	d := NewBuilder(random.Fixed{F: 0, I: 0}).Dashboard(time.Now())
	assert.Equal(t, HistoryDays*5, d.CurrentStats.TotalPredictions)
	assert.Equal(t, 45, d.CurrentStats.ActiveFarms)
	assert.Equal(t, 150.0, d.CurrentStats.CarbonSaved)
}
