// Package analytics builds the simulated usage dashboard.
package analytics

import (
	"time"

	"github.com/sweeney/agritech/internal/random"
)

// HistoryDays is the number of daily points in a dashboard.
const HistoryDays = 30

// DailyStats is one day of simulated platform activity.
type DailyStats struct {
	Date            string  `json:"date"`
	PredictionsMade int     `json:"predictions_made"`
	AvgYield        float64 `json:"avg_yield"`
	UserEngagement  float64 `json:"user_engagement"`
	SensorReadings  int     `json:"sensor_readings"`
}

// CurrentStats summarizes the platform today.
type CurrentStats struct {
	TotalPredictions    int     `json:"total_predictions"`
	ActiveFarms         int     `json:"active_farms"`
	AvgYieldImprovement float64 `json:"avg_yield_improvement"`
	CarbonSaved         float64 `json:"carbon_saved"`
	WaterSaved          float64 `json:"water_saved"`
	TotalAreaMonitored  float64 `json:"total_area_monitored"`
}

// TrendingCrop is a row of the trending crops table.
type TrendingCrop struct {
	Crop        string  `json:"crop"`
	Predictions int     `json:"predictions"`
	AvgYield    float64 `json:"avg_yield"`
}

// RegionalPerformance is a row of the regional table.
type RegionalPerformance struct {
	State        string  `json:"state"`
	YieldIndex   float64 `json:"yield_index"`
	AdoptionRate int     `json:"adoption_rate"`
}

// Dashboard is the response of Builder.Dashboard.
type Dashboard struct {
	HistoricalData      []DailyStats          `json:"historical_data"`
	CurrentStats        CurrentStats          `json:"current_stats"`
	TrendingCrops       []TrendingCrop        `json:"trending_crops"`
	RegionalPerformance []RegionalPerformance `json:"regional_performance"`
}

var trendingCrops = []TrendingCrop{
	{"Rice", 156, 6.2},
	{"Wheat", 134, 4.8},
	{"Cotton", 89, 3.4},
	{"Maize", 76, 5.1},
	{"Sugarcane", 45, 7.8},
}

var regionalPerformance = []RegionalPerformance{
	{"Tamil Nadu", 8.2, 78},
	{"Punjab", 7.9, 82},
	{"Karnataka", 7.5, 65},
	{"Maharashtra", 7.1, 71},
	{"Andhra Pradesh", 6.8, 59},
}

// Builder produces dashboards from a random source.
type Builder struct {
	rng random.Source
}

// NewBuilder creates a Builder.
func NewBuilder(rng random.Source) *Builder {
	return &Builder{rng: rng}
}

// Dashboard simulates the last HistoryDays days ending at now, oldest first.
func (b *Builder) Dashboard(now time.Time) Dashboard {
	history := make([]DailyStats, HistoryDays)
	total := 0
	// Generated newest first and stored in reverse.
	for i := 0; i < HistoryDays; i++ {
		d := DailyStats{
			Date:            now.AddDate(0, 0, -i).Format(time.DateOnly),
			PredictionsMade: random.IntRange(b.rng, 5, 25),
			AvgYield:        random.Uniform(b.rng, 3.5, 7.2),
			UserEngagement:  random.Uniform(b.rng, 65, 95),
			SensorReadings:  random.IntRange(b.rng, 100, 500),
		}
		total += d.PredictionsMade
		history[HistoryDays-1-i] = d
	}

	return Dashboard{
		HistoricalData: history,
		CurrentStats: CurrentStats{
			TotalPredictions:    total,
			ActiveFarms:         random.IntRange(b.rng, 45, 75),
			AvgYieldImprovement: random.Uniform(b.rng, 12, 28),
			CarbonSaved:         random.Uniform(b.rng, 150, 350),
			WaterSaved:          random.Uniform(b.rng, 1200, 2800),
			TotalAreaMonitored:  random.Uniform(b.rng, 125, 245),
		},
		TrendingCrops:       append([]TrendingCrop(nil), trendingCrops...),
		RegionalPerformance: append([]RegionalPerformance(nil), regionalPerformance...),
	}
}
