// Package climate produces simulated climate risk assessments and weather
// forecasts for a farm location.
package climate

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sweeney/agritech/internal/advisor"
	"github.com/sweeney/agritech/internal/random"
)

// DefaultLocation labels forecasts when no location is configured.
const DefaultLocation = "Tamil Nadu, India"

// ForecastDays is the length of a forecast.
const ForecastDays = 7

// Risks holds the individual risk scores as percentages.
type Risks struct {
	Drought        float64 `json:"drought_risk"`
	Flood          float64 `json:"flood_risk"`
	HeatStress     float64 `json:"heat_stress_risk"`
	PestDisease    float64 `json:"pest_disease_risk"`
	ExtremeWeather float64 `json:"extreme_weather_risk"`
	Overall        float64 `json:"overall_risk_score"`
}

// Assessment is the response of Assess.
type Assessment struct {
	ClimateRisks         Risks    `json:"climate_risks"`
	AdaptationStrategies []string `json:"adaptation_strategies"`
	AIRecommendations    string   `json:"ai_recommendations"`
	RiskLevel            string   `json:"risk_level"`
	MitigationPriority   []string `json:"mitigation_priority"`
}

// Strategy sets added when a risk passes its threshold.
var (
	DroughtStrategies = []string{
		"Implement drip irrigation systems to reduce water usage by 40-60%",
		"Plant drought-resistant crop varieties",
		"Use mulching techniques to retain soil moisture",
		"Install rainwater harvesting systems",
	}
	HeatStrategies = []string{
		"Consider shade nets to reduce temperature stress",
		"Adjust planting schedules to avoid extreme heat periods",
		"Implement cooling systems for sensitive crops",
		"Use reflective mulches to reduce soil temperature",
	}
	FloodStrategies = []string{
		"Improve field drainage systems",
		"Create raised bed farming systems",
		"Plant flood-tolerant crop varieties",
		"Implement early warning systems",
	}
	MitigationPriority = []string{"Drought Management", "Heat Stress Reduction", "Flood Protection"}
)

// Service computes assessments and forecasts.
type Service struct {
	advisor  *advisor.Advisor
	rng      random.Source
	location string
}

// New creates a Service. An empty location uses DefaultLocation.
func New(adv *advisor.Advisor, rng random.Source, location string) *Service {
	if location == "" {
		location = DefaultLocation
	}
	if adv == nil {
		adv = advisor.New(nil, advisor.Options{})
	}
	return &Service{advisor: adv, rng: rng, location: location}
}

// Location returns the forecast location label.
func (s *Service) Location() string {
	return s.location
}

// RiskLevel buckets an overall risk score.
func RiskLevel(score float64) string {
	switch {
	case score > 70:
		return "High"
	case score > 40:
		return "Medium"
	default:
		return "Low"
	}
}

// Strategies returns the adaptation strategies triggered by r, in drought,
// heat, flood order.
func Strategies(r Risks) []string {
	out := []string{}
	if r.Drought > 70 {
		out = append(out, DroughtStrategies...)
	}
	if r.HeatStress > 60 {
		out = append(out, HeatStrategies...)
	}
	if r.Flood > 50 {
		out = append(out, FloodStrategies...)
	}
	return out
}

// Assess scores the climate risks for growing crop at location.
func (s *Service) Assess(ctx context.Context, location, crop string) Assessment {
	r := Risks{
		Drought:        random.Uniform(s.rng, 20, 85),
		Flood:          random.Uniform(s.rng, 15, 70),
		HeatStress:     random.Uniform(s.rng, 25, 80),
		PestDisease:    random.Uniform(s.rng, 30, 75),
		ExtremeWeather: random.Uniform(s.rng, 20, 65),
	}
	r.Overall = (r.Drought + r.Flood + r.HeatStress + r.PestDisease + r.ExtremeWeather) / 5

	prompt := advisor.ClimatePrompt(location, crop, r.Drought, r.HeatStress, r.Flood)
	return Assessment{
		ClimateRisks:         r,
		AdaptationStrategies: Strategies(r),
		AIRecommendations:    s.advisor.Advise(ctx, prompt, advisor.FallbackClimate),
		RiskLevel:            RiskLevel(r.Overall),
		MitigationPriority:   append([]string(nil), MitigationPriority...),
	}
}

// Day is one day of a forecast.
type Day struct {
	Date                string  `json:"date"`
	DayName             string  `json:"day_name"`
	TemperatureMax      float64 `json:"temperature_max"`
	TemperatureMin      float64 `json:"temperature_min"`
	Humidity            int     `json:"humidity"`
	RainfallProbability int     `json:"rainfall_probability"`
	RainfallAmount      float64 `json:"rainfall_amount"`
	WindSpeed           float64 `json:"wind_speed"`
	WindDirection       string  `json:"wind_direction"`
	UVIndex             int     `json:"uv_index"`
	WeatherCondition    string  `json:"weather_condition"`
	FarmingAdvisory     string  `json:"farming_advisory"`
}

// Forecast is the response of Forecast.
type Forecast struct {
	Days        []Day     `json:"forecast"`
	LastUpdated time.Time `json:"last_updated"`
	Location    string    `json:"location"`
}

var (
	windDirections    = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	weatherConditions = []string{"sunny", "partly_cloudy", "cloudy", "rainy", "thunderstorm"}
)

// SeasonalTemp is the baseline temperature for a day of the year, peaking
// around late June.
func SeasonalTemp(yearDay int) float64 {
	return 28 + 5*math.Sin(float64(yearDay-80)*2*math.Pi/365)
}

// Forecast simulates the next ForecastDays days starting at now.
func (s *Service) Forecast(now time.Time) Forecast {
	days := make([]Day, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		date := now.AddDate(0, 0, i)
		base := SeasonalTemp(date.YearDay())

		d := Day{
			Date:                date.Format(time.DateOnly),
			DayName:             date.Weekday().String(),
			TemperatureMax:      round1(base + random.Uniform(s.rng, 2, 6)),
			TemperatureMin:      round1(base - random.Uniform(s.rng, 3, 7)),
			Humidity:            random.IntRange(s.rng, 45, 85),
			RainfallProbability: random.IntRange(s.rng, 0, 100),
		}
		if s.rng.Float64() > 0.7 {
			d.RainfallAmount = round1(random.Uniform(s.rng, 0, 25))
		}
		d.WindSpeed = round1(random.Uniform(s.rng, 5, 20))
		d.WindDirection = random.Choice(s.rng, windDirections)
		d.UVIndex = random.IntRange(s.rng, 3, 10)
		d.WeatherCondition = random.Choice(s.rng, weatherConditions)
		// The advisory draws its own rain chance, independent of the one reported.
		d.FarmingAdvisory = Advisory(base, random.IntRange(s.rng, 0, 100))
		days = append(days, d)
	}
	return Forecast{Days: days, LastUpdated: now, Location: s.location}
}

// Advisory returns farming advice for a temperature and rain probability.
func Advisory(temp float64, rainProb int) string {
	var parts []string
	switch {
	case temp > 35:
		parts = append(parts, "High temperature - ensure adequate irrigation")
	case temp < 15:
		parts = append(parts, "Low temperature - protect sensitive crops")
	}
	switch {
	case rainProb > 70:
		parts = append(parts, "High rain probability - postpone spraying")
	case rainProb < 20:
		parts = append(parts, "Low rain chance - good for field operations")
	}
	if len(parts) == 0 {
		return "Favorable conditions for farming activities"
	}
	return strings.Join(parts, "; ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
