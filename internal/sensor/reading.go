// Package sensor simulates the farm's IoT sensor feed.
//
// Readings are synthetic: daily sinusoidal base curves for temperature,
// humidity and light plus uniform noise, clamped to plausible field ranges.
// Digital field inputs (rain and soil-dry modules) can be overlaid when the
// hardware is present.
package sensor

import "time"

// Weather conditions produced by the simulator.
var Conditions = []string{"sunny", "partly_cloudy", "cloudy", "light_rain"}

// Reading is a single snapshot of every simulated sensor.
type Reading struct {
	Timestamp          time.Time `json:"timestamp"`
	SoilMoisture       float64   `json:"soil_moisture"`
	SoilTemperature    float64   `json:"soil_temperature"`
	SoilPH             float64   `json:"soil_ph"`
	AmbientTemperature float64   `json:"ambient_temperature"`
	Humidity           float64   `json:"humidity"`
	LightIntensity     float64   `json:"light_intensity"`
	WindSpeed          float64   `json:"wind_speed"`
	NPK                NPK       `json:"npk_levels"`
	WeatherCondition   string    `json:"weather_condition"`
	UVIndex            float64   `json:"uv_index"`

	// Set only when digital field inputs are wired.
	RainDetected *bool `json:"rain_detected,omitempty"`
	SoilDry      *bool `json:"soil_dry,omitempty"`
}

// NPK holds macro-nutrient levels.
type NPK struct {
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
}

// Averages are the mean values over a window of recent readings.
type Averages struct {
	SoilMoisture       float64 `json:"soil_moisture"`
	SoilTemperature    float64 `json:"soil_temperature"`
	AmbientTemperature float64 `json:"ambient_temperature"`
	Humidity           float64 `json:"humidity"`
	SoilPH             float64 `json:"soil_ph"`
}

// Summary is the payload of the sensor-data endpoint.
type Summary struct {
	RecentReadings []Reading  `json:"recent_readings"`
	Averages       Averages   `json:"averages"`
	Status         string     `json:"status"`
	LastUpdate     *time.Time `json:"last_update"`
}

// SummaryWindow is the number of readings the summary averages over.
const SummaryWindow = 10

// Summarize averages the given readings. An empty slice yields zero averages
// and an offline status.
func Summarize(recent []Reading) Summary {
	s := Summary{RecentReadings: recent, Status: "offline"}
	if s.RecentReadings == nil {
		s.RecentReadings = []Reading{}
	}
	if len(recent) == 0 {
		return s
	}

	var a Averages
	for _, r := range recent {
		a.SoilMoisture += r.SoilMoisture
		a.SoilTemperature += r.SoilTemperature
		a.AmbientTemperature += r.AmbientTemperature
		a.Humidity += r.Humidity
		a.SoilPH += r.SoilPH
	}
	n := float64(len(recent))
	a.SoilMoisture /= n
	a.SoilTemperature /= n
	a.AmbientTemperature /= n
	a.Humidity /= n
	a.SoilPH /= n

	last := recent[len(recent)-1].Timestamp
	s.Averages = a
	s.Status = "online"
	s.LastUpdate = &last
	return s
}
