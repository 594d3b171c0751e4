package sensor

import (
	"math"
	"time"

	"github.com/sweeney/agritech/internal/random"
)

// Simulator generates synthetic readings. Its only state is the random source,
// so it is safe for concurrent use when the source is.
type Simulator struct {
	src random.Source
}

// NewSimulator creates a Simulator drawing noise from src.
func NewSimulator(src random.Source) *Simulator {
	return &Simulator{src: src}
}

// Generate produces a reading for the wall-clock time now. The daily curves
// use the integer hour only.
func (s *Simulator) Generate(now time.Time) Reading {
	hour := float64(now.Hour())
	baseTemp := 25 + 8*math.Sin((hour-6)*math.Pi/12)
	baseHumidity := 65 + 15*math.Sin((hour-12)*math.Pi/12)

	u := func(lo, hi float64) float64 { return random.Uniform(s.src, lo, hi) }

	r := Reading{Timestamp: now}
	r.SoilMoisture = clamp(45+u(-10, 10), 20, 80)
	r.SoilTemperature = clamp(baseTemp+u(-3, 3), 15, 35)
	r.SoilPH = clamp(6.8+u(-0.5, 0.5), 5.5, 8.5)
	r.AmbientTemperature = clamp(baseTemp+u(-2, 2), 18, 40)
	r.Humidity = clamp(baseHumidity+u(-5, 5), 30, 95)
	r.LightIntensity = clamp(1000+800*math.Sin((hour-6)*math.Pi/12), 0, 2000)
	r.WindSpeed = clamp(8+u(-3, 7), 0, 25)
	r.NPK = NPK{
		Nitrogen:   clamp(30+u(-5, 5), 10, 50),
		Phosphorus: clamp(20+u(-3, 3), 5, 30),
		Potassium:  clamp(25+u(-5, 5), 15, 45),
	}
	r.WeatherCondition = random.Choice(s.src, Conditions)
	r.UVIndex = clamp(6+u(-2, 3), 0, 11)
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
