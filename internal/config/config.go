// Package config loads daemon settings from the environment.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. Defaults come from envDefault tags;
// command-line flags registered by BindFlags override the environment.
type Config struct {
	HTTPAddr       string        `env:"AGRITECH_HTTP_ADDR"        envDefault:":5000"`
	SensorInterval time.Duration `env:"AGRITECH_SENSOR_INTERVAL"  envDefault:"10s"`
	HistorySize    int           `env:"AGRITECH_HISTORY_SIZE"     envDefault:"100"`
	ModelDir       string        `env:"AGRITECH_MODEL_DIR"        envDefault:"models"`
	Location       string        `env:"AGRITECH_LOCATION"         envDefault:"Tamil Nadu, India"`
	Seed           int64         `env:"AGRITECH_SEED"             envDefault:"0"`
	MaxUploadBytes int64         `env:"AGRITECH_MAX_UPLOAD_BYTES" envDefault:"16777216"`
	DefaultPoints  int           `env:"AGRITECH_DEFAULT_POINTS"   envDefault:"250"`

	Broker    string        `env:"AGRITECH_MQTT_BROKER"    envDefault:""`
	ClientID  string        `env:"AGRITECH_MQTT_CLIENT_ID" envDefault:"agritech"`
	Heartbeat time.Duration `env:"AGRITECH_HEARTBEAT"      envDefault:"15m"`

	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"AGRITECH_GEMINI_MODEL"     envDefault:"gemini-1.5-flash"`
	AdviceTimeout  time.Duration `env:"AGRITECH_ADVICE_TIMEOUT"   envDefault:"15s"`
	BreakerFails   int           `env:"AGRITECH_BREAKER_FAILURES" envDefault:"3"`
	BreakerTimeout time.Duration `env:"AGRITECH_BREAKER_RESET"    envDefault:"30s"`

	KafkaBrokers []string `env:"AGRITECH_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"AGRITECH_KAFKA_TOPIC"   envDefault:"agritech.crop-records"`

	PinRain  int           `env:"AGRITECH_PIN_RAIN"  envDefault:"0"`
	PinDry   int           `env:"AGRITECH_PIN_DRY"   envDefault:"0"`
	Poll     time.Duration `env:"AGRITECH_GPIO_POLL" envDefault:"100ms"`
	Debounce time.Duration `env:"AGRITECH_DEBOUNCE"  envDefault:"2s"`

	Debug     bool   `env:"AGRITECH_DEBUG"      envDefault:"false"`
	LogFormat string `env:"AGRITECH_LOG_FORMAT" envDefault:"json"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BindFlags registers a flag for each setting except secrets, using the
// current values as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "HTTP listen address")
	fs.DurationVar(&c.SensorInterval, "sensor-interval", c.SensorInterval, "Simulated sensor reading interval")
	fs.IntVar(&c.HistorySize, "history", c.HistorySize, "Number of sensor readings kept in memory")
	fs.StringVar(&c.ModelDir, "models", c.ModelDir, "Directory holding exported model files")
	fs.StringVar(&c.Location, "location", c.Location, "Location label for weather forecasts")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed (0 picks one at startup)")
	fs.Int64Var(&c.MaxUploadBytes, "max-upload", c.MaxUploadBytes, "Maximum request body size in bytes")
	fs.IntVar(&c.DefaultPoints, "default-points", c.DefaultPoints, "Points seeded for the default user")

	fs.StringVar(&c.Broker, "broker", c.Broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&c.ClientID, "client-id", c.ClientID, "MQTT client id")
	fs.DurationVar(&c.Heartbeat, "heartbeat", c.Heartbeat, "Heartbeat interval (0 to disable)")

	fs.StringVar(&c.GeminiModel, "gemini-model", c.GeminiModel, "Generative model used for advice")
	fs.DurationVar(&c.AdviceTimeout, "advice-timeout", c.AdviceTimeout, "Timeout for one advice request")
	fs.IntVar(&c.BreakerFails, "breaker-failures", c.BreakerFails, "Consecutive failures that open a circuit breaker")
	fs.DurationVar(&c.BreakerTimeout, "breaker-reset", c.BreakerTimeout, "Time an open circuit breaker waits before a trial call")

	fs.Func("kafka-brokers", "Comma separated Kafka brokers for ledger export (empty to disable)", func(s string) error {
		c.KafkaBrokers = SplitList(s)
		return nil
	})
	fs.StringVar(&c.KafkaTopic, "kafka-topic", c.KafkaTopic, "Kafka topic for ledger export")

	fs.IntVar(&c.PinRain, "pin-rain", c.PinRain, "BCM pin of the rain sensor digital output (0 to disable)")
	fs.IntVar(&c.PinDry, "pin-dry", c.PinDry, "BCM pin of the soil moisture digital output (0 to disable)")
	fs.DurationVar(&c.Poll, "poll", c.Poll, "GPIO polling interval")
	fs.DurationVar(&c.Debounce, "debounce", c.Debounce, "Debounce duration for field inputs")

	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, `Log encoding: "json" or "console"`)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch {
	case c.SensorInterval <= 0:
		return fmt.Errorf("sensor interval must be positive, got %v", c.SensorInterval)
	case c.HistorySize <= 0:
		return fmt.Errorf("history size must be positive, got %d", c.HistorySize)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("max upload must be positive, got %d", c.MaxUploadBytes)
	case (c.PinRain > 0 || c.PinDry > 0) && c.Poll <= 0:
		return fmt.Errorf("gpio poll interval must be positive, got %v", c.Poll)
	case c.LogFormat != "json" && c.LogFormat != "console":
		return fmt.Errorf("log format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// GPIOEnabled reports whether both field input pins are configured.
func (c Config) GPIOEnabled() bool {
	return c.PinRain > 0 && c.PinDry > 0
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
