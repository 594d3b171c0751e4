// Command agritech serves the farm advisory API, simulates field sensors and
// publishes readings and lifecycle events to MQTT.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/advisor"
	"github.com/sweeney/agritech/internal/analytics"
	"github.com/sweeney/agritech/internal/breaker"
	"github.com/sweeney/agritech/internal/climate"
	"github.com/sweeney/agritech/internal/config"
	"github.com/sweeney/agritech/internal/game"
	"github.com/sweeney/agritech/internal/gpio"
	"github.com/sweeney/agritech/internal/ledger"
	"github.com/sweeney/agritech/internal/live"
	"github.com/sweeney/agritech/internal/logging"
	"github.com/sweeney/agritech/internal/logic"
	"github.com/sweeney/agritech/internal/metrics"
	"github.com/sweeney/agritech/internal/models"
	"github.com/sweeney/agritech/internal/mqtt"
	"github.com/sweeney/agritech/internal/predict"
	"github.com/sweeney/agritech/internal/random"
	"github.com/sweeney/agritech/internal/sensor"
	"github.com/sweeney/agritech/internal/status"
	"github.com/sweeney/agritech/internal/web"
)

// housekeepingInterval drives heartbeat checks when no field inputs are polled.
const housekeepingInterval = time.Second

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	printReading := flag.Bool("print-reading", false, "Print one simulated sensor reading as JSON and exit")
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Debug, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *printReading, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func run(cfg config.Config, printReading bool, logger *zap.Logger) error {
	seed := cfg.Seed
	if seed == 0 {
		s, err := random.NewSeed()
		if err != nil {
			return fmt.Errorf("seed random source: %w", err)
		}
		seed = s
	}
	rng := random.New(seed)

	// Print reading mode
	if printReading {
		data, err := json.MarshalIndent(sensor.NewSimulator(rng).Generate(time.Now()), "", "  ")
		if err != nil {
			return fmt.Errorf("encode reading: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	m := metrics.New()
	set := models.Load(cfg.ModelDir, logger)

	adv, err := newAdvisor(ctx, cfg, m, logger)
	if err != nil {
		return err
	}

	ledgerOpts := ledger.Options{Logger: logger, Observer: m.SetLedgerRecords}
	var kafkaSink *ledger.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err = ledger.NewKafkaSink(ledger.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Breaker: breaker.Config{MaxFailures: cfg.BreakerFails, ResetTimeout: cfg.BreakerTimeout},
		}, logger)
		if err != nil {
			return fmt.Errorf("init kafka export: %w", err)
		}
		kafkaSink.Start(ctx)
		ledgerOpts.Sink = kafkaSink
	}
	chain := ledger.New(rng, ledgerOpts)

	store := game.NewStore(cfg.DefaultPoints, logger)
	store.OnAward(m.PointsAwarded)

	hub := live.NewHub(logger, m.SetLiveClients)

	// Initialize MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, logger)
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(start, statusConfig(cfg))
	tracker.SetModels(set.Available())
	tracker.SetAdviceEnabled(adv.Enabled())
	probes := status.Probes{
		LedgerRecords: chain.Len,
		BreakerState:  func() string { return adv.BreakerState().String() },
		LiveClients:   hub.Clients,
	}
	if mqttStatus != nil {
		probes.MQTTConnected = mqttStatus.IsConnected
	}
	tracker.SetProbes(probes)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Initialize field inputs
	detector := logic.NewDetector(cfg.Debounce, start)
	var reader gpio.Reader
	var field sensor.FieldState
	if cfg.GPIOEnabled() {
		r, err := gpio.NewRealReader(cfg.PinRain, cfg.PinDry)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer r.Close()
		reader, field = r, detector
	}

	sinks := []sensor.Sink{hub, tracker, sensor.SinkFunc(func(sensor.Reading) { m.SensorReading() })}
	if publisher != nil {
		sinks = append(sinks, sensor.SinkFunc(func(r sensor.Reading) {
			if err := publisher.PublishReading(r); err != nil {
				logger.Warn("publish reading", zap.Error(err))
			}
		}))
	}
	history := sensor.NewHistory(cfg.HistorySize)
	runner := sensor.NewRunner(sensor.NewSimulator(rng), history, field, logger, sinks...)

	sensorTicker := time.NewTicker(cfg.SensorInterval)
	defer sensorTicker.Stop()
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		runner.Run(ctx, sensorTicker.C, time.Now)
	}()

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			logger.Warn("publish startup event", zap.Error(err))
		} else {
			logger.Info("published startup event")
		}
	}

	// Start HTTP server
	srv := web.New(cfg.HTTPAddr, web.Deps{
		Tracker:        tracker,
		Predict:        predict.New(set, adv, rng, logger),
		Climate:        climate.New(adv, rng, cfg.Location),
		Ledger:         chain,
		Game:           store,
		Analytics:      analytics.NewBuilder(rng),
		History:        history,
		Live:           hub,
		Metrics:        m,
		Logger:         logger,
		AccessLog:      os.Stdout,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
		}
	}()

	logger.Info("started",
		zap.String("http", cfg.HTTPAddr),
		zap.Duration("sensor_interval", cfg.SensorInterval),
		zap.String("broker", cfg.Broker),
		zap.Duration("heartbeat", cfg.Heartbeat),
		zap.Bool("field_inputs", reader != nil),
		zap.Bool("advice", adv.Enabled()),
		zap.Bool("kafka", kafkaSink != nil),
		zap.Int64("seed", seed))

	interval := housekeepingInterval
	if reader != nil {
		interval = cfg.Poll
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loopErr := runLoop(loopDeps{
		reader:     reader,
		detector:   detector,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
		logger:     logger,
	}, ticker.C, sigCh)

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	hub.Close()
	cancel()
	<-runnerDone
	if kafkaSink != nil {
		if err := kafkaSink.Close(shutdownCtx); err != nil {
			logger.Warn("kafka shutdown", zap.Error(err))
		}
	}
	return loopErr
}

func newAdvisor(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (*advisor.Advisor, error) {
	opts := advisor.Options{
		Timeout:  cfg.AdviceTimeout,
		Breaker:  breaker.New("gemini", breaker.Config{MaxFailures: cfg.BreakerFails, ResetTimeout: cfg.BreakerTimeout}, logger),
		Logger:   logger,
		Observer: func(o advisor.Outcome) { m.Advice(string(o)) },
	}
	if cfg.GeminiAPIKey == "" {
		logger.Info("no gemini api key, using fallback advice")
		return advisor.New(nil, opts), nil
	}
	gen, err := advisor.NewGenAI(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return advisor.New(gen, opts), nil
}

func statusConfig(cfg config.Config) status.Config {
	sc := status.Config{
		HTTPAddr:         cfg.HTTPAddr,
		SensorIntervalMs: cfg.SensorInterval.Milliseconds(),
		HeartbeatMs:      cfg.Heartbeat.Milliseconds(),
		DebounceMs:       cfg.Debounce.Milliseconds(),
		Broker:           cfg.Broker,
		ModelDir:         cfg.ModelDir,
		Location:         cfg.Location,
		GeminiModel:      cfg.GeminiModel,
		PinRain:          cfg.PinRain,
		PinDry:           cfg.PinDry,
	}
	if len(cfg.KafkaBrokers) > 0 {
		sc.KafkaTopic = cfg.KafkaTopic
	}
	return sc
}

// loopDeps are the collaborators of the main loop. reader and publisher may
// be nil when field inputs or MQTT are disabled.
type loopDeps struct {
	reader     gpio.Reader
	detector   *logic.Detector
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	log := d.logger
	if log == nil {
		log = zap.NewNop()
	}

	for {
		select {
		case s := <-sig:
			log.Info("shutting down", zap.String("signal", s.String()))
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if d.publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				d.syncTracker()
				event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Warn("publish shutdown event", zap.Error(err))
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := d.now()
			if d.reader != nil {
				rain, dry, err := d.reader.Read()
				if err != nil {
					log.Warn("gpio read", zap.Error(err))
					continue
				}
				events := d.detector.Process(logic.Input{Rain: rain, Dry: dry, Time: t})
				for _, event := range events {
					log.Info("field event",
						zap.String("type", string(event.Type)),
						zap.String("rain", string(event.Rain)),
						zap.String("dry", string(event.Dry)))
					if d.publisher == nil {
						continue
					}
					if err := d.publisher.PublishField(event); err != nil {
						// Don't crash on publish failure
						log.Warn("publish field event", zap.Error(err))
					}
				}
			}

			if d.tracker != nil {
				d.syncTracker()
			}

			// Check for heartbeat
			hbData := d.detector.CheckHeartbeat(t, d.heartbeat)
			if hbData == nil {
				continue
			}
			log.Info("heartbeat",
				zap.Duration("uptime", hbData.Uptime),
				zap.Int("rain_start", hbData.Counts.RainStart),
				zap.Int("rain_stop", hbData.Counts.RainStop),
				zap.Int("soil_dry", hbData.Counts.SoilDry),
				zap.Int("soil_wet", hbData.Counts.SoilWet))
			if d.publisher == nil {
				continue
			}
			hbEvent := mqtt.SystemEvent{
				Timestamp: hbData.Timestamp,
				Event:     "HEARTBEAT",
			}
			if d.tracker != nil {
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					d.tracker.SetNetwork(net)
				}
				hbEvent.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := d.publisher.PublishSystem(hbEvent); err != nil {
				log.Warn("publish heartbeat", zap.Error(err))
			}
		}
	}
}

// syncTracker copies field and connection state into the tracker.
func (d loopDeps) syncTracker() {
	rain, dry := d.detector.CurrentState()
	d.tracker.UpdateField(rain, dry, d.detector.IsBaselined(), d.detector.Counts())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
