// Package web serves the agritech HTTP API, the status page and the live feed.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/analytics"
	"github.com/sweeney/agritech/internal/climate"
	"github.com/sweeney/agritech/internal/game"
	"github.com/sweeney/agritech/internal/ledger"
	"github.com/sweeney/agritech/internal/metrics"
	"github.com/sweeney/agritech/internal/predict"
	"github.com/sweeney/agritech/internal/sensor"
	"github.com/sweeney/agritech/internal/status"
)

// DefaultMaxUploadBytes caps request bodies when Deps.MaxUploadBytes is unset.
const DefaultMaxUploadBytes = 16 << 20

// Deps are the services the server routes requests to.
type Deps struct {
	Tracker   *status.Tracker
	Predict   *predict.Service
	Climate   *climate.Service
	Ledger    *ledger.Ledger
	Game      *game.Store
	Analytics *analytics.Builder
	History   *sensor.History
	Live      http.Handler
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// AccessLog receives combined-format access lines. Nil disables access logging.
	AccessLog      io.Writer
	MaxUploadBytes int64
	Now            func() time.Time
}

// Server serves the HTTP API over a gorilla/mux router.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a Server listening on addr once started.
func New(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{deps: deps, logger: deps.Logger, now: deps.Now}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	handle := func(name, path string, h http.HandlerFunc, methods ...string) {
		r.Handle(path, s.deps.Metrics.WrapHandler(name, h)).Methods(methods...)
	}

	handle("index", "/", s.handleIndex, http.MethodGet)
	handle("index", "/index.html", s.handleIndex, http.MethodGet)
	handle("status", "/index.json", s.handleStatus, http.MethodGet)
	handle("health", "/health", s.handleHealth, http.MethodGet)

	handle("predict_yield", "/predict_yield", s.handlePredictYield, http.MethodPost)
	handle("recommend_crop", "/recommend_crop", s.handleRecommendCrop, http.MethodPost)
	handle("smart_advice", "/smart_advice", s.handleSmartAdvice, http.MethodPost)
	handle("climate_risk", "/climate-risk-assessment", s.handleClimateRisk, http.MethodPost)
	handle("crop_health", "/crop-health-analysis", s.handleCropHealth, http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	apiHandle := func(name, path string, h http.HandlerFunc, methods ...string) {
		api.Handle(path, s.deps.Metrics.WrapHandler(name, h)).Methods(methods...)
	}
	apiHandle("create_crop_record", "/create-crop-record", s.handleCreateRecord, http.MethodPost)
	apiHandle("trace_crop", "/trace-crop/{id}", s.handleTraceCrop, http.MethodGet)
	apiHandle("ledger_verify", "/ledger/verify", s.handleVerify, http.MethodGet)
	apiHandle("user_progress", "/user-progress", s.handleUserProgress, http.MethodGet)
	apiHandle("award_points", "/award-points", s.handleAwardPoints, http.MethodPost)
	apiHandle("analytics_dashboard", "/analytics-dashboard", s.handleAnalytics, http.MethodGet)
	apiHandle("weather_forecast", "/weather-forecast", s.handleForecast, http.MethodGet)
	apiHandle("sensor_data", "/sensor-data", s.handleSensorData, http.MethodGet)

	r.Handle("/metrics", s.deps.Metrics.Handler()).Methods(http.MethodGet)
	if s.deps.Live != nil {
		// Upgraded connections outlive the metrics wrapper, so /ws is not timed.
		r.Handle("/ws", s.deps.Live).Methods(http.MethodGet)
	}

	var h http.Handler = r
	h = s.limitBody(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.logger)), handlers.PrintRecoveryStack(false))(h)
	if s.deps.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(s.deps.AccessLog, h)
	}
	return h
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > s.deps.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, errTooLarge.Error())
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.logger.Warn("render status page", zap.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
