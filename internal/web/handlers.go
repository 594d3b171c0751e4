package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/game"
	"github.com/sweeney/agritech/internal/ledger"
	"github.com/sweeney/agritech/internal/predict"
	"github.com/sweeney/agritech/internal/sensor"
	"github.com/sweeney/agritech/internal/vision"
)

// multipartMemory is how much of an upload is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// input reads a JSON object body, answering 413 itself when the body is too large.
func (s *Server) input(w http.ResponseWriter, r *http.Request) (predict.Input, bool) {
	body, err := readBody(r)
	if errors.Is(err, errTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return nil, false
	}
	return predict.ParseInput(body), true
}

func (s *Server) handlePredictYield(w http.ResponseWriter, r *http.Request) {
	in, ok := s.input(w, r)
	if !ok {
		return
	}
	res, err := s.deps.Predict.PredictYield(r.Context(), in)
	if errors.Is(err, predict.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("predict yield", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecommendCrop(w http.ResponseWriter, r *http.Request) {
	in, ok := s.input(w, r)
	if !ok {
		return
	}
	res, err := s.deps.Predict.RecommendCrop(r.Context(), in)
	if errors.Is(err, predict.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("recommend crop", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSmartAdvice(w http.ResponseWriter, r *http.Request) {
	in, ok := s.input(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Predict.SmartAdvice(r.Context(), in.String("prompt", "")))
}

func (s *Server) handleClimateRisk(w http.ResponseWriter, r *http.Request) {
	in, ok := s.input(w, r)
	if !ok {
		return
	}
	location := in.String("location", "Unknown")
	crop := in.String("crop", "Unknown")
	writeJSON(w, http.StatusOK, s.deps.Climate.Assess(r.Context(), location, crop))
}

func (s *Server) handleCropHealth(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(multipartMemory)
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		writeError(w, http.StatusRequestEntityTooLarge, errTooLarge.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		// A part sent without a filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["image"]; ok {
			writeError(w, http.StatusBadRequest, "No image selected")
			return
		}
		writeError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	fh := files[0]
	if fh.Filename == "" {
		writeError(w, http.StatusBadRequest, "No image selected")
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Image processing failed: "+err.Error())
		return
	}
	defer f.Close()

	img, err := vision.Decode(f)
	if err != nil {
		s.logger.Info("crop image rejected", zap.String("filename", fh.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Image processing failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vision.Analyze(img))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	in, ok := s.input(w, r)
	if !ok {
		return
	}
	receipt, err := s.deps.Ledger.Create(r.Context(), recordInput(in))
	if err != nil {
		s.logger.Error("create crop record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleTraceCrop(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 0 {
		http.NotFound(w, r)
		return
	}
	report, err := s.deps.Ledger.Trace(id, s.now())
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Crop record not found")
		return
	}
	if err != nil {
		s.logger.Error("trace crop", zap.Int("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Ledger.Verify())
}

func (s *Server) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		user = game.DefaultUser
	}
	writeJSON(w, http.StatusOK, s.deps.Game.Progress(user))
}

func (s *Server) handleAwardPoints(w http.ResponseWriter, r *http.Request) {
	in, ok := s.input(w, r)
	if !ok {
		return
	}
	user := in.String("user", game.DefaultUser)
	if user == "" {
		user = game.DefaultUser
	}

	res, err := s.deps.Game.Award(user, in.String("action", ""))
	if err != nil {
		writeJSON(w, http.StatusOK, game.Reject(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Analytics.Dashboard(s.now()))
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Climate.Forecast(s.now()))
}

func (s *Server) handleSensorData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sensor.Summarize(s.deps.History.Recent(sensor.SummaryWindow)))
}
