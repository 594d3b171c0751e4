package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Base names of the exported model files. Each may end in .yaml, .yml or .json.
const (
	FileYield    = "yield_prediction_model"
	FileCrop     = "crop_recommendation_model"
	FileScaler   = "feature_scaler"
	FileEncoders = "label_encoders"
)

var extensions = []string{".yaml", ".yml", ".json"}

// Set holds every model the service can use. Any field may be nil when its
// file was not found or could not be parsed.
type Set struct {
	Yield    *Regressor
	Crop     *Classifier
	Scaler   *Scaler
	Encoders map[string]*Encoder
}

// Load reads the model files from dir. Missing or invalid files are logged
// and leave the corresponding model nil; Load itself never fails.
func Load(dir string, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Set{Encoders: map[string]*Encoder{}}

	var yield Regressor
	if load(dir, FileYield, &yield, logger) {
		s.Yield = &yield
	}
	var crop Classifier
	if load(dir, FileCrop, &crop, logger) {
		s.Crop = &crop
	}
	var scaler Scaler
	if load(dir, FileScaler, &scaler, logger) {
		s.Scaler = &scaler
	}
	var encoders map[string]*Encoder
	if load(dir, FileEncoders, &encoders, logger) {
		for col, e := range encoders {
			if e == nil {
				continue
			}
			s.Encoders[col] = e
		}
	}
	return s
}

func load(dir, base string, out any, logger *zap.Logger) bool {
	path, err := find(dir, base)
	if err != nil {
		logger.Warn("model file not found, using fallback", zap.String("model", base), zap.String("dir", dir))
		return false
	}
	if err := decodeFile(path, out); err != nil {
		logger.Warn("model file unreadable, using fallback", zap.String("path", path), zap.Error(err))
		return false
	}
	logger.Info("model loaded", zap.String("path", path))
	return true
}

func find(dir, base string) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(dir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return errors.New("empty file")
	}
	// YAML is a superset of JSON, so one decoder covers both.
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Encode returns the code for value in column col, or -1 if the column has no
// encoder or the value is unknown.
func (s *Set) Encode(col, value string) int {
	e, ok := s.Encoders[col]
	if !ok {
		return -1
	}
	code, ok := e.Transform(value)
	if !ok {
		return -1
	}
	return code
}

// Available reports which models are loaded, keyed by file base name.
func (s *Set) Available() map[string]bool {
	return map[string]bool{
		FileYield:    s.Yield != nil,
		FileCrop:     s.Crop != nil,
		FileScaler:   s.Scaler != nil,
		FileEncoders: len(s.Encoders) > 0,
	}
}
