// Package models loads exported pre-trained models and evaluates them.
//
// The training pipeline exports each estimator's learned parameters to a YAML
// (or JSON) file: a linear regressor for yield, a multinomial logistic
// classifier for crop recommendation, a standard scaler for the classifier's
// inputs, and the label encoders for the categorical columns.
package models

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnavailable is returned when a model needed for a prediction is missing.
var ErrUnavailable = errors.New("model not loaded")

// Features lists the numerical input columns in model order.
var Features = []string{
	"year", "area", "N", "P", "K", "pH",
	"avg_temp_c", "total_rainfall_mm", "avg_humidity_percent",
}

// Regressor is a fitted linear regression.
type Regressor struct {
	Coefficients []float64 `yaml:"coefficients"`
	Intercept    float64   `yaml:"intercept"`
}

// Predict returns intercept + coefficients·row.
func (r *Regressor) Predict(row []float64) (float64, error) {
	if r == nil {
		return 0, ErrUnavailable
	}
	if len(row) != len(r.Coefficients) {
		return 0, fmt.Errorf("regressor: got %d features, want %d", len(row), len(r.Coefficients))
	}
	y := r.Intercept
	for i, c := range r.Coefficients {
		y += c * row[i]
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, errors.New("regressor: non-finite prediction")
	}
	return y, nil
}

// Classifier is a fitted multinomial logistic regression. Classes holds the
// encoded label of each row of Coefficients.
type Classifier struct {
	Classes      []int       `yaml:"classes"`
	Coefficients [][]float64 `yaml:"coefficients"`
	Intercepts   []float64   `yaml:"intercepts"`
}

// PredictProba returns the softmax probability of each class for row, in the
// order of Classes.
func (c *Classifier) PredictProba(row []float64) ([]float64, error) {
	if c == nil {
		return nil, ErrUnavailable
	}
	if len(c.Coefficients) != len(c.Classes) || len(c.Intercepts) != len(c.Classes) {
		return nil, fmt.Errorf("classifier: %d classes, %d coefficient rows, %d intercepts",
			len(c.Classes), len(c.Coefficients), len(c.Intercepts))
	}

	scores := make([]float64, len(c.Classes))
	maxScore := math.Inf(-1)
	for k, w := range c.Coefficients {
		if len(w) != len(row) {
			return nil, fmt.Errorf("classifier: got %d features, want %d", len(row), len(w))
		}
		s := c.Intercepts[k]
		for i := range w {
			s += w[i] * row[i]
		}
		scores[k] = s
		maxScore = math.Max(maxScore, s)
	}

	// Shift by the max score so exp cannot overflow.
	var sum float64
	for k := range scores {
		scores[k] = math.Exp(scores[k] - maxScore)
		sum += scores[k]
	}
	for k := range scores {
		scores[k] /= sum
	}
	return scores, nil
}

// Ranked is a class with its probability.
type Ranked struct {
	Class       int
	Probability float64
}

// TopK returns the k most probable classes, highest first.
func (c *Classifier) TopK(row []float64, k int) ([]Ranked, error) {
	probs, err := c.PredictProba(row)
	if err != nil {
		return nil, err
	}
	ranked := make([]Ranked, len(probs))
	for i, p := range probs {
		ranked[i] = Ranked{Class: c.Classes[i], Probability: p}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Probability > ranked[j].Probability })
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// Scaler standardizes features: (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Transform returns a standardized copy of row. A zero scale leaves the
// centred value unscaled.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if s == nil {
		return nil, ErrUnavailable
	}
	if len(row) != len(s.Mean) || len(row) != len(s.Scale) {
		return nil, fmt.Errorf("scaler: got %d features, want %d", len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for i, x := range row {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}

// Encoder maps category labels to integer codes by position.
type Encoder struct {
	Classes []string `yaml:"classes"`
	index   map[string]int
}

func (e *Encoder) build() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// UnmarshalYAML decodes the class list and builds the lookup index.
func (e *Encoder) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Classes []string `yaml:"classes"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	e.Classes = raw.Classes
	e.build()
	return nil
}

// Transform returns the code for value, or false if it was never seen.
// Transform never mutates e; an Encoder built without NewEncoder or
// UnmarshalYAML falls back to a linear scan.
func (e *Encoder) Transform(value string) (int, bool) {
	if e.index == nil {
		i := slices.Index(e.Classes, value)
		return i, i >= 0
	}
	i, ok := e.index[value]
	return i, ok
}

// Inverse returns the label for code.
func (e *Encoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("encoder: code %d out of range [0,%d)", code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// NewEncoder creates an Encoder for the given ordered labels.
func NewEncoder(classes ...string) *Encoder {
	e := &Encoder{Classes: classes}
	e.build()
	return e
}
