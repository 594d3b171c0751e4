// Package predict serves yield predictions and crop recommendations from the
// loaded models, with random stand-ins when a model is missing.
package predict

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/advisor"
	"github.com/sweeney/agritech/internal/models"
	"github.com/sweeney/agritech/internal/random"
)

// ErrInvalidInput is returned when a numeric feature cannot be parsed.
var ErrInvalidInput = errors.New("invalid input")

// FallbackCrops are sampled when the recommendation model is unavailable.
var FallbackCrops = []string{"Rice", "Wheat", "Cotton", "Sugarcane", "Maize"}

// Service answers prediction requests.
type Service struct {
	models  *models.Set
	advisor *advisor.Advisor
	rng     random.Source
	log     *zap.Logger
}

// New creates a Service. set may be nil, which behaves like an empty model
// directory. A nil adv always answers with canned advice.
func New(set *models.Set, adv *advisor.Advisor, rng random.Source, logger *zap.Logger) *Service {
	if set == nil {
		set = &models.Set{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if adv == nil {
		adv = advisor.New(nil, advisor.Options{Logger: logger})
	}
	return &Service{models: set, advisor: adv, rng: rng, log: logger}
}

// YieldResult is the response of PredictYield.
type YieldResult struct {
	PredictedYield  string  `json:"predicted_yield"`
	SmartAdvice     string  `json:"smart_advice"`
	ConfidenceScore float64 `json:"confidence_score"`
	YieldCategory   string  `json:"yield_category"`

	// Value is the raw prediction in tons per hectare.
	Value float64 `json:"-"`
}

// Recommendation is a crop and its score. It serializes as [name, probability].
type Recommendation struct {
	Crop        string
	Probability float64
}

// MarshalJSON encodes r as a two element array.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	return jsonPair(r.Crop, r.Probability)
}

// CropResult is the response of RecommendCrop.
type CropResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	SmartAdvice     string           `json:"smart_advice"`
}

// AdviceResult is the response of SmartAdvice.
type AdviceResult struct {
	Advice string `json:"advice"`
}

// YieldCategory buckets a yield in tons per hectare.
func YieldCategory(v float64) string {
	switch {
	case v > 6:
		return "High"
	case v > 4:
		return "Medium"
	default:
		return "Low"
	}
}

func (s *Service) numericRow(in Input) ([]float64, error) {
	row := make([]float64, 0, len(models.Features)+3)
	for _, f := range models.Features {
		v, err := in.Float(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		row = append(row, v)
	}
	return row, nil
}

func (s *Service) encode(row []float64, in Input, cols ...string) []float64 {
	for _, c := range cols {
		row = append(row, float64(s.models.Encode(c, in.String(c, ""))))
	}
	return row
}

// PredictYield estimates the yield for the described field.
func (s *Service) PredictYield(ctx context.Context, in Input) (YieldResult, error) {
	row, err := s.numericRow(in)
	if err != nil {
		return YieldResult{}, err
	}
	row = s.encode(row, in, "crop", "season", "state")

	pred, err := s.models.Yield.Predict(row)
	if err != nil {
		if !errors.Is(err, models.ErrUnavailable) {
			s.log.Warn("yield model failed", zap.Error(err))
		}
		pred = random.Uniform(s.rng, 2.5, 8.5)
	}

	prompt := advisor.YieldPrompt(
		in.String("crop", "Unknown Crop"),
		in.String("state", "Unknown State"),
		in.String("season", "Unknown Season"),
		pred,
	)
	return YieldResult{
		PredictedYield:  fmt.Sprintf("%.2f tons/hectare", pred),
		SmartAdvice:     s.advisor.Advise(ctx, prompt, advisor.FallbackYield),
		ConfidenceScore: random.Uniform(s.rng, 85, 95),
		YieldCategory:   YieldCategory(pred),
		Value:           pred,
	}, nil
}

// RecommendCrop ranks the three most suitable crops for the described field.
func (s *Service) RecommendCrop(ctx context.Context, in Input) (CropResult, error) {
	row, err := s.numericRow(in)
	if err != nil {
		return CropResult{}, err
	}
	row = s.encode(row, in, "season", "state")

	recs, err := s.rankCrops(row)
	if err != nil {
		if !errors.Is(err, models.ErrUnavailable) {
			s.log.Warn("crop model failed", zap.Error(err))
		}
		recs = s.randomCrops()
	}

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Crop
	}
	prompt := advisor.CropChoicePrompt(strings.Join(names, ", "))
	return CropResult{
		Recommendations: recs,
		SmartAdvice:     s.advisor.Advise(ctx, prompt, advisor.FallbackCropChoice),
	}, nil
}

func (s *Service) rankCrops(row []float64) ([]Recommendation, error) {
	if s.models.Crop == nil || s.models.Scaler == nil {
		return nil, models.ErrUnavailable
	}
	scaled, err := s.models.Scaler.Transform(row)
	if err != nil {
		return nil, err
	}
	top, err := s.models.Crop.TopK(scaled, 3)
	if err != nil {
		return nil, err
	}
	enc := s.models.Encoders["crop"]
	if enc == nil {
		// Without labels there is nothing to name, mirroring an empty ranking.
		return []Recommendation{}, nil
	}
	recs := make([]Recommendation, 0, len(top))
	for _, t := range top {
		name, err := enc.Inverse(t.Class)
		if err != nil {
			return nil, err
		}
		recs = append(recs, Recommendation{Crop: name, Probability: t.Probability})
	}
	return recs, nil
}

func (s *Service) randomCrops() []Recommendation {
	picked := random.Sample(s.rng, FallbackCrops, 3)
	recs := make([]Recommendation, len(picked))
	for i, c := range picked {
		recs[i] = Recommendation{Crop: c, Probability: random.Uniform(s.rng, 0.6, 0.95)}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Probability > recs[j].Probability })
	return recs
}

// SmartAdvice answers a free-form farmer query.
func (s *Service) SmartAdvice(ctx context.Context, query string) AdviceResult {
	return AdviceResult{Advice: s.advisor.Advise(ctx, advisor.GeneralPrompt(query), advisor.FallbackGeneral)}
}
