package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sweeney/agritech/internal/ledger"
	"github.com/sweeney/agritech/internal/predict"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// readBody reads a request body. A body over the upload cap reports
// errTooLarge so the caller can answer 413.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return nil, errTooLarge
	}
	return body, err
}

var errTooLarge = errors.New("request body too large")

// recordInput picks the crop record fields out of a request body one by one.
// Form posts send every value as a string, so numbers may arrive quoted. A
// field that cannot be used falls back to its own default.
func recordInput(in predict.Input) ledger.Input {
	out := ledger.Input{
		FarmerID:         optString(in, "farmer_id"),
		FarmerName:       optString(in, "farmer_name"),
		CropType:         optString(in, "crop_type"),
		Variety:          optString(in, "variety"),
		Location:         optString(in, "location"),
		PlantingDate:     optString(in, "planting_date"),
		ExpectedHarvest:  optString(in, "expected_harvest"),
		AreaHectares:     optFloat(in, "area_hectares"),
		PredictedYield:   optFloat(in, "predicted_yield"),
		Certifications:   optList(in, "certifications"),
		FarmingPractices: optList(in, "farming_practices"),
	}
	if m, ok := in["coordinates"].(map[string]any); ok {
		c := predict.Input(m)
		lat, latErr := c.Float("lat")
		lng, lngErr := c.Float("lng")
		if latErr == nil && lngErr == nil {
			out.Coordinates = &ledger.Coordinates{Lat: lat, Lng: lng}
		}
	}
	return out
}

func optString(in predict.Input, key string) *string {
	if v, ok := in[key]; !ok || v == nil {
		return nil
	}
	s := in.String(key, "")
	return &s
}

func optFloat(in predict.Input, key string) *float64 {
	if v, ok := in[key]; !ok || v == nil {
		return nil
	}
	f, err := in.Float(key)
	if err != nil {
		return nil
	}
	return &f
}

// optList accepts a JSON array or a comma separated string.
func optList(in predict.Input, key string) []string {
	switch t := in[key].(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e != nil {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case string:
		out := []string{}
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}
