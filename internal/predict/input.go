package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Input is a decoded JSON request body. Missing keys read as zero values.
type Input map[string]any

// ParseInput decodes body into an Input. An empty or malformed body, or one
// that is not a JSON object, yields an empty Input.
func ParseInput(body []byte) Input {
	in := Input{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil || in == nil {
		return Input{}
	}
	return in
}

// String returns the value at key as text, or def when it is absent or null.
func (in Input) String(key, def string) string {
	v, ok := in[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Float returns the value at key as a number. Absent keys read as 0. JSON
// numbers, numeric strings and booleans are accepted.
func (in Input) Float(key string) (float64, error) {
	v, ok := in[key]
	if !ok {
		return 0, nil
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", key, err)
		}
		return f, nil
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: not a number: %q", key, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q: not a number", key)
	}
}

func jsonPair(name string, value float64) ([]byte, error) {
	return json.Marshal([]any{name, value})
}
