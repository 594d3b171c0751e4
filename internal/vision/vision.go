// Package vision scores crop health from a leaf photo by counting pixels in
// fixed HSV color bands.
package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxWidth is the width images are scaled down to before analysis.
const MaxWidth = 800

// ErrNoImage is returned when there is no image to analyze.
var ErrNoImage = errors.New("no image")

// HSV is a color in OpenCV's 8-bit scale: H in [0,180], S and V in [0,255].
type HSV struct {
	H, S, V uint8
}

// Band is an inclusive HSV range.
type Band struct {
	Lower, Upper HSV
}

// Contains reports whether c lies inside b on every channel.
func (b Band) Contains(c HSV) bool {
	return c.H >= b.Lower.H && c.H <= b.Upper.H &&
		c.S >= b.Lower.S && c.S <= b.Upper.S &&
		c.V >= b.Lower.V && c.V <= b.Upper.V
}

// Color bands used to classify leaf pixels.
var (
	Green  = Band{HSV{35, 40, 40}, HSV{85, 255, 255}}
	Yellow = Band{HSV{15, 50, 50}, HSV{35, 255, 255}}
	Brown  = Band{HSV{5, 50, 20}, HSV{15, 255, 200}}
	Dark   = Band{HSV{0, 0, 0}, HSV{180, 255, 50}}
)

// ColorStats are the share of pixels in each band, as percentages.
type ColorStats struct {
	Green  float64 `json:"green_percentage"`
	Yellow float64 `json:"yellow_percentage"`
	Brown  float64 `json:"brown_percentage"`
	Dark   float64 `json:"dark_spots_percentage"`
}

// Health is the outcome of an analysis.
type Health struct {
	HealthScore          float64    `json:"health_score"`
	DiseaseDetected      bool       `json:"disease_detected"`
	DiseaseConfidence    float64    `json:"disease_confidence"`
	DiseaseType          string     `json:"disease_type"`
	Recommendations      []string   `json:"recommendations"`
	ColorAnalysis        ColorStats `json:"color_analysis"`
	LeafCoverage         float64    `json:"leaf_coverage"`
	StressIndicators     []string   `json:"stress_indicators"`
	TreatmentSuggestions []string   `json:"treatment_suggestions"`
}

// Failed is reported when an image decodes but cannot be analyzed.
func Failed() Health {
	return Health{
		HealthScore:          50,
		DiseaseDetected:      false,
		DiseaseConfidence:    30,
		DiseaseType:          "Analysis Failed",
		Recommendations:      []string{"Please try uploading a clearer image"},
		ColorAnalysis:        ColorStats{Green: 40, Yellow: 20, Brown: 10, Dark: 5},
		LeafCoverage:         40,
		StressIndicators:     []string{"Analysis incomplete due to processing error"},
		TreatmentSuggestions: []string{"Consult local agricultural expert"},
	}
}

// Decode reads a JPEG, PNG, GIF or WebP image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Resize scales img down so its width is at most MaxWidth, keeping the
// aspect ratio. Narrower images are returned unchanged.
func Resize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxWidth {
		return img
	}
	h := b.Dy() * MaxWidth / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, MaxWidth, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ToHSV converts an 8-bit RGB triple the way OpenCV's BGR2HSV does.
func ToHSV(r, g, b uint8) HSV {
	rf, gf, bf := float64(r), float64(g), float64(b)
	v := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	diff := v - lo

	var s float64
	if v > 0 {
		s = diff * 255 / v
	}

	var h float64
	if diff > 0 {
		switch v {
		case rf:
			h = 60 * (gf - bf) / diff
		case gf:
			h = 120 + 60*(bf-rf)/diff
		default:
			h = 240 + 60*(rf-gf)/diff
		}
		if h < 0 {
			h += 360
		}
	}
	return HSV{
		H: uint8(math.Round(h / 2)),
		S: uint8(math.Round(s)),
		V: uint8(v),
	}
}

// Measure returns the color band percentages for img.
func Measure(img image.Image) (ColorStats, error) {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total <= 0 {
		return ColorStats{}, ErrNoImage
	}

	var green, yellow, brown, dark int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			hsv := ToHSV(c.R, c.G, c.B)
			if Green.Contains(hsv) {
				green++
			}
			if Yellow.Contains(hsv) {
				yellow++
			}
			if Brown.Contains(hsv) {
				brown++
			}
			if Dark.Contains(hsv) {
				dark++
			}
		}
	}
	pct := func(n int) float64 { return float64(n) * 100 / float64(total) }
	return ColorStats{Green: pct(green), Yellow: pct(yellow), Brown: pct(brown), Dark: pct(dark)}, nil
}

// ErrNoColor is returned for single-channel images, which carry no hue.
var ErrNoColor = errors.New("image has no color channels")

// checkColor rejects grayscale and palette images.
func checkColor(img image.Image) error {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.Paletted:
		return ErrNoColor
	}
	return nil
}

// Analyze scores the health of the crop in img. Grayscale and palette images
// yield the failed report.
func Analyze(img image.Image) Health {
	if img == nil || checkColor(img) != nil {
		return Failed()
	}
	stats, err := Measure(Resize(img))
	if err != nil {
		return Failed()
	}
	return Score(stats)
}

// Score derives the health report from unrounded band percentages.
func Score(c ColorStats) Health {
	health := clamp(c.Green*1.2-c.Yellow*0.8-c.Brown*1.5-c.Dark*2.0, 0, 100)
	disease := math.Min(100, (c.Yellow+c.Brown+c.Dark)*1.5)

	stress := []string{}
	if c.Yellow > 15 {
		stress = append(stress, "Nutrient deficiency detected")
	}
	if c.Brown > 10 {
		stress = append(stress, "Possible fungal infection")
	}
	if c.Dark > 5 {
		stress = append(stress, "Disease spots identified")
	}
	if c.Green < 30 {
		stress = append(stress, "Low vegetation coverage")
	}

	var recs, treatments []string
	switch {
	case disease > 70:
		recs = []string{
			"Immediate action required - possible disease outbreak",
			"Isolate affected plants to prevent spread",
			"Consult agricultural expert for diagnosis",
		}
		treatments = []string{
			"Apply appropriate fungicide treatment",
			"Improve air circulation around plants",
			"Reduce leaf wetness through proper irrigation timing",
		}
	case disease > 40:
		recs = []string{
			"Monitor closely for disease progression",
			"Consider preventive treatments",
			"Improve plant nutrition and care",
		}
		treatments = []string{
			"Apply organic neem oil spray",
			"Ensure proper plant spacing",
			"Check soil drainage and pH levels",
		}
	default:
		recs = []string{
			"Crop appears healthy - continue current care routine",
			"Maintain regular monitoring schedule",
			"Focus on preventive measures",
		}
		treatments = []string{
			"Continue balanced fertilization",
			"Maintain optimal irrigation schedule",
			"Regular pruning for air circulation",
		}
	}

	diseaseType := "Healthy"
	if disease > 60 {
		switch {
		case c.Yellow > c.Brown:
			diseaseType = "Nutrient Deficiency/Viral Infection"
		case c.Brown > c.Yellow:
			diseaseType = "Fungal Disease"
		default:
			diseaseType = "Multiple Stress Factors"
		}
	}

	disease = round1(disease)
	return Health{
		HealthScore:       round1(health),
		DiseaseDetected:   disease > 50,
		DiseaseConfidence: disease,
		DiseaseType:       diseaseType,
		Recommendations:   recs,
		ColorAnalysis: ColorStats{
			Green:  round1(c.Green),
			Yellow: round1(c.Yellow),
			Brown:  round1(c.Brown),
			Dark:   round1(c.Dark),
		},
		LeafCoverage:         round1(c.Green),
		StressIndicators:     stress,
		TreatmentSuggestions: treatments,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
