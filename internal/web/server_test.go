package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/agritech/internal/advisor"
	"github.com/sweeney/agritech/internal/analytics"
	"github.com/sweeney/agritech/internal/climate"
	"github.com/sweeney/agritech/internal/game"
	"github.com/sweeney/agritech/internal/ledger"
	"github.com/sweeney/agritech/internal/logic"
	"github.com/sweeney/agritech/internal/metrics"
	"github.com/sweeney/agritech/internal/models"
	"github.com/sweeney/agritech/internal/predict"
	"github.com/sweeney/agritech/internal/random"
	"github.com/sweeney/agritech/internal/sensor"
	"github.com/sweeney/agritech/internal/status"
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ts      *httptest.Server
	handler http.Handler
	tracker *status.Tracker
	history *sensor.History
	ledger  *ledger.Ledger
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *fixture {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		HTTPAddr:         ":5000",
		SensorIntervalMs: 10000,
		HeartbeatMs:      900000,
		Broker:           "tcp://192.168.1.200:1883",
		Location:         climate.DefaultLocation,
		PinRain:          17,
		PinDry:           27,
	}
	rng := random.Fixed{F: 0.5, I: 1}
	adv := advisor.New(nil, advisor.Options{})

	f := &fixture{
		tracker: status.NewTracker(start, cfg),
		history: sensor.NewHistory(100),
		ledger: ledger.New(rng, ledger.Options{
			Now:     func() time.Time { return testNow },
			NewTxID: func() string { return "tx-1" },
		}),
		metrics: metrics.New(),
	}
	srv := New(":0", Deps{
		Tracker:   f.tracker,
		Predict:   predict.New(models.Load(t.TempDir(), nil), adv, rng, nil),
		Climate:   climate.New(adv, rng, climate.DefaultLocation),
		Ledger:    f.ledger,
		Game:      game.NewStore(250, nil),
		Analytics: analytics.NewBuilder(rng),
		History:   f.history,
		Metrics:   f.metrics,
		Now:       func() time.Time { return testNow },
	})
	f.handler = srv.Handler()
	f.ts = httptest.NewServer(f.handler)
	t.Cleanup(f.ts.Close)
	return f
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return m
}

func TestJSONEndpoint(t *testing.T) {
	f := newTestServer(t)
	f.tracker.UpdateField(logic.StateActive, logic.StateInactive, true, logic.EventCounts{RainStart: 5, RainStop: 2})
	f.tracker.SetMQTTConnected(true)

	resp, err := http.Get(f.ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Field == nil {
		t.Fatal("expected field section")
	}
	if sj.Status.Field.Rain != "ACTIVE" {
		t.Errorf("Rain: got %q, want ACTIVE", sj.Status.Field.Rain)
	}
	if sj.Status.Field.Counts.RainStart != 5 {
		t.Errorf("Counts.RainStart: got %d, want 5", sj.Status.Field.Counts.RainStart)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
}

func TestHTMLEndpoints(t *testing.T) {
	f := newTestServer(t)
	f.tracker.SetModels(map[string]bool{"yield_prediction_model": false})

	for _, path := range []string{"/", "/index.html"} {
		resp, err := http.Get(f.ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("%s status: got %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s Content-Type: got %q, want text/html", path, ct)
		}
		if !strings.Contains(string(body), "yield_prediction_model") {
			t.Errorf("%s: expected model row in page", path)
		}
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/predict_yield")
	if err != nil {
		t.Fatalf("GET /predict_yield: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if m := decode(t, resp); m["status"] != "ok" {
		t.Errorf("status: got %v, want ok", m["status"])
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	f := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, f.ts.URL+"/health", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want *", got)
	}
}

func TestPredictYieldWithoutModel(t *testing.T) {
	f := newTestServer(t)

	m := decode(t, postJSON(t, f.ts.URL+"/predict_yield", `{"crop":"Rice","area":"2.5"}`))

	// U(2.5, 8.5) at 0.5 is 5.5
	if m["predicted_yield"] != "5.50 tons/hectare" {
		t.Errorf("predicted_yield: got %v", m["predicted_yield"])
	}
	if m["yield_category"] != "Medium" {
		t.Errorf("yield_category: got %v, want Medium", m["yield_category"])
	}
	if m["smart_advice"] != advisor.FallbackYield {
		t.Errorf("smart_advice: got %v, want fallback", m["smart_advice"])
	}
}

func TestPredictYieldInvalidNumber(t *testing.T) {
	f := newTestServer(t)

	resp := postJSON(t, f.ts.URL+"/predict_yield", `{"area":"lots"}`)
	m := decode(t, resp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
	if _, ok := m["error"]; !ok {
		t.Error("expected error field")
	}
}

func TestPredictYieldEmptyBody(t *testing.T) {
	f := newTestServer(t)

	resp := postJSON(t, f.ts.URL+"/predict_yield", ``)
	m := decode(t, resp)

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if _, ok := m["confidence_score"]; !ok {
		t.Error("expected confidence_score")
	}
}

func TestRecommendCropFallback(t *testing.T) {
	f := newTestServer(t)

	m := decode(t, postJSON(t, f.ts.URL+"/recommend_crop", `not json`))

	recs, ok := m["recommendations"].([]any)
	if !ok || len(recs) != 3 {
		t.Fatalf("recommendations: got %v", m["recommendations"])
	}
	pair, ok := recs[0].([]any)
	if !ok || len(pair) != 2 {
		t.Fatalf("recommendation pair: got %v", recs[0])
	}
	if _, ok := pair[0].(string); !ok {
		t.Errorf("crop name: got %T", pair[0])
	}
}

func TestSmartAdvice(t *testing.T) {
	f := newTestServer(t)

	m := decode(t, postJSON(t, f.ts.URL+"/smart_advice", `{"prompt":"yellow leaves on rice"}`))

	if m["advice"] != advisor.FallbackGeneral {
		t.Errorf("advice: got %v, want fallback", m["advice"])
	}
}

func TestClimateRiskAssessment(t *testing.T) {
	f := newTestServer(t)

	m := decode(t, postJSON(t, f.ts.URL+"/climate-risk-assessment", `{"location":"Punjab","crop":"Wheat"}`))

	risks, ok := m["climate_risks"].(map[string]any)
	if !ok {
		t.Fatalf("climate_risks: got %v", m["climate_risks"])
	}
	for _, key := range []string{"drought_risk", "flood_risk", "heat_stress_risk", "pest_disease_risk", "extreme_weather_risk", "overall_risk_score"} {
		if _, ok := risks[key]; !ok {
			t.Errorf("missing %s", key)
		}
	}
	if m["ai_recommendations"] != advisor.FallbackClimate {
		t.Errorf("ai_recommendations: got %v", m["ai_recommendations"])
	}
}

func uploadImage(t *testing.T, url, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func greenPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 160, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCropHealthAnalysis(t *testing.T) {
	f := newTestServer(t)

	resp := uploadImage(t, f.ts.URL+"/crop-health-analysis", "leaf.png", greenPNG(t))
	m := decode(t, resp)

	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200 (%v)", resp.StatusCode, m)
	}
	if m["leaf_coverage"] != 100.0 {
		t.Errorf("leaf_coverage: got %v, want 100", m["leaf_coverage"])
	}
	if m["disease_type"] != "Healthy" {
		t.Errorf("disease_type: got %v, want Healthy", m["disease_type"])
	}
	if m["disease_detected"] != false {
		t.Errorf("disease_detected: got %v, want false", m["disease_detected"])
	}
}

func TestCropHealthMissingImage(t *testing.T) {
	f := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("notes", "none")
	mw.Close()
	resp, err := http.Post(f.ts.URL+"/crop-health-analysis", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	m := decode(t, resp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
	if m["error"] != "No image uploaded" {
		t.Errorf("error: got %v", m["error"])
	}
}

func TestCropHealthNotMultipart(t *testing.T) {
	f := newTestServer(t)

	resp := postJSON(t, f.ts.URL+"/crop-health-analysis", `{}`)
	m := decode(t, resp)

	if resp.StatusCode != http.StatusBadRequest || m["error"] != "No image uploaded" {
		t.Errorf("got %d %v, want 400 No image uploaded", resp.StatusCode, m["error"])
	}
}

func TestCropHealthEmptyFilename(t *testing.T) {
	f := newTestServer(t)

	resp := uploadImage(t, f.ts.URL+"/crop-health-analysis", "", greenPNG(t))
	m := decode(t, resp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
	if m["error"] != "No image selected" {
		t.Errorf("error: got %v", m["error"])
	}
}

func TestCropHealthUndecodable(t *testing.T) {
	f := newTestServer(t)

	resp := uploadImage(t, f.ts.URL+"/crop-health-analysis", "leaf.png", []byte("this is not an image"))
	m := decode(t, resp)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}
	msg, _ := m["error"].(string)
	if !strings.HasPrefix(msg, "Image processing failed: ") {
		t.Errorf("error: got %q", msg)
	}
}

func TestUploadTooLarge(t *testing.T) {
	f := newTestServer(t)
	srv := New(":0", Deps{Tracker: f.tracker, MaxUploadBytes: 64})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := uploadImage(t, ts.URL+"/crop-health-analysis", "leaf.png", bytes.Repeat([]byte{1}, 1024))
	resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", resp.StatusCode)
	}
}

func TestCreateAndTraceCropRecord(t *testing.T) {
	f := newTestServer(t)

	resp := postJSON(t, f.ts.URL+"/api/create-crop-record", `{"farmer_name":"Asha","crop_type":"Rice"}`)
	m := decode(t, resp)

	if m["success"] != true {
		t.Fatalf("success: got %v", m["success"])
	}
	if m["record_id"] != 1.0 {
		t.Errorf("record_id: got %v, want 1", m["record_id"])
	}
	hash, _ := m["hash"].(string)
	if len(hash) != 64 {
		t.Errorf("hash: got %q", hash)
	}
	if qr, _ := m["qr_code_data"].(string); !strings.HasPrefix(qr, "CROP:1:"+hash[:8]+":") {
		t.Errorf("qr_code_data: got %q", qr)
	}
	record := m["record"].(map[string]any)
	if record["previous_hash"] != ledger.GenesisHash {
		t.Errorf("previous_hash: got %v, want %q", record["previous_hash"], ledger.GenesisHash)
	}

	resp, err := http.Get(f.ts.URL + "/api/trace-crop/1")
	if err != nil {
		t.Fatalf("GET trace: %v", err)
	}
	tr := decode(t, resp)
	if resp.StatusCode != 200 {
		t.Fatalf("trace status: got %d (%v)", resp.StatusCode, tr)
	}
	if tr["blockchain_hash"] != hash {
		t.Errorf("blockchain_hash: got %v, want %s", tr["blockchain_hash"], hash)
	}
	if tr["total_records"] != 1.0 {
		t.Errorf("total_records: got %v", tr["total_records"])
	}
	journey := tr["supply_chain_journey"].([]any)
	if len(journey) != 5 {
		t.Errorf("journey stages: got %d, want 5 before harvest", len(journey))
	}
}

func TestCreateCropRecordInvalidBody(t *testing.T) {
	f := newTestServer(t)

	m := decode(t, postJSON(t, f.ts.URL+"/api/create-crop-record", `{"farmer_name":"Ravi","area_hectares":"wide"}`))

	record := m["record"].(map[string]any)
	if record["farmer_name"] != "Ravi" {
		t.Errorf("farmer_name: got %v, want Ravi", record["farmer_name"])
	}
	// Only the unusable field falls back: Uniform(0.5, 5.0) at 0.5.
	if record["area_hectares"] != 2.75 {
		t.Errorf("area_hectares: got %v, want default 2.75", record["area_hectares"])
	}
	if f.ledger.Len() != 1 {
		t.Errorf("ledger size: got %d, want 1", f.ledger.Len())
	}
}

func TestCreateCropRecordFormStrings(t *testing.T) {
	f := newTestServer(t)

	body := `{"farmer_name":"Ravi","crop_type":"Rice","area_hectares":"2.5","predicted_yield":"4",` +
		`"coordinates":{"lat":"12.5","lng":77},"certifications":"Organic, Fair Trade"}`
	resp := postJSON(t, f.ts.URL+"/api/create-crop-record", body)
	m := decode(t, resp)

	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	record := m["record"].(map[string]any)
	if record["farmer_name"] != "Ravi" || record["crop_type"] != "Rice" {
		t.Errorf("got farmer_name=%v crop_type=%v", record["farmer_name"], record["crop_type"])
	}
	if record["area_hectares"] != 2.5 {
		t.Errorf("area_hectares: got %v, want 2.5", record["area_hectares"])
	}
	if record["predicted_yield"] != 4.0 {
		t.Errorf("predicted_yield: got %v, want 4", record["predicted_yield"])
	}
	coords := record["coordinates"].(map[string]any)
	if coords["lat"] != 12.5 || coords["lng"] != 77.0 {
		t.Errorf("coordinates: got %v", coords)
	}
	certs := record["certifications"].([]any)
	if len(certs) != 2 || certs[0] != "Organic" || certs[1] != "Fair Trade" {
		t.Errorf("certifications: got %v", certs)
	}
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestCreateCropRecordReadError(t *testing.T) {
	f := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/create-crop-record", failingBody{})
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if f.ledger.Len() != 0 {
		t.Errorf("ledger size: got %d, want 0", f.ledger.Len())
	}
}

func TestTraceCropNotFound(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/api/trace-crop/99")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
	if m["error"] != "Crop record not found" {
		t.Errorf("error: got %v", m["error"])
	}
}

func TestTraceCropNonIntegerID(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/api/trace-crop/abc")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestLedgerVerify(t *testing.T) {
	f := newTestServer(t)
	postJSON(t, f.ts.URL+"/api/create-crop-record", `{}`).Body.Close()
	postJSON(t, f.ts.URL+"/api/create-crop-record", `{}`).Body.Close()

	resp, err := http.Get(f.ts.URL + "/api/ledger/verify")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	if m["valid"] != true {
		t.Errorf("valid: got %v", m["valid"])
	}
	if m["total_records"] != 2.0 {
		t.Errorf("total_records: got %v, want 2", m["total_records"])
	}
}

func TestUserProgressDefaultUser(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/api/user-progress")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	if m["points"] != 250.0 {
		t.Errorf("points: got %v, want 250", m["points"])
	}
	if m["level"] != 3.0 {
		t.Errorf("level: got %v, want 3", m["level"])
	}
}

func TestUserProgressUnknownUser(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/api/user-progress?user=newcomer")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	if m["points"] != 0.0 || m["level"] != 1.0 {
		t.Errorf("got points=%v level=%v, want 0 and 1", m["points"], m["level"])
	}
}

func TestAwardPoints(t *testing.T) {
	f := newTestServer(t)

	m := decode(t, postJSON(t, f.ts.URL+"/api/award-points", `{"user":"farmer1","action":"first_prediction"}`))
	if m["success"] != true || m["points_awarded"] != 10.0 {
		t.Fatalf("first award: got %v", m)
	}

	m = decode(t, postJSON(t, f.ts.URL+"/api/award-points", `{"user":"farmer1","action":"first_prediction"}`))
	if m["success"] != false || m["message"] != "Achievement already earned" {
		t.Errorf("repeat award: got %v", m)
	}
}

func TestAwardPointsInvalidAction(t *testing.T) {
	f := newTestServer(t)

	resp := postJSON(t, f.ts.URL+"/api/award-points", `{"action":"nap"}`)
	m := decode(t, resp)

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if m["success"] != false || m["message"] != "Invalid action" {
		t.Errorf("got %v", m)
	}
}

func TestAwardPointsNumericUser(t *testing.T) {
	f := newTestServer(t)

	m := decode(t, postJSON(t, f.ts.URL+"/api/award-points", `{"user":5,"action":"first_prediction"}`))
	if m["success"] != true || m["points_awarded"] != 10.0 {
		t.Fatalf("award: got %v", m)
	}

	resp, err := http.Get(f.ts.URL + "/api/user-progress?user=5")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if p := decode(t, resp); p["points"] != 10.0 {
		t.Errorf("points: got %v, want 10", p["points"])
	}
}

func TestAnalyticsDashboard(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/api/analytics-dashboard")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	hist, ok := m["historical_data"].([]any)
	if !ok || len(hist) != 30 {
		t.Fatalf("historical_data: got %d entries", len(hist))
	}
	if _, ok := m["current_stats"]; !ok {
		t.Error("expected current_stats")
	}
}

func TestWeatherForecast(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/api/weather-forecast")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	days, ok := m["forecast"].([]any)
	if !ok || len(days) != climate.ForecastDays {
		t.Fatalf("forecast: got %v", m["forecast"])
	}
	if m["location"] != climate.DefaultLocation {
		t.Errorf("location: got %v", m["location"])
	}
}

func TestSensorDataOffline(t *testing.T) {
	f := newTestServer(t)

	resp, err := http.Get(f.ts.URL + "/api/sensor-data")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	if m["status"] != "offline" {
		t.Errorf("status: got %v, want offline", m["status"])
	}
	if m["last_update"] != nil {
		t.Errorf("last_update: got %v, want null", m["last_update"])
	}
	if recent, ok := m["recent_readings"].([]any); !ok || len(recent) != 0 {
		t.Errorf("recent_readings: got %v, want []", m["recent_readings"])
	}
}

func TestSensorDataAverages(t *testing.T) {
	f := newTestServer(t)
	for i := 0; i < 12; i++ {
		f.history.Add(sensor.Reading{Timestamp: testNow.Add(time.Duration(i) * time.Second), SoilMoisture: float64(i)})
	}

	resp, err := http.Get(f.ts.URL + "/api/sensor-data")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	m := decode(t, resp)

	if m["status"] != "online" {
		t.Errorf("status: got %v, want online", m["status"])
	}
	recent := m["recent_readings"].([]any)
	if len(recent) != sensor.SummaryWindow {
		t.Errorf("recent_readings: got %d, want %d", len(recent), sensor.SummaryWindow)
	}
	avg := m["averages"].(map[string]any)
	// last ten moisture values are 2..11
	if avg["soil_moisture"] != 6.5 {
		t.Errorf("soil_moisture avg: got %v, want 6.5", avg["soil_moisture"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newTestServer(t)
	http.Get(f.ts.URL + "/health")

	resp, err := http.Get(f.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), `http_requests_total{route="health",status="200"} 1`) {
		t.Errorf("expected health request counted, got:\n%s", body)
	}
}
