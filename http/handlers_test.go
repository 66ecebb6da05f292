package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"heartrisk/content"
	"heartrisk/ml"
)

type fakeModel struct {
	label int
	proba []float64
	err   error
}

func (f *fakeModel) Predict(features []float64) (int, error) {
	return f.label, f.err
}

func (f *fakeModel) PredictProba(features []float64) ([]float64, error) {
	return f.proba, f.err
}

func (f *fakeModel) FeatureNames() []string { return ml.FeatureNames() }

func scenarioInputs() ml.RawInputs {
	return ml.RawInputs{
		BMI:              25.0,
		Smoking:          "No",
		AlcoholDrinking:  "No",
		Stroke:           "No",
		DiffWalking:      "No",
		Sex:              "Female",
		AgeCategory:      "40-44",
		Race:             "White",
		Diabetic:         "No",
		PhysicalActivity: "Yes",
		GenHealth:        "Very good",
		SleepTime:        7,
		Asthma:           "No",
		KidneyDisease:    "No",
		SkinCancer:       "No",
	}
}

// scenarioFields is scenarioInputs as a JSON object that tests can strip.
func scenarioFields(t *testing.T) map[string]interface{} {
	t.Helper()
	payload, err := json.Marshal(scenarioInputs())
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatal(err)
	}
	return fields
}

func installModel(t *testing.T, model ml.Classifier) {
	t.Helper()
	registry, err := ml.LoadEncoders("../artifacts/label_encoders.json")
	if err != nil {
		t.Fatalf("load encoders: %v", err)
	}
	builder, err := ml.NewFeatureBuilder(registry)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	service, err := ml.NewPredictionService(model)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	SetPredictionComponents(builder, service)
	t.Cleanup(func() { SetPredictionComponents(nil, nil) })
}

func newTestHandler() http.Handler {
	return NewHandler(DefaultServerConfig(), nil)
}

func postJSON(t *testing.T, h http.Handler, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	expected := `{"status":"ok"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestHandlePredictHighRisk(t *testing.T) {
	installModel(t, &fakeModel{label: 1, proba: []float64{0.2766, 0.7234}})

	w := postJSON(t, newTestHandler(), "/api/predict", scenarioInputs())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.PredictedClass != 1 || payload.Risk != "high" {
		t.Fatalf("unexpected verdict: %+v", payload)
	}
	if payload.Message != "⚠️ ความเสี่ยงโรคหัวใจสูง (72.34%)" {
		t.Fatalf("unexpected message: %q", payload.Message)
	}
	if payload.Lang != "th" {
		t.Fatalf("expected default thai, got %q", payload.Lang)
	}
}

func TestHandlePredictEnglish(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})

	w := postJSON(t, newTestHandler(), "/api/predict?lang=en", scenarioInputs())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Message != "✅ Low heart disease risk (10.00%)" {
		t.Fatalf("unexpected message: %q", payload.Message)
	}
	if payload.Percent != 10 {
		t.Fatalf("unexpected percent: %v", payload.Percent)
	}
}

func TestHandlePredictForm(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})

	form := url.Values{
		ml.FieldBMI:              {"25"},
		ml.FieldSmoking:          {"No"},
		ml.FieldAlcoholDrinking:  {"No"},
		ml.FieldStroke:           {"No"},
		ml.FieldPhysicalHealth:   {"0"},
		ml.FieldMentalHealth:     {" 0 "},
		ml.FieldDiffWalking:      {"No"},
		ml.FieldSex:              {"Female"},
		ml.FieldAgeCategory:      {"40-44"},
		ml.FieldRace:             {"White"},
		ml.FieldDiabetic:         {"No"},
		ml.FieldPhysicalActivity: {"Yes"},
		ml.FieldGenHealth:        {"Very good"},
		ml.FieldSleepTime:        {"7"},
		ml.FieldAsthma:           {"No"},
		ml.FieldKidneyDisease:    {"No"},
		ml.FieldSkinCancer:       {"No"},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newTestHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlePredictRejectsBadInput(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})
	h := newTestHandler()

	unknown := scenarioInputs()
	unknown.Race = "Martian"
	outOfRange := scenarioInputs()
	outOfRange.BMI = 80
	noSleep := scenarioFields(t)
	delete(noSleep, ml.FieldSleepTime)
	nullHealth := scenarioFields(t)
	nullHealth[ml.FieldMentalHealth] = nil

	tests := []struct {
		name  string
		body  interface{}
		code  int
		kind  ml.ErrorKind
		field string
	}{
		{"unknown label", unknown, http.StatusUnprocessableEntity, ml.KindUnknownCategory, ml.FieldRace},
		{"out of range", outOfRange, http.StatusUnprocessableEntity, ml.KindOutOfRange, ml.FieldBMI},
		{"absent sleep time", noSleep, http.StatusUnprocessableEntity, ml.KindMissingField, ml.FieldSleepTime},
		{"null mental health", nullHealth, http.StatusUnprocessableEntity, ml.KindMissingField, ml.FieldMentalHealth},
		{"unknown field", map[string]interface{}{"Cholesterol": 200}, http.StatusBadRequest, "", ""},
		{"not an object", []int{1, 2}, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h, "/api/predict", tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			var body errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Kind != string(tt.kind) || body.Field != tt.field {
				t.Fatalf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestHandlePredictEmptyBody(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("  "))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newTestHandler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandlePredictBodyTooLarge(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})
	cfg := DefaultServerConfig()
	cfg.MaxBodyBytes = 64
	h := NewHandler(cfg, nil)

	if w := postJSON(t, h, "/api/predict", scenarioInputs()); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for json, got %d: %s", w.Code, w.Body.String())
	}

	form := url.Values{}
	for name, value := range scenarioInputs().Values() {
		form.Set(name, value)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for form, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlePredictMissingFormField(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("BMI=25"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newTestHandler().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var body errorResponse
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Kind != string(ml.KindMissingField) {
		t.Fatalf("expected missing_field, got %+v", body)
	}
}

func TestHandlePredictModelFailure(t *testing.T) {
	installModel(t, &fakeModel{err: errors.New("boom")})

	w := postJSON(t, newTestHandler(), "/api/predict", scenarioInputs())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Fatalf("model error leaked to client: %s", w.Body.String())
	}
}

func TestHandlePredictNotReady(t *testing.T) {
	SetPredictionComponents(nil, nil)

	w := postJSON(t, newTestHandler(), "/api/predict", scenarioInputs())
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHandleForm(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})

	req := httptest.NewRequest(http.MethodGet, "/api/form", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	w := httptest.NewRecorder()
	newTestHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload formResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(payload.Fields) != ml.FeatureCount {
		t.Fatalf("expected %d fields, got %d", ml.FeatureCount, len(payload.Fields))
	}
	if payload.Fields[0].Name != ml.FieldBMI || payload.Fields[0].Kind != "numeric" {
		t.Fatalf("unexpected first field: %+v", payload.Fields[0])
	}
	if payload.Lang != "en" || payload.Page.ResultHeading != "Prediction result:" {
		t.Fatalf("unexpected page: %+v", payload.Page)
	}
}

func TestHandleNewsAndUsage(t *testing.T) {
	loadNews = func() ([]content.NewsItem, error) { return content.NewsItems(), nil }
	loadUsageSeries = func() ([]content.UsagePoint, error) { return content.UsageSeries(), nil }
	defer func() {
		loadNews = defaultLoadNews
		loadUsageSeries = defaultLoadUsageSeries
	}()
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var news newsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &news); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(news.Items) != 2 || news.Lang != "th" {
		t.Fatalf("unexpected news: %+v", news)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/news/usage?lang=en", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var usage usageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &usage); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(usage.Points) != 6 || usage.Points[5].Label != "450,000 people" {
		t.Fatalf("unexpected chart: %+v", usage.Chart)
	}
}

func TestHandleUsageRejectsBadSeries(t *testing.T) {
	loadUsageSeries = func() ([]content.UsagePoint, error) {
		return []content.UsagePoint{{Year: 2020, Users: 10}, {Year: 2021, Users: 5}}, nil
	}
	defer func() { loadUsageSeries = defaultLoadUsageSeries }()

	req := httptest.NewRequest(http.MethodGet, "/api/news/usage", nil)
	w := httptest.NewRecorder()
	newTestHandler().ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	installModel(t, &fakeModel{label: 0, proba: []float64{0.9, 0.1}})
	h := newTestHandler()
	postJSON(t, h, "/api/predict", scenarioInputs())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "heartrisk_predictions_total") {
		t.Fatal("prediction counter not exported")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
