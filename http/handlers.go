package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"heartrisk/content"
	"heartrisk/db"
	"heartrisk/metrics"
	"heartrisk/ml"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

var (
	featureBuilder    *ml.FeatureBuilder
	predictionService *ml.PredictionService
	defaultLanguage   = language.Thai
	logger            = zap.NewNop()

	// swapped in tests
	loadNews        = defaultLoadNews
	loadUsageSeries = defaultLoadUsageSeries
)

func defaultLoadNews() ([]content.NewsItem, error) {
	return db.QueryNews()
}

func defaultLoadUsageSeries() ([]content.UsagePoint, error) {
	return db.QueryUsageSeries()
}

var errNotReady = errors.New("prediction service not initialized")

// SetPredictionComponents installs the builder and service used by the
// predict endpoints. Both are read-only after startup.
func SetPredictionComponents(builder *ml.FeatureBuilder, service *ml.PredictionService) {
	featureBuilder = builder
	predictionService = service
}

func SetDefaultLanguage(tag language.Tag) {
	defaultLanguage = tag
}

func SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	logger = log
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/form", handleForm)
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("GET /api/news", handleNews)
	mux.HandleFunc("GET /api/news/usage", handleUsage)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if featureBuilder == nil || predictionService == nil {
		status = "degraded"
	}
	respondJSON(w, map[string]string{"status": status})
}

type formResponse struct {
	Page     content.PredictPage `json:"page"`
	Fields   []ml.FieldSchema    `json:"fields"`
	Defaults ml.RawInputs        `json:"defaults"`
	Lang     string              `json:"lang"`
}

func handleForm(w http.ResponseWriter, r *http.Request) {
	if featureBuilder == nil {
		respondError(w, http.StatusServiceUnavailable, errorResponse{Error: errNotReady.Error()})
		return
	}
	tag := requestLanguage(r)
	respondJSON(w, formResponse{
		Page:     content.PredictPageText(tag),
		Fields:   featureBuilder.FormSchema(),
		Defaults: featureBuilder.DefaultInputs(),
		Lang:     tag.String(),
	})
}

type predictResponse struct {
	PredictedClass int     `json:"predicted_class"`
	Probability    float64 `json:"probability"`
	Percent        float64 `json:"percent"`
	Risk           string  `json:"risk"`
	Message        string  `json:"message"`
	Lang           string  `json:"lang"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	start := GetStartTime(r.Context())
	if start.IsZero() {
		start = time.Now()
	}

	var result ml.PredictionResult
	raw, err := decodeRawInputs(r)
	if err != nil && ml.KindOf(err) == "" {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, status, errorResponse{Error: err.Error()})
		return
	}
	if err == nil {
		result, err = predict(raw)
	}
	metrics.Observe("http", start, result, err)
	if err != nil {
		status, body := classifyError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		}
		respondError(w, status, body)
		return
	}

	respondJSON(w, newPredictResponse(requestLanguage(r), result))
}

func predict(raw ml.RawInputs) (ml.PredictionResult, error) {
	if featureBuilder == nil || predictionService == nil {
		return ml.PredictionResult{}, errNotReady
	}
	vec, err := featureBuilder.Build(raw)
	if err != nil {
		return ml.PredictionResult{}, err
	}
	return predictionService.Predict(vec)
}

func newPredictResponse(tag language.Tag, result ml.PredictionResult) predictResponse {
	risk := "low"
	if result.PredictedClass == 1 {
		risk = "high"
	}
	return predictResponse{
		PredictedClass: result.PredictedClass,
		Probability:    result.ProbabilityOfClass1,
		Percent:        content.Percent(result.ProbabilityOfClass1),
		Risk:           risk,
		Message:        content.RiskMessage(tag, result),
		Lang:           tag.String(),
	}
}

// decodeRawInputs accepts a JSON body or a urlencoded form post.
func decodeRawInputs(r *http.Request) (ml.RawInputs, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return ml.RawInputs{}, err
		}
		values := make(map[string]string, len(r.PostForm))
		for key := range r.PostForm {
			values[key] = r.PostForm.Get(key)
		}
		return ml.ParseRawInputs(values)
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return ml.RawInputs{}, err
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return ml.RawInputs{}, errors.New("request body is empty")
		}
		return ml.DecodeRawInputs(body)
	}
}

// classifyError maps input problems to 422, a missing service to 503 and
// anything from the model to 500.
func classifyError(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error(), Kind: string(ml.KindOf(err)), Field: fieldOf(err)}
	switch {
	case errors.Is(err, errNotReady):
		return http.StatusServiceUnavailable, body
	case ml.IsKind(err, ml.KindUnknownCategory),
		ml.IsKind(err, ml.KindOutOfRange),
		ml.IsKind(err, ml.KindMissingField):
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusInternalServerError, errorResponse{Error: "prediction failed", Kind: body.Kind}
	}
}

func fieldOf(err error) string {
	var oe *ml.OpError
	if errors.As(err, &oe) {
		return oe.Field
	}
	return ""
}

type newsResponse struct {
	content.NewsPage
	Lang string `json:"lang"`
}

func handleNews(w http.ResponseWriter, r *http.Request) {
	items, err := loadNews()
	if err != nil {
		logger.Error("load news", zap.Error(err))
		respondError(w, http.StatusInternalServerError, errorResponse{Error: "failed to load news"})
		return
	}
	tag := requestLanguage(r)
	respondJSON(w, newsResponse{NewsPage: content.BuildNewsPage(tag, items), Lang: tag.String()})
}

type usageResponse struct {
	content.Chart
	Lang string `json:"lang"`
}

func handleUsage(w http.ResponseWriter, r *http.Request) {
	series, err := loadUsageSeries()
	if err != nil {
		logger.Error("load usage series", zap.Error(err))
		respondError(w, http.StatusInternalServerError, errorResponse{Error: "failed to load usage series"})
		return
	}
	tag := requestLanguage(r)
	chart, err := content.BuildChart(tag, series)
	if err != nil {
		logger.Error("invalid usage series", zap.Error(err))
		respondError(w, http.StatusInternalServerError, errorResponse{Error: "invalid usage series"})
		return
	}
	respondJSON(w, usageResponse{Chart: chart, Lang: tag.String()})
}

func requestLanguage(r *http.Request) language.Tag {
	return content.Language(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), defaultLanguage)
}

// respondJSON writes a 200 JSON response.
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode json", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, body errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to encode json", zap.Error(err))
	}
}
