package ml

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

const probabilityTolerance = 1e-6

type PredictionResult struct {
	PredictedClass      int     `json:"predicted_class"`
	ProbabilityOfClass1 float64 `json:"probability"`
}

// PredictionService runs one classifier call per request. It never retries
// and never returns a result the model did not produce.
type PredictionService struct {
	model Classifier
	cache *lru.Cache[FeatureVector, PredictionResult]
}

type Option func(*PredictionService) error

// WithCache memoises results per vector. Predictions are a pure function of
// the vector, so a hit is indistinguishable from a fresh call.
func WithCache(size int) Option {
	return func(s *PredictionService) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[FeatureVector, PredictionResult](size)
		if err != nil {
			return err
		}
		s.cache = cache
		return nil
	}
}

// NewPredictionService refuses models whose declared column order differs
// from the builder's; such a model would accept every vector and answer
// with nonsense.
func NewPredictionService(model Classifier, opts ...Option) (*PredictionService, error) {
	const op = "ml.NewPredictionService"

	if model == nil {
		return nil, opErr(op, KindModelInvocation, "", errors.New("model is not loaded"))
	}
	if err := checkFeatureOrder(model.FeatureNames()); err != nil {
		return nil, opErr(op, KindModelInvocation, "", err)
	}

	s := &PredictionService{model: model}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func checkFeatureOrder(names []string) error {
	want := FeatureNames()
	if len(names) != len(want) {
		return fmt.Errorf("model expects %d features, builder produces %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			return fmt.Errorf("feature %d is %q in the model but %q in the builder", i, names[i], want[i])
		}
	}
	return nil
}

func (s *PredictionService) Predict(vec FeatureVector) (PredictionResult, error) {
	const op = "ml.PredictionService.Predict"

	if s == nil || s.model == nil {
		return PredictionResult{}, opErr(op, KindModelInvocation, "", errors.New("model is not loaded"))
	}
	if s.cache != nil {
		if result, ok := s.cache.Get(vec); ok {
			return result, nil
		}
	}

	features := vec.Slice()
	label, err := s.model.Predict(features)
	if err != nil {
		return PredictionResult{}, opErr(op, KindModelInvocation, "", err)
	}
	if label != 0 && label != 1 {
		return PredictionResult{}, opErr(op, KindModelInvocation, "", fmt.Errorf("model returned class %d", label))
	}
	proba, err := s.model.PredictProba(features)
	if err != nil {
		return PredictionResult{}, opErr(op, KindModelInvocation, "", err)
	}
	if err := checkProbabilities(proba); err != nil {
		return PredictionResult{}, opErr(op, KindModelInvocation, "", err)
	}

	result := PredictionResult{PredictedClass: label, ProbabilityOfClass1: proba[1]}
	if s.cache != nil {
		s.cache.Add(vec, result)
	}
	return result, nil
}

func checkProbabilities(proba []float64) error {
	if len(proba) != 2 {
		return fmt.Errorf("model returned %d class probabilities, want 2", len(proba))
	}
	sum := 0.0
	for i, p := range proba {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("probability of class %d is %v", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("class probabilities sum to %v", sum)
	}
	return nil
}
