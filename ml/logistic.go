package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

const defaultDecisionThreshold = 0.5

// LogisticRegression is a linear model exported as coefficients in the
// training column order.
type LogisticRegression struct {
	Features     []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold,omitempty"`
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var model LogisticRegression
	if err := json.Unmarshal(payload, &model); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := model.validate(); err != nil {
		return err
	}
	*lr = model
	return nil
}

func (lr *LogisticRegression) validate() error {
	if len(lr.Features) == 0 {
		return errors.New("model declares no feature names")
	}
	if len(lr.Coefficients) != len(lr.Features) {
		return fmt.Errorf("model has %d coefficients for %d features", len(lr.Coefficients), len(lr.Features))
	}
	for i, c := range lr.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d (%s) is not finite", i, lr.Features[i])
		}
	}
	if math.IsNaN(lr.Intercept) || math.IsInf(lr.Intercept, 0) {
		return errors.New("intercept is not finite")
	}
	if lr.Threshold == 0 {
		lr.Threshold = defaultDecisionThreshold
	}
	if lr.Threshold <= 0 || lr.Threshold >= 1 {
		return fmt.Errorf("threshold %v outside (0, 1)", lr.Threshold)
	}
	return nil
}

func (lr *LogisticRegression) FeatureNames() []string {
	return append([]string(nil), lr.Features...)
}

func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	p, err := lr.positive(features)
	if err != nil {
		return 0, err
	}
	if p >= lr.Threshold {
		return 1, nil
	}
	return 0, nil
}

func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	p, err := lr.positive(features)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) positive(features []float64) (float64, error) {
	if len(lr.Coefficients) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) != len(lr.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(lr.Coefficients), len(features))
	}
	z := lr.Intercept
	for i, x := range features {
		z += lr.Coefficients[i] * x
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
