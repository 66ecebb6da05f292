package ml

// Classifier is the externally trained binary model. Implementations must be
// safe for concurrent read-only use once loaded.
type Classifier interface {
	// Predict returns the class label, 0 or 1.
	Predict(features []float64) (int, error)
	// PredictProba returns the probability of each class, indexed by label.
	PredictProba(features []float64) ([]float64, error)
	// FeatureNames is the column order the model was trained with.
	FeatureNames() []string
}
