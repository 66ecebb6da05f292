package ml

// LoadPredictor loads both artifacts and wires the builder and service.
// Any missing or inconsistent artifact is an error; callers are expected to
// refuse to start rather than serve a partial form.
func LoadPredictor(encodersPath, modelType, modelPath string, opts ...Option) (*FeatureBuilder, *PredictionService, error) {
	registry, err := LoadEncoders(encodersPath)
	if err != nil {
		return nil, nil, err
	}
	builder, err := NewFeatureBuilder(registry)
	if err != nil {
		return nil, nil, err
	}
	model, err := LoadModel(modelType, modelPath)
	if err != nil {
		return nil, nil, err
	}
	service, err := NewPredictionService(model, opts...)
	if err != nil {
		return nil, nil, err
	}
	return builder, service, nil
}
