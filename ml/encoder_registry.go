package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// EncoderRegistry holds one fitted encoder per categorical field. It is
// read-only after construction and safe for concurrent use.
type EncoderRegistry struct {
	encoders map[string]*CategoricalEncoder
}

type encoderArtifact struct {
	Classes []string `json:"classes"`
}

// NewEncoderRegistry checks that every categorical feature has an encoder.
// Encoders for fields the builder does not use are rejected as well so a
// mislabelled artifact does not load silently.
func NewEncoderRegistry(encoders map[string]*CategoricalEncoder) (*EncoderRegistry, error) {
	const op = "ml.NewEncoderRegistry"

	for _, field := range CategoricalFields() {
		enc, ok := encoders[field]
		if !ok || enc == nil {
			return nil, opErr(op, KindInvalidArtifact, field, fmt.Errorf("no encoder for categorical field"))
		}
		if enc.Field() != field {
			return nil, opErr(op, KindInvalidArtifact, field, fmt.Errorf("encoder is registered for %s", enc.Field()))
		}
	}
	extra := make([]string, 0)
	for field := range encoders {
		if !isCategorical(field) {
			extra = append(extra, field)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, opErr(op, KindInvalidArtifact, extra[0], fmt.Errorf("unexpected encoders %v", extra))
	}

	copied := make(map[string]*CategoricalEncoder, len(encoders))
	for field, enc := range encoders {
		copied[field] = enc
	}
	return &EncoderRegistry{encoders: copied}, nil
}

// LoadEncoders reads the encoder artifact: a JSON object keyed by field name
// whose values carry the fitted "classes" list.
func LoadEncoders(path string) (*EncoderRegistry, error) {
	const op = "ml.LoadEncoders"

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, opErr(op, KindInvalidArtifact, "", err)
	}
	var raw map[string]encoderArtifact
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, opErr(op, KindInvalidArtifact, "", fmt.Errorf("decode %s: %w", path, err))
	}

	encoders := make(map[string]*CategoricalEncoder, len(raw))
	for field, artifact := range raw {
		enc, err := NewCategoricalEncoder(field, artifact.Classes)
		if err != nil {
			return nil, opErr(op, KindInvalidArtifact, field, err)
		}
		encoders[field] = enc
	}
	return NewEncoderRegistry(encoders)
}

func (r *EncoderRegistry) Labels(field string) ([]string, error) {
	enc, err := r.lookup("ml.EncoderRegistry.Labels", field)
	if err != nil {
		return nil, err
	}
	return enc.Classes(), nil
}

func (r *EncoderRegistry) Encode(field, label string) (int, error) {
	const op = "ml.EncoderRegistry.Encode"
	enc, err := r.lookup(op, field)
	if err != nil {
		return 0, err
	}
	code, err := enc.Transform(label)
	if err != nil {
		return 0, opErr(op, KindUnknownCategory, field, err)
	}
	return code, nil
}

func (r *EncoderRegistry) Decode(field string, code int) (string, error) {
	const op = "ml.EncoderRegistry.Decode"
	enc, err := r.lookup(op, field)
	if err != nil {
		return "", err
	}
	label, err := enc.InverseTransform(code)
	if err != nil {
		return "", opErr(op, KindUnknownCategory, field, err)
	}
	return label, nil
}

func (r *EncoderRegistry) lookup(op, field string) (*CategoricalEncoder, error) {
	enc, ok := r.encoders[field]
	if !ok {
		return nil, opErr(op, KindUnknownCategory, field, fmt.Errorf("field has no encoder"))
	}
	return enc, nil
}
