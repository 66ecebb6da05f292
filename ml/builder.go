package ml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FeatureBuilder turns raw form values into the encoded vector the model
// expects. It has no state besides the read-only registry.
type FeatureBuilder struct {
	registry *EncoderRegistry
}

func NewFeatureBuilder(registry *EncoderRegistry) (*FeatureBuilder, error) {
	if registry == nil {
		return nil, errors.New("encoder registry is required")
	}
	return &FeatureBuilder{registry: registry}, nil
}

// Build encodes raw in featureOrder. Out-of-range numeric values are
// rejected, never clamped, and no vector is returned on any error.
func (b *FeatureBuilder) Build(raw RawInputs) (FeatureVector, error) {
	const op = "ml.FeatureBuilder.Build"

	var vec FeatureVector
	for i, spec := range featureOrder {
		switch spec.kind {
		case numericFeature:
			value := *raw.numeric(spec.name)
			if err := checkRange(spec, value); err != nil {
				return FeatureVector{}, opErr(op, KindOutOfRange, spec.name, err)
			}
			vec[i] = value
		case categoricalFeature:
			code, err := b.registry.Encode(spec.name, *raw.label(spec.name))
			if err != nil {
				return FeatureVector{}, err
			}
			vec[i] = float64(code)
		}
	}
	return vec, nil
}

func checkRange(spec featureSpec, value float64) error {
	if math.IsNaN(value) || value < spec.min || value > spec.max {
		return fmt.Errorf("%v outside [%v, %v]", value, spec.min, spec.max)
	}
	if spec.integer && value != math.Trunc(value) {
		return fmt.Errorf("%v is not a whole number", value)
	}
	return nil
}

// ParseRawInputs reads string-valued input such as form posts or CSV rows.
// Every field must be present; numeric fields must parse as numbers.
func ParseRawInputs(values map[string]string) (RawInputs, error) {
	const op = "ml.ParseRawInputs"

	var raw RawInputs
	for _, spec := range featureOrder {
		value, ok := values[spec.name]
		if !ok {
			return RawInputs{}, opErr(op, KindMissingField, spec.name, errors.New("field not provided"))
		}
		switch spec.kind {
		case numericFeature:
			value = strings.TrimSpace(value)
			if value == "" {
				return RawInputs{}, opErr(op, KindMissingField, spec.name, errors.New("empty value"))
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return RawInputs{}, opErr(op, KindOutOfRange, spec.name, fmt.Errorf("%q is not a number", value))
			}
			*raw.numeric(spec.name) = f
		case categoricalFeature:
			*raw.label(spec.name) = value
		}
	}
	return raw, nil
}

// DecodeRawInputs reads a JSON object holding every field. An absent or null
// field is reported as missing instead of decoding to its zero value. Keys
// that name no field fail without an error kind, like any malformed body.
func DecodeRawInputs(data []byte) (RawInputs, error) {
	const op = "ml.DecodeRawInputs"

	var fields map[string]json.RawMessage
	if data = bytes.TrimSpace(data); len(data) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			return RawInputs{}, err
		}
	}
	var unknown []string
	for key := range fields {
		if !isField(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return RawInputs{}, fmt.Errorf("unknown field %q", unknown[0])
	}

	var raw RawInputs
	for _, spec := range featureOrder {
		value, ok := fields[spec.name]
		if !ok || bytes.Equal(value, []byte("null")) {
			return RawInputs{}, opErr(op, KindMissingField, spec.name, errors.New("field not provided"))
		}
		switch spec.kind {
		case numericFeature:
			if err := json.Unmarshal(value, raw.numeric(spec.name)); err != nil {
				return RawInputs{}, opErr(op, KindOutOfRange, spec.name, fmt.Errorf("%s is not a number", value))
			}
		case categoricalFeature:
			if err := json.Unmarshal(value, raw.label(spec.name)); err != nil {
				return RawInputs{}, opErr(op, KindUnknownCategory, spec.name, fmt.Errorf("%s is not a label", value))
			}
		}
	}
	return raw, nil
}

// FieldSchema describes one input widget: a dropdown for categorical fields,
// a slider for numeric ones.
type FieldSchema struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Labels  []string `json:"labels,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Default *float64 `json:"default,omitempty"`
	Integer bool     `json:"integer,omitempty"`
}

func (b *FeatureBuilder) FormSchema() []FieldSchema {
	fields := make([]FieldSchema, 0, FeatureCount)
	for _, spec := range featureOrder {
		switch spec.kind {
		case numericFeature:
			lo, hi, def := spec.min, spec.max, spec.def
			fields = append(fields, FieldSchema{
				Name:    spec.name,
				Kind:    "numeric",
				Min:     &lo,
				Max:     &hi,
				Default: &def,
				Integer: spec.integer,
			})
		case categoricalFeature:
			labels, _ := b.registry.Labels(spec.name)
			fields = append(fields, FieldSchema{
				Name:   spec.name,
				Kind:   "categorical",
				Labels: labels,
			})
		}
	}
	return fields
}

// DefaultInputs returns the slider defaults and the first label of every
// dropdown, which is what an untouched form submits.
func (b *FeatureBuilder) DefaultInputs() RawInputs {
	var raw RawInputs
	for _, spec := range featureOrder {
		switch spec.kind {
		case numericFeature:
			*raw.numeric(spec.name) = spec.def
		case categoricalFeature:
			if labels, err := b.registry.Labels(spec.name); err == nil && len(labels) > 0 {
				*raw.label(spec.name) = labels[0]
			}
		}
	}
	return raw
}
