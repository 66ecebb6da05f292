package ml

import (
	"errors"
	"fmt"
)

// CategoricalEncoder is a fitted label<->code table for one field.
// Codes are the positions of the labels in the fitted class list.
type CategoricalEncoder struct {
	field   string
	classes []string
	codes   map[string]int
}

func NewCategoricalEncoder(field string, classes []string) (*CategoricalEncoder, error) {
	if field == "" {
		return nil, errors.New("field name is required")
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("encoder %s has no classes", field)
	}
	codes := make(map[string]int, len(classes))
	for i, label := range classes {
		if _, dup := codes[label]; dup {
			return nil, fmt.Errorf("encoder %s has duplicate class %q", field, label)
		}
		codes[label] = i
	}
	return &CategoricalEncoder{
		field:   field,
		classes: append([]string(nil), classes...),
		codes:   codes,
	}, nil
}

func (e *CategoricalEncoder) Field() string {
	return e.field
}

// Classes returns a copy of the known labels in code order.
func (e *CategoricalEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *CategoricalEncoder) Transform(label string) (int, error) {
	code, ok := e.codes[label]
	if !ok {
		return 0, fmt.Errorf("label %q is not one of %d known classes", label, len(e.classes))
	}
	return code, nil
}

func (e *CategoricalEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("code %d out of range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}
