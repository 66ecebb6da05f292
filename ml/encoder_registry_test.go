package ml

import (
	"os"
	"path/filepath"
	"testing"
)

const encodersArtifact = "../artifacts/label_encoders.json"

func loadTestRegistry(t *testing.T) *EncoderRegistry {
	t.Helper()
	registry, err := LoadEncoders(encodersArtifact)
	if err != nil {
		t.Fatalf("failed to load encoders: %v", err)
	}
	return registry
}

func TestEncoderRoundTrip(t *testing.T) {
	registry := loadTestRegistry(t)

	for _, field := range CategoricalFields() {
		labels, err := registry.Labels(field)
		if err != nil {
			t.Fatalf("labels for %s: %v", field, err)
		}
		if len(labels) == 0 {
			t.Fatalf("expected labels for %s", field)
		}
		for _, label := range labels {
			code, err := registry.Encode(field, label)
			if err != nil {
				t.Fatalf("encode %s=%q: %v", field, label, err)
			}
			decoded, err := registry.Decode(field, code)
			if err != nil {
				t.Fatalf("decode %s=%d: %v", field, code, err)
			}
			if decoded != label {
				t.Fatalf("%s: %q encoded to %d decoded to %q", field, label, code, decoded)
			}
		}
	}
}

func TestEncoderCodesFollowClassOrder(t *testing.T) {
	registry := loadTestRegistry(t)

	cases := []struct {
		field string
		label string
		code  int
	}{
		{FieldSex, "Female", 0},
		{FieldSex, "Male", 1},
		{FieldAgeCategory, "40-44", 4},
		{FieldAgeCategory, "80 or older", 12},
		{FieldRace, "White", 5},
		{FieldGenHealth, "Very good", 4},
		{FieldDiabetic, "Yes (during pregnancy)", 3},
	}
	for _, tc := range cases {
		code, err := registry.Encode(tc.field, tc.label)
		if err != nil {
			t.Fatalf("encode %s=%q: %v", tc.field, tc.label, err)
		}
		if code != tc.code {
			t.Fatalf("%s=%q: expected code %d, got %d", tc.field, tc.label, tc.code, code)
		}
	}
}

func TestEncodeUnknownLabel(t *testing.T) {
	registry := loadTestRegistry(t)

	for _, field := range CategoricalFields() {
		if _, err := registry.Encode(field, "Maybe"); !IsKind(err, KindUnknownCategory) {
			t.Fatalf("%s: expected unknown category error, got %v", field, err)
		}
	}
	if _, err := registry.Encode(FieldBMI, "25"); !IsKind(err, KindUnknownCategory) {
		t.Fatalf("expected unknown category for numeric field, got %v", err)
	}
}

func TestLabelsReturnsCopy(t *testing.T) {
	registry := loadTestRegistry(t)

	labels, _ := registry.Labels(FieldSex)
	labels[0] = "changed"
	again, _ := registry.Labels(FieldSex)
	if again[0] != "Female" {
		t.Fatalf("registry mutated through Labels: %v", again)
	}
}

func TestNewEncoderRegistryRequiresEveryField(t *testing.T) {
	encoders := make(map[string]*CategoricalEncoder)
	for _, field := range CategoricalFields() {
		if field == FieldKidneyDisease {
			continue
		}
		enc, err := NewCategoricalEncoder(field, []string{"No", "Yes"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		encoders[field] = enc
	}

	_, err := NewEncoderRegistry(encoders)
	if !IsKind(err, KindInvalidArtifact) {
		t.Fatalf("expected invalid artifact error, got %v", err)
	}
	if oe, ok := err.(*OpError); !ok || oe.Field != FieldKidneyDisease {
		t.Fatalf("expected error for %s, got %v", FieldKidneyDisease, err)
	}
}

func TestLoadEncodersRejectsBadArtifacts(t *testing.T) {
	cases := map[string]string{
		"malformed":  `{"Sex": `,
		"duplicate":  `{"Sex": {"classes": ["Female", "Female"]}}`,
		"empty":      `{"Sex": {"classes": []}}`,
		"incomplete": `{"Sex": {"classes": ["Female", "Male"]}}`,
	}
	dir := t.TempDir()
	for name, body := range cases {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadEncoders(path); !IsKind(err, KindInvalidArtifact) {
			t.Fatalf("%s: expected invalid artifact error, got %v", name, err)
		}
	}

	if _, err := LoadEncoders(filepath.Join(dir, "missing.json")); !IsKind(err, KindInvalidArtifact) {
		t.Fatalf("expected invalid artifact error for missing file, got %v", err)
	}
}
