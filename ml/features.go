package ml

import "strconv"

const (
	FieldBMI              = "BMI"
	FieldSmoking          = "Smoking"
	FieldAlcoholDrinking  = "AlcoholDrinking"
	FieldStroke           = "Stroke"
	FieldPhysicalHealth   = "PhysicalHealth"
	FieldMentalHealth     = "MentalHealth"
	FieldDiffWalking      = "DiffWalking"
	FieldSex              = "Sex"
	FieldAgeCategory      = "AgeCategory"
	FieldRace             = "Race"
	FieldDiabetic         = "Diabetic"
	FieldPhysicalActivity = "PhysicalActivity"
	FieldGenHealth        = "GenHealth"
	FieldSleepTime        = "SleepTime"
	FieldAsthma           = "Asthma"
	FieldKidneyDisease    = "KidneyDisease"
	FieldSkinCancer       = "SkinCancer"
)

// FeatureCount is the width of the vector the classifier was trained on.
const FeatureCount = 17

type featureKind int

const (
	numericFeature featureKind = iota
	categoricalFeature
)

type featureSpec struct {
	name    string
	kind    featureKind
	min     float64
	max     float64
	def     float64
	integer bool
}

// featureOrder is the column order of the training frame. Reordering it
// silently corrupts every prediction.
var featureOrder = [FeatureCount]featureSpec{
	{name: FieldBMI, kind: numericFeature, min: 10, max: 50, def: 25},
	{name: FieldSmoking, kind: categoricalFeature},
	{name: FieldAlcoholDrinking, kind: categoricalFeature},
	{name: FieldStroke, kind: categoricalFeature},
	{name: FieldPhysicalHealth, kind: numericFeature, min: 0, max: 30, def: 0, integer: true},
	{name: FieldMentalHealth, kind: numericFeature, min: 0, max: 30, def: 0, integer: true},
	{name: FieldDiffWalking, kind: categoricalFeature},
	{name: FieldSex, kind: categoricalFeature},
	{name: FieldAgeCategory, kind: categoricalFeature},
	{name: FieldRace, kind: categoricalFeature},
	{name: FieldDiabetic, kind: categoricalFeature},
	{name: FieldPhysicalActivity, kind: categoricalFeature},
	{name: FieldGenHealth, kind: categoricalFeature},
	{name: FieldSleepTime, kind: numericFeature, min: 0, max: 24, def: 7, integer: true},
	{name: FieldAsthma, kind: categoricalFeature},
	{name: FieldKidneyDisease, kind: categoricalFeature},
	{name: FieldSkinCancer, kind: categoricalFeature},
}

// FeatureVector is an encoded input row in featureOrder. It is an array so
// copies are independent and vectors can be compared or used as map keys.
type FeatureVector [FeatureCount]float64

func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

func (v FeatureVector) Get(name string) (float64, bool) {
	for i, spec := range featureOrder {
		if spec.name == name {
			return v[i], true
		}
	}
	return 0, false
}

func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, spec := range featureOrder {
		out[spec.name] = v[i]
	}
	return out
}

func FeatureNames() []string {
	names := make([]string, FeatureCount)
	for i, spec := range featureOrder {
		names[i] = spec.name
	}
	return names
}

func CategoricalFields() []string {
	return fieldsOfKind(categoricalFeature)
}

func NumericFields() []string {
	return fieldsOfKind(numericFeature)
}

func fieldsOfKind(kind featureKind) []string {
	names := make([]string, 0, FeatureCount)
	for _, spec := range featureOrder {
		if spec.kind == kind {
			names = append(names, spec.name)
		}
	}
	return names
}

func isField(name string) bool {
	for _, spec := range featureOrder {
		if spec.name == name {
			return true
		}
	}
	return false
}

func isCategorical(name string) bool {
	for _, spec := range featureOrder {
		if spec.name == name {
			return spec.kind == categoricalFeature
		}
	}
	return false
}

// RawInputs carries the user-facing value of every field. Numeric fields are
// float64 so one decoder serves JSON, form and CSV input; integer-valued
// fields are checked by the builder.
type RawInputs struct {
	BMI              float64 `json:"BMI"`
	Smoking          string  `json:"Smoking"`
	AlcoholDrinking  string  `json:"AlcoholDrinking"`
	Stroke           string  `json:"Stroke"`
	PhysicalHealth   float64 `json:"PhysicalHealth"`
	MentalHealth     float64 `json:"MentalHealth"`
	DiffWalking      string  `json:"DiffWalking"`
	Sex              string  `json:"Sex"`
	AgeCategory      string  `json:"AgeCategory"`
	Race             string  `json:"Race"`
	Diabetic         string  `json:"Diabetic"`
	PhysicalActivity string  `json:"PhysicalActivity"`
	GenHealth        string  `json:"GenHealth"`
	SleepTime        float64 `json:"SleepTime"`
	Asthma           string  `json:"Asthma"`
	KidneyDisease    string  `json:"KidneyDisease"`
	SkinCancer       string  `json:"SkinCancer"`
}

func (r *RawInputs) numeric(name string) *float64 {
	switch name {
	case FieldBMI:
		return &r.BMI
	case FieldPhysicalHealth:
		return &r.PhysicalHealth
	case FieldMentalHealth:
		return &r.MentalHealth
	case FieldSleepTime:
		return &r.SleepTime
	}
	return nil
}

func (r *RawInputs) label(name string) *string {
	switch name {
	case FieldSmoking:
		return &r.Smoking
	case FieldAlcoholDrinking:
		return &r.AlcoholDrinking
	case FieldStroke:
		return &r.Stroke
	case FieldDiffWalking:
		return &r.DiffWalking
	case FieldSex:
		return &r.Sex
	case FieldAgeCategory:
		return &r.AgeCategory
	case FieldRace:
		return &r.Race
	case FieldDiabetic:
		return &r.Diabetic
	case FieldPhysicalActivity:
		return &r.PhysicalActivity
	case FieldGenHealth:
		return &r.GenHealth
	case FieldAsthma:
		return &r.Asthma
	case FieldKidneyDisease:
		return &r.KidneyDisease
	case FieldSkinCancer:
		return &r.SkinCancer
	}
	return nil
}

// Values renders r in the string form ParseRawInputs reads back.
func (r RawInputs) Values() map[string]string {
	values := make(map[string]string, FeatureCount)
	for _, spec := range featureOrder {
		switch spec.kind {
		case numericFeature:
			values[spec.name] = strconv.FormatFloat(*r.numeric(spec.name), 'f', -1, 64)
		case categoricalFeature:
			values[spec.name] = *r.label(spec.name)
		}
	}
	return values
}
