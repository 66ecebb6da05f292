package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"heartrisk/content"
	"heartrisk/ml"
)

func main() {
	encodersPath := flag.String("encoders", "./artifacts/label_encoders.json", "label encoder artifact")
	modelType := flag.String("model_type", ml.ModelTypeLogisticRegression, "logistic_regression or decision_tree")
	modelPath := flag.String("model_path", "./artifacts/heart_model.json", "model artifact")
	lang := flag.String("lang", "th", "message language (th or en)")
	asJSON := flag.Bool("json", false, "print the result as JSON")

	fields := make(map[string]*string, ml.FeatureCount)
	for _, name := range ml.FeatureNames() {
		fields[name] = flag.String(name, "", name+" (defaults to the untouched form value)")
	}
	flag.Parse()

	builder, service, err := ml.LoadPredictor(*encodersPath, *modelType, *modelPath)
	if err != nil {
		log.Fatalf("failed to load artifacts: %v", err)
	}

	values := builder.DefaultInputs().Values()
	flag.Visit(func(f *flag.Flag) {
		if _, ok := fields[f.Name]; ok {
			values[f.Name] = f.Value.String()
		}
	})

	raw, err := ml.ParseRawInputs(values)
	if err != nil {
		log.Fatalf("invalid input: %v", err)
	}
	vec, err := builder.Build(raw)
	if err != nil {
		log.Fatalf("invalid input: %v", err)
	}
	result, err := service.Predict(vec)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}

	tag := content.ParseLanguage(*lang)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"predicted_class": result.PredictedClass,
			"probability":     result.ProbabilityOfClass1,
			"message":         content.RiskMessage(tag, result),
			"features":        vec.Map(),
		}); err != nil {
			log.Fatalf("failed to encode result: %v", err)
		}
		return
	}

	fmt.Println(content.PredictPageText(tag).ResultHeading)
	fmt.Println(content.RiskMessage(tag, result))
}
