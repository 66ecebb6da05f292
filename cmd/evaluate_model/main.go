package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"heartrisk/ml"
	"heartrisk/pipeline"
)

func main() {
	dataPath := flag.String("data", "", "labelled CSV (HeartDisease plus the 17 feature columns)")
	encodersPath := flag.String("encoders", "./artifacts/label_encoders.json", "label encoder artifact")
	modelType := flag.String("model_type", ml.ModelTypeLogisticRegression, "logistic_regression or decision_tree")
	modelPath := flag.String("model_path", "./artifacts/heart_model.json", "model artifact")
	workers := flag.Int("workers", 0, "parallel workers (0 = GOMAXPROCS)")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("data is required")
	}

	builder, service, err := ml.LoadPredictor(*encodersPath, *modelType, *modelPath)
	if err != nil {
		log.Fatalf("failed to load artifacts: %v", err)
	}

	records, ingest, err := pipeline.ReadRecordsFile(*dataPath)
	if err != nil {
		log.Fatalf("failed to read dataset: %v", err)
	}

	cleaner := pipeline.NewDataCleaner()
	cleaned := cleaner.Clean(records)
	cleaning := cleaner.Stats()
	log.Printf("rows=%d skipped=%d cleaned=%d rejected=%d", ingest.TotalRows, ingest.Skipped, cleaning.Passed, cleaning.Rejected)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.Evaluate(ctx, cleaned, builder, service, *workers)
	if err != nil {
		log.Fatalf("evaluation aborted: %v", err)
	}
	log.Printf("accuracy=%.4f precision=%.4f recall=%.4f", report.Accuracy, report.Precision, report.Recall)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Ingestion pipeline.IngestionStats `json:"ingestion"`
		Cleaning  pipeline.CleaningStats  `json:"cleaning"`
		Report    pipeline.Report         `json:"report"`
	}{ingest, cleaning, report}); err != nil {
		log.Fatalf("failed to encode report: %v", err)
	}
}
