package pipeline

import (
	"context"
	"runtime"
	"sync"

	"heartrisk/ml"
)

// Report summarises a prediction service against labelled records. Rows the
// builder or model reject are counted in Failures by error kind and left out
// of the confusion matrix.
type Report struct {
	Evaluated     int            `json:"evaluated"`
	TruePositive  int            `json:"true_positive"`
	FalsePositive int            `json:"false_positive"`
	TrueNegative  int            `json:"true_negative"`
	FalseNegative int            `json:"false_negative"`
	Accuracy      float64        `json:"accuracy"`
	Precision     float64        `json:"precision"`
	Recall        float64        `json:"recall"`
	Failures      map[string]int `json:"failures"`
}

type outcome struct {
	predicted int
	actual    int
	err       error
}

// Evaluate scores every record with up to workers goroutines. Records must
// already be cleaned. It stops early when ctx is cancelled.
func Evaluate(ctx context.Context, records []Record, builder *ml.FeatureBuilder, service *ml.PredictionService, workers int) (Report, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]outcome, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = score(records[i], builder, service)
			}
		}()
	}

	var cancelled error
feed:
	for i := range records {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return Report{}, cancelled
	}
	return summarise(outcomes), nil
}

func score(record Record, builder *ml.FeatureBuilder, service *ml.PredictionService) outcome {
	actual, err := ParseLabel(record.Label)
	if err != nil {
		return outcome{err: err}
	}
	raw, err := ml.ParseRawInputs(record.Values)
	if err != nil {
		return outcome{err: err}
	}
	vec, err := builder.Build(raw)
	if err != nil {
		return outcome{err: err}
	}
	result, err := service.Predict(vec)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{predicted: result.PredictedClass, actual: actual}
}

func summarise(outcomes []outcome) Report {
	report := Report{Failures: make(map[string]int)}
	for _, o := range outcomes {
		if o.err != nil {
			kind := string(ml.KindOf(o.err))
			if kind == "" {
				kind = "invalid_label"
			}
			report.Failures[kind]++
			continue
		}
		report.Evaluated++
		switch {
		case o.predicted == 1 && o.actual == 1:
			report.TruePositive++
		case o.predicted == 1 && o.actual == 0:
			report.FalsePositive++
		case o.predicted == 0 && o.actual == 0:
			report.TrueNegative++
		default:
			report.FalseNegative++
		}
	}

	if report.Evaluated > 0 {
		report.Accuracy = float64(report.TruePositive+report.TrueNegative) / float64(report.Evaluated)
	}
	if predictedPositive := report.TruePositive + report.FalsePositive; predictedPositive > 0 {
		report.Precision = float64(report.TruePositive) / float64(predictedPositive)
	}
	if actualPositive := report.TruePositive + report.FalseNegative; actualPositive > 0 {
		report.Recall = float64(report.TruePositive) / float64(actualPositive)
	}
	return report
}
