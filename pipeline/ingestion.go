// Package pipeline reads labelled survey rows and scores a prediction
// service against them.
package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"heartrisk/ml"
)

// LabelColumn is the target column of the survey dataset.
const LabelColumn = "HeartDisease"

// Record is one labelled row. Values holds the raw feature columns keyed by
// field name, exactly as they appeared in the file.
type Record struct {
	Line   int
	Label  string
	Values map[string]string
}

// IngestionStats ingestion counters
type IngestionStats struct {
	TotalRows int `json:"total_rows"`
	Skipped   int `json:"skipped"`
}

// ReadRecordsFile opens path and reads every row.
func ReadRecordsFile(path string) ([]Record, IngestionStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, IngestionStats{}, err
	}
	defer file.Close()
	return ReadRecords(file)
}

// ReadRecords parses a CSV with a header row. Columns are matched by name so
// their order in the file does not matter; extra columns are ignored. Rows
// with the wrong number of cells are counted as skipped.
func ReadRecords(r io.Reader) ([]Record, IngestionStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, IngestionStats{}, errors.New("csv has no header row")
		}
		return nil, IngestionStats{}, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	required := append([]string{LabelColumn}, ml.FeatureNames()...)
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, IngestionStats{}, fmt.Errorf("csv is missing column %q", name)
		}
	}

	var stats IngestionStats
	records := make([]Record, 0)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", line, err)
		}
		stats.TotalRows++
		if len(row) != len(header) {
			stats.Skipped++
			continue
		}

		values := make(map[string]string, ml.FeatureCount)
		for _, name := range ml.FeatureNames() {
			values[name] = row[index[name]]
		}
		records = append(records, Record{
			Line:   line,
			Label:  row[index[LabelColumn]],
			Values: values,
		})
	}
	return records, stats, nil
}
