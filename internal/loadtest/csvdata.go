package loadtest

import (
	"fmt"
	"os"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
)

// loadDatasetFile reads a CSV file into the request payload shape and
// picks the last numerical column as the prediction target.
func loadDatasetFile(path string) (Dataset, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, "", fmt.Errorf("opening dataset file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := dataset.FromCSV(f)
	if err != nil {
		return Dataset{}, "", fmt.Errorf("reading dataset file: %w", err)
	}
	return datasetPayload(ds)
}

// datasetPayload converts a parsed dataset into the JSON payload the
// submission endpoint accepts.
func datasetPayload(ds *dataset.Dataset) (Dataset, string, error) {
	cols := ds.Columns()

	payload := Dataset{Columns: make([]Column, len(cols))}
	target := ""
	for i, c := range cols {
		payload.Columns[i] = Column{
			Name:   c.Name,
			Kind:   string(c.Kind),
			Levels: c.Levels,
		}
		if c.Kind == dataset.Numerical {
			target = c.Name
		}
	}
	if target == "" {
		return Dataset{}, "", fmt.Errorf("dataset has no numerical column to use as target")
	}

	payload.Rows = make([][]interface{}, ds.NumRows())
	for r := range payload.Rows {
		row := ds.Row(r)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if cols[j].Kind == dataset.Categorical {
				cells[j] = v.Level
			} else {
				cells[j] = v.Num
			}
		}
		payload.Rows[r] = cells
	}
	return payload, target, nil
}

// generateFileJobs builds requests that all submit the dataset loaded
// from config.DataFile. Request ids stay unique so each submission
// queues its own job.
func generateFileJobs(config *Config, stats *Stats) ([]Request, error) {
	payload, target, err := loadDatasetFile(config.DataFile)
	if err != nil {
		return nil, err
	}

	jobs := make([]Request, config.NumJobs)
	for i := range jobs {
		model, operations := generateJobShape()
		jobs[i] = Request{
			RequestID:  newRequestID(i),
			Model:      model,
			Target:     target,
			Operations: operations,
			Options: Options{
				GridPoints: 11,
				Rounds:     3,
			},
			Dataset:  payload,
			FromFile: true,
		}
	}
	stats.JobsGenerated = len(jobs)
	return jobs, nil
}
