package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/glassboxml/glassbox/pkg/logger"
	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	requestIDDivisor   = 10000
	shapeDivisor       = 8
)

// Constants for generated line parameters.
const (
	slopeMin       = -5.0
	slopeRange     = 10.0
	interceptMin   = -10.0
	interceptRange = 20.0
	noiseMin       = -1.0
	noiseRange     = 2.0
)

// Constants for job shape cases.
const (
	casePartialOnly       = 0
	caseProfileOnly       = 1
	caseImportanceOnly    = 2
	casePartialAndProfile = 3
	casePartialImportance = 4
	caseAllOperations     = 5
	caseMeanModel         = 6
	caseDefaultModel      = 7
)

// newRequestID builds a unique request id for generated job index.
func newRequestID(index int) string {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(requestIDDivisor))
	return "load_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10) + "_" + uuid.New().String()
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateJobs creates the specified number of explanation requests with
// unique request IDs.
func generateJobs(ctx context.Context, config *Config, stats *Stats) ([]Request, error) {
	if config.DataFile != "" {
		logger.Get().Info(ctx, "loading dataset file", logger.String("path", config.DataFile))
		return generateFileJobs(config, stats)
	}

	logger.Get().Info(ctx, "generating explanation jobs", logger.Int("numJobs", config.NumJobs))

	jobs := make([]Request, config.NumJobs)

	type jobResult struct {
		index int
		job   Request
		err   error
	}

	resultChan := make(chan jobResult, config.NumJobs)

	// Use worker pool for job generation
	workerCount := minInt(config.Workers, config.NumJobs)
	jobsPerWorker := config.NumJobs / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * jobsPerWorker
		end := start + jobsPerWorker
		if worker == workerCount-1 {
			end = config.NumJobs // Last worker gets remaining jobs
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- jobResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- jobResult{index: i, job: generateSingleJob(i, config.Rows)}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumJobs; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during job generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate job %d: %w", result.index, result.err)
			}
			jobs[result.index] = result.job
		}
	}

	stats.JobsGenerated = len(jobs)
	logger.Get().Info(ctx, "generated jobs successfully", logger.Int("count", len(jobs)))

	return jobs, nil
}

// generateSingleJob creates one request with a synthetic linear dataset.
// The target is an exact line in the signal column so a fitted linear
// model can be verified against the generating coefficients.
func generateSingleJob(index, rows int) Request {
	slope := slopeMin + getRandomFloat()*slopeRange
	intercept := interceptMin + getRandomFloat()*interceptRange

	segments := []string{"a", "b", "c"}
	dataRows := make([][]interface{}, rows)
	for r := 0; r < rows; r++ {
		signal := float64(r)
		noise := noiseMin + getRandomFloat()*noiseRange
		segment := segments[r%len(segments)]
		dataRows[r] = []interface{}{signal, noise, segment, slope*signal + intercept}
	}

	requestID := newRequestID(index)

	model, operations := generateJobShape()

	return Request{
		RequestID:  requestID,
		Model:      model,
		Target:     "outcome",
		Operations: operations,
		Options: Options{
			GridPoints: 11,
			Rounds:     3,
		},
		Dataset: Dataset{
			Columns: []Column{
				{Name: "signal", Kind: "numerical"},
				{Name: "noise", Kind: "numerical"},
				{Name: "segment", Kind: "categorical", Levels: []string{"a", "b", "c"}},
				{Name: "outcome", Kind: "numerical"},
			},
			Rows: dataRows,
		},
		Slope:     slope,
		Intercept: intercept,
	}
}

// generateJobShape picks a model and operation mix with varied distribution.
func generateJobShape() (string, []string) {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(shapeDivisor))
	switch randNum.Int64() {
	case casePartialOnly:
		return "linear", []string{"partial_dependence"}
	case caseProfileOnly:
		return "linear", []string{"ceteris_paribus"}
	case caseImportanceOnly:
		return "linear", []string{"importance"}
	case casePartialAndProfile:
		return "linear", []string{"partial_dependence", "ceteris_paribus"}
	case casePartialImportance:
		return "linear", []string{"partial_dependence", "importance"}
	case caseAllOperations:
		return "linear", []string{"partial_dependence", "ceteris_paribus", "importance"}
	case caseMeanModel:
		return "mean", []string{"partial_dependence"}
	case caseDefaultModel:
		// No model named, the service default applies
		return "", []string{"partial_dependence"}
	default:
		return "linear", []string{"partial_dependence"}
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
