package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/glassboxml/glassbox/pkg/logger"
)

// Number of requests resubmitted to exercise duplicate detection.
const duplicateProbeCount = 10

// Run executes the complete explanation load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting glassbox load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("jobs", config.NumJobs),
		logger.Int("rows", config.Rows),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("listLimit", config.ListLimit),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate explanation requests
	jobs, err := generateJobs(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("job generation failed: %w", err)
	}

	// Step 3: Submit requests concurrently
	jobIDs, err := submitJobs(ctx, config, jobs, stats)
	if err != nil {
		return fmt.Errorf("job submission failed: %w", err)
	}

	// Step 4: Resubmit a few requests to exercise duplicate detection
	probe := duplicateProbeCount
	if probe > len(jobs) {
		probe = len(jobs)
	}
	if _, err := submitJobs(ctx, config, jobs[:probe], stats); err != nil {
		return fmt.Errorf("duplicate probe failed: %w", err)
	}

	// Step 5: Wait for every accepted job to finish
	views, err := pollJobs(ctx, config, jobIDs, stats)
	if err != nil {
		return fmt.Errorf("job polling failed: %w", err)
	}

	// Step 6: Fetch the recent jobs listing
	if _, err := getRecentJobs(ctx, config, stats); err != nil {
		return fmt.Errorf("recent jobs retrieval failed: %w", err)
	}

	// Step 7: Verify results against the generating lines
	if err := verifyResults(config, jobs, views, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	displayFinishedJobs(views, config.Verbose)

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, jobsPerSecond float64

	if stats.JobsSubmitted > 0 {
		acceptRate = float64(stats.JobsAccepted) / float64(stats.JobsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		jobsPerSecond = float64(stats.JobsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("jobsGenerated", stats.JobsGenerated),
		logger.Int("jobsSubmitted", stats.JobsSubmitted),
		logger.Int("jobsAccepted", stats.JobsAccepted),
		logger.Int("jobsDuplicate", stats.JobsDuplicate),
		logger.Int("jobsRejected", stats.JobsRejected),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("jobsCompleted", stats.JobsCompleted),
		logger.Int("jobsErrored", stats.JobsErrored),
		logger.Int("recentEntries", stats.RecentEntries),
		logger.Int("verifiedCurves", stats.VerifiedCurves),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("jobsPerSecond", jobsPerSecond))
}
