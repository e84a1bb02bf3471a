package loadtest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// pollJobs waits for every accepted job to finish and collects the final
// job views, keyed by request id.
func pollJobs(ctx context.Context, config *Config, jobIDs map[string]string, stats *Stats) (map[string]JobView, error) {
	log.Printf("polling %d jobs with %d workers...", len(jobIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	type pollTask struct {
		requestID string
		jobID     string
	}

	var (
		completed int64
		errored   int64
		timedOut  int64
	)

	var results sync.Map

	taskChan := make(chan pollTask, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for task := range taskChan {
				view, err := awaitSingleJob(ctx, client, config, task.jobID)
				if err != nil {
					atomic.AddInt64(&timedOut, 1)
					if config.Verbose {
						log.Printf("job %s did not finish: %v", task.jobID, err)
					}
					continue
				}

				results.Store(task.requestID, view)
				if view.Status == "done" {
					atomic.AddInt64(&completed, 1)
				} else {
					atomic.AddInt64(&errored, 1)
					if config.Verbose {
						log.Printf("job %s failed: %s", task.jobID, view.Error)
					}
				}
			}
		}()
	}

	// Send poll tasks to workers
	go func() {
		defer close(taskChan)
		for requestID, jobID := range jobIDs {
			select {
			case <-ctx.Done():
				return
			case taskChan <- pollTask{requestID: requestID, jobID: jobID}:
			}
		}
	}()

	wg.Wait()

	stats.JobsCompleted = int(atomic.LoadInt64(&completed))
	stats.JobsErrored = int(atomic.LoadInt64(&errored))

	log.Printf(`job polling completed:
   Done: %d
   Failed: %d
   Timed out: %d
`, stats.JobsCompleted, stats.JobsErrored, int(atomic.LoadInt64(&timedOut)))

	views := make(map[string]JobView)
	results.Range(func(k, v interface{}) bool {
		views[k.(string)] = v.(JobView)
		return true
	})
	return views, nil
}

// awaitSingleJob polls one job until it reaches a terminal status.
func awaitSingleJob(ctx context.Context, client *HTTPClient, config *Config, jobID string) (JobView, error) {
	url := config.BaseURL + "/explanations/" + jobID
	deadline := time.Now().Add(config.PollWait)

	for {
		select {
		case <-ctx.Done():
			return JobView{}, ctx.Err()
		case <-time.After(PollInterval):
		}

		if time.Now().After(deadline) {
			return JobView{}, fmt.Errorf("job %s still pending after %s", jobID, config.PollWait)
		}

		resp, err := client.Get(url)
		if err != nil {
			continue
		}
		body, err := readResponseBody(resp)
		if err != nil || resp.StatusCode != StatusOK {
			continue
		}

		var view JobView
		if err := unmarshalJSON(body, &view); err != nil {
			return JobView{}, fmt.Errorf("failed to parse job response: %w", err)
		}

		if view.Status == "done" || view.Status == "failed" {
			return view, nil
		}
	}
}

// getRecentJobs retrieves the most recent jobs from the service.
func getRecentJobs(ctx context.Context, config *Config, stats *Stats) ([]JobView, error) {
	log.Printf("getting %d most recent jobs...", config.ListLimit)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/explanations?limit=%d", config.BaseURL, config.ListLimit)

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != StatusOK {
		body, _ := readResponseBody(resp)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var recent []JobView
	if err := unmarshalJSON(body, &recent); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.RecentEntries = len(recent)
	log.Printf("retrieved %d recent jobs", len(recent))

	return recent, nil
}
