package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitJobs submits explanation requests concurrently using worker pools.
// The returned map carries request id to job id for every accepted job.
func submitJobs(ctx context.Context, config *Config, jobs []Request, stats *Stats) (map[string]string, error) {
	log.Printf("submitting %d jobs with %d workers...", len(jobs), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/explanations"

	// Counters for statistics
	var (
		accepted  int64
		duplicate int64
		rejected  int64
		failed    int64
		submitted int64
	)

	var jobIDs sync.Map

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	jobChan := make(chan Request, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for req := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					result, jobID := submitSingleJob(client, url, req)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
						jobIDs.Store(req.RequestID, jobID)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						dup := atomic.LoadInt64(&duplicate)
						rej := atomic.LoadInt64(&rejected)
						fail := atomic.LoadInt64(&failed)

						log.Printf("progress: %d/%d submitted (accepted: %d, duplicate: %d, rejected: %d, failed: %d)",
							total, len(jobs), acc, dup, rej, fail)
					}
				}
			}
		}()
	}

	// Send jobs to workers
	go func() {
		defer close(jobChan)
		for _, req := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- req:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Update stats
	stats.JobsSubmitted += int(atomic.LoadInt64(&submitted))
	stats.JobsAccepted += int(atomic.LoadInt64(&accepted))
	stats.JobsDuplicate += int(atomic.LoadInt64(&duplicate))
	stats.JobsRejected += int(atomic.LoadInt64(&rejected))
	stats.JobsFailed += int(atomic.LoadInt64(&failed))

	log.Printf(`job submission completed:
   Accepted: %d
   Duplicate: %d
   Rejected: %d
   Failed: %d
`, stats.JobsAccepted, stats.JobsDuplicate, stats.JobsRejected, stats.JobsFailed)

	ids := make(map[string]string)
	jobIDs.Range(func(k, v interface{}) bool {
		ids[k.(string)] = v.(string)
		return true
	})
	return ids, nil
}

// submitSingleJob submits one request and classifies the outcome.
func submitSingleJob(client *HTTPClient, url string, req Request) (string, string) {
	resp, err := client.Post(url, req)
	if err != nil {
		return "failed", ""
	}
	defer resp.Body.Close()

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed", ""
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil {
			return "accepted", ack.JobID
		}
		return "accepted", ""
	case StatusOK:
		// OK means the request id was already seen
		return "duplicate", ""
	case StatusTooMany:
		// Queue backpressure
		return "rejected", ""
	default:
		return "failed", ""
	}
}
