package loadtest

import "time"

// Config holds configuration for the explanation load test
type Config struct {
	BaseURL   string        // Base URL of the service
	NumJobs   int           // Number of explanation jobs to generate
	Rows      int           // Rows per generated dataset
	ListLimit int           // Number of recent jobs to fetch
	Workers   int           // Number of concurrent workers
	Timeout   time.Duration // HTTP request timeout
	PollWait  time.Duration // Maximum time to wait for one job to finish
	DataFile  string        // Optional CSV dataset submitted instead of generated lines
	LogFile   string        // Log file for test output
	Verbose   bool          // Enable verbose logging
}

// Column mirrors the API dataset column payload
type Column struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Levels []string `json:"levels,omitempty"`
}

// Dataset mirrors the API dataset payload
type Dataset struct {
	Columns []Column        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Options mirrors the API job options payload
type Options struct {
	GridPoints int `json:"grid_points,omitempty"`
	SampleN    int `json:"sample_n,omitempty"`
	Rounds     int `json:"rounds,omitempty"`
}

// Request represents an explanation job to be submitted
type Request struct {
	RequestID  string   `json:"request_id"`
	Model      string   `json:"model,omitempty"`
	Target     string   `json:"target"`
	Operations []string `json:"operations"`
	Options    Options  `json:"options"`
	Dataset    Dataset  `json:"dataset"`

	// Generator metadata, not sent to the service. Slope and Intercept
	// describe the exact line behind the signal column. FromFile marks
	// datasets loaded from a file, where no generating line is known.
	Slope     float64 `json:"-"`
	Intercept float64 `json:"-"`
	FromFile  bool    `json:"-"`
}

// AckResponse represents the response from job submission
type AckResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

// ProfileRow is one aggregated profile row in a job result
type ProfileRow struct {
	Variable   string  `json:"variable"`
	Value      float64 `json:"value"`
	Level      string  `json:"level"`
	Prediction float64 `json:"prediction"`
}

// ImportanceRow is one permutation importance entry in a job result
type ImportanceRow struct {
	Variable string  `json:"variable"`
	Dropout  float64 `json:"dropout"`
}

// Result holds the decoded result tables of a finished job
type Result struct {
	Profiles   []ProfileRow             `json:"profiles"`
	Points     []map[string]interface{} `json:"points"`
	Importance []ImportanceRow          `json:"importance"`
}

// JobView represents a job as returned by the API
type JobView struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Error  string  `json:"error"`
	Result *Result `json:"result"`
}

// Stats holds test statistics
type Stats struct {
	JobsGenerated  int
	JobsSubmitted  int
	JobsAccepted   int
	JobsDuplicate  int
	JobsRejected   int
	JobsFailed     int
	JobsCompleted  int
	JobsErrored    int
	RecentEntries  int
	VerifiedCurves int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
