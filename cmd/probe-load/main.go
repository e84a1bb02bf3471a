package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/glassboxml/glassbox/internal/loadtest"
)

// Default configuration constants.
const (
	defaultNumJobs     = 100
	defaultRows        = 50
	defaultListLimit   = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultPollWait    = 60 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numJobs   = flag.Int("jobs", defaultNumJobs, "Number of explanation jobs to generate and submit")
		rows      = flag.Int("rows", defaultRows, "Rows per generated dataset")
		listLimit = flag.Int("limit", defaultListLimit, "Number of recent jobs to fetch after the run")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollWait  = flag.Duration("poll", defaultPollWait, "Maximum wait for one job to finish")
		dataFile  = flag.String("data", "", "CSV dataset to submit instead of generated lines")
		logFile   = flag.String("log", "", "Log file for test output (default: loadtest_log_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	// Setup logging
	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &loadtest.Config{
		BaseURL:   *baseURL,
		NumJobs:   *numJobs,
		Rows:      *rows,
		ListLimit: *listLimit,
		Workers:   *workers,
		Timeout:   *timeout,
		PollWait:  *pollWait,
		DataFile:  *dataFile,
		LogFile:   *logFile,
		Verbose:   *verbose,
	}

	// Run the test
	if err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
