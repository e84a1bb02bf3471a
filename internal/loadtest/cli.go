package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/glassboxml/glassbox/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadtest_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Glassbox Explanation Load Tool
==============================

A concurrent tool for exercising the glassbox explanation service.

Usage:
  go run cmd/probe-load/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -jobs int
        Number of explanation jobs to generate and submit (default 100)
  -rows int
        Rows per generated dataset (default 50)
  -limit int
        Number of recent jobs to fetch after the run (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll duration
        Maximum wait for one job to finish (default 60s)
  -data string
        CSV dataset to submit instead of generated lines. The first
        record is the header; the last numerical column is the target.
  -log string
        Log file for test output (default: loadtest_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/probe-load/main.go

  # Test with custom parameters
  go run cmd/probe-load/main.go -jobs 500 -workers 16 -url http://localhost:8080

  # Test with verbose output
  go run cmd/probe-load/main.go -verbose -jobs 200

  # Test with custom log file
  go run cmd/probe-load/main.go -jobs 500 -log my_test.log

  # Test with a CSV dataset
  go run cmd/probe-load/main.go -jobs 50 -data housing.csv
`)
}
