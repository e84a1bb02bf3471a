package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			opts := []Option{
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5 * time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
			}

			Convey("Then they should be valid functions", func() {
				for _, opt := range opts {
					So(opt, ShouldNotBeNil)
				}
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording job metrics", func() {
			So(func() {
				RecordJobSubmitted()
				RecordJobDuplicate()
				RecordJobCompleted()
				RecordJobFailed()
				RecordJobDuration(12.5)
				UpdateTotalJobs(3)
			}, ShouldNotPanic)
		})

		Convey("When recording pipeline metrics", func() {
			So(func() {
				RecordPredictionBatch()
				RecordPredictionError()
				RecordPredictionLatency(3.2)
				AddProfilePoints(101)
				RecordAggregationLatency(0.7)
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueCapacity(100)
				UpdateQueueSize(5)
				UpdateQueueUtilization(0.05)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(1.0)
				UpdateWorkerActiveCount(4)
				UpdateWorkerIdleCount(0)
				UpdateWorkerJobsPerSecond(2.0)
				RecordWorkerProcessingLatency(8.0)
				RecordWorkerError()
				UpdateWorkerCount(4)
			}, ShouldNotPanic)
		})

		Convey("When recording repository metrics", func() {
			So(func() {
				UpdateRepositoryShardCount(8)
				UpdateRepositoryRecordsTotal(10)
				UpdateRepositoryRecordsPerShard("0", 2)
				RecordRepositoryUpdateLatency(0.4)
				RecordRepositoryQueryLatency(0.1)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("explanations", "POST", "202")
				RecordHTTPRequestDuration("explanations", "POST", "202", 4.2)
				RecordErrorByComponent("worker", "prediction_error")
				RecordErrorByType("prediction_error", "high")
				RecordErrorByEndpoint("explanations", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 1.1)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("When fetching the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
