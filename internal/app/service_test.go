package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/glassboxml/glassbox/internal/app"
	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/job"
	"github.com/glassboxml/glassbox/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func lineDataset() *dataset.Dataset {
	cols := []dataset.Column{
		{Name: "x", Kind: dataset.Numerical},
		{Name: "y", Kind: dataset.Numerical},
	}
	rows := make([][]dataset.Value, 0, 20)
	for i := 0; i < 20; i++ {
		x := float64(i)
		rows = append(rows, []dataset.Value{dataset.Num(x), dataset.Num(3*x + 2)})
	}
	ds, err := dataset.FromRecords(cols, rows)
	if err != nil {
		panic(err)
	}
	return ds
}

func lineSpec(requestID string) *job.Spec {
	return &job.Spec{
		RequestID:  requestID,
		Target:     "y",
		Operations: []job.Operation{job.OpPartialDependence},
		Data:       lineDataset(),
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithShardCount(2),
			service.WithDefaultModel("mean"),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_SeenAndRecord(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		defer svc.Stop()

		Convey("When checking a new request ID", func() {
			seen := svc.SeenAndRecord(ctx, "req-123")

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When checking the same request ID again", func() {
			svc.SeenAndRecord(ctx, "req-456")
			seen := svc.SeenAndRecord(ctx, "req-456")

			Convey("Then it should have been seen before", func() {
				So(seen, ShouldBeTrue)
			})
		})

		Convey("When unrecording a request ID", func() {
			svc.SeenAndRecord(ctx, "req-789")
			svc.Unrecord(ctx, "req-789")
			seen := svc.SeenAndRecord(ctx, "req-789")

			Convey("Then it should be treated as new again", func() {
				So(seen, ShouldBeFalse)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting a valid spec", func() {
			id, ok := svc.Submit(ctx, lineSpec("req-1"))

			Convey("Then it should be accepted with a job id", func() {
				So(ok, ShouldBeTrue)
				So(id, ShouldNotBeEmpty)
			})

			Convey("And the job should be retrievable", func() {
				j, err := svc.GetJob(ctx, id)
				So(err, ShouldBeNil)
				So(j.ID, ShouldEqual, id)
				So(j.Spec.RequestID, ShouldEqual, "req-1")
			})
		})

		Convey("When submitting several specs", func() {
			for i := 0; i < 3; i++ {
				_, ok := svc.Submit(ctx, lineSpec("req-batch"))
				So(ok, ShouldBeTrue)
			}

			Convey("Then recent jobs should list them", func() {
				jobs, err := svc.RecentJobs(ctx, 10)
				So(err, ShouldBeNil)
				So(len(jobs), ShouldBeGreaterThanOrEqualTo, 3)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When getting stats", func() {
			stats := svc.GetStats()

			Convey("Then queue and store figures should be present", func() {
				So(stats["queueLength"], ShouldNotBeNil)
				So(stats["totalJobs"], ShouldNotBeNil)
			})
		})
	})
}
