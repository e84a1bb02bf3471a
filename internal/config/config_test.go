package config_test

import (
	"runtime"
	"testing"

	"github.com/glassboxml/glassbox/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.JobQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			convey.So(cfg.DefaultModel, convey.ShouldEqual, "linear")
			convey.So(cfg.DefaultSampleN, convey.ShouldEqual, 500)
			convey.So(cfg.DefaultGridPoints, convey.ShouldEqual, 101)
			convey.So(cfg.ImportanceRounds, convey.ShouldEqual, 10)
		})
	})
}
