package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/ahcview/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Source, convey.ShouldEqual, "fs")
			convey.So(cfg.DataDir, convey.ShouldEqual, "data")
			convey.So(cfg.LookupConcurrency, convey.ShouldEqual, min(runtime.NumCPU(), config.MaxLookupConcurrency))
			convey.So(cfg.FetchIntervalMS, convey.ShouldEqual, 5000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the duration helpers convert units", func() {
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.CacheCleanup(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.FetchInterval(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 30*time.Second)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New()

		convey.Convey("When the source is s3 without a bucket", func() {
			cfg.Source = "s3"
			err := cfg.Validate()

			convey.Convey("Then the bucket and region are reported by key", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "s3_bucket is required")
				convey.So(err.Error(), convey.ShouldContainSubstring, "s3_region is required")
			})
		})

		convey.Convey("When the source is unknown", func() {
			cfg.Source = "ftp"
			err := cfg.Validate()

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "source must be one of")
			})
		})

		convey.Convey("When the filesystem source has no directory", func() {
			cfg.DataDir = ""
			err := cfg.Validate()

			convey.Convey("Then data_dir is required", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "data_dir is required")
			})
		})

		convey.Convey("When the concurrency is zero", func() {
			cfg.LookupConcurrency = 0
			err := cfg.Validate()

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "lookup_concurrency must be at least 1")
			})
		})

		convey.Convey("When a URL template lacks the placeholder", func() {
			cfg.FetchResultsURL = "https://atcoder.jp/contests/results/json"
			err := cfg.Validate()

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "fetch_results_url must contain {contest_id}")
			})
		})
	})
}

func TestDefaultLookupConcurrency(t *testing.T) {
	convey.Convey("Given host CPU counts", t, func() {
		convey.Convey("Then the default stays within the validated range", func() {
			convey.So(config.DefaultLookupConcurrency(4), convey.ShouldEqual, 4)
			convey.So(config.DefaultLookupConcurrency(512), convey.ShouldEqual, config.MaxLookupConcurrency)
			convey.So(config.DefaultLookupConcurrency(0), convey.ShouldEqual, 1)
		})

		convey.Convey("Then a config on a very large host still validates", func() {
			cfg := config.New()
			cfg.LookupConcurrency = config.DefaultLookupConcurrency(1024)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
