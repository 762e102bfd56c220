package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/ahcview/internal/adapters/repository"
	service "github.com/okian/ahcview/internal/app"
	"github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/internal/domain/types"
	"github.com/okian/ahcview/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var p = model.IntPtr

func fixtureStore() *repository.MemoryStore {
	mem := repository.NewMemoryStore()
	mem.SetCatalog(model.ContestLists{
		Normal: []string{"ahc001", "ahc002"},
		Other:  []string{"special"},
	})
	mem.PutStandings("ahc001", []model.StandingsRow{
		{User: "alice", Rank: p(1), Performance: p(2000)},
		{User: "bob", Rank: p(2), Performance: p(1800)},
	})
	mem.PutExtended("ahc001", []model.ExtendedRow{
		{User: "carol", Rank: p(1)},
		{User: "alice", Rank: p(2), ContestRank: p(1)},
		{User: "bob", Rank: p(3), ContestRank: p(2)},
	})
	return mem
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats().Source, ShouldEqual, "memory")
			So(svc.GetStats().Concurrency, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithStore(fixtureStore()),
			service.WithConcurrency(3),
			service.WithSourceKind("fs"),
			service.WithLogger(logger.Get()),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats.Concurrency, ShouldEqual, 3)
			So(stats.Source, ShouldEqual, "fs")
		})
	})
}

func TestService_Contests(t *testing.T) {
	Convey("Given a catalog", t, func() {
		svc := service.New(service.WithStore(fixtureStore()))

		Convey("When resolving contests", func() {
			ids := svc.Contests(context.Background())

			Convey("Then regular contests lead in descending order", func() {
				So(ids, ShouldResemble, []model.ContestID{"ahc002", "ahc001", "special"})
				So(svc.GetStats().CatalogSize, ShouldEqual, 3)
			})
		})
	})

	Convey("Given no catalog at all", t, func() {
		svc := service.New(service.WithStore(repository.NewMemoryStore()))

		Convey("Then the catalog is empty", func() {
			So(svc.Contests(context.Background()), ShouldBeEmpty)
		})
	})
}

func TestService_Results(t *testing.T) {
	Convey("Given the fixture datasets", t, func() {
		ctx := context.Background()
		mem := fixtureStore()
		svc := service.New(service.WithStore(mem), service.WithConcurrency(2))

		Convey("When looking up carol, a late entrant", func() {
			results, err := svc.Results(ctx, "carol")

			Convey("Then every contest is present in catalog order", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 3)
				So(results[0].Contest, ShouldEqual, "AHC002")
				So(results[1].Contest, ShouldEqual, "AHC001")
				So(results[2].Contest, ShouldEqual, "SPECIAL")
			})

			Convey("And her extended result is projected onto first place", func() {
				r := results[1]
				So(r.Rank, ShouldBeNil)
				So(r.Perf, ShouldBeNil)
				So(*r.ExtendedRank, ShouldEqual, 1)
				So(*r.ExtendedEquivRank, ShouldEqual, 1)
				So(*r.ExtendedEquivPerf, ShouldEqual, 2000)
			})

			Convey("And contests without data are all null", func() {
				So(results[0], ShouldResemble, types.Result{Contest: "AHC002"})
				So(results[2], ShouldResemble, types.Result{Contest: "SPECIAL"})
			})
		})

		Convey("When looking up alice with surrounding whitespace", func() {
			results, err := svc.Results(ctx, "  alice ")

			Convey("Then her original result is found", func() {
				So(err, ShouldBeNil)
				So(*results[1].Rank, ShouldEqual, 1)
				So(*results[1].Perf, ShouldEqual, 2000)
			})
		})

		Convey("When the handle is blank", func() {
			_, err := svc.Results(ctx, "   ")

			Convey("Then the request is rejected before any dataset read", func() {
				So(errors.Is(err, service.ErrEmptyUser), ShouldBeTrue)
				So(mem.Calls(), ShouldEqual, 0)
			})
		})

		Convey("When the same query runs twice", func() {
			first, err1 := svc.Results(ctx, "bob")
			second, err2 := svc.Results(ctx, "bob")

			Convey("Then the answers are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
				So(svc.GetStats().QueriesServed, ShouldEqual, 2)
			})
		})

		Convey("When the extended dataset is corrupt", func() {
			mem.Fail("extended/ahc001.json", fmt.Errorf("%w: bad json", repository.ErrMalformed))
			results, err := svc.Results(ctx, "alice")

			Convey("Then only the extended fields degrade", func() {
				So(err, ShouldBeNil)
				So(*results[1].Rank, ShouldEqual, 1)
				So(results[1].ExtendedRank, ShouldBeNil)
				So(results[1].ExtendedEquivRank, ShouldBeNil)
				So(results[1].ExtendedEquivPerf, ShouldBeNil)
			})
		})

		Convey("When the standings read fails unexpectedly", func() {
			mem.Fail("results/ahc001.json", errors.New("io failure"))
			results, err := svc.Results(ctx, "alice")

			Convey("Then the contest stays in the list with null fields", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 3)
				So(results[1], ShouldResemble, types.Result{Contest: "AHC001"})
			})
		})

		Convey("When the request is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			results, err := svc.Results(cctx, "alice")

			Convey("Then no partial results are returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(results, ShouldBeNil)
			})
		})
	})

	Convey("Given a contest whose standings have no performances", t, func() {
		mem := repository.NewMemoryStore()
		mem.SetCatalog(model.ContestLists{Normal: []string{"ahc003"}})
		mem.PutStandings("ahc003", []model.StandingsRow{{User: "alice", Rank: p(1)}})
		mem.PutExtended("ahc003", []model.ExtendedRow{{User: "alice", Rank: p(1)}})
		svc := service.New(service.WithStore(mem))

		Convey("When looking up alice", func() {
			results, err := svc.Results(context.Background(), "alice")

			Convey("Then the extended dataset is never consulted", func() {
				So(err, ShouldBeNil)
				So(*results[0].Rank, ShouldEqual, 1)
				So(results[0].ExtendedRank, ShouldBeNil)
				// catalog + standings only
				So(mem.Calls(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a large catalog", t, func() {
		mem := repository.NewMemoryStore()
		normal := make([]string, 0, 50)
		for i := 1; i <= 50; i++ {
			id := fmt.Sprintf("ahc%03d", i)
			normal = append(normal, id)
			mem.PutStandings(model.ContestID(id), []model.StandingsRow{{User: "alice", Rank: p(i), Performance: p(3000 - i)}})
		}
		mem.SetCatalog(model.ContestLists{Normal: normal})
		svc := service.New(service.WithStore(mem), service.WithConcurrency(8))

		Convey("When evaluating with bounded fan-out", func() {
			results, err := svc.Results(context.Background(), "alice")

			Convey("Then the output order still follows the catalog", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 50)
				for i, r := range results {
					So(r.Contest, ShouldEqual, fmt.Sprintf("AHC%03d", 50-i))
					So(*r.Rank, ShouldEqual, 50-i)
				}
			})
		})
	})
}
