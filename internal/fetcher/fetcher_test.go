package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ahcview/internal/adapters/repository"
	model "github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(os.Stderr))
	_ = logger.SetLevelString("error")
}

var p = model.IntPtr

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestSimplify(t *testing.T) {
	Convey("Given upstream result entries", t, func() {
		entries := []resultEntry{
			{UserScreenName: raw(`"carol"`), Place: raw(`2`), Performance: raw(`1800`)},
			{UserScreenName: raw(`"zed"`), Place: raw(`null`), Performance: raw(`null`)},
			{UserScreenName: raw(`"bob"`), Place: raw(`2`), Performance: raw(`1850`)},
			{UserScreenName: raw(`"alice"`), Place: raw(`1`), Performance: raw(`2400`)},
		}

		Convey("Then rows are ordered by placement, unplaced last, ties by user", func() {
			rows := simplifyResults(entries)
			So(rows, ShouldResemble, []model.StandingsRow{
				{User: "alice", Rank: p(1), Performance: p(2400)},
				{User: "bob", Rank: p(2), Performance: p(1850)},
				{User: "carol", Rank: p(2), Performance: p(1800)},
				{User: "zed"},
			})
		})
	})

	Convey("Given an upstream extended standings document", t, func() {
		var doc extendedStandings
		err := json.Unmarshal([]byte(`{"StandingsData":[
			{"UserScreenName":"late","Rank":2,"Additional":{}},
			{"UserScreenName":"ranked","Rank":1,"Additional":{"standings.extendedContestRank":5}},
			{"UserScreenName":"nobody","Rank":null,"Additional":null}
		]}`), &doc)
		So(err, ShouldBeNil)

		Convey("Then the original contest rank is lifted out of Additional", func() {
			So(simplifyExtended(doc), ShouldResemble, []model.ExtendedRow{
				{User: "ranked", Rank: p(1), ContestRank: p(5)},
				{User: "late", Rank: p(2)},
				{User: "nobody"},
			})
		})
	})
}

func TestLists(t *testing.T) {
	Convey("Given a catalog and a discovery result", t, func() {
		lists := model.ContestLists{
			Normal:       []string{"ahc002", "ahc001"},
			Other:        []string{"ahc900", "ahc001"},
			SkipExtended: []string{"ahc900"},
		}

		Convey("When merging discovered ids", func() {
			merged, added := Merge(lists, []string{"ahc001", "ahc003", "ahc900", "ahc003"})

			Convey("Then only unknown ids are appended to normal", func() {
				So(added, ShouldResemble, []string{"ahc003"})
				So(merged.Normal, ShouldResemble, []string{"ahc002", "ahc001", "ahc003"})
				So(lists.Normal, ShouldHaveLength, 2)
			})
		})

		Convey("When nothing is new", func() {
			_, added := Merge(lists, []string{"ahc001"})
			So(added, ShouldBeEmpty)
		})

		Convey("Then the canonical form sorts normal and keeps other in order", func() {
			c := Canonical(model.ContestLists{
				Normal:       []string{"ahc003", "ahc001", "ahc003"},
				Other:        []string{"x2", "x1", "x2"},
				SkipExtended: []string{"b", "a"},
			})
			So(c.Normal, ShouldResemble, []string{"ahc001", "ahc003"})
			So(c.Other, ShouldResemble, []string{"x2", "x1"})
			So(c.SkipExtended, ShouldResemble, []string{"a", "b"})
		})

		Convey("Then targets are normal then other without repeats", func() {
			So(Targets(lists), ShouldResemble, []string{"ahc002", "ahc001", "ahc900"})
		})
	})

	Convey("Given an upstream contest index", t, func() {
		var index []contestMeta
		So(json.Unmarshal([]byte(`[{"id":"ahc010"},{"id":"abc100"},{"id":7},{"id":"ahc002"},{}]`), &index), ShouldBeNil)

		Convey("Then only AHC ids are kept, sorted", func() {
			So(ahcIDs(index), ShouldResemble, []string{"ahc002", "ahc010"})
		})
	})
}

func TestLoadSession(t *testing.T) {
	Convey("Given session files", t, func() {
		dir := t.TempDir()
		write := func(name, body string) string {
			path := filepath.Join(dir, name)
			So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
			return path
		}

		Convey("Then a valid file yields the cookie value", func() {
			v, err := LoadSession(write("ok.json", `{"REVEL_SESSION":"abc"}`))
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "abc")
		})

		Convey("Then a file without the cookie is rejected", func() {
			_, err := LoadSession(write("empty.json", `{"other":"x"}`))
			So(errors.Is(err, ErrSession), ShouldBeTrue)
		})

		Convey("Then a missing file is rejected", func() {
			_, err := LoadSession(filepath.Join(dir, "nope.json"))
			So(errors.Is(err, ErrSession), ShouldBeTrue)
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given an upstream server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/bom":
				_, _ = w.Write([]byte("\ufeff\n  [1,2,3]"))
			case "/home":
				if c, err := r.Cookie(sessionCookie); err == nil && c.Value == "good" {
					_, _ = w.Write([]byte("<html>welcome back</html>"))
					return
				}
				_, _ = w.Write([]byte("<html>ログイン</html>"))
			case "/ua":
				_, _ = w.Write([]byte(`"` + r.Header.Get("User-Agent") + `"`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()
		ctx := context.Background()

		Convey("When the body starts with a BOM and whitespace", func() {
			var got []int
			err := NewClient(0, time.Second).GetJSON(ctx, kindResults, srv.URL+"/bom", false, &got)

			Convey("Then it still decodes", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []int{1, 2, 3})
			})
		})

		Convey("When the resource does not exist", func() {
			var got any
			err := NewClient(0, time.Second).GetJSON(ctx, kindResults, srv.URL+"/missing", false, &got)

			Convey("Then the status is reported", func() {
				So(errors.Is(err, ErrStatus), ShouldBeTrue)
			})
		})

		Convey("When a user agent is configured", func() {
			var got string
			err := NewClient(0, time.Second, WithUserAgent("ahcview-test")).GetJSON(ctx, kindResults, srv.URL+"/ua", false, &got)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "ahcview-test")
		})

		Convey("Then the login check accepts a valid session", func() {
			So(NewClient(0, time.Second, WithSession("good")).CheckLogin(ctx, srv.URL+"/home"), ShouldBeNil)
		})

		Convey("Then the login check rejects a stale session", func() {
			err := NewClient(0, time.Second, WithSession("stale")).CheckLogin(ctx, srv.URL+"/home")
			So(errors.Is(err, ErrNotLoggedIn), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			var got any
			err := NewClient(time.Hour, time.Second).GetJSON(cctx, kindResults, srv.URL+"/bom", false, &got)

			Convey("Then the request is not made", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

type upstream struct {
	*httptest.Server
	resultHits   atomic.Int64
	extendedHits atomic.Int64
}

func newUpstream() *upstream {
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case path == "/contests.json":
			_, _ = w.Write([]byte(`[{"id":"ahc001"},{"id":"ahc002"},{"id":"abc300"}]`))
		case path == "/home":
			if c, err := r.Cookie(sessionCookie); err == nil && c.Value == "good" {
				_, _ = w.Write([]byte("ok"))
				return
			}
			_, _ = w.Write([]byte("ログイン"))
		case strings.HasSuffix(path, "/results/json"):
			u.resultHits.Add(1)
			if strings.Contains(path, "ahc404") {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`[{"UserScreenName":"bob","Place":2,"Performance":1500},{"UserScreenName":"alice","Place":1,"Performance":2000}]`))
		case strings.HasSuffix(path, "/standings/extended/json"):
			u.extendedHits.Add(1)
			if strings.Contains(path, "ahc404") {
				http.NotFound(w, r)
				return
			}
			if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "good" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte("\ufeff" + `{"StandingsData":[{"UserScreenName":"late","Rank":1,"Additional":{}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	return u
}

func (u *upstream) config() Config {
	return Config{
		ContestsURL: u.URL + "/contests.json",
		ResultsURL:  u.URL + "/contests/{contest_id}/results/json",
		ExtendedURL: u.URL + "/contests/{contest_id}/standings/extended/json?showAllUsers=true",
		HomeURL:     u.URL + "/home",
		Timeout:     time.Second,
		Workers:     1,
		QueueSize:   64,
	}
}

func TestRunner(t *testing.T) {
	Convey("Given an upstream and a data directory", t, func() {
		u := newUpstream()
		defer u.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		dir := t.TempDir()
		store := repository.NewFileStore(dir)
		So(store.SaveCatalog(ctx, model.ContestLists{
			Normal:       []string{"ahc404"},
			Other:        []string{"ahc002"},
			SkipExtended: []string{"ahc002"},
		}), ShouldBeNil)
		So(store.SaveStandings(ctx, model.StandingsFile{ContestID: "ahc404", FetchedAt: "before"}), ShouldBeNil)

		cfg := u.config()

		Convey("When the session is valid", func() {
			client := NewClient(0, time.Second, WithSession("good"))
			rep, err := NewRunner(cfg, store, client).Run(ctx)

			Convey("Then the run succeeds and reports what it did", func() {
				So(err, ShouldBeNil)
				So(rep.RunID, ShouldNotBeEmpty)
				So(rep.Added, ShouldResemble, []string{"ahc001"})
				// ahc404: standings+extended, ahc001: standings+extended, ahc002: standings only
				So(rep.Planned, ShouldEqual, 5)
				So(rep.Cached, ShouldEqual, 1)
				So(rep.Fetched, ShouldEqual, 3)
				So(rep.Failed, ShouldEqual, 1)
			})

			Convey("Then the catalog gains the new contest in canonical form", func() {
				lists, err := store.Catalog(ctx)
				So(err, ShouldBeNil)
				So(lists.Normal, ShouldResemble, []string{"ahc001", "ahc404"})
				So(lists.Other, ShouldResemble, []string{"ahc002"})
			})

			Convey("Then cached results are not downloaded again", func() {
				So(u.resultHits.Load(), ShouldEqual, 2)
			})

			Convey("Then skipped contests have no extended file", func() {
				_, err := store.Extended(ctx, "ahc002")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(u.extendedHits.Load(), ShouldEqual, 2)
			})

			Convey("Then written datasets are readable by the viewer", func() {
				rows, err := store.Standings(ctx, "ahc001")
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, []model.StandingsRow{
					{User: "alice", Rank: p(1), Performance: p(2000)},
					{User: "bob", Rank: p(2), Performance: p(1500)},
				})

				ext, err := store.Extended(ctx, "ahc001")
				So(err, ShouldBeNil)
				So(ext, ShouldResemble, []model.ExtendedRow{{User: "late", Rank: p(1)}})
			})
		})

		Convey("When the session is not logged in", func() {
			client := NewClient(0, time.Second, WithSession("stale"))
			_, err := NewRunner(cfg, store, client).Run(ctx)

			Convey("Then the run aborts before fetching any contest", func() {
				So(errors.Is(err, ErrNotLoggedIn), ShouldBeTrue)
				So(u.resultHits.Load(), ShouldEqual, 0)
				So(u.extendedHits.Load(), ShouldEqual, 0)
			})
		})

		Convey("When discovery fails", func() {
			cfg.ContestsURL = u.URL + "/nowhere"
			_, err := NewRunner(cfg, store, NewClient(0, time.Second, WithSession("good"))).Run(ctx)

			Convey("Then the run aborts", func() {
				So(errors.Is(err, ErrStatus), ShouldBeTrue)
			})
		})
	})
}
