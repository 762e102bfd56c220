package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ahcview/internal/adapters/mq/queue"
	"github.com/okian/ahcview/internal/adapters/mq/worker"
	"github.com/okian/ahcview/internal/adapters/repository"
	"github.com/okian/ahcview/internal/domain/catalog"
	"github.com/okian/ahcview/internal/domain/dedupe"
	model "github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/pkg/logger"
)

// Store is the dataset directory the collector reads and writes.
type Store interface {
	Writer
	Catalog(ctx context.Context) (model.ContestLists, error)
	SaveCatalog(ctx context.Context, lists model.ContestLists) error
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Added    []string
	Planned  int
	Dropped  int
	Fetched  int64
	Cached   int64
	Failed   int64
	Duration time.Duration
}

// Runner performs one collection pass.
type Runner struct {
	cfg    Config
	store  Store
	client *Client
	logger logger.Logger
}

// NewRunner creates a runner. client must already carry the session cookie.
func NewRunner(cfg Config, store Store, client *Client) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logger.Get().Named("fetch-runner"),
	}
}

// Run discovers new contests, refreshes the catalog, verifies the session and
// then fetches every planned dataset. Per-dataset failures are logged and
// counted; only catalog, discovery, session and context failures abort.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	rep := Report{RunID: uuid.NewString()}
	log := r.logger.With(logger.String("run_id", rep.RunID))

	lists, err := r.store.Catalog(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return rep, fmt.Errorf("load catalog: %w", err)
	}

	var index []contestMeta
	if err := r.client.GetJSON(ctx, kindContests, r.cfg.ContestsURL, false, &index); err != nil {
		return rep, fmt.Errorf("discover contests: %w", err)
	}
	lists, rep.Added = Merge(lists, ahcIDs(index))
	if len(rep.Added) > 0 {
		log.Info(ctx, "new contests found, updating catalog", logger.Any("added", rep.Added))
		lists = Canonical(lists)
		if err := r.store.SaveCatalog(ctx, lists); err != nil {
			return rep, fmt.Errorf("save catalog: %w", err)
		}
	}

	if err := r.client.CheckLogin(ctx, r.cfg.HomeURL); err != nil {
		return rep, fmt.Errorf("prepare session: %w", err)
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(r.cfg.QueueSize))
	rep.Planned, rep.Dropped = r.plan(ctx, log, q, lists, rep.RunID)
	_ = q.Close()

	proc := NewProcessor(r.client, r.store, r.cfg)
	pool := worker.NewPool(r.cfg.Workers, q, proc)
	pool.Start(ctx)
	waitErr := pool.Wait(ctx)

	rep.Fetched = proc.fetched.Load()
	rep.Cached = proc.cached.Load()
	rep.Failed = proc.failed.Load()
	rep.Duration = time.Since(started)

	log.Info(ctx, "collection finished",
		logger.Int("planned", rep.Planned),
		logger.Int("dropped", rep.Dropped),
		logger.Int("fetched", int(rep.Fetched)),
		logger.Int("cached", int(rep.Cached)),
		logger.Int("failed", int(rep.Failed)),
		logger.Duration("duration", rep.Duration),
	)
	if waitErr != nil {
		return rep, waitErr
	}
	return rep, nil
}

// plan enqueues a standings job for every target contest, followed by its
// extended job unless the contest skips extended standings.
func (r *Runner) plan(ctx context.Context, log logger.Logger, q queue.Queue, lists model.ContestLists, runID string) (planned, dropped int) {
	seen := dedupe.NewInMemoryDeduper()
	for _, raw := range Targets(lists) {
		id := model.NewContestID(raw)
		if id == "" {
			continue
		}
		jobs := []model.FetchJob{{ContestID: id, Dataset: model.DatasetStandings, RunID: runID}}
		if catalog.SkipsExtended(lists, id) {
			log.Info(ctx, "skip extended standings", logger.String("contest", id.String()))
		} else {
			jobs = append(jobs, model.FetchJob{ContestID: id, Dataset: model.DatasetExtended, RunID: runID})
		}

		for _, j := range jobs {
			if seen.SeenAndRecord(ctx, j.Key()) {
				continue
			}
			if err := q.Enqueue(ctx, j); err != nil {
				seen.Unrecord(ctx, j.Key())
				dropped++
				log.Warn(ctx, "fetch job dropped", logger.String("job", j.Key()), logger.Error(err))
				continue
			}
			planned++
		}
	}
	return planned, dropped
}
