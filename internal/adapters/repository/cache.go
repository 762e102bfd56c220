package repository

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	model "github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/pkg/metrics"
)

// Default cache timings.
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheCleanup = 10 * time.Minute
)

// CachedStore memoizes another Store. Concurrent loads of the same dataset
// share one underlying read. Missing and malformed datasets are cached too;
// transient failures are not.
type CachedStore struct {
	next    Store
	cache   *cache.Cache
	sfGroup singleflight.Group
	ttl     time.Duration
	cleanup time.Duration
}

// CacheOption applies a configuration option to the CachedStore.
type CacheOption func(*CachedStore)

// WithTTL sets how long a loaded dataset stays cached.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired entries are purged.
func WithCleanupInterval(interval time.Duration) CacheOption {
	return func(c *CachedStore) {
		if interval > 0 {
			c.cleanup = interval
		}
	}
}

// NewCachedStore wraps next.
func NewCachedStore(next Store, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		next:    next,
		ttl:     DefaultCacheTTL,
		cleanup: DefaultCacheCleanup,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = cache.New(c.ttl, c.cleanup)
	return c
}

// Flush drops every cached dataset.
func (c *CachedStore) Flush() { c.cache.Flush() }

type entry struct {
	value any
	err   error
}

func (c *CachedStore) Catalog(ctx context.Context) (model.ContestLists, error) {
	v, err := c.get(ctx, datasetCatalog, CatalogKey, func(ctx context.Context) (any, error) {
		return c.next.Catalog(ctx)
	})
	if err != nil {
		return model.ContestLists{}, err
	}
	lists, _ := v.(model.ContestLists)
	return lists, nil
}

func (c *CachedStore) Standings(ctx context.Context, id model.ContestID) ([]model.StandingsRow, error) {
	key, err := StandingsKey(id)
	if err != nil {
		return nil, err
	}
	v, err := c.get(ctx, string(model.DatasetStandings), key, func(ctx context.Context) (any, error) {
		return c.next.Standings(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]model.StandingsRow)
	return rows, nil
}

func (c *CachedStore) Extended(ctx context.Context, id model.ContestID) ([]model.ExtendedRow, error) {
	key, err := ExtendedKey(id)
	if err != nil {
		return nil, err
	}
	v, err := c.get(ctx, string(model.DatasetExtended), key, func(ctx context.Context) (any, error) {
		return c.next.Extended(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]model.ExtendedRow)
	return rows, nil
}

func (c *CachedStore) get(ctx context.Context, dataset, key string, load func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cached, found := c.cache.Get(key); found {
		if e, ok := cached.(entry); ok {
			metrics.RecordCacheHit(dataset)
			return e.value, e.err
		}
	}
	metrics.RecordCacheMiss(dataset)

	// The shared load must not die with whichever request started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.sfGroup.DoChan(key, func() (interface{}, error) {
		if cached, found := c.cache.Get(key); found {
			if e, ok := cached.(entry); ok {
				return e, nil
			}
		}
		value, err := load(loadCtx)
		e := entry{value: value, err: err}
		if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformed) {
			c.cache.Set(key, e, cache.DefaultExpiration)
		}
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		e, _ := res.Val.(entry)
		return e.value, e.err
	}
}
