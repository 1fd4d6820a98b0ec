package task

import (
	"context"
	"strconv"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// Cache is the subset of the Redis cache the task store needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// CachedStore decorates a Store with cache-aside lookups by id.
// Creates write the new task through; updates and deletes evict it.
// Keys live under namespace, which must identify the data set behind store.
type CachedStore struct {
	Store
	cache     Cache
	namespace string
	sfGroup   singleflight.Group
	logger    types.Logger
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps store with cache, keying entries under namespace.
func NewCachedStore(store Store, cache Cache, namespace string, logger types.Logger) *CachedStore {
	return &CachedStore{
		Store:     store,
		cache:     cache,
		namespace: namespace,
		logger:    logger,
	}
}

func (s *CachedStore) keyByID(id int64) string {
	return s.namespace + ":id:" + strconv.FormatInt(id, 10)
}

type findResult struct {
	task  domain.Task
	found bool
}

// Find serves from cache when possible. Concurrent misses for the same id
// share one store lookup.
func (s *CachedStore) Find(ctx context.Context, id int64) (domain.Task, bool, error) {
	key := s.keyByID(id)

	var cached domain.Task
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed", "key", key, "error", err)
	}
	if hit {
		return cached, true, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		// The lookup is shared, so one caller's cancellation must not fail the rest.
		lookupCtx := context.WithoutCancel(ctx)
		t, found, err := s.Store.Find(lookupCtx, id)
		if err != nil {
			return nil, err
		}
		if found {
			if err := s.cache.Set(lookupCtx, key, t); err != nil {
				s.logger.Warn("Cache write failed", "key", key, "error", err)
			}
		}
		return findResult{task: t, found: found}, nil
	})
	if err != nil {
		return domain.Task{}, false, err
	}

	res := val.(findResult)
	return res.task, res.found, nil
}

// Create inserts into the store and caches the new task under its id,
// replacing anything left under that key.
func (s *CachedStore) Create(ctx context.Context, text string, completed bool) (domain.Task, error) {
	t, err := s.Store.Create(ctx, text, completed)
	if err != nil {
		return domain.Task{}, err
	}

	key := s.keyByID(t.ID)
	if err := s.cache.Set(ctx, key, t); err != nil {
		s.logger.Warn("Cache write failed", "key", key, "error", err)
		s.evict(ctx, t.ID)
	}
	return t, nil
}

// Update writes through to the store and evicts the cached entry.
func (s *CachedStore) Update(ctx context.Context, id int64, text string, completed bool) (domain.Task, bool, error) {
	t, found, err := s.Store.Update(ctx, id, text, completed)
	if err != nil {
		return domain.Task{}, false, err
	}
	s.evict(ctx, id)
	return t, found, nil
}

// Delete removes from the store and evicts the cached entry.
func (s *CachedStore) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.Store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.evict(ctx, id)
	return removed, nil
}

func (s *CachedStore) evict(ctx context.Context, id int64) {
	key := s.keyByID(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Cache eviction failed", "key", key, "error", err)
	}
}
