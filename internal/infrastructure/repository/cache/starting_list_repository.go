package cache

import (
	"context"
	"fmt"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	basecache "github.com/riskibarqy/sportfengur-relay/internal/platform/cache"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
)

// StartingListRepository caches starting lists by class and competition.
// Entries never expire by age; they are replaced on force or dropped by
// Invalidate/ClearAll.
type StartingListRepository struct {
	next    leaderboard.StartingListSource
	cache   *basecache.Store
	logger  *logging.Logger
	metrics *metrics.Recorder
}

func NewStartingListRepository(next leaderboard.StartingListSource, cache *basecache.Store, logger *logging.Logger, recorder *metrics.Recorder) *StartingListRepository {
	if cache == nil {
		cache = basecache.NewStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StartingListRepository{next: next, cache: cache, logger: logger, metrics: recorder}
}

func startingListKey(classID, competitionID int64) string {
	return fmt.Sprintf("%d:%d", classID, competitionID)
}

func (r *StartingListRepository) Get(ctx context.Context, classID, competitionID int64, force bool) ([]leaderboard.StartingEntry, error) {
	key := startingListKey(classID, competitionID)

	if !force {
		if v, storedAt, ok := r.cache.GetWithTime(ctx, key); ok {
			items, _ := v.([]leaderboard.StartingEntry)
			r.logger.DebugContext(ctx, "starting list served from cache", "key", key, "stored_at", storedAt)
			r.metrics.StartingListLookup("hit")
			return append([]leaderboard.StartingEntry(nil), items...), nil
		}
		v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
			return r.load(ctx, classID, competitionID)
		})
		if err != nil {
			return nil, err
		}
		r.metrics.StartingListLookup("miss")
		items, _ := v.([]leaderboard.StartingEntry)
		return append([]leaderboard.StartingEntry(nil), items...), nil
	}

	items, err := r.load(ctx, classID, competitionID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, items)
	r.metrics.StartingListLookup("forced")
	return append([]leaderboard.StartingEntry(nil), items...), nil
}

func (r *StartingListRepository) load(ctx context.Context, classID, competitionID int64) ([]leaderboard.StartingEntry, error) {
	items, err := r.next.FetchStartingList(ctx, classID, competitionID)
	if err != nil {
		return nil, err
	}
	return append([]leaderboard.StartingEntry(nil), items...), nil
}

func (r *StartingListRepository) Invalidate(ctx context.Context, classID, competitionID int64) {
	key := startingListKey(classID, competitionID)
	r.cache.Delete(ctx, key)
	r.logger.InfoContext(ctx, "starting list cache invalidated", "key", key)
}

func (r *StartingListRepository) ClearAll(ctx context.Context) int {
	removed := r.cache.Clear(ctx)
	r.logger.InfoContext(ctx, "starting list cache cleared", "removed", removed)
	return removed
}
