package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	basecache "github.com/riskibarqy/sportfengur-relay/internal/platform/cache"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) FetchStartingList(_ context.Context, classID, competitionID int64) ([]leaderboard.StartingEntry, error) {
	n := s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []leaderboard.StartingEntry{{ContestantNumber: "1", TrackNumber: string(rune('0' + n))}}, nil
}

func newRepo(src leaderboard.StartingListSource) *StartingListRepository {
	return NewStartingListRepository(src, basecache.NewStore(0), logging.NewNop(), nil)
}

func TestStartingListRepository_ForceBypassesCache(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	repo := newRepo(src)
	ctx := context.Background()

	first, err := repo.Get(ctx, 789, 1, false)
	require.NoError(t, err)
	second, err := repo.Get(ctx, 789, 1, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first, second)

	third, err := repo.Get(ctx, 789, 1, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, "2", third[0].TrackNumber)

	fourth, err := repo.Get(ctx, 789, 1, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, "2", fourth[0].TrackNumber)
}

func TestStartingListRepository_KeysByClassAndCompetition(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	repo := newRepo(src)
	ctx := context.Background()

	_, err := repo.Get(ctx, 789, 1, false)
	require.NoError(t, err)
	_, err = repo.Get(ctx, 789, 2, false)
	require.NoError(t, err)
	_, err = repo.Get(ctx, 790, 1, false)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestStartingListRepository_InvalidateAndClearAll(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	repo := newRepo(src)
	ctx := context.Background()

	_, _ = repo.Get(ctx, 789, 1, false)
	_, _ = repo.Get(ctx, 789, 2, false)

	repo.Invalidate(ctx, 789, 1)
	_, err := repo.Get(ctx, 789, 1, false)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load())

	assert.Equal(t, 2, repo.ClearAll(ctx))
	_, err = repo.Get(ctx, 789, 2, false)
	require.NoError(t, err)
	assert.Equal(t, int32(4), src.calls.Load())
}

func TestStartingListRepository_ErrorIsNotCached(t *testing.T) {
	t.Parallel()

	src := &countingSource{err: errors.New("vendor down")}
	repo := newRepo(src)
	ctx := context.Background()

	_, err := repo.Get(ctx, 789, 1, false)
	require.Error(t, err)
	_, err = repo.Get(ctx, 789, 1, false)
	require.Error(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestStartingListRepository_ReturnsCopies(t *testing.T) {
	t.Parallel()

	repo := newRepo(&countingSource{})
	ctx := context.Background()

	items, err := repo.Get(ctx, 1, 1, false)
	require.NoError(t, err)
	items[0].ContestantNumber = "mutated"

	again, err := repo.Get(ctx, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "1", again[0].ContestantNumber)
}
