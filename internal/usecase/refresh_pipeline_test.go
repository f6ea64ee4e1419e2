package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	competitionmock "github.com/riskibarqy/sportfengur-relay/internal/mocks/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

type fetcherFunc func(ctx context.Context, key competition.Key, force bool) ([]leaderboard.Entry, error)

func (f fetcherFunc) FetchLeaderboard(ctx context.Context, key competition.Key, force bool) ([]leaderboard.Entry, error) {
	return f(ctx, key, force)
}

var pipelineKey = competition.Key{EventID: 999, ClassID: 789, CompetitionID: competition.Preliminary}

func TestRefreshPipeline_StoresNormalizedLeaderboard(t *testing.T) {
	t.Parallel()

	state := competitionmock.NewStateRepository(t)
	fetcher := fetcherFunc(func(_ context.Context, key competition.Key, force bool) ([]leaderboard.Entry, error) {
		assert.Equal(t, pipelineKey, key)
		assert.True(t, force)
		return []leaderboard.Entry{
			{StartingEntry: leaderboard.StartingEntry{TrackNumber: "2", RiderName: "b"}, ResultRank: "2"},
			{StartingEntry: leaderboard.StartingEntry{TrackNumber: "1", RiderName: "a"}, ResultRank: "1"},
		}, nil
	})

	state.
		On("Update", mock.Anything, pipelineKey, mock.MatchedBy(func(rows []leaderboard.Contestant) bool {
			return len(rows) == 2 && rows[0].Saeti == "1" && rows[1].Saeti == "2"
		})).
		Return(nil).
		Once()

	err := NewRefreshPipeline(fetcher, state, logging.NewNop()).Run(context.Background(), RefreshRequest{Key: pipelineKey, ForceRefresh: true})
	assert.NoError(t, err)
}

func TestRefreshPipeline_FetchErrorLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	state := competitionmock.NewStateRepository(t)
	vendorErr := errors.New("vendor down")
	fetcher := fetcherFunc(func(context.Context, competition.Key, bool) ([]leaderboard.Entry, error) {
		return nil, vendorErr
	})

	err := NewRefreshPipeline(fetcher, state, logging.NewNop()).Run(context.Background(), RefreshRequest{Key: pipelineKey})
	assert.ErrorIs(t, err, vendorErr)
	state.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshPipeline_ExpiredContextLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	state := competitionmock.NewStateRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := fetcherFunc(func(context.Context, competition.Key, bool) ([]leaderboard.Entry, error) {
		cancel()
		return []leaderboard.Entry{{StartingEntry: leaderboard.StartingEntry{TrackNumber: "1"}}}, nil
	})

	err := NewRefreshPipeline(fetcher, state, logging.NewNop()).Run(ctx, RefreshRequest{Key: pipelineKey})
	assert.ErrorIs(t, err, context.Canceled)
	state.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshPipeline_RejectsIncompleteKey(t *testing.T) {
	t.Parallel()

	state := competitionmock.NewStateRepository(t)
	fetcher := fetcherFunc(func(context.Context, competition.Key, bool) ([]leaderboard.Entry, error) {
		t.Fatal("fetcher must not be called")
		return nil, nil
	})

	err := NewRefreshPipeline(fetcher, state, logging.NewNop()).Run(context.Background(), RefreshRequest{Key: competition.Key{ClassID: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
