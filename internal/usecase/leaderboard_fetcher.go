package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
)

// LeaderboardFetcher joins a starting list with the current results.
type LeaderboardFetcher struct {
	startingLists leaderboard.StartingListRepository
	results       leaderboard.ResultSource
}

func NewLeaderboardFetcher(startingLists leaderboard.StartingListRepository, results leaderboard.ResultSource) *LeaderboardFetcher {
	return &LeaderboardFetcher{startingLists: startingLists, results: results}
}

// FetchLeaderboard returns one entry per starting-list row. Rows without a
// matching result keep empty score fields. Any fetch failure fails the call.
func (f *LeaderboardFetcher) FetchLeaderboard(ctx context.Context, key competition.Key, force bool) (_ []leaderboard.Entry, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardFetcher.FetchLeaderboard", keyAttributes(key)...)
	defer func() { endSpan(span, err) }()

	if key.ClassID <= 0 || !key.CompetitionID.Valid() {
		return nil, fmt.Errorf("%w: class and competition are required", ErrInvalidInput)
	}

	starting, err := f.startingLists.Get(ctx, key.ClassID, int64(key.CompetitionID), force)
	if err != nil {
		return nil, fmt.Errorf("get starting list: %w", err)
	}
	results, err := f.results.FetchResults(ctx, key.ClassID, int64(key.CompetitionID))
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}

	byContestant := make(map[string]leaderboard.Result, len(results))
	for _, r := range results {
		nr := strings.TrimSpace(r.ContestantNumber)
		if nr == "" {
			continue
		}
		byContestant[nr] = r
	}

	out := make([]leaderboard.Entry, 0, len(starting))
	for _, s := range starting {
		entry := leaderboard.Entry{StartingEntry: s}
		if r, ok := byContestant[strings.TrimSpace(s.ContestantNumber)]; ok {
			entry.Judges = r.Judges
			entry.Average = r.Average
			entry.ResultRank = r.Rank
		}
		out = append(out, entry)
	}
	return out, nil
}
