package leaderboard

import "context"

// StartingListSource fetches a starting list from the vendor.
type StartingListSource interface {
	FetchStartingList(ctx context.Context, classID, competitionID int64) ([]StartingEntry, error)
}

// ResultSource fetches the current judge marks from the vendor.
type ResultSource interface {
	FetchResults(ctx context.Context, classID, competitionID int64) ([]Result, error)
}

// StartingListRepository serves starting lists from a cache in front of a StartingListSource.
type StartingListRepository interface {
	// Get returns the cached list unless force is set or nothing is cached yet.
	Get(ctx context.Context, classID, competitionID int64, force bool) ([]StartingEntry, error)
	Invalidate(ctx context.Context, classID, competitionID int64)
	// ClearAll drops every cached list and reports how many were removed.
	ClearAll(ctx context.Context) int
}
