package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
)

type SortOrder string

const (
	SortByTrack SortOrder = "track"
	SortByRank  SortOrder = "rank"
)

// LeaderboardQuery selects one competition slot. A non-zero EventID must match
// the event the slot was produced for.
type LeaderboardQuery struct {
	Competition competition.Type
	EventID     int64
	Sort        SortOrder
}

// CurrentLeaderboard is the most recently refreshed slot.
type CurrentLeaderboard struct {
	Metadata    *competition.Metadata
	Leaderboard []leaderboard.Contestant
}

// LeaderboardQueryService reads published leaderboards. It never calls the vendor.
type LeaderboardQueryService struct {
	state competition.StateRepository
}

func NewLeaderboardQueryService(state competition.StateRepository) *LeaderboardQueryService {
	return &LeaderboardQueryService{state: state}
}

func (s *LeaderboardQueryService) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]leaderboard.Contestant, error) {
	slot, err := s.slot(ctx, q.Competition, q.EventID)
	if err != nil {
		return nil, err
	}

	rows := append([]leaderboard.Contestant(nil), slot.Leaderboard...)
	switch q.Sort {
	case SortByRank:
		leaderboard.SortByRank(rows)
	default:
		leaderboard.SortByTrackNumber(rows)
	}
	return rows, nil
}

func (s *LeaderboardQueryService) Current(ctx context.Context, eventID int64) (CurrentLeaderboard, error) {
	if eventID < 0 {
		return CurrentLeaderboard{}, fmt.Errorf("%w: event id", ErrInvalidInput)
	}
	slot, ok := s.state.Current(ctx)
	if !ok {
		return CurrentLeaderboard{Leaderboard: []leaderboard.Contestant{}}, nil
	}
	if eventID > 0 && slot.Key.EventID != eventID {
		return CurrentLeaderboard{}, &EventMismatchError{RequestedEventID: eventID, CurrentEventID: slot.Key.EventID}
	}
	meta, _ := slot.Metadata()
	return CurrentLeaderboard{
		Metadata:    &meta,
		Leaderboard: append([]leaderboard.Contestant(nil), slot.Leaderboard...),
	}, nil
}

// GaitResults groups a slot's contestants into per-gait result tables.
func (s *LeaderboardQueryService) GaitResults(ctx context.Context, t competition.Type, eventID int64) ([]leaderboard.GaitTable, error) {
	slot, err := s.slot(ctx, t, eventID)
	if err != nil {
		return nil, err
	}
	return leaderboard.GroupByGait(slot.Leaderboard), nil
}

// CSV renders a slot as a spreadsheet export, ordered by rank.
func (s *LeaderboardQueryService) CSV(ctx context.Context, t competition.Type) ([]byte, error) {
	rows, err := s.Leaderboard(ctx, LeaderboardQuery{Competition: t, Sort: SortByRank})
	if err != nil {
		return nil, err
	}
	out, err := leaderboard.EncodeCSV(rows)
	if err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return out, nil
}

// Metadata returns the identifiers of a slot; ok is false for an empty slot.
func (s *LeaderboardQueryService) Metadata(ctx context.Context, t competition.Type) (competition.Metadata, bool) {
	slot, ok := s.state.Get(ctx, t)
	if !ok {
		return competition.Metadata{}, false
	}
	return slot.Metadata()
}

func (s *LeaderboardQueryService) slot(ctx context.Context, t competition.Type, eventID int64) (competition.Slot, error) {
	if !t.Valid() {
		return competition.Slot{}, fmt.Errorf("%w: competition %d", ErrInvalidInput, t)
	}
	if eventID < 0 {
		return competition.Slot{}, fmt.Errorf("%w: event id", ErrInvalidInput)
	}
	slot, ok := s.state.Get(ctx, t)
	if !ok {
		return competition.Slot{}, nil
	}
	if eventID > 0 && slot.Key.EventID != eventID {
		return competition.Slot{}, &EventMismatchError{RequestedEventID: eventID, CurrentEventID: slot.Key.EventID}
	}
	return slot, nil
}
