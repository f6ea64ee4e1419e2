package competition

import (
	"context"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
)

// StateRepository holds the latest leaderboard per competition type.
type StateRepository interface {
	// Update atomically replaces the slot for key.CompetitionID and marks it current.
	Update(ctx context.Context, key Key, rows []leaderboard.Contestant) error
	// Get returns the slot for t; ok is false when it was never populated.
	Get(ctx context.Context, t Type) (Slot, bool)
	// Current returns the most recently updated slot.
	Current(ctx context.Context) (Slot, bool)
	Reset(ctx context.Context)
}
