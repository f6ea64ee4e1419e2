package memory

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
)

type stateSnapshot struct {
	slots   map[competition.Type]competition.Slot
	current competition.Type
}

// CompetitionStateRepository keeps one slot per competition type. Every write
// publishes a new immutable snapshot with a single pointer swap, so readers
// see either the old or the new slot in full.
type CompetitionStateRepository struct {
	state atomic.Pointer[stateSnapshot]
	now   func() time.Time
}

func NewCompetitionStateRepository() *CompetitionStateRepository {
	r := &CompetitionStateRepository{now: time.Now}
	r.state.Store(&stateSnapshot{slots: map[competition.Type]competition.Slot{}})
	return r
}

func (r *CompetitionStateRepository) Update(_ context.Context, key competition.Key, rows []leaderboard.Contestant) error {
	if !key.Complete() {
		return fmt.Errorf("%w: incomplete competition key %s", competition.ErrInvalidIdentifier, key)
	}

	slot := competition.Slot{
		Key:         key,
		Leaderboard: append([]leaderboard.Contestant(nil), rows...),
		UpdatedAt:   r.now(),
	}
	for {
		prev := r.state.Load()
		next := &stateSnapshot{
			slots:   make(map[competition.Type]competition.Slot, len(prev.slots)+1),
			current: key.CompetitionID,
		}
		for t, s := range prev.slots {
			next.slots[t] = s
		}
		next.slots[key.CompetitionID] = slot
		if r.state.CompareAndSwap(prev, next) {
			return nil
		}
	}
}

func (r *CompetitionStateRepository) Get(_ context.Context, t competition.Type) (competition.Slot, bool) {
	slot, ok := r.state.Load().slots[t]
	return slot, ok
}

func (r *CompetitionStateRepository) Current(_ context.Context) (competition.Slot, bool) {
	snap := r.state.Load()
	if snap.current == 0 {
		return competition.Slot{}, false
	}
	slot, ok := snap.slots[snap.current]
	return slot, ok
}

func (r *CompetitionStateRepository) Reset(_ context.Context) {
	r.state.Store(&stateSnapshot{slots: map[competition.Type]competition.Slot{}})
}
