package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

// RefreshRequest is the context a refresh cycle runs with.
type RefreshRequest struct {
	Key          competition.Key
	ForceRefresh bool
}

type leaderboardFetcher interface {
	FetchLeaderboard(ctx context.Context, key competition.Key, force bool) ([]leaderboard.Entry, error)
}

// RefreshPipeline is one fetch, normalize and store cycle.
type RefreshPipeline struct {
	fetcher leaderboardFetcher
	state   competition.StateRepository
	logger  *logging.Logger
}

func NewRefreshPipeline(fetcher leaderboardFetcher, state competition.StateRepository, logger *logging.Logger) *RefreshPipeline {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshPipeline{fetcher: fetcher, state: state, logger: logger}
}

// Run leaves the state untouched on any error, including ctx expiring after
// the fetch has completed.
func (p *RefreshPipeline) Run(ctx context.Context, req RefreshRequest) (err error) {
	ctx, span := startCycleSpan(ctx, "usecase.RefreshPipeline.Run", req.Key)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Bool("refresh.force", req.ForceRefresh))

	if !req.Key.Complete() {
		return fmt.Errorf("%w: incomplete competition key %s", ErrInvalidInput, req.Key)
	}

	entries, err := p.fetcher.FetchLeaderboard(ctx, req.Key, req.ForceRefresh)
	if err != nil {
		return fmt.Errorf("fetch leaderboard %s: %w", req.Key, err)
	}
	rows := leaderboard.NormalizeLeaderboard(entries)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err := p.state.Update(ctx, req.Key, rows); err != nil {
		return fmt.Errorf("update state %s: %w", req.Key, err)
	}

	p.logger.InfoContext(ctx, "leaderboard refreshed",
		"event_id", req.Key.EventID,
		"class_id", req.Key.ClassID,
		"competition_id", int64(req.Key.CompetitionID),
		"contestants", len(rows),
		"force_refresh", req.ForceRefresh,
	)
	return nil
}
