package usecase

import (
	"context"
	"net/url"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
)

// EventTest is one class/competition pair listed for an event.
type EventTest struct {
	ClassID       int64
	CompetitionID competition.Type
	ClassName     string
	TestName      string
}

type EventTestSource interface {
	FetchEventTests(ctx context.Context, eventID int64) ([]EventTest, error)
}

// EventCatalogSource returns vendor bodies untouched for pass-through endpoints.
type EventCatalogSource interface {
	SearchEvents(ctx context.Context, query url.Values) ([]byte, error)
	EventParticipants(ctx context.Context, eventID int64) ([]byte, error)
	EventTestsRaw(ctx context.Context, eventID int64) ([]byte, error)
}

// RefreshScheduling accepts refresh requests from webhook processing.
type RefreshScheduling interface {
	Schedule(req RefreshRequest)
}
