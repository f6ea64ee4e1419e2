package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

var allowedSearchParams = map[string]struct{}{
	"numer":              {},
	"motsheiti":          {},
	"motsnumer":          {},
	"stadsetning":        {},
	"felag_audkenni":     {},
	"adildarfelag_numer": {},
	"land_kodi":          {},
	"ar":                 {},
	"dagsetning_byrjar":  {},
	"innanhusmot":        {},
	"motstegund_numer":   {},
	"stormot":            {},
	"world_ranking":      {},
	"skraning_stada":     {},
}

// EventCatalogService proxies vendor event listings.
type EventCatalogService struct {
	source EventCatalogSource
	tests  EventTestSource
}

func NewEventCatalogService(source EventCatalogSource, tests EventTestSource) *EventCatalogService {
	return &EventCatalogService{source: source, tests: tests}
}

// SearchEvents forwards only known, non-empty search parameters.
func (s *EventCatalogService) SearchEvents(ctx context.Context, query url.Values) ([]byte, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventCatalogService.SearchEvents")
	defer span.End()

	filtered := url.Values{}
	for key, values := range query {
		if _, ok := allowedSearchParams[key]; !ok {
			continue
		}
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				filtered.Add(key, v)
			}
		}
	}
	out, err := s.source.SearchEvents(ctx, filtered)
	if err != nil {
		return nil, dependencyError("search events", err)
	}
	return out, nil
}

func (s *EventCatalogService) Participants(ctx context.Context, eventID int64) ([]byte, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event id must be positive", ErrInvalidInput)
	}
	out, err := s.source.EventParticipants(ctx, eventID)
	if err != nil {
		return nil, dependencyError("fetch participants", err)
	}
	return out, nil
}

func (s *EventCatalogService) Tests(ctx context.Context, eventID int64) ([]byte, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event id must be positive", ErrInvalidInput)
	}
	out, err := s.source.EventTestsRaw(ctx, eventID)
	if err != nil {
		return nil, dependencyError("fetch event tests", err)
	}
	return out, nil
}

// ListTests returns the parsed class/competition pairs of an event.
func (s *EventCatalogService) ListTests(ctx context.Context, eventID int64) ([]EventTest, error) {
	if eventID <= 0 {
		return nil, fmt.Errorf("%w: event id must be positive", ErrInvalidInput)
	}
	out, err := s.tests.FetchEventTests(ctx, eventID)
	if err != nil {
		return nil, dependencyError("fetch event tests", err)
	}
	return out, nil
}

func dependencyError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDependencyUnavailable, op, err)
}
