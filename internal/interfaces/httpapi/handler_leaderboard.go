package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

const (
	sortedSegment  = "sorted"
	resultsSegment = "results"
)

func (h *Handler) CurrentLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CurrentLeaderboard")
	defer span.End()

	var eventID int64
	if raw := r.PathValue("eventID"); raw != "" {
		parsed, err := competition.ParseID(raw)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		eventID = parsed
	}

	current, err := h.leaderboardService.Current(ctx, eventID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp := currentLeaderboardResponse{
		Leaderboard: nonNilRows(current.Leaderboard),
	}
	if current.Metadata != nil {
		resp.Metadata = toLeaderboardMetadata(*current.Metadata)
	}
	writeFeed(ctx, w, resp)
}

// LeaderboardFeed serves the graphics feed paths:
//
//	/{competition}                       rows by track number
//	/{competition}/sorted                rows by rank
//	/{eventID}/{competition}             rows by track number, event checked
//	/{eventID}/{competition}/sorted      rows by rank, event checked
//	/{eventID}/results/{competition}     per-gait result tables
func (h *Handler) LeaderboardFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaderboardFeed")
	defer span.End()

	route, err := parseFeedRoute(r.PathValue("first"), r.PathValue("second"), r.PathValue("third"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if route.gaits {
		tables, err := h.leaderboardService.GaitResults(ctx, route.query.Competition, route.query.EventID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		if tables == nil {
			tables = []leaderboard.GaitTable{}
		}
		writeFeed(ctx, w, tables)
		return
	}

	rows, err := h.leaderboardService.Leaderboard(ctx, route.query)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeFeed(ctx, w, nonNilRows(rows))
}

func (h *Handler) LeaderboardCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaderboardCSV")
	defer span.End()

	t := competition.Preliminary
	if raw := strings.TrimSpace(r.URL.Query().Get("competition")); raw != "" {
		parsed, err := competition.ParseType(raw)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		t = parsed
	}

	body, err := h.leaderboardService.CSV(ctx, t)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leaderboard-%s.csv"`, t.Slug()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type feedRoute struct {
	query usecase.LeaderboardQuery
	gaits bool
}

func parseFeedRoute(first, second, third string) (feedRoute, error) {
	var route feedRoute
	switch {
	case second == "":
		t, err := competition.ParseType(first)
		if err != nil {
			return route, err
		}
		route.query = usecase.LeaderboardQuery{Competition: t, Sort: usecase.SortByTrack}
		return route, nil

	case third == "" && second == sortedSegment:
		t, err := competition.ParseType(first)
		if err != nil {
			return route, err
		}
		route.query = usecase.LeaderboardQuery{Competition: t, Sort: usecase.SortByRank}
		return route, nil

	case third == "":
		return eventFeedRoute(first, second, usecase.SortByTrack, false)

	case second == resultsSegment:
		return eventFeedRoute(first, third, usecase.SortByRank, true)

	case third == sortedSegment:
		return eventFeedRoute(first, second, usecase.SortByRank, false)

	default:
		return route, fmt.Errorf("%w: route /%s/%s/%s", usecase.ErrNotFound, first, second, third)
	}
}

func eventFeedRoute(rawEventID, rawCompetition string, sort usecase.SortOrder, gaits bool) (feedRoute, error) {
	eventID, err := competition.ParseID(rawEventID)
	if err != nil {
		return feedRoute{}, err
	}
	t, err := competition.ParseType(rawCompetition)
	if err != nil {
		return feedRoute{}, err
	}
	return feedRoute{
		query: usecase.LeaderboardQuery{Competition: t, EventID: eventID, Sort: sort},
		gaits: gaits,
	}, nil
}

func nonNilRows(rows []leaderboard.Contestant) []leaderboard.Contestant {
	if rows == nil {
		return []leaderboard.Contestant{}
	}
	return rows
}

func toLeaderboardMetadata(meta competition.Metadata) *leaderboardMetadata {
	out := &leaderboardMetadata{
		EventID:       meta.EventID,
		ClassID:       meta.ClassID,
		CompetitionID: int64(meta.CompetitionID),
		Competition:   meta.CompetitionID.Slug(),
	}
	if !meta.UpdatedAt.IsZero() {
		out.UpdatedAt = meta.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}
