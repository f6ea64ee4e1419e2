package webhook

import (
	"sort"
	"time"
)

// Event is the vendor webhook name; it doubles as the inbound route path.
type Event string

const (
	EventScoreUpdated          Event = "event_einkunn_saeti"
	EventCreated               Event = "event_mot_skra"
	EventEntriesChanged        Event = "event_keppendalisti_breyta"
	EventScheduleChanged       Event = "event_motadagskra_breytist"
	EventStartingListPublished Event = "event_raslisti_birtur"
	EventNextHeat              Event = "event_naesti_sprettur"
	EventClassesChanged        Event = "event_keppnisgreinar"
)

// Payload field names as they appear on the wire.
const (
	FieldEventID       = "eventId"
	FieldClassID       = "classId"
	FieldCompetitionID = "competitionId"
	FieldPublished     = "published"
)

// Definition describes how one webhook is validated and what it triggers.
type Definition struct {
	Event    Event
	Required []string
	// ForceRefresh bypasses the starting list cache on the refresh it schedules.
	ForceRefresh bool
}

var definitions = map[Event]Definition{
	EventScoreUpdated: {
		Event:    EventScoreUpdated,
		Required: []string{FieldEventID, FieldClassID, FieldCompetitionID},
	},
	EventCreated: {
		Event:    EventCreated,
		Required: []string{FieldEventID},
	},
	EventEntriesChanged: {
		Event:    EventEntriesChanged,
		Required: []string{FieldEventID},
	},
	EventScheduleChanged: {
		Event:    EventScheduleChanged,
		Required: []string{FieldEventID},
	},
	EventStartingListPublished: {
		Event:        EventStartingListPublished,
		Required:     []string{FieldEventID, FieldClassID, FieldPublished},
		ForceRefresh: true,
	},
	EventNextHeat: {
		Event:        EventNextHeat,
		Required:     []string{FieldEventID, FieldClassID, FieldCompetitionID},
		ForceRefresh: true,
	},
	EventClassesChanged: {
		Event:    EventClassesChanged,
		Required: []string{FieldEventID},
	},
}

func Lookup(event Event) (Definition, bool) {
	def, ok := definitions[event]
	return def, ok
}

// Definitions returns every known webhook ordered by name.
func Definitions() []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event < out[j].Event })
	return out
}

// Status is the processing outcome recorded for a delivery.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusDuplicate Status = "duplicate"
	StatusFiltered  Status = "filtered"
	StatusNoContext Status = "no_context"
	StatusError     Status = "error"
)

// HistoryEntry is one delivery as shown to operators.
type HistoryEntry struct {
	ID            string
	ReceivedAt    time.Time
	Event         Event
	EventID       int64
	ClassID       int64
	CompetitionID int64
	Published     string
	Status        Status
	Message       string
	Duration      time.Duration
}

// Health summarises webhook activity for the health endpoint.
type Health struct {
	LastWebhookAt   time.Time
	LastProcessedAt time.Time
	LastError       string
	LastErrorAt     time.Time
}
