package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
)

var fieldAliases = map[string][]string{
	FieldEventID:       {"eventId", "eventid", "event_id"},
	FieldClassID:       {"classId", "classid", "class_id"},
	FieldCompetitionID: {"competitionId", "competitionid", "competition_id"},
	FieldPublished:     {"published", "published_at", "is_published"},
}

// Payload carries the identifiers of a delivery as the strings the vendor sent.
type Payload struct {
	EventID       string `json:"eventId" validate:"required,numeric"`
	ClassID       string `json:"classId" validate:"required,numeric"`
	CompetitionID string `json:"competitionId" validate:"required,numeric"`
	Published     string `json:"published" validate:"required"`
}

// PayloadFromValues reads identifiers from a decoded JSON body or form, accepting
// the camelCase, lowercase and snake_case spellings the vendor has used.
func PayloadFromValues(values map[string]any) Payload {
	return Payload{
		EventID:       lookupScalar(values, FieldEventID),
		ClassID:       lookupScalar(values, FieldClassID),
		CompetitionID: lookupScalar(values, FieldCompetitionID),
		Published:     lookupScalar(values, FieldPublished),
	}
}

func lookupScalar(values map[string]any, field string) string {
	for _, alias := range fieldAliases[field] {
		v, ok := values[alias]
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	case []string:
		if len(value) == 0 {
			return ""
		}
		return strings.TrimSpace(value[0])
	default:
		return ""
	}
}

// Key parses the identifiers present in the payload. Missing or malformed
// optional identifiers are left zero.
func (p Payload) Key() competition.Key {
	return competition.Key{
		EventID:       parseOptionalID(p.EventID),
		ClassID:       parseOptionalID(p.ClassID),
		CompetitionID: competition.Type(parseOptionalID(p.CompetitionID)),
	}
}

func parseOptionalID(raw string) int64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil && f > 0 && f == float64(int64(f)) {
			return int64(f)
		}
		return 0
	}
	return n
}

// DedupeKey hashes the fields that identify a logical delivery.
func DedupeKey(event Event, p Payload) string {
	raw := strings.Join([]string{string(event), p.EventID, p.ClassID, p.CompetitionID, p.Published}, "|")
	return fmt.Sprintf("%016x", xxhash.Sum64String(raw))
}
