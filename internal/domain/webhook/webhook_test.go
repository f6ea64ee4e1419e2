package webhook

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
)

func TestPayloadFromValues_Aliases(t *testing.T) {
	t.Parallel()

	p := PayloadFromValues(map[string]any{
		"event_id":      float64(999),
		"classid":       "789",
		"competitionId": json.Number("1"),
		"is_published":  true,
	})

	assert.Equal(t, Payload{EventID: "999", ClassID: "789", CompetitionID: "1", Published: "true"}, p)
	assert.Equal(t, competition.Key{EventID: 999, ClassID: 789, CompetitionID: competition.Preliminary}, p.Key())
}

func TestPayloadFromValues_FormValues(t *testing.T) {
	t.Parallel()

	p := PayloadFromValues(map[string]any{
		"eventId":   []string{"12"},
		"published": []string{""},
	})
	assert.Equal(t, "12", p.EventID)
	assert.Equal(t, "", p.Published)
}

func TestPayload_KeyIgnoresMalformedIdentifiers(t *testing.T) {
	t.Parallel()

	key := Payload{EventID: "999", ClassID: "abc", CompetitionID: "2.0"}.Key()
	assert.Equal(t, int64(999), key.EventID)
	assert.Zero(t, key.ClassID)
	assert.Equal(t, competition.AFinal, key.CompetitionID)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	scoreDef, ok := Lookup(EventScoreUpdated)
	require.True(t, ok)

	t.Run("complete", func(t *testing.T) {
		err := Validate(scoreDef, Payload{EventID: "999", ClassID: "789", CompetitionID: "1"})
		assert.NoError(t, err)
	})

	t.Run("missing fields listed by wire name", func(t *testing.T) {
		err := Validate(scoreDef, Payload{EventID: "999"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{FieldClassID, FieldCompetitionID}, verr.Missing)
		assert.Equal(t, "Missing required fields: classId, competitionId", verr.Error())
	})

	t.Run("non numeric identifier", func(t *testing.T) {
		err := Validate(scoreDef, Payload{EventID: "abc", ClassID: "789", CompetitionID: "1"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{FieldEventID}, verr.Invalid)
	})

	t.Run("published list requires published only", func(t *testing.T) {
		def, _ := Lookup(EventStartingListPublished)
		assert.NoError(t, Validate(def, Payload{EventID: "999", ClassID: "789", Published: "1"}))

		err := Validate(def, Payload{EventID: "999", ClassID: "789"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{FieldPublished}, verr.Missing)
	})

	t.Run("metadata event needs event id", func(t *testing.T) {
		def, _ := Lookup(EventCreated)
		assert.NoError(t, Validate(def, Payload{EventID: "1"}))
		assert.Error(t, Validate(def, Payload{}))
	})
}

func TestDefinitions(t *testing.T) {
	t.Parallel()

	defs := Definitions()
	require.Len(t, defs, 7)

	forced := 0
	for _, def := range defs {
		if def.ForceRefresh {
			forced++
		}
	}
	assert.Equal(t, 2, forced)

	_, ok := Lookup("event_unknown")
	assert.False(t, ok)
}

func TestDedupeKey(t *testing.T) {
	t.Parallel()

	p := Payload{EventID: "999", ClassID: "789", CompetitionID: "1"}
	assert.Equal(t, DedupeKey(EventScoreUpdated, p), DedupeKey(EventScoreUpdated, p))
	assert.NotEqual(t, DedupeKey(EventScoreUpdated, p), DedupeKey(EventNextHeat, p))

	p2 := p
	p2.Published = "1"
	assert.NotEqual(t, DedupeKey(EventScoreUpdated, p), DedupeKey(EventScoreUpdated, p2))
	assert.Len(t, DedupeKey(EventScoreUpdated, p), 16)
}
