package competition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
)

// Type identifies a round within a class. The vendor uses small integers;
// values beyond the three named rounds are heat variants.
type Type int64

const (
	Preliminary Type = 1
	AFinal      Type = 2
	BFinal      Type = 3
)

var ErrInvalidIdentifier = errors.New("invalid identifier")

var slugs = map[Type]string{
	Preliminary: "forkeppni",
	AFinal:      "a",
	BFinal:      "b",
}

// Slug returns the route segment for t: forkeppni, a, b, or the number itself.
func (t Type) Slug() string {
	if slug, ok := slugs[t]; ok {
		return slug
	}
	return strconv.FormatInt(int64(t), 10)
}

func (t Type) String() string {
	return t.Slug()
}

func (t Type) Valid() bool {
	return t > 0
}

// ParseType accepts a slug (forkeppni, a, b) or a positive integer.
func ParseType(raw string) (Type, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for t, slug := range slugs {
		if value == slug {
			return t, nil
		}
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: competition %q", ErrInvalidIdentifier, raw)
	}
	return Type(n), nil
}

// ParseID parses a positive event or class id.
func ParseID(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return n, nil
}

// Key is the (eventId, classId, competitionId) triple that scopes one leaderboard.
type Key struct {
	EventID       int64
	ClassID       int64
	CompetitionID Type
}

func (k Key) Complete() bool {
	return k.EventID > 0 && k.ClassID > 0 && k.CompetitionID.Valid()
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d:%d", k.EventID, k.ClassID, k.CompetitionID)
}

// Slot is the published leaderboard for one competition type together with the
// key that produced it. Slots are replaced wholesale, never mutated.
type Slot struct {
	Key         Key
	Leaderboard []leaderboard.Contestant
	UpdatedAt   time.Time
}

func (s Slot) Populated() bool {
	return !s.UpdatedAt.IsZero()
}

// Metadata is the identifier part of a slot.
type Metadata struct {
	EventID       int64
	ClassID       int64
	CompetitionID Type
	UpdatedAt     time.Time
}

func (s Slot) Metadata() (Metadata, bool) {
	if !s.Populated() {
		return Metadata{}, false
	}
	return Metadata{
		EventID:       s.Key.EventID,
		ClassID:       s.Key.ClassID,
		CompetitionID: s.Key.CompetitionID,
		UpdatedAt:     s.UpdatedAt,
	}, true
}
