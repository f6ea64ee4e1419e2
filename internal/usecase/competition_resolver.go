package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	basecache "github.com/riskibarqy/sportfengur-relay/internal/platform/cache"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

// CompetitionResolver fills in a missing competition id from the class id,
// first from earlier webhooks and then from the vendor's event test list.
type CompetitionResolver struct {
	tests  EventTestSource
	known  *basecache.Store
	logger *logging.Logger
}

func NewCompetitionResolver(tests EventTestSource, logger *logging.Logger) *CompetitionResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &CompetitionResolver{
		tests:  tests,
		known:  basecache.NewStore(0),
		logger: logger,
	}
}

func classKey(classID int64) string {
	return strconv.FormatInt(classID, 10)
}

// Remember records the competition a class was last seen with.
func (r *CompetitionResolver) Remember(ctx context.Context, classID int64, t competition.Type) {
	if classID <= 0 || !t.Valid() {
		return
	}
	r.known.Set(ctx, classKey(classID), t)
}

// Resolve returns the competition for classID; ok is false when neither the
// cache nor the vendor knows the class.
func (r *CompetitionResolver) Resolve(ctx context.Context, eventID, classID int64) (_ competition.Type, _ bool, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionResolver.Resolve",
		keyAttributes(competition.Key{EventID: eventID, ClassID: classID})...)
	defer func() { endSpan(span, err) }()

	if classID <= 0 {
		return 0, false, nil
	}
	if v, ok := r.known.Get(ctx, classKey(classID)); ok {
		t, _ := v.(competition.Type)
		return t, t.Valid(), nil
	}
	if eventID <= 0 || r.tests == nil {
		return 0, false, nil
	}

	tests, err := r.tests.FetchEventTests(ctx, eventID)
	if err != nil {
		return 0, false, fmt.Errorf("fetch event tests event_id=%d: %w", eventID, err)
	}
	for _, test := range tests {
		if test.ClassID != classID || !test.CompetitionID.Valid() {
			continue
		}
		r.known.Set(ctx, classKey(classID), test.CompetitionID)
		r.logger.InfoContext(ctx, "competition resolved from event tests",
			"event_id", eventID,
			"class_id", classID,
			"competition_id", int64(test.CompetitionID),
		)
		return test.CompetitionID, true, nil
	}
	return 0, false, nil
}

func (r *CompetitionResolver) Reset(ctx context.Context) {
	r.known.Clear(ctx)
}
