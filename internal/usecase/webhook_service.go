package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/webhook"
	basecache "github.com/riskibarqy/sportfengur-relay/internal/platform/cache"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/id"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
)

const (
	defaultDedupeTTL      = 30 * time.Second
	defaultWebhookWorkers = 8
	defaultWebhookQueue   = 256
)

// ErrWebhookQueueFull is recorded for deliveries that arrive while the hand-off
// queue is full. The vendor has already been answered.
var ErrWebhookQueueFull = errors.New("webhook queue is full")

var errWebhookServiceClosed = errors.New("webhook service is closed")

type WebhookServiceConfig struct {
	DedupeTTL     time.Duration
	EventIDFilter int64
	Workers       int
	// QueueSize bounds deliveries waiting for a free worker.
	QueueSize    int
	HistoryLimit int
}

// WebhookService validates deliveries synchronously and processes them on a
// worker pool after the vendor has been answered.
type WebhookService struct {
	dedupe        *basecache.Store
	filter        atomic.Int64
	resolver      *CompetitionResolver
	startingLists leaderboard.StartingListRepository
	scheduler     RefreshScheduling
	history       *WebhookHistory
	ids           id.Generator
	pool          *ants.Pool
	queue         chan func()
	queueMu       sync.RWMutex
	closed        bool
	dispatched    chan struct{}
	submit        func(task func()) error
	logger        *logging.Logger
	metrics       *metrics.Recorder
	now           func() time.Time
}

func NewWebhookService(
	cfg WebhookServiceConfig,
	resolver *CompetitionResolver,
	startingLists leaderboard.StartingListRepository,
	scheduler RefreshScheduling,
	ids id.Generator,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) (*WebhookService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	ttl := cfg.DedupeTTL
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWebhookWorkers
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultWebhookQueue
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		logger.Error("webhook worker panicked", "panic", fmt.Sprint(p))
	}))
	if err != nil {
		return nil, fmt.Errorf("create webhook worker pool: %w", err)
	}

	s := &WebhookService{
		dedupe:        basecache.NewStore(ttl),
		resolver:      resolver,
		startingLists: startingLists,
		scheduler:     scheduler,
		history:       NewWebhookHistory(cfg.HistoryLimit),
		ids:           ids,
		pool:          pool,
		queue:         make(chan func(), queueSize),
		dispatched:    make(chan struct{}),
		logger:        logger,
		metrics:       recorder,
		now:           time.Now,
	}
	s.submit = s.enqueue
	s.filter.Store(cfg.EventIDFilter)
	go s.dispatch()
	return s, nil
}

// enqueue never blocks: Accept runs before the vendor gets its 200.
func (s *WebhookService) enqueue(task func()) error {
	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.closed {
		return errWebhookServiceClosed
	}
	select {
	case s.queue <- task:
		return nil
	default:
		return ErrWebhookQueueFull
	}
}

// dispatch feeds queued deliveries to the pool, waiting for a free worker.
func (s *WebhookService) dispatch() {
	defer close(s.dispatched)
	for task := range s.queue {
		if err := s.pool.Submit(task); err != nil {
			s.logger.Error("webhook delivery dropped", "error", err)
		}
	}
}

// Accept validates a delivery and hands it to the worker pool. It returns
// before any vendor call is made. Validation failures are *webhook.ValidationError.
func (s *WebhookService) Accept(ctx context.Context, event webhook.Event, values map[string]any) (webhook.Payload, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WebhookService.Accept", attribute.String("webhook.event", string(event)))
	defer span.End()

	def, ok := webhook.Lookup(event)
	if !ok {
		return webhook.Payload{}, fmt.Errorf("%w: webhook=%s", ErrNotFound, event)
	}
	payload := webhook.PayloadFromValues(values)
	if err := webhook.Validate(def, payload); err != nil {
		s.metrics.Webhook(string(event), "rejected")
		return payload, err
	}

	receivedAt := s.now()
	s.history.MarkReceived(receivedAt)

	detached := context.WithoutCancel(ctx)
	err := s.submit(func() {
		s.process(detached, def, payload, receivedAt)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "webhook could not be queued", "event", string(event), "error", err)
		s.record(ctx, webhook.HistoryEntry{
			ReceivedAt: receivedAt,
			Event:      event,
			Status:     webhook.StatusError,
			Message:    "queue: " + err.Error(),
		}, payload)
	}
	return payload, nil
}

func (s *WebhookService) process(ctx context.Context, def webhook.Definition, payload webhook.Payload, receivedAt time.Time) webhook.HistoryEntry {
	key := payload.Key()
	ctx, span := startUsecaseSpan(ctx, "usecase.WebhookService.process",
		append(keyAttributes(key), attribute.String("webhook.event", string(def.Event)))...)
	defer span.End()

	entry := webhook.HistoryEntry{
		ReceivedAt: receivedAt,
		Event:      def.Event,
	}
	logArgs := []any{
		"event", string(def.Event),
		"event_id", key.EventID,
		"class_id", key.ClassID,
		"competition_id", int64(key.CompetitionID),
	}

	s.dedupe.Prune(ctx)
	if !s.dedupe.SetIfAbsent(ctx, webhook.DedupeKey(def.Event, payload), receivedAt) {
		s.logger.InfoContext(ctx, "duplicate webhook ignored", logArgs...)
		entry.Status = webhook.StatusDuplicate
		entry.Message = "duplicate within dedupe window"
		return s.record(ctx, entry, payload)
	}

	if filter := s.filter.Load(); filter > 0 && key.EventID != filter {
		s.logger.InfoContext(ctx, "webhook filtered by event id", append(logArgs, "filter_event_id", filter)...)
		entry.Status = webhook.StatusFiltered
		entry.Message = fmt.Sprintf("event id %d does not match filter %d", key.EventID, filter)
		return s.record(ctx, entry, payload)
	}

	if key.CompetitionID.Valid() {
		s.resolver.Remember(ctx, key.ClassID, key.CompetitionID)
	} else if key.ClassID > 0 {
		resolved, ok, err := s.resolver.Resolve(ctx, key.EventID, key.ClassID)
		if err != nil {
			s.logger.ErrorContext(ctx, "resolve competition failed", append(logArgs, "error", err)...)
			entry.Status = webhook.StatusError
			entry.Message = err.Error()
			return s.record(ctx, entry, payload)
		}
		if ok {
			key.CompetitionID = resolved
		}
	}

	if !key.Complete() {
		s.logger.InfoContext(ctx, "webhook has no competition context, nothing to refresh", logArgs...)
		entry.Status = webhook.StatusNoContext
		entry.Message = "event, class and competition could not all be resolved"
		return s.record(ctx, entry, payload)
	}

	if def.ForceRefresh && s.startingLists != nil {
		s.startingLists.Invalidate(ctx, key.ClassID, int64(key.CompetitionID))
	}
	s.scheduler.Schedule(RefreshRequest{Key: key, ForceRefresh: def.ForceRefresh})

	s.logger.InfoContext(ctx, "refresh scheduled from webhook",
		append(logArgs, "resolved_competition_id", int64(key.CompetitionID), "force_refresh", def.ForceRefresh)...)
	entry.Status = webhook.StatusProcessed
	entry.CompetitionID = int64(key.CompetitionID)
	return s.record(ctx, entry, payload)
}

func (s *WebhookService) record(ctx context.Context, entry webhook.HistoryEntry, payload webhook.Payload) webhook.HistoryEntry {
	key := payload.Key()
	if entry.ID == "" {
		if generated, err := s.ids.NewID(); err == nil {
			entry.ID = generated
		} else {
			s.logger.WarnContext(ctx, "generate webhook history id failed", "error", err)
		}
	}
	entry.EventID = key.EventID
	entry.ClassID = key.ClassID
	if entry.CompetitionID == 0 {
		entry.CompetitionID = int64(key.CompetitionID)
	}
	entry.Published = payload.Published
	entry.Duration = s.now().Sub(entry.ReceivedAt)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("webhook.status", string(entry.Status)))

	s.history.Record(entry)
	s.metrics.Webhook(string(entry.Event), string(entry.Status))
	return entry
}

// EventFilter returns the active event id filter; ok is false when none is set.
func (s *WebhookService) EventFilter() (int64, bool) {
	v := s.filter.Load()
	return v, v > 0
}

// SetEventFilter sets the event id filter. Zero clears it.
func (s *WebhookService) SetEventFilter(ctx context.Context, eventID int64) error {
	if eventID < 0 {
		return fmt.Errorf("%w: event id must not be negative", ErrInvalidInput)
	}
	prev := s.filter.Swap(eventID)
	s.logger.InfoContext(ctx, "event id filter updated", "previous", prev, "current", eventID)
	return nil
}

func (s *WebhookService) History() []webhook.HistoryEntry {
	return s.history.List()
}

func (s *WebhookService) Health() webhook.Health {
	return s.history.Health()
}

// Reset clears dedupe state, resolved competitions and history.
func (s *WebhookService) Reset(ctx context.Context) {
	s.dedupe.Clear(ctx)
	s.resolver.Reset(ctx)
	s.history.Reset()
}

// Close stops accepting deliveries and waits up to timeout for queued ones
// to finish.
func (s *WebhookService) Close(timeout time.Duration) error {
	s.queueMu.Lock()
	if s.closed {
		s.queueMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.queueMu.Unlock()

	deadline := time.Now().Add(timeout)
	select {
	case <-s.dispatched:
	case <-time.After(timeout):
		return fmt.Errorf("webhook queue not drained within %s", timeout)
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	return s.pool.ReleaseTimeout(remaining)
}
