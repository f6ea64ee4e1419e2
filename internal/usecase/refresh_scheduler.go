package usecase

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
)

const (
	defaultRefreshDebounce = 200 * time.Millisecond
	defaultRefreshTimeout  = 30 * time.Second
)

type SchedulerState string

const (
	SchedulerIdle    SchedulerState = "idle"
	SchedulerPending SchedulerState = "pending"
	SchedulerRunning SchedulerState = "running"
)

// RefreshFunc runs one refresh cycle. ctx carries the cycle timeout.
type RefreshFunc func(ctx context.Context, req RefreshRequest) error

type RefreshSchedulerConfig struct {
	Debounce time.Duration
	Timeout  time.Duration
}

func (c RefreshSchedulerConfig) normalize() RefreshSchedulerConfig {
	if c.Debounce <= 0 {
		c.Debounce = defaultRefreshDebounce
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultRefreshTimeout
	}
	return c
}

// RefreshScheduler debounces refresh triggers for one competition and runs at
// most one cycle at a time. A timer that fires while a cycle is running is
// dropped, not queued.
type RefreshScheduler struct {
	competition competition.Type
	cfg         RefreshSchedulerConfig
	run         RefreshFunc
	logger      *logging.Logger
	metrics     *metrics.Recorder

	baseCtx context.Context
	cancel  context.CancelFunc
	cycles  sync.WaitGroup

	mu          sync.Mutex
	timer       *time.Timer
	generation  uint64
	pending     bool
	running     bool
	closed      bool
	next        *RefreshRequest
	scheduledAt time.Time
	lastRun     RefreshRun
}

// RefreshRun describes the most recent completed cycle.
type RefreshRun struct {
	Request    RefreshRequest
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

func NewRefreshScheduler(t competition.Type, cfg RefreshSchedulerConfig, run RefreshFunc, logger *logging.Logger, recorder *metrics.Recorder) *RefreshScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RefreshScheduler{
		competition: t,
		cfg:         cfg.normalize(),
		run:         run,
		logger:      logger.With("competition", t.Slug()),
		metrics:     recorder,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// SetCompetitionContext sets the request the next cycle will run with. A
// pending force flag for the same key is kept.
func (s *RefreshScheduler) SetCompetitionContext(req RefreshRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next != nil && s.next.Key == req.Key && s.next.ForceRefresh {
		req.ForceRefresh = true
	}
	s.next = &req
}

// ScheduleRefresh (re)starts the debounce timer.
func (s *RefreshScheduler) ScheduleRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	gen := s.generation
	s.pending = true
	s.scheduledAt = time.Now()
	s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
}

// Trigger sets the context and schedules a refresh.
func (s *RefreshScheduler) Trigger(req RefreshRequest) {
	s.SetCompetitionContext(req)
	s.ScheduleRefresh()
}

func (s *RefreshScheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.running:
		return SchedulerRunning
	case s.pending:
		return SchedulerPending
	default:
		return SchedulerIdle
	}
}

// LastRun returns the most recent completed cycle, if any.
func (s *RefreshScheduler) LastRun() (RefreshRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, !s.lastRun.StartedAt.IsZero()
}

func (s *RefreshScheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil

	if s.running {
		s.mu.Unlock()
		s.logger.Warn("refresh already running, dropping trigger")
		s.metrics.Refresh(int64(s.competition), "dropped", 0)
		return
	}
	if s.next == nil {
		s.mu.Unlock()
		s.logger.Warn("refresh fired without competition context")
		return
	}

	req := *s.next
	s.next = nil
	s.running = true
	s.cycles.Add(1)
	debounced := time.Since(s.scheduledAt)
	s.mu.Unlock()

	s.runCycle(req, debounced)
}

func (s *RefreshScheduler) runCycle(req RefreshRequest, debounced time.Duration) {
	defer s.cycles.Done()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.Timeout)
	defer cancel()

	started := time.Now()
	var err error
	var catcher panics.Catcher
	catcher.Try(func() { err = s.run(ctx, req) })
	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
	}
	took := time.Since(started)

	outcome := "success"
	switch {
	case err == nil:
		s.logger.Info("refresh completed",
			"event_id", req.Key.EventID,
			"class_id", req.Key.ClassID,
			"force_refresh", req.ForceRefresh,
			"debounced_ms", debounced.Milliseconds(),
			"took_ms", took.Milliseconds(),
		)
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
		s.logger.Error("refresh timed out, state left unchanged",
			"event_id", req.Key.EventID,
			"class_id", req.Key.ClassID,
			"timeout", s.cfg.Timeout.String(),
		)
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
		s.logger.Warn("refresh canceled", "event_id", req.Key.EventID, "class_id", req.Key.ClassID)
	default:
		outcome = "error"
		s.logger.Error("refresh failed, state left unchanged",
			"event_id", req.Key.EventID,
			"class_id", req.Key.ClassID,
			"error", err,
		)
	}
	s.metrics.Refresh(int64(s.competition), outcome, took)

	s.mu.Lock()
	s.running = false
	s.lastRun = RefreshRun{Request: req, StartedAt: started, FinishedAt: started.Add(took), Err: err}
	s.mu.Unlock()
}

// Close stops pending timers, cancels a running cycle and waits for it to return.
func (s *RefreshScheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.cycles.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshCoordinator keeps one RefreshScheduler per competition type so a
// running refresh for one competition never drops a trigger for another.
type RefreshCoordinator struct {
	cfg     RefreshSchedulerConfig
	run     RefreshFunc
	logger  *logging.Logger
	metrics *metrics.Recorder

	mu         sync.Mutex
	schedulers map[competition.Type]*RefreshScheduler
	closed     bool
}

func NewRefreshCoordinator(cfg RefreshSchedulerConfig, run RefreshFunc, logger *logging.Logger, recorder *metrics.Recorder) *RefreshCoordinator {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshCoordinator{
		cfg:        cfg.normalize(),
		run:        run,
		logger:     logger,
		metrics:    recorder,
		schedulers: make(map[competition.Type]*RefreshScheduler),
	}
}

func (c *RefreshCoordinator) Schedule(req RefreshRequest) {
	s := c.Scheduler(req.Key.CompetitionID)
	if s == nil {
		return
	}
	s.Trigger(req)
}

// Scheduler returns the scheduler for t, creating it on first use. It returns
// nil once the coordinator is closed.
func (c *RefreshCoordinator) Scheduler(t competition.Type) *RefreshScheduler {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	s, ok := c.schedulers[t]
	if !ok {
		s = NewRefreshScheduler(t, c.cfg, c.run, c.logger, c.metrics)
		c.schedulers[t] = s
	}
	return s
}

// RefreshStatus is the scheduler state and latest cycle of one competition.
type RefreshStatus struct {
	Competition competition.Type
	State       SchedulerState
	LastRun     RefreshRun
	HasRun      bool
}

// Status reports every competition scheduled so far, ordered by competition id.
func (c *RefreshCoordinator) Status() []RefreshStatus {
	c.mu.Lock()
	schedulers := make(map[competition.Type]*RefreshScheduler, len(c.schedulers))
	for t, s := range c.schedulers {
		schedulers[t] = s
	}
	c.mu.Unlock()

	out := make([]RefreshStatus, 0, len(schedulers))
	for t, s := range schedulers {
		last, ok := s.LastRun()
		out = append(out, RefreshStatus{Competition: t, State: s.State(), LastRun: last, HasRun: ok})
	}
	slices.SortFunc(out, func(a, b RefreshStatus) int { return cmp.Compare(a.Competition, b.Competition) })
	return out
}

func (c *RefreshCoordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	schedulers := make([]*RefreshScheduler, 0, len(c.schedulers))
	for _, s := range c.schedulers {
		schedulers = append(schedulers, s)
	}
	c.mu.Unlock()

	var errs []error
	for _, s := range schedulers {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
