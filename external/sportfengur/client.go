package sportfengur

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/resilience"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

const (
	defaultBaseURL      = "https://sportfengur.com/api/v1"
	defaultLocale       = "is"
	defaultTokenTTL     = 50 * time.Minute
	defaultFallbackSize = 256
	maxResponseBytes    = 6 << 20
	loginPath           = "/login"
)

var bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)

type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	Locale            string
	Username          string
	Password          string
	Timeout           time.Duration
	TokenTTL          time.Duration
	MinInterval       time.Duration
	Retry             resilience.RetryPolicy
	FallbackCacheSize int
	CircuitBreaker    resilience.CircuitBreakerConfig
	Logger            *logging.Logger
	Metrics           *metrics.Recorder
}

// Client talks to the SportFengur REST API. Every request, including login,
// passes through one FIFO rate gate. Successful GET bodies are remembered per
// path and served again when a later request for the same path fails.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	locale         string
	username       string
	password       string
	auth           *tokenSource
	gate           *resilience.RateGate
	retry          resilience.RetryPolicy
	fallback       *lru.Cache[string, []byte]
	flight         singleflight.Group
	callsMu        sync.Mutex
	calls          map[string]*sharedCall
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
	metrics        *metrics.Recorder
	wait           func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	locale := strings.Trim(strings.TrimSpace(cfg.Locale), "/")
	if locale == "" {
		locale = defaultLocale
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	size := cfg.FallbackCacheSize
	if size <= 0 {
		size = defaultFallbackSize
	}
	fallback, err := lru.New[string, []byte](size)
	if err != nil {
		// Only a non-positive size fails, which is ruled out above.
		panic(err)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(breakerCfg)
	recorder := cfg.Metrics
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("sportfengur circuit breaker state changed", "from", string(from), "to", string(to))
		recorder.VendorCircuitState(resilience.CircuitStateNames(), string(to))
	})

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		locale:         locale,
		username:       strings.TrimSpace(cfg.Username),
		password:       cfg.Password,
		auth:           newTokenSource(ttl),
		gate:           resilience.NewRateGate(cfg.MinInterval),
		retry:          cfg.Retry,
		fallback:       fallback,
		calls:          make(map[string]*sharedCall),
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
		metrics:        recorder,
		wait:           resilience.Sleep,
	}
}

// FetchStartingList returns the starting list of a class competition.
func (c *Client) FetchStartingList(ctx context.Context, classID, competitionID int64) ([]leaderboard.StartingEntry, error) {
	path := fmt.Sprintf("/%s/startinglist/%d/%d", url.PathEscape(c.locale), classID, competitionID)
	var payload startingListEnvelope
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("fetch starting list class_id=%d competition_id=%d: %w", classID, competitionID, err)
	}
	return mapStartingList(payload.Items), nil
}

// FetchResults returns the judge marks of a class competition.
func (c *Client) FetchResults(ctx context.Context, classID, competitionID int64) ([]leaderboard.Result, error) {
	path := fmt.Sprintf("/%s/test/results/%d/%d", url.PathEscape(c.locale), classID, competitionID)
	var payload resultsEnvelope
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("fetch results class_id=%d competition_id=%d: %w", classID, competitionID, err)
	}
	return mapResults(payload.Items), nil
}

// FetchEventTests lists the class and competition pairs of an event.
func (c *Client) FetchEventTests(ctx context.Context, eventID int64) ([]usecase.EventTest, error) {
	var payload eventTestsEnvelope
	if err := c.getJSON(ctx, c.eventTestsPath(eventID), &payload); err != nil {
		return nil, fmt.Errorf("fetch event tests event_id=%d: %w", eventID, err)
	}
	return mapEventTests(payload.Items), nil
}

// EventTestsRaw returns the vendor body of the event test listing unchanged.
func (c *Client) EventTestsRaw(ctx context.Context, eventID int64) ([]byte, error) {
	return c.GetRaw(ctx, c.eventTestsPath(eventID))
}

// EventParticipants returns the vendor body of the event participant listing unchanged.
func (c *Client) EventParticipants(ctx context.Context, eventID int64) ([]byte, error) {
	return c.GetRaw(ctx, fmt.Sprintf("/%s/participants/%d", url.PathEscape(c.locale), eventID))
}

// SearchEvents forwards query to the vendor event search.
func (c *Client) SearchEvents(ctx context.Context, query url.Values) ([]byte, error) {
	path := fmt.Sprintf("/%s/events/search", url.PathEscape(c.locale))
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.GetRaw(ctx, path)
}

func (c *Client) eventTestsPath(eventID int64) string {
	return fmt.Sprintf("/%s/event/tests/%d", url.PathEscape(c.locale), eventID)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	raw, err := c.GetRaw(ctx, path)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrapf(err, "decode sportfengur response path=%s", path)
	}
	return nil
}

// GetRaw performs an authenticated GET and returns the response body.
// Concurrent calls for the same path share one upstream request. The shared
// request is cancelled only once every caller waiting on it has gone away, so
// one caller timing out does not fail the others.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	raw, err := c.getShared(ctx, path)
	if err != nil && stderrors.Is(err, context.Canceled) && ctx.Err() == nil {
		// Joined a flight whose other callers had all left; start a fresh one.
		raw, err = c.getShared(ctx, path)
	}
	return raw, err
}

func (c *Client) getShared(ctx context.Context, path string) ([]byte, error) {
	shared, leave := c.joinCall(ctx, path)
	defer leave()

	ch := c.flight.DoChan(path, func() (any, error) {
		return c.fetchWithFallback(shared, path)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// sharedCall is the context of the upstream request for one path, counted
// by the callers currently waiting on it.
type sharedCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (c *Client) joinCall(ctx context.Context, path string) (context.Context, func()) {
	c.callsMu.Lock()
	call, ok := c.calls[path]
	if !ok {
		sharedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &sharedCall{ctx: sharedCtx, cancel: cancel}
		c.calls[path] = call
	}
	call.waiters++
	c.callsMu.Unlock()

	var once sync.Once
	return call.ctx, func() {
		once.Do(func() {
			c.callsMu.Lock()
			defer c.callsMu.Unlock()
			call.waiters--
			if call.waiters == 0 {
				call.cancel()
				if c.calls[path] == call {
					delete(c.calls, path)
				}
			}
		})
	}
}

func (c *Client) fetchWithFallback(ctx context.Context, path string) ([]byte, error) {
	raw, err := c.fetch(ctx, path)
	if err == nil {
		c.fallback.Add(path, raw)
		c.metrics.VendorRequest("success")
		return raw, nil
	}
	if !fallbackEligible(err) {
		c.metrics.VendorRequest("error")
		return nil, err
	}

	cached, ok := c.fallback.Get(path)
	if !ok {
		c.metrics.VendorRequest("error")
		return nil, err
	}
	c.logger.WarnContext(ctx, "sportfengur request failed, serving last known good response",
		"path", path,
		"error", sanitizeSensitiveText(err.Error()),
	)
	c.metrics.VendorRequest("fallback")
	c.metrics.VendorFallback()
	return cached, nil
}

func fallbackEligible(err error) bool {
	switch {
	case stderrors.Is(err, ErrMissingCredentials),
		stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, fmt.Errorf("%w: sportfengur circuit open path=%s", usecase.ErrDependencyUnavailable, path)
		}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		raw, err := c.attempt(ctx, path)
		if err == nil {
			if c.circuitEnabled {
				c.breaker.RecordSuccess()
			}
			return raw, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= c.retry.MaxRetries || ctx.Err() != nil {
			break
		}
		delay := c.retry.Delay(attempt)
		c.logger.WarnContext(ctx, "sportfengur request failed, retrying",
			"path", path,
			"attempt", attempt+1,
			"retry_in", delay.String(),
			"error", sanitizeSensitiveText(err.Error()),
		)
		c.metrics.VendorRetry()
		if waitErr := c.wait(ctx, delay); waitErr != nil {
			lastErr = waitErr
			break
		}
	}

	if c.circuitEnabled {
		if IsRetryable(lastErr) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	c.logger.WarnContext(ctx, "sportfengur request failed",
		"path", path,
		"error", sanitizeSensitiveText(lastErr.Error()),
	)
	return nil, lastErr
}

// attempt is one gated GET. A 401 drops the cached token and retries once
// with a fresh login inside the same slot.
func (c *Client) attempt(ctx context.Context, path string) ([]byte, error) {
	if err := c.gate.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.auth.get(ctx, c.login)
	if err != nil {
		return nil, err
	}
	raw, status, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err == nil && status == http.StatusUnauthorized {
		c.logger.InfoContext(ctx, "sportfengur token rejected, logging in again", "path", path)
		c.auth.invalidate(token)
		token, err = c.auth.get(ctx, c.login)
		if err != nil {
			return nil, err
		}
		raw, status, err = c.do(ctx, http.MethodGet, path, token, nil)
	}
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &HTTPError{Status: status, Method: http.MethodGet, Path: path, Body: abbreviateBody(raw)}
	}
	return raw, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	if c.username == "" || c.password == "" {
		return "", &AuthError{Err: ErrMissingCredentials}
	}
	body, err := sonic.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", crerr.Wrap(err, "encode login request")
	}

	raw, status, err := c.do(ctx, http.MethodPost, loginPath, "", body)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", &AuthError{Status: status, Err: crerr.New("credentials rejected")}
	case isRetryableStatus(status):
		return "", &HTTPError{Status: status, Method: http.MethodPost, Path: loginPath, Body: abbreviateBody(raw)}
	case status < 200 || status >= 300:
		return "", &AuthError{Status: status, Err: crerr.Newf("unexpected response: %s", abbreviateBody(raw))}
	}

	var payload loginResponse
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return "", &AuthError{Status: status, Err: crerr.Wrap(err, "decode login response")}
	}
	token := strings.TrimSpace(payload.Token)
	if token == "" {
		token = strings.TrimSpace(payload.AccessToken)
	}
	if token == "" {
		return "", &AuthError{Status: status, Err: crerr.New("login response carried no token")}
	}
	c.logger.InfoContext(ctx, "sportfengur login succeeded")
	return token, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, crerr.Wrap(err, "build sportfengur request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("%w: %s %s: %s", errTransient, method, path, sanitizeSensitiveText(err.Error()))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("%w: read %s %s: %s", errTransient, method, path, err.Error())
	}
	return raw, resp.StatusCode, nil
}

type tokenSource struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func newTokenSource(ttl time.Duration) *tokenSource {
	return &tokenSource{ttl: ttl, now: time.Now}
}

func (s *tokenSource) get(ctx context.Context, login func(context.Context) (string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}
	token, err := login(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expiresAt = s.now().Add(s.ttl)
	return token, nil
}

func (s *tokenSource) invalidate(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token {
		s.token = ""
		s.expiresAt = time.Time{}
	}
}

func sanitizeSensitiveText(v string) string {
	return bearerRegex.ReplaceAllString(v, "Bearer ***")
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 300 {
		return body[:300] + "..."
	}
	return body
}
