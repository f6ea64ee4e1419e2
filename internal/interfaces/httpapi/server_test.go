package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

const (
	testSecret       = "hush"
	testControlToken = "operator"
)

type recordingScheduler struct {
	mu       sync.Mutex
	requests []usecase.RefreshRequest
}

func (s *recordingScheduler) Schedule(req usecase.RefreshRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func (s *recordingScheduler) snapshot() []usecase.RefreshRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]usecase.RefreshRequest(nil), s.requests...)
}

type stubStartingLists struct {
	mu          sync.Mutex
	invalidated []string
	cleared     int
}

func (s *stubStartingLists) Get(context.Context, int64, int64, bool) ([]leaderboard.StartingEntry, error) {
	return nil, nil
}

func (s *stubStartingLists) Invalidate(_ context.Context, classID, competitionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, competition.Key{ClassID: classID, CompetitionID: competition.Type(competitionID)}.String())
}

func (s *stubStartingLists) ClearAll(context.Context) int {
	return s.cleared
}

type stubCatalog struct {
	lastQuery url.Values
}

func (s *stubCatalog) SearchEvents(_ context.Context, query url.Values) ([]byte, error) {
	s.lastQuery = query
	return []byte(`[{"numer":1}]`), nil
}

func (s *stubCatalog) EventParticipants(context.Context, int64) ([]byte, error) {
	return []byte(`{"res":[]}`), nil
}

func (s *stubCatalog) EventTestsRaw(context.Context, int64) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

type stubEventTests struct{}

func (stubEventTests) FetchEventTests(context.Context, int64) ([]usecase.EventTest, error) {
	return []usecase.EventTest{{ClassID: 789, CompetitionID: competition.Preliminary}}, nil
}

type testServer struct {
	router        http.Handler
	state         *memory.CompetitionStateRepository
	scheduler     *recordingScheduler
	startingLists *stubStartingLists
	catalog       *stubCatalog
	refreshes     *usecase.RefreshCoordinator
}

var errVendorDown = errors.New("vendor down")

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	recorder := metrics.New()
	state := memory.NewCompetitionStateRepository()
	scheduler := &recordingScheduler{}
	startingLists := &stubStartingLists{cleared: 3}
	catalog := &stubCatalog{}

	webhooks, err := usecase.NewWebhookService(
		usecase.WebhookServiceConfig{Workers: 2},
		usecase.NewCompetitionResolver(stubEventTests{}, nil),
		startingLists,
		scheduler,
		nil,
		nil,
		recorder,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = webhooks.Close(time.Second) })

	refreshes := usecase.NewRefreshCoordinator(
		usecase.RefreshSchedulerConfig{Debounce: 5 * time.Millisecond, Timeout: time.Second},
		func(context.Context, usecase.RefreshRequest) error { return errVendorDown },
		nil,
		recorder,
	)
	t.Cleanup(func() { _ = refreshes.Close(context.Background()) })

	handler := NewHandler(
		usecase.NewLeaderboardQueryService(state),
		webhooks,
		usecase.NewEventCatalogService(catalog, stubEventTests{}),
		startingLists,
		refreshes,
		recorder,
		nil,
	)
	router := NewRouter(handler, RouterConfig{
		Metrics:               recorder,
		MetricsEnabled:        true,
		CORSAllowedOrigins:    []string{"*"},
		WebhookSecret:         testSecret,
		WebhookSecretRequired: true,
		ControlToken:          testControlToken,
	})

	return &testServer{
		router:        router,
		state:         state,
		scheduler:     scheduler,
		startingLists: startingLists,
		catalog:       catalog,
		refreshes:     refreshes,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seed(t *testing.T, key competition.Key) {
	t.Helper()
	rows := []leaderboard.Contestant{
		{Nr: "2", Saeti: "1", Knapi: "Bjarni"},
		{Nr: "1", Saeti: "2", Knapi: "Anna"},
	}
	require.NoError(t, s.state.Update(context.Background(), key, rows))
}

func webhookRequest(event, body, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/"+event, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("x-webhook-secret", secret)
	}
	return req
}

func decodeArray(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWebhook_RejectsMissingOrWrongSecret(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	body := `{"eventId":999,"classId":789,"competitionId":1}`

	for _, secret := range []string{"", "wrong"} {
		rec := srv.do(t, webhookRequest("event_einkunn_saeti", body, secret))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", rec.Body.String())
	}
	assert.Empty(t, srv.scheduler.snapshot())
}

func TestWebhook_AcceptsAndSchedulesRefresh(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, webhookRequest("event_einkunn_saeti", `{"eventId":999,"classId":"789","competitionId":1}`, testSecret))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, webhookAckText, rec.Body.String())
	require.Eventually(t, func() bool { return len(srv.scheduler.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	req := srv.scheduler.snapshot()[0]
	assert.Equal(t, competition.Key{EventID: 999, ClassID: 789, CompetitionID: competition.Preliminary}, req.Key)
	assert.False(t, req.ForceRefresh)
}

func TestWebhook_MissingFieldsAreBadRequest(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, webhookRequest("event_einkunn_saeti", `{"eventId":999}`, testSecret))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields")
	assert.Contains(t, rec.Body.String(), "classId")
	assert.Contains(t, rec.Body.String(), "competitionId")
}

func TestWebhook_MalformedJSONIsBadRequest(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, webhookRequest("event_mot_skra", `{"eventId":`, testSecret))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_FormEncodedPublishForcesRefresh(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	form := url.Values{"event_id": {"999"}, "class_id": {"789"}, "published": {"1"}, "competition_id": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/event_raslisti_birtur", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-webhook-secret", testSecret)

	rec := srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Eventually(t, func() bool { return len(srv.scheduler.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	assert.True(t, srv.scheduler.snapshot()[0].ForceRefresh)
	srv.startingLists.mu.Lock()
	defer srv.startingLists.mu.Unlock()
	assert.Equal(t, []string{"0:789:1"}, srv.startingLists.invalidated)
}

func TestLeaderboardFeed_SortingAndEventChecks(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.seed(t, competition.Key{EventID: 999, ClassID: 789, CompetitionID: competition.Preliminary})

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/forkeppni", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	rows := decodeArray(t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "Anna", rows[0]["Knapi"])

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/forkeppni/sorted", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bjarni", decodeArray(t, rec)[0]["Knapi"])

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/999/1/sorted", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bjarni", decodeArray(t, rec)[0]["Knapi"])

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/998/forkeppni", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/abc/forkeppni", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/999/results/forkeppni", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLeaderboardFeed_EmptySlotIsEmptyArray(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/a", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCurrentLeaderboard(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"metadata":null,"leaderboard":[]}`, rec.Body.String())

	srv.seed(t, competition.Key{EventID: 999, ClassID: 789, CompetitionID: competition.AFinal})
	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/current/999", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	meta, ok := body["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", meta["competition"])

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/current/1000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaderboardCSV(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.seed(t, competition.Key{EventID: 999, ClassID: 789, CompetitionID: competition.Preliminary})

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/leaderboard.csv?competition=forkeppni", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Bjarni")

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/leaderboard.csv?competition=zzz", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestControlRoutes_RequireToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/config/event-filter", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodPost, "/cache/raslisti/clear", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestControlRoutes_EventFilterLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	control := func(method, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/config/event-filter", strings.NewReader(body))
		req.Header.Set(controlTokenHeader, testControlToken)
		return srv.do(t, req)
	}

	rec := control(http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"apiVersion":"2.0","data":{"eventIdFilter":null}}`, rec.Body.String())

	rec = control(http.MethodPost, `{"eventIdFilter":42}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"apiVersion":"2.0","data":{"eventIdFilter":42}}`, rec.Body.String())

	rec = control(http.MethodPost, `{"eventId":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"apiVersion":"2.0","data":{"eventIdFilter":null}}`, rec.Body.String())

	rec = control(http.MethodPost, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = control(http.MethodPost, `{"eventIdFilter":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestControlRoutes_ClearCacheAndHistory(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/cache/raslisti/clear", nil)
	req.Header.Set(controlTokenHeader, testControlToken)
	rec := srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"apiVersion":"2.0","data":{"cleared":3}}`, rec.Body.String())

	require.Equal(t, http.StatusOK, srv.do(t, webhookRequest("event_mot_skra", `{"eventId":5}`, testSecret)).Code)
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/control/webhooks", nil)
		req.Header.Set(controlTokenHeader, testControlToken)
		return strings.Contains(srv.do(t, req).Body.String(), `"eventName":"event_mot_skra"`)
	}, time.Second, 5*time.Millisecond)
}

func TestCatalogRoutes_PassThrough(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/events/search?ar=2025&bogus=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalogCacheControl, rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `[{"numer":1}]`, rec.Body.String())
	assert.Equal(t, url.Values{"ar": {"2025"}}, srv.catalog.lastQuery)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/event/abc/participants", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/event/12/tests", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","lastWebhookAt":null,"lastWebhookProcessedAt":null,"lastError":null,"refreshes":[]}`, rec.Body.String())

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sportfengur_relay_http_requests_total")
}

func TestHealth_ReportsFailedRefresh(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.refreshes.Schedule(usecase.RefreshRequest{
		Key: competition.Key{EventID: 7, ClassID: 3, CompetitionID: competition.AFinal},
	})

	require.Eventually(t, func() bool {
		status := srv.refreshes.Status()
		return len(status) == 1 && status[0].HasRun && status[0].State == usecase.SchedulerIdle
	}, 2*time.Second, 5*time.Millisecond)

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Refreshes []struct {
			CompetitionID int64   `json:"competitionId"`
			Competition   string  `json:"competition"`
			State         string  `json:"state"`
			LastRunAt     *string `json:"lastRunAt"`
			LastEventID   int64   `json:"lastEventId"`
			LastClassID   int64   `json:"lastClassId"`
			LastError     *string `json:"lastError"`
		} `json:"refreshes"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Refreshes, 1)

	got := body.Refreshes[0]
	assert.Equal(t, int64(2), got.CompetitionID)
	assert.Equal(t, "a", got.Competition)
	assert.Equal(t, "idle", got.State)
	assert.NotNil(t, got.LastRunAt)
	assert.Equal(t, int64(7), got.LastEventID)
	assert.Equal(t, int64(3), got.LastClassID)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "vendor down")
}
