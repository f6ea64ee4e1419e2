package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/sportfengur-relay/internal/config"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:             config.EnvDev,
		ServiceName:        "sportfengur-relay",
		HTTPAddr:           ":0",
		ReadTimeout:        time.Second,
		WriteTimeout:       time.Second,
		CORSAllowedOrigins: []string{"*"},
		MetricsEnabled:     true,
		SportFengurBaseURL: "http://127.0.0.1:1",
		SportFengurLocale:  "is",
		DedupeTTL:          time.Second,
		RefreshDebounce:    10 * time.Millisecond,
		RefreshTimeout:     time.Second,
		WebhookWorkers:     1,
		ControlToken:       "operator",
	}
}

func TestNew_ServesHealthAndFeeds(t *testing.T) {
	a, err := New(testConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forkeppni", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""

	_, err := New(cfg, nil)
	require.Error(t, err)
}
