package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_HTTP_ADDR", "")
	t.Setenv(FileEnvVar, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.AppEnv)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "https://sportfengur.com/api/v1", cfg.SportFengurBaseURL)
	assert.Equal(t, "is", cfg.SportFengurLocale)
	assert.Equal(t, 1500*time.Millisecond, cfg.SportFengurMinInterval)
	assert.Equal(t, 3, cfg.SportFengurMaxRetries)
	assert.Equal(t, 750*time.Millisecond, cfg.SportFengurRetryBase)
	assert.Equal(t, 30*time.Second, cfg.DedupeTTL)
	assert.Equal(t, 200*time.Millisecond, cfg.RefreshDebounce)
	assert.Equal(t, 30*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, 200, cfg.WebhookHistoryLimit)
	assert.Zero(t, cfg.EventIDFilter)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENV")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPORTFENGUR_BASE_URL", "https://example.test/api/v1/")
	t.Setenv("EIDFAXI_USERNAME", " relay ")
	t.Setenv("EIDFAXI_PASSWORD", "secret")
	t.Setenv("MIN_FETCH_INTERVAL", "250ms")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("EVENT_ID", "999")
	t.Setenv("WEBHOOK_SECRET_REQUIRED", "true")
	t.Setenv("SPORTFENGUR_WEBHOOK_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api/v1", cfg.SportFengurBaseURL)
	assert.Equal(t, "relay", cfg.SportFengurUsername)
	assert.Equal(t, "secret", cfg.SportFengurPassword)
	assert.Equal(t, 250*time.Millisecond, cfg.SportFengurMinInterval)
	assert.Equal(t, 5, cfg.SportFengurMaxRetries)
	assert.Equal(t, int64(999), cfg.EventIDFilter)
	assert.True(t, cfg.WebhookSecretRequired)
	assert.Equal(t, "s3cret", cfg.WebhookSecret)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoad_LegacyMillisecondVariables(t *testing.T) {
	t.Setenv("MIN_FETCH_INTERVAL_MS", "2000")
	t.Setenv("VMIX_DEBOUNCE_MS", "500")
	t.Setenv("VMIX_REFRESH_TIMEOUT_MS", "10000")
	t.Setenv("DEDUPE_TTL_MS", "5000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.SportFengurMinInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.RefreshDebounce)
	assert.Equal(t, 10*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, 5*time.Second, cfg.DedupeTTL)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Run("port used when addr unset", func(t *testing.T) {
		t.Setenv("PORT", "8088")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8088", cfg.HTTPAddr)
	})

	t.Run("explicit addr wins", func(t *testing.T) {
		t.Setenv("PORT", "8088")
		t.Setenv("APP_HTTP_ADDR", "127.0.0.1:9000")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	})
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "secret required without secret",
			env:  map[string]string{"WEBHOOK_SECRET_REQUIRED": "true"},
			want: "SPORTFENGUR_WEBHOOK_SECRET",
		},
		{
			name: "uptrace without dsn",
			env:  map[string]string{"UPTRACE_ENABLED": "true"},
			want: "UPTRACE_DSN",
		},
		{
			name: "negative retries",
			env:  map[string]string{"FETCH_MAX_RETRIES": "-1"},
			want: "FETCH_MAX_RETRIES",
		},
		{
			name: "history limit zero",
			env:  map[string]string{"WEBHOOK_HISTORY_LIMIT": "0"},
			want: "WEBHOOK_HISTORY_LIMIT",
		},
		{
			name: "bad duration",
			env:  map[string]string{"REFRESH_TIMEOUT": "soon"},
			want: "decode config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_YAMLFileLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := "sportfengur_locale: en\nwebhook_workers: 3\nrefresh_debounce: 350ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(FileEnvVar, path)
	t.Setenv("WEBHOOK_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.SportFengurLocale)
	assert.Equal(t, 350*time.Millisecond, cfg.RefreshDebounce)
	assert.Equal(t, 4, cfg.WebhookWorkers, "env overrides file")
}
