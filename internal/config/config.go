package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

// FileEnvVar points at an optional YAML file layered between defaults and env.
const FileEnvVar = "RELAY_CONFIG"

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                         string
	ServiceName                    string
	ServiceVersion                 string
	HTTPAddr                       string
	ReadTimeout                    time.Duration
	WriteTimeout                   time.Duration
	CORSAllowedOrigins             []string
	LogLevel                       logging.Level
	DebugMode                      bool
	MetricsEnabled                 bool
	PprofEnabled                   bool
	PprofAddr                      string
	UptraceEnabled                 bool
	UptraceDSN                     string
	UptraceLogsEnabled             bool
	PyroscopeEnabled               bool
	PyroscopeServerAddress         string
	PyroscopeAppName               string
	PyroscopeAuthToken             string
	PyroscopeBasicAuthUser         string
	PyroscopeBasicAuthPassword     string
	PyroscopeUploadRate            time.Duration
	SportFengurBaseURL             string
	SportFengurLocale              string
	SportFengurUsername            string
	SportFengurPassword            string
	SportFengurTimeout             time.Duration
	SportFengurTokenTTL            time.Duration
	SportFengurMinInterval         time.Duration
	SportFengurMaxRetries          int
	SportFengurRetryBase           time.Duration
	SportFengurFallbackCacheSize   int
	SportFengurCircuitEnabled      bool
	SportFengurCircuitFailureCount int
	SportFengurCircuitOpenTimeout  time.Duration
	SportFengurCircuitHalfOpenMax  int
	DedupeTTL                      time.Duration
	RefreshDebounce                time.Duration
	RefreshTimeout                 time.Duration
	WebhookSecret                  string
	WebhookSecretRequired          bool
	EventIDFilter                  int64
	WebhookHistoryLimit            int
	WebhookWorkers                 int
	ControlToken                   string
}

// settings is the raw koanf layer. Keys are the lower-cased env var names.
type settings struct {
	AppEnv         string        `koanf:"app_env"`
	ServiceName    string        `koanf:"app_service_name"`
	ServiceVersion string        `koanf:"app_service_version"`
	HTTPAddr       string        `koanf:"app_http_addr"`
	Port           string        `koanf:"port"`
	ReadTimeout    time.Duration `koanf:"app_read_timeout"`
	WriteTimeout   time.Duration `koanf:"app_write_timeout"`
	CORSOrigins    string        `koanf:"cors_allowed_origins"`
	LogLevel       string        `koanf:"app_log_level"`
	DebugMode      bool          `koanf:"debug_mode"`
	MetricsEnabled bool          `koanf:"metrics_enabled"`

	PprofEnabled bool   `koanf:"pprof_enabled"`
	PprofAddr    string `koanf:"pprof_addr"`

	UptraceEnabled bool   `koanf:"uptrace_enabled"`
	UptraceDSN     string `koanf:"uptrace_dsn"`
	UptraceLogs    bool   `koanf:"uptrace_logs_enabled"`

	PyroscopeEnabled           bool          `koanf:"pyroscope_enabled"`
	PyroscopeServerAddress     string        `koanf:"pyroscope_server_address"`
	PyroscopeAppName           string        `koanf:"pyroscope_app_name"`
	PyroscopeAuthToken         string        `koanf:"pyroscope_auth_token"`
	PyroscopeBasicAuthUser     string        `koanf:"pyroscope_basic_auth_user"`
	PyroscopeBasicAuthPassword string        `koanf:"pyroscope_basic_auth_password"`
	PyroscopeUploadRate        time.Duration `koanf:"pyroscope_upload_rate"`

	SportFengurBaseURL    string        `koanf:"sportfengur_base_url"`
	SportFengurLocale     string        `koanf:"sportfengur_locale"`
	Username              string        `koanf:"eidfaxi_username"`
	Password              string        `koanf:"eidfaxi_password"`
	SportFengurTimeout    time.Duration `koanf:"sportfengur_timeout"`
	SportFengurTokenTTL   time.Duration `koanf:"sportfengur_token_ttl"`
	MinFetchInterval      time.Duration `koanf:"min_fetch_interval"`
	MinFetchIntervalMS    int           `koanf:"min_fetch_interval_ms"`
	FetchMaxRetries       int           `koanf:"fetch_max_retries"`
	FetchRetryBase        time.Duration `koanf:"fetch_retry_base"`
	FetchRetryBaseMS      int           `koanf:"fetch_retry_base_ms"`
	FallbackCacheSize     int           `koanf:"sportfengur_fallback_cache_size"`
	CircuitEnabled        bool          `koanf:"sportfengur_circuit_enabled"`
	CircuitFailureCount   int           `koanf:"sportfengur_circuit_failure_count"`
	CircuitOpenTimeout    time.Duration `koanf:"sportfengur_circuit_open_timeout"`
	CircuitHalfOpenMaxReq int           `koanf:"sportfengur_circuit_half_open_max_req"`
	DedupeTTL             time.Duration `koanf:"dedupe_ttl"`
	DedupeTTLMS           int           `koanf:"dedupe_ttl_ms"`
	RefreshDebounce       time.Duration `koanf:"refresh_debounce"`
	VMixDebounceMS        int           `koanf:"vmix_debounce_ms"`
	RefreshTimeout        time.Duration `koanf:"refresh_timeout"`
	VMixRefreshTimeoutMS  int           `koanf:"vmix_refresh_timeout_ms"`
	WebhookSecret         string        `koanf:"sportfengur_webhook_secret"`
	WebhookSecretRequired bool          `koanf:"webhook_secret_required"`
	EventID               int64         `koanf:"event_id"`
	WebhookHistoryLimit   int           `koanf:"webhook_history_limit"`
	WebhookWorkers        int           `koanf:"webhook_workers"`
	ControlToken          string        `koanf:"control_token"`
}

func defaults() settings {
	return settings{
		AppEnv:                EnvDev,
		ServiceName:           "sportfengur-relay",
		ServiceVersion:        "dev",
		HTTPAddr:              ":3000",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          15 * time.Second,
		CORSOrigins:           "*",
		LogLevel:              "info",
		MetricsEnabled:        true,
		PprofAddr:             ":6060",
		PyroscopeUploadRate:   15 * time.Second,
		SportFengurBaseURL:    "https://sportfengur.com/api/v1",
		SportFengurLocale:     "is",
		SportFengurTimeout:    20 * time.Second,
		SportFengurTokenTTL:   50 * time.Minute,
		MinFetchInterval:      1500 * time.Millisecond,
		FetchMaxRetries:       3,
		FetchRetryBase:        750 * time.Millisecond,
		FallbackCacheSize:     512,
		CircuitEnabled:        true,
		CircuitFailureCount:   5,
		CircuitOpenTimeout:    15 * time.Second,
		CircuitHalfOpenMaxReq: 1,
		DedupeTTL:             30 * time.Second,
		RefreshDebounce:       200 * time.Millisecond,
		RefreshTimeout:        30 * time.Second,
		WebhookHistoryLimit:   200,
		WebhookWorkers:        8,
	}
}

func Load() (Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv(FileEnvVar)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s %q: %w", FileEnvVar, path, err)
		}
	}

	known := settingKeys()
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		key = strings.ToLower(key)
		if _, ok := known[key]; !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, strings.TrimSpace(value)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	raw := defaults()
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if !k.Exists("app_http_addr") && raw.Port != "" {
		raw.HTTPAddr = ":" + strings.TrimPrefix(raw.Port, ":")
	}
	applyLegacyMillis(&raw)

	return build(raw)
}

func build(raw settings) (Config, error) {
	appEnv, err := parseAppEnv(raw.AppEnv)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                         appEnv,
		ServiceName:                    strings.TrimSpace(raw.ServiceName),
		ServiceVersion:                 strings.TrimSpace(raw.ServiceVersion),
		HTTPAddr:                       strings.TrimSpace(raw.HTTPAddr),
		ReadTimeout:                    raw.ReadTimeout,
		WriteTimeout:                   raw.WriteTimeout,
		CORSAllowedOrigins:             splitCSV(raw.CORSOrigins),
		LogLevel:                       parseLogLevel(raw.LogLevel),
		DebugMode:                      raw.DebugMode,
		MetricsEnabled:                 raw.MetricsEnabled,
		PprofEnabled:                   raw.PprofEnabled,
		PprofAddr:                      strings.TrimSpace(raw.PprofAddr),
		UptraceEnabled:                 raw.UptraceEnabled,
		UptraceDSN:                     strings.TrimSpace(raw.UptraceDSN),
		UptraceLogsEnabled:             raw.UptraceLogs,
		PyroscopeEnabled:               raw.PyroscopeEnabled,
		PyroscopeServerAddress:         strings.TrimSpace(raw.PyroscopeServerAddress),
		PyroscopeAppName:               strings.TrimSpace(raw.PyroscopeAppName),
		PyroscopeAuthToken:             strings.TrimSpace(raw.PyroscopeAuthToken),
		PyroscopeBasicAuthUser:         strings.TrimSpace(raw.PyroscopeBasicAuthUser),
		PyroscopeBasicAuthPassword:     strings.TrimSpace(raw.PyroscopeBasicAuthPassword),
		PyroscopeUploadRate:            raw.PyroscopeUploadRate,
		SportFengurBaseURL:             strings.TrimRight(strings.TrimSpace(raw.SportFengurBaseURL), "/"),
		SportFengurLocale:              strings.Trim(strings.TrimSpace(raw.SportFengurLocale), "/"),
		SportFengurUsername:            strings.TrimSpace(raw.Username),
		SportFengurPassword:            raw.Password,
		SportFengurTimeout:             raw.SportFengurTimeout,
		SportFengurTokenTTL:            raw.SportFengurTokenTTL,
		SportFengurMinInterval:         raw.MinFetchInterval,
		SportFengurMaxRetries:          raw.FetchMaxRetries,
		SportFengurRetryBase:           raw.FetchRetryBase,
		SportFengurFallbackCacheSize:   raw.FallbackCacheSize,
		SportFengurCircuitEnabled:      raw.CircuitEnabled,
		SportFengurCircuitFailureCount: raw.CircuitFailureCount,
		SportFengurCircuitOpenTimeout:  raw.CircuitOpenTimeout,
		SportFengurCircuitHalfOpenMax:  raw.CircuitHalfOpenMaxReq,
		DedupeTTL:                      raw.DedupeTTL,
		RefreshDebounce:                raw.RefreshDebounce,
		RefreshTimeout:                 raw.RefreshTimeout,
		WebhookSecret:                  strings.TrimSpace(raw.WebhookSecret),
		WebhookSecretRequired:          raw.WebhookSecretRequired,
		EventIDFilter:                  raw.EventID,
		WebhookHistoryLimit:            raw.WebhookHistoryLimit,
		WebhookWorkers:                 raw.WebhookWorkers,
		ControlToken:                   strings.TrimSpace(raw.ControlToken),
	}
	if cfg.PyroscopeAppName == "" {
		cfg.PyroscopeAppName = cfg.ServiceName
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("APP_HTTP_ADDR cannot be empty")
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("APP_READ_TIMEOUT must be > 0")
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("APP_WRITE_TIMEOUT must be > 0")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate <= 0 {
		return fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	if cfg.SportFengurBaseURL == "" {
		return fmt.Errorf("SPORTFENGUR_BASE_URL cannot be empty")
	}
	if cfg.SportFengurLocale == "" {
		return fmt.Errorf("SPORTFENGUR_LOCALE cannot be empty")
	}
	if cfg.SportFengurTimeout <= 0 {
		return fmt.Errorf("SPORTFENGUR_TIMEOUT must be > 0")
	}
	if cfg.SportFengurTokenTTL <= 0 {
		return fmt.Errorf("SPORTFENGUR_TOKEN_TTL must be > 0")
	}
	if cfg.SportFengurMinInterval < 0 {
		return fmt.Errorf("MIN_FETCH_INTERVAL must be >= 0")
	}
	if cfg.SportFengurMaxRetries < 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must be >= 0")
	}
	if cfg.SportFengurRetryBase <= 0 {
		return fmt.Errorf("FETCH_RETRY_BASE must be > 0")
	}
	if cfg.SportFengurFallbackCacheSize < 1 {
		return fmt.Errorf("SPORTFENGUR_FALLBACK_CACHE_SIZE must be >= 1")
	}
	if cfg.SportFengurCircuitFailureCount < 1 {
		return fmt.Errorf("SPORTFENGUR_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.SportFengurCircuitOpenTimeout <= 0 {
		return fmt.Errorf("SPORTFENGUR_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	if cfg.SportFengurCircuitHalfOpenMax < 1 {
		return fmt.Errorf("SPORTFENGUR_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	if cfg.DedupeTTL <= 0 {
		return fmt.Errorf("DEDUPE_TTL must be > 0")
	}
	if cfg.RefreshDebounce <= 0 {
		return fmt.Errorf("REFRESH_DEBOUNCE must be > 0")
	}
	if cfg.RefreshTimeout <= 0 {
		return fmt.Errorf("REFRESH_TIMEOUT must be > 0")
	}
	if cfg.WebhookSecretRequired && cfg.WebhookSecret == "" {
		return fmt.Errorf("SPORTFENGUR_WEBHOOK_SECRET is required when WEBHOOK_SECRET_REQUIRED=true")
	}
	if cfg.EventIDFilter < 0 {
		return fmt.Errorf("EVENT_ID must be >= 0")
	}
	if cfg.WebhookHistoryLimit < 1 {
		return fmt.Errorf("WEBHOOK_HISTORY_LIMIT must be >= 1")
	}
	if cfg.WebhookWorkers < 1 {
		return fmt.Errorf("WEBHOOK_WORKERS must be >= 1")
	}
	return nil
}

// applyLegacyMillis honours the millisecond integer variables older deployments set.
func applyLegacyMillis(raw *settings) {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	if raw.MinFetchIntervalMS > 0 {
		raw.MinFetchInterval = ms(raw.MinFetchIntervalMS)
	}
	if raw.FetchRetryBaseMS > 0 {
		raw.FetchRetryBase = ms(raw.FetchRetryBaseMS)
	}
	if raw.DedupeTTLMS > 0 {
		raw.DedupeTTL = ms(raw.DedupeTTLMS)
	}
	if raw.VMixDebounceMS > 0 {
		raw.RefreshDebounce = ms(raw.VMixDebounceMS)
	}
	if raw.VMixRefreshTimeoutMS > 0 {
		raw.RefreshTimeout = ms(raw.VMixRefreshTimeoutMS)
	}
}

func settingKeys() map[string]struct{} {
	t := reflect.TypeOf(settings{})
	out := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("koanf"); tag != "" {
			out[tag] = struct{}{}
		}
	}
	return out
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
