package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	CORSAllowedOrigins []string

	NHLAPIBaseURL   string
	UpstreamTimeout time.Duration

	CircuitEnabled        bool
	CircuitFailureCount   int
	CircuitOpenTimeout    time.Duration
	CircuitHalfOpenMaxReq int

	TeamCode        string
	DefaultDivision string
	DisplayTimeZone string

	RecentTTL        time.Duration
	UpcomingTTL      time.Duration
	StandingsTTL     time.Duration
	TVTTL            time.Duration
	RegistryTTL      time.Duration
	RegistryRetryTTL time.Duration

	DefaultUpcomingCount int
	DefaultRecentCount   int
	MaxUpcomingCount     int
	MaxRecentCount       int

	WarmupEnabled    bool
	WarmupInterval   time.Duration
	WarmupMaxWorkers int
	TVFetchWorkers   int

	PreferredNetworks []string
	NetworkNameMap    map[string]string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "nhl-ticker"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		NHLAPIBaseURL:  strings.TrimRight(getEnv("NHL_API_BASE_URL", "https://api-web.nhle.com"), "/"),
	}

	cfg.ReadTimeout, err = getEnvAsDuration("HTTP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	cfg.WriteTimeout, err = getEnvAsDuration("HTTP_WRITE_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}

	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	cfg.UpstreamTimeout, err = getEnvAsDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	cfg.CircuitEnabled, err = getEnvAsBool("UPSTREAM_CIRCUIT_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}
	cfg.CircuitFailureCount, err = getEnvAsInt("UPSTREAM_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPSTREAM_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.CircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("UPSTREAM_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.CircuitOpenTimeout, err = getEnvAsDuration("UPSTREAM_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	cfg.CircuitHalfOpenMaxReq, err = getEnvAsInt("UPSTREAM_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPSTREAM_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.CircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("UPSTREAM_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cfg.TeamCode = strings.ToUpper(strings.TrimSpace(getEnv("TEAM_CODE", "MIN")))
	if len(cfg.TeamCode) != 3 {
		return Config{}, fmt.Errorf("TEAM_CODE must be a three-letter code, got %q", cfg.TeamCode)
	}
	cfg.DefaultDivision = getEnv("DEFAULT_DIVISION", "Central")
	cfg.DisplayTimeZone = getEnv("DISPLAY_TIMEZONE", "America/Chicago")

	cfg.RecentTTL, err = getEnvAsDuration("CACHE_TTL_RECENT", "60s")
	if err != nil {
		return Config{}, err
	}
	cfg.UpcomingTTL, err = getEnvAsDuration("CACHE_TTL_UPCOMING", "15m")
	if err != nil {
		return Config{}, err
	}
	cfg.StandingsTTL, err = getEnvAsDuration("CACHE_TTL_STANDINGS", "15m")
	if err != nil {
		return Config{}, err
	}
	cfg.TVTTL, err = getEnvAsDuration("CACHE_TTL_TV", "6h")
	if err != nil {
		return Config{}, err
	}
	cfg.RegistryTTL, err = getEnvAsDuration("CACHE_TTL_REGISTRY", "24h")
	if err != nil {
		return Config{}, err
	}
	cfg.RegistryRetryTTL, err = getEnvAsDuration("CACHE_TTL_REGISTRY_RETRY", "60s")
	if err != nil {
		return Config{}, err
	}

	cfg.DefaultUpcomingCount, err = getEnvAsInt("DEFAULT_UPCOMING_COUNT", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_UPCOMING_COUNT: %w", err)
	}
	cfg.DefaultRecentCount, err = getEnvAsInt("DEFAULT_RECENT_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_RECENT_COUNT: %w", err)
	}
	cfg.MaxUpcomingCount, err = getEnvAsInt("MAX_UPCOMING_COUNT", 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPCOMING_COUNT: %w", err)
	}
	cfg.MaxRecentCount, err = getEnvAsInt("MAX_RECENT_COUNT", 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_RECENT_COUNT: %w", err)
	}
	if cfg.MaxUpcomingCount < 1 || cfg.MaxRecentCount < 1 {
		return Config{}, fmt.Errorf("MAX_UPCOMING_COUNT and MAX_RECENT_COUNT must be >= 1")
	}

	cfg.WarmupEnabled, err = getEnvAsBool("WARMUP_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}
	cfg.WarmupInterval, err = getEnvAsDuration("WARMUP_INTERVAL", "5m")
	if err != nil {
		return Config{}, err
	}
	cfg.WarmupMaxWorkers, err = getEnvAsInt("WARMUP_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse WARMUP_MAX_WORKERS: %w", err)
	}
	cfg.TVFetchWorkers, err = getEnvAsInt("TV_FETCH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse TV_FETCH_WORKERS: %w", err)
	}

	cfg.PreferredNetworks = splitCSV(getEnv("PREFERRED_NETWORKS", ""))
	cfg.NetworkNameMap, err = parseNameMap(getEnv("NETWORK_NAME_MAP", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse NETWORK_NAME_MAP: %w", err)
	}

	cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = getEnv("PYROSCOPE_SERVER_ADDRESS", "")
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = getEnv("PYROSCOPE_AUTH_TOKEN", "")
	if cfg.PyroscopeEnabled && strings.TrimSpace(cfg.PyroscopeServerAddress) == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	cfg.LogLevel = logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case EnvDev, "development", "local":
		return EnvDev, nil
	case EnvProd, "production":
		return EnvProd, nil
	default:
		return "", fmt.Errorf("unsupported APP_ENV %q", v)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}

func parseNameMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected network:display", item)
		}

		key := strings.TrimSpace(segments[0])
		value := strings.TrimSpace(segments[1])
		if key == "" || value == "" {
			return nil, fmt.Errorf("empty network or display name in item %q", item)
		}
		out[key] = value
	}

	return out, nil
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
