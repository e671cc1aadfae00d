package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

const configPathEnv = "MATCHBOARD_CONFIG"

// Config stores runtime configuration for the board service and the
// terminal viewer.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	LogFormat          logging.Format
	CORSAllowedOrigins []string
	MetricsEnabled     bool

	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	MatchAPIBaseURL               string
	MatchAPITimeout               time.Duration
	MatchAPIMaxRetries            int
	MatchAPIRateLimit             float64
	MatchAPIRateBurst             int
	MatchAPICircuitEnabled        bool
	MatchAPICircuitFailureCount   int
	MatchAPICircuitOpenTimeout    time.Duration
	MatchAPICircuitHalfOpenMaxReq int
	MatchAPIMetadataTTL           time.Duration

	BoardPageSize       int
	BoardMatchLimit     int
	BoardLiveLimit      int
	BoardLiveWindow     int
	BoardDefaultLeague  string
	BoardSessionTTL     time.Duration
	BoardWorkerPoolSize int
	BoardLookupPoolSize int

	// ConfigFile is the YAML file the defaults were read from, if any.
	ConfigFile string
}

// Load reads the optional YAML file named by MATCHBOARD_CONFIG and then the
// environment. Environment variables win over file values.
func Load() (Config, error) {
	l := loader{}
	configFile := strings.TrimSpace(os.Getenv(configPathEnv))
	if configFile != "" {
		values, err := readFile(configFile)
		if err != nil {
			return Config{}, err
		}
		l.file = values
	}
	return l.load(configFile)
}

type loader struct {
	file map[string]string
}

func (l loader) load(configFile string) (Config, error) {
	appEnv, err := parseAppEnv(l.getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ParseLevel(l.getEnv("APP_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
	}
	logFormat, err := logging.ParseFormat(l.getEnv("APP_LOG_FORMAT", string(logging.FormatJSON)))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_FORMAT: %w", err)
	}

	readTimeout, err := l.getPositiveDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := l.getPositiveDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}

	metricsEnabled, err := l.getEnvAsBool("METRICS_ENABLED", true)
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := l.getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	uptraceDSN := strings.TrimSpace(l.getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(l.getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := l.getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	pprofAddr := strings.TrimSpace(l.getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := l.getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	pyroscopeServerAddress := strings.TrimSpace(l.getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := l.getPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	matchAPIBaseURL := strings.TrimRight(strings.TrimSpace(l.getEnv("MATCH_API_BASE_URL", "http://127.0.0.1:5000")), "/")
	if matchAPIBaseURL == "" {
		return Config{}, fmt.Errorf("MATCH_API_BASE_URL cannot be empty")
	}
	matchAPITimeout, err := l.getPositiveDuration("MATCH_API_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}
	matchAPIMaxRetries, err := l.getEnvAsInt("MATCH_API_MAX_RETRIES", 0)
	if err != nil {
		return Config{}, err
	}
	if matchAPIMaxRetries < 0 {
		return Config{}, fmt.Errorf("MATCH_API_MAX_RETRIES must be >= 0")
	}
	matchAPIRateLimit, err := l.getEnvAsFloat("MATCH_API_RATE_LIMIT", 10)
	if err != nil {
		return Config{}, err
	}
	if matchAPIRateLimit < 0 {
		return Config{}, fmt.Errorf("MATCH_API_RATE_LIMIT must be >= 0")
	}
	matchAPIRateBurst, err := l.getEnvAsInt("MATCH_API_RATE_BURST", 5)
	if err != nil {
		return Config{}, err
	}
	if matchAPIRateBurst < 1 {
		return Config{}, fmt.Errorf("MATCH_API_RATE_BURST must be >= 1")
	}
	matchAPICircuitEnabled, err := l.getEnvAsBool("MATCH_API_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	matchAPICircuitFailureCount, err := l.getEnvAsInt("MATCH_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	if matchAPICircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("MATCH_API_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	matchAPICircuitOpenTimeout, err := l.getPositiveDuration("MATCH_API_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	matchAPICircuitHalfOpenMaxReq, err := l.getEnvAsInt("MATCH_API_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, err
	}
	if matchAPICircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("MATCH_API_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	matchAPIMetadataTTL, err := time.ParseDuration(strings.TrimSpace(l.getEnv("MATCH_API_METADATA_TTL", "5m")))
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_API_METADATA_TTL: %w", err)
	}
	if matchAPIMetadataTTL < 0 {
		return Config{}, fmt.Errorf("MATCH_API_METADATA_TTL must be >= 0")
	}

	boardPageSize, err := l.getPositiveInt("BOARD_PAGE_SIZE", 5)
	if err != nil {
		return Config{}, err
	}
	boardMatchLimit, err := l.getPositiveInt("BOARD_MATCH_LIMIT", 300)
	if err != nil {
		return Config{}, err
	}
	if boardMatchLimit > MaxMatchLimit {
		return Config{}, fmt.Errorf("BOARD_MATCH_LIMIT must be <= %d", MaxMatchLimit)
	}
	boardLiveLimit, err := l.getPositiveInt("BOARD_LIVE_LIMIT", 50)
	if err != nil {
		return Config{}, err
	}
	boardLiveWindow, err := l.getPositiveInt("BOARD_LIVE_WINDOW", 6)
	if err != nil {
		return Config{}, err
	}
	boardSessionTTL, err := l.getPositiveDuration("BOARD_SESSION_TTL", "30m")
	if err != nil {
		return Config{}, err
	}
	boardWorkerPoolSize, err := l.getPositiveInt("BOARD_WORKER_POOL_SIZE", 64)
	if err != nil {
		return Config{}, err
	}
	boardLookupPoolSize, err := l.getPositiveInt("BOARD_LOOKUP_POOL_SIZE", 16)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                        appEnv,
		ServiceName:                   l.getEnv("APP_SERVICE_NAME", "matchboard-api"),
		ServiceVersion:                l.getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                      l.getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                   readTimeout,
		WriteTimeout:                  writeTimeout,
		LogLevel:                      logLevel,
		LogFormat:                     logFormat,
		CORSAllowedOrigins:            splitCSV(l.getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MetricsEnabled:                metricsEnabled,
		PprofEnabled:                  pprofEnabled,
		PprofAddr:                     pprofAddr,
		UptraceEnabled:                uptraceEnabled,
		UptraceDSN:                    uptraceDSN,
		PyroscopeEnabled:              pyroscopeEnabled,
		PyroscopeServerAddress:        pyroscopeServerAddress,
		PyroscopeAuthToken:            strings.TrimSpace(l.getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:        strings.TrimSpace(l.getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:    strings.TrimSpace(l.getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:           pyroscopeUploadRate,
		MatchAPIBaseURL:               matchAPIBaseURL,
		MatchAPITimeout:               matchAPITimeout,
		MatchAPIMaxRetries:            matchAPIMaxRetries,
		MatchAPIRateLimit:             matchAPIRateLimit,
		MatchAPIRateBurst:             matchAPIRateBurst,
		MatchAPICircuitEnabled:        matchAPICircuitEnabled,
		MatchAPICircuitFailureCount:   matchAPICircuitFailureCount,
		MatchAPICircuitOpenTimeout:    matchAPICircuitOpenTimeout,
		MatchAPICircuitHalfOpenMaxReq: matchAPICircuitHalfOpenMaxReq,
		MatchAPIMetadataTTL:           matchAPIMetadataTTL,
		BoardPageSize:                 boardPageSize,
		BoardMatchLimit:               boardMatchLimit,
		BoardLiveLimit:                boardLiveLimit,
		BoardLiveWindow:               boardLiveWindow,
		BoardDefaultLeague:            strings.TrimSpace(l.getEnv("BOARD_DEFAULT_LEAGUE", "")),
		BoardSessionTTL:               boardSessionTTL,
		BoardWorkerPoolSize:           boardWorkerPoolSize,
		BoardLookupPoolSize:           boardLookupPoolSize,
		ConfigFile:                    configFile,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(l.getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// MaxMatchLimit caps the per-request row limit of finished/upcoming fetches.
const MaxMatchLimit = usecase.MaxMatchLimit

func (l loader) getEnv(key, fallback string) string {
	if value := os.Getenv(key); strings.TrimSpace(value) != "" {
		return value
	}
	if value, ok := l.file[key]; ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func (l loader) getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(l.getEnv(key, ""))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func (l loader) getPositiveInt(key string, fallback int) (int, error) {
	out, err := l.getEnvAsInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if out < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return out, nil
}

func (l loader) getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(l.getEnv(key, ""))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func (l loader) getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(l.getEnv(key, ""))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func (l loader) getPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(strings.TrimSpace(l.getEnv(key, fallback)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
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

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
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
