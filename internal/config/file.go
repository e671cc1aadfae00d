package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout of MATCHBOARD_CONFIG. Every field maps to
// one environment variable.
type fileConfig struct {
	App struct {
		Env            string `yaml:"env"`
		ServiceName    string `yaml:"serviceName"`
		ServiceVersion string `yaml:"serviceVersion"`
		HTTPAddr       string `yaml:"httpAddr"`
		LogLevel       string `yaml:"logLevel"`
		LogFormat      string `yaml:"logFormat"`
	} `yaml:"app"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
	MatchAPI struct {
		BaseURL     string   `yaml:"baseUrl"`
		Timeout     string   `yaml:"timeout"`
		MaxRetries  *int     `yaml:"maxRetries"`
		RateLimit   *float64 `yaml:"rateLimit"`
		RateBurst   *int     `yaml:"rateBurst"`
		MetadataTTL string   `yaml:"metadataTtl"`
		Circuit     struct {
			Enabled        *bool  `yaml:"enabled"`
			FailureCount   *int   `yaml:"failureCount"`
			OpenTimeout    string `yaml:"openTimeout"`
			HalfOpenMaxReq *int   `yaml:"halfOpenMaxReq"`
		} `yaml:"circuit"`
	} `yaml:"matchApi"`
	Board struct {
		PageSize       *int   `yaml:"pageSize"`
		MatchLimit     *int   `yaml:"matchLimit"`
		LiveLimit      *int   `yaml:"liveLimit"`
		LiveWindow     *int   `yaml:"liveWindow"`
		DefaultLeague  string `yaml:"defaultLeague"`
		SessionTTL     string `yaml:"sessionTtl"`
		WorkerPoolSize *int   `yaml:"workerPoolSize"`
		LookupPoolSize *int   `yaml:"lookupPoolSize"`
	} `yaml:"board"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", configPathEnv, path, err)
	}
	return parseFile(raw)
}

func parseFile(raw []byte) (map[string]string, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPathEnv, err)
	}
	return fc.values(), nil
}

func (fc fileConfig) values() map[string]string {
	out := make(map[string]string)
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}
	setInt := func(key string, value *int) {
		if value != nil {
			out[key] = strconv.Itoa(*value)
		}
	}
	setBool := func(key string, value *bool) {
		if value != nil {
			out[key] = strconv.FormatBool(*value)
		}
	}

	set("APP_ENV", fc.App.Env)
	set("APP_SERVICE_NAME", fc.App.ServiceName)
	set("APP_SERVICE_VERSION", fc.App.ServiceVersion)
	set("APP_HTTP_ADDR", fc.App.HTTPAddr)
	set("APP_LOG_LEVEL", fc.App.LogLevel)
	set("APP_LOG_FORMAT", fc.App.LogFormat)
	set("CORS_ALLOWED_ORIGINS", strings.Join(fc.CORS.AllowedOrigins, ","))

	set("MATCH_API_BASE_URL", fc.MatchAPI.BaseURL)
	set("MATCH_API_TIMEOUT", fc.MatchAPI.Timeout)
	setInt("MATCH_API_MAX_RETRIES", fc.MatchAPI.MaxRetries)
	if fc.MatchAPI.RateLimit != nil {
		out["MATCH_API_RATE_LIMIT"] = strconv.FormatFloat(*fc.MatchAPI.RateLimit, 'f', -1, 64)
	}
	setInt("MATCH_API_RATE_BURST", fc.MatchAPI.RateBurst)
	set("MATCH_API_METADATA_TTL", fc.MatchAPI.MetadataTTL)
	setBool("MATCH_API_CIRCUIT_ENABLED", fc.MatchAPI.Circuit.Enabled)
	setInt("MATCH_API_CIRCUIT_FAILURE_COUNT", fc.MatchAPI.Circuit.FailureCount)
	set("MATCH_API_CIRCUIT_OPEN_TIMEOUT", fc.MatchAPI.Circuit.OpenTimeout)
	setInt("MATCH_API_CIRCUIT_HALF_OPEN_MAX_REQ", fc.MatchAPI.Circuit.HalfOpenMaxReq)

	setInt("BOARD_PAGE_SIZE", fc.Board.PageSize)
	setInt("BOARD_MATCH_LIMIT", fc.Board.MatchLimit)
	setInt("BOARD_LIVE_LIMIT", fc.Board.LiveLimit)
	setInt("BOARD_LIVE_WINDOW", fc.Board.LiveWindow)
	set("BOARD_DEFAULT_LEAGUE", fc.Board.DefaultLeague)
	set("BOARD_SESSION_TTL", fc.Board.SessionTTL)
	setInt("BOARD_WORKER_POOL_SIZE", fc.Board.WorkerPoolSize)
	setInt("BOARD_LOOKUP_POOL_SIZE", fc.Board.LookupPoolSize)

	setBool("METRICS_ENABLED", fc.Metrics.Enabled)

	return out
}
