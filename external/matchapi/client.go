package matchapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/platform/cache"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/riskibarqy/matchboard/internal/platform/resilience"
	"github.com/riskibarqy/matchboard/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "http://127.0.0.1:5000"
	maxBodyBytes   = 6 << 20
)

var errTransient = crerr.New("match api transient failure")

// payloadAPI keeps JSON numbers as json.Number so large fixture ids and
// integer goals are not routed through float64.
var payloadAPI = sonic.Config{UseNumber: true}.Froze()

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RateLimit      float64
	RateBurst      int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// MetadataTTL keeps non-empty league and season lists in memory. Zero
	// disables the cache.
	MetadataTTL time.Duration
}

// Client reads leagues, seasons and fixtures from the predictions API. It
// implements match.Source.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	logger     *logging.Logger
	guard      *resilience.Guard
	leagues    *cache.Store[[]string]
	seasons    *cache.Store[[]match.Season]
}

var _ match.Source = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
		guard: resilience.NewGuard(resilience.GuardConfig{
			CircuitBreaker: cfg.CircuitBreaker,
			RateLimit:      resilience.RateLimitConfig{PerSecond: cfg.RateLimit, Burst: cfg.RateBurst},
			IsFailure:      isTransient,
		}),
	}
	if cfg.MetadataTTL > 0 {
		c.leagues = cache.NewStore(cfg.MetadataTTL, cache.WithKeep(func(v []string) bool { return len(v) > 0 }))
		c.seasons = cache.NewStore(cfg.MetadataTTL, cache.WithKeep(func(v []match.Season) bool { return len(v) > 0 }))
	}
	return c
}

// Breaker exposes the circuit breaker so callers can observe its state.
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.guard.Breaker()
}

func (c *Client) ListLeagues(ctx context.Context) ([]string, error) {
	if c.leagues == nil {
		return c.fetchLeagues(ctx)
	}
	return c.leagues.GetOrLoad(ctx, "leagues", c.fetchLeagues)
}

// ListSeasons returns the seasons of league. With MetadataTTL set, non-empty
// lists are served from memory until they expire.
func (c *Client) ListSeasons(ctx context.Context, league string) ([]match.Season, error) {
	if c.seasons == nil {
		return c.fetchSeasons(ctx, league)
	}
	return c.seasons.GetOrLoad(ctx, "seasons:"+league, func(ctx context.Context) ([]match.Season, error) {
		return c.fetchSeasons(ctx, league)
	})
}

func (c *Client) fetchLeagues(ctx context.Context) ([]string, error) {
	var items []any
	if err := c.doJSON(ctx, "/api/leagues", nil, &items); err != nil {
		return nil, crerr.Wrap(err, "list leagues")
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var name string
		switch typed := item.(type) {
		case string:
			name = typed
		case map[string]any:
			name, _ = typed["league"].(string)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func (c *Client) fetchSeasons(ctx context.Context, league string) ([]match.Season, error) {
	query := url.Values{}
	query.Set("league", league)

	var items []any
	if err := c.doJSON(ctx, "/api/seasons", query, &items); err != nil {
		return nil, crerr.Wrapf(err, "list seasons league=%s", league)
	}

	out := make([]match.Season, 0, len(items))
	for _, item := range items {
		if season := match.SeasonFromValue(item); !season.IsZero() {
			out = append(out, season)
		}
	}
	return out, nil
}

func (c *Client) ListMatches(ctx context.Context, q match.Query) ([]match.RawRecord, error) {
	query := url.Values{}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.League != "" {
		query.Set("league", q.League)
	}
	if !q.Season.IsZero() {
		query.Set("season", q.Season.String())
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	if q.WithProbs {
		query.Set("with_probs", "1")
	}

	var items []match.RawRecord
	if err := c.doJSON(ctx, "/api/matches", query, &items); err != nil {
		return nil, crerr.Wrapf(err, "list matches league=%s season=%s status=%s", q.League, q.Season, q.Status)
	}
	return items, nil
}

func (c *Client) ListLivePredictions(ctx context.Context, limit int) ([]match.RawRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var items []match.RawRecord
	if err := c.doJSON(ctx, "/api/live_predictions", query, &items); err != nil {
		return nil, crerr.Wrap(err, "list live predictions")
	}
	return items, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err := c.guard.Do(ctx, fullURL, func(ctx context.Context) ([]byte, error) {
		return c.executeRequest(ctx, fullURL)
	})
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "match api circuit breaker rejected request", "path", path, "state", c.guard.Breaker().State())
			return fmt.Errorf("%w: match api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return err
	}

	if err := payloadAPI.Unmarshal(raw, target); err != nil {
		return crerr.Wrapf(err, "decode %s payload", path)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(crerr.Wrap(readErr, "read response body"), errTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(crerr.Newf("match api status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), errTransient)
			default:
				return nil, crerr.Newf("match api status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("match api request failed")
	}
	c.logger.WarnContext(ctx, "match api request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isTransient(err error) bool {
	return crerr.Is(err, errTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
