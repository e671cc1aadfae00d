package matchapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/riskibarqy/matchboard/internal/platform/resilience"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL + "/",
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg)
}

func TestClient_ListMatches_EncodesQuery(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/matches" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected accept header %q", got)
		}
		q := r.URL.Query()
		if q.Get("league") != "Premier League" || q.Get("season") != "2023" || q.Get("status") != "FT" ||
			q.Get("limit") != "300" || q.Get("with_probs") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[
			{"fixture_id": 101, "home_team": "Arsenal", "away_team": "Chelsea", "home_goals": 2, "away_goals": 1,
			 "date": "2023-01-01T15:00:00Z", "league": "Premier League", "season": 2023, "status": "FT",
			 "prob_home_win": 0.5, "prob_draw": 0.3, "prob_away_win": 0.2}
		]`))
	}, nil)

	records, err := client.ListMatches(context.Background(), match.Query{
		League:    "Premier League",
		Season:    "2023",
		Status:    match.StatusFinished,
		Limit:     300,
		WithProbs: true,
	})
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}

	m := match.Normalize(records[0])
	if m.FixtureID != "101" || m.Season != "2023" || m.HomeGoals == nil || *m.HomeGoals != 2 {
		t.Fatalf("unexpected normalized match: %+v", m)
	}
	if m.ProbHomeWin == nil || *m.ProbHomeWin != 0.5 {
		t.Fatalf("expected probability to be decoded")
	}
}

func TestClient_ListSeasons_CoercesNumbers(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("league") != "Ligue 1" {
			t.Errorf("unexpected league %q", r.URL.Query().Get("league"))
		}
		_, _ = w.Write([]byte(`[2024, "2023", null, "2022/23"]`))
	}, nil)

	seasons, err := client.ListSeasons(context.Background(), "Ligue 1")
	if err != nil {
		t.Fatalf("list seasons: %v", err)
	}
	want := []match.Season{"2024", "2023", "2022/23"}
	if len(seasons) != len(want) {
		t.Fatalf("unexpected seasons %v", seasons)
	}
	for i := range want {
		if seasons[i] != want[i] {
			t.Fatalf("season %d: got=%s want=%s", i, seasons[i], want[i])
		}
	}
}

func TestClient_ListLeagues(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"league": "La Liga"}, {"league": "Premier League"}, {"league": "La Liga"}, {"league": ""}]`))
	}, nil)

	leagues, err := client.ListLeagues(context.Background())
	if err != nil {
		t.Fatalf("list leagues: %v", err)
	}
	if len(leagues) != 2 || leagues[0] != "La Liga" || leagues[1] != "Premier League" {
		t.Fatalf("unexpected leagues %v", leagues)
	}
}

func TestClient_ListLivePredictions_Limit(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/live_predictions" || r.URL.Query().Get("limit") != "50" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`[{"fixture_id": "1", "status": "1H", "league": "La Liga"}]`))
	}, nil)

	records, err := client.ListLivePredictions(context.Background(), 50)
	if err != nil {
		t.Fatalf("list live predictions: %v", err)
	}
	if len(records) != 1 || records[0]["status"] != "1H" {
		t.Fatalf("unexpected records %v", records)
	}
}

func TestClient_NonSuccessStatusIsError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "unknown league"}`))
	}, nil)

	_, err := client.ListSeasons(context.Background(), "Nowhere")
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if isTransient(err) {
		t.Fatalf("expected 404 to be a permanent failure: %v", err)
	}
	if state := client.Breaker().State(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected 4xx to leave the breaker closed, got %s", state)
	}
}

func TestClient_InvalidJSONIsError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}, nil)

	if _, err := client.ListMatches(context.Background(), match.Query{League: "Serie A"}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`["2024"]`))
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 1
	})

	seasons, err := client.ListSeasons(context.Background(), "Serie A")
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if len(seasons) != 1 || calls.Load() != 2 {
		t.Fatalf("unexpected result seasons=%v calls=%d", seasons, calls.Load())
	}
}

func TestClient_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	for i := 0; i < 2; i++ {
		if _, err := client.ListLivePredictions(context.Background(), 50); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}

	_, err := client.ListLivePredictions(context.Background(), 50)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable once open, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected no request while the breaker is open, got %d calls", calls.Load())
	}
}

func TestClient_MetadataCache(t *testing.T) {
	t.Parallel()

	var seasonCalls, leagueCalls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/seasons":
			if r.URL.Query().Get("league") == "Empty League" {
				seasonCalls.Add(1)
				_, _ = w.Write([]byte(`[]`))
				return
			}
			seasonCalls.Add(1)
			_, _ = w.Write([]byte(`[2024, 2023]`))
		case "/api/leagues":
			leagueCalls.Add(1)
			_, _ = w.Write([]byte(`[{"league":"Serie A"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, func(cfg *ClientConfig) {
		cfg.MetadataTTL = time.Minute
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		seasons, err := client.ListSeasons(ctx, "Serie A")
		if err != nil || len(seasons) != 2 {
			t.Fatalf("list seasons: %v %v", seasons, err)
		}
		if _, err := client.ListLeagues(ctx); err != nil {
			t.Fatalf("list leagues: %v", err)
		}
	}
	if got := seasonCalls.Load(); got != 1 {
		t.Fatalf("expected one seasons request, got %d", got)
	}
	if got := leagueCalls.Load(); got != 1 {
		t.Fatalf("expected one leagues request, got %d", got)
	}

	for i := 0; i < 2; i++ {
		if _, err := client.ListSeasons(ctx, "Empty League"); err != nil {
			t.Fatalf("list empty seasons: %v", err)
		}
	}
	if got := seasonCalls.Load(); got != 3 {
		t.Fatalf("expected empty season lists to bypass the cache, got %d requests", got)
	}
}

func TestClient_ListMatches_KeepsNumberPrecision(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"fixture_id": 9007199254740993, "season": 2023, "home_goals": 1, "away_goals": 2.0, "status": "FT"}]`))
	}, nil)

	records, err := client.ListMatches(context.Background(), match.Query{League: "Serie A", Season: "2023", Status: match.StatusFinished})
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if _, ok := records[0]["fixture_id"].(json.Number); !ok {
		t.Fatalf("expected fixture_id to decode as json.Number, got %T", records[0]["fixture_id"])
	}

	m := match.Normalize(records[0])
	if m.FixtureID != "9007199254740993" {
		t.Fatalf("fixture id lost precision: %q", m.FixtureID)
	}
	if m.Season != "2023" || m.HomeScoreText() != "1" || m.AwayScoreText() != "2" {
		t.Fatalf("unexpected normalized match: %+v", m)
	}
}
