package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/matchboard/internal/config"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

func testConfig(upstream string) config.Config {
	return config.Config{
		AppEnv:                        config.EnvDev,
		HTTPAddr:                      ":0",
		ReadTimeout:                   time.Second,
		WriteTimeout:                  time.Second,
		MetricsEnabled:                true,
		MatchAPIBaseURL:               upstream,
		MatchAPITimeout:               time.Second,
		MatchAPICircuitEnabled:        true,
		MatchAPICircuitFailureCount:   3,
		MatchAPICircuitOpenTimeout:    time.Second,
		MatchAPICircuitHalfOpenMaxReq: 1,
		BoardPageSize:                 5,
		BoardMatchLimit:               300,
		BoardLiveLimit:                50,
		BoardLiveWindow:               6,
		BoardSessionTTL:               time.Minute,
		BoardWorkerPoolSize:           4,
		BoardLookupPoolSize:           2,
	}
}

func TestNewHTTPServer_WiresRoutes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"league":"Premier League"}]`))
	}))
	defer upstream.Close()

	components, err := New(testConfig(upstream.URL), logging.NewNop())
	if err != nil {
		t.Fatalf("new components: %v", err)
	}
	defer components.Close()

	srv, err := NewHTTPServer(components)
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	for _, path := range []string{"/healthz", "/metrics", "/v1/leagues"} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status=%d body=%s", path, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "matchboard_upstream_circuit_state") {
		t.Fatalf("expected breaker gauge in metrics output")
	}
}

func TestNewHTTPServer_MetricsDisabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MetricsEnabled = false

	components, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new components: %v", err)
	}
	defer components.Close()

	if components.Metrics != nil {
		t.Fatalf("expected no metrics when disabled")
	}
	srv, err := NewHTTPServer(components)
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be unrouted, got %d", rec.Code)
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.HTTPAddr = ""

	components, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new components: %v", err)
	}
	defer components.Close()

	if _, err := NewHTTPServer(components); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestComponents_NewBoardUsesConfig(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.BoardMatchLimit = 120

	components, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new components: %v", err)
	}
	defer components.Close()

	board := components.NewBoard(nil)
	if got := board.Snapshot().Limit; got != 120 {
		t.Fatalf("expected configured limit, got %d", got)
	}
}

func TestComponents_SingleWorkerPoolsLoadBoards(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/seasons":
			_, _ = w.Write([]byte(`["2023"]`))
		case r.URL.Path == "/api/matches" && r.URL.Query().Get("status") == "FT":
			_, _ = w.Write([]byte(`[{"fixture_id": 1, "league": "Premier League", "season": 2023, "status": "FT", "date": "2023-01-01"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.BoardWorkerPoolSize = 1
	cfg.BoardLookupPoolSize = 1
	cfg.MatchAPIMetadataTTL = 0

	components, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new components: %v", err)
	}
	defer components.Close()

	boards := make([]*usecase.Board, 4)
	for i := range boards {
		boards[i] = components.NewBoard(nil)
		go boards[i].SetLeague(context.Background(), "Premier League")
	}

	deadline := time.After(5 * time.Second)
	for i, board := range boards {
		for board.Snapshot().Phase != usecase.BoardPhaseReady || board.Snapshot().Finished.Loading || board.Snapshot().Live.Loading {
			select {
			case <-board.Settled():
				time.Sleep(5 * time.Millisecond)
			case <-deadline:
				t.Fatalf("board %d never settled: %+v", i, board.Snapshot())
			}
		}
		if got := board.Snapshot().Finished.Total; got != 1 {
			t.Fatalf("board %d: expected one finished match, got %d", i, got)
		}
	}
}
