package app

import (
	"fmt"
	"net/http"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchboard/external/matchapi"
	"github.com/riskibarqy/matchboard/internal/config"
	"github.com/riskibarqy/matchboard/internal/interfaces/httpapi"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/riskibarqy/matchboard/internal/platform/metrics"
	"github.com/riskibarqy/matchboard/internal/platform/resilience"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

// Components is the board stack shared by the HTTP service and the terminal
// viewer: one match API client, the lookup and fetch pools, and the services
// every board is built from.
type Components struct {
	Config   config.Config
	Logger   *logging.Logger
	Client   *matchapi.Client
	Metrics  *metrics.BoardMetrics
	Registry *usecase.BoardRegistry

	pool          *ants.Pool
	lookupPool    *ants.Pool
	recorder      usecase.BoardRecorder
	seasonSvc     *usecase.SeasonService
	collectionSvc *usecase.MatchCollectionService
}

func New(cfg config.Config, logger *logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := matchapi.NewClient(matchapi.ClientConfig{
		BaseURL:     cfg.MatchAPIBaseURL,
		Timeout:     cfg.MatchAPITimeout,
		MaxRetries:  cfg.MatchAPIMaxRetries,
		RateLimit:   cfg.MatchAPIRateLimit,
		RateBurst:   cfg.MatchAPIRateBurst,
		Logger:      logger,
		MetadataTTL: cfg.MatchAPIMetadataTTL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.MatchAPICircuitEnabled,
			FailureThreshold: cfg.MatchAPICircuitFailureCount,
			OpenTimeout:      cfg.MatchAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.MatchAPICircuitHalfOpenMaxReq,
		},
	})

	// Lookups submit their follow-up fetches, so they get their own pool.
	// A lookup worker only blocks until a fetch worker frees up.
	pool, err := ants.NewPool(cfg.BoardWorkerPoolSize, ants.WithPanicHandler(func(rec any) {
		logger.Error("board fetch worker panicked", "panic", rec)
	}))
	if err != nil {
		return nil, fmt.Errorf("create board worker pool: %w", err)
	}
	lookupPool, err := ants.NewPool(cfg.BoardLookupPoolSize, ants.WithPanicHandler(func(rec any) {
		logger.Error("board lookup worker panicked", "panic", rec)
	}))
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("create board lookup pool: %w", err)
	}

	c := &Components{
		Config:        cfg,
		Logger:        logger,
		Client:        client,
		pool:          pool,
		lookupPool:    lookupPool,
		seasonSvc:     usecase.NewSeasonService(client, logger),
		collectionSvc: usecase.NewMatchCollectionService(client, usecase.MatchCollectionConfig{LiveLimit: cfg.BoardLiveLimit}),
	}

	registryCfg := usecase.BoardRegistryConfig{
		TTL:    cfg.BoardSessionTTL,
		Logger: logger,
	}
	if cfg.MetricsEnabled {
		c.Metrics = metrics.NewBoardMetrics()
		c.Metrics.WatchBreaker(client.Breaker())
		c.recorder = c.Metrics
		registryCfg.Recorder = c.Metrics
	}

	c.Registry = usecase.NewBoardRegistry(func() *usecase.Board {
		return c.NewBoard(nil)
	}, registryCfg)

	return c, nil
}

// NewBoard builds a board on the shared pools. onChange may be nil.
func (c *Components) NewBoard(onChange func(usecase.BoardState)) *usecase.Board {
	return usecase.NewBoard(c.seasonSvc, c.collectionSvc, usecase.BoardConfig{
		PageSize:       c.Config.BoardPageSize,
		LiveWindow:     c.Config.BoardLiveWindow,
		Limit:          c.Config.BoardMatchLimit,
		Executor:       c.pool,
		LookupExecutor: c.lookupPool,
		Recorder:       c.recorder,
		Logger:         c.Logger,
		OnChange:       onChange,
	})
}

// Close releases both pools. Tasks already queued still run.
func (c *Components) Close() {
	c.lookupPool.Release()
	c.pool.Release()
}

func NewHTTPServer(c *Components) (*http.Server, error) {
	routerCfg := httpapi.RouterConfig{
		Logger:             c.Logger,
		CORSAllowedOrigins: c.Config.CORSAllowedOrigins,
	}
	if c.Metrics != nil {
		routerCfg.MetricsHandler = c.Metrics.Handler()
	}

	handler := httpapi.NewHandler(c.Registry, c.Client, c.Logger)
	router := httpapi.NewRouter(handler, routerCfg)

	server := &http.Server{
		Addr:         c.Config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  c.Config.ReadTimeout,
		WriteTimeout: c.Config.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
