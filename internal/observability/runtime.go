// Package observability starts the process wide tracing and profiling hooks
// of the board service.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/matchboard/internal/config"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
)

const pprofStopTimeout = 5 * time.Second

// Runtime owns the exporters and profilers started for one process.
type Runtime struct {
	logger          *logging.Logger
	shutdownTracing func(context.Context) error
	stopProfiler    func() error
	pprof           *http.Server
}

// Start brings up Uptrace, Pyroscope and the pprof listener according to cfg.
// Whatever was already started is stopped again when a later step fails.
func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{
		logger:          logger,
		shutdownTracing: func(context.Context) error { return nil },
		stopProfiler:    func() error { return nil },
	}

	shutdownTracing, err := initTracing(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	rt.shutdownTracing = shutdownTracing

	stopProfiler, err := initProfiling(cfg, logger)
	if err != nil {
		_ = rt.Shutdown(context.Background())
		return nil, fmt.Errorf("init profiling: %w", err)
	}
	rt.stopProfiler = stopProfiler

	srv, err := startPprofServer(cfg, logger)
	if err != nil {
		_ = rt.Shutdown(context.Background())
		return nil, fmt.Errorf("start pprof: %w", err)
	}
	rt.pprof = srv

	return rt, nil
}

// Shutdown stops everything in reverse start order and reports every failure.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	if err := stopPprofServer(rt.pprof, rt.logger, pprofStopTimeout); err != nil {
		errs = append(errs, fmt.Errorf("pprof: %w", err))
	}
	if err := rt.stopProfiler(); err != nil {
		errs = append(errs, fmt.Errorf("pyroscope: %w", err))
	}
	if err := rt.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("uptrace: %w", err))
	}
	return errors.Join(errs...)
}
