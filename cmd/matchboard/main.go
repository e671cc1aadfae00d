package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/riskibarqy/matchboard/internal/app"
	"github.com/riskibarqy/matchboard/internal/config"
	"github.com/riskibarqy/matchboard/internal/interfaces/console"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
)

// Usage: matchboard [league name]
// Without an argument the board starts on BOARD_DEFAULT_LEAGUE, if set.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.MetricsEnabled = false

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  logging.FormatConsole,
		Output:  os.Stderr,
		Service: "matchboard",
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	components, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	board := components.NewBoard(nil)
	league := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if league == "" {
		league = cfg.BoardDefaultLeague
	}
	if league != "" {
		board.SetLeague(ctx, league)
	}

	viewer := console.NewViewer(console.Config{
		Board:   board,
		Leagues: components.Client,
		In:      os.Stdin,
		Out:     os.Stdout,
		Logger:  logger,
	})
	if err := viewer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("viewer stopped", "error", err)
		os.Exit(1)
	}
}
