// Package console is the interactive terminal front end of a match board.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

const helpText = `commands:
  league <name>             select a league (empty name clears it)
  season <season>           select a season of the current league
  limit <n>                 cap finished/upcoming rows (1-1000)
  next|prev finished        page through finished matches
  next|prev upcoming        page through upcoming matches
  refresh                   reload the current selection
  leagues                   list leagues known to the API
  show                      render the board again
  help                      show this text
  quit                      leave
`

// LeagueLister lists the leagues known to the match API.
type LeagueLister interface {
	ListLeagues(ctx context.Context) ([]string, error)
}

type Config struct {
	Board   *usecase.Board
	Leagues LeagueLister
	In      io.Reader
	Out     io.Writer
	Logger  *logging.Logger
	Prompt  string
}

// Viewer reads one command per line and renders the board after each one.
// Rendering waits for the fetches a command started so every frame shows
// settled state.
type Viewer struct {
	board   *usecase.Board
	leagues LeagueLister
	in      io.Reader
	out     io.Writer
	logger  *logging.Logger
	prompt  string
}

func NewViewer(cfg Config) *Viewer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "matchboard> "
	}
	return &Viewer{
		board:   cfg.Board,
		leagues: cfg.Leagues,
		in:      cfg.In,
		out:     cfg.Out,
		logger:  logger,
		prompt:  prompt,
	}
}

// Run processes commands until quit, end of input or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(v.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	v.render(ctx)
	v.printPrompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			quit, err := v.Execute(ctx, line)
			if err != nil {
				fmt.Fprintf(v.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			v.printPrompt()
		}
	}
}

// Execute runs one command line. It reports whether the viewer should stop.
func (v *Viewer) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	command := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch command {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		_, _ = io.WriteString(v.out, helpText)
		return false, nil
	case "show":
		v.render(ctx)
		return false, nil
	case "league":
		v.board.SetLeague(ctx, rest)
		v.render(ctx)
		return false, nil
	case "season":
		if rest == "" {
			return false, errors.New("usage: season <season>")
		}
		if err := v.board.SetSeason(ctx, match.Season(rest)); err != nil {
			return false, err
		}
		v.render(ctx)
		return false, nil
	case "limit":
		limit, err := strconv.Atoi(rest)
		if err != nil || limit > usecase.MaxMatchLimit {
			return false, fmt.Errorf("usage: limit <1-%d>", usecase.MaxMatchLimit)
		}
		if err := v.board.SetLimit(ctx, limit); err != nil {
			return false, err
		}
		v.render(ctx)
		return false, nil
	case "next", "prev":
		return false, v.page(ctx, command, rest)
	case "refresh":
		v.board.Refresh(ctx)
		v.render(ctx)
		return false, nil
	case "leagues":
		return false, v.listLeagues(ctx)
	default:
		return false, fmt.Errorf("unknown command %q, type help", fields[0])
	}
}

func (v *Viewer) page(ctx context.Context, direction, collection string) error {
	kind, err := usecase.ParseCollectionKind(collection)
	if err != nil {
		return fmt.Errorf("usage: %s finished|upcoming", direction)
	}
	delta := 1
	if direction == "prev" {
		delta = -1
	}
	if _, err := v.board.Advance(kind, delta); err != nil {
		return err
	}
	v.render(ctx)
	return nil
}

func (v *Viewer) listLeagues(ctx context.Context) error {
	if v.leagues == nil {
		return errors.New("league listing is not available")
	}
	leagues, err := v.leagues.ListLeagues(ctx)
	if err != nil {
		v.logger.WarnContext(ctx, "list leagues failed", "error", err)
		return err
	}
	if len(leagues) == 0 {
		_, _ = io.WriteString(v.out, "no leagues\n")
		return nil
	}
	for _, league := range leagues {
		fmt.Fprintf(v.out, "  %s\n", league)
	}
	return nil
}

func (v *Viewer) render(ctx context.Context) {
	select {
	case <-v.board.Settled():
	case <-ctx.Done():
	}
	_, _ = io.WriteString(v.out, Render(v.board.Snapshot()))
}

func (v *Viewer) printPrompt() {
	_, _ = io.WriteString(v.out, v.prompt)
}
