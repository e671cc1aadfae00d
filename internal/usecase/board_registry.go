package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
)

const defaultBoardSessionTTL = 30 * time.Minute

// BoardSessionRecorder receives the number of live board sessions.
type BoardSessionRecorder interface {
	ObserveActiveBoards(n int)
}

type BoardRegistryConfig struct {
	TTL      time.Duration
	Recorder BoardSessionRecorder
	Logger   *logging.Logger
}

type boardSession struct {
	board    *Board
	lastSeen time.Time
}

// BoardRegistry keeps one Board per viewer session and expires sessions that
// have not been touched for the configured TTL.
type BoardRegistry struct {
	factory  func() *Board
	ttl      time.Duration
	recorder BoardSessionRecorder
	logger   *logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*boardSession
}

func NewBoardRegistry(factory func() *Board, cfg BoardRegistryConfig) *BoardRegistry {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultBoardSessionTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &BoardRegistry{
		factory:  factory,
		ttl:      ttl,
		recorder: cfg.Recorder,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*boardSession),
	}
}

// Create opens a session, optionally selecting a league and row limit right
// away.
func (r *BoardRegistry) Create(ctx context.Context, league string, limit int) (string, *Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardRegistry.Create")
	defer span.End()

	if limit < 0 {
		return "", nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}

	board := r.factory()
	if limit > 0 {
		if err := board.SetLimit(ctx, limit); err != nil {
			return "", nil, err
		}
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &boardSession{board: board, lastSeen: r.now()}
	count := len(r.sessions)
	r.mu.Unlock()
	r.observe(count)

	if league = strings.TrimSpace(league); league != "" {
		board.SetLeague(ctx, league)
	}

	r.logger.InfoContext(ctx, "board session created", "board_id", id, "league", league)
	return id, board, nil
}

func (r *BoardRegistry) Get(id string) (*Board, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return nil, fmt.Errorf("%w: invalid board id %q", ErrInvalidInput, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: board=%s", ErrNotFound, id)
	}
	session.lastSeen = r.now()
	return session.board, nil
}

func (r *BoardRegistry) Delete(id string) error {
	id = strings.TrimSpace(id)

	r.mu.Lock()
	if _, ok := r.sessions[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: board=%s", ErrNotFound, id)
	}
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()

	r.observe(count)
	return nil
}

func (r *BoardRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (r *BoardRegistry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	removed := 0
	for id, session := range r.sessions {
		if session.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		r.observe(count)
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *BoardRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				r.logger.InfoContext(ctx, "expired board sessions removed", "count", removed)
			}
		}
	}
}

func (r *BoardRegistry) observe(count int) {
	if r.recorder != nil {
		r.recorder.ObserveActiveBoards(count)
	}
}
