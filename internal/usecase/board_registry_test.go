package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
)

type activeBoardsRecorder struct {
	mu   sync.Mutex
	last int
}

func (r *activeBoardsRecorder) ObserveActiveBoards(n int) {
	r.mu.Lock()
	r.last = n
	r.mu.Unlock()
}

func (r *activeBoardsRecorder) value() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func newTestRegistry(source match.Source, recorder BoardSessionRecorder) *BoardRegistry {
	return NewBoardRegistry(func() *Board {
		return newTestBoard(source, BoardConfig{})
	}, BoardRegistryConfig{
		TTL:      time.Minute,
		Recorder: recorder,
		Logger:   logging.NewNop(),
	})
}

func TestBoardRegistry_CreateGetDelete(t *testing.T) {
	t.Parallel()

	source := newBoardStubSource()
	source.seasons["Premier League"] = []match.Season{"2023"}
	recorder := &activeBoardsRecorder{}
	registry := newTestRegistry(source, recorder)

	id, board, err := registry.Create(context.Background(), "Premier League", 120)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	board.Wait()

	got, err := registry.Get(id)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if got != board {
		t.Fatalf("expected registry to return the created board")
	}
	state := got.Snapshot()
	if state.League != "Premier League" || state.Limit != 120 || state.Season != "2023" {
		t.Fatalf("unexpected board state: %+v", state)
	}
	if recorder.value() != 1 {
		t.Fatalf("expected one active board, got %d", recorder.value())
	}

	if err := registry.Delete(id); err != nil {
		t.Fatalf("delete board: %v", err)
	}
	if _, err := registry.Get(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := registry.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if recorder.value() != 0 {
		t.Fatalf("expected no active boards, got %d", recorder.value())
	}
}

func TestBoardRegistry_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(newBoardStubSource(), nil)

	if _, _, err := registry.Create(context.Background(), "", -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative limit, got %v", err)
	}
	if _, err := registry.Get("not-a-uuid"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed id, got %v", err)
	}
	if _, err := registry.Get("7d0b7a57-58f5-4f0e-9a6c-2f4f0f1d7b11"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestBoardRegistry_CreateWithoutLeagueStaysIdle(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(newBoardStubSource(), nil)

	_, board, err := registry.Create(context.Background(), "  ", 0)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	state := board.Snapshot()
	if state.Phase != BoardPhaseIdle || state.Limit != DefaultMatchLimit {
		t.Fatalf("expected idle board with default limit, got %+v", state)
	}
}

func TestBoardRegistry_SweepExpiresIdleSessions(t *testing.T) {
	t.Parallel()

	recorder := &activeBoardsRecorder{}
	registry := newTestRegistry(newBoardStubSource(), recorder)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }

	staleID, _, err := registry.Create(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("create stale board: %v", err)
	}

	now = now.Add(45 * time.Second)
	freshID, _, err := registry.Create(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("create fresh board: %v", err)
	}

	now = now.Add(30 * time.Second)
	if removed := registry.Sweep(); removed != 1 {
		t.Fatalf("expected one expired session, got %d", removed)
	}
	if _, err := registry.Get(staleID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale session to be gone, got %v", err)
	}
	if _, err := registry.Get(freshID); err != nil {
		t.Fatalf("expected fresh session to survive: %v", err)
	}
	if registry.Len() != 1 || recorder.value() != 1 {
		t.Fatalf("expected one remaining session, len=%d recorded=%d", registry.Len(), recorder.value())
	}
}
