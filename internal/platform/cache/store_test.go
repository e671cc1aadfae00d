package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore[[]string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []string{"2023", "2022"}, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "seasons:Premier League", loader)
			if err != nil {
				errCh <- err
				return
			}
			if len(v) != 2 || v[0] != "2023" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", 7)
	if v, ok := store.Get(context.Background(), "k"); !ok || v != 7 {
		t.Fatalf("expected fresh value, got %d ok=%v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_KeepSkipsEmptyResultsAndErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute, WithKeep(func(v []string) bool { return len(v) > 0 }))
	var calls atomic.Int32
	results := [][]string{nil, {"2024"}}

	loader := func(context.Context) ([]string, error) {
		n := calls.Add(1)
		if n == 1 {
			return nil, errors.New("upstream down")
		}
		return results[min(int(n)-2, len(results)-1)], nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err == nil {
		t.Fatalf("expected loader error")
	}
	if v, err := store.GetOrLoad(context.Background(), "k", loader); err != nil || len(v) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", v, err)
	}
	if v, err := store.GetOrLoad(context.Background(), "k", loader); err != nil || len(v) != 1 {
		t.Fatalf("expected loaded season, got %v err=%v", v, err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("cached GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 3 {
		t.Fatalf("loader called %d times, want 3", got)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0)
	ctx := context.Background()
	store.Set(ctx, "seasons:a", 1)
	store.Set(ctx, "seasons:b", 2)
	store.Set(ctx, "leagues", 3)

	store.DeletePrefix(ctx, "seasons:")

	if _, ok := store.Get(ctx, "seasons:a"); ok {
		t.Fatalf("expected seasons:a to be removed")
	}
	if v, ok := store.Get(ctx, "leagues"); !ok || v != 3 {
		t.Fatalf("expected leagues to survive, got %d ok=%v", v, ok)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
