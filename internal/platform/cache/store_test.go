package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrRefresh_CoalescesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindRecent, Scope: "MIN"}
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
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
			res, err := store.GetOrRefresh(context.Background(), key, time.Minute, loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := res.Value.(string); got != "value" {
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

func TestStore_GetOrRefresh_FreshEntrySkipsLoader(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindStandings, Scope: "league"}
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	first, err := store.GetOrRefresh(context.Background(), key, time.Minute, loader)
	if err != nil {
		t.Fatalf("first GetOrRefresh error: %v", err)
	}
	second, err := store.GetOrRefresh(context.Background(), key, time.Minute, loader)
	if err != nil {
		t.Fatalf("second GetOrRefresh error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
	if first.WasStale || second.WasStale {
		t.Fatalf("fresh reads reported stale: first=%v second=%v", first.WasStale, second.WasStale)
	}
	if !second.FetchedAt.Equal(first.FetchedAt) {
		t.Fatalf("cached read changed FetchedAt: %v vs %v", second.FetchedAt, first.FetchedAt)
	}
}

func TestStore_GetOrRefresh_DistinctKeysLoadIndependently(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32

	block := make(chan struct{})
	slowLoader := func(context.Context) (any, error) {
		calls.Add(1)
		<-block
		return "slow", nil
	}
	fastLoader := func(context.Context) (any, error) {
		calls.Add(1)
		return "fast", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.GetOrRefresh(context.Background(), Key{Kind: KindRecent, Scope: "MIN"}, time.Minute, slowLoader)
	}()

	// The slow flight on one key must not block a miss on another key.
	res, err := store.GetOrRefresh(context.Background(), Key{Kind: KindUpcoming, Scope: "MIN"}, time.Minute, fastLoader)
	if err != nil {
		t.Fatalf("fast GetOrRefresh error: %v", err)
	}
	if got, _ := res.Value.(string); got != "fast" {
		t.Fatalf("got %q, want fast", got)
	}

	close(block)
	<-done

	if got := calls.Load(); got != 2 {
		t.Fatalf("loader calls = %d, want 2", got)
	}
}

func TestStore_GetOrRefresh_ServesStaleOnRefreshFailure(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindRecent, Scope: "MIN"}

	if _, err := store.GetOrRefresh(context.Background(), key, time.Nanosecond, func(context.Context) (any, error) {
		return "old", nil
	}); err != nil {
		t.Fatalf("seed GetOrRefresh error: %v", err)
	}
	time.Sleep(time.Millisecond)

	res, err := store.GetOrRefresh(context.Background(), key, time.Nanosecond, func(context.Context) (any, error) {
		return nil, errors.New("upstream down")
	})
	if err != nil {
		t.Fatalf("stale GetOrRefresh error: %v", err)
	}
	if !res.WasStale {
		t.Fatal("expected WasStale=true on fallback")
	}
	if got, _ := res.Value.(string); got != "old" {
		t.Fatalf("got %q, want old", got)
	}
}

func TestStore_GetOrRefresh_PropagatesColdStartFailure(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindUpcoming, Scope: "MIN"}
	wantErr := errors.New("boom")

	if _, err := store.GetOrRefresh(context.Background(), key, time.Minute, func(context.Context) (any, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}

	// A failed cold start leaves no entry behind.
	if _, _, _, ok := store.Peek(key); ok {
		t.Fatal("entry present after cold-start failure")
	}
}

func TestStore_GetOrRefresh_RecoversAfterStalePeriod(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindStandings, Scope: "league"}

	if _, err := store.GetOrRefresh(context.Background(), key, time.Nanosecond, func(context.Context) (any, error) {
		return "v1", nil
	}); err != nil {
		t.Fatalf("seed error: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := store.GetOrRefresh(context.Background(), key, time.Nanosecond, func(context.Context) (any, error) {
		return nil, errors.New("down")
	}); err != nil {
		t.Fatalf("stale read error: %v", err)
	}
	time.Sleep(time.Millisecond)

	res, err := store.GetOrRefresh(context.Background(), key, time.Minute, func(context.Context) (any, error) {
		return "v2", nil
	})
	if err != nil {
		t.Fatalf("recovery error: %v", err)
	}
	if res.WasStale {
		t.Fatal("recovered read still marked stale")
	}
	if got, _ := res.Value.(string); got != "v2" {
		t.Fatalf("got %q, want v2", got)
	}
}

func TestStore_Expire_ForcesRefreshDespiteLongTTL(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindRegistry, Scope: "league"}
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "value", nil
	}

	if _, err := store.GetOrRefresh(context.Background(), key, 24*time.Hour, loader); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := store.GetOrRefresh(context.Background(), key, 24*time.Hour, loader); err != nil {
		t.Fatalf("fresh read: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}

	store.Expire(key)

	res, err := store.GetOrRefresh(context.Background(), key, 24*time.Hour, loader)
	if err != nil {
		t.Fatalf("read after expire: %v", err)
	}
	if res.WasStale {
		t.Fatal("refreshed read reported stale")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestStore_Expire_KeepsEntryAsStaleFallback(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindRegistry, Scope: "league"}

	seed := func(context.Context) (any, error) { return "last-good", nil }
	if _, err := store.GetOrRefresh(context.Background(), key, 24*time.Hour, seed); err != nil {
		t.Fatalf("seed load: %v", err)
	}

	store.Expire(key)

	fail := func(context.Context) (any, error) { return nil, errors.New("upstream down") }
	res, err := store.GetOrRefresh(context.Background(), key, 24*time.Hour, fail)
	if err != nil {
		t.Fatalf("expired read with failing loader: %v", err)
	}
	if !res.WasStale {
		t.Fatal("expected stale fallback after expire + failed refresh")
	}
	if got, _ := res.Value.(string); got != "last-good" {
		t.Fatalf("stale value = %q, want last-good", got)
	}
}

func TestStore_Peek(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindRegistry, Scope: "league"}

	if _, _, _, ok := store.Peek(key); ok {
		t.Fatal("Peek found entry in empty store")
	}

	if _, err := store.GetOrRefresh(context.Background(), key, time.Minute, func(context.Context) (any, error) {
		return 7, nil
	}); err != nil {
		t.Fatalf("GetOrRefresh error: %v", err)
	}

	value, fetchedAt, fresh, ok := store.Peek(key)
	if !ok || !fresh {
		t.Fatalf("Peek ok=%v fresh=%v, want both true", ok, fresh)
	}
	if value.(int) != 7 {
		t.Fatalf("Peek value = %v, want 7", value)
	}
	if fetchedAt.IsZero() {
		t.Fatal("Peek returned zero FetchedAt")
	}
}

func TestLoad_TypedValues(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindRecent, Scope: "MIN"}

	games, res, err := Load(context.Background(), store, key, time.Minute, func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(games) != 2 || res.WasStale {
		t.Fatalf("got %v stale=%v", games, res.WasStale)
	}

	// Same key read back with a mismatched type fails loudly.
	if _, _, err := Load(context.Background(), store, key, time.Minute, func(context.Context) (int, error) {
		return 0, nil
	}); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	store := NewStore()
	key := Key{Kind: KindTV, Scope: "2026-01-17"}

	if _, err := store.GetOrRefresh(context.Background(), key, time.Minute, func(context.Context) (any, error) {
		return "payload", nil
	}); err != nil {
		t.Fatalf("GetOrRefresh error: %v", err)
	}

	store.Reset()

	if _, _, _, ok := store.Peek(key); ok {
		t.Fatal("entry survived Reset")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
