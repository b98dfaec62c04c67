package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openwidgets/nhl-ticker/internal/platform/resilience"
)

// Kind identifies an independently cached data class. Each kind expires on
// its own schedule.
type Kind string

const (
	KindRecent    Kind = "recent"
	KindUpcoming  Kind = "upcoming"
	KindStandings Kind = "standings"
	KindTV        Kind = "tv"
	KindRegistry  Kind = "registry"
)

// Key composes a dataset kind with the scope it applies to (team code, date,
// or league). Keys are unique per scope; there is no merging across scopes.
type Key struct {
	Kind  Kind
	Scope string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.Scope
}

type entry struct {
	value     any
	fetchedAt time.Time
	ttl       time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.fetchedAt) < e.ttl
}

// Result is the outcome of a cache read: the payload plus freshness metadata.
// WasStale is true when the payload comes from an expired entry served as a
// fallback after a failed refresh.
type Result struct {
	Value     any
	FetchedAt time.Time
	WasStale  bool
}

// Store is a per-key TTL cache with request coalescing and stale fallback.
//
// Entries are replaced wholesale on successful refresh and retained on failed
// refresh so the previous value can keep serving. They are never deleted
// outside Reset, so a key only ever moves Empty -> Fresh <-> Stale.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	flight  resilience.SingleFlight
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// GetOrRefresh returns the entry for key, refreshing it through loader when
// absent or expired.
//
// A fresh entry is returned without invoking loader. On a miss, concurrent
// callers for the same key coalesce into a single loader invocation and all
// adopt its result; misses on different keys proceed independently. When
// loader fails and a previous entry exists, that entry is served with
// WasStale set instead of propagating the failure; the failure is only
// returned when no prior successful load exists for key.
func (s *Store) GetOrRefresh(ctx context.Context, key Key, ttl time.Duration, loader func(context.Context) (any, error)) (Result, error) {
	if loader == nil {
		return Result{}, fmt.Errorf("cache: loader is required")
	}

	k := key.String()
	if e, ok := s.lookup(k); ok && e.fresh(time.Now()) {
		return Result{Value: e.value, FetchedAt: e.fetchedAt}, nil
	}

	out, err, _ := s.flight.Do(k, func() (any, error) {
		// A coalesced caller may arrive after the flight it queued behind
		// already refreshed the entry.
		if e, ok := s.lookup(k); ok && e.fresh(time.Now()) {
			return Result{Value: e.value, FetchedAt: e.fetchedAt}, nil
		}

		value, loadErr := loader(ctx)
		if loadErr != nil {
			if e, ok := s.lookup(k); ok {
				return Result{Value: e.value, FetchedAt: e.fetchedAt, WasStale: true}, nil
			}
			return nil, loadErr
		}

		e := entry{value: value, fetchedAt: time.Now(), ttl: ttl}
		s.put(k, e)
		return Result{Value: e.value, FetchedAt: e.fetchedAt}, nil
	})
	if err != nil {
		return Result{}, err
	}

	return out.(Result), nil
}

// Peek returns the current entry for key without triggering a refresh.
func (s *Store) Peek(key Key) (value any, fetchedAt time.Time, fresh, ok bool) {
	e, found := s.lookup(key.String())
	if !found {
		return nil, time.Time{}, false, false
	}
	return e.value, e.fetchedAt, e.fresh(time.Now()), true
}

// Expire marks the entry for key stale so the next read goes through the
// loader again. The payload stays in place as the stale fallback; a key never
// moves back to Empty.
func (s *Store) Expire(key Key) {
	k := key.String()
	s.mu.Lock()
	if e, ok := s.entries[k]; ok {
		e.ttl = 0
		s.entries[k] = e
	}
	s.mu.Unlock()
}

// Reset drops every entry. Process-wide; intended for tests and operational
// cache flushes only.
func (s *Store) Reset() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

func (s *Store) lookup(k string) (entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	return e, ok
}

func (s *Store) put(k string, e entry) {
	s.mu.Lock()
	s.entries[k] = e
	s.mu.Unlock()
}

// Load is the typed convenience over Store.GetOrRefresh.
func Load[T any](ctx context.Context, s *Store, key Key, ttl time.Duration, loader func(context.Context) (T, error)) (T, Result, error) {
	res, err := s.GetOrRefresh(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		var zero T
		return zero, Result{}, err
	}

	value, ok := res.Value.(T)
	if !ok {
		var zero T
		return zero, Result{}, fmt.Errorf("cache: entry for %s holds %T", key, res.Value)
	}
	return value, res, nil
}
