// Package querycache keeps one shared, keyed cache of async resource
// state fetched from the upstream HR API. Each key holds at most one
// in-flight fetch; concurrent subscribers attach to the same result.
package querycache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Status describes the lifecycle of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// Fetcher loads the resource behind a key. It must return either the
// full payload or an error, never partial data.
type Fetcher func(ctx context.Context) (any, error)

// Options controls fetching behaviour for a subscription.
type Options struct {
	// Enabled gates fetching entirely. A disabled key never reaches the
	// network until it transitions to enabled.
	Enabled bool
	// RefetchInterval re-triggers the fetch on a timer while the key has
	// subscribers, independent of invalidation. Zero disables polling.
	RefetchInterval time.Duration
}

// Entry is a read-only snapshot of one cache entry.
type Entry struct {
	Key           string
	Data          any
	Status        Status
	Err           error
	LastFetchedAt time.Time
	Enabled       bool
}

// Data extracts typed data from a snapshot, reporting false when the
// entry has not loaded yet or holds a different type.
func Data[T any](e Entry) (T, bool) {
	v, ok := e.Data.(T)
	return v, ok
}

// ErrUnknownKey is returned by Wait for keys that were never subscribed.
var ErrUnknownKey = errors.New("querycache: unknown key")

type entry struct {
	key             string
	fetcher         Fetcher
	enabled         bool
	refetchInterval time.Duration
	subscribers     int

	data          any
	status        Status
	err           error
	lastFetchedAt time.Time

	stale         bool
	refetchQueued bool
	inflight      chan struct{}
	timer         *time.Timer
}

// ServiceOptions configures a cache service instance.
type ServiceOptions struct {
	Logger *slog.Logger
	// DropDataOnError clears cached data when a refetch fails. The
	// default keeps serving the last good payload alongside the error.
	DropDataOnError bool
}

// Service is an injected cache instance. It is process-wide shared state
// in production wiring, but tests may construct as many isolated
// instances as they need.
type Service struct {
	mu      sync.Mutex
	entries map[string]*entry

	logger          *slog.Logger
	dropDataOnError bool
}

func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		entries:         make(map[string]*entry),
		logger:          logger,
		dropDataOnError: opts.DropDataOnError,
	}
}

// Subscribe registers interest in a key and returns the current snapshot.
// A fetch starts when the key is enabled and has no fresh data, or when
// enabled just transitioned from false to true. While a fetch is already
// in flight no second request is ever issued for the same key.
func (s *Service) Subscribe(key string, fetcher Fetcher, opts Options) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{key: key, status: StatusIdle}
		s.entries[key] = e
	}
	e.fetcher = fetcher
	e.subscribers++
	wasEnabled := e.enabled
	e.enabled = opts.Enabled
	e.refetchInterval = opts.RefetchInterval

	if e.enabled && e.inflight == nil && (e.status == StatusIdle || e.stale || !wasEnabled) {
		s.startFetchLocked(e)
	}
	s.scheduleLocked(e)
	return e.snapshot()
}

// Unsubscribe drops one subscriber. At zero subscribers polling stops;
// the entry and its data remain, and an in-flight fetch still completes
// and updates the entry so later subscribers see fresh data.
func (s *Service) Unsubscribe(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	if e.subscribers > 0 {
		e.subscribers--
	}
	s.scheduleLocked(e)
}

// SetEnabled flips the fetch gate. A false to true transition triggers an
// immediate fetch, matching the surface-open lazy-load policy.
func (s *Service) SetEnabled(key string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	wasEnabled := e.enabled
	e.enabled = enabled
	if enabled && !wasEnabled && e.inflight == nil {
		s.startFetchLocked(e)
	}
	s.scheduleLocked(e)
}

// Invalidate marks a key stale. Subscribed and enabled keys refetch
// immediately; others refetch on their next subscription. Invalidating
// during an in-flight fetch queues one follow-up fetch so the result of
// the older request can never mask the write that invalidated it.
func (s *Service) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	s.invalidateLocked(e)
}

// InvalidatePrefix invalidates every key sharing the prefix. Paginated
// resources use one key per page under a common prefix.
func (s *Service) InvalidatePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.invalidateLocked(e)
		}
	}
}

func (s *Service) invalidateLocked(e *entry) {
	e.stale = true
	if e.inflight != nil {
		e.refetchQueued = true
		return
	}
	if e.subscribers > 0 && e.enabled {
		s.startFetchLocked(e)
	}
}

// Remove drops an entry and its data entirely, stopping the polling
// timer. An in-flight fetch still completes against the detached entry
// and is then discarded with it. Session eviction uses this so
// per-session keys do not accumulate over the process lifetime.
func (s *Service) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.subscribers = 0
	e.enabled = false
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	delete(s.entries, key)
}

// Snapshot returns the current state of a key without subscribing.
func (s *Service) Snapshot(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Wait blocks until the key's in-flight fetch (if any) settles, then
// returns the latest snapshot.
func (s *Service) Wait(ctx context.Context, key string) (Entry, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return Entry{}, ErrUnknownKey
	}
	ch := e.inflight
	s.mu.Unlock()

	if ch != nil {
		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case <-ch:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return e.snapshot(), nil
}

// startFetchLocked launches the single fetch goroutine for an entry.
// Callers must hold s.mu and have checked e.inflight == nil.
func (s *Service) startFetchLocked(e *entry) {
	ch := make(chan struct{})
	e.inflight = ch
	e.status = StatusLoading
	e.err = nil
	fetcher := e.fetcher
	go s.runFetch(e, ch, fetcher)
}

// runFetch uses a background context: unsubscribing or disabling a key
// stops future polling but never cancels a request already on the wire.
func (s *Service) runFetch(e *entry, ch chan struct{}, fetcher Fetcher) {
	data, err := fetcher(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		e.status = StatusError
		e.err = err
		// An errored entry is not fresh: leave it stale so the next
		// subscription retries instead of serving the error forever.
		e.stale = true
		if s.dropDataOnError {
			e.data = nil
		}
		s.logger.Warn("cache fetch failed", "key", e.key, "error", err)
	} else {
		e.data = data
		e.status = StatusSuccess
		e.err = nil
		e.lastFetchedAt = time.Now().UTC()
		e.stale = false
	}
	close(ch)
	if e.inflight == ch {
		e.inflight = nil
	}

	if e.refetchQueued {
		e.refetchQueued = false
		e.stale = true
		if e.subscribers > 0 && e.enabled {
			s.startFetchLocked(e)
			return
		}
	}
	s.scheduleLocked(e)
}

// scheduleLocked arms or disarms the polling timer for an entry.
func (s *Service) scheduleLocked(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.subscribers > 0 && e.enabled && e.refetchInterval > 0 && e.inflight == nil {
		key := e.key
		e.timer = time.AfterFunc(e.refetchInterval, func() { s.pollTick(key) })
	}
}

func (s *Service) pollTick(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.subscribers == 0 || !e.enabled {
		return
	}
	if e.inflight == nil {
		s.startFetchLocked(e)
		return
	}
	s.scheduleLocked(e)
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:           e.key,
		Data:          e.data,
		Status:        e.status,
		Err:           e.err,
		LastFetchedAt: e.lastFetchedAt,
		Enabled:       e.enabled,
	}
}
