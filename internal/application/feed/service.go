// Package feed merges the role-gated leave notification stream and the
// general notification stream into one ordered, deduplicated, per-session
// view with a derived unread count.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hrm-gateway/internal/application/routes"
	"github.com/hrm-gateway/internal/domain"
	"github.com/hrm-gateway/internal/infrastructure/hrapi"
	"github.com/hrm-gateway/internal/pkg/validate"
	"github.com/hrm-gateway/internal/querycache"
)

// DefaultVisible is how many records a feed shows unless the caller asks
// for more. The unread count always reflects the full merged list.
const DefaultVisible = 5

// NotificationClient is the slice of the upstream client the feed needs
// for the general stream.
type NotificationClient interface {
	List(ctx context.Context) ([]domain.GeneralNotification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
	Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.GeneralNotification, error)
	Delete(ctx context.Context, id int64) error
}

// LeaveClient is the slice of the upstream client the feed needs for the
// admin leave stream.
type LeaveClient interface {
	ListAdminNotifications(ctx context.Context) ([]domain.LeaveNotification, error)
}

// Viewer identifies the authenticated caller of a feed operation.
type Viewer struct {
	SessionID string
	UserID    string
	Role      string
	Token     string
}

// View is the merged notification surface returned to clients.
type View struct {
	Items       []domain.NotificationRecord `json:"data"`
	UnreadCount int                         `json:"unread_count"`
	Total       int                         `json:"total"`
	Degraded    bool                        `json:"degraded,omitempty"`
}

// ServiceDeps wires the aggregator's collaborators.
type ServiceDeps struct {
	Cache         *querycache.Service
	Mutator       *querycache.Mutator
	Notifications NotificationClient
	Leaves        LeaveClient
	Logger        *slog.Logger

	RefetchInterval     time.Duration
	SessionTTL          time.Duration
	SurfaceReadFailures bool
}

// Service owns per-session surface state and the merge algorithm.
type Service struct {
	cache         *querycache.Service
	mutator       *querycache.Mutator
	notifications NotificationClient
	leaves        LeaveClient
	logger        *slog.Logger

	refetchInterval     time.Duration
	sessionTTL          time.Duration
	surfaceReadFailures bool

	mu       sync.Mutex
	sessions map[string]*session
	stop     chan struct{}
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	refetch := deps.RefetchInterval
	if refetch <= 0 {
		refetch = 30 * time.Second
	}
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Service{
		cache:               deps.Cache,
		mutator:             deps.Mutator,
		notifications:       deps.Notifications,
		leaves:              deps.Leaves,
		logger:              logger,
		refetchInterval:     refetch,
		sessionTTL:          ttl,
		surfaceReadFailures: deps.SurfaceReadFailures,
		sessions:            make(map[string]*session),
		stop:                make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Stop terminates the background session janitor.
func (s *Service) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

func generalKey(sessionID string) string { return "notifications:" + sessionID }
func leaveKey(sessionID string) string   { return "leave-notifications:" + sessionID }

// GeneralPrefix invalidates every session's general stream; used when a
// notification is created or deleted, since those writes affect feeds
// beyond the author's own.
const GeneralPrefix = "notifications:"

// Open marks the viewer's notification surface open. This is the only
// place fetching starts: the general stream subscribes with polling, the
// leave stream subscribes enabled only for admin and HR viewers and is
// never fetched for anyone else.
func (s *Service) Open(v Viewer) {
	sess := s.sessionFor(v)
	if !sess.setOpen(true) {
		return
	}
	s.cache.Subscribe(generalKey(sess.id), s.generalFetcher(sess), querycache.Options{
		Enabled:         true,
		RefetchInterval: s.refetchInterval,
	})
	s.cache.Subscribe(leaveKey(sess.id), s.leaveFetcher(sess), querycache.Options{
		Enabled: domain.CanViewLeaveStream(v.Role),
	})
}

// Close disables both subscriptions. In-flight fetches still land in the
// cache so a reopened surface starts warm.
func (s *Service) Close(v Viewer) {
	sess := s.sessionFor(v)
	if !sess.setOpen(false) {
		return
	}
	s.cache.SetEnabled(generalKey(sess.id), false)
	s.cache.SetEnabled(leaveKey(sess.id), false)
	s.cache.Unsubscribe(generalKey(sess.id))
	s.cache.Unsubscribe(leaveKey(sess.id))
}

// Feed returns the merged view. With the surface open it waits for any
// in-flight fetch to settle; closed surfaces serve whatever the cache
// already holds. A failed or absent stream contributes an empty slice:
// the feed degrades, it never errors on the read path.
func (s *Service) Feed(ctx context.Context, v Viewer, limit int) (View, error) {
	sess := s.sessionFor(v)

	var gEntry, lEntry querycache.Entry
	if sess.isOpen() {
		var err error
		if gEntry, err = s.cache.Wait(ctx, generalKey(sess.id)); err != nil && !errors.Is(err, querycache.ErrUnknownKey) {
			return View{}, err
		}
		if lEntry, err = s.cache.Wait(ctx, leaveKey(sess.id)); err != nil && !errors.Is(err, querycache.ErrUnknownKey) {
			return View{}, err
		}
	} else {
		gEntry, _ = s.cache.Snapshot(generalKey(sess.id))
		lEntry, _ = s.cache.Snapshot(leaveKey(sess.id))
	}
	return s.merge(sess, v.Role, gEntry, lEntry, limit), nil
}

// merge is the aggregation step: map both streams through their total
// converters, apply local read overrides, resolve routes, concatenate
// leave-then-general and stable-sort descending by creation time so that
// equal timestamps keep their per-stream relative order.
func (s *Service) merge(sess *session, role string, gEntry, lEntry querycache.Entry, limit int) View {
	leaves, _ := querycache.Data[[]domain.LeaveNotification](lEntry)
	generals, _ := querycache.Data[[]domain.GeneralNotification](gEntry)

	records := make([]domain.NotificationRecord, 0, len(leaves)+len(generals))
	for _, ln := range leaves {
		rec := ln.Record()
		rec.Route = routes.Resolve(rec.SourceType, role)
		rec.IsRead = rec.IsRead || sess.isRead(rec.Stream, rec.ID)
		records = append(records, rec)
	}
	for _, gn := range generals {
		rec := gn.Record()
		if rec.Route == "" {
			rec.Route = routes.Resolve(rec.SourceType, role)
		}
		rec.IsRead = rec.IsRead || sess.isRead(rec.Stream, rec.ID)
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	unread := 0
	for _, rec := range records {
		if !rec.IsRead {
			unread++
		}
	}
	total := len(records)

	if limit <= 0 {
		limit = DefaultVisible
	}
	if len(records) > limit {
		records = records[:limit]
	}

	degraded := false
	if s.surfaceReadFailures {
		degraded = gEntry.Status == querycache.StatusError ||
			(lEntry.Enabled && lEntry.Status == querycache.StatusError)
	}

	return View{Items: records, UnreadCount: unread, Total: total, Degraded: degraded}
}

// Click marks a record read and resolves its navigation target. Leave
// records have no remote mark-read endpoint, so the local override is
// their only read marker this session. General records go through the
// mutation-invalidation contract; a failed mutation is logged, leaves the
// cache untouched and never blocks navigation.
func (s *Service) Click(ctx context.Context, v Viewer, stream domain.Stream, id int64) (string, error) {
	sess := s.sessionFor(v)

	rec, ok := s.findRecord(sess, v.Role, stream, id)
	if !ok {
		return "", fmt.Errorf("notification %s/%d: %w", stream, id, domain.ErrNotFound)
	}

	sess.markRead(stream, id)

	if stream == domain.StreamGeneral {
		token := sess.currentToken()
		err := s.mutator.Do(ctx, func(ctx context.Context) error {
			return s.notifications.MarkRead(hrapi.WithToken(ctx, token), id)
		}, generalKey(sess.id))
		if err != nil {
			s.logger.Warn("mark-read failed, navigation proceeds",
				"session", sess.id, "id", id, "error", err)
		}
	}
	return rec.Route, nil
}

// MarkRead runs the mark-read mutation directly, without the click
// semantics: here a write-path failure surfaces to the caller.
func (s *Service) MarkRead(ctx context.Context, v Viewer, id int64) error {
	sess := s.sessionFor(v)
	token := sess.currentToken()
	return s.mutator.Do(ctx, func(ctx context.Context) error {
		return s.notifications.MarkRead(hrapi.WithToken(ctx, token), id)
	}, generalKey(sess.id))
}

// MarkAllRead flags every general notification read upstream and
// invalidates the viewer's stream on success. Write-path failures
// surface to the caller.
func (s *Service) MarkAllRead(ctx context.Context, v Viewer) error {
	sess := s.sessionFor(v)
	token := sess.currentToken()
	return s.mutator.Do(ctx, func(ctx context.Context) error {
		return s.notifications.MarkAllRead(hrapi.WithToken(ctx, token))
	}, generalKey(sess.id))
}

// CreateNotification validates and posts a new notification, then
// invalidates every session's general stream.
func (s *Service) CreateNotification(ctx context.Context, v Viewer, req domain.CreateNotificationRequest) (*domain.GeneralNotification, error) {
	sess := s.sessionFor(v)
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Detail: err.Error()}
	}
	token := sess.currentToken()
	var created *domain.GeneralNotification
	err := s.mutator.Do(ctx, func(ctx context.Context) error {
		n, err := s.notifications.Create(hrapi.WithToken(ctx, token), req)
		if err != nil {
			return err
		}
		created = n
		return nil
	}, GeneralPrefix+"*")
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteNotification removes a notification upstream and invalidates
// every session's general stream.
func (s *Service) DeleteNotification(ctx context.Context, v Viewer, id int64) error {
	sess := s.sessionFor(v)
	token := sess.currentToken()
	return s.mutator.Do(ctx, func(ctx context.Context) error {
		return s.notifications.Delete(hrapi.WithToken(ctx, token), id)
	}, GeneralPrefix+"*")
}

func (s *Service) sessionFor(v Viewer) *session {
	key := v.SessionID
	if key == "" {
		key = v.UserID
	}
	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = newSession(key, v.UserID)
		s.sessions[key] = sess
	}
	s.mu.Unlock()
	sess.touch(v.Role, v.Token)
	return sess
}

// findRecord locates a record in the cached stream data so Click can
// resolve its route without a network round trip.
func (s *Service) findRecord(sess *session, role string, stream domain.Stream, id int64) (domain.NotificationRecord, bool) {
	switch stream {
	case domain.StreamLeave:
		entry, _ := s.cache.Snapshot(leaveKey(sess.id))
		leaves, _ := querycache.Data[[]domain.LeaveNotification](entry)
		for _, ln := range leaves {
			if ln.ID == id {
				rec := ln.Record()
				rec.Route = routes.Resolve(rec.SourceType, role)
				return rec, true
			}
		}
	case domain.StreamGeneral:
		entry, _ := s.cache.Snapshot(generalKey(sess.id))
		generals, _ := querycache.Data[[]domain.GeneralNotification](entry)
		for _, gn := range generals {
			if gn.ID == id {
				rec := gn.Record()
				if rec.Route == "" {
					rec.Route = routes.Resolve(rec.SourceType, role)
				}
				return rec, true
			}
		}
	}
	return domain.NotificationRecord{}, false
}

func (s *Service) generalFetcher(sess *session) querycache.Fetcher {
	return func(ctx context.Context) (any, error) {
		list, err := s.notifications.List(hrapi.WithToken(ctx, sess.currentToken()))
		if err != nil {
			return nil, err
		}
		return list, nil
	}
}

func (s *Service) leaveFetcher(sess *session) querycache.Fetcher {
	return func(ctx context.Context) (any, error) {
		list, err := s.leaves.ListAdminNotifications(hrapi.WithToken(ctx, sess.currentToken()))
		if err != nil {
			return nil, err
		}
		return list, nil
	}
}

// cleanup runs the session janitor until Stop.
func (s *Service) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
		s.evictIdleSessions()
	}
}

// evictIdleSessions drops sessions idle past the TTL and removes their
// cache entries, not just the subscriptions: a gateway outlives its
// sessions, so evicted payloads must not stay resident.
func (s *Service) evictIdleSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sess := range s.sessions {
		if time.Since(sess.idleSince()) <= s.sessionTTL {
			continue
		}
		sess.setOpen(false)
		s.cache.Remove(generalKey(sess.id))
		s.cache.Remove(leaveKey(sess.id))
		delete(s.sessions, key)
	}
}
