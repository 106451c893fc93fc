package feed

import (
	"sync"
	"time"

	"github.com/hrm-gateway/internal/domain"
)

// overrideKey scopes local read markers to one stream. Numeric ids may
// collide across streams, so a bare id set would leak read state between
// them.
type overrideKey struct {
	stream domain.Stream
	id     int64
}

// session holds the per-user-session surface state: whether the
// notification surface is open and which records were marked read
// locally. The override set is owned exclusively by the session and
// lives only as long as the session does.
type session struct {
	id     string
	userID string

	mu        sync.Mutex
	role      string
	token     string
	open      bool
	overrides map[overrideKey]struct{}
	lastSeen  time.Time
}

func newSession(id, userID string) *session {
	return &session{
		id:        id,
		userID:    userID,
		overrides: make(map[overrideKey]struct{}),
		lastSeen:  time.Now(),
	}
}

// touch refreshes activity tracking and the cached viewer identity.
func (s *session) touch(role, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
	if token != "" {
		s.token = token
	}
	s.lastSeen = time.Now()
}

func (s *session) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *session) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *session) setOpen(open bool) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = s.open != open
	s.open = open
	return changed
}

// markRead records a local read override. Re-marking the same record is
// a no-op, keeping the set with exactly one entry per record.
func (s *session) markRead(stream domain.Stream, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[overrideKey{stream: stream, id: id}] = struct{}{}
}

func (s *session) isRead(stream domain.Stream, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.overrides[overrideKey{stream: stream, id: id}]
	return ok
}

func (s *session) overrideCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overrides)
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
