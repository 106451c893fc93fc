package querycache

import (
	"context"
	"log/slog"
	"strings"
)

// Mutator binds write operations to the cache keys they invalidate.
// Invalidation happens strictly after the write succeeds; a failed write
// leaves every entry untouched. Concurrent mutations are not coalesced;
// invalidation is idempotent, so last-invalidation-wins is fine.
type Mutator struct {
	cache  *Service
	logger *slog.Logger
}

func NewMutator(cache *Service, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{cache: cache, logger: logger}
}

// Do runs op and, only on success, invalidates the listed keys. A key
// ending in "*" invalidates by prefix.
func (m *Mutator) Do(ctx context.Context, op func(context.Context) error, keys ...string) error {
	if err := op(ctx); err != nil {
		return err
	}
	for _, key := range keys {
		if prefix, ok := strings.CutSuffix(key, "*"); ok {
			m.cache.InvalidatePrefix(prefix)
		} else {
			m.cache.Invalidate(key)
		}
		m.logger.Debug("invalidated after mutation", "key", key)
	}
	return nil
}
