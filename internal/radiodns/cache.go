package radiodns

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RecordCache stores lookup results keyed by bearer identity. Implemented by
// the redis record repository.
type RecordCache interface {
	Get(ctx context.Context, id string) (*Record, bool, error)
	Set(ctx context.Context, id string, rec *Record) error
}

// CachedResolver serves lookups from a RecordCache and falls through to the
// live resolver on a miss. Cache failures are logged and never surface; only
// found records are cached, so an absent directory entry is re-probed on the
// next run.
type CachedResolver struct {
	log   *zap.Logger
	next  Resolver
	cache RecordCache
}

// NewCachedResolver decorates next with cache.
func NewCachedResolver(log *zap.Logger, next Resolver, cache RecordCache) *CachedResolver {
	return &CachedResolver{log: log.Named("record_cache"), next: next, cache: cache}
}

// Lookup implements Resolver.
func (r *CachedResolver) Lookup(ctx context.Context, gcc, eid, sid, scids string) (*Record, error) {
	id := strings.ToLower(fmt.Sprintf("%s.%s.%s.%s", gcc, eid, sid, scids))

	rec, hit, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get failed", zap.String("id", id), zap.Error(err))
	} else if hit {
		cacheRequestsTotal.WithLabelValues("hit").Inc()
		return rec, nil
	}
	cacheRequestsTotal.WithLabelValues("miss").Inc()

	rec, err = r.next.Lookup(ctx, gcc, eid, sid, scids)
	if err != nil || rec == nil {
		return rec, err
	}
	if err := r.cache.Set(ctx, id, rec); err != nil {
		r.log.Warn("cache set failed", zap.String("id", id), zap.Error(err))
	}
	return rec, nil
}
