package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edirooss/dabdns-bridge/internal/radiodns"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func recordKey(id string) string { return "radiodns:" + id + ":record" }

// RecordRepository caches resolved directory records as JSON blobs under
// radiodns:<gcc>.<eid>.<sid>.<scids>:record with a TTL. It implements
// radiodns.RecordCache; only external lookup results live here, never parsed
// configuration state.
type RecordRepository struct {
	client *Client
	log    *zap.Logger
	ttl    time.Duration
}

// NewRecordRepository builds the repository. ttl <= 0 disables expiry.
func NewRecordRepository(log *zap.Logger, client *Client, ttl time.Duration) *RecordRepository {
	return &RecordRepository{
		client: client,
		log:    log.Named("record_repo"),
		ttl:    ttl,
	}
}

// Get fetches the cached record for id. A missing key or an unreadable
// payload is a miss, not an error; corrupt payloads are logged and skipped.
func (r *RecordRepository) Get(ctx context.Context, id string) (*radiodns.Record, bool, error) {
	raw, err := r.client.Get(ctx, recordKey(id)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get record: %w", err)
	}

	var rec radiodns.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		r.log.Warn("bad record json", zap.String("key", recordKey(id)), zap.Error(err))
		return nil, false, nil
	}
	return &rec, true, nil
}

// Set stores the record for id.
func (r *RecordRepository) Set(ctx context.Context, id string, rec *radiodns.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := r.client.Set(ctx, recordKey(id), blob, r.ttl).Err(); err != nil {
		return fmt.Errorf("set record: %w", err)
	}
	return nil
}
