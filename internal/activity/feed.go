// Package activity keeps a short, newest-first feed of escrow events per
// campaign in Redis.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/unclebandit/hoperise-backend/internal/logger"
	"go.uber.org/zap"
)

// Entry is one rendered line of campaign activity.
type Entry struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Actor      string    `json:"actor"`
	Amount     uint64    `json:"amount,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Feed struct {
	rdb    *redis.Client
	prefix string
	limit  int
	seen   time.Duration
	logger *zap.Logger
}

// NewFeed keeps at most limit entries per campaign. Event ids are
// remembered for a day so redelivered events are recorded once.
func NewFeed(rdb *redis.Client, prefix string, limit int, log *zap.Logger) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		seen:   24 * time.Hour,
		logger: logger.OrNop(log),
	}
}

func (f *Feed) listKey(campaignID uint64) string {
	return fmt.Sprintf("%s:campaign:%d", f.prefix, campaignID)
}

func (f *Feed) seenKey(eventID string) string {
	return fmt.Sprintf("%s:seen:%s", f.prefix, eventID)
}

// Record prepends e to the campaign's feed and trims it. It reports false
// when the event was already recorded.
func (f *Feed) Record(ctx context.Context, campaignID uint64, e Entry) (bool, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return false, err
	}

	marked := false
	if e.EventID != "" {
		first, err := f.rdb.SetNX(ctx, f.seenKey(e.EventID), 1, f.seen).Result()
		if err != nil {
			// Redis trouble on the dedup key should not lose the entry.
			f.logger.Warn("activity dedup check failed, recording anyway",
				zap.String("event_id", e.EventID),
				zap.Error(err),
			)
		} else if !first {
			f.logger.Info("skipped duplicated event", zap.String("event_id", e.EventID))
			return false, nil
		}
		marked = err == nil
	}

	key := f.listKey(campaignID)
	pipe := f.rdb.TxPipeline()
	pipe.LPush(ctx, key, body)
	pipe.LTrim(ctx, key, 0, int64(f.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		if marked {
			// A redelivery must be able to record the entry.
			if derr := f.rdb.Del(context.WithoutCancel(ctx), f.seenKey(e.EventID)).Err(); derr != nil {
				f.logger.Warn("failed to release activity dedup key",
					zap.String("event_id", e.EventID),
					zap.Error(derr),
				)
			}
		}
		return false, fmt.Errorf("record activity: %w", err)
	}
	return true, nil
}

// Recent returns up to n entries, newest first.
func (f *Feed) Recent(ctx context.Context, campaignID uint64, n int) ([]Entry, error) {
	if n <= 0 || n > f.limit {
		n = f.limit
	}
	raw, err := f.rdb.LRange(ctx, f.listKey(campaignID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			f.logger.Warn("skipping unreadable activity entry", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
