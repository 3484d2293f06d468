// Package bootstrap opens the backing services shared by the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/activity"
	"github.com/unclebandit/hoperise-backend/internal/config"
	"github.com/unclebandit/hoperise-backend/internal/db"
	"github.com/unclebandit/hoperise-backend/internal/queue"
	"github.com/unclebandit/hoperise-backend/internal/repository"
)

// OpenStore returns the configured ledger store. The returned close func is
// never nil.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver != config.StorePostgres {
		log.Info("using in-memory ledger store")
		return repository.NewMemoryStore(), func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return repository.NewPostgresStore(conn), func() { closeDB(conn, log) }, nil
}

func closeDB(conn *sql.DB, log *zap.Logger) {
	if err := conn.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}

// OpenQueue dials RabbitMQ when configured and falls back to the in-process
// queue otherwise.
func OpenQueue(cfg config.Config, log *zap.Logger) (queue.Queue, func(), error) {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, using in-memory queue")
		return queue.NewInMemoryQueue(log), func() {}, nil
	}
	q, err := queue.DialAMQP(cfg.RabbitMQURL, cfg.EscrowEventExchange, cfg.EscrowEventQueue, log)
	if err != nil {
		return nil, nil, err
	}
	return q, func() { _ = q.Close() }, nil
}

// OpenFeed connects the Redis activity feed. It returns nil when REDIS_URL
// is not configured.
func OpenFeed(ctx context.Context, cfg config.Config, log *zap.Logger) (*activity.Feed, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, activity feed disabled")
		return nil, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	feed := activity.NewFeed(rdb, cfg.ActivityFeedPrefix, cfg.ActivityFeedLimit, log)
	return feed, func() { _ = rdb.Close() }, nil
}
