// cmd/worker/main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/bootstrap"
	"github.com/unclebandit/hoperise-backend/internal/config"
	"github.com/unclebandit/hoperise-backend/internal/gateway"
	"github.com/unclebandit/hoperise-backend/internal/logger"
	"github.com/unclebandit/hoperise-backend/internal/queue"
	"github.com/unclebandit/hoperise-backend/internal/repository"
	"github.com/unclebandit/hoperise-backend/internal/service"
	"github.com/unclebandit/hoperise-backend/internal/vault"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.NewLogger(cfg.AppEnv)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	if scheduler := newReconcileScheduler(cfg, store, lg); scheduler != nil {
		if err := scheduler.Start(); err != nil {
			lg.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	feed, closeFeed, err := bootstrap.OpenFeed(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to open activity feed", zap.Error(err))
	}
	defer closeFeed()

	if feed == nil || cfg.RabbitMQURL == "" {
		lg.Warn("activity consumer disabled; set RABBITMQ_URL and REDIS_URL to enable it")
	} else {
		q, closeQueue, err := bootstrap.OpenQueue(cfg, lg)
		if err != nil {
			lg.Fatal("failed to open queue", zap.Error(err))
		}
		defer closeQueue()

		jobs := make(chan queue.EventJob, 256)
		if err := queue.StartActivitySubscriber(ctx, q, jobs, lg); err != nil {
			lg.Fatal("failed to subscribe", zap.Error(err))
		}
		go service.NewWorker(feed, jobs, lg).Start(ctx)
		lg.Info("worker running, waiting for escrow events", zap.String("queue", cfg.EscrowEventQueue))
	}

	<-ctx.Done()
	lg.Info("worker shutting down")
}

// newReconcileScheduler returns nil unless the worker shares the server's
// ledger. A memory store here is private to this process and always empty.
func newReconcileScheduler(cfg config.Config, store repository.Store, lg *zap.Logger) *service.Scheduler {
	if cfg.StoreDriver != config.StorePostgres {
		lg.Warn("reconcile job disabled; it needs STORE_DRIVER=postgres to see the server's ledger",
			zap.String("store_driver", cfg.StoreDriver),
		)
		return nil
	}
	gw, _ := gateway.NewTokenProgram(cfg.USDCMint)
	reconciler := &service.Reconciler{
		Store:  store,
		Vault:  vault.New(gw, nil),
		Logger: lg,
	}
	return service.NewScheduler(reconciler, cfg.ReconcileSchedule, lg)
}
