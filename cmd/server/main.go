// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/bootstrap"
	"github.com/unclebandit/hoperise-backend/internal/config"
	"github.com/unclebandit/hoperise-backend/internal/controller"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/gateway"
	"github.com/unclebandit/hoperise-backend/internal/handler"
	"github.com/unclebandit/hoperise-backend/internal/httpserver"
	"github.com/unclebandit/hoperise-backend/internal/logger"
	"github.com/unclebandit/hoperise-backend/internal/queue"
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

	q, closeQueue, err := bootstrap.OpenQueue(cfg, lg)
	if err != nil {
		lg.Fatal("failed to open queue", zap.Error(err))
	}
	defer closeQueue()

	feed, closeFeed, err := bootstrap.OpenFeed(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to open activity feed", zap.Error(err))
	}
	defer closeFeed()

	authority := vault.New(gateway.NewTokenProgram(cfg.USDCMint))
	escrow := service.NewEscrowService(store, authority, service.SystemClock{}, q, lg)
	campaigns := &service.CampaignService{
		Store: store,
		Vault: authority,
		Clock: service.SystemClock{},
	}

	if feed != nil {
		campaigns.Activity = feed
		// Without a broker the server records its own activity.
		if _, inProcess := q.(*queue.InMemoryQueue); inProcess {
			jobs := make(chan queue.EventJob, 256)
			if err := queue.StartActivitySubscriber(ctx, q, jobs, lg); err != nil {
				lg.Fatal("failed to subscribe activity worker", zap.Error(err))
			}
			go service.NewWorker(feed, jobs, lg).Start(ctx)
		}
	}

	if cfg.StoreDriver == config.StoreMemory {
		if _, err := escrow.Initialize(ctx, cfg.ProgramAuthority); err != nil && !errors.Is(err, appErrors.ErrCounterAlreadyInitialized) {
			lg.Fatal("failed to initialize campaign counter", zap.Error(err))
		}
	}

	campaignController := &controller.CampaignController{
		Escrow:          escrow,
		CampaignService: campaigns,
		Logger:          lg,
	}
	campaignHandler := handler.NewCampaignHandler(campaigns, lg)

	r := httpserver.NewRouter(campaignController, campaignHandler, httpserver.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins(),
		EnableFaucet:   cfg.AppEnv == "development",
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server running", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}
