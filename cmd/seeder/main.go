//cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/bootstrap"
	"github.com/unclebandit/hoperise-backend/internal/config"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/gateway"
	"github.com/unclebandit/hoperise-backend/internal/logger"
	"github.com/unclebandit/hoperise-backend/internal/service"
	"github.com/unclebandit/hoperise-backend/internal/vault"
)

// The seeder applies the schema, creates the campaign counter and, for
// local testing, mints faucet balances.
func main() {
	faucet := flag.String("faucet", "", "comma separated identities to credit with test USDC")
	amount := flag.Uint64("amount", 1_000_000_000, "base units minted per faucet identity")
	flag.Parse()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.NewLogger(cfg.AppEnv)
	defer lg.Sync()

	ctx := context.Background()
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	escrow := service.NewEscrowService(store, vault.New(gateway.NewTokenProgram(cfg.USDCMint)), service.SystemClock{}, nil, lg)

	if _, err := escrow.Initialize(ctx, cfg.ProgramAuthority); err != nil {
		if !errors.Is(err, appErrors.ErrCounterAlreadyInitialized) {
			lg.Fatal("failed to initialize campaign counter", zap.Error(err))
		}
		lg.Info("campaign counter already initialized")
	}

	for _, owner := range strings.Split(*faucet, ",") {
		owner = strings.TrimSpace(owner)
		if owner == "" {
			continue
		}
		acct, err := escrow.MintTestTokens(ctx, owner, *amount)
		if err != nil {
			lg.Fatal("faucet mint failed", zap.String("owner", owner), zap.Error(err))
		}
		lg.Info("faucet credited",
			zap.String("owner", owner),
			zap.String("account", acct.Address.String()),
			zap.String("balance", service.FormatUSDC(acct.Amount)),
		)
	}

	lg.Info("seeding completed successfully")
}
