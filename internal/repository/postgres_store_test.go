package repository_test

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/db"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
)

// openTestStore connects to TEST_DATABASE_URL and truncates every table.
func openTestStore(t *testing.T) *repository.PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	conn, err := db.Open(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `TRUNCATE campaign_counters, campaigns, contributions, milestones, token_accounts`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return repository.NewPostgresStore(conn)
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := &model.Campaign{
		Address:        address.Campaign("alice", 0),
		ID:             0,
		Creator:        "alice",
		Title:          "Clean Water",
		Category:       model.CategoryCommunity,
		FundingGoal:    math.MaxUint64,
		Deadline:       1_700_000_000,
		AmountRaised:   math.MaxUint64 - 1,
		BackerCount:    math.MaxUint32,
		IsActive:       true,
		CreatedAt:      1_690_000_000,
		MilestoneCount: 10,
	}
	vault := &model.TokenAccount{Address: address.Vault(c.Address), Mint: model.DevnetUSDCMint, Owner: address.Vault(c.Address).String(), Amount: 7}

	err := s.Update(ctx, func(l repository.Ledger) error {
		if err := l.PutCounter(ctx, &model.SequenceCounter{Count: 1, Authority: "op"}); err != nil {
			return err
		}
		if err := l.PutCampaign(ctx, c); err != nil {
			return err
		}
		rec := model.EmptyContribution(c.Address, "bob")
		rec.Amount = 5
		if err := l.PutContribution(ctx, rec); err != nil {
			return err
		}
		if err := l.PutMilestone(ctx, model.NewMilestone(c.Address, 0, "First", 3)); err != nil {
			return err
		}
		return l.PutTokenAccount(ctx, vault)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = s.View(ctx, func(l repository.Ledger) error {
		got, err := l.CampaignByID(ctx, 0)
		if err != nil {
			return err
		}
		if *got != *c {
			t.Fatalf("campaign did not round trip:\n got %+v\nwant %+v", got, c)
		}
		acct, err := l.TokenAccount(ctx, vault.Address)
		if err != nil || acct == nil || *acct != *vault {
			t.Fatalf("vault did not round trip: %+v, %v", acct, err)
		}
		recs, err := l.ListContributions(ctx, c.Address)
		if err != nil || len(recs) != 1 || recs[0].Amount != 5 {
			t.Fatalf("contributions: %v, %v", recs, err)
		}
		missing, err := l.Contribution(ctx, address.Contribution(c.Address, "carol"))
		if err != nil || missing != nil {
			t.Fatalf("expected empty slot, got %+v, %v", missing, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestPostgresStore_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(l repository.Ledger) error {
		if err := l.PutCampaign(ctx, &model.Campaign{
			Address: address.Campaign("alice", 0), Creator: "alice", Title: "x",
			Category: model.CategoryArts, FundingGoal: 1, IsActive: true,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	err = s.View(ctx, func(l repository.Ledger) error {
		_, err := l.CampaignByID(ctx, 0)
		return err
	})
	var nf *appErrors.ErrCampaignNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected rolled back campaign to be missing, got %v", err)
	}
}
