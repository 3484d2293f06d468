package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/gateway"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
	"github.com/unclebandit/hoperise-backend/internal/service"
	"github.com/unclebandit/hoperise-backend/internal/vault"
)

const (
	creator  = "creator-wallet"
	alice    = "alice-wallet"
	bob      = "bob-wallet"
	operator = "hoperise-program"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingQueue captures published payloads.
type recordingQueue struct {
	mu     sync.Mutex
	events []model.EscrowEvent
	fail   bool
}

func (q *recordingQueue) Publish(topic string, payload any) error {
	if q.fail {
		return errors.New("broker down")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, payload.(model.EscrowEvent))
	return nil
}

func (q *recordingQueue) Subscribe(topic string, handler func(payload any) error) error {
	return nil
}

func (q *recordingQueue) types() []model.EventType {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.EventType, len(q.events))
	for i, e := range q.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	store     *repository.MemoryStore
	clock     *fakeClock
	queue     *recordingQueue
	escrow    *service.EscrowService
	campaigns *service.CampaignService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	q := &recordingQueue{}
	authority := vault.New(gateway.NewTokenProgram(model.DevnetUSDCMint))

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  store,
		clock:  clock,
		queue:  q,
		escrow: service.NewEscrowService(store, authority, clock, q, nil),
		campaigns: &service.CampaignService{
			Store: store,
			Vault: authority,
			Clock: clock,
		},
	}
	if _, err := f.escrow.Initialize(f.ctx, operator); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return f
}

func validInput(goal uint64) model.CampaignInput {
	return model.CampaignInput{
		Title:            "Clean Water for Kisumu",
		ShortDescription: "Boreholes for three villages",
		Category:         model.CategoryCommunity,
		CoverImageURL:    "https://example.org/cover.png",
		StoryURL:         "https://example.org/story",
		FundingGoal:      goal,
		DurationDays:     30,
	}
}

func (f *fixture) create(goal uint64) *model.Campaign {
	f.t.Helper()
	c, err := f.escrow.CreateCampaign(f.ctx, creator, validInput(goal))
	if err != nil {
		f.t.Fatalf("create campaign: %v", err)
	}
	return c
}

func (f *fixture) mint(owner string, amount uint64) {
	f.t.Helper()
	if _, err := f.escrow.MintTestTokens(f.ctx, owner, amount); err != nil {
		f.t.Fatalf("mint to %s: %v", owner, err)
	}
}

func (f *fixture) fund(who string, id, amount uint64) *model.Contribution {
	f.t.Helper()
	rec, err := f.escrow.FundCampaign(f.ctx, who, id, service.FundRequest{Amount: amount})
	if err != nil {
		f.t.Fatalf("fund %d by %s: %v", amount, who, err)
	}
	return rec
}

func (f *fixture) campaign(id uint64) *service.CampaignDetails {
	f.t.Helper()
	d, err := f.campaigns.GetCampaignDetailsWithStats(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get campaign %d: %v", id, err)
	}
	return d
}

func (f *fixture) balance(owner string) uint64 {
	f.t.Helper()
	var amount uint64
	err := f.store.View(f.ctx, func(l repository.Ledger) error {
		acct, err := l.TokenAccount(f.ctx, address.TokenAccount(owner, model.DevnetUSDCMint))
		if acct != nil {
			amount = acct.Amount
		}
		return err
	})
	if err != nil {
		f.t.Fatalf("balance of %s: %v", owner, err)
	}
	return amount
}

func expectCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want.Code)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %s, got %v (code %q)", want.Code, err, appErrors.CodeOf(err))
	}
}
