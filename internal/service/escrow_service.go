// internal/service/escrow_service.go
package service

import (
	"context"

	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/gateway"
	"github.com/unclebandit/hoperise-backend/internal/logger"
	"github.com/unclebandit/hoperise-backend/internal/metrics"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/queue"
	"github.com/unclebandit/hoperise-backend/internal/repository"
	"github.com/unclebandit/hoperise-backend/internal/vault"
	"go.uber.org/zap"
)

// EscrowService applies the campaign lifecycle. Every operation runs in one
// store transaction; events are published only after it commits.
type EscrowService struct {
	Store   repository.Store
	Gateway gateway.TransferGateway
	Vault   *vault.Authority
	Clock   Clock
	Queue   queue.Queue
	Logger  *zap.Logger
}

func NewEscrowService(store repository.Store, authority *vault.Authority, clock Clock, q queue.Queue, log *zap.Logger) *EscrowService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &EscrowService{
		Store:   store,
		Gateway: authority.Gateway,
		Vault:   authority,
		Clock:   clock,
		Queue:   q,
		Logger:  logger.OrNop(log),
	}
}

// FundRequest describes one deposit. An empty Mint means the configured
// mint; an empty Source means the contributor's associated account.
type FundRequest struct {
	Amount uint64          `json:"amount"`
	Mint   string          `json:"mint,omitempty"`
	Source address.Address `json:"source,omitempty"`
}

// WithdrawResult reports what left the vault.
type WithdrawResult struct {
	CampaignID uint64 `json:"campaign_id"`
	Amount     uint64 `json:"amount"`
	Recipient  string `json:"recipient"`
}

// ====================== Create ======================

func (s *EscrowService) CreateCampaign(ctx context.Context, creator string, in model.CampaignInput) (*model.Campaign, error) {
	if creator == "" {
		return nil, s.fail("create_campaign", appErrors.ErrUnauthorized)
	}
	now := s.Clock.Now()

	var campaign *model.Campaign
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		counter, err := loadCounter(ctx, l)
		if err != nil {
			return err
		}
		c, err := model.NewCampaign(counter.Count, creator, in, now.Unix())
		if err != nil {
			return err
		}
		if err := counter.Advance(); err != nil {
			return err
		}
		if err := l.PutCampaign(ctx, c); err != nil {
			return err
		}
		if err := l.PutCounter(ctx, counter); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, s.fail("create_campaign", err)
	}

	s.succeed("create_campaign", zap.Uint64("campaign_id", campaign.ID), zap.String("creator", creator))
	s.publish(model.NewEscrowEvent(model.EventCampaignCreated, campaign, creator, campaign.FundingGoal, now))
	return campaign, nil
}

// ====================== Fund ======================

func (s *EscrowService) FundCampaign(ctx context.Context, contributor string, campaignID uint64, req FundRequest) (*model.Contribution, error) {
	if req.Amount == 0 {
		return nil, s.fail("fund_campaign", appErrors.ErrInvalidContributionAmount)
	}
	if contributor == "" {
		return nil, s.fail("fund_campaign", appErrors.ErrUnauthorized)
	}
	now := s.Clock.Now()

	var (
		campaign     *model.Campaign
		contribution *model.Contribution
	)
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, campaignID)
		if err != nil {
			return err
		}
		if err := c.CheckFundable(now.Unix()); err != nil {
			return err
		}

		source, err := s.sourceAccount(ctx, l, contributor, req)
		if err != nil {
			return err
		}

		rec, err := loadContribution(ctx, l, c, contributor)
		if err != nil {
			return err
		}

		// Every new value is computed before any value moves.
		raised, err := model.CheckedAddU64(c.AmountRaised, req.Amount)
		if err != nil {
			return err
		}
		total, err := model.CheckedAddU64(rec.Amount, req.Amount)
		if err != nil {
			return err
		}
		backers := c.BackerCount
		if rec.IsNewBacker() {
			if backers, err = model.CheckedAddU32(backers, 1); err != nil {
				return err
			}
			rec.ContributedAt = now.Unix()
			rec.RefundClaimed = false
		}

		if err := s.Vault.Deposit(ctx, l, c, source, contributor, req.Amount); err != nil {
			return err
		}

		c.AmountRaised = raised
		c.BackerCount = backers
		rec.Amount = total
		if err := l.PutCampaign(ctx, c); err != nil {
			return err
		}
		if err := l.PutContribution(ctx, rec); err != nil {
			return err
		}
		campaign, contribution = c, rec
		return nil
	})
	if err != nil {
		return nil, s.fail("fund_campaign", err)
	}

	metrics.RecordValueMoved("deposit", req.Amount)
	s.succeed("fund_campaign",
		zap.Uint64("campaign_id", campaignID),
		zap.String("contributor", contributor),
		zap.Uint64("amount", req.Amount),
	)
	s.publish(model.NewEscrowEvent(model.EventCampaignFunded, campaign, contributor, req.Amount, now))
	return contribution, nil
}

// sourceAccount resolves and checks the account a deposit is drawn from.
func (s *EscrowService) sourceAccount(ctx context.Context, l repository.Ledger, contributor string, req FundRequest) (address.Address, error) {
	mint := req.Mint
	if mint == "" {
		mint = s.Gateway.Mint()
	}
	if mint != s.Gateway.Mint() {
		return "", appErrors.ErrInvalidMint
	}

	source := req.Source
	if source == "" {
		source = address.TokenAccount(contributor, mint)
	}
	acct, err := l.TokenAccount(ctx, source)
	if err != nil {
		return "", err
	}
	if acct == nil || acct.Mint != mint || acct.Owner != contributor {
		return "", appErrors.ErrInvalidTokenAccount
	}
	return source, nil
}

// ====================== Withdraw ======================

// WithdrawFunds releases the whole vault balance to the creator. The goal
// check alone gates it; the deadline and active flag do not.
func (s *EscrowService) WithdrawFunds(ctx context.Context, caller string, campaignID uint64) (*WithdrawResult, error) {
	now := s.Clock.Now()

	var (
		campaign *model.Campaign
		result   *WithdrawResult
	)
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, campaignID)
		if err != nil {
			return err
		}
		if err := c.RequireCreator(caller); err != nil {
			return err
		}
		if !c.GoalMet() {
			return appErrors.ErrGoalNotMet
		}
		balance, err := s.Vault.Balance(ctx, l, c)
		if err != nil {
			return err
		}
		if balance == 0 {
			return appErrors.ErrInsufficientFunds
		}
		if err := s.Vault.Release(ctx, l, c, c.Creator, balance); err != nil {
			return err
		}
		campaign = c
		result = &WithdrawResult{CampaignID: c.ID, Amount: balance, Recipient: c.Creator}
		return nil
	})
	if err != nil {
		return nil, s.fail("withdraw_funds", err)
	}

	metrics.RecordValueMoved("withdraw", result.Amount)
	s.succeed("withdraw_funds",
		zap.Uint64("campaign_id", campaignID),
		zap.String("creator", caller),
		zap.Uint64("amount", result.Amount),
	)
	s.publish(model.NewEscrowEvent(model.EventFundsWithdrawn, campaign, caller, result.Amount, now))
	return result, nil
}

// ====================== Milestones ======================

func (s *EscrowService) AddMilestone(ctx context.Context, caller string, campaignID uint64, title string, target uint64) (*model.Milestone, error) {
	now := s.Clock.Now()

	var (
		campaign  *model.Campaign
		milestone *model.Milestone
	)
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, campaignID)
		if err != nil {
			return err
		}
		if err := c.RequireCreator(caller); err != nil {
			return err
		}
		if !c.IsActive {
			return appErrors.ErrCampaignNotActive
		}
		if c.MilestoneCount >= model.MaxMilestonesPerCampaign {
			return appErrors.ErrMaxMilestonesReached
		}
		if len(title) > model.MaxMilestoneTitleLength {
			return appErrors.ErrMilestoneTitleTooLong
		}

		m := model.NewMilestone(c.Address, c.MilestoneCount, title, target)
		count, err := model.CheckedAddU8(c.MilestoneCount, 1)
		if err != nil {
			return err
		}
		c.MilestoneCount = count
		if err := l.PutMilestone(ctx, m); err != nil {
			return err
		}
		if err := l.PutCampaign(ctx, c); err != nil {
			return err
		}
		campaign, milestone = c, m
		return nil
	})
	if err != nil {
		return nil, s.fail("add_milestone", err)
	}

	s.succeed("add_milestone", zap.Uint64("campaign_id", campaignID), zap.Uint8("index", milestone.Index))
	evt := model.NewEscrowEvent(model.EventMilestoneAdded, campaign, caller, target, now)
	evt.MilestoneIndex = &milestone.Index
	s.publish(evt)
	return milestone, nil
}

// CompleteMilestone marks a milestone reached. It moves no value and leaves
// the campaign untouched.
func (s *EscrowService) CompleteMilestone(ctx context.Context, caller string, campaignID uint64, index uint8) (*model.Milestone, error) {
	now := s.Clock.Now()

	var (
		campaign  *model.Campaign
		milestone *model.Milestone
	)
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, campaignID)
		if err != nil {
			return err
		}
		if err := c.RequireCreator(caller); err != nil {
			return err
		}
		m, err := l.Milestone(ctx, address.Milestone(c.Address, index))
		if err != nil {
			return err
		}
		if m == nil {
			return appErrors.NewMilestoneNotFound(campaignID, index)
		}
		if m.Campaign != c.Address {
			return appErrors.ErrAddressMismatch
		}
		if err := m.VerifyAddress(); err != nil {
			return err
		}
		if err := m.Complete(c.AmountRaised); err != nil {
			return err
		}
		if err := l.PutMilestone(ctx, m); err != nil {
			return err
		}
		campaign, milestone = c, m
		return nil
	})
	if err != nil {
		return nil, s.fail("complete_milestone", err)
	}

	s.succeed("complete_milestone", zap.Uint64("campaign_id", campaignID), zap.Uint8("index", index))
	evt := model.NewEscrowEvent(model.EventMilestoneCompleted, campaign, caller, milestone.TargetAmount, now)
	evt.MilestoneIndex = &milestone.Index
	s.publish(evt)
	return milestone, nil
}

// ====================== Close ======================

func (s *EscrowService) CloseCampaign(ctx context.Context, caller string, campaignID uint64) (*model.Campaign, error) {
	now := s.Clock.Now()

	var campaign *model.Campaign
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, campaignID)
		if err != nil {
			return err
		}
		if err := c.RequireCreator(caller); err != nil {
			return err
		}
		if err := c.Close(); err != nil {
			return err
		}
		if err := l.PutCampaign(ctx, c); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, s.fail("close_campaign", err)
	}

	s.succeed("close_campaign", zap.Uint64("campaign_id", campaignID), zap.String("creator", caller))
	s.publish(model.NewEscrowEvent(model.EventCampaignClosed, campaign, caller, 0, now))
	return campaign, nil
}

// ====================== Refund ======================

func (s *EscrowService) ClaimRefund(ctx context.Context, caller string, campaignID uint64) (*model.Contribution, error) {
	now := s.Clock.Now()

	var (
		campaign     *model.Campaign
		contribution *model.Contribution
	)
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, campaignID)
		if err != nil {
			return err
		}
		rec, err := l.Contribution(ctx, address.Contribution(c.Address, caller))
		if err != nil {
			return err
		}
		if rec == nil {
			return appErrors.ErrNoContribution
		}
		if err := rec.VerifyAddress(); err != nil {
			return err
		}
		if caller == "" || rec.Contributor != caller {
			return appErrors.ErrUnauthorized
		}
		if err := c.CheckRefundable(); err != nil {
			return err
		}
		if err := rec.CheckRefund(); err != nil {
			return err
		}

		if err := s.Vault.Release(ctx, l, c, caller, rec.Amount); err != nil {
			return err
		}
		rec.RefundClaimed = true
		if err := l.PutContribution(ctx, rec); err != nil {
			return err
		}
		campaign, contribution = c, rec
		return nil
	})
	if err != nil {
		return nil, s.fail("claim_refund", err)
	}

	metrics.RecordValueMoved("refund", contribution.Amount)
	s.succeed("claim_refund",
		zap.Uint64("campaign_id", campaignID),
		zap.String("contributor", caller),
		zap.Uint64("amount", contribution.Amount),
	)
	s.publish(model.NewEscrowEvent(model.EventRefundClaimed, campaign, caller, contribution.Amount, now))
	return contribution, nil
}

// ====================== Faucet ======================

// MintTestTokens credits owner's associated account. Used by the seeder to
// stand in for the devnet faucet.
func (s *EscrowService) MintTestTokens(ctx context.Context, owner string, amount uint64) (*model.TokenAccount, error) {
	if address.IsProgramDerived(owner) {
		return nil, s.fail("mint_test_tokens", appErrors.ErrUnauthorized)
	}
	var acct *model.TokenAccount
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		if err := s.Gateway.MintTo(ctx, l, owner, amount); err != nil {
			return err
		}
		a, err := l.TokenAccount(ctx, address.TokenAccount(owner, s.Gateway.Mint()))
		acct = a
		return err
	})
	if err != nil {
		return nil, s.fail("mint_test_tokens", err)
	}
	s.succeed("mint_test_tokens", zap.String("owner", owner), zap.Uint64("amount", amount))
	return acct, nil
}

// ====================== Helpers ======================

func loadCampaign(ctx context.Context, l repository.Ledger, id uint64) (*model.Campaign, error) {
	c, err := l.CampaignByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.VerifyAddress(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadContribution returns the stored record or the empty slot for a first
// deposit.
func loadContribution(ctx context.Context, l repository.Ledger, c *model.Campaign, contributor string) (*model.Contribution, error) {
	rec, err := l.Contribution(ctx, address.Contribution(c.Address, contributor))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return model.EmptyContribution(c.Address, contributor), nil
	}
	if err := rec.VerifyAddress(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *EscrowService) log() *zap.Logger {
	return logger.OrNop(s.Logger)
}

func (s *EscrowService) succeed(op string, fields ...zap.Field) {
	metrics.RecordEscrowOperation(op, "ok")
	s.log().Info("escrow operation applied", append([]zap.Field{zap.String("op", op)}, fields...)...)
}

func (s *EscrowService) fail(op string, err error) error {
	code := appErrors.CodeOf(err)
	result := string(code)
	if result == "" {
		result = "error"
	}
	metrics.RecordEscrowOperation(op, result)
	s.log().Warn("escrow operation rejected",
		zap.String("op", op),
		zap.String("code", string(code)),
		zap.Error(err),
	)
	return err
}

// publish never fails the operation; the ledger has already committed.
func (s *EscrowService) publish(evt model.EscrowEvent) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.Publish(queue.TopicEscrowEvents, evt); err != nil {
		s.log().Warn("failed to publish escrow event",
			zap.String("type", string(evt.Type)),
			zap.Uint64("campaign_id", evt.CampaignID),
			zap.Error(err),
		)
	}
}
