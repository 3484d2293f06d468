package service

import (
	"context"

	"github.com/unclebandit/hoperise-backend/internal/logger"
	"github.com/unclebandit/hoperise-backend/internal/metrics"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
	"github.com/unclebandit/hoperise-backend/internal/vault"
	"go.uber.org/zap"
)

// Drift describes one campaign whose stored accounting disagrees with its
// contribution records or its vault.
type Drift struct {
	CampaignID       uint64 `json:"campaign_id"`
	AmountRaised     uint64 `json:"amount_raised"`
	ContributedTotal uint64 `json:"contributed_total"`
	BackerCount      uint32 `json:"backer_count"`
	Backers          uint32 `json:"backers"`
	VaultBalance     uint64 `json:"vault_balance"`
	RefundedTotal    uint64 `json:"refunded_total"`
}

type ReconcileReport struct {
	Checked int     `json:"checked"`
	Drifts  []Drift `json:"drifts"`
}

// Reconciler audits ledger invariants from a read-only view.
type Reconciler struct {
	Store    repository.Store
	Vault    *vault.Authority
	Logger   *zap.Logger
	PageSize int
}

// Reconcile checks every campaign for:
//   - the sum of contributions equals amount_raised
//   - backer_count equals the number of contributors with a deposit
//   - the vault holds no more than amount_raised minus refunds paid
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	log := logger.OrNop(r.Logger)
	pageSize := r.PageSize
	if pageSize <= 0 {
		pageSize = maxPageSize
	}

	report := &ReconcileReport{Drifts: []Drift{}}
	err := r.Store.View(ctx, func(l repository.Ledger) error {
		for offset := 0; ; offset += pageSize {
			campaigns, total, err := l.ListCampaigns(ctx, repository.CampaignFilter{}, offset, pageSize)
			if err != nil {
				return err
			}
			for _, c := range campaigns {
				d, ok, err := r.check(ctx, l, c)
				if err != nil {
					return err
				}
				report.Checked++
				if !ok {
					report.Drifts = append(report.Drifts, d)
				}
			}
			if total-offset <= pageSize {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.SetReconcileDrift(len(report.Drifts))
	for _, d := range report.Drifts {
		log.Error("campaign accounting drift",
			zap.Uint64("campaign_id", d.CampaignID),
			zap.Uint64("amount_raised", d.AmountRaised),
			zap.Uint64("contributed_total", d.ContributedTotal),
			zap.Uint32("backer_count", d.BackerCount),
			zap.Uint32("backers", d.Backers),
			zap.Uint64("vault_balance", d.VaultBalance),
			zap.Uint64("refunded_total", d.RefundedTotal),
		)
	}
	log.Info("reconcile finished", zap.Int("checked", report.Checked), zap.Int("drifts", len(report.Drifts)))
	return report, nil
}

func (r *Reconciler) check(ctx context.Context, l repository.Ledger, c *model.Campaign) (Drift, bool, error) {
	d := Drift{CampaignID: c.ID, AmountRaised: c.AmountRaised, BackerCount: c.BackerCount}

	contributions, err := l.ListContributions(ctx, c.Address)
	if err != nil {
		return d, false, err
	}
	overflow := false
	for _, rec := range contributions {
		if d.ContributedTotal, err = model.CheckedAddU64(d.ContributedTotal, rec.Amount); err != nil {
			overflow = true
		}
		if rec.Amount > 0 {
			d.Backers++
		}
		if rec.RefundClaimed {
			if d.RefundedTotal, err = model.CheckedAddU64(d.RefundedTotal, rec.Amount); err != nil {
				overflow = true
			}
		}
	}

	if d.VaultBalance, err = r.Vault.Balance(ctx, l, c); err != nil {
		return d, false, err
	}

	ok := !overflow &&
		d.ContributedTotal == c.AmountRaised &&
		d.Backers == c.BackerCount &&
		d.RefundedTotal <= c.AmountRaised &&
		d.VaultBalance <= c.AmountRaised-d.RefundedTotal
	return d, ok, nil
}
