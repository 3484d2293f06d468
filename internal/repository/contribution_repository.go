package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

type ContributionRepositoryInterface interface {
	GetByAddress(ctx context.Context, addr address.Address) (*model.Contribution, error)
	Save(ctx context.Context, c *model.Contribution) error
	ListByCampaign(ctx context.Context, campaign address.Address) ([]*model.Contribution, error)
}

// ContributionRepository holds one row per (campaign, contributor) pair.
type ContributionRepository struct {
	DB   DBTX
	Lock bool
}

const contributionColumns = `address, campaign, contributor, amount, contributed_at, refund_claimed`

func scanContribution(row rowScanner) (*model.Contribution, error) {
	var c model.Contribution
	if err := row.Scan(&c.Address, &c.Campaign, &c.Contributor, &c.Amount, &c.ContributedAt, &c.RefundClaimed); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByAddress returns nil, nil when no deposit was ever recorded.
func (r *ContributionRepository) GetByAddress(ctx context.Context, addr address.Address) (*model.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions WHERE address=$1` + forUpdate(r.Lock)
	c, err := scanContribution(r.DB.QueryRowContext(ctx, query, addr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// Save is idempotent on the address.
func (r *ContributionRepository) Save(ctx context.Context, c *model.Contribution) error {
	query := `
        INSERT INTO contributions (` + contributionColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (address) DO UPDATE
        SET amount=EXCLUDED.amount,
            contributed_at=EXCLUDED.contributed_at,
            refund_claimed=EXCLUDED.refund_claimed
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.Address, c.Campaign, c.Contributor, numeric(c.Amount), c.ContributedAt, c.RefundClaimed,
	)
	return err
}

func (r *ContributionRepository) ListByCampaign(ctx context.Context, campaign address.Address) ([]*model.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions
              WHERE campaign=$1
              ORDER BY contributed_at DESC, contributor ASC`
	rows, err := r.DB.QueryContext(ctx, query, campaign)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Contribution{}
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ ContributionRepositoryInterface = (*ContributionRepository)(nil)
