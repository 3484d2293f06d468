package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

type MilestoneRepositoryInterface interface {
	GetByAddress(ctx context.Context, addr address.Address) (*model.Milestone, error)
	Save(ctx context.Context, m *model.Milestone) error
	ListByCampaign(ctx context.Context, campaign address.Address) ([]*model.Milestone, error)
}

type MilestoneRepository struct {
	DB   DBTX
	Lock bool
}

const milestoneColumns = `address, campaign, milestone_index, title, target_amount, is_completed`

func scanMilestone(row rowScanner) (*model.Milestone, error) {
	var m model.Milestone
	if err := row.Scan(&m.Address, &m.Campaign, &m.Index, &m.Title, &m.TargetAmount, &m.IsCompleted); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MilestoneRepository) GetByAddress(ctx context.Context, addr address.Address) (*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE address=$1` + forUpdate(r.Lock)
	m, err := scanMilestone(r.DB.QueryRowContext(ctx, query, addr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *MilestoneRepository) Save(ctx context.Context, m *model.Milestone) error {
	query := `
        INSERT INTO milestones (` + milestoneColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (address) DO UPDATE SET is_completed=EXCLUDED.is_completed
    `
	_, err := r.DB.ExecContext(ctx, query,
		m.Address, m.Campaign, int16(m.Index), m.Title, numeric(m.TargetAmount), m.IsCompleted,
	)
	return err
}

func (r *MilestoneRepository) ListByCampaign(ctx context.Context, campaign address.Address) ([]*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE campaign=$1 ORDER BY milestone_index`
	rows, err := r.DB.QueryContext(ctx, query, campaign)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ MilestoneRepositoryInterface = (*MilestoneRepository)(nil)
