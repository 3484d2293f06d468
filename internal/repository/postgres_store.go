package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

// PostgresStore runs every Update in a serializable transaction and locks
// each row it reads, so concurrent operations on one campaign queue up
// behind each other.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// maxSerializationRetries bounds how often Update replays fn after postgres
// aborts it with a serialization failure.
const maxSerializationRetries = 3

func (s *PostgresStore) Update(ctx context.Context, fn func(Ledger) error) error {
	var err error
	for attempt := 0; attempt <= maxSerializationRetries; attempt++ {
		err = s.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, true, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (s *PostgresStore) View(ctx context.Context, fn func(Ledger) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, false, fn)
}

func (s *PostgresStore) run(ctx context.Context, opts *sql.TxOptions, lock bool, fn func(Ledger) error) error {
	tx, err := s.DB.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newPostgresLedger(tx, lock)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

type postgresLedger struct {
	counters      *SequenceRepository
	campaigns     *CampaignRepository
	contributions *ContributionRepository
	milestones    *MilestoneRepository
	accounts      *TokenAccountRepository
}

func newPostgresLedger(db DBTX, lock bool) *postgresLedger {
	return &postgresLedger{
		counters:      &SequenceRepository{DB: db, Lock: lock},
		campaigns:     &CampaignRepository{DB: db, Lock: lock},
		contributions: &ContributionRepository{DB: db, Lock: lock},
		milestones:    &MilestoneRepository{DB: db, Lock: lock},
		accounts:      &TokenAccountRepository{DB: db, Lock: lock},
	}
}

func (l *postgresLedger) Counter(ctx context.Context) (*model.SequenceCounter, error) {
	return l.counters.Get(ctx)
}

func (l *postgresLedger) PutCounter(ctx context.Context, c *model.SequenceCounter) error {
	return l.counters.Save(ctx, c)
}

func (l *postgresLedger) Campaign(ctx context.Context, addr address.Address) (*model.Campaign, error) {
	return l.campaigns.GetByAddress(ctx, addr)
}

func (l *postgresLedger) CampaignByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	return l.campaigns.GetByID(ctx, id)
}

func (l *postgresLedger) PutCampaign(ctx context.Context, c *model.Campaign) error {
	return l.campaigns.Save(ctx, c)
}

func (l *postgresLedger) ListCampaigns(ctx context.Context, filter CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	return l.campaigns.ListCampaigns(ctx, filter, offset, limit)
}

func (l *postgresLedger) Contribution(ctx context.Context, addr address.Address) (*model.Contribution, error) {
	return l.contributions.GetByAddress(ctx, addr)
}

func (l *postgresLedger) PutContribution(ctx context.Context, c *model.Contribution) error {
	return l.contributions.Save(ctx, c)
}

func (l *postgresLedger) ListContributions(ctx context.Context, campaign address.Address) ([]*model.Contribution, error) {
	return l.contributions.ListByCampaign(ctx, campaign)
}

func (l *postgresLedger) Milestone(ctx context.Context, addr address.Address) (*model.Milestone, error) {
	return l.milestones.GetByAddress(ctx, addr)
}

func (l *postgresLedger) PutMilestone(ctx context.Context, m *model.Milestone) error {
	return l.milestones.Save(ctx, m)
}

func (l *postgresLedger) ListMilestones(ctx context.Context, campaign address.Address) ([]*model.Milestone, error) {
	return l.milestones.ListByCampaign(ctx, campaign)
}

func (l *postgresLedger) TokenAccount(ctx context.Context, addr address.Address) (*model.TokenAccount, error) {
	return l.accounts.GetByAddress(ctx, addr)
}

func (l *postgresLedger) PutTokenAccount(ctx context.Context, a *model.TokenAccount) error {
	return l.accounts.Save(ctx, a)
}

var _ Store = (*PostgresStore)(nil)
var _ Ledger = (*postgresLedger)(nil)
