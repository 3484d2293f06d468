package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

// SequenceRepository stores the single campaign counter row.
type SequenceRepository struct {
	DB   DBTX
	Lock bool
}

func (r *SequenceRepository) Get(ctx context.Context) (*model.SequenceCounter, error) {
	query := `SELECT count, authority FROM campaign_counters WHERE address=$1` + forUpdate(r.Lock)
	var c model.SequenceCounter
	err := r.DB.QueryRowContext(ctx, query, address.Counter()).Scan(&c.Count, &c.Authority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *SequenceRepository) Save(ctx context.Context, c *model.SequenceCounter) error {
	query := `
        INSERT INTO campaign_counters (address, count, authority)
        VALUES ($1, $2, $3)
        ON CONFLICT (address) DO UPDATE SET count=EXCLUDED.count
    `
	_, err := r.DB.ExecContext(ctx, query, address.Counter(), numeric(c.Count), c.Authority)
	return err
}
