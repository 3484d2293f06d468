package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

type TokenAccountRepositoryInterface interface {
	GetByAddress(ctx context.Context, addr address.Address) (*model.TokenAccount, error)
	Save(ctx context.Context, a *model.TokenAccount) error
}

type TokenAccountRepository struct {
	DB   DBTX
	Lock bool
}

func (r *TokenAccountRepository) GetByAddress(ctx context.Context, addr address.Address) (*model.TokenAccount, error) {
	query := `SELECT address, mint, owner, amount FROM token_accounts WHERE address=$1` + forUpdate(r.Lock)
	var a model.TokenAccount
	err := r.DB.QueryRowContext(ctx, query, addr).Scan(&a.Address, &a.Mint, &a.Owner, &a.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *TokenAccountRepository) Save(ctx context.Context, a *model.TokenAccount) error {
	query := `
        INSERT INTO token_accounts (address, mint, owner, amount)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (address) DO UPDATE SET amount=EXCLUDED.amount
    `
	_, err := r.DB.ExecContext(ctx, query, a.Address, a.Mint, a.Owner, numeric(a.Amount))
	return err
}

var _ TokenAccountRepositoryInterface = (*TokenAccountRepository)(nil)
