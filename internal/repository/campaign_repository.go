package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type CampaignRepositoryInterface interface {
	GetByAddress(ctx context.Context, addr address.Address) (*model.Campaign, error)
	GetByID(ctx context.Context, id uint64) (*model.Campaign, error)
	Save(ctx context.Context, c *model.Campaign) error
	ListCampaigns(ctx context.Context, filter CampaignFilter, offset, limit int) ([]*model.Campaign, int, error)
}

// CampaignRepository reads and writes the campaigns table. When Lock is set
// single-row reads take a row lock for the rest of the transaction.
type CampaignRepository struct {
	DB   DBTX
	Lock bool
}

const campaignColumns = `address, campaign_id, creator, title, short_description, category,
        cover_image_url, story_url, funding_goal, deadline, amount_raised, backer_count,
        is_active, created_at, milestone_count`

// numeric renders a u64 for a NUMERIC(20,0) column. database/sql rejects
// uint64 values with the high bit set.
func numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func forUpdate(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.Address, &c.ID, &c.Creator, &c.Title, &c.ShortDescription, &c.Category,
		&c.CoverImageURL, &c.StoryURL, &c.FundingGoal, &c.Deadline, &c.AmountRaised, &c.BackerCount,
		&c.IsActive, &c.CreatedAt, &c.MilestoneCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetByAddress(ctx context.Context, addr address.Address) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE address=$1` + forUpdate(r.Lock)
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, addr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(campaignIDFromAddress(addr))
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE campaign_id=$1` + forUpdate(r.Lock)
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, numeric(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// Save inserts the campaign or overwrites its mutable fields. Seeds and
// creation data never change after the first insert.
func (r *CampaignRepository) Save(ctx context.Context, c *model.Campaign) error {
	query := `
        INSERT INTO campaigns (` + campaignColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (address) DO UPDATE
        SET amount_raised=EXCLUDED.amount_raised,
            backer_count=EXCLUDED.backer_count,
            is_active=EXCLUDED.is_active,
            milestone_count=EXCLUDED.milestone_count
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.Address, numeric(c.ID), c.Creator, c.Title, c.ShortDescription, c.Category,
		c.CoverImageURL, c.StoryURL, numeric(c.FundingGoal), c.Deadline, numeric(c.AmountRaised), int64(c.BackerCount),
		c.IsActive, c.CreatedAt, int16(c.MilestoneCount),
	)
	return err
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, filter CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	where, args := campaignWhere(filter)
	argPos := len(args) + 1

	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1` + where
	query += fmt.Sprintf(" ORDER BY campaign_id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	listArgs := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	var total int
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// campaignWhere builds the shared filter clause for the list and count
// queries.
func campaignWhere(filter CampaignFilter) (string, []any) {
	var b strings.Builder
	args := []any{}
	argPos := 1

	if filter.Category != "" {
		fmt.Fprintf(&b, " AND category=$%d", argPos)
		args = append(args, filter.Category)
		argPos++
	}
	if filter.Creator != "" {
		fmt.Fprintf(&b, " AND creator=$%d", argPos)
		args = append(args, filter.Creator)
		argPos++
	}
	if filter.Active != nil {
		fmt.Fprintf(&b, " AND is_active=$%d", argPos)
		args = append(args, *filter.Active)
		argPos++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		fmt.Fprintf(&b, " AND (title ILIKE $%d OR short_description ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+escapeLike(search)+"%")
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
