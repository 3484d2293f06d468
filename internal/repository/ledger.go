package repository

import (
	"context"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

// Ledger is the keyed record view inside one transaction. Getters for
// optional records return (nil, nil) when the slot is empty; campaign
// lookups return appErrors.ErrCampaignNotFound instead.
type Ledger interface {
	// Sequence counter
	Counter(ctx context.Context) (*model.SequenceCounter, error)
	PutCounter(ctx context.Context, c *model.SequenceCounter) error

	// Campaigns
	Campaign(ctx context.Context, addr address.Address) (*model.Campaign, error)
	CampaignByID(ctx context.Context, id uint64) (*model.Campaign, error)
	PutCampaign(ctx context.Context, c *model.Campaign) error
	ListCampaigns(ctx context.Context, filter CampaignFilter, offset, limit int) ([]*model.Campaign, int, error)

	// Contributions
	Contribution(ctx context.Context, addr address.Address) (*model.Contribution, error)
	PutContribution(ctx context.Context, c *model.Contribution) error
	ListContributions(ctx context.Context, campaign address.Address) ([]*model.Contribution, error)

	// Milestones
	Milestone(ctx context.Context, addr address.Address) (*model.Milestone, error)
	PutMilestone(ctx context.Context, m *model.Milestone) error
	ListMilestones(ctx context.Context, campaign address.Address) ([]*model.Milestone, error)

	// Token accounts
	TokenAccount(ctx context.Context, addr address.Address) (*model.TokenAccount, error)
	PutTokenAccount(ctx context.Context, a *model.TokenAccount) error
}

// Store applies transactions against the host ledger. Update runs fn
// serialized with every other Update and commits its writes only when fn
// returns nil.
type Store interface {
	Update(ctx context.Context, fn func(Ledger) error) error
	View(ctx context.Context, fn func(Ledger) error) error
}

// CampaignFilter narrows ListCampaigns. Zero values match everything.
type CampaignFilter struct {
	Category model.Category
	Creator  string
	Active   *bool
	Search   string
}
