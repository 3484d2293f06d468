// internal/service/campaign_service.go
package service

import (
	"context"
	"math"

	"github.com/unclebandit/hoperise-backend/internal/activity"
	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
	"github.com/unclebandit/hoperise-backend/internal/vault"
)

// ActivityReader serves the campaign activity feed.
type ActivityReader interface {
	Recent(ctx context.Context, campaignID uint64, n int) ([]activity.Entry, error)
}

// CampaignService answers the read side of the escrow.
type CampaignService struct {
	Store    repository.Store
	Vault    *vault.Authority
	Clock    Clock
	Activity ActivityReader
}

type CampaignStats struct {
	VaultBalance    uint64  `json:"vault_balance"`
	ProgressPercent float64 `json:"progress_percent"`
	DaysLeft        int64   `json:"days_left"`
	Ended           bool    `json:"ended"`
	GoalMet         bool    `json:"goal_met"`
	CategoryLabel   string  `json:"category_label"`
}

type CampaignDetails struct {
	*model.Campaign
	Stats CampaignStats `json:"stats"`
}

const (
	defaultPageSize      = 20
	maxPageSize          = 100
	defaultFeaturedLimit = 3
	maxFeaturedLimit     = 20
)

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, filter repository.CampaignFilter) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page > math.MaxInt/pageSize {
		page = math.MaxInt / pageSize
	}
	offset := (page - 1) * pageSize

	var (
		ptrs  []*model.Campaign
		total int
	)
	err := s.Store.View(ctx, func(l repository.Ledger) error {
		var err error
		ptrs, total, err = l.ListCampaigns(ctx, filter, offset, pageSize)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// FeaturedCampaigns returns the newest active campaigns.
func (s *CampaignService) FeaturedCampaigns(ctx context.Context, limit int) ([]model.Campaign, error) {
	if limit < 1 {
		limit = defaultFeaturedLimit
	}
	if limit > maxFeaturedLimit {
		limit = maxFeaturedLimit
	}
	active := true
	campaigns, _, err := s.ListCampaigns(ctx, 1, limit, repository.CampaignFilter{Active: &active})
	return campaigns, err
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id uint64) (*model.Campaign, error) {
	var campaign *model.Campaign
	err := s.Store.View(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, id)
		campaign = c
		return err
	})
	return campaign, err
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, id uint64) (*CampaignDetails, error) {
	now := s.Clock.Now().Unix()

	var details *CampaignDetails
	err := s.Store.View(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, id)
		if err != nil {
			return err
		}
		balance, err := s.Vault.Balance(ctx, l, c)
		if err != nil {
			return err
		}
		details = &CampaignDetails{
			Campaign: c,
			Stats: CampaignStats{
				VaultBalance:    balance,
				ProgressPercent: c.ProgressPercent(),
				DaysLeft:        c.DaysLeft(now),
				Ended:           c.Ended(now),
				GoalMet:         c.GoalMet(),
				CategoryLabel:   c.Category.Label(),
			},
		}
		return nil
	})
	return details, err
}

func (s *CampaignService) ListMilestones(ctx context.Context, id uint64) ([]*model.Milestone, error) {
	var milestones []*model.Milestone
	err := s.Store.View(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, id)
		if err != nil {
			return err
		}
		milestones, err = l.ListMilestones(ctx, c.Address)
		return err
	})
	return milestones, err
}

// ListContributions returns the campaign's backers, newest first.
func (s *CampaignService) ListContributions(ctx context.Context, id uint64) ([]*model.Contribution, error) {
	var contributions []*model.Contribution
	err := s.Store.View(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, id)
		if err != nil {
			return err
		}
		contributions, err = l.ListContributions(ctx, c.Address)
		return err
	})
	return contributions, err
}

// GetContribution returns the caller's record, or the empty slot when they
// never funded the campaign.
func (s *CampaignService) GetContribution(ctx context.Context, id uint64, contributor string) (*model.Contribution, error) {
	var rec *model.Contribution
	err := s.Store.View(ctx, func(l repository.Ledger) error {
		c, err := loadCampaign(ctx, l, id)
		if err != nil {
			return err
		}
		rec, err = l.Contribution(ctx, address.Contribution(c.Address, contributor))
		if err != nil {
			return err
		}
		if rec == nil {
			rec = model.EmptyContribution(c.Address, contributor)
		}
		return nil
	})
	return rec, err
}

// RecentActivity reads the campaign's feed after confirming it exists.
func (s *CampaignService) RecentActivity(ctx context.Context, id uint64, n int) ([]activity.Entry, error) {
	if _, err := s.GetCampaignDetails(ctx, id); err != nil {
		return nil, err
	}
	if s.Activity == nil {
		return []activity.Entry{}, nil
	}
	return s.Activity.Recent(ctx, id, n)
}
