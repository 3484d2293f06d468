// internal/model/campaign.go
package model

import (
	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
)

// Campaign is the lifecycle aggregate. Timestamps are unix seconds.
type Campaign struct {
	Address          address.Address `db:"address" json:"address"`
	ID               uint64          `db:"campaign_id" json:"campaign_id"`
	Creator          string          `db:"creator" json:"creator"`
	Title            string          `db:"title" json:"title"`
	ShortDescription string          `db:"short_description" json:"short_description"`
	Category         Category        `db:"category" json:"category"`
	CoverImageURL    string          `db:"cover_image_url" json:"cover_image_url"`
	StoryURL         string          `db:"story_url" json:"story_url"`
	FundingGoal      uint64          `db:"funding_goal" json:"funding_goal"`
	Deadline         int64           `db:"deadline" json:"deadline"`
	AmountRaised     uint64          `db:"amount_raised" json:"amount_raised"`
	BackerCount      uint32          `db:"backer_count" json:"backer_count"`
	IsActive         bool            `db:"is_active" json:"is_active"`
	CreatedAt        int64           `db:"created_at" json:"created_at"`
	MilestoneCount   uint8           `db:"milestone_count" json:"milestone_count"`
}

// CampaignInput carries the creator-supplied fields of a new campaign.
type CampaignInput struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Category         Category `json:"category"`
	CoverImageURL    string   `json:"cover_image_url"`
	StoryURL         string   `json:"story_url"`
	FundingGoal      uint64   `json:"funding_goal"`
	DurationDays     uint64   `json:"duration_days"`
}

// Validate checks the input in the order the errors are documented. Lengths
// are byte counts.
func (in CampaignInput) Validate() error {
	if len(in.Title) > MaxTitleLength {
		return appErrors.ErrTitleTooLong
	}
	if len(in.ShortDescription) > MaxDescriptionLength {
		return appErrors.ErrDescriptionTooLong
	}
	if len(in.CoverImageURL) > MaxURLLength {
		return appErrors.ErrUrlTooLong
	}
	if len(in.StoryURL) > MaxURLLength {
		return appErrors.ErrUrlTooLong
	}
	if !in.Category.Valid() {
		return appErrors.ErrInvalidCategory
	}
	if in.FundingGoal == 0 {
		return appErrors.ErrInvalidFundingGoal
	}
	if in.DurationDays < MinCampaignDurationDays || in.DurationDays > MaxCampaignDurationDays {
		return appErrors.ErrInvalidDuration
	}
	return nil
}

// NewCampaign builds an active campaign with zeroed accounting.
func NewCampaign(id uint64, creator string, in CampaignInput, now int64) (*Campaign, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	deadline, err := CheckedDeadline(now, in.DurationDays)
	if err != nil {
		return nil, err
	}
	return &Campaign{
		Address:          address.Campaign(creator, id),
		ID:               id,
		Creator:          creator,
		Title:            in.Title,
		ShortDescription: in.ShortDescription,
		Category:         in.Category,
		CoverImageURL:    in.CoverImageURL,
		StoryURL:         in.StoryURL,
		FundingGoal:      in.FundingGoal,
		Deadline:         deadline,
		AmountRaised:     0,
		BackerCount:      0,
		IsActive:         true,
		CreatedAt:        now,
		MilestoneCount:   0,
	}, nil
}

// VerifyAddress re-derives the campaign's location from its seeds.
func (c *Campaign) VerifyAddress() error {
	if c.Address != address.Campaign(c.Creator, c.ID) {
		return appErrors.ErrAddressMismatch
	}
	return nil
}

func (c *Campaign) VaultAddress() address.Address {
	return address.Vault(c.Address)
}

func (c *Campaign) GoalMet() bool {
	return c.AmountRaised >= c.FundingGoal
}

func (c *Campaign) Ended(now int64) bool {
	return now >= c.Deadline
}

// RequireCreator is the has-one check on the creator field.
func (c *Campaign) RequireCreator(caller string) error {
	if caller == "" || caller != c.Creator {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// CheckFundable reports why the campaign cannot take deposits at now.
func (c *Campaign) CheckFundable(now int64) error {
	if !c.IsActive {
		return appErrors.ErrCampaignNotActive
	}
	if c.Ended(now) {
		return appErrors.ErrCampaignEnded
	}
	return nil
}

// Close deactivates the campaign. It never reactivates.
func (c *Campaign) Close() error {
	if !c.IsActive {
		return appErrors.ErrCampaignNotActive
	}
	c.IsActive = false
	return nil
}

// CheckRefundable reports whether contributors may reclaim deposits.
func (c *Campaign) CheckRefundable() error {
	if c.IsActive {
		return appErrors.ErrCampaignStillActive
	}
	if c.GoalMet() {
		return appErrors.ErrGoalWasMet
	}
	return nil
}

// ProgressPercent is amount raised relative to the goal, not capped.
func (c *Campaign) ProgressPercent() float64 {
	if c.FundingGoal == 0 {
		return 0
	}
	return float64(c.AmountRaised) / float64(c.FundingGoal) * 100
}

// DaysLeft rounds down and never goes below zero.
func (c *Campaign) DaysLeft(now int64) int64 {
	if c.Ended(now) {
		return 0
	}
	return (c.Deadline - now) / SecondsPerDay
}
