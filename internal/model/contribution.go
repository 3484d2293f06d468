package model

import (
	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
)

// Contribution is one contributor's cumulative deposit into one campaign.
type Contribution struct {
	Address       address.Address `db:"address" json:"address"`
	Campaign      address.Address `db:"campaign" json:"campaign"`
	Contributor   string          `db:"contributor" json:"contributor"`
	Amount        uint64          `db:"amount" json:"amount"`
	ContributedAt int64           `db:"contributed_at" json:"contributed_at"`
	RefundClaimed bool            `db:"refund_claimed" json:"refund_claimed"`
}

// EmptyContribution is the zero record at the (campaign, contributor) slot,
// the state before any deposit lands.
func EmptyContribution(campaign address.Address, contributor string) *Contribution {
	return &Contribution{
		Address:     address.Contribution(campaign, contributor),
		Campaign:    campaign,
		Contributor: contributor,
	}
}

func (c *Contribution) VerifyAddress() error {
	if c.Address != address.Contribution(c.Campaign, c.Contributor) {
		return appErrors.ErrAddressMismatch
	}
	return nil
}

// IsNewBacker is true until the first deposit is recorded.
func (c *Contribution) IsNewBacker() bool {
	return c.Amount == 0
}

// CheckRefund reports why this record cannot be refunded.
func (c *Contribution) CheckRefund() error {
	if c.RefundClaimed {
		return appErrors.ErrRefundAlreadyClaimed
	}
	if c.Amount == 0 {
		return appErrors.ErrNoContribution
	}
	return nil
}
