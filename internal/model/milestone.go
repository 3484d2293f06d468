package model

import (
	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
)

// Milestone is an informational funding threshold. Completing it moves no
// value and changes no campaign state.
type Milestone struct {
	Address      address.Address `db:"address" json:"address"`
	Campaign     address.Address `db:"campaign" json:"campaign"`
	Index        uint8           `db:"milestone_index" json:"milestone_index"`
	Title        string          `db:"title" json:"title"`
	TargetAmount uint64          `db:"target_amount" json:"target_amount"`
	IsCompleted  bool            `db:"is_completed" json:"is_completed"`
}

func NewMilestone(campaign address.Address, index uint8, title string, target uint64) *Milestone {
	return &Milestone{
		Address:      address.Milestone(campaign, index),
		Campaign:     campaign,
		Index:        index,
		Title:        title,
		TargetAmount: target,
	}
}

func (m *Milestone) VerifyAddress() error {
	if m.Address != address.Milestone(m.Campaign, m.Index) {
		return appErrors.ErrAddressMismatch
	}
	return nil
}

// Complete flips the flag once raised reaches the target.
func (m *Milestone) Complete(raised uint64) error {
	if m.IsCompleted {
		return appErrors.ErrMilestoneAlreadyCompleted
	}
	if raised < m.TargetAmount {
		return appErrors.ErrMilestoneTargetNotReached
	}
	m.IsCompleted = true
	return nil
}
