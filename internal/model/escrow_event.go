package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCampaignCreated    EventType = "campaign.created"
	EventCampaignFunded     EventType = "campaign.funded"
	EventFundsWithdrawn     EventType = "campaign.withdrawn"
	EventCampaignClosed     EventType = "campaign.closed"
	EventRefundClaimed      EventType = "campaign.refunded"
	EventMilestoneAdded     EventType = "milestone.added"
	EventMilestoneCompleted EventType = "milestone.completed"
)

// EscrowEvent is published after an operation commits.
type EscrowEvent struct {
	ID             uuid.UUID `json:"id"`
	Type           EventType `json:"type"`
	CampaignID     uint64    `json:"campaign_id"`
	CampaignTitle  string    `json:"campaign_title"`
	Actor          string    `json:"actor"`
	Amount         uint64    `json:"amount,omitempty"`
	MilestoneIndex *uint8    `json:"milestone_index,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewEscrowEvent(t EventType, c *Campaign, actor string, amount uint64, at time.Time) EscrowEvent {
	return EscrowEvent{
		ID:            uuid.New(),
		Type:          t,
		CampaignID:    c.ID,
		CampaignTitle: c.Title,
		Actor:         actor,
		Amount:        amount,
		OccurredAt:    at.UTC(),
	}
}
