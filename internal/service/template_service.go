// internal/service/template_service.go
package service

import (
	"strconv"
	"strings"

	"github.com/unclebandit/hoperise-backend/internal/model"
)

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// activityTemplates are the feed lines shown on a campaign page.
var activityTemplates = map[model.EventType]string{
	model.EventCampaignCreated:    "{actor} launched {title} with a goal of {amount} USDC",
	model.EventCampaignFunded:     "{actor} contributed {amount} USDC to {title}",
	model.EventFundsWithdrawn:     "{actor} withdrew {amount} USDC from {title}",
	model.EventCampaignClosed:     "{actor} closed {title}",
	model.EventRefundClaimed:      "{actor} reclaimed {amount} USDC from {title}",
	model.EventMilestoneAdded:     "{actor} added milestone #{milestone} at {amount} USDC",
	model.EventMilestoneCompleted: "Milestone #{milestone} of {title} was reached",
}

// RenderActivity turns an event into its feed line.
func RenderActivity(evt model.EscrowEvent) string {
	tpl, ok := activityTemplates[evt.Type]
	if !ok {
		tpl = "{actor}: " + string(evt.Type)
	}
	milestone := ""
	if evt.MilestoneIndex != nil {
		milestone = strconv.Itoa(int(*evt.MilestoneIndex) + 1)
	}
	return RenderTemplate(tpl, map[string]string{
		"actor":     ShortIdentity(evt.Actor),
		"title":     evt.CampaignTitle,
		"amount":    FormatUSDC(evt.Amount),
		"milestone": milestone,
	})
}

// FormatUSDC renders base units with the mint's decimals, trimming
// trailing zeros ("12.5").
func FormatUSDC(amount uint64) string {
	const unit = 1_000_000
	whole := strconv.FormatUint(amount/unit, 10)
	frac := amount % unit
	if frac == 0 {
		return whole
	}
	f := strconv.FormatUint(frac+unit, 10)[1:]
	return whole + "." + strings.TrimRight(f, "0")
}

// ShortIdentity abbreviates long identities the way wallets display them.
func ShortIdentity(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:4] + "..." + id[len(id)-4:]
}
