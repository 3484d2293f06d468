// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/auth"
	"github.com/unclebandit/hoperise-backend/internal/httpx"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
	"github.com/unclebandit/hoperise-backend/internal/service"
)

// CampaignController serves the state-changing campaign endpoints. The
// caller is always the authenticated token subject.
type CampaignController struct {
	Escrow          *service.EscrowService
	CampaignService *service.CampaignService
	Logger          *zap.Logger
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title            string `json:"title"`
		ShortDescription string `json:"short_description"`
		Category         string `json:"category"`
		CoverImageURL    string `json:"cover_image_url"`
		StoryURL         string `json:"story_url"`
		FundingGoal      uint64 `json:"funding_goal"`
		DurationDays     uint64 `json:"duration_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.BadRequest(w, "invalid body")
		return
	}

	// Unknown categories fall through to validation, which reports them.
	category, _ := model.ParseCategory(body.Category)
	in := model.CampaignInput{
		Title:            body.Title,
		ShortDescription: body.ShortDescription,
		Category:         category,
		CoverImageURL:    body.CoverImageURL,
		StoryURL:         body.StoryURL,
		FundingGoal:      body.FundingGoal,
		DurationDays:     body.DurationDays,
	}

	campaign, err := c.Escrow.CreateCampaign(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	q := r.URL.Query()
	page := httpx.QueryInt(r, "page", 1)
	pageSize := httpx.QueryInt(r, "page_size", 20)

	filter := repository.CampaignFilter{
		Creator: strings.TrimSpace(q.Get("creator")),
		Search:  q.Get("q"),
	}
	if raw := q.Get("category"); raw != "" {
		category, ok := model.ParseCategory(raw)
		if !ok {
			httpx.BadRequest(w, "unknown category")
			return
		}
		filter.Category = category
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.BadRequest(w, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	// Fetch campaigns and pagination info from service
	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, filter)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // already contains total_count, total_pages, page, page_size
	})
}

func (c *CampaignController) FundCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	var body struct {
		Amount uint64 `json:"amount"`
		Mint   string `json:"mint"`
		Source string `json:"source_token_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.BadRequest(w, "invalid body")
		return
	}

	contribution, err := c.Escrow.FundCampaign(r.Context(), auth.FromContext(r.Context()), id, service.FundRequest{
		Amount: body.Amount,
		Mint:   body.Mint,
		Source: address.Address(body.Source),
	})
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, contribution)
}

func (c *CampaignController) WithdrawFunds(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	result, err := c.Escrow.WithdrawFunds(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

func (c *CampaignController) CloseCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	campaign, err := c.Escrow.CloseCampaign(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) ClaimRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	contribution, err := c.Escrow.ClaimRefund(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, contribution)
}

func (c *CampaignController) AddMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	var body struct {
		Title        string `json:"title"`
		TargetAmount uint64 `json:"target_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.BadRequest(w, "invalid body")
		return
	}

	milestone, err := c.Escrow.AddMilestone(r.Context(), auth.FromContext(r.Context()), id, body.Title, body.TargetAmount)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, milestone)
}

func (c *CampaignController) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}
	index, ok := httpx.MilestoneIndex(r)
	if !ok {
		httpx.BadRequest(w, "invalid milestone index")
		return
	}

	milestone, err := c.Escrow.CompleteMilestone(r.Context(), auth.FromContext(r.Context()), id, index)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, milestone)
}

// Faucet credits the caller with test USDC. Only routed in development.
func (c *CampaignController) Faucet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Amount == 0 {
		httpx.BadRequest(w, "amount must be a positive integer")
		return
	}

	acct, err := c.Escrow.MintTestTokens(r.Context(), auth.FromContext(r.Context()), body.Amount)
	if err != nil {
		httpx.WriteError(w, c.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, acct)
}
