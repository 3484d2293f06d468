// internal/handler/campaign_handler.go
package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/hoperise-backend/internal/auth"
	"github.com/unclebandit/hoperise-backend/internal/httpx"
	"github.com/unclebandit/hoperise-backend/internal/service"
)

// CampaignHandler holds the dependencies for the read-only campaign
// endpoints.
type CampaignHandler struct {
	Service *service.CampaignService
	Logger  *zap.Logger
}

func NewCampaignHandler(svc *service.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{Service: svc, Logger: log}
}

func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, details)
}

// FeaturedCampaignsHandler returns the newest active campaigns.
func (h *CampaignHandler) FeaturedCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.FeaturedCampaigns(r.Context(), httpx.QueryInt(r, "limit", 0))
	if err != nil {
		httpx.WriteError(w, h.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": campaigns})
}

func (h *CampaignHandler) ListMilestonesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	milestones, err := h.Service.ListMilestones(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": milestones})
}

func (h *CampaignHandler) ListContributionsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	contributions, err := h.Service.ListContributions(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": contributions})
}

// MyContributionHandler returns the caller's own record; it sits behind the
// auth middleware.
func (h *CampaignHandler) MyContributionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	rec, err := h.Service.GetContribution(r.Context(), id, auth.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, h.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (h *CampaignHandler) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.CampaignID(r)
	if !ok {
		httpx.BadRequest(w, "invalid campaign id")
		return
	}

	entries, err := h.Service.RecentActivity(r.Context(), id, httpx.QueryInt(r, "limit", 0))
	if err != nil {
		httpx.WriteError(w, h.Logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": entries})
}
