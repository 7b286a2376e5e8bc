package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/creatorbridge/backend/internal/middleware"
	"github.com/creatorbridge/backend/internal/models"
	"github.com/creatorbridge/backend/internal/services"
)

// CampaignLifecycle is the lifecycle surface the handler drives.
type CampaignLifecycle interface {
	Create(ctx context.Context, sponsorID uuid.UUID, spec services.CreateCampaignSpec) (*models.Campaign, error)
	Fund(ctx context.Context, campaignID, sponsorID uuid.UUID, amount int64) error
	CloseApplications(ctx context.Context, campaignID, sponsorID uuid.UUID) error
	SubmitForReview(ctx context.Context, campaignID, sponsorID uuid.UUID, submissions []services.DeliverableSubmission) error
	Approve(ctx context.Context, campaignID, sponsorID uuid.UUID) error
	Release(ctx context.Context, campaignID uuid.UUID) error
	Cancel(ctx context.Context, campaignID, sponsorID uuid.UUID, reason string) error
	Get(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error)
	ListForAccount(ctx context.Context, accountID uuid.UUID, role string, status models.CampaignStatus) ([]*models.Campaign, error)
	BrowseOpen(ctx context.Context) ([]*models.Campaign, error)
}

// CampaignHandler serves /v1/campaigns endpoints.
type CampaignHandler struct {
	Campaigns CampaignLifecycle
	Logger    *slog.Logger
}

// --- POST /v1/campaigns ---

type deliverableRequest struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type createCampaignRequest struct {
	Title            string               `json:"title"`
	Objective        string               `json:"objective"`
	TotalBudget      int64                `json:"total_budget"`
	BudgetPerCreator int64                `json:"budget_per_creator"`
	CreatorsCount    int                  `json:"creators_count"`
	StartDate        time.Time            `json:"start_date"`
	EndDate          time.Time            `json:"end_date"`
	Deadline         time.Time            `json:"deadline"`
	Deliverables     []deliverableRequest `json:"deliverables"`
}

// CreateCampaign handles POST /v1/campaigns. Budget shape is pre-checked by
// middleware; the service re-validates before persisting.
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	spec := services.CreateCampaignSpec{
		Title:            req.Title,
		Objective:        req.Objective,
		TotalBudget:      req.TotalBudget,
		BudgetPerCreator: req.BudgetPerCreator,
		CreatorsCount:    req.CreatorsCount,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Deadline:         req.Deadline,
	}
	for _, d := range req.Deliverables {
		spec.Deliverables = append(spec.Deliverables, models.Deliverable{Kind: d.Kind, Payload: d.Payload})
	}

	c, err := h.Campaigns.Create(r.Context(), acc.ID, spec)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// --- GET /v1/campaigns ---

// ListCampaigns handles GET /v1/campaigns?status=. Sponsors see their own
// campaigns, creators see campaigns they applied to.
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	status := models.CampaignStatus(r.URL.Query().Get("status"))
	campaigns, err := h.Campaigns.ListForAccount(r.Context(), acc.ID, acc.Role, status)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// BrowseOpenCampaigns handles GET /v1/campaigns/open: the board creators
// browse before applying.
func (h *CampaignHandler) BrowseOpenCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Campaigns.BrowseOpen(r.Context())
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// GetCampaign handles GET /v1/campaigns/{id}.
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}
	c, err := h.Campaigns.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- lifecycle actions ---

type fundRequest struct {
	Amount int64 `json:"amount"`
}

// FundCampaign handles POST /v1/campaigns/{id}/fund.
func (h *CampaignHandler) FundCampaign(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.sponsorAndID(w, r)
	if !ok {
		return
	}
	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := h.Campaigns.Fund(r.Context(), id, acc.ID, req.Amount); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	h.respondStatus(w, r, id)
}

// CloseApplications handles POST /v1/campaigns/{id}/close-applications.
func (h *CampaignHandler) CloseApplications(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.sponsorAndID(w, r)
	if !ok {
		return
	}
	if err := h.Campaigns.CloseApplications(r.Context(), id, acc.ID); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	h.respondStatus(w, r, id)
}

type submitReviewRequest struct {
	Submissions []deliverableRequest `json:"submissions"`
}

// SubmitForReview handles POST /v1/campaigns/{id}/submit-review.
func (h *CampaignHandler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.sponsorAndID(w, r)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	subs := make([]services.DeliverableSubmission, 0, len(req.Submissions))
	for _, s := range req.Submissions {
		subs = append(subs, services.DeliverableSubmission{Kind: s.Kind, Payload: s.Payload})
	}
	if err := h.Campaigns.SubmitForReview(r.Context(), id, acc.ID, subs); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	h.respondStatus(w, r, id)
}

// ApproveCampaign handles POST /v1/campaigns/{id}/approve. The payout release
// job is enqueued inside the approval transaction.
func (h *CampaignHandler) ApproveCampaign(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.sponsorAndID(w, r)
	if !ok {
		return
	}
	if err := h.Campaigns.Approve(r.Context(), id, acc.ID); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	h.respondStatus(w, r, id)
}

// ReleaseCampaign handles POST /v1/campaigns/{id}/release: a manual trigger
// for the same idempotent release the payout worker runs.
func (h *CampaignHandler) ReleaseCampaign(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.sponsorAndID(w, r)
	if !ok {
		return
	}
	c, err := h.Campaigns.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if c.SponsorID != acc.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err := h.Campaigns.Release(r.Context(), id); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	h.respondStatus(w, r, id)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelCampaign handles POST /v1/campaigns/{id}/cancel.
func (h *CampaignHandler) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.sponsorAndID(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := h.Campaigns.Cancel(r.Context(), id, acc.ID, req.Reason); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	h.respondStatus(w, r, id)
}

// --- helpers ---

func (h *CampaignHandler) sponsorAndID(w http.ResponseWriter, r *http.Request) (*models.Account, uuid.UUID, bool) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return nil, uuid.Nil, false
	}
	id, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return nil, uuid.Nil, false
	}
	return acc, id, true
}

func (h *CampaignHandler) respondStatus(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	c, err := h.Campaigns.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"campaign_id": id.String(), "status": string(c.Status)})
}

// pathUUID parses a UUID out of a ServeMux path value.
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
