package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/creatorbridge/backend/internal/middleware"
	"github.com/creatorbridge/backend/internal/models"
)

// ApplicationEngine is the selection surface the handler drives.
type ApplicationEngine interface {
	Apply(ctx context.Context, campaignID, creatorID uuid.UUID) (*models.Application, error)
	Decide(ctx context.Context, campaignID, applicationID, sponsorID uuid.UUID, decision string) (*models.Application, error)
	ListByCampaign(ctx context.Context, campaignID, sponsorID uuid.UUID) ([]*models.Application, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Application, error)
}

// ApplicationHandler serves campaign application endpoints.
type ApplicationHandler struct {
	Applications ApplicationEngine
	Logger       *slog.Logger
}

// Apply handles POST /v1/campaigns/{id}/applications (creator role).
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	campaignID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}
	a, err := h.Applications.Apply(r.Context(), campaignID, acc.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListForCampaign handles GET /v1/campaigns/{id}/applications (sponsor role).
func (h *ApplicationHandler) ListForCampaign(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	campaignID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}
	apps, err := h.Applications.ListByCampaign(r.Context(), campaignID, acc.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// ListMine handles GET /v1/applications: the creator's own applications.
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	apps, err := h.Applications.ListByCreator(r.Context(), acc.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

type decisionRequest struct {
	CampaignID string `json:"campaign_id"`
	Decision   string `json:"decision"`
}

// Decide handles POST /v1/applications/{id}/decision (sponsor role).
// Decision is APPROVE or REJECT and is final either way.
func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	applicationID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid application id"})
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign_id"})
		return
	}
	a, err := h.Applications.Decide(r.Context(), campaignID, applicationID, acc.ID, req.Decision)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
