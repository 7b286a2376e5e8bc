package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/creatorbridge/backend/internal/middleware"
	"github.com/creatorbridge/backend/internal/models"
	"github.com/creatorbridge/backend/internal/services"
)

// CreatorSearcher runs filter specs over the creator catalog.
type CreatorSearcher interface {
	SearchCatalog(ctx context.Context, f models.FilterSpec) ([]*models.CreatorProfile, error)
}

// ProfileStore persists creator profiles.
type ProfileStore interface {
	Upsert(ctx context.Context, p *models.CreatorProfile) error
	GetByCreatorID(ctx context.Context, creatorID uuid.UUID) (*models.CreatorProfile, error)
}

// CreatorHandler serves creator catalog endpoints.
type CreatorHandler struct {
	Matcher  CreatorSearcher
	Profiles ProfileStore
	Kinds    func() []string
	Logger   *slog.Logger
}

// Search handles GET /v1/creators/search. All query params are optional and
// AND-combine; identical requests return identical results.
func (h *CreatorHandler) Search(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	results, err := h.Matcher.SearchCatalog(r.Context(), f)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if r.URL.Query().Get("rank") == "engagement" {
		results = services.RankByEngagement(results)
	}
	writeJSON(w, http.StatusOK, results)
}

type upsertProfileRequest struct {
	DisplayName    string   `json:"display_name"`
	NicheTags      []string `json:"niche_tags"`
	State          string   `json:"state"`
	City           string   `json:"city"`
	FollowerCount  int64    `json:"follower_count"`
	EngagementRate float64  `json:"engagement_rate"`
	StartingPrice  int64    `json:"starting_price"`
	AvgBudget      *int64   `json:"avg_budget"`
	DealType       string   `json:"deal_type"`
}

// UpsertProfile handles PUT /v1/creators/me (creator role).
func (h *CreatorHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	var req upsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	dealType := models.DealType(req.DealType)
	switch dealType {
	case models.DealTypeBarter, models.DealTypePaid, models.DealTypeBoth:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid deal_type"})
		return
	}
	p := &models.CreatorProfile{
		CreatorID:      acc.ID,
		DisplayName:    req.DisplayName,
		Email:          acc.Email,
		NicheTags:      req.NicheTags,
		State:          req.State,
		City:           req.City,
		FollowerCount:  req.FollowerCount,
		EngagementRate: req.EngagementRate,
		StartingPrice:  req.StartingPrice,
		AvgBudget:      req.AvgBudget,
		DealType:       dealType,
	}
	if err := h.Profiles.Upsert(r.Context(), p); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetMyProfile handles GET /v1/creators/me.
func (h *CreatorHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	p, err := h.Profiles.GetByCreatorID(r.Context(), acc.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListDeliverableKinds handles GET /v1/deliverable-kinds (public, no auth).
func (h *CreatorHandler) ListDeliverableKinds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Kinds())
}

// --- helpers ---

func filterFromQuery(r *http.Request) (models.FilterSpec, error) {
	q := r.URL.Query()
	f := models.FilterSpec{
		Query: q.Get("q"),
		State: q.Get("state"),
		City:  q.Get("city"),
	}
	if v := q.Get("deal_type"); v != "" {
		dt := models.DealType(v)
		switch dt {
		case models.DealTypeBarter, models.DealTypePaid, models.DealTypeBoth:
			f.DealType = &dt
		default:
			return f, errInvalidParam("deal_type")
		}
	}
	var err error
	if f.FollowerMinK, err = optionalInt64(q.Get("followers_min_k")); err != nil {
		return f, errInvalidParam("followers_min_k")
	}
	if f.FollowerMaxK, err = optionalInt64(q.Get("followers_max_k")); err != nil {
		return f, errInvalidParam("followers_max_k")
	}
	if f.BudgetMin, err = optionalInt64(q.Get("budget_min")); err != nil {
		return f, errInvalidParam("budget_min")
	}
	if f.BudgetMax, err = optionalInt64(q.Get("budget_max")); err != nil {
		return f, errInvalidParam("budget_max")
	}
	f.VerifiedOnly = q.Get("verified_only") == "true"
	return f, nil
}

func optionalInt64(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid " + string(e) }
