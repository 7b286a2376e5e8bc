package main

import (
	"log/slog"
	"net/http"

	"github.com/creatorbridge/backend/internal/handlers"
	"github.com/creatorbridge/backend/internal/middleware"
	"github.com/creatorbridge/backend/internal/models"
	"github.com/creatorbridge/backend/internal/services"
)

// RegisterV1Routes adds the /v1/ campaign API endpoints to the given mux.
// Middleware chain: JWTAuth -> (RequireRole / BudgetCheck where noted) -> handler.
func RegisterV1Routes(
	mux *http.ServeMux,
	campaignSvc *services.CampaignService,
	selectionSvc *services.SelectionService,
	matcher *services.Matcher,
	profiles handlers.ProfileStore,
	validator *services.Validator,
	authMW func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	ch := &handlers.CampaignHandler{Campaigns: campaignSvc, Logger: logger}
	ah := &handlers.ApplicationHandler{Applications: selectionSvc, Logger: logger}
	crh := &handlers.CreatorHandler{Matcher: matcher, Profiles: profiles, Kinds: validator.Kinds, Logger: logger}

	sponsor := middleware.RequireRole(models.RoleSponsor)
	creator := middleware.RequireRole(models.RoleCreator)
	budget := middleware.BudgetCheck()

	// Campaigns. Budget shape is rejected before the handler runs.
	mux.Handle("POST /v1/campaigns", authMW(sponsor(budget(http.HandlerFunc(ch.CreateCampaign)))))
	mux.Handle("GET /v1/campaigns", authMW(http.HandlerFunc(ch.ListCampaigns)))
	mux.Handle("GET /v1/campaigns/open", authMW(http.HandlerFunc(ch.BrowseOpenCampaigns)))
	mux.Handle("GET /v1/campaigns/{id}", authMW(http.HandlerFunc(ch.GetCampaign)))
	mux.Handle("POST /v1/campaigns/{id}/fund", authMW(sponsor(http.HandlerFunc(ch.FundCampaign))))
	mux.Handle("POST /v1/campaigns/{id}/close-applications", authMW(sponsor(http.HandlerFunc(ch.CloseApplications))))
	mux.Handle("POST /v1/campaigns/{id}/submit-review", authMW(sponsor(http.HandlerFunc(ch.SubmitForReview))))
	mux.Handle("POST /v1/campaigns/{id}/approve", authMW(sponsor(http.HandlerFunc(ch.ApproveCampaign))))
	mux.Handle("POST /v1/campaigns/{id}/release", authMW(sponsor(http.HandlerFunc(ch.ReleaseCampaign))))
	mux.Handle("POST /v1/campaigns/{id}/cancel", authMW(sponsor(http.HandlerFunc(ch.CancelCampaign))))

	// Applications.
	mux.Handle("POST /v1/campaigns/{id}/applications", authMW(creator(http.HandlerFunc(ah.Apply))))
	mux.Handle("GET /v1/campaigns/{id}/applications", authMW(sponsor(http.HandlerFunc(ah.ListForCampaign))))
	mux.Handle("GET /v1/applications", authMW(creator(http.HandlerFunc(ah.ListMine))))
	mux.Handle("POST /v1/applications/{id}/decision", authMW(sponsor(http.HandlerFunc(ah.Decide))))

	// Creator catalog.
	mux.Handle("GET /v1/creators/search", authMW(http.HandlerFunc(crh.Search)))
	mux.Handle("PUT /v1/creators/me", authMW(creator(http.HandlerFunc(crh.UpsertProfile))))
	mux.Handle("GET /v1/creators/me", authMW(creator(http.HandlerFunc(crh.GetMyProfile))))
	mux.HandleFunc("GET /v1/deliverable-kinds", crh.ListDeliverableKinds)
}
