package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/creatorbridge/backend/internal/models"
)

// ---------------------------------------------------------------------------
// mockEngine is a scripted ApplicationEngine.
// ---------------------------------------------------------------------------

type mockEngine struct {
	applyErr  error
	decideErr error

	lastDecision string
	application  *models.Application
}

func (m *mockEngine) Apply(_ context.Context, campaignID, creatorID uuid.UUID) (*models.Application, error) {
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	m.application = &models.Application{
		ID:         uuid.New(),
		CampaignID: campaignID,
		CreatorID:  creatorID,
		Status:     models.ApplicationStatusPending,
	}
	return m.application, nil
}

func (m *mockEngine) Decide(_ context.Context, _, applicationID, _ uuid.UUID, decision string) (*models.Application, error) {
	if m.decideErr != nil {
		return nil, m.decideErr
	}
	m.lastDecision = decision
	return &models.Application{ID: applicationID, Status: models.ApplicationStatusApproved}, nil
}

func (m *mockEngine) ListByCampaign(context.Context, uuid.UUID, uuid.UUID) ([]*models.Application, error) {
	return nil, nil
}

func (m *mockEngine) ListByCreator(context.Context, uuid.UUID) ([]*models.Application, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// 1. TestApplyEndpoint
// ---------------------------------------------------------------------------

func TestApplyEndpoint(t *testing.T) {
	eng := &mockEngine{}
	h := &ApplicationHandler{Applications: eng, Logger: testLogger()}
	creator := &models.Account{ID: uuid.New(), Role: models.RoleCreator}
	campaignID := uuid.New()

	rec := httptest.NewRecorder()
	h.Apply(rec, authedRequest(http.MethodPost, "/v1/campaigns/"+campaignID.String()+"/applications", "", creator, campaignID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (body: %s)", rec.Code, rec.Body)
	}
	if eng.application == nil || eng.application.CreatorID != creator.ID {
		t.Error("application should be created for the authenticated creator")
	}

	// Duplicate application maps to 409.
	eng.applyErr = models.ErrDuplicateApplication
	rec = httptest.NewRecorder()
	h.Apply(rec, authedRequest(http.MethodPost, "/v1/campaigns/"+campaignID.String()+"/applications", "", creator, campaignID))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// 2. TestDecideEndpoint
// ---------------------------------------------------------------------------

func TestDecideEndpoint(t *testing.T) {
	eng := &mockEngine{}
	h := &ApplicationHandler{Applications: eng, Logger: testLogger()}
	sponsor := sponsorAccount()
	campaignID := uuid.New()
	applicationID := uuid.New()
	body := `{"campaign_id":"` + campaignID.String() + `","decision":"APPROVE"}`

	rec := httptest.NewRecorder()
	h.Decide(rec, authedRequest(http.MethodPost, "/v1/applications/"+applicationID.String()+"/decision", body, sponsor, applicationID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rec.Code, rec.Body)
	}
	if eng.lastDecision != "APPROVE" {
		t.Errorf("decision passed through: got %q", eng.lastDecision)
	}

	// Capacity exhaustion maps to 409.
	eng.decideErr = models.ErrCapacityExceeded
	rec = httptest.NewRecorder()
	h.Decide(rec, authedRequest(http.MethodPost, "/v1/applications/"+applicationID.String()+"/decision", body, sponsor, applicationID))
	if rec.Code != http.StatusConflict {
		t.Errorf("capacity: got %d, want 409", rec.Code)
	}

	// Foreign sponsor maps to 404.
	eng.decideErr = models.ErrNotFound
	rec = httptest.NewRecorder()
	h.Decide(rec, authedRequest(http.MethodPost, "/v1/applications/"+applicationID.String()+"/decision", body, sponsor, applicationID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign sponsor: got %d, want 404", rec.Code)
	}

	// Malformed campaign_id in the body.
	rec = httptest.NewRecorder()
	h.Decide(rec, authedRequest(http.MethodPost, "/v1/applications/"+applicationID.String()+"/decision", `{"campaign_id":"nope","decision":"APPROVE"}`, sponsor, applicationID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad campaign_id: got %d, want 400", rec.Code)
	}
}
