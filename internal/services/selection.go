package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/creatorbridge/backend/internal/models"
)

// Decision values accepted by Decide.
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// SelectionCampaignRepo is the campaign surface selection needs: reads plus
// the atomic slot reservation.
type SelectionCampaignRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	ReserveSlotTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	AddSelectionTx(ctx context.Context, tx pgx.Tx, campaignID, creatorID uuid.UUID) error
}

// ApplicationStore is the application repository interface.
type ApplicationStore interface {
	Create(ctx context.Context, a *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	DecideTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.ApplicationStatus, decidedAt time.Time) (bool, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.Application, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Application, error)
}

// SelectionService owns applications and the capacity invariant. Approval
// reserves a slot with a compare-and-increment UPDATE before the application
// flips to APPROVED, so of N concurrent approvals at the last slot exactly
// one commits and the rest observe zero rows and fail cleanly.
type SelectionService struct {
	Pool         TxBeginner
	Campaigns    SelectionCampaignRepo
	Applications ApplicationStore
	Logger       *slog.Logger
}

func NewSelectionService(pool TxBeginner, campaigns SelectionCampaignRepo, applications ApplicationStore, logger *slog.Logger) *SelectionService {
	return &SelectionService{Pool: pool, Campaigns: campaigns, Applications: applications, Logger: logger}
}

// Apply submits a creator's application to an OPEN campaign.
func (s *SelectionService) Apply(ctx context.Context, campaignID, creatorID uuid.UUID) (*models.Application, error) {
	c, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CampaignStatusOpen {
		return nil, fmt.Errorf("%w: campaign is not accepting applications", models.ErrState)
	}

	a := &models.Application{
		ID:         uuid.New(),
		CampaignID: campaignID,
		CreatorID:  creatorID,
		Status:     models.ApplicationStatusPending,
	}
	if err := s.Applications.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Decide applies the sponsor's APPROVE or REJECT to a pending application.
// Decisions are final; a decided application never changes again.
func (s *SelectionService) Decide(ctx context.Context, campaignID, applicationID, sponsorID uuid.UUID, decision string) (*models.Application, error) {
	a, err := s.Applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.CampaignID != campaignID {
		return nil, models.ErrNotFound
	}
	c, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.SponsorID != sponsorID {
		return nil, models.ErrNotFound
	}
	if a.Status != models.ApplicationStatusPending {
		return nil, fmt.Errorf("%w: application already decided", models.ErrState)
	}

	switch decision {
	case DecisionApprove:
		return s.approve(ctx, a)
	case DecisionReject:
		return s.reject(ctx, a)
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", models.ErrValidation, decision)
	}
}

func (s *SelectionService) approve(ctx context.Context, a *models.Application) (*models.Application, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Reserve the slot first. The conditional increment only lands while the
	// campaign is OPEN and below capacity; rolling back the transaction
	// releases the slot, so an application can never end up APPROVED without
	// occupying a counted slot.
	reserved, err := s.Campaigns.ReserveSlotTx(ctx, tx, a.CampaignID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		c, err := s.Campaigns.GetByID(ctx, a.CampaignID)
		if err != nil {
			return nil, err
		}
		if c.Status != models.CampaignStatusOpen {
			return nil, fmt.Errorf("%w: applications are closed", models.ErrState)
		}
		return nil, models.ErrCapacityExceeded
	}

	now := time.Now().UTC()
	decided, err := s.Applications.DecideTx(ctx, tx, a.ID, models.ApplicationStatusApproved, now)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, fmt.Errorf("%w: application already decided", models.ErrState)
	}
	if err := s.Campaigns.AddSelectionTx(ctx, tx, a.CampaignID, a.CreatorID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	a.Status = models.ApplicationStatusApproved
	a.DecidedAt = &now
	s.Logger.Info("application approved", "campaign_id", a.CampaignID, "application_id", a.ID)
	return a, nil
}

func (s *SelectionService) reject(ctx context.Context, a *models.Application) (*models.Application, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	decided, err := s.Applications.DecideTx(ctx, tx, a.ID, models.ApplicationStatusRejected, now)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, fmt.Errorf("%w: application already decided", models.ErrState)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	a.Status = models.ApplicationStatusRejected
	a.DecidedAt = &now
	return a, nil
}

// ListByCampaign returns a campaign's applications to its sponsor.
func (s *SelectionService) ListByCampaign(ctx context.Context, campaignID, sponsorID uuid.UUID) ([]*models.Application, error) {
	c, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.SponsorID != sponsorID {
		return nil, models.ErrNotFound
	}
	return s.Applications.ListByCampaign(ctx, campaignID)
}

// ListByCreator returns the creator's own applications.
func (s *SelectionService) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Application, error) {
	return s.Applications.ListByCreator(ctx, creatorID)
}
