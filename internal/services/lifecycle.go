package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/creatorbridge/backend/internal/models"
	"github.com/creatorbridge/backend/internal/payout"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CampaignStore is the campaign repository interface the lifecycle needs.
type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Campaign, error)
	TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to models.CampaignStatus) (bool, error)
	SetCancelReasonTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error
	ListSelectionsTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) ([]uuid.UUID, error)
	ListBySponsor(ctx context.Context, sponsorID uuid.UUID, status models.CampaignStatus) ([]*models.Campaign, error)
	ListByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.Campaign, error)
	ListByApplicant(ctx context.Context, creatorID uuid.UUID, status models.CampaignStatus) ([]*models.Campaign, error)
}

// EscrowManager is the custody surface the lifecycle drives.
type EscrowManager interface {
	OpenAndFund(ctx context.Context, tx pgx.Tx, campaignID, sponsorID uuid.UUID, amount int64) error
	ReleaseAll(ctx context.Context, tx pgx.Tx, campaignID, sponsorID uuid.UUID, budgetPerCreator int64, creatorIDs []uuid.UUID) error
	Refund(ctx context.Context, tx pgx.Tx, campaignID, sponsorID uuid.UUID) error
}

// DeliverableValidator checks deliverable payloads against their kind's schema.
type DeliverableValidator interface {
	ValidateDescriptor(kind string, payload []byte) error
	ValidateSubmission(kind string, payload []byte) error
}

// InsertReleasePayoutTxFunc enqueues the payout job within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertReleasePayoutTxFunc func(ctx context.Context, tx pgx.Tx, args payout.ReleasePayoutArgs) error

// CampaignService owns the campaign lifecycle state machine. Transitions go
// through the central table and commit with a status-guarded UPDATE, so a
// losing racer observes zero rows and backs out without side effects.
type CampaignService struct {
	Pool                TxBeginner
	Campaigns           CampaignStore
	Escrow              EscrowManager
	Validator           DeliverableValidator
	InsertReleasePayout InsertReleasePayoutTxFunc
	Logger              *slog.Logger
}

func NewCampaignService(pool TxBeginner, campaigns CampaignStore, escrow EscrowManager, validator DeliverableValidator, insertReleasePayout InsertReleasePayoutTxFunc, logger *slog.Logger) *CampaignService {
	return &CampaignService{
		Pool:                pool,
		Campaigns:           campaigns,
		Escrow:              escrow,
		Validator:           validator,
		InsertReleasePayout: insertReleasePayout,
		Logger:              logger,
	}
}

// CreateCampaignSpec carries the sponsor's campaign definition.
type CreateCampaignSpec struct {
	Title            string
	Objective        string
	TotalBudget      int64
	BudgetPerCreator int64
	CreatorsCount    int
	StartDate        time.Time
	EndDate          time.Time
	Deadline         time.Time
	Deliverables     []models.Deliverable
}

// Create validates the spec and creates the campaign in DRAFT. Nothing is
// persisted on a validation failure.
func (s *CampaignService) Create(ctx context.Context, sponsorID uuid.UUID, spec CreateCampaignSpec) (*models.Campaign, error) {
	if spec.Title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if spec.TotalBudget <= 0 || spec.BudgetPerCreator <= 0 {
		return nil, fmt.Errorf("%w: budgets must be positive", models.ErrValidation)
	}
	if spec.CreatorsCount < 1 {
		return nil, fmt.Errorf("%w: creators_count must be at least 1", models.ErrValidation)
	}
	if spec.BudgetPerCreator*int64(spec.CreatorsCount) > spec.TotalBudget {
		return nil, fmt.Errorf("%w: budget_per_creator x creators_count exceeds total_budget", models.ErrValidation)
	}
	if !spec.StartDate.Before(spec.EndDate) {
		return nil, fmt.Errorf("%w: start_date must be before end_date", models.ErrValidation)
	}
	if spec.EndDate.After(spec.Deadline) {
		return nil, fmt.Errorf("%w: end_date must not be after deadline", models.ErrValidation)
	}
	for i, d := range spec.Deliverables {
		if err := s.Validator.ValidateDescriptor(d.Kind, d.Payload); err != nil {
			return nil, fmt.Errorf("deliverable %d: %w", i, err)
		}
	}

	c := &models.Campaign{
		ID:               uuid.New(),
		SponsorID:        sponsorID,
		Title:            spec.Title,
		Objective:        spec.Objective,
		TotalBudget:      spec.TotalBudget,
		BudgetPerCreator: spec.BudgetPerCreator,
		CreatorsCount:    spec.CreatorsCount,
		StartDate:        spec.StartDate,
		EndDate:          spec.EndDate,
		Deadline:         spec.Deadline,
		Deliverables:     spec.Deliverables,
		Status:           models.CampaignStatusDraft,
	}
	if err := s.Campaigns.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Fund locks the total budget into escrow and opens the campaign for
// applications. Funding an already-OPEN campaign with the identical amount is
// a no-op so callers can retry.
func (s *CampaignService) Fund(ctx context.Context, campaignID, sponsorID uuid.UUID, amount int64) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	c, err := s.Campaigns.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if c.SponsorID != sponsorID {
		return models.ErrNotFound
	}
	if c.Status == models.CampaignStatusOpen && amount == c.TotalBudget {
		return nil
	}
	if c.Status != models.CampaignStatusDraft && c.Status != models.CampaignStatusPending {
		return &models.InvalidTransitionError{From: c.Status, Attempted: models.CampaignStatusOpen}
	}
	if amount != c.TotalBudget {
		return fmt.Errorf("%w: funding amount %d must equal total budget %d", models.ErrValidation, amount, c.TotalBudget)
	}

	if err := s.Escrow.OpenAndFund(ctx, tx, campaignID, sponsorID, amount); err != nil {
		return err
	}
	ok, err := s.Campaigns.TransitionTx(ctx, tx, campaignID, c.Status, models.CampaignStatusOpen)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: campaign left %s during funding", models.ErrState, c.Status)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.Logger.Info("campaign funded", "campaign_id", campaignID, "amount", amount)
	return nil
}

// CloseApplications freezes further applications: OPEN → ONGOING. Requires at
// least one selected creator.
func (s *CampaignService) CloseApplications(ctx context.Context, campaignID, sponsorID uuid.UUID) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	c, err := s.Campaigns.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if c.SponsorID != sponsorID {
		return models.ErrNotFound
	}
	if c.Status != models.CampaignStatusOpen {
		return &models.InvalidTransitionError{From: c.Status, Attempted: models.CampaignStatusOngoing}
	}
	if c.SelectedCount == 0 {
		return fmt.Errorf("%w: cannot close applications before selecting creators", models.ErrState)
	}
	if err := s.mustTransition(ctx, tx, campaignID, models.CampaignStatusOpen, models.CampaignStatusOngoing); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeliverableSubmission is content submitted against one deliverable slot.
type DeliverableSubmission struct {
	Kind    string
	Payload []byte
}

// SubmitForReview moves ONGOING → PENDING_REVIEW. Submission payloads are
// soft-validated: mismatches are logged, never rejected.
func (s *CampaignService) SubmitForReview(ctx context.Context, campaignID, sponsorID uuid.UUID, submissions []DeliverableSubmission) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	c, err := s.Campaigns.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if c.SponsorID != sponsorID {
		return models.ErrNotFound
	}
	if c.Status != models.CampaignStatusOngoing {
		return &models.InvalidTransitionError{From: c.Status, Attempted: models.CampaignStatusPendingReview}
	}
	for _, sub := range submissions {
		if valErr := s.Validator.ValidateSubmission(sub.Kind, sub.Payload); valErr != nil {
			s.Logger.Warn("deliverable submission failed validation (soft flag)", "campaign_id", campaignID, "kind", sub.Kind, "error", valErr)
		}
	}
	if err := s.mustTransition(ctx, tx, campaignID, models.CampaignStatusOngoing, models.CampaignStatusPendingReview); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Approve accepts the deliverables and enqueues the payout release in the
// same transaction, so approval and the release job commit or vanish together.
func (s *CampaignService) Approve(ctx context.Context, campaignID, sponsorID uuid.UUID) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	c, err := s.Campaigns.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if c.SponsorID != sponsorID {
		return models.ErrNotFound
	}
	if c.Status != models.CampaignStatusPendingReview {
		return &models.InvalidTransitionError{From: c.Status, Attempted: models.CampaignStatusCompleted}
	}
	if err := s.mustTransition(ctx, tx, campaignID, models.CampaignStatusPendingReview, models.CampaignStatusCompleted); err != nil {
		return err
	}
	if err := s.InsertReleasePayout(ctx, tx, payout.ReleasePayoutArgs{CampaignID: campaignID}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.Logger.Info("campaign approved, payout enqueued", "campaign_id", campaignID)
	return nil
}

// Release pays each selected creator their share and refunds any unallocated
// remainder to the sponsor: COMPLETED → RELEASED. Idempotent — calling it on
// a RELEASED campaign returns nil so the payout job can retry safely.
func (s *CampaignService) Release(ctx context.Context, campaignID uuid.UUID) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	c, err := s.Campaigns.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if c.Status == models.CampaignStatusReleased {
		return nil
	}
	if c.Status != models.CampaignStatusCompleted {
		return &models.InvalidTransitionError{From: c.Status, Attempted: models.CampaignStatusReleased}
	}

	creators, err := s.Campaigns.ListSelectionsTx(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if err := s.Escrow.ReleaseAll(ctx, tx, campaignID, c.SponsorID, c.BudgetPerCreator, creators); err != nil {
		return err
	}
	if err := s.mustTransition(ctx, tx, campaignID, models.CampaignStatusCompleted, models.CampaignStatusReleased); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.Logger.Info("campaign released", "campaign_id", campaignID, "creators", len(creators))
	return nil
}

// Cancel closes the campaign from any pre-release state and refunds the
// funded-but-unreleased balance.
func (s *CampaignService) Cancel(ctx context.Context, campaignID, sponsorID uuid.UUID, reason string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	c, err := s.Campaigns.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if c.SponsorID != sponsorID {
		return models.ErrNotFound
	}
	switch c.Status {
	case models.CampaignStatusDraft, models.CampaignStatusPending, models.CampaignStatusOpen, models.CampaignStatusOngoing:
	default:
		return &models.InvalidTransitionError{From: c.Status, Attempted: models.CampaignStatusClosed}
	}

	// DRAFT campaigns have no escrow yet; anything funded gets refunded.
	if err := s.Escrow.Refund(ctx, tx, campaignID, sponsorID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if err := s.mustTransition(ctx, tx, campaignID, c.Status, models.CampaignStatusClosed); err != nil {
		return err
	}
	if err := s.Campaigns.SetCancelReasonTx(ctx, tx, campaignID, reason); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.Logger.Info("campaign cancelled", "campaign_id", campaignID, "reason", reason)
	return nil
}

// Get returns one campaign.
func (s *CampaignService) Get(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	return s.Campaigns.GetByID(ctx, campaignID)
}

// ListForAccount returns campaigns visible to the caller: sponsors see their
// own, creators see campaigns they applied to.
func (s *CampaignService) ListForAccount(ctx context.Context, accountID uuid.UUID, role string, status models.CampaignStatus) ([]*models.Campaign, error) {
	if role == models.RoleSponsor {
		return s.Campaigns.ListBySponsor(ctx, accountID, status)
	}
	return s.Campaigns.ListByApplicant(ctx, accountID, status)
}

// BrowseOpen returns all campaigns currently accepting applications.
func (s *CampaignService) BrowseOpen(ctx context.Context) ([]*models.Campaign, error) {
	return s.Campaigns.ListByStatus(ctx, models.CampaignStatusOpen)
}

// mustTransition applies a table-checked, status-guarded transition inside tx.
func (s *CampaignService) mustTransition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to models.CampaignStatus) error {
	if !models.CanTransition(from, to) {
		return &models.InvalidTransitionError{From: from, Attempted: to}
	}
	ok, err := s.Campaigns.TransitionTx(ctx, tx, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: campaign left %s concurrently", models.ErrState, from)
	}
	return nil
}
