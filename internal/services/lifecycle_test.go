package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/creatorbridge/backend/internal/models"
	"github.com/creatorbridge/backend/internal/payout"
)

// ---------------------------------------------------------------------------
// noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called.
// ---------------------------------------------------------------------------

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// ---------------------------------------------------------------------------
// mockCampaignStore implements CampaignStore and SelectionCampaignRepo with
// the production guards: status-guarded transitions and the conditional
// slot increment.
// ---------------------------------------------------------------------------

type mockCampaignStore struct {
	mu         sync.Mutex
	campaigns  map[uuid.UUID]*models.Campaign
	selections map[uuid.UUID][]uuid.UUID
}

func newMockCampaignStore(cs ...*models.Campaign) *mockCampaignStore {
	m := &mockCampaignStore{
		campaigns:  make(map[uuid.UUID]*models.Campaign),
		selections: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range cs {
		cp := *c
		m.campaigns[c.ID] = &cp
	}
	return m
}

func (m *mockCampaignStore) Create(_ context.Context, c *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *mockCampaignStore) GetByID(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCampaignStore) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Campaign, error) {
	return m.GetByID(ctx, id)
}

func (m *mockCampaignStore) TransitionTx(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to models.CampaignStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (m *mockCampaignStore) SetCancelReasonTx(_ context.Context, _ pgx.Tx, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return models.ErrNotFound
	}
	c.CancelReason = &reason
	return nil
}

func (m *mockCampaignStore) ReserveSlotTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return false, fmt.Errorf("campaign %s not found", id)
	}
	if c.Status != models.CampaignStatusOpen || c.SelectedCount >= c.CreatorsCount {
		return false, nil
	}
	c.SelectedCount++
	return true, nil
}

func (m *mockCampaignStore) AddSelectionTx(_ context.Context, _ pgx.Tx, campaignID, creatorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections[campaignID] = append(m.selections[campaignID], creatorID)
	return nil
}

func (m *mockCampaignStore) ListSelectionsTx(_ context.Context, _ pgx.Tx, campaignID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uuid.UUID, len(m.selections[campaignID]))
	copy(out, m.selections[campaignID])
	return out, nil
}

func (m *mockCampaignStore) ListBySponsor(_ context.Context, sponsorID uuid.UUID, status models.CampaignStatus) ([]*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Campaign
	for _, c := range m.campaigns {
		if c.SponsorID == sponsorID && (status == "" || c.Status == status) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockCampaignStore) ListByStatus(_ context.Context, status models.CampaignStatus) ([]*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Campaign
	for _, c := range m.campaigns {
		if c.Status == status {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockCampaignStore) ListByApplicant(context.Context, uuid.UUID, models.CampaignStatus) ([]*models.Campaign, error) {
	return nil, nil
}

func (m *mockCampaignStore) status(id uuid.UUID) models.CampaignStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns[id].Status
}

// ---------------------------------------------------------------------------
// mockEscrowManager records custody calls.
// ---------------------------------------------------------------------------

type mockEscrowManager struct {
	mu           sync.Mutex
	funded       map[uuid.UUID]int64
	releaseCalls int
	lastCreators []uuid.UUID
	lastShare    int64
	refundCalls  int
	refundErr    error
}

func newMockEscrowManager() *mockEscrowManager {
	return &mockEscrowManager{funded: make(map[uuid.UUID]int64)}
}

func (m *mockEscrowManager) OpenAndFund(_ context.Context, _ pgx.Tx, campaignID, _ uuid.UUID, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.funded[campaignID]; ok && prev == amount {
		return nil
	}
	m.funded[campaignID] = amount
	return nil
}

func (m *mockEscrowManager) ReleaseAll(_ context.Context, _ pgx.Tx, _, _ uuid.UUID, budgetPerCreator int64, creatorIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	m.lastShare = budgetPerCreator
	m.lastCreators = creatorIDs
	return nil
}

func (m *mockEscrowManager) Refund(_ context.Context, _ pgx.Tx, _, _ uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundCalls++
	return m.refundErr
}

// ---------------------------------------------------------------------------
// okValidator accepts everything except kinds listed in bad.
// ---------------------------------------------------------------------------

type okValidator struct {
	bad map[string]bool
}

func (v okValidator) ValidateDescriptor(kind string, _ []byte) error {
	if v.bad[kind] {
		return fmt.Errorf("%w: unknown deliverable kind %q", models.ErrValidation, kind)
	}
	return nil
}

func (v okValidator) ValidateSubmission(kind string, payload []byte) error {
	return v.ValidateDescriptor(kind, payload)
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type payoutRecorder struct {
	mu   sync.Mutex
	args []payout.ReleasePayoutArgs
}

func (p *payoutRecorder) insert(_ context.Context, _ pgx.Tx, args payout.ReleasePayoutArgs) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.args = append(p.args, args)
	return nil
}

func validSpec() CreateCampaignSpec {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return CreateCampaignSpec{
		Title:            "Fall launch",
		Objective:        "Awareness push for the fall line",
		TotalBudget:      90_000,
		BudgetPerCreator: 30_000,
		CreatorsCount:    3,
		StartDate:        start,
		EndDate:          start.AddDate(0, 1, 0),
		Deadline:         start.AddDate(0, 1, 15),
	}
}

func testCampaign(sponsorID uuid.UUID, status models.CampaignStatus) *models.Campaign {
	spec := validSpec()
	return &models.Campaign{
		ID:               uuid.New(),
		SponsorID:        sponsorID,
		Title:            spec.Title,
		TotalBudget:      spec.TotalBudget,
		BudgetPerCreator: spec.BudgetPerCreator,
		CreatorsCount:    spec.CreatorsCount,
		StartDate:        spec.StartDate,
		EndDate:          spec.EndDate,
		Deadline:         spec.Deadline,
		Status:           status,
	}
}

func newCampaignService(store *mockCampaignStore, escrow EscrowManager, rec *payoutRecorder) *CampaignService {
	return NewCampaignService(mockPool{}, store, escrow, okValidator{bad: map[string]bool{"bogus": true}}, rec.insert, testLogger())
}

// ---------------------------------------------------------------------------
// 1. TestCreateCampaign
// ---------------------------------------------------------------------------

func TestCreateCampaignValidation(t *testing.T) {
	store := newMockCampaignStore()
	svc := newCampaignService(store, newMockEscrowManager(), &payoutRecorder{})
	sponsor := uuid.New()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateCampaignSpec)
	}{
		{"missing title", func(s *CreateCampaignSpec) { s.Title = "" }},
		{"zero budget", func(s *CreateCampaignSpec) { s.TotalBudget = 0 }},
		{"budget product exceeds total", func(s *CreateCampaignSpec) { s.BudgetPerCreator = 40_000 }},
		{"zero creators", func(s *CreateCampaignSpec) { s.CreatorsCount = 0 }},
		{"start after end", func(s *CreateCampaignSpec) { s.StartDate = s.EndDate.AddDate(0, 0, 1) }},
		{"end after deadline", func(s *CreateCampaignSpec) { s.EndDate = s.Deadline.AddDate(0, 0, 1) }},
		{"unknown deliverable kind", func(s *CreateCampaignSpec) {
			s.Deliverables = []models.Deliverable{{Kind: "bogus", Payload: []byte(`{}`)}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec()
			tc.mutate(&spec)
			if _, err := svc.Create(ctx, sponsor, spec); !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
		})
	}

	// Nothing persisted by the failed attempts.
	if n := len(store.campaigns); n != 0 {
		t.Fatalf("expected no campaigns persisted, got %d", n)
	}

	c, err := svc.Create(ctx, sponsor, validSpec())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != models.CampaignStatusDraft {
		t.Errorf("new campaign status: got %s, want DRAFT", c.Status)
	}
}

// ---------------------------------------------------------------------------
// 2. TestFund
// ---------------------------------------------------------------------------

func TestFund(t *testing.T) {
	sponsor := uuid.New()
	draft := testCampaign(sponsor, models.CampaignStatusDraft)
	store := newMockCampaignStore(draft)
	escrow := newMockEscrowManager()
	svc := newCampaignService(store, escrow, &payoutRecorder{})
	ctx := context.Background()

	// Wrong sponsor reads as not-found, not forbidden.
	if err := svc.Fund(ctx, draft.ID, uuid.New(), 90_000); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign sponsor: expected ErrNotFound, got: %v", err)
	}

	// Amount must equal the total budget.
	if err := svc.Fund(ctx, draft.ID, sponsor, 50_000); !errors.Is(err, models.ErrValidation) {
		t.Errorf("partial amount: expected ErrValidation, got: %v", err)
	}

	if err := svc.Fund(ctx, draft.ID, sponsor, 90_000); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if got := store.status(draft.ID); got != models.CampaignStatusOpen {
		t.Errorf("status after funding: got %s, want OPEN", got)
	}
	if escrow.funded[draft.ID] != 90_000 {
		t.Errorf("escrow funded: got %d, want 90000", escrow.funded[draft.ID])
	}

	// Re-funding an OPEN campaign with the identical amount is a no-op.
	if err := svc.Fund(ctx, draft.ID, sponsor, 90_000); err != nil {
		t.Fatalf("repeat Fund: %v", err)
	}

	// Funding from a later state is an invalid transition.
	ongoing := testCampaign(sponsor, models.CampaignStatusOngoing)
	store.Create(ctx, ongoing)
	err := svc.Fund(ctx, ongoing.ID, sponsor, 90_000)
	var transition *models.InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got: %v", err)
	}
	if !errors.Is(err, models.ErrState) {
		t.Error("InvalidTransitionError must unwrap to ErrState")
	}
}

// ---------------------------------------------------------------------------
// 3. TestCloseApplications / TestSubmitForReview
// ---------------------------------------------------------------------------

func TestCloseApplications(t *testing.T) {
	sponsor := uuid.New()
	open := testCampaign(sponsor, models.CampaignStatusOpen)
	store := newMockCampaignStore(open)
	svc := newCampaignService(store, newMockEscrowManager(), &payoutRecorder{})
	ctx := context.Background()

	// No creators selected yet.
	if err := svc.CloseApplications(ctx, open.ID, sponsor); !errors.Is(err, models.ErrState) {
		t.Fatalf("expected ErrState with zero selections, got: %v", err)
	}

	store.mu.Lock()
	store.campaigns[open.ID].SelectedCount = 2
	store.mu.Unlock()

	if err := svc.CloseApplications(ctx, open.ID, sponsor); err != nil {
		t.Fatalf("CloseApplications: %v", err)
	}
	if got := store.status(open.ID); got != models.CampaignStatusOngoing {
		t.Errorf("status: got %s, want ONGOING", got)
	}

	// Closing twice fails: the campaign already left OPEN.
	if err := svc.CloseApplications(ctx, open.ID, sponsor); !errors.Is(err, models.ErrState) {
		t.Errorf("expected ErrState closing twice, got: %v", err)
	}
}

func TestSubmitForReviewSoftValidation(t *testing.T) {
	sponsor := uuid.New()
	ongoing := testCampaign(sponsor, models.CampaignStatusOngoing)
	store := newMockCampaignStore(ongoing)
	svc := newCampaignService(store, newMockEscrowManager(), &payoutRecorder{})
	ctx := context.Background()

	// A submission that fails validation is flagged, never rejected.
	subs := []DeliverableSubmission{{Kind: "bogus", Payload: []byte(`{}`)}}
	if err := svc.SubmitForReview(ctx, ongoing.ID, sponsor, subs); err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if got := store.status(ongoing.ID); got != models.CampaignStatusPendingReview {
		t.Errorf("status: got %s, want PENDING_REVIEW", got)
	}
}

// ---------------------------------------------------------------------------
// 4. TestApprove / TestRelease
// ---------------------------------------------------------------------------

func TestApproveEnqueuesPayout(t *testing.T) {
	sponsor := uuid.New()
	pending := testCampaign(sponsor, models.CampaignStatusPendingReview)
	store := newMockCampaignStore(pending)
	rec := &payoutRecorder{}
	svc := newCampaignService(store, newMockEscrowManager(), rec)
	ctx := context.Background()

	if err := svc.Approve(ctx, pending.ID, sponsor); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got := store.status(pending.ID); got != models.CampaignStatusCompleted {
		t.Errorf("status: got %s, want COMPLETED", got)
	}
	if len(rec.args) != 1 || rec.args[0].CampaignID != pending.ID {
		t.Fatalf("expected one payout job for campaign %s, got %v", pending.ID, rec.args)
	}

	// Approving again fails: not PENDING_REVIEW anymore.
	var transition *models.InvalidTransitionError
	if err := svc.Approve(ctx, pending.ID, sponsor); !errors.As(err, &transition) {
		t.Errorf("expected InvalidTransitionError approving twice, got: %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	sponsor := uuid.New()
	completed := testCampaign(sponsor, models.CampaignStatusCompleted)
	store := newMockCampaignStore(completed)
	creators := []uuid.UUID{uuid.New(), uuid.New()}
	for _, c := range creators {
		store.AddSelectionTx(context.Background(), nil, completed.ID, c)
	}
	escrow := newMockEscrowManager()
	svc := newCampaignService(store, escrow, &payoutRecorder{})
	ctx := context.Background()

	if err := svc.Release(ctx, completed.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := store.status(completed.ID); got != models.CampaignStatusReleased {
		t.Errorf("status: got %s, want RELEASED", got)
	}
	if escrow.releaseCalls != 1 || len(escrow.lastCreators) != 2 || escrow.lastShare != 30_000 {
		t.Errorf("escrow release: calls=%d creators=%d share=%d, want 1/2/30000",
			escrow.releaseCalls, len(escrow.lastCreators), escrow.lastShare)
	}

	// The payout job retries; the retry must be a clean no-op.
	if err := svc.Release(ctx, completed.ID); err != nil {
		t.Fatalf("repeat Release: %v", err)
	}
	if escrow.releaseCalls != 1 {
		t.Errorf("repeat release must not touch escrow again, calls=%d", escrow.releaseCalls)
	}
}

// ---------------------------------------------------------------------------
// 5. TestCancel
// ---------------------------------------------------------------------------

func TestCancel(t *testing.T) {
	sponsor := uuid.New()
	ctx := context.Background()

	open := testCampaign(sponsor, models.CampaignStatusOpen)
	store := newMockCampaignStore(open)
	escrow := newMockEscrowManager()
	svc := newCampaignService(store, escrow, &payoutRecorder{})

	if err := svc.Cancel(ctx, open.ID, sponsor, "product recall"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := store.status(open.ID); got != models.CampaignStatusClosed {
		t.Errorf("status: got %s, want CLOSED", got)
	}
	store.mu.Lock()
	reason := store.campaigns[open.ID].CancelReason
	store.mu.Unlock()
	if reason == nil || *reason != "product recall" {
		t.Errorf("cancel reason: got %v", reason)
	}
	if escrow.refundCalls != 1 {
		t.Errorf("refund calls: got %d, want 1", escrow.refundCalls)
	}

	// A DRAFT campaign has no escrow; the not-found refund is tolerated.
	draft := testCampaign(sponsor, models.CampaignStatusDraft)
	store.Create(ctx, draft)
	escrow.refundErr = models.ErrNotFound
	if err := svc.Cancel(ctx, draft.ID, sponsor, "never launched"); err != nil {
		t.Fatalf("Cancel draft: %v", err)
	}
	if got := store.status(draft.ID); got != models.CampaignStatusClosed {
		t.Errorf("draft status: got %s, want CLOSED", got)
	}

	// Post-release cancellation is rejected.
	released := testCampaign(sponsor, models.CampaignStatusReleased)
	store.Create(ctx, released)
	var transition *models.InvalidTransitionError
	if err := svc.Cancel(ctx, released.ID, sponsor, "too late"); !errors.As(err, &transition) {
		t.Errorf("expected InvalidTransitionError cancelling RELEASED, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// 6. TestCampaignLifecycleEndToEnd
//    Real CampaignService wired to the real EscrowService over in-memory
//    stores: fund 90000, select 3 creators at 30000, approve, release.
// ---------------------------------------------------------------------------

func TestCampaignLifecycleEndToEnd(t *testing.T) {
	sponsor := uuid.New()
	draft := testCampaign(sponsor, models.CampaignStatusDraft)
	store := newMockCampaignStore(draft)

	wallets := newMockWalletRepo()
	sponsorWallet := wallets.addAccountWallet(sponsor)
	ledger := &mockLedger{}
	ledger.seedDeposit(sponsorWallet, 90_000)
	escrow := NewEscrowService(newMockEscrowStore(), wallets, ledger)

	rec := &payoutRecorder{}
	svc := NewCampaignService(mockPool{}, store, escrow, okValidator{}, rec.insert, testLogger())
	ctx := context.Background()

	if err := svc.Fund(ctx, draft.ID, sponsor, 90_000); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	creators := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	creatorWallets := make([]uuid.UUID, len(creators))
	for i, c := range creators {
		creatorWallets[i] = wallets.addAccountWallet(c)
		if ok, _ := store.ReserveSlotTx(ctx, nil, draft.ID); !ok {
			t.Fatalf("slot %d not reserved", i)
		}
		store.AddSelectionTx(ctx, nil, draft.ID, c)
	}

	if err := svc.CloseApplications(ctx, draft.ID, sponsor); err != nil {
		t.Fatalf("CloseApplications: %v", err)
	}
	if err := svc.SubmitForReview(ctx, draft.ID, sponsor, nil); err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if err := svc.Approve(ctx, draft.ID, sponsor); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if len(rec.args) != 1 {
		t.Fatalf("expected one enqueued payout job, got %d", len(rec.args))
	}

	// The worker runs the job.
	if err := svc.Release(ctx, rec.args[0].CampaignID); err != nil {
		t.Fatalf("Release: %v", err)
	}

	for i, w := range creatorWallets {
		if got := ledger.balance(w); got != 30_000 {
			t.Errorf("creator %d balance: got %d, want 30000", i, got)
		}
	}
	if got := ledger.balance(sponsorWallet); got != 0 {
		t.Errorf("sponsor balance: got %d, want 0", got)
	}
	if got := store.status(draft.ID); got != models.CampaignStatusReleased {
		t.Errorf("final status: got %s, want RELEASED", got)
	}
}
