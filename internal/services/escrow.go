package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/creatorbridge/backend/internal/models"
)

// EscrowStore is the minimal escrow-account repository interface.
type EscrowStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.EscrowAccount) error
	GetByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.EscrowAccount, error)
	GetByCampaignIDForUpdate(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) (*models.EscrowAccount, error)
	UpdateAmountsTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, released, refunded int64, status models.EscrowStatus) error
}

// EscrowWalletRepo resolves and creates the wallets escrow moves money between.
type EscrowWalletRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, w *models.Wallet) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Wallet, error)
	LockTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// EscrowLedger is the ledger surface escrow writes through.
type EscrowLedger interface {
	AppendPairTx(ctx context.Context, tx pgx.Tx, debit, credit *models.LedgerEntry) error
	BalanceTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (int64, error)
}

// EscrowService owns per-campaign escrow accounts. Every operation runs in
// the caller's transaction and serializes on row locks, so a campaign's
// funds move under mutual exclusion: release and refund can never interleave.
type EscrowService struct {
	Escrows EscrowStore
	Wallets EscrowWalletRepo
	Ledger  EscrowLedger
}

func NewEscrowService(escrows EscrowStore, wallets EscrowWalletRepo, ledger EscrowLedger) *EscrowService {
	return &EscrowService{Escrows: escrows, Wallets: wallets, Ledger: ledger}
}

// OpenAndFund creates the campaign's escrow account and moves amount from the
// sponsor wallet into it as one ESCROW_LOCK pair. Calling it again for a
// campaign already funded with the same amount is a no-op; a different amount
// is a validation error.
func (s *EscrowService) OpenAndFund(ctx context.Context, tx pgx.Tx, campaignID, sponsorID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: escrow amount must be positive", models.ErrValidation)
	}

	existing, err := s.Escrows.GetByCampaignIDForUpdate(ctx, tx, campaignID)
	if err == nil {
		if existing.FundedAmount == amount {
			return nil
		}
		return fmt.Errorf("%w: campaign already funded with %d", models.ErrValidation, existing.FundedAmount)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	sponsorWallet, err := s.Wallets.GetByAccountID(ctx, sponsorID)
	if err != nil {
		return err
	}
	if err := s.Wallets.LockTx(ctx, tx, sponsorWallet.ID); err != nil {
		return err
	}
	balance, err := s.Ledger.BalanceTx(ctx, tx, sponsorWallet.ID)
	if err != nil {
		return err
	}
	if balance < amount {
		return models.ErrInsufficientFunds
	}

	escrowWallet := &models.Wallet{ID: uuid.New(), AccountID: sponsorID, IsEscrow: true}
	if err := s.Wallets.CreateTx(ctx, tx, escrowWallet); err != nil {
		return err
	}

	cid := campaignID
	if err := s.Ledger.AppendPairTx(ctx, tx,
		&models.LedgerEntry{ID: uuid.New(), WalletID: sponsorWallet.ID, CampaignID: &cid, Kind: models.LedgerKindEscrowLock, Amount: -amount},
		&models.LedgerEntry{ID: uuid.New(), WalletID: escrowWallet.ID, CampaignID: &cid, Kind: models.LedgerKindEscrowLock, Amount: amount},
	); err != nil {
		return err
	}

	return s.Escrows.CreateTx(ctx, tx, &models.EscrowAccount{
		ID:           uuid.New(),
		CampaignID:   campaignID,
		WalletID:     escrowWallet.ID,
		FundedAmount: amount,
		Status:       models.EscrowStatusFunded,
	})
}

// ReleaseAll pays budgetPerCreator to each selected creator and returns any
// unallocated remainder to the sponsor, draining the escrow to zero. Safe to
// retry: once the account is RELEASED further calls are no-ops.
func (s *EscrowService) ReleaseAll(ctx context.Context, tx pgx.Tx, campaignID, sponsorID uuid.UUID, budgetPerCreator int64, creatorIDs []uuid.UUID) error {
	e, err := s.Escrows.GetByCampaignIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if e.Status == models.EscrowStatusReleased {
		return nil
	}

	unreleased := e.FundedAmount - e.ReleasedAmount - e.RefundedAmount
	total := budgetPerCreator * int64(len(creatorIDs))
	if total > unreleased {
		return fmt.Errorf("%w: release total %d exceeds unreleased balance %d", models.ErrValidation, total, unreleased)
	}

	cid := campaignID
	for _, creatorID := range creatorIDs {
		creatorWallet, err := s.Wallets.GetByAccountID(ctx, creatorID)
		if err != nil {
			return err
		}
		if err := s.Ledger.AppendPairTx(ctx, tx,
			&models.LedgerEntry{ID: uuid.New(), WalletID: e.WalletID, CampaignID: &cid, Kind: models.LedgerKindEscrowRelease, Amount: -budgetPerCreator},
			&models.LedgerEntry{ID: uuid.New(), WalletID: creatorWallet.ID, CampaignID: &cid, Kind: models.LedgerKindEscrowRelease, Amount: budgetPerCreator},
		); err != nil {
			return err
		}
	}

	// Unallocated budget goes back to the sponsor, never redistributed to
	// the selected creators.
	if remainder := unreleased - total; remainder > 0 {
		sponsorWallet, err := s.Wallets.GetByAccountID(ctx, sponsorID)
		if err != nil {
			return err
		}
		if err := s.Ledger.AppendPairTx(ctx, tx,
			&models.LedgerEntry{ID: uuid.New(), WalletID: e.WalletID, CampaignID: &cid, Kind: models.LedgerKindEscrowRelease, Amount: -remainder},
			&models.LedgerEntry{ID: uuid.New(), WalletID: sponsorWallet.ID, CampaignID: &cid, Kind: models.LedgerKindEscrowRelease, Amount: remainder},
		); err != nil {
			return err
		}
	}

	released := e.ReleasedAmount + unreleased
	return s.Escrows.UpdateAmountsTx(ctx, tx, e.ID, released, e.RefundedAmount, models.EscrowStatusReleased)
}

// Refund moves the funded-but-unreleased balance back to the sponsor wallet.
// Rejected once any release has begun; refunding twice moves zero the second
// time.
func (s *EscrowService) Refund(ctx context.Context, tx pgx.Tx, campaignID, sponsorID uuid.UUID) error {
	e, err := s.Escrows.GetByCampaignIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return err
	}
	if e.ReleasedAmount > 0 {
		return fmt.Errorf("%w: escrow release already begun", models.ErrState)
	}
	remaining := e.FundedAmount - e.RefundedAmount
	if remaining == 0 {
		return nil
	}

	sponsorWallet, err := s.Wallets.GetByAccountID(ctx, sponsorID)
	if err != nil {
		return err
	}
	cid := campaignID
	if err := s.Ledger.AppendPairTx(ctx, tx,
		&models.LedgerEntry{ID: uuid.New(), WalletID: e.WalletID, CampaignID: &cid, Kind: models.LedgerKindEscrowRefund, Amount: -remaining},
		&models.LedgerEntry{ID: uuid.New(), WalletID: sponsorWallet.ID, CampaignID: &cid, Kind: models.LedgerKindEscrowRefund, Amount: remaining},
	); err != nil {
		return err
	}

	return s.Escrows.UpdateAmountsTx(ctx, tx, e.ID, e.ReleasedAmount, e.RefundedAmount+remaining, e.Status)
}

// Status returns the escrow projection for dashboards.
func (s *EscrowService) Status(ctx context.Context, campaignID uuid.UUID) (*models.EscrowAccount, error) {
	return s.Escrows.GetByCampaignID(ctx, campaignID)
}
