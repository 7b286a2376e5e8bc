package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/creatorbridge/backend/internal/models"
)

// DepositLedger is the ledger surface deposits write through.
type DepositLedger interface {
	AppendTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
}

// DepositService credits wallets from an external payment source. A deposit
// is the one single-sided entry kind: its counterparty is off-platform.
type DepositService struct {
	Pool   TxBeginner
	Ledger DepositLedger
}

func NewDepositService(pool TxBeginner, ledger DepositLedger) *DepositService {
	return &DepositService{Pool: pool, Ledger: ledger}
}

func (s *DepositService) Deposit(ctx context.Context, walletID uuid.UUID, amount int64) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", models.ErrValidation)
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry := &models.LedgerEntry{
		ID:       uuid.New(),
		WalletID: walletID,
		Kind:     models.LedgerKindDeposit,
		Amount:   amount,
	}
	if err := s.Ledger.AppendTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}
