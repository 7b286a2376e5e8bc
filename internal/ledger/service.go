package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/creatorbridge/backend/internal/models"
)

// Service is the Ledger Store surface the rest of the backend depends on.
// It carries no business rules; escrow policy lives in the escrow service.
type Service interface {
	AppendTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
	AppendPairTx(ctx context.Context, tx pgx.Tx, debit, credit *models.LedgerEntry) error
	Balance(ctx context.Context, walletID uuid.UUID) (int64, error)
	BalanceTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (int64, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.LedgerEntry, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) AppendTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	return s.repo.AppendTx(ctx, tx, e)
}

func (s *service) AppendPairTx(ctx context.Context, tx pgx.Tx, debit, credit *models.LedgerEntry) error {
	return s.repo.AppendPairTx(ctx, tx, debit, credit)
}

func (s *service) Balance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	return s.repo.Balance(ctx, walletID)
}

func (s *service) BalanceTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (int64, error) {
	return s.repo.BalanceTx(ctx, tx, walletID)
}

func (s *service) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.LedgerEntry, error) {
	return s.repo.ListByWallet(ctx, walletID)
}
