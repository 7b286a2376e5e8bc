package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorbridge/backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func (r *WalletRepo) Create(ctx context.Context, w *models.Wallet) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO wallets (id, account_id, is_escrow) VALUES ($1, $2, $3)
		RETURNING created_at
	`, w.ID, w.AccountID, w.IsEscrow).Scan(&w.CreatedAt)
}

// CreateTx inserts a wallet inside the caller's transaction (escrow wallets
// are created together with the escrow account).
func (r *WalletRepo) CreateTx(ctx context.Context, tx pgx.Tx, w *models.Wallet) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallets (id, account_id, is_escrow) VALUES ($1, $2, $3)
		RETURNING created_at
	`, w.ID, w.AccountID, w.IsEscrow).Scan(&w.CreatedAt)
}

func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, account_id, is_escrow, created_at FROM wallets WHERE id = $1
	`, id))
}

func (r *WalletRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Wallet, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, account_id, is_escrow, created_at FROM wallets
		WHERE account_id = $1 AND is_escrow = false
	`, accountID))
}

// LockTx takes the wallet row lock. Balance reads and paired writes under
// this lock are serialized per wallet.
func (r *WalletRepo) LockTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var got uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM wallets WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func (r *WalletRepo) scanOne(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.AccountID, &w.IsEscrow, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}
