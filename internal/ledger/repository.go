package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorbridge/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AppendTx inserts one COMPLETED ledger entry inside the caller's
// transaction. Entries are append-only: there is no update path anywhere in
// this package.
func (r *Repository) AppendTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	if e.Status == "" {
		e.Status = models.LedgerStatusCompleted
	}
	return tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (id, wallet_id, campaign_id, kind, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.WalletID, e.CampaignID, e.Kind, e.Amount, e.Status).Scan(&e.CreatedAt)
}

// AppendPairTx writes a debit and its matching credit as one unit. The
// amounts must cancel out; the caller's transaction makes the pair atomic.
func (r *Repository) AppendPairTx(ctx context.Context, tx pgx.Tx, debit, credit *models.LedgerEntry) error {
	if debit.Amount+credit.Amount != 0 {
		return fmt.Errorf("%w: ledger pair amounts %d and %d do not cancel", models.ErrValidation, debit.Amount, credit.Amount)
	}
	if err := r.AppendTx(ctx, tx, debit); err != nil {
		return err
	}
	return r.AppendTx(ctx, tx, credit)
}

// Balance projects the wallet balance from COMPLETED entries.
func (r *Repository) Balance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE wallet_id = $1 AND status = 'COMPLETED'
	`, walletID).Scan(&total)
	return total, err
}

// BalanceTx is Balance inside the caller's transaction. Take the wallet row
// lock first so the projection cannot race a concurrent paired write.
func (r *Repository) BalanceTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (int64, error) {
	var total int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE wallet_id = $1 AND status = 'COMPLETED'
	`, walletID).Scan(&total)
	return total, err
}

// ListByWallet returns the wallet's entries in append order.
func (r *Repository) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, wallet_id, campaign_id, kind, amount, status, created_at
		FROM ledger_entries WHERE wallet_id = $1 ORDER BY created_at, id
	`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.CampaignID, &e.Kind, &e.Amount, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
