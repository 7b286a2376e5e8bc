package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorbridge/backend/internal/models"
)

type EscrowRepo struct {
	pool *pgxpool.Pool
}

func NewEscrowRepo(pool *pgxpool.Pool) *EscrowRepo {
	return &EscrowRepo{pool: pool}
}

const escrowColumns = `id, campaign_id, wallet_id, funded_amount, released_amount, refunded_amount, status, created_at, updated_at`

func scanEscrow(row pgx.Row) (*models.EscrowAccount, error) {
	var e models.EscrowAccount
	err := row.Scan(&e.ID, &e.CampaignID, &e.WalletID, &e.FundedAmount, &e.ReleasedAmount, &e.RefundedAmount, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EscrowRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.EscrowAccount) error {
	return tx.QueryRow(ctx, `
		INSERT INTO escrow_accounts (id, campaign_id, wallet_id, funded_amount, released_amount, refunded_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, e.ID, e.CampaignID, e.WalletID, e.FundedAmount, e.ReleasedAmount, e.RefundedAmount, e.Status).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *EscrowRepo) GetByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.EscrowAccount, error) {
	return scanEscrow(r.pool.QueryRow(ctx, `
		SELECT `+escrowColumns+` FROM escrow_accounts WHERE campaign_id = $1
	`, campaignID))
}

// GetByCampaignIDForUpdate locks the escrow row, serializing fund, release
// and refund for one campaign. Call within a transaction.
func (r *EscrowRepo) GetByCampaignIDForUpdate(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) (*models.EscrowAccount, error) {
	return scanEscrow(tx.QueryRow(ctx, `
		SELECT `+escrowColumns+` FROM escrow_accounts WHERE campaign_id = $1 FOR UPDATE
	`, campaignID))
}

// UpdateAmountsTx persists new released/refunded totals and status. Call after
// GetByCampaignIDForUpdate in the same transaction.
func (r *EscrowRepo) UpdateAmountsTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, released, refunded int64, status models.EscrowStatus) error {
	_, err := tx.Exec(ctx, `
		UPDATE escrow_accounts SET released_amount = $2, refunded_amount = $3, status = $4, updated_at = now()
		WHERE id = $1
	`, id, released, refunded, status)
	return err
}
