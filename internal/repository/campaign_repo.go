package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorbridge/backend/internal/models"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

const campaignColumns = `id, sponsor_id, title, objective, total_budget, budget_per_creator, creators_count, selected_count, start_date, end_date, deadline, deliverables, status, cancel_reason, created_at, updated_at`

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	var deliverables []byte
	err := row.Scan(&c.ID, &c.SponsorID, &c.Title, &c.Objective, &c.TotalBudget, &c.BudgetPerCreator, &c.CreatorsCount, &c.SelectedCount, &c.StartDate, &c.EndDate, &c.Deadline, &deliverables, &c.Status, &c.CancelReason, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if len(deliverables) > 0 {
		if err := json.Unmarshal(deliverables, &c.Deliverables); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	deliverables, err := json.Marshal(c.Deliverables)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (id, sponsor_id, title, objective, total_budget, budget_per_creator, creators_count, selected_count, start_date, end_date, deadline, deliverables, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, c.ID, c.SponsorID, c.Title, c.Objective, c.TotalBudget, c.BudgetPerCreator, c.CreatorsCount, c.SelectedCount, c.StartDate, c.EndDate, c.Deadline, deliverables, c.Status).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+` FROM campaigns WHERE id = $1
	`, id))
}

// GetByIDForUpdate locks the campaign row. Call within a transaction.
func (r *CampaignRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(tx.QueryRow(ctx, `
		SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE
	`, id))
}

// TransitionTx moves the campaign from one status to another only if it is
// still in the expected status. Returns false when another caller got there
// first (zero rows updated).
func (r *CampaignRepo) TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to models.CampaignStatus) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE campaigns SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetCancelReasonTx records why a campaign was closed.
func (r *CampaignRepo) SetCancelReasonTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	_, err := tx.Exec(ctx, `
		UPDATE campaigns SET cancel_reason = $2, updated_at = now() WHERE id = $1
	`, id, reason)
	return err
}

// ReserveSlotTx atomically claims one selection slot: the increment only
// lands while the campaign is OPEN and below capacity. Returns false when no
// slot was available at commit time.
func (r *CampaignRepo) ReserveSlotTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE campaigns SET selected_count = selected_count + 1, updated_at = now()
		WHERE id = $1 AND selected_count < creators_count AND status = 'OPEN'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AddSelectionTx records an approved creator for the campaign.
func (r *CampaignRepo) AddSelectionTx(ctx context.Context, tx pgx.Tx, campaignID, creatorID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO campaign_selections (campaign_id, creator_id) VALUES ($1, $2)
	`, campaignID, creatorID)
	return err
}

// ListSelections returns the selected creator ids in selection order.
func (r *CampaignRepo) ListSelections(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT creator_id FROM campaign_selections WHERE campaign_id = $1 ORDER BY selected_at
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSelectionsTx is ListSelections inside the caller's transaction, used by
// escrow release so the share list and the slot count read consistently.
func (r *CampaignRepo) ListSelectionsTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
		SELECT creator_id FROM campaign_selections WHERE campaign_id = $1 ORDER BY selected_at
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *CampaignRepo) ListBySponsor(ctx context.Context, sponsorID uuid.UUID, status models.CampaignStatus) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE sponsor_id = $1`
	args := []any{sponsorID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *CampaignRepo) ListByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.Campaign, error) {
	return r.list(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE status = $1 ORDER BY created_at DESC`, status)
}

// ListByApplicant returns campaigns the creator has applied to, optionally
// filtered by campaign status.
func (r *CampaignRepo) ListByApplicant(ctx context.Context, creatorID uuid.UUID, status models.CampaignStatus) ([]*models.Campaign, error) {
	query := `
		SELECT ` + qualifyCampaignColumns("c") + `
		FROM campaigns c
		JOIN applications a ON a.campaign_id = c.id
		WHERE a.creator_id = $1`
	args := []any{creatorID}
	if status != "" {
		query += ` AND c.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY c.created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *CampaignRepo) list(ctx context.Context, query string, args ...any) ([]*models.Campaign, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func qualifyCampaignColumns(alias string) string {
	return alias + `.id, ` + alias + `.sponsor_id, ` + alias + `.title, ` + alias + `.objective, ` + alias + `.total_budget, ` + alias + `.budget_per_creator, ` + alias + `.creators_count, ` + alias + `.selected_count, ` + alias + `.start_date, ` + alias + `.end_date, ` + alias + `.deadline, ` + alias + `.deliverables, ` + alias + `.status, ` + alias + `.cancel_reason, ` + alias + `.created_at, ` + alias + `.updated_at`
}
