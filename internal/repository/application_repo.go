package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorbridge/backend/internal/models"
)

type ApplicationRepo struct {
	pool *pgxpool.Pool
}

func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

const applicationColumns = `id, campaign_id, creator_id, status, submitted_at, decided_at`

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	err := row.Scan(&a.ID, &a.CampaignID, &a.CreatorID, &a.Status, &a.SubmittedAt, &a.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a PENDING application. The unique index on
// (campaign_id, creator_id) turns a second application into
// ErrDuplicateApplication.
func (r *ApplicationRepo) Create(ctx context.Context, a *models.Application) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO applications (id, campaign_id, creator_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING submitted_at
	`, a.ID, a.CampaignID, a.CreatorID, a.Status).Scan(&a.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrDuplicateApplication
		}
		return err
	}
	return nil
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return scanApplication(r.pool.QueryRow(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE id = $1
	`, id))
}

// DecideTx flips a PENDING application to its final status. Returns false if
// the application was already decided (zero rows updated) — decisions are
// immutable.
func (r *ApplicationRepo) DecideTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.ApplicationStatus, decidedAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE applications SET status = $2, decided_at = $3
		WHERE id = $1 AND status = 'PENDING'
	`, id, status, decidedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ApplicationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.Application, error) {
	return r.list(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE campaign_id = $1 ORDER BY submitted_at
	`, campaignID)
}

func (r *ApplicationRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Application, error) {
	return r.list(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE creator_id = $1 ORDER BY submitted_at DESC
	`, creatorID)
}

func (r *ApplicationRepo) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
