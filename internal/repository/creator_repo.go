package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorbridge/backend/internal/models"
)

type CreatorRepo struct {
	pool *pgxpool.Pool
}

func NewCreatorRepo(pool *pgxpool.Pool) *CreatorRepo {
	return &CreatorRepo{pool: pool}
}

const creatorColumns = `creator_id, display_name, email, niche_tags, state, city, follower_count, engagement_rate, starting_price, avg_budget, deal_type, verified, created_at, updated_at`

func scanCreator(row pgx.Row) (*models.CreatorProfile, error) {
	var p models.CreatorProfile
	err := row.Scan(&p.CreatorID, &p.DisplayName, &p.Email, &p.NicheTags, &p.State, &p.City, &p.FollowerCount, &p.EngagementRate, &p.StartingPrice, &p.AvgBudget, &p.DealType, &p.Verified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert writes the profile for a creator account, replacing any previous one.
func (r *CreatorRepo) Upsert(ctx context.Context, p *models.CreatorProfile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO creator_profiles (creator_id, display_name, email, niche_tags, state, city, follower_count, engagement_rate, starting_price, avg_budget, deal_type, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (creator_id) DO UPDATE SET
			display_name = EXCLUDED.display_name, email = EXCLUDED.email,
			niche_tags = EXCLUDED.niche_tags, state = EXCLUDED.state, city = EXCLUDED.city,
			follower_count = EXCLUDED.follower_count, engagement_rate = EXCLUDED.engagement_rate,
			starting_price = EXCLUDED.starting_price, avg_budget = EXCLUDED.avg_budget,
			deal_type = EXCLUDED.deal_type, verified = EXCLUDED.verified, updated_at = now()
		RETURNING created_at, updated_at
	`, p.CreatorID, p.DisplayName, p.Email, p.NicheTags, p.State, p.City, p.FollowerCount, p.EngagementRate, p.StartingPrice, p.AvgBudget, p.DealType, p.Verified).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *CreatorRepo) GetByCreatorID(ctx context.Context, creatorID uuid.UUID) (*models.CreatorProfile, error) {
	return scanCreator(r.pool.QueryRow(ctx, `
		SELECT `+creatorColumns+` FROM creator_profiles WHERE creator_id = $1
	`, creatorID))
}

// ListCatalog returns the full catalog snapshot in insertion order. Search
// filtering happens in memory so its predicate semantics stay storage-agnostic.
func (r *CreatorRepo) ListCatalog(ctx context.Context) ([]*models.CreatorProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+creatorColumns+` FROM creator_profiles ORDER BY created_at, creator_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.CreatorProfile
	for rows.Next() {
		p, err := scanCreator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
