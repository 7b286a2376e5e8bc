package models

import (
	"time"

	"github.com/google/uuid"
)

// DealType is how a creator accepts compensation.
type DealType string

const (
	DealTypeBarter DealType = "BARTER"
	DealTypePaid   DealType = "PAID"
	DealTypeBoth   DealType = "BOTH"
)

// CreatorProfile is a read-mostly catalog entry consumed by creator search.
type CreatorProfile struct {
	CreatorID      uuid.UUID `json:"creator_id"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	NicheTags      []string  `json:"niche_tags"`
	State          string    `json:"state"`
	City           string    `json:"city"`
	FollowerCount  int64     `json:"follower_count"`
	EngagementRate float64   `json:"engagement_rate"`
	StartingPrice  int64     `json:"starting_price"`
	AvgBudget      *int64    `json:"avg_budget,omitempty"`
	DealType       DealType  `json:"deal_type"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FilterSpec describes creator-search constraints. A nil or zero field means
// "no constraint". Follower bounds are in thousands.
type FilterSpec struct {
	Query        string    `json:"query,omitempty"`
	State        string    `json:"state,omitempty"`
	City         string    `json:"city,omitempty"`
	DealType     *DealType `json:"deal_type,omitempty"`
	FollowerMinK *int64    `json:"follower_min_k,omitempty"`
	FollowerMaxK *int64    `json:"follower_max_k,omitempty"`
	BudgetMin    *int64    `json:"budget_min,omitempty"`
	BudgetMax    *int64    `json:"budget_max,omitempty"`
	VerifiedOnly bool      `json:"verified_only,omitempty"`
}
