package services

import (
	"context"
	"sort"
	"strings"

	"github.com/creatorbridge/backend/internal/models"
)

// CreatorCatalog supplies the read-only profile snapshot Search runs over.
type CreatorCatalog interface {
	ListCatalog(ctx context.Context) ([]*models.CreatorProfile, error)
}

// Matcher evaluates filter specs over the creator catalog.
type Matcher struct {
	Creators CreatorCatalog
}

func NewMatcher(creators CreatorCatalog) *Matcher {
	return &Matcher{Creators: creators}
}

// SearchCatalog fetches the current catalog snapshot and filters it.
func (m *Matcher) SearchCatalog(ctx context.Context, f models.FilterSpec) ([]*models.CreatorProfile, error) {
	catalog, err := m.Creators.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return Search(catalog, f), nil
}

// Search is a pure function of its inputs: all predicates AND-combine, an
// absent field constrains nothing, and results keep catalog order. Calling it
// twice with the same inputs yields identical output. Ranking is a separate
// pass (RankByEngagement), never mixed into predicate evaluation.
func Search(catalog []*models.CreatorProfile, f models.FilterSpec) []*models.CreatorProfile {
	var out []*models.CreatorProfile
	for _, p := range catalog {
		if !matchesText(p, f.Query) {
			continue
		}
		if !matchesLocation(p, f.State, f.City) {
			continue
		}
		if !matchesDealType(p, f.DealType) {
			continue
		}
		if !matchesFollowerRange(p, f.FollowerMinK, f.FollowerMaxK) {
			continue
		}
		if !matchesBudgetRange(p, f.BudgetMin, f.BudgetMax) {
			continue
		}
		if f.VerifiedOnly && !p.Verified {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesText does case-insensitive substring matching against display name
// or email, OR any niche tag.
func matchesText(p *models.CreatorProfile, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.DisplayName), q) || strings.Contains(strings.ToLower(p.Email), q) {
		return true
	}
	for _, tag := range p.NicheTags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func matchesLocation(p *models.CreatorProfile, state, city string) bool {
	if state != "" && !strings.EqualFold(p.State, state) {
		return false
	}
	if city != "" && !strings.EqualFold(p.City, city) {
		return false
	}
	return true
}

// matchesDealType: filtering on BOTH matches everyone; a specific filter
// matches profiles offering that type or both.
func matchesDealType(p *models.CreatorProfile, want *models.DealType) bool {
	if want == nil || *want == models.DealTypeBoth {
		return true
	}
	return p.DealType == *want || p.DealType == models.DealTypeBoth
}

// matchesFollowerRange treats bounds as thousands, inclusive. A missing
// follower count counts as zero.
func matchesFollowerRange(p *models.CreatorProfile, minK, maxK *int64) bool {
	followers := p.FollowerCount
	if followers < 0 {
		followers = 0
	}
	if minK != nil && followers < *minK*1000 {
		return false
	}
	if maxK != nil && followers > *maxK*1000 {
		return false
	}
	return true
}

// matchesBudgetRange uses AvgBudget when present, else StartingPrice,
// defaulting to zero. Bounds are inclusive.
func matchesBudgetRange(p *models.CreatorProfile, min, max *int64) bool {
	budget := p.StartingPrice
	if p.AvgBudget != nil {
		budget = *p.AvgBudget
	}
	if budget < 0 {
		budget = 0
	}
	if min != nil && budget < *min {
		return false
	}
	if max != nil && budget > *max {
		return false
	}
	return true
}

// RankByEngagement is the explicit scoring pass: highest engagement rate
// first, stable so catalog order breaks ties. It copies rather than reorders
// the filtered slice.
func RankByEngagement(results []*models.CreatorProfile) []*models.CreatorProfile {
	ranked := make([]*models.CreatorProfile, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EngagementRate > ranked[j].EngagementRate
	})
	return ranked
}
