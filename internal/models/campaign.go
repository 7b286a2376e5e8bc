package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the campaign lifecycle state. Transitions are enforced
// through CanTransition; persisted values never leave this set.
type CampaignStatus string

const (
	CampaignStatusDraft         CampaignStatus = "DRAFT"
	CampaignStatusPending       CampaignStatus = "PENDING"
	CampaignStatusOpen          CampaignStatus = "OPEN"
	CampaignStatusOngoing       CampaignStatus = "ONGOING"
	CampaignStatusPendingReview CampaignStatus = "PENDING_REVIEW"
	CampaignStatusCompleted     CampaignStatus = "COMPLETED"
	CampaignStatusReleased      CampaignStatus = "RELEASED"
	CampaignStatusClosed        CampaignStatus = "CLOSED"
)

// campaignTransitions is the single source of truth for the lifecycle.
// DRAFT → PENDING → OPEN → ONGOING → PENDING_REVIEW → COMPLETED → RELEASED → CLOSED,
// with a cancellation branch from DRAFT/PENDING/OPEN/ONGOING to CLOSED.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:         {CampaignStatusPending, CampaignStatusOpen, CampaignStatusClosed},
	CampaignStatusPending:       {CampaignStatusOpen, CampaignStatusClosed},
	CampaignStatusOpen:          {CampaignStatusOngoing, CampaignStatusClosed},
	CampaignStatusOngoing:       {CampaignStatusPendingReview, CampaignStatusClosed},
	CampaignStatusPendingReview: {CampaignStatusCompleted},
	CampaignStatusCompleted:     {CampaignStatusReleased},
	CampaignStatusReleased:      {CampaignStatusClosed},
	CampaignStatusClosed:        {},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another. Unknown statuses permit nothing.
func CanTransition(from, to CampaignStatus) bool {
	for _, next := range campaignTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Deliverable is one ordered work item a campaign asks of its creators.
// Payload is validated against the kind's schema on campaign creation.
type Deliverable struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type Campaign struct {
	ID               uuid.UUID      `json:"id"`
	SponsorID        uuid.UUID      `json:"sponsor_id"`
	Title            string         `json:"title"`
	Objective        string         `json:"objective"`
	TotalBudget      int64          `json:"total_budget"`
	BudgetPerCreator int64          `json:"budget_per_creator"`
	CreatorsCount    int            `json:"creators_count"`
	SelectedCount    int            `json:"selected_count"`
	StartDate        time.Time      `json:"start_date"`
	EndDate          time.Time      `json:"end_date"`
	Deadline         time.Time      `json:"deadline"`
	Deliverables     []Deliverable  `json:"deliverables"`
	Status           CampaignStatus `json:"status"`
	CancelReason     *string        `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
