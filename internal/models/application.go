package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus values. Applications are immutable once decided: there is
// no transition out of APPROVED or REJECTED.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// Application is a creator's request to join a campaign. At most one exists
// per (CampaignID, CreatorID) pair.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	CampaignID  uuid.UUID         `json:"campaign_id"`
	CreatorID   uuid.UUID         `json:"creator_id"`
	Status      ApplicationStatus `json:"status"`
	SubmittedAt time.Time         `json:"submitted_at"`
	DecidedAt   *time.Time        `json:"decided_at,omitempty"`
}
