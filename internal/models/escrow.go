package models

import (
	"time"

	"github.com/google/uuid"
)

type EscrowStatus string

const (
	EscrowStatusPending   EscrowStatus = "PENDING"
	EscrowStatusFunded    EscrowStatus = "FUNDED"
	EscrowStatusOngoing   EscrowStatus = "ONGOING"
	EscrowStatusCompleted EscrowStatus = "COMPLETED"
	EscrowStatusReleased  EscrowStatus = "RELEASED"
)

// EscrowAccount holds a campaign's funds between funding and payout.
// ReleasedAmount + RefundedAmount never exceeds FundedAmount. The account
// owns a wallet so every movement has a ledger entry on both sides.
type EscrowAccount struct {
	ID             uuid.UUID    `json:"id"`
	CampaignID     uuid.UUID    `json:"campaign_id"`
	WalletID       uuid.UUID    `json:"wallet_id"`
	FundedAmount   int64        `json:"funded_amount"`
	ReleasedAmount int64        `json:"released_amount"`
	RefundedAmount int64        `json:"refunded_amount"`
	Status         EscrowStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
