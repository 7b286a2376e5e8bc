package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry kinds.
const (
	LedgerKindDeposit       = "DEPOSIT"
	LedgerKindEscrowLock    = "ESCROW_LOCK"
	LedgerKindEscrowRelease = "ESCROW_RELEASE"
	LedgerKindEscrowRefund  = "ESCROW_REFUND"
	LedgerKindWithdrawal    = "WITHDRAWAL"
	LedgerKindFee           = "FEE"
)

// Ledger entry statuses. An entry never changes after reaching COMPLETED or
// FAILED; a wallet balance is the sum of its COMPLETED amounts.
const (
	LedgerStatusPending   = "PENDING"
	LedgerStatusCompleted = "COMPLETED"
	LedgerStatusFailed    = "FAILED"
)

// LedgerEntry is one append-only monetary movement. Amount is signed: a debit
// is negative on the paying wallet, the matching credit positive on the
// receiving wallet.
type LedgerEntry struct {
	ID         uuid.UUID  `json:"id"`
	WalletID   uuid.UUID  `json:"wallet_id"`
	CampaignID *uuid.UUID `json:"campaign_id,omitempty"`
	Kind       string     `json:"kind"`
	Amount     int64      `json:"amount"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Wallet is a money container for an account or an escrow. Its balance is
// derived from the ledger, never stored.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	IsEscrow  bool      `json:"is_escrow"`
	CreatedAt time.Time `json:"created_at"`
}
