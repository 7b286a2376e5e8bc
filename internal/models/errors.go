package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all services. Every operation either commits its
// whole state transition or returns one of these with no side effect.
var (
	ErrValidation           = errors.New("validation failed")
	ErrState                = errors.New("operation not valid for current state")
	ErrCapacityExceeded     = errors.New("campaign is full")
	ErrDuplicateApplication = errors.New("already applied to this campaign")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNotFound             = errors.New("not found")
)

// InvalidTransitionError reports a lifecycle transition attempted from a
// state that does not permit it. It unwraps to ErrState so callers can treat
// both uniformly.
type InvalidTransitionError struct {
	From      CampaignStatus
	Attempted CampaignStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.Attempted)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrState }
