package models

import (
	"time"

	"github.com/google/uuid"
)

// Account roles. A sponsor funds campaigns; a creator applies to them.
const (
	RoleSponsor = "sponsor"
	RoleCreator = "creator"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Company      string    `json:"company,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
