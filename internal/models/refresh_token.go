package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a stored refresh token. Only the SHA-256 hash of the token
// ever touches the database.
type RefreshToken struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	AccountID   uuid.UUID  `json:"account_id" db:"account_id"`
	AccountType string     `json:"account_type" db:"account_type"` // "user" or "admin"
	TokenHash   string     `json:"-" db:"token_hash"`
	IPAddress   NullString `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent   NullString `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	LastUsedAt  NullTime   `json:"last_used_at,omitempty" db:"last_used_at"`
	Revoked     bool       `json:"revoked" db:"revoked"`
	RevokedAt   NullTime   `json:"revoked_at,omitempty" db:"revoked_at"`
}
