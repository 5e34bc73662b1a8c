package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the admin verification axis of a registration
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Registration is a user's claim on one competition. A user holds at most
// one registration across all competitions (unique index on user_id).
type Registration struct {
	ID                     uuid.UUID          `json:"id" db:"id"`
	UserID                 uuid.UUID          `json:"user_id" db:"user_id"`
	CompetitionID          uuid.UUID          `json:"competition_id" db:"competition_id"`
	TeamID                 uuid.UUID          `json:"team_id" db:"team_id"`
	VerificationStatus     VerificationStatus `json:"verification_status" db:"verification_status"`
	CurrentPhase           Phase              `json:"current_phase" db:"current_phase"`
	IsPreliminaryQualified bool               `json:"is_preliminary_qualified" db:"is_preliminary_qualified"`
	IsSemifinalQualified   bool               `json:"is_semifinal_qualified" db:"is_semifinal_qualified"`
	RejectionReason        NullString         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	FeeTier                string             `json:"fee_tier" db:"fee_tier"`
	FeeAmount              int64              `json:"fee_amount" db:"fee_amount"`
	VerifiedAt             NullTime           `json:"verified_at,omitempty" db:"verified_at"`
	VerifiedBy             *uuid.UUID         `json:"verified_by,omitempty" db:"verified_by"`
	CreatedAt              time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at" db:"updated_at"`
}

// RegistrationDetail joins the fields the admin queue and the notifier need
// alongside the registration row itself.
type RegistrationDetail struct {
	Registration
	TeamName        string `json:"team_name" db:"team_name"`
	CompetitionCode string `json:"competition_code" db:"competition_code"`
	CompetitionName string `json:"competition_name" db:"competition_name"`
	LeaderName      string `json:"leader_name" db:"leader_name"`
	LeaderEmail     string `json:"leader_email" db:"leader_email"`
}
