package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the admin verification state of a payment proof
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Payment records a registration fee payment proof. Created once per
// registration and mutated only by admin verification.
type Payment struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	RegistrationID uuid.UUID     `json:"registration_id" db:"registration_id"`
	Amount         int64         `json:"amount" db:"amount"`
	Method         string        `json:"method" db:"method"`
	ProofURL       string        `json:"proof_url" db:"proof_url"`
	Status         PaymentStatus `json:"status" db:"status"`
	RejectionNotes NullString    `json:"rejection_notes,omitempty" db:"rejection_notes"`
	SubmittedAt    time.Time     `json:"submitted_at" db:"submitted_at"`
	VerifiedAt     NullTime      `json:"verified_at,omitempty" db:"verified_at"`
	VerifiedBy     *uuid.UUID    `json:"verified_by,omitempty" db:"verified_by"`
}
