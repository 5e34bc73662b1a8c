package models

import (
	"time"

	"github.com/google/uuid"
)

// Outbox event types consumed by the notification dispatcher
const (
	OutboxRegistrationApproved = "registration_approved"
	OutboxRegistrationRejected = "registration_rejected"
	OutboxAccountActivation    = "account_activation"
	OutboxPasswordReset        = "password_reset"
)

// Outbox delivery states
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxEvent is a queued notification. Rows are written in the same
// transaction as the state transition that caused them, so a mail-provider
// outage can neither block nor lose a verification decision.
type OutboxEvent struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	EventType      string     `json:"event_type" db:"event_type"`
	RecipientEmail string     `json:"recipient_email" db:"recipient_email"`
	RecipientName  string     `json:"recipient_name" db:"recipient_name"`
	Payload        []byte     `json:"payload" db:"payload"`
	Status         string     `json:"status" db:"status"`
	Attempts       int        `json:"attempts" db:"attempts"`
	LastError      NullString `json:"last_error,omitempty" db:"last_error"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	SentAt         NullTime   `json:"sent_at,omitempty" db:"sent_at"`
}
