package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/models"
)

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment proof inside the given transaction. The unique
// index on registration_id keeps payments to one per registration.
func (r *PaymentRepository) Create(tx Execer, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, registration_id, amount, method, proof_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING submitted_at
	`

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	err := tx.QueryRow(query,
		payment.ID, payment.RegistrationID, payment.Amount,
		payment.Method, payment.ProofURL, payment.Status,
	).Scan(&payment.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID. Returns nil when no payment exists.
func (r *PaymentRepository) GetByID(id uuid.UUID) (*models.Payment, error) {
	query := `
		SELECT id, registration_id, amount, method, proof_url, status,
			   rejection_notes, submitted_at, verified_at, verified_by
		FROM payments
		WHERE id = $1
	`

	payment, err := r.scan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return payment, nil
}

// GetByRegistrationID retrieves the payment for a registration, if any
func (r *PaymentRepository) GetByRegistrationID(registrationID uuid.UUID) (*models.Payment, error) {
	query := `
		SELECT id, registration_id, amount, method, proof_url, status,
			   rejection_notes, submitted_at, verified_at, verified_by
		FROM payments
		WHERE registration_id = $1
	`

	payment, err := r.scan(r.db.QueryRow(query, registrationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return payment, nil
}

// VerifyIfPending marks a pending payment verified. Returns false when the
// payment was not pending.
func (r *PaymentRepository) VerifyIfPending(tx Execer, id, adminID uuid.UUID) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'verified', verified_at = NOW(), verified_by = $2
		WHERE id = $1
		  AND status = 'pending'
	`

	result, err := tx.Exec(query, id, adminID)
	if err != nil {
		return false, fmt.Errorf("failed to verify payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// RejectIfPending marks a pending payment rejected with notes. Returns false
// when the payment was not pending.
func (r *PaymentRepository) RejectIfPending(tx Execer, id, adminID uuid.UUID, notes string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'rejected', rejection_notes = $3, verified_at = NOW(), verified_by = $2
		WHERE id = $1
		  AND status = 'pending'
	`

	result, err := tx.Exec(query, id, adminID, notes)
	if err != nil {
		return false, fmt.Errorf("failed to reject payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ListPending returns payments awaiting verification, oldest first
func (r *PaymentRepository) ListPending(limit, offset int) ([]models.Payment, error) {
	query := `
		SELECT id, registration_id, amount, method, proof_url, status,
			   rejection_notes, submitted_at, verified_at, verified_by
		FROM payments
		WHERE status = 'pending'
		ORDER BY submitted_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		payment, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) scan(row scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var verifiedBy sql.NullString

	err := row.Scan(
		&payment.ID, &payment.RegistrationID, &payment.Amount,
		&payment.Method, &payment.ProofURL, &payment.Status,
		&payment.RejectionNotes, &payment.SubmittedAt,
		&payment.VerifiedAt, &verifiedBy,
	)
	if err != nil {
		return nil, err
	}

	if verifiedBy.Valid {
		adminID, parseErr := uuid.Parse(verifiedBy.String)
		if parseErr == nil {
			payment.VerifiedBy = &adminID
		}
	}
	return payment, nil
}
