package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/models"
)

// SubmissionRepository handles database operations for submission records
type SubmissionRepository struct {
	db DB
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `
	id, registration_id, phase, artifact_kind, primary_url, secondary_url,
	status, review_notes, submitted_at, reviewed_at, reviewed_by
`

// Create inserts a new submission record inside the given transaction. The
// unique index on (registration_id, phase) keeps records to one per phase;
// replacement of a rejected record goes through ReplaceIfRejected instead.
func (r *SubmissionRepository) Create(tx Execer, sub *models.SubmissionRecord) error {
	query := `
		INSERT INTO submissions (
			id, registration_id, phase, artifact_kind, primary_url, secondary_url, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING submitted_at
	`

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	err := tx.QueryRow(query,
		sub.ID, sub.RegistrationID, sub.Phase, sub.ArtifactKind,
		sub.PrimaryURL, sub.SecondaryURL, sub.Status,
	).Scan(&sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// ReplaceIfRejected overwrites a rejected submission with a fresh artifact
// and resets it to pending. Returns false when the record was not rejected,
// so a qualified or in-review record can never be overwritten.
func (r *SubmissionRepository) ReplaceIfRejected(tx Execer, registrationID uuid.UUID, phase models.Phase, artifact models.Artifact) (bool, error) {
	query := `
		UPDATE submissions
		SET artifact_kind = $3, primary_url = $4, secondary_url = $5,
			status = 'pending', review_notes = NULL,
			reviewed_at = NULL, reviewed_by = NULL,
			submitted_at = NOW()
		WHERE registration_id = $1
		  AND phase = $2
		  AND status = 'rejected'
	`

	result, err := tx.Exec(query, registrationID, phase,
		artifact.Kind, artifact.PrimaryURL, artifact.SecondaryURL)
	if err != nil {
		return false, fmt.Errorf("failed to replace submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ReviewIfPending records an admin decision on a pending submission.
// Returns false when the submission was not pending.
func (r *SubmissionRepository) ReviewIfPending(tx Execer, id, adminID uuid.UUID, status models.SubmissionStatus, notes string) (bool, error) {
	query := `
		UPDATE submissions
		SET status = $2, review_notes = NULLIF($3, ''), reviewed_at = NOW(), reviewed_by = $4
		WHERE id = $1
		  AND status = 'pending'
	`

	result, err := tx.Exec(query, id, status, notes, adminID)
	if err != nil {
		return false, fmt.Errorf("failed to review submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// GetByID retrieves a submission by ID
func (r *SubmissionRepository) GetByID(q Execer, id uuid.UUID) (*models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	sub, err := r.scan(q.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}
	return sub, nil
}

// Get reads a submission outside a transaction
func (r *SubmissionRepository) Get(id uuid.UUID) (*models.SubmissionRecord, error) {
	return r.GetByID(r.db, id)
}

// GetByRegistrationAndPhase retrieves the submission for one phase of a
// registration, or nil when the team has not uploaded yet.
func (r *SubmissionRepository) GetByRegistrationAndPhase(q Execer, registrationID uuid.UUID, phase models.Phase) (*models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE registration_id = $1 AND phase = $2`

	sub, err := r.scan(q.QueryRow(query, registrationID, phase))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}
	return sub, nil
}

// ListByRegistration returns all submissions of a registration ordered by phase
func (r *SubmissionRepository) ListByRegistration(registrationID uuid.UUID) ([]models.SubmissionRecord, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE registration_id = $1
		ORDER BY submitted_at
	`

	rows, err := r.db.Query(query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.SubmissionRecord{}
	for rows.Next() {
		sub, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ListPending returns submissions awaiting review, oldest first
func (r *SubmissionRepository) ListPending(limit, offset int) ([]models.SubmissionRecord, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE status = 'pending'
		ORDER BY submitted_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.SubmissionRecord{}
	for rows.Next() {
		sub, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (r *SubmissionRepository) scan(row scanner) (*models.SubmissionRecord, error) {
	sub := &models.SubmissionRecord{}
	var reviewedBy sql.NullString

	err := row.Scan(
		&sub.ID, &sub.RegistrationID, &sub.Phase, &sub.ArtifactKind,
		&sub.PrimaryURL, &sub.SecondaryURL, &sub.Status,
		&sub.ReviewNotes, &sub.SubmittedAt, &sub.ReviewedAt, &reviewedBy,
	)
	if err != nil {
		return nil, err
	}

	if reviewedBy.Valid {
		adminID, parseErr := uuid.Parse(reviewedBy.String)
		if parseErr == nil {
			sub.ReviewedBy = &adminID
		}
	}
	return sub, nil
}
