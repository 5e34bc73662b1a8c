package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/models"
)

// RegistrationRepository handles database operations for the registrations table
type RegistrationRepository struct {
	db DB
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `
	id, user_id, competition_id, team_id, verification_status, current_phase,
	is_preliminary_qualified, is_semifinal_qualified, rejection_reason,
	fee_tier, fee_amount, verified_at, verified_by, created_at, updated_at
`

// Create inserts a new registration inside the given transaction. The unique
// index registrations_user_id_key enforces at most one registration per user
// across all competitions.
func (r *RegistrationRepository) Create(tx Execer, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (
			id, user_id, competition_id, team_id, verification_status,
			current_phase, fee_tier, fee_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}

	err := tx.QueryRow(
		query,
		reg.ID, reg.UserID, reg.CompetitionID, reg.TeamID,
		reg.VerificationStatus, reg.CurrentPhase, reg.FeeTier, reg.FeeAmount,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)

	return err
}

// ExistsForUser reports whether the user already holds a registration for
// any competition.
func (r *RegistrationRepository) ExistsForUser(q Execer, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM registrations WHERE user_id = $1)`

	var exists bool
	if err := q.QueryRow(query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing registration: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a registration by ID
func (r *RegistrationRepository) GetByID(id uuid.UUID) (*models.Registration, error) {
	return r.get(r.db, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
}

// GetByUserID retrieves the registration owned by a user, if any
func (r *RegistrationRepository) GetByUserID(userID uuid.UUID) (*models.Registration, error) {
	return r.get(r.db, `SELECT `+registrationColumns+` FROM registrations WHERE user_id = $1`, userID)
}

// GetByIDForUpdate locks the registration row for the duration of the
// transaction so concurrent phase transitions serialize.
func (r *RegistrationRepository) GetByIDForUpdate(tx Execer, id uuid.UUID) (*models.Registration, error) {
	return r.get(tx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id)
}

func (r *RegistrationRepository) get(q Execer, query string, arg interface{}) (*models.Registration, error) {
	reg, err := r.scanRegistration(q.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registration: %w", err)
	}
	return reg, nil
}

// ApproveIfPending flips a pending registration to approved and advances it
// into the preliminary phase. Returns false when the registration was not
// pending (the guard makes a second approve a no-op error, not a duplicate).
func (r *RegistrationRepository) ApproveIfPending(tx Execer, id, adminID uuid.UUID) (bool, error) {
	query := `
		UPDATE registrations
		SET verification_status = 'approved',
			current_phase = 'preliminary',
			verified_at = NOW(),
			verified_by = $2,
			updated_at = NOW()
		WHERE id = $1
		  AND verification_status = 'pending'
	`

	result, err := tx.Exec(query, id, adminID)
	if err != nil {
		return false, fmt.Errorf("failed to approve registration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// RejectIfPending flips a pending registration to rejected and stores the
// reason verbatim. Returns false when the registration was not pending.
func (r *RegistrationRepository) RejectIfPending(tx Execer, id, adminID uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE registrations
		SET verification_status = 'rejected',
			rejection_reason = $3,
			verified_at = NOW(),
			verified_by = $2,
			updated_at = NOW()
		WHERE id = $1
		  AND verification_status = 'pending'
	`

	result, err := tx.Exec(query, id, adminID, reason)
	if err != nil {
		return false, fmt.Errorf("failed to reject registration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// AdvancePhase moves a registration from one phase to the next, setting the
// qualification flag for the phase just passed. The current_phase guard
// keeps two concurrent reviews from both advancing.
func (r *RegistrationRepository) AdvancePhase(tx Execer, id uuid.UUID, from, to models.Phase) (bool, error) {
	query := `
		UPDATE registrations
		SET current_phase = $3,
			is_preliminary_qualified = is_preliminary_qualified OR $2 = 'preliminary',
			is_semifinal_qualified = is_semifinal_qualified OR $2 = 'semifinal',
			updated_at = NOW()
		WHERE id = $1
		  AND current_phase = $2
		  AND verification_status = 'approved'
	`

	result, err := tx.Exec(query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to advance phase: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// GetDetail loads the registration joined with team, competition, and leader
// contact fields for the admin queue and the notifier.
func (r *RegistrationRepository) GetDetail(q Execer, id uuid.UUID) (*models.RegistrationDetail, error) {
	query := `
		SELECT r.id, r.user_id, r.competition_id, r.team_id,
			   r.verification_status, r.current_phase,
			   r.is_preliminary_qualified, r.is_semifinal_qualified,
			   r.rejection_reason, r.fee_tier, r.fee_amount,
			   r.verified_at, r.verified_by, r.created_at, r.updated_at,
			   t.name, c.code, c.name, u.full_name, u.email
		FROM registrations r
		JOIN teams t ON t.id = r.team_id
		JOIN competitions c ON c.id = r.competition_id
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`

	detail := &models.RegistrationDetail{}
	var verifiedBy sql.NullString
	err := q.QueryRow(query, id).Scan(
		&detail.ID, &detail.UserID, &detail.CompetitionID, &detail.TeamID,
		&detail.VerificationStatus, &detail.CurrentPhase,
		&detail.IsPreliminaryQualified, &detail.IsSemifinalQualified,
		&detail.RejectionReason, &detail.FeeTier, &detail.FeeAmount,
		&detail.VerifiedAt, &verifiedBy, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.TeamName, &detail.CompetitionCode, &detail.CompetitionName,
		&detail.LeaderName, &detail.LeaderEmail,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registration detail: %w", err)
	}
	if verifiedBy.Valid {
		adminID, err := uuid.Parse(verifiedBy.String)
		if err == nil {
			detail.VerifiedBy = &adminID
		}
	}
	return detail, nil
}

// GetDetailByID reads a registration detail outside a transaction
func (r *RegistrationRepository) GetDetailByID(id uuid.UUID) (*models.RegistrationDetail, error) {
	return r.GetDetail(r.db, id)
}

// ListPending returns registrations awaiting admin verification, oldest first
func (r *RegistrationRepository) ListPending(limit, offset int) ([]models.RegistrationDetail, error) {
	query := `
		SELECT r.id, r.user_id, r.competition_id, r.team_id,
			   r.verification_status, r.current_phase,
			   r.is_preliminary_qualified, r.is_semifinal_qualified,
			   r.rejection_reason, r.fee_tier, r.fee_amount,
			   r.verified_at, r.verified_by, r.created_at, r.updated_at,
			   t.name, c.code, c.name, u.full_name, u.email
		FROM registrations r
		JOIN teams t ON t.id = r.team_id
		JOIN competitions c ON c.id = r.competition_id
		JOIN users u ON u.id = r.user_id
		WHERE r.verification_status = 'pending'
		ORDER BY r.created_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending registrations: %w", err)
	}
	defer rows.Close()

	details := []models.RegistrationDetail{}
	for rows.Next() {
		var detail models.RegistrationDetail
		var verifiedBy sql.NullString
		err := rows.Scan(
			&detail.ID, &detail.UserID, &detail.CompetitionID, &detail.TeamID,
			&detail.VerificationStatus, &detail.CurrentPhase,
			&detail.IsPreliminaryQualified, &detail.IsSemifinalQualified,
			&detail.RejectionReason, &detail.FeeTier, &detail.FeeAmount,
			&detail.VerifiedAt, &verifiedBy, &detail.CreatedAt, &detail.UpdatedAt,
			&detail.TeamName, &detail.CompetitionCode, &detail.CompetitionName,
			&detail.LeaderName, &detail.LeaderEmail,
		)
		if err != nil {
			return nil, err
		}
		if verifiedBy.Valid {
			adminID, parseErr := uuid.Parse(verifiedBy.String)
			if parseErr == nil {
				detail.VerifiedBy = &adminID
			}
		}
		details = append(details, detail)
	}

	return details, rows.Err()
}

// CountByStatus returns the number of registrations in a verification state
func (r *RegistrationRepository) CountByStatus(status models.VerificationStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM registrations WHERE verification_status = $1`, status).Scan(&count)
	return count, err
}

func (r *RegistrationRepository) scanRegistration(row scanner) (*models.Registration, error) {
	reg := &models.Registration{}
	var verifiedBy sql.NullString
	var verifiedAt sql.NullTime

	err := row.Scan(
		&reg.ID, &reg.UserID, &reg.CompetitionID, &reg.TeamID,
		&reg.VerificationStatus, &reg.CurrentPhase,
		&reg.IsPreliminaryQualified, &reg.IsSemifinalQualified,
		&reg.RejectionReason, &reg.FeeTier, &reg.FeeAmount,
		&verifiedAt, &verifiedBy, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verifiedAt.Valid {
		reg.VerifiedAt = models.NewNullTime(verifiedAt.Time)
	}
	if verifiedBy.Valid {
		adminID, parseErr := uuid.Parse(verifiedBy.String)
		if parseErr == nil {
			reg.VerifiedBy = &adminID
		}
	}

	return reg, nil
}
