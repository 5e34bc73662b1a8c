package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/technofair/registration-backend/internal/models"
)

// UserRepository handles database operations for participant accounts
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, email, password_hash, full_name, phone, institution, roles, status,
	email_verified, activation_token, reset_token, reset_token_expires_at,
	last_login_at, created_at, updated_at
`

// CreateUser inserts a new inactive account with an activation token
func (r *UserRepository) CreateUser(email, passwordHash, fullName, activationToken string) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, roles, status, activation_token)
		VALUES ($1, $2, $3, $4, $5, 'inactive', $6)
		RETURNING ` + userColumns

	user, err := r.scanUser(r.db.QueryRow(query,
		uuid.New(), email, passwordHash, fullName,
		pq.StringArray{"participant"}, activationToken,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := r.scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// ActivateByToken activates the account holding the given activation token
func (r *UserRepository) ActivateByToken(token string) error {
	query := `
		UPDATE users
		SET status = 'active', email_verified = true, activation_token = NULL, updated_at = NOW()
		WHERE activation_token = $1
		  AND status = 'inactive'
	`

	result, err := r.db.Exec(query, token)
	if err != nil {
		return fmt.Errorf("failed to activate account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("invalid or expired activation token")
	}
	return nil
}

// SetResetToken stores a password reset token with its expiry
func (r *UserRepository) SetResetToken(userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// ResetPasswordByToken replaces the password for an unexpired reset token
func (r *UserRepository) ResetPasswordByToken(token, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE reset_token = $1
		  AND reset_token_expires_at > NOW()
	`

	result, err := r.db.Exec(query, token, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("invalid or expired reset token")
	}
	return nil
}

// UpdateLastLogin stamps the last successful login time
func (r *UserRepository) UpdateLastLogin(userID uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, userID)
	return err
}

func (r *UserRepository) scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.Phone, &user.Institution, &user.Roles, &user.Status,
		&user.EmailVerified, &user.ActivationToken, &user.ResetToken,
		&user.ResetTokenExp, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
