package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/models"
)

// AdminUserRepository handles database operations for admin users
type AdminUserRepository struct {
	db DB
}

// NewAdminUserRepository creates a new AdminUserRepository
func NewAdminUserRepository(db DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

const adminColumns = `
	id, email, password_hash, full_name, roles, is_active,
	last_login_at, created_at, updated_at
`

// GetByEmail retrieves an admin user by email
func (r *AdminUserRepository) GetByEmail(email string) (*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE email = $1`

	admin, err := r.scan(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("admin user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admin user: %w", err)
	}
	return admin, nil
}

// GetByID retrieves an admin user by ID
func (r *AdminUserRepository) GetByID(id uuid.UUID) (*models.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE id = $1`

	admin, err := r.scan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("admin user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admin user: %w", err)
	}
	return admin, nil
}

// UpdateLastLogin stamps the last successful login time
func (r *AdminUserRepository) UpdateLastLogin(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE admin_users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *AdminUserRepository) scan(row scanner) (*models.AdminUser, error) {
	admin := &models.AdminUser{}
	var lastLogin sql.NullTime

	err := row.Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.FullName,
		&admin.Roles, &admin.IsActive, &lastLogin,
		&admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		admin.LastLoginAt = &lastLogin.Time
	}
	return admin, nil
}
