package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/technofair/registration-backend/internal/database"
)

// RateLimitService throttles sensitive write endpoints (registration
// attempts, login attempts, password reset requests) per account and per IP.
// Windows are tracked in the database so limits survive restarts and apply
// across instances.
type RateLimitService struct {
	db     database.DB
	config AttemptLimitConfig
}

// AttemptLimitConfig holds attempt limiting configuration
type AttemptLimitConfig struct {
	MaxEmailAttempts int           // Max attempts per email address
	EmailWindow      time.Duration // Time window for email attempts
	MaxIPAttempts    int           // Max attempts per IP
	IPWindow         time.Duration // Time window for IP attempts
}

// DefaultAttemptLimitConfig returns the default attempt limit configuration
func DefaultAttemptLimitConfig() AttemptLimitConfig {
	return AttemptLimitConfig{
		MaxEmailAttempts: 5,
		EmailWindow:      1 * time.Hour,
		MaxIPAttempts:    20,
		IPWindow:         1 * time.Hour,
	}
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, config AttemptLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:     db,
		config: config,
	}
}

// RateLimitExceededError reports which limit was hit and when to retry
type RateLimitExceededError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitExceededError) Error() string {
	return e.Message
}

// CheckAttempt checks whether an email address or IP has exceeded its
// attempt limit for the given scope (e.g. "registration", "login")
func (s *RateLimitService) CheckAttempt(scope, email, ip string) error {
	if email != "" {
		count, lastAttempt, err := s.getAttemptCount(scope, email, "email", s.config.EmailWindow)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}

		if count >= s.config.MaxEmailAttempts {
			retryAfter := lastAttempt.Add(s.config.EmailWindow)
			return &RateLimitExceededError{
				Message:    fmt.Sprintf("Too many %s attempts for this account. Please try again after %s", scope, retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" {
		count, lastAttempt, err := s.getAttemptCount(scope, ip, "ip", s.config.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= s.config.MaxIPAttempts {
			retryAfter := lastAttempt.Add(s.config.IPWindow)
			return &RateLimitExceededError{
				Message:    fmt.Sprintf("Too many %s attempts from this address. Please try again after %s", scope, retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getAttemptCount gets the number of attempts within the time window
func (s *RateLimitService) getAttemptCount(scope, identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM attempt_limits
		WHERE scope = $1
		  AND identifier = $2
		  AND identifier_type = $3
		  AND created_at > $4
	`

	var count int
	var lastAttempt time.Time

	err := s.db.QueryRow(query, scope, identifier, identifierType, windowStart).Scan(&count, &lastAttempt)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastAttempt, nil
}

// RecordAttempt records an attempt for rate limiting
func (s *RateLimitService) RecordAttempt(scope, email, ip string) error {
	if email != "" {
		if err := s.recordAttempt(scope, email, "email"); err != nil {
			return fmt.Errorf("failed to record email attempt: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordAttempt(scope, ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}

	return nil
}

// recordAttempt inserts an attempt record
func (s *RateLimitService) recordAttempt(scope, identifier, identifierType string) error {
	query := `
		INSERT INTO attempt_limits (scope, identifier, identifier_type, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	_, err := s.db.Exec(query, scope, identifier, identifierType)
	return err
}

// CleanupExpiredAttempts removes attempt records older than the longest window
func (s *RateLimitService) CleanupExpiredAttempts() (int64, error) {
	maxWindow := s.config.IPWindow
	if s.config.EmailWindow > maxWindow {
		maxWindow = s.config.EmailWindow
	}

	cutoffTime := time.Now().Add(-maxWindow)

	query := `
		DELETE FROM attempt_limits
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup attempt limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
