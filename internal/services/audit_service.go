package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/utils"
)

// AuditService handles audit logging for security and verification events
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	ActorID    *uuid.UUID             // Can be nil for pre-authentication events
	ActorType  string                 // "user", "admin", or "anonymous"
	Action     string                 // e.g. "login", "registration_create", "registration_approve"
	EntityType string                 // Type of entity affected (e.g. "registration", "payment", "submission")
	EntityID   *uuid.UUID             // ID of the affected entity (can be nil)
	IPAddress  string                 // Client IP address
	UserAgent  string                 // Client user agent
	Details    map[string]interface{} // Additional details as JSONB
}

// LogLogin logs a login attempt for a participant or admin account
func (s *AuditService) LogLogin(actorID *uuid.UUID, actorType, email, ipAddress, userAgent string, success bool, failureReason string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"email":       email,
		"success":     success,
		"device_info": deviceInfo,
	}
	if !success && failureReason != "" {
		details["failure_reason"] = failureReason
	}

	action := "login_failed"
	if success {
		action = "login_success"
	}

	return s.logEvent(AuditEvent{
		ActorID:    actorID,
		ActorType:  actorType,
		Action:     action,
		EntityType: "account",
		EntityID:   actorID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogRegistrationAttempt logs a registration attempt, successful or not
func (s *AuditService) LogRegistrationAttempt(userID uuid.UUID, competitionCode, ipAddress, userAgent string, registrationID *uuid.UUID, failureKind string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"competition": competitionCode,
		"success":     failureKind == "",
		"device_info": deviceInfo,
	}
	if failureKind != "" {
		details["failure_kind"] = failureKind
	}

	return s.logEvent(AuditEvent{
		ActorID:    &userID,
		ActorType:  "user",
		Action:     "registration_create",
		EntityType: "registration",
		EntityID:   registrationID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogAdminDecision logs a verification decision made by an admin. Covers
// registration approve/reject, payment verify/reject, and submission reviews.
func (s *AuditService) LogAdminDecision(adminID uuid.UUID, action, entityType string, entityID uuid.UUID, ipAddress, userAgent string, details map[string]interface{}) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["device_info"] = utils.ParseUserAgent(userAgent)

	return s.logEvent(AuditEvent{
		ActorID:    &adminID,
		ActorType:  "admin",
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogRateLimitViolation logs a rate limit violation event
func (s *AuditService) LogRateLimitViolation(identifier, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"identifier":  identifier,
		"limit_type":  limitType, // "email" or "ip"
		"retry_after": retryAfter,
		"device_info": deviceInfo,
	}

	return s.logEvent(AuditEvent{
		ActorID:    nil,
		ActorType:  "anonymous",
		Action:     "rate_limit_violation",
		EntityType: "rate_limit",
		EntityID:   nil,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// logEvent is the internal method that writes to the audit_logs table
func (s *AuditService) logEvent(event AuditEvent) error {
	query := `
		INSERT INTO audit_logs (actor_id, actor_type, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	_, err := s.db.Exec(
		query,
		event.ActorID,
		event.ActorType,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		event.Details,
	)

	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents retrieves recent audit events for an actor
func (s *AuditService) GetRecentEvents(actorID uuid.UUID, limit int) ([]map[string]interface{}, error) {
	query := `
		SELECT action, entity_type, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	defer rows.Close()

	events := []map[string]interface{}{}
	for rows.Next() {
		var action, entityType, ipAddress, userAgent string
		var details map[string]interface{}
		var createdAt time.Time

		err := rows.Scan(&action, &entityType, &ipAddress, &userAgent, &details, &createdAt)
		if err != nil {
			continue
		}

		events = append(events, map[string]interface{}{
			"action":      action,
			"entity_type": entityType,
			"ip_address":  ipAddress,
			"user_agent":  userAgent,
			"details":     details,
			"created_at":  createdAt,
		})
	}

	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
