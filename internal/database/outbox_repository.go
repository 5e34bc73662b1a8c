package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/models"
)

// OutboxRepository handles database operations for the notification outbox
type OutboxRepository struct {
	db DB
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue inserts an outbox event. Called inside the same transaction as the
// state transition the event announces.
func (r *OutboxRepository) Enqueue(tx Execer, event *models.OutboxEvent) error {
	query := `
		INSERT INTO notification_outbox (id, event_type, recipient_email, recipient_name, payload, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING created_at
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = models.OutboxStatusPending

	err := tx.QueryRow(query,
		event.ID, event.EventType, event.RecipientEmail,
		event.RecipientName, event.Payload,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// EnqueueDirect inserts an outbox event outside any transaction. Used for
// events with no accompanying state transition, e.g. activation emails.
func (r *OutboxRepository) EnqueueDirect(event *models.OutboxEvent) error {
	return r.Enqueue(r.db, event)
}

// FetchPending returns up to limit undelivered events, oldest first
func (r *OutboxRepository) FetchPending(limit int) ([]models.OutboxEvent, error) {
	query := `
		SELECT id, event_type, recipient_email, recipient_name, payload,
			   status, attempts, last_error, created_at, sent_at
		FROM notification_outbox
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending notifications: %w", err)
	}
	defer rows.Close()

	events := []models.OutboxEvent{}
	for rows.Next() {
		var event models.OutboxEvent
		err := rows.Scan(
			&event.ID, &event.EventType, &event.RecipientEmail,
			&event.RecipientName, &event.Payload, &event.Status,
			&event.Attempts, &event.LastError, &event.CreatedAt, &event.SentAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// MarkSent records a successful delivery
func (r *OutboxRepository) MarkSent(id uuid.UUID) error {
	query := `
		UPDATE notification_outbox
		SET status = 'sent', sent_at = NOW(), attempts = attempts + 1
		WHERE id = $1
	`
	_, err := r.db.Exec(query, id)
	return err
}

// MarkFailed records a delivery failure for operator follow-up. Events stay
// pending until maxAttempts so the dispatcher retries them.
func (r *OutboxRepository) MarkFailed(id uuid.UUID, deliveryErr string, maxAttempts int) error {
	query := `
		UPDATE notification_outbox
		SET attempts = attempts + 1,
			last_error = $2,
			status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1
	`
	_, err := r.db.Exec(query, id, deliveryErr, maxAttempts)
	return err
}

// CleanupSent removes delivered events older than the retention window.
// Failed events are kept for operator follow-up.
func (r *OutboxRepository) CleanupSent(olderThan time.Duration) (int64, error) {
	query := `DELETE FROM notification_outbox WHERE status = 'sent' AND sent_at < NOW() - $1::interval`

	result, err := r.db.Exec(query, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up outbox: %w", err)
	}
	return result.RowsAffected()
}
