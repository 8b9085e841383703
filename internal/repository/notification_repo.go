package repository

import (
	"context"
	"fmt"

	"tearound/internal/database"
	"tearound/internal/models"
)

// NotificationRepository stores in-app notifications shown to users on their next visit
type NotificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification stores a notification and sets its ID
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (user_id, kind, round_id, body, created_at) VALUES (?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, n.UserID, n.Kind, n.RoundID, n.Body, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID = id
	return nil
}

// ListForUser returns a user's notifications, newest first
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, kind, round_id, body, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.RoundID, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
