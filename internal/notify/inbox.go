package notify

import (
	"context"

	"github.com/facebookgo/clock"

	"tearound/internal/models"
	"tearound/internal/repository"
)

// InboxSink stores messages so users see them on their next page load
type InboxSink struct {
	repo  *repository.NotificationRepository
	clock clock.Clock
}

// NewInboxSink creates an inbox sink backed by the notifications table
func NewInboxSink(repo *repository.NotificationRepository, clk clock.Clock) *InboxSink {
	return &InboxSink{repo: repo, clock: clk}
}

func (s *InboxSink) Notify(ctx context.Context, userID string, msg Message) error {
	n := &models.Notification{
		UserID:    userID,
		Kind:      string(msg.Kind),
		RoundID:   msg.RoundID,
		Body:      Render(msg, userID),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return &DeliveryError{UserID: userID, Kind: msg.Kind, Err: err}
	}
	return nil
}

// Inbox lists a user's stored notifications, newest first
func (s *InboxSink) Inbox(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}
