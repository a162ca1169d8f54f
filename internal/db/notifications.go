package db

import (
	"context"
	"fmt"

	"podfetch/internal/models"
)

func (s *Store) GetUnreadNotifications(ctx context.Context) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := s.db.SelectContext(ctx, &notifications,
		s.q("SELECT id, type_of_message, message, created_at, status FROM notifications WHERE status = ? ORDER BY created_at DESC, id DESC"),
		models.NotificationUnread)
	if err != nil {
		return nil, fmt.Errorf("load unread notifications: %w", err)
	}
	return notifications, nil
}

func (s *Store) InsertNotification(ctx context.Context, n models.Notification) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.q("INSERT INTO notifications (type_of_message, message, created_at, status) VALUES (?, ?, ?, ?)"),
			n.TypeOfMessage, n.Message, n.CreatedAt, n.Status)
		return err
	})
}

// UpdateStatusOfNotification moves a notification to status, typically
// dismissed.
func (s *Store) UpdateStatusOfNotification(ctx context.Context, id int, status string) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.q("UPDATE notifications SET status = ? WHERE id = ?"), status, id)
		return err
	})
}
