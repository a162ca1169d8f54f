package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"podfetch/internal/apperr"
	"podfetch/internal/db"
	"podfetch/internal/events"
	"podfetch/internal/models"
)

// NotificationService stores notifications and announces new ones to
// connected clients. It holds no state of its own.
type NotificationService struct {
	store     *db.Store
	publisher events.Publisher
}

func NewNotificationService(store *db.Store, publisher events.Publisher) *NotificationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &NotificationService{store: store, publisher: publisher}
}

func (s *NotificationService) Unread(ctx context.Context) ([]models.Notification, error) {
	notifications, err := s.store.GetUnreadNotifications(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading notifications")
	}
	return notifications, nil
}

func (s *NotificationService) Dismiss(ctx context.Context, id int) error {
	if err := s.store.UpdateStatusOfNotification(ctx, id, models.NotificationDismissed); err != nil {
		return apperr.Storage(err, "Error dismissing notification")
	}
	return nil
}

// Notify records an unread notification and publishes it. A failed
// publish is logged; the notification stays stored.
func (s *NotificationService) Notify(ctx context.Context, typeOfMessage, message string) error {
	n := models.Notification{
		TypeOfMessage: typeOfMessage,
		Message:       message,
		CreatedAt:     models.FormatNotificationTime(time.Now()),
		Status:        models.NotificationUnread,
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return apperr.Storage(err, "Error saving notification")
	}
	if err := s.publisher.Publish(ctx, events.Message{Type: events.TypeNotification, Message: message}); err != nil {
		log.Warn().Err(err).Str("type", typeOfMessage).Msg("could not publish notification")
	}
	return nil
}
