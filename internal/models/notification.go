package models

import "time"

// NotificationTimeLayout is fixed width so that created_at sorts
// chronologically as text.
const NotificationTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	NotificationUnread    = "unread"
	NotificationDismissed = "dismissed"
)

type Notification struct {
	ID            int    `db:"id" json:"id"`
	TypeOfMessage string `db:"type_of_message" json:"typeOfMessage"`
	Message       string `db:"message" json:"message"`
	CreatedAt     string `db:"created_at" json:"createdAt"`
	Status        string `db:"status" json:"status"`
}

// FormatNotificationTime renders t in UTC using NotificationTimeLayout.
func FormatNotificationTime(t time.Time) string {
	return t.UTC().Format(NotificationTimeLayout)
}
