package models

import (
	"time"
)

// Notification is the document written by the post-commit notifier. Delivery
// beyond this collection is the UI's concern.
type Notification struct {
	NotificationID string    `firestore:"notificationId" json:"notificationId"`
	Kind           string    `firestore:"kind" json:"kind"`
	Title          string    `firestore:"title" json:"title"`
	Body           string    `firestore:"body" json:"body"`
	Read           bool      `firestore:"read" json:"read"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
}
