package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/hearthfin/hearth-backend/internal/models"
)

type notificationStore struct {
	client *firestore.Client
}

func NewNotificationStore(client *firestore.Client) *notificationStore {
	return &notificationStore{client: client}
}

func (s *notificationStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("notifications")
}

func (s *notificationStore) Create(ctx context.Context, uid string, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.collection(uid).Doc(n.NotificationID).Create(ctx, n)
	return err
}

func (s *notificationStore) List(ctx context.Context, uid string) ([]*models.Notification, error) {
	docs, err := s.collection(uid).OrderBy("createdAt", firestore.Desc).Limit(100).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	notifications := make([]*models.Notification, 0, len(docs))
	for _, d := range docs {
		var n models.Notification
		if err := d.DataTo(&n); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, nil
}
