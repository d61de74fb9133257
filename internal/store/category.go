package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
)

type categoryStore struct {
	client *firestore.Client
}

func NewCategoryStore(client *firestore.Client) *categoryStore {
	return &categoryStore{client: client}
}

func (s *categoryStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("categories")
}

func (s *categoryStore) Create(ctx context.Context, uid string, category *models.Category) error {
	now := time.Now()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now
	_, err := s.collection(uid).Doc(category.CategoryID).Create(ctx, category)
	return err
}

func (s *categoryStore) Get(ctx context.Context, uid, categoryID string) (*models.Category, error) {
	doc, err := s.collection(uid).Doc(categoryID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("category " + categoryID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var c models.Category
	if err := doc.DataTo(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *categoryStore) List(ctx context.Context, uid string) ([]*models.Category, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	categories := make([]*models.Category, 0, len(docs))
	for _, d := range docs {
		var c models.Category
		if err := d.DataTo(&c); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, nil
}

func (s *categoryStore) Delete(ctx context.Context, uid, categoryID string) error {
	_, err := s.collection(uid).Doc(categoryID).Delete(ctx)
	return err
}
