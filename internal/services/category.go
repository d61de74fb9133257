package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
)

type categoryCSStore interface {
	Create(ctx context.Context, uid string, category *models.Category) error
	Get(ctx context.Context, uid, categoryID string) (*models.Category, error)
	List(ctx context.Context, uid string) ([]*models.Category, error)
	Delete(ctx context.Context, uid, categoryID string) error
}

type categoryService struct {
	categories categoryCSStore
}

func NewCategoryService(categories categoryCSStore) *categoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) Create(ctx context.Context, uid string, req dto.CreateCategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, errs.NewValidationError("name is required")
	}
	if req.Kind != "income" && req.Kind != "expense" {
		return nil, errs.NewValidationError("kind must be income or expense")
	}
	category := &models.Category{
		CategoryID: uuid.New().String(),
		Name:       req.Name,
		Kind:       req.Kind,
	}
	if err := s.categories.Create(ctx, uid, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context, uid string) ([]*models.Category, error) {
	return s.categories.List(ctx, uid)
}

func (s *categoryService) Delete(ctx context.Context, uid, categoryID string) error {
	if _, err := s.categories.Get(ctx, uid, categoryID); err != nil {
		return err
	}
	return s.categories.Delete(ctx, uid, categoryID)
}
