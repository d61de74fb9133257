package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/middleware"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/internal/response"
)

type categoryService interface {
	Create(ctx context.Context, uid string, req dto.CreateCategoryRequest) (*models.Category, error)
	List(ctx context.Context, uid string) ([]*models.Category, error)
	Delete(ctx context.Context, uid, categoryID string) error
}

type categoryHandlers struct {
	ResponseHandler response.ResponseHandler
	CategorySvc     categoryService
}

func NewCategoryHandlers(deps *Deps) *categoryHandlers {
	return &categoryHandlers{
		ResponseHandler: deps.ResponseHandler,
		CategorySvc:     deps.CategorySvc,
	}
}

func (h *categoryHandlers) CategoryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateCategory)
	r.Get("/", h.ListCategories)
	r.Delete("/{categoryId}", h.DeleteCategory)
	return r
}

func (h *categoryHandlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	category, err := h.CategorySvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, category)
}

func (h *categoryHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	categories, err := h.CategorySvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, categories)
}

func (h *categoryHandlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	uid := middleware.UID(r.Context())
	if err := h.CategorySvc.Delete(r.Context(), uid, categoryID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
