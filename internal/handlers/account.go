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

type accountService interface {
	Create(ctx context.Context, uid string, req dto.CreateAccountRequest) (*models.Account, error)
	Get(ctx context.Context, uid, accountID string) (*models.Account, error)
	List(ctx context.Context, uid string) ([]*models.Account, error)
	Update(ctx context.Context, uid, accountID string, patch dto.UpdateAccountPatch) (*models.Account, error)
	Delete(ctx context.Context, uid, accountID string) error
}

type accountHandlers struct {
	ResponseHandler response.ResponseHandler
	AccountSvc      accountService
}

func NewAccountHandlers(deps *Deps) *accountHandlers {
	return &accountHandlers{
		ResponseHandler: deps.ResponseHandler,
		AccountSvc:      deps.AccountSvc,
	}
}

func (h *accountHandlers) AccountRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateAccount)
	r.Get("/", h.ListAccounts)
	r.Get("/{accountId}", h.GetAccount)
	r.Patch("/{accountId}", h.UpdateAccount)
	r.Delete("/{accountId}", h.DeleteAccount)
	return r
}

func (h *accountHandlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	account, err := h.AccountSvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, account)
}

func (h *accountHandlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	accounts, err := h.AccountSvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, accounts)
}

func (h *accountHandlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	uid := middleware.UID(r.Context())
	account, err := h.AccountSvc.Get(r.Context(), uid, accountID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, account)
}

func (h *accountHandlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	var patch dto.UpdateAccountPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	account, err := h.AccountSvc.Update(r.Context(), uid, accountID, patch)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, account)
}

func (h *accountHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	uid := middleware.UID(r.Context())
	if err := h.AccountSvc.Delete(r.Context(), uid, accountID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
