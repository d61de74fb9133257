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

type recurringService interface {
	CreateRecurringTransaction(ctx context.Context, uid string, req dto.CreateRecurringTransactionRequest) (*models.RecurringTransaction, error)
	ListRecurringTransactions(ctx context.Context, uid string) ([]*models.RecurringTransaction, error)
	UpdateRecurringTransaction(ctx context.Context, uid, definitionID string, patch dto.UpdateRecurringTransactionPatch) (*models.RecurringTransaction, error)
	DeleteRecurringTransaction(ctx context.Context, uid, definitionID string, cascade bool) error
	CreateRecurringIncome(ctx context.Context, uid string, req dto.CreateRecurringIncomeRequest) (*models.RecurringIncome, error)
	ListRecurringIncome(ctx context.Context, uid string) ([]*models.RecurringIncome, error)
	UpdateRecurringIncome(ctx context.Context, uid, definitionID string, patch dto.UpdateRecurringIncomePatch) (*models.RecurringIncome, error)
	DeleteRecurringIncome(ctx context.Context, uid, definitionID string, cascade bool) error
	RunDue(ctx context.Context, uid string) ([]dto.MaterializationResult, error)
}

type recurringHandlers struct {
	ResponseHandler response.ResponseHandler
	RecurringSvc    recurringService
}

func NewRecurringHandlers(deps *Deps) *recurringHandlers {
	return &recurringHandlers{
		ResponseHandler: deps.ResponseHandler,
		RecurringSvc:    deps.RecurringSvc,
	}
}

func (h *recurringHandlers) RecurringTransactionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateRecurringTransaction)
	r.Get("/", h.ListRecurringTransactions)
	r.Post("/run", h.RunDue) // must be before /{definitionId}
	r.Patch("/{definitionId}", h.UpdateRecurringTransaction)
	r.Delete("/{definitionId}", h.DeleteRecurringTransaction)
	return r
}

func (h *recurringHandlers) RecurringIncomeRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateRecurringIncome)
	r.Get("/", h.ListRecurringIncome)
	r.Patch("/{definitionId}", h.UpdateRecurringIncome)
	r.Delete("/{definitionId}", h.DeleteRecurringIncome)
	return r
}

func (h *recurringHandlers) CreateRecurringTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRecurringTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	def, err := h.RecurringSvc.CreateRecurringTransaction(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, def)
}

func (h *recurringHandlers) ListRecurringTransactions(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	defs, err := h.RecurringSvc.ListRecurringTransactions(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, defs)
}

func (h *recurringHandlers) UpdateRecurringTransaction(w http.ResponseWriter, r *http.Request) {
	definitionID := chi.URLParam(r, "definitionId")
	var patch dto.UpdateRecurringTransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	def, err := h.RecurringSvc.UpdateRecurringTransaction(r.Context(), uid, definitionID, patch)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, def)
}

func (h *recurringHandlers) DeleteRecurringTransaction(w http.ResponseWriter, r *http.Request) {
	definitionID := chi.URLParam(r, "definitionId")
	cascade := r.URL.Query().Get("cascade") == "true"
	uid := middleware.UID(r.Context())
	if err := h.RecurringSvc.DeleteRecurringTransaction(r.Context(), uid, definitionID, cascade); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *recurringHandlers) CreateRecurringIncome(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRecurringIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	def, err := h.RecurringSvc.CreateRecurringIncome(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, def)
}

func (h *recurringHandlers) ListRecurringIncome(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	defs, err := h.RecurringSvc.ListRecurringIncome(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, defs)
}

func (h *recurringHandlers) UpdateRecurringIncome(w http.ResponseWriter, r *http.Request) {
	definitionID := chi.URLParam(r, "definitionId")
	var patch dto.UpdateRecurringIncomePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	def, err := h.RecurringSvc.UpdateRecurringIncome(r.Context(), uid, definitionID, patch)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, def)
}

func (h *recurringHandlers) DeleteRecurringIncome(w http.ResponseWriter, r *http.Request) {
	definitionID := chi.URLParam(r, "definitionId")
	cascade := r.URL.Query().Get("cascade") == "true"
	uid := middleware.UID(r.Context())
	if err := h.RecurringSvc.DeleteRecurringIncome(r.Context(), uid, definitionID, cascade); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

// RunDue triggers a scheduler tick for the caller. The scheduler binary runs
// the same operation for every user on its own cadence.
func (h *recurringHandlers) RunDue(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	results, err := h.RecurringSvc.RunDue(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, results)
}
