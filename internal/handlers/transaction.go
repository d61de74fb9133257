package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/middleware"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/internal/response"
)

type transactionService interface {
	Get(ctx context.Context, uid, transactionID string) (*models.Transaction, error)
	List(ctx context.Context, uid string, filter dto.TransactionQuery) ([]models.Transaction, error)
	Create(ctx context.Context, uid string, req dto.CreateTransactionRequest) (*models.Transaction, error)
	Update(ctx context.Context, uid, transactionID string, patch dto.UpdateTransactionPatch) (*models.Transaction, error)
	Delete(ctx context.Context, uid, transactionID string) error
}

type analyticsService interface {
	Summary(ctx context.Context, uid string, args dto.SummaryArgs) (*dto.SummaryResult, error)
}

type transactionHandlers struct {
	ResponseHandler response.ResponseHandler
	TransactionSvc  transactionService
	AnalyticsSvc    analyticsService
}

func NewTransactionHandlers(deps *Deps) *transactionHandlers {
	return &transactionHandlers{
		ResponseHandler: deps.ResponseHandler,
		TransactionSvc:  deps.TransactionSvc,
		AnalyticsSvc:    deps.AnalyticsSvc,
	}
}

func (h *transactionHandlers) TransactionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateTransaction)
	r.Get("/", h.ListTransactions)
	r.Get("/summary", h.GetSummary) // must be before /{transactionId}
	r.Get("/{transactionId}", h.GetTransaction)
	r.Patch("/{transactionId}", h.UpdateTransaction)
	r.Delete("/{transactionId}", h.DeleteTransaction)
	return r
}

func (h *transactionHandlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	tx, err := h.TransactionSvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, tx)
}

func (h *transactionHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := dto.TransactionQuery{
		AccountID:  optionalQuery(r, "accountId"),
		CategoryID: optionalQuery(r, "categoryId"),
		Type:       optionalQuery(r, "type"),
		DateFrom:   optionalQuery(r, "dateFrom"),
		DateTo:     optionalQuery(r, "dateTo"),
		OrderBy:    r.URL.Query().Get("orderBy"),
		Desc:       r.URL.Query().Get("desc") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.ResponseHandler.WriteError(w, r, http.StatusBadRequest, "invalid_input", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	uid := middleware.UID(r.Context())
	txs, err := h.TransactionSvc.List(r.Context(), uid, filter)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, txs)
}

func (h *transactionHandlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	uid := middleware.UID(r.Context())
	tx, err := h.TransactionSvc.Get(r.Context(), uid, transactionID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tx)
}

func (h *transactionHandlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	var patch dto.UpdateTransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	tx, err := h.TransactionSvc.Update(r.Context(), uid, transactionID, patch)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tx)
}

func (h *transactionHandlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	uid := middleware.UID(r.Context())
	if err := h.TransactionSvc.Delete(r.Context(), uid, transactionID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *transactionHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	args := dto.SummaryArgs{
		DateFrom:  optionalQuery(r, "dateFrom"),
		DateTo:    optionalQuery(r, "dateTo"),
		AccountID: optionalQuery(r, "accountId"),
		GroupBy:   r.URL.Query().Get("groupBy"),
	}
	uid := middleware.UID(r.Context())
	summary, err := h.AnalyticsSvc.Summary(r.Context(), uid, args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, summary)
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}
