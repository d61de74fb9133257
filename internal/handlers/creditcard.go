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

type billingService interface {
	CreateCard(ctx context.Context, uid string, req dto.CreateCreditCardRequest) (*models.CreditCard, error)
	ListCards(ctx context.Context, uid string) ([]*models.CreditCard, error)
	UpdateCard(ctx context.Context, uid, creditCardID string, patch dto.UpdateCreditCardPatch) (*models.CreditCard, error)
	DeleteCard(ctx context.Context, uid, creditCardID string) error
	AddCharge(ctx context.Context, uid, creditCardID string, req dto.CreateCardTransactionRequest) (*models.CreditCardTransaction, error)
	ListCharges(ctx context.Context, uid, creditCardID string) ([]*models.CreditCardTransaction, error)
	ProcessBilling(ctx context.Context, uid string) (dto.BillingRunResult, error)
	PreviewBilling(ctx context.Context, uid string) (dto.BillingRunResult, error)
}

type creditCardHandlers struct {
	ResponseHandler response.ResponseHandler
	BillingSvc      billingService
}

func NewCreditCardHandlers(deps *Deps) *creditCardHandlers {
	return &creditCardHandlers{
		ResponseHandler: deps.ResponseHandler,
		BillingSvc:      deps.BillingSvc,
	}
}

func (h *creditCardHandlers) CreditCardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateCard)
	r.Get("/", h.ListCards)
	r.Post("/process-billing", h.ProcessBilling) // must be before /{creditCardId}
	r.Get("/process-billing", h.PreviewBilling)
	r.Patch("/{creditCardId}", h.UpdateCard)
	r.Delete("/{creditCardId}", h.DeleteCard)
	r.Post("/{creditCardId}/transactions", h.AddCharge)
	r.Get("/{creditCardId}/transactions", h.ListCharges)
	return r
}

func (h *creditCardHandlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCreditCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	card, err := h.BillingSvc.CreateCard(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, card)
}

func (h *creditCardHandlers) ListCards(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	cards, err := h.BillingSvc.ListCards(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, cards)
}

func (h *creditCardHandlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	creditCardID := chi.URLParam(r, "creditCardId")
	var patch dto.UpdateCreditCardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	card, err := h.BillingSvc.UpdateCard(r.Context(), uid, creditCardID, patch)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, card)
}

func (h *creditCardHandlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	creditCardID := chi.URLParam(r, "creditCardId")
	uid := middleware.UID(r.Context())
	if err := h.BillingSvc.DeleteCard(r.Context(), uid, creditCardID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *creditCardHandlers) AddCharge(w http.ResponseWriter, r *http.Request) {
	creditCardID := chi.URLParam(r, "creditCardId")
	var req dto.CreateCardTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	charge, err := h.BillingSvc.AddCharge(r.Context(), uid, creditCardID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, charge)
}

func (h *creditCardHandlers) ListCharges(w http.ResponseWriter, r *http.Request) {
	creditCardID := chi.URLParam(r, "creditCardId")
	uid := middleware.UID(r.Context())
	charges, err := h.BillingSvc.ListCharges(r.Context(), uid, creditCardID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, charges)
}

func (h *creditCardHandlers) ProcessBilling(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	result, err := h.BillingSvc.ProcessBilling(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}

func (h *creditCardHandlers) PreviewBilling(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	result, err := h.BillingSvc.PreviewBilling(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}
