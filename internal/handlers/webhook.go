package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/internal/response"
)

type webhookService interface {
	Ingest(ctx context.Context, uid string, req dto.ShortcutWebhookRequest) (*models.Transaction, bool, error)
}

type webhookHandlers struct {
	ResponseHandler response.ResponseHandler
	WebhookSvc      webhookService
}

func NewWebhookHandlers(deps *Deps) *webhookHandlers {
	return &webhookHandlers{
		ResponseHandler: deps.ResponseHandler,
		WebhookSvc:      deps.WebhookSvc,
	}
}

func (h *webhookHandlers) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/shortcut", h.IngestShortcut)
	return r
}

// IngestShortcut accepts a transaction from the shared-token webhook. The
// payload carries the target user since the token identifies only the
// installation. Replays of the same idempotencyKey return the original row
// with 200 instead of 201.
func (h *webhookHandlers) IngestShortcut(w http.ResponseWriter, r *http.Request) {
	var req dto.ShortcutWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if req.UserID == "" {
		h.ResponseHandler.WriteError(w, r, http.StatusBadRequest, "invalid_input", "userId is required")
		return
	}

	tx, created, err := h.WebhookSvc.Ingest(r.Context(), req.UserID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.ResponseHandler.WriteSuccess(w, r, status, tx)
}
