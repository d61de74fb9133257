package handlers

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/hearthfin/hearth-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	UserSvc         UserService
	AccountSvc      accountService
	CategorySvc     categoryService
	TransactionSvc  transactionService
	RecurringSvc    recurringService
	BillingSvc      billingService
	AnalyticsSvc    analyticsService
	WebhookSvc      webhookService
	Firebase        *auth.Client
}
