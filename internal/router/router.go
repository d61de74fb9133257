package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hearthfin/hearth-backend/internal/handlers"
	"github.com/hearthfin/hearth-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps, webhookToken string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	ush := handlers.NewUserHandlers(deps)
	ash := handlers.NewAccountHandlers(deps)
	csh := handlers.NewCategoryHandlers(deps)
	tsh := handlers.NewTransactionHandlers(deps)
	rsh := handlers.NewRecurringHandlers(deps)
	cch := handlers.NewCreditCardHandlers(deps)
	wsh := handlers.NewWebhookHandlers(deps)

	auth := middleware.NewMiddleware(deps.Firebase)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(auth.FirebaseAuth)
		r.Mount("/users", ush.UserRoutes())
		r.Mount("/accounts", ash.AccountRoutes())
		r.Mount("/categories", csh.CategoryRoutes())
		r.Mount("/transactions", tsh.TransactionRoutes())
		r.Mount("/recurring-transactions", rsh.RecurringTransactionRoutes())
		r.Mount("/recurring-income", rsh.RecurringIncomeRoutes())
		r.Mount("/credit-cards", cch.CreditCardRoutes())
	})

	// Shared-token webhook, outside Firebase auth
	r.Group(func(r chi.Router) {
		r.Use(middleware.WebhookAuth(webhookToken))
		r.Mount("/webhook", wsh.WebhookRoutes())
	})

	return r
}
