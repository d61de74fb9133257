package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/hearthfin/hearth-backend/internal/bootstrap"
	"github.com/hearthfin/hearth-backend/internal/config"
	"github.com/hearthfin/hearth-backend/internal/handlers"
	"github.com/hearthfin/hearth-backend/internal/response"
	"github.com/hearthfin/hearth-backend/internal/router"
	"github.com/hearthfin/hearth-backend/internal/services"
	"github.com/hearthfin/hearth-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	astore := store.NewAccountStore(bs.Firestore)
	cstore := store.NewCategoryStore(bs.Firestore)
	tstore := store.NewTransactionStore(bs.Firestore)
	rtstore := store.NewRecurringTransactionStore(bs.Firestore)
	ristore := store.NewRecurringIncomeStore(bs.Firestore)
	ccstore := store.NewCreditCardStore(bs.Firestore)
	ctstore := store.NewCardTransactionStore(bs.Firestore)
	nstore := store.NewNotificationStore(bs.Firestore)

	// services
	userv := services.NewUserService(ustore)
	aserv := services.NewAccountService(astore)
	cserv := services.NewCategoryService(cstore)
	tserv := services.NewTransactionService(tstore, astore, cstore)
	rserv := services.NewRecurringService(rtstore, ristore, tstore, astore, cstore)
	bserv := services.NewBillingService(ccstore, ctstore, astore, cstore, nstore)
	anserv := services.NewAnalyticsService(tstore)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.UserSvc = userv
	deps.AccountSvc = aserv
	deps.CategorySvc = cserv
	deps.TransactionSvc = tserv
	deps.RecurringSvc = rserv
	deps.BillingSvc = bserv
	deps.AnalyticsSvc = anserv
	deps.WebhookSvc = tserv

	// router
	r := router.NewRouter(deps, bs.WebhookToken)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
