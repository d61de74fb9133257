package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hearthfin/hearth-backend/internal/bootstrap"
	"github.com/hearthfin/hearth-backend/internal/config"
	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/services"
	"github.com/hearthfin/hearth-backend/internal/store"
	"github.com/hearthfin/hearth-backend/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

// The scheduler is run once per day by Cloud Scheduler. It walks every user,
// materializes due recurring definitions and settles cards whose billing day
// is today. Users are isolated; one user's failure never stops the sweep.
func main() {
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
	rserv := services.NewRecurringService(rtstore, ristore, tstore, astore, cstore)
	bserv := services.NewBillingService(ccstore, ctstore, astore, cstore, nstore)

	ctx := logger.ToContext(context.Background(), bs.Log)

	uids, err := ustore.ListUIDs(ctx)
	exitOnError("listing users failed", err, bs.Log)

	var failed int
	for _, uid := range uids {
		log := bs.Log.With("uid", uid)
		userCtx := logger.ToContext(ctx, log)

		results, err := rserv.RunDue(userCtx, uid)
		if err != nil {
			log.Error("recurring sweep failed", "error", err)
			failed++
		} else {
			log.Info("recurring sweep finished",
				"items", len(results),
				"errors", countMaterializationErrors(results))
		}

		billing, err := bserv.ProcessBilling(userCtx, uid)
		if err != nil {
			log.Error("billing sweep failed", "error", err)
			failed++
		} else {
			log.Info("billing sweep finished", "cards", billing.Processed)
		}
	}

	// Per-user failures are logged and retried on the next daily run; the job
	// itself still succeeds so the schedule keeps firing.
	bs.Log.Info("scheduler run complete", "users", len(uids), "failures", failed)
}

func countMaterializationErrors(results []dto.MaterializationResult) int {
	var n int
	for _, r := range results {
		if r.Status == dto.MaterializationError {
			n++
		}
	}
	return n
}
