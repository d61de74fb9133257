package store

import (
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
)

// Helpers shared by every atomic unit that touches account balances.
// Firestore requires all reads before any writes inside a transaction, so the
// primitive is split into a verifying read phase and an Increment write
// phase. applyDeltasTx is the only place in the system that mutates
// balanceMinor after account creation.

func getAccountTx(ft *firestore.Transaction, accounts *firestore.CollectionRef, accountID string) (*models.Account, error) {
	snap, err := ft.Get(accounts.Doc(accountID))
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("account " + accountID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var a models.Account
	if err := snap.DataTo(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// verifyAccountsTx is the read phase: every account targeted by a delta must
// exist, otherwise the whole unit aborts before any write.
func verifyAccountsTx(ft *firestore.Transaction, accounts *firestore.CollectionRef, deltas []models.BalanceDelta) error {
	seen := make(map[string]bool, len(deltas))
	for _, d := range deltas {
		if seen[d.AccountID] {
			continue
		}
		seen[d.AccountID] = true
		if _, err := getAccountTx(ft, accounts, d.AccountID); err != nil {
			return err
		}
	}
	return nil
}

// applyDeltasTx is the write phase: one Increment per logical effect.
func applyDeltasTx(ft *firestore.Transaction, accounts *firestore.CollectionRef, deltas []models.BalanceDelta, now time.Time) error {
	for _, d := range deltas {
		err := ft.Update(accounts.Doc(d.AccountID), []firestore.Update{
			{Path: "balanceMinor", Value: firestore.Increment(d.AmountMinor)},
			{Path: "updatedAt", Value: now},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
