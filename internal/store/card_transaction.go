package store

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
)

// ErrNothingPending is returned by Settle when every candidate row was
// already billed by the time the atomic unit re-read it. A same-day re-run
// of the billing batch lands here instead of double-charging.
var ErrNothingPending = errors.New("no pending card transactions to settle")

type cardTransactionStore struct {
	client *firestore.Client
}

func NewCardTransactionStore(client *firestore.Client) *cardTransactionStore {
	return &cardTransactionStore{client: client}
}

func (s *cardTransactionStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("credit_card_transactions")
}

func (s *cardTransactionStore) accounts(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("accounts")
}

func (s *cardTransactionStore) transactions(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("transactions")
}

func (s *cardTransactionStore) Create(ctx context.Context, uid string, ct *models.CreditCardTransaction) error {
	now := time.Now()
	if ct.CreatedAt.IsZero() {
		ct.CreatedAt = now
	}
	ct.UpdatedAt = now
	_, err := s.collection(uid).Doc(ct.CardTransactionID).Create(ctx, ct)
	return err
}

func (s *cardTransactionStore) Get(ctx context.Context, uid, cardTransactionID string) (*models.CreditCardTransaction, error) {
	doc, err := s.collection(uid).Doc(cardTransactionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("card transaction " + cardTransactionID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var ct models.CreditCardTransaction
	if err := doc.DataTo(&ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (s *cardTransactionStore) ListByCard(ctx context.Context, uid, creditCardID string) ([]*models.CreditCardTransaction, error) {
	docs, err := s.collection(uid).Where("creditCardId", "==", creditCardID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return snapshotsToCardTransactions(docs)
}

// ListPending returns the card's unbilled charges. Selecting on status is
// what makes a second same-day billing run a no-op.
func (s *cardTransactionStore) ListPending(ctx context.Context, uid, creditCardID string) ([]*models.CreditCardTransaction, error) {
	docs, err := s.collection(uid).
		Where("creditCardId", "==", creditCardID).
		Where("status", "==", string(models.CardTransactionPending)).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return snapshotsToCardTransactions(docs)
}

func (s *cardTransactionStore) Delete(ctx context.Context, uid, cardTransactionID string) error {
	_, err := s.collection(uid).Doc(cardTransactionID).Delete(ctx)
	return err
}

// Settle is one card's billing commit: it re-reads the candidate rows, drops
// any that were billed concurrently, creates a single settlement ledger entry
// for the surviving total, decrements the linked account once, and marks the
// rows billed with the settlement's id. The whole unit commits or rolls back
// together. Returns the settled total in minor units.
func (s *cardTransactionStore) Settle(ctx context.Context, uid string, settlement *models.Transaction, candidateIDs []string, billedDate string) (int64, error) {
	var total int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		// Read phase: linked account, then every candidate charge.
		if _, err := getAccountTx(ft, s.accounts(uid), settlement.AccountID); err != nil {
			return err
		}

		total = 0
		stillPending := make([]string, 0, len(candidateIDs))
		for _, id := range candidateIDs {
			snap, err := ft.Get(s.collection(uid).Doc(id))
			if status.Code(err) == codes.NotFound {
				continue
			}
			if err != nil {
				return err
			}
			var ct models.CreditCardTransaction
			if err := snap.DataTo(&ct); err != nil {
				return err
			}
			if ct.Status != models.CardTransactionPending {
				continue
			}
			total += ct.AmountMinor
			stillPending = append(stillPending, id)
		}
		if len(stillPending) == 0 {
			return ErrNothingPending
		}

		// Write phase.
		now := time.Now()
		settlement.AmountMinor = total
		settlement.CreatedAt = now
		settlement.UpdatedAt = now
		if err := ft.Create(s.transactions(uid).Doc(settlement.TransactionID), settlement); err != nil {
			return err
		}
		deltas := []models.BalanceDelta{{AccountID: settlement.AccountID, AmountMinor: -total}}
		if err := applyDeltasTx(ft, s.accounts(uid), deltas, now); err != nil {
			return err
		}
		for _, id := range stillPending {
			err := ft.Update(s.collection(uid).Doc(id), []firestore.Update{
				{Path: "status", Value: string(models.CardTransactionBilled)},
				{Path: "billedDate", Value: billedDate},
				{Path: "bankTransactionId", Value: settlement.TransactionID},
				{Path: "updatedAt", Value: now},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func snapshotsToCardTransactions(docs []*firestore.DocumentSnapshot) ([]*models.CreditCardTransaction, error) {
	cts := make([]*models.CreditCardTransaction, 0, len(docs))
	for _, d := range docs {
		var ct models.CreditCardTransaction
		if err := d.DataTo(&ct); err != nil {
			return nil, err
		}
		cts = append(cts, &ct)
	}
	return cts, nil
}
