package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
)

// Provenance field names used for recurring idempotency and cascade queries.
const (
	provenanceRecurringTransaction = "recurringTransactionId"
	provenanceRecurringIncome      = "recurringIncomeId"
)

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("transactions")
}

func (s *transactionStore) accounts(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("accounts")
}

func (s *transactionStore) Get(ctx context.Context, uid, transactionID string) (*models.Transaction, error) {
	doc, err := s.collection(uid).Doc(transactionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("transaction " + transactionID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var t models.Transaction
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Query streams matching transactions to the handle callback.
func (s *transactionStore) Query(ctx context.Context, uid string, filter dto.TransactionQuery, handle func(*models.Transaction) error) error {
	q := s.collection(uid).Query
	if filter.AccountID != nil {
		q = q.Where("accountId", "==", *filter.AccountID)
	}
	if filter.CategoryID != nil {
		q = q.Where("categoryId", "==", *filter.CategoryID)
	}
	if filter.Type != nil {
		q = q.Where("type", "==", *filter.Type)
	}
	if filter.DateFrom != nil {
		q = q.Where("date", ">=", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("date", "<=", *filter.DateTo)
	}
	if filter.OrderBy != "" {
		dir := firestore.Asc
		if filter.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(filter.OrderBy, dir)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return err
	}
	for _, d := range docs {
		var t models.Transaction
		if err := d.DataTo(&t); err != nil {
			return err
		}
		if err := handle(&t); err != nil {
			return err
		}
	}
	return nil
}

// Create persists the given rows and applies their balance deltas as one
// atomic unit. Transfers pass both sides here so the pair commits together.
func (s *transactionStore) Create(ctx context.Context, uid string, txs []*models.Transaction, deltas []models.BalanceDelta) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		if err := verifyAccountsTx(ft, s.accounts(uid), deltas); err != nil {
			return err
		}
		now := time.Now()
		for _, t := range txs {
			if t.CreatedAt.IsZero() {
				t.CreatedAt = now
			}
			t.UpdatedAt = now
			if err := ft.Create(s.collection(uid).Doc(t.TransactionID), t); err != nil {
				return err
			}
		}
		return applyDeltasTx(ft, s.accounts(uid), deltas, now)
	})
}

// Update rewrites one row and applies the caller's reversal/reapplication
// deltas in the same atomic unit.
func (s *transactionStore) Update(ctx context.Context, uid string, t *models.Transaction, deltas []models.BalanceDelta) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		if err := verifyAccountsTx(ft, s.accounts(uid), deltas); err != nil {
			return err
		}
		now := time.Now()
		t.UpdatedAt = now
		if err := ft.Set(s.collection(uid).Doc(t.TransactionID), t); err != nil {
			return err
		}
		return applyDeltasTx(ft, s.accounts(uid), deltas, now)
	})
}

// Delete removes the given rows and applies their reversal deltas atomically.
func (s *transactionStore) Delete(ctx context.Context, uid string, transactionIDs []string, deltas []models.BalanceDelta) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		if err := verifyAccountsTx(ft, s.accounts(uid), deltas); err != nil {
			return err
		}
		for _, id := range transactionIDs {
			if err := ft.Delete(s.collection(uid).Doc(id)); err != nil {
				return err
			}
		}
		return applyDeltasTx(ft, s.accounts(uid), deltas, time.Now())
	})
}

// FindByIdempotencyKey returns nil when no row carries the key.
func (s *transactionStore) FindByIdempotencyKey(ctx context.Context, uid, key string) (*models.Transaction, error) {
	docs, err := s.collection(uid).Where("idempotencyKey", "==", key).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var t models.Transaction
	if err := docs[0].DataTo(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// existsInPeriod is the materialization idempotency guard: has the given
// recurring definition already produced a row dated within [from, to]?
func (s *transactionStore) existsInPeriod(ctx context.Context, uid, provenanceField, definitionID, from, to string) (bool, error) {
	docs, err := s.collection(uid).
		Where(provenanceField, "==", definitionID).
		Where("date", ">=", from).
		Where("date", "<=", to).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

func (s *transactionStore) ExistsForRecurringTransaction(ctx context.Context, uid, definitionID, from, to string) (bool, error) {
	return s.existsInPeriod(ctx, uid, provenanceRecurringTransaction, definitionID, from, to)
}

func (s *transactionStore) ExistsForRecurringIncome(ctx context.Context, uid, definitionID, from, to string) (bool, error) {
	return s.existsInPeriod(ctx, uid, provenanceRecurringIncome, definitionID, from, to)
}

// listByProvenance returns every row a recurring definition produced.
func (s *transactionStore) listByProvenance(ctx context.Context, uid, provenanceField, definitionID string) ([]*models.Transaction, error) {
	docs, err := s.collection(uid).Where(provenanceField, "==", definitionID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	txs := make([]*models.Transaction, 0, len(docs))
	for _, d := range docs {
		var t models.Transaction
		if err := d.DataTo(&t); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, nil
}

func (s *transactionStore) ListByRecurringTransaction(ctx context.Context, uid, definitionID string) ([]*models.Transaction, error) {
	return s.listByProvenance(ctx, uid, provenanceRecurringTransaction, definitionID)
}

func (s *transactionStore) ListByRecurringIncome(ctx context.Context, uid, definitionID string) ([]*models.Transaction, error) {
	return s.listByProvenance(ctx, uid, provenanceRecurringIncome, definitionID)
}
