package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
)

type recurringTransactionStore struct {
	client *firestore.Client
}

func NewRecurringTransactionStore(client *firestore.Client) *recurringTransactionStore {
	return &recurringTransactionStore{client: client}
}

func (s *recurringTransactionStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("recurring_transactions")
}

func (s *recurringTransactionStore) accounts(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("accounts")
}

func (s *recurringTransactionStore) transactions(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("transactions")
}

func (s *recurringTransactionStore) Create(ctx context.Context, uid string, def *models.RecurringTransaction) error {
	now := time.Now()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	_, err := s.collection(uid).Doc(def.RecurringTransactionID).Create(ctx, def)
	return err
}

func (s *recurringTransactionStore) Get(ctx context.Context, uid, definitionID string) (*models.RecurringTransaction, error) {
	doc, err := s.collection(uid).Doc(definitionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("recurring transaction " + definitionID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var def models.RecurringTransaction
	if err := doc.DataTo(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (s *recurringTransactionStore) List(ctx context.Context, uid string) ([]*models.RecurringTransaction, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	defs := make([]*models.RecurringTransaction, 0, len(docs))
	for _, d := range docs {
		var def models.RecurringTransaction
		if err := d.DataTo(&def); err != nil {
			return nil, err
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

// ListDue returns active definitions whose next run is today or earlier.
func (s *recurringTransactionStore) ListDue(ctx context.Context, uid, today string) ([]*models.RecurringTransaction, error) {
	docs, err := s.collection(uid).
		Where("isActive", "==", true).
		Where("nextRunDate", "<=", today).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	defs := make([]*models.RecurringTransaction, 0, len(docs))
	for _, d := range docs {
		var def models.RecurringTransaction
		if err := d.DataTo(&def); err != nil {
			return nil, err
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

func (s *recurringTransactionStore) Update(ctx context.Context, uid string, def *models.RecurringTransaction) error {
	def.UpdatedAt = time.Now()
	_, err := s.collection(uid).Doc(def.RecurringTransactionID).Set(ctx, def)
	return err
}

func (s *recurringTransactionStore) Delete(ctx context.Context, uid, definitionID string) error {
	_, err := s.collection(uid).Doc(definitionID).Delete(ctx)
	return err
}

// Materialize commits one scheduler period: the produced ledger row, its
// balance delta, and the definition's advanced run dates, as one atomic unit.
func (s *recurringTransactionStore) Materialize(ctx context.Context, uid string, def *models.RecurringTransaction, t *models.Transaction, delta models.BalanceDelta) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		deltas := []models.BalanceDelta{delta}
		if err := verifyAccountsTx(ft, s.accounts(uid), deltas); err != nil {
			return err
		}
		now := time.Now()
		t.CreatedAt = now
		t.UpdatedAt = now
		if err := ft.Create(s.transactions(uid).Doc(t.TransactionID), t); err != nil {
			return err
		}
		def.UpdatedAt = now
		if err := ft.Set(s.collection(uid).Doc(def.RecurringTransactionID), def); err != nil {
			return err
		}
		return applyDeltasTx(ft, s.accounts(uid), deltas, now)
	})
}
