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

type recurringIncomeStore struct {
	client *firestore.Client
}

func NewRecurringIncomeStore(client *firestore.Client) *recurringIncomeStore {
	return &recurringIncomeStore{client: client}
}

func (s *recurringIncomeStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("recurring_income")
}

func (s *recurringIncomeStore) accounts(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("accounts")
}

func (s *recurringIncomeStore) transactions(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("transactions")
}

func (s *recurringIncomeStore) Create(ctx context.Context, uid string, def *models.RecurringIncome) error {
	now := time.Now()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	_, err := s.collection(uid).Doc(def.RecurringIncomeID).Create(ctx, def)
	return err
}

func (s *recurringIncomeStore) Get(ctx context.Context, uid, definitionID string) (*models.RecurringIncome, error) {
	doc, err := s.collection(uid).Doc(definitionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("recurring income " + definitionID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var def models.RecurringIncome
	if err := doc.DataTo(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (s *recurringIncomeStore) List(ctx context.Context, uid string) ([]*models.RecurringIncome, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	defs := make([]*models.RecurringIncome, 0, len(docs))
	for _, d := range docs {
		var def models.RecurringIncome
		if err := d.DataTo(&def); err != nil {
			return nil, err
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

func (s *recurringIncomeStore) ListDue(ctx context.Context, uid, today string) ([]*models.RecurringIncome, error) {
	docs, err := s.collection(uid).
		Where("isActive", "==", true).
		Where("nextRunDate", "<=", today).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	defs := make([]*models.RecurringIncome, 0, len(docs))
	for _, d := range docs {
		var def models.RecurringIncome
		if err := d.DataTo(&def); err != nil {
			return nil, err
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

func (s *recurringIncomeStore) Update(ctx context.Context, uid string, def *models.RecurringIncome) error {
	def.UpdatedAt = time.Now()
	_, err := s.collection(uid).Doc(def.RecurringIncomeID).Set(ctx, def)
	return err
}

func (s *recurringIncomeStore) Delete(ctx context.Context, uid, definitionID string) error {
	_, err := s.collection(uid).Doc(definitionID).Delete(ctx)
	return err
}

func (s *recurringIncomeStore) Materialize(ctx context.Context, uid string, def *models.RecurringIncome, t *models.Transaction, delta models.BalanceDelta) error {
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
		if err := ft.Set(s.collection(uid).Doc(def.RecurringIncomeID), def); err != nil {
			return err
		}
		return applyDeltasTx(ft, s.accounts(uid), deltas, now)
	})
}
