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

type accountStore struct {
	client *firestore.Client
}

func NewAccountStore(client *firestore.Client) *accountStore {
	return &accountStore{client: client}
}

func (s *accountStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("accounts")
}

func (s *accountStore) Create(ctx context.Context, uid string, account *models.Account) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	_, err := s.collection(uid).Doc(account.AccountID).Create(ctx, account)
	if status.Code(err) == codes.AlreadyExists {
		return errs.NewAlreadyExistsError("account " + account.AccountID + " already exists")
	}
	return err
}

func (s *accountStore) Get(ctx context.Context, uid, accountID string) (*models.Account, error) {
	doc, err := s.collection(uid).Doc(accountID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("account " + accountID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var a models.Account
	if err := doc.DataTo(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *accountStore) List(ctx context.Context, uid string) ([]*models.Account, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	accounts := make([]*models.Account, 0, len(docs))
	for _, d := range docs {
		var a models.Account
		if err := d.DataTo(&a); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, nil
}

// Update patches the mutable fields only. The balance column is never
// written here, so a delta committing concurrently is not clobbered;
// balances move only through balance deltas.
func (s *accountStore) Update(ctx context.Context, uid string, account *models.Account) error {
	_, err := s.collection(uid).Doc(account.AccountID).Update(ctx, []firestore.Update{
		{Path: "name", Value: account.Name},
		{Path: "isActive", Value: account.IsActive},
		{Path: "updatedAt", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return errs.NewNotFoundError("account " + account.AccountID + " not found")
	}
	return err
}

func (s *accountStore) Delete(ctx context.Context, uid, accountID string) error {
	_, err := s.collection(uid).Doc(accountID).Delete(ctx)
	return err
}
