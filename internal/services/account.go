package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/pkg/money"
)

type accountASStore interface {
	Create(ctx context.Context, uid string, account *models.Account) error
	Get(ctx context.Context, uid, accountID string) (*models.Account, error)
	List(ctx context.Context, uid string) ([]*models.Account, error)
	Update(ctx context.Context, uid string, account *models.Account) error
	Delete(ctx context.Context, uid, accountID string) error
}

type accountService struct {
	accounts accountASStore
	clockNow func() time.Time
}

func NewAccountService(accounts accountASStore) *accountService {
	return &accountService{accounts: accounts, clockNow: time.Now}
}

func (s *accountService) Create(ctx context.Context, uid string, req dto.CreateAccountRequest) (*models.Account, error) {
	if req.Name == "" {
		return nil, errs.NewValidationError("name is required")
	}
	if req.Currency == "" {
		return nil, errs.NewValidationError("currency is required")
	}
	var balance int64
	if req.InitialBalance != "" {
		var err error
		balance, err = money.Parse(req.InitialBalance)
		if err != nil {
			return nil, errs.NewValidationError(err.Error())
		}
	}

	account := &models.Account{
		AccountID:    uuid.New().String(),
		Name:         req.Name,
		Currency:     req.Currency,
		BalanceMinor: balance,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, uid, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) Get(ctx context.Context, uid, accountID string) (*models.Account, error) {
	return s.accounts.Get(ctx, uid, accountID)
}

func (s *accountService) List(ctx context.Context, uid string) ([]*models.Account, error) {
	return s.accounts.List(ctx, uid)
}

// Update patches name and active flag. The balance is not patchable; it moves
// only through ledger entries.
func (s *accountService) Update(ctx context.Context, uid, accountID string, patch dto.UpdateAccountPatch) (*models.Account, error) {
	account, err := s.accounts.Get(ctx, uid, accountID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, errs.NewValidationError("name cannot be empty")
		}
		account.Name = *patch.Name
	}
	if patch.IsActive != nil {
		account.IsActive = *patch.IsActive
	}
	if err := s.accounts.Update(ctx, uid, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Delete refuses while the account still holds a balance, since removing the
// document would orphan the money it represents.
func (s *accountService) Delete(ctx context.Context, uid, accountID string) error {
	account, err := s.accounts.Get(ctx, uid, accountID)
	if err != nil {
		return err
	}
	if account.BalanceMinor != 0 {
		return errs.NewValidationError("account balance must be zero before deletion, current balance is " + money.Format(account.BalanceMinor))
	}
	return s.accounts.Delete(ctx, uid, accountID)
}
