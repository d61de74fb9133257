package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/pkg/logger"
	"github.com/hearthfin/hearth-backend/pkg/money"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type transactionTSStore interface {
	Get(ctx context.Context, uid, transactionID string) (*models.Transaction, error)
	Query(ctx context.Context, uid string, filter dto.TransactionQuery, handle func(*models.Transaction) error) error
	Create(ctx context.Context, uid string, txs []*models.Transaction, deltas []models.BalanceDelta) error
	Update(ctx context.Context, uid string, t *models.Transaction, deltas []models.BalanceDelta) error
	Delete(ctx context.Context, uid string, transactionIDs []string, deltas []models.BalanceDelta) error
	FindByIdempotencyKey(ctx context.Context, uid, key string) (*models.Transaction, error)
}

type accountTSStore interface {
	Get(ctx context.Context, uid, accountID string) (*models.Account, error)
}

type categoryTSStore interface {
	Get(ctx context.Context, uid, categoryID string) (*models.Category, error)
}

type transactionService struct {
	txs        transactionTSStore
	accounts   accountTSStore
	categories categoryTSStore
	clockNow   func() time.Time
}

func NewTransactionService(txs transactionTSStore, accounts accountTSStore, categories categoryTSStore) *transactionService {
	return &transactionService{
		txs:        txs,
		accounts:   accounts,
		categories: categories,
		clockNow:   time.Now,
	}
}

func (s *transactionService) Get(ctx context.Context, uid, transactionID string) (*models.Transaction, error) {
	return s.txs.Get(ctx, uid, transactionID)
}

func (s *transactionService) List(ctx context.Context, uid string, filter dto.TransactionQuery) ([]models.Transaction, error) {
	txs := make([]models.Transaction, 0)
	err := s.txs.Query(ctx, uid, filter, func(t *models.Transaction) error {
		txs = append(txs, *t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Create validates the request, builds the ledger row(s) and commits them
// with their balance deltas as one atomic unit. A transfer produces two
// linked rows: debit on the source, credit on the destination.
func (s *transactionService) Create(ctx context.Context, uid string, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	typ := models.TransactionType(req.Type)
	if typ != models.TransactionTypeIncome && typ != models.TransactionTypeExpense && typ != models.TransactionTypeTransfer {
		return nil, errs.NewValidationError("type must be income, expense or transfer")
	}

	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		return nil, errs.NewValidationError(err.Error())
	}

	date, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}

	account, err := s.activeAccount(ctx, uid, req.AccountID)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != "" {
		if _, err := s.categories.Get(ctx, uid, req.CategoryID); err != nil {
			return nil, err
		}
	}

	log := logger.FromContext(ctx)

	if typ == models.TransactionTypeTransfer {
		if req.TransferToAccountID == "" {
			return nil, errs.NewValidationError("transferToAccountId is required for transfers")
		}
		if req.TransferToAccountID == req.AccountID {
			return nil, errs.NewValidationError("cannot transfer to the same account")
		}
		dest, err := s.activeAccount(ctx, uid, req.TransferToAccountID)
		if err != nil {
			return nil, err
		}
		if dest.Currency != account.Currency {
			return nil, errs.NewValidationError("transfer accounts must share a currency")
		}

		sourceID := uuid.New().String()
		destID := uuid.New().String()
		source := &models.Transaction{
			TransactionID:           sourceID,
			AccountID:               account.AccountID,
			Type:                    models.TransactionTypeTransfer,
			AmountMinor:             amount,
			Currency:                account.Currency,
			Date:                    date,
			Description:             req.Description,
			CategoryID:              req.CategoryID,
			TransferToAccountID:     dest.AccountID,
			TransferToTransactionID: destID,
			IdempotencyKey:          req.IdempotencyKey,
		}
		sibling := &models.Transaction{
			TransactionID:           destID,
			AccountID:               dest.AccountID,
			Type:                    models.TransactionTypeTransfer,
			AmountMinor:             amount,
			Currency:                dest.Currency,
			Date:                    date,
			Description:             req.Description,
			TransferFromAccountID:   account.AccountID,
			TransferToTransactionID: sourceID,
		}
		deltas := []models.BalanceDelta{
			{AccountID: account.AccountID, AmountMinor: -amount},
			{AccountID: dest.AccountID, AmountMinor: amount},
		}
		if err := s.txs.Create(ctx, uid, []*models.Transaction{source, sibling}, deltas); err != nil {
			return nil, err
		}
		log.Info("transfer created",
			"transaction_id", sourceID,
			"from_account", account.AccountID,
			"to_account", dest.AccountID)
		return source, nil
	}

	t := &models.Transaction{
		TransactionID:  uuid.New().String(),
		AccountID:      account.AccountID,
		Type:           typ,
		AmountMinor:    amount,
		Currency:       account.Currency,
		Date:           date,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		IdempotencyKey: req.IdempotencyKey,
	}
	deltas := []models.BalanceDelta{{AccountID: account.AccountID, AmountMinor: t.SignedEffectMinor()}}
	if err := s.txs.Create(ctx, uid, []*models.Transaction{t}, deltas); err != nil {
		return nil, err
	}
	log.Info("transaction created", "transaction_id", t.TransactionID, "type", t.Type)
	return t, nil
}

// Update follows the reverse-then-reapply protocol: the old signed effect is
// reversed on the old account and the merged entry's new effect is applied to
// the (possibly different) new account, both in the same atomic unit. Never
// apply only the amount difference: if the account changed, two accounts move.
func (s *transactionService) Update(ctx context.Context, uid, transactionID string, patch dto.UpdateTransactionPatch) (*models.Transaction, error) {
	existing, err := s.txs.Get(ctx, uid, transactionID)
	if err != nil {
		return nil, err
	}
	if existing.Type == models.TransactionTypeTransfer {
		return nil, errs.NewValidationError("transfer entries cannot be edited; delete and recreate the transfer")
	}
	if patch.Type != nil && models.TransactionType(*patch.Type) == models.TransactionTypeTransfer {
		return nil, errs.NewValidationError("cannot change an entry into a transfer")
	}

	oldAccountID := existing.AccountID
	oldEffect := existing.SignedEffectMinor()

	merged := *existing
	if patch.Type != nil {
		typ := models.TransactionType(*patch.Type)
		if typ != models.TransactionTypeIncome && typ != models.TransactionTypeExpense {
			return nil, errs.NewValidationError("type must be income or expense")
		}
		merged.Type = typ
	}
	if patch.Amount != nil {
		amount, err := money.ParsePositive(*patch.Amount)
		if err != nil {
			return nil, errs.NewValidationError(err.Error())
		}
		merged.AmountMinor = amount
	}
	if patch.AccountID != nil {
		account, err := s.activeAccount(ctx, uid, *patch.AccountID)
		if err != nil {
			return nil, err
		}
		merged.AccountID = account.AccountID
		merged.Currency = account.Currency
	}
	if patch.Date != nil {
		if _, err := time.Parse(dateLayout, *patch.Date); err != nil {
			return nil, errs.NewValidationError("date must be YYYY-MM-DD")
		}
		merged.Date = *patch.Date
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		// Empty string explicitly clears the category.
		if *patch.CategoryID != "" {
			if _, err := s.categories.Get(ctx, uid, *patch.CategoryID); err != nil {
				return nil, err
			}
		}
		merged.CategoryID = *patch.CategoryID
	}

	deltas := []models.BalanceDelta{
		{AccountID: oldAccountID, AmountMinor: -oldEffect},
		{AccountID: merged.AccountID, AmountMinor: merged.SignedEffectMinor()},
	}
	if err := s.txs.Update(ctx, uid, &merged, deltas); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("transaction updated", "transaction_id", transactionID)
	return &merged, nil
}

// Delete reverses the entry's effect. For a transfer both sides are reversed
// and removed; a missing sibling is a tolerated integrity gap: the present
// side is still reversed and the anomaly is logged for follow-up.
func (s *transactionService) Delete(ctx context.Context, uid, transactionID string) error {
	t, err := s.txs.Get(ctx, uid, transactionID)
	if err != nil {
		return err
	}

	ids := []string{t.TransactionID}
	deltas := []models.BalanceDelta{{AccountID: t.AccountID, AmountMinor: -t.SignedEffectMinor()}}

	if t.Type == models.TransactionTypeTransfer {
		sibling, err := s.txs.Get(ctx, uid, t.TransferToTransactionID)
		switch {
		case err == nil:
			ids = append(ids, sibling.TransactionID)
			deltas = append(deltas, models.BalanceDelta{AccountID: sibling.AccountID, AmountMinor: -sibling.SignedEffectMinor()})
		case isNotFound(err):
			gap := errs.NewIntegrityGapError("transfer sibling " + t.TransferToTransactionID + " missing for " + t.TransactionID)
			logger.FromContext(ctx).Error("transfer sibling missing, reversing one side only",
				"transaction_id", t.TransactionID,
				"sibling_id", t.TransferToTransactionID,
				"error", gap.Message)
		default:
			return err
		}
	}

	if err := s.txs.Delete(ctx, uid, ids, deltas); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("transaction deleted", "transaction_id", transactionID, "rows", len(ids))
	return nil
}

// Ingest is the webhook entry point: idempotency-keyed create. Replays with a
// known key return the already-ingested row. The bool result reports whether
// a new row was created.
func (s *transactionService) Ingest(ctx context.Context, uid string, req dto.ShortcutWebhookRequest) (*models.Transaction, bool, error) {
	if req.IdempotencyKey == "" {
		return nil, false, errs.NewValidationError("idempotencyKey is required")
	}
	if req.Type != string(models.TransactionTypeIncome) && req.Type != string(models.TransactionTypeExpense) {
		return nil, false, errs.NewValidationError("type must be income or expense")
	}

	existing, err := s.txs.FindByIdempotencyKey(ctx, uid, req.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		logger.FromContext(ctx).Info("webhook replay ignored", "idempotency_key", req.IdempotencyKey)
		return existing, false, nil
	}

	t, err := s.Create(ctx, uid, dto.CreateTransactionRequest{
		Type:           req.Type,
		Amount:         req.Amount,
		AccountID:      req.AccountID,
		Date:           req.Date,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *transactionService) activeAccount(ctx context.Context, uid, accountID string) (*models.Account, error) {
	if accountID == "" {
		return nil, errs.NewValidationError("accountId is required")
	}
	account, err := s.accounts.Get(ctx, uid, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, errs.NewValidationError("account " + accountID + " is inactive")
	}
	return account, nil
}

func (s *transactionService) resolveDate(date string) (string, error) {
	if date == "" {
		return s.clockNow().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", errs.NewValidationError("date must be YYYY-MM-DD")
	}
	return date, nil
}

func isNotFound(err error) bool {
	var nf *errs.NotFoundError
	return errors.As(err, &nf)
}
