package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/internal/store"
	"github.com/hearthfin/hearth-backend/pkg/logger"
	"github.com/hearthfin/hearth-backend/pkg/money"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type creditCardBCStore interface {
	Create(ctx context.Context, uid string, card *models.CreditCard) error
	Get(ctx context.Context, uid, creditCardID string) (*models.CreditCard, error)
	List(ctx context.Context, uid string) ([]*models.CreditCard, error)
	ListDueByBillingDay(ctx context.Context, uid string, day int) ([]*models.CreditCard, error)
	Update(ctx context.Context, uid string, card *models.CreditCard) error
	Delete(ctx context.Context, uid, creditCardID string) error
}

type cardTransactionBCStore interface {
	Create(ctx context.Context, uid string, ct *models.CreditCardTransaction) error
	ListByCard(ctx context.Context, uid, creditCardID string) ([]*models.CreditCardTransaction, error)
	ListPending(ctx context.Context, uid, creditCardID string) ([]*models.CreditCardTransaction, error)
	Settle(ctx context.Context, uid string, settlement *models.Transaction, candidateIDs []string, billedDate string) (int64, error)
}

type accountBCStore interface {
	Get(ctx context.Context, uid, accountID string) (*models.Account, error)
}

type categoryBCStore interface {
	Get(ctx context.Context, uid, categoryID string) (*models.Category, error)
}

type notificationBCStore interface {
	Create(ctx context.Context, uid string, n *models.Notification) error
}

// billingService owns the credit-card billing cycle: pending charges
// accumulate against a card with no balance effect, and on the card's billing
// day they settle into a single ledger entry on the linked account.
type billingService struct {
	cards         creditCardBCStore
	cardTxs       cardTransactionBCStore
	accounts      accountBCStore
	categories    categoryBCStore
	notifications notificationBCStore
	clockNow      func() time.Time
}

func NewBillingService(cards creditCardBCStore, cardTxs cardTransactionBCStore, accounts accountBCStore, categories categoryBCStore, notifications notificationBCStore) *billingService {
	return &billingService{
		cards:         cards,
		cardTxs:       cardTxs,
		accounts:      accounts,
		categories:    categories,
		notifications: notifications,
		clockNow:      time.Now,
	}
}

// --- Card CRUD ---

func (s *billingService) CreateCard(ctx context.Context, uid string, req dto.CreateCreditCardRequest) (*models.CreditCard, error) {
	if req.Name == "" {
		return nil, errs.NewValidationError("name is required")
	}
	if !validDayOfMonth(req.BillingDay) {
		return nil, errs.NewValidationError("billingDay must be between 1 and 28")
	}
	account, err := s.accounts.Get(ctx, uid, req.LinkedAccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, errs.NewValidationError("linked account " + req.LinkedAccountID + " is inactive")
	}
	var limit int64
	if req.CreditLimit != "" {
		limit, err = money.ParsePositive(req.CreditLimit)
		if err != nil {
			return nil, errs.NewValidationError(err.Error())
		}
	}

	card := &models.CreditCard{
		CreditCardID:     uuid.New().String(),
		Name:             req.Name,
		BillingDay:       req.BillingDay,
		LinkedAccountID:  account.AccountID,
		CreditLimitMinor: limit,
		IsActive:         true,
	}
	if err := s.cards.Create(ctx, uid, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *billingService) ListCards(ctx context.Context, uid string) ([]*models.CreditCard, error) {
	return s.cards.List(ctx, uid)
}

func (s *billingService) UpdateCard(ctx context.Context, uid, creditCardID string, patch dto.UpdateCreditCardPatch) (*models.CreditCard, error) {
	card, err := s.cards.Get(ctx, uid, creditCardID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, errs.NewValidationError("name cannot be empty")
		}
		card.Name = *patch.Name
	}
	if patch.BillingDay != nil {
		if !validDayOfMonth(*patch.BillingDay) {
			return nil, errs.NewValidationError("billingDay must be between 1 and 28")
		}
		card.BillingDay = *patch.BillingDay
	}
	if patch.LinkedAccountID != nil {
		account, err := s.accounts.Get(ctx, uid, *patch.LinkedAccountID)
		if err != nil {
			return nil, err
		}
		if !account.IsActive {
			return nil, errs.NewValidationError("linked account " + *patch.LinkedAccountID + " is inactive")
		}
		card.LinkedAccountID = account.AccountID
	}
	if patch.CreditLimit != nil {
		if *patch.CreditLimit == "" {
			card.CreditLimitMinor = 0
		} else {
			limit, err := money.ParsePositive(*patch.CreditLimit)
			if err != nil {
				return nil, errs.NewValidationError(err.Error())
			}
			card.CreditLimitMinor = limit
		}
	}
	if patch.IsActive != nil {
		card.IsActive = *patch.IsActive
	}
	if err := s.cards.Update(ctx, uid, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *billingService) DeleteCard(ctx context.Context, uid, creditCardID string) error {
	card, err := s.cards.Get(ctx, uid, creditCardID)
	if err != nil {
		return err
	}
	pending, err := s.cardTxs.ListPending(ctx, uid, card.CreditCardID)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return errs.NewValidationError("card has pending charges; bill or remove them first")
	}
	return s.cards.Delete(ctx, uid, creditCardID)
}

// --- Pending charges ---

// AddCharge records a pending card transaction. It affects no account
// balance until settlement folds it into a billing-day ledger entry.
func (s *billingService) AddCharge(ctx context.Context, uid, creditCardID string, req dto.CreateCardTransactionRequest) (*models.CreditCardTransaction, error) {
	card, err := s.cards.Get(ctx, uid, creditCardID)
	if err != nil {
		return nil, err
	}
	if !card.IsActive {
		return nil, errs.NewValidationError("credit card " + creditCardID + " is inactive")
	}
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		return nil, errs.NewValidationError(err.Error())
	}
	if req.CategoryID != "" {
		if _, err := s.categories.Get(ctx, uid, req.CategoryID); err != nil {
			return nil, err
		}
	}
	date := req.Date
	if date == "" {
		date = s.clockNow().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, errs.NewValidationError("date must be YYYY-MM-DD")
	}

	if card.CreditLimitMinor > 0 {
		exposure, err := s.pendingTotal(ctx, uid, card.CreditCardID)
		if err != nil {
			return nil, err
		}
		if exposure+amount > card.CreditLimitMinor {
			return nil, errs.NewValidationError("charge would exceed the card's credit limit")
		}
	}

	ct := &models.CreditCardTransaction{
		CardTransactionID: uuid.New().String(),
		CreditCardID:      card.CreditCardID,
		AmountMinor:       amount,
		CategoryID:        req.CategoryID,
		Description:       req.Description,
		Date:              date,
		Status:            models.CardTransactionPending,
	}
	if err := s.cardTxs.Create(ctx, uid, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *billingService) ListCharges(ctx context.Context, uid, creditCardID string) ([]*models.CreditCardTransaction, error) {
	if _, err := s.cards.Get(ctx, uid, creditCardID); err != nil {
		return nil, err
	}
	return s.cardTxs.ListByCard(ctx, uid, creditCardID)
}

// --- Billing cycle ---

// ProcessBilling settles every card whose billing day is today. Cards are
// isolated: one card's failure is reported in its result row and never
// aborts the others. Re-running on the same day finds no pending rows for
// already-settled cards and reports them skipped.
func (s *billingService) ProcessBilling(ctx context.Context, uid string) (dto.BillingRunResult, error) {
	return s.run(ctx, uid, false)
}

// PreviewBilling reports what ProcessBilling would settle today, without any
// mutation. The pending→billed transition is one-way, so operators preview
// before triggering the real run.
func (s *billingService) PreviewBilling(ctx context.Context, uid string) (dto.BillingRunResult, error) {
	return s.run(ctx, uid, true)
}

func (s *billingService) run(ctx context.Context, uid string, preview bool) (dto.BillingRunResult, error) {
	now := s.clockNow()
	result := dto.BillingRunResult{
		Results:     make([]dto.BillingCardResult, 0),
		ProcessedAt: now,
		Preview:     preview,
	}

	cards, err := s.cards.ListDueByBillingDay(ctx, uid, now.Day())
	if err != nil {
		return result, err
	}
	for _, card := range cards {
		result.Results = append(result.Results, s.processCard(ctx, uid, card, now, preview))
	}
	result.Processed = len(result.Results)

	logger.FromContext(ctx).Info("billing run finished",
		"cards", result.Processed,
		"preview", preview)
	return result, nil
}

func (s *billingService) processCard(ctx context.Context, uid string, card *models.CreditCard, now time.Time, preview bool) dto.BillingCardResult {
	res := dto.BillingCardResult{CreditCardID: card.CreditCardID, CardName: card.Name}
	log := logger.FromContext(ctx)

	pending, err := s.cardTxs.ListPending(ctx, uid, card.CreditCardID)
	if err != nil {
		res.Status = dto.BillingStatusError
		res.Error = err.Error()
		return res
	}
	if len(pending) == 0 {
		res.Status = dto.BillingStatusSkipped
		return res
	}

	amounts := make([]int64, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, ct := range pending {
		amounts = append(amounts, ct.AmountMinor)
		ids = append(ids, ct.CardTransactionID)
	}
	total := money.Sum(amounts...)
	res.PendingCount = len(pending)

	if preview {
		res.Status = dto.BillingStatusSuccess
		res.Amount = money.Format(total)
		return res
	}

	account, err := s.accounts.Get(ctx, uid, card.LinkedAccountID)
	if err != nil {
		res.Status = dto.BillingStatusError
		res.Error = err.Error()
		log.Error("billing failed for card", "credit_card_id", card.CreditCardID, "error", err)
		return res
	}

	today := now.Format(dateLayout)
	settlement := &models.Transaction{
		TransactionID: uuid.New().String(),
		AccountID:     account.AccountID,
		Type:          models.TransactionTypeExpense,
		AmountMinor:   total,
		Currency:      account.Currency,
		Date:          today,
		Description:   "Credit card settlement: " + card.Name,
	}
	settled, err := s.cardTxs.Settle(ctx, uid, settlement, ids, today)
	if errors.Is(err, store.ErrNothingPending) {
		// Another run got here first; nothing left to bill.
		res.Status = dto.BillingStatusSkipped
		return res
	}
	if err != nil {
		res.Status = dto.BillingStatusError
		res.Error = err.Error()
		log.Error("billing failed for card", "credit_card_id", card.CreditCardID, "error", err)
		return res
	}

	// Post-commit hook: the settlement is already durable, so a notification
	// failure is logged and swallowed, never rolled back into the ledger.
	n := &models.Notification{
		NotificationID: uuid.New().String(),
		Kind:           "credit_card_billing",
		Title:          card.Name + " billed",
		Body:           money.Format(settled) + " " + account.Currency + " charged to " + account.Name,
	}
	if err := s.notifications.Create(ctx, uid, n); err != nil {
		log.Warn("billing notification failed", "credit_card_id", card.CreditCardID, "error", err)
	}

	log.Info("card billed",
		"credit_card_id", card.CreditCardID,
		"amount_minor", settled,
		"transaction_id", settlement.TransactionID)

	res.Status = dto.BillingStatusSuccess
	res.Amount = money.Format(settled)
	res.TransactionID = settlement.TransactionID
	return res
}

func (s *billingService) pendingTotal(ctx context.Context, uid, creditCardID string) (int64, error) {
	pending, err := s.cardTxs.ListPending(ctx, uid, creditCardID)
	if err != nil {
		return 0, err
	}
	amounts := make([]int64, 0, len(pending))
	for _, ct := range pending {
		amounts = append(amounts, ct.AmountMinor)
	}
	return money.Sum(amounts...), nil
}
