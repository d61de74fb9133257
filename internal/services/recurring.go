package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/pkg/logger"
	"github.com/hearthfin/hearth-backend/pkg/money"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type recurringTxnRSStore interface {
	Create(ctx context.Context, uid string, def *models.RecurringTransaction) error
	Get(ctx context.Context, uid, definitionID string) (*models.RecurringTransaction, error)
	List(ctx context.Context, uid string) ([]*models.RecurringTransaction, error)
	ListDue(ctx context.Context, uid, today string) ([]*models.RecurringTransaction, error)
	Update(ctx context.Context, uid string, def *models.RecurringTransaction) error
	Delete(ctx context.Context, uid, definitionID string) error
	Materialize(ctx context.Context, uid string, def *models.RecurringTransaction, t *models.Transaction, delta models.BalanceDelta) error
}

type recurringIncRSStore interface {
	Create(ctx context.Context, uid string, def *models.RecurringIncome) error
	Get(ctx context.Context, uid, definitionID string) (*models.RecurringIncome, error)
	List(ctx context.Context, uid string) ([]*models.RecurringIncome, error)
	ListDue(ctx context.Context, uid, today string) ([]*models.RecurringIncome, error)
	Update(ctx context.Context, uid string, def *models.RecurringIncome) error
	Delete(ctx context.Context, uid, definitionID string) error
	Materialize(ctx context.Context, uid string, def *models.RecurringIncome, t *models.Transaction, delta models.BalanceDelta) error
}

type transactionRSStore interface {
	ExistsForRecurringTransaction(ctx context.Context, uid, definitionID, from, to string) (bool, error)
	ExistsForRecurringIncome(ctx context.Context, uid, definitionID, from, to string) (bool, error)
	ListByRecurringTransaction(ctx context.Context, uid, definitionID string) ([]*models.Transaction, error)
	ListByRecurringIncome(ctx context.Context, uid, definitionID string) ([]*models.Transaction, error)
	Delete(ctx context.Context, uid string, transactionIDs []string, deltas []models.BalanceDelta) error
}

type accountRSStore interface {
	Get(ctx context.Context, uid, accountID string) (*models.Account, error)
}

type categoryRSStore interface {
	Get(ctx context.Context, uid, categoryID string) (*models.Category, error)
}

// recurringService owns both scheduler variants: the generic recurring
// transaction (income or expense) and the income-only recurring income. Both
// share the next-run computation and the in-period idempotency guard.
type recurringService struct {
	defs       recurringTxnRSStore
	incomes    recurringIncRSStore
	txs        transactionRSStore
	accounts   accountRSStore
	categories categoryRSStore
	clockNow   func() time.Time
}

func NewRecurringService(defs recurringTxnRSStore, incomes recurringIncRSStore, txs transactionRSStore, accounts accountRSStore, categories categoryRSStore) *recurringService {
	return &recurringService{
		defs:       defs,
		incomes:    incomes,
		txs:        txs,
		accounts:   accounts,
		categories: categories,
		clockNow:   time.Now,
	}
}

// --- Recurring transactions (income or expense) ---

// CreateRecurringTransaction persists the definition and, when this month's
// occurrence has already passed, performs the catch-up materialization for
// the current month. A materialization failure never fails the create: the
// definition stays persisted and the next scheduler tick retries.
func (s *recurringService) CreateRecurringTransaction(ctx context.Context, uid string, req dto.CreateRecurringTransactionRequest) (*models.RecurringTransaction, error) {
	typ := models.TransactionType(req.Type)
	if typ != models.TransactionTypeIncome && typ != models.TransactionTypeExpense {
		return nil, errs.NewValidationError("type must be income or expense")
	}
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		return nil, errs.NewValidationError(err.Error())
	}
	if !validDayOfMonth(req.DayOfMonth) {
		return nil, errs.NewValidationError("dayOfMonth must be between 1 and 28")
	}
	today := dateOnly(s.clockNow())
	if err := s.validateEndDate(req.EndDate, today); err != nil {
		return nil, err
	}
	if _, err := s.accounts.Get(ctx, uid, req.AccountID); err != nil {
		return nil, err
	}
	if req.CategoryID != "" {
		if _, err := s.categories.Get(ctx, uid, req.CategoryID); err != nil {
			return nil, err
		}
	}

	next, catchUpDue := nextRunAfter(today, req.DayOfMonth)
	def := &models.RecurringTransaction{
		RecurringTransactionID: uuid.New().String(),
		Type:                   typ,
		AmountMinor:            amount,
		AccountID:              req.AccountID,
		CategoryID:             req.CategoryID,
		Description:            req.Description,
		DayOfMonth:             req.DayOfMonth,
		NextRunDate:            next.Format(dateLayout),
		EndDate:                req.EndDate,
		IsActive:               true,
	}
	if err := s.defs.Create(ctx, uid, def); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("recurring transaction created", "definition_id", def.RecurringTransactionID, "next_run", def.NextRunDate)

	if catchUpDue {
		occurrence := occurrenceThisMonth(today, req.DayOfMonth)
		if res := s.materializeTransactionDef(ctx, uid, def, occurrence, today); res.Status == dto.MaterializationError {
			log.Error("catch-up materialization failed, will retry on next tick",
				"definition_id", def.RecurringTransactionID,
				"error", res.Error)
		}
	}
	return def, nil
}

func (s *recurringService) ListRecurringTransactions(ctx context.Context, uid string) ([]*models.RecurringTransaction, error) {
	return s.defs.List(ctx, uid)
}

// UpdateRecurringTransaction affects future materializations only; it never
// retroactively touches already-created ledger rows. Changing dayOfMonth
// recomputes nextRunDate with the creation rule.
func (s *recurringService) UpdateRecurringTransaction(ctx context.Context, uid, definitionID string, patch dto.UpdateRecurringTransactionPatch) (*models.RecurringTransaction, error) {
	def, err := s.defs.Get(ctx, uid, definitionID)
	if err != nil {
		return nil, err
	}
	today := dateOnly(s.clockNow())

	if patch.Type != nil {
		typ := models.TransactionType(*patch.Type)
		if typ != models.TransactionTypeIncome && typ != models.TransactionTypeExpense {
			return nil, errs.NewValidationError("type must be income or expense")
		}
		def.Type = typ
	}
	if patch.Amount != nil {
		amount, err := money.ParsePositive(*patch.Amount)
		if err != nil {
			return nil, errs.NewValidationError(err.Error())
		}
		def.AmountMinor = amount
	}
	if patch.AccountID != nil {
		if _, err := s.accounts.Get(ctx, uid, *patch.AccountID); err != nil {
			return nil, err
		}
		def.AccountID = *patch.AccountID
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID != "" {
			if _, err := s.categories.Get(ctx, uid, *patch.CategoryID); err != nil {
				return nil, err
			}
		}
		def.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		def.Description = *patch.Description
	}
	if patch.EndDate != nil {
		if *patch.EndDate != "" {
			if err := s.validateEndDate(*patch.EndDate, today); err != nil {
				return nil, err
			}
		}
		def.EndDate = *patch.EndDate
	}
	if patch.DayOfMonth != nil {
		if !validDayOfMonth(*patch.DayOfMonth) {
			return nil, errs.NewValidationError("dayOfMonth must be between 1 and 28")
		}
		def.DayOfMonth = *patch.DayOfMonth
		next, _ := nextRunAfter(today, def.DayOfMonth)
		def.NextRunDate = next.Format(dateLayout)
	}
	if patch.IsActive != nil {
		def.IsActive = *patch.IsActive
	}

	if err := s.defs.Update(ctx, uid, def); err != nil {
		return nil, err
	}
	return def, nil
}

// DeleteRecurringTransaction removes the definition. With cascade, every
// ledger row it produced is reversed through the balance ledger and removed;
// without, produced rows remain as ordinary standalone entries.
func (s *recurringService) DeleteRecurringTransaction(ctx context.Context, uid, definitionID string, cascade bool) error {
	if _, err := s.defs.Get(ctx, uid, definitionID); err != nil {
		return err
	}
	if cascade {
		produced, err := s.txs.ListByRecurringTransaction(ctx, uid, definitionID)
		if err != nil {
			return err
		}
		if len(produced) > 0 {
			ids := make([]string, 0, len(produced))
			deltas := make([]models.BalanceDelta, 0, len(produced))
			for _, t := range produced {
				ids = append(ids, t.TransactionID)
				deltas = append(deltas, models.BalanceDelta{AccountID: t.AccountID, AmountMinor: -t.SignedEffectMinor()})
			}
			if err := s.txs.Delete(ctx, uid, ids, deltas); err != nil {
				return err
			}
		}
	}
	if err := s.defs.Delete(ctx, uid, definitionID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("recurring transaction deleted", "definition_id", definitionID, "cascade", cascade)
	return nil
}

// --- Recurring income ---

func (s *recurringService) CreateRecurringIncome(ctx context.Context, uid string, req dto.CreateRecurringIncomeRequest) (*models.RecurringIncome, error) {
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		return nil, errs.NewValidationError(err.Error())
	}
	if !validDayOfMonth(req.DayOfMonth) {
		return nil, errs.NewValidationError("dayOfMonth must be between 1 and 28")
	}
	today := dateOnly(s.clockNow())
	if err := s.validateEndDate(req.EndDate, today); err != nil {
		return nil, err
	}
	if _, err := s.accounts.Get(ctx, uid, req.AccountID); err != nil {
		return nil, err
	}
	if req.CategoryID != "" {
		if _, err := s.categories.Get(ctx, uid, req.CategoryID); err != nil {
			return nil, err
		}
	}

	next, catchUpDue := nextRunAfter(today, req.DayOfMonth)
	def := &models.RecurringIncome{
		RecurringIncomeID: uuid.New().String(),
		AmountMinor:       amount,
		AccountID:         req.AccountID,
		CategoryID:        req.CategoryID,
		Description:       req.Description,
		DayOfMonth:        req.DayOfMonth,
		NextRunDate:       next.Format(dateLayout),
		EndDate:           req.EndDate,
		IsActive:          true,
	}
	if err := s.incomes.Create(ctx, uid, def); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("recurring income created", "definition_id", def.RecurringIncomeID, "next_run", def.NextRunDate)

	if catchUpDue {
		occurrence := occurrenceThisMonth(today, req.DayOfMonth)
		if res := s.materializeIncomeDef(ctx, uid, def, occurrence, today); res.Status == dto.MaterializationError {
			log.Error("catch-up materialization failed, will retry on next tick",
				"definition_id", def.RecurringIncomeID,
				"error", res.Error)
		}
	}
	return def, nil
}

func (s *recurringService) ListRecurringIncome(ctx context.Context, uid string) ([]*models.RecurringIncome, error) {
	return s.incomes.List(ctx, uid)
}

func (s *recurringService) UpdateRecurringIncome(ctx context.Context, uid, definitionID string, patch dto.UpdateRecurringIncomePatch) (*models.RecurringIncome, error) {
	def, err := s.incomes.Get(ctx, uid, definitionID)
	if err != nil {
		return nil, err
	}
	today := dateOnly(s.clockNow())

	if patch.Amount != nil {
		amount, err := money.ParsePositive(*patch.Amount)
		if err != nil {
			return nil, errs.NewValidationError(err.Error())
		}
		def.AmountMinor = amount
	}
	if patch.AccountID != nil {
		if _, err := s.accounts.Get(ctx, uid, *patch.AccountID); err != nil {
			return nil, err
		}
		def.AccountID = *patch.AccountID
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID != "" {
			if _, err := s.categories.Get(ctx, uid, *patch.CategoryID); err != nil {
				return nil, err
			}
		}
		def.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		def.Description = *patch.Description
	}
	if patch.EndDate != nil {
		if *patch.EndDate != "" {
			if err := s.validateEndDate(*patch.EndDate, today); err != nil {
				return nil, err
			}
		}
		def.EndDate = *patch.EndDate
	}
	if patch.DayOfMonth != nil {
		if !validDayOfMonth(*patch.DayOfMonth) {
			return nil, errs.NewValidationError("dayOfMonth must be between 1 and 28")
		}
		def.DayOfMonth = *patch.DayOfMonth
		next, _ := nextRunAfter(today, def.DayOfMonth)
		def.NextRunDate = next.Format(dateLayout)
	}
	if patch.IsActive != nil {
		def.IsActive = *patch.IsActive
	}

	if err := s.incomes.Update(ctx, uid, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *recurringService) DeleteRecurringIncome(ctx context.Context, uid, definitionID string, cascade bool) error {
	if _, err := s.incomes.Get(ctx, uid, definitionID); err != nil {
		return err
	}
	if cascade {
		produced, err := s.txs.ListByRecurringIncome(ctx, uid, definitionID)
		if err != nil {
			return err
		}
		if len(produced) > 0 {
			ids := make([]string, 0, len(produced))
			deltas := make([]models.BalanceDelta, 0, len(produced))
			for _, t := range produced {
				ids = append(ids, t.TransactionID)
				deltas = append(deltas, models.BalanceDelta{AccountID: t.AccountID, AmountMinor: -t.SignedEffectMinor()})
			}
			if err := s.txs.Delete(ctx, uid, ids, deltas); err != nil {
				return err
			}
		}
	}
	if err := s.incomes.Delete(ctx, uid, definitionID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("recurring income deleted", "definition_id", definitionID, "cascade", cascade)
	return nil
}

// --- Scheduler tick ---

// RunDue materializes every active definition whose next run is due, one
// isolated item at a time. Failures are reported per item and retried on the
// next tick; they never abort sibling items.
func (s *recurringService) RunDue(ctx context.Context, uid string) ([]dto.MaterializationResult, error) {
	today := dateOnly(s.clockNow())
	todayStr := today.Format(dateLayout)
	results := make([]dto.MaterializationResult, 0)

	defs, err := s.defs.ListDue(ctx, uid, todayStr)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		occurrence, err := time.Parse(dateLayout, def.NextRunDate)
		if err != nil {
			results = append(results, dto.MaterializationResult{
				DefinitionID: def.RecurringTransactionID,
				Status:       dto.MaterializationError,
				Error:        "bad nextRunDate: " + def.NextRunDate,
			})
			continue
		}
		results = append(results, s.materializeTransactionDef(ctx, uid, def, occurrence, today))
	}

	incomes, err := s.incomes.ListDue(ctx, uid, todayStr)
	if err != nil {
		// Transaction items are already materialized at this point. Report the
		// listing failure as an item so those results are not thrown away.
		logger.FromContext(ctx).Error("listing due recurring income failed", "error", err)
		results = append(results, dto.MaterializationResult{
			Status: dto.MaterializationError,
			Error:  "listing recurring income: " + err.Error(),
		})
		return results, nil
	}
	for _, def := range incomes {
		occurrence, err := time.Parse(dateLayout, def.NextRunDate)
		if err != nil {
			results = append(results, dto.MaterializationResult{
				DefinitionID: def.RecurringIncomeID,
				Status:       dto.MaterializationError,
				Error:        "bad nextRunDate: " + def.NextRunDate,
			})
			continue
		}
		results = append(results, s.materializeIncomeDef(ctx, uid, def, occurrence, today))
	}

	return results, nil
}

// materializeTransactionDef creates at most one ledger row for the
// occurrence's month. The in-period provenance query is the idempotency
// guard: a retried tick or concurrent request finds the row and skips.
func (s *recurringService) materializeTransactionDef(ctx context.Context, uid string, def *models.RecurringTransaction, occurrence, today time.Time) dto.MaterializationResult {
	result := dto.MaterializationResult{DefinitionID: def.RecurringTransactionID}
	occurrenceStr := occurrence.Format(dateLayout)

	if def.EndDate != "" && occurrenceStr > def.EndDate {
		// Past the end date: deactivate rather than delete.
		def.IsActive = false
		if err := s.defs.Update(ctx, uid, def); err != nil {
			result.Status = dto.MaterializationError
			result.Error = err.Error()
			return result
		}
		result.Status = dto.MaterializationSkipped
		return result
	}

	from, to := monthBounds(occurrence)
	exists, err := s.txs.ExistsForRecurringTransaction(ctx, uid, def.RecurringTransactionID, from, to)
	if err != nil {
		result.Status = dto.MaterializationError
		result.Error = err.Error()
		return result
	}
	if exists {
		// Already materialized for this period; just advance the schedule.
		def.NextRunDate = occurrence.AddDate(0, 1, 0).Format(dateLayout)
		if err := s.defs.Update(ctx, uid, def); err != nil {
			result.Status = dto.MaterializationError
			result.Error = err.Error()
			return result
		}
		result.Status = dto.MaterializationSkipped
		return result
	}

	account, err := s.accounts.Get(ctx, uid, def.AccountID)
	if err != nil {
		result.Status = dto.MaterializationError
		result.Error = err.Error()
		return result
	}

	// Expenses land dated today for immediate visibility; income is dated
	// the period's occurrence.
	date := today.Format(dateLayout)
	if def.Type == models.TransactionTypeIncome {
		date = occurrenceStr
	}
	t := &models.Transaction{
		TransactionID:          uuid.New().String(),
		AccountID:              def.AccountID,
		Type:                   def.Type,
		AmountMinor:            def.AmountMinor,
		Currency:               account.Currency,
		Date:                   date,
		Description:            def.Description,
		CategoryID:             def.CategoryID,
		RecurringTransactionID: def.RecurringTransactionID,
	}

	updated := *def
	updated.LastRunDate = today.Format(dateLayout)
	updated.NextRunDate = occurrence.AddDate(0, 1, 0).Format(dateLayout)

	delta := models.BalanceDelta{AccountID: def.AccountID, AmountMinor: t.SignedEffectMinor()}
	if err := s.defs.Materialize(ctx, uid, &updated, t, delta); err != nil {
		result.Status = dto.MaterializationError
		result.Error = err.Error()
		return result
	}
	*def = updated

	logger.FromContext(ctx).Info("recurring transaction materialized",
		"definition_id", def.RecurringTransactionID,
		"transaction_id", t.TransactionID,
		"date", t.Date)
	result.Status = dto.MaterializationCreated
	result.TransactionID = t.TransactionID
	return result
}

func (s *recurringService) materializeIncomeDef(ctx context.Context, uid string, def *models.RecurringIncome, occurrence, today time.Time) dto.MaterializationResult {
	result := dto.MaterializationResult{DefinitionID: def.RecurringIncomeID}
	occurrenceStr := occurrence.Format(dateLayout)

	if def.EndDate != "" && occurrenceStr > def.EndDate {
		def.IsActive = false
		if err := s.incomes.Update(ctx, uid, def); err != nil {
			result.Status = dto.MaterializationError
			result.Error = err.Error()
			return result
		}
		result.Status = dto.MaterializationSkipped
		return result
	}

	from, to := monthBounds(occurrence)
	exists, err := s.txs.ExistsForRecurringIncome(ctx, uid, def.RecurringIncomeID, from, to)
	if err != nil {
		result.Status = dto.MaterializationError
		result.Error = err.Error()
		return result
	}
	if exists {
		def.NextRunDate = occurrence.AddDate(0, 1, 0).Format(dateLayout)
		if err := s.incomes.Update(ctx, uid, def); err != nil {
			result.Status = dto.MaterializationError
			result.Error = err.Error()
			return result
		}
		result.Status = dto.MaterializationSkipped
		return result
	}

	account, err := s.accounts.Get(ctx, uid, def.AccountID)
	if err != nil {
		result.Status = dto.MaterializationError
		result.Error = err.Error()
		return result
	}

	t := &models.Transaction{
		TransactionID:     uuid.New().String(),
		AccountID:         def.AccountID,
		Type:              models.TransactionTypeIncome,
		AmountMinor:       def.AmountMinor,
		Currency:          account.Currency,
		Date:              occurrenceStr,
		Description:       def.Description,
		CategoryID:        def.CategoryID,
		RecurringIncomeID: def.RecurringIncomeID,
	}

	updated := *def
	updated.LastRunDate = today.Format(dateLayout)
	updated.NextRunDate = occurrence.AddDate(0, 1, 0).Format(dateLayout)

	delta := models.BalanceDelta{AccountID: def.AccountID, AmountMinor: t.AmountMinor}
	if err := s.incomes.Materialize(ctx, uid, &updated, t, delta); err != nil {
		result.Status = dto.MaterializationError
		result.Error = err.Error()
		return result
	}
	*def = updated

	logger.FromContext(ctx).Info("recurring income materialized",
		"definition_id", def.RecurringIncomeID,
		"transaction_id", t.TransactionID,
		"date", t.Date)
	result.Status = dto.MaterializationCreated
	result.TransactionID = t.TransactionID
	return result
}

func (s *recurringService) validateEndDate(endDate string, today time.Time) error {
	if endDate == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return errs.NewValidationError("endDate must be YYYY-MM-DD")
	}
	if parsed.Before(today) {
		return errs.NewValidationError("endDate is already in the past")
	}
	return nil
}
