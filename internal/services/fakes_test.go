package services

import (
	"context"
	"errors"
	"sort"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/internal/store"
)

func isValidationErr(err error) bool {
	var ve *errs.ValidationError
	return errors.As(err, &ve)
}

// In-memory fakes mirroring the Firestore stores. Balance deltas are applied
// to the account map the same way the real stores apply increments, so the
// tests can assert the balance invariant directly.

type fakeAccountStore struct {
	accounts map[string]*models.Account

	// afterGet runs after a Get returns its copy, so tests can interleave a
	// balance delta between a service's read and its later write.
	afterGet func()
}

func newFakeAccountStore(accounts ...*models.Account) *fakeAccountStore {
	s := &fakeAccountStore{accounts: make(map[string]*models.Account)}
	for _, a := range accounts {
		s.accounts[a.AccountID] = a
	}
	return s
}

func (s *fakeAccountStore) Get(_ context.Context, _ string, accountID string) (*models.Account, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, errs.NewNotFoundError("account " + accountID + " not found")
	}
	copied := *a
	if s.afterGet != nil {
		s.afterGet()
	}
	return &copied, nil
}

func (s *fakeAccountStore) apply(deltas []models.BalanceDelta) error {
	for _, d := range deltas {
		a, ok := s.accounts[d.AccountID]
		if !ok {
			return errs.NewNotFoundError("account " + d.AccountID + " not found")
		}
		a.BalanceMinor += d.AmountMinor
	}
	return nil
}

func (s *fakeAccountStore) balance(accountID string) int64 {
	return s.accounts[accountID].BalanceMinor
}

// accountCrudFake extends the read-only account fake with the CRUD methods
// the account service needs.
type accountCrudFake struct {
	*fakeAccountStore
}

func (s *accountCrudFake) Create(_ context.Context, _ string, account *models.Account) error {
	copied := *account
	s.accounts[account.AccountID] = &copied
	return nil
}

func (s *accountCrudFake) List(_ context.Context, _ string) ([]*models.Account, error) {
	out := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

// Update mirrors the real store's field-path patch: only name and isActive
// are written, the balance column is left alone.
func (s *accountCrudFake) Update(_ context.Context, _ string, account *models.Account) error {
	existing, ok := s.accounts[account.AccountID]
	if !ok {
		return errs.NewNotFoundError("account " + account.AccountID + " not found")
	}
	existing.Name = account.Name
	existing.IsActive = account.IsActive
	return nil
}

func (s *accountCrudFake) Delete(_ context.Context, _ string, accountID string) error {
	delete(s.accounts, accountID)
	return nil
}

type fakeCategoryStore struct {
	categories map[string]*models.Category
}

func newFakeCategoryStore(categories ...*models.Category) *fakeCategoryStore {
	s := &fakeCategoryStore{categories: make(map[string]*models.Category)}
	for _, c := range categories {
		s.categories[c.CategoryID] = c
	}
	return s
}

func (s *fakeCategoryStore) Get(_ context.Context, _ string, categoryID string) (*models.Category, error) {
	c, ok := s.categories[categoryID]
	if !ok {
		return nil, errs.NewNotFoundError("category " + categoryID + " not found")
	}
	return c, nil
}

type fakeTransactionStore struct {
	rows     map[string]*models.Transaction
	accounts *fakeAccountStore

	createErr error
	deleteErr error
}

func newFakeTransactionStore(accounts *fakeAccountStore) *fakeTransactionStore {
	return &fakeTransactionStore{
		rows:     make(map[string]*models.Transaction),
		accounts: accounts,
	}
}

func (s *fakeTransactionStore) Get(_ context.Context, _ string, transactionID string) (*models.Transaction, error) {
	t, ok := s.rows[transactionID]
	if !ok {
		return nil, errs.NewNotFoundError("transaction " + transactionID + " not found")
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTransactionStore) Query(_ context.Context, _ string, filter dto.TransactionQuery, handle func(*models.Transaction) error) error {
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := s.rows[id]
		if filter.AccountID != nil && t.AccountID != *filter.AccountID {
			continue
		}
		if filter.CategoryID != nil && t.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Type != nil && string(t.Type) != *filter.Type {
			continue
		}
		if filter.DateFrom != nil && t.Date < *filter.DateFrom {
			continue
		}
		if filter.DateTo != nil && t.Date > *filter.DateTo {
			continue
		}
		copied := *t
		if err := handle(&copied); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeTransactionStore) Create(_ context.Context, _ string, txs []*models.Transaction, deltas []models.BalanceDelta) error {
	if s.createErr != nil {
		return s.createErr
	}
	if err := s.accounts.apply(deltas); err != nil {
		return err
	}
	for _, t := range txs {
		copied := *t
		s.rows[t.TransactionID] = &copied
	}
	return nil
}

func (s *fakeTransactionStore) Update(_ context.Context, _ string, t *models.Transaction, deltas []models.BalanceDelta) error {
	if _, ok := s.rows[t.TransactionID]; !ok {
		return errs.NewNotFoundError("transaction " + t.TransactionID + " not found")
	}
	if err := s.accounts.apply(deltas); err != nil {
		return err
	}
	copied := *t
	s.rows[t.TransactionID] = &copied
	return nil
}

func (s *fakeTransactionStore) Delete(_ context.Context, _ string, transactionIDs []string, deltas []models.BalanceDelta) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if err := s.accounts.apply(deltas); err != nil {
		return err
	}
	for _, id := range transactionIDs {
		delete(s.rows, id)
	}
	return nil
}

func (s *fakeTransactionStore) FindByIdempotencyKey(_ context.Context, _ string, key string) (*models.Transaction, error) {
	for _, t := range s.rows {
		if t.IdempotencyKey == key {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeTransactionStore) ExistsForRecurringTransaction(_ context.Context, _ string, definitionID, from, to string) (bool, error) {
	for _, t := range s.rows {
		if t.RecurringTransactionID == definitionID && t.Date >= from && t.Date <= to {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTransactionStore) ExistsForRecurringIncome(_ context.Context, _ string, definitionID, from, to string) (bool, error) {
	for _, t := range s.rows {
		if t.RecurringIncomeID == definitionID && t.Date >= from && t.Date <= to {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTransactionStore) ListByRecurringTransaction(_ context.Context, _ string, definitionID string) ([]*models.Transaction, error) {
	out := make([]*models.Transaction, 0)
	for _, t := range s.rows {
		if t.RecurringTransactionID == definitionID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) ListByRecurringIncome(_ context.Context, _ string, definitionID string) ([]*models.Transaction, error) {
	out := make([]*models.Transaction, 0)
	for _, t := range s.rows {
		if t.RecurringIncomeID == definitionID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeRecurringTxnStore struct {
	defs map[string]*models.RecurringTransaction
	txs  *fakeTransactionStore

	materializeErr error
}

func newFakeRecurringTxnStore(txs *fakeTransactionStore) *fakeRecurringTxnStore {
	return &fakeRecurringTxnStore{defs: make(map[string]*models.RecurringTransaction), txs: txs}
}

func (s *fakeRecurringTxnStore) Create(_ context.Context, _ string, def *models.RecurringTransaction) error {
	copied := *def
	s.defs[def.RecurringTransactionID] = &copied
	return nil
}

func (s *fakeRecurringTxnStore) Get(_ context.Context, _ string, definitionID string) (*models.RecurringTransaction, error) {
	def, ok := s.defs[definitionID]
	if !ok {
		return nil, errs.NewNotFoundError("recurring transaction " + definitionID + " not found")
	}
	copied := *def
	return &copied, nil
}

func (s *fakeRecurringTxnStore) List(_ context.Context, _ string) ([]*models.RecurringTransaction, error) {
	out := make([]*models.RecurringTransaction, 0, len(s.defs))
	for _, def := range s.defs {
		copied := *def
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeRecurringTxnStore) ListDue(_ context.Context, _ string, today string) ([]*models.RecurringTransaction, error) {
	out := make([]*models.RecurringTransaction, 0)
	for _, def := range s.defs {
		if def.IsActive && def.NextRunDate <= today {
			copied := *def
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeRecurringTxnStore) Update(_ context.Context, _ string, def *models.RecurringTransaction) error {
	if _, ok := s.defs[def.RecurringTransactionID]; !ok {
		return errs.NewNotFoundError("recurring transaction " + def.RecurringTransactionID + " not found")
	}
	copied := *def
	s.defs[def.RecurringTransactionID] = &copied
	return nil
}

func (s *fakeRecurringTxnStore) Delete(_ context.Context, _ string, definitionID string) error {
	delete(s.defs, definitionID)
	return nil
}

func (s *fakeRecurringTxnStore) Materialize(ctx context.Context, uid string, def *models.RecurringTransaction, t *models.Transaction, delta models.BalanceDelta) error {
	if s.materializeErr != nil {
		return s.materializeErr
	}
	if err := s.txs.Create(ctx, uid, []*models.Transaction{t}, []models.BalanceDelta{delta}); err != nil {
		return err
	}
	return s.Update(ctx, uid, def)
}

type fakeRecurringIncStore struct {
	defs map[string]*models.RecurringIncome
	txs  *fakeTransactionStore

	listDueErr error
}

func newFakeRecurringIncStore(txs *fakeTransactionStore) *fakeRecurringIncStore {
	return &fakeRecurringIncStore{defs: make(map[string]*models.RecurringIncome), txs: txs}
}

func (s *fakeRecurringIncStore) Create(_ context.Context, _ string, def *models.RecurringIncome) error {
	copied := *def
	s.defs[def.RecurringIncomeID] = &copied
	return nil
}

func (s *fakeRecurringIncStore) Get(_ context.Context, _ string, definitionID string) (*models.RecurringIncome, error) {
	def, ok := s.defs[definitionID]
	if !ok {
		return nil, errs.NewNotFoundError("recurring income " + definitionID + " not found")
	}
	copied := *def
	return &copied, nil
}

func (s *fakeRecurringIncStore) List(_ context.Context, _ string) ([]*models.RecurringIncome, error) {
	out := make([]*models.RecurringIncome, 0, len(s.defs))
	for _, def := range s.defs {
		copied := *def
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeRecurringIncStore) ListDue(_ context.Context, _ string, today string) ([]*models.RecurringIncome, error) {
	if s.listDueErr != nil {
		return nil, s.listDueErr
	}
	out := make([]*models.RecurringIncome, 0)
	for _, def := range s.defs {
		if def.IsActive && def.NextRunDate <= today {
			copied := *def
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeRecurringIncStore) Update(_ context.Context, _ string, def *models.RecurringIncome) error {
	if _, ok := s.defs[def.RecurringIncomeID]; !ok {
		return errs.NewNotFoundError("recurring income " + def.RecurringIncomeID + " not found")
	}
	copied := *def
	s.defs[def.RecurringIncomeID] = &copied
	return nil
}

func (s *fakeRecurringIncStore) Delete(_ context.Context, _ string, definitionID string) error {
	delete(s.defs, definitionID)
	return nil
}

func (s *fakeRecurringIncStore) Materialize(ctx context.Context, uid string, def *models.RecurringIncome, t *models.Transaction, delta models.BalanceDelta) error {
	if err := s.txs.Create(ctx, uid, []*models.Transaction{t}, []models.BalanceDelta{delta}); err != nil {
		return err
	}
	return s.Update(ctx, uid, def)
}

type fakeCreditCardStore struct {
	cards map[string]*models.CreditCard
}

func newFakeCreditCardStore(cards ...*models.CreditCard) *fakeCreditCardStore {
	s := &fakeCreditCardStore{cards: make(map[string]*models.CreditCard)}
	for _, c := range cards {
		s.cards[c.CreditCardID] = c
	}
	return s
}

func (s *fakeCreditCardStore) Create(_ context.Context, _ string, card *models.CreditCard) error {
	copied := *card
	s.cards[card.CreditCardID] = &copied
	return nil
}

func (s *fakeCreditCardStore) Get(_ context.Context, _ string, creditCardID string) (*models.CreditCard, error) {
	c, ok := s.cards[creditCardID]
	if !ok {
		return nil, errs.NewNotFoundError("credit card " + creditCardID + " not found")
	}
	copied := *c
	return &copied, nil
}

func (s *fakeCreditCardStore) List(_ context.Context, _ string) ([]*models.CreditCard, error) {
	out := make([]*models.CreditCard, 0, len(s.cards))
	for _, c := range s.cards {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeCreditCardStore) ListDueByBillingDay(_ context.Context, _ string, day int) ([]*models.CreditCard, error) {
	out := make([]*models.CreditCard, 0)
	ids := make([]string, 0, len(s.cards))
	for id := range s.cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c := s.cards[id]
		if c.IsActive && c.BillingDay == day {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeCreditCardStore) Update(_ context.Context, _ string, card *models.CreditCard) error {
	if _, ok := s.cards[card.CreditCardID]; !ok {
		return errs.NewNotFoundError("credit card " + card.CreditCardID + " not found")
	}
	copied := *card
	s.cards[card.CreditCardID] = &copied
	return nil
}

func (s *fakeCreditCardStore) Delete(_ context.Context, _ string, creditCardID string) error {
	delete(s.cards, creditCardID)
	return nil
}

type fakeCardTxStore struct {
	rows     map[string]*models.CreditCardTransaction
	txs      *fakeTransactionStore
	accounts *fakeAccountStore

	settleErrByCard map[string]error
}

func newFakeCardTxStore(txs *fakeTransactionStore, accounts *fakeAccountStore) *fakeCardTxStore {
	return &fakeCardTxStore{
		rows:            make(map[string]*models.CreditCardTransaction),
		txs:             txs,
		accounts:        accounts,
		settleErrByCard: make(map[string]error),
	}
}

func (s *fakeCardTxStore) Create(_ context.Context, _ string, ct *models.CreditCardTransaction) error {
	copied := *ct
	s.rows[ct.CardTransactionID] = &copied
	return nil
}

func (s *fakeCardTxStore) ListByCard(_ context.Context, _ string, creditCardID string) ([]*models.CreditCardTransaction, error) {
	out := make([]*models.CreditCardTransaction, 0)
	for _, ct := range s.rows {
		if ct.CreditCardID == creditCardID {
			copied := *ct
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeCardTxStore) ListPending(_ context.Context, _ string, creditCardID string) ([]*models.CreditCardTransaction, error) {
	out := make([]*models.CreditCardTransaction, 0)
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ct := s.rows[id]
		if ct.CreditCardID == creditCardID && ct.Status == models.CardTransactionPending {
			copied := *ct
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Settle mirrors the real store: re-read candidates, drop the ones no longer
// pending, recompute the total from survivors and commit everything at once.
func (s *fakeCardTxStore) Settle(ctx context.Context, uid string, settlement *models.Transaction, candidateIDs []string, billedDate string) (int64, error) {
	if len(candidateIDs) > 0 {
		if card := s.rows[candidateIDs[0]]; card != nil {
			if err := s.settleErrByCard[card.CreditCardID]; err != nil {
				return 0, err
			}
		}
	}

	survivors := make([]*models.CreditCardTransaction, 0, len(candidateIDs))
	var total int64
	for _, id := range candidateIDs {
		ct, ok := s.rows[id]
		if !ok || ct.Status != models.CardTransactionPending {
			continue
		}
		survivors = append(survivors, ct)
		total += ct.AmountMinor
	}
	if len(survivors) == 0 {
		return 0, store.ErrNothingPending
	}

	settlement.AmountMinor = total
	delta := models.BalanceDelta{AccountID: settlement.AccountID, AmountMinor: -total}
	if err := s.txs.Create(ctx, uid, []*models.Transaction{settlement}, []models.BalanceDelta{delta}); err != nil {
		return 0, err
	}
	for _, ct := range survivors {
		ct.Status = models.CardTransactionBilled
		ct.BilledDate = billedDate
		ct.BankTransactionID = settlement.TransactionID
	}
	return total, nil
}

type fakeNotificationStore struct {
	created []*models.Notification
	err     error
}

func (s *fakeNotificationStore) Create(_ context.Context, _ string, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	copied := *n
	s.created = append(s.created, &copied)
	return nil
}
