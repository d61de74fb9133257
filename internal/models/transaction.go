package models

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction is one ledger entry. A transfer is a pair of linked entries:
// the source row carries TransferToAccountID, the destination row carries
// TransferFromAccountID, and each points at the other via
// TransferToTransactionID.
type Transaction struct {
	TransactionID           string          `firestore:"transactionId" json:"transactionId"`
	AccountID               string          `firestore:"accountId" json:"accountId"`
	Type                    TransactionType `firestore:"type" json:"type"`
	AmountMinor             int64           `firestore:"amountMinor" json:"amountMinor"` // always positive
	Currency                string          `firestore:"currency" json:"currency"`
	Date                    string          `firestore:"date" json:"date"` // YYYY-MM-DD
	Description             string          `firestore:"description" json:"description,omitempty"`
	CategoryID              string          `firestore:"categoryId" json:"categoryId,omitempty"`
	RecurringTransactionID  string          `firestore:"recurringTransactionId" json:"recurringTransactionId,omitempty"`
	RecurringIncomeID       string          `firestore:"recurringIncomeId" json:"recurringIncomeId,omitempty"`
	TransferToAccountID     string          `firestore:"transferToAccountId" json:"transferToAccountId,omitempty"`
	TransferFromAccountID   string          `firestore:"transferFromAccountId" json:"transferFromAccountId,omitempty"`
	TransferToTransactionID string          `firestore:"transferToTransactionId" json:"transferToTransactionId,omitempty"`
	IdempotencyKey          string          `firestore:"idempotencyKey" json:"idempotencyKey,omitempty"`
	CreatedAt               time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time       `firestore:"updatedAt" json:"updatedAt"`
}

// SignedEffectMinor is the delta this entry applies to its own account's
// balance: +amount for income and transfer destinations, -amount for
// expenses and transfer sources.
func (t *Transaction) SignedEffectMinor() int64 {
	switch t.Type {
	case TransactionTypeIncome:
		return t.AmountMinor
	case TransactionTypeExpense:
		return -t.AmountMinor
	case TransactionTypeTransfer:
		if t.TransferFromAccountID != "" {
			return t.AmountMinor
		}
		return -t.AmountMinor
	}
	return 0
}

// IsTransferSource reports whether this row is the debiting half of a pair.
func (t *Transaction) IsTransferSource() bool {
	return t.Type == TransactionTypeTransfer && t.TransferFromAccountID == ""
}
