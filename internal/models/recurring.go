package models

import (
	"time"
)

// RecurringTransaction is a template that the scheduler materializes into one
// Transaction per month. NextRunDate is always the earliest occurrence of
// DayOfMonth at or after the last materialization.
type RecurringTransaction struct {
	RecurringTransactionID string          `firestore:"recurringTransactionId" json:"recurringTransactionId"`
	Type                   TransactionType `firestore:"type" json:"type"` // income or expense
	AmountMinor            int64           `firestore:"amountMinor" json:"amountMinor"`
	AccountID              string          `firestore:"accountId" json:"accountId"`
	CategoryID             string          `firestore:"categoryId" json:"categoryId,omitempty"`
	Description            string          `firestore:"description" json:"description,omitempty"`
	DayOfMonth             int             `firestore:"dayOfMonth" json:"dayOfMonth"` // 1..28
	NextRunDate            string          `firestore:"nextRunDate" json:"nextRunDate"`
	LastRunDate            string          `firestore:"lastRunDate" json:"lastRunDate,omitempty"`
	EndDate                string          `firestore:"endDate" json:"endDate,omitempty"`
	IsActive               bool            `firestore:"isActive" json:"isActive"`
	CreatedAt              time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time       `firestore:"updatedAt" json:"updatedAt"`
}

// RecurringIncome is the income-only scheduler variant.
type RecurringIncome struct {
	RecurringIncomeID string    `firestore:"recurringIncomeId" json:"recurringIncomeId"`
	AmountMinor       int64     `firestore:"amountMinor" json:"amountMinor"`
	AccountID         string    `firestore:"accountId" json:"accountId"`
	CategoryID        string    `firestore:"categoryId" json:"categoryId,omitempty"`
	Description       string    `firestore:"description" json:"description,omitempty"`
	DayOfMonth        int       `firestore:"dayOfMonth" json:"dayOfMonth"`
	NextRunDate       string    `firestore:"nextRunDate" json:"nextRunDate"`
	LastRunDate       string    `firestore:"lastRunDate" json:"lastRunDate,omitempty"`
	EndDate           string    `firestore:"endDate" json:"endDate,omitempty"`
	IsActive          bool      `firestore:"isActive" json:"isActive"`
	CreatedAt         time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt" json:"updatedAt"`
}
