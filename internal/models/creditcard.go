package models

import (
	"time"
)

// CreditCard does not hold a balance; pending exposure is derived by summing
// its pending card transactions.
type CreditCard struct {
	CreditCardID     string    `firestore:"creditCardId" json:"creditCardId"`
	Name             string    `firestore:"name" json:"name"`
	BillingDay       int       `firestore:"billingDay" json:"billingDay"` // 1..28
	LinkedAccountID  string    `firestore:"linkedAccountId" json:"linkedAccountId"`
	CreditLimitMinor int64     `firestore:"creditLimitMinor" json:"creditLimitMinor,omitempty"` // 0 = no limit
	IsActive         bool      `firestore:"isActive" json:"isActive"`
	CreatedAt        time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt" json:"updatedAt"`
}

type CardTransactionStatus string

const (
	CardTransactionPending CardTransactionStatus = "pending"
	CardTransactionBilled  CardTransactionStatus = "billed"
)

// CreditCardTransaction has no effect on any account balance while pending.
// Settlement transitions it to billed exactly once and folds its amount into
// a single settlement Transaction on the card's linked account.
type CreditCardTransaction struct {
	CardTransactionID string                `firestore:"cardTransactionId" json:"cardTransactionId"`
	CreditCardID      string                `firestore:"creditCardId" json:"creditCardId"`
	AmountMinor       int64                 `firestore:"amountMinor" json:"amountMinor"` // always positive
	CategoryID        string                `firestore:"categoryId" json:"categoryId,omitempty"`
	Description       string                `firestore:"description" json:"description,omitempty"`
	Date              string                `firestore:"date" json:"date"`
	Status            CardTransactionStatus `firestore:"status" json:"status"`
	BilledDate        string                `firestore:"billedDate" json:"billedDate,omitempty"`
	BankTransactionID string                `firestore:"bankTransactionId" json:"bankTransactionId,omitempty"`
	CreatedAt         time.Time             `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time             `firestore:"updatedAt" json:"updatedAt"`
}
