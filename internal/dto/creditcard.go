package dto

import (
	"time"
)

type CreateCreditCardRequest struct {
	Name            string `json:"name"`
	BillingDay      int    `json:"billingDay"`
	LinkedAccountID string `json:"linkedAccountId"`
	CreditLimit     string `json:"creditLimit,omitempty"` // decimal string, empty = no limit
}

type UpdateCreditCardPatch struct {
	Name            *string `json:"name,omitempty"`
	BillingDay      *int    `json:"billingDay,omitempty"`
	LinkedAccountID *string `json:"linkedAccountId,omitempty"`
	CreditLimit     *string `json:"creditLimit,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
}

type CreateCardTransactionRequest struct {
	Amount      string `json:"amount"`
	CategoryID  string `json:"categoryId,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"` // defaults to today
}

const (
	BillingStatusSuccess = "success"
	BillingStatusSkipped = "skipped"
	BillingStatusError   = "error"
)

// BillingCardResult is one card's outcome within a billing run. A failing
// card never aborts its siblings.
type BillingCardResult struct {
	CreditCardID  string `json:"creditCardId"`
	CardName      string `json:"cardName"`
	Status        string `json:"status"`
	Amount        string `json:"amount,omitempty"` // settled (or previewed) total
	PendingCount  int    `json:"pendingCount,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
}

type BillingRunResult struct {
	Processed   int                 `json:"processed"`
	Results     []BillingCardResult `json:"results"`
	ProcessedAt time.Time           `json:"processedAt"`
	Preview     bool                `json:"preview,omitempty"`
}
