package dto

// CreateTransactionRequest carries amounts as decimal strings; pkg/money
// converts them to minor units at the boundary.
type CreateTransactionRequest struct {
	Type                string `json:"type"`
	Amount              string `json:"amount"`
	AccountID           string `json:"accountId"`
	Date                string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Description         string `json:"description,omitempty"`
	CategoryID          string `json:"categoryId,omitempty"`
	TransferToAccountID string `json:"transferToAccountId,omitempty"`
	IdempotencyKey      string `json:"idempotencyKey,omitempty"`
}

// UpdateTransactionPatch applies only the fields that are present, so the
// reverse-then-reapply path can tell "omitted" from "explicitly cleared".
type UpdateTransactionPatch struct {
	Type        *string `json:"type,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	AccountID   *string `json:"accountId,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
}

type TransactionQuery struct {
	AccountID  *string
	CategoryID *string
	Type       *string
	DateFrom   *string
	DateTo     *string
	OrderBy    string
	Desc       bool
	Limit      int
}
