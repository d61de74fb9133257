package dto

type CreateRecurringTransactionRequest struct {
	Type        string `json:"type"` // income or expense
	Amount      string `json:"amount"`
	AccountID   string `json:"accountId"`
	CategoryID  string `json:"categoryId,omitempty"`
	Description string `json:"description,omitempty"`
	DayOfMonth  int    `json:"dayOfMonth"`
	EndDate     string `json:"endDate,omitempty"` // YYYY-MM-DD
}

type UpdateRecurringTransactionPatch struct {
	Type        *string `json:"type,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	AccountID   *string `json:"accountId,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	Description *string `json:"description,omitempty"`
	DayOfMonth  *int    `json:"dayOfMonth,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

type CreateRecurringIncomeRequest struct {
	Amount      string `json:"amount"`
	AccountID   string `json:"accountId"`
	CategoryID  string `json:"categoryId,omitempty"`
	Description string `json:"description,omitempty"`
	DayOfMonth  int    `json:"dayOfMonth"`
	EndDate     string `json:"endDate,omitempty"`
}

type UpdateRecurringIncomePatch struct {
	Amount      *string `json:"amount,omitempty"`
	AccountID   *string `json:"accountId,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	Description *string `json:"description,omitempty"`
	DayOfMonth  *int    `json:"dayOfMonth,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

const (
	MaterializationCreated = "created"
	MaterializationSkipped = "skipped"
	MaterializationError   = "error"
)

// MaterializationResult reports one scheduler-tick item. Item failures are
// isolated and retryable on the next tick.
type MaterializationResult struct {
	DefinitionID  string `json:"definitionId"`
	Status        string `json:"status"` // created, skipped, error
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
}
