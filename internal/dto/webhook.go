package dto

// ShortcutWebhookRequest is the payload of the external ingestion webhook
// (e.g. an iOS Shortcut). Authenticated by a shared bearer token; the token
// does not identify a user, so the payload names one. IdempotencyKey makes
// retries safe.
type ShortcutWebhookRequest struct {
	UserID         string `json:"userId"`
	Type           string `json:"type"` // income or expense
	Amount         string `json:"amount"`
	AccountID      string `json:"accountId"`
	CategoryID     string `json:"categoryId,omitempty"`
	Description    string `json:"description,omitempty"`
	Date           string `json:"date,omitempty"`
	IdempotencyKey string `json:"idempotencyKey"`
}
