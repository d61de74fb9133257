package dto

type CreateAccountRequest struct {
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initialBalance,omitempty"` // decimal string, defaults to 0
}

type UpdateAccountPatch struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}
