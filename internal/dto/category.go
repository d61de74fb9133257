package dto

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // income or expense
}
