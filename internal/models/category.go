package models

import (
	"time"
)

type Category struct {
	CategoryID string    `firestore:"categoryId" json:"categoryId"`
	Name       string    `firestore:"name" json:"name"`
	Kind       string    `firestore:"kind" json:"kind"` // "income" or "expense"
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt" json:"updatedAt"`
}
