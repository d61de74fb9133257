package models

import (
	"time"
)

// Account holds a running balance in minor units. The balance is a stored
// aggregate: it must always equal the initial balance plus the signed effect
// of every committed ledger entry targeting the account. It is only ever
// mutated through BalanceDelta writes, never set directly after creation.
type Account struct {
	AccountID    string    `firestore:"accountId" json:"accountId"`
	Name         string    `firestore:"name" json:"name"`
	Currency     string    `firestore:"currency" json:"currency"`
	BalanceMinor int64     `firestore:"balanceMinor" json:"balanceMinor"`
	IsActive     bool      `firestore:"isActive" json:"isActive"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// BalanceDelta is the single balance-mutation primitive. Every balance change
// in the system is traceable to exactly one delta per logical effect.
type BalanceDelta struct {
	AccountID   string
	AmountMinor int64 // signed
}
