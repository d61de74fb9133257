package store

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/pkg/helpers"
)

func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func seedAccount(t *testing.T, client *firestore.Client, uid string, account *models.Account) {
	t.Helper()
	_, err := client.Collection("users").Doc(uid).Collection("accounts").
		Doc(account.AccountID).Set(context.Background(), account)
	if err != nil {
		t.Fatalf("seed account error: %v", err)
	}
}

func accountBalance(t *testing.T, client *firestore.Client, uid, accountID string) int64 {
	t.Helper()
	snap, err := client.Collection("users").Doc(uid).Collection("accounts").
		Doc(accountID).Get(context.Background())
	if err != nil {
		t.Fatalf("read account error: %v", err)
	}
	var a models.Account
	if err := snap.DataTo(&a); err != nil {
		t.Fatalf("decode account error: %v", err)
	}
	return a.BalanceMinor
}

func TestTransactionCreateWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	store := NewTransactionStore(client)
	ctx := context.Background()
	uid := "create-user"

	seedAccount(t, client, uid, &models.Account{
		AccountID: "a1", Name: "Checking", Currency: "EUR", BalanceMinor: 100_00, IsActive: true,
	})
	seedAccount(t, client, uid, &models.Account{
		AccountID: "a2", Name: "Savings", Currency: "EUR", BalanceMinor: 0, IsActive: true,
	})

	// Transfer pair: both rows and both deltas in one unit.
	txs := []*models.Transaction{
		{
			TransactionID:           "t1",
			AccountID:               "a1",
			Type:                    models.TransactionTypeTransfer,
			AmountMinor:             25_00,
			Currency:                "EUR",
			Date:                    "2025-06-10",
			TransferToAccountID:     "a2",
			TransferToTransactionID: "t2",
		},
		{
			TransactionID:           "t2",
			AccountID:               "a2",
			Type:                    models.TransactionTypeTransfer,
			AmountMinor:             25_00,
			Currency:                "EUR",
			Date:                    "2025-06-10",
			TransferFromAccountID:   "a1",
			TransferToTransactionID: "t1",
		},
	}
	deltas := []models.BalanceDelta{
		{AccountID: "a1", AmountMinor: -25_00},
		{AccountID: "a2", AmountMinor: 25_00},
	}
	if err := store.Create(ctx, uid, txs, deltas); err != nil {
		t.Fatalf("create error: %v", err)
	}

	if got := accountBalance(t, client, uid, "a1"); got != 75_00 {
		t.Fatalf("a1 balance = %d, want 7500", got)
	}
	if got := accountBalance(t, client, uid, "a2"); got != 25_00 {
		t.Fatalf("a2 balance = %d, want 2500", got)
	}

	got, err := store.Get(ctx, uid, "t2")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.TransferToTransactionID != "t1" {
		t.Fatalf("sibling link = %s, want t1", got.TransferToTransactionID)
	}
}

func TestTransactionCreateMissingAccountAborts(t *testing.T) {
	client := emulatorClient(t)
	store := NewTransactionStore(client)
	ctx := context.Background()
	uid := "abort-user"

	seedAccount(t, client, uid, &models.Account{
		AccountID: "a1", Name: "Checking", Currency: "EUR", BalanceMinor: 50_00, IsActive: true,
	})

	txs := []*models.Transaction{{
		TransactionID: "t1",
		AccountID:     "a1",
		Type:          models.TransactionTypeExpense,
		AmountMinor:   10_00,
		Currency:      "EUR",
		Date:          "2025-06-10",
	}}
	deltas := []models.BalanceDelta{
		{AccountID: "a1", AmountMinor: -10_00},
		{AccountID: "ghost", AmountMinor: 10_00},
	}
	if err := store.Create(ctx, uid, txs, deltas); err == nil {
		t.Fatalf("expected error for missing delta account")
	}

	// The verify phase failed before any write: no row, no balance change.
	if _, err := store.Get(ctx, uid, "t1"); err == nil {
		t.Fatalf("row written despite aborted unit")
	}
	if got := accountBalance(t, client, uid, "a1"); got != 50_00 {
		t.Fatalf("a1 balance = %d, want untouched 5000", got)
	}
}

func TestTransactionQueryWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	store := NewTransactionStore(client)
	ctx := context.Background()
	uid := "query-user"

	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	rows := []models.Transaction{
		{TransactionID: "q1", AccountID: "a1", Type: models.TransactionTypeExpense, AmountMinor: 3_00, Currency: "EUR", Date: "2025-06-10", CreatedAt: now, UpdatedAt: now},
		{TransactionID: "q2", AccountID: "a1", Type: models.TransactionTypeIncome, AmountMinor: 12_00, Currency: "EUR", Date: "2025-06-15", CreatedAt: now, UpdatedAt: now},
		{TransactionID: "q3", AccountID: "a2", Type: models.TransactionTypeExpense, AmountMinor: 7_00, Currency: "EUR", Date: "2025-06-20", CreatedAt: now, UpdatedAt: now},
	}
	for _, r := range rows {
		_, err := client.Collection("users").Doc(uid).Collection("transactions").Doc(r.TransactionID).Set(ctx, r)
		if err != nil {
			t.Fatalf("seed transaction error: %v", err)
		}
	}

	var seen []string
	err := store.Query(ctx, uid, dto.TransactionQuery{
		AccountID: helpers.Ptr("a1"),
		DateFrom:  helpers.Ptr("2025-06-01"),
		DateTo:    helpers.Ptr("2025-06-30"),
		OrderBy:   "date",
	}, func(tx *models.Transaction) error {
		seen = append(seen, tx.TransactionID)
		return nil
	})
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(seen) != 2 || seen[0] != "q1" || seen[1] != "q2" {
		t.Fatalf("unexpected query result: %v", seen)
	}
}

func TestFindByIdempotencyKeyWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	store := NewTransactionStore(client)
	ctx := context.Background()
	uid := "idem-user"

	row := models.Transaction{
		TransactionID:  "t1",
		AccountID:      "a1",
		Type:           models.TransactionTypeExpense,
		AmountMinor:    5_00,
		Currency:       "EUR",
		Date:           "2025-06-10",
		IdempotencyKey: "key-1",
	}
	if _, err := client.Collection("users").Doc(uid).Collection("transactions").Doc(row.TransactionID).Set(ctx, row); err != nil {
		t.Fatalf("seed transaction error: %v", err)
	}

	found, err := store.FindByIdempotencyKey(ctx, uid, "key-1")
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if found == nil || found.TransactionID != "t1" {
		t.Fatalf("unexpected find result: %+v", found)
	}

	missing, err := store.FindByIdempotencyKey(ctx, uid, "unknown")
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown key, got %+v", missing)
	}
}
