package services

import (
	"testing"
	"time"

	"github.com/hearthfin/hearth-backend/internal/dto"
	"github.com/hearthfin/hearth-backend/internal/models"
	"github.com/hearthfin/hearth-backend/pkg/helpers"
)

func newTransactionFixture() (*transactionService, *fakeTransactionStore, *fakeAccountStore) {
	accounts := newFakeAccountStore(
		&models.Account{AccountID: "checking", Name: "Checking", Currency: "EUR", BalanceMinor: 100_00, IsActive: true},
		&models.Account{AccountID: "savings", Name: "Savings", Currency: "EUR", BalanceMinor: 500_00, IsActive: true},
		&models.Account{AccountID: "usd", Name: "Travel", Currency: "USD", BalanceMinor: 0, IsActive: true},
	)
	categories := newFakeCategoryStore(&models.Category{CategoryID: "food", Name: "Food", Kind: "expense"})
	txs := newFakeTransactionStore(accounts)
	svc := NewTransactionService(txs, accounts, categories)
	svc.clockNow = func() time.Time { return time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC) }
	return svc, txs, accounts
}

func TestCreateExpenseAdjustsBalance(t *testing.T) {
	svc, txs, accounts := newTransactionFixture()
	ctx := helpers.TestCtx()

	tx, err := svc.Create(ctx, "u1", dto.CreateTransactionRequest{
		Type:       "expense",
		Amount:     "12.50",
		AccountID:  "checking",
		CategoryID: "food",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if tx.AmountMinor != 12_50 {
		t.Fatalf("amount = %d, want 1250", tx.AmountMinor)
	}
	if tx.Date != "2025-03-20" {
		t.Fatalf("date defaulted to %s, want 2025-03-20", tx.Date)
	}
	if got := accounts.balance("checking"); got != 87_50 {
		t.Fatalf("balance = %d, want 8750", got)
	}
	if len(txs.rows) != 1 {
		t.Fatalf("row count = %d, want 1", len(txs.rows))
	}
}

func TestCreateRejectsInactiveAccount(t *testing.T) {
	svc, _, accounts := newTransactionFixture()
	accounts.accounts["checking"].IsActive = false

	_, err := svc.Create(helpers.TestCtx(), "u1", dto.CreateTransactionRequest{
		Type: "expense", Amount: "5.00", AccountID: "checking",
	})
	if !isValidationErr(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := accounts.balance("checking"); got != 100_00 {
		t.Fatalf("balance moved on rejected create: %d", got)
	}
}

func TestCreateRejectsBadAmounts(t *testing.T) {
	svc, _, _ := newTransactionFixture()
	for _, amount := range []string{"0", "-3.00", "1.234", "abc", ""} {
		_, err := svc.Create(helpers.TestCtx(), "u1", dto.CreateTransactionRequest{
			Type: "expense", Amount: amount, AccountID: "checking",
		})
		if !isValidationErr(err) {
			t.Fatalf("amount %q: expected validation error, got %v", amount, err)
		}
	}
}

func TestCreateTransferWritesLinkedPair(t *testing.T) {
	svc, txs, accounts := newTransactionFixture()

	source, err := svc.Create(helpers.TestCtx(), "u1", dto.CreateTransactionRequest{
		Type:                "transfer",
		Amount:              "25.00",
		AccountID:           "checking",
		TransferToAccountID: "savings",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if accounts.balance("checking") != 75_00 || accounts.balance("savings") != 525_00 {
		t.Fatalf("balances = %d / %d, want 7500 / 52500",
			accounts.balance("checking"), accounts.balance("savings"))
	}
	if len(txs.rows) != 2 {
		t.Fatalf("row count = %d, want 2", len(txs.rows))
	}

	sibling := txs.rows[source.TransferToTransactionID]
	if sibling == nil {
		t.Fatalf("sibling %s not written", source.TransferToTransactionID)
	}
	if sibling.TransferToTransactionID != source.TransactionID {
		t.Fatalf("sibling does not link back: %s", sibling.TransferToTransactionID)
	}
	if sibling.TransferFromAccountID != "checking" || source.TransferToAccountID != "savings" {
		t.Fatalf("direction fields wrong: %+v / %+v", source, sibling)
	}
	if source.SignedEffectMinor() != -25_00 || sibling.SignedEffectMinor() != 25_00 {
		t.Fatalf("signed effects = %d / %d", source.SignedEffectMinor(), sibling.SignedEffectMinor())
	}
}

func TestCreateTransferRejectsCurrencyMismatch(t *testing.T) {
	svc, _, accounts := newTransactionFixture()

	_, err := svc.Create(helpers.TestCtx(), "u1", dto.CreateTransactionRequest{
		Type:                "transfer",
		Amount:              "10.00",
		AccountID:           "checking",
		TransferToAccountID: "usd",
	})
	if !isValidationErr(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if accounts.balance("checking") != 100_00 || accounts.balance("usd") != 0 {
		t.Fatalf("balances moved on rejected transfer")
	}
}

func TestUpdateReversesThenReapplies(t *testing.T) {
	svc, _, accounts := newTransactionFixture()
	ctx := helpers.TestCtx()

	tx, err := svc.Create(ctx, "u1", dto.CreateTransactionRequest{
		Type: "expense", Amount: "30.00", AccountID: "checking",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Move the entry to another account with a different amount. The old
	// effect must vanish from checking and the new one land on savings.
	_, err = svc.Update(ctx, "u1", tx.TransactionID, dto.UpdateTransactionPatch{
		Amount:    helpers.Ptr("40.00"),
		AccountID: helpers.Ptr("savings"),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if got := accounts.balance("checking"); got != 100_00 {
		t.Fatalf("old account balance = %d, want full reversal to 10000", got)
	}
	if got := accounts.balance("savings"); got != 460_00 {
		t.Fatalf("new account balance = %d, want 46000", got)
	}
}

func TestUpdateRejectsTransfers(t *testing.T) {
	svc, _, _ := newTransactionFixture()
	ctx := helpers.TestCtx()

	source, err := svc.Create(ctx, "u1", dto.CreateTransactionRequest{
		Type: "transfer", Amount: "5.00", AccountID: "checking", TransferToAccountID: "savings",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.Update(ctx, "u1", source.TransactionID, dto.UpdateTransactionPatch{
		Amount: helpers.Ptr("9.00"),
	})
	if !isValidationErr(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteReversesEffect(t *testing.T) {
	svc, txs, accounts := newTransactionFixture()
	ctx := helpers.TestCtx()

	tx, err := svc.Create(ctx, "u1", dto.CreateTransactionRequest{
		Type: "income", Amount: "50.00", AccountID: "checking",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete(ctx, "u1", tx.TransactionID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if got := accounts.balance("checking"); got != 100_00 {
		t.Fatalf("balance = %d, want 10000 after delete", got)
	}
	if len(txs.rows) != 0 {
		t.Fatalf("row not removed")
	}
}

func TestDeleteTransferRemovesBothSides(t *testing.T) {
	svc, txs, accounts := newTransactionFixture()
	ctx := helpers.TestCtx()

	source, err := svc.Create(ctx, "u1", dto.CreateTransactionRequest{
		Type: "transfer", Amount: "20.00", AccountID: "checking", TransferToAccountID: "savings",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete(ctx, "u1", source.TransactionID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if accounts.balance("checking") != 100_00 || accounts.balance("savings") != 500_00 {
		t.Fatalf("balances not restored: %d / %d",
			accounts.balance("checking"), accounts.balance("savings"))
	}
	if len(txs.rows) != 0 {
		t.Fatalf("rows remain after transfer delete: %d", len(txs.rows))
	}
}

func TestDeleteTransferToleratesMissingSibling(t *testing.T) {
	svc, txs, accounts := newTransactionFixture()
	ctx := helpers.TestCtx()

	source, err := svc.Create(ctx, "u1", dto.CreateTransactionRequest{
		Type: "transfer", Amount: "20.00", AccountID: "checking", TransferToAccountID: "savings",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Simulate a historical integrity gap: the sibling row vanished but its
	// balance effect did not.
	delete(txs.rows, source.TransferToTransactionID)

	if err := svc.Delete(ctx, "u1", source.TransactionID); err != nil {
		t.Fatalf("Delete should tolerate the gap, got %v", err)
	}
	if got := accounts.balance("checking"); got != 100_00 {
		t.Fatalf("present side not reversed: %d", got)
	}
	// The missing side's effect stays untouched; only its row is gone.
	if got := accounts.balance("savings"); got != 520_00 {
		t.Fatalf("absent side was reversed without its row: %d", got)
	}
}

func TestIngestReplayReturnsExistingRow(t *testing.T) {
	svc, txs, accounts := newTransactionFixture()
	ctx := helpers.TestCtx()

	req := dto.ShortcutWebhookRequest{
		UserID:         "u1",
		Type:           "expense",
		Amount:         "7.00",
		AccountID:      "checking",
		IdempotencyKey: "shortcut-abc",
	}

	first, created, err := svc.Ingest(ctx, "u1", req)
	if err != nil || !created {
		t.Fatalf("first ingest: created=%v err=%v", created, err)
	}

	second, created, err := svc.Ingest(ctx, "u1", req)
	if err != nil {
		t.Fatalf("replay returned error: %v", err)
	}
	if created {
		t.Fatalf("replay reported a new row")
	}
	if second.TransactionID != first.TransactionID {
		t.Fatalf("replay returned a different row: %s vs %s", second.TransactionID, first.TransactionID)
	}
	if len(txs.rows) != 1 {
		t.Fatalf("replay duplicated the row")
	}
	if got := accounts.balance("checking"); got != 93_00 {
		t.Fatalf("balance applied twice: %d", got)
	}
}

func TestIngestRequiresIdempotencyKey(t *testing.T) {
	svc, _, _ := newTransactionFixture()

	_, _, err := svc.Ingest(helpers.TestCtx(), "u1", dto.ShortcutWebhookRequest{
		UserID: "u1", Type: "expense", Amount: "7.00", AccountID: "checking",
	})
	if !isValidationErr(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
