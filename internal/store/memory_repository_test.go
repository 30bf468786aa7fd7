package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fibiannsk/trustyfin/internal/domain"
)

func TestDebitBalance_ConditionalOnFunds(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.InsertUser(ctx, &domain.User{ID: "u1", AccountNumber: "001031111111", Email: "a@example.com", Balance: 1000}); err != nil {
		t.Fatalf("InsertUser returned error: %v", err)
	}

	balance, err := repo.DebitBalance(ctx, "001031111111", 400)
	if err != nil {
		t.Fatalf("DebitBalance returned error: %v", err)
	}
	if balance != 600 {
		t.Fatalf("expected post-debit balance 600, got %d", balance)
	}

	if _, err := repo.DebitBalance(ctx, "001031111111", 601); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	user, _ := repo.FindUserByAccountNumber(ctx, "001031111111")
	if user.Balance != 600 {
		t.Fatalf("expected failed debit to leave balance untouched, got %d", user.Balance)
	}

	if _, err := repo.DebitBalance(ctx, "000000000000", 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestInsertUser_EnforcesUniqueness(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.InsertUser(ctx, &domain.User{ID: "u1", AccountNumber: "001031111111", Email: "a@example.com"}); err != nil {
		t.Fatalf("InsertUser returned error: %v", err)
	}
	err := repo.InsertUser(ctx, &domain.User{ID: "u2", AccountNumber: "001032222222", Email: "a@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	err = repo.InsertUser(ctx, &domain.User{ID: "u3", AccountNumber: "001031111111", Email: "b@example.com"})
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestUpsertBeneficiary_CompoundKey(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := time.Now().UTC()
	b := &domain.Beneficiary{UserID: "u1", Name: "Bob", Bank: "Trustyfin Bank", AccountNumber: "001032222222", LastUsed: first}
	if err := repo.UpsertBeneficiary(ctx, b); err != nil {
		t.Fatalf("UpsertBeneficiary returned error: %v", err)
	}

	later := first.Add(time.Hour)
	update := &domain.Beneficiary{UserID: "u1", Name: "Robert", Bank: "Trustyfin Bank", AccountNumber: "001032222222", LastUsed: later}
	if err := repo.UpsertBeneficiary(ctx, update); err != nil {
		t.Fatalf("UpsertBeneficiary returned error: %v", err)
	}

	// Same account at a different bank is a distinct beneficiary.
	other := &domain.Beneficiary{UserID: "u1", Name: "Bob", Bank: "Other Bank", AccountNumber: "001032222222", LastUsed: later}
	if err := repo.UpsertBeneficiary(ctx, other); err != nil {
		t.Fatalf("UpsertBeneficiary returned error: %v", err)
	}

	items, err := repo.FindBeneficiariesByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("FindBeneficiariesByUserID returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 beneficiaries, got %d", len(items))
	}
	var refreshed *domain.Beneficiary
	for i := range items {
		if items[i].Bank == "Trustyfin Bank" {
			refreshed = &items[i]
		}
	}
	if refreshed == nil || refreshed.Name != "Robert" || !refreshed.LastUsed.Equal(later) {
		t.Fatalf("expected the compound-key match to be refreshed, got %+v", items)
	}
}

func TestFindTransactionsPage_FilterAndTotal(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		legType := domain.LegDebit
		if i%2 == 1 {
			legType = domain.LegCredit
		}
		err := repo.InsertTransaction(ctx, &domain.Transaction{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Type:      legType,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertTransaction returned error: %v", err)
		}
	}

	items, total, err := repo.FindTransactionsPage(ctx, StatementQuery{UserID: "u1", Type: domain.LegDebit, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("FindTransactionsPage returned error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 debit legs, got %d items total %d", len(items), total)
	}
	if items[0].Timestamp.Before(items[1].Timestamp) {
		t.Fatal("expected newest-first ordering")
	}
}
