package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/fibiannsk/trustyfin/internal/domain"
	"github.com/fibiannsk/trustyfin/internal/store"
)

func validCreateRequest() CreateAccountRequest {
	return CreateAccountRequest{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Gender:          "female",
		DateOfBirth:     "1990-12-10",
		AccountType:     "savings",
		Address:         "12 Analytical St",
		PostalCode:      "10001",
		State:           "NY",
		Country:         "USA",
		Currency:        "USD",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		PIN:             "4321",
	}
}

func TestCreateAccount_IssuesNumberAndHashesPassword(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	user, err := svc.CreateAccount(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	if len(user.AccountNumber) != AccountNumberLength {
		t.Fatalf("expected a %d-digit account number, got %q", AccountNumberLength, user.AccountNumber)
	}
	if !strings.HasPrefix(user.AccountNumber, AccountNumberPrefix) {
		t.Fatalf("expected prefix %q, got %q", AccountNumberPrefix, user.AccountNumber)
	}
	if user.Balance != 0 {
		t.Fatalf("expected zero opening balance, got %d", user.Balance)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role %q, got %q", domain.RoleUser, user.Role)
	}
	if user.Password == "s3cret-pass" {
		t.Fatal("expected the password to be stored hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret-pass")) != nil {
		t.Fatal("stored hash does not verify against the password")
	}
}

func TestCreateAccount_RejectsMissingFields(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	req := validCreateRequest()
	req.Country = ""
	_, err := svc.CreateAccount(context.Background(), req)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if !strings.Contains(err.Error(), "country") {
		t.Fatalf("expected the error to name the field, got %q", err.Error())
	}
}

func TestCreateAccount_RejectsPasswordMismatch(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	req := validCreateRequest()
	req.ConfirmPassword = "different"
	if _, err := svc.CreateAccount(context.Background(), req); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestCreateAccount_RejectsDuplicateEmail(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	if _, err := svc.CreateAccount(context.Background(), validCreateRequest()); err != nil {
		t.Fatalf("first CreateAccount returned error: %v", err)
	}
	if _, err := svc.CreateAccount(context.Background(), validCreateRequest()); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestGenerateAccountNumber_Format(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	for i := 0; i < 20; i++ {
		number, err := svc.GenerateAccountNumber(context.Background())
		if err != nil {
			t.Fatalf("GenerateAccountNumber returned error: %v", err)
		}
		if len(number) != AccountNumberLength || !strings.HasPrefix(number, AccountNumberPrefix) {
			t.Fatalf("malformed account number: %q", number)
		}
		for _, r := range number {
			if r < '0' || r > '9' {
				t.Fatalf("account number contains non-digit: %q", number)
			}
		}
	}
}

func TestUpdateAccount_StripsImmutableFields(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	user, err := svc.CreateAccount(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	err = svc.UpdateAccount(context.Background(), user.AccountNumber, map[string]interface{}{
		"firstName":     "Augusta",
		"balance":       999999,
		"accountNumber": "001030000000",
		"role":          domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("UpdateAccount returned error: %v", err)
	}

	got, err := svc.GetByAccountNumber(context.Background(), user.AccountNumber)
	if err != nil {
		t.Fatalf("GetByAccountNumber returned error: %v", err)
	}
	if got.FirstName != "Augusta" {
		t.Fatalf("expected first name updated, got %q", got.FirstName)
	}
	if got.Balance != 0 || got.Role != domain.RoleUser {
		t.Fatalf("expected balance and role untouched, got balance=%d role=%q", got.Balance, got.Role)
	}
}

func TestUpdateAccount_RejectsPatchWithOnlyImmutableFields(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	user, err := svc.CreateAccount(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	err = svc.UpdateAccount(context.Background(), user.AccountNumber, map[string]interface{}{"balance": 1})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	created, err := svc.CreateAccount(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "ada@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, user.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	user, err := svc.CreateAccount(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "new-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "s3cret-pass", "new-pass"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ada@example.com", "new-pass"); err != nil {
		t.Fatalf("expected login with the new password to succeed, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ada@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected the old password to stop working, got %v", err)
	}
}

func TestSetBlockedAndDelete(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := NewAccountService(repo)

	user, err := svc.CreateAccount(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	if err := svc.SetBlocked(context.Background(), user.AccountNumber, true); err != nil {
		t.Fatalf("SetBlocked returned error: %v", err)
	}
	got, _ := svc.GetByAccountNumber(context.Background(), user.AccountNumber)
	if !got.Blocked {
		t.Fatal("expected account to be blocked")
	}

	if err := svc.DeleteAccount(context.Background(), user.AccountNumber); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}
	if _, err := svc.GetByAccountNumber(context.Background(), user.AccountNumber); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}
