/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access performed by the banking services. The interface decouples business
 * logic from the MongoDB implementation so services can be exercised against
 * the in-memory repository in tests.
 */

package store

import (
	"context"
	"errors"

	"github.com/fibiannsk/trustyfin/internal/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already taken")
	ErrDuplicateAccount  = errors.New("account number already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// StatementQuery selects one page of a user's transaction history.
type StatementQuery struct {
	UserID   string
	Type     string // "debit", "credit", or "" for both
	Page     int    // 1-based
	PageSize int
}

// AllData is the admin bulk export of every collection.
type AllData struct {
	Users         []domain.User        `json:"users"`
	Transactions  []domain.Transaction `json:"transactions"`
	Expenses      []domain.Expense     `json:"expenses"`
	Beneficiaries []domain.Beneficiary `json:"beneficiaries"`
}

// Repository defines the set of methods for interacting with the document store.
type Repository interface {
	// Account resolution (pure reads).
	FindUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Account lifecycle.
	InsertUser(ctx context.Context, user *domain.User) error
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
	UpdateUserFields(ctx context.Context, accountNumber string, fields map[string]interface{}) error
	UpdateUserPassword(ctx context.Context, userID string, passwordHash string) error
	SetBlocked(ctx context.Context, accountNumber string, blocked bool) error
	DeleteUser(ctx context.Context, accountNumber string) error
	ListUsers(ctx context.Context) ([]domain.User, error)

	// Balance movement. DebitBalance applies an atomic conditional decrement
	// ("decrement where balance >= amount") and returns the post-debit
	// balance; it fails with ErrInsufficientFunds when the condition does not
	// match, without mutating anything. CreditBalance is unconditional.
	DebitBalance(ctx context.Context, accountNumber string, amount int64) (int64, error)
	CreditBalance(ctx context.Context, accountNumber string, amount int64) (int64, error)

	// Ledger writes. Transactions and expenses are insert-only.
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	InsertExpense(ctx context.Context, expense *domain.Expense) error
	UpsertBeneficiary(ctx context.Context, b *domain.Beneficiary) error

	// Ledger reads.
	FindTransactionsByUserID(ctx context.Context, userID string) ([]domain.Transaction, error)
	FindTransactionsPage(ctx context.Context, q StatementQuery) ([]domain.Transaction, int64, error)
	FindBeneficiariesByUserID(ctx context.Context, userID string) ([]domain.Beneficiary, error)

	// Admin export.
	DumpAllData(ctx context.Context) (*AllData, error)
}
