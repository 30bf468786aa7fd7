/**
 * @description
 * In-memory implementation of the `Repository` interface. It mirrors the
 * MongoDB semantics that matter to the services — per-document atomicity for
 * balance updates, the compound beneficiary key, timestamp-descending reads —
 * behind a single mutex. Used by the test suites and for running the server
 * without a database.
 */

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fibiannsk/trustyfin/internal/domain"
)

// MemoryRepository is a mutex-guarded, map-backed Repository.
type MemoryRepository struct {
	mu            sync.Mutex
	users         map[string]*domain.User // keyed by id
	transactions  []domain.Transaction
	expenses      []domain.Expense
	beneficiaries []domain.Beneficiary
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*domain.User)}
}

func (r *MemoryRepository) userByAccountNumber(accountNumber string) *domain.User {
	for _, u := range r.users {
		if u.AccountNumber == accountNumber {
			return u
		}
	}
	return nil
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	return &cp
}

func (r *MemoryRepository) FindUserByAccountNumber(_ context.Context, accountNumber string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.userByAccountNumber(accountNumber); u != nil {
		return copyUser(u), nil
	}
	return nil, ErrUserNotFound
}

func (r *MemoryRepository) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, ErrUserNotFound
}

func (r *MemoryRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryRepository) InsertUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
		if u.AccountNumber == user.AccountNumber {
			return ErrDuplicateAccount
		}
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *MemoryRepository) AccountNumberExists(_ context.Context, accountNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userByAccountNumber(accountNumber) != nil, nil
}

func (r *MemoryRepository) UpdateUserFields(_ context.Context, accountNumber string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.userByAccountNumber(accountNumber)
	if u == nil {
		return ErrUserNotFound
	}
	applyUserFields(u, fields)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// applyUserFields covers the mutable fields the admin edit path accepts.
func applyUserFields(u *domain.User, fields map[string]interface{}) {
	for k, v := range fields {
		s, _ := v.(string)
		switch k {
		case "firstName":
			u.FirstName = s
		case "middleName":
			u.MiddleName = s
		case "lastName":
			u.LastName = s
		case "email":
			u.Email = s
		case "gender":
			u.Gender = s
		case "dateOfBirth":
			u.DateOfBirth = s
		case "accountType":
			u.AccountType = s
		case "address":
			u.Address = s
		case "postalCode":
			u.PostalCode = s
		case "state":
			u.State = s
		case "country":
			u.Country = s
		case "currency":
			u.Currency = s
		case "pin":
			u.PIN = s
		case "blocked":
			if b, ok := v.(bool); ok {
				u.Blocked = b
			}
		}
	}
}

func (r *MemoryRepository) UpdateUserPassword(_ context.Context, userID string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Password = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) SetBlocked(ctx context.Context, accountNumber string, blocked bool) error {
	return r.UpdateUserFields(ctx, accountNumber, map[string]interface{}{"blocked": blocked})
}

func (r *MemoryRepository) DeleteUser(_ context.Context, accountNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.userByAccountNumber(accountNumber)
	if u == nil {
		return ErrUserNotFound
	}
	delete(r.users, u.ID)
	return nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].AccountNumber < users[j].AccountNumber })
	return users, nil
}

func (r *MemoryRepository) DebitBalance(_ context.Context, accountNumber string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.userByAccountNumber(accountNumber)
	if u == nil {
		return 0, ErrUserNotFound
	}
	if u.Balance < amount {
		return 0, ErrInsufficientFunds
	}
	u.Balance -= amount
	u.UpdatedAt = time.Now().UTC()
	return u.Balance, nil
}

func (r *MemoryRepository) CreditBalance(_ context.Context, accountNumber string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.userByAccountNumber(accountNumber)
	if u == nil {
		return 0, ErrUserNotFound
	}
	u.Balance += amount
	u.UpdatedAt = time.Now().UTC()
	return u.Balance, nil
}

func (r *MemoryRepository) InsertTransaction(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *tx)
	return nil
}

func (r *MemoryRepository) InsertExpense(_ context.Context, expense *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expenses = append(r.expenses, *expense)
	return nil
}

func (r *MemoryRepository) UpsertBeneficiary(_ context.Context, b *domain.Beneficiary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.beneficiaries {
		existing := &r.beneficiaries[i]
		if existing.UserID == b.UserID && existing.AccountNumber == b.AccountNumber && existing.Bank == b.Bank {
			existing.Name = b.Name
			existing.LastUsed = b.LastUsed
			return nil
		}
	}
	r.beneficiaries = append(r.beneficiaries, *b)
	return nil
}

func (r *MemoryRepository) FindTransactionsByUserID(_ context.Context, userID string) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var txs []domain.Transaction
	for _, tx := range r.transactions {
		if tx.UserID == userID {
			txs = append(txs, tx)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })
	return txs, nil
}

func (r *MemoryRepository) FindTransactionsPage(_ context.Context, q StatementQuery) ([]domain.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Transaction
	for _, tx := range r.transactions {
		if tx.UserID != q.UserID {
			continue
		}
		if q.Type != "" && tx.Type != q.Type {
			continue
		}
		matched = append(matched, tx)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	total := int64(len(matched))
	start := (q.Page - 1) * q.PageSize
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepository) FindBeneficiariesByUserID(_ context.Context, userID string) ([]domain.Beneficiary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []domain.Beneficiary
	for _, b := range r.beneficiaries {
		if b.UserID == userID {
			items = append(items, b)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].LastUsed.After(items[j].LastUsed) })
	return items, nil
}

func (r *MemoryRepository) DumpAllData(ctx context.Context) (*AllData, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return &AllData{
		Users:         users,
		Transactions:  append([]domain.Transaction(nil), r.transactions...),
		Expenses:      append([]domain.Expense(nil), r.expenses...),
		Beneficiaries: append([]domain.Beneficiary(nil), r.beneficiaries...),
	}, nil
}
