/**
 * @description
 * Account lifecycle service: account creation with generated account numbers,
 * block/unblock, partial updates, deletion, and credential checks for login
 * and password changes.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fibiannsk/trustyfin/internal/domain"
	"github.com/fibiannsk/trustyfin/internal/store"
)

// Account numbers are 12 digits: a fixed 5-digit institution prefix followed
// by 7 random decimal digits.
const (
	AccountNumberPrefix = "00103"
	AccountNumberLength = 12

	// Collision retries are capped so generation fails loudly instead of
	// looping forever.
	maxAccountNumberAttempts = 25
)

var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingField       = errors.New("missing required field")
)

// CreateAccountRequest carries the fields accepted when opening an account.
type CreateAccountRequest struct {
	FirstName       string `json:"firstName"`
	MiddleName      string `json:"middleName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Gender          string `json:"gender"`
	DateOfBirth     string `json:"dateOfBirth"`
	AccountType     string `json:"accountType"`
	Address         string `json:"address"`
	PostalCode      string `json:"postalCode"`
	State           string `json:"state"`
	Country         string `json:"country"`
	Currency        string `json:"currency"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	PIN             string `json:"pin"`
}

// AccountService manages account records and credentials.
type AccountService struct {
	repo store.Repository
	rand *rand.Rand
}

// NewAccountService creates an account service over the given repository.
func NewAccountService(repo store.Repository) *AccountService {
	return &AccountService{
		repo: repo,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateAccountNumber issues a unique 12-digit account number. It retries
// on collision up to a fixed cap and errors out rather than looping forever.
func (s *AccountService) GenerateAccountNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAccountNumberAttempts; attempt++ {
		candidate := AccountNumberPrefix + fmt.Sprintf("%07d", s.rand.Intn(10000000))
		exists, err := s.repo.AccountNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique account number after %d attempts", maxAccountNumberAttempts)
}

// CreateAccount validates the request, assigns a fresh account number, and
// inserts the user with a zero balance, role "user", and a bcrypt password
// hash. The account number is immutable from here on.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.User, error) {
	required := map[string]string{
		"firstName":   req.FirstName,
		"lastName":    req.LastName,
		"email":       req.Email,
		"gender":      req.Gender,
		"dateOfBirth": req.DateOfBirth,
		"accountType": req.AccountType,
		"address":     req.Address,
		"postalCode":  req.PostalCode,
		"state":       req.State,
		"country":     req.Country,
		"currency":    req.Currency,
		"password":    req.Password,
		"pin":         req.PIN,
	}
	for _, field := range []string{"firstName", "lastName", "email", "gender", "dateOfBirth", "accountType", "address", "postalCode", "state", "country", "currency", "password", "pin"} {
		if strings.TrimSpace(required[field]) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if _, err := s.repo.FindUserByEmail(ctx, req.Email); err == nil {
		return nil, store.ErrDuplicateEmail
	} else if err != store.ErrUserNotFound {
		return nil, err
	}

	accountNumber, err := s.GenerateAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.NewString(),
		AccountNumber: accountNumber,
		Email:         req.Email,
		Password:      string(hash),
		PIN:           req.PIN,
		Balance:       0,
		Blocked:       false,
		Role:          domain.RoleUser,
		Currency:      req.Currency,
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		Gender:        req.Gender,
		DateOfBirth:   req.DateOfBirth,
		AccountType:   req.AccountType,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		State:         req.State,
		Country:       req.Country,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByAccountNumber resolves an account record.
func (s *AccountService) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	return s.repo.FindUserByAccountNumber(ctx, accountNumber)
}

// SetBlocked blocks or unblocks an account. Blocked accounts remain readable;
// the route layer rejects their mutating operations.
func (s *AccountService) SetBlocked(ctx context.Context, accountNumber string, blocked bool) error {
	return s.repo.SetBlocked(ctx, accountNumber, blocked)
}

// immutableFields can never be touched through UpdateAccount.
var immutableFields = map[string]bool{
	"_id":           true,
	"id":            true,
	"accountNumber": true,
	"balance":       true,
	"password":      true,
	"role":          true,
	"createdAt":     true,
}

// UpdateAccount applies a partial update to an account's profile fields.
// Identity, balance, and credential fields are stripped from the patch.
func (s *AccountService) UpdateAccount(ctx context.Context, accountNumber string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrMissingField)
	}
	patch := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if immutableFields[k] {
			continue
		}
		patch[k] = v
	}
	if len(patch) == 0 {
		return fmt.Errorf("%w: no updatable fields", ErrMissingField)
	}
	return s.repo.UpdateUserFields(ctx, accountNumber, patch)
}

// DeleteAccount removes an account record.
func (s *AccountService) DeleteAccount(ctx context.Context, accountNumber string) error {
	return s.repo.DeleteUser(ctx, accountNumber)
}

// AllData returns the admin bulk export of every collection.
func (s *AccountService) AllData(ctx context.Context) (*store.AllData, error) {
	return s.repo.DumpAllData(ctx)
}

// Authenticate verifies login credentials and returns the account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if err == store.ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID resolves an account by its identity id.
func (s *AccountService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindUserByID(ctx, id)
}

// ChangePassword rotates a user's password after verifying the old one.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old_password and new_password", ErrMissingField)
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdateUserPassword(ctx, userID, string(hash))
}
