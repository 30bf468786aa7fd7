/**
 * @description
 * This file defines the core domain models for the banking backend. These structs
 * represent the documents stored in MongoDB (`users`, `transactions`, `expenses`,
 * `beneficiaries`) and the DTOs exchanged with the API layer.
 *
 * @notes
 * - Monetary values are stored as `int64` in minor units (cents), which avoids
 *   floating-point inaccuracies with financial data. Use the helpers in amount.go
 *   to convert to and from caller-facing decimal representations.
 */

package domain

import "time"

// Account roles.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// User represents an account holder document in the `users` collection.
// The account number is system-generated and immutable after creation; the
// balance is mutated only through the store's atomic debit/credit operations.
type User struct {
	ID            string    `bson:"_id" json:"id"`
	AccountNumber string    `bson:"accountNumber" json:"account_number"`
	Email         string    `bson:"email" json:"email"`
	Password      string    `bson:"password" json:"-"`
	PIN           string    `bson:"pin" json:"-"`
	Balance       int64     `bson:"balance" json:"balance"` // minor units
	Blocked       bool      `bson:"blocked" json:"blocked"`
	Role          string    `bson:"role" json:"role"`
	Currency      string    `bson:"currency" json:"currency"`
	FirstName     string    `bson:"firstName" json:"first_name"`
	MiddleName    string    `bson:"middleName,omitempty" json:"middle_name,omitempty"`
	LastName      string    `bson:"lastName" json:"last_name"`
	Gender        string    `bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth   string    `bson:"dateOfBirth,omitempty" json:"date_of_birth,omitempty"`
	AccountType   string    `bson:"accountType,omitempty" json:"account_type,omitempty"`
	Address       string    `bson:"address,omitempty" json:"address,omitempty"`
	PostalCode    string    `bson:"postalCode,omitempty" json:"postal_code,omitempty"`
	State         string    `bson:"state,omitempty" json:"state,omitempty"`
	Country       string    `bson:"country,omitempty" json:"country,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updated_at"`
}

// Name returns the display name used on transaction legs and notifications.
func (u *User) Name() string {
	if u.MiddleName != "" {
		return u.FirstName + " " + u.MiddleName + " " + u.LastName
	}
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user may call admin endpoints.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperadmin
}
