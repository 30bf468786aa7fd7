package domain

import "time"

// Transaction leg types.
const (
	LegDebit  = "debit"
	LegCredit = "credit"
)

// StatusCompleted is the terminal status written on both legs of a transfer.
// Legs are never updated after insertion; administrative correction happens
// out of band.
const StatusCompleted = "completed"

// Transaction is one leg of a transfer, owned by the account whose statement
// it belongs to (sender for the debit leg, recipient for the credit leg).
// Both legs of an internal transfer share the same TransactionID.
type Transaction struct {
	ID                       string    `bson:"_id" json:"id"`
	UserID                   string    `bson:"user_id" json:"user_id"`
	TransactionID            string    `bson:"transaction_id" json:"transaction_id"`
	FromAccount              string    `bson:"from_account" json:"from_account"`
	BeneficiaryBank          string    `bson:"beneficiary_bank" json:"beneficiary_bank"`
	BeneficiaryAccount       string    `bson:"beneficiary_account" json:"beneficiary_account"`
	BeneficiaryName          string    `bson:"beneficiary_name" json:"beneficiary_name"`
	MaskedFromAccount        string    `bson:"masked_from_account" json:"masked_from_account"`
	MaskedBeneficiaryAccount string    `bson:"masked_beneficiary_account" json:"masked_beneficiary_account"`
	Amount                   int64     `bson:"amount" json:"amount"` // minor units, always positive
	Narration                string    `bson:"narration" json:"narration"`
	Timestamp                time.Time `bson:"timestamp" json:"timestamp"`
	Type                     string    `bson:"type" json:"type"`
	Status                   string    `bson:"status" json:"status"`
}

// Expense is the sender-side bookkeeping record written once per transfer.
type Expense struct {
	ID            string    `bson:"_id" json:"id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	AccountNumber string    `bson:"accountNumber" json:"account_number"`
	Amount        int64     `bson:"amount" json:"amount"`
	Narration     string    `bson:"narration" json:"narration"`
	Category      string    `bson:"category" json:"category"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
}

// Beneficiary is a saved transfer destination, keyed by
// (user_id, accountNumber, bank) and refreshed on every save.
type Beneficiary struct {
	ID            string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        string    `bson:"user_id" json:"user_id"`
	Name          string    `bson:"name" json:"name"`
	Bank          string    `bson:"bank" json:"bank"`
	AccountNumber string    `bson:"accountNumber" json:"account_number"`
	LastUsed      time.Time `bson:"lastUsed" json:"last_used"`
}

// TransferRequest is the DTO for incoming transfer API requests. The field
// list is the single accepted schema; unknown fields are rejected at decode
// time rather than defaulted.
type TransferRequest struct {
	FromAccount        string `json:"fromAccount"`
	BeneficiaryBank    string `json:"beneficiaryBank"`
	BeneficiaryAccount string `json:"beneficiaryAccount"`
	BeneficiaryName    string `json:"beneficiaryName"`
	Amount             Amount `json:"amount"`
	Narration          string `json:"narration"`
	PIN                string `json:"pin"`
	TransactionID      string `json:"transactionId"`
	SaveBeneficiary    bool   `json:"saveBeneficiary"`
}

// TransferReceipt acknowledges a committed transfer, echoing the caller's
// correlation id.
type TransferReceipt struct {
	TransactionID string `json:"transaction_id"`
	Internal      bool   `json:"-"`
}

// StatementPage is one page of a user's transaction history, newest first.
type StatementPage struct {
	Items      []Transaction `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int64         `json:"totalCount"`
	TotalPages int64         `json:"totalPages"`
}

// BeneficiarySummary is a distinct destination derived from a user's debit legs.
type BeneficiarySummary struct {
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	Bank          string `json:"bank"`
}

// TransactionSummary aggregates a user's ledger activity.
type TransactionSummary struct {
	Income        int64                `json:"income"`
	Expenses      int64                `json:"expenses"`
	NetIncome     int64                `json:"net_income"`
	Transactions  []Transaction        `json:"transactions"`
	Beneficiaries []BeneficiarySummary `json:"beneficiaries"`
}

// SpendingBucket is one category of the current-month spending breakdown.
type SpendingBucket struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
	ColorTag string `json:"color"`
}
