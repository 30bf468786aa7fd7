package app

import (
	"errors"
	"fmt"
)

// Validation and authorization failures detected before any write.
var (
	ErrCorrelationIDRequired = errors.New("transaction id is required")
	ErrFromAccountRequired   = errors.New("source account is required")
	ErrBeneficiaryRequired   = errors.New("beneficiary account is required")
	ErrSelfTransfer          = errors.New("you cannot transfer to the same account")
	ErrInvalidPIN            = errors.New("invalid pin")
)

// PartialTransferError reports a store failure after the sender's debit has
// committed. The debit stands; the ledger may be missing the expense, credit
// leg, or beneficiary record named in Step. Callers must surface this
// distinctly from pre-write failures so the transfer can be reconciled.
type PartialTransferError struct {
	CorrelationID string
	FromAccount   string
	ToAccount     string
	Step          string
	Err           error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("transfer %s partially applied: %s failed after debit: %v", e.CorrelationID, e.Step, e.Err)
}

func (e *PartialTransferError) Unwrap() error { return e.Err }
