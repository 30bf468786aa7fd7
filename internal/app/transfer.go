/**
 * @description
 * This file contains the transfer engine, the core money-movement logic of
 * the backend. `TransferService.Transfer` validates a request, applies the
 * atomic conditional debit, writes the ledger records (debit leg, expense,
 * credit leg for internal transfers, beneficiary), and enqueues transaction
 * alerts.
 *
 * Key properties:
 * - All validation happens before any write; each failing check maps to a
 *   distinct error.
 * - The balance check and decrement are a single store operation, so
 *   concurrent transfers against one account can never overdraw it.
 * - Once the debit commits there is no rollback: a later store failure is
 *   surfaced as *PartialTransferError with the correlation id and failed
 *   step, leaving a reconcilable trail.
 * - Alert publishing is fire and forget and cannot fail a transfer.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fibiannsk/trustyfin/internal/domain"
	"github.com/fibiannsk/trustyfin/internal/store"
	"github.com/fibiannsk/trustyfin/pkg/rabbitmq"
)

// Exchange and routing keys for transaction alerts.
const (
	AlertExchange         = "trustyfin.events"
	AlertRoutingKeyDebit  = "transaction.alert.debit"
	AlertRoutingKeyCredit = "transaction.alert.credit"
)

// ExpenseCategoryTransfer is the fixed category written on transfer expenses.
const ExpenseCategoryTransfer = "Transfer"

// TransferService moves funds between accounts and writes the audit trail.
type TransferService struct {
	repo      store.Repository
	publisher rabbitmq.Publisher
}

// NewTransferService creates a transfer engine over the given repository and
// alert publisher.
func NewTransferService(repo store.Repository, publisher rabbitmq.Publisher) *TransferService {
	return &TransferService{repo: repo, publisher: publisher}
}

// Transfer debits the sender and, for internal transfers, credits the
// recipient, persisting one transaction leg per side under the caller's
// correlation id. senderID is the authenticated identity owning the debit
// leg; the route layer has already rejected blocked accounts.
func (s *TransferService) Transfer(ctx context.Context, senderID string, req domain.TransferRequest) (*domain.TransferReceipt, error) {
	if req.TransactionID == "" {
		return nil, ErrCorrelationIDRequired
	}
	amount, err := req.Amount.MinorUnits()
	if err != nil {
		return nil, err
	}
	if req.FromAccount == "" {
		return nil, ErrFromAccountRequired
	}
	if req.BeneficiaryAccount == "" {
		return nil, ErrBeneficiaryRequired
	}
	if req.FromAccount == req.BeneficiaryAccount {
		return nil, ErrSelfTransfer
	}

	sender, err := s.repo.FindUserByAccountNumber(ctx, req.FromAccount)
	if err != nil {
		return nil, err
	}
	if sender.PIN != req.PIN {
		return nil, ErrInvalidPIN
	}

	// Atomic conditional decrement; fails without mutation when the balance
	// does not cover the amount.
	senderBalance, err := s.repo.DebitBalance(ctx, req.FromAccount, amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	partial := func(step string, cause error) error {
		perr := &PartialTransferError{
			CorrelationID: req.TransactionID,
			FromAccount:   domain.MaskAccountNumber(req.FromAccount),
			ToAccount:     domain.MaskAccountNumber(req.BeneficiaryAccount),
			Step:          step,
			Err:           cause,
		}
		log.Printf("level=error component=transfer_engine msg=\"ledger partially applied\" transaction_id=%s from=%s to=%s step=%s err=%v",
			req.TransactionID, perr.FromAccount, perr.ToAccount, step, cause)
		return perr
	}

	debitLeg := &domain.Transaction{
		ID:                       uuid.NewString(),
		UserID:                   sender.ID,
		TransactionID:            req.TransactionID,
		FromAccount:              req.FromAccount,
		BeneficiaryBank:          req.BeneficiaryBank,
		BeneficiaryAccount:       req.BeneficiaryAccount,
		BeneficiaryName:          req.BeneficiaryName,
		MaskedFromAccount:        domain.MaskAccountNumber(req.FromAccount),
		MaskedBeneficiaryAccount: domain.MaskAccountNumber(req.BeneficiaryAccount),
		Amount:                   amount,
		Narration:                req.Narration,
		Timestamp:                now,
		Type:                     domain.LegDebit,
		Status:                   domain.StatusCompleted,
	}
	if err := s.repo.InsertTransaction(ctx, debitLeg); err != nil {
		return nil, partial("debit transaction", err)
	}

	expense := &domain.Expense{
		ID:            uuid.NewString(),
		UserID:        sender.ID,
		AccountNumber: req.FromAccount,
		Amount:        amount,
		Narration:     req.Narration,
		Category:      ExpenseCategoryTransfer,
		Timestamp:     now,
	}
	if err := s.repo.InsertExpense(ctx, expense); err != nil {
		return nil, partial("expense record", err)
	}

	// Internal when the destination resolves to one of our accounts;
	// otherwise the money leaves the ledger to an external rail and only the
	// debit leg exists.
	recipient, err := s.repo.FindUserByAccountNumber(ctx, req.BeneficiaryAccount)
	internal := err == nil
	if err != nil && err != store.ErrUserNotFound {
		return nil, partial("beneficiary lookup", err)
	}

	var recipientBalance int64
	if internal {
		recipientBalance, err = s.repo.CreditBalance(ctx, req.BeneficiaryAccount, amount)
		if err != nil {
			return nil, partial("beneficiary credit", err)
		}

		creditLeg := &domain.Transaction{
			ID:                       uuid.NewString(),
			UserID:                   recipient.ID,
			TransactionID:            req.TransactionID,
			FromAccount:              req.BeneficiaryAccount,
			BeneficiaryAccount:       req.FromAccount,
			BeneficiaryName:          sender.Name(),
			MaskedFromAccount:        domain.MaskAccountNumber(req.BeneficiaryAccount),
			MaskedBeneficiaryAccount: domain.MaskAccountNumber(req.FromAccount),
			Amount:                   amount,
			Narration:                req.Narration,
			Timestamp:                now,
			Type:                     domain.LegCredit,
			Status:                   domain.StatusCompleted,
		}
		if err := s.repo.InsertTransaction(ctx, creditLeg); err != nil {
			return nil, partial("credit transaction", err)
		}
	}

	if req.SaveBeneficiary || !internal {
		b := &domain.Beneficiary{
			UserID:        sender.ID,
			Name:          req.BeneficiaryName,
			Bank:          req.BeneficiaryBank,
			AccountNumber: req.BeneficiaryAccount,
			LastUsed:      now,
		}
		if err := s.repo.UpsertBeneficiary(ctx, b); err != nil {
			return nil, partial("beneficiary upsert", err)
		}
	}

	s.enqueueAlert(ctx, AlertRoutingKeyDebit, sender, domain.NotificationTypeDebit, amount, senderBalance, req.Narration, req.TransactionID, now)
	if internal {
		s.enqueueAlert(ctx, AlertRoutingKeyCredit, recipient, domain.NotificationTypeCredit, amount, recipientBalance, req.Narration, req.TransactionID, now)
	}

	return &domain.TransferReceipt{TransactionID: req.TransactionID, Internal: internal}, nil
}

// enqueueAlert hands one leg's notification to the dispatcher queue. Failures
// are logged and swallowed; the ledger is already committed.
func (s *TransferService) enqueueAlert(ctx context.Context, routingKey string, owner *domain.User, legType string, amount, balance int64, narration, reference string, at time.Time) {
	payload := domain.TransactionNotification{
		Email:               owner.Email,
		CustomerName:        owner.Name(),
		Amount:              domain.FormatMinorUnits(amount),
		TransactionType:     legType,
		Currency:            owner.Currency,
		MaskedAccountNumber: domain.MaskAccountNumber(owner.AccountNumber),
		AccountNumber:       owner.AccountNumber,
		Narration:           narration,
		Reference:           reference,
		DateTime:            domain.FormatNotificationTime(at),
		AvailableBalance:    domain.FormatMinorUnits(balance),
		Template:            domain.NotificationTemplateTransaction,
		Status:              domain.StatusCompleted,
	}
	if err := s.publisher.Publish(ctx, AlertExchange, routingKey, payload); err != nil {
		log.Printf("level=warn component=transfer_engine msg=\"alert enqueue failed\" transaction_id=%s type=%s err=%v", reference, legType, err)
	}
}
