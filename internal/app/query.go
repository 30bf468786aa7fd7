/**
 * @description
 * Read-side service over the transactions ledger: paginated statements,
 * income/expense summaries, and the current-month spending breakdown. It
 * never writes; reads are unsynchronized snapshots and may run concurrently
 * with transfers.
 */

package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/fibiannsk/trustyfin/internal/domain"
	"github.com/fibiannsk/trustyfin/internal/store"
)

// Statement pagination defaults applied when parameters are absent or invalid.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Spending categories below this share of total monthly spend are folded into
// the "Other" bucket.
const spendingMinShare = 0.05

const (
	spendingOtherCategory = "Other"
	spendingOtherColor    = "#94A3B8"
)

// QueryService builds statements and aggregates from stored transactions.
type QueryService struct {
	repo store.Repository
	now  func() time.Time
}

// NewQueryService creates a query service over the given repository.
func NewQueryService(repo store.Repository) *QueryService {
	return &QueryService{repo: repo, now: time.Now}
}

// GetStatement returns one page of the user's transaction history, newest
// first, optionally filtered to one leg type. Out-of-range parameters coerce
// to defaults; a page past the end yields an empty item list, not an error.
func (s *QueryService) GetStatement(ctx context.Context, userID, typeFilter string, page, pageSize int) (*domain.StatementPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if typeFilter != domain.LegDebit && typeFilter != domain.LegCredit {
		typeFilter = ""
	}

	items, total, err := s.repo.FindTransactionsPage(ctx, store.StatementQuery{
		UserID:   userID,
		Type:     typeFilter,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Transaction{}
	}

	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}

	return &domain.StatementPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// GetSummary aggregates the user's ledger: income from credit legs, expenses
// from debit legs, and the distinct destinations they have sent money to,
// deduplicated by account number. First-seen wins in ledger order, so the
// earliest debit to an account fixes its display name and bank.
func (s *QueryService) GetSummary(ctx context.Context, userID string) (*domain.TransactionSummary, error) {
	txs, err := s.repo.FindTransactionsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &domain.TransactionSummary{
		Transactions:  txs,
		Beneficiaries: []domain.BeneficiarySummary{},
	}
	if summary.Transactions == nil {
		summary.Transactions = []domain.Transaction{}
	}

	// txs is newest-first; walk it backwards so dedup sees the oldest leg
	// per destination first.
	seen := make(map[string]bool)
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		switch tx.Type {
		case domain.LegCredit:
			summary.Income += tx.Amount
		case domain.LegDebit:
			summary.Expenses += tx.Amount
			if tx.BeneficiaryAccount != "" && !seen[tx.BeneficiaryAccount] {
				seen[tx.BeneficiaryAccount] = true
				summary.Beneficiaries = append(summary.Beneficiaries, domain.BeneficiarySummary{
					AccountNumber: tx.BeneficiaryAccount,
					Name:          tx.BeneficiaryName,
					Bank:          tx.BeneficiaryBank,
				})
			}
		}
	}
	summary.NetIncome = summary.Income - summary.Expenses
	return summary, nil
}

// GetSpendingBreakdown groups the current calendar month's debit legs by
// narration. Categories under five percent of total spend merge into "Other";
// the rest get a deterministic color derived from the category text. Buckets
// are sorted by total descending.
func (s *QueryService) GetSpendingBreakdown(ctx context.Context, userID string) ([]domain.SpendingBucket, error) {
	txs, err := s.repo.FindTransactionsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	totals := make(map[string]int64)
	var grandTotal int64
	for _, tx := range txs {
		if tx.Type != domain.LegDebit || tx.Timestamp.Before(monthStart) {
			continue
		}
		category := tx.Narration
		if category == "" {
			category = spendingOtherCategory
		}
		totals[category] += tx.Amount
		grandTotal += tx.Amount
	}

	if grandTotal == 0 {
		return []domain.SpendingBucket{}, nil
	}

	var buckets []domain.SpendingBucket
	var otherTotal int64
	for category, total := range totals {
		if category == spendingOtherCategory || float64(total) < spendingMinShare*float64(grandTotal) {
			otherTotal += total
			continue
		}
		buckets = append(buckets, domain.SpendingBucket{
			Category: category,
			Total:    total,
			ColorTag: categoryColor(category),
		})
	}
	if otherTotal > 0 {
		buckets = append(buckets, domain.SpendingBucket{
			Category: spendingOtherCategory,
			Total:    otherTotal,
			ColorTag: spendingOtherColor,
		})
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Total > buckets[j].Total })
	return buckets, nil
}

// ListBeneficiaries returns the user's saved transfer destinations.
func (s *QueryService) ListBeneficiaries(ctx context.Context, userID string) ([]domain.Beneficiary, error) {
	items, err := s.repo.FindBeneficiariesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Beneficiary{}
	}
	return items, nil
}

// categoryColor derives a stable display color from the category text.
func categoryColor(category string) string {
	h := fnv.New32a()
	h.Write([]byte(category))
	return fmt.Sprintf("#%06X", h.Sum32()&0xFFFFFF)
}
