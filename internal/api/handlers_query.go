/**
 * @description
 * HTTP handlers for the read side of the ledger: paginated statements, the
 * income/expense summary, the current-month spending chart, and saved
 * beneficiaries. All routes operate on the authenticated user's own records.
 */

package api

import (
	"log"
	"net/http"
	"strconv"
)

// TransactionsHandler handles GET /transfer/transactions with optional
// type, page and limit query parameters.
func (h *Handlers) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	q := r.URL.Query()
	typeFilter := q.Get("type")
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	pageResult, err := h.queries.GetStatement(r.Context(), userID, typeFilter, page, limit)
	if err != nil {
		log.Printf("level=error component=api endpoint=transactions msg=\"statement query failed\" user_id=%s err=%v", userID, err)
		writeError(w, http.StatusInternalServerError, "Unable to load transactions")
		return
	}

	writeJSON(w, http.StatusOK, pageResult)
}

// SummaryHandler handles GET /transfer/transactions/summary.
func (h *Handlers) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	summary, err := h.queries.GetSummary(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=summary msg=\"summary query failed\" user_id=%s err=%v", userID, err)
		writeError(w, http.StatusInternalServerError, "Unable to load summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// SpendingChartHandler handles GET /transfer/transactions/spending-chart.
func (h *Handlers) SpendingChartHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	buckets, err := h.queries.GetSpendingBreakdown(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=spending_chart msg=\"spending query failed\" user_id=%s err=%v", userID, err)
		writeError(w, http.StatusInternalServerError, "Unable to load spending chart")
		return
	}

	writeJSON(w, http.StatusOK, buckets)
}

// BeneficiariesHandler handles GET /transfer/beneficiaries.
func (h *Handlers) BeneficiariesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	beneficiaries, err := h.queries.ListBeneficiaries(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=beneficiaries msg=\"beneficiary query failed\" user_id=%s err=%v", userID, err)
		writeError(w, http.StatusInternalServerError, "Unable to load beneficiaries")
		return
	}

	writeJSON(w, http.StatusOK, beneficiaries)
}
