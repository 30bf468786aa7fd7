/**
 * @description
 * HTTP handler for money transfers. The request body has a single accepted
 * schema: unknown fields fail decoding instead of being silently dropped.
 * Blocked accounts and rate limits are enforced here, before the transfer
 * engine runs.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/fibiannsk/trustyfin/internal/app"
	"github.com/fibiannsk/trustyfin/internal/domain"
	"github.com/fibiannsk/trustyfin/internal/store"
)

const transferRateLimitScope = "transfer"

// TransferHandler handles POST /transfer/ requests.
func (h *Handlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req domain.TransferRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sender, err := h.accounts.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=transfer msg=\"sender lookup failed\" user_id=%s err=%v", userID, err)
		writeError(w, http.StatusInternalServerError, "Unable to process transfer")
		return
	}
	if sender.Blocked {
		log.Printf("level=warn component=api endpoint=transfer outcome=reject reason=account_blocked user_id=%s", userID)
		writeError(w, http.StatusForbidden, "Account is blocked")
		return
	}
	if req.FromAccount != "" && req.FromAccount != sender.AccountNumber {
		writeError(w, http.StatusForbidden, "You can only transfer from your own account")
		return
	}

	if h.limiter != nil && h.transfersPerMin > 0 {
		count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), transferRateLimitScope, sender.AccountNumber, h.transfersPerMin, time.Minute)
		if err != nil {
			// The limiter is an availability guard, not a ledger invariant:
			// if it is down we let the transfer through.
			log.Printf("level=warn component=api endpoint=transfer msg=\"rate limiter unavailable\" err=%v", err)
		} else if count > h.transfersPerMin {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "Too many transfers, please try again shortly")
			return
		}
	}

	receipt, err := h.transfers.Transfer(r.Context(), userID, req)
	if err != nil {
		h.mapTransferError(w, req.TransactionID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":        "Transfer successful",
		"transaction_id": receipt.TransactionID,
	})
}

// mapTransferError translates transfer engine errors into HTTP responses.
func (h *Handlers) mapTransferError(w http.ResponseWriter, transactionID string, err error) {
	var partial *app.PartialTransferError
	switch {
	case errors.Is(err, app.ErrCorrelationIDRequired),
		errors.Is(err, app.ErrFromAccountRequired),
		errors.Is(err, app.ErrBeneficiaryRequired),
		errors.Is(err, app.ErrSelfTransfer),
		errors.Is(err, domain.ErrAmountMissing),
		errors.Is(err, domain.ErrAmountInvalid),
		errors.Is(err, domain.ErrAmountNotPositive),
		errors.Is(err, domain.ErrAmountSubCent):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, app.ErrInvalidPIN):
		writeError(w, http.StatusUnauthorized, "Invalid PIN")
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.As(err, &partial):
		// The debit stands; the engine already logged the reconciliation
		// details under the correlation id.
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":          "Transfer partially applied, contact support",
			"transaction_id": partial.CorrelationID,
		})
	default:
		log.Printf("level=error component=api endpoint=transfer msg=\"transfer failed\" transaction_id=%s err=%v", transactionID, err)
		writeError(w, http.StatusInternalServerError, "Unable to process transfer")
	}
}
