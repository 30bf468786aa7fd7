/**
 * @description
 * HTTP handlers for the administration surface: account creation, lookup,
 * partial updates, block/unblock, deletion, and the full-database dump used
 * by the back office. All routes here sit behind the admin role check.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fibiannsk/trustyfin/internal/app"
	"github.com/fibiannsk/trustyfin/internal/store"
)

// CreateUserHandler handles POST /admin/users.
func (h *Handlers) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req app.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.accounts.CreateAccount(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingField), errors.Is(err, app.ErrPasswordMismatch):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, "Email already taken")
		default:
			log.Printf("level=error component=api endpoint=create_user msg=\"account creation failed\" err=%v", err)
			writeError(w, http.StatusInternalServerError, "Unable to create account")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account created successfully",
		"user":    user,
	})
}

// GetUserHandler handles GET /admin/users/{accountNumber}.
func (h *Handlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	user, err := h.accounts.GetByAccountNumber(r.Context(), accountNumber)
	if err != nil {
		h.mapAdminError(w, "get_user", accountNumber, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateUserHandler handles PATCH /admin/users/{accountNumber}. Identity and
// balance fields in the body are ignored rather than applied.
func (h *Handlers) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.accounts.UpdateAccount(r.Context(), accountNumber, fields); err != nil {
		h.mapAdminError(w, "update_user", accountNumber, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account updated successfully"})
}

// BlockUserHandler handles PUT /admin/users/{accountNumber}/block.
func (h *Handlers) BlockUserHandler(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// UnblockUserHandler handles PUT /admin/users/{accountNumber}/unblock.
func (h *Handlers) UnblockUserHandler(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *Handlers) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	accountNumber := chi.URLParam(r, "accountNumber")

	if err := h.accounts.SetBlocked(r.Context(), accountNumber, blocked); err != nil {
		h.mapAdminError(w, "set_blocked", accountNumber, err)
		return
	}

	message := "Account unblocked"
	if blocked {
		message = "Account blocked"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// DeleteUserHandler handles DELETE /admin/users/{accountNumber}.
func (h *Handlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	if err := h.accounts.DeleteAccount(r.Context(), accountNumber); err != nil {
		h.mapAdminError(w, "delete_user", accountNumber, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// AllDataHandler handles GET /admin/all-data, returning every collection in
// one payload.
func (h *Handlers) AllDataHandler(w http.ResponseWriter, r *http.Request) {
	data, err := h.accounts.AllData(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=all_data msg=\"dump failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "Unable to load data")
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func (h *Handlers) mapAdminError(w http.ResponseWriter, endpoint, accountNumber string, err error) {
	if errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	log.Printf("level=error component=api endpoint=%s msg=\"admin operation failed\" account=%s err=%v", endpoint, accountNumber, err)
	writeError(w, http.StatusInternalServerError, "Operation failed")
}
