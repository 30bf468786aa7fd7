/**
 * @description
 * This file contains the HTTP handlers for authentication and the account
 * holder's own profile, plus the response helpers shared by every handler in
 * this package. Handlers parse incoming requests, call the appropriate
 * application service, and write the HTTP response; they hold no business
 * logic themselves.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fibiannsk/trustyfin/internal/app"
	"github.com/fibiannsk/trustyfin/internal/store"
)

// Handlers holds the application services used by the HTTP layer.
type Handlers struct {
	accounts  *app.AccountService
	transfers *app.TransferService
	queries   *app.QueryService

	limiter         app.TransferRateLimiter
	transfersPerMin int
	jwtSecret       string
	jwtExpiry       time.Duration
}

// NewHandlers creates the handler set. limiter may be nil, in which case
// transfers are never throttled.
func NewHandlers(accounts *app.AccountService, transfers *app.TransferService, queries *app.QueryService, limiter app.TransferRateLimiter, transfersPerMin int, jwtSecret string, jwtExpiry time.Duration) *Handlers {
	return &Handlers{
		accounts:        accounts,
		transfers:       transfers,
		queries:         queries,
		limiter:         limiter,
		transfersPerMin: transfersPerMin,
		jwtSecret:       jwtSecret,
		jwtExpiry:       jwtExpiry,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler authenticates an email/password pair and issues a bearer token.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("level=error component=api endpoint=login msg=\"authentication failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "Unable to log in")
		return
	}
	if user.Blocked {
		writeError(w, http.StatusForbidden, "Account is blocked")
		return
	}

	token, err := IssueToken(user, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		log.Printf("level=error component=api endpoint=login msg=\"token issuance failed\" user_id=%s err=%v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Unable to log in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// ProfileHandler returns the authenticated user's account record.
func (h *Handlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	user, err := h.accounts.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=profile msg=\"profile lookup failed\" user_id=%s err=%v", userID, err)
		writeError(w, http.StatusInternalServerError, "Unable to load profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordHandler rotates the authenticated user's password after
// verifying the current one.
func (h *Handlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "New password is required")
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, store.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			log.Printf("level=error component=api endpoint=change_password msg=\"password change failed\" user_id=%s err=%v", userID, err)
			writeError(w, http.StatusInternalServerError, "Unable to change password")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
		}
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
