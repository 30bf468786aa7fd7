/**
 * @description
 * This file sets up the HTTP router for the banking API. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * the middleware chain: request logging, panic recovery, CORS, and bearer
 * authentication for everything except login and the health check.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the router for the banking API.
func Routes(h *Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Post("/auth/login", h.LoginHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Route("/transfer", func(r chi.Router) {
			r.Post("/", h.TransferHandler)
			r.Get("/transactions", h.TransactionsHandler)
			r.Get("/transactions/summary", h.SummaryHandler)
			r.Get("/transactions/spending-chart", h.SpendingChartHandler)
			r.Get("/beneficiaries", h.BeneficiariesHandler)
		})

		r.Get("/profile", h.ProfileHandler)
		r.Post("/profile/change-password", h.ChangePasswordHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnly)

			r.Post("/users", h.CreateUserHandler)
			r.Get("/users/{accountNumber}", h.GetUserHandler)
			r.Patch("/users/{accountNumber}", h.UpdateUserHandler)
			r.Put("/users/{accountNumber}/block", h.BlockUserHandler)
			r.Put("/users/{accountNumber}/unblock", h.UnblockUserHandler)
			r.Delete("/users/{accountNumber}", h.DeleteUserHandler)
			r.Get("/all-data", h.AllDataHandler)
		})
	})

	return r
}
