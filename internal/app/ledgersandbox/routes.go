// Package ledgersandbox собирает HTTP-приложение песочницы.
package ledgersandbox

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/auth/login"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/auth/register"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/gas/fees"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/gas/receiver"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/subscriptions/plans"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/subscriptions/pending"
	subcreate "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/subscriptions/create"
	subread "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/subscriptions/read"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/subscriptions/review"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/transactions/gaspayment"
	txcreate "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/transactions/create"
	txlist "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/transactions/list"
	txupdate "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/transactions/update"
	userlist "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/users/list"
	userread "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/users/read"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/users/remove"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/users/resetpassword"
	userupdate "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/users/update"
	walletcreate "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/wallets/create"
	walletlist "github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/wallets/list"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/handlers/wallets/reset"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/middlewarectx"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/gasreceiver"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/identity"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/ledger"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/subscription"
	"github.com/ledgersandbox/ledger-sandbox/internal/services/transaction"
)

// Services — сервисы, которые обслуживают маршруты.
type Services struct {
	Identity      *identity.Service
	Ledger        *ledger.Service
	Transactions  *transaction.Service
	Subscriptions *subscription.Service
	GasReceiver   *gasreceiver.Registry
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, allowedOrigins []string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	authLimiter := rate.NewLimiter(5, 10)
	gasReceiver := receiver.New(logger, svc.GasReceiver)
	subReview := review.New(logger, svc.Subscriptions)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(authLimiter, logger))
			r.Post("/auth/login", login.New(logger, svc.Identity).ServeHTTP)
			r.Post("/auth/register", register.New(logger, svc.Identity).ServeHTTP)
		})
		r.Get("/gas-fees", fees.New(logger, svc.GasReceiver).ServeHTTP)
		r.Get("/subscription-plans", plans.New(svc.Subscriptions).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Identity, logger))

			r.With(middlewarectx.SelfOrAdmin("userId", logger)).
				Get("/wallets/{userId}", walletlist.New(logger, svc.Ledger).ServeHTTP)
			r.Post("/wallets/{userId}/reset", reset.New(logger, svc.Ledger).ServeHTTP)

			r.With(middlewarectx.SelfOrAdmin("userId", logger)).
				Get("/transactions/{userId}", txlist.New(logger, svc.Transactions).ServeHTTP)
			r.Post("/transactions", txcreate.New(logger, svc.Transactions).ServeHTTP)
			r.Patch("/transactions/{id}/gas-payment", gaspayment.New(logger, svc.Transactions).ServeHTTP)

			r.Post("/subscriptions", subcreate.New(logger, svc.Subscriptions).ServeHTTP)
			r.With(middlewarectx.SelfOrAdmin("userId", logger)).
				Get("/subscriptions/{userId}", subread.New(logger, svc.Subscriptions).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))

				r.Get("/users", userlist.New(logger, svc.Identity).ServeHTTP)
				r.Get("/users/{id}", userread.New(logger, svc.Identity).ServeHTTP)
				r.Put("/users/{id}", userupdate.New(logger, svc.Identity).ServeHTTP)
				r.Delete("/users/{id}", remove.New(logger, svc.Identity).ServeHTTP)
				r.Post("/users/{id}/reset-password", resetpassword.New(logger, svc.Identity).ServeHTTP)

				r.Post("/wallets", walletcreate.New(logger, svc.Ledger).ServeHTTP)
				r.Patch("/transactions/{id}", txupdate.New(logger, svc.Transactions).ServeHTTP)

				r.Get("/gas-receiver", gasReceiver.Get)
				r.Post("/gas-receiver", gasReceiver.Set)

				r.Get("/subscriptions/pending", pending.New(logger, svc.Subscriptions).ServeHTTP)
				r.Post("/subscriptions/{id}/approve", subReview.Approve)
				r.Post("/subscriptions/{id}/reject", subReview.Reject)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
}
