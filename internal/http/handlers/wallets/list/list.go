// Package list реализует HTTP-обработчик списка кошельков пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Handler возвращает кошельки пользователя из URL.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение кошельков.
type Service interface {
	GetWalletsByUser(ctx context.Context, userID string) ([]*models.Wallet, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает GET /api/wallets/{userId}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wallets.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "userId")
	wallets, err := h.service.GetWalletsByUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to list wallets", slog.String("user_id", userID), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	if wallets == nil {
		wallets = []*models.Wallet{}
	}
	render.JSON(w, r, response.OKWithData(wallets))
}
