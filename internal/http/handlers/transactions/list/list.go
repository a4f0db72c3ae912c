// Package list реализует HTTP-обработчик списка транзакций пользователя.
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

// Handler возвращает транзакции пользователя из URL.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение транзакций.
type Service interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает GET /api/transactions/{userId}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transactions.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "userId")
	txs, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to list transactions", slog.String("user_id", userID), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	render.JSON(w, r, response.OKWithData(txs))
}
