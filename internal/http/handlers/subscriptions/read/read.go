// Package read реализует HTTP-обработчик получения подписки пользователя.
package read

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

// Handler возвращает текущую подписку пользователя из URL.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение подписки.
type Service interface {
	GetUserSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает GET /api/subscriptions/{userId}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "userId")
	sub, err := h.service.GetUserSubscription(r.Context(), userID)
	if err != nil {
		log.Error("failed to read subscription", slog.String("user_id", userID), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(sub))
}
