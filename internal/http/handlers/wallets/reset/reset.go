// Package reset реализует HTTP-обработчик сброса балансов всех пользователей.
package reset

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/middlewarectx"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Handler сбрасывает балансы. Право на сброс проверяет сервис по ID из токена.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает сброс балансов.
type Service interface {
	ResetAllBalances(ctx context.Context, requestingUserID string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает POST /api/wallets/{userId}/reset.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wallets.reset"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requesterID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		response.ServiceError(w, r, models.ErrUnauthorized)
		return
	}

	if err := h.service.ResetAllBalances(r.Context(), requesterID); err != nil {
		log.Error("failed to reset balances", slog.String("requested_by", requesterID), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]string{"message": "balances reset to seed values"}))
}
