// Package read реализует HTTP-обработчик получения пользователя по ID.
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

// Handler возвращает пользователя по ID из URL.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение пользователя.
type Service interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает GET /api/admin/users/{id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		log.Error("failed to read user", slog.String("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(user))
}
