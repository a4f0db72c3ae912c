// Package list реализует HTTP-обработчик списка пользователей для администратора.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Handler возвращает всех пользователей без хэшей паролей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение списка пользователей.
type Service interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает GET /api/admin/users.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	render.JSON(w, r, response.OKWithData(users))
}
