// Package remove реализует HTTP-обработчик удаления пользователя.
// Зарезервированных администраторов удалить нельзя.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
)

// Handler удаляет пользователя по ID из URL.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление пользователя.
type Service interface {
	DeleteUser(ctx context.Context, id string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает DELETE /api/admin/users/{id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		log.Error("failed to delete user", slog.String("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("user deleted", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]string{"id": id}))
}
