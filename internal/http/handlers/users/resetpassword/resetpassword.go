// Package resetpassword реализует HTTP-обработчик сброса пароля пользователя администратором.
package resetpassword

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
)

// Request — новый пароль.
type Request struct {
	Password string `json:"password" validate:"required,min=6"`
}

// Handler перезаписывает пароль пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает сброс пароля.
type Service interface {
	ResetPassword(ctx context.Context, id, newPassword string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP обрабатывает POST /api/admin/users/{id}/reset-password.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.resetpassword"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.ResetPassword(r.Context(), id, req.Password); err != nil {
		log.Error("failed to reset password", slog.String("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("password reset", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]string{"id": id}))
}
