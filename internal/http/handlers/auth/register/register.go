// Package register реализует HTTP-обработчик регистрации нового пользователя.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Handler обрабатывает HTTP-запросы на регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает регистрацию пользователя с выдачей токена.
type Service interface {
	Register(ctx context.Context, req models.NewUser) (*models.User, string, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает POST /api/auth/register.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.NewUser
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

	user, token, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Error("registration failed", slog.String("username", req.Username), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":    user,
		"token":   token,
		"message": "registration successful",
	}))
}
