// Package create реализует HTTP-обработчик создания транзакции.
//
// Handler принимает JSON с параметрами перевода, валидирует его и передаёт
// сервису вместе с ID пользователя из токена. Запрос без подтверждённой
// оплаты комиссии отклоняется с кодом 400.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/middlewarectx"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Handler управляет HTTP-запросами на создание транзакций.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис жизненного цикла транзакций
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает создание транзакции.
type Service interface {
	Create(ctx context.Context, userID string, req models.NewTransaction) (*models.Transaction, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает POST /api/transactions.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transactions.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
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

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		response.ServiceError(w, r, models.ErrUnauthorized)
		return
	}

	t, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		log.Error("failed to create transaction", slog.String("user_id", userID), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("transaction created", slog.String("id", t.ID), slog.String("network", t.Network))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(t))
}
