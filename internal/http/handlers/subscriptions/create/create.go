// Package create реализует HTTP-обработчик оформления подписки.
//
// Хэш оплаты принимается без проверки, подписка создаётся в статусе pending
// и ждёт решения администратора.
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

// Handler управляет HTTP-запросами на оформление подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает оформление подписки.
type Service interface {
	Create(ctx context.Context, req models.NewSubscription) (*models.Subscription, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP обрабатывает POST /api/subscriptions.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.NewSubscription
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

	userID, _ := middlewarectx.UserIDFrom(r.Context())
	if req.UserID != userID && !middlewarectx.IsAdmin(r.Context()) {
		log.Warn("subscription for another user", slog.String("user_id", userID))
		response.ServiceError(w, r, models.ErrUnauthorized)
		return
	}

	sub, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("subscription created", slog.String("id", sub.ID), slog.String("plan_id", sub.PlanID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(sub))
}
