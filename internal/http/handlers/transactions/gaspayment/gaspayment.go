// Package gaspayment реализует HTTP-обработчик подтверждения оплаты комиссии транзакции.
package gaspayment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/middlewarectx"
	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Request — тело запроса.
type Request struct {
	Confirmed bool `json:"confirmed"`
}

// Handler меняет флаг оплаты комиссии. Менять его может владелец транзакции или администратор.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение транзакции и подтверждение оплаты комиссии.
type Service interface {
	Get(ctx context.Context, id string) (*models.Transaction, error)
	ConfirmGasPayment(ctx context.Context, id string, confirmed bool) (*models.Transaction, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает PATCH /api/transactions/{id}/gas-payment.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transactions.gaspayment"
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

	id := chi.URLParam(r, "id")
	current, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to read transaction", slog.String("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	userID, _ := middlewarectx.UserIDFrom(r.Context())
	if current.UserID != userID && !middlewarectx.IsAdmin(r.Context()) {
		log.Warn("gas payment confirmation for another user's transaction", slog.String("id", id))
		response.ServiceError(w, r, models.ErrUnauthorized)
		return
	}

	t, err := h.service.ConfirmGasPayment(r.Context(), id, req.Confirmed)
	if err != nil {
		log.Error("failed to confirm gas payment", slog.String("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("gas payment updated", slog.String("id", id), slog.Bool("confirmed", req.Confirmed))
	render.JSON(w, r, response.OKWithData(t))
}
