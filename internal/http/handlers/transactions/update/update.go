// Package update реализует HTTP-обработчик частичного обновления транзакции администратором.
package update

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
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Handler применяет изменения к транзакции.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает обновление транзакции.
type Service interface {
	Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP обрабатывает PATCH /api/admin/transactions/{id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transactions.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var patch models.TransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id := chi.URLParam(r, "id")
	t, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		log.Error("failed to update transaction", slog.String("id", id), sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("transaction updated", slog.String("id", id), slog.String("status", t.Status))
	render.JSON(w, r, response.OKWithData(t))
}
