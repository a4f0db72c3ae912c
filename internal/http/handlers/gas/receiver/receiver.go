// Package receiver реализует административные HTTP-обработчики адреса
// получателя комиссии: чтение и замену.
package receiver

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
)

// Request — новый адрес получателя.
type Request struct {
	Address string `json:"address" validate:"required"`
}

// Registry хранит адрес получателя комиссии.
type Registry interface {
	Get() string
	Set(ctx context.Context, address string) error
}

// Handler обслуживает GET и POST /api/admin/gas-receiver.
type Handler struct {
	log      *slog.Logger
	registry Registry
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry Registry) *Handler {
	return &Handler{log: log, registry: registry, validate: validator.New()}
}

// Get возвращает текущий адрес.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]string{"address": h.registry.Get()}))
}

// Set заменяет адрес для всех последующих транзакций.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.gas.receiver.set"
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

	if err := h.registry.Set(r.Context(), req.Address); err != nil {
		log.Error("failed to set gas receiver", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]string{"address": req.Address}))
}
