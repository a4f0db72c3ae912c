// Package pending реализует HTTP-обработчик списка подписок, ожидающих решения.
package pending

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

// Handler возвращает подписки в статусе pending.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение ожидающих подписок.
type Service interface {
	ListPending(ctx context.Context) ([]*models.Subscription, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает GET /api/admin/subscriptions/pending.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.pending"

	subs, err := h.service.ListPending(r.Context())
	if err != nil {
		h.log.Error("failed to list pending subscriptions",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	if subs == nil {
		subs = []*models.Subscription{}
	}
	render.JSON(w, r, response.OKWithData(subs))
}
