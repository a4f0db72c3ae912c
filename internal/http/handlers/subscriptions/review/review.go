// Package review реализует HTTP-обработчики решения администратора по подписке.
package review

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Service описывает переходы подписки из pending.
type Service interface {
	Approve(ctx context.Context, id string) (*models.Subscription, error)
	Reject(ctx context.Context, id string) (*models.Subscription, error)
}

// Handler обслуживает approve и reject.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Approve обрабатывает POST /api/admin/subscriptions/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "approve", h.service.Approve)
}

// Reject обрабатывает POST /api/admin/subscriptions/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "reject", h.service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, action string,
	apply func(ctx context.Context, id string) (*models.Subscription, error)) {
	const op = "handlers.subscriptions.review"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("action", action),
		slog.String("id", id),
	)

	sub, err := apply(r.Context(), id)
	if err != nil {
		log.Error("failed to review subscription", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("subscription reviewed", slog.String("status", sub.Status))
	render.JSON(w, r, response.OKWithData(sub))
}
