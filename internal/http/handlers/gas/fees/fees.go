// Package fees реализует HTTP-обработчик публичной информации о комиссии.
package fees

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
)

// Registry отдаёт адрес получателя и тарифы комиссии.
type Registry interface {
	Get() string
	Fees() map[string]decimal.Decimal
}

// Handler возвращает адрес получателя комиссии и тарифы.
type Handler struct {
	log      *slog.Logger
	registry Registry
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry Registry) *Handler {
	return &Handler{log: log, registry: registry}
}

// ServeHTTP обрабатывает GET /api/gas-fees.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"receiverAddress": h.registry.Get(),
		"fees":            h.registry.Fees(),
	}))
}
