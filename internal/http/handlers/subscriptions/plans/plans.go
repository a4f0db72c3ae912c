// Package plans реализует HTTP-обработчик каталога тарифных планов.
package plans

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/ledgersandbox/ledger-sandbox/internal/http/response"
	"github.com/ledgersandbox/ledger-sandbox/internal/models"
)

// Catalog отдаёт статический каталог.
type Catalog interface {
	ListPlans() []models.Plan
}

// Handler возвращает каталог планов.
type Handler struct {
	catalog Catalog
}

// New создает новый экземпляр Handler.
func New(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// ServeHTTP обрабатывает GET /api/subscription-plans.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(h.catalog.ListPlans()))
}
