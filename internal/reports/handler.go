package reports

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/httpx"
)

// Handler wires report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profit", h.handleProfit)
	r.Get("/dashboard", h.handleDashboard)
}

func (h *Handler) handleProfit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.service.Profit(r.Context(), Range{From: model.Date(q.Get("from")), To: model.Date(q.Get("to"))})
	if err != nil {
		h.fail(w, "profit report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	if !errors.Is(err, model.ErrValidation) {
		h.logger.Error("reports: "+action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
