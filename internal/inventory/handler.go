package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/store"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountMaterialRoutes registers the stock routes that sit next to material CRUD.
func (h *Handler) MountMaterialRoutes(r chi.Router) {
	r.Get("/low-stock", h.handleLowStock)
	r.Post("/{id}/needs-check", h.handleToggleNeedsCheck)
}

// MountPurchaseRoutes registers purchase routes.
func (h *Handler) MountPurchaseRoutes(r chi.Router) {
	r.Get("/", h.handleListPurchases)
	r.Post("/", h.handleRecordPurchase)
}

// MountUnitRoutes registers unit routes.
func (h *Handler) MountUnitRoutes(r chi.Router) {
	r.Get("/", h.handleListUnits)
	r.Post("/", h.handleAddUnit)
	r.Delete("/{key}", h.handleRemoveUnit)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.LowStock(r.Context())
	if err != nil {
		h.fail(w, "low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, materials)
}

func (h *Handler) handleToggleNeedsCheck(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	mat, err := h.service.ToggleNeedsCheck(r.Context(), id)
	if err != nil {
		h.fail(w, "toggle needs check", err)
		return
	}
	httpx.JSON(w, http.StatusOK, mat)
}

func (h *Handler) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.service.ListPurchases(r.Context())
	if err != nil {
		h.fail(w, "list purchases", err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchases)
}

func (h *Handler) handleRecordPurchase(w http.ResponseWriter, r *http.Request) {
	var input PurchaseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.RecordPurchase(r.Context(), input)
	if err != nil {
		h.fail(w, "record purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.service.Units(r.Context())
	if err != nil {
		h.fail(w, "list units", err)
		return
	}
	httpx.JSON(w, http.StatusOK, units)
}

type unitRequest struct {
	Label string `json:"label"`
}

func (h *Handler) handleAddUnit(w http.ResponseWriter, r *http.Request) {
	var req unitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	unit, err := h.service.AddUnit(r.Context(), req.Label)
	if err != nil {
		h.fail(w, "add unit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, unit)
}

func (h *Handler) handleRemoveUnit(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.RemoveUnit(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, "remove unit", err)
		return
	}
	if !removed {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, store.ErrNotFound), errors.Is(err, httpx.ErrConflict):
	default:
		h.logger.Error("inventory: "+action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
