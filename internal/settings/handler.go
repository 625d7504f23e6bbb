package settings

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/httpx"
)

// Handler wires settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the settings handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/shop-profile", h.handleGetProfile)
	r.Put("/shop-profile", h.handlePutProfile)
	r.Get("/{key}", h.handleGet)
	r.Put("/{key}", h.handlePut)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	raw, err := h.service.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]json.RawMessage{"value": raw})
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, err)
		return
	}
	if body.Value == nil {
		body.Value = json.RawMessage("null")
	}
	key := chi.URLParam(r, "key")
	if err := h.service.Put(r.Context(), key, body.Value); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"key": key, "value": body.Value})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.ShopProfile(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var profile ShopProfile
	if err := httpx.DecodeJSON(r, &profile); err != nil {
		httpx.RespondError(w, err)
		return
	}
	saved, err := h.service.SaveShopProfile(r.Context(), profile)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if !errors.Is(err, model.ErrValidation) && !errors.Is(err, ErrNotFound) {
		h.logger.Error("settings: request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
